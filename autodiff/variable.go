/*
 *	Copyright 2023 Jan Pfeifer
 *
 *	Licensed under the Apache License, Version 2.0 (the "License");
 *	you may not use this file except in compliance with the License.
 *	You may obtain a copy of the License at
 *
 *	http://www.apache.org/licenses/LICENSE-2.0
 *
 *	Unless required by applicable law or agreed to in writing, software
 *	distributed under the License is distributed on an "AS IS" BASIS,
 *	WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 *	See the License for the specific language governing permissions and
 *	limitations under the License.
 */

// Package autodiff provides the value types with which optimization
// problems are stated: scalar Variable, dense VariableMatrix, submatrix
// VariableBlock views, and the Constraints produced by comparing any of
// them.
//
// Operating on Variables builds an immutable expression graph. Every
// operation creates a new node tagged with an Opcode, pointing at its
// operand nodes and caching its value, which is computed eagerly at
// construction time:
//
//	x := autodiff.NewVariable(2.0)
//	y := x.Mul(x).Add(1.0) // y.Value() == 5
//
// Leaves created with NewVariable are assignable: SetValue writes a new
// value and every expression depending on the leaf observes it on its next
// read. Reads recompute only stale caches, so repeated reads under the same
// assignments cost a pointer walk. Constants, created with Constant or by
// promoting a Go number used as an operand, are not assignable.
//
// Comparing values with Equal, Less, LessEqual, Greater or GreaterEqual
// produces constraints instead of booleans. Constraints are handed to the
// optimize package; their current truth value can always be queried with
// Bool, which compares the freshly refreshed operand values element-wise.
//
// The package performs no locking. Graphs may be read from many goroutines
// as long as nobody assigns values; interleaving SetValue with anything
// else requires external synchronization, which a solver loop provides
// naturally.
package autodiff

import (
	"fmt"

	. "github.com/gomlx/exceptions"
	"golang.org/x/exp/constraints"
)

// Number is the constraint for Go numeric types accepted by the numeric
// constructors.
type Number interface {
	constraints.Integer | constraints.Float
}

// Variable is a scalar handle to one node of the expression graph. Copies
// of a Variable refer to the same node, so passing Variables by value is
// cheap and aliasing is the intended way to share subexpressions.
//
// The zero Variable is invalid; obtain one from NewVariable, Constant, an
// operation result, or a matrix entry.
type Variable struct {
	expr *Expression
}

// NewVariable creates an assignable leaf initialized to the given value.
func NewVariable[N Number](value N) Variable {
	return Variable{expr: newLeafExpr(float64(value))}
}

// Constant creates a fixed-value leaf. Constants are not assignable and
// classify as ExpressionTypeConstant.
func Constant[N Number](value N) Variable {
	return Variable{expr: newConstantExpr(float64(value))}
}

// FromExpression wraps an existing graph node as a Variable. It is the
// inverse of Variable.Expression, for code that walks graphs and wants to
// come back to the operating surface, such as solvers or diagnostics.
func FromExpression(e *Expression) Variable {
	e.AssertValid()
	return Variable{expr: e}
}

// AssertValid panics if v is the zero Variable.
func (v Variable) AssertValid() {
	if v.expr == nil {
		Panicf("autodiff: uninitialized Variable; create one with NewVariable, Constant or an operation")
	}
}

// Expression returns the graph node backing v.
func (v Variable) Expression() *Expression {
	v.AssertValid()
	return v.expr
}

// Value recomputes any stale cached values under v and returns v's current
// value. When no leaf changed since the last read, no recomputation
// happens.
func (v Variable) Value() float64 {
	v.AssertValid()
	v.expr.refresh(currentEpoch())
	return v.expr.value
}

// SetValue assigns a new value to an assignable leaf created by
// NewVariable. Expressions depending on the leaf observe the new value on
// their next read. Assigning to a constant or an operation node panics.
func (v Variable) SetValue(value float64) {
	v.AssertValid()
	if v.expr.op != OpVariable {
		Panicf("autodiff: SetValue on a %s node; only leaves created by NewVariable are assignable", v.expr.op)
	}
	v.expr.setValue(value)
}

// Type returns the algebraic classification of the expression rooted at v.
func (v Variable) Type() ExpressionType {
	v.AssertValid()
	return v.expr.exprType
}

// String implements the fmt.Stringer interface.
func (v Variable) String() string {
	if v.expr == nil {
		return "Variable(uninitialized)"
	}
	return fmt.Sprintf("Variable(%g)", v.Value())
}

func addValues(lhs, rhs float64) float64 { return lhs + rhs }
func subValues(lhs, rhs float64) float64 { return lhs - rhs }
func mulValues(lhs, rhs float64) float64 { return lhs * rhs }
func divValues(lhs, rhs float64) float64 { return lhs / rhs }
func negValue(x, _ float64) float64      { return -x }

func unaryOp(op Opcode, exprType ExpressionType, fn func(lhs, rhs float64) float64, arg Variable) Variable {
	return Variable{expr: newUnaryExpr(op, exprType, fn, arg.expr)}
}

func binaryOp(op Opcode, exprType ExpressionType, fn func(lhs, rhs float64) float64, lhs, rhs Variable) Variable {
	return Variable{expr: newBinaryExpr(op, exprType, fn, lhs.expr, rhs.expr)}
}

// Add returns a new node computing v + rhs.
//
// Here and in the other arithmetic methods, rhs may be a Variable, a 1x1
// matrix or block, or any Go number, which is promoted to a Constant. To
// combine a scalar with a larger matrix operate on the matrix instead.
func (v Variable) Add(rhs any) Variable {
	v.AssertValid()
	r := AsVariable(rhs)
	return binaryOp(OpAdd, maxExprType(v.expr.exprType, r.expr.exprType), addValues, v, r)
}

// Sub returns a new node computing v - rhs.
func (v Variable) Sub(rhs any) Variable {
	v.AssertValid()
	r := AsVariable(rhs)
	return binaryOp(OpSub, maxExprType(v.expr.exprType, r.expr.exprType), subValues, v, r)
}

// Mul returns a new node computing v * rhs.
func (v Variable) Mul(rhs any) Variable {
	v.AssertValid()
	r := AsVariable(rhs)
	return binaryOp(OpMul, mulExprType(v.expr.exprType, r.expr.exprType), mulValues, v, r)
}

// Div returns a new node computing v / rhs. Division follows IEEE-754:
// dividing by zero yields an infinity or a NaN, never a panic.
func (v Variable) Div(rhs any) Variable {
	v.AssertValid()
	r := AsVariable(rhs)
	return binaryOp(OpDiv, divExprType(v.expr.exprType, r.expr.exprType), divValues, v, r)
}

// Neg returns a new node computing -v.
func (v Variable) Neg() Variable {
	v.AssertValid()
	return unaryOp(OpNeg, v.expr.exprType, negValue, v)
}

// Pow returns a new node computing v raised to power. See the package
// function Pow for the classification rules.
func (v Variable) Pow(power any) Variable {
	return Pow(v, power)
}
