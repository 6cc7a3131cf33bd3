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

package autodiff

import (
	"fmt"
	"math"
	"sync/atomic"

	"github.com/gomlx/exceptions"
)

// Opcode identifies the operation performed by a node of the expression
// graph.
type Opcode int

const (
	// OpInvalid is the zero Opcode; no valid node carries it.
	OpInvalid Opcode = iota

	// OpConstant is a leaf holding a fixed value.
	OpConstant

	// OpVariable is a leaf whose value is assigned from outside the graph,
	// typically a decision variable written by a solver.
	OpVariable

	OpAdd
	OpSub
	OpMul
	OpDiv
	OpNeg

	OpAbs
	OpAcos
	OpAsin
	OpAtan
	OpAtan2
	OpCos
	OpCosh
	OpErf
	OpExp
	OpHypot
	OpLog
	OpLog10
	OpPow
	OpSin
	OpSinh
	OpSqrt
	OpTan
	OpTanh

	opcodeLast
)

var opcodeNames = [opcodeLast]string{
	OpInvalid:  "Invalid",
	OpConstant: "Constant",
	OpVariable: "Variable",
	OpAdd:      "Add",
	OpSub:      "Sub",
	OpMul:      "Mul",
	OpDiv:      "Div",
	OpNeg:      "Neg",
	OpAbs:      "Abs",
	OpAcos:     "Acos",
	OpAsin:     "Asin",
	OpAtan:     "Atan",
	OpAtan2:    "Atan2",
	OpCos:      "Cos",
	OpCosh:     "Cosh",
	OpErf:      "Erf",
	OpExp:      "Exp",
	OpHypot:    "Hypot",
	OpLog:      "Log",
	OpLog10:    "Log10",
	OpPow:      "Pow",
	OpSin:      "Sin",
	OpSinh:     "Sinh",
	OpSqrt:     "Sqrt",
	OpTan:      "Tan",
	OpTanh:     "Tanh",
}

// String implements the fmt.Stringer interface.
func (op Opcode) String() string {
	if op < 0 || op >= opcodeLast {
		return fmt.Sprintf("Opcode(%d)", int(op))
	}
	return opcodeNames[op]
}

// ExpressionType classifies an expression by the highest polynomial degree
// it reaches in its leaf variables. Solvers use it to pick specialized
// strategies for constant, linear or quadratic problems.
type ExpressionType int

const (
	// ExpressionTypeNone classifies an absent expression, such as the cost
	// of a problem where no cost was set.
	ExpressionTypeNone ExpressionType = iota

	// ExpressionTypeConstant contains no variables.
	ExpressionTypeConstant

	// ExpressionTypeLinear is degree one in the variables.
	ExpressionTypeLinear

	// ExpressionTypeQuadratic is degree two in the variables.
	ExpressionTypeQuadratic

	// ExpressionTypeNonlinear is anything past quadratic, including every
	// transcendental function of a variable.
	ExpressionTypeNonlinear
)

// String implements the fmt.Stringer interface.
func (t ExpressionType) String() string {
	switch t {
	case ExpressionTypeNone:
		return "none"
	case ExpressionTypeConstant:
		return "constant"
	case ExpressionTypeLinear:
		return "linear"
	case ExpressionTypeQuadratic:
		return "quadratic"
	case ExpressionTypeNonlinear:
		return "nonlinear"
	}
	return fmt.Sprintf("ExpressionType(%d)", int(t))
}

func maxExprType(a, b ExpressionType) ExpressionType {
	if a > b {
		return a
	}
	return b
}

func degreeOf(t ExpressionType) int {
	switch t {
	case ExpressionTypeConstant:
		return 0
	case ExpressionTypeLinear:
		return 1
	case ExpressionTypeQuadratic:
		return 2
	}
	return 3
}

func typeOfDegree(degree int) ExpressionType {
	switch degree {
	case 0:
		return ExpressionTypeConstant
	case 1:
		return ExpressionTypeLinear
	case 2:
		return ExpressionTypeQuadratic
	}
	return ExpressionTypeNonlinear
}

// mulExprType: constant factors are transparent, otherwise polynomial
// degrees add up and anything past quadratic degrades to nonlinear.
func mulExprType(lhs, rhs ExpressionType) ExpressionType {
	if lhs == ExpressionTypeConstant {
		return rhs
	}
	if rhs == ExpressionTypeConstant {
		return lhs
	}
	return typeOfDegree(degreeOf(lhs) + degreeOf(rhs))
}

// divExprType: dividing by a constant keeps the numerator's type, dividing
// by anything else is nonlinear.
func divExprType(lhs, rhs ExpressionType) ExpressionType {
	if rhs == ExpressionTypeConstant {
		return lhs
	}
	return ExpressionTypeNonlinear
}

// unaryFuncType: transcendental functions of a constant fold to a constant
// classification, of anything else to nonlinear.
func unaryFuncType(arg ExpressionType) ExpressionType {
	if arg == ExpressionTypeConstant {
		return ExpressionTypeConstant
	}
	return ExpressionTypeNonlinear
}

// powExprType: a constant non-negative integer exponent multiplies the
// base's degree, so the square of a linear expression classifies as
// quadratic. Every other exponent makes the result nonlinear.
func powExprType(base ExpressionType, exponent *Expression) ExpressionType {
	if exponent.exprType != ExpressionTypeConstant {
		return ExpressionTypeNonlinear
	}
	if base == ExpressionTypeConstant {
		return ExpressionTypeConstant
	}
	p := exponent.value
	if p != math.Trunc(p) || p < 0 || p > 3 {
		return ExpressionTypeNonlinear
	}
	return typeOfDegree(degreeOf(base) * int(p))
}

var (
	// exprIDs hands out node ids in construction order.
	exprIDs atomic.Uint64

	// valueEpochs advances whenever a leaf value is written. Cached values
	// stamped with an older epoch are recomputed on the next read.
	valueEpochs atomic.Uint64
)

func currentEpoch() uint64 { return valueEpochs.Load() }

// Expression is one node of an expression graph: an operation, its operand
// nodes and a cached value. Nodes are created by operating on Variables and
// are immutable except for the cached value of OpVariable leaves, which is
// assigned through Variable.SetValue.
//
// Expressions form a DAG: a node may appear under many parents and its
// value is computed once per refresh. Sharing is the normal outcome of
// reusing a Variable in several formulas.
type Expression struct {
	value    float64
	op       Opcode
	exprType ExpressionType
	fn       func(lhs, rhs float64) float64
	args     [2]*Expression
	id       uint64
	epoch    uint64
}

func newConstantExpr(value float64) *Expression {
	return &Expression{
		value:    value,
		op:       OpConstant,
		exprType: ExpressionTypeConstant,
		id:       exprIDs.Add(1),
		epoch:    currentEpoch(),
	}
}

func newLeafExpr(value float64) *Expression {
	return &Expression{
		value:    value,
		op:       OpVariable,
		exprType: ExpressionTypeLinear,
		id:       exprIDs.Add(1),
		epoch:    currentEpoch(),
	}
}

// newUnaryExpr builds an operation node over one operand. The operand is
// refreshed first so the new node's value is never derived from a stale
// cache.
func newUnaryExpr(op Opcode, exprType ExpressionType, fn func(lhs, rhs float64) float64, arg *Expression) *Expression {
	epoch := currentEpoch()
	arg.refresh(epoch)
	return &Expression{
		value:    fn(arg.value, 0),
		op:       op,
		exprType: exprType,
		fn:       fn,
		args:     [2]*Expression{arg},
		id:       exprIDs.Add(1),
		epoch:    epoch,
	}
}

// newBinaryExpr builds an operation node over two operands, refreshing both
// first.
func newBinaryExpr(op Opcode, exprType ExpressionType, fn func(lhs, rhs float64) float64, lhs, rhs *Expression) *Expression {
	epoch := currentEpoch()
	lhs.refresh(epoch)
	rhs.refresh(epoch)
	return &Expression{
		value:    fn(lhs.value, rhs.value),
		op:       op,
		exprType: exprType,
		fn:       fn,
		args:     [2]*Expression{lhs, rhs},
		id:       exprIDs.Add(1),
		epoch:    epoch,
	}
}

// setValue writes a leaf value and advances the global epoch, invalidating
// every cached value except this node's own.
func (e *Expression) setValue(value float64) {
	e.value = value
	e.epoch = valueEpochs.Add(1)
}

// refresh brings the cached value up to date with the given epoch. The walk
// is iterative, children before parents, so arbitrarily deep chains (long
// running sums, unrolled trajectories) do not grow the call stack, and a
// node shared under many parents is recomputed once.
func (e *Expression) refresh(epoch uint64) {
	if e.epoch == epoch {
		return
	}
	type frame struct {
		node     *Expression
		expanded bool
	}
	stack := make([]frame, 1, 64)
	stack[0] = frame{node: e}
	for len(stack) > 0 {
		f := &stack[len(stack)-1]
		if !f.expanded {
			f.expanded = true
			for _, arg := range f.node.args {
				if arg != nil && arg.epoch != epoch {
					stack = append(stack, frame{node: arg})
				}
			}
			continue
		}
		n := f.node
		stack = stack[:len(stack)-1]
		if n.epoch == epoch {
			continue
		}
		if n.fn != nil {
			var lhs, rhs float64
			lhs = n.args[0].value
			if n.args[1] != nil {
				rhs = n.args[1].value
			}
			n.value = n.fn(lhs, rhs)
		}
		n.epoch = epoch
	}
}

// Op returns the operation this node performs.
func (e *Expression) Op() Opcode {
	if e == nil {
		return OpInvalid
	}
	return e.op
}

// Type returns the algebraic classification of the expression rooted here.
func (e *Expression) Type() ExpressionType {
	if e == nil {
		return ExpressionTypeNone
	}
	return e.exprType
}

// Value returns the cached value without refreshing it. Use Variable.Value
// for a read that first recomputes stale caches; solvers walking a graph
// they just refreshed can use this accessor to stay allocation free.
func (e *Expression) Value() float64 {
	return e.value
}

// Id returns the node's creation id. Ids increase monotonically in
// construction order and identify nodes across shared subgraphs.
func (e *Expression) Id() uint64 {
	return e.id
}

// Args returns the operand nodes: empty for leaves, one node for unary
// operations, two for binary ones.
func (e *Expression) Args() []*Expression {
	if e.args[0] == nil {
		return nil
	}
	if e.args[1] == nil {
		return e.args[:1]
	}
	return e.args[:]
}

// AssertValid panics if e is nil.
func (e *Expression) AssertValid() {
	if e == nil {
		exceptions.Panicf("autodiff: Expression is nil")
	}
}

// String implements the fmt.Stringer interface.
func (e *Expression) String() string {
	if e == nil {
		return "Expression(nil)"
	}
	switch e.op {
	case OpConstant:
		return fmt.Sprintf("const(%g)", e.value)
	case OpVariable:
		return fmt.Sprintf("var#%d(%g)", e.id, e.value)
	}
	return fmt.Sprintf("%s#%d(%g)", e.op, e.id, e.value)
}
