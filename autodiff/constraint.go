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

	. "github.com/gomlx/exceptions"
)

// Relation is the kind of comparison a Constraint records. Strict
// comparisons never appear here: Less and Greater construct the
// corresponding non-strict relation.
type Relation int

const (
	RelationEqual Relation = iota
	RelationLessOrEqual
	RelationGreaterOrEqual
)

// String implements the fmt.Stringer interface.
func (r Relation) String() string {
	switch r {
	case RelationEqual:
		return "=="
	case RelationLessOrEqual:
		return "<="
	case RelationGreaterOrEqual:
		return ">="
	}
	return fmt.Sprintf("Relation(%d)", int(r))
}

// Constraint relates two scalar expressions. It is immutable: the operands
// and the relation are fixed when the comparison is built. What changes
// underneath are the variable values, so its truth is a question about the
// present, answered by Bool.
//
// Alongside the compared operands the constraint carries a residual
// expression for solvers: lhs - rhs for == and >=, rhs - lhs for <=, so a
// satisfied inequality always has a non-negative residual.
type Constraint struct {
	relation Relation
	lhs, rhs Variable
	residual Variable
}

// AssertValid panics if c is the zero Constraint.
func (c Constraint) AssertValid() {
	if c.lhs.expr == nil || c.rhs.expr == nil || c.residual.expr == nil {
		Panicf("autodiff: zero Constraint; build constraints with Equal, Less, LessEqual, Greater or GreaterEqual")
	}
}

// Relation returns the recorded comparison kind.
func (c Constraint) Relation() Relation { return c.relation }

// Lhs returns the left-hand operand.
func (c Constraint) Lhs() Variable { return c.lhs }

// Rhs returns the right-hand operand.
func (c Constraint) Rhs() Variable { return c.rhs }

// Residual returns the residual expression; it is zero at equality and
// non-negative where an inequality holds.
func (c Constraint) Residual() Variable { return c.residual }

// Bool reports whether the relation holds under the current variable
// values. Both operands are refreshed and compared directly with IEEE-754
// semantics: a NaN on either side makes the result false, and equal
// infinities on both sides of <= or >= are in order.
func (c Constraint) Bool() bool {
	c.AssertValid()
	lhs := c.lhs.Value()
	rhs := c.rhs.Value()
	switch c.relation {
	case RelationEqual:
		return lhs == rhs
	case RelationLessOrEqual:
		return lhs <= rhs
	case RelationGreaterOrEqual:
		return lhs >= rhs
	}
	return false
}

// String implements the fmt.Stringer interface, printing current values.
func (c Constraint) String() string {
	if c.lhs.expr == nil {
		return "Constraint(zero)"
	}
	return fmt.Sprintf("%g %s %g", c.lhs.Value(), c.relation, c.rhs.Value())
}

// EqualityConstraints is the element-wise expansion of an == comparison.
type EqualityConstraints []Constraint

// Bool reports whether every element holds under the current variable
// values; it is vacuously true for an empty list.
func (cs EqualityConstraints) Bool() bool { return allHold(cs) }

// InequalityConstraints is the element-wise expansion of a <=, <, >= or >
// comparison.
type InequalityConstraints []Constraint

// Bool reports whether every element holds under the current variable
// values; it is vacuously true for an empty list.
func (cs InequalityConstraints) Bool() bool { return allHold(cs) }

func allHold(cs []Constraint) bool {
	for _, c := range cs {
		if !c.Bool() {
			return false
		}
	}
	return true
}

// Equal compares lhs and rhs element-wise and returns the resulting
// equality constraints.
//
// Operands follow the same promotion rules in every comparison: Variables,
// matrices, blocks, gonum matrices and Go numbers are accepted on either
// side. Shapes must match exactly, or one side must be scalar-like (a
// scalar or 1x1 matrix), which is compared against every entry of the
// other. Anything else panics wrapping ErrShapeMismatch. Building a
// comparison never evaluates its truth.
func Equal(lhs, rhs any) EqualityConstraints {
	return EqualityConstraints(makeConstraints(RelationEqual, lhs, rhs))
}

// Less returns the constraints lhs < rhs. Strict comparisons are recorded
// and evaluated as their non-strict counterparts, so the result is
// identical to LessEqual.
func Less(lhs, rhs any) InequalityConstraints {
	return LessEqual(lhs, rhs)
}

// LessEqual returns the constraints lhs <= rhs.
func LessEqual(lhs, rhs any) InequalityConstraints {
	return InequalityConstraints(makeConstraints(RelationLessOrEqual, lhs, rhs))
}

// Greater returns the constraints lhs > rhs. Strict comparisons are
// recorded and evaluated as their non-strict counterparts, so the result
// is identical to GreaterEqual.
func Greater(lhs, rhs any) InequalityConstraints {
	return GreaterEqual(lhs, rhs)
}

// GreaterEqual returns the constraints lhs >= rhs.
func GreaterEqual(lhs, rhs any) InequalityConstraints {
	return InequalityConstraints(makeConstraints(RelationGreaterOrEqual, lhs, rhs))
}

func makeConstraints(relation Relation, lhs, rhs any) []Constraint {
	lm := asMatrix(lhs)
	rm := asMatrix(rhs)
	rows, cols := broadcastDims(relation.String(), lm, rm)
	out := make([]Constraint, 0, rows*cols)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			l := broadcastEntry(lm, i, j)
			r := broadcastEntry(rm, i, j)
			var residual Variable
			if relation == RelationLessOrEqual {
				residual = r.Sub(l)
			} else {
				residual = l.Sub(r)
			}
			out = append(out, Constraint{relation: relation, lhs: l, rhs: r, residual: residual})
		}
	}
	return out
}
