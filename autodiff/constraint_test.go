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
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func filled(rows, cols int, value float64) *VariableMatrix {
	m := NewVariableMatrix(rows, cols)
	m.Fill(value)
	return m
}

// truthPairs are the value pairs the truth tables run over: equal, ordered
// and reverse-ordered.
var truthPairs = [][2]float64{{1, 1}, {1, 2}, {2, 1}}

// checkPairings builds the comparison for every supported operand pairing
// of the values a and b and asserts its truth value.
func checkPairings(t *testing.T, name string, build func(lhs, rhs any) bool, a, b float64, want bool) {
	t.Helper()
	assert.Equalf(t, want, build(NewVariable(a), b), "%s(Variable(%v), %v)", name, a, b)
	assert.Equalf(t, want, build(a, NewVariable(b)), "%s(%v, Variable(%v))", name, a, b)
	assert.Equalf(t, want, build(NewVariable(a), NewVariable(b)), "%s(Variable(%v), Variable(%v))", name, a, b)
	assert.Equalf(t, want, build(filled(2, 2, a), b), "%s(Matrix(%v), %v)", name, a, b)
	assert.Equalf(t, want, build(a, filled(2, 2, b)), "%s(%v, Matrix(%v))", name, a, b)
	assert.Equalf(t, want, build(filled(2, 2, a), filled(2, 2, b)), "%s(Matrix(%v), Matrix(%v))", name, a, b)
	assert.Equalf(t, want, build(NewVariable(a), filled(2, 2, b)), "%s(Variable(%v), Matrix(%v))", name, a, b)
	assert.Equalf(t, want, build(filled(2, 2, a), NewVariable(b)), "%s(Matrix(%v), Variable(%v))", name, a, b)
}

func TestEqualityTruthTable(t *testing.T) {
	for _, pair := range truthPairs {
		a, b := pair[0], pair[1]
		checkPairings(t, "Equal", func(lhs, rhs any) bool {
			return Equal(lhs, rhs).Bool()
		}, a, b, a == b)
	}
}

func TestInequalityTruthTable(t *testing.T) {
	builders := []struct {
		name  string
		build func(lhs, rhs any) InequalityConstraints
		truth func(a, b float64) bool
	}{
		// Strict comparisons evaluate as their non-strict counterparts.
		{"Less", Less, func(a, b float64) bool { return a <= b }},
		{"LessEqual", LessEqual, func(a, b float64) bool { return a <= b }},
		{"Greater", Greater, func(a, b float64) bool { return a >= b }},
		{"GreaterEqual", GreaterEqual, func(a, b float64) bool { return a >= b }},
	}
	for _, builder := range builders {
		t.Run(builder.name, func(t *testing.T) {
			for _, pair := range truthPairs {
				a, b := pair[0], pair[1]
				checkPairings(t, builder.name, func(lhs, rhs any) bool {
					return builder.build(lhs, rhs).Bool()
				}, a, b, builder.truth(a, b))
			}
		})
	}
}

func TestStrictComparisonsNormalize(t *testing.T) {
	x := NewVariable(1.0)

	less := Less(x, 2.0)
	require.Len(t, less, 1)
	assert.Equal(t, RelationLessOrEqual, less[0].Relation())

	greater := Greater(x, 2.0)
	require.Len(t, greater, 1)
	assert.Equal(t, RelationGreaterOrEqual, greater[0].Relation())

	// At the boundary the normalized semantics show: 2 < 2 holds as 2 <= 2.
	x.SetValue(2.0)
	assert.True(t, less.Bool())
	assert.True(t, Less(x, 2.0).Bool())
	assert.True(t, Greater(x, 2.0).Bool())
}

func TestConstraintTracksCurrentValues(t *testing.T) {
	x := NewVariable(1.0)
	cs := Equal(x, 2.0)

	// Construction records operands, not truth.
	assert.False(t, cs.Bool())
	x.SetValue(2.0)
	assert.True(t, cs.Bool())
	x.SetValue(3.0)
	assert.False(t, cs.Bool())

	ineq := LessEqual(x.Mul(x), 10.0)
	assert.True(t, ineq.Bool())
	x.SetValue(4.0)
	assert.False(t, ineq.Bool())
}

func TestConstraintAccessors(t *testing.T) {
	x := NewVariable(1.0)

	eq := Equal(x, 2.0)[0]
	assert.Equal(t, RelationEqual, eq.Relation())
	assert.Equal(t, 1.0, eq.Lhs().Value())
	assert.Equal(t, 2.0, eq.Rhs().Value())
	assert.Equal(t, -1.0, eq.Residual().Value())

	// Inequality residuals are non-negative where the constraint holds.
	le := LessEqual(x, 5.0)[0]
	assert.Equal(t, 4.0, le.Residual().Value())
	ge := GreaterEqual(x, 5.0)[0]
	assert.Equal(t, -4.0, ge.Residual().Value())

	x.SetValue(5.0)
	assert.Equal(t, 0.0, le.Residual().Value())
	assert.Equal(t, 0.0, ge.Residual().Value())

	assert.Equal(t, ExpressionTypeLinear, le.Residual().Type())
}

func TestNaNComparesFalse(t *testing.T) {
	zero := NewVariable(0.0)
	nan := zero.Div(zero)
	require.True(t, math.IsNaN(nan.Value()))

	assert.False(t, Equal(nan, nan).Bool())
	assert.False(t, Equal(nan, 1.0).Bool())
	assert.False(t, Less(nan, 1.0).Bool())
	assert.False(t, LessEqual(1.0, nan).Bool())
	assert.False(t, Greater(nan, 1.0).Bool())
	assert.False(t, GreaterEqual(nan, nan).Bool())
}

func TestInfinityOrdering(t *testing.T) {
	inf := NewVariable(math.Inf(1))
	negInf := NewVariable(math.Inf(-1))
	x := NewVariable(5.0)

	// Both operand values are compared directly, so equal infinities are in
	// order even though their difference is NaN.
	assert.True(t, Equal(inf, inf).Bool())
	assert.True(t, LessEqual(inf, inf).Bool())
	assert.True(t, GreaterEqual(inf, inf).Bool())
	assert.True(t, math.IsNaN(LessEqual(inf, inf)[0].Residual().Value()))

	assert.True(t, LessEqual(negInf, x).Bool())
	assert.True(t, LessEqual(x, inf).Bool())
	assert.False(t, LessEqual(inf, x).Bool())
	assert.True(t, GreaterEqual(inf, x).Bool())
	assert.False(t, Equal(inf, negInf).Bool())
}

func TestMatrixConstraints(t *testing.T) {
	a := MatrixFromSlice([][]float64{{1, 2}, {3, 4}})
	b := MatrixFromSlice([][]float64{{1, 2}, {3, 4}})

	cs := Equal(a, b)
	require.Len(t, cs, 4)
	assert.True(t, cs.Bool())

	// One violated element is enough for the conjunction to fail.
	b.At(1, 1).SetValue(5.0)
	assert.False(t, cs.Bool())

	// Scalar-like sides compare against every element.
	bound := LessEqual(a, 4.0)
	require.Len(t, bound, 4)
	assert.True(t, bound.Bool())
	a.At(0, 0).SetValue(10.0)
	assert.False(t, bound.Bool())

	one := filled(1, 1, 0.0)
	below := LessEqual(one, a)
	require.Len(t, below, 4)

	requireShapeMismatch(t, func() {
		Equal(NewVariableMatrix(2, 1), NewVariableMatrix(1, 2))
	})
	requireShapeMismatch(t, func() {
		LessEqual(NewVariableMatrix(2, 2), NewVariableMatrix(2, 3))
	})
}

func TestEmptyComparisonIsVacuouslyTrue(t *testing.T) {
	cs := Equal(NewVariableMatrix(0, 2), NewVariableMatrix(0, 2))
	assert.Len(t, cs, 0)
	assert.True(t, cs.Bool())
	assert.True(t, InequalityConstraints(nil).Bool())
}

func TestSharedOperandsAcrossConstraints(t *testing.T) {
	x := NewVariable(0.0)
	lower := GreaterEqual(x, -1.0)
	upper := LessEqual(x, 1.0)

	assert.True(t, lower.Bool() && upper.Bool())
	x.SetValue(2.0)
	assert.True(t, lower.Bool())
	assert.False(t, upper.Bool())
}

func TestZeroConstraintPanics(t *testing.T) {
	var c Constraint
	assert.Panics(t, func() { c.Bool() })
	assert.Equal(t, "Constraint(zero)", c.String())
}

func TestConstraintString(t *testing.T) {
	x := NewVariable(1.5)
	c := LessEqual(x, 2.0)[0]
	assert.Equal(t, "1.5 <= 2", c.String())
	assert.Equal(t, "==", RelationEqual.String())
	assert.Equal(t, ">=", RelationGreaterOrEqual.String())
}
