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

func TestUnaryMathFunctions(t *testing.T) {
	tests := []struct {
		name string
		fn   func(x any) Variable
		ref  func(x float64) float64
		x    float64
	}{
		{"Abs", Abs, math.Abs, -3.5},
		{"Acos", Acos, math.Acos, 0.5},
		{"Asin", Asin, math.Asin, 0.5},
		{"Atan", Atan, math.Atan, 0.7},
		{"Cos", Cos, math.Cos, 1.2},
		{"Cosh", Cosh, math.Cosh, 1.2},
		{"Erf", Erf, math.Erf, 0.9},
		{"Exp", Exp, math.Exp, 1.3},
		{"Log", Log, math.Log, 2.7},
		{"Log10", Log10, math.Log10, 250.0},
		{"Sin", Sin, math.Sin, 1.2},
		{"Sinh", Sinh, math.Sinh, 1.2},
		{"Sqrt", Sqrt, math.Sqrt, 2.0},
		{"Tan", Tan, math.Tan, 0.3},
		{"Tanh", Tanh, math.Tanh, 0.3},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			x := NewVariable(test.x)
			y := test.fn(x)
			require.Equal(t, test.ref(test.x), y.Value())

			// Values track reassignment like any other node.
			x.SetValue(test.x / 2)
			require.Equal(t, test.ref(test.x/2), y.Value())

			require.Equal(t, ExpressionTypeNonlinear, y.Type())
			require.Equal(t, ExpressionTypeConstant, test.fn(Constant(test.x)).Type())
		})
	}
}

func TestBinaryMathFunctions(t *testing.T) {
	y := NewVariable(3.0)
	x := NewVariable(4.0)

	atan2 := Atan2(y, x)
	require.Equal(t, math.Atan2(3.0, 4.0), atan2.Value())
	require.Equal(t, ExpressionTypeNonlinear, atan2.Type())
	require.Equal(t, OpAtan2, atan2.Expression().Op())

	hypot := Hypot(x, y)
	require.Equal(t, 5.0, hypot.Value())

	pow := Pow(y, x)
	require.Equal(t, 81.0, pow.Value())

	// Mixed operands: numbers promote on either side.
	require.Equal(t, math.Atan2(3.0, 2.0), Atan2(y, 2.0).Value())
	require.Equal(t, 8.0, Pow(2.0, y).Value())
	require.Equal(t, ExpressionTypeConstant, Hypot(3.0, 4.0).Type())

	x.SetValue(6.0)
	require.Equal(t, math.Hypot(6.0, 3.0), hypot.Value())
}

func TestMathDomainViolations(t *testing.T) {
	x := NewVariable(-1.0)

	assert.True(t, math.IsNaN(Log(x).Value()))
	assert.True(t, math.IsNaN(Sqrt(x).Value()))
	assert.True(t, math.IsNaN(Asin(NewVariable(2.0)).Value()))
	assert.True(t, math.IsNaN(Acos(NewVariable(-2.0)).Value()))
	assert.True(t, math.IsInf(Log(NewVariable(0.0)).Value(), -1))
}
