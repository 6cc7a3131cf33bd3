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

package autodiff_test

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/goptim/goptim/autodiff"
)

func ExampleNewVariable() {
	x := autodiff.NewVariable(2.0)
	y := x.Mul(x).Add(1.0)
	fmt.Println(y.Value())

	x.SetValue(3.0)
	fmt.Println(y.Value())
	// Output:
	// 5
	// 10
}

func ExampleEqual() {
	x := autodiff.NewVariable(1.0)
	constraints := autodiff.Equal(x.Mul(2.0), 6.0)
	fmt.Println(constraints.Bool())

	x.SetValue(3.0)
	fmt.Println(constraints.Bool())
	// Output:
	// false
	// true
}

func ExampleVariableMatrix_Mul() {
	a := autodiff.MatrixFromSlice([][]float64{{1, 2}, {3, 4}})
	x := autodiff.MatrixFromSlice([][]float64{{1}, {1}})
	b := a.Mul(x)
	fmt.Println(mat.Formatted(b.Value()))
	// Output:
	// ⎡3⎤
	// ⎣7⎦
}

func ExampleGreaterEqual() {
	p := autodiff.NewVariableMatrix(2, 2)
	p.SetValue(mat.NewDense(2, 2, []float64{1, 0, 0, 1}))

	// Bound every entry from below; one element out of order fails the
	// conjunction.
	bounds := autodiff.GreaterEqual(p, 0.0)
	fmt.Println(len(bounds), bounds.Bool())

	p.At(0, 1).SetValue(-0.5)
	fmt.Println(bounds.Bool())
	// Output:
	// 4 true
	// false
}
