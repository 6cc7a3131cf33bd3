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
	. "github.com/gomlx/exceptions"
	"gonum.org/v1/gonum/mat"
)

// AsVariable promotes x to a scalar Variable.
//
// Accepted: Variable; *VariableMatrix and *VariableBlock of shape 1x1,
// whose single entry is returned unchanged; and the Go numbers int, int32,
// int64, float32 and float64, which are promoted to Constants. Any other
// type panics, as does a matrix larger than 1x1.
func AsVariable(x any) Variable {
	switch v := x.(type) {
	case Variable:
		v.AssertValid()
		return v
	case *VariableMatrix:
		v.AssertValid()
		return scalarEntry(v)
	case *VariableBlock:
		v.AssertValid()
		return scalarEntry(v.Matrix())
	case int:
		return Constant(v)
	case int32:
		return Constant(v)
	case int64:
		return Constant(v)
	case float32:
		return Constant(v)
	case float64:
		return Constant(v)
	}
	Panicf("autodiff: cannot use a value of type %T as a scalar operand", x)
	return Variable{}
}

func scalarEntry(m *VariableMatrix) Variable {
	if m.rows != 1 || m.cols != 1 {
		panicShapef("cannot use a %dx%d matrix as a scalar operand, only 1x1 matrices are scalar-like", m.rows, m.cols)
	}
	return m.data[0]
}

// asMatrix promotes x to a matrix for element-wise operations and
// comparisons. Scalar-like operands become a 1x1 matrix sharing the scalar
// node; gonum matrices are snapshotted into Constant entries, following
// the same promotion rule as literal numbers.
func asMatrix(x any) *VariableMatrix {
	switch v := x.(type) {
	case *VariableMatrix:
		v.AssertValid()
		return v
	case *VariableBlock:
		v.AssertValid()
		return v.Matrix()
	case Variable:
		v.AssertValid()
		return matrixOfScalar(v)
	case mat.Matrix:
		return constantsFromMat(v)
	case int:
		return matrixOfScalar(Constant(v))
	case int32:
		return matrixOfScalar(Constant(v))
	case int64:
		return matrixOfScalar(Constant(v))
	case float32:
		return matrixOfScalar(Constant(v))
	case float64:
		return matrixOfScalar(Constant(v))
	}
	Panicf("autodiff: cannot use a value of type %T as a matrix operand", x)
	return nil
}

func matrixOfScalar(v Variable) *VariableMatrix {
	return &VariableMatrix{rows: 1, cols: 1, data: []Variable{v}}
}

func constantsFromMat(src mat.Matrix) *VariableMatrix {
	rows, cols := src.Dims()
	m := emptyMatrix(rows, cols)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			m.data[i*cols+j] = Constant(src.At(i, j))
		}
	}
	return m
}
