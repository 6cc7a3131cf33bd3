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
	"gonum.org/v1/gonum/mat"
)

// VariableBlock is a rectangular view into a VariableMatrix, produced by
// Block, Row and Col. The view shares the parent's entries: writes through
// either side are visible to both, like gonum's Dense.Slice.
//
// Blocks offer the same reading and writing surface as matrices.
// Arithmetic on a block first materializes it with Matrix, so operation
// results are always VariableMatrix.
type VariableBlock struct {
	parent         *VariableMatrix
	rowOff, colOff int
	rows, cols     int
}

// AssertValid panics if b is nil or detached from a parent matrix.
func (b *VariableBlock) AssertValid() {
	if b == nil || b.parent == nil {
		Panicf("autodiff: invalid VariableBlock; obtain one from Block, Row or Col")
	}
}

// Rows returns the number of rows in the view.
func (b *VariableBlock) Rows() int { return b.rows }

// Cols returns the number of columns in the view.
func (b *VariableBlock) Cols() int { return b.cols }

// Dims returns the view dimensions, following the gonum convention.
func (b *VariableBlock) Dims() (rows, cols int) { return b.rows, b.cols }

func (b *VariableBlock) checkIndex(i, j int) {
	if i < 0 || i >= b.rows || j < 0 || j >= b.cols {
		Panicf("autodiff: index (%d, %d) out of range for %dx%d block", i, j, b.rows, b.cols)
	}
}

func (b *VariableBlock) at(i, j int) Variable {
	return b.parent.at(b.rowOff+i, b.colOff+j)
}

// At returns the entry at row i, column j of the view.
func (b *VariableBlock) At(i, j int) Variable {
	b.AssertValid()
	b.checkIndex(i, j)
	return b.at(i, j)
}

// AtVec returns the i-th entry of a row or column view. It panics if the
// view is not a vector.
func (b *VariableBlock) AtVec(i int) Variable {
	b.AssertValid()
	if b.rows != 1 && b.cols != 1 {
		panicShapef("AtVec on a %dx%d block, need a row or column vector", b.rows, b.cols)
	}
	if i < 0 || i >= b.rows*b.cols {
		Panicf("autodiff: vector index %d out of range for %d entries", i, b.rows*b.cols)
	}
	if b.rows == 1 {
		return b.at(0, i)
	}
	return b.at(i, 0)
}

// Set replaces the entry at row i, column j, writing through to the parent
// matrix.
func (b *VariableBlock) Set(i, j int, v Variable) {
	b.AssertValid()
	b.checkIndex(i, j)
	b.parent.Set(b.rowOff+i, b.colOff+j, v)
}

// SetValue assigns src's values to the viewed entries, which must all be
// assignable leaves. Dimensions must match exactly.
func (b *VariableBlock) SetValue(src mat.Matrix) {
	b.AssertValid()
	rows, cols := src.Dims()
	if rows != b.rows || cols != b.cols {
		panicShapef("SetValue: got %dx%d values for a %dx%d block", rows, cols, b.rows, b.cols)
	}
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			b.at(i, j).SetValue(src.At(i, j))
		}
	}
}

// Fill assigns the same value to every viewed entry.
func (b *VariableBlock) Fill(value float64) {
	b.AssertValid()
	for i := 0; i < b.rows; i++ {
		for j := 0; j < b.cols; j++ {
			b.at(i, j).SetValue(value)
		}
	}
}

// Value returns the current values of the view as a dense matrix.
func (b *VariableBlock) Value() *mat.Dense {
	return b.Matrix().Value()
}

// ValueAt returns the current value of the entry at row i, column j.
func (b *VariableBlock) ValueAt(i, j int) float64 {
	return b.At(i, j).Value()
}

// ForEach calls fn for every viewed entry, in row-major order. Indexes are
// relative to the view.
func (b *VariableBlock) ForEach(fn func(i, j int, v Variable)) {
	b.AssertValid()
	for i := 0; i < b.rows; i++ {
		for j := 0; j < b.cols; j++ {
			fn(i, j, b.at(i, j))
		}
	}
}

// Block returns a sub-view of this view.
func (b *VariableBlock) Block(i, j, rows, cols int) *VariableBlock {
	b.AssertValid()
	if i < 0 || j < 0 || rows < 0 || cols < 0 || i+rows > b.rows || j+cols > b.cols {
		Panicf("autodiff: Block(%d, %d, %d, %d) out of range for %dx%d block", i, j, rows, cols, b.rows, b.cols)
	}
	return &VariableBlock{parent: b.parent, rowOff: b.rowOff + i, colOff: b.colOff + j, rows: rows, cols: cols}
}

// Row returns a view of row i of this view.
func (b *VariableBlock) Row(i int) *VariableBlock {
	b.AssertValid()
	if i < 0 || i >= b.rows {
		Panicf("autodiff: Row(%d) out of range for %dx%d block", i, b.rows, b.cols)
	}
	return b.Block(i, 0, 1, b.cols)
}

// Col returns a view of column j of this view.
func (b *VariableBlock) Col(j int) *VariableBlock {
	b.AssertValid()
	if j < 0 || j >= b.cols {
		Panicf("autodiff: Col(%d) out of range for %dx%d block", j, b.rows, b.cols)
	}
	return b.Block(0, j, b.rows, 1)
}

// Matrix materializes the view as a matrix sharing the viewed entries.
func (b *VariableBlock) Matrix() *VariableMatrix {
	b.AssertValid()
	out := emptyMatrix(b.rows, b.cols)
	for i := 0; i < b.rows; i++ {
		for j := 0; j < b.cols; j++ {
			out.data[i*b.cols+j] = b.at(i, j)
		}
	}
	return out
}

// T returns the transpose of the view as a new matrix sharing its entries.
func (b *VariableBlock) T() *VariableMatrix {
	return b.Matrix().T()
}

// Sum returns the sum of the viewed entries.
func (b *VariableBlock) Sum() Variable {
	return b.Matrix().Sum()
}

// CwiseTransform returns a new matrix with fn applied to every viewed
// entry.
func (b *VariableBlock) CwiseTransform(fn func(v Variable) Variable) *VariableMatrix {
	return b.Matrix().CwiseTransform(fn)
}

// Add returns the element-wise sum of the view and rhs, as a matrix.
func (b *VariableBlock) Add(rhs any) *VariableMatrix {
	return b.Matrix().Add(rhs)
}

// Sub returns the element-wise difference of the view and rhs.
func (b *VariableBlock) Sub(rhs any) *VariableMatrix {
	return b.Matrix().Sub(rhs)
}

// MulElem returns the element-wise product of the view and rhs.
func (b *VariableBlock) MulElem(rhs any) *VariableMatrix {
	return b.Matrix().MulElem(rhs)
}

// DivElem returns the element-wise quotient of the view and rhs.
func (b *VariableBlock) DivElem(rhs any) *VariableMatrix {
	return b.Matrix().DivElem(rhs)
}

// Mul returns the matrix product of the view and rhs; scalar-like operands
// scale instead, as in VariableMatrix.Mul.
func (b *VariableBlock) Mul(rhs any) *VariableMatrix {
	return b.Matrix().Mul(rhs)
}

// Pow returns the view raised to the n-th power by repeated matrix
// multiplication. The view must be square.
func (b *VariableBlock) Pow(n int) *VariableMatrix {
	return b.Matrix().Pow(n)
}

// Neg returns the element-wise negation of the view.
func (b *VariableBlock) Neg() *VariableMatrix {
	return b.Matrix().Neg()
}

// String implements the fmt.Stringer interface.
func (b *VariableBlock) String() string {
	if b == nil || b.parent == nil {
		return "VariableBlock(invalid)"
	}
	if b.rows == 0 || b.cols == 0 {
		return fmt.Sprintf("VariableBlock(%dx%d)", b.rows, b.cols)
	}
	return fmt.Sprintf("VariableBlock(%dx%d):\n%v", b.rows, b.cols, mat.Formatted(b.Value(), mat.Squeeze()))
}
