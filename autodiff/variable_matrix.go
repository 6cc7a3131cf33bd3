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
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// ErrShapeMismatch is the sentinel wrapped by every dimension-compatibility
// panic: mismatched element-wise operands, bad inner dimensions in a
// product, a non-1x1 matrix in a scalar position, ragged construction
// input. Recover the panic with exceptions.TryCatch and test it with
// errors.Is.
var ErrShapeMismatch = errors.New("shape mismatch")

// panicShapef panics with ErrShapeMismatch wrapped in the given context and
// a stack trace.
func panicShapef(format string, args ...any) {
	panic(errors.Wrapf(ErrShapeMismatch, format, args...))
}

// VariableMatrix is a dense row-major matrix of scalar Variables.
//
// The container is mutable (entries can be replaced with Set and leaf
// entries assigned with SetValue), but its shape is fixed and its
// arithmetic is pure: operations return new matrices and never touch their
// operands. Entries are plain Variables, so a matrix operation is exactly
// an arrangement of scalar graph nodes, and entries may be shared between
// matrices or with standalone scalars.
//
// Element-wise operations accept operands of equal shape, or a scalar-like
// operand (Variable, Go number or 1x1 matrix), which broadcasts against
// every entry. Anything else panics wrapping ErrShapeMismatch.
type VariableMatrix struct {
	rows, cols int
	data       []Variable
}

// emptyMatrix allocates a matrix whose entries the caller fills in. Every
// slot must be written before it escapes.
func emptyMatrix(rows, cols int) *VariableMatrix {
	return &VariableMatrix{rows: rows, cols: cols, data: make([]Variable, rows*cols)}
}

// NewVariableMatrix creates a rows x cols matrix of fresh assignable
// variables, initialized to zero. Dimensions may be zero, giving an empty
// matrix; negative dimensions panic.
func NewVariableMatrix(rows, cols int) *VariableMatrix {
	if rows < 0 || cols < 0 {
		Panicf("autodiff: NewVariableMatrix(%d, %d): dimensions must be non-negative", rows, cols)
	}
	m := emptyMatrix(rows, cols)
	for i := range m.data {
		m.data[i] = NewVariable(0.0)
	}
	return m
}

// MatrixFromSlice creates a matrix of fresh assignable variables seeded
// with the given values, one inner slice per row. All rows must have the
// same length.
func MatrixFromSlice[N Number](values [][]N) *VariableMatrix {
	rows := len(values)
	cols := 0
	if rows > 0 {
		cols = len(values[0])
	}
	m := emptyMatrix(rows, cols)
	for i, row := range values {
		if len(row) != cols {
			panicShapef("MatrixFromSlice: row %d has %d entries, want %d", i, len(row), cols)
		}
		for j, value := range row {
			m.data[i*cols+j] = NewVariable(value)
		}
	}
	return m
}

// MatrixFromMat creates a matrix of fresh assignable variables seeded with
// the values of a gonum matrix. Note the different treatment of gonum
// values used as operands of an operation or comparison: those are
// promoted to constant entries, like literal numbers.
func MatrixFromMat(src mat.Matrix) *VariableMatrix {
	if src == nil {
		Panicf("autodiff: MatrixFromMat(nil)")
	}
	rows, cols := src.Dims()
	m := emptyMatrix(rows, cols)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			m.data[i*cols+j] = NewVariable(src.At(i, j))
		}
	}
	return m
}

// MatrixFromVariables arranges existing scalars into a matrix, sharing
// their nodes. All rows must have the same length and every Variable must
// be valid.
func MatrixFromVariables(values [][]Variable) *VariableMatrix {
	rows := len(values)
	cols := 0
	if rows > 0 {
		cols = len(values[0])
	}
	m := emptyMatrix(rows, cols)
	for i, row := range values {
		if len(row) != cols {
			panicShapef("MatrixFromVariables: row %d has %d entries, want %d", i, len(row), cols)
		}
		for j, v := range row {
			v.AssertValid()
			m.data[i*cols+j] = v
		}
	}
	return m
}

// MatrixFromRow arranges existing scalars into a 1 x len(entries) row
// vector, sharing their nodes.
func MatrixFromRow(entries []Variable) *VariableMatrix {
	m := emptyMatrix(1, len(entries))
	for i, v := range entries {
		v.AssertValid()
		m.data[i] = v
	}
	return m
}

// MatrixFromCol arranges existing scalars into a len(entries) x 1 column
// vector, sharing their nodes.
func MatrixFromCol(entries []Variable) *VariableMatrix {
	m := emptyMatrix(len(entries), 1)
	for i, v := range entries {
		v.AssertValid()
		m.data[i] = v
	}
	return m
}

// AssertValid panics if m is nil.
func (m *VariableMatrix) AssertValid() {
	if m == nil {
		Panicf("autodiff: VariableMatrix is nil")
	}
}

// Rows returns the number of rows.
func (m *VariableMatrix) Rows() int { return m.rows }

// Cols returns the number of columns.
func (m *VariableMatrix) Cols() int { return m.cols }

// Dims returns the matrix dimensions, following the gonum convention.
func (m *VariableMatrix) Dims() (rows, cols int) { return m.rows, m.cols }

func (m *VariableMatrix) checkIndex(i, j int) {
	if i < 0 || i >= m.rows || j < 0 || j >= m.cols {
		Panicf("autodiff: index (%d, %d) out of range for %dx%d matrix", i, j, m.rows, m.cols)
	}
}

// at reads an entry without bounds checking.
func (m *VariableMatrix) at(i, j int) Variable { return m.data[i*m.cols+j] }

// At returns the entry at row i, column j.
func (m *VariableMatrix) At(i, j int) Variable {
	m.AssertValid()
	m.checkIndex(i, j)
	return m.at(i, j)
}

// AtVec returns the i-th entry of a row or column vector. It panics if the
// matrix is not a vector.
func (m *VariableMatrix) AtVec(i int) Variable {
	m.AssertValid()
	if m.rows != 1 && m.cols != 1 {
		panicShapef("AtVec on a %dx%d matrix, need a row or column vector", m.rows, m.cols)
	}
	if i < 0 || i >= len(m.data) {
		Panicf("autodiff: vector index %d out of range for %d entries", i, len(m.data))
	}
	return m.data[i]
}

// Set replaces the entry at row i, column j with v, sharing v's node. The
// previous entry is unaffected; expressions already built from it keep
// referring to it.
func (m *VariableMatrix) Set(i, j int, v Variable) {
	m.AssertValid()
	m.checkIndex(i, j)
	v.AssertValid()
	m.data[i*m.cols+j] = v
}

// SetValue assigns src's values to the corresponding entries, which must
// all be assignable leaves. Dimensions must match exactly.
func (m *VariableMatrix) SetValue(src mat.Matrix) {
	m.AssertValid()
	rows, cols := src.Dims()
	if rows != m.rows || cols != m.cols {
		panicShapef("SetValue: got %dx%d values for a %dx%d matrix", rows, cols, m.rows, m.cols)
	}
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			m.at(i, j).SetValue(src.At(i, j))
		}
	}
}

// Fill assigns the same value to every entry, which must all be assignable
// leaves.
func (m *VariableMatrix) Fill(value float64) {
	m.AssertValid()
	for _, v := range m.data {
		v.SetValue(value)
	}
}

// Value returns the current entry values as a dense matrix, recomputing
// stale caches first. An empty matrix returns an empty Dense.
func (m *VariableMatrix) Value() *mat.Dense {
	m.AssertValid()
	if m.rows == 0 || m.cols == 0 {
		return &mat.Dense{}
	}
	out := mat.NewDense(m.rows, m.cols, nil)
	epoch := currentEpoch()
	for i := 0; i < m.rows; i++ {
		for j := 0; j < m.cols; j++ {
			e := m.at(i, j).expr
			e.refresh(epoch)
			out.Set(i, j, e.value)
		}
	}
	return out
}

// ValueAt returns the current value of the entry at row i, column j.
func (m *VariableMatrix) ValueAt(i, j int) float64 {
	return m.At(i, j).Value()
}

// ForEach calls fn for every entry, in row-major order.
func (m *VariableMatrix) ForEach(fn func(i, j int, v Variable)) {
	m.AssertValid()
	for i := 0; i < m.rows; i++ {
		for j := 0; j < m.cols; j++ {
			fn(i, j, m.at(i, j))
		}
	}
}

// Block returns a view of the rows x cols submatrix starting at row i,
// column j. The view shares entries with m.
func (m *VariableMatrix) Block(i, j, rows, cols int) *VariableBlock {
	m.AssertValid()
	if i < 0 || j < 0 || rows < 0 || cols < 0 || i+rows > m.rows || j+cols > m.cols {
		Panicf("autodiff: Block(%d, %d, %d, %d) out of range for %dx%d matrix", i, j, rows, cols, m.rows, m.cols)
	}
	return &VariableBlock{parent: m, rowOff: i, colOff: j, rows: rows, cols: cols}
}

// Row returns a view of row i.
func (m *VariableMatrix) Row(i int) *VariableBlock {
	m.AssertValid()
	if i < 0 || i >= m.rows {
		Panicf("autodiff: Row(%d) out of range for %dx%d matrix", i, m.rows, m.cols)
	}
	return &VariableBlock{parent: m, rowOff: i, rows: 1, cols: m.cols}
}

// Col returns a view of column j.
func (m *VariableMatrix) Col(j int) *VariableBlock {
	m.AssertValid()
	if j < 0 || j >= m.cols {
		Panicf("autodiff: Col(%d) out of range for %dx%d matrix", j, m.rows, m.cols)
	}
	return &VariableBlock{parent: m, colOff: j, rows: m.rows, cols: 1}
}

// T returns the transpose as a new matrix sharing m's entries.
func (m *VariableMatrix) T() *VariableMatrix {
	m.AssertValid()
	out := emptyMatrix(m.cols, m.rows)
	for i := 0; i < m.rows; i++ {
		for j := 0; j < m.cols; j++ {
			out.data[j*out.cols+i] = m.at(i, j)
		}
	}
	return out
}

// broadcastDims resolves the result shape of an element-wise pairing:
// equal shapes combine positionally, a 1x1 side broadcasts against the
// other, anything else panics.
func broadcastDims(op string, lhs, rhs *VariableMatrix) (rows, cols int) {
	switch {
	case lhs.rows == rhs.rows && lhs.cols == rhs.cols:
		return lhs.rows, lhs.cols
	case lhs.rows == 1 && lhs.cols == 1:
		return rhs.rows, rhs.cols
	case rhs.rows == 1 && rhs.cols == 1:
		return lhs.rows, lhs.cols
	}
	panicShapef("%s: mismatched dimensions %dx%d and %dx%d", op, lhs.rows, lhs.cols, rhs.rows, rhs.cols)
	return 0, 0
}

// broadcastEntry reads entry (i, j), or the single entry of a 1x1 matrix
// being broadcast.
func broadcastEntry(m *VariableMatrix, i, j int) Variable {
	if m.rows == 1 && m.cols == 1 {
		return m.data[0]
	}
	return m.at(i, j)
}

func broadcastZip(op string, lhs, rhs *VariableMatrix, fn func(a, b Variable) Variable) *VariableMatrix {
	rows, cols := broadcastDims(op, lhs, rhs)
	out := emptyMatrix(rows, cols)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			out.data[i*cols+j] = fn(broadcastEntry(lhs, i, j), broadcastEntry(rhs, i, j))
		}
	}
	return out
}

func (m *VariableMatrix) mapEntries(fn func(v Variable) Variable) *VariableMatrix {
	out := emptyMatrix(m.rows, m.cols)
	for i, v := range m.data {
		out.data[i] = fn(v)
	}
	return out
}

// Add returns the element-wise sum m + rhs.
//
// Here and in the other element-wise operations, rhs may be a
// VariableMatrix or VariableBlock of equal shape, a gonum matrix of equal
// shape (promoted to constants), or a scalar-like operand, which
// broadcasts.
func (m *VariableMatrix) Add(rhs any) *VariableMatrix {
	m.AssertValid()
	return broadcastZip("Add", m, asMatrix(rhs), func(a, b Variable) Variable { return a.Add(b) })
}

// Sub returns the element-wise difference m - rhs.
func (m *VariableMatrix) Sub(rhs any) *VariableMatrix {
	m.AssertValid()
	return broadcastZip("Sub", m, asMatrix(rhs), func(a, b Variable) Variable { return a.Sub(b) })
}

// MulElem returns the element-wise product, following the gonum naming.
func (m *VariableMatrix) MulElem(rhs any) *VariableMatrix {
	m.AssertValid()
	return broadcastZip("MulElem", m, asMatrix(rhs), func(a, b Variable) Variable { return a.Mul(b) })
}

// DivElem returns the element-wise quotient. Division follows IEEE-754;
// zero denominators yield infinities or NaNs, never panics.
func (m *VariableMatrix) DivElem(rhs any) *VariableMatrix {
	m.AssertValid()
	return broadcastZip("DivElem", m, asMatrix(rhs), func(a, b Variable) Variable { return a.Div(b) })
}

// Mul returns the matrix product m * rhs, whose inner dimensions must
// agree. A scalar-like operand (Variable or Go number) scales every entry
// instead; note an explicit 1x1 matrix operand is still treated as a
// matrix and goes through the inner-dimension rule.
func (m *VariableMatrix) Mul(rhs any) *VariableMatrix {
	m.AssertValid()
	switch r := rhs.(type) {
	case *VariableMatrix:
		r.AssertValid()
		return matMul(m, r)
	case *VariableBlock:
		r.AssertValid()
		return matMul(m, r.Matrix())
	case mat.Matrix:
		return matMul(m, constantsFromMat(r))
	}
	s := AsVariable(rhs)
	return m.mapEntries(func(v Variable) Variable { return v.Mul(s) })
}

func matMul(lhs, rhs *VariableMatrix) *VariableMatrix {
	if lhs.cols != rhs.rows {
		panicShapef("Mul: inner dimensions differ, %dx%d times %dx%d", lhs.rows, lhs.cols, rhs.rows, rhs.cols)
	}
	out := emptyMatrix(lhs.rows, rhs.cols)
	for i := 0; i < out.rows; i++ {
		for j := 0; j < out.cols; j++ {
			var sum Variable
			for k := 0; k < lhs.cols; k++ {
				term := lhs.at(i, k).Mul(rhs.at(k, j))
				if k == 0 {
					sum = term
				} else {
					sum = sum.Add(term)
				}
			}
			if lhs.cols == 0 {
				sum = Constant(0.0)
			}
			out.data[i*out.cols+j] = sum
		}
	}
	return out
}

// Neg returns the element-wise negation.
func (m *VariableMatrix) Neg() *VariableMatrix {
	m.AssertValid()
	return m.mapEntries(Variable.Neg)
}

// Pow returns the n-th matrix power of a square matrix; Pow(0) is the
// identity. Negative powers panic.
func (m *VariableMatrix) Pow(n int) *VariableMatrix {
	m.AssertValid()
	if m.rows != m.cols {
		panicShapef("Pow: need a square matrix, got %dx%d", m.rows, m.cols)
	}
	if n < 0 {
		Panicf("autodiff: Pow(%d): negative matrix powers are not supported", n)
	}
	if n == 0 {
		return identityMatrix(m.rows)
	}
	out := emptyMatrix(m.rows, m.cols)
	copy(out.data, m.data)
	for i := 1; i < n; i++ {
		out = matMul(out, m)
	}
	return out
}

func identityMatrix(n int) *VariableMatrix {
	one := Constant(1.0)
	zero := Constant(0.0)
	out := emptyMatrix(n, n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if i == j {
				out.data[i*n+j] = one
			} else {
				out.data[i*n+j] = zero
			}
		}
	}
	return out
}

// Sum returns the sum of all entries. The sum of an empty matrix is the
// constant zero.
func (m *VariableMatrix) Sum() Variable {
	m.AssertValid()
	if len(m.data) == 0 {
		return Constant(0.0)
	}
	sum := m.data[0]
	for _, v := range m.data[1:] {
		sum = sum.Add(v)
	}
	return sum
}

// CwiseTransform returns a new matrix with fn applied to every entry.
func (m *VariableMatrix) CwiseTransform(fn func(v Variable) Variable) *VariableMatrix {
	m.AssertValid()
	return m.mapEntries(fn)
}

// CwiseReduce combines lhs and rhs entry by entry with fn. Unlike the
// element-wise operators there is no broadcasting: dimensions must match
// exactly.
func CwiseReduce(lhs, rhs *VariableMatrix, fn func(a, b Variable) Variable) *VariableMatrix {
	lhs.AssertValid()
	rhs.AssertValid()
	if lhs.rows != rhs.rows || lhs.cols != rhs.cols {
		panicShapef("CwiseReduce: mismatched dimensions %dx%d and %dx%d", lhs.rows, lhs.cols, rhs.rows, rhs.cols)
	}
	out := emptyMatrix(lhs.rows, lhs.cols)
	for i, v := range lhs.data {
		out.data[i] = fn(v, rhs.data[i])
	}
	return out
}

// String implements the fmt.Stringer interface, printing the current
// values.
func (m *VariableMatrix) String() string {
	if m == nil {
		return "VariableMatrix(nil)"
	}
	if m.rows == 0 || m.cols == 0 {
		return fmt.Sprintf("VariableMatrix(%dx%d)", m.rows, m.cols)
	}
	return fmt.Sprintf("VariableMatrix(%dx%d):\n%v", m.rows, m.cols, mat.Formatted(m.Value(), mat.Squeeze()))
}
