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
)

// This file provides the transcendental functions over Variables. Each
// builds a new graph node; operands may be anything AsVariable accepts.
// Domain violations (Log of a negative, Acos past [-1, 1], ...) follow
// IEEE-754 and yield NaN values rather than panics; see the nanwatch
// subpackage for locating those.

func absValue(x, _ float64) float64   { return math.Abs(x) }
func acosValue(x, _ float64) float64  { return math.Acos(x) }
func asinValue(x, _ float64) float64  { return math.Asin(x) }
func atanValue(x, _ float64) float64  { return math.Atan(x) }
func cosValue(x, _ float64) float64   { return math.Cos(x) }
func coshValue(x, _ float64) float64  { return math.Cosh(x) }
func erfValue(x, _ float64) float64   { return math.Erf(x) }
func expValue(x, _ float64) float64   { return math.Exp(x) }
func logValue(x, _ float64) float64   { return math.Log(x) }
func log10Value(x, _ float64) float64 { return math.Log10(x) }
func sinValue(x, _ float64) float64   { return math.Sin(x) }
func sinhValue(x, _ float64) float64  { return math.Sinh(x) }
func sqrtValue(x, _ float64) float64  { return math.Sqrt(x) }
func tanValue(x, _ float64) float64   { return math.Tan(x) }
func tanhValue(x, _ float64) float64  { return math.Tanh(x) }

func binaryFuncType(lhs, rhs Variable) ExpressionType {
	if lhs.expr.exprType == ExpressionTypeConstant && rhs.expr.exprType == ExpressionTypeConstant {
		return ExpressionTypeConstant
	}
	return ExpressionTypeNonlinear
}

// Abs returns |x|.
func Abs(x any) Variable {
	v := AsVariable(x)
	return unaryOp(OpAbs, unaryFuncType(v.expr.exprType), absValue, v)
}

// Acos returns the arc cosine of x.
func Acos(x any) Variable {
	v := AsVariable(x)
	return unaryOp(OpAcos, unaryFuncType(v.expr.exprType), acosValue, v)
}

// Asin returns the arc sine of x.
func Asin(x any) Variable {
	v := AsVariable(x)
	return unaryOp(OpAsin, unaryFuncType(v.expr.exprType), asinValue, v)
}

// Atan returns the arc tangent of x.
func Atan(x any) Variable {
	v := AsVariable(x)
	return unaryOp(OpAtan, unaryFuncType(v.expr.exprType), atanValue, v)
}

// Atan2 returns the arc tangent of y/x, using the signs of both to pick
// the quadrant.
func Atan2(y, x any) Variable {
	yv := AsVariable(y)
	xv := AsVariable(x)
	return binaryOp(OpAtan2, binaryFuncType(yv, xv), math.Atan2, yv, xv)
}

// Cos returns the cosine of x.
func Cos(x any) Variable {
	v := AsVariable(x)
	return unaryOp(OpCos, unaryFuncType(v.expr.exprType), cosValue, v)
}

// Cosh returns the hyperbolic cosine of x.
func Cosh(x any) Variable {
	v := AsVariable(x)
	return unaryOp(OpCosh, unaryFuncType(v.expr.exprType), coshValue, v)
}

// Erf returns the error function of x.
func Erf(x any) Variable {
	v := AsVariable(x)
	return unaryOp(OpErf, unaryFuncType(v.expr.exprType), erfValue, v)
}

// Exp returns e**x.
func Exp(x any) Variable {
	v := AsVariable(x)
	return unaryOp(OpExp, unaryFuncType(v.expr.exprType), expValue, v)
}

// Hypot returns sqrt(x*x + y*y) without undue overflow.
func Hypot(x, y any) Variable {
	xv := AsVariable(x)
	yv := AsVariable(y)
	return binaryOp(OpHypot, binaryFuncType(xv, yv), math.Hypot, xv, yv)
}

// Log returns the natural logarithm of x.
func Log(x any) Variable {
	v := AsVariable(x)
	return unaryOp(OpLog, unaryFuncType(v.expr.exprType), logValue, v)
}

// Log10 returns the base-10 logarithm of x.
func Log10(x any) Variable {
	v := AsVariable(x)
	return unaryOp(OpLog10, unaryFuncType(v.expr.exprType), log10Value, v)
}

// Pow returns base raised to power.
//
// A constant non-negative integer power multiplies the algebraic degree of
// the base: the square of a linear expression classifies as quadratic,
// x.Pow(1) stays linear and x.Pow(0) is constant. Every other combination
// classifies as nonlinear.
func Pow(base, power any) Variable {
	b := AsVariable(base)
	p := AsVariable(power)
	return binaryOp(OpPow, powExprType(b.expr.exprType, p.expr), math.Pow, b, p)
}

// Sin returns the sine of x.
func Sin(x any) Variable {
	v := AsVariable(x)
	return unaryOp(OpSin, unaryFuncType(v.expr.exprType), sinValue, v)
}

// Sinh returns the hyperbolic sine of x.
func Sinh(x any) Variable {
	v := AsVariable(x)
	return unaryOp(OpSinh, unaryFuncType(v.expr.exprType), sinhValue, v)
}

// Sqrt returns the square root of x.
func Sqrt(x any) Variable {
	v := AsVariable(x)
	return unaryOp(OpSqrt, unaryFuncType(v.expr.exprType), sqrtValue, v)
}

// Tan returns the tangent of x.
func Tan(x any) Variable {
	v := AsVariable(x)
	return unaryOp(OpTan, unaryFuncType(v.expr.exprType), tanValue, v)
}

// Tanh returns the hyperbolic tangent of x.
func Tanh(x any) Variable {
	v := AsVariable(x)
	return unaryOp(OpTanh, unaryFuncType(v.expr.exprType), tanhValue, v)
}
