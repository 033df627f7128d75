// Copyright (C) 2022 Sneller, Inc.
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

package bind

import (
	"github.com/supersonic-go/supersonic/eval"
	"github.com/supersonic-go/supersonic/sexpr"
	"github.com/supersonic-go/supersonic/sonicerr"
	"github.com/supersonic-go/supersonic/sonictype"
)

func arithFn32(op sexpr.OperationType) (func(a, b int32) (int32, bool, error), error) {
	switch op {
	case sexpr.OpAdd:
		return eval.AddFn[int32](), nil
	case sexpr.OpSub:
		return eval.SubFn[int32](), nil
	case sexpr.OpMul:
		return eval.MulFn[int32](), nil
	}
	return nil, sonicerr.NewSchemaError(sonicerr.ErrUnsupported, op.String(), "not an arithmetic op")
}

func arithFn64(op sexpr.OperationType) (func(a, b int64) (int64, bool, error), error) {
	switch op {
	case sexpr.OpAdd:
		return eval.AddFn[int64](), nil
	case sexpr.OpSub:
		return eval.SubFn[int64](), nil
	case sexpr.OpMul:
		return eval.MulFn[int64](), nil
	}
	return nil, sonicerr.NewSchemaError(sonicerr.ErrUnsupported, op.String(), "not an arithmetic op")
}

func arithFnU32(op sexpr.OperationType) (func(a, b uint32) (uint32, bool, error), error) {
	switch op {
	case sexpr.OpAdd:
		return eval.AddFn[uint32](), nil
	case sexpr.OpSub:
		return eval.SubFn[uint32](), nil
	case sexpr.OpMul:
		return eval.MulFn[uint32](), nil
	}
	return nil, sonicerr.NewSchemaError(sonicerr.ErrUnsupported, op.String(), "not an arithmetic op")
}

func arithFnU64(op sexpr.OperationType) (func(a, b uint64) (uint64, bool, error), error) {
	switch op {
	case sexpr.OpAdd:
		return eval.AddFn[uint64](), nil
	case sexpr.OpSub:
		return eval.SubFn[uint64](), nil
	case sexpr.OpMul:
		return eval.MulFn[uint64](), nil
	}
	return nil, sonicerr.NewSchemaError(sonicerr.ErrUnsupported, op.String(), "not an arithmetic op")
}

func arithFnF32(op sexpr.OperationType) (func(a, b float32) (float32, bool, error), error) {
	switch op {
	case sexpr.OpAdd:
		return eval.AddFn[float32](), nil
	case sexpr.OpSub:
		return eval.SubFn[float32](), nil
	case sexpr.OpMul:
		return eval.MulFn[float32](), nil
	}
	return nil, sonicerr.NewSchemaError(sonicerr.ErrUnsupported, op.String(), "not an arithmetic op")
}

func arithFnF64(op sexpr.OperationType) (func(a, b float64) (float64, bool, error), error) {
	switch op {
	case sexpr.OpAdd:
		return eval.AddFn[float64](), nil
	case sexpr.OpSub:
		return eval.SubFn[float64](), nil
	case sexpr.OpMul:
		return eval.MulFn[float64](), nil
	}
	return nil, sonicerr.NewSchemaError(sonicerr.ErrUnsupported, op.String(), "not an arithmetic op")
}

// buildArith instantiates the right NewBoundArith[T] for promoted,
// since Go cannot select a type parameter at runtime.
func buildArith(op sexpr.OperationType, left, right eval.BoundExpression, promoted sonictype.DataType, nullable bool, maxRows int, b *binder) (eval.BoundExpression, error) {
	switch promoted {
	case sonictype.INT32:
		fn, err := arithFn32(op)
		if err != nil {
			return nil, err
		}
		return eval.NewBoundArith[int32](op.String(), left, right, promoted, nullable, maxRows, b.alloc, fn, eval.Int32Slice), nil
	case sonictype.INT64:
		fn, err := arithFn64(op)
		if err != nil {
			return nil, err
		}
		return eval.NewBoundArith[int64](op.String(), left, right, promoted, nullable, maxRows, b.alloc, fn, eval.Int64Slice), nil
	case sonictype.UINT32:
		fn, err := arithFnU32(op)
		if err != nil {
			return nil, err
		}
		return eval.NewBoundArith[uint32](op.String(), left, right, promoted, nullable, maxRows, b.alloc, fn, eval.Uint32Slice), nil
	case sonictype.UINT64:
		fn, err := arithFnU64(op)
		if err != nil {
			return nil, err
		}
		return eval.NewBoundArith[uint64](op.String(), left, right, promoted, nullable, maxRows, b.alloc, fn, eval.Uint64Slice), nil
	case sonictype.FLOAT:
		fn, err := arithFnF32(op)
		if err != nil {
			return nil, err
		}
		return eval.NewBoundArith[float32](op.String(), left, right, promoted, nullable, maxRows, b.alloc, fn, eval.Float32Slice), nil
	case sonictype.DOUBLE:
		fn, err := arithFnF64(op)
		if err != nil {
			return nil, err
		}
		return eval.NewBoundArith[float64](op.String(), left, right, promoted, nullable, maxRows, b.alloc, fn, eval.Float64Slice), nil
	default:
		return nil, sonicerr.NewSchemaError(sonicerr.ErrTypeMismatch, "", "%s is not a numeric type", promoted)
	}
}

func (b *binder) bindBasicArith(o *sexpr.Operation) (eval.BoundExpression, error) {
	if err := b.arity(o, 2); err != nil {
		return nil, err
	}
	args, err := b.bindArgs(o)
	if err != nil {
		return nil, err
	}
	left, right, promoted, nullable, err := b.promoteBoth(args[0], args[1])
	if err != nil {
		return nil, err
	}
	return buildArith(o.Op, left, right, promoted, nullable, b.maxRows, b)
}

// bindDivide dispatches DIVIDE_SIGNALING/NULLING/QUIET per the
// promoted operand type; QUIET uses IEEE specials for floats and
// saturates to zero for integers (there is no integer IEEE special).
func (b *binder) bindDivide(o *sexpr.Operation) (eval.BoundExpression, error) {
	if err := b.arity(o, 2); err != nil {
		return nil, err
	}
	args, err := b.bindArgs(o)
	if err != nil {
		return nil, err
	}
	left, right, promoted, nullable, err := b.promoteBoth(args[0], args[1])
	if err != nil {
		return nil, err
	}
	family := eval.DivideFamily(o.Op)
	resultNullable := nullable || family == "nulling"
	name := o.Op.String()
	switch promoted {
	case sonictype.INT32:
		return eval.NewBoundArith[int32](name, left, right, promoted, resultNullable, b.maxRows, b.alloc, divideIntFn[int32](family), eval.Int32Slice), nil
	case sonictype.INT64:
		return eval.NewBoundArith[int64](name, left, right, promoted, resultNullable, b.maxRows, b.alloc, divideIntFn[int64](family), eval.Int64Slice), nil
	case sonictype.UINT32:
		return eval.NewBoundArith[uint32](name, left, right, promoted, resultNullable, b.maxRows, b.alloc, divideIntFn[uint32](family), eval.Uint32Slice), nil
	case sonictype.UINT64:
		return eval.NewBoundArith[uint64](name, left, right, promoted, resultNullable, b.maxRows, b.alloc, divideIntFn[uint64](family), eval.Uint64Slice), nil
	case sonictype.FLOAT:
		return eval.NewBoundArith[float32](name, left, right, promoted, resultNullable, b.maxRows, b.alloc, divideFloatFn[float32](family), eval.Float32Slice), nil
	case sonictype.DOUBLE:
		return eval.NewBoundArith[float64](name, left, right, promoted, resultNullable, b.maxRows, b.alloc, divideFloatFn[float64](family), eval.Float64Slice), nil
	default:
		return nil, sonicerr.NewSchemaError(sonicerr.ErrTypeMismatch, "", "%s is not a numeric type", promoted)
	}
}

func divideIntFn[T int32 | int64 | uint32 | uint64](family string) func(a, b T) (T, bool, error) {
	switch family {
	case "signaling":
		return eval.DivideSignalingFn[T]()
	case "nulling":
		return eval.DivideNullingFn[T]()
	default:
		return eval.DivideQuietInt[T]()
	}
}

func divideFloatFn[T float32 | float64](family string) func(a, b T) (T, bool, error) {
	switch family {
	case "signaling":
		return eval.DivideSignalingFn[T]()
	case "nulling":
		return eval.DivideNullingFn[T]()
	default:
		return eval.DivideQuietFloat[T]()
	}
}

// bindSqrt always coerces its operand to DOUBLE first; SQRT has no
// integer or float32 kernel.
func (b *binder) bindSqrt(o *sexpr.Operation) (eval.BoundExpression, error) {
	if err := b.arity(o, 1); err != nil {
		return nil, err
	}
	args, err := b.bindArgs(o)
	if err != nil {
		return nil, err
	}
	child, err := b.coerceNumeric(args[0], sonictype.DOUBLE)
	if err != nil {
		return nil, err
	}
	_, nullable := resultType(args[0])
	var base func(a, b float64) (float64, bool, error)
	switch o.Op {
	case sexpr.OpSqrtSignaling:
		base = eval.SqrtSignalingFn()
	case sexpr.OpSqrtNulling:
		base = eval.SqrtNullingFn()
		nullable = true
	case sexpr.OpSqrtQuiet:
		base = eval.SqrtQuietFn()
	}
	fn := func(a float64) (float64, bool, error) { return base(a, 0) }
	return eval.NewBoundUnary[float64](o.Op.String(), child, sonictype.DOUBLE, nullable, b.maxRows, b.alloc, fn, eval.Float64Slice), nil
}

// bindPower always operates in the DOUBLE domain.
func (b *binder) bindPower(o *sexpr.Operation) (eval.BoundExpression, error) {
	if err := b.arity(o, 2); err != nil {
		return nil, err
	}
	args, err := b.bindArgs(o)
	if err != nil {
		return nil, err
	}
	base, err := b.coerceNumeric(args[0], sonictype.DOUBLE)
	if err != nil {
		return nil, err
	}
	exponent, err := b.coerceNumeric(args[1], sonictype.DOUBLE)
	if err != nil {
		return nil, err
	}
	_, ln := resultType(args[0])
	_, rn := resultType(args[1])
	nullable := ln || rn
	var fn func(a, b float64) (float64, bool, error)
	switch o.Op {
	case sexpr.OpPowerSignaling:
		fn = eval.PowerSignalingFn()
	case sexpr.OpPowerNulling:
		fn = eval.PowerNullingFn()
		nullable = true
	case sexpr.OpPowerQuiet:
		fn = eval.PowerQuietFn()
	}
	return eval.NewBoundArith[float64](o.Op.String(), base, exponent, sonictype.DOUBLE, nullable, b.maxRows, b.alloc, fn, eval.Float64Slice), nil
}

func (b *binder) bindNegate(o *sexpr.Operation) (eval.BoundExpression, error) {
	if err := b.arity(o, 1); err != nil {
		return nil, err
	}
	args, err := b.bindArgs(o)
	if err != nil {
		return nil, err
	}
	t, nullable := resultType(args[0])
	switch t {
	case sonictype.INT32:
		return eval.NewBoundUnary[int32]("NEGATE", args[0], t, nullable, b.maxRows, b.alloc, eval.NegateFn[int32](), eval.Int32Slice), nil
	case sonictype.INT64:
		return eval.NewBoundUnary[int64]("NEGATE", args[0], t, nullable, b.maxRows, b.alloc, eval.NegateFn[int64](), eval.Int64Slice), nil
	case sonictype.FLOAT:
		return eval.NewBoundUnary[float32]("NEGATE", args[0], t, nullable, b.maxRows, b.alloc, eval.NegateFn[float32](), eval.Float32Slice), nil
	case sonictype.DOUBLE:
		return eval.NewBoundUnary[float64]("NEGATE", args[0], t, nullable, b.maxRows, b.alloc, eval.NegateFn[float64](), eval.Float64Slice), nil
	default:
		return nil, sonicerr.NewSchemaError(sonicerr.ErrTypeMismatch, "", "NEGATE requires a signed numeric operand, got %s", t)
	}
}
