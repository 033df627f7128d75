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
	"github.com/supersonic-go/supersonic/batch"
	"github.com/supersonic-go/supersonic/eval"
	"github.com/supersonic-go/supersonic/sexpr"
	"github.com/supersonic-go/supersonic/sonicerr"
	"github.com/supersonic-go/supersonic/sonictype"
)

func compareTest(op sexpr.OperationType) func(int) bool {
	switch op {
	case sexpr.OpEq:
		return eval.TestEq
	case sexpr.OpNe:
		return eval.TestNe
	case sexpr.OpLt:
		return eval.TestLt
	case sexpr.OpLe:
		return eval.TestLe
	case sexpr.OpGt:
		return eval.TestGt
	default:
		return eval.TestGe
	}
}

// bindCompare dispatches EQ/NE/LT/LE/GT/GE across numeric, STRING/
// BINARY, and BOOL operand pairs.
func (b *binder) bindCompare(o *sexpr.Operation) (eval.BoundExpression, error) {
	if err := b.arity(o, 2); err != nil {
		return nil, err
	}
	args, err := b.bindArgs(o)
	if err != nil {
		return nil, err
	}
	lt, _ := resultType(args[0])
	rt, _ := resultType(args[1])
	test := compareTest(o.Op)
	name := o.Op.String()

	switch {
	case lt == sonictype.STRING || lt == sonictype.BINARY || rt == sonictype.STRING || rt == sonictype.BINARY:
		if lt != rt {
			return nil, sonicerr.NewSchemaError(sonicerr.ErrTypeMismatch, "", "cannot compare %s and %s", lt, rt)
		}
		left, right := args[0], args[1]
		leftArena := func() *batch.Arena { return eval.ArenaOf(left) }
		rightArena := func() *batch.Arena { return eval.ArenaOf(right) }
		return eval.NewBoundStringCompare(name, left, right, leftArena, rightArena, test, b.maxRows, b.alloc), nil
	case lt == sonictype.BOOL && rt == sonictype.BOOL:
		if o.Op != sexpr.OpEq && o.Op != sexpr.OpNe {
			return nil, sonicerr.NewSchemaError(sonicerr.ErrUnsupported, name, "BOOL operands only support EQ/NE")
		}
		return eval.NewBoundBoolEq(name, args[0], args[1], o.Op == sexpr.OpNe, b.maxRows, b.alloc), nil
	default:
		left, right, promoted, _, err := b.promoteBoth(args[0], args[1])
		if err != nil {
			return nil, err
		}
		return buildCompare(name, left, right, promoted, test, b.maxRows, b)
	}
}

func buildCompare(name string, left, right eval.BoundExpression, promoted sonictype.DataType, test func(int) bool, maxRows int, b *binder) (eval.BoundExpression, error) {
	switch promoted {
	case sonictype.INT32:
		return eval.NewBoundCompare[int32](name, left, right, test, maxRows, b.alloc, eval.Int32Slice), nil
	case sonictype.INT64:
		return eval.NewBoundCompare[int64](name, left, right, test, maxRows, b.alloc, eval.Int64Slice), nil
	case sonictype.UINT32:
		return eval.NewBoundCompare[uint32](name, left, right, test, maxRows, b.alloc, eval.Uint32Slice), nil
	case sonictype.UINT64:
		return eval.NewBoundCompare[uint64](name, left, right, test, maxRows, b.alloc, eval.Uint64Slice), nil
	case sonictype.FLOAT:
		return eval.NewBoundCompare[float32](name, left, right, test, maxRows, b.alloc, eval.Float32Slice), nil
	case sonictype.DOUBLE:
		return eval.NewBoundCompare[float64](name, left, right, test, maxRows, b.alloc, eval.Float64Slice), nil
	default:
		return nil, sonicerr.NewSchemaError(sonicerr.ErrTypeMismatch, "", "%s is not comparable", promoted)
	}
}
