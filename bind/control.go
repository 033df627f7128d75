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

// IF/IFNULL/CASE operate over the numeric domain only: a non-numeric
// branch type (STRING, BOOL, DATETIME, ...) is rejected at bind time
// rather than threading a second family of generic kernels through
// every branch combination.

func buildIf(cond, then, els eval.BoundExpression, t sonictype.DataType, maxRows int, b *binder) (eval.BoundExpression, error) {
	switch t {
	case sonictype.INT32:
		return eval.NewBoundIf[int32](cond, then, els, t, maxRows, b.alloc, eval.Int32Slice), nil
	case sonictype.INT64:
		return eval.NewBoundIf[int64](cond, then, els, t, maxRows, b.alloc, eval.Int64Slice), nil
	case sonictype.UINT32:
		return eval.NewBoundIf[uint32](cond, then, els, t, maxRows, b.alloc, eval.Uint32Slice), nil
	case sonictype.UINT64:
		return eval.NewBoundIf[uint64](cond, then, els, t, maxRows, b.alloc, eval.Uint64Slice), nil
	case sonictype.FLOAT:
		return eval.NewBoundIf[float32](cond, then, els, t, maxRows, b.alloc, eval.Float32Slice), nil
	case sonictype.DOUBLE:
		return eval.NewBoundIf[float64](cond, then, els, t, maxRows, b.alloc, eval.Float64Slice), nil
	default:
		return nil, sonicerr.NewSchemaError(sonicerr.ErrTypeMismatch, "", "IF requires numeric branches, got %s", t)
	}
}

func (b *binder) bindIf(o *sexpr.Operation) (eval.BoundExpression, error) {
	if err := b.arity(o, 3); err != nil {
		return nil, err
	}
	args, err := b.bindArgs(o)
	if err != nil {
		return nil, err
	}
	if err := b.requireBool(args[0]); err != nil {
		return nil, err
	}
	then, els, promoted, _, err := b.promoteBoth(args[1], args[2])
	if err != nil {
		return nil, err
	}
	return buildIf(args[0], then, els, promoted, b.maxRows, b)
}

func buildIfNull(a, bb eval.BoundExpression, t sonictype.DataType, bNullable bool, maxRows int, b *binder) (eval.BoundExpression, error) {
	switch t {
	case sonictype.INT32:
		return eval.NewBoundIfNull[int32](a, bb, t, bNullable, maxRows, b.alloc, eval.Int32Slice), nil
	case sonictype.INT64:
		return eval.NewBoundIfNull[int64](a, bb, t, bNullable, maxRows, b.alloc, eval.Int64Slice), nil
	case sonictype.UINT32:
		return eval.NewBoundIfNull[uint32](a, bb, t, bNullable, maxRows, b.alloc, eval.Uint32Slice), nil
	case sonictype.UINT64:
		return eval.NewBoundIfNull[uint64](a, bb, t, bNullable, maxRows, b.alloc, eval.Uint64Slice), nil
	case sonictype.FLOAT:
		return eval.NewBoundIfNull[float32](a, bb, t, bNullable, maxRows, b.alloc, eval.Float32Slice), nil
	case sonictype.DOUBLE:
		return eval.NewBoundIfNull[float64](a, bb, t, bNullable, maxRows, b.alloc, eval.Float64Slice), nil
	default:
		return nil, sonicerr.NewSchemaError(sonicerr.ErrTypeMismatch, "", "IFNULL requires numeric branches, got %s", t)
	}
}

func (b *binder) bindIfNull(o *sexpr.Operation) (eval.BoundExpression, error) {
	if err := b.arity(o, 2); err != nil {
		return nil, err
	}
	args, err := b.bindArgs(o)
	if err != nil {
		return nil, err
	}
	a, bb, promoted, _, err := b.promoteBoth(args[0], args[1])
	if err != nil {
		return nil, err
	}
	_, bNullable := resultType(bb)
	return buildIfNull(a, bb, promoted, bNullable, b.maxRows, b)
}

// bindCase expects Args laid out as
// [caseValue, when1, then1, when2, then2, ..., elseValue] (an odd
// count of at least 3).
func (b *binder) bindCase(o *sexpr.Operation) (eval.BoundExpression, error) {
	if len(o.Args) < 3 || len(o.Args)%2 == 0 {
		return nil, sonicerr.NewSchemaError(sonicerr.ErrArity, o.Op.String(), "expected caseValue, (when,then)+, elseValue")
	}
	args, err := b.bindArgs(o)
	if err != nil {
		return nil, err
	}
	caseValue := args[0]
	elseValue := args[len(args)-1]
	pairs := args[1 : len(args)-1]
	nPairs := len(pairs) / 2

	caseType, _ := resultType(caseValue)
	for i := 0; i < nPairs; i++ {
		wt, _ := resultType(pairs[2*i])
		promoted, ok := sonictype.Promote(caseType, wt)
		if !ok {
			return nil, sonicerr.NewSchemaError(sonicerr.ErrTypeMismatch, "", "CASE value type %s incompatible with WHEN type %s", caseType, wt)
		}
		caseType = promoted
	}
	caseValue, err = b.coerceNumeric(caseValue, caseType)
	if err != nil {
		return nil, err
	}
	whens := make([]eval.BoundExpression, nPairs)
	thens := make([]eval.BoundExpression, nPairs)
	resultTy, _ := resultType(elseValue)
	for i := 0; i < nPairs; i++ {
		w, err := b.coerceNumeric(pairs[2*i], caseType)
		if err != nil {
			return nil, err
		}
		whens[i] = w
		thens[i] = pairs[2*i+1]
		tt, _ := resultType(thens[i])
		promoted, ok := sonictype.Promote(resultTy, tt)
		if !ok {
			return nil, sonicerr.NewSchemaError(sonicerr.ErrTypeMismatch, "", "CASE result type %s incompatible with THEN type %s", resultTy, tt)
		}
		resultTy = promoted
	}
	elseValue, err = b.coerceNumeric(elseValue, resultTy)
	if err != nil {
		return nil, err
	}
	for i := range thens {
		thens[i], err = b.coerceNumeric(thens[i], resultTy)
		if err != nil {
			return nil, err
		}
	}
	return buildCase(caseValue, elseValue, whens, thens, caseType, resultTy, b.maxRows, b)
}

func buildCase(caseValue, elseValue eval.BoundExpression, whens, thens []eval.BoundExpression, caseType, resultTy sonictype.DataType, maxRows int, b *binder) (eval.BoundExpression, error) {
	switch caseType {
	case sonictype.INT32:
		return buildCaseResult[int32](caseValue, elseValue, whens, thens, resultTy, maxRows, b, eval.Int32Slice)
	case sonictype.INT64:
		return buildCaseResult[int64](caseValue, elseValue, whens, thens, resultTy, maxRows, b, eval.Int64Slice)
	case sonictype.UINT32:
		return buildCaseResult[uint32](caseValue, elseValue, whens, thens, resultTy, maxRows, b, eval.Uint32Slice)
	case sonictype.UINT64:
		return buildCaseResult[uint64](caseValue, elseValue, whens, thens, resultTy, maxRows, b, eval.Uint64Slice)
	case sonictype.FLOAT:
		return buildCaseResult[float32](caseValue, elseValue, whens, thens, resultTy, maxRows, b, eval.Float32Slice)
	case sonictype.DOUBLE:
		return buildCaseResult[float64](caseValue, elseValue, whens, thens, resultTy, maxRows, b, eval.Float64Slice)
	default:
		return nil, sonicerr.NewSchemaError(sonicerr.ErrTypeMismatch, "", "CASE requires a numeric case value, got %s", caseType)
	}
}

func buildCaseResult[CT int32 | int64 | uint32 | uint64 | float32 | float64](caseValue, elseValue eval.BoundExpression, whens, thens []eval.BoundExpression, resultTy sonictype.DataType, maxRows int, b *binder, getCase func(*batch.Column) []CT) (eval.BoundExpression, error) {
	switch resultTy {
	case sonictype.INT32:
		return eval.NewBoundCase[CT, int32](caseValue, elseValue, whens, thens, resultTy, maxRows, b.alloc, getCase, eval.Int32Slice), nil
	case sonictype.INT64:
		return eval.NewBoundCase[CT, int64](caseValue, elseValue, whens, thens, resultTy, maxRows, b.alloc, getCase, eval.Int64Slice), nil
	case sonictype.UINT32:
		return eval.NewBoundCase[CT, uint32](caseValue, elseValue, whens, thens, resultTy, maxRows, b.alloc, getCase, eval.Uint32Slice), nil
	case sonictype.UINT64:
		return eval.NewBoundCase[CT, uint64](caseValue, elseValue, whens, thens, resultTy, maxRows, b.alloc, getCase, eval.Uint64Slice), nil
	case sonictype.FLOAT:
		return eval.NewBoundCase[CT, float32](caseValue, elseValue, whens, thens, resultTy, maxRows, b.alloc, getCase, eval.Float32Slice), nil
	case sonictype.DOUBLE:
		return eval.NewBoundCase[CT, float64](caseValue, elseValue, whens, thens, resultTy, maxRows, b.alloc, getCase, eval.Float64Slice), nil
	default:
		return nil, sonicerr.NewSchemaError(sonicerr.ErrTypeMismatch, "", "CASE requires a numeric result type, got %s", resultTy)
	}
}
