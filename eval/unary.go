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

package eval

import (
	"golang.org/x/exp/constraints"

	"github.com/supersonic-go/supersonic/batch"
	"github.com/supersonic-go/supersonic/mem"
	"github.com/supersonic-go/supersonic/sonicerr"
	"github.com/supersonic-go/supersonic/sonictype"
)

// unFn is a scalar unary function monomorphized for one numeric type.
type unFn[T Number] func(a T) (result T, ok bool, err error)

type boundUnary[T Number] struct {
	name    string
	child   BoundExpression
	schema  batch.Schema
	scratch *batch.Block
	fn      unFn[T]
	get     func(*batch.Column) []T
}

// NewBoundUnary builds a unary arithmetic kernel (NEGATE, and the
// SQRT_* family instantiated at T=float64).
func NewBoundUnary[T Number](name string, child BoundExpression, t sonictype.DataType, nullable bool, maxRows int, alloc mem.Allocator, fn unFn[T], get func(*batch.Column) []T) BoundExpression {
	nullability := sonictype.NOT_NULLABLE
	if nullable {
		nullability = sonictype.NULLABLE
	}
	schema := batch.MustSchema(batch.Attribute{Name: name, Type: t, Nullability: nullability})
	return &boundUnary[T]{
		name: name, child: child, schema: schema,
		scratch: batch.NewBlock(schema, maxRows, alloc),
		fn:      fn,
		get:     get,
	}
}

func (u *boundUnary[T]) ResultSchema() batch.Schema { return u.schema }

func (u *boundUnary[T]) RowCapacity() uint64 {
	cap := uint64(u.scratch.Capacity())
	if cc := u.child.RowCapacity(); cc < cap {
		cap = cc
	}
	return cap
}

func (u *boundUnary[T]) CollectReferredAttributeNames(names map[string]struct{}) {
	u.child.CollectReferredAttributeNames(names)
}

func (u *boundUnary[T]) DoEvaluate(input batch.View, skip batch.SkipVector) (batch.View, error) {
	n := input.RowCount()
	cv, err := u.child.DoEvaluate(input, skip)
	if err != nil {
		return batch.View{}, err
	}
	u.scratch.ResetArenas()
	dst := u.get(u.scratch.Column(0))
	ccol := cv.Column(0)
	csl := u.get(ccol)

	for i := 0; i < n; i++ {
		if skip.Get(i) {
			continue
		}
		if ccol.Null(i) {
			skip.Set(i, true)
			continue
		}
		res, ok, err := u.fn(csl[i])
		if err != nil {
			return batch.View{}, sonicerr.NewEvalError(u.name, i, "%s", err)
		}
		if !ok {
			skip.Set(i, true)
			continue
		}
		dst[i] = res
	}
	u.scratch.Column(0).ResetIsNull(skip, n)
	u.scratch.SetRowCount(n)
	return u.scratch.View(), nil
}

func NegateFn[T constraints.Signed | constraints.Float]() unFn[T] {
	return func(a T) (T, bool, error) { return -a, true, nil }
}

// floatUnFn adapts a SQRT_* binFn[float64] (which ignores its second
// argument) into a unary function.
func floatUnFn(fn binFn[float64]) unFn[float64] {
	return func(a float64) (float64, bool, error) { return fn(a, 0) }
}
