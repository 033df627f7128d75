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
	"math"

	"golang.org/x/exp/constraints"

	"github.com/supersonic-go/supersonic/batch"
	"github.com/supersonic-go/supersonic/mem"
	"github.com/supersonic-go/supersonic/sonicerr"
	"github.com/supersonic-go/supersonic/sexpr"
	"github.com/supersonic-go/supersonic/sonictype"
)

// Number is the constraint satisfied by every type the arithmetic
// kernels in this file operate on.
type Number interface {
	constraints.Integer | constraints.Float
}

// binFn is a scalar binary function monomorphized for one numeric
// type. ok is false for a nulling failure (e.g. divide by zero under
// DIVIDE_NULLING); err is non-nil for a signaling failure.
type binFn[T Number] func(a, b T) (result T, ok bool, err error)

// BoundArith is the shared shape for ADD/SUB/MUL/DIVIDE_*/POWER_*
// binary arithmetic kernels: evaluate both children with the same
// skip vector, then for each unskipped row apply a scalar function,
// honoring its signaling/nulling/quiet failure policy.
type boundArith[T Number] struct {
	name    string
	left    BoundExpression
	right   BoundExpression
	resultT sonictype.DataType
	schema  batch.Schema
	scratch *batch.Block
	fn      binFn[T]
	get     func(*batch.Column) []T
}

// NewBoundArith builds a binary arithmetic kernel of the promoted
// numeric type t, applying fn per row.
func NewBoundArith[T Number](name string, left, right BoundExpression, t sonictype.DataType, nullable bool, maxRows int, alloc mem.Allocator, fn binFn[T], get func(*batch.Column) []T) BoundExpression {
	nullability := sonictype.NOT_NULLABLE
	if nullable {
		nullability = sonictype.NULLABLE
	}
	schema := batch.MustSchema(batch.Attribute{Name: name, Type: t, Nullability: nullability})
	return &boundArith[T]{
		name: name, left: left, right: right, resultT: t,
		schema:  schema,
		scratch: batch.NewBlock(schema, maxRows, alloc),
		fn:      fn,
		get:     get,
	}
}

func (b *boundArith[T]) ResultSchema() batch.Schema { return b.schema }

func (b *boundArith[T]) RowCapacity() uint64 {
	cap := uint64(b.scratch.Capacity())
	if lc := b.left.RowCapacity(); lc < cap {
		cap = lc
	}
	if rc := b.right.RowCapacity(); rc < cap {
		cap = rc
	}
	return cap
}

func (b *boundArith[T]) CollectReferredAttributeNames(names map[string]struct{}) {
	b.left.CollectReferredAttributeNames(names)
	b.right.CollectReferredAttributeNames(names)
}

func (b *boundArith[T]) DoEvaluate(input batch.View, skip batch.SkipVector) (batch.View, error) {
	n := input.RowCount()
	lv, err := b.left.DoEvaluate(input, skip)
	if err != nil {
		return batch.View{}, err
	}
	rv, err := b.right.DoEvaluate(input, skip)
	if err != nil {
		return batch.View{}, err
	}
	b.scratch.ResetArenas()
	dst := b.get(b.scratch.Column(0))
	lcol, rcol := lv.Column(0), rv.Column(0)
	lsl, rsl := b.get(lcol), b.get(rcol)

	for i := 0; i < n; i++ {
		if skip.Get(i) {
			continue
		}
		if lcol.Null(i) || rcol.Null(i) {
			skip.Set(i, true)
			continue
		}
		res, ok, err := b.fn(lsl[i], rsl[i])
		if err != nil {
			return batch.View{}, sonicerr.NewEvalError(b.name, i, "%s", err)
		}
		if !ok {
			skip.Set(i, true)
			continue
		}
		dst[i] = res
	}
	b.scratch.Column(0).ResetIsNull(skip, n)
	b.scratch.SetRowCount(n)
	return b.scratch.View(), nil
}

// Scalar functions shared by the kernel constructors in package bind.

func AddFn[T Number]() binFn[T] {
	return func(a, b T) (T, bool, error) { return a + b, true, nil }
}

func SubFn[T Number]() binFn[T] {
	return func(a, b T) (T, bool, error) { return a - b, true, nil }
}

func MulFn[T Number]() binFn[T] {
	return func(a, b T) (T, bool, error) { return a * b, true, nil }
}

func DivideSignalingFn[T Number]() binFn[T] {
	return func(a, b T) (T, bool, error) {
		if b == 0 {
			return 0, false, divideByZero
		}
		return a / b, true, nil
	}
}

func DivideNullingFn[T Number]() binFn[T] {
	return func(a, b T) (T, bool, error) {
		if b == 0 {
			return 0, false, nil
		}
		return a / b, true, nil
	}
}

// DivideQuietFloat produces IEEE-754 special values on divide by
// zero rather than erroring or nulling; only meaningful for the
// float family since integer division has no such specials.
func DivideQuietFloat[T constraints.Float]() binFn[T] {
	return func(a, b T) (T, bool, error) { return a / b, true, nil }
}

// DivideQuietInt mirrors integer "quiet" semantics: no error, no
// null, just saturate to zero (there is no IEEE special for ints).
func DivideQuietInt[T constraints.Integer]() binFn[T] {
	return func(a, b T) (T, bool, error) {
		if b == 0 {
			return 0, true, nil
		}
		return a / b, true, nil
	}
}

var divideByZero = &kernelError{"division by zero"}

// Float-only kernels: SQRT/POWER. Bind always promotes their
// operand(s) to DOUBLE before constructing one of these.

func SqrtSignalingFn() binFn[float64] {
	return func(a, _ float64) (float64, bool, error) {
		if a < 0 {
			return 0, false, negativeSqrt
		}
		return math.Sqrt(a), true, nil
	}
}

func SqrtNullingFn() binFn[float64] {
	return func(a, _ float64) (float64, bool, error) {
		if a < 0 {
			return 0, false, nil
		}
		return math.Sqrt(a), true, nil
	}
}

func SqrtQuietFn() binFn[float64] {
	return func(a, _ float64) (float64, bool, error) { return math.Sqrt(a), true, nil }
}

var negativeSqrt = &kernelError{"sqrt of negative number"}

func PowerSignalingFn() binFn[float64] {
	return func(a, b float64) (float64, bool, error) {
		r := math.Pow(a, b)
		if math.IsNaN(r) {
			return 0, false, invalidPower
		}
		return r, true, nil
	}
}

func PowerNullingFn() binFn[float64] {
	return func(a, b float64) (float64, bool, error) {
		r := math.Pow(a, b)
		if math.IsNaN(r) {
			return 0, false, nil
		}
		return r, true, nil
	}
}

func PowerQuietFn() binFn[float64] {
	return func(a, b float64) (float64, bool, error) { return math.Pow(a, b), true, nil }
}

var invalidPower = &kernelError{"invalid power (NaN result)"}

// DivideFamily names the failure policy of a DIVIDE_* operation
// ("signaling", "nulling" or "quiet"), or "" for any other op.
func DivideFamily(op sexpr.OperationType) string {
	switch op {
	case sexpr.OpDivideSignaling:
		return "signaling"
	case sexpr.OpDivideNulling:
		return "nulling"
	case sexpr.OpDivideQuiet:
		return "quiet"
	default:
		return ""
	}
}
