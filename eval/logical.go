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
	"github.com/supersonic-go/supersonic/batch"
	"github.com/supersonic-go/supersonic/mem"
	"github.com/supersonic-go/supersonic/sonictype"
)

// BoundAnd implements three-valued AND with short-circuiting: rows
// where the left side is known false never evaluate the right side
// at all (their skip bit is set going into right.DoEvaluate).
type BoundAnd struct {
	left, right BoundExpression
	schema      batch.Schema
	scratch     *batch.Block
	tightened   batch.SkipVector
}

func NewBoundAnd(left, right BoundExpression, maxRows int, alloc mem.Allocator) *BoundAnd {
	schema := batch.MustSchema(batch.Attribute{Name: "$and", Type: sonictype.BOOL, Nullability: sonictype.NULLABLE})
	return &BoundAnd{
		left: left, right: right, schema: schema,
		scratch:   batch.NewBlock(schema, maxRows, alloc),
		tightened: batch.NewSkipVector(maxRows),
	}
}

func (b *BoundAnd) ResultSchema() batch.Schema { return b.schema }
func (b *BoundAnd) RowCapacity() uint64 {
	cap := uint64(b.scratch.Capacity())
	if lc := b.left.RowCapacity(); lc < cap {
		cap = lc
	}
	if rc := b.right.RowCapacity(); rc < cap {
		cap = rc
	}
	return cap
}
func (b *BoundAnd) CollectReferredAttributeNames(names map[string]struct{}) {
	b.left.CollectReferredAttributeNames(names)
	b.right.CollectReferredAttributeNames(names)
}

func (b *BoundAnd) DoEvaluate(input batch.View, skip batch.SkipVector) (batch.View, error) {
	n := input.RowCount()
	lv, err := b.left.DoEvaluate(input, skip)
	if err != nil {
		return batch.View{}, err
	}
	lcol := lv.Column(0)

	tight := b.tightened.Slice(n)
	tight.Zero(n)
	tight.Or(skip, n)
	leftFalse := make([]bool, n)
	for i := 0; i < n; i++ {
		if !skip.Get(i) && !lcol.Null(i) && !lcol.Bool[i] {
			leftFalse[i] = true
			tight.Set(i, true)
		}
	}

	rv, err := b.right.DoEvaluate(input, tight)
	if err != nil {
		return batch.View{}, err
	}
	rcol := rv.Column(0)

	b.scratch.ResetArenas()
	dst := b.scratch.Column(0).Bool
	for i := 0; i < n; i++ {
		if skip.Get(i) {
			continue
		}
		if leftFalse[i] {
			dst[i] = false
			continue
		}
		leftNull := lcol.Null(i)
		rightNull := rcol.Null(i)
		switch {
		case !rightNull && !rcol.Bool[i]:
			dst[i] = false // NULL AND false == false
		case leftNull || rightNull:
			skip.Set(i, true) // NULL AND {NULL,true} == NULL
		default:
			dst[i] = rcol.Bool[i] // left is true: true AND right == right
		}
	}
	b.scratch.Column(0).ResetIsNull(skip, n)
	b.scratch.SetRowCount(n)
	return b.scratch.View(), nil
}

// BoundOr is AND's dual: rows known true on the left short-circuit
// the right side entirely.
type BoundOr struct {
	left, right BoundExpression
	schema      batch.Schema
	scratch     *batch.Block
	tightened   batch.SkipVector
}

func NewBoundOr(left, right BoundExpression, maxRows int, alloc mem.Allocator) *BoundOr {
	schema := batch.MustSchema(batch.Attribute{Name: "$or", Type: sonictype.BOOL, Nullability: sonictype.NULLABLE})
	return &BoundOr{
		left: left, right: right, schema: schema,
		scratch:   batch.NewBlock(schema, maxRows, alloc),
		tightened: batch.NewSkipVector(maxRows),
	}
}

func (b *BoundOr) ResultSchema() batch.Schema { return b.schema }
func (b *BoundOr) RowCapacity() uint64 {
	cap := uint64(b.scratch.Capacity())
	if lc := b.left.RowCapacity(); lc < cap {
		cap = lc
	}
	if rc := b.right.RowCapacity(); rc < cap {
		cap = rc
	}
	return cap
}
func (b *BoundOr) CollectReferredAttributeNames(names map[string]struct{}) {
	b.left.CollectReferredAttributeNames(names)
	b.right.CollectReferredAttributeNames(names)
}

func (b *BoundOr) DoEvaluate(input batch.View, skip batch.SkipVector) (batch.View, error) {
	n := input.RowCount()
	lv, err := b.left.DoEvaluate(input, skip)
	if err != nil {
		return batch.View{}, err
	}
	lcol := lv.Column(0)

	tight := b.tightened.Slice(n)
	tight.Zero(n)
	tight.Or(skip, n)
	leftTrue := make([]bool, n)
	for i := 0; i < n; i++ {
		if !skip.Get(i) && !lcol.Null(i) && lcol.Bool[i] {
			leftTrue[i] = true
			tight.Set(i, true)
		}
	}

	rv, err := b.right.DoEvaluate(input, tight)
	if err != nil {
		return batch.View{}, err
	}
	rcol := rv.Column(0)

	b.scratch.ResetArenas()
	dst := b.scratch.Column(0).Bool
	for i := 0; i < n; i++ {
		if skip.Get(i) {
			continue
		}
		if leftTrue[i] {
			dst[i] = true
			continue
		}
		leftNull := lcol.Null(i)
		rightNull := rcol.Null(i)
		switch {
		case !rightNull && rcol.Bool[i]:
			dst[i] = true // NULL OR true == true
		case leftNull || rightNull:
			skip.Set(i, true) // NULL OR {NULL,false} == NULL
		default:
			dst[i] = rcol.Bool[i] // left is false: false OR right == right
		}
	}
	b.scratch.Column(0).ResetIsNull(skip, n)
	b.scratch.SetRowCount(n)
	return b.scratch.View(), nil
}

// BoundNot negates a BOOL child; NULL stays NULL.
type BoundNot struct {
	child   BoundExpression
	schema  batch.Schema
	scratch *batch.Block
}

func NewBoundNot(child BoundExpression, maxRows int, alloc mem.Allocator) *BoundNot {
	schema := batch.MustSchema(batch.Attribute{Name: "$not", Type: sonictype.BOOL, Nullability: sonictype.NULLABLE})
	return &BoundNot{child: child, schema: schema, scratch: batch.NewBlock(schema, maxRows, alloc)}
}

func (b *BoundNot) ResultSchema() batch.Schema { return b.schema }
func (b *BoundNot) RowCapacity() uint64        { return b.child.RowCapacity() }
func (b *BoundNot) CollectReferredAttributeNames(names map[string]struct{}) {
	b.child.CollectReferredAttributeNames(names)
}

func (b *BoundNot) DoEvaluate(input batch.View, skip batch.SkipVector) (batch.View, error) {
	n := input.RowCount()
	cv, err := b.child.DoEvaluate(input, skip)
	if err != nil {
		return batch.View{}, err
	}
	ccol := cv.Column(0)
	b.scratch.ResetArenas()
	dst := b.scratch.Column(0).Bool
	for i := 0; i < n; i++ {
		if skip.Get(i) || ccol.Null(i) {
			skip.Set(i, true)
			continue
		}
		dst[i] = !ccol.Bool[i]
	}
	b.scratch.Column(0).ResetIsNull(skip, n)
	b.scratch.SetRowCount(n)
	return b.scratch.View(), nil
}
