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
	"bytes"

	"github.com/supersonic-go/supersonic/batch"
	"github.com/supersonic-go/supersonic/mem"
	"github.com/supersonic-go/supersonic/sonictype"
)

// cmpFn compares two values, reporting -1/0/1 like bytes.Compare.
type cmpFn[T Number] func(a, b T) int

func LessCmp[T Number]() cmpFn[T] {
	return func(a, b T) int {
		switch {
		case a < b:
			return -1
		case a > b:
			return 1
		default:
			return 0
		}
	}
}

// boundCompare produces a BOOL result with three-valued NULL
// semantics: if either operand is null, the comparison result is
// itself null (regardless of the skip vector's computation state).
type boundCompare[T Number] struct {
	name    string
	left    BoundExpression
	right   BoundExpression
	schema  batch.Schema
	scratch *batch.Block
	cmp     cmpFn[T]
	test    func(c int) bool
	get     func(*batch.Column) []T
}

func NewBoundCompare[T Number](name string, left, right BoundExpression, test func(int) bool, maxRows int, alloc mem.Allocator, get func(*batch.Column) []T) BoundExpression {
	schema := batch.MustSchema(batch.Attribute{Name: name, Type: sonictype.BOOL, Nullability: sonictype.NULLABLE})
	return &boundCompare[T]{
		name: name, left: left, right: right,
		schema:  schema,
		scratch: batch.NewBlock(schema, maxRows, alloc),
		cmp:     LessCmp[T](),
		test:    test,
		get:     get,
	}
}

func (b *boundCompare[T]) ResultSchema() batch.Schema { return b.schema }

func (b *boundCompare[T]) RowCapacity() uint64 {
	cap := uint64(b.scratch.Capacity())
	if lc := b.left.RowCapacity(); lc < cap {
		cap = lc
	}
	if rc := b.right.RowCapacity(); rc < cap {
		cap = rc
	}
	return cap
}

func (b *boundCompare[T]) CollectReferredAttributeNames(names map[string]struct{}) {
	b.left.CollectReferredAttributeNames(names)
	b.right.CollectReferredAttributeNames(names)
}

func (b *boundCompare[T]) DoEvaluate(input batch.View, skip batch.SkipVector) (batch.View, error) {
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
	dst := b.scratch.Column(0).Bool
	dstNull := skip
	lcol, rcol := lv.Column(0), rv.Column(0)
	lsl, rsl := b.get(lcol), b.get(rcol)

	for i := 0; i < n; i++ {
		if skip.Get(i) {
			continue
		}
		if lcol.Null(i) || rcol.Null(i) {
			dstNull.Set(i, true)
			continue
		}
		dst[i] = b.test(b.cmp(lsl[i], rsl[i]))
	}
	b.scratch.Column(0).ResetIsNull(dstNull, n)
	b.scratch.SetRowCount(n)
	return b.scratch.View(), nil
}

// Comparison test predicates, by §4.E EQ/NE/LT/LE/GT/GE.
func TestEq(c int) bool { return c == 0 }
func TestNe(c int) bool { return c != 0 }
func TestLt(c int) bool { return c < 0 }
func TestLe(c int) bool { return c <= 0 }
func TestGt(c int) bool { return c > 0 }
func TestGe(c int) bool { return c >= 0 }

// boundStringCompare compares STRING/BINARY operands lexicographically
// by the bytes in each side's own arena.
type boundStringCompare struct {
	name       string
	left       BoundExpression
	right      BoundExpression
	leftArena  func() *batch.Arena
	rightArena func() *batch.Arena
	schema     batch.Schema
	scratch    *batch.Block
	test       func(c int) bool
}

func NewBoundStringCompare(name string, left, right BoundExpression, leftArena, rightArena func() *batch.Arena, test func(int) bool, maxRows int, alloc mem.Allocator) BoundExpression {
	schema := batch.MustSchema(batch.Attribute{Name: name, Type: sonictype.BOOL, Nullability: sonictype.NULLABLE})
	return &boundStringCompare{
		name: name, left: left, right: right,
		leftArena: leftArena, rightArena: rightArena,
		schema: schema, scratch: batch.NewBlock(schema, maxRows, alloc), test: test,
	}
}

func (b *boundStringCompare) ResultSchema() batch.Schema { return b.schema }

func (b *boundStringCompare) RowCapacity() uint64 {
	cap := uint64(b.scratch.Capacity())
	if lc := b.left.RowCapacity(); lc < cap {
		cap = lc
	}
	if rc := b.right.RowCapacity(); rc < cap {
		cap = rc
	}
	return cap
}

func (b *boundStringCompare) CollectReferredAttributeNames(names map[string]struct{}) {
	b.left.CollectReferredAttributeNames(names)
	b.right.CollectReferredAttributeNames(names)
}

func (b *boundStringCompare) DoEvaluate(input batch.View, skip batch.SkipVector) (batch.View, error) {
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
	dst := b.scratch.Column(0).Bool
	la, ra := b.leftArena(), b.rightArena()
	lcol, rcol := lv.Column(0), rv.Column(0)

	for i := 0; i < n; i++ {
		if skip.Get(i) {
			continue
		}
		if lcol.Null(i) || rcol.Null(i) {
			skip.Set(i, true)
			continue
		}
		c := bytes.Compare(la.Bytes(lcol.Str[i]), ra.Bytes(rcol.Str[i]))
		dst[i] = b.test(c)
	}
	b.scratch.Column(0).ResetIsNull(skip, n)
	b.scratch.SetRowCount(n)
	return b.scratch.View(), nil
}

// BoundBoolEq implements EQ/NE over BOOL operands.
type BoundBoolEq struct {
	name        string
	left, right BoundExpression
	negate      bool
	schema      batch.Schema
	scratch     *batch.Block
}

func NewBoundBoolEq(name string, left, right BoundExpression, negate bool, maxRows int, alloc mem.Allocator) *BoundBoolEq {
	schema := batch.MustSchema(batch.Attribute{Name: name, Type: sonictype.BOOL, Nullability: sonictype.NULLABLE})
	return &BoundBoolEq{name: name, left: left, right: right, negate: negate, schema: schema, scratch: batch.NewBlock(schema, maxRows, alloc)}
}

func (b *BoundBoolEq) ResultSchema() batch.Schema { return b.schema }
func (b *BoundBoolEq) RowCapacity() uint64 {
	cap := uint64(b.scratch.Capacity())
	if lc := b.left.RowCapacity(); lc < cap {
		cap = lc
	}
	if rc := b.right.RowCapacity(); rc < cap {
		cap = rc
	}
	return cap
}
func (b *BoundBoolEq) CollectReferredAttributeNames(names map[string]struct{}) {
	b.left.CollectReferredAttributeNames(names)
	b.right.CollectReferredAttributeNames(names)
}

func (b *BoundBoolEq) DoEvaluate(input batch.View, skip batch.SkipVector) (batch.View, error) {
	n := input.RowCount()
	lv, err := b.left.DoEvaluate(input, skip)
	if err != nil {
		return batch.View{}, err
	}
	rv, err := b.right.DoEvaluate(input, skip)
	if err != nil {
		return batch.View{}, err
	}
	lcol, rcol := lv.Column(0), rv.Column(0)
	b.scratch.ResetArenas()
	dst := b.scratch.Column(0).Bool
	for i := 0; i < n; i++ {
		if skip.Get(i) {
			continue
		}
		if lcol.Null(i) || rcol.Null(i) {
			skip.Set(i, true)
			continue
		}
		eq := lcol.Bool[i] == rcol.Bool[i]
		if b.negate {
			eq = !eq
		}
		dst[i] = eq
	}
	b.scratch.Column(0).ResetIsNull(skip, n)
	b.scratch.SetRowCount(n)
	return b.scratch.View(), nil
}

// BoundIsNull reads the input's null bitmap directly; it never
// propagates the skip vector (a null test must run even on rows a
// parent has marked skipped, since IS_NULL is how NULL-aware logic
// is usually implemented in the first place).
type BoundIsNull struct {
	child   BoundExpression
	schema  batch.Schema
	scratch *batch.Block
}

func NewBoundIsNull(child BoundExpression, maxRows int, alloc mem.Allocator) *BoundIsNull {
	schema := batch.MustSchema(batch.Attribute{Name: "$isnull", Type: sonictype.BOOL, Nullability: sonictype.NOT_NULLABLE})
	return &BoundIsNull{child: child, schema: schema, scratch: batch.NewBlock(schema, maxRows, alloc)}
}

func (b *BoundIsNull) ResultSchema() batch.Schema { return b.schema }
func (b *BoundIsNull) RowCapacity() uint64        { return b.child.RowCapacity() }
func (b *BoundIsNull) CollectReferredAttributeNames(names map[string]struct{}) {
	b.child.CollectReferredAttributeNames(names)
}

func (b *BoundIsNull) DoEvaluate(input batch.View, skip batch.SkipVector) (batch.View, error) {
	n := input.RowCount()
	// evaluate the child with an all-clear skip vector: IS_NULL must
	// observe the child's own nullability, not whatever an ancestor
	// has short-circuited.
	clear := batch.NewSkipVector(n)
	cv, err := b.child.DoEvaluate(input, clear)
	if err != nil {
		return batch.View{}, err
	}
	b.scratch.ResetArenas()
	dst := b.scratch.Column(0).Bool
	ccol := cv.Column(0)
	for i := 0; i < n; i++ {
		dst[i] = ccol.Null(i)
	}
	b.scratch.SetRowCount(n)
	return b.scratch.View(), nil
}
