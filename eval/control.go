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

// BoundIf implements IF(cond, t, f): t is evaluated only for rows
// where cond is true, f only for rows where cond is false; rows
// where cond is NULL produce NULL without evaluating either branch.
type boundIf[T Number] struct {
	cond, then, els BoundExpression
	schema          batch.Schema
	scratch         *batch.Block
	get             func(*batch.Column) []T
	tightThen       batch.SkipVector
	tightElse       batch.SkipVector
}

func NewBoundIf[T Number](cond, then, els BoundExpression, t sonictype.DataType, maxRows int, alloc mem.Allocator, get func(*batch.Column) []T) BoundExpression {
	schema := batch.MustSchema(batch.Attribute{Name: "$if", Type: t, Nullability: sonictype.NULLABLE})
	return &boundIf[T]{
		cond: cond, then: then, els: els, schema: schema,
		scratch:   batch.NewBlock(schema, maxRows, alloc),
		get:       get,
		tightThen: batch.NewSkipVector(maxRows),
		tightElse: batch.NewSkipVector(maxRows),
	}
}

func (b *boundIf[T]) ResultSchema() batch.Schema { return b.schema }
func (b *boundIf[T]) RowCapacity() uint64 {
	cap := uint64(b.scratch.Capacity())
	for _, c := range []BoundExpression{b.cond, b.then, b.els} {
		if rc := c.RowCapacity(); rc < cap {
			cap = rc
		}
	}
	return cap
}
func (b *boundIf[T]) CollectReferredAttributeNames(names map[string]struct{}) {
	b.cond.CollectReferredAttributeNames(names)
	b.then.CollectReferredAttributeNames(names)
	b.els.CollectReferredAttributeNames(names)
}

func (b *boundIf[T]) DoEvaluate(input batch.View, skip batch.SkipVector) (batch.View, error) {
	n := input.RowCount()
	cv, err := b.cond.DoEvaluate(input, skip)
	if err != nil {
		return batch.View{}, err
	}
	ccol := cv.Column(0)

	tt, te := b.tightThen.Slice(n), b.tightElse.Slice(n)
	tt.Zero(n)
	te.Zero(n)
	tt.Or(skip, n)
	te.Or(skip, n)
	for i := 0; i < n; i++ {
		if skip.Get(i) {
			continue
		}
		if ccol.Null(i) {
			tt.Set(i, true)
			te.Set(i, true)
			continue
		}
		if ccol.Bool[i] {
			te.Set(i, true)
		} else {
			tt.Set(i, true)
		}
	}

	tv, err := b.then.DoEvaluate(input, tt)
	if err != nil {
		return batch.View{}, err
	}
	ev, err := b.els.DoEvaluate(input, te)
	if err != nil {
		return batch.View{}, err
	}
	tcol, ecol := tv.Column(0), ev.Column(0)

	b.scratch.ResetArenas()
	dst := b.get(b.scratch.Column(0))
	tsl, esl := b.get(tcol), b.get(ecol)
	for i := 0; i < n; i++ {
		if skip.Get(i) {
			continue
		}
		if ccol.Null(i) {
			skip.Set(i, true)
			continue
		}
		if ccol.Bool[i] {
			if tcol.Null(i) {
				skip.Set(i, true)
				continue
			}
			dst[i] = tsl[i]
		} else {
			if ecol.Null(i) {
				skip.Set(i, true)
				continue
			}
			dst[i] = esl[i]
		}
	}
	b.scratch.Column(0).ResetIsNull(skip, n)
	b.scratch.SetRowCount(n)
	return b.scratch.View(), nil
}

// BoundIfNull substitutes b's value for a's where a is null; output
// nullability tracks b's nullability, per spec.
type boundIfNull[T Number] struct {
	a, b    BoundExpression
	schema  batch.Schema
	scratch *batch.Block
	get     func(*batch.Column) []T
}

func NewBoundIfNull[T Number](a, b BoundExpression, t sonictype.DataType, bNullable bool, maxRows int, alloc mem.Allocator, get func(*batch.Column) []T) BoundExpression {
	nullability := sonictype.NOT_NULLABLE
	if bNullable {
		nullability = sonictype.NULLABLE
	}
	schema := batch.MustSchema(batch.Attribute{Name: "$ifnull", Type: t, Nullability: nullability})
	return &boundIfNull[T]{a: a, b: b, schema: schema, scratch: batch.NewBlock(schema, maxRows, alloc), get: get}
}

func (f *boundIfNull[T]) ResultSchema() batch.Schema { return f.schema }
func (f *boundIfNull[T]) RowCapacity() uint64 {
	cap := uint64(f.scratch.Capacity())
	if ac := f.a.RowCapacity(); ac < cap {
		cap = ac
	}
	if bc := f.b.RowCapacity(); bc < cap {
		cap = bc
	}
	return cap
}
func (f *boundIfNull[T]) CollectReferredAttributeNames(names map[string]struct{}) {
	f.a.CollectReferredAttributeNames(names)
	f.b.CollectReferredAttributeNames(names)
}

func (f *boundIfNull[T]) DoEvaluate(input batch.View, skip batch.SkipVector) (batch.View, error) {
	n := input.RowCount()
	av, err := f.a.DoEvaluate(input, skip)
	if err != nil {
		return batch.View{}, err
	}
	bv, err := f.b.DoEvaluate(input, skip)
	if err != nil {
		return batch.View{}, err
	}
	acol, bcol := av.Column(0), bv.Column(0)
	f.scratch.ResetArenas()
	dst := f.get(f.scratch.Column(0))
	asl, bsl := f.get(acol), f.get(bcol)
	outNull := skip
	for i := 0; i < n; i++ {
		if skip.Get(i) {
			continue
		}
		if !acol.Null(i) {
			dst[i] = asl[i]
			continue
		}
		if bcol.Null(i) {
			outNull.Set(i, true)
			continue
		}
		dst[i] = bsl[i]
	}
	f.scratch.Column(0).ResetIsNull(outNull, n)
	f.scratch.SetRowCount(n)
	return f.scratch.View(), nil
}

// BoundCase evaluates a switch expression against a leftmost-wins
// list of WHEN values, emitting the matching THEN, or ELSE if none
// match.
type boundCase[CT Number, RT Number] struct {
	caseValue BoundExpression
	elseValue BoundExpression
	whens     []BoundExpression
	thens     []BoundExpression
	schema    batch.Schema
	scratch   *batch.Block
	getCase   func(*batch.Column) []CT
	getResult func(*batch.Column) []RT
}

func NewBoundCase[CT Number, RT Number](caseValue, elseValue BoundExpression, whens, thens []BoundExpression, t sonictype.DataType, maxRows int, alloc mem.Allocator, getCase func(*batch.Column) []CT, getResult func(*batch.Column) []RT) BoundExpression {
	schema := batch.MustSchema(batch.Attribute{Name: "$case", Type: t, Nullability: sonictype.NULLABLE})
	return &boundCase[CT, RT]{
		caseValue: caseValue, elseValue: elseValue, whens: whens, thens: thens,
		schema: schema, scratch: batch.NewBlock(schema, maxRows, alloc),
		getCase: getCase, getResult: getResult,
	}
}

func (c *boundCase[CT, RT]) ResultSchema() batch.Schema { return c.schema }
func (c *boundCase[CT, RT]) RowCapacity() uint64 {
	cap := uint64(c.scratch.Capacity())
	if cc := c.caseValue.RowCapacity(); cc < cap {
		cap = cc
	}
	if ec := c.elseValue.RowCapacity(); ec < cap {
		cap = ec
	}
	for _, w := range c.whens {
		if wc := w.RowCapacity(); wc < cap {
			cap = wc
		}
	}
	for _, t := range c.thens {
		if tc := t.RowCapacity(); tc < cap {
			cap = tc
		}
	}
	return cap
}
func (c *boundCase[CT, RT]) CollectReferredAttributeNames(names map[string]struct{}) {
	c.caseValue.CollectReferredAttributeNames(names)
	c.elseValue.CollectReferredAttributeNames(names)
	for _, w := range c.whens {
		w.CollectReferredAttributeNames(names)
	}
	for _, t := range c.thens {
		t.CollectReferredAttributeNames(names)
	}
}

func (c *boundCase[CT, RT]) DoEvaluate(input batch.View, skip batch.SkipVector) (batch.View, error) {
	n := input.RowCount()
	cv, err := c.caseValue.DoEvaluate(input, skip)
	if err != nil {
		return batch.View{}, err
	}
	ccol := cv.Column(0)
	csl := c.getCase(ccol)

	matched := make([]int, n) // -1 = none matched yet, else index into whens
	for i := range matched {
		matched[i] = -1
	}
	whenResults := make([]*batch.Column, len(c.whens))
	for wi, w := range c.whens {
		wv, err := w.DoEvaluate(input, skip)
		if err != nil {
			return batch.View{}, err
		}
		whenResults[wi] = wv.Column(0)
		wsl := c.getCase(whenResults[wi])
		for i := 0; i < n; i++ {
			if skip.Get(i) || matched[i] != -1 {
				continue
			}
			if ccol.Null(i) || whenResults[wi].Null(i) {
				continue
			}
			if csl[i] == wsl[i] {
				matched[i] = wi
			}
		}
	}

	thenResults := make([]*batch.Column, len(c.thens))
	for ti, t := range c.thens {
		tv, err := t.DoEvaluate(input, skip)
		if err != nil {
			return batch.View{}, err
		}
		thenResults[ti] = tv.Column(0)
	}
	ev, err := c.elseValue.DoEvaluate(input, skip)
	if err != nil {
		return batch.View{}, err
	}
	ecol := ev.Column(0)

	c.scratch.ResetArenas()
	dst := c.getResult(c.scratch.Column(0))
	esl := c.getResult(ecol)
	for i := 0; i < n; i++ {
		if skip.Get(i) {
			continue
		}
		if m := matched[i]; m >= 0 {
			tcol := thenResults[m]
			if tcol.Null(i) {
				skip.Set(i, true)
				continue
			}
			dst[i] = c.getResult(tcol)[i]
			continue
		}
		if ecol.Null(i) {
			skip.Set(i, true)
			continue
		}
		dst[i] = esl[i]
	}
	c.scratch.Column(0).ResetIsNull(skip, n)
	c.scratch.SetRowCount(n)
	return c.scratch.View(), nil
}
