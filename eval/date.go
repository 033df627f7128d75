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
	"github.com/supersonic-go/supersonic/fastdate"
	"github.com/supersonic-go/supersonic/mem"
	"github.com/supersonic-go/supersonic/sonictype"
)

// DateUnit names the calendar granularity DATE_ADD/DATE_DIFF/EXTRACT
// operate over.
type DateUnit int

const (
	UnitMicrosecond DateUnit = iota
	UnitMillisecond
	UnitSecond
	UnitMinute
	UnitHour
	UnitDay
	UnitMonth
	UnitQuarter
	UnitYear
	UnitDOW
	UnitDOY
)

// BoundDateAdd implements DATE_ADD(unit, amount, ts): ts shifted by
// amount units. A row whose Add* bool comes back false is NULL, but
// fastdate.Timestamp's Add* methods always return true: overflow of
// the int64 microsecond range is not detected and wraps.
type BoundDateAdd struct {
	unit        DateUnit
	amount, ts  BoundExpression
	schema      batch.Schema
	scratch     *batch.Block
}

func NewBoundDateAdd(unit DateUnit, amount, ts BoundExpression, maxRows int, alloc mem.Allocator) *BoundDateAdd {
	schema := batch.MustSchema(batch.Attribute{Name: "$date_add", Type: sonictype.DATETIME, Nullability: sonictype.NULLABLE})
	return &BoundDateAdd{unit: unit, amount: amount, ts: ts, schema: schema, scratch: batch.NewBlock(schema, maxRows, alloc)}
}

func (d *BoundDateAdd) ResultSchema() batch.Schema { return d.schema }
func (d *BoundDateAdd) RowCapacity() uint64 {
	cap := d.amount.RowCapacity()
	if tc := d.ts.RowCapacity(); tc < cap {
		cap = tc
	}
	return cap
}
func (d *BoundDateAdd) CollectReferredAttributeNames(names map[string]struct{}) {
	d.amount.CollectReferredAttributeNames(names)
	d.ts.CollectReferredAttributeNames(names)
}

func (d *BoundDateAdd) DoEvaluate(input batch.View, skip batch.SkipVector) (batch.View, error) {
	n := input.RowCount()
	av, err := d.amount.DoEvaluate(input, skip)
	if err != nil {
		return batch.View{}, err
	}
	tv, err := d.ts.DoEvaluate(input, skip)
	if err != nil {
		return batch.View{}, err
	}
	acol, tcol := av.Column(0), tv.Column(0)
	d.scratch.ResetArenas()
	dst := d.scratch.Column(0).Datetime
	for i := 0; i < n; i++ {
		if skip.Get(i) {
			continue
		}
		if acol.Null(i) || tcol.Null(i) {
			skip.Set(i, true)
			continue
		}
		ts := fastdate.Timestamp(tcol.Datetime[i])
		amount := acol.Int64[i]
		var (
			res fastdate.Timestamp
			ok  bool
		)
		switch d.unit {
		case UnitMicrosecond:
			res, ok = ts.AddMicrosecond(amount)
		case UnitMillisecond:
			res, ok = ts.AddMillisecond(amount)
		case UnitSecond:
			res, ok = ts.AddSecond(amount)
		case UnitMinute:
			res, ok = ts.AddMinute(amount)
		case UnitHour:
			res, ok = ts.AddHour(amount)
		case UnitDay:
			res, ok = ts.AddDay(amount)
		case UnitMonth:
			res, ok = ts.AddMonth(amount)
		case UnitQuarter:
			res, ok = ts.AddQuarter(amount)
		case UnitYear:
			res, ok = ts.AddYear(amount)
		default:
			ok = false
		}
		if !ok {
			skip.Set(i, true)
			continue
		}
		dst[i] = int64(res)
	}
	d.scratch.Column(0).ResetIsNull(skip, n)
	d.scratch.SetRowCount(n)
	return d.scratch.View(), nil
}

// BoundDateDiff implements DATE_DIFF(unit, a, b): b - a expressed in
// whole units.
type BoundDateDiff struct {
	unit    DateUnit
	a, b    BoundExpression
	schema  batch.Schema
	scratch *batch.Block
}

func NewBoundDateDiff(unit DateUnit, a, b BoundExpression, maxRows int, alloc mem.Allocator) *BoundDateDiff {
	schema := batch.MustSchema(batch.Attribute{Name: "$date_diff", Type: sonictype.INT64, Nullability: sonictype.NULLABLE})
	return &BoundDateDiff{unit: unit, a: a, b: b, schema: schema, scratch: batch.NewBlock(schema, maxRows, alloc)}
}

func (d *BoundDateDiff) ResultSchema() batch.Schema { return d.schema }
func (d *BoundDateDiff) RowCapacity() uint64 {
	cap := d.a.RowCapacity()
	if bc := d.b.RowCapacity(); bc < cap {
		cap = bc
	}
	return cap
}
func (d *BoundDateDiff) CollectReferredAttributeNames(names map[string]struct{}) {
	d.a.CollectReferredAttributeNames(names)
	d.b.CollectReferredAttributeNames(names)
}

func (d *BoundDateDiff) DoEvaluate(input batch.View, skip batch.SkipVector) (batch.View, error) {
	n := input.RowCount()
	av, err := d.a.DoEvaluate(input, skip)
	if err != nil {
		return batch.View{}, err
	}
	bv, err := d.b.DoEvaluate(input, skip)
	if err != nil {
		return batch.View{}, err
	}
	acol, bcol := av.Column(0), bv.Column(0)
	d.scratch.ResetArenas()
	dst := d.scratch.Column(0).Int64
	for i := 0; i < n; i++ {
		if skip.Get(i) {
			continue
		}
		if acol.Null(i) || bcol.Null(i) {
			skip.Set(i, true)
			continue
		}
		ta := fastdate.Timestamp(acol.Datetime[i])
		tb := fastdate.Timestamp(bcol.Datetime[i])
		switch d.unit {
		case UnitMonth:
			dst[i] = ta.DateDiffMonth(tb)
		case UnitQuarter:
			dst[i] = ta.DateDiffMonth(tb) / 3
		case UnitYear:
			dst[i] = ta.DateDiffMonth(tb) / 12
		case UnitMicrosecond:
			dst[i] = ta.DateDiffMicrosecond(tb)
		case UnitMillisecond:
			dst[i] = ta.DateDiffMicrosecond(tb) / 1000
		case UnitSecond:
			dst[i] = ta.DateDiffMicrosecond(tb) / 1_000_000
		case UnitMinute:
			dst[i] = ta.DateDiffMicrosecond(tb) / (60 * 1_000_000)
		case UnitHour:
			dst[i] = ta.DateDiffMicrosecond(tb) / (3600 * 1_000_000)
		case UnitDay:
			dst[i] = ta.DateDiffMicrosecond(tb) / (86400 * 1_000_000)
		default:
			skip.Set(i, true)
		}
	}
	d.scratch.Column(0).ResetIsNull(skip, n)
	d.scratch.SetRowCount(n)
	return d.scratch.View(), nil
}

// BoundDateExtract implements EXTRACT(unit FROM ts), returning an
// INT64 field value (year, month, day-of-week, ...).
type BoundDateExtract struct {
	unit    DateUnit
	ts      BoundExpression
	schema  batch.Schema
	scratch *batch.Block
}

func NewBoundDateExtract(unit DateUnit, ts BoundExpression, maxRows int, alloc mem.Allocator) *BoundDateExtract {
	schema := batch.MustSchema(batch.Attribute{Name: "$extract", Type: sonictype.INT64, Nullability: sonictype.NULLABLE})
	return &BoundDateExtract{unit: unit, ts: ts, schema: schema, scratch: batch.NewBlock(schema, maxRows, alloc)}
}

func (e *BoundDateExtract) ResultSchema() batch.Schema { return e.schema }
func (e *BoundDateExtract) RowCapacity() uint64         { return e.ts.RowCapacity() }
func (e *BoundDateExtract) CollectReferredAttributeNames(names map[string]struct{}) {
	e.ts.CollectReferredAttributeNames(names)
}

func (e *BoundDateExtract) DoEvaluate(input batch.View, skip batch.SkipVector) (batch.View, error) {
	n := input.RowCount()
	tv, err := e.ts.DoEvaluate(input, skip)
	if err != nil {
		return batch.View{}, err
	}
	tcol := tv.Column(0)
	e.scratch.ResetArenas()
	dst := e.scratch.Column(0).Int64
	for i := 0; i < n; i++ {
		if skip.Get(i) {
			continue
		}
		if tcol.Null(i) {
			skip.Set(i, true)
			continue
		}
		ts := fastdate.Timestamp(tcol.Datetime[i])
		switch e.unit {
		case UnitMicrosecond:
			dst[i] = int64(ts.ExtractMicrosecond())
		case UnitMillisecond:
			dst[i] = int64(ts.ExtractMillisecond())
		case UnitSecond:
			dst[i] = int64(ts.ExtractSecond())
		case UnitMinute:
			dst[i] = int64(ts.ExtractMinute())
		case UnitHour:
			dst[i] = int64(ts.ExtractHour())
		case UnitDay:
			dst[i] = int64(ts.ExtractDay())
		case UnitMonth:
			dst[i] = int64(ts.ExtractMonth())
		case UnitQuarter:
			dst[i] = int64(ts.ExtractQuarter())
		case UnitYear:
			dst[i] = int64(ts.ExtractYear())
		case UnitDOW:
			dst[i] = int64(ts.ExtractDOW())
		case UnitDOY:
			dst[i] = int64(ts.ExtractDOY())
		}
	}
	e.scratch.Column(0).ResetIsNull(skip, n)
	e.scratch.SetRowCount(n)
	return e.scratch.View(), nil
}
