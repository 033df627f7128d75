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

package cursor

import (
	"context"

	"github.com/supersonic-go/supersonic/batch"
)

// Func adapts a plain Next function into a Cursor with no children
// and no barrier support, for small one-off sources that don't
// warrant a dedicated type.
type Func struct {
	Interrupted
	id     string
	schema batch.Schema
	next   func(ctx context.Context, max int) Result
}

// NewFunc builds a Func cursor named id over schema, pulling from next.
func NewFunc(id string, schema batch.Schema, next func(ctx context.Context, max int) Result) *Func {
	return &Func{id: id, schema: schema, next: next}
}

func (f *Func) Schema() batch.Schema { return f.schema }

func (f *Func) Next(ctx context.Context, max int) Result {
	if Cancelled(ctx, &f.Interrupted) {
		return ErrorResult(ctx.Err())
	}
	return f.next(ctx, max)
}

func (f *Func) ApplyToChildren(func(Cursor) Cursor) {}

func (f *Func) CursorID() string { return f.id }

// FromSlice builds a Cursor that replays views in order, then
// reports EOS; a small fixed-data source for tests. Each call to
// Next returns at most max rows, drawn from (and advancing through)
// the current view before moving on to the next one.
func FromSlice(schema batch.Schema, id string, views []batch.View) Cursor {
	vi, offset := 0, 0
	return NewFunc(id, schema, func(ctx context.Context, max int) Result {
		for vi < len(views) && offset >= views[vi].RowCount() {
			vi++
			offset = 0
		}
		if vi >= len(views) {
			return EOSResult
		}
		v := views[vi]
		n := v.RowCount() - offset
		if n > max {
			n = max
		}
		part := SliceRows(v, offset, offset+n)
		offset += n
		return BatchResult(part)
	})
}

// SliceRows returns a View over v restricted to rows [from, to); View
// has no native row-range slice (only a from-zero Slice), so this
// builds one via a fresh column wrapper.
func SliceRows(v batch.View, from, to int) batch.View {
	if from == 0 {
		return v.Slice(to)
	}
	cols := make([]*batch.Column, v.Schema().Len())
	for i := 0; i < v.Schema().Len(); i++ {
		c := v.Column(i)
		sub := offsetColumn(c, from)
		cols[i] = &sub
	}
	return batch.NewView(v.Schema(), cols, to-from)
}

// offsetColumn returns a Column sharing storage with c but starting
// at row from; only the typed slice fields a Cursor-produced View
// might carry are handled.
func offsetColumn(c *batch.Column, from int) batch.Column {
	out := *c
	if c.IsNull != nil {
		out.IsNull = c.IsNull[from:]
	}
	out.Int32 = sliceOrNil(c.Int32, from)
	out.Int64 = sliceOrNil(c.Int64, from)
	out.Uint32 = sliceOrNil(c.Uint32, from)
	out.Uint64 = sliceOrNil(c.Uint64, from)
	out.Float32 = sliceOrNil(c.Float32, from)
	out.Float64 = sliceOrNil(c.Float64, from)
	out.Bool = sliceOrNil(c.Bool, from)
	out.Date = sliceOrNil(c.Date, from)
	out.Datetime = sliceOrNil(c.Datetime, from)
	out.Str = sliceOrNil(c.Str, from)
	out.Enum = sliceOrNil(c.Enum, from)
	out.DataType = sliceOrNil(c.DataType, from)
	return out
}

func sliceOrNil[T any](s []T, from int) []T {
	if s == nil {
		return nil
	}
	return s[from:]
}
