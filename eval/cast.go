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
	"strconv"

	"github.com/supersonic-go/supersonic/batch"
	"github.com/supersonic-go/supersonic/mem"
	"github.com/supersonic-go/supersonic/sonictype"
)

// castFn converts one row's worth of source data (already unwrapped
// from its Column by the caller) into the destination representation.
// ok=false means "produced NULL", matching the NULLING failure policy
// that CAST always uses; there is no signaling CAST in the kernel set.
type castFn func(col *batch.Column, arena *batch.Arena, i int, dst *batch.Column, dstArena *batch.Arena, j int) (ok bool)

// BoundCast converts a child expression's column to a new type.
// Numeric and BOOL conversions follow Go's conversion rules: a value
// out of the target's range is not detected, is not turned into
// NULL, and raises no error. STRING sources are rejected by
// castFnFor, so nothing is parsed here.
type BoundCast struct {
	child   BoundExpression
	schema  batch.Schema
	scratch *batch.Block
	fn      castFn
	arena   func(BoundExpression) *batch.Arena
}

// NewBoundCast builds a CAST(child AS t) kernel. The child's arena is
// looked up only when srcType is STRING/BINARY.
func NewBoundCast(child BoundExpression, t sonictype.DataType, srcType sonictype.DataType, maxRows int, alloc mem.Allocator) (*BoundCast, error) {
	fn, err := castFnFor(srcType, t)
	if err != nil {
		return nil, err
	}
	schema := batch.MustSchema(batch.Attribute{Name: "$cast", Type: t, Nullability: sonictype.NULLABLE})
	var arenaFn func(BoundExpression) *batch.Arena
	if srcType == sonictype.STRING || srcType == sonictype.BINARY {
		arenaFn = func(e BoundExpression) *batch.Arena { return asArenaSource(e).ResultArena() }
	}
	return &BoundCast{
		child: child, schema: schema,
		scratch: batch.NewBlock(schema, maxRows, alloc),
		fn:      fn,
		arena:   arenaFn,
	}, nil
}

func (c *BoundCast) ResultSchema() batch.Schema { return c.schema }
func (c *BoundCast) ResultArena() *batch.Arena {
	if c.schema.Attribute(0).Type == sonictype.STRING || c.schema.Attribute(0).Type == sonictype.BINARY {
		return c.scratch.Arena(0)
	}
	return nil
}
func (c *BoundCast) RowCapacity() uint64 {
	cap := uint64(c.scratch.Capacity())
	if cc := c.child.RowCapacity(); cc < cap {
		cap = cc
	}
	return cap
}
func (c *BoundCast) CollectReferredAttributeNames(names map[string]struct{}) {
	c.child.CollectReferredAttributeNames(names)
}

func (c *BoundCast) DoEvaluate(input batch.View, skip batch.SkipVector) (batch.View, error) {
	n := input.RowCount()
	cv, err := c.child.DoEvaluate(input, skip)
	if err != nil {
		return batch.View{}, err
	}
	ccol := cv.Column(0)
	c.scratch.ResetArenas()
	dst := c.scratch.Column(0)
	var arena *batch.Arena
	if c.arena != nil {
		arena = c.arena(c.child)
	}
	for i := 0; i < n; i++ {
		if skip.Get(i) {
			continue
		}
		if ccol.Null(i) {
			skip.Set(i, true)
			continue
		}
		if !c.fn(ccol, arena, i, dst, c.scratch.Arena(0), i) {
			skip.Set(i, true)
		}
	}
	dst.ResetIsNull(skip, n)
	c.scratch.SetRowCount(n)
	return c.scratch.View(), nil
}

func castFnFor(src, dst sonictype.DataType) (castFn, error) {
	if src == dst {
		return castIdentity(src), nil
	}
	switch {
	case numericOrBool(src) && dst == sonictype.STRING:
		return castNumericToString(src), nil
	case numericOrBool(src) && numericOrBool(dst):
		return castNumericToNumeric(src, dst), nil
	}
	return nil, &kernelError{"cast: unsupported conversion " + src.String() + " -> " + dst.String()}
}

func numericOrBool(t sonictype.DataType) bool {
	return t.Numeric() || t == sonictype.BOOL
}

func castIdentity(t sonictype.DataType) castFn {
	return func(col *batch.Column, arena *batch.Arena, i int, dst *batch.Column, dstArena *batch.Arena, j int) bool {
		copyScalar(col, i, dst, j, t)
		return true
	}
}

func copyScalar(src *batch.Column, i int, dst *batch.Column, j int, t sonictype.DataType) {
	switch t {
	case sonictype.INT32:
		dst.Int32[j] = src.Int32[i]
	case sonictype.INT64:
		dst.Int64[j] = src.Int64[i]
	case sonictype.UINT32:
		dst.Uint32[j] = src.Uint32[i]
	case sonictype.UINT64:
		dst.Uint64[j] = src.Uint64[i]
	case sonictype.FLOAT:
		dst.Float32[j] = src.Float32[i]
	case sonictype.DOUBLE:
		dst.Float64[j] = src.Float64[i]
	case sonictype.BOOL:
		dst.Bool[j] = src.Bool[i]
	}
}

// numAsFloat64/numAsInt64 read a numeric column's value widened to a
// common representation for cross-type conversion.
func numAsFloat64(col *batch.Column, i int, t sonictype.DataType) float64 {
	switch t {
	case sonictype.INT32:
		return float64(col.Int32[i])
	case sonictype.INT64:
		return float64(col.Int64[i])
	case sonictype.UINT32:
		return float64(col.Uint32[i])
	case sonictype.UINT64:
		return float64(col.Uint64[i])
	case sonictype.FLOAT:
		return float64(col.Float32[i])
	case sonictype.DOUBLE:
		return col.Float64[i]
	case sonictype.BOOL:
		if col.Bool[i] {
			return 1
		}
		return 0
	}
	return 0
}

func writeFloat64As(v float64, dst *batch.Column, j int, t sonictype.DataType) {
	switch t {
	case sonictype.INT32:
		dst.Int32[j] = int32(v)
	case sonictype.INT64:
		dst.Int64[j] = int64(v)
	case sonictype.UINT32:
		dst.Uint32[j] = uint32(v)
	case sonictype.UINT64:
		dst.Uint64[j] = uint64(v)
	case sonictype.FLOAT:
		dst.Float32[j] = float32(v)
	case sonictype.DOUBLE:
		dst.Float64[j] = v
	case sonictype.BOOL:
		dst.Bool[j] = v != 0
	}
}

func castNumericToNumeric(src, dst sonictype.DataType) castFn {
	return func(col *batch.Column, arena *batch.Arena, i int, out *batch.Column, dstArena *batch.Arena, j int) bool {
		writeFloat64As(numAsFloat64(col, i, src), out, j, dst)
		return true
	}
}

// castNumericToString formats with base-10 textual representation;
// floats use the shortest round-trippable form.
func castNumericToString(src sonictype.DataType) castFn {
	return func(col *batch.Column, arena *batch.Arena, i int, out *batch.Column, dstArena *batch.Arena, j int) bool {
		var s string
		switch src {
		case sonictype.INT32:
			s = strconv.FormatInt(int64(col.Int32[i]), 10)
		case sonictype.INT64:
			s = strconv.FormatInt(col.Int64[i], 10)
		case sonictype.UINT32:
			s = strconv.FormatUint(uint64(col.Uint32[i]), 10)
		case sonictype.UINT64:
			s = strconv.FormatUint(col.Uint64[i], 10)
		case sonictype.FLOAT:
			s = strconv.FormatFloat(float64(col.Float32[i]), 'g', -1, 32)
		case sonictype.DOUBLE:
			s = strconv.FormatFloat(col.Float64[i], 'g', -1, 64)
		case sonictype.BOOL:
			s = strconv.FormatBool(col.Bool[i])
		}
		ref, err := dstArena.Put([]byte(s))
		if err != nil {
			return false
		}
		out.Str[j] = ref
		return true
	}
}

// castStringToNumeric parses the whole string; any trailing garbage
// or parse failure produces NULL (the NULLING policy CAST always
// uses), matching strconv's strict parse semantics.
func castStringToNumeric(dst sonictype.DataType) castFn {
	return func(col *batch.Column, arena *batch.Arena, i int, out *batch.Column, dstArena *batch.Arena, j int) bool {
		s := string(arena.Bytes(col.Str[i]))
		switch dst {
		case sonictype.BOOL:
			v, err := strconv.ParseBool(s)
			if err != nil {
				return false
			}
			out.Bool[j] = v
		case sonictype.INT32:
			v, err := strconv.ParseInt(s, 10, 32)
			if err != nil {
				return false
			}
			out.Int32[j] = int32(v)
		case sonictype.INT64:
			v, err := strconv.ParseInt(s, 10, 64)
			if err != nil {
				return false
			}
			out.Int64[j] = v
		case sonictype.UINT32:
			v, err := strconv.ParseUint(s, 10, 32)
			if err != nil {
				return false
			}
			out.Uint32[j] = uint32(v)
		case sonictype.UINT64:
			v, err := strconv.ParseUint(s, 10, 64)
			if err != nil {
				return false
			}
			out.Uint64[j] = v
		case sonictype.FLOAT:
			v, err := strconv.ParseFloat(s, 32)
			if err != nil {
				return false
			}
			out.Float32[j] = float32(v)
		case sonictype.DOUBLE:
			v, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return false
			}
			out.Float64[j] = v
		default:
			return false
		}
		return true
	}
}
