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

package batch

import "github.com/supersonic-go/supersonic/sonictype"

// Column is a typed, contiguous buffer of up to Capacity values plus
// an optional per-row null bitmap. Exactly one of the typed slice
// fields below is populated, selected by Type; this is a closed
// tagged union chosen once per batch rather than a virtual dispatch
// per row (see the dispatch-table guidance the sort and eval kernels
// follow throughout this module).
type Column struct {
	Type sonictype.DataType

	Int32    []int32
	Int64    []int64
	Uint32   []uint32
	Uint64   []uint64
	Float32  []float32
	Float64  []float64
	Bool     []bool
	Date     []int32 // days since epoch
	Datetime []int64 // microseconds since epoch
	Str      []Ref   // STRING/BINARY descriptors into an Arena
	Enum     []uint32
	DataType []sonictype.DataType

	IsNull []bool // nil if the column carries no nulls at all
}

// NewColumn allocates a Column of the given type and capacity, with
// no null bitmap (callers that need one call EnsureNulls).
func NewColumn(t sonictype.DataType, capacity int) Column {
	c := Column{Type: t}
	switch t {
	case sonictype.INT32:
		c.Int32 = make([]int32, capacity)
	case sonictype.INT64:
		c.Int64 = make([]int64, capacity)
	case sonictype.UINT32:
		c.Uint32 = make([]uint32, capacity)
	case sonictype.UINT64:
		c.Uint64 = make([]uint64, capacity)
	case sonictype.FLOAT:
		c.Float32 = make([]float32, capacity)
	case sonictype.DOUBLE:
		c.Float64 = make([]float64, capacity)
	case sonictype.BOOL:
		c.Bool = make([]bool, capacity)
	case sonictype.DATE:
		c.Date = make([]int32, capacity)
	case sonictype.DATETIME:
		c.Datetime = make([]int64, capacity)
	case sonictype.STRING, sonictype.BINARY:
		c.Str = make([]Ref, capacity)
	case sonictype.ENUM:
		c.Enum = make([]uint32, capacity)
	case sonictype.DATA_TYPE:
		c.DataType = make([]sonictype.DataType, capacity)
	}
	return c
}

// Capacity returns the number of rows the column's backing buffer can hold.
func (c Column) Capacity() int {
	switch c.Type {
	case sonictype.INT32:
		return len(c.Int32)
	case sonictype.INT64:
		return len(c.Int64)
	case sonictype.UINT32:
		return len(c.Uint32)
	case sonictype.UINT64:
		return len(c.Uint64)
	case sonictype.FLOAT:
		return len(c.Float32)
	case sonictype.DOUBLE:
		return len(c.Float64)
	case sonictype.BOOL:
		return len(c.Bool)
	case sonictype.DATE:
		return len(c.Date)
	case sonictype.DATETIME:
		return len(c.Datetime)
	case sonictype.STRING, sonictype.BINARY:
		return len(c.Str)
	case sonictype.ENUM:
		return len(c.Enum)
	case sonictype.DATA_TYPE:
		return len(c.DataType)
	default:
		return 0
	}
}

// grow reallocates c's backing slice up to newCapacity, preserving
// existing contents.
func (c *Column) grow(newCapacity int) {
	switch c.Type {
	case sonictype.INT32:
		c.Int32 = growSlice(c.Int32, newCapacity)
	case sonictype.INT64:
		c.Int64 = growSlice(c.Int64, newCapacity)
	case sonictype.UINT32:
		c.Uint32 = growSlice(c.Uint32, newCapacity)
	case sonictype.UINT64:
		c.Uint64 = growSlice(c.Uint64, newCapacity)
	case sonictype.FLOAT:
		c.Float32 = growSlice(c.Float32, newCapacity)
	case sonictype.DOUBLE:
		c.Float64 = growSlice(c.Float64, newCapacity)
	case sonictype.BOOL:
		c.Bool = growSlice(c.Bool, newCapacity)
	case sonictype.DATE:
		c.Date = growSlice(c.Date, newCapacity)
	case sonictype.DATETIME:
		c.Datetime = growSlice(c.Datetime, newCapacity)
	case sonictype.STRING, sonictype.BINARY:
		c.Str = growSlice(c.Str, newCapacity)
	case sonictype.ENUM:
		c.Enum = growSlice(c.Enum, newCapacity)
	case sonictype.DATA_TYPE:
		c.DataType = growSlice(c.DataType, newCapacity)
	}
	if c.IsNull != nil {
		c.IsNull = growSlice(c.IsNull, newCapacity)
	}
}

// shrink truncates c's backing slice down to newCapacity. Callers
// must ensure no live row past newCapacity is still referenced.
func (c *Column) shrink(newCapacity int) {
	switch c.Type {
	case sonictype.INT32:
		c.Int32 = c.Int32[:newCapacity]
	case sonictype.INT64:
		c.Int64 = c.Int64[:newCapacity]
	case sonictype.UINT32:
		c.Uint32 = c.Uint32[:newCapacity]
	case sonictype.UINT64:
		c.Uint64 = c.Uint64[:newCapacity]
	case sonictype.FLOAT:
		c.Float32 = c.Float32[:newCapacity]
	case sonictype.DOUBLE:
		c.Float64 = c.Float64[:newCapacity]
	case sonictype.BOOL:
		c.Bool = c.Bool[:newCapacity]
	case sonictype.DATE:
		c.Date = c.Date[:newCapacity]
	case sonictype.DATETIME:
		c.Datetime = c.Datetime[:newCapacity]
	case sonictype.STRING, sonictype.BINARY:
		c.Str = c.Str[:newCapacity]
	case sonictype.ENUM:
		c.Enum = c.Enum[:newCapacity]
	case sonictype.DATA_TYPE:
		c.DataType = c.DataType[:newCapacity]
	}
	if len(c.IsNull) > newCapacity {
		c.IsNull = c.IsNull[:newCapacity]
	}
}

// growSlice returns x extended with zero-valued elements up to newCapacity.
func growSlice[T any](x []T, newCapacity int) []T {
	fresh := make([]T, newCapacity)
	copy(fresh, x)
	return fresh
}

// EnsureNulls lazily allocates the null bitmap up to n rows.
func (c *Column) EnsureNulls(n int) {
	if c.IsNull == nil || len(c.IsNull) < n {
		fresh := make([]bool, n)
		copy(fresh, c.IsNull)
		c.IsNull = fresh
	}
}

// ResetIsNull copies skip[:n] into the column's null bitmap; this
// implements the evaluator invariant that a skipped output row is
// marked null in the result.
func (c *Column) ResetIsNull(skip SkipVector, n int) {
	c.EnsureNulls(n)
	copy(c.IsNull, skip.bits[:n])
}

// Null reports whether row i is null.
func (c Column) Null(i int) bool {
	return c.IsNull != nil && i < len(c.IsNull) && c.IsNull[i]
}
