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

import "github.com/supersonic-go/supersonic/mem"

// Block owns column storage sized for a declared capacity; backing
// memory for fixed-width columns comes from make() (accounted to
// alloc at construction time), and variable-length STRING/BINARY
// columns are backed by a per-column Arena obtained from the same
// allocator.
type Block struct {
	schema       Schema
	alloc        mem.Allocator
	capacity     int
	baseCapacity int // capacity at construction time, the floor Compact restores
	columns      []Column
	arenas       []*Arena // nil for fixed-width columns
	rowCount     int
}

// NewBlock allocates a Block with room for `capacity` rows of each
// attribute in schema.
func NewBlock(schema Schema, capacity int, alloc mem.Allocator) *Block {
	cols := make([]Column, schema.Len())
	arenas := make([]*Arena, schema.Len())
	for i, a := range schema.Attributes() {
		cols[i] = NewColumn(a.Type, capacity)
		if !a.Type.Fixed() {
			arenas[i] = NewArena(alloc)
		}
		if a.Type.Fixed() {
			alloc.Allocate(int64(capacity * a.Type.Size()))
		}
	}
	return &Block{schema: schema, alloc: alloc, capacity: capacity, baseCapacity: capacity, columns: cols, arenas: arenas}
}

func (b *Block) Schema() Schema { return b.schema }

func (b *Block) Capacity() int { return b.capacity }

func (b *Block) RowCount() int { return b.rowCount }

func (b *Block) SetRowCount(n int) { b.rowCount = n }

// Column returns a pointer to the i'th column's storage.
func (b *Block) Column(i int) *Column { return &b.columns[i] }

// Arena returns the variable-length arena backing column i, or nil
// if that column is fixed-width.
func (b *Block) Arena(i int) *Arena { return b.arenas[i] }

// View returns a View over the block's current row count.
func (b *Block) View() View {
	cols := make([]*Column, len(b.columns))
	for i := range b.columns {
		cols[i] = &b.columns[i]
	}
	return NewView(b.schema, cols, b.rowCount)
}

// ResetArenas wipes all variable-length storage without
// reallocating the block's fixed-width columns.
func (b *Block) ResetArenas() {
	for _, a := range b.arenas {
		if a != nil {
			a.Reset()
		}
	}
}

// Clear resets the block to zero rows, ready for new writes; arenas
// are reset along with it, and every column's null bitmap is dropped
// so a stale flag from a row index that's about to be reused can't
// leak into the next write.
func (b *Block) Clear() {
	b.rowCount = 0
	b.ResetArenas()
	for i := range b.columns {
		b.columns[i].IsNull = nil
	}
}

// Grow extends every column's row-slot storage to hold at least
// newCapacity rows, accounting the additional bytes of fixed-width
// columns to alloc (a STRING/BINARY column's Ref slots are unaccounted
// row-slot overhead, same as at construction time — the bytes they
// describe live in the column's Arena instead). It returns false,
// leaving the block unchanged, if alloc's quota can't cover the
// fixed-width increase.
func (b *Block) Grow(newCapacity int) bool {
	if newCapacity <= b.capacity {
		return true
	}
	var need int64
	for _, a := range b.schema.Attributes() {
		if a.Type.Fixed() {
			need += int64(newCapacity-b.capacity) * int64(a.Type.Size())
		}
	}
	if !b.alloc.Allocate(need) {
		return false
	}
	for i := range b.columns {
		b.columns[i].grow(newCapacity)
	}
	b.capacity = newCapacity
	return true
}

// Compact drops any growth past the block's original capacity,
// releasing the fixed-width bytes it accounted for back to alloc, and
// resets every arena. Only sound on an empty block: shrinking a
// column truncates rows past baseCapacity, so callers must Clear
// first.
func (b *Block) Compact() {
	b.ResetArenas()
	if b.capacity <= b.baseCapacity {
		return
	}
	var released int64
	for i, a := range b.schema.Attributes() {
		if a.Type.Fixed() {
			released += int64(b.capacity-b.baseCapacity) * int64(a.Type.Size())
		}
		b.columns[i].shrink(b.baseCapacity)
	}
	b.alloc.Free(released)
	b.capacity = b.baseCapacity
}
