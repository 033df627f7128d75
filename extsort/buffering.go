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

package extsort

import (
	"context"
	"fmt"

	"github.com/supersonic-go/supersonic/batch"
	"github.com/supersonic-go/supersonic/cursor"
	"github.com/supersonic-go/supersonic/internal/slog"
	"github.com/supersonic-go/supersonic/mem"
	"github.com/supersonic-go/supersonic/sonicerr"
	"github.com/supersonic-go/supersonic/sortcore"
)

const initialTableCapacity = 1024

// BufferingSorter holds an in-memory growable table and only spills a
// run once that table's materialization allocator can no longer
// afford to grow its backing block. The hard quota is deliberately
// half the nominal memory_quota so growing the block never itself
// exceeds it, and a softQuotaBypass allowance of memory_quota/4 lets
// the table grow a little past its parent's soft quota before that
// happens. Once a flush can't make room even on a freshly cleared
// table, Write fails with ERROR_MEMORY_EXCEEDED.
type BufferingSorter struct {
	schema   batch.Schema
	keys     []sortcore.Key
	mater    mem.Allocator
	spillDir string
	table    *batch.Block
	rowCount int
	overflow *UnbufferedSorter // lazily created on the first flush; accumulates every later flush's run
	final    bool
}

// NewBufferingSorter constructs a sorter that buffers in memory
// against a nested allocator derived from parent with the given
// nominal quota, falling back to spill files under spillDir once that
// budget is exhausted.
func NewBufferingSorter(schema batch.Schema, keys []sortcore.Key, parent mem.Allocator, quota int64, spillDir string) *BufferingSorter {
	bypass := mem.NewSoftQuotaBypassingAllocator(parent, quota/4)
	mater := mem.NewMemoryLimit(bypass, quota/2, false)
	return &BufferingSorter{
		schema:   schema,
		keys:     keys,
		mater:    mater,
		spillDir: spillDir,
		table:    batch.NewBlock(schema, initialTableCapacity, mater),
	}
}

// Write appends v to the in-memory table, growing it as needed. If
// the table can't grow enough to hold the next row, it flushes: the
// current table is sorted and handed to the spilling UnbufferedSorter
// as a run, then cleared (and compacted back to its original capacity
// if the materialization allocator still has no room) so buffering
// can resume against s.mater. Only if that retry also can't make room
// on an empty table does Write fail with ERROR_MEMORY_EXCEEDED.
func (s *BufferingSorter) Write(v batch.View, arenas []*batch.Arena) (int, error) {
	if s.final {
		return 0, fmt.Errorf("extsort: Write called after GetResultCursor")
	}
	n := v.RowCount()
	written := 0
	for written < n {
		remaining := n - written
		for s.rowCount+remaining > s.table.Capacity() {
			if !s.grow() {
				break
			}
		}
		room := s.table.Capacity() - s.rowCount
		if room <= 0 {
			if err := s.flush(); err != nil {
				return written, err
			}
			room = s.table.Capacity() - s.rowCount
			if room <= 0 {
				return written, sonicerr.NewMemoryError("buffering sorter cannot materialize even an empty %d-row table", s.table.Capacity())
			}
		}
		chunk := remaining
		if chunk > room {
			chunk = room
		}
		for i := 0; i < chunk; i++ {
			copyMergedRow(s.table, s.rowCount, v, arenas, written+i)
			s.rowCount++
		}
		s.table.SetRowCount(s.rowCount)
		written += chunk
	}
	return written, nil
}

// grow doubles the table's capacity if the materialization allocator
// can afford the additional fixed-width bytes; it reports false
// (without mutating s.table) if it can't.
func (s *BufferingSorter) grow() bool {
	newCap := s.table.Capacity() * 2
	if newCap == 0 {
		newCap = initialTableCapacity
	}
	return s.table.Grow(newCap)
}

func (s *BufferingSorter) tableArenas() []*batch.Arena {
	arenas := make([]*batch.Arena, s.schema.Len())
	for i := range arenas {
		arenas[i] = s.table.Arena(i)
	}
	return arenas
}

// flush hands the current table to the spilling UnbufferedSorter
// (creating it on first use) as a run — UnbufferedSorter.Write does
// its own sort, so the table doesn't need sorting here — then clears
// the table so buffering can resume. If the materialization allocator
// still reports no headroom afterward, the table is compacted back to
// its original capacity to give the next grow() attempt a chance.
func (s *BufferingSorter) flush() error {
	if s.rowCount > 0 {
		slog.Printf("extsort: buffering sorter flushing %d rows to a spill run", s.rowCount)
		if s.overflow == nil {
			s.overflow = NewUnbufferedSorter(s.schema, s.keys, s.spillDir, mem.Root())
		}
		if _, err := s.overflow.Write(s.table.View(), s.tableArenas()); err != nil {
			return err
		}
	}
	s.table.Clear()
	s.rowCount = 0
	if s.mater.Available() <= 0 {
		s.table.Compact()
	}
	return nil
}

// GetResultCursor returns the buffered rows in sorted order, merged
// with any spilled runs a flush produced along the way. If nothing
// was ever flushed, the sorted table alone is the result; if the
// final table is empty, the spilled runs' own merge cursor is the
// result with no extra merge layer on top.
func (s *BufferingSorter) GetResultCursor() (cursor.Cursor, error) {
	s.final = true
	view := s.table.View()
	arenas := s.tableArenas()
	perm := batch.NewPermutation(view.RowCount())
	sortcore.Sort(perm, view, arenas, s.keys)
	sorted := reorderView(view, perm)
	residual := &bufferedResultCursor{id: "buffered", schema: s.schema, view: sorted, arenas: arenas}

	if s.overflow == nil {
		return residual, nil
	}
	spilled, err := s.overflow.GetResultCursor()
	if err != nil {
		return nil, err
	}
	if view.RowCount() == 0 {
		return spilled, nil
	}
	return NewBasicMerger().Merge(s.schema, s.keys, []cursor.Cursor{spilled, residual}, s.mater), nil
}

// bufferedResultCursor replays an already-sorted, fully in-memory
// View, for the common case where everything fit in the table and no
// spill/merge was ever needed.
type bufferedResultCursor struct {
	cursor.Interrupted
	id     string
	schema batch.Schema
	view   batch.View
	arenas []*batch.Arena
	offset int
}

func (c *bufferedResultCursor) Schema() batch.Schema { return c.schema }

func (c *bufferedResultCursor) CursorID() string { return c.id }

func (c *bufferedResultCursor) ApplyToChildren(func(cursor.Cursor) cursor.Cursor) {}

// CurrentArenas satisfies arenaSource.
func (c *bufferedResultCursor) CurrentArenas() []*batch.Arena { return c.arenas }

func (c *bufferedResultCursor) Next(ctx context.Context, max int) cursor.Result {
	if cursor.Cancelled(ctx, &c.Interrupted) {
		return cursor.ErrorResult(ctx.Err())
	}
	if c.offset >= c.view.RowCount() {
		return cursor.EOSResult
	}
	n := c.view.RowCount() - c.offset
	if n > max {
		n = max
	}
	part := cursor.SliceRows(c.view, c.offset, c.offset+n)
	c.offset += n
	return cursor.BatchResult(part)
}
