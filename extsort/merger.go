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

	"github.com/supersonic-go/supersonic/batch"
	"github.com/supersonic-go/supersonic/cursor"
	"github.com/supersonic-go/supersonic/internal/heap"
	"github.com/supersonic-go/supersonic/internal/slog"
	"github.com/supersonic-go/supersonic/mem"
	"github.com/supersonic-go/supersonic/sonicerr"
	"github.com/supersonic-go/supersonic/sortcore"
)

// Merger combines several already-sorted cursors into one, preserving
// the combined ordering implied by keys.
type Merger interface {
	Merge(schema batch.Schema, keys []sortcore.Key, children []cursor.Cursor, alloc mem.Allocator) cursor.Cursor
}

// arenaSource is implemented by cursors (such as spillCursor) that
// can resolve the arena backing the View they most recently returned;
// cursor.Result alone has no way to carry that, and a k-way merge
// needs it to compare and re-home STRING/BINARY keys across children.
type arenaSource interface {
	CurrentArenas() []*batch.Arena
}

// basicMerger implements Merger with a heap-based k-way merge, pulling
// one row at a time off whichever live child currently holds the
// smallest (or largest, for descending keys) head row.
type basicMerger struct{}

// NewBasicMerger returns the default Merger.
func NewBasicMerger() Merger { return &basicMerger{} }

func (*basicMerger) Merge(schema batch.Schema, keys []sortcore.Key, children []cursor.Cursor, alloc mem.Allocator) cursor.Cursor {
	return newMergeCursor(schema, keys, children, alloc)
}

// mergeCursor is a Cursor that lazily pulls batches from its children
// only as needed to keep its heap primed with one buffered row per
// live child.
type mergeCursor struct {
	cursor.Interrupted
	id       string
	schema   batch.Schema
	keys     []sortcore.Key
	alloc    mem.Allocator
	children []cursor.Cursor
	lanes    []*lane
	h        *heap.LaneHeap // live lane indices, heap-ordered by laneLess
	primed   bool
	err      error
}

// lane buffers one child's current batch and tracks the next unread row in it.
type lane struct {
	child  cursor.Cursor
	view   batch.View
	arenas []*batch.Arena
	pos    int
	eos    bool
}

func newMergeCursor(schema batch.Schema, keys []sortcore.Key, children []cursor.Cursor, alloc mem.Allocator) *mergeCursor {
	lanes := make([]*lane, len(children))
	for i, c := range children {
		lanes[i] = &lane{child: c}
	}
	if alloc == nil {
		alloc = mem.Root()
	}
	return &mergeCursor{id: "merge", schema: schema, keys: keys, alloc: alloc, children: children, lanes: lanes}
}

func (m *mergeCursor) Schema() batch.Schema { return m.schema }

func (m *mergeCursor) CursorID() string { return m.id }

func (m *mergeCursor) ApplyToChildren(fn func(cursor.Cursor) cursor.Cursor) {
	for i, c := range m.children {
		m.children[i] = fn(c)
		m.lanes[i].child = m.children[i]
	}
}

func (m *mergeCursor) IsWaitingOnBarrierSupported() bool {
	for _, c := range m.children {
		if cursor.IsWaitingOnBarrierSupported(c) {
			return true
		}
	}
	return false
}

// fill tops up lane i's buffer if it's empty and the lane isn't at EOS.
func (m *mergeCursor) fill(ctx context.Context, i int) error {
	ln := m.lanes[i]
	for !ln.eos && ln.pos >= ln.view.RowCount() {
		res := ln.child.Next(ctx, 1024)
		switch res.Kind {
		case cursor.EOS:
			ln.eos = true
		case cursor.Error:
			return res.Err
		case cursor.WaitingOnBarrier:
			slog.Printf("extsort: merge lane %d is waiting on a barrier", i)
			return sonicerr.NewNotImplemented("WAITING_ON_BARRIER inside merge")
		case cursor.Batch:
			ln.view = res.View
			ln.pos = 0
			if as, ok := ln.child.(arenaSource); ok {
				ln.arenas = as.CurrentArenas()
			} else {
				ln.arenas = nil
			}
		}
	}
	return nil
}

func (m *mergeCursor) prime(ctx context.Context) error {
	idx := make([]int, 0, len(m.lanes))
	for i := range m.lanes {
		if err := m.fill(ctx, i); err != nil {
			return err
		}
		if !m.lanes[i].eos {
			idx = append(idx, i)
		}
	}
	m.h = heap.NewLaneHeap(idx, m.laneLess)
	m.primed = true
	return nil
}

// laneLess orders two live lane indices by their buffered head row,
// according to m.keys.
func (m *mergeCursor) laneLess(a, b int) bool {
	la, lb := m.lanes[a], m.lanes[b]
	return lessRow(m.schema, m.keys, la.view, la.arenas, la.pos, lb.view, lb.arenas, lb.pos)
}

// Next pulls up to max rows in merged order into a fresh owned batch.
// STRING/BINARY values are re-homed into the output batch's own arena
// since successive rows may be drawn from lanes with distinct source
// arenas that don't outlive this call.
func (m *mergeCursor) Next(ctx context.Context, max int) cursor.Result {
	if cursor.Cancelled(ctx, &m.Interrupted) {
		return cursor.ErrorResult(ctx.Err())
	}
	if m.err != nil {
		return cursor.ErrorResult(m.err)
	}
	if !m.primed {
		if err := m.prime(ctx); err != nil {
			m.err = err
			return cursor.ErrorResult(err)
		}
	}
	if m.h.Len() == 0 {
		return cursor.EOSResult
	}

	out := batch.NewBlock(m.schema, max, m.alloc)
	n := 0
	for n < max && m.h.Len() > 0 {
		i := m.h.Top()
		ln := m.lanes[i]
		copyMergedRow(out, n, ln.view, ln.arenas, ln.pos)
		n++
		ln.pos++
		if err := m.fill(ctx, i); err != nil {
			m.err = err
			out.SetRowCount(n)
			return cursor.ErrorResult(err)
		}
		if ln.eos {
			m.h.Pop()
		} else {
			m.h.Fix()
		}
	}
	out.SetRowCount(n)
	return cursor.BatchResult(out.View())
}

// copyMergedRow writes row srcRow of v into out's dstRow, re-homing
// variable-length values through out's own arena.
func copyMergedRow(out *batch.Block, dstRow int, v batch.View, arenas []*batch.Arena, srcRow int) {
	for i := 0; i < v.Schema().Len(); i++ {
		src := v.Column(i)
		dst := out.Column(i)
		if src.IsNull != nil && src.IsNull[srcRow] {
			dst.EnsureNulls(dstRow + 1)
			dst.IsNull[dstRow] = true
		}
		if dst.Type.Fixed() {
			copyRow(dst, dstRow, src, srcRow)
			continue
		}
		var arena *batch.Arena
		if i < len(arenas) {
			arena = arenas[i]
		}
		ref, err := out.Arena(i).Put(arena.Bytes(src.Str[srcRow]))
		if err != nil {
			continue
		}
		dst.Str[dstRow] = ref
	}
}

// lessRow reports whether row rowA of va precedes row rowB of vb
// under keys, applied lexicographically.
func lessRow(schema batch.Schema, keys []sortcore.Key, va batch.View, arenasA []*batch.Arena, rowA int, vb batch.View, arenasB []*batch.Arena, rowB int) bool {
	for _, k := range keys {
		colA, colB := va.Column(k.Column), vb.Column(k.Column)
		var arenaA, arenaB *batch.Arena
		if k.Column < len(arenasA) {
			arenaA = arenasA[k.Column]
		}
		if k.Column < len(arenasB) {
			arenaB = arenasB[k.Column]
		}
		nullA := colA.IsNull != nil && colA.IsNull[rowA]
		nullB := colB.IsNull != nil && colB.IsNull[rowB]
		if nullA || nullB {
			if nullA == nullB {
				continue
			}
			nullsFirst := k.Direction == sortcore.Ascending
			if nullA {
				return nullsFirst
			}
			return !nullsFirst
		}
		c := sortcore.CrossComparator(schema.Attributes()[k.Column].Type)(colA, arenaA, rowA, colB, arenaB, rowB)
		if c == 0 {
			continue
		}
		if k.Direction == sortcore.Descending {
			c = -c
		}
		return c < 0
	}
	return false
}
