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
	"github.com/supersonic-go/supersonic/mem"
	"github.com/supersonic-go/supersonic/spillcodec"
)

// spillCursor replays one spill file, already sorted on write, as a
// Cursor. The whole file is decoded into one Block on the first call
// to Next (a spill holds one already-sorted batch, not a stream), and
// subsequent calls slice through it up to the requested row count.
// The underlying file is removed once the cursor reaches EOS.
type spillCursor struct {
	cursor.Interrupted
	id       string
	schema   batch.Schema
	capacity int
	alloc    mem.Allocator
	file     *fileRemover
	blk      *batch.Block
	loaded   bool
	offset   int
	closed   bool
}

func newSpillCursor(id string, schema batch.Schema, capacity int, alloc mem.Allocator, f *fileRemover) *spillCursor {
	return &spillCursor{id: id, schema: schema, capacity: capacity, alloc: alloc, file: f}
}

func (s *spillCursor) Schema() batch.Schema { return s.schema }

func (s *spillCursor) CursorID() string { return s.id }

func (s *spillCursor) ApplyToChildren(func(cursor.Cursor) cursor.Cursor) {}

// CurrentArenas satisfies arenaSource: the Block backing this cursor
// lives for the cursor's whole lifetime, so its arenas remain valid
// for every View this cursor has returned.
func (s *spillCursor) CurrentArenas() []*batch.Arena {
	arenas := make([]*batch.Arena, s.schema.Len())
	for i := range arenas {
		arenas[i] = s.blk.Arena(i)
	}
	return arenas
}

func (s *spillCursor) Next(ctx context.Context, max int) cursor.Result {
	if cursor.Cancelled(ctx, &s.Interrupted) {
		return cursor.ErrorResult(ctx.Err())
	}
	if !s.loaded {
		if _, err := s.file.Seek(0, 0); err != nil {
			return cursor.ErrorResult(err)
		}
		s.blk = batch.NewBlock(s.schema, s.capacity, s.alloc)
		if _, err := spillcodec.ReadView(s.file, s.schema, s.blk); err != nil {
			return cursor.ErrorResult(err)
		}
		s.loaded = true
	}
	if s.offset >= s.blk.RowCount() {
		if !s.closed {
			s.closed = true
			s.file.Close()
		}
		return cursor.EOSResult
	}
	n := s.blk.RowCount() - s.offset
	if n > max {
		n = max
	}
	part := cursor.SliceRows(s.blk.View(), s.offset, s.offset+n)
	s.offset += n
	return cursor.BatchResult(part)
}
