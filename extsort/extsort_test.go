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
	"testing"

	"github.com/supersonic-go/supersonic/batch"
	"github.com/supersonic-go/supersonic/cursor"
	"github.com/supersonic-go/supersonic/mem"
	"github.com/supersonic-go/supersonic/sonictype"
	"github.com/supersonic-go/supersonic/sortcore"
)

func intSchema(t *testing.T, names ...string) batch.Schema {
	t.Helper()
	attrs := make([]batch.Attribute, len(names))
	for i, n := range names {
		attrs[i] = batch.Attribute{Name: n, Type: sonictype.INT32, Nullability: sonictype.NOT_NULLABLE}
	}
	schema, err := batch.NewSchema(attrs...)
	if err != nil {
		t.Fatalf("NewSchema: %v", err)
	}
	return schema
}

func blockOf(t *testing.T, schema batch.Schema, col []int32) (batch.View, []*batch.Arena) {
	t.Helper()
	blk := batch.NewBlock(schema, len(col), mem.Root())
	copy(blk.Column(0).Int32, col)
	blk.SetRowCount(len(col))
	return blk.View(), []*batch.Arena{blk.Arena(0)}
}

func drainInts(t *testing.T, c cursor.Cursor) []int32 {
	t.Helper()
	var out []int32
	ctx := context.Background()
	for {
		res := c.Next(ctx, 4)
		switch res.Kind {
		case cursor.EOS:
			return out
		case cursor.Error:
			t.Fatalf("cursor error: %v", res.Err)
		case cursor.Batch:
			col := res.View.Column(0)
			for i := 0; i < res.View.RowCount(); i++ {
				out = append(out, col.Int32[i])
			}
		default:
			t.Fatalf("unexpected result kind %v", res.Kind)
		}
	}
}

func TestUnbufferedSorterSpillsAndMerges(t *testing.T) {
	schema := intSchema(t, "k")
	keys := []sortcore.Key{{Column: 0, Direction: sortcore.Ascending}}
	dir := t.TempDir()
	s := NewUnbufferedSorter(schema, keys, dir, mem.Root())

	for _, chunk := range [][]int32{{5, 3, 1}, {4, 2}, {9, 0}} {
		v, arenas := blockOf(t, schema, chunk)
		if _, err := s.Write(v, arenas); err != nil {
			t.Fatalf("Write: %v", err)
		}
	}

	c, err := s.GetResultCursor()
	if err != nil {
		t.Fatalf("GetResultCursor: %v", err)
	}
	got := drainInts(t, c)
	want := []int32{0, 1, 2, 3, 4, 5, 9}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestUnbufferedSorterRejectsWriteAfterFinalize(t *testing.T) {
	schema := intSchema(t, "k")
	keys := []sortcore.Key{{Column: 0, Direction: sortcore.Ascending}}
	s := NewUnbufferedSorter(schema, keys, t.TempDir(), mem.Root())
	v, arenas := blockOf(t, schema, []int32{1})
	if _, err := s.Write(v, arenas); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if _, err := s.GetResultCursor(); err != nil {
		t.Fatalf("GetResultCursor: %v", err)
	}
	if _, err := s.Write(v, arenas); err == nil {
		t.Fatalf("expected an error writing after finalize")
	}
}

func TestBufferingSorterStaysInMemoryForSmallInput(t *testing.T) {
	schema := intSchema(t, "k")
	keys := []sortcore.Key{{Column: 0, Direction: sortcore.Descending}}
	s := NewBufferingSorter(schema, keys, mem.Root(), 1<<20, t.TempDir())

	v, arenas := blockOf(t, schema, []int32{1, 3, 2})
	if _, err := s.Write(v, arenas); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if s.overflow != nil {
		t.Fatalf("expected no spill for a small input")
	}

	c, err := s.GetResultCursor()
	if err != nil {
		t.Fatalf("GetResultCursor: %v", err)
	}
	got := drainInts(t, c)
	want := []int32{3, 2, 1}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestBufferingSorterFlushesAndResumesBuffering(t *testing.T) {
	schema := intSchema(t, "k")
	keys := []sortcore.Key{{Column: 0, Direction: sortcore.Ascending}}
	// A tiny quota forces grow() to fail on the very first table
	// doubling, exercising the flush-clear-retry path: the full table
	// spills as a run, and the next write resumes buffering against
	// the same (now empty) table instead of routing to the spiller
	// forever.
	s := NewBufferingSorter(schema, keys, mem.Root(), 64, t.TempDir())

	v1, a1 := blockOf(t, schema, make([]int32, initialTableCapacity+1))
	if _, err := s.Write(v1, a1); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if s.overflow == nil {
		t.Fatalf("expected the tiny quota to force a spill")
	}
	v2, a2 := blockOf(t, schema, []int32{-5})
	if _, err := s.Write(v2, a2); err != nil {
		t.Fatalf("Write after flush: %v", err)
	}

	c, err := s.GetResultCursor()
	if err != nil {
		t.Fatalf("GetResultCursor: %v", err)
	}
	got := drainInts(t, c)
	if len(got) != initialTableCapacity+2 {
		t.Fatalf("got %d rows, want %d", len(got), initialTableCapacity+2)
	}
	if got[0] != -5 {
		t.Fatalf("expected the negative row to sort first, got %v", got[:3])
	}
}

func TestExtendedSortDetectsDuplicateKeys(t *testing.T) {
	schema := intSchema(t, "a", "b")
	keys := []ExtendedKey{
		{Column: 0, Direction: sortcore.Ascending},
		{Column: 0, Direction: sortcore.Descending},
	}
	newInner := func(s batch.Schema, k []sortcore.Key) Sorter {
		return NewUnbufferedSorter(s, k, t.TempDir(), mem.Root())
	}
	_, err := NewExtendedSort(schema, keys, newInner, 16, mem.Root(), -1)
	if err == nil {
		t.Fatalf("expected an error for a duplicate sort key")
	}
}

func TestExtendedSortAppliesLimit(t *testing.T) {
	schema := intSchema(t, "k")
	keys := []ExtendedKey{{Column: 0, Direction: sortcore.Ascending}}
	newInner := func(s batch.Schema, k []sortcore.Key) Sorter {
		return NewUnbufferedSorter(s, k, t.TempDir(), mem.Root())
	}
	s, err := NewExtendedSort(schema, keys, newInner, 16, mem.Root(), 2)
	if err != nil {
		t.Fatalf("NewExtendedSort: %v", err)
	}
	v, arenas := blockOf(t, schema, []int32{5, 1, 4, 2, 3})
	if _, err := s.Write(v, arenas); err != nil {
		t.Fatalf("Write: %v", err)
	}
	c, err := s.GetResultCursor()
	if err != nil {
		t.Fatalf("GetResultCursor: %v", err)
	}
	got := drainInts(t, c)
	want := []int32{1, 2}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("got %v, want %v", got, want)
	}
}
