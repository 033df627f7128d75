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
	"testing"

	"github.com/supersonic-go/supersonic/batch"
	"github.com/supersonic-go/supersonic/mem"
	"github.com/supersonic-go/supersonic/sonictype"
)

func intView(t *testing.T, vals []int32) batch.View {
	t.Helper()
	schema, err := batch.NewSchema(batch.Attribute{Name: "k", Type: sonictype.INT32, Nullability: sonictype.NOT_NULLABLE})
	if err != nil {
		t.Fatalf("NewSchema: %v", err)
	}
	blk := batch.NewBlock(schema, len(vals), mem.Root())
	copy(blk.Column(0).Int32, vals)
	blk.SetRowCount(len(vals))
	return blk.View()
}

func TestFromSlicePaginatesAcrossViews(t *testing.T) {
	schema, err := batch.NewSchema(batch.Attribute{Name: "k", Type: sonictype.INT32, Nullability: sonictype.NOT_NULLABLE})
	if err != nil {
		t.Fatalf("NewSchema: %v", err)
	}
	views := []batch.View{intView(t, []int32{1, 2, 3}), intView(t, []int32{4, 5})}
	c := FromSlice(schema, "fixture", views)

	ctx := context.Background()
	var got []int32
	for {
		res := c.Next(ctx, 2)
		if res.Kind == EOS {
			break
		}
		if res.Kind != Batch {
			t.Fatalf("unexpected kind %v", res.Kind)
		}
		col := res.View.Column(0)
		for i := 0; i < res.View.RowCount(); i++ {
			got = append(got, col.Int32[i])
		}
	}
	want := []int32{1, 2, 3, 4, 5}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestSliceRowsMidRangeSharesStorage(t *testing.T) {
	v := intView(t, []int32{10, 20, 30, 40})
	part := SliceRows(v, 1, 3)
	if part.RowCount() != 2 {
		t.Fatalf("RowCount() = %d, want 2", part.RowCount())
	}
	col := part.Column(0)
	if col.Int32[0] != 20 || col.Int32[1] != 30 {
		t.Fatalf("got %v, want [20 30]", col.Int32[:2])
	}
	v.Column(0).Int32[2] = 99
	if col.Int32[1] != 99 {
		t.Fatalf("write to the source row did not show through the slice: got %d, want 99", col.Int32[1])
	}
}

func TestInterruptedStopsNext(t *testing.T) {
	var i Interrupted
	if i.IsInterrupted() {
		t.Fatalf("fresh Interrupted reported interrupted")
	}
	i.Interrupt()
	if !i.IsInterrupted() {
		t.Fatalf("Interrupt() did not set the flag")
	}
	if !Cancelled(context.Background(), &i) {
		t.Fatalf("Cancelled() should observe the interrupt flag")
	}

	v := intView(t, []int32{1, 2})
	c := FromSlice(v.Schema(), "fixture", []batch.View{v})
	c.Interrupt()
	if res := c.Next(context.Background(), 2); res.Kind != Error || res.Err == nil {
		t.Fatalf("Next after Interrupt() = (%v, %v), want an Error with a cause", res.Kind, res.Err)
	}
}

func TestCancelledObservesContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	if Cancelled(ctx, nil) {
		t.Fatalf("Cancelled() should be false before cancel")
	}
	cancel()
	if !Cancelled(ctx, nil) {
		t.Fatalf("Cancelled() should be true after cancel")
	}
}

type staticBarrier struct{ supported bool }

func (s staticBarrier) IsWaitingOnBarrierSupported() bool { return s.supported }

func TestIsWaitingOnBarrierSupported(t *testing.T) {
	schema, err := batch.NewSchema(batch.Attribute{Name: "k", Type: sonictype.INT32, Nullability: sonictype.NOT_NULLABLE})
	if err != nil {
		t.Fatalf("NewSchema: %v", err)
	}
	plain := FromSlice(schema, "plain", nil)
	if IsWaitingOnBarrierSupported(plain) {
		t.Fatalf("a plain Func cursor should not support barriers")
	}

	type barrierFunc struct {
		Cursor
		staticBarrier
	}
	bf := barrierFunc{Cursor: plain, staticBarrier: staticBarrier{supported: true}}
	if !IsWaitingOnBarrierSupported(bf) {
		t.Fatalf("expected barrier support to be detected")
	}
}
