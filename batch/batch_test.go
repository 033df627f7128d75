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

import (
	"testing"

	"github.com/supersonic-go/supersonic/mem"
	"github.com/supersonic-go/supersonic/sonictype"
)

func testSchema(t *testing.T) Schema {
	t.Helper()
	s, err := NewSchema(
		Attribute{Name: "id", Type: sonictype.INT64, Nullability: sonictype.NOT_NULLABLE},
		Attribute{Name: "name", Type: sonictype.STRING, Nullability: sonictype.NULLABLE},
	)
	if err != nil {
		t.Fatalf("NewSchema: %v", err)
	}
	return s
}

func TestSchemaIndexOfAndProject(t *testing.T) {
	s := testSchema(t)
	if got := s.IndexOf("name"); got != 1 {
		t.Fatalf("IndexOf(name) = %d, want 1", got)
	}
	if got := s.IndexOf("missing"); got != -1 {
		t.Fatalf("IndexOf(missing) = %d, want -1", got)
	}
	proj := s.Project([]int{1})
	if proj.Len() != 1 || proj.Attribute(0).Name != "name" {
		t.Fatalf("Project gave %v", proj)
	}
}

func TestSchemaRejectsDuplicateNames(t *testing.T) {
	_, err := NewSchema(
		Attribute{Name: "a", Type: sonictype.INT32},
		Attribute{Name: "a", Type: sonictype.INT32},
	)
	if err == nil {
		t.Fatalf("expected an error for duplicate attribute names")
	}
}

func TestSchemaAppend(t *testing.T) {
	s := testSchema(t)
	bigger, err := s.Append(Attribute{Name: "score", Type: sonictype.DOUBLE})
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if bigger.Len() != 3 || bigger.Attribute(2).Name != "score" {
		t.Fatalf("Append gave %v", bigger)
	}
	if s.Len() != 2 {
		t.Fatalf("Append mutated the receiver: %v", s)
	}
}

func TestBlockGrowAndRoundTripStrings(t *testing.T) {
	s := testSchema(t)
	blk := NewBlock(s, 4, mem.Root())

	blk.Column(0).Int64[0] = 42
	arena := blk.Arena(1)
	ref, err := arena.Put([]byte("hello"))
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	blk.Column(1).Str[0] = ref
	blk.SetRowCount(1)

	if !blk.Grow(8) {
		t.Fatalf("Grow(8) failed on an unbounded allocator")
	}
	v := blk.View()
	if v.RowCount() != 1 {
		t.Fatalf("RowCount() = %d, want 1", v.RowCount())
	}
	if v.Column(0).Int64[0] != 42 {
		t.Fatalf("Int64[0] = %d, want 42", v.Column(0).Int64[0])
	}
	if got := string(arena.Bytes(v.Column(1).Str[0])); got != "hello" {
		t.Fatalf("Bytes() = %q, want %q", got, "hello")
	}
}

func TestArenaGrowsAcrossChunks(t *testing.T) {
	a := NewArena(mem.Root())
	var refs []Ref
	payload := make([]byte, 4096)
	for i := range payload {
		payload[i] = byte(i)
	}
	for i := 0; i < 64; i++ {
		ref, err := a.Put(payload)
		if err != nil {
			t.Fatalf("Put: %v", err)
		}
		refs = append(refs, ref)
	}
	for i, ref := range refs {
		got := a.Bytes(ref)
		if len(got) != len(payload) {
			t.Fatalf("ref %d: len = %d, want %d", i, len(got), len(payload))
		}
		for j, b := range got {
			if b != payload[j] {
				t.Fatalf("ref %d: byte %d mismatch", i, j)
			}
		}
	}
}

func TestColumnEnsureNullsAndNull(t *testing.T) {
	c := NewColumn(sonictype.INT32, 4)
	if c.Null(0) {
		t.Fatalf("fresh column reported a null with no bitmap")
	}
	c.EnsureNulls(4)
	c.IsNull[2] = true
	if !c.Null(2) || c.Null(1) {
		t.Fatalf("Null() mismatched the bitmap: %v", c.IsNull)
	}
}

func TestViewSliceAndProject(t *testing.T) {
	s := testSchema(t)
	blk := NewBlock(s, 3, mem.Root())
	copy(blk.Column(0).Int64, []int64{1, 2, 3})
	blk.SetRowCount(3)
	v := blk.View()

	sliced := v.Slice(2)
	if sliced.RowCount() != 2 {
		t.Fatalf("Slice(2).RowCount() = %d, want 2", sliced.RowCount())
	}
	proj := v.Project([]int{0})
	if proj.Schema().Len() != 1 || proj.Column(0).Int64[1] != 2 {
		t.Fatalf("Project gave unexpected view: %+v", proj)
	}
}
