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

package sortcore

import (
	"testing"

	"github.com/supersonic-go/supersonic/batch"
	"github.com/supersonic-go/supersonic/mem"
	"github.com/supersonic-go/supersonic/sonictype"
)

func buildBlock(t *testing.T, nullable bool, values []int32, nulls []bool) (batch.View, []*batch.Arena) {
	t.Helper()
	schema, err := batch.NewSchema(batch.Attribute{
		Name: "k", Type: sonictype.INT32, Nullability: nullability(nullable),
	})
	if err != nil {
		t.Fatalf("NewSchema: %v", err)
	}
	blk := batch.NewBlock(schema, len(values), mem.Root())
	col := blk.Column(0)
	copy(col.Int32, values)
	if nulls != nil {
		col.EnsureNulls(len(values))
		copy(col.IsNull, nulls)
	}
	blk.SetRowCount(len(values))
	v := blk.View()
	return v, []*batch.Arena{blk.Arena(0)}
}

func nullability(nullable bool) sonictype.Nullability {
	if nullable {
		return sonictype.NULLABLE
	}
	return sonictype.NOT_NULLABLE
}

func permuted(perm *batch.Permutation, values []int32) []int32 {
	out := make([]int32, perm.Len())
	for i := 0; i < perm.Len(); i++ {
		out[i] = values[perm.At(i)]
	}
	return out
}

func TestSortAscendingNoNulls(t *testing.T) {
	values := []int32{5, 1, 4, 1, 3}
	v, arenas := buildBlock(t, false, values, nil)
	perm := batch.NewPermutation(v.RowCount())

	Sort(perm, v, arenas, []Key{{Column: 0, Direction: Ascending}})

	got := permuted(perm, values)
	want := []int32{1, 1, 3, 4, 5}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("row %d: got %v, want %v (full: %v)", i, got[i], want[i], got)
		}
	}
}

func TestSortDescending(t *testing.T) {
	values := []int32{5, 1, 4, 1, 3}
	v, arenas := buildBlock(t, false, values, nil)
	perm := batch.NewPermutation(v.RowCount())

	Sort(perm, v, arenas, []Key{{Column: 0, Direction: Descending}})

	got := permuted(perm, values)
	want := []int32{5, 4, 3, 1, 1}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("row %d: got %v, want %v (full: %v)", i, got[i], want[i], got)
		}
	}
}

func TestSortNullsFirstAscending(t *testing.T) {
	values := []int32{5, 0, 1, 0, 3}
	nulls := []bool{false, true, false, true, false}
	v, arenas := buildBlock(t, true, values, nulls)
	perm := batch.NewPermutation(v.RowCount())

	Sort(perm, v, arenas, []Key{{Column: 0, Direction: Ascending}})

	for i := 0; i < 2; i++ {
		row := perm.At(i)
		if !nulls[row] {
			t.Fatalf("row %d (orig %d) expected null to sort first, perm=%v", i, row, perm.Slice())
		}
	}
	for i := 2; i < 5; i++ {
		row := perm.At(i)
		if nulls[row] {
			t.Fatalf("row %d (orig %d) expected non-null after nulls, perm=%v", i, row, perm.Slice())
		}
	}
	got := []int32{values[perm.At(2)], values[perm.At(3)], values[perm.At(4)]}
	want := []int32{1, 3, 5}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("non-null tail: got %v want %v", got, want)
		}
	}
}

func TestSortNullsLastDescending(t *testing.T) {
	values := []int32{5, 0, 1, 0, 3}
	nulls := []bool{false, true, false, true, false}
	v, arenas := buildBlock(t, true, values, nulls)
	perm := batch.NewPermutation(v.RowCount())

	Sort(perm, v, arenas, []Key{{Column: 0, Direction: Descending}})

	for i := 0; i < 3; i++ {
		if nulls[perm.At(i)] {
			t.Fatalf("row %d expected non-null before nulls, perm=%v", i, perm.Slice())
		}
	}
	for i := 3; i < 5; i++ {
		if !nulls[perm.At(i)] {
			t.Fatalf("row %d expected null last, perm=%v", i, perm.Slice())
		}
	}
}

func TestSortTwoKeysResolvesTies(t *testing.T) {
	// key1 has duplicate groups; key2 breaks ties within each group.
	key1 := []int32{1, 1, 0, 0, 1}
	key2 := []int32{30, 10, 20, 5, 20}

	schema, err := batch.NewSchema(
		batch.Attribute{Name: "a", Type: sonictype.INT32, Nullability: sonictype.NOT_NULLABLE},
		batch.Attribute{Name: "b", Type: sonictype.INT32, Nullability: sonictype.NOT_NULLABLE},
	)
	if err != nil {
		t.Fatalf("NewSchema: %v", err)
	}
	blk := batch.NewBlock(schema, len(key1), mem.Root())
	copy(blk.Column(0).Int32, key1)
	copy(blk.Column(1).Int32, key2)
	blk.SetRowCount(len(key1))
	v := blk.View()
	arenas := []*batch.Arena{blk.Arena(0), blk.Arena(1)}
	perm := batch.NewPermutation(v.RowCount())

	Sort(perm, v, arenas, []Key{
		{Column: 0, Direction: Ascending},
		{Column: 1, Direction: Ascending},
	})

	var gotA, gotB []int32
	for i := 0; i < perm.Len(); i++ {
		row := perm.At(i)
		gotA = append(gotA, key1[row])
		gotB = append(gotB, key2[row])
	}
	wantA := []int32{0, 0, 1, 1, 1}
	wantB := []int32{5, 20, 10, 20, 30}
	for i := range wantA {
		if gotA[i] != wantA[i] || gotB[i] != wantB[i] {
			t.Fatalf("row %d: got (%d,%d), want (%d,%d); full a=%v b=%v", i, gotA[i], gotB[i], wantA[i], wantB[i], gotA, gotB)
		}
	}
}

func TestSortIsStable(t *testing.T) {
	values := []int32{1, 1, 1, 1}
	v, arenas := buildBlock(t, false, values, nil)
	perm := batch.NewPermutation(v.RowCount())

	Sort(perm, v, arenas, []Key{{Column: 0, Direction: Ascending}})

	if !perm.IsPermutation(len(values)) {
		t.Fatalf("result is not a permutation: %v", perm.Slice())
	}
	for i := 0; i < perm.Len(); i++ {
		if perm.At(i) != i {
			t.Fatalf("stable sort of equal keys should preserve order, got %v", perm.Slice())
		}
	}
}
