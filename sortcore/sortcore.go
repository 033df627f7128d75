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

// Package sortcore orders a single batch in place via a Permutation,
// one sort key at a time, narrowing the set of rows still in play as
// keys resolve ties.
package sortcore

import (
	"bytes"

	"github.com/supersonic-go/supersonic/batch"
	"github.com/supersonic-go/supersonic/sonictype"
)

// Direction is a sort key's ordering.
type Direction int

const (
	Ascending Direction = iota
	Descending
)

// Key names one column to sort by and the direction to sort it in.
// Null ordering follows Direction: nulls sort first under Ascending,
// last under Descending. There is no separate NULLS FIRST/LAST override.
type Key struct {
	Column    int
	Direction Direction
}

// span is a half-open row range still undistinguished by the keys
// processed so far.
type span struct {
	from, to int
}

// Sort reorders perm in place so that v's rows, read through perm,
// satisfy keys in order (first key is most significant). arenas must
// have one entry per column of v's schema; only entries for STRING or
// BINARY columns named by keys are dereferenced. perm must already be
// sized to v.RowCount().
func Sort(perm *batch.Permutation, v batch.View, arenas []*batch.Arena, keys []Key) {
	ranges := []span{{0, v.RowCount()}}
	for ki, key := range keys {
		if len(ranges) == 0 {
			break
		}
		col := v.Column(key.Column)
		var arena *batch.Arena
		if key.Column < len(arenas) {
			arena = arenas[key.Column]
		}
		cmp := comparator(col.Type, arena)
		last := ki == len(keys)-1

		var next []span
		for _, r := range ranges {
			from, to := r.from, r.to
			if col.IsNull != nil {
				from, to = partitionNulls(perm, col, from, to, key.Direction)
			}
			sortRange(perm, col, cmp, key.Direction, from, to)
			if !last {
				next = appendEqualRuns(next, perm, col, cmp, from, to)
			}
		}
		ranges = next
	}
}

// partitionNulls moves every null row in [from, to) to the side
// implied by direction (low side for Ascending, high side for
// Descending) and returns the sub-range of non-null rows.
func partitionNulls(perm *batch.Permutation, col *batch.Column, from, to int, dir Direction) (int, int) {
	nullsFirst := dir == Ascending
	isNull := func(pos int) bool { return col.IsNull[perm.At(pos)] }
	if nullsFirst {
		n := perm.Partition(from, to, isNull)
		return from + n, to
	}
	n := perm.Partition(from, to, func(pos int) bool { return !isNull(pos) })
	return from, from + n
}

func sortRange(perm *batch.Permutation, col *batch.Column, cmp compareFunc, dir Direction, from, to int) {
	if to-from < 2 {
		return
	}
	sign := 1
	if dir == Descending {
		sign = -1
	}
	perm.Sort(from, to, func(a, b int) bool {
		return sign*cmp(col, perm.At(a), perm.At(b)) < 0
	})
}

// appendEqualRuns scans the now-sorted [from, to) and appends every
// maximal run of two or more equal rows to next, so the following key
// only has to resolve genuine ties.
func appendEqualRuns(next []span, perm *batch.Permutation, col *batch.Column, cmp compareFunc, from, to int) []span {
	runStart := from
	for i := from + 1; i <= to; i++ {
		equal := i < to && cmp(col, perm.At(i-1), perm.At(i)) == 0
		if !equal {
			if i-runStart >= 2 {
				next = append(next, span{runStart, i})
			}
			runStart = i
		}
	}
	return next
}

// compareFunc reports -1, 0, or 1 comparing rows a and b of col,
// ignoring direction and nulls (both handled by the caller).
type compareFunc func(col *batch.Column, a, b int) int

// comparator returns the three-way comparator for t, monomorphized
// per DataType; direction is folded in by the caller via sign flip
// rather than doubling the dispatch table, since the comparison logic
// itself does not change between Ascending and Descending.
func comparator(t sonictype.DataType, arena *batch.Arena) compareFunc {
	switch t {
	case sonictype.INT32:
		return func(col *batch.Column, a, b int) int { return cmpOrdered(col.Int32[a], col.Int32[b]) }
	case sonictype.INT64, sonictype.DATETIME:
		return func(col *batch.Column, a, b int) int {
			if t == sonictype.DATETIME {
				return cmpOrdered(col.Datetime[a], col.Datetime[b])
			}
			return cmpOrdered(col.Int64[a], col.Int64[b])
		}
	case sonictype.UINT32, sonictype.ENUM:
		return func(col *batch.Column, a, b int) int {
			if t == sonictype.ENUM {
				return cmpOrdered(col.Enum[a], col.Enum[b])
			}
			return cmpOrdered(col.Uint32[a], col.Uint32[b])
		}
	case sonictype.UINT64:
		return func(col *batch.Column, a, b int) int { return cmpOrdered(col.Uint64[a], col.Uint64[b]) }
	case sonictype.FLOAT:
		return func(col *batch.Column, a, b int) int { return cmpOrdered(col.Float32[a], col.Float32[b]) }
	case sonictype.DOUBLE:
		return func(col *batch.Column, a, b int) int { return cmpOrdered(col.Float64[a], col.Float64[b]) }
	case sonictype.BOOL:
		return func(col *batch.Column, a, b int) int { return cmpBool(col.Bool[a], col.Bool[b]) }
	case sonictype.DATE:
		return func(col *batch.Column, a, b int) int { return cmpOrdered(col.Date[a], col.Date[b]) }
	case sonictype.DATA_TYPE:
		return func(col *batch.Column, a, b int) int { return cmpOrdered(col.DataType[a], col.DataType[b]) }
	case sonictype.STRING, sonictype.BINARY:
		return func(col *batch.Column, a, b int) int {
			return bytes.Compare(arena.Bytes(col.Str[a]), arena.Bytes(col.Str[b]))
		}
	default:
		return func(*batch.Column, int, int) int { return 0 }
	}
}

func cmpOrdered[T int32 | int64 | uint32 | uint64 | float32 | float64 | sonictype.DataType](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func cmpBool(a, b bool) int {
	switch {
	case a == b:
		return 0
	case !a:
		return -1
	default:
		return 1
	}
}
