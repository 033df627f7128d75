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
	"bytes"

	"github.com/supersonic-go/supersonic/batch"
	"github.com/supersonic-go/supersonic/sonictype"
)

// CrossCompareFunc compares one row of colA against one row of colB;
// the two columns may belong to different batches (and so different
// arenas), which is what a k-way merge across spill files needs and
// a same-batch compareFunc can't express.
type CrossCompareFunc func(colA *batch.Column, arenaA *batch.Arena, rowA int, colB *batch.Column, arenaB *batch.Arena, rowB int) int

// CrossComparator returns the cross-batch three-way comparator for t.
func CrossComparator(t sonictype.DataType) CrossCompareFunc {
	switch t {
	case sonictype.INT32:
		return func(a *batch.Column, _ *batch.Arena, i int, b *batch.Column, _ *batch.Arena, j int) int {
			return cmpOrdered(a.Int32[i], b.Int32[j])
		}
	case sonictype.INT64:
		return func(a *batch.Column, _ *batch.Arena, i int, b *batch.Column, _ *batch.Arena, j int) int {
			return cmpOrdered(a.Int64[i], b.Int64[j])
		}
	case sonictype.DATETIME:
		return func(a *batch.Column, _ *batch.Arena, i int, b *batch.Column, _ *batch.Arena, j int) int {
			return cmpOrdered(a.Datetime[i], b.Datetime[j])
		}
	case sonictype.UINT32:
		return func(a *batch.Column, _ *batch.Arena, i int, b *batch.Column, _ *batch.Arena, j int) int {
			return cmpOrdered(a.Uint32[i], b.Uint32[j])
		}
	case sonictype.ENUM:
		return func(a *batch.Column, _ *batch.Arena, i int, b *batch.Column, _ *batch.Arena, j int) int {
			return cmpOrdered(a.Enum[i], b.Enum[j])
		}
	case sonictype.UINT64:
		return func(a *batch.Column, _ *batch.Arena, i int, b *batch.Column, _ *batch.Arena, j int) int {
			return cmpOrdered(a.Uint64[i], b.Uint64[j])
		}
	case sonictype.FLOAT:
		return func(a *batch.Column, _ *batch.Arena, i int, b *batch.Column, _ *batch.Arena, j int) int {
			return cmpOrdered(a.Float32[i], b.Float32[j])
		}
	case sonictype.DOUBLE:
		return func(a *batch.Column, _ *batch.Arena, i int, b *batch.Column, _ *batch.Arena, j int) int {
			return cmpOrdered(a.Float64[i], b.Float64[j])
		}
	case sonictype.BOOL:
		return func(a *batch.Column, _ *batch.Arena, i int, b *batch.Column, _ *batch.Arena, j int) int {
			return cmpBool(a.Bool[i], b.Bool[j])
		}
	case sonictype.DATE:
		return func(a *batch.Column, _ *batch.Arena, i int, b *batch.Column, _ *batch.Arena, j int) int {
			return cmpOrdered(a.Date[i], b.Date[j])
		}
	case sonictype.DATA_TYPE:
		return func(a *batch.Column, _ *batch.Arena, i int, b *batch.Column, _ *batch.Arena, j int) int {
			return cmpOrdered(a.DataType[i], b.DataType[j])
		}
	case sonictype.STRING, sonictype.BINARY:
		return func(a *batch.Column, arenaA *batch.Arena, i int, b *batch.Column, arenaB *batch.Arena, j int) int {
			return bytes.Compare(arenaA.Bytes(a.Str[i]), arenaB.Bytes(b.Str[j]))
		}
	default:
		return func(*batch.Column, *batch.Arena, int, *batch.Column, *batch.Arena, int) int { return 0 }
	}
}
