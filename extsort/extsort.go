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

// Package extsort sorts more rows than fit in memory: each Sorter
// accepts batches via Write and produces a single sorted Cursor via
// GetResultCursor, spilling to temporary files and merging them back
// with a Merger when the data doesn't fit in one in-memory table.
package extsort

import (
	"fmt"
	"os"

	"github.com/supersonic-go/supersonic/batch"
	"github.com/supersonic-go/supersonic/cursor"
	"github.com/supersonic-go/supersonic/sonicerr"
	"github.com/supersonic-go/supersonic/sonictype"
)

// Sorter accepts batches in arbitrary order and yields them back
// sorted by its configured keys once the input is exhausted.
type Sorter interface {
	// Write accepts up to v.RowCount() rows; arenas resolves any
	// STRING/BINARY column of v (one entry per column, unused entries
	// for fixed-width columns may be nil). It returns the number of
	// rows actually accepted.
	Write(v batch.View, arenas []*batch.Arena) (int, error)
	// GetResultCursor finalizes the sort and returns a Cursor over
	// the fully sorted output. Write must not be called afterward.
	GetResultCursor() (cursor.Cursor, error)
}

// fileRemover wraps a temp file and deletes it on Close, so a spill
// that's been fully consumed doesn't linger on disk.
type fileRemover struct {
	*os.File
}

func newSpillFile(dir string) (*fileRemover, error) {
	f, err := os.CreateTemp(dir, "supersonic-spill-*")
	if err != nil {
		return nil, sonicerr.NewSpillError(dir, err)
	}
	return &fileRemover{f}, nil
}

func (f *fileRemover) Close() error {
	name := f.File.Name()
	closeErr := f.File.Close()
	removeErr := os.Remove(name)
	if closeErr != nil {
		return closeErr
	}
	if removeErr != nil && !os.IsNotExist(removeErr) {
		return removeErr
	}
	return nil
}

// reorderView copies v's rows into a fresh, owned View arranged
// according to perm; the copy is required because a Sorter's caller
// is free to reuse v's backing storage on the very next Write.
// STRING/BINARY descriptors are copied as-is (the bytes they point at
// stay in the original arena, only which row owns which descriptor
// changes), so arenas is unchanged by this call.
func reorderView(v batch.View, perm *batch.Permutation) batch.View {
	n := v.RowCount()
	sc := v.Schema()
	cols := make([]*batch.Column, sc.Len())
	for i := 0; i < sc.Len(); i++ {
		src := v.Column(i)
		out := batch.NewColumn(src.Type, n)
		if src.IsNull != nil {
			out.EnsureNulls(n)
		}
		for pos := 0; pos < n; pos++ {
			copyRow(&out, pos, src, perm.At(pos))
		}
		cols[i] = &out
	}
	return batch.NewView(sc, cols, n)
}

func copyRow(dst *batch.Column, dstIdx int, src *batch.Column, srcIdx int) {
	if src.IsNull != nil {
		dst.IsNull[dstIdx] = src.IsNull[srcIdx]
	}
	switch src.Type {
	case sonictype.INT32:
		dst.Int32[dstIdx] = src.Int32[srcIdx]
	case sonictype.INT64:
		dst.Int64[dstIdx] = src.Int64[srcIdx]
	case sonictype.UINT32:
		dst.Uint32[dstIdx] = src.Uint32[srcIdx]
	case sonictype.UINT64:
		dst.Uint64[dstIdx] = src.Uint64[srcIdx]
	case sonictype.FLOAT:
		dst.Float32[dstIdx] = src.Float32[srcIdx]
	case sonictype.DOUBLE:
		dst.Float64[dstIdx] = src.Float64[srcIdx]
	case sonictype.BOOL:
		dst.Bool[dstIdx] = src.Bool[srcIdx]
	case sonictype.DATE:
		dst.Date[dstIdx] = src.Date[srcIdx]
	case sonictype.DATETIME:
		dst.Datetime[dstIdx] = src.Datetime[srcIdx]
	case sonictype.STRING, sonictype.BINARY:
		dst.Str[dstIdx] = src.Str[srcIdx]
	case sonictype.ENUM:
		dst.Enum[dstIdx] = src.Enum[srcIdx]
	case sonictype.DATA_TYPE:
		dst.DataType[dstIdx] = src.DataType[srcIdx]
	default:
		panic(fmt.Sprintf("extsort: unsupported column type %s", src.Type))
	}
}
