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
	"fmt"

	"github.com/supersonic-go/supersonic/batch"
	"github.com/supersonic-go/supersonic/cursor"
	"github.com/supersonic-go/supersonic/internal/slog"
	"github.com/supersonic-go/supersonic/mem"
	"github.com/supersonic-go/supersonic/sortcore"
	"github.com/supersonic-go/supersonic/spillcodec"
)

// UnbufferedSorter sorts each incoming batch in place (via a
// Permutation) and spills it immediately, never holding more than one
// batch's worth of data in memory. GetResultCursor k-way merges the
// resulting spills.
type UnbufferedSorter struct {
	schema   batch.Schema
	keys     []sortcore.Key
	spillDir string
	alloc    mem.Allocator
	merger   Merger
	spills   []spillInfo
	final    bool
}

type spillInfo struct {
	file     *fileRemover
	rowCount int
}

// NewUnbufferedSorter constructs a sorter over schema, ordering rows
// by keys, spilling temp files under spillDir.
func NewUnbufferedSorter(schema batch.Schema, keys []sortcore.Key, spillDir string, alloc mem.Allocator) *UnbufferedSorter {
	return &UnbufferedSorter{schema: schema, keys: keys, spillDir: spillDir, alloc: alloc, merger: NewBasicMerger()}
}

func (s *UnbufferedSorter) Write(v batch.View, arenas []*batch.Arena) (int, error) {
	if s.final {
		return 0, fmt.Errorf("extsort: Write called after GetResultCursor")
	}
	n := v.RowCount()
	if n == 0 {
		return 0, nil
	}
	perm := batch.NewPermutation(n)
	sortcore.Sort(perm, v, arenas, s.keys)
	sorted := reorderView(v, perm)

	f, err := newSpillFile(s.spillDir)
	if err != nil {
		return 0, err
	}
	if err := spillcodec.WriteView(f, sorted, arenas); err != nil {
		f.Close()
		return 0, err
	}
	s.spills = append(s.spills, spillInfo{file: f, rowCount: n})
	slog.Printf("extsort: spilled %d rows to %s", n, f.Name())
	return n, nil
}

func (s *UnbufferedSorter) GetResultCursor() (cursor.Cursor, error) {
	s.final = true
	children := make([]cursor.Cursor, len(s.spills))
	for i, sp := range s.spills {
		children[i] = newSpillCursor(fmt.Sprintf("spill-%d", i), s.schema, sp.rowCount, s.alloc, sp.file)
	}
	return s.merger.Merge(s.schema, s.keys, children, s.alloc), nil
}
