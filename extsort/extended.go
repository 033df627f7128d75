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
	"fmt"

	"github.com/supersonic-go/supersonic/batch"
	"github.com/supersonic-go/supersonic/bind"
	"github.com/supersonic-go/supersonic/cursor"
	"github.com/supersonic-go/supersonic/eval"
	"github.com/supersonic-go/supersonic/mem"
	"github.com/supersonic-go/supersonic/sexpr"
	"github.com/supersonic-go/supersonic/sonicerr"
	"github.com/supersonic-go/supersonic/sortcore"
)

// ExtendedKey is a sort key plus the preprocessing ExtendedSort applies
// before handing it to the underlying Sorter.
type ExtendedKey struct {
	Column          int
	Direction       sortcore.Direction
	CaseInsensitive bool
}

// ExtendedSort wraps a Sorter with case-insensitive key preprocessing
// (a derived, uppercased copy of each CaseInsensitive key column) and
// an optional row limit on the result. Derived columns ride along
// through the wrapped Sorter and are projected back out once it's
// done.
type ExtendedSort struct {
	schema   batch.Schema // caller-visible schema (no derived columns)
	combined batch.Schema // schema + derived columns, as written to inner
	inner    Sorter
	keys     []ExtendedKey

	staging     *batch.Block
	derivedTree *eval.BoundExpressionTree // nil if no key is CaseInsensitive

	limit int // <0 means unbounded
	final bool
}

// NewExtendedSort builds an ExtendedSort over schema, ordering rows by
// keys (after uppercasing any CaseInsensitive key's column into a
// derived attribute). newInner constructs the wrapped Sorter once the
// combined schema (schema plus any derived columns) and the resulting
// sortcore.Key list are known — most callers pass
// extsort.NewUnbufferedSorter or extsort.NewBufferingSorter partially
// applied over everything but those two arguments. maxRows bounds how
// many rows are staged per derived-column evaluation; limit caps the
// number of rows GetResultCursor's cursor ever yields (a negative
// limit means unbounded).
func NewExtendedSort(schema batch.Schema, keys []ExtendedKey, newInner func(batch.Schema, []sortcore.Key) Sorter, maxRows int, alloc mem.Allocator, limit int) (*ExtendedSort, error) {
	type keyBucket struct {
		column          int
		caseInsensitive bool
	}
	seen := make(map[keyBucket]bool, len(keys))
	for _, k := range keys {
		bucket := keyBucket{column: k.Column, caseInsensitive: k.CaseInsensitive}
		if seen[bucket] {
			return nil, sonicerr.NewSchemaError(sonicerr.ErrDuplicateSortKey, schema.Attribute(k.Column).Name, "column appears more than once in sort key list with the same case-sensitivity")
		}
		seen[bucket] = true
	}

	s := &ExtendedSort{schema: schema, keys: keys, limit: limit}

	ce := &sexpr.CompoundExpression{}
	innerKey := make([]sortcore.Key, len(keys))
	derivedIdx := 0
	for i, k := range keys {
		if !k.CaseInsensitive {
			innerKey[i] = sortcore.Key{Column: k.Column, Direction: k.Direction}
			continue
		}
		name := schema.Attribute(k.Column).Name
		ce.Add(fmt.Sprintf("$sortkey_%d", i), sexpr.Op(sexpr.OpToUpper, sexpr.Var(name)))
		innerKey[i] = sortcore.Key{Column: schema.Len() + derivedIdx, Direction: k.Direction}
		derivedIdx++
	}

	if derivedIdx == 0 {
		s.combined = schema
		s.inner = newInner(schema, innerKey)
		return s, nil
	}

	s.staging = batch.NewBlock(schema, maxRows, mem.Root())
	tree, err := bind.Bind(ce, s.staging, maxRows, alloc)
	if err != nil {
		return nil, err
	}
	s.derivedTree = tree
	combined, err := schema.Append(tree.ResultSchema().Attributes()...)
	if err != nil {
		return nil, err
	}
	s.combined = combined
	s.inner = newInner(combined, innerKey)
	return s, nil
}

func (s *ExtendedSort) Write(v batch.View, arenas []*batch.Arena) (int, error) {
	if s.final {
		return 0, fmt.Errorf("extsort: Write called after GetResultCursor")
	}
	if s.derivedTree == nil {
		return s.inner.Write(v, arenas)
	}

	total := 0
	n := v.RowCount()
	stagingCap := s.staging.Capacity()
	for total < n {
		chunk := n - total
		if chunk > stagingCap {
			chunk = stagingCap
		}
		clearNulls(s.staging, chunk)
		for j := 0; j < chunk; j++ {
			copyMergedRow(s.staging, j, v, arenas, total+j)
		}
		s.staging.SetRowCount(chunk)

		derived, err := s.derivedTree.Evaluate(s.staging.View())
		if err != nil {
			return total, err
		}
		derivedArenas := s.derivedTree.ResultArenas()

		cols := make([]*batch.Column, s.combined.Len())
		colArenas := make([]*batch.Arena, s.combined.Len())
		for i := 0; i < s.schema.Len(); i++ {
			cols[i] = s.staging.Column(i)
			colArenas[i] = s.staging.Arena(i)
		}
		for j := 0; j < derived.Schema().Len(); j++ {
			cols[s.schema.Len()+j] = derived.Column(j)
			colArenas[s.schema.Len()+j] = derivedArenas[j]
		}
		view := batch.NewView(s.combined, cols, chunk)

		accepted, err := s.inner.Write(view, colArenas)
		total += accepted
		if err != nil {
			return total, err
		}
		if accepted < chunk {
			return total, nil
		}
	}
	return total, nil
}

// clearNulls resets the first n rows of every column of blk to
// not-null, so stale flags from a previous, larger chunk don't leak
// into rows that weren't actually re-marked null this time.
func clearNulls(blk *batch.Block, n int) {
	for i := 0; i < blk.Schema().Len(); i++ {
		c := blk.Column(i)
		c.EnsureNulls(n)
		for j := 0; j < n; j++ {
			c.IsNull[j] = false
		}
	}
}

func (s *ExtendedSort) GetResultCursor() (cursor.Cursor, error) {
	s.final = true
	c, err := s.inner.GetResultCursor()
	if err != nil {
		return nil, err
	}
	if s.derivedTree != nil {
		positions := make([]int, s.schema.Len())
		for i := range positions {
			positions[i] = i
		}
		c = &projectCursor{child: c, positions: positions, schema: s.schema}
	}
	if s.limit >= 0 {
		c = &limitCursor{child: c, remaining: s.limit}
	}
	return c, nil
}

// projectCursor drops the trailing derived columns a CaseInsensitive
// key's preprocessing added, restoring the caller-visible schema.
type projectCursor struct {
	child     cursor.Cursor
	positions []int
	schema    batch.Schema
}

func (p *projectCursor) Schema() batch.Schema { return p.schema }

func (p *projectCursor) CursorID() string { return "project(" + p.child.CursorID() + ")" }

func (p *projectCursor) Interrupt() { p.child.Interrupt() }

func (p *projectCursor) ApplyToChildren(fn func(cursor.Cursor) cursor.Cursor) {
	p.child = fn(p.child)
}

func (p *projectCursor) CurrentArenas() []*batch.Arena {
	as, ok := p.child.(arenaSource)
	if !ok {
		return nil
	}
	full := as.CurrentArenas()
	out := make([]*batch.Arena, len(p.positions))
	for i, pos := range p.positions {
		if pos < len(full) {
			out[i] = full[pos]
		}
	}
	return out
}

func (p *projectCursor) Next(ctx context.Context, max int) cursor.Result {
	res := p.child.Next(ctx, max)
	if res.Kind != cursor.Batch {
		return res
	}
	return cursor.BatchResult(res.View.Project(p.positions))
}

// limitCursor caps the total number of rows its child ever yields.
// Grounded on the push-sink Limit operator's semantics, adapted to a
// pull cursor: once `remaining` rows have been returned, every
// further Next reports EOS without touching the child again.
type limitCursor struct {
	child     cursor.Cursor
	remaining int
}

func (l *limitCursor) Schema() batch.Schema { return l.child.Schema() }

func (l *limitCursor) CursorID() string { return "limit(" + l.child.CursorID() + ")" }

func (l *limitCursor) Interrupt() { l.child.Interrupt() }

func (l *limitCursor) ApplyToChildren(fn func(cursor.Cursor) cursor.Cursor) {
	l.child = fn(l.child)
}

func (l *limitCursor) CurrentArenas() []*batch.Arena {
	if as, ok := l.child.(arenaSource); ok {
		return as.CurrentArenas()
	}
	return nil
}

func (l *limitCursor) Next(ctx context.Context, max int) cursor.Result {
	if l.remaining <= 0 {
		return cursor.EOSResult
	}
	if max > l.remaining {
		max = l.remaining
	}
	res := l.child.Next(ctx, max)
	if res.Kind == cursor.Batch {
		l.remaining -= res.View.RowCount()
	}
	return res
}
