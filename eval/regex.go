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

package eval

import (
	"regexp"

	"github.com/supersonic-go/supersonic/batch"
	"github.com/supersonic-go/supersonic/mem"
	"github.com/supersonic-go/supersonic/sonictype"
)

// boundRegexBool is the shared shape of REGEXP_PARTIAL and
// REGEXP_FULL: both produce BOOL from a compiled, bind-time-constant
// pattern and a STRING child.
type boundRegexBool struct {
	name    string
	child   arenaSource
	re      *regexp.Regexp
	full    bool
	schema  batch.Schema
	scratch *batch.Block
}

// NewBoundRegexpPartial builds REGEXP_PARTIAL(s, pattern): true if
// pattern matches anywhere in s. pattern must already be compiled;
// binding is where compile failures surface as errors.
func NewBoundRegexpPartial(name string, child BoundExpression, re *regexp.Regexp, maxRows int, alloc mem.Allocator) BoundExpression {
	schema := batch.MustSchema(batch.Attribute{Name: name, Type: sonictype.BOOL, Nullability: sonictype.NULLABLE})
	return &boundRegexBool{name: name, child: asArenaSource(child), re: re, full: false, schema: schema, scratch: batch.NewBlock(schema, maxRows, alloc)}
}

// NewBoundRegexpFull builds REGEXP_FULL(s, pattern): true only if
// pattern matches the entirety of s.
func NewBoundRegexpFull(name string, child BoundExpression, re *regexp.Regexp, maxRows int, alloc mem.Allocator) BoundExpression {
	// Anchor the pattern so the match found is a whole-string match
	// whenever one exists, not just the leftmost-first one.
	re = regexp.MustCompile(`\A(?:` + re.String() + `)\z`)
	schema := batch.MustSchema(batch.Attribute{Name: name, Type: sonictype.BOOL, Nullability: sonictype.NULLABLE})
	return &boundRegexBool{name: name, child: asArenaSource(child), re: re, full: true, schema: schema, scratch: batch.NewBlock(schema, maxRows, alloc)}
}

func (b *boundRegexBool) ResultSchema() batch.Schema { return b.schema }
func (b *boundRegexBool) RowCapacity() uint64        { return b.child.RowCapacity() }
func (b *boundRegexBool) CollectReferredAttributeNames(names map[string]struct{}) {
	b.child.CollectReferredAttributeNames(names)
}

func (b *boundRegexBool) DoEvaluate(input batch.View, skip batch.SkipVector) (batch.View, error) {
	n := input.RowCount()
	cv, err := b.child.DoEvaluate(input, skip)
	if err != nil {
		return batch.View{}, err
	}
	ccol := cv.Column(0)
	arena := b.child.ResultArena()
	b.scratch.ResetArenas()
	dst := b.scratch.Column(0).Bool
	for i := 0; i < n; i++ {
		if skip.Get(i) {
			continue
		}
		if ccol.Null(i) {
			skip.Set(i, true)
			continue
		}
		s := arena.Bytes(ccol.Str[i])
		if b.full {
			loc := b.re.FindIndex(s)
			dst[i] = loc != nil && loc[0] == 0 && loc[1] == len(s)
		} else {
			dst[i] = b.re.Match(s)
		}
	}
	b.scratch.Column(0).ResetIsNull(skip, n)
	b.scratch.SetRowCount(n)
	return b.scratch.View(), nil
}

// BoundRegexpExtract implements REGEXP_EXTRACT(s, pattern): the
// first match's text, or NULL if pattern doesn't match.
type BoundRegexpExtract struct {
	child   arenaSource
	re      *regexp.Regexp
	schema  batch.Schema
	scratch *batch.Block
}

func NewBoundRegexpExtract(child BoundExpression, re *regexp.Regexp, maxRows int, alloc mem.Allocator) *BoundRegexpExtract {
	schema := strSchema("$regexp_extract", true)
	return &BoundRegexpExtract{child: asArenaSource(child), re: re, schema: schema, scratch: batch.NewBlock(schema, maxRows, alloc)}
}

func (r *BoundRegexpExtract) ResultSchema() batch.Schema { return r.schema }
func (r *BoundRegexpExtract) ResultArena() *batch.Arena  { return r.scratch.Arena(0) }
func (r *BoundRegexpExtract) RowCapacity() uint64        { return r.child.RowCapacity() }
func (r *BoundRegexpExtract) CollectReferredAttributeNames(names map[string]struct{}) {
	r.child.CollectReferredAttributeNames(names)
}

func (r *BoundRegexpExtract) DoEvaluate(input batch.View, skip batch.SkipVector) (batch.View, error) {
	n := input.RowCount()
	cv, err := r.child.DoEvaluate(input, skip)
	if err != nil {
		return batch.View{}, err
	}
	ccol := cv.Column(0)
	arena := r.child.ResultArena()
	r.scratch.ResetArenas()
	dst := r.scratch.Column(0)
	for i := 0; i < n; i++ {
		if skip.Get(i) {
			continue
		}
		if ccol.Null(i) {
			skip.Set(i, true)
			continue
		}
		match := r.re.Find(arena.Bytes(ccol.Str[i]))
		if match == nil {
			skip.Set(i, true)
			continue
		}
		ref, err := r.scratch.Arena(0).Put(match)
		if err != nil {
			return batch.View{}, err
		}
		dst.Str[i] = ref
	}
	dst.ResetIsNull(skip, n)
	r.scratch.SetRowCount(n)
	return r.scratch.View(), nil
}

// BoundRegexpReplace implements REGEXP_REPLACE(s, pattern, repl):
// every match of pattern is substituted with repl ($1-style capture
// references are honored, per regexp.ReplaceAll's semantics).
type BoundRegexpReplace struct {
	child, repl arenaSource
	re          *regexp.Regexp
	schema      batch.Schema
	scratch     *batch.Block
}

func NewBoundRegexpReplace(child, repl BoundExpression, re *regexp.Regexp, nullable bool, maxRows int, alloc mem.Allocator) *BoundRegexpReplace {
	schema := strSchema("$regexp_replace", nullable)
	return &BoundRegexpReplace{
		child: asArenaSource(child), repl: asArenaSource(repl), re: re,
		schema: schema, scratch: batch.NewBlock(schema, maxRows, alloc),
	}
}

func (r *BoundRegexpReplace) ResultSchema() batch.Schema { return r.schema }
func (r *BoundRegexpReplace) ResultArena() *batch.Arena  { return r.scratch.Arena(0) }
func (r *BoundRegexpReplace) RowCapacity() uint64 {
	cap := r.child.RowCapacity()
	if rc := r.repl.RowCapacity(); rc < cap {
		cap = rc
	}
	return cap
}
func (r *BoundRegexpReplace) CollectReferredAttributeNames(names map[string]struct{}) {
	r.child.CollectReferredAttributeNames(names)
	r.repl.CollectReferredAttributeNames(names)
}

func (r *BoundRegexpReplace) DoEvaluate(input batch.View, skip batch.SkipVector) (batch.View, error) {
	n := input.RowCount()
	cv, err := r.child.DoEvaluate(input, skip)
	if err != nil {
		return batch.View{}, err
	}
	rv, err := r.repl.DoEvaluate(input, skip)
	if err != nil {
		return batch.View{}, err
	}
	ccol, rcol := cv.Column(0), rv.Column(0)
	carena, rarena := r.child.ResultArena(), r.repl.ResultArena()
	r.scratch.ResetArenas()
	dst := r.scratch.Column(0)
	for i := 0; i < n; i++ {
		if skip.Get(i) {
			continue
		}
		if ccol.Null(i) || rcol.Null(i) {
			skip.Set(i, true)
			continue
		}
		out := r.re.ReplaceAll(carena.Bytes(ccol.Str[i]), rarena.Bytes(rcol.Str[i]))
		ref, err := r.scratch.Arena(0).Put(out)
		if err != nil {
			return batch.View{}, err
		}
		dst.Str[i] = ref
	}
	dst.ResetIsNull(skip, n)
	r.scratch.SetRowCount(n)
	return r.scratch.View(), nil
}
