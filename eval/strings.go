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
	"strings"

	"github.com/supersonic-go/supersonic/batch"
	"github.com/supersonic-go/supersonic/mem"
	"github.com/supersonic-go/supersonic/sonictype"
)

// arenaSource is any bound expression whose result is a STRING/BINARY
// column backed by an Arena this package can read from directly.
type arenaSource interface {
	BoundExpression
	ResultArena() *batch.Arena
}

// arenaExpr adapts any BoundExpression whose 0th result column is
// STRING/BINARY but which doesn't itself expose ResultArena (e.g. an
// InputAttributeProjection passing through an input block's arena).
type arenaExpr struct {
	BoundExpression
	arena *batch.Arena
}

func (a arenaExpr) ResultArena() *batch.Arena { return a.arena }

// WithArena wraps e so string kernels can read its output bytes
// through arena. Used by package bind when an input Variable
// reference (whose arena belongs to the *source* block, not a
// scratch block) feeds a string kernel.
func WithArena(e BoundExpression, arena *batch.Arena) arenaSource {
	return arenaExpr{BoundExpression: e, arena: arena}
}

func asArenaSource(e BoundExpression) arenaSource {
	if a, ok := e.(arenaSource); ok {
		return a
	}
	panic("eval: string kernel child does not expose an Arena; wrap it with WithArena")
}

// ArenaOf resolves e's backing Arena, for callers in package bind
// that need to close over it (e.g. boundStringCompare's two operand
// arenas) without themselves implementing arenaSource.
func ArenaOf(e BoundExpression) *batch.Arena {
	return asArenaSource(e).ResultArena()
}

func strSchema(name string, nullable bool) batch.Schema {
	n := sonictype.NOT_NULLABLE
	if nullable {
		n = sonictype.NULLABLE
	}
	return batch.MustSchema(batch.Attribute{Name: name, Type: sonictype.STRING, Nullability: n})
}

// BoundConcat concatenates two or more STRING operands. Below the
// selectivity threshold it writes every row unconditionally (cheap
// path, no per-row skip test); above it, it branches per row.
type BoundConcat struct {
	args    []arenaSource
	schema  batch.Schema
	scratch *batch.Block
}

func NewBoundConcat(args []BoundExpression, nullable bool, maxRows int, alloc mem.Allocator) *BoundConcat {
	wrapped := make([]arenaSource, len(args))
	for i, a := range args {
		wrapped[i] = asArenaSource(a)
	}
	schema := strSchema("$concat", nullable)
	return &BoundConcat{args: wrapped, schema: schema, scratch: batch.NewBlock(schema, maxRows, alloc)}
}

func (c *BoundConcat) ResultSchema() batch.Schema { return c.schema }
func (c *BoundConcat) ResultArena() *batch.Arena  { return c.scratch.Arena(0) }
func (c *BoundConcat) RowCapacity() uint64 {
	cap := uint64(c.scratch.Capacity())
	for _, a := range c.args {
		if ac := a.RowCapacity(); ac < cap {
			cap = ac
		}
	}
	return cap
}
func (c *BoundConcat) CollectReferredAttributeNames(names map[string]struct{}) {
	for _, a := range c.args {
		a.CollectReferredAttributeNames(names)
	}
}

func (c *BoundConcat) DoEvaluate(input batch.View, skip batch.SkipVector) (batch.View, error) {
	n := input.RowCount()
	vals := make([][]byte, n)
	cols := make([]*batch.Column, len(c.args))
	for ai, a := range c.args {
		v, err := a.DoEvaluate(input, skip)
		if err != nil {
			return batch.View{}, err
		}
		cols[ai] = v.Column(0)
	}
	c.scratch.ResetArenas()
	dst := c.scratch.Column(0)

	unconditional := skip.PreferUnconditional(n)
	for i := 0; i < n; i++ {
		if !unconditional && skip.Get(i) {
			continue
		}
		rowNull := skip.Get(i)
		var buf []byte
		for ai, a := range c.args {
			col := cols[ai]
			if col.Null(i) {
				rowNull = true
				break
			}
			buf = append(buf, a.ResultArena().Bytes(col.Str[i])...)
		}
		if rowNull {
			skip.Set(i, true)
			continue
		}
		vals[i] = buf
	}
	for i := 0; i < n; i++ {
		if skip.Get(i) {
			continue
		}
		ref, err := c.scratch.Arena(0).Put(vals[i])
		if err != nil {
			return batch.View{}, err
		}
		dst.Str[i] = ref
	}
	dst.ResetIsNull(skip, n)
	c.scratch.SetRowCount(n)
	return c.scratch.View(), nil
}

// BoundLength returns the byte length of a STRING/BINARY operand.
type BoundLength struct {
	child   arenaSource
	schema  batch.Schema
	scratch *batch.Block
}

func NewBoundLength(child BoundExpression, maxRows int, alloc mem.Allocator) *BoundLength {
	schema := batch.MustSchema(batch.Attribute{Name: "$length", Type: sonictype.INT64, Nullability: sonictype.NULLABLE})
	return &BoundLength{child: asArenaSource(child), schema: schema, scratch: batch.NewBlock(schema, maxRows, alloc)}
}

func (l *BoundLength) ResultSchema() batch.Schema { return l.schema }
func (l *BoundLength) RowCapacity() uint64        { return l.child.RowCapacity() }
func (l *BoundLength) CollectReferredAttributeNames(names map[string]struct{}) {
	l.child.CollectReferredAttributeNames(names)
}

func (l *BoundLength) DoEvaluate(input batch.View, skip batch.SkipVector) (batch.View, error) {
	n := input.RowCount()
	cv, err := l.child.DoEvaluate(input, skip)
	if err != nil {
		return batch.View{}, err
	}
	ccol := cv.Column(0)
	l.scratch.ResetArenas()
	dst := l.scratch.Column(0).Int64
	for i := 0; i < n; i++ {
		if skip.Get(i) {
			continue
		}
		if ccol.Null(i) {
			skip.Set(i, true)
			continue
		}
		dst[i] = int64(len(l.child.ResultArena().Bytes(ccol.Str[i])))
	}
	l.scratch.Column(0).ResetIsNull(skip, n)
	l.scratch.SetRowCount(n)
	return l.scratch.View(), nil
}

// TrimKind selects which side(s) of whitespace TRIM-family kernels strip.
type TrimKind int

const (
	TrimBoth TrimKind = iota
	TrimLeft
	TrimRight
)

// BoundTrim implements TRIM/LTRIM/RTRIM.
type BoundTrim struct {
	child   arenaSource
	kind    TrimKind
	schema  batch.Schema
	scratch *batch.Block
}

func NewBoundTrim(child BoundExpression, kind TrimKind, nullable bool, maxRows int, alloc mem.Allocator) *BoundTrim {
	schema := strSchema("$trim", nullable)
	return &BoundTrim{child: asArenaSource(child), kind: kind, schema: schema, scratch: batch.NewBlock(schema, maxRows, alloc)}
}

func (t *BoundTrim) ResultSchema() batch.Schema { return t.schema }
func (t *BoundTrim) ResultArena() *batch.Arena  { return t.scratch.Arena(0) }
func (t *BoundTrim) RowCapacity() uint64        { return t.child.RowCapacity() }
func (t *BoundTrim) CollectReferredAttributeNames(names map[string]struct{}) {
	t.child.CollectReferredAttributeNames(names)
}

func (t *BoundTrim) DoEvaluate(input batch.View, skip batch.SkipVector) (batch.View, error) {
	n := input.RowCount()
	cv, err := t.child.DoEvaluate(input, skip)
	if err != nil {
		return batch.View{}, err
	}
	ccol := cv.Column(0)
	t.scratch.ResetArenas()
	dst := t.scratch.Column(0)
	for i := 0; i < n; i++ {
		if skip.Get(i) {
			continue
		}
		if ccol.Null(i) {
			skip.Set(i, true)
			continue
		}
		s := t.child.ResultArena().Bytes(ccol.Str[i])
		var trimmed string
		switch t.kind {
		case TrimLeft:
			trimmed = strings.TrimLeft(string(s), " \t\n\r")
		case TrimRight:
			trimmed = strings.TrimRight(string(s), " \t\n\r")
		default:
			trimmed = strings.TrimSpace(string(s))
		}
		ref, err := t.scratch.Arena(0).Put([]byte(trimmed))
		if err != nil {
			return batch.View{}, err
		}
		dst.Str[i] = ref
	}
	dst.ResetIsNull(skip, n)
	t.scratch.SetRowCount(n)
	return t.scratch.View(), nil
}

// CaseKind selects TOUPPER vs TOLOWER.
type CaseKind int

const (
	CaseUpper CaseKind = iota
	CaseLower
)

// BoundCaseFold implements TOUPPER/TOLOWER.
type BoundCaseFold struct {
	child   arenaSource
	kind    CaseKind
	schema  batch.Schema
	scratch *batch.Block
}

func NewBoundCaseFold(child BoundExpression, kind CaseKind, nullable bool, maxRows int, alloc mem.Allocator) *BoundCaseFold {
	name := "$toupper"
	if kind == CaseLower {
		name = "$tolower"
	}
	schema := strSchema(name, nullable)
	return &BoundCaseFold{child: asArenaSource(child), kind: kind, schema: schema, scratch: batch.NewBlock(schema, maxRows, alloc)}
}

func (c *BoundCaseFold) ResultSchema() batch.Schema { return c.schema }
func (c *BoundCaseFold) ResultArena() *batch.Arena  { return c.scratch.Arena(0) }
func (c *BoundCaseFold) RowCapacity() uint64        { return c.child.RowCapacity() }
func (c *BoundCaseFold) CollectReferredAttributeNames(names map[string]struct{}) {
	c.child.CollectReferredAttributeNames(names)
}

func (c *BoundCaseFold) DoEvaluate(input batch.View, skip batch.SkipVector) (batch.View, error) {
	n := input.RowCount()
	cv, err := c.child.DoEvaluate(input, skip)
	if err != nil {
		return batch.View{}, err
	}
	ccol := cv.Column(0)
	c.scratch.ResetArenas()
	dst := c.scratch.Column(0)
	for i := 0; i < n; i++ {
		if skip.Get(i) {
			continue
		}
		if ccol.Null(i) {
			skip.Set(i, true)
			continue
		}
		s := c.child.ResultArena().Bytes(ccol.Str[i])
		var folded string
		if c.kind == CaseUpper {
			folded = strings.ToUpper(string(s))
		} else {
			folded = strings.ToLower(string(s))
		}
		ref, err := c.scratch.Arena(0).Put([]byte(folded))
		if err != nil {
			return batch.View{}, err
		}
		dst.Str[i] = ref
	}
	dst.ResetIsNull(skip, n)
	c.scratch.SetRowCount(n)
	return c.scratch.View(), nil
}

// BoundSubstring implements SUBSTRING(s, pos, len): pos is 1-based;
// a negative pos counts from the end of the string. len is optional;
// when absent the result runs to the end of the string.
type BoundSubstring struct {
	str              arenaSource
	pos, length      BoundExpression
	hasLength        bool
	schema           batch.Schema
	scratch          *batch.Block
}

func NewBoundSubstring(str, pos, length BoundExpression, nullable bool, maxRows int, alloc mem.Allocator) *BoundSubstring {
	schema := strSchema("$substring", nullable)
	b := &BoundSubstring{
		str: asArenaSource(str), pos: pos,
		schema: schema, scratch: batch.NewBlock(schema, maxRows, alloc),
	}
	if length != nil {
		b.length = length
		b.hasLength = true
	}
	return b
}

func (s *BoundSubstring) ResultSchema() batch.Schema { return s.schema }
func (s *BoundSubstring) ResultArena() *batch.Arena  { return s.scratch.Arena(0) }
func (s *BoundSubstring) RowCapacity() uint64 {
	cap := s.str.RowCapacity()
	if pc := s.pos.RowCapacity(); pc < cap {
		cap = pc
	}
	if s.hasLength {
		if lc := s.length.RowCapacity(); lc < cap {
			cap = lc
		}
	}
	return cap
}
func (s *BoundSubstring) CollectReferredAttributeNames(names map[string]struct{}) {
	s.str.CollectReferredAttributeNames(names)
	s.pos.CollectReferredAttributeNames(names)
	if s.hasLength {
		s.length.CollectReferredAttributeNames(names)
	}
}

func (s *BoundSubstring) DoEvaluate(input batch.View, skip batch.SkipVector) (batch.View, error) {
	n := input.RowCount()
	sv, err := s.str.DoEvaluate(input, skip)
	if err != nil {
		return batch.View{}, err
	}
	pv, err := s.pos.DoEvaluate(input, skip)
	if err != nil {
		return batch.View{}, err
	}
	scol, pcol := sv.Column(0), pv.Column(0)
	var lcol *batch.Column
	if s.hasLength {
		lv, err := s.length.DoEvaluate(input, skip)
		if err != nil {
			return batch.View{}, err
		}
		lcol = lv.Column(0)
	}

	s.scratch.ResetArenas()
	dst := s.scratch.Column(0)
	for i := 0; i < n; i++ {
		if skip.Get(i) {
			continue
		}
		if scol.Null(i) || pcol.Null(i) || (s.hasLength && lcol.Null(i)) {
			skip.Set(i, true)
			continue
		}
		runes := []rune(string(s.str.ResultArena().Bytes(scol.Str[i])))
		pos := int(pcol.Int64[i])
		ln := len(runes) + 1
		if s.hasLength {
			ln = int(lcol.Int64[i])
		}
		start := pos
		if start < 0 {
			start = len(runes) + start + 1
		}
		if start < 1 {
			start = 1
		}
		startIdx := start - 1
		if startIdx > len(runes) {
			startIdx = len(runes)
		}
		endIdx := startIdx + ln
		if !s.hasLength {
			endIdx = len(runes)
		}
		if endIdx > len(runes) {
			endIdx = len(runes)
		}
		if endIdx < startIdx {
			endIdx = startIdx
		}
		sub := string(runes[startIdx:endIdx])
		ref, err := s.scratch.Arena(0).Put([]byte(sub))
		if err != nil {
			return batch.View{}, err
		}
		dst.Str[i] = ref
	}
	dst.ResetIsNull(skip, n)
	s.scratch.SetRowCount(n)
	return s.scratch.View(), nil
}

// BoundStringOffset implements STRING_OFFSET(haystack, needle): the
// 1-based rune position of needle's first occurrence in haystack, or
// 0 if not found.
type BoundStringOffset struct {
	haystack, needle arenaSource
	schema           batch.Schema
	scratch          *batch.Block
}

func NewBoundStringOffset(haystack, needle BoundExpression, maxRows int, alloc mem.Allocator) *BoundStringOffset {
	schema := batch.MustSchema(batch.Attribute{Name: "$string_offset", Type: sonictype.INT64, Nullability: sonictype.NULLABLE})
	return &BoundStringOffset{
		haystack: asArenaSource(haystack), needle: asArenaSource(needle),
		schema: schema, scratch: batch.NewBlock(schema, maxRows, alloc),
	}
}

func (s *BoundStringOffset) ResultSchema() batch.Schema { return s.schema }
func (s *BoundStringOffset) RowCapacity() uint64 {
	cap := s.haystack.RowCapacity()
	if nc := s.needle.RowCapacity(); nc < cap {
		cap = nc
	}
	return cap
}
func (s *BoundStringOffset) CollectReferredAttributeNames(names map[string]struct{}) {
	s.haystack.CollectReferredAttributeNames(names)
	s.needle.CollectReferredAttributeNames(names)
}

func (s *BoundStringOffset) DoEvaluate(input batch.View, skip batch.SkipVector) (batch.View, error) {
	n := input.RowCount()
	hv, err := s.haystack.DoEvaluate(input, skip)
	if err != nil {
		return batch.View{}, err
	}
	nv, err := s.needle.DoEvaluate(input, skip)
	if err != nil {
		return batch.View{}, err
	}
	hcol, ncol := hv.Column(0), nv.Column(0)
	s.scratch.ResetArenas()
	dst := s.scratch.Column(0).Int64
	for i := 0; i < n; i++ {
		if skip.Get(i) {
			continue
		}
		if hcol.Null(i) || ncol.Null(i) {
			skip.Set(i, true)
			continue
		}
		hay := string(s.haystack.ResultArena().Bytes(hcol.Str[i]))
		needle := string(s.needle.ResultArena().Bytes(ncol.Str[i]))
		byteIdx := strings.Index(hay, needle)
		if byteIdx < 0 {
			dst[i] = 0
			continue
		}
		dst[i] = int64(len([]rune(hay[:byteIdx])) + 1)
	}
	s.scratch.Column(0).ResetIsNull(skip, n)
	s.scratch.SetRowCount(n)
	return s.scratch.View(), nil
}

// BoundReplace implements REPLACE(s, from, to): all non-overlapping
// occurrences of from are replaced with to.
type BoundReplace struct {
	str, from, to arenaSource
	schema        batch.Schema
	scratch       *batch.Block
}

func NewBoundReplace(str, from, to BoundExpression, nullable bool, maxRows int, alloc mem.Allocator) *BoundReplace {
	schema := strSchema("$replace", nullable)
	return &BoundReplace{
		str: asArenaSource(str), from: asArenaSource(from), to: asArenaSource(to),
		schema: schema, scratch: batch.NewBlock(schema, maxRows, alloc),
	}
}

func (r *BoundReplace) ResultSchema() batch.Schema { return r.schema }
func (r *BoundReplace) ResultArena() *batch.Arena  { return r.scratch.Arena(0) }
func (r *BoundReplace) RowCapacity() uint64 {
	cap := r.str.RowCapacity()
	if fc := r.from.RowCapacity(); fc < cap {
		cap = fc
	}
	if tc := r.to.RowCapacity(); tc < cap {
		cap = tc
	}
	return cap
}
func (r *BoundReplace) CollectReferredAttributeNames(names map[string]struct{}) {
	r.str.CollectReferredAttributeNames(names)
	r.from.CollectReferredAttributeNames(names)
	r.to.CollectReferredAttributeNames(names)
}

func (r *BoundReplace) DoEvaluate(input batch.View, skip batch.SkipVector) (batch.View, error) {
	n := input.RowCount()
	sv, err := r.str.DoEvaluate(input, skip)
	if err != nil {
		return batch.View{}, err
	}
	fv, err := r.from.DoEvaluate(input, skip)
	if err != nil {
		return batch.View{}, err
	}
	tv, err := r.to.DoEvaluate(input, skip)
	if err != nil {
		return batch.View{}, err
	}
	scol, fcol, tcol := sv.Column(0), fv.Column(0), tv.Column(0)
	r.scratch.ResetArenas()
	dst := r.scratch.Column(0)
	for i := 0; i < n; i++ {
		if skip.Get(i) {
			continue
		}
		if scol.Null(i) || fcol.Null(i) || tcol.Null(i) {
			skip.Set(i, true)
			continue
		}
		s := string(r.str.ResultArena().Bytes(scol.Str[i]))
		from := string(r.from.ResultArena().Bytes(fcol.Str[i]))
		to := string(r.to.ResultArena().Bytes(tcol.Str[i]))
		var replaced string
		if from == "" {
			replaced = s
		} else {
			replaced = strings.ReplaceAll(s, from, to)
		}
		ref, err := r.scratch.Arena(0).Put([]byte(replaced))
		if err != nil {
			return batch.View{}, err
		}
		dst.Str[i] = ref
	}
	dst.ResetIsNull(skip, n)
	r.scratch.SetRowCount(n)
	return r.scratch.View(), nil
}
