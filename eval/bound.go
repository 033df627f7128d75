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

// Package eval implements the bound (type-resolved) evaluator
// kernels and the expression-tree driver that runs them over
// columnar batches. Kernels are produced by package bind, which
// performs the symbolic-to-bound resolution pass; this package only
// knows how to execute already-resolved kernels.
package eval

import "github.com/supersonic-go/supersonic/batch"

// BoundExpression is a type-resolved, batch-capable kernel: the
// output of binding a symbolic sexpr.Node against an input schema.
type BoundExpression interface {
	// ResultSchema returns the (typed, named, nullability-resolved)
	// schema of this expression's output.
	ResultSchema() batch.Schema

	// DoEvaluate runs the kernel over input, respecting skip: rows
	// where skip.Get(i) is true are not computed and are written
	// back as null in the result. It returns a View over the
	// kernel's own scratch storage, valid until the next DoEvaluate
	// call anywhere in the owning tree.
	DoEvaluate(input batch.View, skip batch.SkipVector) (batch.View, error)

	// RowCapacity is the largest number of rows this expression can
	// be given without exceeding its scratch block's capacity.
	RowCapacity() uint64

	// CollectReferredAttributeNames adds every input attribute name
	// this expression (transitively) depends on to names.
	CollectReferredAttributeNames(names map[string]struct{})
}

// BoundExpressionTree owns a root BoundExpression and the
// pre-allocated skip vectors used to drive it.
type BoundExpressionTree struct {
	root  BoundExpression
	skips batch.BoolBlock
}

// NewBoundExpressionTree wraps root, pre-allocating one skip vector
// per output attribute sized for maxRowCount rows.
func NewBoundExpressionTree(root BoundExpression, maxRowCount int) *BoundExpressionTree {
	width := root.ResultSchema().Len()
	if width == 0 {
		width = 1
	}
	return &BoundExpressionTree{root: root, skips: batch.NewBoolBlock(width, maxRowCount)}
}

func (t *BoundExpressionTree) ResultSchema() batch.Schema { return t.root.ResultSchema() }

func (t *BoundExpressionTree) RowCapacity() uint64 { return t.root.RowCapacity() }

func (t *BoundExpressionTree) ReferredAttributeNames() map[string]struct{} {
	names := make(map[string]struct{})
	t.root.CollectReferredAttributeNames(names)
	return names
}

// ResultArenas resolves, per output column, the Arena backing its
// STRING/BINARY bytes (nil for a fixed-width column), by delegating
// to the root if it exposes ResultArenas (a BoundProjection) or
// ResultArena (any single-column string kernel, or an
// InputAttributeProjection wrapped via WithArena).
func (t *BoundExpressionTree) ResultArenas() []*batch.Arena {
	if p, ok := t.root.(interface{ ResultArenas() []*batch.Arena }); ok {
		return p.ResultArenas()
	}
	if as, ok := t.root.(interface{ ResultArena() *batch.Arena }); ok {
		return []*batch.Arena{as.ResultArena()}
	}
	return make([]*batch.Arena, t.root.ResultSchema().Len())
}

// Evaluate runs the tree over input and returns the resulting View.
// Successive calls reuse the same scratch buffers; callers must
// consume the returned View before calling Evaluate again.
func (t *BoundExpressionTree) Evaluate(input batch.View) (batch.View, error) {
	n := input.RowCount()
	t.skips.ZeroAll(n)
	return t.root.DoEvaluate(input, t.skips.At(0).Slice(n))
}
