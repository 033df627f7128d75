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

import "github.com/supersonic-go/supersonic/batch"

// BoundInputAttributeProjection selects/renames attributes straight
// from the input View by position; it never copies column storage,
// so DoEvaluate is pure pointer arithmetic.
type BoundInputAttributeProjection struct {
	schema    batch.Schema
	positions []int // index into the *bind-time* input schema
	srcNames  []string
}

func NewBoundInputAttributeProjection(schema batch.Schema, positions []int, srcNames []string) *BoundInputAttributeProjection {
	return &BoundInputAttributeProjection{schema: schema, positions: positions, srcNames: srcNames}
}

func (p *BoundInputAttributeProjection) ResultSchema() batch.Schema { return p.schema }

// RowCapacity is unbounded: this kernel never materializes storage
// of its own, so it imposes no capacity ceiling beyond its input's.
func (p *BoundInputAttributeProjection) RowCapacity() uint64 { return ^uint64(0) }

func (p *BoundInputAttributeProjection) CollectReferredAttributeNames(names map[string]struct{}) {
	for _, n := range p.srcNames {
		names[n] = struct{}{}
	}
}

func (p *BoundInputAttributeProjection) DoEvaluate(input batch.View, skip batch.SkipVector) (batch.View, error) {
	n := input.RowCount()
	out := input.Project(p.positions)
	// a projected-through column keeps the input's own nullability;
	// the skip vector here only reflects short-circuiting imposed by
	// an ancestor, which InputAttributeProjection has no state to
	// persist, so nothing further is written back for n rows beyond
	// what the source column already carries.
	_ = skip
	return out.Slice(n), nil
}

// BoundProjection binds a list of sub-expressions and interleaves
// their result columns per Aliases, in the order given. It backs
// both the symbolic Projection node and CompoundExpression (which is
// just an append-style way of building the same argument list).
type BoundProjection struct {
	schema  batch.Schema
	args    []BoundExpression
	columns []*batch.Column // populated on DoEvaluate, one per output attribute
	rows    int
}

func NewBoundProjection(schema batch.Schema, args []BoundExpression) *BoundProjection {
	return &BoundProjection{schema: schema, args: args, columns: make([]*batch.Column, schema.Len())}
}

func (p *BoundProjection) ResultSchema() batch.Schema { return p.schema }

func (p *BoundProjection) RowCapacity() uint64 {
	cap := ^uint64(0)
	for _, a := range p.args {
		if c := a.RowCapacity(); c < cap {
			cap = c
		}
	}
	return cap
}

func (p *BoundProjection) CollectReferredAttributeNames(names map[string]struct{}) {
	for _, a := range p.args {
		a.CollectReferredAttributeNames(names)
	}
}

// ResultArenas resolves, per output column, the Arena backing its
// STRING/BINARY bytes, by asking whichever arg produced that column
// for its own ResultArena; columns from an arg that exposes none
// (a fixed-width kernel) get a nil entry.
func (p *BoundProjection) ResultArenas() []*batch.Arena {
	arenas := make([]*batch.Arena, p.schema.Len())
	col := 0
	for _, arg := range p.args {
		n := arg.ResultSchema().Len()
		if n == 1 {
			if as, ok := arg.(interface{ ResultArena() *batch.Arena }); ok {
				arenas[col] = as.ResultArena()
			}
		}
		col += n
	}
	return arenas
}

func (p *BoundProjection) DoEvaluate(input batch.View, skip batch.SkipVector) (batch.View, error) {
	n := input.RowCount()
	col := 0
	for _, arg := range p.args {
		v, err := arg.DoEvaluate(input, skip)
		if err != nil {
			return batch.View{}, err
		}
		for i := 0; i < v.Schema().Len(); i++ {
			p.columns[col] = v.Column(i)
			col++
		}
	}
	p.rows = n
	return batch.NewView(p.schema, p.columns, n), nil
}
