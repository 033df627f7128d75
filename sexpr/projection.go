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

package sexpr

import "strings"

// InputAttributeProjection selects and optionally renames attributes
// straight from the input View by position; it never copies data.
type InputAttributeProjection struct {
	// Bindings pairs each output attribute's source name with its
	// (possibly identical) output name.
	Bindings []Binding
}

func (p *InputAttributeProjection) Children() []Node {
	// the source names are plain Variable references so that
	// CollectReferredAttributeNames sees them via the usual
	// child-traversal path.
	kids := make([]Node, len(p.Bindings))
	for i, b := range p.Bindings {
		kids[i] = b.Expr
	}
	return kids
}

func (p *InputAttributeProjection) String() string {
	parts := make([]string, len(p.Bindings))
	for i, b := range p.Bindings {
		parts[i] = b.Expr.String() + " AS " + b.As
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// NewInputAttributeProjection builds a projection of existing input
// attributes with optional renames; as[i] == "" keeps the source name.
func NewInputAttributeProjection(names []string, as []string) *InputAttributeProjection {
	b := make([]Binding, len(names))
	for i, n := range names {
		alias := n
		if as != nil && as[i] != "" {
			alias = as[i]
		}
		b[i] = Binding{Expr: Var(n), As: alias}
	}
	return &InputAttributeProjection{Bindings: b}
}

// Projection binds a list of sub-expressions and interleaves their
// result columns according to Bindings' aliases, in order.
type Projection struct {
	Bindings []Binding
}

func (p *Projection) Children() []Node {
	kids := make([]Node, len(p.Bindings))
	for i, b := range p.Bindings {
		kids[i] = b.Expr
	}
	return kids
}

func (p *Projection) String() string {
	parts := make([]string, len(p.Bindings))
	for i, b := range p.Bindings {
		parts[i] = b.Expr.String() + " AS " + b.As
	}
	return "PROJECT{" + strings.Join(parts, ", ") + "}"
}

// CompoundExpression is an append-style builder: call Add
// repeatedly, then pass the finished value wherever a Node is
// expected. At bind time it produces the output projector by
// position, in the order expressions were added.
type CompoundExpression struct {
	Bindings []Binding
}

// Add appends a sub-expression with an explicit alias, returning the
// receiver for chaining.
func (c *CompoundExpression) Add(as string, e Node) *CompoundExpression {
	c.Bindings = append(c.Bindings, Binding{Expr: e, As: as})
	return c
}

// AddAs is an alias for Add kept for call-site symmetry with
// "AS"-heavy query builders.
func (c *CompoundExpression) AddAs(e Node, as string) *CompoundExpression {
	return c.Add(as, e)
}

func (c *CompoundExpression) Children() []Node {
	kids := make([]Node, len(c.Bindings))
	for i, b := range c.Bindings {
		kids[i] = b.Expr
	}
	return kids
}

func (c *CompoundExpression) String() string {
	parts := make([]string, len(c.Bindings))
	for i, b := range c.Bindings {
		parts[i] = b.Expr.String() + " AS " + b.As
	}
	return "COMPOUND{" + strings.Join(parts, ", ") + "}"
}
