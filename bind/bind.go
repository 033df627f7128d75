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

// Package bind implements the type-resolution pass that turns a
// symbolic sexpr.Node tree into a batch-capable eval.BoundExpression
// tree: attribute names resolve to input positions, numeric operands
// promote to a common type, regex patterns compile, and every
// signature/arity mismatch surfaces as a sonicerr.SchemaError before
// a single row is ever evaluated.
package bind

import (
	"github.com/supersonic-go/supersonic/batch"
	"github.com/supersonic-go/supersonic/eval"
	"github.com/supersonic-go/supersonic/mem"
	"github.com/supersonic-go/supersonic/sexpr"
	"github.com/supersonic-go/supersonic/sonicerr"
	"github.com/supersonic-go/supersonic/sonictype"
)

// Bind resolves root against source's schema, producing an evaluator
// sized to process at most maxRows rows per Evaluate call, with all
// kernel scratch storage accounted to alloc. source is consulted only
// for its Schema and its per-column Arena pointers (stable across
// Evaluate calls even though their contents are reset each batch); it
// is never read from during Bind itself.
func Bind(root sexpr.Node, source *batch.Block, maxRows int, alloc mem.Allocator) (*eval.BoundExpressionTree, error) {
	b := &binder{schema: source.Schema(), source: source, maxRows: maxRows, alloc: alloc}
	bound, err := b.bind(root)
	if err != nil {
		return nil, err
	}
	return eval.NewBoundExpressionTree(bound, maxRows), nil
}

type binder struct {
	schema  batch.Schema
	source  *batch.Block
	maxRows int
	alloc   mem.Allocator
}

// wrapSourceArena wraps a bound attribute projection so downstream
// string kernels can read its bytes through the source block's own
// arena, if pos names a STRING/BINARY attribute.
func (b *binder) wrapSourceArena(e eval.BoundExpression, pos int) eval.BoundExpression {
	t := b.schema.Attribute(pos).Type
	if t != sonictype.STRING && t != sonictype.BINARY {
		return e
	}
	return eval.WithArena(e, b.source.Arena(pos))
}

func (b *binder) bind(n sexpr.Node) (eval.BoundExpression, error) {
	switch v := n.(type) {
	case *sexpr.Constant:
		return b.bindConstant(v)
	case *sexpr.Variable:
		return b.bindVariable(v)
	case *sexpr.Path:
		return nil, sonicerr.NewNotImplemented("nested attribute path access")
	case *sexpr.Operation:
		return b.bindOperation(v)
	case *sexpr.CustomFunctionCall:
		return nil, sonicerr.NewSchemaError(sonicerr.ErrUnsupported, v.Name, "no custom function registry configured")
	case *sexpr.InputAttributeProjection:
		return b.bindInputAttributeProjection(v)
	case *sexpr.Projection:
		return b.bindProjectionLike(v.Bindings)
	case *sexpr.CompoundExpression:
		return b.bindProjectionLike(v.Bindings)
	default:
		return nil, sonicerr.NewSchemaError(sonicerr.ErrUnsupported, "", "unrecognized expression node %T", n)
	}
}

func (b *binder) bindConstant(c *sexpr.Constant) (eval.BoundExpression, error) {
	return eval.NewBoundConstant("$const", c.Type, c.Value, b.maxRows, b.alloc), nil
}

func (b *binder) bindVariable(v *sexpr.Variable) (eval.BoundExpression, error) {
	pos := b.schema.IndexOf(v.Name)
	if pos < 0 {
		return nil, sonicerr.NewSchemaError(sonicerr.ErrUnknownAttribute, v.Name, "no such input attribute")
	}
	attr := b.schema.Attribute(pos)
	outSchema := batch.MustSchema(attr)
	proj := eval.NewBoundInputAttributeProjection(outSchema, []int{pos}, []string{v.Name})
	return b.wrapSourceArena(proj, pos), nil
}

func (b *binder) bindInputAttributeProjection(p *sexpr.InputAttributeProjection) (eval.BoundExpression, error) {
	positions := make([]int, len(p.Bindings))
	srcNames := make([]string, len(p.Bindings))
	attrs := make([]batch.Attribute, len(p.Bindings))
	for i, bd := range p.Bindings {
		v, ok := bd.Expr.(*sexpr.Variable)
		if !ok {
			return nil, sonicerr.NewSchemaError(sonicerr.ErrInvalidArgument, bd.As, "input attribute projection bindings must be plain variable references")
		}
		pos := b.schema.IndexOf(v.Name)
		if pos < 0 {
			return nil, sonicerr.NewSchemaError(sonicerr.ErrUnknownAttribute, v.Name, "no such input attribute")
		}
		positions[i] = pos
		srcNames[i] = v.Name
		attr := b.schema.Attribute(pos)
		attr.Name = bd.As
		attrs[i] = attr
	}
	outSchema, err := batch.NewSchema(attrs...)
	if err != nil {
		return nil, err
	}
	proj := eval.NewBoundInputAttributeProjection(outSchema, positions, srcNames)
	if len(positions) == 1 {
		return b.wrapSourceArena(proj, positions[0]), nil
	}
	return proj, nil
}

func (b *binder) bindProjectionLike(bindings []sexpr.Binding) (eval.BoundExpression, error) {
	args := make([]eval.BoundExpression, len(bindings))
	attrs := make([]batch.Attribute, 0, len(bindings))
	for i, bd := range bindings {
		bound, err := b.bind(bd.Expr)
		if err != nil {
			return nil, err
		}
		args[i] = bound
		sub := bound.ResultSchema()
		for j := 0; j < sub.Len(); j++ {
			a := sub.Attribute(j)
			if sub.Len() == 1 {
				a.Name = bd.As
			}
			attrs = append(attrs, a)
		}
	}
	outSchema, err := batch.NewSchema(attrs...)
	if err != nil {
		return nil, err
	}
	return eval.NewBoundProjection(outSchema, args), nil
}
