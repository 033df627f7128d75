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

package bind

import (
	"github.com/supersonic-go/supersonic/eval"
	"github.com/supersonic-go/supersonic/sexpr"
	"github.com/supersonic-go/supersonic/sonicerr"
	"github.com/supersonic-go/supersonic/sonictype"
)

// constDataType unwraps a DATA_TYPE constant node, used to encode
// CAST's and PARSE_STRING's target type as an operand rather than a
// separate Operation field.
func constDataType(n sexpr.Node) (sonictype.DataType, error) {
	c, ok := n.(*sexpr.Constant)
	if !ok || c.Type != sonictype.DATA_TYPE {
		return 0, sonicerr.NewSchemaError(sonicerr.ErrInvalidArgument, "", "expected a DATA_TYPE constant, got %T", n)
	}
	t, ok := c.Value.(sonictype.DataType)
	if !ok {
		return 0, sonicerr.NewSchemaError(sonicerr.ErrInvalidArgument, "", "malformed DATA_TYPE constant")
	}
	return t, nil
}

// bindCast expects Args laid out as [Const(DATA_TYPE, target), child].
// CAST never converts STRING to a numeric or BOOL type directly -
// PARSE_STRING covers that case with its own parse-failure semantics.
func (b *binder) bindCast(o *sexpr.Operation) (eval.BoundExpression, error) {
	if err := b.arity(o, 2); err != nil {
		return nil, err
	}
	target, err := constDataType(o.Args[0])
	if err != nil {
		return nil, err
	}
	child, err := b.bind(o.Args[1])
	if err != nil {
		return nil, err
	}
	srcType, _ := resultType(child)
	if srcType == sonictype.STRING && target != sonictype.STRING {
		return nil, sonicerr.NewSchemaError(sonicerr.ErrUnsupported, "CAST", "cannot cast STRING to %s, use PARSE_STRING", target)
	}
	return eval.NewBoundCast(child, target, srcType, b.maxRows, b.alloc)
}

// bindParseString expects Args laid out as [Const(DATA_TYPE, target), child].
func (b *binder) bindParseString(o *sexpr.Operation) (eval.BoundExpression, error) {
	if err := b.arity(o, 2); err != nil {
		return nil, err
	}
	target, err := constDataType(o.Args[0])
	if err != nil {
		return nil, err
	}
	child, err := b.bind(o.Args[1])
	if err != nil {
		return nil, err
	}
	t, _ := resultType(child)
	if t != sonictype.STRING {
		return nil, sonicerr.NewSchemaError(sonicerr.ErrTypeMismatch, "PARSE_STRING", "expected STRING operand, got %s", t)
	}
	if target != sonictype.BOOL && !target.Numeric() {
		return nil, sonicerr.NewSchemaError(sonicerr.ErrUnsupported, "PARSE_STRING", "cannot parse STRING into %s", target)
	}
	return eval.NewBoundParseString(child, target, b.maxRows, b.alloc), nil
}
