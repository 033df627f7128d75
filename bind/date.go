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

// constDateUnit unwraps a DateUnit constant, used to encode
// DATE_ADD/DATE_DIFF/EXTRACT's calendar unit as an operand rather
// than a separate Operation field.
func constDateUnit(n sexpr.Node) (eval.DateUnit, error) {
	c, ok := n.(*sexpr.Constant)
	if !ok || c.Type != sonictype.INT32 {
		return 0, sonicerr.NewSchemaError(sonicerr.ErrInvalidArgument, "", "expected an INT32 date-unit constant, got %T", n)
	}
	switch v := c.Value.(type) {
	case int32:
		return eval.DateUnit(v), nil
	case int:
		return eval.DateUnit(v), nil
	default:
		return 0, sonicerr.NewSchemaError(sonicerr.ErrInvalidArgument, "", "malformed date-unit constant")
	}
}

func requireDatetime(e eval.BoundExpression) error {
	t, _ := resultType(e)
	if t != sonictype.DATETIME {
		return sonicerr.NewSchemaError(sonicerr.ErrTypeMismatch, "", "expected DATETIME operand, got %s", t)
	}
	return nil
}

// bindDateAdd expects Args laid out as [Const(unit), amount, ts].
func (b *binder) bindDateAdd(o *sexpr.Operation) (eval.BoundExpression, error) {
	if err := b.arity(o, 3); err != nil {
		return nil, err
	}
	unit, err := constDateUnit(o.Args[0])
	if err != nil {
		return nil, err
	}
	amount, err := b.bind(o.Args[1])
	if err != nil {
		return nil, err
	}
	ts, err := b.bind(o.Args[2])
	if err != nil {
		return nil, err
	}
	if err := requireDatetime(ts); err != nil {
		return nil, err
	}
	amount, err = b.coerceNumeric(amount, sonictype.INT64)
	if err != nil {
		return nil, err
	}
	return eval.NewBoundDateAdd(unit, amount, ts, b.maxRows, b.alloc), nil
}

// bindDateDiff expects Args laid out as [Const(unit), a, b].
func (b *binder) bindDateDiff(o *sexpr.Operation) (eval.BoundExpression, error) {
	if err := b.arity(o, 3); err != nil {
		return nil, err
	}
	unit, err := constDateUnit(o.Args[0])
	if err != nil {
		return nil, err
	}
	a, err := b.bind(o.Args[1])
	if err != nil {
		return nil, err
	}
	bb, err := b.bind(o.Args[2])
	if err != nil {
		return nil, err
	}
	if err := requireDatetime(a); err != nil {
		return nil, err
	}
	if err := requireDatetime(bb); err != nil {
		return nil, err
	}
	return eval.NewBoundDateDiff(unit, a, bb, b.maxRows, b.alloc), nil
}

// bindExtract expects Args laid out as [Const(unit), ts].
func (b *binder) bindExtract(o *sexpr.Operation) (eval.BoundExpression, error) {
	if err := b.arity(o, 2); err != nil {
		return nil, err
	}
	unit, err := constDateUnit(o.Args[0])
	if err != nil {
		return nil, err
	}
	ts, err := b.bind(o.Args[1])
	if err != nil {
		return nil, err
	}
	if err := requireDatetime(ts); err != nil {
		return nil, err
	}
	return eval.NewBoundDateExtract(unit, ts, b.maxRows, b.alloc), nil
}
