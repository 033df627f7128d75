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

func (b *binder) requireBool(e eval.BoundExpression) error {
	t, _ := resultType(e)
	if t != sonictype.BOOL {
		return sonicerr.NewSchemaError(sonicerr.ErrTypeMismatch, "", "expected BOOL operand, got %s", t)
	}
	return nil
}

func (b *binder) bindAndOr(o *sexpr.Operation) (eval.BoundExpression, error) {
	if err := b.arity(o, 2); err != nil {
		return nil, err
	}
	args, err := b.bindArgs(o)
	if err != nil {
		return nil, err
	}
	if err := b.requireBool(args[0]); err != nil {
		return nil, err
	}
	if err := b.requireBool(args[1]); err != nil {
		return nil, err
	}
	if o.Op == sexpr.OpAnd {
		return eval.NewBoundAnd(args[0], args[1], b.maxRows, b.alloc), nil
	}
	return eval.NewBoundOr(args[0], args[1], b.maxRows, b.alloc), nil
}

func (b *binder) bindNot(o *sexpr.Operation) (eval.BoundExpression, error) {
	if err := b.arity(o, 1); err != nil {
		return nil, err
	}
	args, err := b.bindArgs(o)
	if err != nil {
		return nil, err
	}
	if err := b.requireBool(args[0]); err != nil {
		return nil, err
	}
	return eval.NewBoundNot(args[0], b.maxRows, b.alloc), nil
}

func (b *binder) bindIsNull(o *sexpr.Operation) (eval.BoundExpression, error) {
	if err := b.arity(o, 1); err != nil {
		return nil, err
	}
	args, err := b.bindArgs(o)
	if err != nil {
		return nil, err
	}
	return eval.NewBoundIsNull(args[0], b.maxRows, b.alloc), nil
}
