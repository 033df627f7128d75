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

func requireString(e eval.BoundExpression) error {
	t, _ := resultType(e)
	if t != sonictype.STRING {
		return sonicerr.NewSchemaError(sonicerr.ErrTypeMismatch, "", "expected STRING operand, got %s", t)
	}
	return nil
}

func requireStringOrBinary(e eval.BoundExpression) error {
	t, _ := resultType(e)
	if t != sonictype.STRING && t != sonictype.BINARY {
		return sonicerr.NewSchemaError(sonicerr.ErrTypeMismatch, "", "expected STRING or BINARY operand, got %s", t)
	}
	return nil
}

func anyNullable(args []eval.BoundExpression) bool {
	for _, a := range args {
		if _, nullable := resultType(a); nullable {
			return true
		}
	}
	return false
}

// bindConcat requires at least two STRING operands.
func (b *binder) bindConcat(o *sexpr.Operation) (eval.BoundExpression, error) {
	if len(o.Args) < 2 {
		return nil, sonicerr.NewSchemaError(sonicerr.ErrArity, o.Op.String(), "expected at least 2 arguments, got %d", len(o.Args))
	}
	args, err := b.bindArgs(o)
	if err != nil {
		return nil, err
	}
	for _, a := range args {
		if err := requireString(a); err != nil {
			return nil, err
		}
	}
	return eval.NewBoundConcat(args, anyNullable(args), b.maxRows, b.alloc), nil
}

func (b *binder) bindLength(o *sexpr.Operation) (eval.BoundExpression, error) {
	if err := b.arity(o, 1); err != nil {
		return nil, err
	}
	args, err := b.bindArgs(o)
	if err != nil {
		return nil, err
	}
	if err := requireStringOrBinary(args[0]); err != nil {
		return nil, err
	}
	return eval.NewBoundLength(args[0], b.maxRows, b.alloc), nil
}

func (b *binder) bindTrim(o *sexpr.Operation) (eval.BoundExpression, error) {
	if err := b.arity(o, 1); err != nil {
		return nil, err
	}
	args, err := b.bindArgs(o)
	if err != nil {
		return nil, err
	}
	if err := requireString(args[0]); err != nil {
		return nil, err
	}
	var kind eval.TrimKind
	switch o.Op {
	case sexpr.OpLTrim:
		kind = eval.TrimLeft
	case sexpr.OpRTrim:
		kind = eval.TrimRight
	default:
		kind = eval.TrimBoth
	}
	_, nullable := resultType(args[0])
	return eval.NewBoundTrim(args[0], kind, nullable, b.maxRows, b.alloc), nil
}

func (b *binder) bindCaseFold(o *sexpr.Operation) (eval.BoundExpression, error) {
	if err := b.arity(o, 1); err != nil {
		return nil, err
	}
	args, err := b.bindArgs(o)
	if err != nil {
		return nil, err
	}
	if err := requireString(args[0]); err != nil {
		return nil, err
	}
	kind := eval.CaseUpper
	if o.Op == sexpr.OpToLower {
		kind = eval.CaseLower
	}
	_, nullable := resultType(args[0])
	return eval.NewBoundCaseFold(args[0], kind, nullable, b.maxRows, b.alloc), nil
}

// bindSubstring expects Args laid out as [str, pos] or [str, pos, length].
func (b *binder) bindSubstring(o *sexpr.Operation) (eval.BoundExpression, error) {
	if len(o.Args) != 2 && len(o.Args) != 3 {
		return nil, sonicerr.NewSchemaError(sonicerr.ErrArity, o.Op.String(), "expected 2 or 3 arguments, got %d", len(o.Args))
	}
	args, err := b.bindArgs(o)
	if err != nil {
		return nil, err
	}
	if err := requireString(args[0]); err != nil {
		return nil, err
	}
	pos, err := b.coerceNumeric(args[1], sonictype.INT64)
	if err != nil {
		return nil, err
	}
	var length eval.BoundExpression
	nullable := anyNullable(args[:2])
	if len(args) == 3 {
		length, err = b.coerceNumeric(args[2], sonictype.INT64)
		if err != nil {
			return nil, err
		}
		_, ln := resultType(args[2])
		nullable = nullable || ln
	}
	return eval.NewBoundSubstring(args[0], pos, length, nullable, b.maxRows, b.alloc), nil
}

func (b *binder) bindStringOffset(o *sexpr.Operation) (eval.BoundExpression, error) {
	if err := b.arity(o, 2); err != nil {
		return nil, err
	}
	args, err := b.bindArgs(o)
	if err != nil {
		return nil, err
	}
	if err := requireString(args[0]); err != nil {
		return nil, err
	}
	if err := requireString(args[1]); err != nil {
		return nil, err
	}
	return eval.NewBoundStringOffset(args[0], args[1], b.maxRows, b.alloc), nil
}

func (b *binder) bindReplace(o *sexpr.Operation) (eval.BoundExpression, error) {
	if err := b.arity(o, 3); err != nil {
		return nil, err
	}
	args, err := b.bindArgs(o)
	if err != nil {
		return nil, err
	}
	for _, a := range args {
		if err := requireString(a); err != nil {
			return nil, err
		}
	}
	return eval.NewBoundReplace(args[0], args[1], args[2], anyNullable(args), b.maxRows, b.alloc), nil
}
