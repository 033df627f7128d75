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
	"regexp"

	"github.com/supersonic-go/supersonic/eval"
	"github.com/supersonic-go/supersonic/sexpr"
	"github.com/supersonic-go/supersonic/sonicerr"
	"github.com/supersonic-go/supersonic/sonictype"
)

func (b *binder) bindOperation(o *sexpr.Operation) (eval.BoundExpression, error) {
	switch o.Op {
	case sexpr.OpAdd, sexpr.OpSub, sexpr.OpMul:
		return b.bindBasicArith(o)
	case sexpr.OpDivideSignaling, sexpr.OpDivideNulling, sexpr.OpDivideQuiet:
		return b.bindDivide(o)
	case sexpr.OpSqrtSignaling, sexpr.OpSqrtNulling, sexpr.OpSqrtQuiet:
		return b.bindSqrt(o)
	case sexpr.OpPowerSignaling, sexpr.OpPowerNulling, sexpr.OpPowerQuiet:
		return b.bindPower(o)
	case sexpr.OpNegate:
		return b.bindNegate(o)
	case sexpr.OpEq, sexpr.OpNe, sexpr.OpLt, sexpr.OpLe, sexpr.OpGt, sexpr.OpGe:
		return b.bindCompare(o)
	case sexpr.OpAnd, sexpr.OpOr:
		return b.bindAndOr(o)
	case sexpr.OpNot:
		return b.bindNot(o)
	case sexpr.OpIsNull:
		return b.bindIsNull(o)
	case sexpr.OpIf:
		return b.bindIf(o)
	case sexpr.OpIfNull:
		return b.bindIfNull(o)
	case sexpr.OpCase:
		return b.bindCase(o)
	case sexpr.OpCast:
		return b.bindCast(o)
	case sexpr.OpParseString:
		return b.bindParseString(o)
	case sexpr.OpConcat:
		return b.bindConcat(o)
	case sexpr.OpLength:
		return b.bindLength(o)
	case sexpr.OpTrim, sexpr.OpLTrim, sexpr.OpRTrim:
		return b.bindTrim(o)
	case sexpr.OpToUpper, sexpr.OpToLower:
		return b.bindCaseFold(o)
	case sexpr.OpSubstring:
		return b.bindSubstring(o)
	case sexpr.OpStringOffset:
		return b.bindStringOffset(o)
	case sexpr.OpReplace:
		return b.bindReplace(o)
	case sexpr.OpRegexpPartial, sexpr.OpRegexpFull:
		return b.bindRegexBool(o)
	case sexpr.OpRegexpExtract:
		return b.bindRegexExtract(o)
	case sexpr.OpRegexpReplace:
		return b.bindRegexReplace(o)
	case sexpr.OpRegexpRewrite:
		return nil, sonicerr.NewNotImplemented("REGEXP_REWRITE")
	case sexpr.OpDateAdd:
		return b.bindDateAdd(o)
	case sexpr.OpDateDiff:
		return b.bindDateDiff(o)
	case sexpr.OpExtract:
		return b.bindExtract(o)
	default:
		return nil, sonicerr.NewSchemaError(sonicerr.ErrUnsupported, "", "unbound operation %s", o.Op)
	}
}

func (b *binder) arity(o *sexpr.Operation, n int) error {
	if len(o.Args) != n {
		return sonicerr.NewSchemaError(sonicerr.ErrArity, o.Op.String(), "expected %d argument(s), got %d", n, len(o.Args))
	}
	return nil
}

func (b *binder) bindArgs(o *sexpr.Operation) ([]eval.BoundExpression, error) {
	out := make([]eval.BoundExpression, len(o.Args))
	for i, a := range o.Args {
		bound, err := b.bind(a)
		if err != nil {
			return nil, err
		}
		out[i] = bound
	}
	return out, nil
}

func resultType(e eval.BoundExpression) (sonictype.DataType, bool) {
	attr := e.ResultSchema().Attribute(0)
	return attr.Type, attr.Nullable()
}

// coerceNumeric wraps e in a CAST up to the promoted type when its
// own result type differs; promotion only ever widens, so the cast
// never fails in practice.
func (b *binder) coerceNumeric(e eval.BoundExpression, to sonictype.DataType) (eval.BoundExpression, error) {
	from, _ := resultType(e)
	if from == to {
		return e, nil
	}
	c, err := eval.NewBoundCast(e, to, from, b.maxRows, b.alloc)
	if err != nil {
		return nil, sonicerr.NewSchemaError(sonicerr.ErrTypeMismatch, "", "cannot promote %s to %s", from, to)
	}
	return c, nil
}

func (b *binder) promoteBoth(left, right eval.BoundExpression) (eval.BoundExpression, eval.BoundExpression, sonictype.DataType, bool, error) {
	lt, lnull := resultType(left)
	rt, rnull := resultType(right)
	promoted, ok := sonictype.Promote(lt, rt)
	if !ok {
		return nil, nil, 0, false, sonicerr.NewSchemaError(sonicerr.ErrTypeMismatch, "", "cannot unify %s and %s", lt, rt)
	}
	l, err := b.coerceNumeric(left, promoted)
	if err != nil {
		return nil, nil, 0, false, err
	}
	r, err := b.coerceNumeric(right, promoted)
	if err != nil {
		return nil, nil, 0, false, err
	}
	return l, r, promoted, lnull || rnull, nil
}

func compileRegex(pattern string) (*regexp.Regexp, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, sonicerr.NewSchemaError(sonicerr.ErrInvalidArgument, "pattern", "regexp compile error: %s", err)
	}
	return re, nil
}
