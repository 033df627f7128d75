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
)

// bindRegexBool covers REGEXP_PARTIAL/REGEXP_FULL: Args is [child],
// the pattern lives in o.Pattern and is compiled once, at bind time.
func (b *binder) bindRegexBool(o *sexpr.Operation) (eval.BoundExpression, error) {
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
	re, err := compileRegex(o.Pattern)
	if err != nil {
		return nil, err
	}
	name := o.Op.String()
	if o.Op == sexpr.OpRegexpFull {
		return eval.NewBoundRegexpFull(name, args[0], re, b.maxRows, b.alloc), nil
	}
	return eval.NewBoundRegexpPartial(name, args[0], re, b.maxRows, b.alloc), nil
}

// bindRegexExtract covers REGEXP_EXTRACT: Args is [child], pattern in o.Pattern.
func (b *binder) bindRegexExtract(o *sexpr.Operation) (eval.BoundExpression, error) {
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
	re, err := compileRegex(o.Pattern)
	if err != nil {
		return nil, err
	}
	return eval.NewBoundRegexpExtract(args[0], re, b.maxRows, b.alloc), nil
}

// bindRegexReplace covers REGEXP_REPLACE: Args is [child, repl],
// pattern in o.Pattern.
func (b *binder) bindRegexReplace(o *sexpr.Operation) (eval.BoundExpression, error) {
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
	re, err := compileRegex(o.Pattern)
	if err != nil {
		return nil, err
	}
	return eval.NewBoundRegexpReplace(args[0], args[1], re, anyNullable(args), b.maxRows, b.alloc), nil
}
