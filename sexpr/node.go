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

import (
	"fmt"
	"strings"

	"github.com/supersonic-go/supersonic/sonictype"
)

// Node is any symbolic expression tree node. The tree is strict:
// a parent exclusively owns its Children; nodes are immutable once
// constructed.
type Node interface {
	// Children returns the node's operands, in evaluation order.
	Children() []Node
	// String renders the node for diagnostics.
	String() string
}

// Constant is a literal value with a fixed DataType; a nil Value
// encodes NULL.
type Constant struct {
	Type  sonictype.DataType
	Value any
}

func (c *Constant) Children() []Node { return nil }

func (c *Constant) String() string {
	if c.Value == nil {
		return "NULL"
	}
	return fmt.Sprintf("%v", c.Value)
}

// Variable references an attribute of the input schema by name.
type Variable struct {
	Name string
}

func (v *Variable) Children() []Node { return nil }

func (v *Variable) String() string { return v.Name }

// Path addresses a nested column by an absolute attribute path,
// e.g. for struct-valued columns; component[0] is the top-level
// attribute name.
type Path struct {
	Component []string
}

func (p *Path) Children() []Node { return nil }

func (p *Path) String() string { return strings.Join(p.Component, ".") }

// Operation is an application of op to a fixed list of argument
// sub-expressions. Most kernels (arithmetic, comparison, string,
// regex, CASE, IF, CAST, projection) are represented as Operation
// nodes; only the binder knows which kernel a given (op, arg types)
// combination resolves to.
type Operation struct {
	Op   OperationType
	Args []Node

	// Pattern is the compile-time-constant regex pattern argument for
	// REGEXP_* operations; it is carried out-of-band from Args because
	// it must be a literal, never a computed expression (regex
	// kernels compile their pattern once at bind time).
	Pattern string
}

func (o *Operation) Children() []Node { return o.Args }

func (o *Operation) String() string {
	parts := make([]string, len(o.Args))
	for i, a := range o.Args {
		parts[i] = a.String()
	}
	return fmt.Sprintf("%s(%s)", o.Op, strings.Join(parts, ", "))
}

// CustomFunctionCall invokes a user-registered function by name.
// Package bind has no function registry and rejects this node as
// unsupported.
type CustomFunctionCall struct {
	Name string
	Args []Node
}

func (c *CustomFunctionCall) Children() []Node { return c.Args }

func (c *CustomFunctionCall) String() string {
	parts := make([]string, len(c.Args))
	for i, a := range c.Args {
		parts[i] = a.String()
	}
	return fmt.Sprintf("%s(%s)", c.Name, strings.Join(parts, ", "))
}

// Tuple groups a fixed list of sub-expressions into a single
// multi-attribute result, e.g. the (then, else) pairs of a CASE.
type Tuple struct {
	Elements []Node
}

func (t *Tuple) Children() []Node { return t.Elements }

func (t *Tuple) String() string {
	parts := make([]string, len(t.Elements))
	for i, e := range t.Elements {
		parts[i] = e.String()
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

// Binding names a sub-expression's output attribute, used by
// Projection and CompoundExpression to assign output names/aliases.
type Binding struct {
	Expr Node
	As   string
}

// Op is a convenience constructor for an Operation node.
func Op(op OperationType, args ...Node) *Operation {
	return &Operation{Op: op, Args: args}
}

// Const wraps a literal value as a Constant node.
func Const(t sonictype.DataType, v any) *Constant {
	return &Constant{Type: t, Value: v}
}

// Var references an attribute by name.
func Var(name string) *Variable {
	return &Variable{Name: name}
}
