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

// Package batch implements the zero-copy columnar data model: typed
// column buffers owned by a Block, non-owning Views over them,
// arena-backed variable-length storage, row permutations, and the
// skip-vector mechanism used for NULL propagation and short-circuit
// evaluation.
package batch

import (
	"fmt"

	"github.com/supersonic-go/supersonic/sonicerr"
	"github.com/supersonic-go/supersonic/sonictype"
)

// Attribute names a single typed, possibly-nullable column.
type Attribute struct {
	Name        string
	Type        sonictype.DataType
	Nullability sonictype.Nullability
}

func (a Attribute) Nullable() bool { return a.Nullability == sonictype.NULLABLE }

func (a Attribute) String() string {
	return fmt.Sprintf("%s:%s/%s", a.Name, a.Type, a.Nullability)
}

// Schema is an ordered, name-unique sequence of attributes.
type Schema struct {
	attrs []Attribute
	index map[string]int
}

// NewSchema builds a Schema from attrs, rejecting duplicate names.
func NewSchema(attrs ...Attribute) (Schema, error) {
	idx := make(map[string]int, len(attrs))
	for i, a := range attrs {
		if _, dup := idx[a.Name]; dup {
			return Schema{}, sonicerr.NewSchemaError(sonicerr.ErrInvalidArgument, a.Name,
				"duplicate attribute name in schema")
		}
		idx[a.Name] = i
	}
	cp := make([]Attribute, len(attrs))
	copy(cp, attrs)
	return Schema{attrs: cp, index: idx}, nil
}

// MustSchema is NewSchema, panicking on error; intended for tests
// and static schema construction.
func MustSchema(attrs ...Attribute) Schema {
	s, err := NewSchema(attrs...)
	if err != nil {
		panic(err)
	}
	return s
}

func (s Schema) Len() int { return len(s.attrs) }

func (s Schema) Attribute(i int) Attribute { return s.attrs[i] }

func (s Schema) Attributes() []Attribute { return s.attrs }

// IndexOf returns the position of name in the schema, or -1 if absent.
func (s Schema) IndexOf(name string) int {
	if i, ok := s.index[name]; ok {
		return i
	}
	return -1
}

// Append returns a new Schema with extra attributes appended. It
// still rejects duplicate names across the combined set.
func (s Schema) Append(extra ...Attribute) (Schema, error) {
	all := make([]Attribute, 0, len(s.attrs)+len(extra))
	all = append(all, s.attrs...)
	all = append(all, extra...)
	return NewSchema(all...)
}

// Project returns the sub-schema consisting of the attributes at the
// given positions, in that order (positions may repeat or reorder).
func (s Schema) Project(positions []int) Schema {
	attrs := make([]Attribute, len(positions))
	for i, p := range positions {
		attrs[i] = s.attrs[p]
	}
	// renaming/duplication is legal in a projection result, so build
	// directly rather than through NewSchema's uniqueness check.
	idx := make(map[string]int, len(attrs))
	for i, a := range attrs {
		idx[a.Name] = i // last occurrence wins, matching SQL projection semantics
	}
	return Schema{attrs: attrs, index: idx}
}

func (s Schema) String() string {
	out := "("
	for i, a := range s.attrs {
		if i > 0 {
			out += ", "
		}
		out += a.String()
	}
	return out + ")"
}
