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

package batch

// View is a non-owning, restricted window onto a Block's columns:
// an explicit RowCount no larger than the block's capacity. Slicing
// a View is cheap (it does not copy column storage); a View must
// not outlive the Block it borrows from.
type View struct {
	schema   Schema
	columns  []*Column
	rowCount int
}

// NewView constructs a View over columns with the given row count.
// columns must have one entry per attribute of schema.
func NewView(schema Schema, columns []*Column, rowCount int) View {
	return View{schema: schema, columns: columns, rowCount: rowCount}
}

func (v View) Schema() Schema { return v.schema }

func (v View) RowCount() int { return v.rowCount }

// Column returns the i'th column of the view.
func (v View) Column(i int) *Column { return v.columns[i] }

// Slice returns a View over the same columns restricted to the
// first n rows. It does not copy.
func (v View) Slice(n int) View {
	if n > v.rowCount {
		n = v.rowCount
	}
	return View{schema: v.schema, columns: v.columns, rowCount: n}
}

// Project returns a View exposing only the attributes at the given
// positions, in that order, reusing the same underlying columns
// (InputAttributeProjection's zero-copy select/rename).
func (v View) Project(positions []int) View {
	cols := make([]*Column, len(positions))
	for i, p := range positions {
		cols[i] = v.columns[p]
	}
	return View{schema: v.schema.Project(positions), columns: cols, rowCount: v.rowCount}
}
