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

package eval

import (
	"github.com/supersonic-go/supersonic/batch"
	"github.com/supersonic-go/supersonic/mem"
	"github.com/supersonic-go/supersonic/sonictype"
)

// BoundConstant is a no-input, no-state kernel that fills every row
// with the same literal value (or null, for an unset value field).
type BoundConstant struct {
	schema batch.Schema
	scratch *batch.Block
	value   any
	isNull  bool
}

// NewBoundConstant builds a BoundConstant of type t holding value
// (nil encodes NULL), naming its single output column name.
func NewBoundConstant(name string, t sonictype.DataType, value any, maxRows int, alloc mem.Allocator) *BoundConstant {
	nullability := sonictype.NOT_NULLABLE
	if value == nil {
		nullability = sonictype.NULLABLE
	}
	schema := batch.MustSchema(batch.Attribute{Name: name, Type: t, Nullability: nullability})
	return &BoundConstant{
		schema:  schema,
		scratch: batch.NewBlock(schema, maxRows, alloc),
		value:   value,
		isNull:  value == nil,
	}
}

func (c *BoundConstant) ResultSchema() batch.Schema { return c.schema }

func (c *BoundConstant) RowCapacity() uint64 { return uint64(c.scratch.Capacity()) }

func (c *BoundConstant) CollectReferredAttributeNames(map[string]struct{}) {}

func (c *BoundConstant) DoEvaluate(input batch.View, skip batch.SkipVector) (batch.View, error) {
	n := input.RowCount()
	c.scratch.ResetArenas()
	col := c.scratch.Column(0)
	if c.isNull {
		col.EnsureNulls(n)
		for i := 0; i < n; i++ {
			col.IsNull[i] = true
		}
	} else if col.Type == sonictype.STRING || col.Type == sonictype.BINARY {
		arena := c.scratch.Arena(0)
		ref, err := arena.Put([]byte(c.value.(string)))
		if err != nil {
			return batch.View{}, err
		}
		for i := 0; i < n; i++ {
			col.Str[i] = ref
		}
		col.ResetIsNull(skip, n)
	} else {
		if err := fillConstant(col, c.value, n); err != nil {
			return batch.View{}, err
		}
		col.ResetIsNull(skip, n)
	}
	c.scratch.SetRowCount(n)
	return c.scratch.View(), nil
}

func fillConstant(col *batch.Column, v any, n int) error {
	switch col.Type {
	case sonictype.INT32:
		x := v.(int32)
		for i := 0; i < n; i++ {
			col.Int32[i] = x
		}
	case sonictype.INT64:
		x := v.(int64)
		for i := 0; i < n; i++ {
			col.Int64[i] = x
		}
	case sonictype.UINT32:
		x := v.(uint32)
		for i := 0; i < n; i++ {
			col.Uint32[i] = x
		}
	case sonictype.UINT64:
		x := v.(uint64)
		for i := 0; i < n; i++ {
			col.Uint64[i] = x
		}
	case sonictype.FLOAT:
		x := v.(float32)
		for i := 0; i < n; i++ {
			col.Float32[i] = x
		}
	case sonictype.DOUBLE:
		x := v.(float64)
		for i := 0; i < n; i++ {
			col.Float64[i] = x
		}
	case sonictype.BOOL:
		x := v.(bool)
		for i := 0; i < n; i++ {
			col.Bool[i] = x
		}
	case sonictype.DATE:
		x := v.(int32)
		for i := 0; i < n; i++ {
			col.Date[i] = x
		}
	case sonictype.DATETIME:
		x := v.(int64)
		for i := 0; i < n; i++ {
			col.Datetime[i] = x
		}
	case sonictype.STRING, sonictype.BINARY:
		// fillConstant does not fill STRING/BINARY columns; those
		// constants are handled by the caller through the column's arena.
		return errUnsupportedConstant
	default:
		return errUnsupportedConstant
	}
	return nil
}

var errUnsupportedConstant = &kernelError{"unsupported constant type for fillConstant"}

type kernelError struct{ msg string }

func (e *kernelError) Error() string { return e.msg }
