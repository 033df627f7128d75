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

// BoundParseString converts a STRING operand to a numeric or BOOL
// type. The whole string must parse or the result is NULL: no
// leading/trailing whitespace tolerance, no partial parses.
type BoundParseString struct {
	child   arenaSource
	schema  batch.Schema
	scratch *batch.Block
	fn      castFn
}

func NewBoundParseString(child BoundExpression, t sonictype.DataType, maxRows int, alloc mem.Allocator) *BoundParseString {
	schema := batch.MustSchema(batch.Attribute{Name: "$parse_string", Type: t, Nullability: sonictype.NULLABLE})
	return &BoundParseString{
		child: asArenaSource(child), schema: schema,
		scratch: batch.NewBlock(schema, maxRows, alloc),
		fn:      castStringToNumeric(t),
	}
}

func (p *BoundParseString) ResultSchema() batch.Schema { return p.schema }
func (p *BoundParseString) RowCapacity() uint64        { return p.child.RowCapacity() }
func (p *BoundParseString) CollectReferredAttributeNames(names map[string]struct{}) {
	p.child.CollectReferredAttributeNames(names)
}

func (p *BoundParseString) DoEvaluate(input batch.View, skip batch.SkipVector) (batch.View, error) {
	n := input.RowCount()
	cv, err := p.child.DoEvaluate(input, skip)
	if err != nil {
		return batch.View{}, err
	}
	ccol := cv.Column(0)
	arena := p.child.ResultArena()
	p.scratch.ResetArenas()
	dst := p.scratch.Column(0)
	for i := 0; i < n; i++ {
		if skip.Get(i) {
			continue
		}
		if ccol.Null(i) {
			skip.Set(i, true)
			continue
		}
		if !p.fn(ccol, arena, i, dst, nil, i) {
			skip.Set(i, true)
		}
	}
	dst.ResetIsNull(skip, n)
	p.scratch.SetRowCount(n)
	return p.scratch.View(), nil
}
