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

import "github.com/supersonic-go/supersonic/batch"

// Typed column accessors used to instantiate the generic arithmetic
// and comparison kernels in package bind, one per numeric DataType.

func Int32Slice(c *batch.Column) []int32     { return c.Int32 }
func Int64Slice(c *batch.Column) []int64     { return c.Int64 }
func Uint32Slice(c *batch.Column) []uint32   { return c.Uint32 }
func Uint64Slice(c *batch.Column) []uint64   { return c.Uint64 }
func Float32Slice(c *batch.Column) []float32 { return c.Float32 }
func Float64Slice(c *batch.Column) []float64 { return c.Float64 }
