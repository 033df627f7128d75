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

package spillcodec

import "math"

func asUint32[T fixed32](v T) uint32 {
	switch x := any(v).(type) {
	case int32:
		return uint32(x)
	case uint32:
		return x
	case float32:
		return math.Float32bits(x)
	}
	return 0
}

func fromUint32[T fixed32](u uint32) T {
	var zero T
	switch any(zero).(type) {
	case int32:
		return any(int32(u)).(T)
	case uint32:
		return any(u).(T)
	case float32:
		return any(math.Float32frombits(u)).(T)
	}
	return zero
}

func asUint64[T fixed64](v T) uint64 {
	switch x := any(v).(type) {
	case int64:
		return uint64(x)
	case uint64:
		return x
	case float64:
		return math.Float64bits(x)
	}
	return 0
}

func fromUint64[T fixed64](u uint64) T {
	var zero T
	switch any(zero).(type) {
	case int64:
		return any(int64(u)).(T)
	case uint64:
		return any(u).(T)
	case float64:
		return any(math.Float64frombits(u)).(T)
	}
	return zero
}
