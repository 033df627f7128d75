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

package sonictype

// rank orders numeric types from narrowest to widest for promotion
// purposes; DOUBLE is always the widest.
var rank = map[DataType]int{
	INT32:  0,
	UINT32: 0,
	INT64:  1,
	UINT64: 1,
	FLOAT:  2,
	DOUBLE: 3,
}

// Promote returns the result type of combining a and b in an arithmetic
// expression, following a fixed lattice: wider integer width wins,
// any operand touching FLOAT or DOUBLE widens to that float type, and
// mixed signedness at the same width promotes to the signed type
// (e.g. INT32+UINT32 -> INT64, to avoid silently wrapping).
//
// Promote reports ok=false if a or b is not numeric.
func Promote(a, b DataType) (result DataType, ok bool) {
	if !a.Numeric() || !b.Numeric() {
		return INVALID, false
	}
	if a == b {
		return a, true
	}
	ra, rb := rank[a], rank[b]
	if ra == 3 || rb == 3 {
		return DOUBLE, true
	}
	if ra == 2 || rb == 2 {
		return FLOAT, true
	}
	if ra != rb {
		if ra > rb {
			return a, true
		}
		return b, true
	}
	// same rank, mixed signedness (e.g. INT32 vs UINT32): widen to the
	// next signed rank up so the result can represent both ranges.
	switch ra {
	case 0:
		return INT64, true
	default:
		return INT64, true
	}
}
