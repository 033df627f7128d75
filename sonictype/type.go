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

// Package sonictype defines the closed set of column data types
// that flow through batches, expressions, and sort kernels.
package sonictype

import "fmt"

// DataType is the closed enumeration of types a Column may hold.
type DataType uint8

const (
	INVALID DataType = iota
	INT32
	INT64
	UINT32
	UINT64
	FLOAT
	DOUBLE
	BOOL
	DATE     // days since epoch, stored as int32
	DATETIME // microseconds since epoch, stored as int64
	STRING   // UTF-8 bytes + length, arena-backed
	BINARY   // raw bytes, arena-backed
	ENUM
	DATA_TYPE // a DataType value itself, used by DATA_TYPE-typed columns
)

var names = [...]string{
	INVALID:   "INVALID",
	INT32:     "INT32",
	INT64:     "INT64",
	UINT32:    "UINT32",
	UINT64:    "UINT64",
	FLOAT:     "FLOAT",
	DOUBLE:    "DOUBLE",
	BOOL:      "BOOL",
	DATE:      "DATE",
	DATETIME:  "DATETIME",
	STRING:    "STRING",
	BINARY:    "BINARY",
	ENUM:      "ENUM",
	DATA_TYPE: "DATA_TYPE",
}

func (d DataType) String() string {
	if int(d) < len(names) && names[d] != "" {
		return names[d]
	}
	return fmt.Sprintf("DataType(%d)", uint8(d))
}

// Fixed reports whether values of d have a fixed per-row byte width
// (as opposed to STRING/BINARY, which are arena-backed descriptors).
func (d DataType) Fixed() bool {
	switch d {
	case STRING, BINARY:
		return false
	default:
		return true
	}
}

// Size returns the fixed per-row byte width of d, or 0 if d is variable-width.
func (d DataType) Size() int {
	switch d {
	case INT32, UINT32, FLOAT, DATE, ENUM, DATA_TYPE:
		return 4
	case INT64, UINT64, DOUBLE, DATETIME:
		return 8
	case BOOL:
		return 1
	default:
		return 0
	}
}

// Numeric reports whether d participates in the arithmetic promotion lattice.
func (d DataType) Numeric() bool {
	switch d {
	case INT32, INT64, UINT32, UINT64, FLOAT, DOUBLE:
		return true
	default:
		return false
	}
}

// Nullability distinguishes attributes that may contain NULL from
// those that are guaranteed not to.
type Nullability uint8

const (
	NOT_NULLABLE Nullability = iota
	NULLABLE
)

func (n Nullability) String() string {
	if n == NULLABLE {
		return "NULLABLE"
	}
	return "NOT_NULLABLE"
}
