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

// Package sonicerr defines the error taxonomy shared by binding and
// evaluation: schema errors (400-499, raised synchronously from Bind)
// and evaluate-time errors (raised from DoEvaluate/Write).
package sonicerr

import "fmt"

// SchemaCode enumerates the schema-error family, occupying the
// 400-499 range described by the binding contract.
type SchemaCode int

const (
	ErrUnknownAttribute SchemaCode = 400 + iota
	ErrTypeMismatch
	ErrArity
	ErrUnsupported
	ErrNotImplemented
	ErrDuplicateSortKey
	ErrInvalidArgument
)

func (c SchemaCode) String() string {
	switch c {
	case ErrUnknownAttribute:
		return "ERR_UNKNOWN_ATTRIBUTE"
	case ErrTypeMismatch:
		return "ERR_TYPE_MISMATCH"
	case ErrArity:
		return "ERR_ARITY"
	case ErrUnsupported:
		return "ERR_UNSUPPORTED"
	case ErrNotImplemented:
		return "ERROR_NOT_IMPLEMENTED"
	case ErrDuplicateSortKey:
		return "ERROR_INVALID_ARGUMENT_VALUE"
	case ErrInvalidArgument:
		return "ERROR_INVALID_ARGUMENT_VALUE"
	default:
		return fmt.Sprintf("SchemaCode(%d)", int(c))
	}
}

// SchemaError is returned synchronously from Bind when a symbolic
// expression cannot be resolved against an input schema.
type SchemaError struct {
	Code SchemaCode
	Attr string // offending attribute name, if any
	Msg  string
}

func (e *SchemaError) Error() string {
	if e.Attr != "" {
		return fmt.Sprintf("%s: %s: %s", e.Code, e.Attr, e.Msg)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Msg)
}

// NewSchemaError builds a SchemaError with a formatted message.
func NewSchemaError(code SchemaCode, attr, format string, args ...any) *SchemaError {
	return &SchemaError{Code: code, Attr: attr, Msg: fmt.Sprintf(format, args...)}
}

// EvalError is raised by a signaling kernel when it encounters
// input it cannot evaluate (e.g. DIVIDE_SIGNALING by zero).
type EvalError struct {
	Op  string
	Row int
	Msg string
}

func (e *EvalError) Error() string {
	return fmt.Sprintf("evaluation error in %s at row %d: %s", e.Op, e.Row, e.Msg)
}

// NewEvalError builds an EvalError.
func NewEvalError(op string, row int, format string, args ...any) *EvalError {
	return &EvalError{Op: op, Row: row, Msg: fmt.Sprintf(format, args...)}
}

// MemoryError corresponds to ERROR_MEMORY_EXCEEDED: an allocator's
// hard quota was exhausted and no progress could be made even after
// a flush/compact attempt.
type MemoryError struct {
	Msg string
}

func (e *MemoryError) Error() string { return "ERROR_MEMORY_EXCEEDED: " + e.Msg }

// NewMemoryError builds a MemoryError.
func NewMemoryError(format string, args ...any) *MemoryError {
	return &MemoryError{Msg: fmt.Sprintf(format, args...)}
}

// SpillError corresponds to ERROR_TEMP_FILE_CREATION_ERROR and other
// spill-file I/O failures.
type SpillError struct {
	Dir string
	Err error
}

func (e *SpillError) Error() string {
	return fmt.Sprintf("ERROR_TEMP_FILE_CREATION_ERROR: couldn't create temp file in %s: %s", e.Dir, e.Err)
}

func (e *SpillError) Unwrap() error { return e.Err }

// NewSpillError builds a SpillError.
func NewSpillError(dir string, err error) *SpillError {
	return &SpillError{Dir: dir, Err: err}
}

// NotImplemented corresponds to ERROR_NOT_IMPLEMENTED for
// operations that are part of the wire format but have no kernel
// (e.g. REGEXP_REWRITE).
type NotImplemented struct {
	What string
}

func (e *NotImplemented) Error() string { return "ERROR_NOT_IMPLEMENTED: " + e.What }

// NewNotImplemented builds a NotImplemented error.
func NewNotImplemented(what string) *NotImplemented {
	return &NotImplemented{What: what}
}
