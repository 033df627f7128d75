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

// Package cursor defines the pull-based batch iteration contract that
// sortcore and extsort drive: a Cursor produces Views on demand and
// reports end-of-stream, an upstream barrier wait, or an error through
// a small discriminated Result rather than panicking or overloading
// a bare error return.
package cursor

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/supersonic-go/supersonic/batch"
	"github.com/supersonic-go/supersonic/internal/slog"
)

// Kind discriminates the possible outcomes of a call to Cursor.Next.
type Kind int

const (
	// Batch carries a non-empty View of up to the requested row count.
	Batch Kind = iota
	// EOS reports that the cursor is exhausted; no further Views follow.
	EOS
	// WaitingOnBarrier reports that the cursor cannot make progress
	// until some upstream synchronization point releases it (e.g. a
	// sorter waiting for every input to finish writing before it can
	// emit its first output row). Callers should retry later.
	WaitingOnBarrier
	// Error reports that Next failed; Result.Err carries the cause.
	Error
)

func (k Kind) String() string {
	switch k {
	case Batch:
		return "Batch"
	case EOS:
		return "EOS"
	case WaitingOnBarrier:
		return "WaitingOnBarrier"
	case Error:
		return "Error"
	default:
		return "Unknown"
	}
}

// Result is the tagged outcome of a single Cursor.Next call.
type Result struct {
	Kind Kind
	View batch.View
	Err  error
}

// BatchResult wraps v as a Batch result.
func BatchResult(v batch.View) Result { return Result{Kind: Batch, View: v} }

// EOSResult is the shared EOS sentinel result.
var EOSResult = Result{Kind: EOS}

// WaitingResult is the shared WaitingOnBarrier sentinel result.
var WaitingResult = Result{Kind: WaitingOnBarrier}

// errInterrupted is the cause reported when a cursor was interrupted
// while its ctx is still live (ctx.Err() is then nil).
var errInterrupted = errors.New("cursor: interrupted")

// ErrorResult wraps err as an Error result; a nil err becomes
// errInterrupted, so an Error result always carries a cause.
func ErrorResult(err error) Result {
	if err == nil {
		err = errInterrupted
	}
	return Result{Kind: Error, Err: err}
}

// Cursor is a pull-based source of batches over a fixed schema.
// Implementations are driven by a single consuming goroutine; the
// only operation expected to be called concurrently with Next is
// Interrupt.
type Cursor interface {
	// Schema reports the column layout every Batch result carries.
	Schema() batch.Schema
	// Next advances the cursor by at most max rows.
	Next(ctx context.Context, max int) Result
	// Interrupt asks a running or future Next call to abandon work
	// and return an Error result as soon as it observes the request.
	// Safe to call concurrently with Next.
	Interrupt()
	// ApplyToChildren calls fn on every cursor this one wraps, letting
	// callers rewrite a cursor tree in place (e.g. to attach a Limit).
	ApplyToChildren(fn func(Cursor) Cursor)
	// CursorID names the cursor for diagnostics; need not be unique.
	CursorID() string
}

// BarrierAware is implemented by cursors able to report
// WaitingOnBarrier; cursors that can never produce that Kind need not
// implement it, and IsWaitingOnBarrierSupported treats their absence
// as false.
type BarrierAware interface {
	IsWaitingOnBarrierSupported() bool
}

// IsWaitingOnBarrierSupported reports whether c itself, through
// BarrierAware, says it can produce a WaitingOnBarrier result;
// wrapped children are not inspected.
func IsWaitingOnBarrierSupported(c Cursor) bool {
	if ba, ok := c.(BarrierAware); ok {
		supported := ba.IsWaitingOnBarrierSupported()
		if supported {
			slog.Printf("cursor: %s may report WaitingOnBarrier", c.CursorID())
		}
		return supported
	}
	return false
}

// Interrupted is an atomic flag embeddable in Cursor implementations
// that need cooperative cancellation alongside ctx.Done(): both
// signals are honored, matching the dual cancellation style used
// elsewhere in this module.
type Interrupted struct {
	flag atomic.Bool
}

func (i *Interrupted) Interrupt() {
	i.flag.Store(true)
	slog.Printf("cursor: interrupt requested")
}

func (i *Interrupted) IsInterrupted() bool { return i.flag.Load() }

// Cancelled reports whether ctx is done or i has been interrupted.
func Cancelled(ctx context.Context, i *Interrupted) bool {
	if i != nil && i.IsInterrupted() {
		return true
	}
	select {
	case <-ctx.Done():
		return true
	default:
		return false
	}
}
