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

import "github.com/supersonic-go/supersonic/mem"

const (
	arenaMinChunk = 4 << 10
	arenaMaxChunk = 1 << 20
)

// Arena is a bump allocator for variable-length STRING/BINARY
// storage. It grows by chunk-doubling (capped at arenaMaxChunk) and
// is reset between Evaluate calls that reuse the same owning Block;
// a Reset drops every chunk, so chunk capacity does not survive
// across batches.
//
// Every descriptor handed out by Put is only valid until the next
// Reset call on the same Arena.
type Arena struct {
	alloc  mem.Allocator
	chunks [][]byte
	cur    []byte // tail of chunks[len(chunks)-1], not yet consumed
	used   int64  // bytes currently accounted to alloc
}

// NewArena constructs an empty Arena backed by alloc.
func NewArena(alloc mem.Allocator) *Arena {
	return &Arena{alloc: alloc}
}

// Put copies b into the arena and returns a (offset, length)
// descriptor identifying a chunk index and byte range within it.
func (a *Arena) Put(b []byte) (Ref, error) {
	if len(a.cur) < len(b) {
		if err := a.grow(len(b)); err != nil {
			return Ref{}, err
		}
	}
	chunkIdx := len(a.chunks) - 1
	chunk := a.chunks[chunkIdx]
	off := len(chunk) - len(a.cur)
	copy(a.cur, b)
	a.cur = a.cur[len(b):]
	return Ref{Chunk: int32(chunkIdx), Offset: int32(off), Length: int32(len(b))}, nil
}

func (a *Arena) grow(need int) error {
	size := arenaMinChunk
	if len(a.chunks) > 0 {
		size = len(a.chunks[len(a.chunks)-1]) * 2
		if size > arenaMaxChunk {
			size = arenaMaxChunk
		}
	}
	for size < need {
		size *= 2
	}
	if !a.alloc.Allocate(int64(size)) {
		return errArenaExhausted
	}
	a.used += int64(size)
	buf := make([]byte, size)
	a.chunks = append(a.chunks, buf)
	a.cur = buf
	return nil
}

// Bytes returns the bytes described by ref. The returned slice is
// valid only until the next Reset of this Arena.
func (a *Arena) Bytes(ref Ref) []byte {
	if ref.Length == 0 {
		return nil
	}
	c := a.chunks[ref.Chunk]
	return c[ref.Offset : ref.Offset+ref.Length]
}

// Reset drops every chunk and frees the bytes they accounted to the
// allocator; the next Put allocates a fresh chunk, starting again at
// arenaMinChunk.
func (a *Arena) Reset() {
	a.chunks = a.chunks[:0]
	a.cur = nil
	if a.used > 0 {
		a.alloc.Free(a.used)
		a.used = 0
	}
}

// Ref is a descriptor pointing at a byte range inside an Arena.
type Ref struct {
	Chunk  int32
	Offset int32
	Length int32
}

var errArenaExhausted = &arenaError{"arena allocator quota exhausted"}

type arenaError struct{ msg string }

func (e *arenaError) Error() string { return e.msg }
