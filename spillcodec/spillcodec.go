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

// Package spillcodec serializes a batch.View to and from a spill
// file: a row count, followed by one length-prefixed frame per
// column, so a reader can skip a column it doesn't need without
// decoding its payload.
package spillcodec

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/klauspost/compress/s2"

	"github.com/supersonic-go/supersonic/batch"
	"github.com/supersonic-go/supersonic/sonictype"
)

var order = binary.LittleEndian

// WriteView writes v's rows to w. arenas must have one entry per
// column of v's schema; entries for fixed-width columns are unused.
func WriteView(w io.Writer, v batch.View, arenas []*batch.Arena) error {
	if err := writeU32(w, uint32(v.RowCount())); err != nil {
		return err
	}
	for i := 0; i < v.Schema().Len(); i++ {
		var arena *batch.Arena
		if i < len(arenas) {
			arena = arenas[i]
		}
		if err := writeColumnFrame(w, v.Column(i), v.RowCount(), arena); err != nil {
			return fmt.Errorf("spillcodec: column %d: %w", i, err)
		}
	}
	return nil
}

// ReadView reads a View previously written by WriteView into blk,
// which must have at least the capacity the frame declares. The
// returned View borrows blk's storage.
func ReadView(r io.Reader, schema batch.Schema, blk *batch.Block) (batch.View, error) {
	rowCount, err := readU32(r)
	if err != nil {
		return batch.View{}, err
	}
	n := int(rowCount)
	if n > blk.Capacity() {
		return batch.View{}, fmt.Errorf("spillcodec: row count %d exceeds block capacity %d", n, blk.Capacity())
	}
	for i := 0; i < schema.Len(); i++ {
		if err := readColumnFrame(r, blk.Column(i), n, blk.Arena(i)); err != nil {
			return batch.View{}, fmt.Errorf("spillcodec: column %d: %w", i, err)
		}
	}
	blk.SetRowCount(n)
	return blk.View(), nil
}

// writeColumnFrame writes one length-prefixed frame: a null-bitmap
// flag/bitmap, then the column's typed payload, s2-compressed as a
// whole. Spill files are read back by the same process that wrote
// them and never touched by a different tool, so a fast
// block-compression format that trades ratio for speed (rather than
// ion's own framing, which a general reader also has to understand)
// is the right fit here.
func writeColumnFrame(w io.Writer, col *batch.Column, n int, arena *batch.Arena) error {
	var buf []byte
	var err error
	buf, err = appendNullBitmap(buf, col, n)
	if err != nil {
		return err
	}
	buf, err = appendPayload(buf, col, n, arena)
	if err != nil {
		return err
	}
	compressed := s2.Encode(make([]byte, s2.MaxEncodedLen(len(buf))), buf)
	if err := writeU32(w, uint32(len(compressed))); err != nil {
		return err
	}
	_, err = w.Write(compressed)
	return err
}

func readColumnFrame(r io.Reader, col *batch.Column, n int, arena *batch.Arena) error {
	frameLen, err := readU32(r)
	if err != nil {
		return err
	}
	compressed := make([]byte, frameLen)
	if _, err := io.ReadFull(r, compressed); err != nil {
		return err
	}
	buf, err := s2.Decode(nil, compressed)
	if err != nil {
		return fmt.Errorf("spillcodec: decompressing frame: %w", err)
	}
	buf, err = consumeNullBitmap(buf, col, n)
	if err != nil {
		return err
	}
	return consumePayload(buf, col, n, arena)
}

func appendNullBitmap(buf []byte, col *batch.Column, n int) ([]byte, error) {
	if col.IsNull == nil {
		return append(buf, 0), nil
	}
	buf = append(buf, 1)
	for i := 0; i < n; i++ {
		b := byte(0)
		if col.IsNull[i] {
			b = 1
		}
		buf = append(buf, b)
	}
	return buf, nil
}

func consumeNullBitmap(buf []byte, col *batch.Column, n int) ([]byte, error) {
	if len(buf) < 1 {
		return nil, io.ErrUnexpectedEOF
	}
	has := buf[0] == 1
	buf = buf[1:]
	if !has {
		return buf, nil
	}
	if len(buf) < n {
		return nil, io.ErrUnexpectedEOF
	}
	col.EnsureNulls(n)
	for i := 0; i < n; i++ {
		col.IsNull[i] = buf[i] == 1
	}
	return buf[n:], nil
}

func appendPayload(buf []byte, col *batch.Column, n int, arena *batch.Arena) ([]byte, error) {
	switch col.Type {
	case sonictype.INT32:
		return appendFixed32(buf, col.Int32[:n]), nil
	case sonictype.UINT32:
		return appendFixed32(buf, col.Uint32[:n]), nil
	case sonictype.FLOAT:
		return appendFixed32(buf, col.Float32[:n]), nil
	case sonictype.DATE:
		return appendFixed32(buf, col.Date[:n]), nil
	case sonictype.ENUM:
		return appendFixed32(buf, col.Enum[:n]), nil
	case sonictype.DATA_TYPE:
		raw := make([]uint32, n)
		for i, v := range col.DataType[:n] {
			raw[i] = uint32(v)
		}
		return appendFixed32(buf, raw), nil
	case sonictype.INT64:
		return appendFixed64(buf, col.Int64[:n]), nil
	case sonictype.UINT64:
		return appendFixed64(buf, col.Uint64[:n]), nil
	case sonictype.DOUBLE:
		return appendFixed64(buf, col.Float64[:n]), nil
	case sonictype.DATETIME:
		return appendFixed64(buf, col.Datetime[:n]), nil
	case sonictype.BOOL:
		for _, v := range col.Bool[:n] {
			b := byte(0)
			if v {
				b = 1
			}
			buf = append(buf, b)
		}
		return buf, nil
	case sonictype.STRING, sonictype.BINARY:
		for _, ref := range col.Str[:n] {
			b := arena.Bytes(ref)
			buf = order.AppendUint32(buf, uint32(len(b)))
			buf = append(buf, b...)
		}
		return buf, nil
	default:
		return nil, fmt.Errorf("spillcodec: unsupported column type %s", col.Type)
	}
}

func consumePayload(buf []byte, col *batch.Column, n int, arena *batch.Arena) error {
	switch col.Type {
	case sonictype.INT32:
		return consumeFixed32(buf, col.Int32[:n])
	case sonictype.UINT32:
		return consumeFixed32(buf, col.Uint32[:n])
	case sonictype.FLOAT:
		return consumeFixed32(buf, col.Float32[:n])
	case sonictype.DATE:
		return consumeFixed32(buf, col.Date[:n])
	case sonictype.ENUM:
		return consumeFixed32(buf, col.Enum[:n])
	case sonictype.DATA_TYPE:
		raw := make([]uint32, n)
		if err := consumeFixed32(buf, raw); err != nil {
			return err
		}
		for i, v := range raw {
			col.DataType[i] = sonictype.DataType(v)
		}
		return nil
	case sonictype.INT64:
		return consumeFixed64(buf, col.Int64[:n])
	case sonictype.UINT64:
		return consumeFixed64(buf, col.Uint64[:n])
	case sonictype.DOUBLE:
		return consumeFixed64(buf, col.Float64[:n])
	case sonictype.DATETIME:
		return consumeFixed64(buf, col.Datetime[:n])
	case sonictype.BOOL:
		if len(buf) < n {
			return io.ErrUnexpectedEOF
		}
		for i := 0; i < n; i++ {
			col.Bool[i] = buf[i] == 1
		}
		return nil
	case sonictype.STRING, sonictype.BINARY:
		for i := 0; i < n; i++ {
			if len(buf) < 4 {
				return io.ErrUnexpectedEOF
			}
			l := order.Uint32(buf)
			buf = buf[4:]
			if len(buf) < int(l) {
				return io.ErrUnexpectedEOF
			}
			ref, err := arena.Put(buf[:l])
			if err != nil {
				return err
			}
			col.Str[i] = ref
			buf = buf[l:]
		}
		return nil
	default:
		return fmt.Errorf("spillcodec: unsupported column type %s", col.Type)
	}
}

// fixed32 is the set of column element types with a 4-byte little-endian wire form.
type fixed32 interface{ int32 | uint32 | float32 }

func appendFixed32[T fixed32](buf []byte, vals []T) []byte {
	for _, v := range vals {
		buf = order.AppendUint32(buf, asUint32(v))
	}
	return buf
}

func consumeFixed32[T fixed32](buf []byte, out []T) error {
	if len(buf) < 4*len(out) {
		return io.ErrUnexpectedEOF
	}
	for i := range out {
		out[i] = fromUint32[T](order.Uint32(buf[4*i:]))
	}
	return nil
}

type fixed64 interface{ int64 | uint64 | float64 }

func appendFixed64[T fixed64](buf []byte, vals []T) []byte {
	for _, v := range vals {
		buf = order.AppendUint64(buf, asUint64(v))
	}
	return buf
}

func consumeFixed64[T fixed64](buf []byte, out []T) error {
	if len(buf) < 8*len(out) {
		return io.ErrUnexpectedEOF
	}
	for i := range out {
		out[i] = fromUint64[T](order.Uint64(buf[8*i:]))
	}
	return nil
}

func writeU32(w io.Writer, v uint32) error {
	var b [4]byte
	order.PutUint32(b[:], v)
	_, err := w.Write(b[:])
	return err
}

func readU32(r io.Reader) (uint32, error) {
	var b [4]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return order.Uint32(b[:]), nil
}
