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

import (
	"bytes"
	"testing"

	"github.com/supersonic-go/supersonic/batch"
	"github.com/supersonic-go/supersonic/mem"
	"github.com/supersonic-go/supersonic/sonictype"
)

func TestRoundTrip(t *testing.T) {
	schema, err := batch.NewSchema(
		batch.Attribute{Name: "n", Type: sonictype.INT64, Nullability: sonictype.NULLABLE},
		batch.Attribute{Name: "f", Type: sonictype.DOUBLE, Nullability: sonictype.NOT_NULLABLE},
		batch.Attribute{Name: "s", Type: sonictype.STRING, Nullability: sonictype.NOT_NULLABLE},
	)
	if err != nil {
		t.Fatalf("NewSchema: %v", err)
	}
	src := batch.NewBlock(schema, 4, mem.Root())
	copy(src.Column(0).Int64, []int64{1, 2, 0, 4})
	src.Column(0).EnsureNulls(4)
	src.Column(0).IsNull[2] = true
	copy(src.Column(1).Float64, []float64{1.5, -2.25, 0, 3.75})
	strs := []string{"alpha", "", "gamma", "delta"}
	for i, s := range strs {
		ref, err := src.Arena(2).Put([]byte(s))
		if err != nil {
			t.Fatalf("Put: %v", err)
		}
		src.Column(2).Str[i] = ref
	}
	src.SetRowCount(4)
	v := src.View()
	arenas := []*batch.Arena{src.Arena(0), src.Arena(1), src.Arena(2)}

	var buf bytes.Buffer
	if err := WriteView(&buf, v, arenas); err != nil {
		t.Fatalf("WriteView: %v", err)
	}

	dst := batch.NewBlock(schema, 4, mem.Root())
	got, err := ReadView(&buf, schema, dst)
	if err != nil {
		t.Fatalf("ReadView: %v", err)
	}
	if got.RowCount() != 4 {
		t.Fatalf("row count: got %d, want 4", got.RowCount())
	}
	if got.Column(0).Int64[0] != 1 || got.Column(0).Int64[3] != 4 {
		t.Fatalf("int64 column mismatch: %v", got.Column(0).Int64)
	}
	if !got.Column(0).Null(2) {
		t.Fatalf("expected row 2 to be null")
	}
	if got.Column(1).Float64[1] != -2.25 {
		t.Fatalf("float64 column mismatch: %v", got.Column(1).Float64)
	}
	for i, want := range strs {
		gotStr := string(dst.Arena(2).Bytes(got.Column(2).Str[i]))
		if gotStr != want {
			t.Fatalf("string row %d: got %q, want %q", i, gotStr, want)
		}
	}
}
