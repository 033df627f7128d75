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

package bind

import (
	"testing"

	"github.com/supersonic-go/supersonic/batch"
	"github.com/supersonic-go/supersonic/mem"
	"github.com/supersonic-go/supersonic/sexpr"
	"github.com/supersonic-go/supersonic/sonictype"
)

func ageSchema(t *testing.T) batch.Schema {
	t.Helper()
	s, err := batch.NewSchema(
		batch.Attribute{Name: "age", Type: sonictype.INT64, Nullability: sonictype.NOT_NULLABLE},
		batch.Attribute{Name: "name", Type: sonictype.STRING, Nullability: sonictype.NOT_NULLABLE},
	)
	if err != nil {
		t.Fatalf("NewSchema: %v", err)
	}
	return s
}

func ageBlock(t *testing.T, schema batch.Schema, ages []int64, names []string) (*batch.Block, batch.View) {
	t.Helper()
	blk := batch.NewBlock(schema, len(ages), mem.Root())
	copy(blk.Column(0).Int64, ages)
	arena := blk.Arena(1)
	for i, n := range names {
		ref, err := arena.Put([]byte(n))
		if err != nil {
			t.Fatalf("Put: %v", err)
		}
		blk.Column(1).Str[i] = ref
	}
	blk.SetRowCount(len(ages))
	return blk, blk.View()
}

func TestBindCompareNumeric(t *testing.T) {
	schema := ageSchema(t)
	blk, view := ageBlock(t, schema, []int64{17, 18, 42}, []string{"a", "b", "c"})

	node := sexpr.Op(sexpr.OpGe, sexpr.Var("age"), &sexpr.Constant{Type: sonictype.INT64, Value: int64(18)})
	tree, err := Bind(node, blk, 16, mem.Root())
	if err != nil {
		t.Fatalf("Bind: %v", err)
	}
	out, err := tree.Evaluate(view)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	col := out.Column(0)
	want := []bool{false, true, true}
	for i, w := range want {
		if col.Bool[i] != w {
			t.Fatalf("row %d: got %v, want %v", i, col.Bool[i], w)
		}
	}
}

func TestBindCompareRejectsTypeMismatch(t *testing.T) {
	schema := ageSchema(t)
	blk, _ := ageBlock(t, schema, []int64{1}, []string{"x"})

	node := sexpr.Op(sexpr.OpEq, sexpr.Var("age"), &sexpr.Constant{Type: sonictype.STRING, Value: "1"})
	if _, err := Bind(node, blk, 16, mem.Root()); err == nil {
		t.Fatalf("expected a type mismatch error comparing INT64 to STRING")
	}
}

func TestBindCaseFoldUpper(t *testing.T) {
	schema := ageSchema(t)
	blk, view := ageBlock(t, schema, []int64{1, 2}, []string{"Alice", "bob"})

	node := sexpr.Op(sexpr.OpToUpper, sexpr.Var("name"))
	tree, err := Bind(node, blk, 16, mem.Root())
	if err != nil {
		t.Fatalf("Bind: %v", err)
	}
	out, err := tree.Evaluate(view)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	arena := out.Column(0)
	arenas := tree.ResultArenas()
	if len(arenas) != 1 || arenas[0] == nil {
		t.Fatalf("ResultArenas() = %v, want exactly one non-nil arena", arenas)
	}
	got0 := string(arenas[0].Bytes(arena.Str[0]))
	got1 := string(arenas[0].Bytes(arena.Str[1]))
	if got0 != "ALICE" || got1 != "BOB" {
		t.Fatalf("got %q, %q, want %q, %q", got0, got1, "ALICE", "BOB")
	}
}
