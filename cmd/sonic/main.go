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

// Command sonic is a debugging shim, not a query front-end: it reads
// a small JSON fixture into a Block according to a YAML harness
// config, optionally filters it with a single bound comparison,
// sorts it, and prints the result as JSON lines.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"sigs.k8s.io/yaml"

	"github.com/supersonic-go/supersonic/batch"
	"github.com/supersonic-go/supersonic/bind"
	"github.com/supersonic-go/supersonic/cursor"
	"github.com/supersonic-go/supersonic/extsort"
	"github.com/supersonic-go/supersonic/mem"
	"github.com/supersonic-go/supersonic/sexpr"
	"github.com/supersonic-go/supersonic/sonictype"
	"github.com/supersonic-go/supersonic/sortcore"
)

// config is the harness's YAML input: the fixture's declared schema,
// an optional single-comparison filter, and a sort spec.
type config struct {
	Input   string       `json:"input"`
	Columns []columnSpec `json:"columns"`
	Filter  string       `json:"filter,omitempty"`
	Sort    []sortSpec   `json:"sort"`
	Limit   int          `json:"limit,omitempty"`
}

type columnSpec struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Nullable bool   `json:"nullable,omitempty"`
}

type sortSpec struct {
	Column          string `json:"column"`
	Direction       string `json:"direction,omitempty"`
	CaseInsensitive bool   `json:"case_insensitive,omitempty"`
}

func main() {
	cfgPath := flag.String("config", "", "path to a YAML harness config")
	flag.Parse()
	if *cfgPath == "" {
		fmt.Fprintln(os.Stderr, "usage: sonic -config harness.yaml")
		os.Exit(1)
	}
	if err := run(*cfgPath); err != nil {
		fmt.Fprintln(os.Stderr, "sonic:", err)
		os.Exit(1)
	}
}

func run(cfgPath string) error {
	raw, err := os.ReadFile(cfgPath)
	if err != nil {
		return err
	}
	var cfg config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return fmt.Errorf("parsing config: %w", err)
	}

	schema, err := schemaFromColumns(cfg.Columns)
	if err != nil {
		return err
	}

	rows, err := readRows(cfg.Input)
	if err != nil {
		return err
	}

	alloc := mem.Root()
	blk := batch.NewBlock(schema, len(rows), alloc)
	if err := loadRows(blk, schema, rows); err != nil {
		return err
	}
	blk.SetRowCount(len(rows))

	view := blk.View()
	arenas := blockArenas(blk, schema)

	if cfg.Filter != "" {
		view, arenas, err = applyFilter(cfg.Filter, schema, blk, view, arenas, alloc)
		if err != nil {
			return err
		}
	}

	keys, err := extendedKeys(schema, cfg.Sort)
	if err != nil {
		return err
	}

	spillDir := filepath.Join(os.TempDir(), "sonic-"+uuid.NewString())
	if err := os.MkdirAll(spillDir, 0o700); err != nil {
		return err
	}
	defer os.RemoveAll(spillDir)

	limit := -1
	if cfg.Limit > 0 {
		limit = cfg.Limit
	}
	newInner := func(s batch.Schema, k []sortcore.Key) extsort.Sorter {
		return extsort.NewUnbufferedSorter(s, k, spillDir, alloc)
	}
	sorter, err := extsort.NewExtendedSort(schema, keys, newInner, len(rows)+1, alloc, limit)
	if err != nil {
		return err
	}
	if _, err := sorter.Write(view, arenas); err != nil {
		return err
	}
	result, err := sorter.GetResultCursor()
	if err != nil {
		return err
	}

	return printRows(result, schema)
}

func schemaFromColumns(cols []columnSpec) (batch.Schema, error) {
	attrs := make([]batch.Attribute, len(cols))
	for i, c := range cols {
		t, err := parseDataType(c.Type)
		if err != nil {
			return batch.Schema{}, err
		}
		n := sonictype.NOT_NULLABLE
		if c.Nullable {
			n = sonictype.NULLABLE
		}
		attrs[i] = batch.Attribute{Name: c.Name, Type: t, Nullability: n}
	}
	return batch.NewSchema(attrs...)
}

func parseDataType(s string) (sonictype.DataType, error) {
	switch strings.ToUpper(s) {
	case "INT32":
		return sonictype.INT32, nil
	case "INT64":
		return sonictype.INT64, nil
	case "UINT32":
		return sonictype.UINT32, nil
	case "UINT64":
		return sonictype.UINT64, nil
	case "FLOAT":
		return sonictype.FLOAT, nil
	case "DOUBLE":
		return sonictype.DOUBLE, nil
	case "BOOL":
		return sonictype.BOOL, nil
	case "STRING":
		return sonictype.STRING, nil
	case "BINARY":
		return sonictype.BINARY, nil
	default:
		return sonictype.INVALID, fmt.Errorf("unsupported column type %q", s)
	}
}

func readRows(path string) ([]map[string]any, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var rows []map[string]any
	dec := json.NewDecoder(f)
	if err := dec.Decode(&rows); err != nil {
		return nil, fmt.Errorf("decoding fixture %s: %w", path, err)
	}
	return rows, nil
}

func loadRows(blk *batch.Block, schema batch.Schema, rows []map[string]any) error {
	for i := 0; i < schema.Len(); i++ {
		attr := schema.Attribute(i)
		col := blk.Column(i)
		for r, row := range rows {
			v, present := row[attr.Name]
			if !present || v == nil {
				col.EnsureNulls(len(rows))
				col.IsNull[r] = true
				continue
			}
			if err := setValue(blk, i, r, attr.Type, v); err != nil {
				return fmt.Errorf("row %d, column %s: %w", r, attr.Name, err)
			}
		}
	}
	return nil
}

func setValue(blk *batch.Block, col, row int, t sonictype.DataType, v any) error {
	c := blk.Column(col)
	switch t {
	case sonictype.INT32:
		c.Int32[row] = int32(v.(float64))
	case sonictype.INT64:
		c.Int64[row] = int64(v.(float64))
	case sonictype.UINT32:
		c.Uint32[row] = uint32(v.(float64))
	case sonictype.UINT64:
		c.Uint64[row] = uint64(v.(float64))
	case sonictype.FLOAT:
		c.Float32[row] = float32(v.(float64))
	case sonictype.DOUBLE:
		c.Float64[row] = v.(float64)
	case sonictype.BOOL:
		c.Bool[row] = v.(bool)
	case sonictype.STRING, sonictype.BINARY:
		ref, err := blk.Arena(col).Put([]byte(v.(string)))
		if err != nil {
			return err
		}
		c.Str[row] = ref
	default:
		return fmt.Errorf("unsupported fixture column type %s", t)
	}
	return nil
}

func blockArenas(blk *batch.Block, schema batch.Schema) []*batch.Arena {
	arenas := make([]*batch.Arena, schema.Len())
	for i := range arenas {
		arenas[i] = blk.Arena(i)
	}
	return arenas
}

// applyFilter binds and evaluates a single "<column> <op> <literal>"
// comparison against view, returning only the rows it keeps.
func applyFilter(expr string, schema batch.Schema, source *batch.Block, view batch.View, arenas []*batch.Arena, alloc mem.Allocator) (batch.View, []*batch.Arena, error) {
	node, err := parseFilter(expr)
	if err != nil {
		return batch.View{}, nil, err
	}
	tree, err := bind.Bind(node, source, view.RowCount(), alloc)
	if err != nil {
		return batch.View{}, nil, err
	}
	mask, err := tree.Evaluate(view)
	if err != nil {
		return batch.View{}, nil, err
	}
	maskCol := mask.Column(0)

	kept := make([]int, 0, view.RowCount())
	for i := 0; i < view.RowCount(); i++ {
		if !maskCol.Null(i) && maskCol.Bool[i] {
			kept = append(kept, i)
		}
	}

	out := batch.NewBlock(schema, len(kept), mem.Root())
	for dst, src := range kept {
		copyFilteredRow(out, dst, view, arenas, src)
	}
	out.SetRowCount(len(kept))
	return out.View(), blockArenas(out, schema), nil
}

func copyFilteredRow(out *batch.Block, dstRow int, v batch.View, arenas []*batch.Arena, srcRow int) {
	for i := 0; i < v.Schema().Len(); i++ {
		src := v.Column(i)
		dst := out.Column(i)
		dst.EnsureNulls(out.Capacity())
		if src.IsNull != nil && src.IsNull[srcRow] {
			dst.IsNull[dstRow] = true
			continue
		}
		if dst.Type.Fixed() {
			switch dst.Type {
			case sonictype.INT32:
				dst.Int32[dstRow] = src.Int32[srcRow]
			case sonictype.INT64:
				dst.Int64[dstRow] = src.Int64[srcRow]
			case sonictype.UINT32:
				dst.Uint32[dstRow] = src.Uint32[srcRow]
			case sonictype.UINT64:
				dst.Uint64[dstRow] = src.Uint64[srcRow]
			case sonictype.FLOAT:
				dst.Float32[dstRow] = src.Float32[srcRow]
			case sonictype.DOUBLE:
				dst.Float64[dstRow] = src.Float64[srcRow]
			case sonictype.BOOL:
				dst.Bool[dstRow] = src.Bool[srcRow]
			}
			continue
		}
		var arena *batch.Arena
		if i < len(arenas) {
			arena = arenas[i]
		}
		ref, err := out.Arena(i).Put(arena.Bytes(src.Str[srcRow]))
		if err == nil {
			dst.Str[dstRow] = ref
		}
	}
}

var compareOps = map[string]sexpr.OperationType{
	"=": sexpr.OpEq, "!=": sexpr.OpNe,
	"<": sexpr.OpLt, "<=": sexpr.OpLe,
	">": sexpr.OpGt, ">=": sexpr.OpGe,
}

// parseFilter recognizes exactly "<column> <op> <literal>", the one
// shape of expression this harness needs to exercise bind/eval.
func parseFilter(expr string) (sexpr.Node, error) {
	fields := strings.Fields(expr)
	if len(fields) != 3 {
		return nil, fmt.Errorf("filter must look like \"column op literal\", got %q", expr)
	}
	op, ok := compareOps[fields[1]]
	if !ok {
		return nil, fmt.Errorf("unsupported filter operator %q", fields[1])
	}
	lit := fields[2]
	var c *sexpr.Constant
	if n, err := strconv.ParseInt(lit, 10, 64); err == nil {
		c = &sexpr.Constant{Type: sonictype.INT64, Value: n}
	} else if f, err := strconv.ParseFloat(lit, 64); err == nil {
		c = &sexpr.Constant{Type: sonictype.DOUBLE, Value: f}
	} else {
		c = &sexpr.Constant{Type: sonictype.STRING, Value: strings.Trim(lit, `"`)}
	}
	return sexpr.Op(op, sexpr.Var(fields[0]), c), nil
}

func extendedKeys(schema batch.Schema, specs []sortSpec) ([]extsort.ExtendedKey, error) {
	keys := make([]extsort.ExtendedKey, len(specs))
	for i, sp := range specs {
		pos := schema.IndexOf(sp.Column)
		if pos < 0 {
			return nil, fmt.Errorf("sort key %q is not a column in this fixture", sp.Column)
		}
		dir := sortcore.Ascending
		if strings.EqualFold(sp.Direction, "desc") {
			dir = sortcore.Descending
		}
		keys[i] = extsort.ExtendedKey{Column: pos, Direction: dir, CaseInsensitive: sp.CaseInsensitive}
	}
	return keys, nil
}

func printRows(c cursor.Cursor, schema batch.Schema) error {
	ctx := context.Background()
	arenas, _ := c.(interface{ CurrentArenas() []*batch.Arena })
	enc := json.NewEncoder(os.Stdout)
	for {
		res := c.Next(ctx, 1024)
		switch res.Kind {
		case cursor.EOS:
			return nil
		case cursor.Error:
			return res.Err
		case cursor.WaitingOnBarrier:
			return fmt.Errorf("unexpected barrier wait from a fully materialized cursor")
		case cursor.Batch:
			var as []*batch.Arena
			if arenas != nil {
				as = arenas.CurrentArenas()
			}
			for r := 0; r < res.View.RowCount(); r++ {
				row, err := rowToMap(schema, res.View, as, r)
				if err != nil {
					return err
				}
				if err := enc.Encode(row); err != nil {
					return err
				}
			}
		}
	}
}

func rowToMap(schema batch.Schema, v batch.View, arenas []*batch.Arena, row int) (map[string]any, error) {
	out := make(map[string]any, schema.Len())
	for i := 0; i < schema.Len(); i++ {
		attr := schema.Attribute(i)
		col := v.Column(i)
		if col.Null(row) {
			out[attr.Name] = nil
			continue
		}
		switch attr.Type {
		case sonictype.INT32:
			out[attr.Name] = col.Int32[row]
		case sonictype.INT64:
			out[attr.Name] = col.Int64[row]
		case sonictype.UINT32:
			out[attr.Name] = col.Uint32[row]
		case sonictype.UINT64:
			out[attr.Name] = col.Uint64[row]
		case sonictype.FLOAT:
			out[attr.Name] = col.Float32[row]
		case sonictype.DOUBLE:
			out[attr.Name] = col.Float64[row]
		case sonictype.BOOL:
			out[attr.Name] = col.Bool[row]
		case sonictype.STRING, sonictype.BINARY:
			var arena *batch.Arena
			if i < len(arenas) {
				arena = arenas[i]
			}
			if arena == nil {
				return nil, fmt.Errorf("column %s: no arena available to resolve its bytes", attr.Name)
			}
			out[attr.Name] = string(arena.Bytes(col.Str[row]))
		default:
			return nil, fmt.Errorf("column %s: unsupported output type %s", attr.Name, attr.Type)
		}
	}
	return out, nil
}
