// Licensed to the Apache Software Foundation (ASF) under one
// or more contributor license agreements.  See the NOTICE file
// distributed with this work for additional information
// regarding copyright ownership.  The ASF licenses this file
// to you under the Apache License, Version 2.0 (the
// "License"); you may not use this file except in compliance
// with the License.  You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/colfmt/varcol"
	"github.com/colfmt/varcol/avro"
	"github.com/colfmt/varcol/column"
	"github.com/colfmt/varcol/format"
	"github.com/colfmt/varcol/npy"
	"github.com/colfmt/varcol/pipeline"
	"github.com/colfmt/varcol/serialization"
	"github.com/colfmt/varcol/streams"
	"github.com/dustin/go-humanize"
	"github.com/pterm/pterm"
)

// maxLine bounds the length of one input value.
const maxLine = 64 << 20

func run(ctx context.Context, cfg *config, logger *pterm.Logger) error {
	switch {
	case cfg.Parse:
		return runParse(os.Stdout, cfg.Types)
	case cfg.Order:
		return runOrder(os.Stdout, cfg.Variant)
	case cfg.Encode:
		return runEncode(ctx, cfg, logger)
	case cfg.Streams:
		return runStreams(ctx, os.Stdout, cfg)
	case cfg.Decode:
		return runDecode(ctx, os.Stdout, cfg, logger)
	case cfg.Npy:
		return runNpy(ctx, cfg, logger)
	}
	return fmt.Errorf("%w: no command", varcol.ErrInvalid)
}

func runParse(w io.Writer, types []string) error {
	data := pterm.TableData{{"input", "type", "depth", "priority"}}
	for _, s := range types {
		dt, err := varcol.ParseType(s)
		if err != nil {
			return err
		}
		data = append(data, []string{
			s,
			dt.Name(),
			strconv.Itoa(serialization.TypeDepth(dt)),
			strconv.Itoa(serialization.TypePriority(dt))})
	}
	return renderTable(w, data)
}

func runOrder(w io.Writer, variant string) error {
	dt, err := varcol.ParseType(variant)
	if err != nil {
		return err
	}
	vt, ok := dt.(*varcol.VariantType)
	if !ok {
		return fmt.Errorf("%w: %s is not a Variant type", varcol.ErrInvalid, dt)
	}

	data := pterm.TableData{{"", "discriminator", "type", "depth", "priority"}}
	for rank, d := range serialization.DeserializeTextOrder(vt.Variants()) {
		v := vt.Variant(d)
		data = append(data, []string{
			fmt.Sprintf("try-%d", rank),
			strconv.Itoa(d),
			v.Name(),
			strconv.Itoa(serialization.TypeDepth(v)),
			strconv.Itoa(serialization.TypePriority(v))})
	}
	return renderTable(w, data)
}

func openInput(name string) (io.ReadCloser, error) {
	if name == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	return os.Open(name)
}

func loadSettings(name string) (*format.Settings, error) {
	if name == "" {
		return format.DefaultSettings(), nil
	}
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return format.LoadSettings(f)
}

func openStore(ctx context.Context, cfg *config, opts ...streams.Option) (streams.Store, error) {
	if cfg.Sqlite {
		return streams.OpenSQLite(ctx, cfg.Store, opts...)
	}
	return streams.OpenDir(cfg.Store, opts...)
}

func loadSet(ctx context.Context, cfg *config) (*streams.Set, error) {
	store, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	defer store.Close()
	return store.Load(ctx)
}

// parseLines reads one value of type dt per line of r.
func parseLines(r io.Reader, dt varcol.DataType, syntax format.Syntax, fs *format.Settings) (column.Column, error) {
	if !syntax.CanRead() {
		return nil, fmt.Errorf("%w: syntax %s cannot be parsed", varcol.ErrInvalid, syntax)
	}
	col, err := column.New(dt)
	if err != nil {
		return nil, err
	}
	s, err := serialization.For(dt)
	if err != nil {
		return nil, err
	}

	var appendToken func(token []byte) error
	switch s := s.(type) {
	case *serialization.Variant:
		appendToken = func(token []byte) error {
			return s.DeserializeTextField(col, token, syntax, fs)
		}
	case serialization.TextParser:
		appendToken = func(token []byte) error {
			if !s.TryDeserializeText(col, token, syntax, fs) {
				return fmt.Errorf("%w: cannot parse %q as %s", varcol.ErrSyntax, token, dt)
			}
			return nil
		}
	default:
		return nil, fmt.Errorf("%w: %s has no text format", varcol.ErrUnsupportedType, dt)
	}

	sc := bufio.NewScanner(r)
	sc.Buffer(nil, maxLine)
	for line := 1; sc.Scan(); line++ {
		if err := appendToken(bytes.TrimSuffix(sc.Bytes(), []byte{'\r'})); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
	}
	return col, sc.Err()
}

func readInput(cfg *config, logger *pterm.Logger) ([]pipeline.NamedColumn, error) {
	in, err := openInput(cfg.Input)
	if err != nil {
		return nil, err
	}
	defer in.Close()

	if cfg.Avro {
		rdr, err := avro.NewReader(in)
		if err != nil {
			return nil, err
		}
		logger.Debug("avro schema", logger.Args("type", rdr.DataType().Name()))
		col, err := rdr.ReadAll()
		if err != nil {
			return nil, err
		}
		names, cols := avro.Fields(cfg.Column, col)
		out := make([]pipeline.NamedColumn, len(cols))
		for i := range cols {
			out[i] = pipeline.NamedColumn{Name: names[i], Column: cols[i]}
		}
		return out, nil
	}

	dt, err := varcol.ParseType(cfg.Type)
	if err != nil {
		return nil, err
	}
	syntax, err := format.ParseSyntax(cfg.Syntax)
	if err != nil {
		return nil, err
	}
	fs, err := loadSettings(cfg.Settings)
	if err != nil {
		return nil, err
	}
	col, err := parseLines(in, dt, syntax, fs)
	if err != nil {
		return nil, err
	}
	return []pipeline.NamedColumn{{Name: cfg.Column, Column: col}}, nil
}

func runEncode(ctx context.Context, cfg *config, logger *pterm.Logger) error {
	comp, err := streams.ParseCompression(cfg.Compression)
	if err != nil {
		return err
	}
	cols, err := readInput(cfg, logger)
	if err != nil {
		return err
	}

	opts := pipeline.Options{ChunkRows: cfg.Chunk, Concurrency: cfg.Concurrency}
	if cfg.Compact {
		opts.DiscriminatorsMode = serialization.DiscriminatorsCompact
	}
	set := streams.NewSet()
	if err := pipeline.Encode(ctx, set, cols, opts); err != nil {
		return err
	}

	store, err := openStore(ctx, cfg, streams.WithCompression(comp))
	if err != nil {
		return err
	}
	defer store.Close()
	if err := store.Save(ctx, set); err != nil {
		return err
	}

	for _, c := range cols {
		logger.Debug("encoded column", logger.Args("name", c.Name, "type", c.Column.DataType().Name(), "rows", c.Column.Len()))
	}
	logger.Info("saved", logger.Args(
		"store", cfg.Store,
		"columns", len(cols),
		"streams", len(set.Names()),
		"size", humanize.Bytes(uint64(set.Size())),
		"compression", comp.String()))
	return nil
}

func runStreams(ctx context.Context, w io.Writer, cfg *config) error {
	set, err := loadSet(ctx, cfg)
	if err != nil {
		return err
	}

	cols := pterm.TableData{{"column", "type"}}
	for _, c := range set.Columns() {
		cols = append(cols, []string{c.Name, c.Type})
	}
	if err := renderTable(w, cols); err != nil {
		return err
	}

	data := pterm.TableData{{"stream", "size"}}
	for _, name := range set.Names() {
		b, _ := set.Bytes(name)
		data = append(data, []string{name, humanize.Bytes(uint64(len(b)))})
	}
	data = append(data, []string{"total", humanize.Bytes(uint64(set.Size()))})
	return renderTable(w, data)
}

func decodeSpecs(ctx context.Context, cfg *config, logger *pterm.Logger) ([]pipeline.ReadSpec, []column.Column, error) {
	set, err := loadSet(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	specs := make([]pipeline.ReadSpec, len(cfg.Spec))
	for i, s := range cfg.Spec {
		specs[i] = pipeline.ParseReadSpec(s)
	}
	cols, err := pipeline.Decode(ctx, set, specs, pipeline.Options{})
	if err != nil {
		return nil, nil, err
	}
	for i, c := range cols {
		logger.Debug("decoded", logger.Args("spec", specs[i].String(), "type", c.DataType().Name(), "rows", c.Len()))
	}
	return specs, cols, nil
}

func runDecode(ctx context.Context, w io.Writer, cfg *config, logger *pterm.Logger) error {
	syntax, err := format.ParseSyntax(cfg.Syntax)
	if err != nil {
		return err
	}
	fs, err := loadSettings(cfg.Settings)
	if err != nil {
		return err
	}
	specs, cols, err := decodeSpecs(ctx, cfg, logger)
	if err != nil {
		return err
	}

	names := make([]string, len(specs))
	for i, s := range specs {
		names[i] = s.String()
	}
	dump, err := newDumper(names, cols, fs)
	if err != nil {
		return err
	}
	rows := dump.numRows()
	if cfg.Limit > 0 && cfg.Limit < rows {
		rows = cfg.Limit
	}
	if cfg.JSON {
		return dump.writeJSON(w, rows)
	}
	return dump.writeTable(w, rows, syntax)
}

func runNpy(ctx context.Context, cfg *config, logger *pterm.Logger) error {
	if len(cfg.Spec) != 1 {
		return fmt.Errorf("%w: npy takes one column", varcol.ErrInvalid)
	}
	_, cols, err := decodeSpecs(ctx, cfg, logger)
	if err != nil {
		return err
	}

	f, err := os.Create(cfg.Out)
	if err != nil {
		return err
	}
	wr, err := npy.NewWriter(f, cols[0].DataType())
	if err == nil {
		err = wr.Write(cols[0])
	}
	if err == nil {
		err = wr.Close()
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return err
	}
	logger.Info("wrote npy", logger.Args("file", cfg.Out, "shape", fmt.Sprint(wr.Shape())))
	return nil
}
