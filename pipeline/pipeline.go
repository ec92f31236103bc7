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

// Package pipeline encodes and decodes whole columns through a
// streams.Set in fixed size chunks, processing independent columns
// concurrently.
package pipeline

import (
	"context"
	"fmt"
	"runtime"
	"strings"

	"github.com/colfmt/varcol"
	"github.com/colfmt/varcol/column"
	"github.com/colfmt/varcol/serialization"
	"github.com/colfmt/varcol/streams"
	"golang.org/x/sync/errgroup"
)

// DefaultChunkRows is the number of rows of a bulk call when Options
// leaves ChunkRows unset.
const DefaultChunkRows = 8192

type Options struct {
	ChunkRows int
	// Concurrency bounds the number of columns processed at once. It
	// defaults to GOMAXPROCS.
	Concurrency        int
	DiscriminatorsMode serialization.DiscriminatorsMode
	// CacheSize is the capacity of the substreams cache shared by the
	// readers of one column.
	CacheSize int
}

func (o Options) withDefaults() Options {
	if o.ChunkRows <= 0 {
		o.ChunkRows = DefaultChunkRows
	}
	if o.Concurrency <= 0 {
		o.Concurrency = runtime.GOMAXPROCS(0)
	}
	if o.CacheSize <= 0 {
		o.CacheSize = serialization.DefaultCacheSize
	}
	return o
}

// NamedColumn is a column with the name its substreams are stored under.
type NamedColumn struct {
	Name   string
	Column column.Column
}

func bulkSerializer(dt varcol.DataType) (serialization.BulkSerializer, error) {
	s, err := serialization.For(dt)
	if err != nil {
		return nil, err
	}
	bulk, ok := s.(serialization.BulkSerializer)
	if !ok {
		return nil, fmt.Errorf("%w: no bulk serialization for %s", varcol.ErrUnsupportedType, dt)
	}
	return bulk, nil
}

// Encode writes cols to set.
func Encode(ctx context.Context, set *streams.Set, cols []NamedColumn, opts Options) error {
	opts = opts.withDefaults()
	for _, nc := range cols {
		if err := set.AddColumn(nc.Name, nc.Column.DataType()); err != nil {
			return err
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Concurrency)
	for _, nc := range cols {
		g.Go(func() error {
			if err := encodeColumn(gctx, set, nc, opts); err != nil {
				return fmt.Errorf("column %s: %w", nc.Name, err)
			}
			return nil
		})
	}
	return g.Wait()
}

func encodeColumn(ctx context.Context, set *streams.Set, nc NamedColumn, opts Options) error {
	s, err := bulkSerializer(nc.Column.DataType())
	if err != nil {
		return err
	}
	settings := &serialization.SerializeBulkSettings{
		GetStream:          set.Writer(nc.Name),
		DiscriminatorsMode: opts.DiscriminatorsMode,
	}
	state, err := s.SerializeBulkStatePrefix(nc.Column, settings)
	if err != nil {
		return err
	}
	rows := nc.Column.Len()
	for offset := 0; offset < rows; offset += opts.ChunkRows {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.SerializeBulk(nc.Column, offset, min(opts.ChunkRows, rows-offset), settings, state); err != nil {
			return err
		}
	}
	return s.SerializeBulkStateSuffix(settings, state)
}

// ReadSpec selects a column of a Set, or a single variant of a Variant
// column read as a Nullable column.
type ReadSpec struct {
	Column  string
	Variant string
}

// ParseReadSpec parses "column" or "column:Type", the latter naming a
// variant of a Variant column.
func ParseReadSpec(s string) ReadSpec {
	name, variant, _ := strings.Cut(s, ":")
	return ReadSpec{Column: name, Variant: strings.TrimSpace(variant)}
}

func (r ReadSpec) String() string {
	if r.Variant == "" {
		return r.Column
	}
	return r.Column + ":" + r.Variant
}

type reader struct {
	out   int
	bulk  serialization.BulkDeserializer
	col   column.Column
	state serialization.BulkState
}

func newReader(set *streams.Set, spec ReadSpec) (*reader, error) {
	dt, err := set.Column(spec.Column)
	if err != nil {
		return nil, err
	}
	var bulk serialization.BulkDeserializer
	if spec.Variant == "" {
		if bulk, err = bulkSerializer(dt); err != nil {
			return nil, err
		}
	} else {
		vt, ok := dt.(*varcol.VariantType)
		if !ok {
			return nil, fmt.Errorf("%w: %s is not a Variant column", varcol.ErrInvalid, spec.Column)
		}
		want, err := varcol.ParseType(spec.Variant)
		if err != nil {
			return nil, err
		}
		i, ok := vt.Discriminator(want)
		if !ok {
			return nil, fmt.Errorf("%w: %s has no variant %s", varcol.ErrInvalid, vt, want)
		}
		if bulk, err = serialization.NewVariantElement(vt, i); err != nil {
			return nil, err
		}
	}
	col, err := column.New(bulk.DataType())
	if err != nil {
		return nil, err
	}
	return &reader{bulk: bulk, col: col}, nil
}

// Decode reads the columns selected by specs from set. The i-th returned
// column holds specs[i]. The readers of one column share a read session
// so each of its substreams is read once.
func Decode(ctx context.Context, set *streams.Set, specs []ReadSpec, opts Options) ([]column.Column, error) {
	opts = opts.withDefaults()
	groups := make(map[string][]*reader)
	var order []string
	seen := make(map[ReadSpec]bool)
	for i, spec := range specs {
		if seen[spec] {
			return nil, fmt.Errorf("%w: %s requested twice", varcol.ErrInvalid, spec)
		}
		seen[spec] = true
		r, err := newReader(set, spec)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", spec, err)
		}
		r.out = i
		if _, ok := groups[spec.Column]; !ok {
			order = append(order, spec.Column)
		}
		groups[spec.Column] = append(groups[spec.Column], r)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Concurrency)
	for _, name := range order {
		readers := groups[name]
		g.Go(func() error {
			if err := decodeColumn(gctx, set, name, readers, opts); err != nil {
				return fmt.Errorf("column %s: %w", name, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]column.Column, len(specs))
	for _, readers := range groups {
		for _, r := range readers {
			out[r.out] = r.col
		}
	}
	return out, nil
}

func decodeColumn(ctx context.Context, set *streams.Set, name string, readers []*reader, opts Options) error {
	cache, err := serialization.NewSubstreamsCache(opts.CacheSize)
	if err != nil {
		return err
	}
	states := make(serialization.StatesCache)
	settings := &serialization.DeserializeBulkSettings{GetStream: set.Reader(name)}
	for _, r := range readers {
		if r.state, err = r.bulk.DeserializeBulkStatePrefix(settings, states); err != nil {
			return err
		}
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		cache.Purge()
		var read int
		for i, r := range readers {
			before := r.col.Len()
			if err := r.bulk.DeserializeBulk(r.col, opts.ChunkRows, settings, r.state, cache); err != nil {
				return err
			}
			n := r.col.Len() - before
			if i == 0 {
				read = n
			} else if n != read {
				return fmt.Errorf("%w: %s read %d rows, %s read %d",
					varcol.ErrTruncatedStream, readers[0].bulk.DataType(), read, r.bulk.DataType(), n)
			}
		}
		if read < opts.ChunkRows {
			return nil
		}
	}
}
