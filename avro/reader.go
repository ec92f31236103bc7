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

package avro

import (
	"errors"
	"fmt"
	"io"

	"github.com/colfmt/varcol"
	"github.com/colfmt/varcol/column"
	avro "github.com/hamba/avro/v2"
	"github.com/hamba/avro/v2/ocf"
)

// Reader reads the records of an object container file into columns.
type Reader struct {
	dec    *ocf.Decoder
	schema avro.Schema
	m      mapping
	rows   int
}

// NewReader reads the header of the object container file r.
func NewReader(r io.Reader) (*Reader, error) {
	dec, err := ocf.NewDecoder(r)
	if err != nil {
		return nil, fmt.Errorf("%w: avro: %w", varcol.ErrInvalid, err)
	}
	schema, err := avro.ParseBytes(dec.Metadata()["avro.schema"])
	if err != nil {
		return nil, fmt.Errorf("%w: avro schema: %w", varcol.ErrInvalid, err)
	}
	m, err := compile(schema, make(map[string]bool))
	if err != nil {
		return nil, err
	}
	return &Reader{dec: dec, schema: schema, m: m}, nil
}

func (r *Reader) Schema() avro.Schema       { return r.schema }
func (r *Reader) DataType() varcol.DataType { return r.m.dt }

// Read returns a column of the next n records at most. It returns io.EOF
// once every record was read.
func (r *Reader) Read(n int) (column.Column, error) {
	col, err := column.New(r.m.dt)
	if err != nil {
		return nil, err
	}
	for col.Len() < n && r.dec.HasNext() {
		var v any
		if err := r.dec.Decode(&v); err != nil {
			return nil, fmt.Errorf("%w: avro record %d: %w", varcol.ErrInvalid, r.rows, err)
		}
		val, err := r.m.conv(v)
		if err != nil {
			return nil, fmt.Errorf("avro record %d: %w", r.rows, err)
		}
		if err := col.AppendValue(val); err != nil {
			return nil, fmt.Errorf("avro record %d: %w", r.rows, err)
		}
		r.rows++
	}
	if err := r.dec.Error(); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: avro: %w", varcol.ErrInvalid, err)
	}
	if col.Len() == 0 && n > 0 {
		return nil, io.EOF
	}
	return col, nil
}

// ReadAll reads every remaining record.
func (r *Reader) ReadAll() (column.Column, error) {
	col, err := column.New(r.m.dt)
	if err != nil {
		return nil, err
	}
	for {
		chunk, err := r.Read(4096)
		if errors.Is(err, io.EOF) {
			return col, nil
		}
		if err != nil {
			return nil, err
		}
		if err := col.AppendRange(chunk, 0, chunk.Len()); err != nil {
			return nil, err
		}
	}
}

// Fields splits a column of records into one column per field. Columns
// of other types are returned as the single column named name.
func Fields(name string, col column.Column) ([]string, []column.Column) {
	tup, ok := col.(*column.Tuple)
	if !ok {
		return []string{name}, []column.Column{col}
	}
	tt := tup.DataType().(*varcol.TupleType)
	names := make([]string, tup.NumElems())
	cols := make([]column.Column, tup.NumElems())
	for i := range cols {
		names[i], cols[i] = tt.ElemName(i), tup.Elem(i)
	}
	return names, cols
}
