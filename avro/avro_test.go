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

package avro_test

import (
	"bytes"
	"errors"
	"io"
	"math/big"
	"testing"
	"time"

	"github.com/colfmt/varcol"
	"github.com/colfmt/varcol/avro"
	"github.com/colfmt/varcol/column"
	"github.com/google/go-cmp/cmp"
	hamba "github.com/hamba/avro/v2"
	"github.com/hamba/avro/v2/ocf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const eventSchema = `{
	"type": "record",
	"name": "event",
	"namespace": "test",
	"fields": [
		{"name": "id", "type": "long"},
		{"name": "name", "type": "string"},
		{"name": "score", "type": ["null", "double"]},
		{"name": "payload", "type": ["null", "int", "string"]},
		{"name": "tags", "type": {"type": "map", "values": "int"}},
		{"name": "day", "type": {"type": "int", "logicalType": "date"}},
		{"name": "at", "type": {"type": "long", "logicalType": "timestamp-millis"}},
		{"name": "price", "type": {"type": "bytes", "logicalType": "decimal", "precision": 10, "scale": 2}},
		{"name": "kind", "type": {"type": "enum", "name": "kind", "symbols": ["A", "B"]}},
		{"name": "hash", "type": {"type": "fixed", "name": "hash", "size": 4}}
	]
}`

const eventType = "Tuple(id Int64, name String, score Variant(Float64), payload Variant(Int32, String), " +
	"tags Map(String, Int32), day Date, at DateTime64(3), price Decimal(10, 2), kind String, hash FixedString(4))"

type event struct {
	ID      int64          `avro:"id"`
	Name    string         `avro:"name"`
	Score   *float64       `avro:"score"`
	Payload map[string]any `avro:"payload"`
	Tags    map[string]int `avro:"tags"`
	Day     time.Time      `avro:"day"`
	At      time.Time      `avro:"at"`
	Price   *big.Rat       `avro:"price"`
	Kind    string         `avro:"kind"`
	Hash    [4]byte        `avro:"hash"`
}

func TestTypeFromSchema(t *testing.T) {
	tests := []struct {
		schema string
		want   string
	}{
		{eventSchema, eventType},
		{`"boolean"`, "Bool"},
		{`"float"`, "Float32"},
		{`"bytes"`, "String"},
		{`{"type": "string", "logicalType": "uuid"}`, "UUID"},
		{`{"type": "long", "logicalType": "timestamp-micros"}`, "DateTime64(6)"},
		{`{"type": "int", "logicalType": "time-millis"}`, "Int32"},
		{`{"type": "fixed", "name": "d", "size": 8, "logicalType": "decimal", "precision": 18, "scale": 4}`, "Decimal(18, 4)"},
		{`{"type": "array", "items": ["null", "string", {"type": "array", "items": "long"}]}`, "Array(Variant(String, Array(Int64)))"},
		{`["null", "long"]`, "Variant(Int64)"},
		{`"null"`, "Nothing"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			schema, err := hamba.Parse(tt.schema)
			require.NoError(t, err)
			dt, err := avro.TypeFromSchema(schema)
			require.NoError(t, err)
			assert.Equal(t, tt.want, dt.Name())
		})
	}
}

func TestTypeFromSchemaUnsupported(t *testing.T) {
	tests := map[string]string{
		"recursive":     `{"type": "record", "name": "node", "fields": [{"name": "next", "type": ["null", "node"]}]}`,
		"wide decimal":  `{"type": "bytes", "logicalType": "decimal", "precision": 30, "scale": 2}`,
		"same branches": `["string", "bytes"]`,
	}
	for name, src := range tests {
		t.Run(name, func(t *testing.T) {
			schema, err := hamba.Parse(src)
			require.NoError(t, err)
			_, err = avro.TypeFromSchema(schema)
			assert.ErrorIs(t, err, varcol.ErrUnsupportedType)
		})
	}
}

func writeEvents(t *testing.T, events ...event) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	enc, err := ocf.NewEncoder(eventSchema, &buf)
	require.NoError(t, err)
	for _, e := range events {
		require.NoError(t, enc.Encode(e))
	}
	require.NoError(t, enc.Close())
	return &buf
}

func sampleEvents() []event {
	score := 1.5
	day := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	at := time.UnixMilli(1700000000123).UTC()
	return []event{
		{ID: 1, Name: "a", Score: &score, Payload: map[string]any{"int": 7}, Tags: map[string]int{"y": 2, "x": 1},
			Day: day, At: at, Price: big.NewRat(1234, 100), Kind: "B", Hash: [4]byte{1, 2, 3, 4}},
		{ID: 2, Name: "b", Payload: map[string]any{"string": "hi"}, Tags: map[string]int{},
			Day: day, At: at, Price: big.NewRat(-5, 1), Kind: "A"},
		{ID: 3, Name: "", Tags: map[string]int{"z": -1}, Day: day, At: at, Price: new(big.Rat), Kind: "A"},
	}
}

func TestReader(t *testing.T) {
	r, err := avro.NewReader(writeEvents(t, sampleEvents()...))
	require.NoError(t, err)
	assert.Equal(t, eventType, r.DataType().Name())
	assert.Equal(t, hamba.Record, r.Schema().Type())

	col, err := r.ReadAll()
	require.NoError(t, err)
	null := column.VariantValue{Discriminator: column.NullDiscriminator}
	want := []any{
		[]any{int64(1), "a", column.VariantValue{Discriminator: 0, Value: 1.5}, column.VariantValue{Discriminator: 0, Value: int32(7)},
			[]column.KeyValue{{Key: "x", Value: int32(1)}, {Key: "y", Value: int32(2)}},
			int32(19724), int64(1700000000123), int64(1234), "B", "\x01\x02\x03\x04"},
		[]any{int64(2), "b", null, column.VariantValue{Discriminator: 1, Value: "hi"},
			[]column.KeyValue{},
			int32(19724), int64(1700000000123), int64(-500), "A", "\x00\x00\x00\x00"},
		[]any{int64(3), "", null, null,
			[]column.KeyValue{{Key: "z", Value: int32(-1)}},
			int32(19724), int64(1700000000123), int64(0), "A", "\x00\x00\x00\x00"},
	}
	if diff := cmp.Diff(want, column.Values(col)); diff != "" {
		t.Errorf("values mismatch (-want +got):\n%s", diff)
	}
}

func TestReaderChunks(t *testing.T) {
	r, err := avro.NewReader(writeEvents(t, sampleEvents()...))
	require.NoError(t, err)

	var sizes []int
	for {
		col, err := r.Read(2)
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
		sizes = append(sizes, col.Len())
	}
	assert.Equal(t, []int{2, 1}, sizes)
}

func TestReaderInvalid(t *testing.T) {
	_, err := avro.NewReader(bytes.NewReader([]byte("not an avro file")))
	assert.ErrorIs(t, err, varcol.ErrInvalid)
}

func TestFields(t *testing.T) {
	r, err := avro.NewReader(writeEvents(t, sampleEvents()...))
	require.NoError(t, err)
	col, err := r.ReadAll()
	require.NoError(t, err)

	names, cols := avro.Fields("events", col)
	assert.Equal(t, []string{"id", "name", "score", "payload", "tags", "day", "at", "price", "kind", "hash"}, names)
	require.Len(t, cols, 10)
	assert.Equal(t, []any{int64(1), int64(2), int64(3)}, column.Values(cols[0]))
	assert.Equal(t, "Variant(Float64)", cols[2].DataType().Name())

	ints, err := column.FromValues(varcol.PrimitiveTypes.Int8, int8(1))
	require.NoError(t, err)
	names, cols = avro.Fields("n", ints)
	assert.Equal(t, []string{"n"}, names)
	assert.Same(t, ints, cols[0])
}
