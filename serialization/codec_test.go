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

package serialization_test

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/colfmt/varcol"
	"github.com/colfmt/varcol/column"
	"github.com/colfmt/varcol/format"
	"github.com/colfmt/varcol/serialization"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var codecValues = []struct {
	typ    string
	values []any
}{
	{"Bool", []any{true, false, true}},
	{"Int8", []any{int8(-1), int8(127)}},
	{"UInt16", []any{uint16(0), uint16(65535)}},
	{"Int64", []any{int64(-1 << 62), int64(7)}},
	{"Float32", []any{float32(1.5), float32(-2)}},
	{"Float64", []any{0.1, -1e300}},
	{"Decimal(18, 6)", []any{int64(123456789), int64(-1)}},
	{"Date", []any{int32(0), int32(19724)}},
	{"DateTime", []any{uint32(1700000000)}},
	{"DateTime64(9)", []any{int64(1700000000123456789)}},
	{"UUID", []any{uuid.MustParse("61f0c404-5cb3-11e7-907b-a6006ad3dba0"), uuid.Nil}},
	{"IPv4", []any{uint32(0x7f000001)}},
	{"IPv6", []any{[16]byte{0: 0x20, 1: 0x01, 15: 1}}},
	{"String", []any{"", "hello", "多字节"}},
	{"FixedString(4)", []any{"ab\x00\x00", "abcd"}},
	{"Array(Int32)", []any{[]any{}, []any{int32(1), int32(2)}, []any{int32(3)}}},
	{"Array(Array(String))", []any{[]any{[]any{"a"}, []any{}}, []any{}}},
	{"Tuple(a Int32, b String)", []any{[]any{int32(1), "x"}, []any{int32(2), ""}}},
	{"Map(String, UInt8)", []any{[]column.KeyValue{{Key: "k", Value: uint8(1)}}, []column.KeyValue{}}},
	{"Nullable(Int64)", []any{int64(1), nil, int64(3)}},
	{"Array(Nullable(String))", []any{[]any{"a", nil}, []any{nil}}},
	{"Array(Variant(Int32, String))", []any{
		[]any{column.VariantValue{Discriminator: 1, Value: "a"}, column.VariantValue{Discriminator: column.NullDiscriminator}},
		[]any{},
		[]any{column.VariantValue{Discriminator: 0, Value: int32(9)}},
	}},
}

// repeated returns n rows cycling through values.
func repeated(t *testing.T, dt varcol.DataType, values []any, n int) column.Column {
	t.Helper()
	col, err := column.New(dt)
	require.NoError(t, err)
	for i := 0; i < n; i++ {
		require.NoError(t, col.AppendValue(values[i%len(values)]))
	}
	return col
}

func TestCodecBulkRoundTrip(t *testing.T) {
	for _, tt := range codecValues {
		t.Run(tt.typ, func(t *testing.T) {
			codec := mustCodec(t, tt.typ)
			col := repeated(t, codec.DataType(), tt.values, 50)
			for _, write := range []int{50, 7} {
				for _, read := range []int{50, 3} {
					m := encodeBulk(t, codec, col, chunks(50, write), serialization.DiscriminatorsCompact)
					got := decodeBulk(t, codec, m, chunks(50, read))
					assertSameValues(t, col, got)
				}
			}
		})
	}
}

func TestCodecRowRoundTrip(t *testing.T) {
	for _, tt := range codecValues {
		t.Run(tt.typ, func(t *testing.T) {
			codec := mustCodec(t, tt.typ)
			col, err := column.FromValues(codec.DataType(), tt.values...)
			require.NoError(t, err)

			var buf bytes.Buffer
			for row := 0; row < col.Len(); row++ {
				require.NoError(t, codec.SerializeBinary(col, row, &buf))
			}
			r := bytes.NewReader(buf.Bytes())
			for _, want := range tt.values {
				got, err := serialization.DeserializeBinaryValue(codec, r)
				require.NoError(t, err)
				assert.Equal(t, want, got)
			}
			assert.Zero(t, r.Len())
		})
	}
}

func TestCodecBulkTruncated(t *testing.T) {
	for _, typ := range []string{"Int32", "String", "Array(Int64)", "Tuple(Int8, String)", "Nullable(UInt16)"} {
		t.Run(typ, func(t *testing.T) {
			codec := mustCodec(t, typ)
			values := map[string][]any{
				"Int32":               {int32(1)},
				"String":              {"abc"},
				"Array(Int64)":        {[]any{int64(1), int64(2)}},
				"Tuple(Int8, String)": {[]any{int8(1), "abc"}},
				"Nullable(UInt16)":    {uint16(5)},
			}[typ]
			col := repeated(t, codec.DataType(), values, 10)
			m := encodeBulk(t, codec, col, []int{10}, serialization.DiscriminatorsBasic)
			// drop the last byte of the last substream
			var last string
			codec.EnumerateStreams(nil, func(path serialization.SubstreamPath) { last = path.String() })
			buf := m.bufs[last]
			require.NotNil(t, buf, last)
			buf.Truncate(buf.Len() - 1)

			got, err := column.New(codec.DataType())
			require.NoError(t, err)
			settings := &serialization.DeserializeBulkSettings{GetStream: m.reader}
			state, err := codec.DeserializeBulkStatePrefix(settings, nil)
			require.NoError(t, err)
			err = codec.DeserializeBulk(got, 10, settings, state, nil)
			assert.ErrorIs(t, err, varcol.ErrTruncatedStream)
			assert.Zero(t, got.Len())
		})
	}
}

func TestNothingCodec(t *testing.T) {
	s, err := serialization.For(varcol.Null)
	require.NoError(t, err)
	_, isCodec := s.(serialization.Codec)
	assert.False(t, isCodec)

	bulk := s.(serialization.BulkSerializer)
	col := repeated(t, varcol.Null, []any{nil}, 5)
	m := encodeBulk(t, bulk, col, []int{2, 3}, serialization.DiscriminatorsBasic)
	assert.Equal(t, make([]byte, 5), m.bytes("Regular"))
	got := decodeBulk(t, bulk, m, []int{4, 4})
	assert.Equal(t, 5, got.Len())

	var buf bytes.Buffer
	require.NoError(t, s.(serialization.TextSerializer).SerializeText(col, 0, &buf, format.JSON, format.DefaultSettings()))
	assert.Equal(t, "null", buf.String())
}

func TestNullableLayout(t *testing.T) {
	codec := mustCodec(t, "Nullable(Int32)")
	col, err := column.FromValues(codec.DataType(), int32(1), nil)
	require.NoError(t, err)
	m := encodeBulk(t, codec, col, []int{2}, serialization.DiscriminatorsBasic)
	assert.Equal(t, []byte{0, 1}, m.bytes("NullMap"))
	assert.Equal(t, []byte{1, 0, 0, 0, 0, 0, 0, 0}, m.bytes("Regular"))

	m.bufs["NullMap"] = bytes.NewBuffer([]byte{0, 2})
	m.rewind()
	got, err := column.New(codec.DataType())
	require.NoError(t, err)
	settings := &serialization.DeserializeBulkSettings{GetStream: m.reader}
	state, err := codec.DeserializeBulkStatePrefix(settings, nil)
	require.NoError(t, err)
	assert.ErrorIs(t, codec.DeserializeBulk(got, 2, settings, state, nil), varcol.ErrInvalid)
	assert.Zero(t, got.Len())
}

func TestArrayLayout(t *testing.T) {
	codec := mustCodec(t, "Array(UInt8)")
	col, err := column.FromValues(codec.DataType(), []any{uint8(1), uint8(2)}, []any{}, []any{uint8(3)})
	require.NoError(t, err)
	m := encodeBulk(t, codec, col, []int{3}, serialization.DiscriminatorsBasic)
	assert.Equal(t, []byte{2, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 1, 0, 0, 0, 0, 0, 0, 0}, m.bytes("ArraySizes"))
	assert.Equal(t, []byte{1, 2, 3}, m.bytes("ArrayElements/Regular"))

	var buf bytes.Buffer
	require.NoError(t, codec.SerializeBinary(col, 0, &buf))
	assert.Equal(t, []byte{2, 1, 2}, buf.Bytes())
}

func TestStreamNames(t *testing.T) {
	tests := []struct {
		typ  string
		want []string
	}{
		{"Int32", []string{"c"}},
		{"Array(Array(Int32))", []string{"c.size0", "c.size1", "c"}},
		{"Map(String, Int64)", []string{"c.size0", "c.keys", "c.values"}},
		{"Nullable(String)", []string{"c.null_map", "c"}},
		{"Variant(String, Array(UInt8))", []string{"c.variant_discriminators", "c.String", "c.Array(UInt8).size0", "c.Array(UInt8)"}},
	}
	for _, tt := range tests {
		t.Run(tt.typ, func(t *testing.T) {
			s, err := serialization.For(varcol.MustParseType(tt.typ))
			require.NoError(t, err)
			var names []string
			s.EnumerateStreams(nil, func(path serialization.SubstreamPath) {
				names = append(names, serialization.StreamName("c", path))
			})
			assert.Equal(t, tt.want, names)
		})
	}
}

func TestForErrors(t *testing.T) {
	_, err := serialization.For(nil)
	assert.ErrorIs(t, err, varcol.ErrInvalid)

	_, err = serialization.For(varcol.MustParseType("Array(Nothing)"))
	assert.ErrorIs(t, err, varcol.ErrUnsupportedType)
}

func TestBulkStateMismatch(t *testing.T) {
	codec := mustCodec(t, "Array(Int32)")
	col := repeated(t, codec.DataType(), []any{[]any{int32(1)}}, 2)
	settings := &serialization.SerializeBulkSettings{GetStream: newMemStreams().writer}
	err := codec.SerializeBulk(col, 0, 2, settings, "not a state")
	assert.ErrorIs(t, err, varcol.ErrInvalid)
}

func TestSubstreamsCache(t *testing.T) {
	_, err := serialization.NewSubstreamsCache(0)
	assert.Error(t, err)

	cache, err := serialization.NewSubstreamsCache(2)
	require.NoError(t, err)
	paths := make([]serialization.SubstreamPath, 3)
	for i := range paths {
		paths[i] = serialization.SubstreamPath{{Type: serialization.TupleElement, Name: fmt.Sprint(i)}}
		cache.Add(paths[i], column.NewString())
	}
	_, ok := cache.Get(paths[0])
	assert.False(t, ok, "evicted")
	_, ok = cache.Get(paths[2])
	assert.True(t, ok)
	cache.Purge()
	_, ok = cache.Get(paths[2])
	assert.False(t, ok)
}
