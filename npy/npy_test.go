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

package npy_test

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/colfmt/varcol"
	"github.com/colfmt/varcol/column"
	"github.com/colfmt/varcol/npy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func values(t *testing.T, typ string, vals ...any) column.Column {
	t.Helper()
	col, err := column.FromValues(varcol.MustParseType(typ), vals...)
	require.NoError(t, err)
	return col
}

// split returns the dict and the data of an npy v1.0 file.
func split(t *testing.T, out []byte) (string, []byte) {
	t.Helper()
	require.Equal(t, "\x93NUMPY\x01\x00", string(out[:8]))
	n := int(binary.LittleEndian.Uint16(out[8:10]))
	require.Zero(t, (10+n)%64, "header is not 64 byte aligned")
	header := out[10 : 10+n]
	require.Equal(t, byte('\n'), header[n-1])
	return string(bytes.TrimRight(header, " \n")), out[10+n:]
}

func TestWriteInt32(t *testing.T) {
	var buf bytes.Buffer
	w, err := npy.NewWriter(&buf, varcol.PrimitiveTypes.Int32)
	require.NoError(t, err)
	require.NoError(t, w.Write(values(t, "Int32", int32(1), int32(-1))))
	require.NoError(t, w.Write(values(t, "Int32", int32(256))))
	require.NoError(t, w.Close())

	dict, data := split(t, buf.Bytes())
	assert.Equal(t, "{'descr':'<i4','fortran_order':False,'shape':(3,),}", dict)
	assert.Equal(t, []byte{1, 0, 0, 0, 0xff, 0xff, 0xff, 0xff, 0, 1, 0, 0}, data)
	assert.Len(t, buf.Bytes(), 64+12)
}

func TestWriteNestedArrays(t *testing.T) {
	var buf bytes.Buffer
	w, err := npy.NewWriter(&buf, varcol.MustParseType("Array(Array(Float32))"))
	require.NoError(t, err)
	row := func(a, b float32) any { return []any{[]any{a, b}, []any{b, a}, []any{a, a}} }
	require.NoError(t, w.Write(values(t, "Array(Array(Float32))", row(1, 2))))
	require.NoError(t, w.Write(values(t, "Array(Array(Float32))", row(3, 4), row(5, 6))))
	assert.Equal(t, []int{3, 3, 2}, w.Shape())
	require.NoError(t, w.Close())

	dict, data := split(t, buf.Bytes())
	assert.Equal(t, "{'descr':'<f4','fortran_order':False,'shape':(3,3,2,),}", dict)
	got := make([]float32, len(data)/4)
	require.NoError(t, binary.Read(bytes.NewReader(data), binary.LittleEndian, got))
	assert.Equal(t, []float32{1, 2, 2, 1, 1, 1, 3, 4, 4, 3, 3, 3, 5, 6, 6, 5, 5, 5}, got)
}

func TestWriteStrings(t *testing.T) {
	var buf bytes.Buffer
	w, err := npy.NewWriter(&buf, varcol.BinaryTypes.String)
	require.NoError(t, err)
	require.NoError(t, w.Write(values(t, "String", "a", "")))
	require.NoError(t, w.Write(values(t, "String", "abc")))
	require.NoError(t, w.Close())

	dict, data := split(t, buf.Bytes())
	assert.Equal(t, "{'descr':'|S3','fortran_order':False,'shape':(3,),}", dict)
	assert.Equal(t, []byte("a\x00\x00\x00\x00\x00abc"), data)
}

func TestWriteFixedString(t *testing.T) {
	var buf bytes.Buffer
	w, err := npy.NewWriter(&buf, varcol.MustParseType("FixedString(2)"))
	require.NoError(t, err)
	require.NoError(t, w.Write(values(t, "FixedString(2)", "ab", "c")))
	require.NoError(t, w.Close())

	dict, data := split(t, buf.Bytes())
	assert.Equal(t, "{'descr':'|S2','fortran_order':False,'shape':(2,),}", dict)
	assert.Equal(t, []byte("abc\x00"), data)
}

func TestWriteEmpty(t *testing.T) {
	var buf bytes.Buffer
	w, err := npy.NewWriter(&buf, varcol.MustParseType("Array(UInt16)"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	dict, data := split(t, buf.Bytes())
	assert.Equal(t, "{'descr':'<u2','fortran_order':False,'shape':(0,0,),}", dict)
	assert.Empty(t, data)
}

func TestRaggedArrays(t *testing.T) {
	var buf bytes.Buffer
	w, err := npy.NewWriter(&buf, varcol.MustParseType("Array(Int8)"))
	require.NoError(t, err)
	require.NoError(t, w.Write(values(t, "Array(Int8)", []any{int8(1), int8(2)})))
	err = w.Write(values(t, "Array(Int8)", []any{int8(1)}))
	assert.ErrorIs(t, err, varcol.ErrInvalid)

	// the writer stays failed and writes nothing
	assert.ErrorIs(t, w.Write(values(t, "Array(Int8)", []any{int8(1), int8(2)})), varcol.ErrInvalid)
	assert.ErrorIs(t, w.Close(), varcol.ErrInvalid)
	assert.Zero(t, buf.Len())
}

func TestWriterErrors(t *testing.T) {
	for _, typ := range []string{"Date", "Array(String)", "Variant(Int8, String)", "Bool", "Tuple(Int8)"} {
		_, err := npy.NewWriter(new(bytes.Buffer), varcol.MustParseType(typ))
		if typ == "Array(String)" {
			assert.NoError(t, err, typ)
			continue
		}
		assert.ErrorIs(t, err, varcol.ErrUnsupportedType, typ)
	}

	w, err := npy.NewWriter(new(bytes.Buffer), varcol.PrimitiveTypes.Int64)
	require.NoError(t, err)
	assert.ErrorIs(t, w.Write(values(t, "Int32", int32(1))), varcol.ErrSchemaMismatch)
	require.NoError(t, w.Close())
	assert.ErrorIs(t, w.Write(values(t, "Int64", int64(1))), varcol.ErrInvalid)
}
