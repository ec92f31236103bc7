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
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/colfmt/varcol"
	"github.com/colfmt/varcol/format"
	"github.com/pterm/pterm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	pterm.DisableStyling()
	os.Exit(m.Run())
}

func quietLogger() *pterm.Logger {
	return pterm.DefaultLogger.WithWriter(io.Discard)
}

func TestParseLines(t *testing.T) {
	dt, err := varcol.ParseType("Variant(Int32, String)")
	require.NoError(t, err)

	col, err := parseLines(strings.NewReader("1\nabc\r\n\\N\n"), dt, format.Escaped, format.DefaultSettings())
	require.NoError(t, err)
	assert.Equal(t, 3, col.Len())

	dt, err = varcol.ParseType("Int32")
	require.NoError(t, err)
	_, err = parseLines(strings.NewReader("1\nx\n"), dt, format.Escaped, format.DefaultSettings())
	assert.ErrorIs(t, err, varcol.ErrSyntax)
	assert.ErrorContains(t, err, "line 2")

	_, err = parseLines(strings.NewReader("1\n"), dt, format.XML, format.DefaultSettings())
	assert.ErrorIs(t, err, varcol.ErrInvalid)
}

func TestJSONPath(t *testing.T) {
	assert.Equal(t, "v", jsonPath("v"))
	assert.Equal(t, `v\:Array\(Int64\)`, jsonPath("v:Array(Int64)"))
	assert.Equal(t, `a\.b`, jsonPath("a.b"))
}

func TestParseAndOrder(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, runParse(&out, []string{"Array(Nullable(String))"}))
	assert.Contains(t, out.String(), "Array(Nullable(String))")

	out.Reset()
	require.NoError(t, runOrder(&out, "Variant(String, Int32)"))
	assert.Contains(t, out.String(), "try-0")
	assert.Contains(t, out.String(), "try-1")

	assert.ErrorIs(t, runOrder(&out, "Int32"), varcol.ErrInvalid)
	assert.ErrorIs(t, runParse(&out, []string{"Array("}), varcol.ErrSyntax)
}

func TestEncodeDecode(t *testing.T) {
	for _, sqlite := range []bool{false, true} {
		dir := t.TempDir()
		input := filepath.Join(dir, "values.tsv")
		require.NoError(t, os.WriteFile(input, []byte("1\nabc\n\\N\n"), 0o644))
		store := filepath.Join(dir, "store")
		if sqlite {
			store += ".db"
		}

		ctx := context.Background()
		require.NoError(t, run(ctx, &config{
			Encode:      true,
			Type:        "Variant(Int32, String)",
			Column:      "v",
			Syntax:      "escaped",
			Chunk:       2,
			Compact:     true,
			Compression: "zstd",
			Sqlite:      sqlite,
			Input:       input,
			Store:       store,
		}, quietLogger()))

		var out bytes.Buffer
		require.NoError(t, runDecode(ctx, &out, &config{
			Decode: true,
			Syntax: "escaped",
			JSON:   true,
			Sqlite: sqlite,
			Store:  store,
			Spec:   []string{"v", "v:String"},
		}, quietLogger()))
		assert.Equal(t, `{"v":1,"v:String":null}
{"v":"abc","v:String":"abc"}
{"v":null,"v:String":null}
`, out.String())

		out.Reset()
		require.NoError(t, runStreams(ctx, &out, &config{Streams: true, Sqlite: sqlite, Store: store}))
		assert.Contains(t, out.String(), "v.variant_discriminators")
		assert.Contains(t, out.String(), "Variant(Int32, String)")
	}
}

func TestNpy(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "values.tsv")
	require.NoError(t, os.WriteFile(input, []byte("[1,2]\n[3,4]\n"), 0o644))
	store := filepath.Join(dir, "store")
	out := filepath.Join(dir, "a.npy")

	ctx := context.Background()
	require.NoError(t, run(ctx, &config{
		Encode:      true,
		Type:        "Array(Int16)",
		Column:      "a",
		Syntax:      "escaped",
		Compression: "none",
		Input:       input,
		Store:       store,
	}, quietLogger()))
	require.NoError(t, run(ctx, &config{Npy: true, Store: store, Spec: []string{"a"}, Out: out}, quietLogger()))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	require.Len(t, data, 64+8)
	assert.Equal(t, "\x93NUMPY", string(data[:6]))
	assert.Contains(t, string(data[:64]), "'shape':(2,2,)")
	assert.Equal(t, []byte{1, 0, 2, 0, 3, 0, 4, 0}, data[64:])
}
