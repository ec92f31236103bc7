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
	"io"
	"testing"

	"github.com/colfmt/varcol"
	"github.com/colfmt/varcol/column"
	"github.com/colfmt/varcol/serialization"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

// memStreams keeps the substreams of one column in memory, keyed by path.
type memStreams struct {
	bufs    map[string]*bytes.Buffer
	readers map[string]*bytes.Reader
}

func newMemStreams() *memStreams {
	return &memStreams{bufs: make(map[string]*bytes.Buffer), readers: make(map[string]*bytes.Reader)}
}

func (m *memStreams) writer(path serialization.SubstreamPath) io.Writer {
	key := path.String()
	b, ok := m.bufs[key]
	if !ok {
		b = new(bytes.Buffer)
		m.bufs[key] = b
	}
	return b
}

func (m *memStreams) reader(path serialization.SubstreamPath) serialization.ByteReader {
	key := path.String()
	if r, ok := m.readers[key]; ok {
		return r
	}
	b, ok := m.bufs[key]
	if !ok {
		return nil
	}
	r := bytes.NewReader(b.Bytes())
	m.readers[key] = r
	return r
}

// rewind restarts every reader from the beginning of its substream.
func (m *memStreams) rewind() { clear(m.readers) }

func (m *memStreams) bytes(key string) []byte {
	if b, ok := m.bufs[key]; ok {
		return b.Bytes()
	}
	return nil
}

// chunks splits total rows into chunks of at most size rows.
func chunks(total, size int) []int {
	var out []int
	for total > 0 {
		n := min(total, size)
		out = append(out, n)
		total -= n
	}
	return out
}

func mustCodec(t *testing.T, typ string) serialization.Codec {
	t.Helper()
	s, err := serialization.For(varcol.MustParseType(typ))
	require.NoError(t, err)
	codec, ok := s.(serialization.Codec)
	require.True(t, ok, "%s has no codec", typ)
	return codec
}

func encodeBulk(t *testing.T, s serialization.BulkSerializer, col column.Column, sizes []int, mode serialization.DiscriminatorsMode) *memStreams {
	t.Helper()
	m := newMemStreams()
	settings := &serialization.SerializeBulkSettings{GetStream: m.writer, DiscriminatorsMode: mode}
	state, err := s.SerializeBulkStatePrefix(col, settings)
	require.NoError(t, err)
	offset := 0
	for _, n := range sizes {
		require.NoError(t, s.SerializeBulk(col, offset, n, settings, state))
		offset += n
	}
	require.NoError(t, s.SerializeBulkStateSuffix(settings, state))
	require.Empty(t, settings.Path)
	return m
}

func decodeBulk(t *testing.T, s serialization.BulkSerializer, m *memStreams, sizes []int) column.Column {
	t.Helper()
	col, err := column.New(s.DataType())
	require.NoError(t, err)
	settings := &serialization.DeserializeBulkSettings{GetStream: m.reader}
	state, err := s.DeserializeBulkStatePrefix(settings, nil)
	require.NoError(t, err)
	for _, n := range sizes {
		require.NoError(t, s.DeserializeBulk(col, n, settings, state, nil))
	}
	require.Empty(t, settings.Path)
	return col
}

func assertSameValues(t *testing.T, want, got column.Column) {
	t.Helper()
	require.Equal(t, want.Len(), got.Len())
	if diff := cmp.Diff(column.Values(want), column.Values(got)); diff != "" {
		t.Errorf("values mismatch (-want +got):\n%s", diff)
	}
}
