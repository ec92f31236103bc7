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

package streams_test

import (
	"bytes"
	"testing"

	"github.com/colfmt/varcol"
	"github.com/colfmt/varcol/streams"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var allCompressions = []streams.Compression{
	streams.Uncompressed, streams.Snappy, streams.Gzip, streams.Brotli, streams.Zstd, streams.Lz4,
}

func TestCodecRoundTrip(t *testing.T) {
	inputs := map[string][]byte{
		"empty":      {},
		"short":      []byte("variant"),
		"repetitive": bytes.Repeat([]byte{0, 1, 1, 255}, 4096),
	}
	for _, c := range allCompressions {
		codec, err := streams.GetCodec(c)
		require.NoError(t, err)
		for name, in := range inputs {
			t.Run(c.String()+"/"+name, func(t *testing.T) {
				enc, err := codec.Encode(in)
				require.NoError(t, err)
				if c != streams.Uncompressed && name == "repetitive" {
					assert.Less(t, len(enc), len(in))
				}
				dec, err := codec.Decode(enc)
				require.NoError(t, err)
				assert.Equal(t, in, dec)
			})
		}
	}
}

func TestCodecDecodeEmpty(t *testing.T) {
	for _, c := range allCompressions {
		codec, err := streams.GetCodec(c)
		require.NoError(t, err)
		enc, err := codec.Encode([]byte{})
		require.NoError(t, err)
		dec, err := codec.Decode(enc)
		require.NoError(t, err, c.String())
		assert.NotNil(t, dec, c.String())
		assert.Empty(t, dec, c.String())
	}
}

func TestParseCompression(t *testing.T) {
	for _, c := range allCompressions {
		got, err := streams.ParseCompression(c.String())
		require.NoError(t, err)
		assert.Equal(t, c, got)
	}
	got, err := streams.ParseCompression("ZSTD")
	require.NoError(t, err)
	assert.Equal(t, streams.Zstd, got)

	_, err = streams.ParseCompression("lzo")
	assert.ErrorIs(t, err, varcol.ErrInvalid)
	_, err = streams.GetCodec(streams.Compression(42))
	assert.ErrorIs(t, err, varcol.ErrInvalid)
	assert.Equal(t, "unknown", streams.Compression(42).String())
}
