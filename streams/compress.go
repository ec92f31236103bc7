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

package streams

import (
	"bytes"
	"io"
	"strings"
	"sync"

	"github.com/andybalholm/brotli"
	"github.com/colfmt/varcol"
	"github.com/golang/snappy"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"golang.org/x/xerrors"
)

// Compression identifies the codec a persisted substream is compressed
// with. The values are written to disk and must not change.
type Compression int8

const (
	Uncompressed Compression = iota
	Snappy
	Gzip
	Brotli
	Zstd
	Lz4
)

var compressionNames = [...]string{
	Uncompressed: "none",
	Snappy:       "snappy",
	Gzip:         "gzip",
	Brotli:       "brotli",
	Zstd:         "zstd",
	Lz4:          "lz4",
}

func (c Compression) String() string {
	if c < 0 || int(c) >= len(compressionNames) {
		return "unknown"
	}
	return compressionNames[c]
}

// ParseCompression returns the compression called s, ignoring case.
func ParseCompression(s string) (Compression, error) {
	for i, name := range compressionNames {
		if strings.EqualFold(s, name) {
			return Compression(i), nil
		}
	}
	return Uncompressed, xerrors.Errorf("%w: unknown compression %q", varcol.ErrInvalid, s)
}

// Codec compresses whole substreams.
type Codec interface {
	Encode(src []byte) ([]byte, error)
	Decode(src []byte) ([]byte, error)
}

// GetCodec returns the codec of c.
func GetCodec(c Compression) (Codec, error) {
	switch c {
	case Uncompressed:
		return nocodec{}, nil
	case Snappy:
		return snappyCodec{}, nil
	case Gzip:
		return gzipCodec{}, nil
	case Brotli:
		return brotliCodec{}, nil
	case Zstd:
		return zstdCodec{}, nil
	case Lz4:
		return lz4Codec{}, nil
	}
	return nil, xerrors.Errorf("%w: unknown compression %d", varcol.ErrInvalid, c)
}

type nocodec struct{}

func (nocodec) Encode(src []byte) ([]byte, error) { return bytes.Clone(src), nil }
func (nocodec) Decode(src []byte) ([]byte, error) { return bytes.Clone(src), nil }

type snappyCodec struct{}

func (snappyCodec) Encode(src []byte) ([]byte, error) { return snappy.Encode(nil, src), nil }
func (snappyCodec) Decode(src []byte) ([]byte, error) { return nonNil(snappy.Decode(nil, src)) }

// nonNil makes an empty decoded payload an empty slice, as io.ReadAll
// returns for the stream codecs.
func nonNil(out []byte, err error) ([]byte, error) {
	if err == nil && out == nil {
		out = []byte{}
	}
	return out, err
}

// streamEncode runs src through the compressing writer returned by wrap.
func streamEncode(src []byte, wrap func(io.Writer) io.WriteCloser) ([]byte, error) {
	var buf bytes.Buffer
	w := wrap(&buf)
	if _, err := w.Write(src); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

type gzipCodec struct{}

func (gzipCodec) Encode(src []byte) ([]byte, error) {
	return streamEncode(src, func(w io.Writer) io.WriteCloser { return gzip.NewWriter(w) })
}

func (gzipCodec) Decode(src []byte) ([]byte, error) {
	r, err := gzip.NewReader(bytes.NewReader(src))
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}

type brotliCodec struct{}

func (brotliCodec) Encode(src []byte) ([]byte, error) {
	return streamEncode(src, func(w io.Writer) io.WriteCloser { return brotli.NewWriter(w) })
}

func (brotliCodec) Decode(src []byte) ([]byte, error) {
	return io.ReadAll(brotli.NewReader(bytes.NewReader(src)))
}

type lz4Codec struct{}

func (lz4Codec) Encode(src []byte) ([]byte, error) {
	return streamEncode(src, func(w io.Writer) io.WriteCloser { return lz4.NewWriter(w) })
}

func (lz4Codec) Decode(src []byte) ([]byte, error) {
	return io.ReadAll(lz4.NewReader(bytes.NewReader(src)))
}

// The zstd encoder and decoder are safe for concurrent EncodeAll and
// DecodeAll calls and are shared by every substream.
var (
	zstdOnce sync.Once
	zstdEnc  *zstd.Encoder
	zstdDec  *zstd.Decoder
	zstdErr  error
)

func zstdCoders() (*zstd.Encoder, *zstd.Decoder, error) {
	zstdOnce.Do(func() {
		zstdEnc, zstdErr = zstd.NewWriter(nil)
		if zstdErr != nil {
			return
		}
		zstdDec, zstdErr = zstd.NewReader(nil, zstd.WithDecoderConcurrency(0))
	})
	return zstdEnc, zstdDec, zstdErr
}

type zstdCodec struct{}

func (zstdCodec) Encode(src []byte) ([]byte, error) {
	enc, _, err := zstdCoders()
	if err != nil {
		return nil, err
	}
	return enc.EncodeAll(src, nil), nil
}

func (zstdCodec) Decode(src []byte) ([]byte, error) {
	_, dec, err := zstdCoders()
	if err != nil {
		return nil, err
	}
	return nonNil(dec.DecodeAll(src, nil))
}
