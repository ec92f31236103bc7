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
	"encoding/binary"

	"github.com/colfmt/varcol"
	"github.com/zeebo/xxh3"
	"golang.org/x/xerrors"
)

// ErrChecksum is returned when a persisted substream does not match the
// checksum stored with it.
var ErrChecksum = xerrors.New("checksum mismatch")

// MaxStreamSize bounds the decoded size of a single persisted substream.
const MaxStreamSize = 1 << 34

// A frame is a persisted substream:
//
//	compression  byte
//	raw length   uvarint
//	xxh3(raw)    uint64 little endian
//	payload      compressed raw bytes
func encodeFrame(c Compression, raw []byte) ([]byte, error) {
	codec, err := GetCodec(c)
	if err != nil {
		return nil, err
	}
	payload, err := codec.Encode(raw)
	if err != nil {
		return nil, xerrors.Errorf("compress %s: %w", c, err)
	}
	out := make([]byte, 0, 1+binary.MaxVarintLen64+8+len(payload))
	out = append(out, byte(c))
	out = binary.AppendUvarint(out, uint64(len(raw)))
	out = binary.LittleEndian.AppendUint64(out, xxh3.Hash(raw))
	return append(out, payload...), nil
}

func decodeFrame(frame []byte) ([]byte, error) {
	if len(frame) == 0 {
		return nil, xerrors.Errorf("%w: empty frame", varcol.ErrTruncatedStream)
	}
	c := Compression(frame[0])
	codec, err := GetCodec(c)
	if err != nil {
		return nil, err
	}
	size, k := binary.Uvarint(frame[1:])
	if k <= 0 {
		return nil, xerrors.Errorf("%w: frame length", varcol.ErrTruncatedStream)
	}
	if size > MaxStreamSize {
		return nil, xerrors.Errorf("%w: frame of %d bytes", varcol.ErrInvalid, size)
	}
	rest := frame[1+k:]
	if len(rest) < 8 {
		return nil, xerrors.Errorf("%w: frame checksum", varcol.ErrTruncatedStream)
	}
	sum := binary.LittleEndian.Uint64(rest)
	raw, err := codec.Decode(rest[8:])
	if err != nil {
		return nil, xerrors.Errorf("decompress %s: %w", c, err)
	}
	if uint64(len(raw)) != size || xxh3.Hash(raw) != sum {
		return nil, ErrChecksum
	}
	return raw, nil
}
