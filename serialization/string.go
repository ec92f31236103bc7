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

package serialization

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/colfmt/varcol"
	"github.com/colfmt/varcol/column"
	"github.com/colfmt/varcol/format"
)

// MaxStringSize bounds the length of a single decoded string.
const MaxStringSize = 1 << 30

// String is the codec of the String type. Binary encodings write each value
// as its uvarint length followed by the bytes.
type String struct{}

func (String) DataType() varcol.DataType { return varcol.BinaryTypes.String }

func (String) EnumerateStreams(path SubstreamPath, cb StreamCallback) {
	cb(append(path.Clone(), Substream{Type: Regular}))
}

func (s String) column(col column.Column) (*column.String, error) {
	c, ok := col.(*column.String)
	if !ok {
		return nil, columnError(s, col)
	}
	return c, nil
}

func (String) SerializeBulkStatePrefix(column.Column, *SerializeBulkSettings) (BulkState, error) {
	return nil, nil
}

func (String) SerializeBulkStateSuffix(*SerializeBulkSettings, BulkState) error { return nil }

func (String) DeserializeBulkStatePrefix(*DeserializeBulkSettings, StatesCache) (BulkState, error) {
	return nil, nil
}

func (s String) SerializeBulk(col column.Column, offset, limit int, settings *SerializeBulkSettings, _ BulkState) error {
	c, err := s.column(col)
	if err != nil {
		return err
	}
	n, err := rowRange(c, offset, limit)
	if err != nil {
		return err
	}
	push(&settings.Path, Substream{Type: Regular})
	defer pop(&settings.Path, 1)
	w := settings.stream()
	if w == nil {
		return nil
	}
	var buf []byte
	for row := offset; row < offset+n; row++ {
		v := c.Bytes(row)
		buf = binary.AppendUvarint(buf[:0], uint64(len(v)))
		buf = append(buf, v...)
		if _, err := w.Write(buf); err != nil {
			return err
		}
	}
	return nil
}

func (s String) DeserializeBulk(col column.Column, limit int, settings *DeserializeBulkSettings, _ BulkState, _ SubstreamsCache) error {
	c, err := s.column(col)
	if err != nil {
		return err
	}
	push(&settings.Path, Substream{Type: Regular})
	defer pop(&settings.Path, 1)
	r := settings.stream()
	if r == nil {
		return nil
	}
	start := c.Len()
	for i := 0; i < limit; i++ {
		v, err := readString(r)
		if errors.Is(err, io.EOF) {
			return nil
		} else if err != nil {
			c.Truncate(start)
			return err
		}
		c.Append(v)
	}
	return nil
}

// readString reads one length prefixed string. It returns io.EOF only when r
// ends before the length.
func readString(r ByteReader) ([]byte, error) {
	size, err := binary.ReadUvarint(r)
	switch {
	case errors.Is(err, io.EOF):
		return nil, io.EOF
	case err != nil:
		return nil, truncated(err)
	case size > MaxStringSize:
		return nil, fmt.Errorf("%w: string of %d bytes exceeds the limit of %d", varcol.ErrInvalid, size, MaxStringSize)
	}
	v := make([]byte, size)
	if _, err := io.ReadFull(r, v); err != nil {
		return nil, truncated(err)
	}
	return v, nil
}

func writeString(w io.Writer, v []byte) error {
	if _, err := w.Write(binary.AppendUvarint(nil, uint64(len(v)))); err != nil {
		return err
	}
	_, err := w.Write(v)
	return err
}

func (s String) SerializeBinary(col column.Column, row int, w io.Writer) error {
	c, err := s.column(col)
	if err != nil {
		return err
	}
	return writeString(w, c.Bytes(row))
}

func (s String) DeserializeBinary(col column.Column, r ByteReader) error {
	c, err := s.column(col)
	if err != nil {
		return err
	}
	v, err := readString(r)
	if err != nil {
		return truncated(err)
	}
	c.Append(v)
	return nil
}

func (s String) SerializeText(col column.Column, row int, w format.TextWriter, syntax format.Syntax, fs *format.Settings) error {
	c, err := s.column(col)
	if err != nil {
		return err
	}
	return format.WriteString(w, c.Bytes(row), syntax, fs)
}

func (s String) TryDeserializeText(col column.Column, token []byte, syntax format.Syntax, fs *format.Settings) bool {
	c, err := s.column(col)
	if err != nil {
		return false
	}
	v, ok := format.DecodeString(token, syntax, fs)
	if !ok {
		return false
	}
	c.Append(v)
	return true
}

// FixedString is the codec of FixedString(N): N bytes per value in binary
// encodings.
type FixedString struct {
	dt *varcol.FixedStringType
}

func (s *FixedString) DataType() varcol.DataType { return s.dt }

func (s *FixedString) EnumerateStreams(path SubstreamPath, cb StreamCallback) {
	cb(append(path.Clone(), Substream{Type: Regular}))
}

func (s *FixedString) column(col column.Column) (*column.FixedString, error) {
	c, ok := col.(*column.FixedString)
	if !ok || !varcol.TypeEqual(c.DataType(), s.dt) {
		return nil, columnError(s, col)
	}
	return c, nil
}

func (s *FixedString) SerializeBulkStatePrefix(column.Column, *SerializeBulkSettings) (BulkState, error) {
	return nil, nil
}

func (s *FixedString) SerializeBulkStateSuffix(*SerializeBulkSettings, BulkState) error { return nil }

func (s *FixedString) DeserializeBulkStatePrefix(*DeserializeBulkSettings, StatesCache) (BulkState, error) {
	return nil, nil
}

func (s *FixedString) SerializeBulk(col column.Column, offset, limit int, settings *SerializeBulkSettings, _ BulkState) error {
	c, err := s.column(col)
	if err != nil {
		return err
	}
	n, err := rowRange(c, offset, limit)
	if err != nil {
		return err
	}
	push(&settings.Path, Substream{Type: Regular})
	defer pop(&settings.Path, 1)
	w := settings.stream()
	if w == nil {
		return nil
	}
	for row := offset; row < offset+n; row++ {
		if _, err := w.Write(c.Bytes(row)); err != nil {
			return err
		}
	}
	return nil
}

func (s *FixedString) DeserializeBulk(col column.Column, limit int, settings *DeserializeBulkSettings, _ BulkState, _ SubstreamsCache) error {
	c, err := s.column(col)
	if err != nil {
		return err
	}
	push(&settings.Path, Substream{Type: Regular})
	defer pop(&settings.Path, 1)
	r := settings.stream()
	if r == nil {
		return nil
	}
	start := c.Len()
	buf := make([]byte, s.dt.N)
	for i := 0; i < limit; i++ {
		if _, err := io.ReadFull(r, buf); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			c.Truncate(start)
			return truncated(err)
		}
		if err := c.Append(buf); err != nil {
			c.Truncate(start)
			return err
		}
	}
	return nil
}

func (s *FixedString) SerializeBinary(col column.Column, row int, w io.Writer) error {
	c, err := s.column(col)
	if err != nil {
		return err
	}
	_, err = w.Write(c.Bytes(row))
	return err
}

func (s *FixedString) DeserializeBinary(col column.Column, r ByteReader) error {
	c, err := s.column(col)
	if err != nil {
		return err
	}
	buf := make([]byte, s.dt.N)
	if _, err := io.ReadFull(r, buf); err != nil {
		return truncated(err)
	}
	return c.Append(buf)
}

func (s *FixedString) SerializeText(col column.Column, row int, w format.TextWriter, syntax format.Syntax, fs *format.Settings) error {
	c, err := s.column(col)
	if err != nil {
		return err
	}
	return format.WriteString(w, c.Bytes(row), syntax, fs)
}

func (s *FixedString) TryDeserializeText(col column.Column, token []byte, syntax format.Syntax, fs *format.Settings) bool {
	c, err := s.column(col)
	if err != nil {
		return false
	}
	v, ok := format.DecodeString(token, syntax, fs)
	if !ok || len(v) > s.dt.N {
		return false
	}
	return c.Append(v) == nil
}

var (
	_ Codec = String{}
	_ Codec = (*FixedString)(nil)
)
