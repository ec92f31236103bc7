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
	"bytes"
	"encoding/binary"
	"errors"
	"io"

	"github.com/colfmt/varcol"
	"github.com/colfmt/varcol/column"
	"github.com/colfmt/varcol/format"
	"github.com/colfmt/varcol/internal/json"
)

// readBatch bounds the rows a fixed-width read buffers at once.
const readBatch = 8192

// scalarText is the text form of a fixed-width logical type.
type scalarText[T column.FixedWidth] struct {
	append func(dst []byte, v T) []byte
	parse  func(s []byte) (T, bool)
	// stringLike values are quoted like strings in every syntax that
	// quotes strings.
	stringLike bool
	// wide integers are quoted in JSON when Quote64BitIntegers is set.
	wide bool
}

// Fixed is the codec of the fixed-width types. Values are little endian in
// binary encodings.
type Fixed[T column.FixedWidth] struct {
	dt    varcol.DataType
	text  scalarText[T]
	width int
}

func newFixed[T column.FixedWidth](dt varcol.DataType, text scalarText[T]) *Fixed[T] {
	var zero T
	return &Fixed[T]{dt: dt, text: text, width: binary.Size(zero)}
}

func (s *Fixed[T]) DataType() varcol.DataType { return s.dt }

func (s *Fixed[T]) EnumerateStreams(path SubstreamPath, cb StreamCallback) {
	cb(append(path.Clone(), Substream{Type: Regular}))
}

func (s *Fixed[T]) column(col column.Column) (*column.Fixed[T], error) {
	c, ok := col.(*column.Fixed[T])
	if !ok || !varcol.TypeEqual(c.DataType(), s.dt) {
		return nil, columnError(s, col)
	}
	return c, nil
}

func (s *Fixed[T]) SerializeBulkStatePrefix(column.Column, *SerializeBulkSettings) (BulkState, error) {
	return nil, nil
}

func (s *Fixed[T]) SerializeBulkStateSuffix(*SerializeBulkSettings, BulkState) error { return nil }

func (s *Fixed[T]) DeserializeBulkStatePrefix(*DeserializeBulkSettings, StatesCache) (BulkState, error) {
	return nil, nil
}

func (s *Fixed[T]) SerializeBulk(col column.Column, offset, limit int, settings *SerializeBulkSettings, _ BulkState) error {
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
	if w == nil || n == 0 {
		return nil
	}
	return binary.Write(w, binary.LittleEndian, c.Values()[offset:offset+n])
}

func (s *Fixed[T]) DeserializeBulk(col column.Column, limit int, settings *DeserializeBulkSettings, _ BulkState, _ SubstreamsCache) error {
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
	buf := make([]byte, min(limit, readBatch)*s.width)
	for limit > 0 {
		want := min(limit, readBatch) * s.width
		got, err := io.ReadFull(r, buf[:want])
		if got%s.width != 0 {
			c.Truncate(start)
			return truncated(io.ErrUnexpectedEOF)
		}
		vals := make([]T, got/s.width)
		if rerr := binary.Read(bytes.NewReader(buf[:got]), binary.LittleEndian, vals); rerr != nil {
			c.Truncate(start)
			return rerr
		}
		c.AppendValues(vals)
		limit -= len(vals)

		switch {
		case errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF):
			return nil
		case err != nil:
			c.Truncate(start)
			return err
		}
	}
	return nil
}

func (s *Fixed[T]) SerializeBinary(col column.Column, row int, w io.Writer) error {
	c, err := s.column(col)
	if err != nil {
		return err
	}
	return binary.Write(w, binary.LittleEndian, c.At(row))
}

func (s *Fixed[T]) DeserializeBinary(col column.Column, r ByteReader) error {
	c, err := s.column(col)
	if err != nil {
		return err
	}
	var v T
	if err := binary.Read(r, binary.LittleEndian, &v); err != nil {
		return truncated(err)
	}
	c.Append(v)
	return nil
}

func (s *Fixed[T]) SerializeText(col column.Column, row int, w format.TextWriter, syntax format.Syntax, fs *format.Settings) error {
	c, err := s.column(col)
	if err != nil {
		return err
	}
	text := s.text.append(nil, c.At(row))
	if s.text.stringLike {
		return format.WriteString(w, text, syntax, fs)
	}
	if syntax == format.JSON && (s.text.wide && fs.JSON.Quote64BitIntegers || !json.Valid(text)) {
		return format.WriteJSONString(w, text)
	}
	_, err = w.Write(text)
	return err
}

func (s *Fixed[T]) TryDeserializeText(col column.Column, token []byte, syntax format.Syntax, fs *format.Settings) bool {
	c, err := s.column(col)
	if err != nil {
		return false
	}
	var (
		lit []byte
		ok  bool
	)
	if s.text.stringLike {
		lit, ok = format.DecodeString(token, syntax, fs)
	} else {
		lit, ok = format.DecodeBare(token, syntax, fs)
	}
	if !ok {
		return false
	}
	v, ok := s.text.parse(lit)
	if !ok {
		return false
	}
	c.Append(v)
	return true
}

var _ Codec = (*Fixed[int32])(nil)
