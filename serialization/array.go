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
	"fmt"
	"io"

	"github.com/colfmt/varcol"
	"github.com/colfmt/varcol/column"
	"github.com/colfmt/varcol/format"
	"github.com/colfmt/varcol/internal/utils"
)

// MaxArraySize bounds the number of elements of a single decoded array.
const MaxArraySize = 1 << 30

// Array is the codec of Array(T). In bulk encodings the sizes go to the
// ArraySizes substream as little endian uint64 values and the elements of
// all rows to the substreams of T under ArrayElements.
type Array struct {
	dt   *varcol.ArrayType
	elem Codec
}

type arrayState struct {
	elem BulkState
}

func (s *Array) DataType() varcol.DataType { return s.dt }

func (s *Array) EnumerateStreams(path SubstreamPath, cb StreamCallback) {
	cb(append(path.Clone(), Substream{Type: ArraySizes}))
	s.elem.EnumerateStreams(append(path.Clone(), Substream{Type: ArrayElements}), cb)
}

func (s *Array) column(col column.Column) (*column.Array, error) {
	c, ok := col.(*column.Array)
	if !ok || !varcol.TypeEqual(c.DataType(), s.dt) {
		return nil, columnError(s, col)
	}
	return c, nil
}

func (s *Array) SerializeBulkStatePrefix(col column.Column, settings *SerializeBulkSettings) (BulkState, error) {
	c, err := s.column(col)
	if err != nil {
		return nil, err
	}
	push(&settings.Path, Substream{Type: ArrayElements})
	defer pop(&settings.Path, 1)
	elem, err := s.elem.SerializeBulkStatePrefix(c.Elems(), settings)
	if err != nil {
		return nil, err
	}
	return &arrayState{elem: elem}, nil
}

func (s *Array) SerializeBulkStateSuffix(settings *SerializeBulkSettings, state BulkState) error {
	st, ok := state.(*arrayState)
	if !ok {
		return stateError("array", state)
	}
	push(&settings.Path, Substream{Type: ArrayElements})
	defer pop(&settings.Path, 1)
	return s.elem.SerializeBulkStateSuffix(settings, st.elem)
}

func (s *Array) DeserializeBulkStatePrefix(settings *DeserializeBulkSettings, cache StatesCache) (BulkState, error) {
	push(&settings.Path, Substream{Type: ArrayElements})
	defer pop(&settings.Path, 1)
	elem, err := s.elem.DeserializeBulkStatePrefix(settings, cache)
	if err != nil {
		return nil, err
	}
	return &arrayState{elem: elem}, nil
}

func (s *Array) SerializeBulk(col column.Column, offset, limit int, settings *SerializeBulkSettings, state BulkState) error {
	c, err := s.column(col)
	if err != nil {
		return err
	}
	st, ok := state.(*arrayState)
	if !ok {
		return stateError("array", state)
	}
	n, err := rowRange(c, offset, limit)
	if err != nil {
		return err
	}

	push(&settings.Path, Substream{Type: ArraySizes})
	if w := settings.stream(); w != nil {
		buf := make([]byte, 0, 8*n)
		for row := offset; row < offset+n; row++ {
			buf = binary.LittleEndian.AppendUint64(buf, uint64(c.Size(row)))
		}
		if _, err := w.Write(buf); err != nil {
			pop(&settings.Path, 1)
			return err
		}
	}
	pop(&settings.Path, 1)

	start, end := c.Offset(offset), c.Offset(offset+n)
	if end == start {
		return nil
	}
	push(&settings.Path, Substream{Type: ArrayElements})
	defer pop(&settings.Path, 1)
	return s.elem.SerializeBulk(c.Elems(), start, end-start, settings, st.elem)
}

func (s *Array) DeserializeBulk(col column.Column, limit int, settings *DeserializeBulkSettings, state BulkState, cache SubstreamsCache) error {
	c, err := s.column(col)
	if err != nil {
		return err
	}
	st, ok := state.(*arrayState)
	if !ok {
		return stateError("array", state)
	}

	push(&settings.Path, Substream{Type: ArraySizes})
	sizes, err := readSizes(settings.stream(), limit)
	pop(&settings.Path, 1)
	if err != nil {
		return err
	}
	total := 0
	for _, size := range sizes {
		if total, ok = utils.Add(total, size); !ok || total > MaxArraySize {
			return fmt.Errorf("%w: arrays of more than %d elements", varcol.ErrInvalid, MaxArraySize)
		}
	}

	elems := c.Elems()
	base := elems.Len()
	if total > 0 {
		push(&settings.Path, Substream{Type: ArrayElements})
		err := s.elem.DeserializeBulk(elems, total, settings, st.elem, cache)
		pop(&settings.Path, 1)
		if err != nil {
			return err
		}
		if got := elems.Len() - base; got != total {
			elems.Truncate(base)
			return fmt.Errorf("%w: read %d of %d array elements", varcol.ErrTruncatedStream, got, total)
		}
	}

	start := c.Len()
	for _, size := range sizes {
		if err := c.AppendSize(size); err != nil {
			c.Truncate(start)
			elems.Truncate(base)
			return err
		}
	}
	return nil
}

// readSizes reads up to limit little endian uint64 sizes.
func readSizes(r ByteReader, limit int) ([]int, error) {
	if r == nil || limit <= 0 {
		return nil, nil
	}
	sizes := make([]int, 0, min(limit, readBatch))
	var buf [8]byte
	for len(sizes) < limit {
		if _, err := io.ReadFull(r, buf[:]); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, truncated(err)
		}
		size := binary.LittleEndian.Uint64(buf[:])
		if size > MaxArraySize {
			return nil, fmt.Errorf("%w: array of %d elements", varcol.ErrInvalid, size)
		}
		sizes = append(sizes, int(size))
	}
	return sizes, nil
}

func (s *Array) SerializeBinary(col column.Column, row int, w io.Writer) error {
	c, err := s.column(col)
	if err != nil {
		return err
	}
	if _, err := w.Write(binary.AppendUvarint(nil, uint64(c.Size(row)))); err != nil {
		return err
	}
	for i := c.Offset(row); i < c.Offset(row+1); i++ {
		if err := s.elem.SerializeBinary(c.Elems(), i, w); err != nil {
			return err
		}
	}
	return nil
}

func (s *Array) DeserializeBinary(col column.Column, r ByteReader) error {
	c, err := s.column(col)
	if err != nil {
		return err
	}
	size, err := binary.ReadUvarint(r)
	if err != nil {
		return truncated(err)
	}
	if size > MaxArraySize {
		return fmt.Errorf("%w: array of %d elements", varcol.ErrInvalid, size)
	}
	base := c.Elems().Len()
	for i := uint64(0); i < size; i++ {
		if err := s.elem.DeserializeBinary(c.Elems(), r); err != nil {
			c.Elems().Truncate(base)
			return err
		}
	}
	return c.AppendSize(int(size))
}

func (s *Array) SerializeText(col column.Column, row int, w format.TextWriter, syntax format.Syntax, fs *format.Settings) error {
	c, err := s.column(col)
	if err != nil {
		return err
	}
	return writeComposite(w, syntax, fs, func(w format.TextWriter, esyn format.Syntax) error {
		if err := w.WriteByte('['); err != nil {
			return err
		}
		for i := c.Offset(row); i < c.Offset(row+1); i++ {
			if i > c.Offset(row) {
				if err := w.WriteByte(','); err != nil {
					return err
				}
			}
			if err := s.elem.SerializeText(c.Elems(), i, w, esyn, fs); err != nil {
				return err
			}
		}
		return w.WriteByte(']')
	})
}

func (s *Array) TryDeserializeText(col column.Column, token []byte, syntax format.Syntax, fs *format.Settings) bool {
	c, err := s.column(col)
	if err != nil {
		return false
	}
	inner, esyn, ok := compositeToken(token, syntax, fs)
	if !ok {
		return false
	}
	tokens, ok := format.SplitList(inner, '[', ']', esyn)
	if !ok {
		return false
	}
	base := c.Elems().Len()
	for _, tok := range tokens {
		if !s.elem.TryDeserializeText(c.Elems(), tok, esyn, fs) {
			c.Elems().Truncate(base)
			return false
		}
	}
	return c.AppendSize(len(tokens)) == nil
}

// writeComposite writes an array, tuple or map value. body writes the value
// in the element syntax: JSON for JSON, Quoted otherwise, which the other
// syntaxes then embed.
func writeComposite(w format.TextWriter, syntax format.Syntax, fs *format.Settings, body func(format.TextWriter, format.Syntax) error) error {
	esyn := format.ElementSyntax(syntax)
	if syntax == esyn {
		return body(w, esyn)
	}
	var buf bytes.Buffer
	if err := body(&buf, esyn); err != nil {
		return err
	}
	return format.WriteComposite(w, buf.Bytes(), syntax, fs)
}

// compositeToken returns the element syntax form held by the token of an
// array, tuple or map.
func compositeToken(token []byte, syntax format.Syntax, fs *format.Settings) ([]byte, format.Syntax, bool) {
	if !syntax.CanRead() {
		return nil, 0, false
	}
	esyn := format.ElementSyntax(syntax)
	if syntax == esyn {
		return token, esyn, true
	}
	inner, ok := format.DecodeComposite(token, syntax, fs)
	return inner, esyn, ok
}

var _ Codec = (*Array)(nil)
