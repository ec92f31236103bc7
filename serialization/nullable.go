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
	"errors"
	"fmt"
	"io"

	"github.com/colfmt/varcol"
	"github.com/colfmt/varcol/column"
	"github.com/colfmt/varcol/format"
)

// Nullable is the codec of Nullable(T). The null map is a byte per row in
// the NullMap substream, 1 for NULL; the inner values, defaults for NULL
// rows, use the substreams of T at the same path.
type Nullable struct {
	dt    *varcol.NullableType
	inner Codec
}

func (s *Nullable) DataType() varcol.DataType { return s.dt }

func (s *Nullable) EnumerateStreams(path SubstreamPath, cb StreamCallback) {
	cb(append(path.Clone(), Substream{Type: NullMap}))
	s.inner.EnumerateStreams(path, cb)
}

func (s *Nullable) column(col column.Column) (*column.Nullable, error) {
	c, ok := col.(*column.Nullable)
	if !ok || !varcol.TypeEqual(c.DataType(), s.dt) {
		return nil, columnError(s, col)
	}
	return c, nil
}

func (s *Nullable) SerializeBulkStatePrefix(col column.Column, settings *SerializeBulkSettings) (BulkState, error) {
	c, err := s.column(col)
	if err != nil {
		return nil, err
	}
	return s.inner.SerializeBulkStatePrefix(c.Inner(), settings)
}

func (s *Nullable) SerializeBulkStateSuffix(settings *SerializeBulkSettings, state BulkState) error {
	return s.inner.SerializeBulkStateSuffix(settings, state)
}

func (s *Nullable) DeserializeBulkStatePrefix(settings *DeserializeBulkSettings, cache StatesCache) (BulkState, error) {
	return s.inner.DeserializeBulkStatePrefix(settings, cache)
}

func (s *Nullable) SerializeBulk(col column.Column, offset, limit int, settings *SerializeBulkSettings, state BulkState) error {
	c, err := s.column(col)
	if err != nil {
		return err
	}
	n, err := rowRange(c, offset, limit)
	if err != nil || n == 0 {
		return err
	}
	push(&settings.Path, Substream{Type: NullMap})
	if w := settings.stream(); w != nil {
		buf := make([]byte, n)
		for i := range buf {
			if c.IsNull(offset + i) {
				buf[i] = 1
			}
		}
		if _, err := w.Write(buf); err != nil {
			pop(&settings.Path, 1)
			return err
		}
	}
	pop(&settings.Path, 1)
	return s.inner.SerializeBulk(c.Inner(), offset, n, settings, state)
}

func (s *Nullable) DeserializeBulk(col column.Column, limit int, settings *DeserializeBulkSettings, state BulkState, cache SubstreamsCache) error {
	c, err := s.column(col)
	if err != nil {
		return err
	}
	push(&settings.Path, Substream{Type: NullMap})
	nulls, err := readBytes(settings.stream(), limit)
	pop(&settings.Path, 1)
	if err != nil || len(nulls) == 0 {
		return err
	}

	start := c.Len()
	inner := c.Inner()
	if err := s.inner.DeserializeBulk(inner, len(nulls), settings, state, cache); err != nil {
		return err
	}
	if got := inner.Len() - start; got != len(nulls) {
		inner.Truncate(start)
		return fmt.Errorf("%w: read %d of %d nullable values", varcol.ErrTruncatedStream, got, len(nulls))
	}
	for _, null := range nulls {
		if null > 1 {
			inner.Truncate(start)
			return fmt.Errorf("%w: null map byte %d", varcol.ErrInvalid, null)
		}
	}
	for _, null := range nulls {
		c.AppendFlag(null == 1)
	}
	return nil
}

// readBytes reads up to limit bytes. A clean end of stream yields fewer
// bytes.
func readBytes(r ByteReader, limit int) ([]byte, error) {
	if r == nil || limit <= 0 {
		return nil, nil
	}
	out := make([]byte, 0, min(limit, readBatch))
	buf := make([]byte, min(limit, readBatch))
	for len(out) < limit {
		got, err := io.ReadFull(r, buf[:min(limit-len(out), len(buf))])
		out = append(out, buf[:got]...)
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			break
		}
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (s *Nullable) SerializeBinary(col column.Column, row int, w io.Writer) error {
	c, err := s.column(col)
	if err != nil {
		return err
	}
	if c.IsNull(row) {
		_, err := w.Write([]byte{1})
		return err
	}
	if _, err := w.Write([]byte{0}); err != nil {
		return err
	}
	return s.inner.SerializeBinary(c.Inner(), row, w)
}

func (s *Nullable) DeserializeBinary(col column.Column, r ByteReader) error {
	c, err := s.column(col)
	if err != nil {
		return err
	}
	flag, err := r.ReadByte()
	if err != nil {
		return truncated(err)
	}
	switch flag {
	case 1:
		c.AppendNull()
		return nil
	case 0:
		if err := s.inner.DeserializeBinary(c.Inner(), r); err != nil {
			return err
		}
		c.AppendInner()
		return nil
	}
	return fmt.Errorf("%w: null flag %d", varcol.ErrInvalid, flag)
}

func (s *Nullable) SerializeText(col column.Column, row int, w format.TextWriter, syntax format.Syntax, fs *format.Settings) error {
	c, err := s.column(col)
	if err != nil {
		return err
	}
	if c.IsNull(row) {
		return format.WriteNull(w, syntax, fs)
	}
	return s.inner.SerializeText(c.Inner(), row, w, syntax, fs)
}

func (s *Nullable) TryDeserializeText(col column.Column, token []byte, syntax format.Syntax, fs *format.Settings) bool {
	c, err := s.column(col)
	if err != nil || !syntax.CanRead() {
		return false
	}
	if format.IsNull(token, syntax, fs) {
		c.AppendNull()
		return true
	}
	if !s.inner.TryDeserializeText(c.Inner(), token, syntax, fs) {
		return false
	}
	c.AppendInner()
	return true
}

var _ Codec = (*Nullable)(nil)
