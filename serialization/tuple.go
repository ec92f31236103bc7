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
	"fmt"
	"io"

	"github.com/colfmt/varcol"
	"github.com/colfmt/varcol/column"
	"github.com/colfmt/varcol/format"
)

// Tuple is the codec of Tuple(T1, ..., Tn). Each element is written to its
// own substreams under TupleElement(name).
type Tuple struct {
	dt    *varcol.TupleType
	elems []Codec
}

type tupleState struct {
	elems []BulkState
}

func (s *Tuple) DataType() varcol.DataType { return s.dt }

func (s *Tuple) elemPath(i int) Substream {
	return Substream{Type: TupleElement, Name: s.dt.ElemName(i)}
}

func (s *Tuple) EnumerateStreams(path SubstreamPath, cb StreamCallback) {
	for i, e := range s.elems {
		e.EnumerateStreams(append(path.Clone(), s.elemPath(i)), cb)
	}
}

func (s *Tuple) column(col column.Column) (*column.Tuple, error) {
	c, ok := col.(*column.Tuple)
	if !ok || !varcol.TypeEqual(c.DataType(), s.dt) {
		return nil, columnError(s, col)
	}
	return c, nil
}

func (s *Tuple) SerializeBulkStatePrefix(col column.Column, settings *SerializeBulkSettings) (BulkState, error) {
	c, err := s.column(col)
	if err != nil {
		return nil, err
	}
	st := &tupleState{elems: make([]BulkState, len(s.elems))}
	for i, e := range s.elems {
		push(&settings.Path, s.elemPath(i))
		st.elems[i], err = e.SerializeBulkStatePrefix(c.Elem(i), settings)
		pop(&settings.Path, 1)
		if err != nil {
			return nil, err
		}
	}
	return st, nil
}

func (s *Tuple) SerializeBulkStateSuffix(settings *SerializeBulkSettings, state BulkState) error {
	st, ok := state.(*tupleState)
	if !ok {
		return stateError("tuple", state)
	}
	for i, e := range s.elems {
		push(&settings.Path, s.elemPath(i))
		err := e.SerializeBulkStateSuffix(settings, st.elems[i])
		pop(&settings.Path, 1)
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *Tuple) DeserializeBulkStatePrefix(settings *DeserializeBulkSettings, cache StatesCache) (BulkState, error) {
	st := &tupleState{elems: make([]BulkState, len(s.elems))}
	for i, e := range s.elems {
		var err error
		push(&settings.Path, s.elemPath(i))
		st.elems[i], err = e.DeserializeBulkStatePrefix(settings, cache)
		pop(&settings.Path, 1)
		if err != nil {
			return nil, err
		}
	}
	return st, nil
}

func (s *Tuple) SerializeBulk(col column.Column, offset, limit int, settings *SerializeBulkSettings, state BulkState) error {
	c, err := s.column(col)
	if err != nil {
		return err
	}
	st, ok := state.(*tupleState)
	if !ok {
		return stateError("tuple", state)
	}
	n, err := rowRange(c, offset, limit)
	if err != nil || n == 0 {
		return err
	}
	for i, e := range s.elems {
		push(&settings.Path, s.elemPath(i))
		err := e.SerializeBulk(c.Elem(i), offset, n, settings, st.elems[i])
		pop(&settings.Path, 1)
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *Tuple) DeserializeBulk(col column.Column, limit int, settings *DeserializeBulkSettings, state BulkState, cache SubstreamsCache) error {
	c, err := s.column(col)
	if err != nil {
		return err
	}
	st, ok := state.(*tupleState)
	if !ok {
		return stateError("tuple", state)
	}
	start := c.Len()
	rows := -1
	for i, e := range s.elems {
		push(&settings.Path, s.elemPath(i))
		err := e.DeserializeBulk(c.Elem(i), limit, settings, st.elems[i], cache)
		pop(&settings.Path, 1)
		if err != nil {
			c.Truncate(start)
			return err
		}
		got := c.Elem(i).Len() - start
		if rows >= 0 && got != rows {
			c.Truncate(start)
			return fmt.Errorf("%w: tuple element %d has %d rows, expected %d",
				varcol.ErrTruncatedStream, i, got, rows)
		}
		rows = got
	}
	if rows <= 0 {
		return nil
	}
	return c.Extend(rows)
}

func (s *Tuple) SerializeBinary(col column.Column, row int, w io.Writer) error {
	c, err := s.column(col)
	if err != nil {
		return err
	}
	for i, e := range s.elems {
		if err := e.SerializeBinary(c.Elem(i), row, w); err != nil {
			return err
		}
	}
	return nil
}

func (s *Tuple) DeserializeBinary(col column.Column, r ByteReader) error {
	c, err := s.column(col)
	if err != nil {
		return err
	}
	start := c.Len()
	for i, e := range s.elems {
		if err := e.DeserializeBinary(c.Elem(i), r); err != nil {
			c.Truncate(start)
			return err
		}
	}
	return c.Extend(1)
}

func (s *Tuple) SerializeText(col column.Column, row int, w format.TextWriter, syntax format.Syntax, fs *format.Settings) error {
	c, err := s.column(col)
	if err != nil {
		return err
	}
	return writeComposite(w, syntax, fs, func(w format.TextWriter, esyn format.Syntax) error {
		open, end := tupleBrackets(esyn)
		if err := w.WriteByte(open); err != nil {
			return err
		}
		for i, e := range s.elems {
			if i > 0 {
				if err := w.WriteByte(','); err != nil {
					return err
				}
			}
			if err := e.SerializeText(c.Elem(i), row, w, esyn, fs); err != nil {
				return err
			}
		}
		return w.WriteByte(end)
	})
}

func (s *Tuple) TryDeserializeText(col column.Column, token []byte, syntax format.Syntax, fs *format.Settings) bool {
	c, err := s.column(col)
	if err != nil {
		return false
	}
	inner, esyn, ok := compositeToken(token, syntax, fs)
	if !ok {
		return false
	}
	open, end := tupleBrackets(esyn)
	tokens, ok := format.SplitList(inner, open, end, esyn)
	if !ok || len(tokens) != len(s.elems) {
		return false
	}
	start := c.Len()
	for i, e := range s.elems {
		if !e.TryDeserializeText(c.Elem(i), tokens[i], esyn, fs) {
			c.Truncate(start)
			return false
		}
	}
	return c.Extend(1) == nil
}

// tupleBrackets returns the brackets of a tuple: JSON arrays in JSON and
// parentheses otherwise.
func tupleBrackets(esyn format.Syntax) (byte, byte) {
	if esyn == format.JSON {
		return '[', ']'
	}
	return '(', ')'
}

var _ Codec = (*Tuple)(nil)
