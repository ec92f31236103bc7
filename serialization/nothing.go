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

// Nothing is the codec of the Nothing type. Bulk encodings hold a zero
// byte per row in the Regular substream; rows have no binary form and are
// written as the null literal in text.
type Nothing struct{}

func (Nothing) DataType() varcol.DataType { return varcol.Null }

func (Nothing) EnumerateStreams(path SubstreamPath, cb StreamCallback) {
	cb(append(path.Clone(), Substream{Type: Regular}))
}

func (s Nothing) column(col column.Column) (*column.Nothing, error) {
	c, ok := col.(*column.Nothing)
	if !ok {
		return nil, columnError(s, col)
	}
	return c, nil
}

func (Nothing) SerializeBulkStatePrefix(column.Column, *SerializeBulkSettings) (BulkState, error) {
	return nil, nil
}

func (Nothing) SerializeBulkStateSuffix(*SerializeBulkSettings, BulkState) error { return nil }

func (Nothing) DeserializeBulkStatePrefix(*DeserializeBulkSettings, StatesCache) (BulkState, error) {
	return nil, nil
}

func (s Nothing) SerializeBulk(col column.Column, offset, limit int, settings *SerializeBulkSettings, _ BulkState) error {
	c, err := s.column(col)
	if err != nil {
		return err
	}
	n, err := rowRange(c, offset, limit)
	if err != nil || n == 0 {
		return err
	}
	push(&settings.Path, Substream{Type: Regular})
	defer pop(&settings.Path, 1)
	if w := settings.stream(); w != nil {
		_, err = w.Write(make([]byte, n))
	}
	return err
}

func (s Nothing) DeserializeBulk(col column.Column, limit int, settings *DeserializeBulkSettings, _ BulkState, _ SubstreamsCache) error {
	c, err := s.column(col)
	if err != nil {
		return err
	}
	push(&settings.Path, Substream{Type: Regular})
	defer pop(&settings.Path, 1)
	rows, err := readBytes(settings.stream(), limit)
	if err != nil {
		return err
	}
	for _, b := range rows {
		if b != 0 {
			return fmt.Errorf("%w: Nothing row byte %d", varcol.ErrInvalid, b)
		}
	}
	for range rows {
		c.AppendDefault()
	}
	return nil
}

func (s Nothing) SerializeBinary(col column.Column, _ int, _ io.Writer) error {
	_, err := s.column(col)
	return err
}

func (s Nothing) DeserializeBinary(col column.Column, _ ByteReader) error {
	c, err := s.column(col)
	if err != nil {
		return err
	}
	c.AppendDefault()
	return nil
}

func (s Nothing) SerializeText(col column.Column, _ int, w format.TextWriter, syntax format.Syntax, fs *format.Settings) error {
	if _, err := s.column(col); err != nil {
		return err
	}
	return format.WriteNull(w, syntax, fs)
}

var (
	_ BulkSerializer = Nothing{}
	_ RowSerializer  = Nothing{}
	_ TextSerializer = Nothing{}
)
