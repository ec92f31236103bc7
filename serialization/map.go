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
	"io"

	"github.com/colfmt/varcol"
	"github.com/colfmt/varcol/column"
	"github.com/colfmt/varcol/format"
)

// Map is the codec of Map(K, V). Binary encodings are those of its storage,
// Array(Tuple(keys K, values V)).
type Map struct {
	dt      *varcol.MapType
	storage *Array
	key     Codec
	value   Codec
}

func (s *Map) DataType() varcol.DataType { return s.dt }

func (s *Map) EnumerateStreams(path SubstreamPath, cb StreamCallback) {
	s.storage.EnumerateStreams(path, cb)
}

func (s *Map) column(col column.Column) (*column.Map, error) {
	c, ok := col.(*column.Map)
	if !ok || !varcol.TypeEqual(c.DataType(), s.dt) {
		return nil, columnError(s, col)
	}
	return c, nil
}

func (s *Map) SerializeBulkStatePrefix(col column.Column, settings *SerializeBulkSettings) (BulkState, error) {
	c, err := s.column(col)
	if err != nil {
		return nil, err
	}
	return s.storage.SerializeBulkStatePrefix(c.Storage(), settings)
}

func (s *Map) SerializeBulkStateSuffix(settings *SerializeBulkSettings, state BulkState) error {
	return s.storage.SerializeBulkStateSuffix(settings, state)
}

func (s *Map) DeserializeBulkStatePrefix(settings *DeserializeBulkSettings, cache StatesCache) (BulkState, error) {
	return s.storage.DeserializeBulkStatePrefix(settings, cache)
}

func (s *Map) SerializeBulk(col column.Column, offset, limit int, settings *SerializeBulkSettings, state BulkState) error {
	c, err := s.column(col)
	if err != nil {
		return err
	}
	return s.storage.SerializeBulk(c.Storage(), offset, limit, settings, state)
}

func (s *Map) DeserializeBulk(col column.Column, limit int, settings *DeserializeBulkSettings, state BulkState, cache SubstreamsCache) error {
	c, err := s.column(col)
	if err != nil {
		return err
	}
	return s.storage.DeserializeBulk(c.Storage(), limit, settings, state, cache)
}

func (s *Map) SerializeBinary(col column.Column, row int, w io.Writer) error {
	c, err := s.column(col)
	if err != nil {
		return err
	}
	return s.storage.SerializeBinary(c.Storage(), row, w)
}

func (s *Map) DeserializeBinary(col column.Column, r ByteReader) error {
	c, err := s.column(col)
	if err != nil {
		return err
	}
	return s.storage.DeserializeBinary(c.Storage(), r)
}

// entries returns the key and value columns of the map storage.
func entries(c *column.Map) (keys, values column.Column) {
	kv := c.Storage().Elems().(*column.Tuple)
	return kv.Elem(0), kv.Elem(1)
}

func (s *Map) SerializeText(col column.Column, row int, w format.TextWriter, syntax format.Syntax, fs *format.Settings) error {
	c, err := s.column(col)
	if err != nil {
		return err
	}
	keys, values := entries(c)
	storage := c.Storage()
	return writeComposite(w, syntax, fs, func(w format.TextWriter, esyn format.Syntax) error {
		if err := w.WriteByte('{'); err != nil {
			return err
		}
		for i := storage.Offset(row); i < storage.Offset(row+1); i++ {
			if i > storage.Offset(row) {
				if err := w.WriteByte(','); err != nil {
					return err
				}
			}
			if err := s.writeKey(w, keys, i, esyn, fs); err != nil {
				return err
			}
			if err := w.WriteByte(':'); err != nil {
				return err
			}
			if err := s.value.SerializeText(values, i, w, esyn, fs); err != nil {
				return err
			}
		}
		return w.WriteByte('}')
	})
}

// writeKey writes a map key. JSON object keys are strings, so keys of other
// types are written as the JSON string of their text.
func (s *Map) writeKey(w format.TextWriter, keys column.Column, i int, esyn format.Syntax, fs *format.Settings) error {
	if esyn != format.JSON {
		return s.key.SerializeText(keys, i, w, esyn, fs)
	}
	var buf bytes.Buffer
	if err := s.key.SerializeText(keys, i, &buf, esyn, fs); err != nil {
		return err
	}
	if b := buf.Bytes(); len(b) > 0 && b[0] == '"' {
		_, err := w.Write(b)
		return err
	}
	return format.WriteJSONString(w, buf.Bytes())
}

func (s *Map) TryDeserializeText(col column.Column, token []byte, syntax format.Syntax, fs *format.Settings) bool {
	c, err := s.column(col)
	if err != nil {
		return false
	}
	inner, esyn, ok := compositeToken(token, syntax, fs)
	if !ok {
		return false
	}
	keyTokens, valueTokens, ok := format.SplitPairs(inner, esyn)
	if !ok {
		return false
	}
	storage := c.Storage()
	kv := storage.Elems().(*column.Tuple)
	base := kv.Len()
	for i := range keyTokens {
		if !s.key.TryDeserializeText(kv.Elem(0), keyTokens[i], esyn, fs) {
			kv.Truncate(base)
			return false
		}
		if !s.value.TryDeserializeText(kv.Elem(1), valueTokens[i], esyn, fs) {
			kv.Truncate(base)
			return false
		}
		if kv.Extend(1) != nil {
			kv.Truncate(base)
			return false
		}
	}
	return storage.AppendSize(len(keyTokens)) == nil
}

var _ Codec = (*Map)(nil)
