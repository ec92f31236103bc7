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
	"io"

	"github.com/colfmt/varcol/column"
)

// SerializeBinaryValue writes v, a value as returned by column.Column.Value
// for the type of s, in the per-row binary encoding.
func SerializeBinaryValue(s RowSerializer, v any, w io.Writer) error {
	col, err := column.New(s.DataType())
	if err != nil {
		return err
	}
	if err := col.AppendValue(v); err != nil {
		return err
	}
	return s.SerializeBinary(col, 0, w)
}

// DeserializeBinaryValue reads one value of the type of s in the per-row
// binary encoding.
func DeserializeBinaryValue(s RowSerializer, r ByteReader) (any, error) {
	col, err := column.New(s.DataType())
	if err != nil {
		return nil, err
	}
	if err := s.DeserializeBinary(col, r); err != nil {
		return nil, err
	}
	return col.Value(0), nil
}
