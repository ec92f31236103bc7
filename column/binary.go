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

package column

import (
	"fmt"

	"github.com/colfmt/varcol"
)

// String is a column of variable length byte strings.
type String struct {
	offsets []int
	data    []byte
}

func NewString() *String { return &String{offsets: []int{0}} }

func (c *String) Len() int                  { return len(c.offsets) - 1 }
func (c *String) DataType() varcol.DataType { return varcol.BinaryTypes.String }
func (c *String) Value(i int) any           { return string(c.Bytes(i)) }
func (c *String) AppendDefault()            { c.offsets = append(c.offsets, len(c.data)) }

// Bytes returns the value at i without copying.
func (c *String) Bytes(i int) []byte {
	return c.data[c.offsets[i]:c.offsets[i+1]]
}

// Append appends v as a new value.
func (c *String) Append(v []byte) {
	c.data = append(c.data, v...)
	c.offsets = append(c.offsets, len(c.data))
}

func (c *String) AppendString(v string) {
	c.data = append(c.data, v...)
	c.offsets = append(c.offsets, len(c.data))
}

func (c *String) AppendValue(v any) error {
	switch v := v.(type) {
	case string:
		c.AppendString(v)
	case []byte:
		c.Append(v)
	default:
		return typeError("String", v)
	}
	return nil
}

func (c *String) AppendRange(src Column, offset, n int) error {
	other, ok := src.(*String)
	if !ok {
		return sourceError(c, src)
	}
	if err := checkRange(src, offset, n); err != nil {
		return err
	}
	for i := offset; i < offset+n; i++ {
		c.Append(other.Bytes(i))
	}
	return nil
}

func (c *String) Truncate(n int) {
	c.offsets = c.offsets[:n+1]
	c.data = c.data[:c.offsets[n]]
}

// FixedString is a column of values of exactly N bytes.
type FixedString struct {
	dt   *varcol.FixedStringType
	data []byte
}

func NewFixedString(dt *varcol.FixedStringType) *FixedString {
	return &FixedString{dt: dt}
}

func (c *FixedString) Len() int                  { return len(c.data) / c.dt.N }
func (c *FixedString) DataType() varcol.DataType { return c.dt }
func (c *FixedString) Value(i int) any           { return string(c.Bytes(i)) }
func (c *FixedString) Truncate(n int)            { c.data = c.data[:n*c.dt.N] }

// Bytes returns the N bytes of the value at i without copying.
func (c *FixedString) Bytes(i int) []byte {
	return c.data[i*c.dt.N : (i+1)*c.dt.N]
}

func (c *FixedString) AppendDefault() {
	c.data = append(c.data, make([]byte, c.dt.N)...)
}

// Append appends v padded with zero bytes to N bytes. Values longer than N
// are rejected.
func (c *FixedString) Append(v []byte) error {
	if len(v) > c.dt.N {
		return fmt.Errorf("%w: value of %d bytes is too large for %s", varcol.ErrInvalid, len(v), c.dt)
	}
	c.data = append(c.data, v...)
	for i := len(v); i < c.dt.N; i++ {
		c.data = append(c.data, 0)
	}
	return nil
}

func (c *FixedString) AppendValue(v any) error {
	switch v := v.(type) {
	case string:
		return c.Append([]byte(v))
	case []byte:
		return c.Append(v)
	}
	return typeError(c.dt.Name(), v)
}

func (c *FixedString) AppendRange(src Column, offset, n int) error {
	other, ok := src.(*FixedString)
	if !ok || other.dt.N != c.dt.N {
		return sourceError(c, src)
	}
	if err := checkRange(src, offset, n); err != nil {
		return err
	}
	c.data = append(c.data, other.data[offset*c.dt.N:(offset+n)*c.dt.N]...)
	return nil
}
