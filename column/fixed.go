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
	"golang.org/x/exp/constraints"
)

// FixedWidth is the set of storage types of fixed-width columns.
type FixedWidth interface {
	constraints.Integer | constraints.Float | ~bool | ~[16]byte
}

// Fixed is a column of fixed-width values. Several logical types share a
// storage type: Date is stored as days in an int32, DateTime as seconds in a
// uint32, IPv4 as a uint32, Decimal and DateTime64 as unscaled int64 values.
type Fixed[T FixedWidth] struct {
	dt     varcol.DataType
	values []T
}

func NewFixed[T FixedWidth](dt varcol.DataType) *Fixed[T] {
	return &Fixed[T]{dt: dt}
}

func (c *Fixed[T]) Len() int                  { return len(c.values) }
func (c *Fixed[T]) DataType() varcol.DataType { return c.dt }
func (c *Fixed[T]) Value(i int) any           { return c.values[i] }
func (c *Fixed[T]) At(i int) T                { return c.values[i] }
func (c *Fixed[T]) Append(v T)                { c.values = append(c.values, v) }
func (c *Fixed[T]) AppendValues(v []T)        { c.values = append(c.values, v...) }
func (c *Fixed[T]) Truncate(n int)            { c.values = c.values[:n] }

// Values returns the underlying slice. It is only valid until the next append.
func (c *Fixed[T]) Values() []T { return c.values }

func (c *Fixed[T]) AppendDefault() {
	var zero T
	c.values = append(c.values, zero)
}

func (c *Fixed[T]) AppendValue(v any) error {
	val, ok := v.(T)
	if !ok {
		var zero T
		return typeError(fmt.Sprintf("%s (%T)", c.dt, zero), v)
	}
	c.values = append(c.values, val)
	return nil
}

func (c *Fixed[T]) AppendRange(src Column, offset, n int) error {
	other, ok := src.(*Fixed[T])
	if !ok || !varcol.TypeEqual(other.dt, c.dt) {
		return sourceError(c, src)
	}
	if err := checkRange(src, offset, n); err != nil {
		return err
	}
	c.values = append(c.values, other.values[offset:offset+n]...)
	return nil
}
