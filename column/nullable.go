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
	"github.com/colfmt/varcol"
)

// Nullable wraps a column with a per-row null flag. Null rows hold the
// default value in the inner column.
type Nullable struct {
	dt    *varcol.NullableType
	inner Column
	nulls []bool
}

func NewNullable(inner Column) *Nullable {
	return &Nullable{dt: varcol.NullableOf(inner.DataType()), inner: inner, nulls: make([]bool, inner.Len())}
}

func (c *Nullable) Len() int                  { return len(c.nulls) }
func (c *Nullable) DataType() varcol.DataType { return c.dt }
func (c *Nullable) Inner() Column             { return c.inner }
func (c *Nullable) IsNull(i int) bool         { return c.nulls[i] }

func (c *Nullable) Value(i int) any {
	if c.nulls[i] {
		return nil
	}
	return c.inner.Value(i)
}

func (c *Nullable) AppendNull() {
	c.inner.AppendDefault()
	c.nulls = append(c.nulls, true)
}

func (c *Nullable) AppendDefault() { c.AppendNull() }

func (c *Nullable) AppendValue(v any) error {
	if v == nil {
		c.AppendNull()
		return nil
	}
	if err := c.inner.AppendValue(v); err != nil {
		return err
	}
	c.nulls = append(c.nulls, false)
	return nil
}

// AppendInner accounts for one non-null row the caller appended to Inner.
func (c *Nullable) AppendInner() { c.AppendFlag(false) }

// AppendFlag accounts for one row the caller appended to Inner, which holds
// the default value when null is set.
func (c *Nullable) AppendFlag(null bool) { c.nulls = append(c.nulls, null) }

func (c *Nullable) AppendRange(src Column, offset, n int) error {
	other, ok := src.(*Nullable)
	if !ok {
		return sourceError(c, src)
	}
	if err := checkRange(src, offset, n); err != nil {
		return err
	}
	if err := c.inner.AppendRange(other.inner, offset, n); err != nil {
		return err
	}
	c.nulls = append(c.nulls, other.nulls[offset:offset+n]...)
	return nil
}

func (c *Nullable) Truncate(n int) {
	c.inner.Truncate(n)
	c.nulls = c.nulls[:n]
}

// Nothing is a column of the Nothing type: every row is NULL and no data is
// stored.
type Nothing struct {
	n int
}

func (c *Nothing) Len() int                  { return c.n }
func (c *Nothing) DataType() varcol.DataType { return varcol.Null }
func (c *Nothing) Value(int) any             { return nil }
func (c *Nothing) AppendDefault()            { c.n++ }
func (c *Nothing) Truncate(n int)            { c.n = n }

func (c *Nothing) AppendValue(v any) error {
	if v != nil {
		return typeError("Nothing", v)
	}
	c.n++
	return nil
}

func (c *Nothing) AppendRange(src Column, offset, n int) error {
	if _, ok := src.(*Nothing); !ok {
		return sourceError(c, src)
	}
	if err := checkRange(src, offset, n); err != nil {
		return err
	}
	c.n += n
	return nil
}
