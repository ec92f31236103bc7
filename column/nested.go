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

// Array is a column of variable length lists. The values of row i are the
// rows [Offset(i), Offset(i+1)) of the element column.
type Array struct {
	dt      *varcol.ArrayType
	offsets []int
	elems   Column
}

func NewArray(dt *varcol.ArrayType, elems Column) *Array {
	return &Array{dt: dt, offsets: []int{elems.Len()}, elems: elems}
}

func (c *Array) Len() int                  { return len(c.offsets) - 1 }
func (c *Array) DataType() varcol.DataType { return c.dt }
func (c *Array) Elems() Column             { return c.elems }
func (c *Array) Offset(i int) int          { return c.offsets[i] }
func (c *Array) Size(i int) int            { return c.offsets[i+1] - c.offsets[i] }
func (c *Array) AppendDefault()            { c.offsets = append(c.offsets, c.offsets[len(c.offsets)-1]) }

func (c *Array) Value(i int) any {
	out := make([]any, c.Size(i))
	for j := range out {
		out[j] = c.elems.Value(c.offsets[i] + j)
	}
	return out
}

// AppendSize closes a row made of the next size elements, which the caller
// already appended to Elems.
func (c *Array) AppendSize(size int) error {
	end := c.offsets[len(c.offsets)-1] + size
	if size < 0 || end > c.elems.Len() {
		return fmt.Errorf("%w: array row of %d elements but only %d pending",
			varcol.ErrInvariantViolation, size, c.elems.Len()-c.offsets[len(c.offsets)-1])
	}
	c.offsets = append(c.offsets, end)
	return nil
}

func (c *Array) AppendValue(v any) error {
	vals, ok := v.([]any)
	if !ok {
		return typeError(c.dt.Name(), v)
	}
	base := c.elems.Len()
	for _, e := range vals {
		if err := c.elems.AppendValue(e); err != nil {
			c.elems.Truncate(base)
			return err
		}
	}
	c.offsets = append(c.offsets, c.elems.Len())
	return nil
}

func (c *Array) AppendRange(src Column, offset, n int) error {
	other, ok := src.(*Array)
	if !ok || !varcol.TypeEqual(other.dt, c.dt) {
		return sourceError(c, src)
	}
	if err := checkRange(src, offset, n); err != nil {
		return err
	}
	if n == 0 {
		return nil
	}
	start, end := other.offsets[offset], other.offsets[offset+n]
	base := c.elems.Len()
	if err := c.elems.AppendRange(other.elems, start, end-start); err != nil {
		return err
	}
	for i := offset + 1; i <= offset+n; i++ {
		c.offsets = append(c.offsets, base+other.offsets[i]-start)
	}
	return nil
}

func (c *Array) Truncate(n int) {
	c.offsets = c.offsets[:n+1]
	c.elems.Truncate(c.offsets[n])
}

// Tuple is a column of fixed size records, one column per element.
type Tuple struct {
	dt    *varcol.TupleType
	elems []Column
	n     int
}

func NewTuple(dt *varcol.TupleType, elems []Column) (*Tuple, error) {
	if len(elems) != len(dt.Elems()) {
		return nil, fmt.Errorf("%w: %s needs %d element columns, got %d",
			varcol.ErrSchemaMismatch, dt, len(dt.Elems()), len(elems))
	}
	n := 0
	for i, e := range elems {
		if i == 0 {
			n = e.Len()
		} else if e.Len() != n {
			return nil, fmt.Errorf("%w: tuple element columns differ in length", varcol.ErrInvariantViolation)
		}
	}
	return &Tuple{dt: dt, elems: elems, n: n}, nil
}

func (c *Tuple) Len() int                  { return c.n }
func (c *Tuple) DataType() varcol.DataType { return c.dt }
func (c *Tuple) NumElems() int             { return len(c.elems) }
func (c *Tuple) Elem(i int) Column         { return c.elems[i] }

func (c *Tuple) Value(i int) any {
	out := make([]any, len(c.elems))
	for j, e := range c.elems {
		out[j] = e.Value(i)
	}
	return out
}

func (c *Tuple) AppendDefault() {
	for _, e := range c.elems {
		e.AppendDefault()
	}
	c.n++
}

// Extend accounts for k rows the caller appended to every element column.
func (c *Tuple) Extend(k int) error {
	for i, e := range c.elems {
		if e.Len() != c.n+k {
			return fmt.Errorf("%w: tuple element %d has %d rows, expected %d",
				varcol.ErrInvariantViolation, i, e.Len(), c.n+k)
		}
	}
	c.n += k
	return nil
}

func (c *Tuple) AppendValue(v any) error {
	vals, ok := v.([]any)
	if !ok || len(vals) != len(c.elems) {
		return typeError(c.dt.Name(), v)
	}
	for i, e := range c.elems {
		if err := e.AppendValue(vals[i]); err != nil {
			c.truncateElems(c.n)
			return err
		}
	}
	c.n++
	return nil
}

func (c *Tuple) AppendRange(src Column, offset, n int) error {
	other, ok := src.(*Tuple)
	if !ok || !varcol.TypeEqual(other.dt, c.dt) {
		return sourceError(c, src)
	}
	if err := checkRange(src, offset, n); err != nil {
		return err
	}
	for i, e := range c.elems {
		if err := e.AppendRange(other.elems[i], offset, n); err != nil {
			c.truncateElems(c.n)
			return err
		}
	}
	c.n += n
	return nil
}

func (c *Tuple) Truncate(n int) {
	c.truncateElems(n)
	c.n = n
}

func (c *Tuple) truncateElems(n int) {
	for _, e := range c.elems {
		if e.Len() > n {
			e.Truncate(n)
		}
	}
}

// KeyValue is one entry of a Map value.
type KeyValue struct {
	Key   any
	Value any
}

// Map is a column of key/value lists stored as Array(Tuple(keys, values)).
type Map struct {
	dt      *varcol.MapType
	storage *Array
}

func (c *Map) Len() int                  { return c.storage.Len() }
func (c *Map) DataType() varcol.DataType { return c.dt }
func (c *Map) AppendDefault()            { c.storage.AppendDefault() }
func (c *Map) Truncate(n int)            { c.storage.Truncate(n) }

// Storage returns the Array(Tuple(keys, values)) column backing c.
func (c *Map) Storage() *Array { return c.storage }

func (c *Map) Value(i int) any {
	entries := c.storage.Value(i).([]any)
	out := make([]KeyValue, len(entries))
	for j, e := range entries {
		kv := e.([]any)
		out[j] = KeyValue{Key: kv[0], Value: kv[1]}
	}
	return out
}

func (c *Map) AppendValue(v any) error {
	entries, ok := v.([]KeyValue)
	if !ok {
		return typeError(c.dt.Name(), v)
	}
	vals := make([]any, len(entries))
	for i, kv := range entries {
		vals[i] = []any{kv.Key, kv.Value}
	}
	return c.storage.AppendValue(vals)
}

func (c *Map) AppendRange(src Column, offset, n int) error {
	other, ok := src.(*Map)
	if !ok {
		return sourceError(c, src)
	}
	return c.storage.AppendRange(other.storage, offset, n)
}
