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

// Package column holds the in-memory, append-only columns the codecs in
// package serialization read from and write into.
//
// A column stores the values of one logical type. Nested types own child
// columns: an Array keeps offsets into its element column, a Tuple keeps one
// column per element and a Variant keeps one dense column per variant plus a
// discriminator per row.
package column

import (
	"fmt"

	"github.com/colfmt/varcol"
	"github.com/google/uuid"
)

// Column is the interface implemented by every column.
//
// Value and AppendValue exchange values using the Go representation of the
// column's type: the fixed-width storage type for numbers and dates, string
// for String and FixedString, []any for Array and Tuple, []KeyValue for Map,
// VariantValue for Variant and nil for NULL.
type Column interface {
	Len() int
	DataType() varcol.DataType
	Value(i int) any
	// AppendValue appends one value. On error the column is unchanged.
	AppendValue(v any) error
	// AppendDefault appends the zero value of the column's type.
	AppendDefault()
	// AppendRange appends n rows of src starting at offset. src must have
	// been created for the same type.
	AppendRange(src Column, offset, n int) error
	// Truncate drops every row at or after n.
	Truncate(n int)
}

// New returns an empty column for dt.
func New(dt varcol.DataType) (Column, error) {
	switch dt := dt.(type) {
	case *varcol.NothingType:
		return &Nothing{}, nil
	case *varcol.BooleanType:
		return NewFixed[bool](dt), nil
	case *varcol.Int8Type:
		return NewFixed[int8](dt), nil
	case *varcol.Uint8Type:
		return NewFixed[uint8](dt), nil
	case *varcol.Int16Type:
		return NewFixed[int16](dt), nil
	case *varcol.Uint16Type:
		return NewFixed[uint16](dt), nil
	case *varcol.Int32Type, *varcol.DateType:
		return NewFixed[int32](dt), nil
	case *varcol.Uint32Type, *varcol.DateTimeType, *varcol.IPv4Type:
		return NewFixed[uint32](dt), nil
	case *varcol.Int64Type, *varcol.DecimalType, *varcol.DateTime64Type:
		return NewFixed[int64](dt), nil
	case *varcol.Uint64Type:
		return NewFixed[uint64](dt), nil
	case *varcol.Float32Type:
		return NewFixed[float32](dt), nil
	case *varcol.Float64Type:
		return NewFixed[float64](dt), nil
	case *varcol.UUIDType:
		return NewFixed[uuid.UUID](dt), nil
	case *varcol.IPv6Type:
		return NewFixed[[16]byte](dt), nil
	case *varcol.StringType:
		return NewString(), nil
	case *varcol.FixedStringType:
		return NewFixedString(dt), nil
	case *varcol.ArrayType:
		elems, err := New(dt.Elem())
		if err != nil {
			return nil, err
		}
		return NewArray(dt, elems), nil
	case *varcol.TupleType:
		elems := make([]Column, len(dt.Elems()))
		for i, et := range dt.Elems() {
			c, err := New(et)
			if err != nil {
				return nil, err
			}
			elems[i] = c
		}
		return NewTuple(dt, elems)
	case *varcol.MapType:
		storage, err := New(dt.Storage())
		if err != nil {
			return nil, err
		}
		return &Map{dt: dt, storage: storage.(*Array)}, nil
	case *varcol.NullableType:
		inner, err := New(dt.Elem())
		if err != nil {
			return nil, err
		}
		return NewNullable(inner), nil
	case *varcol.VariantType:
		branches := make([]Column, dt.NumVariants())
		for i, bt := range dt.Variants() {
			c, err := New(bt)
			if err != nil {
				return nil, err
			}
			branches[i] = c
		}
		return NewVariant(dt, branches)
	}
	return nil, fmt.Errorf("%w: no column for type %s", varcol.ErrNotImplemented, dt)
}

// FromValues builds a column of type dt holding values.
func FromValues(dt varcol.DataType, values ...any) (Column, error) {
	col, err := New(dt)
	if err != nil {
		return nil, err
	}
	for i, v := range values {
		if err := col.AppendValue(v); err != nil {
			return nil, fmt.Errorf("value %d: %w", i, err)
		}
	}
	return col, nil
}

// Values returns every value of col.
func Values(col Column) []any {
	out := make([]any, col.Len())
	for i := range out {
		out[i] = col.Value(i)
	}
	return out
}

func typeError(want string, got any) error {
	return fmt.Errorf("%w: expected %s value, got %T", varcol.ErrType, want, got)
}

func sourceError(dst, src Column) error {
	return fmt.Errorf("%w: cannot append %s column to %s column",
		varcol.ErrSchemaMismatch, src.DataType(), dst.DataType())
}

func checkRange(src Column, offset, n int) error {
	if offset < 0 || n < 0 || offset+n > src.Len() {
		return fmt.Errorf("%w: range [%d, %d) out of bounds for column of length %d",
			varcol.ErrIndex, offset, offset+n, src.Len())
	}
	return nil
}
