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

// Package avro imports Avro object container files as columns.
//
// Records map to named tuples, arrays and maps to their varcol
// counterparts and unions to Variant columns, the null member of a union
// becoming the NULL discriminator.
package avro

import (
	"fmt"
	"maps"
	"math/big"
	"reflect"
	"slices"
	"strings"
	"time"

	"github.com/colfmt/varcol"
	"github.com/colfmt/varcol/column"
	"github.com/google/uuid"
	avro "github.com/hamba/avro/v2"
)

// converter turns a value decoded by the generic Avro decoder into the
// value AppendValue expects for the mapped type.
type converter func(v any) (any, error)

type mapping struct {
	dt   varcol.DataType
	conv converter
}

// TypeFromSchema returns the type of the column schema is read into.
func TypeFromSchema(schema avro.Schema) (varcol.DataType, error) {
	m, err := compile(schema, make(map[string]bool))
	if err != nil {
		return nil, err
	}
	return m.dt, nil
}

func unsupported(schema avro.Schema, format string, args ...any) error {
	return fmt.Errorf("%w: avro %s: %s", varcol.ErrUnsupportedType, schema.Type(), fmt.Sprintf(format, args...))
}

func logicalType(schema avro.Schema) avro.LogicalType {
	if lts, ok := schema.(avro.LogicalTypeSchema); ok {
		if ls := lts.Logical(); ls != nil {
			return ls.Type()
		}
	}
	return ""
}

// compile maps schema, visiting tracking the named types being compiled so
// that recursive records are rejected.
func compile(schema avro.Schema, visiting map[string]bool) (mapping, error) {
	if ref, ok := schema.(*avro.RefSchema); ok {
		schema = ref.Schema()
	}
	switch s := schema.(type) {
	case *avro.NullSchema:
		return mapping{varcol.Null, func(any) (any, error) { return nil, nil }}, nil
	case *avro.PrimitiveSchema:
		return primitive(s)
	case *avro.FixedSchema:
		if ls, ok := s.Logical().(*avro.DecimalLogicalSchema); ok {
			return decimal(s, ls)
		}
		dt := &varcol.FixedStringType{N: s.Size()}
		return mapping{dt, bytesOf}, nil
	case *avro.EnumSchema:
		return mapping{varcol.BinaryTypes.String, stringOf}, nil
	case *avro.ArraySchema:
		items, err := compile(s.Items(), visiting)
		if err != nil {
			return mapping{}, err
		}
		return mapping{varcol.ArrayOf(items.dt), arrayOf(items.conv)}, nil
	case *avro.MapSchema:
		values, err := compile(s.Values(), visiting)
		if err != nil {
			return mapping{}, err
		}
		return mapping{varcol.MapOf(varcol.BinaryTypes.String, values.dt), mapOf(values.conv)}, nil
	case *avro.RecordSchema:
		return record(s, visiting)
	case *avro.UnionSchema:
		return union(s, visiting)
	}
	return mapping{}, unsupported(schema, "no column type")
}

func primitive(s *avro.PrimitiveSchema) (mapping, error) {
	lt := logicalType(s)
	switch s.Type() {
	case avro.Boolean:
		return mapping{varcol.FixedWidthTypes.Boolean, asIs[bool]}, nil
	case avro.Int:
		switch lt {
		case avro.Date:
			return mapping{varcol.FixedWidthTypes.Date, dateOf}, nil
		case avro.TimeMillis:
			return mapping{varcol.PrimitiveTypes.Int32, durationOf(time.Millisecond, func(n int64) any { return int32(n) })}, nil
		}
		return mapping{varcol.PrimitiveTypes.Int32, intOf(func(n int64) any { return int32(n) })}, nil
	case avro.Long:
		switch lt {
		case avro.TimestampMillis:
			return mapping{&varcol.DateTime64Type{Precision: 3}, timestampOf(time.Time.UnixMilli)}, nil
		case avro.TimestampMicros:
			return mapping{&varcol.DateTime64Type{Precision: 6}, timestampOf(time.Time.UnixMicro)}, nil
		case avro.TimeMicros:
			return mapping{varcol.PrimitiveTypes.Int64, durationOf(time.Microsecond, func(n int64) any { return n })}, nil
		}
		return mapping{varcol.PrimitiveTypes.Int64, intOf(func(n int64) any { return n })}, nil
	case avro.Float:
		return mapping{varcol.PrimitiveTypes.Float32, asIs[float32]}, nil
	case avro.Double:
		return mapping{varcol.PrimitiveTypes.Float64, asIs[float64]}, nil
	case avro.String:
		if lt == avro.UUID {
			return mapping{varcol.FixedWidthTypes.UUID, uuidOf}, nil
		}
		return mapping{varcol.BinaryTypes.String, stringOf}, nil
	case avro.Bytes:
		if ls, ok := s.Logical().(*avro.DecimalLogicalSchema); ok {
			return decimal(s, ls)
		}
		return mapping{varcol.BinaryTypes.String, stringOf}, nil
	}
	return mapping{}, unsupported(s, "no column type")
}

func decimal(s avro.Schema, ls *avro.DecimalLogicalSchema) (mapping, error) {
	if ls.Precision() > varcol.MaxDecimalPrecision {
		return mapping{}, unsupported(s, "decimal precision %d above %d", ls.Precision(), varcol.MaxDecimalPrecision)
	}
	dt := &varcol.DecimalType{Precision: int32(ls.Precision()), Scale: int32(ls.Scale())}
	scale := new(big.Rat).SetInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(ls.Scale())), nil))
	return mapping{dt, func(v any) (any, error) {
		var r *big.Rat
		switch x := v.(type) {
		case *big.Rat:
			r = x
		case big.Rat:
			r = &x
		default:
			return nil, typeError("decimal", v)
		}
		unscaled := new(big.Rat).Mul(r, scale)
		if !unscaled.IsInt() || !unscaled.Num().IsInt64() {
			return nil, fmt.Errorf("%w: decimal %s does not fit %s", varcol.ErrInvalid, r.FloatString(ls.Scale()), dt)
		}
		return unscaled.Num().Int64(), nil
	}}, nil
}

func record(s *avro.RecordSchema, visiting map[string]bool) (mapping, error) {
	if visiting[s.FullName()] {
		return mapping{}, unsupported(s, "recursive record %s", s.FullName())
	}
	visiting[s.FullName()] = true
	defer delete(visiting, s.FullName())

	fields := s.Fields()
	names := make([]string, len(fields))
	types := make([]varcol.DataType, len(fields))
	convs := make([]converter, len(fields))
	for i, f := range fields {
		m, err := compile(f.Type(), visiting)
		if err != nil {
			return mapping{}, fmt.Errorf("field %s: %w", f.Name(), err)
		}
		names[i], types[i], convs[i] = f.Name(), m.dt, m.conv
	}
	dt, err := varcol.NamedTupleOf(names, types)
	if err != nil {
		return mapping{}, err
	}
	return mapping{dt, func(v any) (any, error) {
		rec, ok := v.(map[string]any)
		if !ok {
			return nil, typeError("record", v)
		}
		out := make([]any, len(fields))
		for i, name := range names {
			val, err := convs[i](rec[name])
			if err != nil {
				return nil, fmt.Errorf("field %s: %w", name, err)
			}
			out[i] = val
		}
		return out, nil
	}}, nil
}

// unionName is the key the generic decoder files a union value under.
func unionName(s avro.Schema) string {
	if ref, ok := s.(*avro.RefSchema); ok {
		s = ref.Schema()
	}
	if n, ok := s.(avro.NamedSchema); ok {
		return n.FullName()
	}
	if lt := logicalType(s); lt != "" {
		return string(s.Type()) + "." + string(lt)
	}
	return string(s.Type())
}

func union(s *avro.UnionSchema, visiting map[string]bool) (mapping, error) {
	var (
		types []varcol.DataType
		convs []converter
		keys  []string
	)
	for _, member := range s.Types() {
		if member.Type() == avro.Null {
			continue
		}
		m, err := compile(member, visiting)
		if err != nil {
			return mapping{}, err
		}
		types = append(types, m.dt)
		convs = append(convs, m.conv)
		keys = append(keys, unionName(member))
	}
	if len(types) == 0 {
		return mapping{varcol.Null, func(any) (any, error) { return nil, nil }}, nil
	}
	vt, err := varcol.VariantOf(types...)
	if err != nil {
		return mapping{}, unsupported(s, "%v", err)
	}
	return mapping{vt, func(v any) (any, error) {
		if v == nil {
			return column.VariantValue{Discriminator: column.NullDiscriminator}, nil
		}
		d, val := 0, v
		if m, ok := v.(map[string]any); ok && len(m) <= 1 {
			if len(m) == 0 {
				return column.VariantValue{Discriminator: column.NullDiscriminator}, nil
			}
			for key, inner := range m {
				i := slices.Index(keys, key)
				if i < 0 {
					// logical types may be filed under their base type
					i = slices.IndexFunc(keys, func(k string) bool { return strings.HasPrefix(k, key+".") })
				}
				switch {
				case i >= 0:
					d, val = i, inner
				case len(types) == 1:
					val = inner
				default:
					return nil, fmt.Errorf("%w: union member %q", varcol.ErrInvalid, key)
				}
			}
		} else if len(types) > 1 {
			// resolved to a Go value: the first member accepting it wins
			for i, conv := range convs {
				if out, err := conv(v); err == nil {
					return column.VariantValue{Discriminator: column.Discriminator(i), Value: out}, nil
				}
			}
			return nil, typeError("union", v)
		}
		out, err := convs[d](val)
		if err != nil {
			return nil, err
		}
		return column.VariantValue{Discriminator: column.Discriminator(d), Value: out}, nil
	}}, nil
}

func typeError(want string, got any) error {
	return fmt.Errorf("%w: avro %s value of Go type %T", varcol.ErrType, want, got)
}

func asIs[T any](v any) (any, error) {
	t, ok := v.(T)
	if !ok {
		return nil, typeError(reflect.TypeFor[T]().String(), v)
	}
	return t, nil
}

func intOf(cast func(int64) any) converter {
	return func(v any) (any, error) {
		switch n := v.(type) {
		case int:
			return cast(int64(n)), nil
		case int32:
			return cast(int64(n)), nil
		case int64:
			return cast(n), nil
		}
		return nil, typeError("integer", v)
	}
}

func durationOf(unit time.Duration, cast func(int64) any) converter {
	return func(v any) (any, error) {
		d, ok := v.(time.Duration)
		if !ok {
			return intOf(cast)(v)
		}
		return cast(int64(d / unit)), nil
	}
}

func timestampOf(ticks func(time.Time) int64) converter {
	return func(v any) (any, error) {
		t, ok := v.(time.Time)
		if !ok {
			return intOf(func(n int64) any { return n })(v)
		}
		return ticks(t), nil
	}
}

func dateOf(v any) (any, error) {
	t, ok := v.(time.Time)
	if !ok {
		return intOf(func(n int64) any { return int32(n) })(v)
	}
	secs := t.Unix()
	days := secs / 86400
	if secs%86400 < 0 {
		days--
	}
	return int32(days), nil
}

func uuidOf(v any) (any, error) {
	s, ok := v.(string)
	if !ok {
		return nil, typeError("uuid", v)
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", varcol.ErrInvalid, err)
	}
	return id, nil
}

func stringOf(v any) (any, error) {
	switch s := v.(type) {
	case string:
		return s, nil
	case []byte:
		return string(s), nil
	}
	return nil, typeError("string", v)
}

// bytesOf accepts the byte arrays fixed values decode to.
func bytesOf(v any) (any, error) {
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Array && rv.Type().Elem().Kind() == reflect.Uint8 {
		b := make([]byte, rv.Len())
		reflect.Copy(reflect.ValueOf(b), rv)
		return b, nil
	}
	return stringOf(v)
}

func arrayOf(item converter) converter {
	return func(v any) (any, error) {
		items, ok := v.([]any)
		if !ok {
			return nil, typeError("array", v)
		}
		out := make([]any, len(items))
		for i, it := range items {
			val, err := item(it)
			if err != nil {
				return nil, err
			}
			out[i] = val
		}
		return out, nil
	}
}

// mapOf sorts the entries by key, the generic decoder losing their order.
func mapOf(value converter) converter {
	return func(v any) (any, error) {
		m, ok := v.(map[string]any)
		if !ok {
			return nil, typeError("map", v)
		}
		keys := slices.Sorted(maps.Keys(m))
		out := make([]column.KeyValue, len(keys))
		for i, k := range keys {
			val, err := value(m[k])
			if err != nil {
				return nil, err
			}
			out[i] = column.KeyValue{Key: k, Value: val}
		}
		return out, nil
	}
}
