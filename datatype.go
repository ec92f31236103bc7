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

package varcol

import (
	"fmt"
	"strings"
)

// Type is a logical type identifier.
type Type int

const (
	NOTHING Type = iota
	BOOL
	UINT8
	INT8
	UINT16
	INT16
	UINT32
	INT32
	UINT64
	INT64
	FLOAT32
	FLOAT64
	DECIMAL
	STRING
	FIXED_STRING
	DATE
	DATETIME
	DATETIME64
	UUID
	IPV4
	IPV6
	ARRAY
	TUPLE
	MAP
	VARIANT
	NULLABLE
)

var typeNames = [...]string{
	NOTHING:      "NOTHING",
	BOOL:         "BOOL",
	UINT8:        "UINT8",
	INT8:         "INT8",
	UINT16:       "UINT16",
	INT16:        "INT16",
	UINT32:       "UINT32",
	INT32:        "INT32",
	UINT64:       "UINT64",
	INT64:        "INT64",
	FLOAT32:      "FLOAT32",
	FLOAT64:      "FLOAT64",
	DECIMAL:      "DECIMAL",
	STRING:       "STRING",
	FIXED_STRING: "FIXED_STRING",
	DATE:         "DATE",
	DATETIME:     "DATETIME",
	DATETIME64:   "DATETIME64",
	UUID:         "UUID",
	IPV4:         "IPV4",
	IPV6:         "IPV6",
	ARRAY:        "ARRAY",
	TUPLE:        "TUPLE",
	MAP:          "MAP",
	VARIANT:      "VARIANT",
	NULLABLE:     "NULLABLE",
}

func (t Type) String() string {
	if t < 0 || int(t) >= len(typeNames) {
		return fmt.Sprintf("Type(%d)", int(t))
	}
	return typeNames[t]
}

// DataType is the interface that all data types implement. Name returns the
// canonical spelling of the type, which is also what ParseType accepts.
type DataType interface {
	fmt.Stringer
	ID() Type
	Name() string
}

// FixedWidthDataType is a type whose values occupy the same number of bytes
// in the binary encoding.
type FixedWidthDataType interface {
	DataType
	// ByteWidth returns the number of bytes per value.
	ByteWidth() int
}

// NestedType is a type composed of child types.
type NestedType interface {
	DataType
	Children() []DataType
}

type (
	NothingType  struct{}
	BooleanType  struct{}
	Uint8Type    struct{}
	Int8Type     struct{}
	Uint16Type   struct{}
	Int16Type    struct{}
	Uint32Type   struct{}
	Int32Type    struct{}
	Uint64Type   struct{}
	Int64Type    struct{}
	Float32Type  struct{}
	Float64Type  struct{}
	StringType   struct{}
	DateType     struct{}
	DateTimeType struct{}
	UUIDType     struct{}
	IPv4Type     struct{}
	IPv6Type     struct{}
)

func (NothingType) ID() Type         { return NOTHING }
func (NothingType) Name() string     { return "Nothing" }
func (t NothingType) String() string { return t.Name() }

func (BooleanType) ID() Type         { return BOOL }
func (BooleanType) Name() string     { return "Bool" }
func (t BooleanType) String() string { return t.Name() }
func (BooleanType) ByteWidth() int   { return 1 }

func (Uint8Type) ID() Type         { return UINT8 }
func (Uint8Type) Name() string     { return "UInt8" }
func (t Uint8Type) String() string { return t.Name() }
func (Uint8Type) ByteWidth() int   { return 1 }

func (Int8Type) ID() Type         { return INT8 }
func (Int8Type) Name() string     { return "Int8" }
func (t Int8Type) String() string { return t.Name() }
func (Int8Type) ByteWidth() int   { return 1 }

func (Uint16Type) ID() Type         { return UINT16 }
func (Uint16Type) Name() string     { return "UInt16" }
func (t Uint16Type) String() string { return t.Name() }
func (Uint16Type) ByteWidth() int   { return 2 }

func (Int16Type) ID() Type         { return INT16 }
func (Int16Type) Name() string     { return "Int16" }
func (t Int16Type) String() string { return t.Name() }
func (Int16Type) ByteWidth() int   { return 2 }

func (Uint32Type) ID() Type         { return UINT32 }
func (Uint32Type) Name() string     { return "UInt32" }
func (t Uint32Type) String() string { return t.Name() }
func (Uint32Type) ByteWidth() int   { return 4 }

func (Int32Type) ID() Type         { return INT32 }
func (Int32Type) Name() string     { return "Int32" }
func (t Int32Type) String() string { return t.Name() }
func (Int32Type) ByteWidth() int   { return 4 }

func (Uint64Type) ID() Type         { return UINT64 }
func (Uint64Type) Name() string     { return "UInt64" }
func (t Uint64Type) String() string { return t.Name() }
func (Uint64Type) ByteWidth() int   { return 8 }

func (Int64Type) ID() Type         { return INT64 }
func (Int64Type) Name() string     { return "Int64" }
func (t Int64Type) String() string { return t.Name() }
func (Int64Type) ByteWidth() int   { return 8 }

func (Float32Type) ID() Type         { return FLOAT32 }
func (Float32Type) Name() string     { return "Float32" }
func (t Float32Type) String() string { return t.Name() }
func (Float32Type) ByteWidth() int   { return 4 }

func (Float64Type) ID() Type         { return FLOAT64 }
func (Float64Type) Name() string     { return "Float64" }
func (t Float64Type) String() string { return t.Name() }
func (Float64Type) ByteWidth() int   { return 8 }

func (StringType) ID() Type         { return STRING }
func (StringType) Name() string     { return "String" }
func (t StringType) String() string { return t.Name() }

// DateType stores days since the Unix epoch as an int32.
func (DateType) ID() Type         { return DATE }
func (DateType) Name() string     { return "Date" }
func (t DateType) String() string { return t.Name() }
func (DateType) ByteWidth() int   { return 4 }

// DateTimeType stores seconds since the Unix epoch (UTC) as a uint32.
func (DateTimeType) ID() Type         { return DATETIME }
func (DateTimeType) Name() string     { return "DateTime" }
func (t DateTimeType) String() string { return t.Name() }
func (DateTimeType) ByteWidth() int   { return 4 }

func (UUIDType) ID() Type         { return UUID }
func (UUIDType) Name() string     { return "UUID" }
func (t UUIDType) String() string { return t.Name() }
func (UUIDType) ByteWidth() int   { return 16 }

func (IPv4Type) ID() Type         { return IPV4 }
func (IPv4Type) Name() string     { return "IPv4" }
func (t IPv4Type) String() string { return t.Name() }
func (IPv4Type) ByteWidth() int   { return 4 }

func (IPv6Type) ID() Type         { return IPV6 }
func (IPv6Type) Name() string     { return "IPv6" }
func (t IPv6Type) String() string { return t.Name() }
func (IPv6Type) ByteWidth() int   { return 16 }

var (
	PrimitiveTypes = struct {
		Int8    DataType
		Int16   DataType
		Int32   DataType
		Int64   DataType
		Uint8   DataType
		Uint16  DataType
		Uint32  DataType
		Uint64  DataType
		Float32 DataType
		Float64 DataType
	}{
		Int8:    &Int8Type{},
		Int16:   &Int16Type{},
		Int32:   &Int32Type{},
		Int64:   &Int64Type{},
		Uint8:   &Uint8Type{},
		Uint16:  &Uint16Type{},
		Uint32:  &Uint32Type{},
		Uint64:  &Uint64Type{},
		Float32: &Float32Type{},
		Float64: &Float64Type{},
	}

	FixedWidthTypes = struct {
		Boolean  FixedWidthDataType
		Date     FixedWidthDataType
		DateTime FixedWidthDataType
		UUID     FixedWidthDataType
		IPv4     FixedWidthDataType
		IPv6     FixedWidthDataType
	}{
		Boolean:  &BooleanType{},
		Date:     &DateType{},
		DateTime: &DateTimeType{},
		UUID:     &UUIDType{},
		IPv4:     &IPv4Type{},
		IPv6:     &IPv6Type{},
	}

	BinaryTypes = struct {
		String DataType
	}{
		String: &StringType{},
	}

	Null DataType = &NothingType{}
)

// DecimalType is a fixed point number with Precision significant digits, of
// which Scale are after the decimal point. Values are stored unscaled in an
// int64, so Precision is limited to MaxDecimalPrecision.
type DecimalType struct {
	Precision int32
	Scale     int32
}

const MaxDecimalPrecision = 18

func (*DecimalType) ID() Type       { return DECIMAL }
func (*DecimalType) ByteWidth() int { return 8 }
func (t *DecimalType) Name() string {
	return fmt.Sprintf("Decimal(%d, %d)", t.Precision, t.Scale)
}
func (t *DecimalType) String() string { return t.Name() }

// FixedStringType holds values of exactly N bytes; shorter values are padded
// with zero bytes.
type FixedStringType struct {
	N int
}

func (*FixedStringType) ID() Type         { return FIXED_STRING }
func (t *FixedStringType) ByteWidth() int { return t.N }
func (t *FixedStringType) Name() string   { return fmt.Sprintf("FixedString(%d)", t.N) }
func (t *FixedStringType) String() string { return t.Name() }

// DateTime64Type stores ticks of 10^-Precision seconds since the Unix epoch.
type DateTime64Type struct {
	Precision int
}

const MaxDateTime64Precision = 9

func (*DateTime64Type) ID() Type         { return DATETIME64 }
func (*DateTime64Type) ByteWidth() int   { return 8 }
func (t *DateTime64Type) Name() string   { return fmt.Sprintf("DateTime64(%d)", t.Precision) }
func (t *DateTime64Type) String() string { return t.Name() }

// ArrayType is a variable length list of values of Elem type.
type ArrayType struct {
	elem DataType
}

func ArrayOf(elem DataType) *ArrayType {
	if elem == nil {
		panic("varcol: nil array element type")
	}
	return &ArrayType{elem: elem}
}

func (*ArrayType) ID() Type               { return ARRAY }
func (t *ArrayType) Elem() DataType       { return t.elem }
func (t *ArrayType) Children() []DataType { return []DataType{t.elem} }
func (t *ArrayType) Name() string         { return "Array(" + t.elem.Name() + ")" }
func (t *ArrayType) String() string       { return t.Name() }

// TupleType is a fixed sequence of elements. Elements are addressed by
// position; the names are used for substream paths and, for named tuples,
// in the type name.
type TupleType struct {
	elems []DataType
	names []string
	named bool
}

func TupleOf(elems ...DataType) *TupleType {
	names := make([]string, len(elems))
	for i := range elems {
		names[i] = fmt.Sprint(i + 1)
	}
	return &TupleType{elems: elems, names: names}
}

func NamedTupleOf(names []string, elems []DataType) (*TupleType, error) {
	if len(names) != len(elems) {
		return nil, fmt.Errorf("%w: tuple has %d names for %d elements", ErrInvalid, len(names), len(elems))
	}
	for _, n := range names {
		if !isIdent(n) {
			return nil, fmt.Errorf("%w: tuple element name %q", ErrInvalid, n)
		}
	}
	return &TupleType{elems: elems, names: names, named: true}, nil
}

func (*TupleType) ID() Type                { return TUPLE }
func (t *TupleType) Elems() []DataType     { return t.elems }
func (t *TupleType) ElemName(i int) string { return t.names[i] }
func (t *TupleType) Children() []DataType  { return t.elems }
func (t *TupleType) String() string        { return t.Name() }

func (t *TupleType) Name() string {
	if !t.named {
		return "Tuple(" + joinNames(t.elems) + ")"
	}
	var sb strings.Builder
	sb.WriteString("Tuple(")
	for i, e := range t.elems {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(t.names[i])
		sb.WriteByte(' ')
		sb.WriteString(e.Name())
	}
	sb.WriteByte(')')
	return sb.String()
}

// MapType is stored as an array of (key, value) tuples.
type MapType struct {
	key, value DataType
}

func MapOf(key, value DataType) *MapType {
	if key == nil || value == nil {
		panic("varcol: nil map key or value type")
	}
	return &MapType{key: key, value: value}
}

func (*MapType) ID() Type               { return MAP }
func (t *MapType) Key() DataType        { return t.key }
func (t *MapType) Value() DataType      { return t.value }
func (t *MapType) Children() []DataType { return []DataType{t.key, t.value} }
func (t *MapType) Name() string {
	return "Map(" + t.key.Name() + ", " + t.value.Name() + ")"
}
func (t *MapType) String() string { return t.Name() }

// Storage returns the Array(Tuple(key, value)) type maps are encoded as.
func (t *MapType) Storage() *ArrayType {
	tt, _ := NamedTupleOf([]string{"keys", "values"}, []DataType{t.key, t.value})
	return ArrayOf(tt)
}

// MaxVariants is the number of branches a Variant can declare. One more
// discriminator value is reserved to mark rows without a value.
const MaxVariants = 255

// VariantType is a sum type: every row holds a value of exactly one of the
// declared variants or no value at all. Variants keep their declaration
// order; a variant's position is its discriminator.
type VariantType struct {
	variants []DataType
}

// VariantOf declares a Variant type. Duplicate variants, Nullable variants and
// directly nested Variants are rejected.
func VariantOf(variants ...DataType) (*VariantType, error) {
	switch {
	case len(variants) == 0:
		return nil, fmt.Errorf("%w: Variant must declare at least one type", ErrInvalid)
	case len(variants) > MaxVariants:
		return nil, fmt.Errorf("%w: Variant can declare at most %d types, got %d",
			ErrInvalid, MaxVariants, len(variants))
	}

	seen := make(map[string]struct{}, len(variants))
	for _, v := range variants {
		if v == nil {
			return nil, fmt.Errorf("%w: nil Variant type", ErrInvalid)
		}
		switch v.ID() {
		case VARIANT:
			return nil, fmt.Errorf("%w: nested Variant type %s", ErrInvalid, v)
		case NULLABLE:
			return nil, fmt.Errorf("%w: Variant cannot contain %s, rows without a value are already NULL",
				ErrInvalid, v)
		}
		if _, dup := seen[v.Name()]; dup {
			return nil, fmt.Errorf("%w: duplicate Variant type %s", ErrInvalid, v)
		}
		seen[v.Name()] = struct{}{}
	}
	return &VariantType{variants: variants}, nil
}

func (*VariantType) ID() Type                 { return VARIANT }
func (t *VariantType) Variants() []DataType   { return t.variants }
func (t *VariantType) NumVariants() int       { return len(t.variants) }
func (t *VariantType) Variant(i int) DataType { return t.variants[i] }
func (t *VariantType) Children() []DataType   { return t.variants }
func (t *VariantType) Name() string           { return "Variant(" + joinNames(t.variants) + ")" }
func (t *VariantType) String() string         { return t.Name() }

// Discriminator returns the discriminator of the variant of type dt.
func (t *VariantType) Discriminator(dt DataType) (int, bool) {
	for i, v := range t.variants {
		if TypeEqual(v, dt) {
			return i, true
		}
	}
	return 0, false
}

// NullableType wraps a type with a per-row null flag. It is only produced when
// reading a single variant of a Variant column as a subcolumn.
type NullableType struct {
	elem DataType
}

func NullableOf(elem DataType) *NullableType { return &NullableType{elem: elem} }

func (*NullableType) ID() Type               { return NULLABLE }
func (t *NullableType) Elem() DataType       { return t.elem }
func (t *NullableType) Children() []DataType { return []DataType{t.elem} }
func (t *NullableType) Name() string         { return "Nullable(" + t.elem.Name() + ")" }
func (t *NullableType) String() string       { return t.Name() }

// TypeEqual reports whether two data types are identical.
func TypeEqual(left, right DataType) bool {
	switch {
	case left == nil || right == nil:
		return left == nil && right == nil
	case left.ID() != right.ID():
		return false
	}
	return left.Name() == right.Name()
}

func joinNames(types []DataType) string {
	var sb strings.Builder
	for i, t := range types {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(t.Name())
	}
	return sb.String()
}

var (
	_ FixedWidthDataType = (*DecimalType)(nil)
	_ FixedWidthDataType = (*FixedStringType)(nil)
	_ FixedWidthDataType = (*DateTime64Type)(nil)
	_ NestedType         = (*ArrayType)(nil)
	_ NestedType         = (*TupleType)(nil)
	_ NestedType         = (*MapType)(nil)
	_ NestedType         = (*VariantType)(nil)
	_ NestedType         = (*NullableType)(nil)
)
