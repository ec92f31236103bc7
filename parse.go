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
	"slices"
	"strconv"
	"strings"
	"unicode"
)

var simpleTypes = map[string]DataType{
	"Nothing":  Null,
	"Bool":     FixedWidthTypes.Boolean,
	"UInt8":    PrimitiveTypes.Uint8,
	"Int8":     PrimitiveTypes.Int8,
	"UInt16":   PrimitiveTypes.Uint16,
	"Int16":    PrimitiveTypes.Int16,
	"UInt32":   PrimitiveTypes.Uint32,
	"Int32":    PrimitiveTypes.Int32,
	"UInt64":   PrimitiveTypes.Uint64,
	"Int64":    PrimitiveTypes.Int64,
	"Float32":  PrimitiveTypes.Float32,
	"Float64":  PrimitiveTypes.Float64,
	"String":   BinaryTypes.String,
	"Date":     FixedWidthTypes.Date,
	"DateTime": FixedWidthTypes.DateTime,
	"UUID":     FixedWidthTypes.UUID,
	"IPv4":     FixedWidthTypes.IPv4,
	"IPv6":     FixedWidthTypes.IPv6,
}

// ParseType parses a type name as produced by DataType.Name, for example
// "Variant(Array(UInt64), String, Decimal(10, 2))".
func ParseType(s string) (DataType, error) {
	p := typeParser{src: s}
	dt, err := p.parse()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.pos != len(p.src) {
		return nil, p.errorf("unexpected trailing input %q", p.src[p.pos:])
	}
	return dt, nil
}

// MustParseType is like ParseType but panics on error.
func MustParseType(s string) DataType {
	dt, err := ParseType(s)
	if err != nil {
		panic(err)
	}
	return dt
}

type typeParser struct {
	src string
	pos int
}

func (p *typeParser) errorf(format string, args ...any) error {
	return fmt.Errorf("%w: type %q at offset %d: %s", ErrSyntax, p.src, p.pos, fmt.Sprintf(format, args...))
}

func (p *typeParser) skipSpace() {
	for p.pos < len(p.src) && unicode.IsSpace(rune(p.src[p.pos])) {
		p.pos++
	}
}

func (p *typeParser) ident() string {
	p.skipSpace()
	start := p.pos
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		if c == '_' || c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' {
			p.pos++
			continue
		}
		break
	}
	return p.src[start:p.pos]
}

func (p *typeParser) consume(c byte) bool {
	p.skipSpace()
	if p.pos < len(p.src) && p.src[p.pos] == c {
		p.pos++
		return true
	}
	return false
}

func (p *typeParser) expect(c byte) error {
	if !p.consume(c) {
		return p.errorf("expected %q", c)
	}
	return nil
}

func (p *typeParser) integer() (int, error) {
	tok := p.ident()
	v, err := strconv.Atoi(tok)
	if err != nil {
		return 0, p.errorf("expected integer, got %q", tok)
	}
	return v, nil
}

// args parses a parenthesized, comma separated list of types.
func (p *typeParser) args() ([]DataType, []string, error) {
	if err := p.expect('('); err != nil {
		return nil, nil, err
	}
	var (
		types []DataType
		names []string
	)
	for {
		// Tuple elements may be named: "Tuple(a Int32, b String)".
		save := p.pos
		name := p.ident()
		p.skipSpace()
		if name == "" || p.pos >= len(p.src) || !isIdentStart(p.src[p.pos]) {
			p.pos, name = save, ""
		}
		dt, err := p.parse()
		if err != nil {
			return nil, nil, err
		}
		types = append(types, dt)
		names = append(names, name)
		if p.consume(')') {
			return types, names, nil
		}
		if err := p.expect(','); err != nil {
			return nil, nil, err
		}
	}
}

func isIdent(s string) bool {
	if s == "" || !isIdentStart(s[0]) {
		return false
	}
	for i := 1; i < len(s); i++ {
		if c := s[i]; !isIdentStart(c) && (c < '0' || c > '9') {
			return false
		}
	}
	return true
}

func isIdentStart(c byte) bool {
	return c == '_' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}

func (p *typeParser) parse() (DataType, error) {
	name := p.ident()
	if name == "" {
		return nil, p.errorf("expected type name")
	}
	if dt, ok := simpleTypes[name]; ok {
		return dt, nil
	}

	switch name {
	case "FixedString":
		if err := p.expect('('); err != nil {
			return nil, err
		}
		n, err := p.integer()
		if err != nil {
			return nil, err
		}
		if n <= 0 {
			return nil, p.errorf("FixedString size must be positive, got %d", n)
		}
		return &FixedStringType{N: n}, p.expect(')')
	case "DateTime64":
		if err := p.expect('('); err != nil {
			return nil, err
		}
		prec, err := p.integer()
		if err != nil {
			return nil, err
		}
		if prec < 0 || prec > MaxDateTime64Precision {
			return nil, p.errorf("DateTime64 precision must be in [0, %d], got %d", MaxDateTime64Precision, prec)
		}
		return &DateTime64Type{Precision: prec}, p.expect(')')
	case "Decimal":
		if err := p.expect('('); err != nil {
			return nil, err
		}
		prec, err := p.integer()
		if err != nil {
			return nil, err
		}
		if err := p.expect(','); err != nil {
			return nil, err
		}
		scale, err := p.integer()
		if err != nil {
			return nil, err
		}
		if prec < 1 || prec > MaxDecimalPrecision || scale < 0 || scale > prec {
			return nil, p.errorf("invalid Decimal(%d, %d)", prec, scale)
		}
		return &DecimalType{Precision: int32(prec), Scale: int32(scale)}, p.expect(')')
	}

	args, names, err := p.args()
	if err != nil {
		return nil, err
	}
	switch name {
	case "Array":
		if len(args) != 1 {
			return nil, p.errorf("Array takes one argument, got %d", len(args))
		}
		return ArrayOf(args[0]), nil
	case "Nullable":
		if len(args) != 1 {
			return nil, p.errorf("Nullable takes one argument, got %d", len(args))
		}
		return NullableOf(args[0]), nil
	case "Map":
		if len(args) != 2 {
			return nil, p.errorf("Map takes two arguments, got %d", len(args))
		}
		return MapOf(args[0], args[1]), nil
	case "Tuple":
		if strings.Join(names, "") == "" {
			return TupleOf(args...), nil
		}
		if slices.Contains(names, "") {
			return nil, p.errorf("either all or none of the tuple elements must be named")
		}
		return NamedTupleOf(names, args)
	case "Variant":
		return VariantOf(args...)
	}
	return nil, p.errorf("unknown type %q", name)
}
