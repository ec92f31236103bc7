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
	"fmt"

	"github.com/colfmt/varcol"
)

// For returns the serialization of dt. Every type but Nothing yields a
// Codec; Nothing has no text parser and only implements BulkSerializer,
// RowSerializer and TextSerializer.
func For(dt varcol.DataType) (Serialization, error) {
	if dt == nil {
		return nil, fmt.Errorf("%w: nil data type", varcol.ErrInvalid)
	}
	if dt.ID() == varcol.NOTHING {
		return Nothing{}, nil
	}
	return codecFor(dt)
}

// codecFor returns the Codec of dt, failing with ErrUnsupportedType for
// types that lack one.
func codecFor(dt varcol.DataType) (Codec, error) {
	switch dt := dt.(type) {
	case *varcol.BooleanType:
		return newFixed(dt, boolText), nil
	case *varcol.Int8Type:
		return newFixed(dt, signedText[int8](8)), nil
	case *varcol.Uint8Type:
		return newFixed(dt, unsignedText[uint8](8)), nil
	case *varcol.Int16Type:
		return newFixed(dt, signedText[int16](16)), nil
	case *varcol.Uint16Type:
		return newFixed(dt, unsignedText[uint16](16)), nil
	case *varcol.Int32Type:
		return newFixed(dt, signedText[int32](32)), nil
	case *varcol.Uint32Type:
		return newFixed(dt, unsignedText[uint32](32)), nil
	case *varcol.Int64Type:
		return newFixed(dt, signedText[int64](64)), nil
	case *varcol.Uint64Type:
		return newFixed(dt, unsignedText[uint64](64)), nil
	case *varcol.Float32Type:
		return newFixed(dt, floatText[float32](32)), nil
	case *varcol.Float64Type:
		return newFixed(dt, floatText[float64](64)), nil
	case *varcol.DecimalType:
		return newFixed(dt, decimalText(dt)), nil
	case *varcol.DateType:
		return newFixed(dt, dateText), nil
	case *varcol.DateTimeType:
		return newFixed(dt, dateTimeText), nil
	case *varcol.DateTime64Type:
		return newFixed(dt, dateTime64Text(dt)), nil
	case *varcol.UUIDType:
		return newFixed(dt, uuidText), nil
	case *varcol.IPv4Type:
		return newFixed(dt, ipv4Text), nil
	case *varcol.IPv6Type:
		return newFixed(dt, ipv6Text), nil
	case *varcol.StringType:
		return String{}, nil
	case *varcol.FixedStringType:
		return &FixedString{dt: dt}, nil
	case *varcol.ArrayType:
		elem, err := codecFor(dt.Elem())
		if err != nil {
			return nil, err
		}
		return &Array{dt: dt, elem: elem}, nil
	case *varcol.TupleType:
		elems := make([]Codec, len(dt.Elems()))
		for i, et := range dt.Elems() {
			c, err := codecFor(et)
			if err != nil {
				return nil, err
			}
			elems[i] = c
		}
		return &Tuple{dt: dt, elems: elems}, nil
	case *varcol.MapType:
		key, err := codecFor(dt.Key())
		if err != nil {
			return nil, err
		}
		value, err := codecFor(dt.Value())
		if err != nil {
			return nil, err
		}
		storage, err := codecFor(dt.Storage())
		if err != nil {
			return nil, err
		}
		return &Map{dt: dt, storage: storage.(*Array), key: key, value: value}, nil
	case *varcol.NullableType:
		inner, err := codecFor(dt.Elem())
		if err != nil {
			return nil, err
		}
		return &Nullable{dt: dt, inner: inner}, nil
	case *varcol.VariantType:
		return NewVariant(dt)
	}
	return nil, fmt.Errorf("%w: %s", varcol.ErrUnsupportedType, dt)
}
