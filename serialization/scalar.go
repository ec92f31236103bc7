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
	"bytes"
	"encoding/binary"
	"math"
	"net/netip"
	"strconv"
	"time"

	"github.com/cockroachdb/apd/v3"
	"github.com/colfmt/varcol"
	"github.com/colfmt/varcol/internal/utils"
	"github.com/google/uuid"
	"golang.org/x/exp/constraints"
)

var boolText = scalarText[bool]{
	append: strconv.AppendBool,
	parse: func(s []byte) (bool, bool) {
		switch {
		case bytes.EqualFold(s, []byte("true")):
			return true, true
		case bytes.EqualFold(s, []byte("false")):
			return false, true
		}
		return false, false
	},
}

func signedText[T constraints.Signed](bits int) scalarText[T] {
	return scalarText[T]{
		append: func(dst []byte, v T) []byte { return strconv.AppendInt(dst, int64(v), 10) },
		parse: func(s []byte) (T, bool) {
			v, err := strconv.ParseInt(string(s), 10, bits)
			return T(v), err == nil
		},
		wide: bits == 64,
	}
}

func unsignedText[T constraints.Unsigned](bits int) scalarText[T] {
	return scalarText[T]{
		append: func(dst []byte, v T) []byte { return strconv.AppendUint(dst, uint64(v), 10) },
		parse: func(s []byte) (T, bool) {
			v, err := strconv.ParseUint(string(s), 10, bits)
			return T(v), err == nil
		},
		wide: bits == 64,
	}
}

func floatText[T constraints.Float](bits int) scalarText[T] {
	return scalarText[T]{
		append: func(dst []byte, v T) []byte {
			f := float64(v)
			switch {
			case math.IsNaN(f):
				return append(dst, "nan"...)
			case math.IsInf(f, 1):
				return append(dst, "inf"...)
			case math.IsInf(f, -1):
				return append(dst, "-inf"...)
			}
			return strconv.AppendFloat(dst, f, 'g', -1, bits)
		},
		parse: func(s []byte) (T, bool) {
			// ParseFloat also takes hexadecimal mantissas and underscores
			if len(s) == 0 || bytes.ContainsAny(s, "_xXpP") {
				return 0, false
			}
			v, err := strconv.ParseFloat(string(s), bits)
			return T(v), err == nil
		},
	}
}

// decimalText formats unscaled int64 values of dt. Parsing rejects values
// that need rounding or more than Precision digits.
func decimalText(dt *varcol.DecimalType) scalarText[int64] {
	limit := apd.New(1, dt.Precision)
	return scalarText[int64]{
		append: func(dst []byte, v int64) []byte {
			return append(dst, apd.New(v, -dt.Scale).Text('f')...)
		},
		parse: func(s []byte) (int64, bool) {
			d, _, err := apd.NewFromString(string(s))
			if err != nil || d.Form != apd.Finite {
				return 0, false
			}
			ctx := apd.BaseContext.WithPrecision(uint32(dt.Precision) + 1)
			var q apd.Decimal
			cond, err := ctx.Quantize(&q, d, -dt.Scale)
			if err != nil || cond&apd.Inexact != 0 {
				return 0, false
			}
			q.Exponent = 0
			var abs apd.Decimal
			abs.Abs(&q)
			if abs.Cmp(limit) >= 0 {
				return 0, false
			}
			v, err := q.Int64()
			return v, err == nil
		},
	}
}

const (
	dateLayout     = "2006-01-02"
	dateTimeLayout = "2006-01-02 15:04:05"
	secondsPerDay  = 24 * 60 * 60
)

var dateText = scalarText[int32]{
	append: func(dst []byte, v int32) []byte {
		return time.Unix(int64(v)*secondsPerDay, 0).UTC().AppendFormat(dst, dateLayout)
	},
	parse: func(s []byte) (int32, bool) {
		t, err := time.Parse(dateLayout, string(s))
		if err != nil {
			return 0, false
		}
		days := t.Unix() / secondsPerDay
		if days < math.MinInt32 || days > math.MaxInt32 {
			return 0, false
		}
		return int32(days), true
	},
	stringLike: true,
}

var dateTimeText = scalarText[uint32]{
	append: func(dst []byte, v uint32) []byte {
		return time.Unix(int64(v), 0).UTC().AppendFormat(dst, dateTimeLayout)
	},
	parse: func(s []byte) (uint32, bool) {
		t, err := time.Parse(dateTimeLayout, string(s))
		if err != nil || t.Unix() < 0 || t.Unix() > math.MaxUint32 {
			return 0, false
		}
		return uint32(t.Unix()), true
	},
	stringLike: true,
}

// dateTime64Text formats ticks of 10^-precision seconds as
// "2006-01-02 15:04:05.000" with precision fractional digits.
func dateTime64Text(dt *varcol.DateTime64Type) scalarText[int64] {
	scale := int64(1)
	for i := 0; i < dt.Precision; i++ {
		scale *= 10
	}
	return scalarText[int64]{
		append: func(dst []byte, v int64) []byte {
			sec, frac := v/scale, v%scale
			if frac < 0 {
				sec, frac = sec-1, frac+scale
			}
			dst = time.Unix(sec, 0).UTC().AppendFormat(dst, dateTimeLayout)
			if dt.Precision == 0 {
				return dst
			}
			dst = append(dst, '.')
			digits := strconv.AppendInt(nil, frac, 10)
			for i := len(digits); i < dt.Precision; i++ {
				dst = append(dst, '0')
			}
			return append(dst, digits...)
		},
		parse: func(s []byte) (int64, bool) {
			base, fracText, hasFrac := bytes.Cut(s, []byte{'.'})
			if hasFrac && (len(fracText) == 0 || len(fracText) > dt.Precision) {
				return 0, false
			}
			t, err := time.Parse(dateTimeLayout, string(base))
			if err != nil {
				return 0, false
			}
			var frac int64
			for i := 0; i < dt.Precision; i++ {
				frac *= 10
				if i < len(fracText) {
					c := fracText[i]
					if c < '0' || c > '9' {
						return 0, false
					}
					frac += int64(c - '0')
				}
			}
			ticks, ok := utils.Mul64(t.Unix(), scale)
			if !ok {
				return 0, false
			}
			return utils.Add(ticks, frac)
		},
		stringLike: true,
	}
}

var uuidText = scalarText[uuid.UUID]{
	append: func(dst []byte, v uuid.UUID) []byte { return append(dst, v.String()...) },
	parse: func(s []byte) (uuid.UUID, bool) {
		// only the canonical 8-4-4-4-12 form
		if len(s) != 36 {
			return uuid.Nil, false
		}
		v, err := uuid.ParseBytes(s)
		return v, err == nil
	},
	stringLike: true,
}

var ipv4Text = scalarText[uint32]{
	append: func(dst []byte, v uint32) []byte {
		var b [4]byte
		binary.BigEndian.PutUint32(b[:], v)
		return netip.AddrFrom4(b).AppendTo(dst)
	},
	parse: func(s []byte) (uint32, bool) {
		addr, err := netip.ParseAddr(string(s))
		if err != nil || !addr.Is4() {
			return 0, false
		}
		b := addr.As4()
		return binary.BigEndian.Uint32(b[:]), true
	},
	stringLike: true,
}

var ipv6Text = scalarText[[16]byte]{
	append: func(dst []byte, v [16]byte) []byte { return netip.AddrFrom16(v).AppendTo(dst) },
	parse: func(s []byte) ([16]byte, bool) {
		addr, err := netip.ParseAddr(string(s))
		if err != nil || !addr.Is6() || addr.Zone() != "" {
			return [16]byte{}, false
		}
		return addr.As16(), true
	},
	stringLike: true,
}
