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

package utils

type signed interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64
}

// Add returns a + b and whether the addition did not overflow. On overflow
// the wrapped result is returned.
func Add[T signed](a, b T) (T, bool) {
	c := a + b
	return c, (c > a) == (b > 0)
}

// Mul returns a * b and whether the multiplication did not overflow.
func Mul[T ~int | ~int64](a, b T) (T, bool) {
	c := a * b
	if a == 0 || b == 0 {
		return 0, true
	}
	// -1 * MinInt wraps to MinInt, which divides back cleanly
	if (a == -1 && b == -b) || (b == -1 && a == -a) {
		return c, false
	}
	return c, c/b == a
}

// Mul64 is Mul for int64.
func Mul64(a, b int64) (int64, bool) { return Mul(a, b) }

// ClampRange resolves the number of rows to process starting at offset in a
// sequence of n rows. A limit of zero, a limit running past n, or one whose
// end overflows means "everything after offset". It reports false when offset
// is out of bounds.
func ClampRange(offset, limit, n int) (int, bool) {
	if offset < 0 || offset > n || limit < 0 {
		return 0, false
	}
	end, ok := Add(offset, limit)
	if limit == 0 || !ok || end > n {
		return n - offset, true
	}
	return limit, true
}
