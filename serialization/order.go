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
	"cmp"
	"slices"

	"github.com/colfmt/varcol"
)

// textPriority ranks the types a text token is tried against. Types whose
// text forms are narrower come first so that, for example, "1" parses as an
// integer before a float and "2024-01-01" as a Date before a String.
var textPriority = map[varcol.Type]int{
	varcol.IPV4:         20,
	varcol.IPV6:         19,
	varcol.UUID:         18,
	varcol.DATE:         17,
	varcol.DATETIME:     16,
	varcol.DATETIME64:   15,
	varcol.BOOL:         14,
	varcol.INT8:         13,
	varcol.UINT8:        12,
	varcol.INT16:        11,
	varcol.UINT16:       10,
	varcol.INT32:        9,
	varcol.UINT32:       8,
	varcol.INT64:        7,
	varcol.UINT64:       6,
	varcol.FLOAT64:      5,
	varcol.FLOAT32:      4,
	varcol.DECIMAL:      3,
	varcol.FIXED_STRING: 2,
	varcol.STRING:       1,
}

// TypeDepth returns the nesting depth of dt: 0 for scalars, one more than
// the deepest child for arrays, maps and tuples. Nullable does not add a
// level.
func TypeDepth(dt varcol.DataType) int {
	switch dt := dt.(type) {
	case *varcol.ArrayType:
		return 1 + TypeDepth(dt.Elem())
	case *varcol.MapType:
		return 1 + max(TypeDepth(dt.Key()), TypeDepth(dt.Value()))
	case *varcol.TupleType:
		depth := 0
		for _, e := range dt.Elems() {
			depth = max(depth, TypeDepth(e))
		}
		return 1 + depth
	case *varcol.NullableType:
		return TypeDepth(dt.Elem())
	}
	return 0
}

// TypePriority returns the rank of dt among types of the same depth. Higher
// ranks are tried first; composite types rank as their highest leaf.
func TypePriority(dt varcol.DataType) int {
	nested, ok := dt.(varcol.NestedType)
	if !ok {
		return textPriority[dt.ID()]
	}
	prio := 0
	for _, c := range nested.Children() {
		prio = max(prio, TypePriority(c))
	}
	return prio
}

// DeserializeTextOrder returns the indexes of types in the order a text
// token should be tried against them: deeper types first, then by
// priority, ties keeping declaration order.
func DeserializeTextOrder(types []varcol.DataType) []int {
	order := make([]int, len(types))
	depths := make([]int, len(types))
	for i, t := range types {
		order[i] = i
		depths[i] = TypeDepth(t)
	}
	slices.SortStableFunc(order, func(a, b int) int {
		if c := cmp.Compare(depths[b], depths[a]); c != 0 {
			return c
		}
		return cmp.Compare(TypePriority(types[b]), TypePriority(types[a]))
	})
	return order
}
