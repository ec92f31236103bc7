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
	"strconv"
	"strings"

	"github.com/stoewer/go-strcase"
)

// SubstreamType identifies the role of a substream.
type SubstreamType int8

const (
	// Regular holds the values of a leaf type.
	Regular SubstreamType = iota
	ArraySizes
	ArrayElements
	TupleElement
	NullMap
	VariantDiscriminators
	VariantElements
	VariantElement
)

var substreamTypeNames = [...]string{
	Regular:               "Regular",
	ArraySizes:            "ArraySizes",
	ArrayElements:         "ArrayElements",
	TupleElement:          "TupleElement",
	NullMap:               "NullMap",
	VariantDiscriminators: "VariantDiscriminators",
	VariantElements:       "VariantElements",
	VariantElement:        "VariantElement",
}

func (t SubstreamType) String() string {
	if t < 0 || int(t) >= len(substreamTypeNames) {
		return "SubstreamType(" + strconv.Itoa(int(t)) + ")"
	}
	return substreamTypeNames[t]
}

// Substream is one step of a SubstreamPath. Name is set for TupleElement
// (the element name) and VariantElement (the variant's type name).
type Substream struct {
	Type SubstreamType
	Name string
}

func (s Substream) String() string {
	if s.Name == "" {
		return s.Type.String()
	}
	return s.Type.String() + "(" + s.Name + ")"
}

// SubstreamPath locates a substream inside a column.
type SubstreamPath []Substream

// Clone returns a copy of p that does not share its backing array.
func (p SubstreamPath) Clone() SubstreamPath {
	return append(SubstreamPath(nil), p...)
}

func (p SubstreamPath) String() string {
	parts := make([]string, len(p))
	for i, s := range p {
		parts[i] = s.String()
	}
	return strings.Join(parts, "/")
}

// StreamCallback is called with the path of every substream. The path is
// owned by the callback.
type StreamCallback func(path SubstreamPath)

func push(path *SubstreamPath, s ...Substream) { *path = append(*path, s...) }
func pop(path *SubstreamPath, n int)           { *path = (*path)[:len(*path)-n] }

// StreamName returns the stable name of the substream at path inside the
// column called column, for example "v.variant_discriminators", "v.Int32" or
// "v.Array(String).size0".
func StreamName(column string, path SubstreamPath) string {
	var sb strings.Builder
	sb.WriteString(column)
	level := 0
	for _, s := range path {
		switch s.Type {
		case ArraySizes:
			sb.WriteString(".size")
			sb.WriteString(strconv.Itoa(level))
		case ArrayElements:
			level++
		case TupleElement, VariantElement:
			sb.WriteByte('.')
			sb.WriteString(s.Name)
		case NullMap, VariantDiscriminators:
			sb.WriteByte('.')
			sb.WriteString(strcase.SnakeCase(s.Type.String()))
		}
	}
	return sb.String()
}
