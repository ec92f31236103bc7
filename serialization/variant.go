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
	"slices"

	"github.com/colfmt/varcol"
	"github.com/colfmt/varcol/column"
)

// Variant is the codec of Variant(T1, ..., Tn). Its branches are the codecs
// of the declared types in declaration order.
//
// In bulk encodings the discriminators go to the VariantDiscriminators
// substream and the values of branch i to the substreams of Ti under
// VariantElements/VariantElement(Ti). Rows are written as their
// discriminator byte followed by the value. Text carries no discriminator:
// the branch of a token is the first one, in DeserializeTextOrder, that
// parses the whole token.
type Variant struct {
	dt       *varcol.VariantType
	branches []Codec
	order    []int
}

// NewVariant builds the codec of dt. Every branch type must support the
// bulk, row and text encodings; ErrUnsupportedType is returned otherwise.
func NewVariant(dt *varcol.VariantType) (*Variant, error) {
	if dt == nil {
		return nil, fmt.Errorf("%w: nil Variant type", varcol.ErrInvalid)
	}
	s := &Variant{dt: dt, branches: make([]Codec, dt.NumVariants())}
	for i, vt := range dt.Variants() {
		ser, err := For(vt)
		if err != nil {
			return nil, err
		}
		codec, ok := ser.(Codec)
		if !ok {
			return nil, fmt.Errorf("%w: %s cannot be a variant of %s", varcol.ErrUnsupportedType, vt, dt)
		}
		s.branches[i] = codec
	}
	s.order = DeserializeTextOrder(dt.Variants())
	return s, nil
}

func (s *Variant) DataType() varcol.DataType { return s.dt }
func (s *Variant) NumBranches() int          { return len(s.branches) }
func (s *Variant) Branch(i int) Codec        { return s.branches[i] }

// DeserializeTextOrder returns the order text tokens are tried against the
// branches.
func (s *Variant) DeserializeTextOrder() []int { return slices.Clone(s.order) }

func (s *Variant) discriminatorsPath() Substream {
	return Substream{Type: VariantDiscriminators}
}

func (s *Variant) branchPath(i int) []Substream {
	return []Substream{
		{Type: VariantElements},
		{Type: VariantElement, Name: s.dt.Variant(i).Name()},
	}
}

func (s *Variant) EnumerateStreams(path SubstreamPath, cb StreamCallback) {
	cb(append(path.Clone(), s.discriminatorsPath()))
	for i, b := range s.branches {
		b.EnumerateStreams(append(path.Clone(), s.branchPath(i)...), cb)
	}
}

func (s *Variant) column(col column.Column) (*column.Variant, error) {
	c, ok := col.(*column.Variant)
	if !ok || !varcol.TypeEqual(c.DataType(), s.dt) || c.NumBranches() != len(s.branches) {
		return nil, columnError(s, col)
	}
	return c, nil
}

var _ Codec = (*Variant)(nil)
