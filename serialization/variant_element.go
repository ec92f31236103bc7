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
	"github.com/colfmt/varcol/column"
)

// VariantElementSerialization reads a single variant of a Variant column as a
// Nullable column: rows of other variants and NULL rows read as NULL.
//
// It reads the discriminators and the substreams of its variant only.
// Sharing a SubstreamsCache and a StatesCache with a reader of the whole
// column, or of other variants, reads those substreams once per chunk.
type VariantElementSerialization struct {
	variant *Variant
	index   int
	dt      *varcol.NullableType
}

type variantElementState struct {
	discriminators *discriminatorsState
	branch         BulkState
}

// NewVariantElement returns the reader of variant i of vt.
func NewVariantElement(vt *varcol.VariantType, i int) (*VariantElementSerialization, error) {
	v, err := NewVariant(vt)
	if err != nil {
		return nil, err
	}
	if i < 0 || i >= vt.NumVariants() {
		return nil, fmt.Errorf("%w: variant %d of %s", varcol.ErrIndex, i, vt)
	}
	return &VariantElementSerialization{variant: v, index: i, dt: varcol.NullableOf(vt.Variant(i))}, nil
}

func (s *VariantElementSerialization) DataType() varcol.DataType { return s.dt }

func (s *VariantElementSerialization) EnumerateStreams(path SubstreamPath, cb StreamCallback) {
	cb(append(path.Clone(), s.variant.discriminatorsPath()))
	s.variant.branches[s.index].EnumerateStreams(append(path.Clone(), s.variant.branchPath(s.index)...), cb)
}

func (s *VariantElementSerialization) DeserializeBulkStatePrefix(settings *DeserializeBulkSettings, cache StatesCache) (BulkState, error) {
	ds, err := s.variant.discriminatorsStatePrefix(settings, cache)
	if err != nil {
		return nil, err
	}
	push(&settings.Path, s.variant.branchPath(s.index)...)
	defer pop(&settings.Path, 2)
	branch, err := s.variant.branches[s.index].DeserializeBulkStatePrefix(settings, cache)
	if err != nil {
		return nil, err
	}
	return &variantElementState{discriminators: ds, branch: branch}, nil
}

// DeserializeBulk appends up to limit rows to col, a Nullable column of the
// variant's type.
func (s *VariantElementSerialization) DeserializeBulk(col column.Column, limit int, settings *DeserializeBulkSettings, state BulkState, cache SubstreamsCache) error {
	c, ok := col.(*column.Nullable)
	if !ok || !varcol.TypeEqual(c.DataType(), s.dt) {
		return columnError(s, col)
	}
	st, ok := state.(*variantElementState)
	if !ok {
		return stateError("variant element", state)
	}
	ds, err := s.variant.readDiscriminators(limit, settings, st.discriminators, cache)
	if err != nil || len(ds) == 0 {
		return err
	}
	counts, err := s.variant.countRows(ds)
	if err != nil {
		return err
	}
	var values column.Column
	if count := counts[s.index]; count > 0 {
		if values, err = s.variant.readBranch(s.index, count, settings, st.branch, cache); err != nil {
			return err
		}
	}

	start := c.Len()
	d := column.Discriminator(s.index)
	next := 0
	for row := 0; row < len(ds); {
		if ds[row] != d {
			c.AppendNull()
			row++
			continue
		}
		run := 1
		for row+run < len(ds) && ds[row+run] == d {
			run++
		}
		if err := c.Inner().AppendRange(values, next, run); err != nil {
			c.Truncate(start)
			return err
		}
		for range run {
			c.AppendInner()
		}
		next += run
		row += run
	}
	return nil
}
