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
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/colfmt/varcol"
	"github.com/colfmt/varcol/column"
)

// Compact granule formats.
const (
	granulePlain   byte = 0
	granuleUniform byte = 1
)

type variantSerializeState struct {
	mode     DiscriminatorsMode
	branches []BulkState
}

// discriminatorsState tracks the reading of a discriminators substream. It
// is shared through the StatesCache by every reader of the substream.
type discriminatorsState struct {
	mode DiscriminatorsMode

	// Compact mode: rows left in the current granule and, for uniform
	// granules, their discriminator.
	remaining uint64
	uniform   bool
	discr     column.Discriminator
}

type variantDeserializeState struct {
	discriminators *discriminatorsState
	branches       []BulkState
}

func (s *Variant) SerializeBulkStatePrefix(col column.Column, settings *SerializeBulkSettings) (BulkState, error) {
	c, err := s.column(col)
	if err != nil {
		return nil, err
	}
	mode := settings.DiscriminatorsMode
	if mode != DiscriminatorsBasic && mode != DiscriminatorsCompact {
		return nil, fmt.Errorf("%w: discriminators mode %d", varcol.ErrInvalid, uint64(mode))
	}

	push(&settings.Path, s.discriminatorsPath())
	if w := settings.stream(); w != nil {
		if _, err := w.Write(binary.LittleEndian.AppendUint64(nil, uint64(mode))); err != nil {
			pop(&settings.Path, 1)
			return nil, err
		}
	}
	pop(&settings.Path, 1)

	st := &variantSerializeState{mode: mode, branches: make([]BulkState, len(s.branches))}
	for i, b := range s.branches {
		push(&settings.Path, s.branchPath(i)...)
		st.branches[i], err = b.SerializeBulkStatePrefix(c.Branch(i), settings)
		pop(&settings.Path, 2)
		if err != nil {
			return nil, err
		}
	}
	return st, nil
}

func (s *Variant) SerializeBulkStateSuffix(settings *SerializeBulkSettings, state BulkState) error {
	st, ok := state.(*variantSerializeState)
	if !ok {
		return stateError("variant", state)
	}
	for i, b := range s.branches {
		push(&settings.Path, s.branchPath(i)...)
		err := b.SerializeBulkStateSuffix(settings, st.branches[i])
		pop(&settings.Path, 2)
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *Variant) SerializeBulk(col column.Column, offset, limit int, settings *SerializeBulkSettings, state BulkState) error {
	c, err := s.column(col)
	if err != nil {
		return err
	}
	st, ok := state.(*variantSerializeState)
	if !ok {
		return stateError("variant", state)
	}
	n, err := rowRange(c, offset, limit)
	if err != nil || n == 0 {
		return err
	}

	push(&settings.Path, s.discriminatorsPath())
	if w := settings.stream(); w != nil {
		err = writeDiscriminators(w, st.mode, c.Discriminators()[offset:offset+n])
	}
	pop(&settings.Path, 1)
	if err != nil {
		return err
	}

	starts, sizes := c.BranchRanges(offset, n)
	for i, b := range s.branches {
		if sizes[i] == 0 {
			continue
		}
		push(&settings.Path, s.branchPath(i)...)
		err := b.SerializeBulk(c.Branch(i), starts[i], sizes[i], settings, st.branches[i])
		pop(&settings.Path, 2)
		if err != nil {
			return err
		}
	}
	return nil
}

// writeDiscriminators writes the discriminators of one SerializeBulk call.
// Compact mode writes them as a granule: the row count, the granule format
// and either the single discriminator of all rows or one byte per row.
func writeDiscriminators(w io.Writer, mode DiscriminatorsMode, ds []column.Discriminator) error {
	if mode == DiscriminatorsBasic {
		_, err := w.Write(ds)
		return err
	}
	buf := binary.AppendUvarint(nil, uint64(len(ds)))
	if uniform(ds) {
		buf = append(buf, granuleUniform, ds[0])
	} else {
		buf = append(buf, granulePlain)
		buf = append(buf, ds...)
	}
	_, err := w.Write(buf)
	return err
}

func uniform(ds []column.Discriminator) bool {
	for _, d := range ds[1:] {
		if d != ds[0] {
			return false
		}
	}
	return true
}

func (s *Variant) DeserializeBulkStatePrefix(settings *DeserializeBulkSettings, cache StatesCache) (BulkState, error) {
	ds, err := s.discriminatorsStatePrefix(settings, cache)
	if err != nil {
		return nil, err
	}
	st := &variantDeserializeState{discriminators: ds, branches: make([]BulkState, len(s.branches))}
	for i, b := range s.branches {
		push(&settings.Path, s.branchPath(i)...)
		st.branches[i], err = b.DeserializeBulkStatePrefix(settings, cache)
		pop(&settings.Path, 2)
		if err != nil {
			return nil, err
		}
	}
	return st, nil
}

// discriminatorsStatePrefix reads the discriminators mode, or returns the
// state another reader of the same substream already created.
func (s *Variant) discriminatorsStatePrefix(settings *DeserializeBulkSettings, cache StatesCache) (*discriminatorsState, error) {
	push(&settings.Path, s.discriminatorsPath())
	defer pop(&settings.Path, 1)
	if st, ok := cache.get(settings.Path); ok {
		if ds, ok := st.(*discriminatorsState); ok {
			return ds, nil
		}
		return nil, stateError("discriminators", st)
	}

	ds := &discriminatorsState{mode: DiscriminatorsBasic}
	if r := settings.stream(); r != nil {
		var buf [8]byte
		switch _, err := io.ReadFull(r, buf[:]); {
		case errors.Is(err, io.EOF):
			// An empty substream holds no rows.
		case err != nil:
			return nil, truncated(err)
		default:
			ds.mode = DiscriminatorsMode(binary.LittleEndian.Uint64(buf[:]))
		}
	}
	if ds.mode != DiscriminatorsBasic && ds.mode != DiscriminatorsCompact {
		return nil, fmt.Errorf("%w: discriminators mode %d", varcol.ErrInvalid, uint64(ds.mode))
	}
	cache.add(settings.Path, ds)
	return ds, nil
}

func (s *Variant) DeserializeBulk(col column.Column, limit int, settings *DeserializeBulkSettings, state BulkState, cache SubstreamsCache) error {
	c, err := s.column(col)
	if err != nil {
		return err
	}
	st, ok := state.(*variantDeserializeState)
	if !ok {
		return stateError("variant", state)
	}
	ds, err := s.readDiscriminators(limit, settings, st.discriminators, cache)
	if err != nil || len(ds) == 0 {
		return err
	}
	counts, err := s.countRows(ds)
	if err != nil {
		return err
	}

	start := c.Len()
	for i, count := range counts {
		if count == 0 {
			continue
		}
		values, err := s.readBranch(i, count, settings, st.branches[i], cache)
		if err == nil {
			err = c.Branch(i).AppendRange(values, 0, count)
		}
		if err != nil {
			c.Truncate(start)
			return err
		}
	}
	if err := c.AppendDiscriminators(ds); err != nil {
		c.Truncate(start)
		return err
	}
	return nil
}

// countRows returns the number of rows of every branch in ds.
func (s *Variant) countRows(ds []column.Discriminator) ([]int, error) {
	counts := make([]int, len(s.branches))
	for _, d := range ds {
		if d == column.NullDiscriminator {
			continue
		}
		if int(d) >= len(s.branches) {
			return nil, fmt.Errorf("%w: discriminator %d for %s", varcol.ErrInvalid, d, s.dt)
		}
		counts[d]++
	}
	return counts, nil
}

// readDiscriminators returns up to limit discriminators from the
// discriminators substream, or the ones another reader stored in cache.
func (s *Variant) readDiscriminators(limit int, settings *DeserializeBulkSettings, st *discriminatorsState, cache SubstreamsCache) ([]column.Discriminator, error) {
	if limit <= 0 {
		return nil, nil
	}
	push(&settings.Path, s.discriminatorsPath())
	defer pop(&settings.Path, 1)
	if cached, ok := cacheGet(cache, settings.Path); ok {
		c, ok := cached.(*column.Fixed[column.Discriminator])
		if !ok {
			return nil, fmt.Errorf("%w: cached discriminators are %s", varcol.ErrSchemaMismatch, cached.DataType())
		}
		if c.Len() > limit {
			return nil, fmt.Errorf("%w: cached chunk of %d discriminators exceeds limit %d", varcol.ErrInvalid, c.Len(), limit)
		}
		return c.Values(), nil
	}

	r := settings.stream()
	if r == nil {
		return nil, nil
	}
	var (
		ds  []column.Discriminator
		err error
	)
	if st.mode == DiscriminatorsCompact {
		ds, err = readCompact(r, limit, st)
	} else {
		ds, err = readBytes(r, limit)
	}
	if err != nil {
		return nil, err
	}
	c := column.NewFixed[column.Discriminator](varcol.PrimitiveTypes.Uint8)
	c.AppendValues(ds)
	cacheAdd(cache, settings.Path, c)
	return ds, nil
}

// readCompact reads up to limit discriminators of compact granules. A
// granule may span several calls; the end of the substream is only clean
// between granules.
func readCompact(r ByteReader, limit int, st *discriminatorsState) ([]column.Discriminator, error) {
	ds := make([]column.Discriminator, 0, min(limit, readBatch))
	for len(ds) < limit {
		if st.remaining == 0 {
			rows, err := binary.ReadUvarint(r)
			if errors.Is(err, io.EOF) {
				break
			}
			if err != nil {
				return nil, truncated(err)
			}
			kind, err := r.ReadByte()
			if err != nil {
				return nil, truncated(err)
			}
			switch kind {
			case granulePlain:
				st.uniform = false
			case granuleUniform:
				st.uniform = true
				if st.discr, err = r.ReadByte(); err != nil {
					return nil, truncated(err)
				}
			default:
				return nil, fmt.Errorf("%w: discriminators granule format %d", varcol.ErrInvalid, kind)
			}
			st.remaining = rows
			continue
		}

		k := int(min(st.remaining, uint64(limit-len(ds))))
		if st.uniform {
			for range k {
				ds = append(ds, st.discr)
			}
		} else {
			n := len(ds)
			ds = append(ds, make([]column.Discriminator, k)...)
			if _, err := io.ReadFull(r, ds[n:]); err != nil {
				return nil, truncated(err)
			}
		}
		st.remaining -= uint64(k)
	}
	return ds, nil
}

// readBranch returns a column holding the next count values of branch i,
// read from its substreams or taken from cache.
func (s *Variant) readBranch(i, count int, settings *DeserializeBulkSettings, state BulkState, cache SubstreamsCache) (column.Column, error) {
	push(&settings.Path, s.branchPath(i)...)
	defer pop(&settings.Path, 2)
	values, ok := cacheGet(cache, settings.Path)
	if !ok {
		var err error
		if values, err = column.New(s.dt.Variant(i)); err != nil {
			return nil, err
		}
		if err := s.branches[i].DeserializeBulk(values, count, settings, state, cache); err != nil {
			return nil, err
		}
		cacheAdd(cache, settings.Path, values)
	}
	if values.Len() < count {
		return nil, fmt.Errorf("%w: read %d of %d values of %s",
			varcol.ErrTruncatedStream, values.Len(), count, s.dt.Variant(i))
	}
	return values, nil
}
