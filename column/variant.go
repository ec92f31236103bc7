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

package column

import (
	"fmt"

	"github.com/colfmt/varcol"
	"github.com/colfmt/varcol/internal/debug"
)

// Discriminator selects the variant a row belongs to.
type Discriminator = uint8

// NullDiscriminator marks a row that holds no value.
const NullDiscriminator Discriminator = 255

// VariantValue is the value of one Variant row. Discriminator is
// NullDiscriminator and Value is nil for NULL rows.
type VariantValue struct {
	Discriminator Discriminator
	Value         any
}

// IsNull reports whether v holds no value.
func (v VariantValue) IsNull() bool { return v.Discriminator == NullDiscriminator }

// Variant is a column of a Variant type. Every row has a discriminator; each
// variant owns a dense column holding only the values of its rows, in row
// order. The k-th value of branch i belongs to the k-th row whose
// discriminator is i; the column records that k as the row's offset.
type Variant struct {
	dt             *varcol.VariantType
	discriminators []Discriminator
	offsets        []int
	branches       []Column
	counts         []int
}

// NewVariant builds an empty Variant column from one empty column per
// variant of dt.
func NewVariant(dt *varcol.VariantType, branches []Column) (*Variant, error) {
	if len(branches) != dt.NumVariants() {
		return nil, fmt.Errorf("%w: %s has %d variants, got %d columns",
			varcol.ErrSchemaMismatch, dt, dt.NumVariants(), len(branches))
	}
	for i, b := range branches {
		if !varcol.TypeEqual(b.DataType(), dt.Variant(i)) {
			return nil, fmt.Errorf("%w: variant %d is %s, got %s column",
				varcol.ErrSchemaMismatch, i, dt.Variant(i), b.DataType())
		}
		if b.Len() != 0 {
			return nil, fmt.Errorf("%w: variant %d column is not empty", varcol.ErrInvariantViolation, i)
		}
	}
	return &Variant{dt: dt, branches: branches, counts: make([]int, len(branches))}, nil
}

func (c *Variant) Len() int                            { return len(c.discriminators) }
func (c *Variant) DataType() varcol.DataType           { return c.dt }
func (c *Variant) VariantType() *varcol.VariantType    { return c.dt }
func (c *Variant) NumBranches() int                    { return len(c.branches) }
func (c *Variant) Branch(i int) Column                 { return c.branches[i] }
func (c *Variant) BranchLen(i int) int                 { return c.branches[i].Len() }
func (c *Variant) Discriminator(row int) Discriminator { return c.discriminators[row] }

// Offset returns the position of row's value inside its branch. It is
// meaningless for NULL rows.
func (c *Variant) Offset(row int) int { return c.offsets[row] }

// Discriminators returns the discriminator of every row. The slice must not
// be modified.
func (c *Variant) Discriminators() []Discriminator { return c.discriminators }

func (c *Variant) Value(row int) any {
	d := c.discriminators[row]
	if d == NullDiscriminator {
		return VariantValue{Discriminator: NullDiscriminator}
	}
	return VariantValue{Discriminator: d, Value: c.branches[d].Value(c.offsets[row])}
}

// AppendNull appends a row without a value.
func (c *Variant) AppendNull() {
	c.discriminators = append(c.discriminators, NullDiscriminator)
	c.offsets = append(c.offsets, 0)
}

func (c *Variant) AppendDefault() { c.AppendNull() }

// CommitBranch records a new row belonging to branch i, whose value the
// caller has just appended to Branch(i).
func (c *Variant) CommitBranch(i int) error {
	if i < 0 || i >= len(c.branches) {
		return fmt.Errorf("%w: variant index %d out of range [0, %d)", varcol.ErrIndex, i, len(c.branches))
	}
	if c.branches[i].Len() != c.counts[i]+1 {
		return fmt.Errorf("%w: variant %d holds %d values for %d rows",
			varcol.ErrInvariantViolation, i, c.branches[i].Len(), c.counts[i]+1)
	}
	c.discriminators = append(c.discriminators, Discriminator(i))
	c.offsets = append(c.offsets, c.counts[i])
	c.counts[i]++
	return nil
}

// AppendDiscriminators appends one row per discriminator in ds. The caller
// must already have appended the rows' values to the branches, so that every
// branch holds exactly one value per row referring to it. On error nothing is
// appended.
func (c *Variant) AppendDiscriminators(ds []Discriminator) error {
	next := make([]int, len(c.counts))
	copy(next, c.counts)
	for _, d := range ds {
		if d == NullDiscriminator {
			continue
		}
		if int(d) >= len(c.branches) {
			return fmt.Errorf("%w: discriminator %d for a Variant of %d types",
				varcol.ErrInvalid, d, len(c.branches))
		}
		next[d]++
	}
	for i, b := range c.branches {
		if b.Len() != next[i] {
			return fmt.Errorf("%w: variant %d holds %d values for %d rows",
				varcol.ErrInvariantViolation, i, b.Len(), next[i])
		}
	}

	for _, d := range ds {
		c.discriminators = append(c.discriminators, d)
		if d == NullDiscriminator {
			c.offsets = append(c.offsets, 0)
			continue
		}
		c.offsets = append(c.offsets, c.counts[d])
		c.counts[d]++
	}
	return nil
}

func (c *Variant) AppendValue(v any) error {
	if v == nil {
		c.AppendNull()
		return nil
	}
	vv, ok := v.(VariantValue)
	if !ok {
		return typeError(c.dt.Name(), v)
	}
	if vv.IsNull() {
		c.AppendNull()
		return nil
	}
	d := int(vv.Discriminator)
	if d >= len(c.branches) {
		return fmt.Errorf("%w: discriminator %d for a Variant of %d types", varcol.ErrInvalid, d, len(c.branches))
	}
	if err := c.branches[d].AppendValue(vv.Value); err != nil {
		return err
	}
	return c.CommitBranch(d)
}

// AppendRange appends rows [offset, offset+n) of src. The rows of one branch
// inside a contiguous row range are contiguous in the branch, so each branch
// is copied with a single AppendRange.
func (c *Variant) AppendRange(src Column, offset, n int) error {
	other, ok := src.(*Variant)
	if !ok || !varcol.TypeEqual(other.dt, c.dt) {
		return sourceError(c, src)
	}
	if err := checkRange(src, offset, n); err != nil {
		return err
	}
	starts, sizes := other.BranchRanges(offset, n)
	lens := make([]int, len(c.branches))
	for i, b := range c.branches {
		lens[i] = b.Len()
		if err := b.AppendRange(other.branches[i], starts[i], sizes[i]); err != nil {
			c.truncateBranches(lens[:i])
			return err
		}
	}
	if err := c.AppendDiscriminators(other.discriminators[offset : offset+n]); err != nil {
		c.truncateBranches(lens)
		return err
	}
	return nil
}

// BranchRanges returns, for every branch, the first branch offset and the
// number of values referenced by rows [offset, offset+n). Branches without
// rows in the range report a zero size.
func (c *Variant) BranchRanges(offset, n int) (starts, sizes []int) {
	starts = make([]int, len(c.branches))
	sizes = make([]int, len(c.branches))
	for i := range starts {
		starts[i] = -1
	}
	for row := offset; row < offset+n; row++ {
		d := c.discriminators[row]
		if d == NullDiscriminator {
			continue
		}
		if starts[d] < 0 {
			starts[d] = c.offsets[row]
		}
		sizes[d]++
	}
	for i := range starts {
		if starts[i] < 0 {
			starts[i] = c.counts[i]
		}
	}
	return starts, sizes
}

// Truncate drops every row at or after n together with its branch values.
// Branch values not referenced by any remaining row are dropped as well.
func (c *Variant) Truncate(n int) {
	if n > len(c.discriminators) {
		n = len(c.discriminators)
	}
	for _, d := range c.discriminators[n:] {
		if d != NullDiscriminator {
			c.counts[d]--
		}
	}
	c.discriminators = c.discriminators[:n]
	c.offsets = c.offsets[:n]
	for i, b := range c.branches {
		if b.Len() > c.counts[i] {
			b.Truncate(c.counts[i])
		}
	}
	debug.Assert(c.Validate() == nil, "variant column invalid after truncate")
}

// Validate checks that discriminators, offsets and branch lengths agree.
func (c *Variant) Validate() error {
	if len(c.offsets) != len(c.discriminators) {
		return fmt.Errorf("%w: %d offsets for %d rows", varcol.ErrInvariantViolation, len(c.offsets), len(c.discriminators))
	}
	counts := make([]int, len(c.branches))
	for row, d := range c.discriminators {
		if d == NullDiscriminator {
			continue
		}
		if int(d) >= len(c.branches) {
			return fmt.Errorf("%w: row %d has discriminator %d", varcol.ErrInvariantViolation, row, d)
		}
		if c.offsets[row] != counts[d] {
			return fmt.Errorf("%w: row %d has offset %d, expected %d",
				varcol.ErrInvariantViolation, row, c.offsets[row], counts[d])
		}
		counts[d]++
	}
	for i, b := range c.branches {
		if b.Len() != counts[i] {
			return fmt.Errorf("%w: variant %d holds %d values for %d rows",
				varcol.ErrInvariantViolation, i, b.Len(), counts[i])
		}
	}
	return nil
}

func (c *Variant) truncateBranches(lens []int) {
	for i, n := range lens {
		c.branches[i].Truncate(n)
	}
}
