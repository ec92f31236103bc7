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

package column_test

import (
	"testing"

	"github.com/colfmt/varcol"
	"github.com/colfmt/varcol/column"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newVariant(t *testing.T, types ...varcol.DataType) *column.Variant {
	t.Helper()
	dt, err := varcol.VariantOf(types...)
	require.NoError(t, err)
	col, err := column.New(dt)
	require.NoError(t, err)
	return col.(*column.Variant)
}

func TestVariantAppend(t *testing.T) {
	col := newVariant(t, varcol.PrimitiveTypes.Int32, varcol.BinaryTypes.String)

	require.NoError(t, col.AppendValue(column.VariantValue{Discriminator: 1, Value: "a"}))
	col.AppendNull()
	require.NoError(t, col.AppendValue(column.VariantValue{Discriminator: 0, Value: int32(7)}))
	require.NoError(t, col.AppendValue(column.VariantValue{Discriminator: 1, Value: "b"}))
	require.NoError(t, col.AppendValue(nil))

	assert.Equal(t, 5, col.Len())
	assert.Equal(t, []column.Discriminator{1, column.NullDiscriminator, 0, 1, column.NullDiscriminator}, col.Discriminators())
	assert.Equal(t, 1, col.BranchLen(0))
	assert.Equal(t, 2, col.BranchLen(1))
	assert.Equal(t, 1, col.Offset(3))
	assert.Equal(t, column.VariantValue{Discriminator: 1, Value: "b"}, col.Value(3))
	assert.True(t, col.Value(4).(column.VariantValue).IsNull())
	assert.NoError(t, col.Validate())
}

func TestVariantAppendErrorsLeaveColumnUnchanged(t *testing.T) {
	col := newVariant(t, varcol.PrimitiveTypes.Int32, varcol.BinaryTypes.String)
	require.NoError(t, col.AppendValue(column.VariantValue{Discriminator: 0, Value: int32(1)}))

	err := col.AppendValue(column.VariantValue{Discriminator: 0, Value: "not an int"})
	assert.ErrorIs(t, err, varcol.ErrType)
	err = col.AppendValue(column.VariantValue{Discriminator: 9, Value: int32(1)})
	assert.ErrorIs(t, err, varcol.ErrInvalid)
	err = col.AppendValue(int32(1))
	assert.ErrorIs(t, err, varcol.ErrType)

	assert.Equal(t, 1, col.Len())
	assert.NoError(t, col.Validate())
}

func TestVariantCommitBranch(t *testing.T) {
	col := newVariant(t, varcol.PrimitiveTypes.Int64, varcol.BinaryTypes.String)

	// nothing was appended to the branch yet
	assert.ErrorIs(t, col.CommitBranch(0), varcol.ErrInvariantViolation)
	assert.ErrorIs(t, col.CommitBranch(2), varcol.ErrIndex)

	col.Branch(0).(*column.Fixed[int64]).Append(42)
	require.NoError(t, col.CommitBranch(0))
	assert.Equal(t, column.VariantValue{Discriminator: 0, Value: int64(42)}, col.Value(0))

	// two pending values but only one row committed
	col.Branch(1).(*column.String).AppendString("x")
	col.Branch(1).(*column.String).AppendString("y")
	assert.ErrorIs(t, col.CommitBranch(1), varcol.ErrInvariantViolation)
	assert.Equal(t, 1, col.Len())
}

func TestVariantAppendDiscriminators(t *testing.T) {
	col := newVariant(t, varcol.PrimitiveTypes.Int8, varcol.BinaryTypes.String)
	col.Branch(0).(*column.Fixed[int8]).AppendValues([]int8{1, 2})
	col.Branch(1).(*column.String).AppendString("s")

	err := col.AppendDiscriminators([]column.Discriminator{0, column.NullDiscriminator, 0})
	assert.ErrorIs(t, err, varcol.ErrInvariantViolation)
	assert.Zero(t, col.Len())

	err = col.AppendDiscriminators([]column.Discriminator{0, 7})
	assert.ErrorIs(t, err, varcol.ErrInvalid)
	assert.Zero(t, col.Len())

	require.NoError(t, col.AppendDiscriminators([]column.Discriminator{1, 0, column.NullDiscriminator, 0}))
	assert.Equal(t, []any{
		column.VariantValue{Discriminator: 1, Value: "s"},
		column.VariantValue{Discriminator: 0, Value: int8(1)},
		column.VariantValue{Discriminator: column.NullDiscriminator},
		column.VariantValue{Discriminator: 0, Value: int8(2)},
	}, column.Values(col))
}

func TestVariantTruncate(t *testing.T) {
	col := newVariant(t, varcol.PrimitiveTypes.Int32, varcol.BinaryTypes.String)
	for i, v := range []column.VariantValue{
		{Discriminator: 0, Value: int32(1)},
		{Discriminator: 1, Value: "a"},
		{Discriminator: column.NullDiscriminator},
		{Discriminator: 1, Value: "b"},
		{Discriminator: 0, Value: int32(2)},
	} {
		require.NoError(t, col.AppendValue(v), "row %d", i)
	}

	col.Truncate(3)
	assert.Equal(t, 3, col.Len())
	assert.Equal(t, 1, col.BranchLen(0))
	assert.Equal(t, 1, col.BranchLen(1))
	require.NoError(t, col.Validate())

	// values appended to a branch but never committed are dropped too
	col.Branch(0).(*column.Fixed[int32]).Append(99)
	col.Truncate(col.Len())
	assert.Equal(t, 1, col.BranchLen(0))
	require.NoError(t, col.AppendValue(column.VariantValue{Discriminator: 0, Value: int32(3)}))
	assert.Equal(t, column.VariantValue{Discriminator: 0, Value: int32(3)}, col.Value(3))
}

func TestVariantAppendRange(t *testing.T) {
	src := newVariant(t, varcol.PrimitiveTypes.Int32, varcol.BinaryTypes.String)
	vals := []any{
		column.VariantValue{Discriminator: 0, Value: int32(1)},
		column.VariantValue{Discriminator: 1, Value: "a"},
		column.VariantValue{Discriminator: column.NullDiscriminator},
		column.VariantValue{Discriminator: 1, Value: "b"},
		column.VariantValue{Discriminator: 0, Value: int32(2)},
		column.VariantValue{Discriminator: 1, Value: "c"},
	}
	for _, v := range vals {
		require.NoError(t, src.AppendValue(v))
	}

	starts, sizes := src.BranchRanges(1, 4)
	assert.Equal(t, []int{1, 0}, starts)
	assert.Equal(t, []int{1, 2}, sizes)

	dst := newVariant(t, varcol.PrimitiveTypes.Int32, varcol.BinaryTypes.String)
	require.NoError(t, dst.AppendRange(src, 1, 4))
	require.NoError(t, dst.AppendRange(src, 5, 1))
	assert.Equal(t, vals[1:], column.Values(dst))
	assert.NoError(t, dst.Validate())

	other := newVariant(t, varcol.PrimitiveTypes.Int32)
	assert.ErrorIs(t, other.AppendRange(src, 0, 1), varcol.ErrSchemaMismatch)
	assert.ErrorIs(t, dst.AppendRange(src, 4, 5), varcol.ErrIndex)
}

func TestNewVariantMismatch(t *testing.T) {
	dt, err := varcol.VariantOf(varcol.PrimitiveTypes.Int32, varcol.BinaryTypes.String)
	require.NoError(t, err)

	_, err = column.NewVariant(dt, []column.Column{column.NewString()})
	assert.ErrorIs(t, err, varcol.ErrSchemaMismatch)

	_, err = column.NewVariant(dt, []column.Column{column.NewString(), column.NewFixed[int32](varcol.PrimitiveTypes.Int32)})
	assert.ErrorIs(t, err, varcol.ErrSchemaMismatch)
}
