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

package pipeline_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/colfmt/varcol"
	"github.com/colfmt/varcol/column"
	"github.com/colfmt/varcol/pipeline"
	"github.com/colfmt/varcol/serialization"
	"github.com/colfmt/varcol/streams"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func build(t *testing.T, typ string, n int, value func(i int) any) column.Column {
	t.Helper()
	col, err := column.New(varcol.MustParseType(typ))
	require.NoError(t, err)
	for i := 0; i < n; i++ {
		require.NoError(t, col.AppendValue(value(i)))
	}
	return col
}

func sampleColumns(t *testing.T, n int) []pipeline.NamedColumn {
	return []pipeline.NamedColumn{
		{Name: "v", Column: build(t, "Variant(Int32, String, Array(Int64))", n, func(i int) any {
			switch i % 4 {
			case 0:
				return column.VariantValue{Discriminator: 0, Value: int32(i)}
			case 1:
				return column.VariantValue{Discriminator: 1, Value: fmt.Sprint("row", i)}
			case 2:
				return column.VariantValue{Discriminator: 2, Value: []any{int64(i), int64(-i)}}
			}
			return column.VariantValue{Discriminator: column.NullDiscriminator}
		})},
		{Name: "s", Column: build(t, "String", n, func(i int) any { return fmt.Sprint(i) })},
		{Name: "a", Column: build(t, "Array(Nullable(Float64))", n, func(i int) any {
			if i%3 == 0 {
				return []any{}
			}
			return []any{float64(i) / 2, nil}
		})},
		{Name: "n", Column: build(t, "Nothing", n, func(int) any { return nil })},
	}
}

func assertColumn(t *testing.T, want, got column.Column) {
	t.Helper()
	require.True(t, varcol.TypeEqual(want.DataType(), got.DataType()), "%s != %s", want.DataType(), got.DataType())
	require.Equal(t, want.Len(), got.Len())
	if diff := cmp.Diff(column.Values(want), column.Values(got)); diff != "" {
		t.Errorf("values mismatch (-want +got):\n%s", diff)
	}
}

func TestRoundTrip(t *testing.T) {
	for _, mode := range []serialization.DiscriminatorsMode{serialization.DiscriminatorsBasic, serialization.DiscriminatorsCompact} {
		for _, chunk := range []int{1, 7, 100, 1000} {
			t.Run(fmt.Sprintf("%s/%d", mode, chunk), func(t *testing.T) {
				cols := sampleColumns(t, 100)
				set := streams.NewSet()
				opts := pipeline.Options{ChunkRows: chunk, Concurrency: 2, DiscriminatorsMode: mode}
				require.NoError(t, pipeline.Encode(context.Background(), set, cols, opts))

				specs := make([]pipeline.ReadSpec, len(cols))
				for i, nc := range cols {
					specs[i] = pipeline.ReadSpec{Column: nc.Name}
				}
				got, err := pipeline.Decode(context.Background(), set, specs, opts)
				require.NoError(t, err)
				require.Len(t, got, len(cols))
				for i, nc := range cols {
					assertColumn(t, nc.Column, got[i])
				}
			})
		}
	}
}

func TestDecodeVariantElements(t *testing.T) {
	cols := sampleColumns(t, 50)
	set := streams.NewSet()
	opts := pipeline.Options{ChunkRows: 8}
	require.NoError(t, pipeline.Encode(context.Background(), set, cols[:1], opts))

	for _, specs := range [][]string{
		{"v:String", "v", "v:Array(Int64)"},
		{"v", "v:Int32"},
		{"v:String"},
	} {
		t.Run(fmt.Sprint(specs), func(t *testing.T) {
			parsed := make([]pipeline.ReadSpec, len(specs))
			for i, s := range specs {
				parsed[i] = pipeline.ParseReadSpec(s)
			}
			got, err := pipeline.Decode(context.Background(), set, parsed, opts)
			require.NoError(t, err)

			full := cols[0].Column
			for i, spec := range parsed {
				if spec.Variant == "" {
					assertColumn(t, full, got[i])
					continue
				}
				vt := full.DataType().(*varcol.VariantType)
				d, ok := vt.Discriminator(varcol.MustParseType(spec.Variant))
				require.True(t, ok)
				require.Equal(t, full.Len(), got[i].Len())
				for row := 0; row < full.Len(); row++ {
					v := full.Value(row).(column.VariantValue)
					if int(v.Discriminator) == d {
						assert.Equal(t, v.Value, got[i].Value(row))
					} else {
						assert.Nil(t, got[i].Value(row))
					}
				}
			}
		})
	}
}

func TestParseReadSpec(t *testing.T) {
	assert.Equal(t, pipeline.ReadSpec{Column: "v"}, pipeline.ParseReadSpec("v"))
	assert.Equal(t, pipeline.ReadSpec{Column: "v", Variant: "Array(String)"}, pipeline.ParseReadSpec("v: Array(String)"))
	assert.Equal(t, "v:Int32", pipeline.ReadSpec{Column: "v", Variant: "Int32"}.String())
}

func TestDecodeErrors(t *testing.T) {
	set := streams.NewSet()
	require.NoError(t, pipeline.Encode(context.Background(), set, sampleColumns(t, 3), pipeline.Options{}))

	tests := []struct {
		specs []string
		want  error
	}{
		{[]string{"missing"}, varcol.ErrInvalid},
		{[]string{"s:Int32"}, varcol.ErrInvalid},
		{[]string{"v:Int64"}, varcol.ErrInvalid},
		{[]string{"v:Int("}, varcol.ErrSyntax},
		{[]string{"v", "s", "v"}, varcol.ErrInvalid},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.specs), func(t *testing.T) {
			specs := make([]pipeline.ReadSpec, len(tt.specs))
			for i, s := range tt.specs {
				specs[i] = pipeline.ParseReadSpec(s)
			}
			_, err := pipeline.Decode(context.Background(), set, specs, pipeline.Options{})
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestEncodeDuplicateColumn(t *testing.T) {
	cols := sampleColumns(t, 3)
	set := streams.NewSet()
	err := pipeline.Encode(context.Background(), set, append(cols, cols[0]), pipeline.Options{})
	assert.ErrorIs(t, err, varcol.ErrInvalid)
}

func TestEncodeCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := pipeline.Encode(ctx, streams.NewSet(), sampleColumns(t, 10), pipeline.Options{ChunkRows: 2})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestEmptyColumns(t *testing.T) {
	cols := sampleColumns(t, 0)
	set := streams.NewSet()
	require.NoError(t, pipeline.Encode(context.Background(), set, cols, pipeline.Options{}))
	got, err := pipeline.Decode(context.Background(), set, []pipeline.ReadSpec{{Column: "v"}, {Column: "a"}}, pipeline.Options{})
	require.NoError(t, err)
	assert.Zero(t, got[0].Len())
	assert.Zero(t, got[1].Len())
}
