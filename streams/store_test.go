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

package streams_test

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/colfmt/varcol/column"
	"github.com/colfmt/varcol/internal/json"
	"github.com/colfmt/varcol/streams"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type StoreSuite struct {
	suite.Suite

	open func(dir string, opts ...streams.Option) (streams.Store, error)
}

func (s *StoreSuite) sample() (*streams.Set, column.Column) {
	set := streams.NewSet()
	col := variantColumn(s.T(), 100)
	writeColumn(s.T(), set, "v", col)
	set.Put("extra", []byte{1, 2, 3})
	return set, col
}

func (s *StoreSuite) TestRoundTrip() {
	for _, c := range allCompressions {
		s.Run(c.String(), func() {
			store, err := s.open(s.T().TempDir(), streams.WithCompression(c))
			s.Require().NoError(err)
			defer store.Close()

			set, col := s.sample()
			s.Require().NoError(store.Save(context.Background(), set))
			got, err := store.Load(context.Background())
			s.Require().NoError(err)

			s.Equal(set.Names(), got.Names())
			s.Equal(set.Columns(), got.Columns())
			for _, name := range set.Names() {
				want, _ := set.Bytes(name)
				have, ok := got.Bytes(name)
				s.True(ok)
				s.Equal(want, have, name)
			}
			s.Equal(column.Values(col), column.Values(readColumn(s.T(), got, "v", 1000)))
		})
	}
}

func (s *StoreSuite) TestSaveReplaces() {
	store, err := s.open(s.T().TempDir())
	s.Require().NoError(err)
	defer store.Close()

	set, _ := s.sample()
	s.Require().NoError(store.Save(context.Background(), set))

	small := streams.NewSet()
	small.Put("only", []byte("x"))
	s.Require().NoError(store.Save(context.Background(), small))

	got, err := store.Load(context.Background())
	s.Require().NoError(err)
	s.Equal([]string{"only"}, got.Names())
	s.Empty(got.Columns())
}

func (s *StoreSuite) TestCanceled() {
	store, err := s.open(s.T().TempDir())
	s.Require().NoError(err)
	defer store.Close()

	set, _ := s.sample()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s.ErrorIs(store.Save(ctx, set), context.Canceled)
}

func TestDirStore(t *testing.T) {
	suite.Run(t, &StoreSuite{open: func(dir string, opts ...streams.Option) (streams.Store, error) {
		return streams.OpenDir(dir, opts...)
	}})
}

func TestSQLiteStore(t *testing.T) {
	suite.Run(t, &StoreSuite{open: func(dir string, opts ...streams.Option) (streams.Store, error) {
		return streams.OpenSQLite(context.Background(), filepath.Join(dir, "streams.db"), opts...)
	}})
}

func TestDirStoreChecksum(t *testing.T) {
	dir := t.TempDir()
	store, err := streams.OpenDir(dir, streams.WithCompression(streams.Uncompressed))
	require.NoError(t, err)
	set := streams.NewSet()
	set.Put("v.Int32", []byte{1, 0, 0, 0})
	require.NoError(t, store.Save(context.Background(), set))

	index, err := os.ReadFile(filepath.Join(dir, "index.json"))
	require.NoError(t, err)
	var idx struct {
		Streams []struct {
			Name string `json:"name"`
			File string `json:"file"`
		} `json:"streams"`
	}
	require.NoError(t, json.Unmarshal(index, &idx))
	require.Len(t, idx.Streams, 1)
	assert.Equal(t, "v.Int32", idx.Streams[0].Name)

	path := filepath.Join(dir, idx.Streams[0].File)
	frame, err := os.ReadFile(path)
	require.NoError(t, err)
	frame[len(frame)-1] ^= 1
	require.NoError(t, os.WriteFile(path, frame, 0o644))

	_, err = store.Load(context.Background())
	assert.ErrorIs(t, err, streams.ErrChecksum)
}

func TestSQLiteStoreChecksum(t *testing.T) {
	path := filepath.Join(t.TempDir(), "streams.db")
	store, err := streams.OpenSQLite(context.Background(), path, streams.WithCompression(streams.Uncompressed))
	require.NoError(t, err)
	defer store.Close()
	set := streams.NewSet()
	set.Put("v.String", []byte{2, 'h', 'i'})
	require.NoError(t, store.Save(context.Background(), set))

	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer db.Close()
	var frame []byte
	require.NoError(t, db.QueryRow("SELECT frame FROM substreams WHERE name = ?", "v.String").Scan(&frame))
	frame[len(frame)-1] = 'o'
	_, err = db.Exec("UPDATE substreams SET frame = ? WHERE name = ?", frame, "v.String")
	require.NoError(t, err)

	_, err = store.Load(context.Background())
	assert.ErrorIs(t, err, streams.ErrChecksum)
}

func TestFileNames(t *testing.T) {
	dir := t.TempDir()
	store, err := streams.OpenDir(dir)
	require.NoError(t, err)
	set := streams.NewSet()
	set.Put("v.Array(String).size0", nil)
	set.Put("v.variant_discriminators", nil)
	require.NoError(t, store.Save(context.Background(), set))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.Contains(t, names, "index.json")
	assert.Len(t, names, 3)
	for _, n := range names {
		assert.NotContains(t, n, "(")
	}
}
