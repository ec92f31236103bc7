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

// Package streams stores the substreams written by the bulk codecs of
// package serialization.
//
// A Set keeps the substreams of several columns in memory, keyed by their
// stable stream names, and hands out the GetStream callbacks the bulk
// settings expect. Stores persist a Set, compressing every substream with
// one of the supported codecs and guarding it with an xxh3 checksum.
package streams

import (
	"bytes"
	"io"
	"maps"
	"slices"
	"sync"

	"github.com/colfmt/varcol"
	"github.com/colfmt/varcol/serialization"
	"golang.org/x/xerrors"
)

// ColumnInfo names a column of a Set and its type.
type ColumnInfo struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// Set is a group of named in-memory substreams. It is safe for concurrent
// use; each substream buffer is owned by the single column that writes it.
type Set struct {
	mu      sync.Mutex
	bufs    map[string]*bytes.Buffer
	columns []ColumnInfo
}

func NewSet() *Set {
	return &Set{bufs: make(map[string]*bytes.Buffer)}
}

// AddColumn records that the set holds the column name of type dt.
func (s *Set) AddColumn(name string, dt varcol.DataType) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addColumn(ColumnInfo{Name: name, Type: dt.Name()})
}

func (s *Set) addColumn(info ColumnInfo) error {
	if info.Name == "" {
		return xerrors.Errorf("%w: empty column name", varcol.ErrInvalid)
	}
	for _, c := range s.columns {
		if c.Name == info.Name {
			return xerrors.Errorf("%w: duplicate column %q", varcol.ErrInvalid, info.Name)
		}
	}
	s.columns = append(s.columns, info)
	return nil
}

// Columns returns the columns of the set in the order they were added.
func (s *Set) Columns() []ColumnInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.columns)
}

// Column returns the type of the column name.
func (s *Set) Column(name string) (varcol.DataType, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.columns {
		if c.Name == name {
			return varcol.ParseType(c.Type)
		}
	}
	return nil, xerrors.Errorf("%w: no column %q", varcol.ErrInvalid, name)
}

// Names returns the sorted names of the substreams.
func (s *Set) Names() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Sorted(maps.Keys(s.bufs))
}

// Bytes returns the content of the substream name. The slice aliases the
// set's buffer and must not be modified.
func (s *Set) Bytes(name string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bufs[name]
	if !ok {
		return nil, false
	}
	return b.Bytes(), true
}

// Put replaces the content of the substream name.
func (s *Set) Put(name string, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bufs[name] = bytes.NewBuffer(data)
}

// Size returns the total number of bytes held by the set.
func (s *Set) Size() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, b := range s.bufs {
		n += int64(b.Len())
	}
	return n
}

func (s *Set) buffer(name string) *bytes.Buffer {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bufs[name]
	if !ok {
		b = new(bytes.Buffer)
		s.bufs[name] = b
	}
	return b
}

// Writer returns a GetStream callback writing the substreams of column.
func (s *Set) Writer(column string) func(serialization.SubstreamPath) io.Writer {
	return func(path serialization.SubstreamPath) io.Writer {
		return s.buffer(serialization.StreamName(column, path))
	}
}

// Reader returns a GetStream callback reading the substreams of column
// from their beginning. Every call starts an independent read session.
func (s *Set) Reader(column string) func(serialization.SubstreamPath) serialization.ByteReader {
	readers := make(map[string]*bytes.Reader)
	return func(path serialization.SubstreamPath) serialization.ByteReader {
		name := serialization.StreamName(column, path)
		if r, ok := readers[name]; ok {
			return r
		}
		data, ok := s.Bytes(name)
		if !ok {
			return nil
		}
		r := bytes.NewReader(data)
		readers[name] = r
		return r
	}
}
