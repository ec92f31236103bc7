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

package streams

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/colfmt/varcol/internal/json"
	"github.com/stoewer/go-strcase"
	"golang.org/x/xerrors"
)

const indexFile = "index.json"

type dirIndex struct {
	Columns []ColumnInfo `json:"columns"`
	Streams []dirEntry   `json:"streams"`
}

type dirEntry struct {
	Name string `json:"name"`
	File string `json:"file"`
}

// DirStore saves every substream of a Set to its own file in a directory,
// next to an index.json listing the columns and the stream files.
type DirStore struct {
	dir string
	cfg config
}

// OpenDir returns a store backed by dir, creating it if needed.
func OpenDir(dir string, opts ...Option) (*DirStore, error) {
	cfg, err := newConfig(opts)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, xerrors.Errorf("streams: %w", err)
	}
	return &DirStore{dir: dir, cfg: cfg}, nil
}

func (s *DirStore) Dir() string { return s.dir }

func (s *DirStore) Close() error { return nil }

func (s *DirStore) readIndex() (*dirIndex, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, indexFile))
	if err != nil {
		return nil, err
	}
	var idx dirIndex
	if err := json.Unmarshal(data, &idx); err != nil {
		return nil, xerrors.Errorf("streams: %s: %w", indexFile, err)
	}
	return &idx, nil
}

func (s *DirStore) Save(ctx context.Context, set *Set) error {
	old, err := s.readIndex()
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return err
	default:
		for _, e := range old.Streams {
			if err := os.Remove(filepath.Join(s.dir, e.File)); err != nil && !errors.Is(err, fs.ErrNotExist) {
				return xerrors.Errorf("streams: %w", err)
			}
		}
	}

	idx := dirIndex{Columns: set.Columns()}
	used := make(map[string]bool)
	for _, name := range set.Names() {
		if err := ctx.Err(); err != nil {
			return err
		}
		raw, _ := set.Bytes(name)
		frame, err := encodeFrame(s.cfg.compression, raw)
		if err != nil {
			return xerrors.Errorf("streams: %s: %w", name, err)
		}
		file := fileName(name, used)
		if err := os.WriteFile(filepath.Join(s.dir, file), frame, 0o644); err != nil {
			return xerrors.Errorf("streams: %w", err)
		}
		idx.Streams = append(idx.Streams, dirEntry{Name: name, File: file})
	}

	data, err := json.MarshalIndent(idx, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(s.dir, indexFile), data, 0o644)
}

func (s *DirStore) Load(ctx context.Context) (*Set, error) {
	idx, err := s.readIndex()
	if err != nil {
		return nil, xerrors.Errorf("streams: %w", err)
	}
	set := NewSet()
	for _, c := range idx.Columns {
		if err := set.addColumn(c); err != nil {
			return nil, err
		}
	}
	for _, e := range idx.Streams {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if e.File != filepath.Base(e.File) {
			return nil, xerrors.Errorf("streams: stream file %q outside of %s", e.File, s.dir)
		}
		frame, err := os.ReadFile(filepath.Join(s.dir, e.File))
		if err != nil {
			return nil, xerrors.Errorf("streams: %w", err)
		}
		raw, err := decodeFrame(frame)
		if err != nil {
			return nil, xerrors.Errorf("streams: %s: %w", e.Name, err)
		}
		set.Put(e.Name, raw)
	}
	return set, nil
}

// fileName derives a file name from the stream name, unique among used.
func fileName(stream string, used map[string]bool) string {
	base := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_', r == '.':
			return r
		}
		return '_'
	}, strcase.SnakeCase(stream))
	name := base
	for i := 2; used[name]; i++ {
		name = base + "_" + strconv.Itoa(i)
	}
	used[name] = true
	return name + ".bin"
}
