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
	"database/sql"

	"golang.org/x/xerrors"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS columns (
	pos  INTEGER PRIMARY KEY,
	name TEXT NOT NULL UNIQUE,
	type TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS substreams (
	name  TEXT PRIMARY KEY,
	frame BLOB NOT NULL
);`

// SQLiteStore saves a Set to the tables of a SQLite database, one row per
// substream.
type SQLiteStore struct {
	db  *sql.DB
	cfg config
}

// OpenSQLite opens or creates the database at path.
func OpenSQLite(ctx context.Context, path string, opts ...Option) (*SQLiteStore, error) {
	cfg, err := newConfig(opts)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, xerrors.Errorf("open sqlite %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		_ = db.Close()
		return nil, xerrors.Errorf("create sqlite schema: %w", err)
	}
	return &SQLiteStore{db: db, cfg: cfg}, nil
}

func (s *SQLiteStore) Close() error { return s.db.Close() }

func (s *SQLiteStore) Save(ctx context.Context, set *Set) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for _, stmt := range []string{"DELETE FROM columns", "DELETE FROM substreams"} {
		if _, err = tx.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	for i, c := range set.Columns() {
		if _, err = tx.ExecContext(ctx, "INSERT INTO columns (pos, name, type) VALUES (?, ?, ?)", i, c.Name, c.Type); err != nil {
			return err
		}
	}

	insert, err := tx.PrepareContext(ctx, "INSERT INTO substreams (name, frame) VALUES (?, ?)")
	if err != nil {
		return err
	}
	defer insert.Close()
	for _, name := range set.Names() {
		raw, _ := set.Bytes(name)
		var frame []byte
		if frame, err = encodeFrame(s.cfg.compression, raw); err != nil {
			return xerrors.Errorf("streams: %s: %w", name, err)
		}
		if _, err = insert.ExecContext(ctx, name, frame); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) Load(ctx context.Context) (*Set, error) {
	set := NewSet()
	rows, err := s.db.QueryContext(ctx, "SELECT name, type FROM columns ORDER BY pos")
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var c ColumnInfo
		if err := rows.Scan(&c.Name, &c.Type); err != nil {
			rows.Close()
			return nil, err
		}
		if err := set.addColumn(c); err != nil {
			rows.Close()
			return nil, err
		}
	}
	if err := closeRows(rows); err != nil {
		return nil, err
	}

	rows, err = s.db.QueryContext(ctx, "SELECT name, frame FROM substreams")
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var (
			name  string
			frame []byte
		)
		if err := rows.Scan(&name, &frame); err != nil {
			rows.Close()
			return nil, err
		}
		raw, err := decodeFrame(frame)
		if err != nil {
			rows.Close()
			return nil, xerrors.Errorf("streams: %s: %w", name, err)
		}
		set.Put(name, raw)
	}
	return set, closeRows(rows)
}

func closeRows(rows *sql.Rows) error {
	if err := rows.Err(); err != nil {
		rows.Close()
		return err
	}
	return rows.Close()
}
