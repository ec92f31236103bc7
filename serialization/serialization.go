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
	"errors"
	"fmt"
	"io"

	"github.com/colfmt/varcol"
	"github.com/colfmt/varcol/column"
	"github.com/colfmt/varcol/format"
	"github.com/colfmt/varcol/internal/utils"
)

// BulkState is the opaque state of a chunked bulk session. It is created by
// a prefix call and passed to every later call of the same session.
type BulkState any

// ByteReader is the input of the binary codecs.
type ByteReader interface {
	io.Reader
	io.ByteReader
}

// DiscriminatorsMode selects how Variant discriminators are written.
type DiscriminatorsMode uint64

const (
	// DiscriminatorsBasic writes one byte per row.
	DiscriminatorsBasic DiscriminatorsMode = iota
	// DiscriminatorsCompact writes a single discriminator for chunks whose
	// rows all belong to the same variant.
	DiscriminatorsCompact
)

func (m DiscriminatorsMode) String() string {
	switch m {
	case DiscriminatorsBasic:
		return "basic"
	case DiscriminatorsCompact:
		return "compact"
	}
	return fmt.Sprintf("DiscriminatorsMode(%d)", uint64(m))
}

// SerializeBulkSettings are the settings of a bulk write session.
type SerializeBulkSettings struct {
	// Path is the path of the column being written. Codecs extend it while
	// descending into nested types and restore it before returning.
	Path SubstreamPath
	// GetStream returns the writer of a substream, or nil to skip it. It must
	// return the same writer for the same path during a session.
	GetStream func(path SubstreamPath) io.Writer
	// DiscriminatorsMode applies to every Variant in the column.
	DiscriminatorsMode DiscriminatorsMode
}

// DeserializeBulkSettings are the settings of a bulk read session.
type DeserializeBulkSettings struct {
	Path SubstreamPath
	// GetStream returns the reader of a substream, or nil if it is missing.
	GetStream func(path SubstreamPath) ByteReader
}

func (s *SerializeBulkSettings) stream() io.Writer {
	if s.GetStream == nil {
		return nil
	}
	return s.GetStream(s.Path)
}

func (s *DeserializeBulkSettings) stream() ByteReader {
	if s.GetStream == nil {
		return nil
	}
	return s.GetStream(s.Path)
}

// Serialization is implemented by the codec of every type.
type Serialization interface {
	DataType() varcol.DataType
	// EnumerateStreams calls cb with the path of every substream the type
	// writes, path being the path of the column itself.
	EnumerateStreams(path SubstreamPath, cb StreamCallback)
}

// BulkDeserializer decodes columns from substreams in chunks.
type BulkDeserializer interface {
	Serialization
	DeserializeBulkStatePrefix(settings *DeserializeBulkSettings, cache StatesCache) (BulkState, error)
	// DeserializeBulk appends up to limit rows to col. Fewer rows are
	// appended only when the input ends cleanly between two rows. On error
	// col is left as it was.
	DeserializeBulk(col column.Column, limit int, settings *DeserializeBulkSettings, state BulkState, cache SubstreamsCache) error
}

// BulkSerializer encodes columns to substreams in chunks and decodes them
// back.
type BulkSerializer interface {
	BulkDeserializer
	SerializeBulkStatePrefix(col column.Column, settings *SerializeBulkSettings) (BulkState, error)
	SerializeBulkStateSuffix(settings *SerializeBulkSettings, state BulkState) error
	// SerializeBulk writes rows [offset, offset+limit). A zero limit, or one
	// running past the end of col, writes every row after offset.
	SerializeBulk(col column.Column, offset, limit int, settings *SerializeBulkSettings, state BulkState) error
}

// RowSerializer encodes a single row, with everything needed to decode it
// inline.
type RowSerializer interface {
	Serialization
	SerializeBinary(col column.Column, row int, w io.Writer) error
	// DeserializeBinary appends one row read from r. On error col is left as
	// it was.
	DeserializeBinary(col column.Column, r ByteReader) error
}

// TextSerializer writes values as text.
type TextSerializer interface {
	Serialization
	SerializeText(col column.Column, row int, w format.TextWriter, syntax format.Syntax, fs *format.Settings) error
}

// TextParser parses values from text.
type TextParser interface {
	Serialization
	// TryDeserializeText appends the value of token if the whole token is a
	// valid value in syntax. It never modifies col when it returns false.
	TryDeserializeText(col column.Column, token []byte, syntax format.Syntax, fs *format.Settings) bool
}

// Codec is a type supporting every encoding.
type Codec interface {
	BulkSerializer
	RowSerializer
	TextSerializer
	TextParser
}

// truncated converts the errors of a read that ended early into
// ErrTruncatedStream.
func truncated(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("%w: %w", varcol.ErrTruncatedStream, err)
	}
	return err
}

func columnError(s Serialization, col column.Column) error {
	if col == nil {
		return fmt.Errorf("%w: nil column for %s", varcol.ErrSchemaMismatch, s.DataType())
	}
	return fmt.Errorf("%w: %s column given to the %s codec",
		varcol.ErrSchemaMismatch, col.DataType(), s.DataType())
}

func stateError(want string, got BulkState) error {
	return fmt.Errorf("%w: expected %s bulk state, got %T", varcol.ErrInvalid, want, got)
}

// rowRange returns the number of rows a bulk write of col starting at offset
// covers.
func rowRange(col column.Column, offset, limit int) (int, error) {
	n, ok := utils.ClampRange(offset, limit, col.Len())
	if !ok {
		return 0, fmt.Errorf("%w: offset %d out of range for column of length %d",
			varcol.ErrIndex, offset, col.Len())
	}
	return n, nil
}
