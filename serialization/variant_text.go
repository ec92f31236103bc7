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
	"io"

	"github.com/colfmt/varcol"
	"github.com/colfmt/varcol/column"
	"github.com/colfmt/varcol/format"
)

func orDefault(fs *format.Settings) *format.Settings {
	if fs == nil {
		return format.DefaultSettings()
	}
	return fs
}

// SerializeText writes the value of row with the serializer of its branch,
// or the null literal of syntax.
func (s *Variant) SerializeText(col column.Column, row int, w format.TextWriter, syntax format.Syntax, fs *format.Settings) error {
	c, err := s.column(col)
	if err != nil {
		return err
	}
	if row < 0 || row >= c.Len() {
		return fmt.Errorf("%w: row %d out of range [0, %d)", varcol.ErrIndex, row, c.Len())
	}
	fs = orDefault(fs)
	d := c.Discriminator(row)
	if d == column.NullDiscriminator {
		return format.WriteNull(w, syntax, fs)
	}
	return s.branches[d].SerializeText(c.Branch(int(d)), c.Offset(row), w, syntax, fs)
}

// TryDeserializeText appends the value of token. The null literal of syntax
// is checked first; then the branches are tried in DeserializeTextOrder and
// the first one parsing the whole token takes the row. It returns false and
// leaves col unchanged when no branch matches.
func (s *Variant) TryDeserializeText(col column.Column, token []byte, syntax format.Syntax, fs *format.Settings) bool {
	c, err := s.column(col)
	if err != nil || !syntax.CanRead() {
		return false
	}
	fs = orDefault(fs)
	if format.IsNull(token, syntax, fs) {
		c.AppendNull()
		return true
	}
	for _, i := range s.order {
		b := c.Branch(i)
		n := b.Len()
		if !s.branches[i].TryDeserializeText(b, token, syntax, fs) {
			continue
		}
		if c.CommitBranch(i) != nil {
			b.Truncate(n)
			return false
		}
		return true
	}
	return false
}

// DeserializeTextField appends the value of token like TryDeserializeText
// but fails with ErrNoMatchingVariant when no branch matches, unless the
// settings ask for a NULL instead.
func (s *Variant) DeserializeTextField(col column.Column, token []byte, syntax format.Syntax, fs *format.Settings) error {
	c, err := s.column(col)
	if err != nil {
		return err
	}
	if !syntax.CanRead() {
		return fmt.Errorf("%w: reading %s", varcol.ErrNotImplemented, syntax)
	}
	fs = orDefault(fs)
	if s.TryDeserializeText(c, token, syntax, fs) {
		return nil
	}
	if fs.Variant.NullOnNoMatch {
		c.AppendNull()
		return nil
	}
	return fmt.Errorf("%w: %q is not a value of %s", varcol.ErrNoMatchingVariant, token, s.dt)
}

// DeserializeText reads one field of syntax from r and appends its value.
func (s *Variant) DeserializeText(col column.Column, r io.ByteScanner, syntax format.Syntax, fs *format.Settings) error {
	token, err := s.readField(col, r, syntax, fs)
	if err != nil {
		return err
	}
	return s.DeserializeTextField(col, token, syntax, fs)
}

// TryDeserializeTextFrom reads one field of syntax from r and appends its
// value if a branch matches. Errors are reserved for read failures.
func (s *Variant) TryDeserializeTextFrom(col column.Column, r io.ByteScanner, syntax format.Syntax, fs *format.Settings) (bool, error) {
	token, err := s.readField(col, r, syntax, fs)
	if err != nil {
		return false, err
	}
	return s.TryDeserializeText(col, token, syntax, fs), nil
}

func (s *Variant) readField(col column.Column, r io.ByteScanner, syntax format.Syntax, fs *format.Settings) ([]byte, error) {
	if _, err := s.column(col); err != nil {
		return nil, err
	}
	if !syntax.CanRead() {
		return nil, fmt.Errorf("%w: reading %s", varcol.ErrNotImplemented, syntax)
	}
	return format.ReadField(r, syntax, orDefault(fs))
}
