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
)

func (s *Variant) SerializeBinary(col column.Column, row int, w io.Writer) error {
	c, err := s.column(col)
	if err != nil {
		return err
	}
	if row < 0 || row >= c.Len() {
		return fmt.Errorf("%w: row %d out of range [0, %d)", varcol.ErrIndex, row, c.Len())
	}
	d := c.Discriminator(row)
	if _, err := w.Write([]byte{d}); err != nil {
		return err
	}
	if d == column.NullDiscriminator {
		return nil
	}
	return s.branches[d].SerializeBinary(c.Branch(int(d)), c.Offset(row), w)
}

func (s *Variant) DeserializeBinary(col column.Column, r ByteReader) error {
	c, err := s.column(col)
	if err != nil {
		return err
	}
	d, err := r.ReadByte()
	if err != nil {
		return truncated(err)
	}
	if d == column.NullDiscriminator {
		c.AppendNull()
		return nil
	}
	if int(d) >= len(s.branches) {
		return fmt.Errorf("%w: discriminator %d for %s", varcol.ErrInvalid, d, s.dt)
	}
	b := c.Branch(int(d))
	n := b.Len()
	if err := s.branches[d].DeserializeBinary(b, r); err != nil {
		return err
	}
	if err := c.CommitBranch(int(d)); err != nil {
		b.Truncate(n)
		return err
	}
	return nil
}
