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

package format

import (
	"errors"
	"fmt"
	"io"

	"github.com/colfmt/varcol"
)

// ReadField reads the raw token of one value in syntax s from r, without
// interpreting it. The byte terminating the token (a delimiter or a line
// break) is left unread. io.EOF is returned only when r has no input left.
//
// Tokens keep their quoting and escaping: decoding them is up to the
// codec of the value's type.
func ReadField(r io.ByteScanner, s Syntax, fs *Settings) ([]byte, error) {
	switch s {
	case Escaped:
		return readUntil(r, true, '\t', '\n')
	case Raw:
		return readUntil(r, false, '\t', '\n')
	case CSV:
		return readCSVField(r, fs)
	case Quoted, JSON:
		return readLiteral(r, s)
	case Whole:
		return readAll(r)
	}
	return nil, fmt.Errorf("%w: reading %s values", varcol.ErrNotImplemented, s)
}

func readUntil(r io.ByteScanner, escapes bool, stops ...byte) ([]byte, error) {
	var out []byte
	for {
		c, err := r.ReadByte()
		if errors.Is(err, io.EOF) {
			if out == nil {
				return nil, io.EOF
			}
			return out, nil
		} else if err != nil {
			return nil, err
		}
		for _, s := range stops {
			if c == s {
				if out == nil {
					out = []byte{}
				}
				return out, r.UnreadByte()
			}
		}
		out = append(out, c)
		if escapes && c == '\\' {
			c, err := r.ReadByte()
			if errors.Is(err, io.EOF) {
				return out, nil
			} else if err != nil {
				return nil, err
			}
			out = append(out, c)
		}
	}
}

func readAll(r io.ByteScanner) ([]byte, error) {
	out := []byte{}
	for {
		c, err := r.ReadByte()
		if errors.Is(err, io.EOF) {
			return out, nil
		} else if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
}

func readCSVField(r io.ByteScanner, fs *Settings) ([]byte, error) {
	c, err := r.ReadByte()
	if err != nil {
		return nil, err
	}
	if c != '"' && (c != '\'' || !fs.CSV.AllowSingleQuotes) {
		if err := r.UnreadByte(); err != nil {
			return nil, err
		}
		out, err := readUntil(r, false, fs.CSV.Delimiter, '\n', '\r')
		if errors.Is(err, io.EOF) {
			return []byte{}, nil
		}
		return out, err
	}

	q, out := c, []byte{c}
	for {
		c, err := r.ReadByte()
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: unterminated quoted CSV field", varcol.ErrSyntax)
		} else if err != nil {
			return nil, err
		}
		out = append(out, c)
		if c != q {
			continue
		}
		next, err := r.ReadByte()
		if errors.Is(err, io.EOF) {
			return out, nil
		} else if err != nil {
			return nil, err
		}
		if next != q {
			return out, r.UnreadByte()
		}
		out = append(out, next)
	}
}

// readLiteral reads one Quoted or JSON literal: a string, a bracketed group
// or a bare token. Leading whitespace is skipped.
func readLiteral(r io.ByteScanner, s Syntax) ([]byte, error) {
	c, err := skipSpace(r)
	if err != nil {
		return nil, err
	}

	quote := byte('\'')
	if s == JSON {
		quote = '"'
	}
	switch {
	case c == quote:
		return readString(r, []byte{c}, quote)
	case c == '[' || c == '{' || (c == '(' && s == Quoted):
		return readGroup(r, c, quote)
	case isLiteralEnd(c):
		return nil, fmt.Errorf("%w: unexpected %q", varcol.ErrSyntax, c)
	}

	out := []byte{c}
	for {
		c, err := r.ReadByte()
		if errors.Is(err, io.EOF) {
			return out, nil
		} else if err != nil {
			return nil, err
		}
		if isLiteralEnd(c) {
			return out, r.UnreadByte()
		}
		out = append(out, c)
	}
}

func isLiteralEnd(c byte) bool {
	switch c {
	case ',', ']', ')', '}', ':', ' ', '\t', '\n', '\r':
		return true
	}
	return false
}

func skipSpace(r io.ByteScanner) (byte, error) {
	for {
		c, err := r.ReadByte()
		if err != nil {
			return 0, err
		}
		switch c {
		case ' ', '\t', '\n', '\r':
			continue
		}
		return c, nil
	}
}

// readString appends the rest of a string literal opened by quote to out.
func readString(r io.ByteScanner, out []byte, quote byte) ([]byte, error) {
	for {
		c, err := r.ReadByte()
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: unterminated string literal", varcol.ErrSyntax)
		} else if err != nil {
			return nil, err
		}
		out = append(out, c)
		switch c {
		case '\\':
			c, err := r.ReadByte()
			if err != nil {
				return nil, fmt.Errorf("%w: unterminated string literal", varcol.ErrSyntax)
			}
			out = append(out, c)
		case quote:
			return out, nil
		}
	}
}

// readGroup reads a bracketed group up to its matching closing bracket,
// skipping over string literals.
func readGroup(r io.ByteScanner, open, quote byte) ([]byte, error) {
	out := []byte{open}
	stack := []byte{closing(open)}
	for len(stack) > 0 {
		c, err := r.ReadByte()
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: missing %q", varcol.ErrSyntax, stack[len(stack)-1])
		} else if err != nil {
			return nil, err
		}
		switch {
		case c == quote:
			if out, err = readString(r, append(out, c), quote); err != nil {
				return nil, err
			}
			continue
		case c == '[' || c == '{' || c == '(':
			stack = append(stack, closing(c))
		case c == ']' || c == '}' || c == ')':
			if c != stack[len(stack)-1] {
				return nil, fmt.Errorf("%w: unexpected %q", varcol.ErrSyntax, c)
			}
			stack = stack[:len(stack)-1]
		}
		out = append(out, c)
	}
	return out, nil
}

func closing(open byte) byte {
	switch open {
	case '[':
		return ']'
	case '{':
		return '}'
	}
	return ')'
}
