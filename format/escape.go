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
	"bytes"
	"encoding/xml"
	"io"

	"github.com/colfmt/varcol/internal/json"
)

// TextWriter is the output of the text codecs. *bytes.Buffer and
// *bufio.Writer implement it.
type TextWriter interface {
	io.Writer
	io.ByteWriter
	io.StringWriter
}

var escapes = [256]byte{
	'\b': 'b',
	'\f': 'f',
	'\n': 'n',
	'\r': 'r',
	'\t': 't',
	0:    '0',
	'\\': '\\',
	'\'': '\'',
}

var unescapes = [256]byte{
	'b': '\b',
	'f': '\f',
	'n': '\n',
	'r': '\r',
	't': '\t',
	'0': 0,
	'a': '\a',
	'v': '\v',
	'e': 0x1b,
}

// WriteEscaped writes s with control characters, backslashes and single
// quotes escaped by a backslash.
func WriteEscaped(w TextWriter, s []byte) error {
	start := 0
	for i, c := range s {
		e := escapes[c]
		if e == 0 {
			continue
		}
		if _, err := w.Write(s[start:i]); err != nil {
			return err
		}
		if err := w.WriteByte('\\'); err != nil {
			return err
		}
		if err := w.WriteByte(e); err != nil {
			return err
		}
		start = i + 1
	}
	_, err := w.Write(s[start:])
	return err
}

// Unescape resolves the backslash escapes of s. An escaped character without
// a special meaning stands for itself and a trailing backslash is kept.
func Unescape(s []byte) []byte {
	if bytes.IndexByte(s, '\\') < 0 {
		return s
	}
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' || i+1 == len(s) {
			out = append(out, c)
			continue
		}
		i++
		if u := unescapes[s[i]]; u != 0 || s[i] == '0' {
			out = append(out, u)
		} else {
			out = append(out, s[i])
		}
	}
	return out
}

// WriteQuoted writes s as a single quoted literal.
func WriteQuoted(w TextWriter, s []byte) error {
	if err := w.WriteByte('\''); err != nil {
		return err
	}
	if err := WriteEscaped(w, s); err != nil {
		return err
	}
	return w.WriteByte('\'')
}

// Unquote returns the content of a single quoted literal. A quote inside
// the literal must be escaped by a backslash or doubled.
func Unquote(token []byte) ([]byte, bool) {
	if len(token) < 2 || token[0] != '\'' || token[len(token)-1] != '\'' {
		return nil, false
	}
	inner := token[1 : len(token)-1]
	out := make([]byte, 0, len(inner))
	for i := 0; i < len(inner); i++ {
		switch c := inner[i]; c {
		case '\\':
			if i+1 == len(inner) {
				// the closing quote was escaped
				return nil, false
			}
			i++
			if u := unescapes[inner[i]]; u != 0 || inner[i] == '0' {
				out = append(out, u)
			} else {
				out = append(out, inner[i])
			}
		case '\'':
			if i+1 == len(inner) || inner[i+1] != '\'' {
				return nil, false
			}
			out = append(out, '\'')
			i++
		default:
			out = append(out, c)
		}
	}
	return out, true
}

// WriteCSVQuoted writes s in double quotes, doubling the quotes inside.
func WriteCSVQuoted(w TextWriter, s []byte) error {
	if err := w.WriteByte('"'); err != nil {
		return err
	}
	start := 0
	for i, c := range s {
		if c != '"' {
			continue
		}
		if _, err := w.Write(s[start : i+1]); err != nil {
			return err
		}
		if err := w.WriteByte('"'); err != nil {
			return err
		}
		start = i + 1
	}
	if _, err := w.Write(s[start:]); err != nil {
		return err
	}
	return w.WriteByte('"')
}

// UnquoteCSV returns the content of a CSV field. Fields in double quotes, or
// single quotes when allowed, are unquoted; other fields are returned as is.
func UnquoteCSV(token []byte, fs *Settings) ([]byte, bool) {
	if len(token) == 0 {
		return token, true
	}
	q := token[0]
	if q != '"' && (q != '\'' || !fs.CSV.AllowSingleQuotes) {
		return token, true
	}
	if len(token) < 2 || token[len(token)-1] != q {
		return nil, false
	}
	inner := token[1 : len(token)-1]
	out := make([]byte, 0, len(inner))
	for i := 0; i < len(inner); i++ {
		if inner[i] == q {
			if i+1 == len(inner) || inner[i+1] != q {
				return nil, false
			}
			i++
		}
		out = append(out, inner[i])
	}
	return out, true
}

// WriteJSONString writes s as a JSON string without escaping HTML
// characters.
func WriteJSONString(w TextWriter, s []byte) error {
	b, err := json.MarshalNoEscape(string(s))
	if err != nil {
		return err
	}
	_, err = w.Write(b)
	return err
}

// UnquoteJSON returns the content of a JSON string token.
func UnquoteJSON(token []byte) ([]byte, bool) {
	if len(token) < 2 || token[0] != '"' || token[len(token)-1] != '"' {
		return nil, false
	}
	if bytes.IndexByte(token, '\\') < 0 {
		return token[1 : len(token)-1], true
	}
	var s string
	if err := json.Unmarshal(token, &s); err != nil {
		return nil, false
	}
	return []byte(s), true
}

// WriteXMLEscaped writes s with the XML special characters replaced by
// entities.
func WriteXMLEscaped(w TextWriter, s []byte) error {
	return xml.EscapeText(w, s)
}
