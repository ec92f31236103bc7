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
	"fmt"

	"github.com/colfmt/varcol"
)

// WriteString writes a string-like value: escaped in Escaped, single quoted
// in Quoted, double quoted in CSV and JSON, entity escaped in XML and
// verbatim in Raw and Whole.
func WriteString(w TextWriter, s []byte, syntax Syntax, fs *Settings) error {
	switch syntax {
	case Escaped:
		return WriteEscaped(w, s)
	case Quoted:
		return WriteQuoted(w, s)
	case CSV:
		return WriteCSVQuoted(w, s)
	case JSON:
		return WriteJSONString(w, s)
	case XML:
		return WriteXMLEscaped(w, s)
	case Raw, Whole:
		_, err := w.Write(s)
		return err
	}
	return fmt.Errorf("%w: writing %s values", varcol.ErrNotImplemented, syntax)
}

// DecodeString returns the content of a string-like token. Quoted and JSON
// tokens must be quoted; CSV tokens may be.
func DecodeString(token []byte, syntax Syntax, fs *Settings) ([]byte, bool) {
	switch syntax {
	case Escaped:
		return Unescape(token), true
	case Quoted:
		return Unquote(token)
	case CSV:
		return UnquoteCSV(token, fs)
	case JSON:
		return UnquoteJSON(token)
	case Raw, Whole:
		return token, true
	}
	return nil, false
}

// DecodeBare returns the literal of a number or boolean token. CSV tokens
// may be quoted and JSON tokens may be JSON strings.
func DecodeBare(token []byte, syntax Syntax, fs *Settings) ([]byte, bool) {
	switch syntax {
	case CSV:
		return UnquoteCSV(token, fs)
	case JSON:
		if len(token) > 0 && token[0] == '"' {
			return UnquoteJSON(token)
		}
	case XML:
		return nil, false
	}
	return token, true
}

// WriteComposite writes the Quoted form of an array, tuple or map in syntax.
// Escaped, Raw and Whole output it as is since the Quoted form contains no
// tabs or line breaks.
func WriteComposite(w TextWriter, quoted []byte, syntax Syntax, fs *Settings) error {
	switch syntax {
	case CSV:
		return WriteCSVQuoted(w, quoted)
	case XML:
		return WriteXMLEscaped(w, quoted)
	}
	_, err := w.Write(quoted)
	return err
}

// DecodeComposite returns the Quoted form held by a composite token.
func DecodeComposite(token []byte, syntax Syntax, fs *Settings) ([]byte, bool) {
	if syntax == CSV {
		return UnquoteCSV(token, fs)
	}
	return token, true
}

// SplitList splits a bracketed list such as "[1, 2, 3]" into its element
// tokens, read in syntax (Quoted or JSON). It reports false when token is
// not a well formed list.
func SplitList(token []byte, open, close byte, syntax Syntax) ([][]byte, bool) {
	inner, ok := trimBrackets(token, open, close)
	if !ok {
		return nil, false
	}
	var elems [][]byte
	err := scanList(inner, syntax, func(r *bytes.Reader) error {
		elem, err := readLiteral(r, syntax)
		if err != nil {
			return err
		}
		elems = append(elems, elem)
		return nil
	})
	return elems, err == nil
}

// SplitPairs splits a map literal such as "{'a':1, 'b':2}" into key and
// value tokens.
func SplitPairs(token []byte, syntax Syntax) (keys, values [][]byte, ok bool) {
	inner, ok := trimBrackets(token, '{', '}')
	if !ok {
		return nil, nil, false
	}
	err := scanList(inner, syntax, func(r *bytes.Reader) error {
		k, err := readLiteral(r, syntax)
		if err != nil {
			return err
		}
		if c, err := skipSpace(r); err != nil || c != ':' {
			return varcol.ErrSyntax
		}
		v, err := readLiteral(r, syntax)
		if err != nil {
			return err
		}
		keys, values = append(keys, k), append(values, v)
		return nil
	})
	return keys, values, err == nil
}

func trimBrackets(token []byte, open, close byte) ([]byte, bool) {
	token = bytes.TrimSpace(token)
	if len(token) < 2 || token[0] != open || token[len(token)-1] != close {
		return nil, false
	}
	return token[1 : len(token)-1], true
}

// scanList calls elem for every comma separated element of inner.
func scanList(inner []byte, syntax Syntax, elem func(*bytes.Reader) error) error {
	if len(bytes.TrimSpace(inner)) == 0 {
		return nil
	}
	r := bytes.NewReader(inner)
	for {
		if err := elem(r); err != nil {
			return err
		}
		c, err := skipSpace(r)
		if err != nil {
			// end of input after an element
			return nil
		}
		if c != ',' {
			return varcol.ErrSyntax
		}
	}
}
