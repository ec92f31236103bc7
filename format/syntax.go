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

// Package format holds what the text codecs share across types: the per-call
// Settings, the text syntaxes with their null literals, the rules for
// reading one raw token from a stream and the quoting and escaping helpers.
package format

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/colfmt/varcol"
)

// Syntax is a textual notation for values.
type Syntax int8

const (
	// Escaped is the tab separated notation: bare values, backslash escapes.
	Escaped Syntax = iota
	// Quoted is the notation of SQL literals: strings in single quotes.
	Quoted
	CSV
	JSON
	// Raw is Escaped without escaping.
	Raw
	// Whole reads the entire input as one value.
	Whole
	// XML is output only.
	XML
)

var syntaxNames = [...]string{
	Escaped: "escaped",
	Quoted:  "quoted",
	CSV:     "csv",
	JSON:    "json",
	Raw:     "raw",
	Whole:   "whole",
	XML:     "xml",
}

func (s Syntax) String() string {
	if s < 0 || int(s) >= len(syntaxNames) {
		return fmt.Sprintf("Syntax(%d)", int(s))
	}
	return syntaxNames[s]
}

// Syntaxes lists every syntax.
var Syntaxes = []Syntax{Escaped, Quoted, CSV, JSON, Raw, Whole, XML}

// ParseSyntax returns the syntax called name, ignoring case. "tsv" and
// "values" are accepted as aliases of Escaped and Quoted.
func ParseSyntax(name string) (Syntax, error) {
	switch n := strings.ToLower(name); n {
	case "tsv":
		return Escaped, nil
	case "values":
		return Quoted, nil
	default:
		for s, sn := range syntaxNames {
			if sn == n {
				return Syntax(s), nil
			}
		}
	}
	return 0, fmt.Errorf("%w: unknown syntax %q", varcol.ErrInvalid, name)
}

// CanRead reports whether values can be parsed in syntax s.
func (s Syntax) CanRead() bool { return s != XML }

// ElementSyntax is the syntax of the elements of composite values written in
// syntax s: JSON inside JSON and Quoted everywhere else.
func ElementSyntax(s Syntax) Syntax {
	if s == JSON {
		return JSON
	}
	return Quoted
}

// NullLiteral returns the token that denotes NULL in syntax s. The boolean
// is false when s has no null literal, which is the case for Raw and Whole
// unless a representation is configured.
func NullLiteral(s Syntax, fs *Settings) (string, bool) {
	switch s {
	case Escaped:
		return fs.TSV.NullRepresentation, fs.TSV.NullRepresentation != ""
	case CSV:
		return fs.CSV.NullRepresentation, fs.CSV.NullRepresentation != ""
	case Quoted:
		return "NULL", true
	case JSON:
		return "null", true
	case Raw:
		return fs.Raw.NullRepresentation, fs.Raw.NullRepresentation != ""
	case Whole:
		return fs.Whole.NullRepresentation, fs.Whole.NullRepresentation != ""
	case XML:
		return DefaultNullRepresentation, true
	}
	return "", false
}

// IsNull reports whether token is the null literal of syntax s. The Quoted
// literal is matched without regard to case; quoted CSV fields are never
// NULL.
func IsNull(token []byte, s Syntax, fs *Settings) bool {
	null, ok := NullLiteral(s, fs)
	if !ok {
		return false
	}
	if s == Quoted {
		return bytes.EqualFold(token, []byte(null))
	}
	return string(token) == null
}

// WriteNull writes the null literal of syntax s. Syntaxes without one write
// nothing, which reads back as an empty value.
func WriteNull(w io.StringWriter, s Syntax, fs *Settings) error {
	null, _ := NullLiteral(s, fs)
	_, err := w.WriteString(null)
	return err
}
