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

package main

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/colfmt/varcol"
	"github.com/colfmt/varcol/column"
	"github.com/colfmt/varcol/format"
	"github.com/colfmt/varcol/serialization"
	"github.com/pterm/pterm"
	"github.com/tidwall/sjson"
)

// Dumper prints the rows of decoded columns side by side.
type Dumper struct {
	names   []string
	cols    []column.Column
	text    []serialization.TextSerializer
	fs      *format.Settings
	scratch bytes.Buffer
}

func newDumper(names []string, cols []column.Column, fs *format.Settings) (*Dumper, error) {
	dump := &Dumper{names: names, cols: cols, fs: fs, text: make([]serialization.TextSerializer, len(cols))}
	for i, c := range cols {
		s, err := serialization.For(c.DataType())
		if err != nil {
			return nil, err
		}
		ts, ok := s.(serialization.TextSerializer)
		if !ok {
			return nil, fmt.Errorf("%w: %s has no text format", varcol.ErrUnsupportedType, c.DataType())
		}
		dump.text[i] = ts
	}
	return dump, nil
}

func (dump *Dumper) numRows() int {
	if len(dump.cols) == 0 {
		return 0
	}
	return dump.cols[0].Len()
}

func (dump *Dumper) format(i, row int, syntax format.Syntax) ([]byte, error) {
	dump.scratch.Reset()
	if err := dump.text[i].SerializeText(dump.cols[i], row, &dump.scratch, syntax, dump.fs); err != nil {
		return nil, err
	}
	return dump.scratch.Bytes(), nil
}

func (dump *Dumper) writeTable(w io.Writer, rows int, syntax format.Syntax) error {
	data := pterm.TableData{append([]string{""}, dump.names...)}
	for row := 0; row < rows; row++ {
		line := make([]string, len(dump.cols)+1)
		line[0] = fmt.Sprintf("row-%d", row)
		for i := range dump.cols {
			v, err := dump.format(i, row, syntax)
			if err != nil {
				return err
			}
			line[i+1] = string(v)
		}
		data = append(data, line)
	}
	return renderTable(w, data)
}

// writeJSON prints one JSON object per row keyed by column name.
func (dump *Dumper) writeJSON(w io.Writer, rows int) error {
	paths := make([]string, len(dump.names))
	for i, n := range dump.names {
		paths[i] = jsonPath(n)
	}
	for row := 0; row < rows; row++ {
		obj := []byte("{}")
		for i := range dump.cols {
			v, err := dump.format(i, row, format.JSON)
			if err != nil {
				return err
			}
			if obj, err = sjson.SetRawBytes(obj, paths[i], v); err != nil {
				return err
			}
		}
		obj = append(obj, '\n')
		if _, err := w.Write(obj); err != nil {
			return err
		}
	}
	return nil
}

// jsonPath escapes every character of name that has a meaning in sjson
// paths.
func jsonPath(name string) string {
	var sb strings.Builder
	for _, r := range name {
		isWord := r == '_' || r >= '0' && r <= '9' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z'
		if !isWord && r < 0x80 {
			sb.WriteByte('\\')
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

func renderTable(w io.Writer, data pterm.TableData) error {
	return pterm.DefaultTable.WithRightAlignment(true).
		WithHasHeader(true).WithWriter(w).WithData(data).Render()
}
