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

// Package npy writes a single column as a NumPy .npy array.
//
// Numbers map to their little endian NumPy dtypes, String and FixedString
// to null padded byte strings, and arrays of equal length to additional
// dimensions of the output array.
package npy

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/colfmt/varcol"
	"github.com/colfmt/varcol/column"
)

const magic = "\x93NUMPY"

// dtype is a NumPy array-protocol type string such as "<i4" or "|S12".
type dtype struct {
	order byte
	kind  byte
	size  int
}

func (d dtype) String() string {
	return string([]byte{d.order, d.kind}) + strconv.Itoa(d.size)
}

func dtypeOf(dt varcol.DataType) (dtype, error) {
	switch dt := dt.(type) {
	case *varcol.Int8Type, *varcol.Int16Type, *varcol.Int32Type, *varcol.Int64Type:
		return dtype{'<', 'i', dt.(varcol.FixedWidthDataType).ByteWidth()}, nil
	case *varcol.Uint8Type, *varcol.Uint16Type, *varcol.Uint32Type, *varcol.Uint64Type:
		return dtype{'<', 'u', dt.(varcol.FixedWidthDataType).ByteWidth()}, nil
	case *varcol.Float32Type, *varcol.Float64Type:
		return dtype{'<', 'f', dt.(varcol.FixedWidthDataType).ByteWidth()}, nil
	case *varcol.FixedStringType:
		return dtype{'|', 'S', dt.N}, nil
	case *varcol.StringType:
		// grown to the longest string written
		return dtype{'|', 'S', 1}, nil
	}
	return dtype{}, fmt.Errorf("%w: %s cannot be written as npy", varcol.ErrUnsupportedType, dt)
}

// Writer accumulates the chunks of one column and writes the array when
// closed, once the shape and the string width are known.
type Writer struct {
	w      io.Writer
	dt     varcol.DataType
	dims   int
	descr  dtype
	shape  []int
	rows   int
	leaves []column.Column
	err    error
	closed bool
}

// NewWriter returns a writer of columns of type dt to w.
func NewWriter(w io.Writer, dt varcol.DataType) (*Writer, error) {
	leaf, dims := dt, 0
	for {
		at, ok := leaf.(*varcol.ArrayType)
		if !ok {
			break
		}
		leaf, dims = at.Elem(), dims+1
	}
	descr, err := dtypeOf(leaf)
	if err != nil {
		return nil, err
	}
	return &Writer{w: w, dt: dt, dims: dims, descr: descr}, nil
}

// Shape returns the shape of the array written so far.
func (w *Writer) Shape() []int {
	shape := make([]int, 0, 1+w.dims)
	shape = append(shape, w.rows)
	if w.shape == nil {
		return append(shape, make([]int, w.dims)...)
	}
	return append(shape, w.shape...)
}

// Write adds the rows of col. Every array of a given depth must have the
// same length, across all chunks. After an error the writer is unusable.
func (w *Writer) Write(col column.Column) error {
	switch {
	case w.err != nil:
		return w.err
	case w.closed:
		return fmt.Errorf("%w: write to closed npy writer", varcol.ErrInvalid)
	case !varcol.TypeEqual(col.DataType(), w.dt):
		return fmt.Errorf("%w: %s column given to a %s npy writer", varcol.ErrSchemaMismatch, col.DataType(), w.dt)
	case col.Len() == 0:
		return nil
	}
	if w.shape == nil {
		w.shape = firstShape(col, w.dims)
	}
	leaf, err := w.checkShape(col)
	if err != nil {
		w.err = err
		return err
	}
	if s, ok := leaf.(*column.String); ok {
		for i := 0; i < s.Len(); i++ {
			w.descr.size = max(w.descr.size, len(s.Bytes(i)))
		}
	}
	w.rows += col.Len()
	w.leaves = append(w.leaves, leaf)
	return nil
}

func firstShape(col column.Column, dims int) []int {
	shape := make([]int, 0, dims)
	for range dims {
		arr := col.(*column.Array)
		shape = append(shape, arr.Size(0))
		if arr.Size(0) == 0 {
			// nothing below an empty array tells the inner lengths
			for len(shape) < dims {
				shape = append(shape, 0)
			}
			break
		}
		col = arr.Elems()
	}
	return shape
}

func (w *Writer) checkShape(col column.Column) (column.Column, error) {
	for d := range w.dims {
		arr := col.(*column.Array)
		for i := 0; i < arr.Len(); i++ {
			if arr.Size(i) != w.shape[d] {
				return nil, fmt.Errorf("%w: ragged arrays: length %d at depth %d, expected %d",
					varcol.ErrInvalid, arr.Size(i), d+1, w.shape[d])
			}
		}
		col = arr.Elems()
	}
	return col, nil
}

// Close writes the header and the data. It does not close the underlying
// writer.
func (w *Writer) Close() error {
	if w.err != nil {
		return w.err
	}
	if w.closed {
		return nil
	}
	w.closed = true

	bw := bufio.NewWriter(w.w)
	if _, err := bw.Write(w.header()); err != nil {
		return err
	}
	for _, leaf := range w.leaves {
		if err := w.writeLeaf(bw, leaf); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// header returns the magic string, the version, the header length and the
// dict describing the array, padded with spaces and a final newline to a
// multiple of 64 bytes.
func (w *Writer) header() []byte {
	var dict strings.Builder
	dict.WriteString("{'descr':'")
	dict.WriteString(w.descr.String())
	dict.WriteString("','fortran_order':False,'shape':(")
	for _, n := range w.Shape() {
		dict.WriteString(strconv.Itoa(n))
		dict.WriteByte(',')
	}
	dict.WriteString("),}")

	major, lenSize := byte(1), 2
	if dict.Len()+1+len(magic)+2+lenSize > 1<<16-1 {
		major, lenSize = 2, 4
	}
	prefix := len(magic) + 2 + lenSize
	total := (prefix + dict.Len() + 1 + 63) / 64 * 64
	pad := total - prefix - dict.Len()

	out := make([]byte, 0, total)
	out = append(out, magic...)
	out = append(out, major, 0)
	if lenSize == 2 {
		out = binary.LittleEndian.AppendUint16(out, uint16(total-prefix))
	} else {
		out = binary.LittleEndian.AppendUint32(out, uint32(total-prefix))
	}
	out = append(out, dict.String()...)
	for range pad - 1 {
		out = append(out, ' ')
	}
	return append(out, '\n')
}

func (w *Writer) writeLeaf(out io.Writer, leaf column.Column) error {
	switch c := leaf.(type) {
	case *column.Fixed[int8]:
		return binary.Write(out, binary.LittleEndian, c.Values())
	case *column.Fixed[int16]:
		return binary.Write(out, binary.LittleEndian, c.Values())
	case *column.Fixed[int32]:
		return binary.Write(out, binary.LittleEndian, c.Values())
	case *column.Fixed[int64]:
		return binary.Write(out, binary.LittleEndian, c.Values())
	case *column.Fixed[uint8]:
		return binary.Write(out, binary.LittleEndian, c.Values())
	case *column.Fixed[uint16]:
		return binary.Write(out, binary.LittleEndian, c.Values())
	case *column.Fixed[uint32]:
		return binary.Write(out, binary.LittleEndian, c.Values())
	case *column.Fixed[uint64]:
		return binary.Write(out, binary.LittleEndian, c.Values())
	case *column.Fixed[float32]:
		return binary.Write(out, binary.LittleEndian, c.Values())
	case *column.Fixed[float64]:
		return binary.Write(out, binary.LittleEndian, c.Values())
	case *column.FixedString:
		return w.writeStrings(out, c.Len(), c.Bytes)
	case *column.String:
		return w.writeStrings(out, c.Len(), c.Bytes)
	}
	return fmt.Errorf("%w: npy data of %s", varcol.ErrUnsupportedType, leaf.DataType())
}

func (w *Writer) writeStrings(out io.Writer, n int, at func(int) []byte) error {
	buf := make([]byte, w.descr.size)
	for i := 0; i < n; i++ {
		clear(buf[copy(buf, at(i)):])
		if _, err := out.Write(buf); err != nil {
			return err
		}
	}
	return nil
}
