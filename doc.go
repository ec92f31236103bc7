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

// Package varcol holds the data types and sentinel errors shared by the
// columnar Variant codec.
//
// A Variant column stores, per row, a value of one of several statically
// declared branch types or no value at all:
//
//	vt, err := varcol.VariantOf(varcol.PrimitiveTypes.Int32, varcol.BinaryTypes.String)
//
// The in-memory representation lives in package column, the binary and text
// codecs in package serialization, and the per-call text settings in package
// format.
package varcol
