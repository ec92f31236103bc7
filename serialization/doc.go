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

// Package serialization implements the binary and text codecs of every column
// type, most notably the Variant codec.
//
// Binary bulk encoding splits a column into substreams, each identified by a
// SubstreamPath: a Variant writes its discriminators to one substream and
// each variant to the substreams of its own type, nested under the variant's
// name. A chunked session calls SerializeBulkStatePrefix once, SerializeBulk
// for consecutive row ranges and SerializeBulkStateSuffix at the end; the
// BulkState returned by the prefix is threaded through every call. Reading
// mirrors it with DeserializeBulkStatePrefix and DeserializeBulk.
//
// Text encoding works on one value at a time in one of the syntaxes of
// package format. Text carries no type information, so a Variant tries its
// variants in a fixed order (see DeserializeTextOrder) and keeps the first
// one that accepts the whole token.
package serialization
