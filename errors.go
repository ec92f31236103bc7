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

package varcol

import "errors"

var (
	ErrInvalid        = errors.New("invalid")
	ErrNotImplemented = errors.New("not implemented")
	ErrType           = errors.New("type error")
	ErrIndex          = errors.New("index out of range")
	ErrSyntax         = errors.New("syntax error")

	// ErrSchemaMismatch is returned when a column does not have the branch
	// layout its serialization was built for.
	ErrSchemaMismatch = errors.New("schema mismatch")
	// ErrNoMatchingVariant is returned when a text token is neither the null
	// literal nor parseable by any branch of a Variant.
	ErrNoMatchingVariant = errors.New("no matching variant")
	// ErrTruncatedStream is returned when a binary stream ends in the middle
	// of a value, or provides fewer values than the discriminators require.
	ErrTruncatedStream = errors.New("truncated stream")
	// ErrInvariantViolation reports that discriminators and branch storages
	// disagree. It always indicates a bug in the caller.
	ErrInvariantViolation = errors.New("invariant violation")
	// ErrUnsupportedType is returned when a type lacks a capability required
	// by the component it is handed to.
	ErrUnsupportedType = errors.New("unsupported type")
)
