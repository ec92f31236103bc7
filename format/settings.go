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
	"gopkg.in/yaml.v3"
)

// Settings are the per-call options of the text and binary codecs. Only the
// Variant text entry points accept a nil *Settings, meaning DefaultSettings.
type Settings struct {
	CSV     CSVSettings     `yaml:"csv"`
	TSV     TSVSettings     `yaml:"tsv"`
	JSON    JSONSettings    `yaml:"json"`
	Raw     RawSettings     `yaml:"raw"`
	Whole   RawSettings     `yaml:"whole"`
	Variant VariantSettings `yaml:"variant"`
}

type CSVSettings struct {
	Delimiter          byte   `yaml:"-"`
	AllowSingleQuotes  bool   `yaml:"allow_single_quotes"`
	NullRepresentation string `yaml:"null_representation"`
}

type TSVSettings struct {
	NullRepresentation string `yaml:"null_representation"`
}

type JSONSettings struct {
	// Quote64BitIntegers writes Int64 and UInt64 values as JSON strings.
	Quote64BitIntegers bool `yaml:"quote_64bit_integers"`
}

// RawSettings apply to the Raw and Whole syntaxes, which have no null
// literal unless NullRepresentation is set.
type RawSettings struct {
	NullRepresentation string `yaml:"null_representation"`
}

type VariantSettings struct {
	// NullOnNoMatch stores NULL instead of failing when no variant accepts
	// a text token.
	NullOnNoMatch bool `yaml:"null_on_no_match"`
}

// DefaultNullRepresentation is the null literal of the Escaped and CSV
// syntaxes.
const DefaultNullRepresentation = `\N`

// DefaultSettings returns the default settings.
func DefaultSettings() *Settings {
	return &Settings{
		CSV: CSVSettings{
			Delimiter:          ',',
			NullRepresentation: DefaultNullRepresentation,
		},
		TSV: TSVSettings{NullRepresentation: DefaultNullRepresentation},
	}
}

// Option configures Settings.
type Option func(*Settings)

// NewSettings returns the default settings modified by opts.
func NewSettings(opts ...Option) *Settings {
	s := DefaultSettings()
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// WithCSVDelimiter specifies the CSV field delimiter.
func WithCSVDelimiter(d byte) Option {
	return func(s *Settings) { s.CSV.Delimiter = d }
}

// WithCSVSingleQuotes allows CSV fields to be quoted with single quotes.
func WithCSVSingleQuotes(v bool) Option {
	return func(s *Settings) { s.CSV.AllowSingleQuotes = v }
}

// WithCSVNull specifies the CSV null literal.
func WithCSVNull(null string) Option {
	return func(s *Settings) { s.CSV.NullRepresentation = null }
}

// WithTSVNull specifies the null literal of the Escaped syntax.
func WithTSVNull(null string) Option {
	return func(s *Settings) { s.TSV.NullRepresentation = null }
}

// WithRawNull sets a null literal for the Raw syntax.
func WithRawNull(null string) Option {
	return func(s *Settings) { s.Raw.NullRepresentation = null }
}

// WithWholeNull sets a null literal for the Whole syntax.
func WithWholeNull(null string) Option {
	return func(s *Settings) { s.Whole.NullRepresentation = null }
}

func WithQuote64BitIntegers(v bool) Option {
	return func(s *Settings) { s.JSON.Quote64BitIntegers = v }
}

// WithNullOnNoMatch makes Variant text decoding store NULL for tokens no
// variant accepts.
func WithNullOnNoMatch(v bool) Option {
	return func(s *Settings) { s.Variant.NullOnNoMatch = v }
}

type yamlSettings struct {
	Settings     `yaml:",inline"`
	CSVDelimiter string `yaml:"csv_delimiter"`
}

// LoadSettings reads settings from a YAML document. Keys missing from the
// document keep their default value; unknown keys are an error.
//
//	csv_delimiter: ";"
//	csv:
//	  null_representation: NULL
//	variant:
//	  null_on_no_match: true
func LoadSettings(r io.Reader) (*Settings, error) {
	doc := yamlSettings{Settings: *DefaultSettings(), CSVDelimiter: ","}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: settings: %s", varcol.ErrInvalid, err)
	}
	if len(doc.CSVDelimiter) != 1 {
		return nil, fmt.Errorf("%w: csv_delimiter must be a single byte, got %q", varcol.ErrInvalid, doc.CSVDelimiter)
	}
	doc.Settings.CSV.Delimiter = doc.CSVDelimiter[0]
	return &doc.Settings, nil
}
