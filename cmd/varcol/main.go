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

// Command varcol parses, encodes and inspects Variant columns.
package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/docopt/docopt-go"
	"github.com/pterm/pterm"
)

const version = "varcol 0.1.0"

const usage = `varcol: parse, encode and inspect Variant columns.

Usage:
  varcol parse <types>...
  varcol order <variant>
  varcol encode [options] --type=TYPE <input> <store>
  varcol encode [options] --avro <input> <store>
  varcol streams [--sqlite] [--verbose] <store>
  varcol decode [--sqlite] [--verbose] [--json] [--limit=N] [--syntax=SYNTAX] [--settings=FILE] <store> <spec>...
  varcol npy [--sqlite] [--verbose] <store> <spec> <out>
  varcol -h | --help
  varcol --version

Options:
  -h --help            Show this screen.
  --version            Show version.
  --type=TYPE          Type of the values of <input>, one value per line.
  --column=NAME        Name of the encoded column [default: c].
  --syntax=SYNTAX      Text syntax of the values [default: escaped].
  --settings=FILE      YAML file with format settings.
  --avro               Read <input> as an Avro object container file.
  --chunk=ROWS         Rows per bulk call [default: 8192].
  --concurrency=N      Columns encoded at once, 0 for GOMAXPROCS [default: 0].
  --compact            Write Variant discriminators in compact granules.
  --compression=CODEC  Substream compression [default: zstd].
  --sqlite             <store> is a SQLite database instead of a directory.
  --json               Print rows as JSON objects.
  --limit=N            Print at most N rows, 0 for all [default: 20].
  --verbose            Log debug messages.

A <spec> is a column name, optionally followed by a colon and the type of
one of its variants: "v" reads column v, "v:String" reads its String
variant as a Nullable column. A <store> is a directory unless --sqlite is
given. An <input> of "-" reads standard input.`

type config struct {
	Parse   bool
	Order   bool
	Encode  bool
	Streams bool
	Decode  bool
	Npy     bool

	Types   []string
	Variant string
	Input   string
	Store   string
	Spec    []string
	Out     string

	Type        string
	Column      string
	Syntax      string
	Settings    string
	Avro        bool
	Chunk       int
	Concurrency int
	Compact     bool
	Compression string
	Sqlite      bool
	JSON        bool `docopt:"--json"`
	Limit       int
	Verbose     bool
	Help        bool
	Version     bool
}

func main() {
	opts, err := docopt.ParseArgs(usage, os.Args[1:], version)
	if err != nil {
		pterm.Fatal.Println(err)
	}

	var cfg config
	if err := opts.Bind(&cfg); err != nil {
		pterm.Fatal.Println(err)
	}

	logger := pterm.DefaultLogger.WithWriter(os.Stderr)
	if cfg.Verbose {
		logger = logger.WithLevel(pterm.LogLevelDebug)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err = run(ctx, &cfg, logger)
	stop()
	if err != nil {
		logger.Error(err.Error())
		os.Exit(1)
	}
}
