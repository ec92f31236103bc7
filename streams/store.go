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

package streams

import (
	"context"
)

// Store persists Sets.
type Store interface {
	// Save writes every substream and column of set, replacing what the
	// store held before.
	Save(ctx context.Context, set *Set) error
	Load(ctx context.Context) (*Set, error)
	Close() error
}

type config struct {
	compression Compression
}

// Option configures a Store.
type Option func(*config)

// WithCompression selects the codec substreams are saved with. Loading
// handles every codec regardless.
func WithCompression(c Compression) Option {
	return func(cfg *config) { cfg.compression = c }
}

func newConfig(opts []Option) (config, error) {
	cfg := config{compression: Zstd}
	for _, opt := range opts {
		opt(&cfg)
	}
	if _, err := GetCodec(cfg.compression); err != nil {
		return cfg, err
	}
	return cfg, nil
}
