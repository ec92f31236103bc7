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

package serialization

import (
	"github.com/colfmt/varcol/column"
	lru "github.com/hashicorp/golang-lru/v2"
)

// SubstreamsCache holds the data read from the substreams of one column
// during the current read round. When several readers of a column (the full
// column and some of its subcolumns) decode the same rows, the first one
// reads each substream and the others take the decoded chunk from the cache.
//
// The caller owns the cache and purges it before reading the next chunk.
// A nil SubstreamsCache disables caching.
type SubstreamsCache interface {
	Get(path SubstreamPath) (column.Column, bool)
	Add(path SubstreamPath, col column.Column)
	Purge()
}

// DefaultCacheSize is the number of substreams NewSubstreamsCache keeps.
const DefaultCacheSize = 1024

type lruCache struct {
	cache *lru.Cache[string, column.Column]
}

// NewSubstreamsCache returns a SubstreamsCache keeping the size most
// recently used substreams.
func NewSubstreamsCache(size int) (SubstreamsCache, error) {
	c, err := lru.New[string, column.Column](size)
	if err != nil {
		return nil, err
	}
	return &lruCache{cache: c}, nil
}

func (c *lruCache) Get(path SubstreamPath) (column.Column, bool) {
	return c.cache.Get(path.String())
}

func (c *lruCache) Add(path SubstreamPath, col column.Column) {
	c.cache.Add(path.String(), col)
}

func (c *lruCache) Purge() { c.cache.Purge() }

func cacheGet(cache SubstreamsCache, path SubstreamPath) (column.Column, bool) {
	if cache == nil {
		return nil, false
	}
	return cache.Get(path)
}

func cacheAdd(cache SubstreamsCache, path SubstreamPath, col column.Column) {
	if cache != nil {
		cache.Add(path, col)
	}
}

// StatesCache lets several readers of one column share the deserialization
// state of a substream, keyed by the substream path. A nil StatesCache
// disables sharing.
type StatesCache map[string]BulkState

func (c StatesCache) get(path SubstreamPath) (BulkState, bool) {
	if c == nil {
		return nil, false
	}
	s, ok := c[path.String()]
	return s, ok
}

func (c StatesCache) add(path SubstreamPath, s BulkState) {
	if c != nil {
		c[path.String()] = s
	}
}
