/*
Copyright 2022 The Numaproj Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package idcache bounds the set of recently observed snapshot generation
// IDs so a restarted engine can tell a replayed checkpoint sweep from a
// genuinely new one.
package idcache

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

// Cache remembers the last N snapshot generation IDs seen.
type Cache struct {
	seen *lru.Cache[string, struct{}]
}

// New returns a Cache bounded to size entries.
func New(size int) *Cache {
	c, err := lru.New[string, struct{}](size)
	if err != nil {
		// size <= 0 is a programmer error, not a runtime condition.
		panic(err)
	}
	return &Cache{seen: c}
}

// SeenBefore reports whether id was already recorded, and records it if not.
func (c *Cache) SeenBefore(id string) bool {
	if _, ok := c.seen.Get(id); ok {
		return true
	}
	c.seen.Add(id, struct{}{})
	return false
}
