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

// Package shuffle routes keyed items to owning partitions by hashing the
// key, used by pkg/harness's ShuffleForward relay to decide which
// downstream partition owns a key.
package shuffle

import (
	"github.com/cespare/xxhash/v2"
)

// Shuffle distributes keys across a fixed number of partitions.
type Shuffle struct {
	partitions int
}

// New returns a Shuffle over n partitions. n must be positive.
func New(n int) *Shuffle {
	if n <= 0 {
		panic("shuffle: partition count must be positive")
	}
	return &Shuffle{partitions: n}
}

// Partition returns the owning partition index in [0, n) for key.
func (s *Shuffle) Partition(key string) int {
	h := xxhash.Sum64String(key)
	return int(h % uint64(s.partitions))
}
