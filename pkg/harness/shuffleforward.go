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

package harness

import (
	"github.com/flowmesh/vertex/internal/shuffle"
	"github.com/flowmesh/vertex/pkg/isb"
	"github.com/flowmesh/vertex/pkg/processor"
)

// ShuffleForward is the edge-routing relay a topology inserts between a
// vertex and a downstream vertex with more than one partition: it reads
// items from its single inbox and routes each one to the output ordinal
// shuffle.Partition(item.Key) selects, so every instance of a keyed
// downstream vertex (co-group, windowed aggregation) consistently owns
// the same set of keys regardless of which upstream partition produced
// them. A watermark item is broadcast to every partition, since it
// asserts a bound on event time across the whole edge, not one key.
//
// Grounded on the teacher's reduce_udf.go: a shuffle.Shuffle instance is
// built per fan-out edge and consulted per message key before writing.
type ShuffleForward struct {
	processor.BaseProcessor
	router  *shuffle.Shuffle
	stashed *isb.Item
}

// NewShuffleForward returns a ShuffleForward routing across
// partitions downstream instances.
func NewShuffleForward(partitions int) *ShuffleForward {
	return &ShuffleForward{router: shuffle.New(partitions)}
}

func (s *ShuffleForward) Process(ordinal int, inbox isb.Inbox) {
	if s.stashed == nil {
		item, ok := inbox.Poll()
		if !ok {
			return
		}
		s.stashed = &item
	}
	item := *s.stashed
	if item.Kind == isb.KindWatermark {
		if s.Outbox.OfferBroadcast(item) {
			s.stashed = nil
		}
		return
	}
	out := s.router.Partition(item.Key)
	if s.Outbox.Offer(out, item) {
		s.stashed = nil
	}
}
