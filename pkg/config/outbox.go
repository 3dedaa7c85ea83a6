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

package config

import "github.com/flowmesh/vertex/pkg/isb"

// SnapshottingOutbox forwards data/watermark emissions to Data, the edge
// BuildEdges wired, but keeps the snapshot bucket separate: a dedicated
// in-memory isb.BoundedOutbox used only for its OfferSnapshot/
// DrainSnapshot half. This decouples checkpoint durability (always a
// pkg/snapshot Store, memory or Redis) from the data edge's own
// transport, so "replay" restores the same way whether a vertex's data
// plane is a local dry run or a real broker. A real edge Writer's own
// write-through OfferSnapshot (kafka/jetstream/redisstream) remains
// exercised directly by that package's own tests; a vertex wired through
// this composite simply doesn't take that path, trading the broker's
// built-in persistence for one uniform Store/Engine mechanism across
// every edge type.
type SnapshottingOutbox struct {
	Data isb.Outbox
	snap *isb.BoundedOutbox
}

// NewSnapshottingOutbox wraps data with a dedicated snapshot bucket of
// the given capacity.
func NewSnapshottingOutbox(data isb.Outbox, snapshotCapacity int) *SnapshottingOutbox {
	return &SnapshottingOutbox{Data: data, snap: isb.NewBoundedOutbox(0, snapshotCapacity)}
}

func (s *SnapshottingOutbox) NumOrdinals() int { return s.Data.NumOrdinals() }

func (s *SnapshottingOutbox) Offer(ordinal int, item isb.Item) bool {
	return s.Data.Offer(ordinal, item)
}

func (s *SnapshottingOutbox) OfferBroadcast(item isb.Item) bool {
	return s.Data.OfferBroadcast(item)
}

func (s *SnapshottingOutbox) OfferWatermark(ordinal int, wm isb.Watermark) bool {
	return s.Data.OfferWatermark(ordinal, wm)
}

func (s *SnapshottingOutbox) OfferSnapshot(key string, value []byte) bool {
	return s.snap.OfferSnapshot(key, value)
}

// DrainSnapshot satisfies snapshot.Engine's narrow snapshotSource
// interface so a *SnapshottingOutbox can be passed as both the
// engine.Driver's outbox and the snapshot.Engine.Capture source.
func (s *SnapshottingOutbox) DrainSnapshot() []isb.SnapshotKV {
	return s.snap.DrainSnapshot()
}
