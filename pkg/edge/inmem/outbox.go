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

package inmem

import "github.com/flowmesh/vertex/pkg/isb"

// Outbox implements isb.Outbox over a fixed set of Edges, one per data
// ordinal, plus its own bounded snapshot bucket. Watermarks are written
// as isb.WatermarkItem markers onto the same edge channel as data so a
// downstream EdgeInbox sees exactly the interleaving a hand-built
// isb.QueueInbox would for the equivalent item sequence.
type Outbox struct {
	edges             []*Edge
	pendingMask       []bool
	pendingItem       isb.Item
	broadcastInFlight bool
	snapshot          chan isb.SnapshotKV
}

// NewOutbox returns an Outbox fanning out to edges, with a snapshot
// bucket of the given capacity.
func NewOutbox(edges []*Edge, snapshotCapacity int) *Outbox {
	if snapshotCapacity < 1 {
		snapshotCapacity = 1
	}
	return &Outbox{
		edges:       edges,
		pendingMask: make([]bool, len(edges)),
		snapshot:    make(chan isb.SnapshotKV, snapshotCapacity),
	}
}

func (o *Outbox) NumOrdinals() int { return len(o.edges) }

// Edges returns the Outbox's underlying output edges, for a topology
// builder to wire into downstream vertices or drain directly.
func (o *Outbox) Edges() []*Edge { return o.edges }

func (o *Outbox) Offer(ordinal int, item isb.Item) bool {
	return o.edges[ordinal].offer(item)
}

func (o *Outbox) OfferBroadcast(item isb.Item) bool {
	if !o.broadcastInFlight {
		o.broadcastInFlight = true
		o.pendingItem = item
		for i := range o.pendingMask {
			o.pendingMask[i] = true
		}
	}
	allDone := true
	for i, owed := range o.pendingMask {
		if !owed {
			continue
		}
		if o.edges[i].offer(o.pendingItem) {
			o.pendingMask[i] = false
		} else {
			allDone = false
		}
	}
	if allDone {
		o.broadcastInFlight = false
	}
	return allDone
}

func (o *Outbox) OfferWatermark(ordinal int, wm isb.Watermark) bool {
	return o.edges[ordinal].offer(isb.WatermarkItem(wm))
}

func (o *Outbox) OfferSnapshot(key string, value []byte) bool {
	select {
	case o.snapshot <- isb.SnapshotKV{Key: key, Value: value}:
		return true
	default:
		return false
	}
}

// DrainSnapshot consumes and returns everything buffered in the
// snapshot bucket, for a snapshot.Engine sweep to read.
func (o *Outbox) DrainSnapshot() []isb.SnapshotKV {
	var out []isb.SnapshotKV
	for {
		select {
		case kv := <-o.snapshot:
			out = append(out, kv)
		default:
			return out
		}
	}
}
