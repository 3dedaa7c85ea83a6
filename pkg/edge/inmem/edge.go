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

// Package inmem provides a bounded, in-process channel-backed edge: the
// default isb.Inbox/isb.Outbox backend for pkg/harness and for unit
// tests that need two processors actually connected rather than driven
// by hand, grounded on pkg/isb/testutils's fixture-builder style and the
// Offset adapters in pkg/isb/offset.go.
package inmem

import "github.com/flowmesh/vertex/pkg/isb"

// Edge is a single point-to-point bounded channel carrying isb.Item
// values — data and watermark markers interleaved in arrival order,
// matching how engine.Driver consumes a QueueInbox — from one vertex's
// outbox ordinal to a downstream vertex's inbox.
type Edge struct {
	ch  chan isb.Item
	seq int64
}

// NewEdge returns an Edge with the given channel capacity.
func NewEdge(capacity int) *Edge {
	if capacity < 1 {
		capacity = 1
	}
	return &Edge{ch: make(chan isb.Item, capacity)}
}

// offer attempts a non-blocking send, returning false if the channel is
// full — the same backpressure signal isb.Outbox.Offer gives.
func (e *Edge) offer(item isb.Item) bool {
	select {
	case e.ch <- item:
		e.seq++
		return true
	default:
		return false
	}
}

// Inbox returns an isb.Inbox view onto the edge's channel.
func (e *Edge) Inbox() *EdgeInbox {
	return &EdgeInbox{edge: e}
}

// EdgeInbox adapts an Edge's channel for consumption by engine.Driver,
// buffering whatever is currently queued into a local slice so Peek/
// Poll/Size act on a stable FIFO snapshot between fill calls, the same
// contract isb.QueueInbox gives a Process call.
type EdgeInbox struct {
	edge *Edge
	buf  []isb.Item
}

func (i *EdgeInbox) fill() {
	for {
		select {
		case item := <-i.edge.ch:
			i.buf = append(i.buf, item)
		default:
			return
		}
	}
}

func (i *EdgeInbox) Peek() (isb.Item, bool) {
	i.fill()
	if len(i.buf) == 0 {
		return isb.Item{}, false
	}
	return i.buf[0], true
}

func (i *EdgeInbox) Poll() (isb.Item, bool) {
	i.fill()
	if len(i.buf) == 0 {
		return isb.Item{}, false
	}
	item := i.buf[0]
	i.buf = i.buf[1:]
	return item, true
}

func (i *EdgeInbox) Size() int {
	i.fill()
	return len(i.buf)
}

func (i *EdgeInbox) IsEmpty() bool {
	return i.Size() == 0
}

func (i *EdgeInbox) DrainTo(consume func(isb.Item) bool) {
	i.fill()
	for len(i.buf) > 0 {
		if !consume(i.buf[0]) {
			return
		}
		i.buf = i.buf[1:]
	}
}

// PushFront satisfies isb.Prepender: an operator that polled an item but
// could not offer it downstream re-inserts it ahead of anything else
// already buffered.
func (i *EdgeInbox) PushFront(item isb.Item) {
	i.buf = append([]isb.Item{item}, i.buf...)
}
