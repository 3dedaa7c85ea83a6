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

// Package transform implements the stateless map/filter/flatMap
// operators of the processor contract: they ignore watermarks as data
// but forward them in order.
package transform

import (
	"github.com/flowmesh/vertex/pkg/isb"
	"github.com/flowmesh/vertex/pkg/processor"
	"github.com/flowmesh/vertex/pkg/traverser"
)

// MapFunc transforms one item into zero or one output items. Returning
// ok=false emits nothing.
type MapFunc func(isb.Item) (isb.Item, bool)

// mapProcessor emits f(item) if it returns ok, else nothing.
type mapProcessor struct {
	processor.BaseProcessor
	f MapFunc
}

// Map returns a Processor implementing spec's map(f).
func Map(f MapFunc) processor.Processor {
	return &mapProcessor{f: f}
}

func (p *mapProcessor) Process(ordinal int, inbox isb.Inbox) {
	item, ok := inbox.Poll()
	if !ok {
		return
	}
	if item.Kind == isb.KindWatermark {
		if !p.Outbox.Offer(0, item) {
			putBack(inbox, item)
		}
		return
	}
	out, emit := p.f(item)
	if !emit {
		return
	}
	if !p.Outbox.Offer(0, out) {
		// Outbox refused: put the item back so it is retried whole on
		// the next Process call instead of being dropped.
		putBack(inbox, item)
	}
}

// FilterFunc reports whether an item should pass through.
type FilterFunc func(isb.Item) bool

type filterProcessor struct {
	processor.BaseProcessor
	pred FilterFunc
}

// Filter returns a Processor implementing spec's filter(p): emits item
// iff p(item).
func Filter(pred FilterFunc) processor.Processor {
	return &filterProcessor{pred: pred}
}

func (p *filterProcessor) Process(ordinal int, inbox isb.Inbox) {
	item, ok := inbox.Peek()
	if !ok {
		return
	}
	if item.Kind != isb.KindWatermark && !p.pred(item) {
		inbox.Poll()
		return
	}
	if p.Outbox.Offer(0, item) {
		inbox.Poll()
	}
	// else: leave it in the inbox, retry next call.
}

// FlatMapFunc expands one item into a Traverser of output items.
type FlatMapFunc func(isb.Item) traverser.Traverser

// flatMapProcessor drains a resumable traverser per input item; if the
// outbox refuses an item mid-traversal, the traverser is retained and
// resumed from the refused item on the next Process call, per spec
// §4.3's resumability requirement.
type flatMapProcessor struct {
	processor.BaseProcessor
	f       FlatMapFunc
	pending traverser.Traverser
	stashed *isb.Item // an item pulled from pending but not yet accepted by the outbox
}

// FlatMap returns a Processor implementing spec's flatMap(f).
func FlatMap(f FlatMapFunc) processor.Processor {
	return &flatMapProcessor{f: f}
}

func (p *flatMapProcessor) Process(ordinal int, inbox isb.Inbox) {
	if p.pending == nil {
		item, ok := inbox.Poll()
		if !ok {
			return
		}
		if item.Kind == isb.KindWatermark {
			p.pending = traverser.Resumable(traverser.FromSlice([]isb.Item{item}))
		} else {
			p.pending = traverser.Resumable(p.f(item))
		}
	}
	p.drain()
}

// CompleteEdge keeps draining a traversal still in flight when its
// source edge runs out of input: the edge is only truly exhausted once
// every expansion it already pulled from the inbox has been offered.
func (p *flatMapProcessor) CompleteEdge(ordinal int) bool {
	p.drain()
	return p.pending == nil && p.stashed == nil
}

func (p *flatMapProcessor) drain() {
	for {
		if p.stashed == nil {
			item, ok := p.pending.Next()
			if !ok {
				p.pending = nil
				return
			}
			p.stashed = &item
		}
		if !p.Outbox.Offer(0, *p.stashed) {
			return // suspend; retry from p.stashed next call
		}
		p.stashed = nil
	}
}

func putBack(inbox isb.Inbox, item isb.Item) {
	if p, ok := inbox.(isb.Prepender); ok {
		p.PushFront(item)
	}
}
