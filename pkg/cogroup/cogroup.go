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

// Package cogroup implements the co-group operator (spec §4.4.5): n
// input ordinals, each with its own key extractor and accumulate
// function, folding into one accumulator per observed key, emitted in
// batch once every input ordinal is exhausted.
package cogroup

import (
	"github.com/flowmesh/vertex/pkg/isb"
	"github.com/flowmesh/vertex/pkg/processor"
)

// Entry is the co-group emission payload: one finished accumulator per
// observed key.
type Entry[OUT any] struct {
	Key   string
	Value OUT
}

// Operator folds n keyed input ordinals into one accumulator per key,
// via a per-ordinal key extractor and accumulate function, and emits the
// finished per-key results once every ordinal has reached CompleteEdge.
// Unlike the windowing operators, co-group has no watermark-triggered
// partial close: the fold only resolves at Complete, batch-style, since
// spec §4.4.5 names no earlier emission point.
type Operator[A, OUT any] struct {
	processor.BaseProcessor

	KeyFns        []func(isb.Item) string
	AccumulateFns []func(A, isb.Item) A
	Create        func() A
	Finish        func(A) OUT

	states map[string]A
	order  []string // first-seen order, for deterministic emission

	closeQueue []isb.Item
	built      bool
}

// New constructs an Operator over len(keyFns) input ordinals. keyFns and
// accumulateFns must be the same length and are indexed by ordinal.
func New[A, OUT any](keyFns []func(isb.Item) string, accumulateFns []func(A, isb.Item) A, create func() A, finish func(A) OUT) *Operator[A, OUT] {
	if len(keyFns) != len(accumulateFns) {
		panic("cogroup: keyFns and accumulateFns must have equal length")
	}
	return &Operator[A, OUT]{
		KeyFns:        keyFns,
		AccumulateFns: accumulateFns,
		Create:        create,
		Finish:        finish,
		states:        map[string]A{},
	}
}

func (o *Operator[A, OUT]) Process(ordinal int, inbox isb.Inbox) {
	item, ok := inbox.Poll()
	if !ok {
		return
	}
	if item.Kind == isb.KindWatermark || item.IsLate {
		return
	}
	key := o.KeyFns[ordinal](item)
	acc, ok := o.states[key]
	if !ok {
		acc = o.Create()
		o.order = append(o.order, key)
	}
	o.states[key] = o.AccumulateFns[ordinal](acc, item)
}

// Complete builds, on first call, the full set of per-key emissions in
// first-seen-key order (spec §4.4.5: "emission order: undefined but
// deterministic modulo key hashing" — first-seen order over a
// hash-partitioned key space satisfies that), then drains it across
// calls the same way the windowing operators drain a close: suspend on
// Offer refusal, resume on the next call.
func (o *Operator[A, OUT]) Complete() bool {
	if !o.built {
		for _, key := range o.order {
			out := o.Finish(o.states[key])
			o.closeQueue = append(o.closeQueue, isb.Item{
				Key:     key,
				Payload: Entry[OUT]{Key: key, Value: out},
			})
		}
		o.built = true
	}
	for len(o.closeQueue) > 0 {
		if !o.Outbox.Offer(0, o.closeQueue[0]) {
			return false
		}
		o.closeQueue = o.closeQueue[1:]
	}
	return true
}
