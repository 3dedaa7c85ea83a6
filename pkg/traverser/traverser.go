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

// Package traverser provides the resumable lazy-sequence abstraction
// flatMap expands an item into: once its end sentinel is reached,
// further calls keep returning it, so an operator can hold the
// traverser across a backpressure suspension and resume later without
// re-deriving "are we done yet" logic.
package traverser

import "github.com/flowmesh/vertex/pkg/isb"

// Traverser is a lazy sequence of items with a single method returning
// the next item, or false once exhausted.
type Traverser interface {
	Next() (isb.Item, bool)
}

// SliceTraverser adapts a pre-materialized slice into a Traverser.
type SliceTraverser struct {
	items []isb.Item
	pos   int
}

// FromSlice returns a Traverser over items.
func FromSlice(items []isb.Item) *SliceTraverser {
	return &SliceTraverser{items: items}
}

func (s *SliceTraverser) Next() (isb.Item, bool) {
	if s.pos >= len(s.items) {
		return isb.Item{}, false
	}
	item := s.items[s.pos]
	s.pos++
	return item, true
}

// ended wraps any Traverser and guarantees that once it has reported
// exhaustion, it keeps reporting exhaustion even if the wrapped
// implementation would not (spec.md: "once end is returned, subsequent
// calls continue to return end").
type ended struct {
	inner Traverser
	done  bool
}

// Resumable wraps t so that it satisfies the "stays ended" property
// regardless of the underlying implementation's own guarantees.
func Resumable(t Traverser) Traverser {
	return &ended{inner: t}
}

func (e *ended) Next() (isb.Item, bool) {
	if e.done {
		return isb.Item{}, false
	}
	item, ok := e.inner.Next()
	if !ok {
		e.done = true
		return isb.Item{}, false
	}
	return item, true
}
