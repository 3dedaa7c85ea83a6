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

// Package harness drives one or more processor.Processor instances
// through the exact cooperative state machine spec §4.2 describes,
// wired together over pkg/edge/inmem rather than a real transport. It
// serves as the executable behavioural specification for multi-vertex
// wiring; the single-operator scenario tests (spec §8, S1-S6) drive an
// engine.Driver directly in their operator packages instead.
package harness

import (
	"context"
	"fmt"

	"github.com/flowmesh/vertex/pkg/edge/inmem"
	"github.com/flowmesh/vertex/pkg/engine"
	"github.com/flowmesh/vertex/pkg/isb"
	"github.com/flowmesh/vertex/pkg/processor"
)

// Vertex is one processor instance wired to its driver.
type Vertex struct {
	Name   string
	Driver *engine.Driver
	Outbox *inmem.Outbox
	inputs []*inmem.Edge // nil entries mark a hand-fed input with no producing Vertex
}

// NewVertex builds a Driver for proc, reading from inputs (already-wired
// upstream edges) and writing to an Outbox with outputPartitions
// ordinals, each an Edge of the given channel capacity. Use
// NewSourceVertex instead for a Vertex whose input is fed directly
// rather than produced by another Vertex in the same Topology.
func NewVertex(name string, proc processor.Processor, ctx processor.Context, inputs []*inmem.Edge, outputPartitions, capacity int, strict bool) *Vertex {
	inboxes := make([]isb.Inbox, len(inputs))
	for i, e := range inputs {
		inboxes[i] = e.Inbox()
	}
	return newVertex(name, proc, ctx, inputs, inboxes, outputPartitions, capacity, strict)
}

// NewSourceVertex builds a Driver for proc over hand-fed inboxes (e.g.
// isb.NewQueueInbox pre-loaded with test input) rather than edges
// produced by another Vertex. The caller is responsible for calling
// MarkSourceExhausted once each inbox has received its last item.
func NewSourceVertex(name string, proc processor.Processor, ctx processor.Context, inboxes []isb.Inbox, outputPartitions, capacity int, strict bool) *Vertex {
	return newVertex(name, proc, ctx, make([]*inmem.Edge, len(inboxes)), inboxes, outputPartitions, capacity, strict)
}

func newVertex(name string, proc processor.Processor, ctx processor.Context, inputEdges []*inmem.Edge, inboxes []isb.Inbox, outputPartitions, capacity int, strict bool) *Vertex {
	edges := make([]*inmem.Edge, outputPartitions)
	for i := range edges {
		edges[i] = inmem.NewEdge(capacity)
	}
	outbox := inmem.NewOutbox(edges, capacity)

	return &Vertex{
		Name:   name,
		Driver: engine.NewDriver(name, proc, ctx, outbox, inboxes, strict),
		Outbox: outbox,
		inputs: inputEdges,
	}
}

// Output returns the Edge for the given output ordinal, for wiring into
// a downstream Vertex's inputs or draining directly in a test.
func (v *Vertex) Output(ordinal int) *inmem.Edge {
	return v.Outbox.Edges()[ordinal]
}

// MarkSourceExhausted records that ordinal will receive no further
// items — used for a Vertex whose input is fed once up front rather
// than by an upstream Vertex that itself reaches Complete.
func (v *Vertex) MarkSourceExhausted(ordinal int) {
	v.Driver.MarkExhausted(ordinal)
}

// Topology is a set of Vertex instances stepped together until every one
// reaches Complete, generalizing engine.RunToCompletion's single-Driver
// loop the way the teacher's forwarder read-apply-route-write loop
// generalizes to a whole pipeline of buffers.
type Topology struct {
	vertices []*Vertex
}

// NewTopology returns an empty Topology.
func NewTopology() *Topology {
	return &Topology{}
}

// Add registers v with the topology and returns it for chaining.
func (t *Topology) Add(v *Vertex) *Vertex {
	t.vertices = append(t.vertices, v)
	return v
}

// Run steps every vertex's driver round-robin until all are done or ctx
// is canceled. A vertex whose every upstream producer has itself
// completed, and whose input edges are drained dry, is marked exhausted
// automatically so completion propagates down the topology without the
// caller tracking edge exhaustion by hand.
func (t *Topology) Run(ctx context.Context) error {
	for {
		allDone := true
		for _, v := range t.vertices {
			if !v.Driver.Done() {
				allDone = false
			}
		}
		if allDone {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		t.propagateExhaustion()

		progressed := false
		for _, v := range t.vertices {
			if v.Driver.Done() {
				continue
			}
			if err := v.Driver.Step(); err != nil {
				return fmt.Errorf("vertex %q: %w", v.Name, err)
			}
			progressed = true
		}
		if !progressed {
			return nil
		}
	}
}

// producerOf finds which vertex, if any, owns e as one of its output
// edges.
func (t *Topology) producerOf(e *inmem.Edge) *Vertex {
	for _, v := range t.vertices {
		for _, out := range v.Outbox.Edges() {
			if out == e {
				return v
			}
		}
	}
	return nil
}

func (t *Topology) propagateExhaustion() {
	for _, v := range t.vertices {
		for ordinal, in := range v.inputs {
			producer := t.producerOf(in)
			if producer != nil && producer.Driver.Done() {
				v.Driver.MarkExhausted(ordinal)
			}
		}
	}
}
