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

// Package processor defines the cooperative scheduling contract every
// operator obeys: init -> {process|tryProcess}* -> completeEdge* ->
// complete* -> {saveSnapshot|restoreSnapshot+finishSnapshotRestore}*.
package processor

import "github.com/flowmesh/vertex/pkg/isb"

// Processor does the computation needed to transform zero or more input
// streams into zero or more output streams. Each input/output stream
// corresponds to one edge on the vertex this Processor represents; the
// correspondence is established via the edge's ordinal.
//
// By default a Processor is cooperative (IsCooperative returns true): it
// is given a bounded outbox that is not drained until the Processor
// yields back to the engine. As soon as an Offer is refused, the
// Processor must save its state and return. It must also bound the time
// it spends per call, since it shares a worker with other cooperative
// Processors.
//
// A non-cooperative Processor (IsCooperative returns false) gets an
// auto-flushing, blocking outbox and its own dedicated goroutine; there is
// no limit on emission count or time spent per call.
type Processor interface {
	// Init is called exactly once, strictly before any other method.
	Init(outbox isb.Outbox, ctx Context)

	// Process is called with a batch of items retrieved from an
	// inbound edge's stream. It may process zero or more of the items,
	// removing each one from the inbox after it is processed, but must
	// not remove an item until it is done with it. No other method is
	// called until the inbox passed to Process is empty.
	Process(ordinal int, inbox isb.Inbox)

	// CompleteEdge is called after the edge input with the supplied
	// ordinal is exhausted. If it returns false it is invoked again
	// until it returns true; until it does, no other method is
	// invoked.
	CompleteEdge(ordinal int) bool

	// TryProcess is called when there is no pending data in any inbox,
	// letting the Processor produce output in the absence of input.
	// If it returns false it is called again before any other method.
	// A non-cooperative Processor must strictly return true.
	TryProcess() bool

	// Complete is called after all inbound edges are exhausted. If it
	// returns false it is invoked again until it returns true. After
	// it returns true, no other processing method is called except
	// SaveSnapshot.
	Complete() bool

	// IsCooperative is fixed for the lifetime of the instance.
	IsCooperative() bool

	// SaveSnapshot streams state into the outbox's snapshot bucket.
	// Returns true if done, false if it should be called again
	// (e.g. because the snapshot bucket was full). Keys offered within
	// a single sweep (the calls between one SaveSnapshot returning
	// true and the prior sweep's final true) must be unique.
	SaveSnapshot() bool

	// RestoreSnapshot consumes a batch of previously saved (key,value)
	// pairs and rebuilds state from them. Called repeatedly until
	// snapshot data is exhausted.
	RestoreSnapshot(pairs []isb.SnapshotKV)

	// FinishSnapshotRestore is called once after all snapshot batches
	// have been passed to RestoreSnapshot, letting the Processor
	// resolve derived invariants. Returns true when done.
	FinishSnapshotRestore() bool
}
