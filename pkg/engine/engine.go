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

// Package engine drives Processor instances through their full
// lifecycle, generalizing the teacher's forwarder read-apply-write-ack
// loop into a scheduler for the cooperative contract: round-robin
// multitasking on a fixed worker pool, with a soft per-callback time
// budget and progress-rule enforcement.
package engine

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/flowmesh/vertex/internal/metrics"
	"github.com/flowmesh/vertex/pkg/isb"
	"github.com/flowmesh/vertex/pkg/processor"
)

const (
	// WarnBudget is the soft per-callback time budget; exceeding it
	// only logs a warning.
	WarnBudget = 1 * time.Millisecond
	// FailBudget additionally logs at error level.
	FailBudget = 5 * time.Millisecond
	// StrictFailBudget is the hard budget under strict mode; exceeding
	// it raises a ContractViolation.
	StrictFailBudget = 1 * time.Second
)

type inputState struct {
	inbox     isb.Inbox
	exhausted bool // no more items will ever arrive on this ordinal
	completed bool // CompleteEdge has returned true for this ordinal
}

// Driver runs a single Processor through init -> {process|tryProcess}* ->
// completeEdge* -> complete* -> snapshot, one Step at a time. It embodies
// the full scheduling decision for one Processor so Engine can round-robin
// many Drivers without knowing operator internals.
type Driver struct {
	name    string
	proc    processor.Processor
	outbox  *trackingOutbox
	inputs  []*inputState
	strict  bool
	log     *zap.SugaredLogger

	completing bool // all inputs exhausted and completeEdge-complete, driving Complete now
	done       bool // Complete returned true; only SaveSnapshot may still run
}

// NewDriver wires proc to outbox and the given ordinal inboxes, and calls
// Init.
func NewDriver(name string, proc processor.Processor, ctx processor.Context, outbox isb.Outbox, inboxes []isb.Inbox, strict bool) *Driver {
	d := &Driver{
		name:   name,
		proc:   proc,
		outbox: &trackingOutbox{Outbox: outbox},
		strict: strict,
		log:    ctx.Logger(),
	}
	for _, ib := range inboxes {
		d.inputs = append(d.inputs, &inputState{inbox: ib})
	}
	proc.Init(d.outbox, ctx)
	return d
}

// MarkExhausted records that ordinal will receive no further items, so
// the driver begins calling CompleteEdge for it once its inbox drains.
func (d *Driver) MarkExhausted(ordinal int) {
	d.inputs[ordinal].exhausted = true
}

// Done reports whether Complete has returned true.
func (d *Driver) Done() bool { return d.done }

// Step performs exactly one scheduling quantum: it finds the highest
// priority pending work (drain a non-empty inbox, advance a pending
// CompleteEdge, advance Complete, or otherwise call TryProcess) and
// invokes the corresponding callback once, enforcing the soft time
// budget and the progress rule. Per spec's resolved open question, it
// never calls TryProcess between CompleteEdge and Complete.
func (d *Driver) Step() error {
	if d.done {
		return nil
	}

	// 1. Any ordinal with pending input takes priority.
	for i, in := range d.inputs {
		if !in.inbox.IsEmpty() {
			return d.invoke("Process", func() bool {
				d.proc.Process(i, in.inbox)
				return in.inbox.IsEmpty() // Process has no boolean return; treat "drained" as progress marker only
			})
		}
	}

	// 2. Any exhausted-but-not-completed ordinal drives CompleteEdge.
	for i, in := range d.inputs {
		if in.exhausted && !in.completed {
			return d.invoke("CompleteEdge", func() bool {
				ok := d.proc.CompleteEdge(i)
				in.completed = ok
				return ok
			})
		}
	}

	// 3. Once every ordinal is exhausted and completed, drive Complete.
	if d.allInputsDone() {
		return d.invoke("Complete", func() bool {
			ok := d.proc.Complete()
			d.done = ok
			return ok
		})
	}

	// 4. No pending input, no edges to complete, inputs still open:
	// give the operator a tick.
	return d.invoke("TryProcess", func() bool {
		return d.proc.TryProcess()
	})
}

func (d *Driver) allInputsDone() bool {
	if len(d.inputs) == 0 {
		return true
	}
	for _, in := range d.inputs {
		if !in.completed {
			return false
		}
	}
	return true
}

// invoke runs one callback, timing it against the soft budget and
// checking the progress rule: the callback must consume from an inbox,
// emit to the outbox, or (via returnedTrue) signal completion.
func (d *Driver) invoke(name string, call func() bool) error {
	d.outbox.reset()
	sizesBefore := d.inboxSizes()

	start := time.Now()
	returnedTrue := call()
	elapsed := time.Since(start)

	metrics.CallbackLatency.WithLabelValues(d.name, name).Observe(elapsed.Seconds())
	if elapsed > StrictFailBudget && d.strict {
		return isb.ContractViolation{Operator: d.name, Detail: name + " exceeded strict time budget"}
	} else if elapsed > FailBudget {
		d.log.Errorw("callback exceeded time budget", "callback", name, "elapsed", elapsed)
	} else if elapsed > WarnBudget {
		d.log.Warnw("callback exceeded soft time budget", "callback", name, "elapsed", elapsed)
	}

	consumed := d.inboxShrank(sizesBefore)
	emitted := d.outbox.sinceReset() > 0
	if !consumed && !emitted && !returnedTrue {
		return isb.ContractViolation{Operator: d.name, Detail: name + " made no progress: did not consume, emit, or signal completion"}
	}
	return nil
}

func (d *Driver) inboxSizes() []int {
	sizes := make([]int, len(d.inputs))
	for i, in := range d.inputs {
		sizes[i] = in.inbox.Size()
	}
	return sizes
}

func (d *Driver) inboxShrank(before []int) bool {
	for i, in := range d.inputs {
		if in.inbox.Size() < before[i] {
			return true
		}
	}
	return false
}

// RunToCompletion repeatedly Steps d until Done or ctx is canceled.
func RunToCompletion(ctx context.Context, d *Driver) error {
	for !d.Done() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if err := d.Step(); err != nil {
			return err
		}
	}
	return nil
}
