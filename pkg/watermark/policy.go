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

// Package watermark implements the watermark-insertion operator (spec
// §4.4.3): a stateful Policy tracks the current watermark as items
// arrive, an EmissionPolicy decides whether a new candidate is worth
// forwarding, and InsertOperator wires the two into the processor
// contract.
package watermark

import (
	"time"

	"go.uber.org/atomic"

	"github.com/flowmesh/vertex/pkg/isb"
)

// Policy computes a watermark candidate from observed event timestamps
// and the passage of wall-clock time.
type Policy interface {
	// OnEvent folds one event's timestamp into the policy's state.
	OnEvent(ts time.Time)
	// OnPeriodic folds the passage of wall-clock time into the policy's
	// state, for idle-source advancement.
	OnPeriodic()
	// CurrentWatermark returns the policy's current candidate.
	CurrentWatermark() isb.Watermark
}

// BoundedOutOfOrderliness is a Policy tolerating events up to
// maxLateness out of order: its candidate trails the highest event
// timestamp seen by maxLateness, grounded on the teacher pack's
// boundedOutOfOrderlinessWatermarkGeneratorFn (max timestamp seen minus
// an allowed-lateness bound).
type BoundedOutOfOrderliness struct {
	maxLateness  time.Duration
	maxTimestamp int64 // UnixNano of the highest event ts observed
	seen         bool
}

// NewBoundedOutOfOrderliness constructs a BoundedOutOfOrderliness policy.
func NewBoundedOutOfOrderliness(maxLateness time.Duration) *BoundedOutOfOrderliness {
	return &BoundedOutOfOrderliness{maxLateness: maxLateness}
}

func (p *BoundedOutOfOrderliness) OnEvent(ts time.Time) {
	n := ts.UnixNano()
	if !p.seen || n > p.maxTimestamp {
		p.maxTimestamp = n
		p.seen = true
	}
}

func (p *BoundedOutOfOrderliness) OnPeriodic() {}

func (p *BoundedOutOfOrderliness) CurrentWatermark() isb.Watermark {
	if !p.seen {
		return isb.InitialWatermark
	}
	return isb.FromTime(time.Unix(0, p.maxTimestamp).Add(-p.maxLateness))
}

// EmissionPolicy decides whether a new watermark candidate is worth
// forwarding, given the last value actually emitted.
type EmissionPolicy interface {
	ShouldEmit(candidate, lastEmitted isb.Watermark) bool
}

// StrictlyIncreasing emits only when the candidate strictly exceeds the
// last emitted value, the default and simplest EmissionPolicy, matching
// the invariant that watermark output is strictly increasing whenever
// more than one value is emitted (spec §8 invariant 2).
type StrictlyIncreasing struct{}

func (StrictlyIncreasing) ShouldEmit(candidate, lastEmitted isb.Watermark) bool {
	return candidate.After(lastEmitted)
}

// IdlenessTimer tracks whether a policy has seen new activity since the
// last check, to let InsertOperator mark idle sources separately from
// advancing their watermark via wall-clock alone. Grounded on the
// teacher pack's IdlenessTimer (counter/lastCounter/startOfInactivity).
type IdlenessTimer struct {
	counter                int64
	lastCounter            int64
	startOfInactivityNanos int64
	maxIdleNanos           int64
	now                    func() time.Time
}

// NewIdlenessTimer constructs an IdlenessTimer with the given idle
// threshold, using now for wall-clock reads (overridable in tests).
func NewIdlenessTimer(maxIdle time.Duration, now func() time.Time) *IdlenessTimer {
	return &IdlenessTimer{maxIdleNanos: int64(maxIdle), now: now}
}

// Activity records that the source produced an item.
func (t *IdlenessTimer) Activity() { t.counter++ }

// IsIdle reports whether no activity has occurred for at least the idle
// threshold since the last call that saw activity.
func (t *IdlenessTimer) IsIdle() bool {
	if t.counter != t.lastCounter {
		t.lastCounter = t.counter
		t.startOfInactivityNanos = 0
		return false
	}
	n := t.now().UnixNano()
	if t.startOfInactivityNanos == 0 {
		t.startOfInactivityNanos = n
		return false
	}
	return n-t.startOfInactivityNanos >= t.maxIdleNanos
}

// CurrentGauge is an atomic holder of the operator's last emitted
// watermark, readable from another goroutine without locking.
// internal/metrics' WatermarkValue is set alongside it, not read from it.
type CurrentGauge struct {
	v atomic.Int64
}

func (g *CurrentGauge) Store(wm isb.Watermark) { g.v.Store(int64(wm)) }
func (g *CurrentGauge) Load() isb.Watermark    { return isb.Watermark(g.v.Load()) }
