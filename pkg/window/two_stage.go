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

package window

import (
	"time"

	"github.com/flowmesh/vertex/pkg/isb"
	"github.com/flowmesh/vertex/pkg/operators/aggregate"
)

// NewStage1 builds the stage-1 half of a two-stage sliding window (spec
// §4.4.4): identical to a single-stage operator except Finish is
// replaced by the identity function, so each window-end emission carries
// the raw, still-combinable accumulator instead of a finished result.
func NewStage1[A, IN any](def Definition, keyFn func(isb.Item) string, tsFn func(isb.Item) time.Time, valueFn func(isb.Item) IN, op aggregate.AggregateOperation[A, IN, A]) *SlidingOperator[A, IN, A] {
	return NewSliding(def, keyFn, tsFn, valueFn, op.WithFinish(aggregate.Identity[A]()))
}

// NewStage2 builds the stage-2 half: it consumes TimestampedEntry[A]
// items emitted by one or more stage-1 partitions, keyed by
// TimestampedEntry.Key and timestamped by TimestampedEntry.WindowEnd,
// combining partial accumulators with op.Combine instead of accumulating
// raw input.
//
// Each stage-1 partition closes on the same grid, one frameSpacing
// apart, and every partition's emission for a given window-end already
// carries that window's full fold. Stage-2's own window must therefore
// be tumbling at exactly frameSpacing — one bucket per incoming
// window-end — so it only ever merges same-window-end partials across
// partitions (combine-only) rather than re-folding a window over
// multiple already-folded window-ends, which would double count the
// overlap a sliding stage-1 shares between adjacent windows.
func NewStage2[A, IN, OUT any](frameSpacing time.Duration, op aggregate.AggregateOperation[A, IN, OUT]) *SlidingOperator[A, A, OUT] {
	def := Definition{FrameSize: frameSpacing, WindowSize: frameSpacing}
	combining := aggregate.WithCombiningAccumulate(op)
	keyFn := func(item isb.Item) string {
		return item.Payload.(TimestampedEntry[A]).Key
	}
	tsFn := func(item isb.Item) time.Time {
		return item.Payload.(TimestampedEntry[A]).WindowEnd
	}
	valueFn := func(item isb.Item) A {
		return item.Payload.(TimestampedEntry[A]).Value
	}
	op2 := NewSliding(def, keyFn, tsFn, valueFn, combining)
	op2.FrameAligned = true
	return op2
}
