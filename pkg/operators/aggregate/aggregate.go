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

// Package aggregate defines AggregateOperation, the tuple of functions
// windowing operators compose over: create, per-input accumulate,
// combine, optional deduct, and finish.
package aggregate

// AggregateOperation bundles the five functions spec.md's windowing
// operators compose over. A is the accumulator type, IN the input item
// payload type, OUT the finished result type. Combine must be associative
// and commutative; Deduct, if supplied, is its inverse, enabling
// incremental re-windowing instead of a full re-fold.
type AggregateOperation[A, IN, OUT any] struct {
	Create     func() A
	Accumulate func(A, IN) A
	Combine    func(A, A) A
	Deduct     func(A, A) A // optional; nil if combine has no inverse
	Finish     func(A) OUT
}

// WithFinish returns a copy of op with Finish replaced, used to derive a
// stage-1 "identity" variant whose output carries the raw accumulator
// (spec §4.4.4).
func (op AggregateOperation[A, IN, OUT]) WithFinish(finish func(A) OUT) AggregateOperation[A, IN, OUT] {
	out := op
	out.Finish = finish
	return out
}

// WithCombiningAccumulate returns a copy of op whose Accumulate has been
// replaced by its own Combine, so a stage-2 operator can reuse the same
// struct to combine partial accumulators instead of accumulating raw
// input items (spec §4.4.4, "Stage-2 combine: ... use op.combine instead
// of op.accumulate").
func WithCombiningAccumulate[A, IN, OUT any](op AggregateOperation[A, IN, OUT]) AggregateOperation[A, A, OUT] {
	return AggregateOperation[A, A, OUT]{
		Create:     op.Create,
		Accumulate: op.Combine,
		Combine:    op.Combine,
		Deduct:     op.Deduct,
		Finish:     op.Finish,
	}
}

// Identity returns a Finish function that returns the accumulator
// unchanged, for stage-1 operators whose output carries raw accumulator
// state.
func Identity[A any]() func(A) A {
	return func(a A) A { return a }
}

// Sum returns an AggregateOperation summing int64 payloads, a common
// fixture for tests and examples.
func Sum() AggregateOperation[int64, int64, int64] {
	return AggregateOperation[int64, int64, int64]{
		Create:     func() int64 { return 0 },
		Accumulate: func(acc int64, v int64) int64 { return acc + v },
		Combine:    func(a, b int64) int64 { return a + b },
		Deduct:     func(a, b int64) int64 { return a - b },
		Finish:     Identity[int64](),
	}
}

// Count returns an AggregateOperation counting items of any payload type.
func Count[IN any]() AggregateOperation[int64, IN, int64] {
	return AggregateOperation[int64, IN, int64]{
		Create:     func() int64 { return 0 },
		Accumulate: func(acc int64, _ IN) int64 { return acc + 1 },
		Combine:    func(a, b int64) int64 { return a + b },
		Deduct:     func(a, b int64) int64 { return a - b },
		Finish:     Identity[int64](),
	}
}
