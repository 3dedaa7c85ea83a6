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
	"container/list"
	"fmt"
	"strconv"
	"time"

	"github.com/flowmesh/vertex/internal/statecodec"
	"github.com/flowmesh/vertex/pkg/isb"
	"github.com/flowmesh/vertex/pkg/operators/aggregate"
	"github.com/flowmesh/vertex/pkg/processor"
)

// TimestampedEntry is the emission payload of a sliding/tumbling window
// close: (windowEnd, key, value).
type TimestampedEntry[OUT any] struct {
	WindowEnd time.Time
	Key       string
	Value     OUT
}

type frameEntry[A any] struct {
	end time.Time
	acc A
}

// keyFrames holds one key's retained frames, ordered ascending by end
// time via a container/list (mirroring pkg/window/strategy/fixed.go's
// doubly-linked list for O(1) amortized front/back access during
// window-close and late/early/middle insertion), plus an index for O(1)
// existence checks.
type keyFrames[A any] struct {
	order *list.List // of *frameEntry[A], ascending by end
	index map[int64]*list.Element
}

func newKeyFrames[A any]() *keyFrames[A] {
	return &keyFrames[A]{order: list.New(), index: map[int64]*list.Element{}}
}

func (kf *keyFrames[A]) getOrCreate(end time.Time, create func() A) *frameEntry[A] {
	key := end.UnixNano()
	if el, ok := kf.index[key]; ok {
		return el.Value.(*frameEntry[A])
	}
	fe := &frameEntry[A]{end: end, acc: create()}
	// scan from the back, since items normally arrive close to
	// non-decreasing event time (late/early/middle insertion, per the
	// teacher's fixed.go).
	var el *list.Element
	for e := kf.order.Back(); e != nil; e = e.Prev() {
		if e.Value.(*frameEntry[A]).end.Before(end) {
			el = kf.order.InsertAfter(fe, e)
			break
		}
	}
	if el == nil {
		el = kf.order.PushFront(fe)
	}
	kf.index[key] = el
	return fe
}

func (kf *keyFrames[A]) removeUpTo(bound time.Time) {
	for e := kf.order.Front(); e != nil; {
		next := e.Next()
		fe := e.Value.(*frameEntry[A])
		if fe.end.After(bound) {
			break
		}
		delete(kf.index, fe.end.UnixNano())
		kf.order.Remove(e)
		e = next
	}
}

func (kf *keyFrames[A]) isEmpty() bool { return kf.order.Len() == 0 }

// snapshot returns all retained frames ascending by end.
func (kf *keyFrames[A]) snapshot() []*frameEntry[A] {
	out := make([]*frameEntry[A], 0, kf.order.Len())
	for e := kf.order.Front(); e != nil; e = e.Next() {
		out = append(out, e.Value.(*frameEntry[A]))
	}
	return out
}

type keyState[A any] struct {
	frames        *keyFrames[A]
	lastEmittedWe time.Time // zero means nothing emitted yet
	seenWe        bool
}

// SlidingOperator implements spec §4.4.1: frame-aligned sliding (and, as
// the special case FrameSize==WindowSize, tumbling) window aggregation.
type SlidingOperator[A, IN, OUT any] struct {
	processor.BaseProcessor

	Def         Definition
	KeyFn       func(isb.Item) string
	TimestampFn func(isb.Item) time.Time
	ValueFn     func(isb.Item) IN
	Op          aggregate.AggregateOperation[A, IN, OUT]
	// FrameAligned selects the stage-2 combine input mode (spec §4.4.1:
	// "fe = w.higherFrameTs(ts(x)) (event-kind) or ts(x) (frame-kind,
	// for stage-2 combine)"): when true, TimestampFn's return value is
	// used directly as the frame end, since it already sits on the
	// grid; when false (the default, event-kind input), it is passed
	// through Def.HigherFrameTs.
	FrameAligned bool

	states map[string]*keyState[A]

	// closeQueue and pendingWM hold a watermark's worth of still-unsent
	// emissions, mirroring transform.flatMapProcessor's stashed-traverser
	// suspend/resume: Offer refusal must suspend, never spin, so a
	// close can straddle many Process calls.
	closeQueue []isb.Item
	pendingWM  *isb.Watermark

	snapshotQueue []isb.SnapshotKV
	snapshotBuilt bool
}

// NewSliding constructs an event-kind SlidingOperator: raw input items
// are assigned to frames via Def.HigherFrameTs. Use NewStage2 for the
// frame-kind combine stage of a two-stage variant.
func NewSliding[A, IN, OUT any](def Definition, keyFn func(isb.Item) string, tsFn func(isb.Item) time.Time, valueFn func(isb.Item) IN, op aggregate.AggregateOperation[A, IN, OUT]) *SlidingOperator[A, IN, OUT] {
	return &SlidingOperator[A, IN, OUT]{
		Def: def, KeyFn: keyFn, TimestampFn: tsFn, ValueFn: valueFn, Op: op,
		states: map[string]*keyState[A]{},
	}
}

func (s *SlidingOperator[A, IN, OUT]) stateFor(key string) *keyState[A] {
	st, ok := s.states[key]
	if !ok {
		st = &keyState[A]{frames: newKeyFrames[A]()}
		s.states[key] = st
	}
	return st
}

func (s *SlidingOperator[A, IN, OUT]) Process(ordinal int, inbox isb.Inbox) {
	if len(s.closeQueue) > 0 || s.pendingWM != nil {
		s.drain()
		return
	}
	item, ok := inbox.Poll()
	if !ok {
		return
	}
	if item.Kind == isb.KindWatermark {
		s.buildCloseQueue(item.WatermarkValue)
		wm := item.WatermarkValue
		s.pendingWM = &wm
		s.drain()
		return
	}
	if item.IsLate {
		return
	}
	ts := s.TimestampFn(item)
	fe := ts
	if !s.FrameAligned {
		fe = s.Def.HigherFrameTs(ts)
	}
	key := s.KeyFn(item)
	st := s.stateFor(key)
	frame := st.frames.getOrCreate(fe, s.Op.Create)
	frame.acc = s.Op.Accumulate(frame.acc, s.ValueFn(item))
}

// CompleteEdge keeps draining a close still in flight after its source
// edge runs dry: the watermark that triggered the close, and every
// emission it produced, must clear the outbox before the edge is
// reported exhausted.
func (s *SlidingOperator[A, IN, OUT]) CompleteEdge(ordinal int) bool {
	s.drain()
	return len(s.closeQueue) == 0 && s.pendingWM == nil
}

// drain offers queued close emissions in order, then the watermark that
// triggered the close, suspending (returning without consuming more
// input) the moment the outbox refuses one.
func (s *SlidingOperator[A, IN, OUT]) drain() {
	for len(s.closeQueue) > 0 {
		if !s.Outbox.Offer(0, s.closeQueue[0]) {
			return
		}
		s.closeQueue = s.closeQueue[1:]
	}
	if s.pendingWM != nil {
		if !s.Outbox.OfferWatermark(0, *s.pendingWM) {
			return
		}
		s.pendingWM = nil
	}
}

// buildCloseQueue computes, but does not yet offer, every window-end
// emission this watermark triggers across all keys, and deletes frames
// that have fallen out of retention.
//
// Window-end iteration is bounded above not by wm directly but by the
// coverage of each key's retained frames: we walk we from the earliest
// outstanding grid point, stepping by FrameSize, while
//
//	we <= min(wm, maxRetainedFrameEnd + WindowSize - FrameSize)
//
// Reading "emit every we <= wm on the grid" literally would walk the
// grid arbitrarily far past the last frame that ever received data.
// Bounding by the retained frames' own coverage instead matches the
// tumbling case (one frame == one window: exactly the frames that
// received data close, nothing beyond) and the sliding case (a window
// closes once its full span could have been fed by a retained frame).
func (s *SlidingOperator[A, IN, OUT]) buildCloseQueue(wm isb.Watermark) {
	wmTime := wm.Time()
	frameStep := s.Def.FrameSize

	for key, st := range s.states {
		if st.frames.isEmpty() {
			continue
		}
		frames := st.frames.snapshot()
		maxFrameEnd := frames[len(frames)-1].end
		boundary := maxFrameEnd.Add(s.Def.WindowSize - frameStep)
		if boundary.After(wmTime) {
			boundary = wmTime
		}

		var we time.Time
		if st.seenWe {
			we = st.lastEmittedWe.Add(frameStep)
		} else {
			we = frames[0].end
		}

		for !we.After(boundary) {
			acc := foldWindow(frames, we, s.Def.WindowSize, s.Op)
			out := s.Op.Finish(acc)
			s.closeQueue = append(s.closeQueue, isb.Item{
				Key: key, EventTime: we,
				Payload: TimestampedEntry[OUT]{WindowEnd: we, Key: key, Value: out},
			})
			st.lastEmittedWe = we
			st.seenWe = true
			we = we.Add(frameStep)
		}

		st.frames.removeUpTo(wmTime.Add(-s.Def.WindowSize))
		if st.frames.isEmpty() {
			delete(s.states, key)
		}
	}
}

// frameSnapshotKey and metaSnapshotKey give each retained frame, and each
// key's close-progress metadata, a unique snapshot key: (partitionKey,
// frameEndTs) for a frame per spec §4.5's recommended windowing schema,
// plus one extra per-key metadata record so lastEmittedWe/seenWe survive
// a restore (without it, a restored operator would re-emit windows the
// original instance had already closed, breaking the save/restore/
// finish indistinguishability contract).
func frameSnapshotKey(partitionKey string, frameEnd time.Time) string {
	return fmt.Sprintf("%s\x00%d", partitionKey, frameEnd.UnixNano())
}

func metaSnapshotKey(partitionKey string) string {
	return partitionKey + "\x00meta"
}

type slidingMeta struct {
	LastEmittedWe int64
	SeenWe        bool
}

// SaveSnapshot streams every retained frame plus one metadata record per
// key into the snapshot bucket, suspending on the first refusal and
// resuming the next call, per spec §4.5.
func (s *SlidingOperator[A, IN, OUT]) SaveSnapshot() bool {
	if !s.snapshotBuilt {
		s.snapshotQueue = s.snapshotQueue[:0]
		for key, st := range s.states {
			for _, f := range st.frames.snapshot() {
				s.snapshotQueue = append(s.snapshotQueue, isb.SnapshotKV{
					Key: frameSnapshotKey(key, f.end), Value: statecodec.Encode(f.acc),
				})
			}
			meta := slidingMeta{SeenWe: st.seenWe}
			if st.seenWe {
				meta.LastEmittedWe = st.lastEmittedWe.UnixNano()
			}
			s.snapshotQueue = append(s.snapshotQueue, isb.SnapshotKV{
				Key: metaSnapshotKey(key), Value: statecodec.Encode(meta),
			})
		}
		s.snapshotBuilt = true
	}
	for len(s.snapshotQueue) > 0 {
		kv := s.snapshotQueue[0]
		if !s.Outbox.OfferSnapshot(kv.Key, kv.Value) {
			return false
		}
		s.snapshotQueue = s.snapshotQueue[1:]
	}
	s.snapshotBuilt = false
	return true
}

// RestoreSnapshot rebuilds frames and per-key metadata from a batch of
// previously saved records. Frame and metadata records for the same key
// may arrive in either order, so both paths lazily create the key's
// state via stateFor.
func (s *SlidingOperator[A, IN, OUT]) RestoreSnapshot(pairs []isb.SnapshotKV) {
	for _, kv := range pairs {
		key, rest, isMeta := splitSnapshotKey(kv.Key)
		st := s.stateFor(key)
		if isMeta {
			var meta slidingMeta
			statecodec.Decode(kv.Value, &meta)
			st.seenWe = meta.SeenWe
			if meta.SeenWe {
				st.lastEmittedWe = time.Unix(0, meta.LastEmittedWe)
			}
			continue
		}
		nanos, err := strconv.ParseInt(rest, 10, 64)
		if err != nil {
			panic(fmt.Errorf("window: malformed snapshot key %q: %w", kv.Key, err))
		}
		frame := st.frames.getOrCreate(time.Unix(0, nanos), s.Op.Create)
		statecodec.Decode(kv.Value, &frame.acc)
	}
}

// FinishSnapshotRestore has nothing left to resolve: keyFrames' ordering
// invariant is already maintained incrementally by getOrCreate during
// RestoreSnapshot, so no derived structure needs rebuilding.
func (s *SlidingOperator[A, IN, OUT]) FinishSnapshotRestore() bool { return true }

func splitSnapshotKey(key string) (partitionKey, rest string, isMeta bool) {
	for i := len(key) - 1; i >= 0; i-- {
		if key[i] == 0 {
			rest = key[i+1:]
			return key[:i], rest, rest == "meta"
		}
	}
	return key, "", false
}

// foldWindow folds the frames covering (we-windowSize, we] using Combine,
// from Create(). Deduct-based incremental folding is an optimization left
// to a future pass; this always re-folds from the retained frames, which
// spec §4.4.1 names as the correct fallback when no running accumulator
// is maintained.
func foldWindow[A, IN, OUT any](frames []*frameEntry[A], we time.Time, windowSize time.Duration, op aggregate.AggregateOperation[A, IN, OUT]) A {
	lowerExclusive := we.Add(-windowSize)
	acc := op.Create()
	for _, f := range frames {
		if f.end.After(lowerExclusive) && !f.end.After(we) {
			acc = op.Combine(acc, f.acc)
		}
	}
	return acc
}
