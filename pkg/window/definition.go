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

// Package window implements the frame-aligned sliding/tumbling window
// operator (spec §4.4.1): a per-key ordered map of frame accumulators,
// closed and emitted on watermark progression, grounded on the
// truncate-and-walk frame alignment idiom of the teacher's
// pkg/window/strategy/{fixed,sliding} packages.
package window

import "time"

// Definition describes a frame-aligned window: windowSize must be a
// positive multiple of frameSize. Tumbling windows are the special case
// frameSize == windowSize.
type Definition struct {
	FrameSize   time.Duration
	FrameOffset time.Duration
	WindowSize  time.Duration
}

// HigherFrameTs returns the smallest frame-end timestamp strictly greater
// than t that lies on this definition's frame grid (f ≡ frameOffset mod
// frameSize).
func (d Definition) HigherFrameTs(t time.Time) time.Time {
	frameSize := int64(d.FrameSize)
	offset := int64(d.FrameOffset) % frameSize
	if offset < 0 {
		offset += frameSize
	}
	tn := t.UnixNano()
	rem := (tn - offset) % frameSize
	if rem < 0 {
		rem += frameSize
	}
	f := tn - rem + frameSize
	return time.Unix(0, f)
}
