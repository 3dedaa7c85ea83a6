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

package isb

import "strconv"

// SimpleIntOffset adapts a bare int64-returning function into an Offset,
// for transports (e.g. the in-memory edge) with no real ack/nack work to
// do.
type SimpleIntOffset func() int64

func (s SimpleIntOffset) String() string {
	return strconv.FormatInt(s(), 10)
}

func (s SimpleIntOffset) Sequence() (int64, error) {
	return s(), nil
}

func (s SimpleIntOffset) AckIt() error {
	return nil
}

func (s SimpleIntOffset) NoAck() error {
	return nil
}

// SimpleStringOffset adapts a bare string-returning function into an
// Offset.
type SimpleStringOffset func() string

func (s SimpleStringOffset) String() string {
	return s()
}

func (s SimpleStringOffset) Sequence() (int64, error) {
	return strconv.ParseInt(s(), 10, 64)
}

func (s SimpleStringOffset) AckIt() error {
	return nil
}

func (s SimpleStringOffset) NoAck() error {
	return nil
}
