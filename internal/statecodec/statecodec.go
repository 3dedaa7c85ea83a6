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

// Package statecodec encodes windowing and watermark accumulator state
// for snapshot capture, the same way the teacher's write-ahead log
// encodes isb.Message: encoding/gob over a byte buffer. Snapshot values
// are small, long-lived-in-memory records, not a wire protocol, so gob's
// self-describing format (no separate schema to keep in sync) fits
// better here than a generated-code serializer.
package statecodec

import (
	"bytes"
	"encoding/gob"
	"fmt"
)

// Encode gob-encodes v. A value that cannot be gob-encoded (e.g. an
// accumulator type with unexported fields) is a programmer error caught
// the first time a snapshot is taken, not a runtime condition to
// recover from.
func Encode(v any) []byte {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		panic(fmt.Errorf("statecodec: encode: %w", err))
	}
	return buf.Bytes()
}

// Decode gob-decodes data into *out.
func Decode(data []byte, out any) {
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(out); err != nil {
		panic(fmt.Errorf("statecodec: decode: %w", err))
	}
}
