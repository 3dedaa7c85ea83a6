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

// Package snapshot drives the saveSnapshot/restoreSnapshot/
// finishSnapshotRestore half of the processor contract (spec §4.5): an
// Engine captures one operator's snapshot bucket into a durable
// Store, and restores it back into a freshly constructed instance of
// the same operator.
package snapshot

import "github.com/flowmesh/vertex/pkg/isb"

// Store persists one operator's snapshot records durably, the
// counterpart to the teacher's pbq/store.Store (write/read/close/gc)
// generalized from streamed partition messages to a full (key, value)
// bucket captured and replaced wholesale each sweep.
type Store interface {
	// Write persists one (key, value) record.
	Write(key string, value []byte) error
	// ReadAll returns every record currently persisted.
	ReadAll() ([]isb.SnapshotKV, error)
	// Clear removes every record, called before a fresh capture so a
	// key dropped since the last sweep (e.g. a window that closed and
	// no longer has an accumulator) cannot resurrect on restore.
	Clear() error
	// Close releases any held resources.
	Close() error
}
