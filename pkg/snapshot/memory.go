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

package snapshot

import "github.com/flowmesh/vertex/pkg/isb"

// MemoryStore is an in-process Store, grounded on the teacher's
// pbq/store/memory.memoryStore: a plain slice-backed bucket owned by a
// single worker, no locking required.
type MemoryStore struct {
	order  []string
	values map[string][]byte
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: map[string][]byte{}}
}

func (m *MemoryStore) Write(key string, value []byte) error {
	if _, ok := m.values[key]; !ok {
		m.order = append(m.order, key)
	}
	m.values[key] = value
	return nil
}

func (m *MemoryStore) ReadAll() ([]isb.SnapshotKV, error) {
	out := make([]isb.SnapshotKV, 0, len(m.order))
	for _, key := range m.order {
		out = append(out, isb.SnapshotKV{Key: key, Value: m.values[key]})
	}
	return out, nil
}

func (m *MemoryStore) Clear() error {
	m.order = nil
	m.values = map[string][]byte{}
	return nil
}

func (m *MemoryStore) Close() error { return nil }
