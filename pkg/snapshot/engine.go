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

import (
	"fmt"

	"github.com/flowmesh/vertex/internal/idcache"
	"github.com/flowmesh/vertex/pkg/isb"
	"github.com/flowmesh/vertex/pkg/processor"
)

// snapshotSource is the narrow slice of isb.BoundedOutbox an Engine
// needs: whatever the operator's own Outbox buffered via OfferSnapshot
// during one SaveSnapshot call.
type snapshotSource interface {
	DrainSnapshot() []isb.SnapshotKV
}

// Engine drives the checkpoint half of the processor contract: it
// calls SaveSnapshot (or RestoreSnapshot/FinishSnapshotRestore) in a
// loop, the same way engine.Driver loops Process/CompleteEdge/Complete,
// but on the separate checkpoint-barrier path spec §5 describes rather
// than engine.Driver's regular round-robin scheduling.
type Engine struct {
	operator string
	gens     *idcache.Cache
}

// NewEngine returns an Engine for the named operator, recalling
// the last genHistory checkpoint generation IDs captured (spec
// invariant: a replayed checkpoint barrier for an already-durable
// generation must not re-run the sweep).
func NewEngine(operatorName string, genHistory int) *Engine {
	return &Engine{operator: operatorName, gens: idcache.New(genHistory)}
}

// Capture runs proc.SaveSnapshot() to completion, draining src's
// snapshot bucket after every call and writing each record to store.
// Duplicate keys within one sweep are a ContractViolation (spec
// invariant: "Keys must be unique across a single snapshot capture").
// A generationID already captured is a no-op: the durable record from
// the prior attempt still stands.
func (c *Engine) Capture(generationID string, proc processor.Processor, src snapshotSource, store Store) error {
	if c.gens.SeenBefore(generationID) {
		return nil
	}
	if err := store.Clear(); err != nil {
		return fmt.Errorf("snapshot: clearing store for generation %q: %w", generationID, err)
	}
	seen := map[string]struct{}{}
	for {
		done := proc.SaveSnapshot()
		for _, kv := range src.DrainSnapshot() {
			if _, dup := seen[kv.Key]; dup {
				return isb.ContractViolation{
					Operator: c.operator,
					Detail:   fmt.Sprintf("duplicate snapshot key %q in generation %q", kv.Key, generationID),
				}
			}
			seen[kv.Key] = struct{}{}
			if err := store.Write(kv.Key, kv.Value); err != nil {
				return fmt.Errorf("snapshot: writing key %q: %w", kv.Key, err)
			}
		}
		if done {
			return nil
		}
	}
}

// Restore reads every record back from store and feeds it to proc in
// batches of at most batchSize, then loops FinishSnapshotRestore to
// completion, per spec §4.5's restore/finish sequence.
func (c *Engine) Restore(proc processor.Processor, store Store, batchSize int) error {
	if batchSize <= 0 {
		batchSize = 1
	}
	all, err := store.ReadAll()
	if err != nil {
		return fmt.Errorf("snapshot: reading store: %w", err)
	}
	for i := 0; i < len(all); i += batchSize {
		end := i + batchSize
		if end > len(all) {
			end = len(all)
		}
		proc.RestoreSnapshot(all[i:end])
	}
	for !proc.FinishSnapshotRestore() {
	}
	return nil
}
