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

// Package watermarkstore persists each vertex's most recently emitted
// watermark somewhere visible outside the process running it, the
// narrow slice of the teacher's pkg/watermark/store.WatermarkKVStorer
// (PutKV/GetValue/GetAllKeys/DeleteKey) this module actually needs: a
// vertex's own watermark.InsertOperator already recovers its emitted
// value through pkg/snapshot, so this store exists for the case
// pkg/snapshot doesn't cover — a second process (a monitoring sidecar,
// a replay driver deciding whether an upstream vertex has caught up)
// reading a vertex's current watermark without attaching to its
// snapshot state.
package watermarkstore

import (
	"context"

	"github.com/redis/go-redis/v9"

	"github.com/flowmesh/vertex/internal/retry"
	"github.com/flowmesh/vertex/pkg/isb"
)

// Store publishes and fetches a vertex's current watermark.
type Store interface {
	// PutWatermark records vertex's most recently emitted watermark.
	PutWatermark(ctx context.Context, vertex string, wm isb.Watermark) error
	// GetWatermark returns vertex's last recorded watermark, or
	// isb.InitialWatermark with ok false if nothing has been recorded
	// yet.
	GetWatermark(ctx context.Context, vertex string) (wm isb.Watermark, ok bool, err error)
	// Vertices lists every vertex name with a recorded watermark.
	Vertices(ctx context.Context) ([]string, error)
	// DeleteWatermark removes a vertex's recorded watermark, e.g. when
	// the vertex is scaled down or removed from the topology.
	DeleteWatermark(ctx context.Context, vertex string) error
	// Close releases the store's resources.
	Close() error
}

// RedisStore persists every vertex's watermark as one field in a single
// Redis hash, the same one-hash-per-bucket shape as
// pkg/snapshot.RedisStore, keyed by vertex name instead of a snapshot
// record key.
type RedisStore struct {
	client  redis.UniversalClient
	hashKey string
}

// NewRedisStore returns a RedisStore backed by client, storing watermarks
// under the given hash key (typically the pipeline name, so every
// vertex in a pipeline shares one hash).
func NewRedisStore(client redis.UniversalClient, hashKey string) *RedisStore {
	return &RedisStore{client: client, hashKey: hashKey}
}

// PutWatermark retries transient failures under retry.DefaultBackoff: a
// watermark publish losing a single race with a blip on the Redis side
// shouldn't silently stall every external reader of this vertex's
// progress until the next successful emission.
func (s *RedisStore) PutWatermark(ctx context.Context, vertex string, wm isb.Watermark) error {
	return retry.Do(func() error {
		return s.client.HSet(ctx, s.hashKey, vertex, int64(wm)).Err()
	})
}

func (s *RedisStore) GetWatermark(ctx context.Context, vertex string) (isb.Watermark, bool, error) {
	raw, err := s.client.HGet(ctx, s.hashKey, vertex).Int64()
	if err == redis.Nil {
		return isb.InitialWatermark, false, nil
	}
	if err != nil {
		return isb.InitialWatermark, false, err
	}
	return isb.Watermark(raw), true, nil
}

func (s *RedisStore) Vertices(ctx context.Context) ([]string, error) {
	fields, err := s.client.HKeys(ctx, s.hashKey).Result()
	if err != nil {
		return nil, err
	}
	return fields, nil
}

func (s *RedisStore) DeleteWatermark(ctx context.Context, vertex string) error {
	return s.client.HDel(ctx, s.hashKey, vertex).Err()
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
