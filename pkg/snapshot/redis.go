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
	"context"

	"github.com/redis/go-redis/v9"

	"github.com/flowmesh/vertex/internal/retry"
	"github.com/flowmesh/vertex/pkg/isb"
)

// redisCtx is used for every Redis call this store makes, mirroring the
// teacher's shared/clients/redis.RedisContext: a checkpoint sweep should
// still try to finish writing already-captured records even if the
// surrounding job context was canceled mid-sweep.
var redisCtx = context.Background()

// RedisStore persists one operator's snapshot bucket as a single Redis
// hash, one field per record key, grounded on the teacher's
// shared/clients/redis.RedisClient construction pattern.
type RedisStore struct {
	client  redis.UniversalClient
	hashKey string
}

// NewRedisStore returns a RedisStore backed by client, storing records
// under the given hash key. hashKey should be unique per operator
// instance (e.g. vertex name + partition index).
func NewRedisStore(client redis.UniversalClient, hashKey string) *RedisStore {
	return &RedisStore{client: client, hashKey: hashKey}
}

// Write retries transient failures under retry.DefaultBackoff: a
// checkpoint sweep already in flight should survive a blip rather than
// aborting the whole generation.
func (r *RedisStore) Write(key string, value []byte) error {
	return retry.Do(func() error {
		return r.client.HSet(redisCtx, r.hashKey, key, value).Err()
	})
}

func (r *RedisStore) ReadAll() ([]isb.SnapshotKV, error) {
	var fields map[string]string
	err := retry.Do(func() error {
		var err error
		fields, err = r.client.HGetAll(redisCtx, r.hashKey).Result()
		return err
	})
	if err != nil {
		return nil, err
	}
	out := make([]isb.SnapshotKV, 0, len(fields))
	for key, value := range fields {
		out = append(out, isb.SnapshotKV{Key: key, Value: []byte(value)})
	}
	return out, nil
}

func (r *RedisStore) Clear() error {
	return retry.Do(func() error {
		return r.client.Del(redisCtx, r.hashKey).Err()
	})
}

func (r *RedisStore) Close() error {
	return r.client.Close()
}
