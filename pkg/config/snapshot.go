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

package config

import (
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/flowmesh/vertex/internal/watermarkstore"
	"github.com/flowmesh/vertex/pkg/snapshot"
)

// BuildSnapshotStore returns the snapshot.Store cfg names. cmd/vertex
// uses it for every vertex, whatever its output edge type, since
// checkpoints go through SnapshottingOutbox rather than an edge Writer's
// own OfferSnapshot.
func BuildSnapshotStore(cfg SnapshotConfig) (snapshot.Store, error) {
	switch cfg.Type {
	case "", "memory":
		return snapshot.NewMemoryStore(), nil
	case "redis":
		client := redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{cfg.Addr}})
		hashKey := cfg.HashKey
		if hashKey == "" {
			hashKey = "vertex-snapshot"
		}
		return snapshot.NewRedisStore(client, hashKey), nil
	default:
		return nil, fmt.Errorf("config: unknown snapshot store type %q", cfg.Type)
	}
}

// BuildWatermarkStore returns the watermarkstore.Store a
// "watermark-insert" operator publishes to, or nil if kwargs names none.
// kwargs["watermarkStore"] selects "redis"; kwargs["watermarkStoreAddr"]
// and kwargs["watermarkStoreHashKey"] parameterize it.
func BuildWatermarkStore(kwargs map[string]string) (watermarkstore.Store, error) {
	switch kwargs["watermarkStore"] {
	case "", "none":
		return nil, nil
	case "redis":
		addr := kwargs["watermarkStoreAddr"]
		if addr == "" {
			return nil, fmt.Errorf("config: watermarkStore=redis requires watermarkStoreAddr")
		}
		hashKey := kwargs["watermarkStoreHashKey"]
		if hashKey == "" {
			hashKey = "vertex-watermarks"
		}
		client := redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{addr}})
		return watermarkstore.NewRedisStore(client, hashKey), nil
	default:
		return nil, fmt.Errorf("config: unknown watermarkStore %q", kwargs["watermarkStore"])
	}
}
