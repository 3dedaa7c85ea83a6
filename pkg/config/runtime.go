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
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// Tunables holds the slice of VertexConfig it's safe to change without
// restarting the process, reloaded on write the same way
// pkg/reconciler/config.go's GlobalConfig watches the controller
// configmap: a viper instance with WatchConfig/OnConfigChange guarded by
// a lock, scoped here to just the snapshot cadence, since the rest of a
// vertex's topology (its edges, its operator) is only ever read once at
// startup.
type Tunables struct {
	mu               sync.RWMutex
	snapshotInterval time.Duration
}

// SnapshotInterval returns the current cadence for the run command's
// periodic snapshot capture loop.
func (t *Tunables) SnapshotInterval() time.Duration {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.snapshotInterval
}

// WatchTunables loads the tunable subset of the document at path and
// keeps it current as the file changes on disk. initial supplies the
// starting value (normally the same VertexConfig.SnapshotInterval
// already loaded by Load) so a missing or malformed first read doesn't
// leave Tunables zero-valued.
func WatchTunables(path string, initial time.Duration, onErrorReloading func(error)) (*Tunables, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("config: watching %q: %w", path, err)
	}
	t := &Tunables{snapshotInterval: initial}
	v.WatchConfig()
	v.OnConfigChange(func(fsnotify.Event) {
		var cfg VertexConfig
		if err := v.Unmarshal(&cfg); err != nil {
			onErrorReloading(err)
			return
		}
		if cfg.SnapshotInterval <= 0 {
			return
		}
		t.mu.Lock()
		t.snapshotInterval = cfg.SnapshotInterval
		t.mu.Unlock()
	})
	return t, nil
}
