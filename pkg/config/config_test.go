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
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "vertex.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	path := writeConfig(t, `
name: upper
operator:
  kind: map-upper
output:
  type: inmem
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "upper", cfg.Name)
	assert.Equal(t, 1, cfg.Parallelism)
	assert.Equal(t, 30*time.Second, cfg.SnapshotInterval)
	assert.Equal(t, EdgeInmem, cfg.Output.Type)
	assert.Nil(t, cfg.Input)
}

func TestLoad_MissingName(t *testing.T) {
	path := writeConfig(t, `
operator:
  kind: map-upper
output:
  type: inmem
`)
	_, err := Load(path)
	require.Error(t, err)
}

func TestLoad_FullTopology(t *testing.T) {
	path := writeConfig(t, `
name: windowed-sum
parallelism: 2
strict: true
snapshotting: true
snapshotInterval: 5s
operator:
  kind: sum-window
  kwargs:
    frameSize: 1s
    windowSize: 2s
input:
  type: kafka
  brokers: ["localhost:9092"]
  topic: in-topic
  group: windowed-sum-group
output:
  type: kafka
  brokers: ["localhost:9092"]
  topic: out-topic
  snapshotName: out-topic-snapshot
snapshot:
  type: redis
  addr: localhost:6379
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.Parallelism)
	assert.True(t, cfg.Strict)
	assert.True(t, cfg.Snapshotting)
	assert.Equal(t, 5*time.Second, cfg.SnapshotInterval)
	require.NotNil(t, cfg.Input)
	assert.Equal(t, EdgeKafka, cfg.Input.Type)
	assert.Equal(t, "in-topic", cfg.Input.Topic)
	assert.Equal(t, EdgeKafka, cfg.Output.Type)
	assert.Equal(t, "redis", cfg.Snapshot.Type)
}
