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

func TestWatchTunables_InitialValue(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "vertex.yaml")
	require.NoError(t, os.WriteFile(path, []byte("name: v\nsnapshotInterval: 10s\n"), 0o600))

	tun, err := WatchTunables(path, 10*time.Second, func(error) {})
	require.NoError(t, err)
	assert.Equal(t, 10*time.Second, tun.SnapshotInterval())
}

func TestWatchTunables_ReloadsOnChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "vertex.yaml")
	require.NoError(t, os.WriteFile(path, []byte("name: v\nsnapshotInterval: 10s\n"), 0o600))

	tun, err := WatchTunables(path, 10*time.Second, func(error) {})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, []byte("name: v\nsnapshotInterval: 45s\n"), 0o600))

	require.Eventually(t, func() bool {
		return tun.SnapshotInterval() == 45*time.Second
	}, 2*time.Second, 10*time.Millisecond)
}
