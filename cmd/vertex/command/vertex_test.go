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

package command

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// withStdin temporarily replaces os.Stdin with a pipe fed by body,
// restoring the original on return, so inmemStdinInbox (which reads
// os.Stdin directly) can be driven from a test.
func withStdin(t *testing.T, body string) {
	t.Helper()
	r, w, err := os.Pipe()
	require.NoError(t, err)
	_, err = w.WriteString(body)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	original := os.Stdin
	os.Stdin = r
	t.Cleanup(func() {
		os.Stdin = original
		_ = r.Close()
	})
}

func TestRunVertex_InmemDryRun(t *testing.T) {
	withStdin(t, "hello\nworld\n")

	dir := t.TempDir()
	path := filepath.Join(dir, "vertex.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
name: upper-dry-run
operator:
  kind: map-upper
input:
  type: inmem
output:
  type: inmem
  capacity: 16
`), 0o600))

	require.NoError(t, runVertex(path, false))
}

func TestRunVertex_UnknownOperatorKind(t *testing.T) {
	withStdin(t, "")

	dir := t.TempDir()
	path := filepath.Join(dir, "vertex.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
name: bad-operator
operator:
  kind: does-not-exist
input:
  type: inmem
output:
  type: inmem
`), 0o600))

	require.Error(t, runVertex(path, false))
}
