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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRootCommand_RegistersSubcommands(t *testing.T) {
	root := NewRootCommand()
	run, _, err := root.Find([]string{"run"})
	require.NoError(t, err)
	assert.Equal(t, "run", run.Name())

	replay, _, err := root.Find([]string{"replay"})
	require.NoError(t, err)
	assert.Equal(t, "replay", replay.Name())
}

func TestNewRunCommand_RequiresConfigFlag(t *testing.T) {
	cmd := NewRunCommand()
	cmd.SetArgs([]string{})
	err := cmd.Execute()
	require.Error(t, err)
}

func TestRunVertex_UnreadableConfig(t *testing.T) {
	err := runVertex("/nonexistent/path/vertex.yaml", false)
	require.Error(t, err)
}
