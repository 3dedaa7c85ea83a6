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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildEdges_InmemOutputOnly(t *testing.T) {
	cfg := &VertexConfig{
		Name:   "v",
		Output: EdgeConfig{Type: EdgeInmem, Capacity: 8},
	}
	edges, err := BuildEdges(cfg)
	require.NoError(t, err)
	assert.Nil(t, edges.Input)
	require.NotNil(t, edges.Output)
	assert.Equal(t, 1, edges.Output.NumOrdinals())
	require.NoError(t, edges.Close())
}

func TestBuildEdges_UnknownOutputType(t *testing.T) {
	cfg := &VertexConfig{
		Name:   "v",
		Output: EdgeConfig{Type: "carrier-pigeon"},
	}
	_, err := BuildEdges(cfg)
	require.Error(t, err)
}

func TestBuildEdges_UnknownInputType(t *testing.T) {
	cfg := &VertexConfig{
		Name:   "v",
		Input:  &EdgeConfig{Type: "carrier-pigeon"},
		Output: EdgeConfig{Type: EdgeInmem},
	}
	_, err := BuildEdges(cfg)
	require.Error(t, err)
}

func TestFirstOf(t *testing.T) {
	assert.Equal(t, "single", firstOf("single", []string{"a", "b"}))
	assert.Equal(t, "a", firstOf("", []string{"a", "b"}))
	assert.Equal(t, "", firstOf("", nil))
}

func TestDefaultBufferSize(t *testing.T) {
	assert.Equal(t, 256, defaultBufferSize(0))
	assert.Equal(t, 256, defaultBufferSize(-1))
	assert.Equal(t, 32, defaultBufferSize(32))
}

func TestNatsURL(t *testing.T) {
	assert.NotEmpty(t, natsURL(nil))
	assert.Equal(t, "a,b", natsURL([]string{"a", "b"}))
}
