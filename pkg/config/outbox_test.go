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

	"github.com/flowmesh/vertex/pkg/isb"
)

func TestSnapshottingOutbox_DataAndSnapshotAreSeparate(t *testing.T) {
	data := isb.NewBoundedOutbox(1, 4)
	box := NewSnapshottingOutbox(data, 4)

	require.True(t, box.Offer(0, isb.Item{Kind: isb.KindData, Payload: "x"}))
	require.True(t, box.OfferSnapshot("k", []byte("v")))

	// The data item landed on the wrapped data outbox, not the
	// snapshot bucket, and vice versa.
	assert.Empty(t, data.DrainSnapshot())
	items := data.Drain(0)
	require.Len(t, items, 1)
	assert.Equal(t, "x", items[0].Payload)

	snaps := box.DrainSnapshot()
	require.Len(t, snaps, 1)
	assert.Equal(t, "k", snaps[0].Key)
	assert.Equal(t, []byte("v"), snaps[0].Value)
}

func TestSnapshottingOutbox_NumOrdinalsDelegates(t *testing.T) {
	data := isb.NewBoundedOutbox(3, 1)
	box := NewSnapshottingOutbox(data, 1)
	assert.Equal(t, 3, box.NumOrdinals())
}
