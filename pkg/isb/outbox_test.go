package isb

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBoundedOutboxOfferRespectsCapacity(t *testing.T) {
	ob := NewBoundedOutbox(1, 1)
	assert.True(t, ob.Offer(0, Item{Payload: "a"}))
	assert.False(t, ob.Offer(0, Item{Payload: "b"}), "bucket at capacity 1 must refuse a second offer")
	drained := ob.Drain(0)
	assert.Equal(t, []Item{{Payload: "a"}}, drained)
	assert.True(t, ob.Offer(0, Item{Payload: "b"}), "bucket must accept again once drained")
}

func TestBoundedOutboxBroadcastRetriesOnlyOutstandingOrdinals(t *testing.T) {
	ob := NewBoundedOutbox(2, 1)
	// Pre-fill ordinal 1 so the first broadcast only partially succeeds.
	assert.True(t, ob.Offer(1, Item{Payload: "prefill"}))

	item := Item{Payload: "broadcast"}
	assert.False(t, ob.OfferBroadcast(item), "partial broadcast must report false")
	assert.Equal(t, []Item{{Payload: "broadcast"}}, ob.Drain(0), "ordinal 0 should have received the item on first attempt")

	// Drain the prefill so ordinal 1 has room, then retry.
	assert.Equal(t, []Item{{Payload: "prefill"}}, ob.Drain(1))
	assert.True(t, ob.OfferBroadcast(item), "retry should complete the broadcast")
	assert.Equal(t, []Item{{Payload: "broadcast"}}, ob.Drain(1))
	assert.Empty(t, ob.Drain(0), "ordinal 0 must not receive the broadcast item twice")
}

func TestBoundedOutboxSnapshotBucket(t *testing.T) {
	ob := NewBoundedOutbox(1, 2)
	assert.True(t, ob.OfferSnapshot("k1", []byte("v1")))
	assert.True(t, ob.OfferSnapshot("k2", []byte("v2")))
	assert.False(t, ob.OfferSnapshot("k3", []byte("v3")), "snapshot bucket at capacity must refuse")
	got := ob.DrainSnapshot()
	assert.Equal(t, []SnapshotKV{{Key: "k1", Value: []byte("v1")}, {Key: "k2", Value: []byte("v2")}}, got)
}

func TestWatermarkOrdering(t *testing.T) {
	assert.True(t, Watermark(5).Before(Watermark(10)))
	assert.True(t, Watermark(10).After(Watermark(5)))
	assert.False(t, Watermark(5).After(Watermark(5)))
}
