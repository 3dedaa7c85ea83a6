package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowmesh/vertex/internal/logging"
	"github.com/flowmesh/vertex/pkg/engine"
	"github.com/flowmesh/vertex/pkg/isb"
	"github.com/flowmesh/vertex/pkg/operators/aggregate"
	"github.com/flowmesh/vertex/pkg/processor"
)

func ctx() processor.Context {
	return &processor.StaticContext{Vertex: "s", Log: logging.NewLogger(), CancelCh: make(chan struct{})}
}

func sec(n int64) time.Time { return time.Unix(n, 0) }

func keyed(ts int64, key string) isb.Item {
	return isb.Item{Kind: isb.KindData, Key: key, EventTime: sec(ts), Payload: key}
}

func wmItem(ts int64) isb.Item {
	return isb.WatermarkItem(isb.FromTime(sec(ts)))
}

func itemKey(item isb.Item) string     { return item.Key }
func itemTime(item isb.Item) time.Time { return item.EventTime }
func itemUnit(item isb.Item) string    { return item.Payload.(string) }

// S5: session merge — timeout=5, inputs (10,a)(12,a)(20,a)(22,a)(16,a),
// wm=100. After 16 arrives the sessions [10,17] and [20,27] merge into
// [10,27]. Expected single emission (10,27,a,4) then wm=100.
func TestScenarioS5SessionMerge(t *testing.T) {
	op := New[int64, string, int64](5*time.Second, itemKey, itemTime, itemUnit, aggregate.Count[string]())

	ob := isb.NewBoundedOutbox(1, 32)
	inbox := isb.NewQueueInbox([]isb.Item{
		keyed(10, "a"), keyed(12, "a"), keyed(20, "a"), keyed(22, "a"), keyed(16, "a"), wmItem(100),
	})
	d := engine.NewDriver("session", op, ctx(), ob, []isb.Inbox{inbox}, false)
	d.MarkExhausted(0)
	require.NoError(t, engine.RunToCompletion(context.Background(), d))

	var entries []Entry[int64]
	for _, item := range ob.Drain(0) {
		entries = append(entries, item.Payload.(Entry[int64]))
	}
	require.Len(t, entries, 1)
	assert.Equal(t, sec(10), entries[0].Start)
	assert.Equal(t, sec(27), entries[0].End)
	assert.Equal(t, "a", entries[0].Key)
	assert.Equal(t, int64(4), entries[0].Value)

	wms := ob.DrainWatermark(0)
	require.Len(t, wms, 1)
	assert.Equal(t, isb.FromTime(sec(100)), wms[0])
}

// A session that stays isolated (no overlapping neighbor ever arrives)
// simply extends itself; no merge occurs.
func TestSingleSessionNoMerge(t *testing.T) {
	op := New[int64, string, int64](5*time.Second, itemKey, itemTime, itemUnit, aggregate.Count[string]())

	ob := isb.NewBoundedOutbox(1, 32)
	inbox := isb.NewQueueInbox([]isb.Item{
		keyed(1, "a"), keyed(3, "a"), wmItem(20),
	})
	d := engine.NewDriver("session", op, ctx(), ob, []isb.Inbox{inbox}, false)
	d.MarkExhausted(0)
	require.NoError(t, engine.RunToCompletion(context.Background(), d))

	var entries []Entry[int64]
	for _, item := range ob.Drain(0) {
		entries = append(entries, item.Payload.(Entry[int64]))
	}
	require.Len(t, entries, 1)
	assert.Equal(t, sec(1), entries[0].Start)
	assert.Equal(t, sec(8), entries[0].End)
	assert.Equal(t, int64(2), entries[0].Value)
}

// Snapshot round-trip: two items accumulate into one session, a snapshot
// is taken, a fresh operator instance restores from it, and the merge
// triggered by the third (bridging) item behaves exactly as it would
// have in the original instance.
func TestSnapshotRoundTripThenMerge(t *testing.T) {
	op := New[int64, string, int64](5*time.Second, itemKey, itemTime, itemUnit, aggregate.Count[string]())
	op.Init(isb.NewBoundedOutbox(1, 32), ctx())

	first := isb.NewQueueInbox([]isb.Item{keyed(10, "a"), keyed(12, "a")})
	for !first.IsEmpty() {
		op.Process(0, first)
	}

	snapOb := isb.NewBoundedOutbox(1, 64)
	op.Outbox = snapOb
	require.True(t, op.SaveSnapshot())
	saved := snapOb.DrainSnapshot()
	require.NotEmpty(t, saved)

	restored := New[int64, string, int64](5*time.Second, itemKey, itemTime, itemUnit, aggregate.Count[string]())
	restored.RestoreSnapshot(saved)
	require.True(t, restored.FinishSnapshotRestore())

	ob := isb.NewBoundedOutbox(1, 32)
	inbox := isb.NewQueueInbox([]isb.Item{
		keyed(20, "a"), keyed(22, "a"), keyed(16, "a"), wmItem(100),
	})
	d := engine.NewDriver("session", restored, ctx(), ob, []isb.Inbox{inbox}, false)
	d.MarkExhausted(0)
	require.NoError(t, engine.RunToCompletion(context.Background(), d))

	var entries []Entry[int64]
	for _, item := range ob.Drain(0) {
		entries = append(entries, item.Payload.(Entry[int64]))
	}
	require.Len(t, entries, 1)
	assert.Equal(t, sec(10), entries[0].Start)
	assert.Equal(t, sec(27), entries[0].End)
	assert.Equal(t, int64(4), entries[0].Value)
}
