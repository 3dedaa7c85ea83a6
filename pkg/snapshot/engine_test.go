package snapshot

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
	"github.com/flowmesh/vertex/pkg/window"
)

func ctx() processor.Context {
	return &processor.StaticContext{Vertex: "snap", Log: logging.NewLogger(), CancelCh: make(chan struct{})}
}

func sec(n int64) time.Time { return time.Unix(n, 0) }

func dataItem(ts, v int64) isb.Item {
	return isb.Item{Kind: isb.KindData, EventTime: sec(ts), Payload: v}
}

func wmItem(ts int64) isb.Item {
	return isb.WatermarkItem(isb.FromTime(sec(ts)))
}

func constKey(isb.Item) string         { return "k" }
func itemTime(item isb.Item) time.Time { return item.EventTime }
func itemValue(item isb.Item) int64    { return item.Payload.(int64) }

func slidingDef() window.Definition {
	return window.Definition{FrameSize: 5 * time.Second, WindowSize: 10 * time.Second}
}

func newSlidingSum() *window.SlidingOperator[int64, int64, int64] {
	return window.NewSliding[int64, int64, int64](slidingDef(), constKey, itemTime, itemValue, aggregate.Sum())
}

// Reruns S4's scenario through an Engine-driven capture/restore
// instead of calling SaveSnapshot/RestoreSnapshot directly: after the
// first three items, Capture persists the operator's bucket into a
// MemoryStore, a brand-new operator instance is Restore-d from that
// store, and delivering wm=20 to it must reproduce S4's exact output.
func TestCoordinatorCaptureThenRestoreReproducesScenario(t *testing.T) {
	op := newSlidingSum()
	snapBox := isb.NewBoundedOutbox(1, 64)
	op.Init(snapBox, ctx())

	first := isb.NewQueueInbox([]isb.Item{dataItem(3, 1), dataItem(7, 1), dataItem(12, 1)})
	for !first.IsEmpty() {
		op.Process(0, first)
	}

	store := NewMemoryStore()
	eng := NewEngine("sliding-sum", 8)
	require.NoError(t, eng.Capture("gen-1", op, snapBox, store))

	all, err := store.ReadAll()
	require.NoError(t, err)
	assert.NotEmpty(t, all)

	restored := newSlidingSum()
	restored.Init(isb.NewBoundedOutbox(1, 32), ctx())
	require.NoError(t, eng.Restore(restored, store, 2))

	ob := isb.NewBoundedOutbox(1, 32)
	inbox := isb.NewQueueInbox([]isb.Item{wmItem(20)})
	d := engine.NewDriver("window", restored, ctx(), ob, []isb.Inbox{inbox}, false)
	d.MarkExhausted(0)
	require.NoError(t, engine.RunToCompletion(context.Background(), d))

	var entries []window.TimestampedEntry[int64]
	for _, item := range ob.Drain(0) {
		entries = append(entries, item.Payload.(window.TimestampedEntry[int64]))
	}
	require.Len(t, entries, 4)
	wantEnds := []int64{5, 10, 15, 20}
	wantVals := []int64{1, 2, 2, 1}
	for i, e := range entries {
		assert.Equal(t, sec(wantEnds[i]), e.WindowEnd)
		assert.Equal(t, wantVals[i], e.Value)
	}
}

// A repeated Capture call under the same generation ID must not re-run
// the sweep: the store keeps whatever the first sweep wrote, even if
// the operator's in-memory state has since changed.
func TestCoordinatorCaptureSkipsReplayedGeneration(t *testing.T) {
	op := newSlidingSum()
	box := isb.NewBoundedOutbox(1, 64)
	op.Init(box, ctx())

	inbox := isb.NewQueueInbox([]isb.Item{dataItem(3, 1)})
	for !inbox.IsEmpty() {
		op.Process(0, inbox)
	}

	store := NewMemoryStore()
	eng := NewEngine("sliding-sum", 8)
	require.NoError(t, eng.Capture("gen-1", op, box, store))
	firstSnapshot, err := store.ReadAll()
	require.NoError(t, err)
	require.NotEmpty(t, firstSnapshot)

	more := isb.NewQueueInbox([]isb.Item{dataItem(8, 1)})
	for !more.IsEmpty() {
		op.Process(0, more)
	}

	require.NoError(t, eng.Capture("gen-1", op, box, store))
	secondSnapshot, err := store.ReadAll()
	require.NoError(t, err)
	assert.Equal(t, firstSnapshot, secondSnapshot, "a replayed generation must not overwrite the durable snapshot")
}

// A duplicate key written twice within one sweep is a contract
// violation: the snapshotSource here simulates an operator that
// (incorrectly) offers the same key twice before signalling done.
type duplicatingSource struct {
	offered bool
}

func (d *duplicatingSource) DrainSnapshot() []isb.SnapshotKV {
	if d.offered {
		return nil
	}
	d.offered = true
	return []isb.SnapshotKV{{Key: "dup", Value: []byte("a")}, {Key: "dup", Value: []byte("b")}}
}

type alwaysDoneProcessor struct {
	processor.BaseProcessor
}

func (*alwaysDoneProcessor) SaveSnapshot() bool { return true }

func TestCoordinatorCaptureRejectsDuplicateKey(t *testing.T) {
	eng := NewEngine("dup-test", 8)
	store := NewMemoryStore()
	err := eng.Capture("gen-dup", &alwaysDoneProcessor{}, &duplicatingSource{}, store)
	require.Error(t, err)
	var violation isb.ContractViolation
	require.ErrorAs(t, err, &violation)
	assert.Equal(t, "dup-test", violation.Operator)
}
