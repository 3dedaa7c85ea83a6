package window

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowmesh/vertex/pkg/engine"
	"github.com/flowmesh/vertex/pkg/isb"
	"github.com/flowmesh/vertex/pkg/operators/aggregate"
)

// Invariant 7 at the windowing level: running a two-stage sliding sum
// (stage-1 accumulate-with-identity-finish, stage-2 combine-as-accumulate)
// over the same stream as the single-stage sum in TestScenarioS4SlidingSum
// must produce identical output.
func TestTwoStageSlidingSumMatchesSingleStage(t *testing.T) {
	def := Definition{FrameSize: 5 * time.Second, WindowSize: 10 * time.Second}
	sumOp := aggregate.Sum()

	stage1 := NewStage1[int64, int64](def, constKey, itemTime, itemValue, sumOp)
	stage2 := NewStage2[int64, int64, int64](def.FrameSize, sumOp)

	ob1 := isb.NewBoundedOutbox(1, 32)
	inbox1 := isb.NewQueueInbox([]isb.Item{
		dataItem(3, 1), dataItem(7, 1), dataItem(12, 1), wmItem(20),
	})
	d1 := engine.NewDriver("stage1", stage1, ctx(), ob1, []isb.Inbox{inbox1}, false)
	d1.MarkExhausted(0)
	require.NoError(t, engine.RunToCompletion(context.Background(), d1))

	stage1Out := ob1.Drain(0)
	stage1WMs := ob1.DrainWatermark(0)

	ob2 := isb.NewBoundedOutbox(1, 32)
	inbox2 := isb.NewQueueInbox(append(append([]isb.Item{}, stage1Out...), toWatermarkItems(stage1WMs)...))
	d2 := engine.NewDriver("stage2", stage2, ctx(), ob2, []isb.Inbox{inbox2}, false)
	d2.MarkExhausted(0)
	require.NoError(t, engine.RunToCompletion(context.Background(), d2))

	var entries []TimestampedEntry[int64]
	for _, item := range ob2.Drain(0) {
		entries = append(entries, item.Payload.(TimestampedEntry[int64]))
	}

	require.Len(t, entries, 4)
	wantEnds := []int64{5, 10, 15, 20}
	wantVals := []int64{1, 2, 2, 1}
	for i, e := range entries {
		assert.Equal(t, sec(wantEnds[i]), e.WindowEnd)
		assert.Equal(t, wantVals[i], e.Value)
	}
}

func toWatermarkItems(wms []isb.Watermark) []isb.Item {
	items := make([]isb.Item, len(wms))
	for i, wm := range wms {
		items[i] = isb.WatermarkItem(wm)
	}
	return items
}
