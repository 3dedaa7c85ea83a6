package cogroup

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowmesh/vertex/internal/logging"
	"github.com/flowmesh/vertex/pkg/engine"
	"github.com/flowmesh/vertex/pkg/isb"
	"github.com/flowmesh/vertex/pkg/processor"
)

func ctx() processor.Context {
	return &processor.StaticContext{Vertex: "cogroup", Log: logging.NewLogger(), CancelCh: make(chan struct{})}
}

func keyedItem(key string, v int64) isb.Item {
	return isb.Item{Kind: isb.KindData, Key: key, Payload: v}
}

func itemPayload(item isb.Item) int64 { return item.Payload.(int64) }

// Two ordinals, one left (sum) one right (count), joined on a shared
// key space: left contributes sums, right contributes counts, and
// co-group folds both into one accumulator per key.
type pair struct {
	sum   int64
	count int64
}

func TestCoGroupTwoOrdinals(t *testing.T) {
	keyFns := []func(isb.Item) string{
		func(item isb.Item) string { return item.Key },
		func(item isb.Item) string { return item.Key },
	}
	accumulateFns := []func(pair, isb.Item) pair{
		func(acc pair, item isb.Item) pair {
			acc.sum += itemPayload(item)
			return acc
		},
		func(acc pair, item isb.Item) pair {
			acc.count++
			return acc
		},
	}
	op := New[pair, pair](keyFns, accumulateFns, func() pair { return pair{} }, func(acc pair) pair { return acc })

	ob := isb.NewBoundedOutbox(1, 32)
	left := isb.NewQueueInbox([]isb.Item{keyedItem("a", 1), keyedItem("a", 2), keyedItem("b", 10)})
	right := isb.NewQueueInbox([]isb.Item{keyedItem("a", 0), keyedItem("b", 0), keyedItem("b", 0)})

	d := engine.NewDriver("cogroup", op, ctx(), ob, []isb.Inbox{left, right}, false)
	d.MarkExhausted(0)
	d.MarkExhausted(1)
	require.NoError(t, engine.RunToCompletion(context.Background(), d))

	got := map[string]pair{}
	for _, item := range ob.Drain(0) {
		entry := item.Payload.(Entry[pair])
		got[entry.Key] = entry.Value
	}

	require.Len(t, got, 2)
	assert.Equal(t, pair{sum: 3, count: 1}, got["a"])
	assert.Equal(t, pair{sum: 10, count: 2}, got["b"])
}

// A key observed on only one ordinal still emits, folded through that
// ordinal's accumulate function alone.
func TestCoGroupKeyOnSingleOrdinal(t *testing.T) {
	keyFns := []func(isb.Item) string{func(item isb.Item) string { return item.Key }}
	accumulateFns := []func(int64, isb.Item) int64{
		func(acc int64, item isb.Item) int64 { return acc + itemPayload(item) },
	}
	op := New[int64, int64](keyFns, accumulateFns, func() int64 { return 0 }, func(acc int64) int64 { return acc })

	ob := isb.NewBoundedOutbox(1, 32)
	inbox := isb.NewQueueInbox([]isb.Item{keyedItem("x", 4), keyedItem("x", 5)})
	d := engine.NewDriver("cogroup", op, ctx(), ob, []isb.Inbox{inbox}, false)
	d.MarkExhausted(0)
	require.NoError(t, engine.RunToCompletion(context.Background(), d))

	entries := ob.Drain(0)
	require.Len(t, entries, 1)
	entry := entries[0].Payload.(Entry[int64])
	assert.Equal(t, "x", entry.Key)
	assert.Equal(t, int64(9), entry.Value)
}
