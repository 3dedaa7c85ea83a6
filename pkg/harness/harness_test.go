package harness

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowmesh/vertex/internal/logging"
	"github.com/flowmesh/vertex/pkg/edge/inmem"
	"github.com/flowmesh/vertex/pkg/isb"
	"github.com/flowmesh/vertex/pkg/operators/transform"
	"github.com/flowmesh/vertex/pkg/processor"
)

func sec(n int64) time.Time { return time.Unix(n, 0) }

func testCtx(name string) processor.Context {
	return &processor.StaticContext{Vertex: name, Log: logging.NewLogger(), CancelCh: make(chan struct{})}
}

func intItem(v int) isb.Item { return isb.Item{Kind: isb.KindData, Payload: v} }

func drainEdge(e *inmem.Edge) []isb.Item {
	inbox := e.Inbox()
	var out []isb.Item
	for {
		item, ok := inbox.Poll()
		if !ok {
			return out
		}
		out = append(out, item)
	}
}

// Two real vertices connected by an inmem.Edge: a source applying
// map(x -> 2x), and downstream a filter(x % 4 == 0), composing S1's map
// semantics and S2's filter semantics across a genuine edge rather than
// a single Process call, so the harness's own wiring — Driver,
// inmem.Outbox fan-out, EdgeInbox draining, exhaustion propagation — is
// exercised end to end.
func TestTopologyChainsMapThenFilterAcrossEdges(t *testing.T) {
	top := NewTopology()

	doubler := transform.Map(func(item isb.Item) (isb.Item, bool) {
		return intItem(item.Payload.(int) * 2), true
	})
	source := top.Add(NewSourceVertex("doubler", doubler, testCtx("doubler"),
		[]isb.Inbox{isb.NewQueueInbox([]isb.Item{intItem(1), intItem(2), intItem(3), intItem(4)})},
		1, 8, false))
	source.MarkSourceExhausted(0)

	keepMultiplesOfFour := transform.Filter(func(item isb.Item) bool {
		return item.Payload.(int)%4 == 0
	})
	sink := top.Add(NewVertex("keep-mult-4", keepMultiplesOfFour, testCtx("keep-mult-4"),
		[]*inmem.Edge{source.Output(0)}, 1, 8, false))

	require.NoError(t, top.Run(context.Background()))

	got := drainEdge(sink.Output(0))
	require.Len(t, got, 2)
	assert.Equal(t, 4, got[0].Payload)
	assert.Equal(t, 8, got[1].Payload)
}

// ShuffleForward must route every item for a given key to the same
// output partition every time, and broadcast watermarks to all
// partitions, using internal/shuffle's consistent-hash routing.
func TestShuffleForwardRoutesConsistentlyByKey(t *testing.T) {
	const partitions = 3
	top := NewTopology()

	items := []isb.Item{
		{Kind: isb.KindData, Key: "a", Payload: 1},
		{Kind: isb.KindData, Key: "b", Payload: 2},
		{Kind: isb.KindData, Key: "a", Payload: 3},
		isb.WatermarkItem(isb.FromTime(sec(10))),
		{Kind: isb.KindData, Key: "b", Payload: 4},
	}
	source := top.Add(NewSourceVertex("source", NewShuffleForward(partitions), testCtx("source"),
		[]isb.Inbox{isb.NewQueueInbox(items)}, partitions, 8, false))
	source.MarkSourceExhausted(0)

	require.NoError(t, top.Run(context.Background()))

	perPartition := make([][]isb.Item, partitions)
	for i := 0; i < partitions; i++ {
		perPartition[i] = drainEdge(source.Output(i))
	}

	keyToPartition := map[string]int{}
	total := 0
	watermarkCount := 0
	for i, items := range perPartition {
		for _, item := range items {
			if item.Kind == isb.KindWatermark {
				watermarkCount++
				continue
			}
			total++
			if prior, seen := keyToPartition[item.Key]; seen {
				assert.Equal(t, prior, i, "key %q must always route to the same partition", item.Key)
			} else {
				keyToPartition[item.Key] = i
			}
		}
	}
	assert.Equal(t, 4, total)
	assert.Equal(t, partitions, watermarkCount, "a watermark must be broadcast to every partition")
}
