package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/flowmesh/vertex/internal/logging"
	"github.com/flowmesh/vertex/pkg/isb"
	"github.com/flowmesh/vertex/pkg/processor"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func staticCtx() processor.Context {
	done := make(chan struct{})
	return &processor.StaticContext{Vertex: "test", Log: logging.NewLogger(), CancelCh: done}
}

// upperProc upper-cases every item it sees (scenario S1: map identity).
type upperProc struct {
	processor.BaseProcessor
}

func (p *upperProc) Process(ordinal int, inbox isb.Inbox) {
	item, ok := inbox.Poll()
	if !ok {
		return
	}
	s := item.Payload.(string)
	upper := make([]byte, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= 'a' && c <= 'z' {
			c -= 'a' - 'A'
		}
		upper[i] = c
	}
	p.Outbox.Offer(0, isb.Item{Payload: string(upper)})
}

func TestDriverMapScenario(t *testing.T) {
	ob := isb.NewBoundedOutbox(1, 8)
	inbox := isb.NewQueueInbox([]isb.Item{{Payload: "foo"}, {Payload: "bar"}})
	d := NewDriver("upper", &upperProc{}, staticCtx(), ob, []isb.Inbox{inbox}, false)
	d.MarkExhausted(0)

	require.NoError(t, RunToCompletion(context.Background(), d))
	assert.True(t, d.Done())
	assert.Equal(t, []isb.Item{{Payload: "FOO"}, {Payload: "BAR"}}, ob.Drain(0))
}

// silentProc never consumes, never emits, never signals completion —
// a contract violation.
type silentProc struct {
	processor.BaseProcessor
}

func (p *silentProc) TryProcess() bool { return false }

func (p *silentProc) Complete() bool { return false }

func TestDriverDetectsNoProgress(t *testing.T) {
	ob := isb.NewBoundedOutbox(1, 1)
	d := NewDriver("silent", &silentProc{}, staticCtx(), ob, nil, false)
	err := d.Step()
	assert.Error(t, err)
	var violation isb.ContractViolation
	assert.ErrorAs(t, err, &violation)
}

func TestWorkerPoolRunsMultipleDrivers(t *testing.T) {
	ob1 := isb.NewBoundedOutbox(1, 8)
	ob2 := isb.NewBoundedOutbox(1, 8)
	d1 := NewDriver("u1", &upperProc{}, staticCtx(), ob1, []isb.Inbox{isb.NewQueueInbox([]isb.Item{{Payload: "a"}})}, false)
	d1.MarkExhausted(0)
	d2 := NewDriver("u2", &upperProc{}, staticCtx(), ob2, []isb.Inbox{isb.NewQueueInbox([]isb.Item{{Payload: "b"}})}, false)
	d2.MarkExhausted(0)

	pool := NewWorkerPool(2, []*Driver{d1, d2})
	require.NoError(t, pool.Run(context.Background()))
	assert.Equal(t, []isb.Item{{Payload: "A"}}, ob1.Drain(0))
	assert.Equal(t, []isb.Item{{Payload: "B"}}, ob2.Drain(0))
}
