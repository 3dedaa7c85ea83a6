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

// Package jetstream is a real-transport isb.Inbox/isb.Outbox backend
// over a NATS JetStream stream, one subject per output ordinal, grounded
// on the teacher's pkg/isb/stores/jetstream writer (PublishMsg with
// nats.MsgId for dedup) and pkg/sources/jetstream reader (durable
// consumer feeding a buffered channel).
package jetstream

import (
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/flowmesh/vertex/internal/logging"
	"github.com/flowmesh/vertex/internal/retry"
	"github.com/flowmesh/vertex/pkg/isb"
)

var (
	_ isb.Outbox = (*Writer)(nil)
	_ isb.Inbox  = (*Reader)(nil)
)

// Writer implements isb.Outbox over one JetStream subject per ordinal,
// on a stream the caller has already declared with AddStream.
type Writer struct {
	js               nats.JetStreamContext
	subjects         []string // subjects[ordinal]
	snapshotSubject  string
	log              *zap.SugaredLogger

	pendingMask       []bool
	pendingItem       isb.Item
	broadcastInFlight bool
}

// NewWriter returns a Writer publishing to subjects[ordinal] and
// snapshotSubject on js.
func NewWriter(js nats.JetStreamContext, subjects []string, snapshotSubject string) *Writer {
	return &Writer{
		js:              js,
		subjects:        subjects,
		snapshotSubject: snapshotSubject,
		pendingMask:     make([]bool, len(subjects)),
		log:             logging.NewLogger(),
	}
}

func (w *Writer) NumOrdinals() int { return len(w.subjects) }

func (w *Writer) publish(subject string, payload []byte) bool {
	if _, err := w.js.Publish(subject, payload); err != nil {
		w.log.Errorw("jetstream publish failed", zap.String("subject", subject), zap.Error(err))
		return false
	}
	return true
}

func (w *Writer) offer(ordinal int, item isb.Item) bool {
	payload, err := isb.EncodeItem(item)
	if err != nil {
		w.log.Errorw("jetstream encode failed", zap.Error(err))
		return false
	}
	return w.publish(w.subjects[ordinal], payload)
}

func (w *Writer) Offer(ordinal int, item isb.Item) bool {
	return w.offer(ordinal, item)
}

func (w *Writer) OfferBroadcast(item isb.Item) bool {
	if !w.broadcastInFlight {
		w.broadcastInFlight = true
		w.pendingItem = item
		for i := range w.pendingMask {
			w.pendingMask[i] = true
		}
	}
	allDone := true
	for i, owed := range w.pendingMask {
		if !owed {
			continue
		}
		if w.offer(i, w.pendingItem) {
			w.pendingMask[i] = false
		} else {
			allDone = false
		}
	}
	if allDone {
		w.broadcastInFlight = false
	}
	return allDone
}

func (w *Writer) OfferWatermark(ordinal int, wm isb.Watermark) bool {
	return w.offer(ordinal, isb.WatermarkItem(wm))
}

func (w *Writer) OfferSnapshot(key string, value []byte) bool {
	item := isb.Item{Kind: isb.KindData, Key: key, Payload: value}
	payload, err := isb.EncodeItem(item)
	if err != nil {
		w.log.Errorw("jetstream snapshot encode failed", zap.Error(err))
		return false
	}
	return w.publish(w.snapshotSubject, payload)
}

// Reader consumes one JetStream subject through a durable pull
// subscription and exposes it as an isb.Inbox.
type Reader struct {
	*isb.ChannelInbox
	sub  *nats.Subscription
	log  *zap.SugaredLogger
	stop chan struct{}
	done chan struct{}
}

// NewReader creates (or reuses) durable on subject and starts a
// background pull loop feeding a buffered channel of the given
// capacity.
func NewReader(js nats.JetStreamContext, subject, durable string, bufferSize int) (*Reader, error) {
	sub, err := js.PullSubscribe(subject, durable)
	if err != nil {
		return nil, fmt.Errorf("jetstream: pull subscribe: %w", err)
	}

	ch := make(chan isb.Item, bufferSize)
	log := logging.NewLogger()
	r := &Reader{
		ChannelInbox: isb.NewChannelInbox(ch),
		sub:          sub,
		log:          log,
		stop:         make(chan struct{}),
		done:         make(chan struct{}),
	}
	go r.pull(ch)
	return r, nil
}

func (r *Reader) pull(ch chan<- isb.Item) {
	defer close(r.done)
	for {
		select {
		case <-r.stop:
			return
		default:
		}
		msgs, err := r.sub.Fetch(64, nats.MaxWait(time.Second))
		if err != nil {
			if err != nats.ErrTimeout {
				r.log.Errorw("jetstream fetch failed", zap.Error(err))
			}
			continue
		}
		for _, msg := range msgs {
			item, err := isb.DecodeItem(msg.Data)
			if err != nil {
				r.log.Errorw("jetstream decode failed, skipping message", zap.Error(err))
			} else {
				ch <- item
			}
			if err := retry.Do(func() error { return msg.Ack() }); err != nil {
				r.log.Errorw("jetstream ack failed after retries", zap.Error(err))
			}
		}
	}
}

// Close stops the pull loop and unsubscribes.
func (r *Reader) Close() error {
	close(r.stop)
	<-r.done
	return r.sub.Unsubscribe()
}
