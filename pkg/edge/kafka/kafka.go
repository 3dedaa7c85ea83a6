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

// Package kafka is a real-transport isb.Inbox/isb.Outbox backend over
// Kafka topics, one topic per output ordinal, using sarama the same way
// the teacher's pkg/sources/kafka and pkg/sinks/kafka do: a consumer
// group handler feeding a buffered channel on the read side, a sync
// producer on the write side.
package kafka

import (
	"context"
	"fmt"

	"github.com/IBM/sarama"
	"go.uber.org/zap"

	"github.com/flowmesh/vertex/internal/logging"
	"github.com/flowmesh/vertex/pkg/isb"
)

var (
	_ isb.Outbox = (*Writer)(nil)
	_ isb.Inbox  = (*Reader)(nil)
)

// Writer implements isb.Outbox over one Kafka topic per ordinal.
// Watermarks are written as isb.KindWatermark-encoded records on the
// same topic as data, matching how edge/inmem interleaves markers with
// data on a single conduit rather than a side channel.
type Writer struct {
	producer sarama.SyncProducer
	topics   []string // topics[ordinal]
	log      *zap.SugaredLogger

	pendingMask       []bool
	pendingItem       isb.Item
	broadcastInFlight bool

	snapshotTopic string
}

// NewWriter connects a sarama.SyncProducer to brokers and returns a
// Writer with one output ordinal per entry in topics, plus a dedicated
// snapshotTopic for OfferSnapshot.
func NewWriter(brokers []string, topics []string, snapshotTopic string, config *sarama.Config) (*Writer, error) {
	if config == nil {
		config = sarama.NewConfig()
		config.Producer.Return.Successes = true
		config.Producer.RequiredAcks = sarama.WaitForAll
	}
	producer, err := sarama.NewSyncProducer(brokers, config)
	if err != nil {
		return nil, fmt.Errorf("kafka: new sync producer: %w", err)
	}
	return &Writer{
		producer:      producer,
		topics:        topics,
		snapshotTopic: snapshotTopic,
		pendingMask:   make([]bool, len(topics)),
		log:           logging.NewLogger(),
	}, nil
}

func (w *Writer) NumOrdinals() int { return len(w.topics) }

func (w *Writer) produce(topic string, key string, payload []byte) bool {
	msg := &sarama.ProducerMessage{Topic: topic, Value: sarama.ByteEncoder(payload)}
	if key != "" {
		msg.Key = sarama.StringEncoder(key)
	}
	if _, _, err := w.producer.SendMessage(msg); err != nil {
		w.log.Errorw("kafka produce failed", zap.String("topic", topic), zap.Error(err))
		return false
	}
	return true
}

func (w *Writer) offer(ordinal int, item isb.Item) bool {
	payload, err := isb.EncodeItem(item)
	if err != nil {
		w.log.Errorw("kafka encode failed", zap.Error(err))
		return false
	}
	return w.produce(w.topics[ordinal], item.Key, payload)
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
	return w.produce(w.snapshotTopic, key, value)
}

// Close releases the underlying sarama producer.
func (w *Writer) Close() error {
	return w.producer.Close()
}

// Reader consumes one Kafka topic through a consumer group and exposes
// it as an isb.Inbox, decoding each record back into an isb.Item.
type Reader struct {
	*isb.ChannelInbox
	group  sarama.ConsumerGroup
	topic  string
	log    *zap.SugaredLogger
	cancel context.CancelFunc
	done   chan struct{}
}

type consumerHandler struct {
	out chan<- isb.Item
	log *zap.SugaredLogger
}

func (h *consumerHandler) Setup(sarama.ConsumerGroupSession) error   { return nil }
func (h *consumerHandler) Cleanup(sarama.ConsumerGroupSession) error { return nil }
func (h *consumerHandler) ConsumeClaim(sess sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for msg := range claim.Messages() {
		item, err := isb.DecodeItem(msg.Value)
		if err != nil {
			h.log.Errorw("kafka decode failed, skipping record", zap.Error(err))
			sess.MarkMessage(msg, "")
			continue
		}
		h.out <- item
		sess.MarkMessage(msg, "")
	}
	return nil
}

// NewReader joins groupName on brokers, reading topic into a buffered
// channel of the given capacity.
func NewReader(brokers []string, groupName, topic string, bufferSize int, config *sarama.Config) (*Reader, error) {
	if config == nil {
		config = sarama.NewConfig()
		config.Consumer.Return.Errors = true
	}
	group, err := sarama.NewConsumerGroup(brokers, groupName, config)
	if err != nil {
		return nil, fmt.Errorf("kafka: new consumer group: %w", err)
	}
	ch := make(chan isb.Item, bufferSize)
	ctx, cancel := context.WithCancel(context.Background())
	log := logging.NewLogger()
	r := &Reader{
		ChannelInbox: isb.NewChannelInbox(ch),
		group:        group,
		topic:        topic,
		log:          log,
		cancel:       cancel,
		done:         make(chan struct{}),
	}
	handler := &consumerHandler{out: ch, log: log}

	go func() {
		defer close(r.done)
		for {
			if err := group.Consume(ctx, []string{topic}, handler); err != nil {
				if ctx.Err() != nil {
					return
				}
				log.Errorw("kafka consume error", zap.Error(err))
			}
			if ctx.Err() != nil {
				return
			}
		}
	}()
	go func() {
		for err := range group.Errors() {
			log.Errorw("kafka consumer group error", zap.Error(err))
		}
	}()
	return r, nil
}

// Close stops the consumer goroutine and closes the group.
func (r *Reader) Close() error {
	r.cancel()
	<-r.done
	return r.group.Close()
}
