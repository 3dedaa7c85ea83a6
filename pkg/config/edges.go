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
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/IBM/sarama"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"

	"github.com/flowmesh/vertex/pkg/edge/jetstream"
	"github.com/flowmesh/vertex/pkg/edge/kafka"
	"github.com/flowmesh/vertex/pkg/edge/redisstream"
	"github.com/flowmesh/vertex/pkg/isb"
)

// Edges is the wired isb.Inbox/isb.Outbox pair for one vertex plus the
// Close hook for whatever connections building them opened. Input is
// nil for a source vertex (cfg.Input == nil).
type Edges struct {
	Input  isb.Inbox
	Output isb.Outbox
	Close  func() error
}

// BuildEdges constructs the Input/Output edges named by cfg, dialing out
// to the real transport(s) it selects. The registered operator kinds
// this module ships are all single-output (ordinal 0), so every backend
// here is built with exactly one output ordinal.
func BuildEdges(cfg *VertexConfig) (*Edges, error) {
	var closers []func() error
	closeAll := func() error {
		var err error
		for i := len(closers) - 1; i >= 0; i-- {
			if cerr := closers[i](); cerr != nil && err == nil {
				err = cerr
			}
		}
		return err
	}

	output, outCloser, err := buildOutput(cfg.Output)
	if err != nil {
		return nil, fmt.Errorf("config: building output edge: %w", err)
	}
	if outCloser != nil {
		closers = append(closers, outCloser)
	}

	var input isb.Inbox
	if cfg.Input != nil {
		in, closer, err := buildInputWithCloser(*cfg.Input)
		if err != nil {
			_ = closeAll()
			return nil, fmt.Errorf("config: building input edge: %w", err)
		}
		if closer != nil {
			closers = append(closers, closer)
		}
		input = in
	}

	return &Edges{Input: input, Output: output, Close: closeAll}, nil
}

func buildOutput(ec EdgeConfig) (isb.Outbox, func() error, error) {
	switch ec.Type {
	case EdgeInmem, "":
		capacity := ec.Capacity
		if capacity <= 0 {
			capacity = 64
		}
		return isb.NewBoundedOutbox(1, capacity), nil, nil

	case EdgeKafka:
		cfg := sarama.NewConfig()
		cfg.Producer.Return.Successes = true
		cfg.Producer.RequiredAcks = sarama.WaitForAll
		w, err := kafka.NewWriter(ec.Brokers, []string{firstOf(ec.Topic, ec.Topics)}, ec.SnapshotName, cfg)
		if err != nil {
			return nil, nil, err
		}
		return w, w.Close, nil

	case EdgeJetStream:
		nc, err := nats.Connect(natsURL(ec.Brokers))
		if err != nil {
			return nil, nil, fmt.Errorf("jetstream: connect: %w", err)
		}
		js, err := nc.JetStream()
		if err != nil {
			nc.Close()
			return nil, nil, fmt.Errorf("jetstream: context: %w", err)
		}
		w := jetstream.NewWriter(js, []string{firstOf(ec.Subject, ec.Subjects)}, ec.SnapshotName)
		return w, func() error { nc.Close(); return nil }, nil

	case EdgeRedisStream:
		client := redis.NewUniversalClient(&redis.UniversalOptions{Addrs: ec.RedisAddrs})
		w := redisstream.NewWriter(context.Background(), client, []string{firstOf(ec.Stream, ec.Streams)}, ec.SnapshotName)
		return w, client.Close, nil

	default:
		return nil, nil, fmt.Errorf("config: unknown edge type %q", ec.Type)
	}
}

func buildInputWithCloser(ec EdgeConfig) (isb.Inbox, func() error, error) {
	switch ec.Type {
	case EdgeInmem, "":
		return inmemStdinInbox(), nil, nil

	case EdgeKafka:
		cfg := sarama.NewConfig()
		cfg.Consumer.Return.Errors = true
		cfg.Consumer.Offsets.Initial = sarama.OffsetOldest
		bufSize := defaultBufferSize(ec.BufferSize)
		r, err := kafka.NewReader(ec.Brokers, ec.Group, firstOf(ec.Topic, ec.Topics), bufSize, cfg)
		if err != nil {
			return nil, nil, err
		}
		return r, r.Close, nil

	case EdgeJetStream:
		nc, err := nats.Connect(natsURL(ec.Brokers))
		if err != nil {
			return nil, nil, fmt.Errorf("jetstream: connect: %w", err)
		}
		js, err := nc.JetStream()
		if err != nil {
			nc.Close()
			return nil, nil, fmt.Errorf("jetstream: context: %w", err)
		}
		r, err := jetstream.NewReader(js, firstOf(ec.Subject, ec.Subjects), ec.Group, defaultBufferSize(ec.BufferSize))
		if err != nil {
			nc.Close()
			return nil, nil, err
		}
		return r, func() error { err := r.Close(); nc.Close(); return err }, nil

	case EdgeRedisStream:
		client := redis.NewUniversalClient(&redis.UniversalOptions{Addrs: ec.RedisAddrs})
		r, err := redisstream.NewReader(client, firstOf(ec.Stream, ec.Streams), ec.Group, ec.Consumer, defaultBufferSize(ec.BufferSize))
		if err != nil {
			client.Close()
			return nil, nil, err
		}
		return r, func() error { err := r.Close(); client.Close(); return err }, nil

	default:
		return nil, nil, fmt.Errorf("config: unknown edge type %q", ec.Type)
	}
}

// inmemStdinInbox reads newline-delimited string payloads from stdin up
// front, for a local dry run of a registered operator kind without a
// broker. Each line becomes one isb.Item with a string Payload.
func inmemStdinInbox() isb.Inbox {
	var items []isb.Item
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		items = append(items, isb.Item{Kind: isb.KindData, Payload: scanner.Text()})
	}
	return isb.NewQueueInbox(items)
}

func defaultBufferSize(n int) int {
	if n <= 0 {
		return 256
	}
	return n
}

// natsURL joins multiple server addresses the way nats.Connect expects
// ("url1,url2"), falling back to its own default when none are given.
func natsURL(addrs []string) string {
	if len(addrs) == 0 {
		return nats.DefaultURL
	}
	return strings.Join(addrs, ",")
}

func firstOf(single string, multi []string) string {
	if single != "" {
		return single
	}
	if len(multi) > 0 {
		return multi[0]
	}
	return ""
}
