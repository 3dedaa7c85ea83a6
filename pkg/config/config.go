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

// Package config loads the document that describes one vertex: which
// operator it runs, which edges feed and drain it, and where its
// snapshots live. Mirrors pkg/reconciler/config.go's viper-based
// load-and-unmarshal, scoped down from a cluster-wide controller config
// to a single runnable process's own topology slice.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// EdgeType selects the isb.Inbox/isb.Outbox backend an EdgeConfig wires
// up. "inmem" is for local runs and the harness; the other three name
// the real transports under pkg/edge.
type EdgeType string

const (
	EdgeInmem       EdgeType = "inmem"
	EdgeKafka       EdgeType = "kafka"
	EdgeJetStream   EdgeType = "jetstream"
	EdgeRedisStream EdgeType = "redisstream"
)

// EdgeConfig parameterizes one edge. Only the fields relevant to Type
// need be set; BuildInput/BuildOutput in edges.go read the subset each
// backend needs and ignore the rest.
type EdgeConfig struct {
	Type EdgeType `json:"type" yaml:"type"`

	// Kafka.
	Brokers []string `json:"brokers,omitempty" yaml:"brokers,omitempty"`
	Topics  []string `json:"topics,omitempty" yaml:"topics,omitempty"`
	Topic   string   `json:"topic,omitempty" yaml:"topic,omitempty"`

	// JetStream.
	Subjects []string `json:"subjects,omitempty" yaml:"subjects,omitempty"`
	Subject  string   `json:"subject,omitempty" yaml:"subject,omitempty"`

	// Redis Streams.
	RedisAddrs []string `json:"redisAddrs,omitempty" yaml:"redisAddrs,omitempty"`
	Streams    []string `json:"streams,omitempty" yaml:"streams,omitempty"`
	Stream     string   `json:"stream,omitempty" yaml:"stream,omitempty"`

	// Shared across the real transports.
	SnapshotName string `json:"snapshotName,omitempty" yaml:"snapshotName,omitempty"` // topic/subject/hash for OfferSnapshot
	Group        string `json:"group,omitempty" yaml:"group,omitempty"`               // consumer group / durable name
	Consumer     string `json:"consumer,omitempty" yaml:"consumer,omitempty"`         // redis streams consumer name
	BufferSize   int    `json:"bufferSize,omitempty" yaml:"bufferSize,omitempty"`

	// inmem only.
	Capacity int `json:"capacity,omitempty" yaml:"capacity,omitempty"`
}

// OperatorConfig selects and parameterizes one of the builtin operator
// kinds registered in operators.go, the same name-plus-kwargs shape the
// teacher's NewBuiltinTransformerCommand uses to let one statically
// compiled binary pick its runtime behavior from flags/config instead of
// a dynamically loaded plugin.
type OperatorConfig struct {
	Kind   string            `json:"kind" yaml:"kind"`
	KWArgs map[string]string `json:"kwargs,omitempty" yaml:"kwargs,omitempty"`
}

// SnapshotConfig selects the Store backend snapshot.Engine durably
// writes to. It applies whatever the vertex's Output edge type is:
// cmd/vertex routes every checkpoint through a SnapshottingOutbox into
// this Store, never through a real edge Writer's own OfferSnapshot.
type SnapshotConfig struct {
	Type    string `json:"type" yaml:"type"` // "memory" or "redis"
	Addr    string `json:"addr,omitempty" yaml:"addr,omitempty"`
	HashKey string `json:"hashKey,omitempty" yaml:"hashKey,omitempty"`
}

// VertexConfig is the full topology document for one runnable vertex.
type VertexConfig struct {
	Name             string         `json:"name" yaml:"name"`
	Parallelism      int            `json:"parallelism" yaml:"parallelism"`
	Strict           bool           `json:"strict" yaml:"strict"`
	Snapshotting     bool           `json:"snapshotting" yaml:"snapshotting"`
	SnapshotInterval time.Duration  `json:"snapshotInterval" yaml:"snapshotInterval"`
	Operator         OperatorConfig `json:"operator" yaml:"operator"`
	Input            *EdgeConfig    `json:"input,omitempty" yaml:"input,omitempty"`
	Output           EdgeConfig     `json:"output" yaml:"output"`
	Snapshot         SnapshotConfig `json:"snapshot" yaml:"snapshot"`
}

// Load reads and unmarshals the vertex topology document at path (YAML or
// JSON, by extension, same as viper.SetConfigFile's own detection).
func Load(path string) (*VertexConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("config: reading %q: %w", path, err)
	}
	cfg := &VertexConfig{Parallelism: 1, SnapshotInterval: 30 * time.Second}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal %q: %w", path, err)
	}
	if cfg.Name == "" {
		return nil, fmt.Errorf("config: %q: name is required", path)
	}
	return cfg, nil
}
