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

package processor

import "go.uber.org/zap"

// Context is passed to a Processor in its Init call.
type Context interface {
	// GlobalProcessorIndex is the unique, cluster-wide index of this
	// processor instance among all processors created for its vertex.
	GlobalProcessorIndex() int
	// VertexName is the name of the vertex this processor belongs to.
	VertexName() string
	// LocalParallelism is the number of processor instances for this
	// vertex on this worker pool.
	LocalParallelism() int
	// SnapshottingEnabled reports whether snapshots will be captured
	// for this job.
	SnapshottingEnabled() bool
	// Logger returns a logger scoped to this processor.
	Logger() *zap.SugaredLogger
	// Done is closed when the job is canceled; long-running or
	// blocking callbacks should check it and return promptly.
	Done() <-chan struct{}
}

// StaticContext is a simple Context implementation for tests and the
// harness.
type StaticContext struct {
	Index         int
	Vertex        string
	Parallelism   int
	Snapshotting  bool
	Log           *zap.SugaredLogger
	CancelCh      <-chan struct{}
}

func (c *StaticContext) GlobalProcessorIndex() int { return c.Index }
func (c *StaticContext) VertexName() string        { return c.Vertex }
func (c *StaticContext) LocalParallelism() int      { return c.Parallelism }
func (c *StaticContext) SnapshottingEnabled() bool  { return c.Snapshotting }
func (c *StaticContext) Logger() *zap.SugaredLogger { return c.Log }
func (c *StaticContext) Done() <-chan struct{}      { return c.CancelCh }
