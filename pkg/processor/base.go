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

import "github.com/flowmesh/vertex/pkg/isb"

// BaseProcessor supplies the no-op defaults of the Processor contract so
// concrete operators can embed it and override only what they need,
// standing in for Java's default interface methods.
type BaseProcessor struct {
	Outbox isb.Outbox
	Ctx    Context
}

func (b *BaseProcessor) Init(outbox isb.Outbox, ctx Context) {
	b.Outbox = outbox
	b.Ctx = ctx
}

func (b *BaseProcessor) Process(ordinal int, inbox isb.Inbox) {}

func (b *BaseProcessor) CompleteEdge(ordinal int) bool { return true }

func (b *BaseProcessor) TryProcess() bool { return true }

func (b *BaseProcessor) Complete() bool { return true }

func (b *BaseProcessor) IsCooperative() bool { return true }

func (b *BaseProcessor) SaveSnapshot() bool { return true }

func (b *BaseProcessor) RestoreSnapshot(pairs []isb.SnapshotKV) {}

func (b *BaseProcessor) FinishSnapshotRestore() bool { return true }
