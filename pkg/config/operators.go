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
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/flowmesh/vertex/internal/watermarkstore"
	"github.com/flowmesh/vertex/pkg/isb"
	"github.com/flowmesh/vertex/pkg/operators/aggregate"
	"github.com/flowmesh/vertex/pkg/operators/transform"
	"github.com/flowmesh/vertex/pkg/processor"
	"github.com/flowmesh/vertex/pkg/watermark"
	"github.com/flowmesh/vertex/pkg/window"
)

// BuildOperator instantiates the processor.Processor named by cfg.Kind,
// the same name-plus-kwargs selection NewBuiltinTransformerCommand uses
// for a statically compiled binary to choose its runtime behavior
// without a dynamically loaded plugin — Go generics admit no runtime
// type-parameter selection, so a vertex binary's available operators are
// this fixed, compiled-in registry rather than an arbitrary user
// function loaded from the document. store, if non-nil, is wired into
// the "watermark-insert" kind's optional external publish.
func BuildOperator(cfg OperatorConfig, store watermarkstore.Store) (processor.Processor, error) {
	build, ok := operatorRegistry[cfg.Kind]
	if !ok {
		return nil, fmt.Errorf("config: unknown operator kind %q", cfg.Kind)
	}
	return build(cfg.KWArgs, store)
}

type operatorBuilder func(kwargs map[string]string, store watermarkstore.Store) (processor.Processor, error)

var operatorRegistry = map[string]operatorBuilder{
	"map-upper":       buildMapUpper,
	"filter-nonempty": buildFilterNonEmpty,
	"sum-window":      buildSumWindow,
	"count-window":    buildCountWindow,
	"watermark-insert": buildWatermarkInsert,
}

// buildMapUpper upper-cases a string payload, forwarding every other
// item kind unchanged, grounded on operators/transform's own
// TestScenarioS1MapUppercase fixture.
func buildMapUpper(map[string]string, watermarkstore.Store) (processor.Processor, error) {
	return transform.Map(func(item isb.Item) (isb.Item, bool) {
		s, ok := item.Payload.(string)
		if !ok {
			return item, true
		}
		item.Payload = strings.ToUpper(s)
		return item, true
	}), nil
}

// buildFilterNonEmpty drops items whose string payload is empty.
func buildFilterNonEmpty(map[string]string, watermarkstore.Store) (processor.Processor, error) {
	return transform.Filter(func(item isb.Item) bool {
		s, ok := item.Payload.(string)
		return !ok || s != ""
	}), nil
}

func windowDefFromArgs(kwargs map[string]string) (window.Definition, error) {
	frame, err := durationArg(kwargs, "frameSize", time.Second)
	if err != nil {
		return window.Definition{}, err
	}
	size, err := durationArg(kwargs, "windowSize", frame)
	if err != nil {
		return window.Definition{}, err
	}
	return window.Definition{FrameSize: frame, WindowSize: size}, nil
}

// buildSumWindow sums int64 payloads per key over a frame-aligned
// window, the "sum-window" builtin's frameSize/windowSize kwargs
// selecting window.Definition.
func buildSumWindow(kwargs map[string]string, _ watermarkstore.Store) (processor.Processor, error) {
	def, err := windowDefFromArgs(kwargs)
	if err != nil {
		return nil, err
	}
	return window.NewSliding(def, itemKey, itemEventTime, int64Payload, aggregate.Sum()), nil
}

// buildCountWindow counts items of any payload type per key over a
// frame-aligned window.
func buildCountWindow(kwargs map[string]string, _ watermarkstore.Store) (processor.Processor, error) {
	def, err := windowDefFromArgs(kwargs)
	if err != nil {
		return nil, err
	}
	return window.NewSliding(def, itemKey, itemEventTime, anyPayload, aggregate.Count[any]()), nil
}

// buildWatermarkInsert wires a watermark.InsertOperator with a bounded
// out-of-orderliness policy (kwarg "maxLateness") and strictly increasing
// emission; if store is non-nil (the operator's kwargs name a
// Redis-backed external watermark store, see BuildWatermarkStore) every
// emission also publishes there.
func buildWatermarkInsert(kwargs map[string]string, store watermarkstore.Store) (processor.Processor, error) {
	lateness, err := durationArg(kwargs, "maxLateness", 0)
	if err != nil {
		return nil, err
	}
	op := watermark.NewInsertOperator(itemEventTime, watermark.NewBoundedOutOfOrderliness(lateness), watermark.StrictlyIncreasing{})
	op.Store = store
	return op, nil
}

func durationArg(kwargs map[string]string, key string, def time.Duration) (time.Duration, error) {
	raw, ok := kwargs[key]
	if !ok || raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("config: operator kwarg %q: %w", key, err)
	}
	return d, nil
}

func itemKey(item isb.Item) string         { return item.Key }
func itemEventTime(item isb.Item) time.Time { return item.EventTime }
func anyPayload(item isb.Item) any         { return item.Payload }

func int64Payload(item isb.Item) int64 {
	switch v := item.Payload.(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case string:
		n, _ := strconv.ParseInt(v, 10, 64)
		return n
	default:
		return 0
	}
}
