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

// Package metrics registers the Prometheus collectors shared by the engine
// and operators.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	// CallbackLatency buckets around the cooperative soft time-budget
	// thresholds (warn >1ms, error log >5ms, fail >1s under strict mode).
	CallbackLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "vertex",
		Subsystem: "processor",
		Name:      "callback_latency_seconds",
		Help:      "Time spent inside a single processor callback invocation.",
		Buckets:   []float64{.0005, .001, .002, .005, .01, .05, .1, .5, 1, 5},
	}, []string{"vertex", "callback"})

	// ItemsProcessed counts inbox items consumed per vertex/ordinal.
	ItemsProcessed = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "vertex",
		Subsystem: "processor",
		Name:      "items_processed_total",
		Help:      "Number of items consumed from an inbox.",
	}, []string{"vertex", "ordinal"})

	// WatermarkValue exposes the last-emitted watermark as a gauge of
	// milliseconds since epoch.
	WatermarkValue = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "vertex",
		Subsystem: "watermark",
		Name:      "value_unix_millis",
		Help:      "Most recently emitted watermark value.",
	}, []string{"vertex"})

	// BackpressureSuspensions counts the number of times an operator
	// suspended because the outbox refused an item.
	BackpressureSuspensions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "vertex",
		Subsystem: "processor",
		Name:      "backpressure_suspensions_total",
		Help:      "Number of times a callback returned due to outbox backpressure.",
	}, []string{"vertex"})
)

func init() {
	prometheus.MustRegister(CallbackLatency, ItemsProcessed, WatermarkValue, BackpressureSuspensions)
}
