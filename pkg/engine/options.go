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

package engine

// Options configures a Driver or WorkerPool, following the teacher's
// functional-options style (pkg/isb/forward/options.go).
type Options struct {
	Strict     bool
	NumWorkers int
}

// Option mutates Options.
type Option func(*Options)

// WithStrict enables strict-mode time budget enforcement (hard failure
// above StrictFailBudget instead of just logging).
func WithStrict(strict bool) Option {
	return func(o *Options) { o.Strict = strict }
}

// WithNumWorkers sets the cooperative worker pool size.
func WithNumWorkers(n int) Option {
	return func(o *Options) { o.NumWorkers = n }
}

// BuildOptions applies opts over sane defaults.
func BuildOptions(opts ...Option) *Options {
	o := &Options{NumWorkers: 1}
	for _, opt := range opts {
		opt(o)
	}
	return o
}
