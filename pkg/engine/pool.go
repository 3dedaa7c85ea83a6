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

import (
	"context"
	"sync"

	"go.uber.org/atomic"
)

// WorkerPool round-robins a set of cooperative Drivers across a fixed
// number of worker goroutines, generalizing the teacher's single-loop
// forwarder into the N-operators-per-thread scheme spec.md's concurrency
// model requires. Each Driver is owned by exactly one worker for its
// lifetime — no synchronization is needed inside a Driver.
type WorkerPool struct {
	workers [][]*Driver
	running atomic.Bool
}

// NewWorkerPool assigns drivers to numWorkers round-robin buckets.
func NewWorkerPool(numWorkers int, drivers []*Driver) *WorkerPool {
	if numWorkers < 1 {
		numWorkers = 1
	}
	p := &WorkerPool{workers: make([][]*Driver, numWorkers)}
	for i, d := range drivers {
		bucket := i % numWorkers
		p.workers[bucket] = append(p.workers[bucket], d)
	}
	return p
}

// Run starts all workers and blocks until every Driver is Done or ctx is
// canceled.
func (p *WorkerPool) Run(ctx context.Context) error {
	p.running.Store(true)
	defer p.running.Store(false)

	var wg sync.WaitGroup
	errs := make([]error, len(p.workers))
	for i, drivers := range p.workers {
		wg.Add(1)
		go func(i int, drivers []*Driver) {
			defer wg.Done()
			errs[i] = runWorker(ctx, drivers)
		}(i, drivers)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

// runWorker round-robins its assigned drivers, skipping any that are
// already Done, until all are Done or ctx is canceled.
func runWorker(ctx context.Context, drivers []*Driver) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		allDone := true
		for _, d := range drivers {
			if d.Done() {
				continue
			}
			allDone = false
			if err := d.Step(); err != nil {
				return err
			}
		}
		if allDone {
			return nil
		}
	}
}
