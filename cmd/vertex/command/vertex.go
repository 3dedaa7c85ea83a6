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

package command

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/flowmesh/vertex/internal/logging"
	"github.com/flowmesh/vertex/pkg/config"
	"github.com/flowmesh/vertex/pkg/engine"
	"github.com/flowmesh/vertex/pkg/isb"
	"github.com/flowmesh/vertex/pkg/processor"
	"github.com/flowmesh/vertex/pkg/snapshot"
)

const (
	snapshotOutboxCapacity = 256
	restoreBatchSize       = 64
	defaultSnapshotPeriod  = 30 * time.Second
	genHistory             = 8
)

// runVertex loads configPath, wires its edges and operator, and steps
// the resulting engine.Driver until its inputs are exhausted (the
// "inmem" local dry-run path) or ctx is canceled by a shutdown signal
// (the real-transport path, an unbounded streaming service with no
// natural exhaustion signal). If replay is set, proc's state is
// restored from its last snapshot before the loop begins.
func runVertex(configPath string, replay bool) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	log := logging.Named(cfg.Name)
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx = logging.WithLogger(ctx, log)

	edges, err := config.BuildEdges(cfg)
	if err != nil {
		return fmt.Errorf("vertex %q: %w", cfg.Name, err)
	}
	defer func() {
		if cerr := edges.Close(); cerr != nil {
			log.Warnw("closing edges", "error", cerr)
		}
	}()

	wmStore, err := config.BuildWatermarkStore(cfg.Operator.KWArgs)
	if err != nil {
		return fmt.Errorf("vertex %q: %w", cfg.Name, err)
	}
	if wmStore != nil {
		defer func() {
			if cerr := wmStore.Close(); cerr != nil {
				log.Warnw("closing watermark store", "error", cerr)
			}
		}()
	}

	proc, err := config.BuildOperator(cfg.Operator, wmStore)
	if err != nil {
		return fmt.Errorf("vertex %q: %w", cfg.Name, err)
	}

	snapStore, err := config.BuildSnapshotStore(cfg.Snapshot)
	if err != nil {
		return fmt.Errorf("vertex %q: %w", cfg.Name, err)
	}
	defer func() {
		if cerr := snapStore.Close(); cerr != nil {
			log.Warnw("closing snapshot store", "error", cerr)
		}
	}()

	outbox := config.NewSnapshottingOutbox(edges.Output, snapshotOutboxCapacity)

	procCtx := &processor.StaticContext{
		Index:        0,
		Vertex:       cfg.Name,
		Parallelism:  cfg.Parallelism,
		Snapshotting: cfg.Snapshotting,
		Log:          log,
		CancelCh:     ctx.Done(),
	}

	var inboxes []isb.Inbox
	if edges.Input != nil {
		inboxes = append(inboxes, edges.Input)
	}

	driver := engine.NewDriver(cfg.Name, proc, procCtx, outbox, inboxes, cfg.Strict)
	snapEngine := snapshot.NewEngine(cfg.Name, genHistory)

	if replay {
		log.Infow("restoring state from last snapshot")
		if err := snapEngine.Restore(proc, snapStore, restoreBatchSize); err != nil {
			return fmt.Errorf("vertex %q: restoring snapshot: %w", cfg.Name, err)
		}
	}

	// A local dry run's stdin inbox is read to EOF up front by
	// inmemStdinInbox; there will never be more input, so mark it
	// exhausted immediately rather than waiting on a signal that will
	// never arrive.
	if edges.Input != nil && cfg.Input != nil && (cfg.Input.Type == config.EdgeInmem || cfg.Input.Type == "") {
		driver.MarkExhausted(0)
	}

	initialInterval := cfg.SnapshotInterval
	if initialInterval <= 0 {
		initialInterval = defaultSnapshotPeriod
	}
	tun, err := config.WatchTunables(configPath, initialInterval, func(reloadErr error) {
		log.Warnw("reloading config, keeping previous snapshot cadence", "error", reloadErr)
	})
	if err != nil {
		return fmt.Errorf("vertex %q: %w", cfg.Name, err)
	}
	nextSnapshot := time.Now().Add(tun.SnapshotInterval())

	for !driver.Done() {
		select {
		case <-ctx.Done():
			log.Infow("shutdown requested, stopping vertex")
			return nil
		default:
		}
		if err := driver.Step(); err != nil {
			return fmt.Errorf("vertex %q: %w", cfg.Name, err)
		}
		if cfg.Snapshotting && !time.Now().Before(nextSnapshot) {
			genID := uuid.NewString()
			if err := snapEngine.Capture(genID, proc, outbox, snapStore); err != nil {
				return fmt.Errorf("vertex %q: capturing snapshot: %w", cfg.Name, err)
			}
			log.Infow("captured snapshot", "generation", genID)
			nextSnapshot = time.Now().Add(tun.SnapshotInterval())
		}
	}
	log.Infow("vertex complete")
	return nil
}
