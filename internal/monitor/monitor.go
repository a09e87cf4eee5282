// SPDX-FileCopyrightText: 2025 The boostd Authors
// SPDX-License-Identifier: Apache-2.0

package monitor

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/adaptive-sched/boostd/internal/cpu"
	"github.com/adaptive-sched/boostd/internal/service"
	"golang.org/x/sync/singleflight"
	"k8s.io/utils/clock"
)

// LoadDataProvider is the read surface of the monitor
type LoadDataProvider interface {
	// Snapshot returns a snapshot no older than the configured
	// staleness, recomputing it if needed
	Snapshot() (*Snapshot, error)

	// LastSnapshot returns the last published snapshot without
	// triggering a recomputation; nil if nothing was published yet
	LastSnapshot() *Snapshot

	// DataChannel signals when a new snapshot has been published
	DataChannel() <-chan struct{}
}

// Service is the interface the load monitoring service implements
type Service interface {
	service.Service
	LoadDataProvider
}

// LoadMonitor periodically samples per-core CPU counters and publishes
// aggregated utilization snapshots. Publication is a single atomic
// pointer swap, so readers never observe a half-updated snapshot.
type LoadMonitor struct {
	logger  *slog.Logger
	reader  cpu.StatReader
	sampler *cpu.Sampler

	interval     time.Duration
	clock        clock.WithTicker
	maxStaleness time.Duration

	// signals when a snapshot has been updated
	dataCh chan struct{}

	computeGroup singleflight.Group
	snapshot     atomic.Pointer[Snapshot]

	// for managing the collection loop
	collectionCtx    context.Context
	collectionCancel context.CancelFunc
	cycles           sync.WaitGroup
}

var _ Service = (*LoadMonitor)(nil)

// NewLoadMonitor creates a new LoadMonitor reading counters from the
// given StatReader
func NewLoadMonitor(reader cpu.StatReader, applyOpts ...OptionFn) *LoadMonitor {
	opts := DefaultOpts()
	for _, apply := range applyOpts {
		apply(&opts)
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &LoadMonitor{
		logger:           opts.logger.With("service", "monitor"),
		reader:           reader,
		sampler:          cpu.NewSampler(),
		interval:         opts.interval,
		clock:            opts.clock,
		maxStaleness:     opts.maxStaleness,
		dataCh:           make(chan struct{}, 1),
		collectionCtx:    ctx,
		collectionCancel: cancel,
	}
}

func (m *LoadMonitor) Name() string {
	return "monitor"
}

// Init takes the baseline reading so that the first periodic cycle
// reports real deltas. An unreadable set of counters at this point is
// transient, not fatal.
func (m *LoadMonitor) Init() error {
	if err := m.synchronizedRefresh(); err != nil {
		m.logger.Warn("initial cpu sample failed", "error", err)
	}
	return nil
}

func (m *LoadMonitor) Run(ctx context.Context) error {
	m.logger.Info("Monitor is running...", "interval", m.interval)
	if m.interval > 0 {
		m.scheduleNextCycle()
	}

	<-ctx.Done()
	m.collectionCancel()
	m.cycles.Wait()
	m.logger.Info("Monitor has terminated.")
	return nil
}

// Shutdown cancels the collection loop and blocks until any in-flight
// cycle has completed and no future cycle is armed
func (m *LoadMonitor) Shutdown() error {
	m.logger.Info("shutting down monitor")
	m.collectionCancel()
	m.cycles.Wait()
	return nil
}

func (m *LoadMonitor) DataChannel() <-chan struct{} {
	return m.dataCh
}

func (m *LoadMonitor) LastSnapshot() *Snapshot {
	snapshot := m.snapshot.Load()
	if snapshot == nil {
		return nil
	}
	return snapshot.Clone()
}

func (m *LoadMonitor) Snapshot() (*Snapshot, error) {
	if err := m.ensureFreshData(); err != nil {
		return nil, err
	}

	snapshot := m.snapshot.Load()
	if snapshot == nil {
		return nil, fmt.Errorf("no load snapshot available")
	}
	return snapshot.Clone(), nil
}

// scheduleNextCycle arms a one-shot timer for the next collection
// cycle. On fire it runs one sample+aggregate cycle and re-arms,
// unless a cancellation arrived in the meantime.
func (m *LoadMonitor) scheduleNextCycle() {
	if m.collectionCtx.Err() != nil {
		return
	}

	timer := m.clock.After(m.interval)
	m.cycles.Add(1)
	go func() {
		defer m.cycles.Done()
		select {
		case <-timer:
			if err := m.synchronizedRefresh(); err != nil {
				// previous snapshot stays published, the loop goes on
				m.logger.Error("Failed to sample cpu load", "error", err)
			}
			m.scheduleNextCycle()

		case <-m.collectionCtx.Done():
			m.logger.Debug("Collection loop terminated")
		}
	}()
}

// ensureFreshData ensures the published snapshot is recent enough
// (<= maxStaleness)
func (m *LoadMonitor) ensureFreshData() error {
	if m.isFresh() {
		return nil
	}

	_, err, _ := m.computeGroup.Do("refresh", func() (any, error) {
		// double-check freshness after winning the singleflight slot:
		// a concurrent caller may have refreshed while we waited
		if m.isFresh() {
			return nil, nil
		}
		return nil, m.refreshSnapshot()
	})
	return err
}

// synchronizedRefresh unconditionally computes and publishes a new
// snapshot, while ensuring only one goroutine does the computation at
// a time. The periodic cycle funnels through here.
func (m *LoadMonitor) synchronizedRefresh() error {
	_, err, _ := m.computeGroup.Do("refresh", func() (any, error) {
		return nil, m.refreshSnapshot()
	})
	return err
}

func (m *LoadMonitor) isFresh() bool {
	snapshot := m.snapshot.Load()
	if snapshot == nil || snapshot.Timestamp.IsZero() {
		return false
	}

	age := m.clock.Now().Sub(snapshot.Timestamp)
	return age <= m.maxStaleness
}

// refreshSnapshot runs one sample+aggregate cycle and publishes the
// result. After cancellation it publishes nothing, so a completed
// Shutdown guarantees no further publication.
func (m *LoadMonitor) refreshSnapshot() error {
	if m.collectionCtx.Err() != nil {
		return nil
	}

	perCore, err := m.reader.PerCore()
	if err != nil {
		return fmt.Errorf("failed to read cpu counters: %w", err)
	}

	usage := m.sampler.Aggregate(perCore)
	newSnapshot := &Snapshot{
		Timestamp: m.clock.Now(),
		PerCore:   usage.PerCore,
		Average:   usage.Average,
		Max:       usage.Max,
	}

	m.snapshot.Store(newSnapshot)
	m.signalNewData()
	m.logger.Debug("published load snapshot",
		"cores", len(newSnapshot.PerCore),
		"average", newSnapshot.Average,
		"max", newSnapshot.Max,
	)

	return nil
}

func (m *LoadMonitor) signalNewData() {
	select {
	case m.dataCh <- struct{}{}:
	default:
	}
}
