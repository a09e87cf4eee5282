// SPDX-FileCopyrightText: 2025 The boostd Authors
// SPDX-License-Identifier: Apache-2.0

package monitor

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/adaptive-sched/boostd/internal/cpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	testingclock "k8s.io/utils/clock/testing"
)

// fakeReader serves a scripted sequence of readings; the last step
// repeats once the script runs out
type fakeReader struct {
	mu    sync.Mutex
	steps []fakeStep
	calls int
}

type fakeStep struct {
	perCore map[int64]cpu.Counters
	err     error
}

func (f *fakeReader) PerCore() (map[int64]cpu.Counters, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	idx := f.calls
	f.calls++
	if idx >= len(f.steps) {
		idx = len(f.steps) - 1
	}

	step := f.steps[idx]
	return step.perCore, step.err
}

func (f *fakeReader) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func counters(user, idle uint64) cpu.Counters {
	return cpu.Counters{User: user, Idle: idle}
}

func TestNewLoadMonitor(t *testing.T) {
	m := NewLoadMonitor(&fakeReader{steps: []fakeStep{{}}})

	assert.Equal(t, "monitor", m.Name())
	assert.NotNil(t, m.dataCh)
	assert.Nil(t, m.snapshot.Load())
	assert.Nil(t, m.LastSnapshot())
}

func TestInitPublishesBaselineSnapshot(t *testing.T) {
	fakeClock := testingclock.NewFakeClock(time.Now())
	reader := &fakeReader{steps: []fakeStep{{
		perCore: map[int64]cpu.Counters{
			0: counters(100, 800),
			1: counters(200, 700),
		},
	}}}
	m := NewLoadMonitor(reader, WithClock(fakeClock))

	require.NoError(t, m.Init())

	snap := m.LastSnapshot()
	require.NotNil(t, snap)
	assert.Equal(t, fakeClock.Now(), snap.Timestamp)

	// first-ever cycle only establishes baselines
	assert.Equal(t, map[int64]int{0: 0, 1: 0}, snap.PerCore)
	assert.Equal(t, 0, snap.Average)
	assert.Equal(t, 0, snap.Max)

	// publication is signalled
	select {
	case <-m.DataChannel():
	default:
		t.Fatal("expected a data signal after Init")
	}
}

func TestInitSamplingFailureIsNotFatal(t *testing.T) {
	reader := &fakeReader{steps: []fakeStep{{err: errors.New("stat unreadable")}}}
	m := NewLoadMonitor(reader)

	assert.NoError(t, m.Init())
	assert.Nil(t, m.LastSnapshot())
}

func TestPeriodicCyclePublishes(t *testing.T) {
	fakeClock := testingclock.NewFakeClock(time.Now())
	reader := &fakeReader{steps: []fakeStep{
		{perCore: map[int64]cpu.Counters{0: counters(100, 800)}},
		{perCore: map[int64]cpu.Counters{0: counters(150, 800)}},
	}}
	m := NewLoadMonitor(reader,
		WithClock(fakeClock),
		WithInterval(500*time.Millisecond),
	)
	require.NoError(t, m.Init())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Run(ctx) }()

	require.Eventually(t, fakeClock.HasWaiters, time.Second, time.Millisecond,
		"cycle timer should be armed")
	fakeClock.Step(500 * time.Millisecond)

	assert.Eventually(t, func() bool {
		snap := m.LastSnapshot()
		return snap != nil && snap.Average == 100
	}, time.Second, time.Millisecond, "50 busy ticks over 50 elapsed is 100%%")

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not terminate")
	}
}

func TestFailedCycleRetainsSnapshotAndRearms(t *testing.T) {
	fakeClock := testingclock.NewFakeClock(time.Now())
	reader := &fakeReader{steps: []fakeStep{
		{perCore: map[int64]cpu.Counters{0: counters(100, 800)}},
		{err: errors.New("counters temporarily unreadable")},
		{perCore: map[int64]cpu.Counters{0: counters(150, 850)}},
	}}
	m := NewLoadMonitor(reader,
		WithClock(fakeClock),
		WithInterval(500*time.Millisecond),
	)
	require.NoError(t, m.Init())
	published := m.LastSnapshot()
	require.NotNil(t, published)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = m.Run(ctx) }()

	// failing cycle
	require.Eventually(t, fakeClock.HasWaiters, time.Second, time.Millisecond)
	fakeClock.Step(500 * time.Millisecond)
	assert.Eventually(t, func() bool { return reader.callCount() >= 2 }, time.Second, time.Millisecond)

	// previous snapshot retained unchanged
	snap := m.LastSnapshot()
	require.NotNil(t, snap)
	assert.Equal(t, published.Timestamp, snap.Timestamp)

	// loop survived and re-armed; next cycle publishes again
	require.Eventually(t, fakeClock.HasWaiters, time.Second, time.Millisecond,
		"a failed cycle must re-arm the timer")
	fakeClock.Step(500 * time.Millisecond)
	assert.Eventually(t, func() bool {
		s := m.LastSnapshot()
		return s != nil && s.Timestamp.After(published.Timestamp)
	}, time.Second, time.Millisecond)

	// 100 elapsed ticks, 50 of them idle
	assert.Equal(t, 50, m.LastSnapshot().PerCore[0])
}

func TestShutdownStopsPublication(t *testing.T) {
	fakeClock := testingclock.NewFakeClock(time.Now())
	reader := &fakeReader{steps: []fakeStep{
		{perCore: map[int64]cpu.Counters{0: counters(100, 800)}},
	}}
	m := NewLoadMonitor(reader,
		WithClock(fakeClock),
		WithInterval(500*time.Millisecond),
	)
	require.NoError(t, m.Init())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Run(ctx) }()
	require.Eventually(t, fakeClock.HasWaiters, time.Second, time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not terminate")
	}
	require.NoError(t, m.Shutdown())

	// no further publication across a subsequent wait window
	before := m.LastSnapshot()
	calls := reader.callCount()
	fakeClock.Step(5 * time.Second)
	time.Sleep(50 * time.Millisecond)

	after := m.LastSnapshot()
	require.NotNil(t, after)
	assert.Equal(t, before.Timestamp, after.Timestamp)
	assert.Equal(t, calls, reader.callCount())
}

func TestSnapshotEnsuresFreshness(t *testing.T) {
	fakeClock := testingclock.NewFakeClock(time.Now())
	reader := &fakeReader{steps: []fakeStep{
		{perCore: map[int64]cpu.Counters{0: counters(100, 800)}},
		{perCore: map[int64]cpu.Counters{0: counters(200, 800)}},
	}}
	m := NewLoadMonitor(reader,
		WithClock(fakeClock),
		WithInterval(0), // no collection loop
		WithMaxStaleness(500*time.Millisecond),
	)
	require.NoError(t, m.Init())
	require.Equal(t, 1, reader.callCount())

	// still fresh: served from the published snapshot
	_, err := m.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, 1, reader.callCount())

	// stale: a read recomputes
	fakeClock.SetTime(fakeClock.Now().Add(time.Second))
	snap, err := m.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, 2, reader.callCount())
	assert.Equal(t, 100, snap.Average)
}

func TestSnapshotErrorWhenNoData(t *testing.T) {
	reader := &fakeReader{steps: []fakeStep{{err: errors.New("no counters")}}}
	m := NewLoadMonitor(reader)

	_, err := m.Snapshot()
	assert.Error(t, err)
}

func TestSnapshotReturnsClone(t *testing.T) {
	reader := &fakeReader{steps: []fakeStep{
		{perCore: map[int64]cpu.Counters{0: counters(100, 800)}},
	}}
	m := NewLoadMonitor(reader)
	require.NoError(t, m.Init())

	a := m.LastSnapshot()
	a.PerCore[0] = 99

	b := m.LastSnapshot()
	assert.Equal(t, 0, b.PerCore[0], "mutating a returned snapshot must not affect the published one")
}
