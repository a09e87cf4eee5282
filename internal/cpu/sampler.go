// SPDX-FileCopyrightText: 2025 The boostd Authors
// SPDX-License-Identifier: Apache-2.0

package cpu

// Usage is one cycle's aggregated utilization: per-core percentages
// plus their floor average and maximum over the cores present in the
// cycle. All values are in [0, 100].
type Usage struct {
	PerCore map[int64]int
	Average int
	Max     int
}

// baseline is the previous cycle's (idle, total) pair for one core
type baseline struct {
	idle  uint64
	total uint64
}

// Sampler computes per-core utilization percentages by comparing each
// core's cumulative counters against the previous cycle's baseline.
// Baselines are keyed by core id so cores may appear and disappear at
// runtime without the sampler caring.
//
// A Sampler is not safe for concurrent use; the monitor owns it and is
// the only caller.
type Sampler struct {
	prev map[int64]baseline
}

func NewSampler() *Sampler {
	return &Sampler{
		prev: map[int64]baseline{},
	}
}

// Sample returns the core's utilization percentage since the previous
// call for this core. The first call for a core only establishes the
// baseline and returns 0. A counter wrap or reset also re-establishes
// the baseline and returns 0, never a garbage percentage.
func (s *Sampler) Sample(core int64, c Counters) int {
	total := c.Total()
	idle := c.IdleAll()

	prev, ok := s.prev[core]
	s.prev[core] = baseline{idle: idle, total: total}

	if !ok {
		// no baseline yet
		return 0
	}

	if total <= prev.total || idle < prev.idle {
		// no elapsed ticks, or counters wrapped / were reset
		return 0
	}

	diffTotal := total - prev.total
	diffIdle := idle - prev.idle
	if diffIdle > diffTotal {
		diffIdle = diffTotal
	}

	return clampPercent(int((diffTotal - diffIdle) * 100 / diffTotal))
}

// Aggregate samples every core present in perCore and folds the results
// into a Usage. Cores that vanished since the previous cycle are
// dropped from the baseline map; cores seen for the first time
// contribute 0 for this cycle.
func (s *Sampler) Aggregate(perCore map[int64]Counters) Usage {
	usage := Usage{
		PerCore: make(map[int64]int, len(perCore)),
	}

	sum := 0
	for core, counters := range perCore {
		load := s.Sample(core, counters)
		usage.PerCore[core] = load
		sum += load
		if load > usage.Max {
			usage.Max = load
		}
	}

	if n := len(usage.PerCore); n > 0 {
		usage.Average = sum / n
	}

	// drop baselines of cores that went offline
	for core := range s.prev {
		if _, ok := perCore[core]; !ok {
			delete(s.prev, core)
		}
	}

	return usage
}

func clampPercent(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
