// SPDX-FileCopyrightText: 2025 The boostd Authors
// SPDX-License-Identifier: Apache-2.0

package monitor

import (
	"maps"
	"time"
)

// Snapshot is one cycle's published view of CPU utilization. It is
// replaced wholesale each cycle and never mutated after publication.
type Snapshot struct {
	Timestamp time.Time

	// PerCore maps core id to utilization percent in [0, 100]
	PerCore map[int64]int

	// Average is the floor average over the cores present this cycle
	Average int

	// Max is the highest per-core load this cycle
	Max int
}

func NewSnapshot() *Snapshot {
	return &Snapshot{
		PerCore: map[int64]int{},
	}
}

func (s *Snapshot) Clone() *Snapshot {
	ret := &Snapshot{
		Timestamp: s.Timestamp,
		Average:   s.Average,
		Max:       s.Max,
		PerCore:   make(map[int64]int, len(s.PerCore)),
	}
	maps.Copy(ret.PerCore, s.PerCore)
	return ret
}
