// SPDX-FileCopyrightText: 2025 The boostd Authors
// SPDX-License-Identifier: Apache-2.0

package cpu

import (
	"fmt"

	"github.com/prometheus/procfs"
)

// userHZ is the number of clock ticks per second.
// Hardcoded just like in procfs.
const userHZ = 100

// StatReader supplies one reading of cumulative counters for every
// core currently online
type StatReader interface {
	PerCore() (map[int64]Counters, error)
}

// procReader is the default StatReader backed by the host's procfs
type procReader struct {
	fs procfs.FS
}

var _ StatReader = (*procReader)(nil)

// NewProcReader creates a StatReader that reads per-core counters from
// the stat file of the given procfs mount point
func NewProcReader(procfsPath string) (StatReader, error) {
	fs, err := procfs.NewFS(procfsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open procfs at %s: %w", procfsPath, err)
	}
	return &procReader{fs: fs}, nil
}

func (r *procReader) PerCore() (map[int64]Counters, error) {
	stat, err := r.fs.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to read cpu stat: %w", err)
	}

	perCore := make(map[int64]Counters, len(stat.CPU))
	for core, s := range stat.CPU {
		perCore[core] = Counters{
			User:    ticks(s.User),
			Nice:    ticks(s.Nice),
			System:  ticks(s.System),
			Idle:    ticks(s.Idle),
			Iowait:  ticks(s.Iowait),
			IRQ:     ticks(s.IRQ),
			SoftIRQ: ticks(s.SoftIRQ),
			Steal:   ticks(s.Steal),
		}
	}
	return perCore, nil
}

// ticks converts the seconds procfs reports back to the integer tick
// counters the kernel maintains
func ticks(seconds float64) uint64 {
	return uint64(seconds*userHZ + 0.5)
}
