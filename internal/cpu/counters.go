// SPDX-FileCopyrightText: 2025 The boostd Authors
// SPDX-License-Identifier: Apache-2.0

package cpu

// Counters holds a core's cumulative time-in-state tick counters as
// reported by the host since boot. All values only ever grow, except
// when the counters wrap or the host resets them.
type Counters struct {
	User    uint64
	Nice    uint64
	System  uint64
	Idle    uint64
	Iowait  uint64
	IRQ     uint64
	SoftIRQ uint64
	Steal   uint64
}

// IdleAll returns the ticks the core spent not doing work. Time spent
// waiting for IO counts as idle for utilization purposes.
func (c Counters) IdleAll() uint64 {
	return c.Idle + c.Iowait
}

// Total returns all accounted ticks for the core
func (c Counters) Total() uint64 {
	return c.User + c.Nice + c.System + c.IdleAll() + c.IRQ + c.SoftIRQ + c.Steal
}
