// SPDX-FileCopyrightText: 2025 The boostd Authors
// SPDX-License-Identifier: Apache-2.0

package boost

import (
	"fmt"

	"github.com/prometheus/procfs"
	"golang.org/x/sys/unix"
)

// PriorityAdjuster applies a scheduling priority hint to a process.
// Production binds to the host's setpriority facility; tests substitute
// an in-memory recorder.
type PriorityAdjuster interface {
	SetPriority(pid int, nice int) error
}

// ProcessResolver checks that a pid refers to a live process and
// returns its comm name for diagnostics
type ProcessResolver interface {
	Resolve(pid int) (string, error)
}

// niceAdjuster adjusts process priority through setpriority(2)
type niceAdjuster struct{}

var _ PriorityAdjuster = (*niceAdjuster)(nil)

// NewNiceAdjuster returns a PriorityAdjuster backed by the host
// scheduler. Raising priority (negative nice) requires CAP_SYS_NICE.
func NewNiceAdjuster() PriorityAdjuster {
	return &niceAdjuster{}
}

func (a *niceAdjuster) SetPriority(pid int, nice int) error {
	if err := unix.Setpriority(unix.PRIO_PROCESS, pid, nice); err != nil {
		return fmt.Errorf("setpriority(%d, %d) failed: %w", pid, nice, err)
	}
	return nil
}

// procResolver resolves pids against the host's procfs
type procResolver struct {
	fs procfs.FS
}

var _ ProcessResolver = (*procResolver)(nil)

// NewProcResolver creates a ProcessResolver over the given procfs
// mount point
func NewProcResolver(procfsPath string) (ProcessResolver, error) {
	fs, err := procfs.NewFS(procfsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open procfs at %s: %w", procfsPath, err)
	}
	return &procResolver{fs: fs}, nil
}

func (r *procResolver) Resolve(pid int) (string, error) {
	proc, err := r.fs.Proc(pid)
	if err != nil {
		return "", fmt.Errorf("pid %d not found: %w", pid, err)
	}

	comm, err := proc.Comm()
	if err != nil {
		// process vanished between the two reads
		return "", fmt.Errorf("pid %d not found: %w", pid, err)
	}
	return comm, nil
}
