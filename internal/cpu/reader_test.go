// SPDX-FileCopyrightText: 2025 The boostd Authors
// SPDX-License-Identifier: Apache-2.0

package cpu

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeStatFile lays out a minimal procfs tree containing a stat file
func writeStatFile(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "stat"), []byte(content), 0o644))
	return dir
}

func TestProcReaderPerCore(t *testing.T) {
	procRoot := writeStatFile(t, `cpu  300 0 100 1600 200 0 0 0 0 0
cpu0 100 0 50 800 100 0 0 0 0 0
cpu1 200 0 50 800 100 0 0 0 0 0
intr 0
ctxt 0
btime 0
processes 0
procs_running 1
procs_blocked 0
`)

	reader, err := NewProcReader(procRoot)
	require.NoError(t, err)

	perCore, err := reader.PerCore()
	require.NoError(t, err)
	require.Len(t, perCore, 2)

	assert.Equal(t, Counters{User: 100, System: 50, Idle: 800, Iowait: 100}, perCore[0])
	assert.Equal(t, Counters{User: 200, System: 50, Idle: 800, Iowait: 100}, perCore[1])
}

func TestProcReaderMissingMount(t *testing.T) {
	_, err := NewProcReader(filepath.Join(t.TempDir(), "does-not-exist"))
	assert.Error(t, err)
}

func TestProcReaderUnreadableStat(t *testing.T) {
	dir := t.TempDir() // no stat file at all

	reader, err := NewProcReader(dir)
	require.NoError(t, err)

	_, err = reader.PerCore()
	assert.Error(t, err)
}

func TestTicksRoundTrip(t *testing.T) {
	// procfs reports seconds; 8.23s at 100Hz is 823 ticks
	assert.Equal(t, uint64(823), ticks(8.23))
	assert.Equal(t, uint64(0), ticks(0))
}
