// SPDX-FileCopyrightText: 2025 The boostd Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"strings"
	"testing"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.Equal(t, "/proc", cfg.Host.ProcFS)
	assert.Equal(t, 500*time.Millisecond, time.Duration(cfg.Monitor.Interval))
	assert.Equal(t, []string{DefaultPort}, cfg.Web.ListenAddresses)
	assert.Equal(t, 0, cfg.Boost.Level)
	assert.Equal(t, 0, cfg.Boost.TargetPID)
	assert.False(t, cfg.Exporter.Stdout.Enabled)

	require.NoError(t, cfg.Validate())
}

func TestLoad(t *testing.T) {
	yaml := `
log:
  level: debug
  format: json
host:
  procfs: /custom/proc
monitor:
  interval: 250ms
  staleness: 1s
boost:
  level: 2
  targetPid: 1234
exporter:
  stdout:
    enabled: true
    interval: 5s
`
	cfg, err := Load(strings.NewReader(yaml))
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "/custom/proc", cfg.Host.ProcFS)
	assert.Equal(t, 250*time.Millisecond, time.Duration(cfg.Monitor.Interval))
	assert.Equal(t, time.Second, time.Duration(cfg.Monitor.Staleness))
	assert.Equal(t, 2, cfg.Boost.Level)
	assert.Equal(t, 1234, cfg.Boost.TargetPID)
	assert.True(t, cfg.Exporter.Stdout.Enabled)
	assert.Equal(t, 5*time.Second, time.Duration(cfg.Exporter.Stdout.Interval))

	// unset sections keep defaults
	assert.Equal(t, []string{DefaultPort}, cfg.Web.ListenAddresses)
}

func TestLoadPartialKeepsDefaults(t *testing.T) {
	cfg, err := Load(strings.NewReader("log:\n  level: warn\n"))
	require.NoError(t, err)

	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.Equal(t, 500*time.Millisecond, time.Duration(cfg.Monitor.Interval))
}

func TestLoadInvalidYAML(t *testing.T) {
	_, err := Load(strings.NewReader("log: [not a map"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tt := []struct {
		name   string
		mutate func(*Config)
		errStr string
	}{{
		name:   "invalid log level",
		mutate: func(c *Config) { c.Log.Level = "loud" },
		errStr: "invalid log level",
	}, {
		name:   "invalid log format",
		mutate: func(c *Config) { c.Log.Format = "xml" },
		errStr: "invalid log format",
	}, {
		name:   "empty procfs",
		mutate: func(c *Config) { c.Host.ProcFS = "" },
		errStr: "host.procfs",
	}, {
		name:   "negative interval",
		mutate: func(c *Config) { c.Monitor.Interval = Duration(-time.Second) },
		errStr: "interval",
	}, {
		name:   "boost level too high",
		mutate: func(c *Config) { c.Boost.Level = 4 },
		errStr: "boost level",
	}, {
		name:   "negative target pid",
		mutate: func(c *Config) { c.Boost.TargetPID = -1 },
		errStr: "target pid",
	}, {
		name:   "no listen addresses",
		mutate: func(c *Config) { c.Web.ListenAddresses = nil },
		errStr: "listenAddresses",
	}, {
		name: "stdout enabled with zero interval",
		mutate: func(c *Config) {
			c.Exporter.Stdout.Enabled = true
			c.Exporter.Stdout.Interval = 0
		},
		errStr: "stdout exporter interval",
	}}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.errStr)
		})
	}
}

func TestRegisterFlagsOverridesConfig(t *testing.T) {
	app := kingpin.New("test", "")
	updateConfig := RegisterFlags(app)

	_, err := app.Parse([]string{
		"--log.level", "error",
		"--monitor.interval", "100ms",
		"--boost.level", "3",
		"--boost.target-pid", "42",
	})
	require.NoError(t, err)

	cfg := DefaultConfig()
	cfg.Log.Level = "debug" // from a hypothetical config file
	require.NoError(t, updateConfig(cfg))

	assert.Equal(t, "error", cfg.Log.Level)
	assert.Equal(t, 100*time.Millisecond, time.Duration(cfg.Monitor.Interval))
	assert.Equal(t, 3, cfg.Boost.Level)
	assert.Equal(t, 42, cfg.Boost.TargetPID)

	// flags that were not set do not clobber the existing value
	assert.Equal(t, "text", cfg.Log.Format)
}

func TestRegisterFlagsUnsetLeavesFileValues(t *testing.T) {
	app := kingpin.New("test", "")
	updateConfig := RegisterFlags(app)

	_, err := app.Parse([]string{})
	require.NoError(t, err)

	cfg := DefaultConfig()
	cfg.Monitor.Interval = Duration(time.Second)
	require.NoError(t, updateConfig(cfg))
	assert.Equal(t, time.Second, time.Duration(cfg.Monitor.Interval))
}

func TestConfigString(t *testing.T) {
	cfg := DefaultConfig()
	s := cfg.String()
	assert.Contains(t, s, "level: info")
	assert.Contains(t, s, "procfs: /proc")
	assert.Contains(t, s, "interval: 500ms")
}

func TestDurationUnmarshal(t *testing.T) {
	var d Duration
	require.NoError(t, d.UnmarshalYAML(yamlNode(t, "750ms")))
	assert.Equal(t, 750*time.Millisecond, time.Duration(d))

	require.NoError(t, d.UnmarshalYAML(yamlNode(t, "1000000000")))
	assert.Equal(t, time.Second, time.Duration(d))

	assert.Error(t, d.UnmarshalYAML(yamlNode(t, "never")))
}

// yamlNode builds a scalar yaml.Node holding the given value
func yamlNode(t *testing.T, value string) *yaml.Node {
	t.Helper()
	var doc yaml.Node
	require.NoError(t, yaml.Unmarshal([]byte(value), &doc))
	require.NotEmpty(t, doc.Content)
	return doc.Content[0]
}
