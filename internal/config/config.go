// SPDX-FileCopyrightText: 2025 The boostd Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"gopkg.in/yaml.v3"
)

// DefaultPort is the port the API server listens on when none is configured
const DefaultPort = ":28100"

// Duration wraps time.Duration so YAML configs can use strings like "500ms"
type Duration time.Duration

func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return fmt.Errorf("invalid duration: %s", node.Value)
	}

	if parsed, err := time.ParseDuration(s); err == nil {
		*d = Duration(parsed)
		return nil
	}

	// plain integers are taken as nanoseconds
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		*d = Duration(n)
		return nil
	}

	return fmt.Errorf("invalid duration %q", s)
}

// Config represents the complete application configuration
type (
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	}

	Host struct {
		ProcFS string `yaml:"procfs"`
	}

	Monitor struct {
		Interval  Duration `yaml:"interval"`
		Staleness Duration `yaml:"staleness"`
	}

	Web struct {
		Config          string   `yaml:"configFile"`
		ListenAddresses []string `yaml:"listenAddresses"`
	}

	Boost struct {
		Level     int `yaml:"level"`
		TargetPID int `yaml:"targetPid"`
	}

	Stdout struct {
		Enabled  bool     `yaml:"enabled"`
		Interval Duration `yaml:"interval"`
	}

	Exporter struct {
		Stdout Stdout `yaml:"stdout"`
	}

	Debug struct {
		Pprof bool `yaml:"pprof"`
	}

	Config struct {
		Log      Log      `yaml:"log"`
		Host     Host     `yaml:"host"`
		Monitor  Monitor  `yaml:"monitor"`
		Web      Web      `yaml:"web"`
		Boost    Boost    `yaml:"boost"`
		Exporter Exporter `yaml:"exporter"`
		Debug    Debug    `yaml:"debug"`
	}
)

const (
	// Flags
	LogLevelFlag  = "log.level"
	LogFormatFlag = "log.format"

	ProcFSFlag = "host.procfs"

	MonitorIntervalFlag  = "monitor.interval"
	MonitorStalenessFlag = "monitor.staleness"

	WebListenFlag = "web.listen-address"
	WebConfigFlag = "web.config-file"

	BoostLevelFlag     = "boost.level"
	BoostTargetPIDFlag = "boost.target-pid"

	StdoutExporterFlag = "exporter.stdout"
	PprofFlag          = "debug.pprof"
)

// DefaultConfig returns a Config with default values
func DefaultConfig() *Config {
	return &Config{
		Log: Log{
			Level:  "info",
			Format: "text",
		},
		Host: Host{
			ProcFS: "/proc",
		},
		Monitor: Monitor{
			Interval:  Duration(500 * time.Millisecond),
			Staleness: Duration(500 * time.Millisecond),
		},
		Web: Web{
			ListenAddresses: []string{DefaultPort},
		},
		Boost: Boost{
			Level:     0,
			TargetPID: 0,
		},
		Exporter: Exporter{
			Stdout: Stdout{
				Enabled:  false,
				Interval: Duration(2 * time.Second),
			},
		},
		Debug: Debug{
			Pprof: false,
		},
	}
}

// Load loads configuration from an io.Reader
func Load(r io.Reader) (*Config, error) {
	cfg := DefaultConfig()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.sanitize()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// FromFile loads configuration from a file
func FromFile(filePath string) (*Config, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	return Load(file)
}

type ConfigUpdaterFn func(*Config) error

// RegisterFlags registers command-line flags with the kingpin app
// and returns a ConfigUpdaterFn that updates the config from parsed
// flags, as command line arguments override config file settings
func RegisterFlags(app *kingpin.Application) ConfigUpdaterFn {
	// track flags that were explicitly set
	flagsSet := map[string]bool{}

	app.PreAction(func(ctx *kingpin.ParseContext) error {
		// Clear the map in case this function is called multiple times
		flagsSet = map[string]bool{}

		for _, element := range ctx.Elements {
			if flag, ok := element.Clause.(*kingpin.FlagClause); ok && element.Value != nil {
				flagsSet[flag.Model().Name] = true
			}
		}
		return nil
	})

	// Logging
	logLevel := app.Flag(LogLevelFlag, "Logging level: debug, info, warn, error").Default("info").Enum("debug", "info", "warn", "error")
	logFormat := app.Flag(LogFormatFlag, "Logging format: text or json").Default("text").Enum("text", "json")

	// Host
	procFS := app.Flag(ProcFSFlag, "Path to the procfs mount point").Default("/proc").ExistingDir()

	// Monitor
	monitorInterval := app.Flag(MonitorIntervalFlag, "CPU load sampling interval (0 disables sampling)").Default("500ms").Duration()
	monitorStaleness := app.Flag(MonitorStalenessFlag, "Maximum age of a load snapshot served to exporters").Default("500ms").Duration()

	// Web
	listenAddrs := app.Flag(WebListenFlag, "Addresses for the API server to listen on").Default(DefaultPort).Strings()
	webConfig := app.Flag(WebConfigFlag, "Path to exporter-toolkit web config (TLS, auth)").Default("").String()

	// Boost
	boostLevel := app.Flag(BoostLevelFlag, "Initial boost level (0-3)").Default("0").Int()
	targetPID := app.Flag(BoostTargetPIDFlag, "Initial target process id (0 = unset)").Default("0").Int()

	// Exporters / debug
	stdoutExporter := app.Flag(StdoutExporterFlag, "Enable the periodic stdout load table").Default("false").Bool()
	pprof := app.Flag(PprofFlag, "Enable pprof endpoints on the API server").Default("false").Bool()

	return func(cfg *Config) error {
		if flagsSet[LogLevelFlag] {
			cfg.Log.Level = *logLevel
		}
		if flagsSet[LogFormatFlag] {
			cfg.Log.Format = *logFormat
		}
		if flagsSet[ProcFSFlag] {
			cfg.Host.ProcFS = *procFS
		}
		if flagsSet[MonitorIntervalFlag] {
			cfg.Monitor.Interval = Duration(*monitorInterval)
		}
		if flagsSet[MonitorStalenessFlag] {
			cfg.Monitor.Staleness = Duration(*monitorStaleness)
		}
		if flagsSet[WebListenFlag] {
			cfg.Web.ListenAddresses = *listenAddrs
		}
		if flagsSet[WebConfigFlag] {
			cfg.Web.Config = *webConfig
		}
		if flagsSet[BoostLevelFlag] {
			cfg.Boost.Level = *boostLevel
		}
		if flagsSet[BoostTargetPIDFlag] {
			cfg.Boost.TargetPID = *targetPID
		}
		if flagsSet[StdoutExporterFlag] {
			cfg.Exporter.Stdout.Enabled = *stdoutExporter
		}
		if flagsSet[PprofFlag] {
			cfg.Debug.Pprof = *pprof
		}

		cfg.sanitize()
		return cfg.Validate()
	}
}

func (c *Config) sanitize() {
	c.Log.Level = strings.TrimSpace(c.Log.Level)
	c.Log.Format = strings.TrimSpace(c.Log.Format)
	c.Host.ProcFS = strings.TrimSpace(c.Host.ProcFS)
	c.Web.Config = strings.TrimSpace(c.Web.Config)
}

// Validate checks for configuration errors
func (c *Config) Validate() error {
	var errs []string
	{ // log level
		validLogLevels := map[string]bool{
			"debug": true,
			"info":  true,
			"warn":  true,
			"error": true,
		}
		if _, valid := validLogLevels[c.Log.Level]; !valid {
			errs = append(errs, fmt.Sprintf("invalid log level: %s", c.Log.Level))
		}
	}
	{ // log format
		validFormats := map[string]bool{
			"text": true,
			"json": true,
		}
		if _, valid := validFormats[c.Log.Format]; !valid {
			errs = append(errs, fmt.Sprintf("invalid log format: %s", c.Log.Format))
		}
	}
	{ // host
		if c.Host.ProcFS == "" {
			errs = append(errs, "host.procfs must not be empty")
		}
	}
	{ // monitor
		if c.Monitor.Interval < 0 {
			errs = append(errs, fmt.Sprintf("monitor interval must not be negative: %s", time.Duration(c.Monitor.Interval)))
		}
		if c.Monitor.Staleness < 0 {
			errs = append(errs, fmt.Sprintf("monitor staleness must not be negative: %s", time.Duration(c.Monitor.Staleness)))
		}
	}
	{ // web
		if len(c.Web.ListenAddresses) == 0 {
			errs = append(errs, "web.listenAddresses must not be empty")
		}
	}
	{ // boost
		if c.Boost.Level < 0 || c.Boost.Level > 3 {
			errs = append(errs, fmt.Sprintf("boost level out of range [0, 3]: %d", c.Boost.Level))
		}
		if c.Boost.TargetPID < 0 {
			errs = append(errs, fmt.Sprintf("boost target pid must not be negative: %d", c.Boost.TargetPID))
		}
	}
	{ // stdout exporter
		if c.Exporter.Stdout.Enabled && c.Exporter.Stdout.Interval <= 0 {
			errs = append(errs, fmt.Sprintf("stdout exporter interval must be positive: %s", time.Duration(c.Exporter.Stdout.Interval)))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(errs, ", "))
	}

	return nil
}

func (c *Config) String() string {
	bytes, err := yaml.Marshal(c)
	if err == nil {
		return string(bytes)
	}
	// NOTE: this code path should not happen, but if yaml marshal fails
	// for some reason, manually build the string
	return c.manualString()
}

func (c *Config) manualString() string {
	cfgs := []struct {
		Name  string
		Value string
	}{
		{LogLevelFlag, c.Log.Level},
		{LogFormatFlag, c.Log.Format},
		{ProcFSFlag, c.Host.ProcFS},
		{MonitorIntervalFlag, time.Duration(c.Monitor.Interval).String()},
		{MonitorStalenessFlag, time.Duration(c.Monitor.Staleness).String()},
		{WebListenFlag, strings.Join(c.Web.ListenAddresses, ",")},
		{BoostLevelFlag, fmt.Sprintf("%d", c.Boost.Level)},
		{BoostTargetPIDFlag, fmt.Sprintf("%d", c.Boost.TargetPID)},
	}
	sb := strings.Builder{}

	for _, cfg := range cfgs {
		sb.WriteString(cfg.Name)
		sb.WriteString(": ")
		sb.WriteString(cfg.Value)
		sb.WriteString("\n")
	}

	return sb.String()
}
