// SPDX-FileCopyrightText: 2025 The boostd Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"syscall"
	"time"

	"github.com/alecthomas/kingpin/v2"

	"github.com/adaptive-sched/boostd/internal/attributes"
	"github.com/adaptive-sched/boostd/internal/boost"
	"github.com/adaptive-sched/boostd/internal/config"
	"github.com/adaptive-sched/boostd/internal/cpu"
	"github.com/adaptive-sched/boostd/internal/exporter/prometheus"
	"github.com/adaptive-sched/boostd/internal/exporter/stdout"
	"github.com/adaptive-sched/boostd/internal/logger"
	"github.com/adaptive-sched/boostd/internal/monitor"
	"github.com/adaptive-sched/boostd/internal/server"
	"github.com/adaptive-sched/boostd/internal/service"
	"github.com/adaptive-sched/boostd/internal/version"
)

func main() {
	// parse args and config and exit with error if there is an error
	cfg, err := parseArgsAndConfig()
	if err != nil {
		os.Exit(1)
	}

	logger := logger.New(cfg.Log.Level, cfg.Log.Format, os.Stdout)
	logVersionInfo(logger)
	printConfigInfo(logger, cfg)

	services, err := createServices(logger, cfg)
	if err != nil {
		logger.Error("Failed to create services", "error", err)
		os.Exit(1)
	}

	if err := service.Init(logger, services); err != nil {
		logger.Error("Failed to initialize services", "error", err)
		os.Exit(1)
	}

	logger.Info("Starting boostd")
	if err := service.Run(context.Background(), logger, services); err != nil {
		logger.Error("boostd terminated with an error", "error", err)
		os.Exit(1)
	}
	logger.Info("Graceful shutdown completed")
}

func logVersionInfo(logger *slog.Logger) {
	v := version.Info()
	logger.Info("boostd version information",
		"version", v.Version,
		"buildTime", v.BuildTime,
		"gitBranch", v.GitBranch,
		"gitCommit", v.GitCommit,
		"goVersion", v.GoVersion,
		"goOS", v.GoOS,
		"goArch", v.GoArch,
	)
}

func parseArgsAndConfig() (*config.Config, error) {
	const appName = "boostd"
	app := kingpin.New(appName, "CPU load driven process boost daemon.")

	configFile := app.Flag("config.file", "Path to YAML configuration file").String()
	updateConfig := config.RegisterFlags(app)
	kingpin.MustParse(app.Parse(os.Args[1:]))

	logger := logger.New("info", "text", os.Stdout)
	cfg := config.DefaultConfig()
	if *configFile != "" {
		logger.Info("Loading configuration file", "path", *configFile)
		loadedCfg, err := config.FromFile(*configFile)
		if err != nil {
			logger.Error("Error loading config file", "error", err.Error())
			return nil, err
		}
		// Replace default config with loaded config
		cfg = loadedCfg
		logger.Info("Completed loading of configuration file", "path", *configFile)
	}

	// Apply command line flags (these override config file settings)
	if err := updateConfig(cfg); err != nil {
		logger.Error("Error applying command line flags", "error", err.Error())
		return nil, err
	}

	return cfg, nil
}

func printConfigInfo(logger *slog.Logger, cfg *config.Config) {
	if !logger.Enabled(context.Background(), slog.LevelInfo) || cfg.Log.Format == "json" {
		return
	}

	fmt.Printf(`
Configuration
━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━
%s
━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━
`, cfg)
}

func createServices(logger *slog.Logger, cfg *config.Config) ([]service.Service, error) {
	logger.Debug("Creating all services")

	reader, err := cpu.NewProcReader(cfg.Host.ProcFS)
	if err != nil {
		return nil, fmt.Errorf("failed to open procfs: %w", err)
	}

	resolver, err := boost.NewProcResolver(cfg.Host.ProcFS)
	if err != nil {
		return nil, fmt.Errorf("failed to open procfs: %w", err)
	}

	ctrl := boost.NewController(
		boost.NewNiceAdjuster(),
		resolver,
		boost.WithLogger(logger),
	)
	ctrl.SetBoostLevel(cfg.Boost.Level)
	if cfg.Boost.TargetPID > 0 {
		ctrl.SetTargetPID(cfg.Boost.TargetPID)
	}

	lm := monitor.NewLoadMonitor(
		reader,
		monitor.WithLogger(logger),
		monitor.WithInterval(time.Duration(cfg.Monitor.Interval)),
		monitor.WithMaxStaleness(time.Duration(cfg.Monitor.Staleness)),
	)

	apiServer := server.NewAPIServer(
		server.WithLogger(logger),
		server.WithListen(cfg.Web.ListenAddresses, cfg.Web.Config),
	)

	services := []service.Service{
		service.NewSignalHandler(logger, os.Interrupt, syscall.SIGTERM),
		lm,
		apiServer,
		attributes.NewAttributes(apiServer, ctrl, lm, attributes.WithLogger(logger)),
		prometheus.NewExporter(lm, ctrl, apiServer, prometheus.WithLogger(logger)),
		server.NewProbe(apiServer, lm),
	}

	if cfg.Exporter.Stdout.Enabled {
		services = append(services, stdout.NewExporter(
			lm,
			stdout.WithLogger(logger),
			stdout.WithInterval(time.Duration(cfg.Exporter.Stdout.Interval)),
		))
	}

	if cfg.Debug.Pprof {
		services = append(services, server.NewPprof(apiServer))
	}

	return services, nil
}
