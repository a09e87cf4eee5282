// SPDX-FileCopyrightText: 2025 The boostd Authors
// SPDX-License-Identifier: Apache-2.0

package prometheus

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/adaptive-sched/boostd/internal/exporter/prometheus/collector"
	"github.com/adaptive-sched/boostd/internal/monitor"
	"github.com/adaptive-sched/boostd/internal/service"
	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type (
	Initializer = service.Initializer
	Monitor     = monitor.LoadDataProvider
	BoostReader = collector.BoostReader
)

// APIRegistry is where the exporter mounts its /metrics handler
type APIRegistry interface {
	Register(endpoint, summary, description string, handler http.Handler) error
}

type Opts struct {
	logger          *slog.Logger
	debugCollectors map[string]bool
}

// DefaultOpts returns a new Opts with defaults set
func DefaultOpts() Opts {
	return Opts{
		logger: slog.Default(),
		debugCollectors: map[string]bool{
			"go": true,
		},
	}
}

// OptionFn is a function that sets one or more options in Opts
type OptionFn func(*Opts)

// WithLogger sets the logger for the Exporter
func WithLogger(logger *slog.Logger) OptionFn {
	return func(o *Opts) {
		o.logger = logger
	}
}

// WithDebugCollectors sets the runtime debug collectors ("go", "process")
func WithDebugCollectors(names []string) OptionFn {
	return func(o *Opts) {
		o.debugCollectors = make(map[string]bool)
		for _, name := range names {
			o.debugCollectors[name] = true
		}
	}
}

// Exporter exposes load and boost state to Prometheus
type Exporter struct {
	logger          *slog.Logger
	monitor         Monitor
	boost           BoostReader
	server          APIRegistry
	registry        *prom.Registry
	debugCollectors map[string]bool
}

var _ Initializer = (*Exporter)(nil)

// NewExporter creates a new Prometheus exporter instance
func NewExporter(pm Monitor, boost BoostReader, s APIRegistry, applyOpts ...OptionFn) *Exporter {
	opts := DefaultOpts()
	for _, apply := range applyOpts {
		apply(&opts)
	}

	return &Exporter{
		logger:          opts.logger.With("service", "prometheus"),
		monitor:         pm,
		boost:           boost,
		server:          s,
		registry:        prom.NewRegistry(),
		debugCollectors: opts.debugCollectors,
	}
}

func collectorForName(name string) (prom.Collector, error) {
	switch name {
	case "go":
		return collectors.NewGoCollector(), nil
	case "process":
		return collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}), nil
	default:
		return nil, fmt.Errorf("unknown collector: %s", name)
	}
}

func (e *Exporter) Init() error {
	e.logger.Info("Initializing Prometheus exporter")
	for name := range e.debugCollectors {
		c, err := collectorForName(name)
		if err != nil {
			e.logger.Error("Error creating collector", "collector", name, "error", err)
			return err
		}
		e.logger.Info("Enabling debug collector", "collector", name)
		e.registry.MustRegister(c)
	}

	e.registry.MustRegister(collector.NewBuildInfoCollector())
	e.registry.MustRegister(collector.NewLoadCollector(e.monitor, e.boost, e.logger))

	return e.server.Register("/metrics", "Metrics", "Prometheus metrics",
		promhttp.HandlerFor(
			e.registry,
			promhttp.HandlerOpts{
				EnableOpenMetrics: true,
				Registry:          e.registry,
			},
		))
}

// Name implements service.Service
func (e *Exporter) Name() string {
	return "prometheus"
}
