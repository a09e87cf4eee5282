// SPDX-FileCopyrightText: 2025 The boostd Authors
// SPDX-License-Identifier: Apache-2.0

package stdout

import (
	"context"
	"io"
	"log/slog"
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/adaptive-sched/boostd/internal/monitor"
	"github.com/adaptive-sched/boostd/internal/service"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

type (
	Initializer = service.Initializer
	Runner      = service.Runner
	Shutdowner  = service.Shutdowner
	Monitor     = monitor.LoadDataProvider
)

// Exporter periodically prints the per-core load table to stdout
type Exporter struct {
	logger   *slog.Logger
	monitor  Monitor
	out      io.WriteCloser
	ticker   *time.Ticker
	interval time.Duration
}

var (
	_ Initializer = (*Exporter)(nil)
	_ Runner      = (*Exporter)(nil)
	_ Shutdowner  = (*Exporter)(nil)
)

type Opts struct {
	logger   *slog.Logger
	out      io.WriteCloser
	interval time.Duration
}

// DefaultOpts returns a new Opts with defaults set
func DefaultOpts() Opts {
	return Opts{
		logger:   slog.Default(),
		out:      os.Stdout,
		interval: 2 * time.Second,
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

func WithOutput(out io.WriteCloser) OptionFn {
	return func(o *Opts) {
		o.out = out
	}
}

func WithInterval(interval time.Duration) OptionFn {
	return func(o *Opts) {
		o.interval = interval
	}
}

func NewExporter(pm Monitor, applyOpts ...OptionFn) *Exporter {
	opts := DefaultOpts()
	for _, apply := range applyOpts {
		apply(&opts)
	}

	return &Exporter{
		logger:   opts.logger.With("service", "stdout"),
		monitor:  pm,
		out:      opts.out,
		interval: opts.interval,
	}
}

func (e *Exporter) Init() error {
	e.ticker = time.NewTicker(e.interval)
	return nil
}

func (e *Exporter) Run(ctx context.Context) error {
	for {
		select {
		case <-e.ticker.C:
			snapshot, err := e.monitor.Snapshot()
			if err != nil {
				e.logger.Error("Failed to collect load data", "error", err)
				continue
			}
			write(e.out, snapshot)
		case <-ctx.Done():
			e.logger.Info("Exiting ticker")
			return nil
		}
	}
}

func write(out io.Writer, snapshot *monitor.Snapshot) {
	cores := make([]int64, 0, len(snapshot.PerCore))
	for core := range snapshot.PerCore {
		cores = append(cores, core)
	}
	sort.Slice(cores, func(i, j int) bool { return cores[i] < cores[j] })

	rows := [][]string{}
	for _, core := range cores {
		rows = append(rows, []string{
			"cpu" + strconv.FormatInt(core, 10),
			strconv.Itoa(snapshot.PerCore[core]),
		})
	}
	rows = append(rows,
		[]string{"average", strconv.Itoa(snapshot.Average)},
		[]string{"max", strconv.Itoa(snapshot.Max)},
	)

	table := tablewriter.NewWriter(out)
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Formatting.Alignment = tw.AlignRight
	})
	table.Header([]string{"Core", "Load(%)"})
	_ = table.Bulk(rows)
	_ = table.Render()
}

func (e *Exporter) Shutdown() error {
	e.ticker.Stop()
	if e.out == os.Stdout {
		return nil
	}
	return e.out.Close()
}

// Name implements service.Service
func (e *Exporter) Name() string {
	return "stdout"
}
