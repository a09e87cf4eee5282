// SPDX-FileCopyrightText: 2025 The boostd Authors
// SPDX-License-Identifier: Apache-2.0

package collector

import (
	"log/slog"
	"strconv"

	"github.com/adaptive-sched/boostd/internal/monitor"
	"github.com/prometheus/client_golang/prometheus"
)

const boostdNS = "boostd"

type LoadDataProvider = monitor.LoadDataProvider

// BoostReader is the read side of the boost controller
type BoostReader interface {
	BoostLevel() int
	TargetPID() int
}

// LoadCollector exposes the monitor's load snapshot and the boost
// controller's scalars as gauges. All series of one scrape come from a
// single snapshot, so they are mutually consistent.
type LoadCollector struct {
	pm     LoadDataProvider
	boost  BoostReader
	logger *slog.Logger

	cpuLoadDesc *prometheus.Desc
	avgLoadDesc *prometheus.Desc
	maxLoadDesc *prometheus.Desc

	boostLevelDesc *prometheus.Desc
	targetPIDDesc  *prometheus.Desc
}

var _ prometheus.Collector = (*LoadCollector)(nil)

func NewLoadCollector(pm LoadDataProvider, boost BoostReader, logger *slog.Logger) *LoadCollector {
	return &LoadCollector{
		pm:     pm,
		boost:  boost,
		logger: logger.With("collector", "load"),

		cpuLoadDesc: prometheus.NewDesc(
			prometheus.BuildFQName(boostdNS, "cpu", "load_percent"),
			"Utilization of one CPU core over the last sampling interval",
			[]string{"cpu"}, nil),
		avgLoadDesc: prometheus.NewDesc(
			prometheus.BuildFQName(boostdNS, "cpu", "load_avg_percent"),
			"Average utilization over all online CPU cores",
			nil, nil),
		maxLoadDesc: prometheus.NewDesc(
			prometheus.BuildFQName(boostdNS, "cpu", "load_max_percent"),
			"Maximum per-core utilization",
			nil, nil),

		boostLevelDesc: prometheus.NewDesc(
			prometheus.BuildFQName(boostdNS, "boost", "level"),
			"Currently configured boost level (0-3)",
			nil, nil),
		targetPIDDesc: prometheus.NewDesc(
			prometheus.BuildFQName(boostdNS, "boost", "target_pid"),
			"Pid of the boosted process, 0 when unset",
			nil, nil),
	}
}

func (c *LoadCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.cpuLoadDesc
	ch <- c.avgLoadDesc
	ch <- c.maxLoadDesc
	ch <- c.boostLevelDesc
	ch <- c.targetPIDDesc
}

func (c *LoadCollector) Collect(ch chan<- prometheus.Metric) {
	snapshot, err := c.pm.Snapshot()
	if err != nil {
		c.logger.Error("failed to collect load snapshot", "error", err)
		return
	}

	for core, load := range snapshot.PerCore {
		ch <- prometheus.MustNewConstMetric(c.cpuLoadDesc, prometheus.GaugeValue,
			float64(load), strconv.FormatInt(core, 10))
	}
	ch <- prometheus.MustNewConstMetric(c.avgLoadDesc, prometheus.GaugeValue, float64(snapshot.Average))
	ch <- prometheus.MustNewConstMetric(c.maxLoadDesc, prometheus.GaugeValue, float64(snapshot.Max))

	ch <- prometheus.MustNewConstMetric(c.boostLevelDesc, prometheus.GaugeValue, float64(c.boost.BoostLevel()))
	ch <- prometheus.MustNewConstMetric(c.targetPIDDesc, prometheus.GaugeValue, float64(c.boost.TargetPID()))
}
