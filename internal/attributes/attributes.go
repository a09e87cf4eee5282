// SPDX-FileCopyrightText: 2025 The boostd Authors
// SPDX-License-Identifier: Apache-2.0

// Package attributes exposes the controller's tunables and telemetry as
// a small set of named read/write endpoints, shaped like the sysfs
// attribute directory of a kernel module: each attribute is a single
// newline-terminated decimal integer.
package attributes

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/adaptive-sched/boostd/internal/monitor"
	"github.com/adaptive-sched/boostd/internal/server"
	"github.com/adaptive-sched/boostd/internal/service"
)

// BoostController is the write side of the attribute surface
type BoostController interface {
	BoostLevel() int
	TargetPID() int
	SetBoostLevel(v int)
	SetTargetPID(pid int)
}

// Attributes registers the four attribute endpoints on the API server:
//
//	boost_level   rw  integer clamped to [0, 3]
//	current_load  ro  average CPU load percent
//	max_load      ro  maximum per-core CPU load percent
//	target_pid    rw  pid of the boosted process, 0 = unset
type Attributes struct {
	logger     *slog.Logger
	api        server.APIService
	controller BoostController
	monitor    monitor.LoadDataProvider
}

var (
	_ service.Service     = (*Attributes)(nil)
	_ service.Initializer = (*Attributes)(nil)
)

type Opts struct {
	logger *slog.Logger
}

// DefaultOpts returns a new Opts with defaults set
func DefaultOpts() Opts {
	return Opts{
		logger: slog.Default(),
	}
}

// OptionFn is a function that sets one or more options in Opts
type OptionFn func(*Opts)

// WithLogger sets the logger for the Attributes service
func WithLogger(logger *slog.Logger) OptionFn {
	return func(o *Opts) {
		o.logger = logger
	}
}

func NewAttributes(api server.APIService, controller BoostController, monitor monitor.LoadDataProvider, applyOpts ...OptionFn) *Attributes {
	opts := DefaultOpts()
	for _, apply := range applyOpts {
		apply(&opts)
	}

	return &Attributes{
		logger:     opts.logger.With("service", "attributes"),
		api:        api,
		controller: controller,
		monitor:    monitor,
	}
}

func (a *Attributes) Name() string {
	return "attributes"
}

func (a *Attributes) Init() error {
	return a.api.Register("/attrs/", "attributes", "Controller attributes", a.handlers())
}

func (a *Attributes) handlers() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/attrs/boost_level", a.readWrite("boost_level", a.controller.BoostLevel, a.controller.SetBoostLevel))
	mux.Handle("/attrs/current_load", a.readOnly("current_load", a.currentLoad))
	mux.Handle("/attrs/max_load", a.readOnly("max_load", a.maxLoad))
	mux.Handle("/attrs/target_pid", a.readWrite("target_pid", a.controller.TargetPID, a.controller.SetTargetPID))
	return mux
}

func (a *Attributes) currentLoad() int {
	if snap := a.monitor.LastSnapshot(); snap != nil {
		return snap.Average
	}
	return 0
}

func (a *Attributes) maxLoad() int {
	if snap := a.monitor.LastSnapshot(); snap != nil {
		return snap.Max
	}
	return 0
}

// readOnly serves the attribute value on GET and rejects writes
func (a *Attributes) readOnly(name string, read func() int) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			a.serveValue(w, read())
		default:
			w.Header().Set("Allow", http.MethodGet)
			http.Error(w, "attribute is read-only", http.StatusMethodNotAllowed)
		}
	})
}

// readWrite additionally accepts POST/PUT of a decimal integer.
// A body that does not parse leaves the stored value unchanged and is
// still acknowledged with success; only a diagnostic is recorded. This
// mirrors the sysfs store semantics the surface is modeled on.
func (a *Attributes) readWrite(name string, read func() int, write func(int)) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			a.serveValue(w, read())

		case http.MethodPost, http.MethodPut:
			body, err := io.ReadAll(io.LimitReader(r.Body, 64))
			if err != nil {
				http.Error(w, "failed to read request body", http.StatusBadRequest)
				return
			}

			v, err := parseDecimal(string(body))
			if err != nil {
				a.logger.Warn("ignoring invalid attribute write",
					"attribute", name, "value", strings.TrimSpace(string(body)))
				w.WriteHeader(http.StatusOK)
				return
			}

			write(v)
			w.WriteHeader(http.StatusOK)

		default:
			w.Header().Set("Allow", strings.Join([]string{http.MethodGet, http.MethodPost, http.MethodPut}, ", "))
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		}
	})
}

func (a *Attributes) serveValue(w http.ResponseWriter, v int) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if _, err := fmt.Fprintf(w, "%d\n", v); err != nil {
		a.logger.Error("failed to write attribute value", "error", err)
	}
}

// parseDecimal parses a decimal integer with optional surrounding
// whitespace, the way attribute writers produce them ("2\n")
func parseDecimal(s string) (int, error) {
	return strconv.Atoi(strings.TrimSpace(s))
}
