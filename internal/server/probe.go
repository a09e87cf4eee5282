// SPDX-FileCopyrightText: 2025 The boostd Authors
// SPDX-License-Identifier: Apache-2.0

package server

import (
	"encoding/json"
	"net/http"

	"github.com/adaptive-sched/boostd/internal/monitor"
	"github.com/adaptive-sched/boostd/internal/service"
)

type probe struct {
	api     APIService
	monitor monitor.LoadDataProvider
}

var (
	_ service.Service     = (*probe)(nil)
	_ service.Initializer = (*probe)(nil)
)

// NewProbe creates a probe service providing health check endpoints
func NewProbe(api APIService, monitor monitor.LoadDataProvider) *probe {
	return &probe{
		api:     api,
		monitor: monitor,
	}
}

func (p *probe) Name() string {
	return "probe"
}

func (p *probe) Init() error {
	return p.api.Register("/probe/", "probe", "Health check endpoints", p.handlers())
}

func (p *probe) handlers() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/probe/livez", p.livezHandler)
	mux.HandleFunc("/probe/readyz", p.readyzHandler)
	return mux
}

// livezHandler returns 200 as long as the process serves requests
func (p *probe) livezHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	p.respond(w, http.StatusOK, "ok")
}

// readyzHandler returns 200 once the monitor can produce a snapshot
func (p *probe) readyzHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if _, err := p.monitor.Snapshot(); err != nil {
		p.respond(w, http.StatusServiceUnavailable, "monitor not operational")
		return
	}

	p.respond(w, http.StatusOK, "ok")
}

func (p *probe) respond(w http.ResponseWriter, code int, status string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": status})
}
