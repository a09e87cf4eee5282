// SPDX-FileCopyrightText: 2025 The boostd Authors
// SPDX-License-Identifier: Apache-2.0

package boost

import (
	"log/slog"
	"sync"
)

// Controller owns the boost level and target pid and applies the
// mapped priority to the target whenever either changes. It is safe
// for concurrent use; the priority syscall is made with no lock held.
type Controller struct {
	logger   *slog.Logger
	adjuster PriorityAdjuster
	resolver ProcessResolver

	mu        sync.Mutex
	level     Level
	targetPID int
}

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

// WithLogger sets the logger for the Controller
func WithLogger(logger *slog.Logger) OptionFn {
	return func(o *Opts) {
		o.logger = logger
	}
}

// NewController creates a Controller with no target set and the boost
// level at its default of 0
func NewController(adjuster PriorityAdjuster, resolver ProcessResolver, applyOpts ...OptionFn) *Controller {
	opts := DefaultOpts()
	for _, apply := range applyOpts {
		apply(&opts)
	}

	return &Controller{
		logger:   opts.logger.With("service", "boost"),
		adjuster: adjuster,
		resolver: resolver,
	}
}

// BoostLevel returns the currently stored boost level
func (c *Controller) BoostLevel() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return int(c.level)
}

// TargetPID returns the currently stored target pid, 0 meaning unset
func (c *Controller) TargetPID() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.targetPID
}

// SetBoostLevel stores the clamped level and synchronously applies it
// to the current target
func (c *Controller) SetBoostLevel(v int) {
	c.mu.Lock()
	c.level = ClampLevel(v)
	level := c.level
	pid := c.targetPID
	c.mu.Unlock()

	c.logger.Info("boost level set", "level", int(level))
	c.applyBoost(pid, level)
}

// SetTargetPID stores the target pid. A value of 0 (or any negative
// value) clears the target; a positive value sets it and synchronously
// applies the current boost level to it. The pid is not validated here,
// only at application time.
func (c *Controller) SetTargetPID(pid int) {
	if pid < 0 {
		pid = 0
	}

	c.mu.Lock()
	c.targetPID = pid
	level := c.level
	c.mu.Unlock()

	c.logger.Info("target pid set", "pid", pid)
	if pid > 0 {
		c.applyBoost(pid, level)
	}
}

// Apply re-applies the current boost level to the current target.
// Repeated calls with unchanged state are harmless.
func (c *Controller) Apply() {
	c.mu.Lock()
	pid := c.targetPID
	level := c.level
	c.mu.Unlock()

	c.applyBoost(pid, level)
}

// applyBoost maps the level to a nice value and applies it to pid.
// Never a hard failure: an unset or stale target is logged and skipped.
// Must be called without c.mu held, the syscall may block briefly.
func (c *Controller) applyBoost(pid int, level Level) {
	if pid <= 0 {
		c.logger.Debug("no target pid set, nothing to boost")
		return
	}

	comm, err := c.resolver.Resolve(pid)
	if err != nil {
		c.logger.Info("target process not found", "pid", pid, "error", err)
		return
	}

	nice := level.Nice()
	if err := c.adjuster.SetPriority(pid, nice); err != nil {
		c.logger.Warn("failed to adjust priority", "pid", pid, "nice", nice, "error", err)
		return
	}

	c.logger.Info("applied boost to target",
		"level", int(level), "nice", nice, "pid", pid, "comm", comm)
}
