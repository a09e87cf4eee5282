// SPDX-FileCopyrightText: 2025 The boostd Authors
// SPDX-License-Identifier: Apache-2.0

package service

import "context"

// Service is the interface that all services must implement
type Service interface {
	// Name returns the name of the service
	Name() string
}

// Initializer is implemented by services that need a setup step before running
type Initializer interface {
	Service
	Init() error
}

// Runner is implemented by services that run in the background.
// Run is expected to block until the context is cancelled.
type Runner interface {
	Service
	Run(ctx context.Context) error
}

// Shutdowner is implemented by services that need cleanup on termination
type Shutdowner interface {
	Service
	Shutdown() error
}
