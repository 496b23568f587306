// File: server/options.go
// Package server defines functional options for the Server.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package server

import (
	"log"

	"github.com/momentics/wsengine/control"
)

// Option customizes server initialization.
type Option func(*Server)

// WithMetrics shares a metrics registry with the caller.
func WithMetrics(mr *control.MetricsRegistry) Option {
	return func(s *Server) {
		if mr != nil {
			s.metrics = mr
		}
	}
}

// WithLogger overrides the default logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}
