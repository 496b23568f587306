//go:build !linux
// +build !linux

// File: server/server_other.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package server

import (
	"context"

	"github.com/momentics/wsengine/api"
)

// New is only implemented on Linux.
func New(cfg *Config, factory HandlerFactory, opts ...Option) (*Server, error) {
	return nil, api.ErrNotSupported
}

// Run is only implemented on Linux.
func (s *Server) Run(ctx context.Context) error { return api.ErrNotSupported }

func (s *Server) wake() {}

func (s *Server) releaseResources() {}
