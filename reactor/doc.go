// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>

// Package reactor provides the poll-mode readiness reactor abstraction and its epoll (Linux) implementation.
package reactor
