//go:build !linux
// +build !linux

// File: affinity/affinity_stub.go
// Author: momentics <momentics@gmail.com>
//
// Stub implementation for unsupported platforms.

package affinity

import "github.com/momentics/wsengine/api"

func setAffinityPlatform(cpuID int) error {
	return api.ErrNotSupported
}
