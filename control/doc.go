// Package control
// Author: momentics <momentics@gmail.com>
//
// Runtime metrics and debug introspection for wsengine hosts.
//
// Provides concurrent-safe primitives:
//   - Counter registry updated by the event loop and read from any goroutine
//   - Named debug probes evaluated on demand
package control
