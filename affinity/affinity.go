// File: affinity/affinity.go
// Author: momentics <momentics@gmail.com>
//
// Platform-neutral API for CPU affinity. Platform-specific implementations are located
// in separate files guarded by build tags.

package affinity

import "runtime"

// PinThread locks the calling goroutine to its OS thread and pins that thread
// to cpuID. On success the goroutine stays locked: the runtime discards the
// thread when the goroutine exits, so the narrowed CPU mask never leaks to
// other goroutines.
func PinThread(cpuID int) error {
	runtime.LockOSThread()
	if err := setAffinityPlatform(cpuID); err != nil {
		runtime.UnlockOSThread()
		return err
	}
	return nil
}
