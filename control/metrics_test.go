package control_test

import (
	"sync"
	"testing"

	"github.com/momentics/wsengine/control"
)

func TestMetricsRegistry(t *testing.T) {
	mr := control.NewMetricsRegistry()
	if !mr.Updated().IsZero() {
		t.Error("fresh registry reports an update time")
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				mr.Add(control.MetricFramesReceived, 1)
			}
		}()
	}
	wg.Wait()
	mr.Set("connections.active", 3)

	snap := mr.GetSnapshot()
	if snap[control.MetricFramesReceived] != 800 {
		t.Errorf("frames = %d, want 800", snap[control.MetricFramesReceived])
	}
	if mr.Get("connections.active") != 3 {
		t.Errorf("gauge = %d", mr.Get("connections.active"))
	}
	snap["connections.active"] = 99
	if mr.Get("connections.active") != 3 {
		t.Error("snapshot aliases registry state")
	}
}

func TestDebugProbes(t *testing.T) {
	dp := control.NewDebugProbes()
	n := 0
	dp.RegisterProbe("calls", func() any { n++; return n })
	dp.RegisterProbe("name", func() any { return "wsengine" })

	state := dp.DumpState()
	if state["calls"] != 1 || state["name"] != "wsengine" {
		t.Errorf("state = %v", state)
	}
	if dp.DumpState()["calls"] != 2 {
		t.Error("probe not re-evaluated")
	}
}
