package tbc

import (
	"sync"
	"sync/atomic"
)

// Runtime is the process-wide decode context shared by every engine
// instance. It holds the quadrature tables for subcarrier demodulation at
// the 4x-subcarrier sample rate, where one subcarrier cycle spans exactly
// four samples. It is initialized once, reference counted, and never torn
// down.
type Runtime struct {
	refs int32

	// Sin and Cos sample the subcarrier at the four per-cycle phases.
	Sin [4]float64
	Cos [4]float64
}

var (
	runtimeOnce sync.Once
	runtime     *Runtime
)

// AcquireRuntime returns the shared runtime, initializing it on first use.
// Callers pair it with Release, though the runtime itself outlives all
// references.
func AcquireRuntime() *Runtime {
	runtimeOnce.Do(func() {
		runtime = &Runtime{
			Sin: [4]float64{0, 1, 0, -1},
			Cos: [4]float64{1, 0, -1, 0},
		}
	})
	atomic.AddInt32(&runtime.refs, 1)
	return runtime
}

// Release drops one reference. The runtime stays initialized regardless.
func (r *Runtime) Release() {
	atomic.AddInt32(&r.refs, -1)
}

// Refs returns the current reference count.
func (r *Runtime) Refs() int {
	return int(atomic.LoadInt32(&r.refs))
}
