// Package profile provides optional runtime profiling for imagemath.
//
// Profiling integrates [github.com/pkg/profile] and is compiled in only
// with the "pprof" build tag:
//
//	go build -tags pprof .
//
// Without the tag every [Profiler] is a no-op and [Modes] is empty.
//
// # Modes
//
//   - allocs:    memory allocation profiling (all allocations)
//   - block:     blocking profiling
//   - clock:     wall-clock profiling
//   - cpu:       CPU profiling
//   - goroutine: goroutine profiling
//   - heap:      heap profiling (live allocations)
//   - mem:       memory profiling
//   - mutex:     mutex contention profiling
//   - thread:    thread creation profiling
//   - trace:     execution trace
//
// A broadcast over many images is the usual reason to profile: run
//
//	imagemath --pprof-mode=cpu eval stack.math
//	go tool pprof -http=: ~/.cache/imagemath/pprof/cpu.pprof
//
// and look for time spent outside the dispatcher.
package profile

// Tag is the build tag required to enable pprof profiling.
const Tag = `pprof`

// Profiler describes one profiling session.
type Profiler struct {
	// Mode is one of [Modes]. An empty or unknown mode disables profiling.
	Mode string
	// Path is the output directory; empty selects a temporary directory.
	Path string
	// Quiet suppresses the profiler's own log output.
	Quiet bool
}

// Stopper ends a profiling session and flushes its output.
type Stopper interface{ Stop() }

// Start begins profiling. Both Start and the returned Stop are always safe
// to call.
func (p Profiler) Start() Stopper {
	if p.Mode == "" {
		return ignore{}
	}

	return start(p)
}

type ignore struct{}

func (ignore) Stop() {}
