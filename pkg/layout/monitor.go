package layout

// Monitor is the engine's only coupling to the outside world during a
// run: an integer completion percentage reported after every iteration
// and a cancellation flag polled before the next one starts. Cancellation
// takes effect only at iteration boundaries, so the geometry is always
// left in the last fully-applied state.
//
// Implementations may be called from whatever goroutine runs the layout;
// the engine itself never spawns one.
type Monitor interface {
	// Progress reports completion in percent, 0 through 100.
	Progress(pct int)
	// Canceled reports whether the run should stop before the next
	// iteration.
	Canceled() bool
}

// NopMonitor ignores progress and never cancels. The default.
type NopMonitor struct{}

// Progress implements [Monitor].
func (NopMonitor) Progress(int) {}

// Canceled implements [Monitor].
func (NopMonitor) Canceled() bool { return false }

// FuncMonitor adapts two functions to the [Monitor] interface. Either may
// be nil.
type FuncMonitor struct {
	OnProgress func(pct int)
	IsCanceled func() bool
}

// Progress implements [Monitor].
func (m FuncMonitor) Progress(pct int) {
	if m.OnProgress != nil {
		m.OnProgress(pct)
	}
}

// Canceled implements [Monitor].
func (m FuncMonitor) Canceled() bool {
	return m.IsCanceled != nil && m.IsCanceled()
}
