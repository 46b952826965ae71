package supervisor

import "sync"

// FatalSignal is raised at most once and never reset. Raising it stops the
// accept loop.
type FatalSignal struct {
	once  sync.Once
	done  chan struct{}
	cause error
}

func NewFatalSignal() *FatalSignal {
	return &FatalSignal{done: make(chan struct{})}
}

// Raise records cause and fires the signal. Only the first call has any
// effect.
func (f *FatalSignal) Raise(cause error) {
	f.once.Do(func() {
		f.cause = cause
		close(f.done)
	})
}

func (f *FatalSignal) Done() <-chan struct{} { return f.done }

func (f *FatalSignal) Raised() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// Cause is the error passed to the first Raise, or nil if not raised.
func (f *FatalSignal) Cause() error {
	if !f.Raised() {
		return nil
	}
	return f.cause
}
