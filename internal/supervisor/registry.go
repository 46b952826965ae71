package supervisor

import "sync"

// registry tracks active remote addresses up to a fixed capacity.
type registry struct {
	mu     sync.Mutex
	max    int
	active map[string]struct{}
}

func newRegistry(max int) *registry {
	return &registry{max: max, active: make(map[string]struct{})}
}

func (r *registry) add(remote string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.active[remote]; ok {
		return ErrAlreadyActive
	}
	if len(r.active) >= r.max {
		return ErrAtCapacity
	}
	r.active[remote] = struct{}{}
	return nil
}

func (r *registry) remove(remote string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.active, remote)
}

func (r *registry) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.active)
}
