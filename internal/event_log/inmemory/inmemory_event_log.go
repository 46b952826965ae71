package inmemory

import (
	"sync"
	"time"

	"github.com/AnishMulay/sandtrap/internal/event_log"
	"golang.org/x/exp/slices"
)

type InMemoryEventLog struct {
	mu     sync.Mutex
	events []event_log.Event
}

func NewInMemoryEventLog() *InMemoryEventLog {
	return &InMemoryEventLog{}
}

func (el *InMemoryEventLog) Record(event event_log.Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	el.mu.Lock()
	defer el.mu.Unlock()
	el.events = append(el.events, event)
	return nil
}

// Events returns a copy of everything recorded so far, optionally filtered
// by kind.
func (el *InMemoryEventLog) Events(kinds ...event_log.Kind) []event_log.Event {
	el.mu.Lock()
	defer el.mu.Unlock()

	var out []event_log.Event
	for _, e := range el.events {
		if len(kinds) == 0 || slices.Contains(kinds, e.Kind) {
			out = append(out, e)
		}
	}
	return out
}

var _ event_log.EventLog = (*InMemoryEventLog)(nil)
