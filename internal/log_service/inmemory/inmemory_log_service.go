package inmemory

import (
	"sync"

	"github.com/AnishMulay/sandtrap/internal/log_service"
)

type Entry struct {
	Level string
	Event log_service.LogEvent
}

// InMemoryLogService keeps every event in memory. It backs tests and dry runs.
type InMemoryLogService struct {
	mu      sync.Mutex
	entries []Entry
}

func NewInMemoryLogService() *InMemoryLogService {
	return &InMemoryLogService{}
}

func (ls *InMemoryLogService) record(level string, event log_service.LogEvent) {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	ls.entries = append(ls.entries, Entry{Level: level, Event: event})
}

func (ls *InMemoryLogService) Debug(event log_service.LogEvent) { ls.record(log_service.DebugLevel, event) }
func (ls *InMemoryLogService) Info(event log_service.LogEvent)  { ls.record(log_service.InfoLevel, event) }
func (ls *InMemoryLogService) Warn(event log_service.LogEvent)  { ls.record(log_service.WarnLevel, event) }
func (ls *InMemoryLogService) Error(event log_service.LogEvent) { ls.record(log_service.ErrorLevel, event) }

func (ls *InMemoryLogService) Entries() []Entry {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	return append([]Entry(nil), ls.entries...)
}

// Count returns how many events were logged at level.
func (ls *InMemoryLogService) Count(level string) int {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	n := 0
	for _, e := range ls.entries {
		if e.Level == level {
			n++
		}
	}
	return n
}

var _ log_service.LogService = (*InMemoryLogService)(nil)
