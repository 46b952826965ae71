package jsonl

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/AnishMulay/sandtrap/internal/event_log"
	"github.com/AnishMulay/sandtrap/internal/log_service"
	"gopkg.in/natefinch/lumberjack.v2"
)

const FileName = "events.jsonl"

type Options struct {
	MaxSizeMB  int
	MaxBackups int
	// Clock stamps events that arrive without a timestamp.
	Clock func() time.Time
}

// JSONLEventLog appends one JSON object per line to <logDir>/events.jsonl.
type JSONLEventLog struct {
	mu      sync.Mutex
	rotator *lumberjack.Logger
	ls      log_service.LogService
	now     func() time.Time
}

func NewJSONLEventLog(logDir string, ls log_service.LogService, opts Options) (*JSONLEventLog, error) {
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	if opts.MaxSizeMB <= 0 {
		opts.MaxSizeMB = 100
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}

	return &JSONLEventLog{
		rotator: &lumberjack.Logger{
			Filename:   filepath.Join(logDir, FileName),
			MaxSize:    opts.MaxSizeMB,
			MaxBackups: opts.MaxBackups,
		},
		ls:  ls,
		now: opts.Clock,
	}, nil
}

func (el *JSONLEventLog) Record(event event_log.Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = el.now().UTC()
	}

	line, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("%w: %v", event_log.ErrEncodeFailed, err)
	}
	line = append(line, '\n')

	el.mu.Lock()
	defer el.mu.Unlock()

	if _, err := el.rotator.Write(line); err != nil {
		el.ls.Error(log_service.LogEvent{
			Message:  "Failed to write event",
			Metadata: map[string]any{"kind": event.Kind, "remote": event.Remote, "error": err.Error()},
		})
		return fmt.Errorf("%w: %v", event_log.ErrWriteFailed, err)
	}
	return nil
}

func (el *JSONLEventLog) Close() error {
	el.mu.Lock()
	defer el.mu.Unlock()
	return el.rotator.Close()
}

var _ event_log.EventLog = (*JSONLEventLog)(nil)
