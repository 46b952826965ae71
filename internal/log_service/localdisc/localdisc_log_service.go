package localdisc

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/AnishMulay/sandtrap/internal/log_service"
	"gopkg.in/natefinch/lumberjack.v2"
)

type Options struct {
	MaxSizeMB  int
	MaxBackups int
	Stdout     bool
}

type LocalDiscLogService struct {
	nodeID   string
	mu       sync.Mutex
	logger   *log.Logger
	rotator  *lumberjack.Logger
	minLevel int
}

func NewLocalDiscLogService(logDir string, nodeID string, minLogLevel string, opts Options) (*LocalDiscLogService, error) {
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	if opts.MaxSizeMB <= 0 {
		opts.MaxSizeMB = 50
	}

	rotator := &lumberjack.Logger{
		Filename:   filepath.Join(logDir, fmt.Sprintf("%s.log", nodeID)),
		MaxSize:    opts.MaxSizeMB,
		MaxBackups: opts.MaxBackups,
	}

	var out io.Writer = rotator
	if opts.Stdout {
		out = io.MultiWriter(rotator, os.Stdout)
	}

	return &LocalDiscLogService{
		nodeID:   nodeID,
		logger:   log.New(out, "", 0),
		rotator:  rotator,
		minLevel: log_service.GetLevelValue(minLogLevel),
	}, nil
}

func (ls *LocalDiscLogService) shouldLog(level string) bool {
	return log_service.GetLevelValue(level) >= ls.minLevel
}

func formatLog(level string, event log_service.LogEvent) string {
	ts := event.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	keys := make([]string, 0, len(event.Metadata))
	for k := range event.Metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var meta strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&meta, "%s=%v ", k, event.Metadata[k])
	}

	return fmt.Sprintf("%s [%s] %s: %s %s", ts.Format(time.RFC3339), event.NodeID, level, event.Message, strings.TrimSpace(meta.String()))
}

func (ls *LocalDiscLogService) log(level string, event log_service.LogEvent) {
	if !ls.shouldLog(level) {
		return
	}

	ls.mu.Lock()
	defer ls.mu.Unlock()

	event.NodeID = ls.nodeID
	ls.logger.Println(formatLog(level, event))
}

func (ls *LocalDiscLogService) Debug(event log_service.LogEvent) {
	ls.log(log_service.DebugLevel, event)
}

func (ls *LocalDiscLogService) Info(event log_service.LogEvent) {
	ls.log(log_service.InfoLevel, event)
}

func (ls *LocalDiscLogService) Warn(event log_service.LogEvent) {
	ls.log(log_service.WarnLevel, event)
}

func (ls *LocalDiscLogService) Error(event log_service.LogEvent) {
	ls.log(log_service.ErrorLevel, event)
}

func (ls *LocalDiscLogService) Close() error {
	return ls.rotator.Close()
}

var _ log_service.LogService = (*LocalDiscLogService)(nil)
