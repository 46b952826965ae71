package jsonl

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/AnishMulay/sandtrap/internal/event_log"
	"github.com/AnishMulay/sandtrap/internal/log_service/inmemory"
	"github.com/google/go-cmp/cmp"
)

func TestJSONLEventLogRecord(t *testing.T) {
	dir := t.TempDir()
	ts := time.Date(2025, time.May, 1, 12, 0, 0, 0, time.UTC)

	el, err := NewJSONLEventLog(dir, inmemory.NewInMemoryLogService(), Options{Clock: func() time.Time { return ts }})
	if err != nil {
		t.Fatalf("NewJSONLEventLog() error = %v", err)
	}

	steps := []func() error{
		func() error { return event_log.Connect(el, "10.0.0.1:5555", "s1") },
		func() error { return event_log.Credentials(el, "10.0.0.1:5555", "root", "toor") },
		func() error { return event_log.Shell(el, "10.0.0.1:5555", "s1", "ls", "bin\tetc") },
		func() error { return event_log.Exec(el, "10.0.0.2:4444", "uname -a") },
		func() error { return event_log.Disconnect(el, "10.0.0.1:5555", "s1") },
	}
	for i, step := range steps {
		if err := step(); err != nil {
			t.Fatalf("step %d: Record() error = %v", i, err)
		}
	}
	if err := el.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	want := []event_log.Event{
		{Timestamp: ts, Remote: "10.0.0.1:5555", Kind: event_log.KindConnect, Session: "s1"},
		{Timestamp: ts, Remote: "10.0.0.1:5555", Kind: event_log.KindCredentials, Username: "root", Password: "toor"},
		{Timestamp: ts, Remote: "10.0.0.1:5555", Kind: event_log.KindShell, Session: "s1", Command: "ls", Output: "bin\tetc"},
		{Timestamp: ts, Remote: "10.0.0.2:4444", Kind: event_log.KindExec, Exec: "uname -a"},
		{Timestamp: ts, Remote: "10.0.0.1:5555", Kind: event_log.KindDisconnect, Session: "s1"},
	}

	f, err := os.Open(filepath.Join(dir, FileName))
	if err != nil {
		t.Fatalf("open events file: %v", err)
	}
	defer f.Close()

	var got []event_log.Event
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var e event_log.Event
		if err := json.Unmarshal(sc.Bytes(), &e); err != nil {
			t.Fatalf("line %q is not JSON: %v", sc.Text(), err)
		}
		got = append(got, e)
	}

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}
}

func TestJSONLEventLogFieldNames(t *testing.T) {
	dir := t.TempDir()
	el, err := NewJSONLEventLog(dir, inmemory.NewInMemoryLogService(), Options{})
	if err != nil {
		t.Fatalf("NewJSONLEventLog() error = %v", err)
	}
	if err := event_log.Credentials(el, "1.2.3.4:22", "admin", ""); err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	el.Close()

	data, err := os.ReadFile(filepath.Join(dir, FileName))
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	for _, key := range []string{"ts", "remote", "kind", "username"} {
		if _, ok := raw[key]; !ok {
			t.Errorf("record missing %q: %s", key, data)
		}
	}
	if _, ok := raw["command"]; ok {
		t.Errorf("credentials record carries command field: %s", data)
	}
}
