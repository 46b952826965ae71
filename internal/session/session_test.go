package session

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/AnishMulay/sandtrap/internal/event_log"
	evmem "github.com/AnishMulay/sandtrap/internal/event_log/inmemory"
	"github.com/AnishMulay/sandtrap/internal/filesystem"
	"github.com/AnishMulay/sandtrap/internal/interpreter"
	lsmem "github.com/AnishMulay/sandtrap/internal/log_service/inmemory"
)

type fakeChannel struct {
	in     io.Reader
	out    bytes.Buffer
	closed bool
}

func (c *fakeChannel) Read(p []byte) (int, error)  { return c.in.Read(p) }
func (c *fakeChannel) Write(p []byte) (int, error) { return c.out.Write(p) }
func (c *fakeChannel) Close() error                { c.closed = true; return nil }

type panicShell struct{}

func (panicShell) Execute(string) (string, bool) { panic("boom") }
func (panicShell) Cwd() string                   { return "/" }

const testPrompt = "admin@debian:/$ "

func newTestSession(t *testing.T, maxBuffer int) (*Session, *evmem.InMemoryEventLog) {
	t.Helper()
	fs, err := filesystem.New(filesystem.Options{})
	if err != nil {
		t.Fatalf("filesystem.New() error = %v", err)
	}
	if err := fs.SaveFile("notes.txt", strings.NewReader("a\nb\n"), 4); err != nil {
		t.Fatalf("SaveFile() error = %v", err)
	}
	events := evmem.NewInMemoryEventLog()
	s := New(Options{
		Remote:        "192.0.2.7:40000",
		Username:      "admin",
		Distro:        "debian",
		Banner:        "Welcome\r\n",
		MaxBufferSize: maxBuffer,
	}, interpreter.New(fs), events, lsmem.NewInMemoryLogService())
	return s, events
}

func TestSessionTranscript(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		want       string
		wantReason EndReason
	}{
		{
			name:       "prompt only",
			input:      "",
			want:       "Welcome\r\n" + testPrompt,
			wantReason: EndClosed,
		},
		{
			name:       "pwd",
			input:      "pwd\r",
			want:       "Welcome\r\n" + testPrompt + "pwd\r" + "\r\n/\r\n" + testPrompt,
			wantReason: EndClosed,
		},
		{
			name:       "empty line",
			input:      "\r",
			want:       "Welcome\r\n" + testPrompt + "\r" + "\r\n" + testPrompt,
			wantReason: EndClosed,
		},
		{
			name:       "cd changes prompt",
			input:      "mkdir tmp\rcd tmp\r",
			want:       "Welcome\r\n" + testPrompt + "mkdir tmp\r\r\n" + testPrompt + "cd tmp\r\r\nadmin@debian:/tmp/$ ",
			wantReason: EndClosed,
		},
		{
			name:       "output newlines normalized",
			input:      "cat notes.txt\n",
			want:       "Welcome\r\n" + testPrompt + "cat notes.txt\n" + "\r\na\r\nb\r\n" + testPrompt,
			wantReason: EndClosed,
		},
		{
			name:       "backspace",
			input:      "lx\x7fs\r",
			want:       "Welcome\r\n" + testPrompt + "lx\x7f\b \bs\r" + "\r\nnotes.txt\r\n" + testPrompt,
			wantReason: EndClosed,
		},
		{
			name:       "backspace on empty buffer",
			input:      "\x08pwd\r",
			want:       "Welcome\r\n" + testPrompt + "\x08pwd\r" + "\r\n/\r\n" + testPrompt,
			wantReason: EndClosed,
		},
		{
			name:       "crlf echoed before output",
			input:      "pwd\r\nls\r\n",
			want:       "Welcome\r\n" + testPrompt + "pwd\r\n" + "\r\n/\r\n" + testPrompt + "ls\r\n" + "\r\nnotes.txt\r\n" + testPrompt,
			wantReason: EndClosed,
		},
		{
			name:       "exit",
			input:      "exit\r\npwd\r",
			want:       "Welcome\r\n" + testPrompt + "exit\r\n",
			wantReason: EndExit,
		},
		{
			name:       "input too long",
			input:      strings.Repeat("a", 20),
			want:       "Welcome\r\n" + testPrompt + strings.Repeat("a", 17) + inputTooLong,
			wantReason: EndInputLimit,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := newTestSession(t, 16)
			ch := &fakeChannel{in: strings.NewReader(tt.input)}

			reason, err := s.Run(ch)
			if err != nil {
				t.Fatalf("Run() error = %v", err)
			}
			if reason != tt.wantReason {
				t.Errorf("Run() reason = %q, want %q", reason, tt.wantReason)
			}
			if got := ch.out.String(); got != tt.want {
				t.Errorf("transcript = %q, want %q", got, tt.want)
			}
			if !ch.closed {
				t.Errorf("channel not closed")
			}
			if s.State() != StateClosed {
				t.Errorf("State() = %v, want %v", s.State(), StateClosed)
			}
		})
	}
}

func TestSessionCRLFCountsOnce(t *testing.T) {
	s, events := newTestSession(t, 64)
	ch := &fakeChannel{in: strings.NewReader("pwd\r\nls\r\n")}

	if _, err := s.Run(ch); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	got := events.Events(event_log.KindShell)
	if len(got) != 2 {
		t.Fatalf("recorded %d commands, want 2: %+v", len(got), got)
	}
	if got[0].Command != "pwd" || got[0].Output != "/" {
		t.Errorf("first event = %+v", got[0])
	}
	if got[1].Command != "ls" || got[1].Output != "notes.txt" {
		t.Errorf("second event = %+v", got[1])
	}
	if got[0].Session != s.ID() || got[0].Remote != "192.0.2.7:40000" {
		t.Errorf("event not attributed to session: %+v", got[0])
	}
}

func TestSessionCRLFSplitAcrossReads(t *testing.T) {
	s, _ := newTestSession(t, 64)
	ch := &fakeChannel{in: io.MultiReader(strings.NewReader("pwd\r"), strings.NewReader("\nls\r"))}

	if _, err := s.Run(ch); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	want := "Welcome\r\n" + testPrompt + "pwd\r" + "\r\n/\r\n" + testPrompt + "ls\r" + "\r\nnotes.txt\r\n" + testPrompt
	if got := ch.out.String(); got != want {
		t.Errorf("transcript = %q, want %q", got, want)
	}
}

func TestSessionInvalidUTF8IsFault(t *testing.T) {
	s, _ := newTestSession(t, 64)
	ch := &fakeChannel{in: strings.NewReader("ls \xff\xfe\r")}

	reason, err := s.Run(ch)
	if !errors.Is(err, ErrSessionFault) || !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("Run() error = %v, want session fault", err)
	}
	if reason != EndFault {
		t.Errorf("Run() reason = %q, want %q", reason, EndFault)
	}
	if !ch.closed {
		t.Errorf("channel not closed after fault")
	}
}

func TestSessionPanicIsFault(t *testing.T) {
	ls := lsmem.NewInMemoryLogService()
	s := New(Options{Username: "root", Distro: "debian"}, panicShell{}, evmem.NewInMemoryEventLog(), ls)
	ch := &fakeChannel{in: strings.NewReader("ls\r")}

	reason, err := s.Run(ch)
	if !errors.Is(err, ErrSessionFault) {
		t.Fatalf("Run() error = %v, want session fault", err)
	}
	if reason != EndFault {
		t.Errorf("Run() reason = %q, want %q", reason, EndFault)
	}
	if ls.Count("ERROR") == 0 {
		t.Errorf("panic not logged")
	}
	if !ch.closed || s.State() != StateClosed {
		t.Errorf("session not torn down after panic")
	}
}

func TestNewAssignsID(t *testing.T) {
	a := New(Options{}, panicShell{}, evmem.NewInMemoryEventLog(), lsmem.NewInMemoryLogService())
	b := New(Options{}, panicShell{}, evmem.NewInMemoryEventLog(), lsmem.NewInMemoryLogService())
	if a.ID() == "" || a.ID() == b.ID() {
		t.Errorf("IDs = %q, %q, want distinct non-empty", a.ID(), b.ID())
	}
	if a.State() != StateAwaitingAuth {
		t.Errorf("State() = %v, want %v", a.State(), StateAwaitingAuth)
	}
}

func TestLineReader(t *testing.T) {
	lr := newLineReader(64)
	var lines []string
	for _, b := range []byte("ab\rcd\nef\r\n\x7f\x7fé\x7fx\r") {
		if lr.feed(b) == lineDone {
			lines = append(lines, string(lr.take()))
		}
	}
	want := []string{"ab", "cd", "ef", "x"}
	if strings.Join(lines, "|") != strings.Join(want, "|") {
		t.Errorf("lines = %q, want %q", lines, want)
	}
}
