// Package session runs the fake shell on an established channel: it echoes
// keystrokes, assembles lines, feeds them to the interpreter and writes the
// output back under a prompt.
package session

import (
	"errors"
	"fmt"
	"io"
	"runtime/debug"
	"strings"
	"sync/atomic"
	"unicode/utf8"

	"github.com/AnishMulay/sandtrap/internal/event_log"
	"github.com/AnishMulay/sandtrap/internal/log_service"
	"github.com/google/uuid"
)

type State int32

const (
	StateAwaitingAuth State = iota
	StateShellEstablished
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateAwaitingAuth:
		return "awaiting-auth"
	case StateShellEstablished:
		return "shell-established"
	case StateClosed:
		return "closed"
	}
	return fmt.Sprintf("state(%d)", int32(s))
}

// EndReason says why Run returned.
type EndReason string

const (
	EndExit       EndReason = "exit"
	EndClosed     EndReason = "closed"
	EndInputLimit EndReason = "input-too-long"
	EndFault      EndReason = "fault"
)

const (
	backspace = 8
	del       = 127
	readSize  = 1024

	inputTooLong = "Input too long. Connection closed.\r\n"
	erase        = "\b \b"
)

type Shell interface {
	Execute(line string) (output string, exit bool)
	Cwd() string
}

type Options struct {
	ID            string
	Remote        string
	Username      string
	Distro        string
	Banner        string
	MaxBufferSize int
}

type Session struct {
	id      string
	opts    Options
	shell   Shell
	events  event_log.EventLog
	ls      log_service.LogService
	state   atomic.Int32
	lastCmd string
}

func New(opts Options, shell Shell, events event_log.EventLog, ls log_service.LogService) *Session {
	if opts.ID == "" {
		opts.ID = uuid.NewString()
	}
	if opts.MaxBufferSize <= 0 {
		opts.MaxBufferSize = 4096
	}
	return &Session{id: opts.ID, opts: opts, shell: shell, events: events, ls: ls}
}

func (s *Session) ID() string { return s.id }

func (s *Session) State() State { return State(s.state.Load()) }

func (s *Session) prompt() string {
	return fmt.Sprintf("%s@%s:%s$ ", s.opts.Username, s.opts.Distro, s.shell.Cwd())
}

// Run drives the command loop on ch until the remote exits, the channel
// closes, the input limit is hit or a fault occurs. ch is closed on return.
// Faults, including panics in the shell, come back wrapped in
// ErrSessionFault.
func (s *Session) Run(ch io.ReadWriteCloser) (reason EndReason, err error) {
	s.state.Store(int32(StateShellEstablished))
	defer func() {
		if r := recover(); r != nil {
			reason, err = EndFault, fmt.Errorf("%w: panic: %v", ErrSessionFault, r)
			s.ls.Error(log_service.LogEvent{
				Message:  "Session panicked",
				Metadata: map[string]any{"session": s.id, "remote": s.opts.Remote, "panic": fmt.Sprint(r), "stack": string(debug.Stack())},
			})
		}
		if err != nil {
			s.recordLastCommand()
		}
		ch.Close()
		s.state.Store(int32(StateClosed))
		s.ls.Info(log_service.LogEvent{
			Message:  "Session ended",
			Metadata: map[string]any{"session": s.id, "remote": s.opts.Remote, "reason": string(reason)},
		})
	}()

	if _, err := io.WriteString(ch, s.opts.Banner+s.prompt()); err != nil {
		return EndClosed, nil
	}

	lr := newLineReader(s.opts.MaxBufferSize)
	chunk := make([]byte, readSize)
	for {
		n, rerr := ch.Read(chunk)
		if n > 0 {
			reason, done, err := s.process(ch, lr, chunk[:n])
			if done || err != nil {
				return reason, err
			}
		}
		if rerr != nil {
			if !errors.Is(rerr, io.EOF) {
				s.ls.Debug(log_service.LogEvent{
					Message:  "Channel read failed",
					Metadata: map[string]any{"session": s.id, "error": rerr.Error()},
				})
			}
			return EndClosed, nil
		}
	}
}

// process handles one chunk of input. done reports that the session is over.
func (s *Session) process(w io.Writer, lr *lineReader, data []byte) (EndReason, bool, error) {
	var out strings.Builder
	echoFrom := 0

	flush := func() error {
		if out.Len() == 0 {
			return nil
		}
		_, err := io.WriteString(w, out.String())
		out.Reset()
		return err
	}

	for i, b := range data {
		ev := lr.feed(b)
		switch ev {
		case lineNone:
			continue
		case lineTail:
			// The CR was echoed in an earlier chunk, before the prompt.
			if echoFrom == i {
				echoFrom = i + 1
			}
			continue
		}

		end := i + 1
		if ev == lineDone && b == '\r' && end < len(data) && data[end] == '\n' {
			end++
		}
		out.Write(data[echoFrom:end])
		echoFrom = end

		switch ev {
		case lineErase:
			out.WriteString(erase)
		case lineOverflow:
			out.WriteString(inputTooLong)
			flush()
			s.ls.Warn(log_service.LogEvent{
				Message:  "Input limit exceeded",
				Metadata: map[string]any{"session": s.id, "remote": s.opts.Remote, "limit": s.opts.MaxBufferSize},
			})
			return EndInputLimit, true, nil
		case lineDone:
			raw := lr.take()
			if !utf8.Valid(raw) {
				flush()
				s.ls.Error(log_service.LogEvent{
					Message:  "Undecodable command",
					Metadata: map[string]any{"session": s.id, "remote": s.opts.Remote, "bytes": fmt.Sprintf("%q", raw)},
				})
				return EndFault, true, fmt.Errorf("%w: %w", ErrSessionFault, ErrInvalidInput)
			}

			command := strings.TrimSpace(string(raw))
			s.lastCmd = command
			output, exit := s.shell.Execute(command)
			s.record(command, output)
			if exit {
				flush()
				return EndExit, true, nil
			}

			if output != "" {
				out.WriteString("\r\n")
				out.WriteString(normalizeNewlines(output))
			}
			out.WriteString("\r\n")
			out.WriteString(s.prompt())
		}
	}

	out.Write(data[echoFrom:])
	if err := flush(); err != nil {
		return EndClosed, true, nil
	}
	return "", false, nil
}

func (s *Session) record(command, output string) {
	if err := event_log.Shell(s.events, s.opts.Remote, s.id, command, output); err != nil {
		s.ls.Warn(log_service.LogEvent{
			Message:  "Failed to record command",
			Metadata: map[string]any{"session": s.id, "error": err.Error()},
		})
	}
	s.ls.Debug(log_service.LogEvent{
		Message:  "Command executed",
		Metadata: map[string]any{"session": s.id, "remote": s.opts.Remote, "command": command},
	})
}

func (s *Session) recordLastCommand() {
	s.ls.Info(log_service.LogEvent{
		Message:  "Last command before fault",
		Metadata: map[string]any{"session": s.id, "remote": s.opts.Remote, "command": s.lastCmd},
	})
}

func normalizeNewlines(s string) string {
	return strings.ReplaceAll(strings.ReplaceAll(s, "\r\n", "\n"), "\n", "\r\n")
}
