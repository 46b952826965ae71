// Package supervisor accepts TCP connections, enforces the connection cap and
// runs one session per connection on its own clone of the master filesystem.
package supervisor

import (
	"context"
	"errors"
	"fmt"
	"net"
	"runtime/debug"
	"sync"
	"time"

	"github.com/AnishMulay/sandtrap/internal/config"
	"github.com/AnishMulay/sandtrap/internal/event_log"
	"github.com/AnishMulay/sandtrap/internal/filesystem"
	"github.com/AnishMulay/sandtrap/internal/interpreter"
	"github.com/AnishMulay/sandtrap/internal/log_service"
	"github.com/AnishMulay/sandtrap/internal/session"
	"github.com/AnishMulay/sandtrap/internal/transport/sshtransport"
	"github.com/google/uuid"
)

type Options struct {
	MaxConnections int
	MaxBufferSize  int
	ChannelTimeout time.Duration
	ShellTimeout   time.Duration
	PollInterval   time.Duration
	Banner         string
	Distro         string
	FatalScope     string
}

type Supervisor struct {
	opts      Options
	master    *filesystem.FileSystem
	transport *sshtransport.Transport
	events    event_log.EventLog
	ls        log_service.LogService
	fatal     *FatalSignal
	conns     *registry
	wg        sync.WaitGroup
}

func New(opts Options, master *filesystem.FileSystem, transport *sshtransport.Transport, events event_log.EventLog, ls log_service.LogService, fatal *FatalSignal) *Supervisor {
	if opts.MaxConnections <= 0 {
		opts.MaxConnections = 20
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = time.Second
	}
	if opts.ChannelTimeout <= 0 {
		opts.ChannelTimeout = 20 * time.Second
	}
	if opts.ShellTimeout <= 0 {
		opts.ShellTimeout = 10 * time.Second
	}
	if opts.FatalScope == "" {
		opts.FatalScope = config.FatalScopeGlobal
	}
	if fatal == nil {
		fatal = NewFatalSignal()
	}

	return &Supervisor{
		opts:      opts,
		master:    master,
		transport: transport,
		events:    events,
		ls:        ls,
		fatal:     fatal,
		conns:     newRegistry(opts.MaxConnections),
	}
}

func (s *Supervisor) Fatal() *FatalSignal { return s.fatal }

// Active returns the number of registered connections.
func (s *Supervisor) Active() int { return s.conns.len() }

type deadliner interface {
	SetDeadline(t time.Time) error
}

// Serve runs the accept loop on ln until ctx is cancelled or the fatal signal
// is raised. ln is closed on return. A raised fatal signal is reported as an
// error wrapping ErrFatal; cancellation returns nil.
func (s *Supervisor) Serve(ctx context.Context, ln net.Listener) error {
	defer ln.Close()

	s.ls.Info(log_service.LogEvent{
		Message:  "Accepting connections",
		Metadata: map[string]any{"addr": ln.Addr().String(), "max_connections": s.opts.MaxConnections},
	})

	dl, canPoll := ln.(deadliner)
	for {
		if stop, err := s.stopped(ctx); stop {
			return err
		}

		if canPoll {
			dl.SetDeadline(time.Now().Add(s.opts.PollInterval))
		}
		conn, err := ln.Accept()
		if err != nil {
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				continue
			}
			if stop, stopErr := s.stopped(ctx); stop {
				return stopErr
			}
			s.ls.Error(log_service.LogEvent{
				Message:  "Accept failed",
				Metadata: map[string]any{"error": err.Error()},
			})
			return fmt.Errorf("accept: %w", err)
		}

		s.admit(conn)
	}
}

func (s *Supervisor) stopped(ctx context.Context) (bool, error) {
	select {
	case <-s.fatal.Done():
		s.ls.Error(log_service.LogEvent{
			Message:  "Fatal signal raised, stopping accept loop",
			Metadata: map[string]any{"cause": fmt.Sprint(s.fatal.Cause())},
		})
		return true, fmt.Errorf("%w: %v", ErrFatal, s.fatal.Cause())
	case <-ctx.Done():
		s.ls.Info(log_service.LogEvent{Message: "Accept loop stopped"})
		return true, nil
	default:
		return false, nil
	}
}

// Wait blocks until every session started by Serve has finished.
func (s *Supervisor) Wait() {
	s.wg.Wait()
}

func (s *Supervisor) admit(conn net.Conn) {
	remote := conn.RemoteAddr().String()
	if err := s.conns.add(remote); err != nil {
		s.ls.Warn(log_service.LogEvent{
			Message:  "Connection rejected",
			Metadata: map[string]any{"remote": remote, "reason": err.Error()},
		})
		conn.Close()
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.conns.remove(remote)
		s.handle(conn, remote)
	}()
}

func (s *Supervisor) handle(conn net.Conn, remote string) {
	id := uuid.NewString()
	defer conn.Close()
	defer func() {
		if r := recover(); r != nil {
			s.ls.Error(log_service.LogEvent{
				Message:  "Connection handler panicked",
				Metadata: map[string]any{"remote": remote, "session": id, "panic": fmt.Sprint(r), "stack": string(debug.Stack())},
			})
			s.fault(fmt.Errorf("%w: panic: %v", session.ErrSessionFault, r))
		}
	}()

	s.record(event_log.Connect(s.events, remote, id))
	defer func() { s.record(event_log.Disconnect(s.events, remote, id)) }()

	c, err := s.transport.Handshake(conn)
	if err != nil {
		s.ls.Debug(log_service.LogEvent{
			Message:  "Handshake failed",
			Metadata: map[string]any{"remote": remote, "error": err.Error()},
		})
		return
	}
	defer c.Close()

	ch, err := c.AcceptChannel(s.opts.ChannelTimeout)
	if err != nil {
		s.ls.Debug(log_service.LogEvent{
			Message:  "No channel opened",
			Metadata: map[string]any{"remote": remote, "error": err.Error()},
		})
		return
	}
	if err := c.AwaitShell(s.opts.ShellTimeout); err != nil {
		ch.Close()
		s.ls.Debug(log_service.LogEvent{
			Message:  "No shell requested",
			Metadata: map[string]any{"remote": remote, "error": err.Error()},
		})
		return
	}

	fs := s.master.Clone()
	fs.Env.User = c.User()

	sess := session.New(session.Options{
		ID:            id,
		Remote:        remote,
		Username:      c.User(),
		Distro:        s.opts.Distro,
		Banner:        s.opts.Banner,
		MaxBufferSize: s.opts.MaxBufferSize,
	}, interpreter.New(fs), s.events, s.ls)

	s.ls.Info(log_service.LogEvent{
		Message:  "Shell session started",
		Metadata: map[string]any{"remote": remote, "session": id, "user": c.User()},
	})

	if _, err := sess.Run(ch); err != nil {
		s.fault(err)
	}
}

// fault applies the configured fatal scope to an unexpected session error.
// The session itself is already torn down.
func (s *Supervisor) fault(err error) {
	if s.opts.FatalScope == config.FatalScopeSession {
		s.ls.Warn(log_service.LogEvent{
			Message:  "Session fault contained",
			Metadata: map[string]any{"error": err.Error()},
		})
		return
	}
	s.fatal.Raise(err)
}

func (s *Supervisor) record(err error) {
	if err != nil {
		s.ls.Warn(log_service.LogEvent{
			Message:  "Failed to record event",
			Metadata: map[string]any{"error": err.Error()},
		})
	}
}
