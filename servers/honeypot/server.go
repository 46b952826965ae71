package honeypot

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	bs "github.com/AnishMulay/sandtrap/internal/block_service"
	blockinmemory "github.com/AnishMulay/sandtrap/internal/block_service/inmemory"
	blocklocal "github.com/AnishMulay/sandtrap/internal/block_service/localdisc"
	"github.com/AnishMulay/sandtrap/internal/config"
	"github.com/AnishMulay/sandtrap/internal/event_log/jsonl"
	"github.com/AnishMulay/sandtrap/internal/filesystem"
	"github.com/AnishMulay/sandtrap/internal/fs_loader"
	"github.com/AnishMulay/sandtrap/internal/health"
	logservice "github.com/AnishMulay/sandtrap/internal/log_service"
	locallog "github.com/AnishMulay/sandtrap/internal/log_service/localdisc"
	"github.com/AnishMulay/sandtrap/internal/supervisor"
	"github.com/AnishMulay/sandtrap/internal/transport/sshtransport"
)

type Options struct {
	Config *config.Config
}

type runnable interface {
	Run() error
}

type honeypotServer struct {
	cfg    *config.Config
	ls     *locallog.LocalDiscLogService
	events *jsonl.JSONLEventLog
	disk   *blocklocal.LocalDiscBlockService
	sup    *supervisor.Supervisor
	health *health.GRPCHealthService
}

func (s *honeypotServer) Run() error {
	defer s.close()

	ln, err := net.Listen("tcp", s.cfg.Server.ListenAddr)
	if err != nil {
		s.ls.Error(logservice.LogEvent{
			Message:  "Failed to listen",
			Metadata: map[string]any{"address": s.cfg.Server.ListenAddr, "error": err.Error()},
		})
		return fmt.Errorf("listen on %s: %w", s.cfg.Server.ListenAddr, err)
	}

	if s.health != nil {
		if err := s.health.Start(s.sup.Fatal().Done()); err != nil {
			ln.Close()
			return err
		}
		defer s.health.Stop()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	served := make(chan error, 1)
	go func() { served <- s.sup.Serve(ctx, ln) }()

	// Wait for termination signal or for the accept loop to give up
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(c)

	select {
	case sig := <-c:
		s.ls.Info(logservice.LogEvent{
			Message:  "Shutting down",
			Metadata: map[string]any{"signal": sig.String()},
		})
		cancel()
		err = <-served
	case err = <-served:
	}

	if err != nil && errors.Is(err, supervisor.ErrFatal) {
		s.ls.Error(logservice.LogEvent{
			Message:  "Honeypot stopped after a fatal session fault",
			Metadata: map[string]any{"error": err.Error()},
		})
	}
	return err
}

func (s *honeypotServer) close() {
	if s.disk != nil {
		s.disk.Close()
	}
	s.events.Close()
	s.ls.Close()
}

func Build(opts Options) (runnable, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// 1. Logging
	ls, err := locallog.NewLocalDiscLogService(cfg.Log.Dir, cfg.NodeID, cfg.Log.Level, locallog.Options{
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		Stdout:     cfg.Log.Stdout,
	})
	if err != nil {
		return nil, err
	}

	events, err := jsonl.NewJSONLEventLog(cfg.Log.Dir, ls, jsonl.Options{
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
	})
	if err != nil {
		ls.Close()
		return nil, err
	}

	srv := &honeypotServer{cfg: cfg, ls: ls, events: events}

	// 2. Master filesystem every session is cloned from
	master, err := srv.buildFilesystem()
	if err != nil {
		srv.close()
		return nil, err
	}

	// 3. Transport
	hostKey, err := sshtransport.LoadOrGenerateHostKey(cfg.Server.HostKeyPath, ls)
	if err != nil {
		srv.close()
		return nil, err
	}
	transport := sshtransport.New(sshtransport.Options{
		ServerVersion:    cfg.Server.ServerVersion,
		HostKey:          hostKey,
		HandshakeTimeout: cfg.Server.ChannelTimeout,
	}, events, ls)

	// 4. Supervisor
	srv.sup = supervisor.New(supervisor.Options{
		MaxConnections: cfg.Server.MaxConnections,
		MaxBufferSize:  cfg.Server.MaxBufferSize,
		ChannelTimeout: cfg.Server.ChannelTimeout,
		ShellTimeout:   cfg.Server.ShellTimeout,
		PollInterval:   cfg.Server.PollInterval,
		Banner:         cfg.Server.Banner,
		Distro:         cfg.Server.Distro,
		FatalScope:     cfg.Server.FatalScope,
	}, master, transport, events, ls, supervisor.NewFatalSignal())

	if cfg.Server.HealthAddr != "" {
		srv.health = health.NewGRPCHealthService(cfg.Server.HealthAddr, ls)
	}

	return srv, nil
}

func (s *honeypotServer) buildFilesystem() (*filesystem.FileSystem, error) {
	fc := s.cfg.Filesystem

	var blocks bs.BlockService
	if fc.DiskFile != "" {
		disk, err := blocklocal.NewLocalDiscBlockService(fc.DiskFile, fc.BlockSize, s.ls)
		if err != nil {
			return nil, err
		}
		s.disk = disk
		blocks = disk
	} else {
		blocks = blockinmemory.NewInMemoryBlockService(fc.BlockSize, nil)
	}

	fs, err := filesystem.New(filesystem.Options{
		TotalInodes: fc.TotalInodes,
		TotalBlocks: fc.TotalBlocks,
		Blocks:      blocks,
		Env: filesystem.Env{
			Path:     fc.Path,
			Home:     fc.Home,
			User:     fc.Owner,
			Hostname: fc.Hostname,
			Lang:     fc.Lang,
		},
		Owner: fc.Owner,
		Group: fc.Group,
	})
	if err != nil {
		return nil, err
	}

	if fc.LayoutFile != "" {
		f, err := os.Open(fc.LayoutFile)
		if err != nil {
			return nil, fmt.Errorf("open layout file: %w", err)
		}
		err = fs_loader.LoadLayout(fs, f)
		f.Close()
		if err != nil {
			return nil, err
		}
	}
	if fc.SourceDir != "" {
		if err := fs_loader.LoadDir(fs, fc.SourceDir, s.ls); err != nil {
			return nil, err
		}
	}

	sb := fs.Superblock()
	s.ls.Info(logservice.LogEvent{
		Message: "Filesystem ready",
		Metadata: map[string]any{
			"freeInodes": sb.FreeInodes(),
			"freeBlocks": sb.FreeBlocks(),
		},
	})
	return fs, nil
}
