// Package sshtransport adapts golang.org/x/crypto/ssh to the honeypot: every
// login succeeds after being recorded, one session channel is accepted per
// connection and exec requests are recorded then refused.
package sshtransport

import (
	"encoding/binary"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/AnishMulay/sandtrap/internal/event_log"
	"github.com/AnishMulay/sandtrap/internal/log_service"
	"golang.org/x/crypto/ssh"
)

type Options struct {
	ServerVersion    string
	HostKey          ssh.Signer
	HandshakeTimeout time.Duration
}

type Transport struct {
	cfg              *ssh.ServerConfig
	handshakeTimeout time.Duration
	events           event_log.EventLog
	ls               log_service.LogService
}

func New(opts Options, events event_log.EventLog, ls log_service.LogService) *Transport {
	t := &Transport{
		handshakeTimeout: opts.HandshakeTimeout,
		events:           events,
		ls:               ls,
	}

	t.cfg = &ssh.ServerConfig{
		ServerVersion: opts.ServerVersion,
		PasswordCallback: func(conn ssh.ConnMetadata, password []byte) (*ssh.Permissions, error) {
			t.recordCredentials(conn, string(password))
			return &ssh.Permissions{}, nil
		},
		PublicKeyCallback: func(conn ssh.ConnMetadata, key ssh.PublicKey) (*ssh.Permissions, error) {
			t.recordCredentials(conn, "<pubkey:"+ssh.FingerprintSHA256(key)+">")
			return &ssh.Permissions{}, nil
		},
	}
	t.cfg.AddHostKey(opts.HostKey)

	return t
}

func (t *Transport) recordCredentials(conn ssh.ConnMetadata, secret string) {
	remote := conn.RemoteAddr().String()
	if err := event_log.Credentials(t.events, remote, conn.User(), secret); err != nil {
		t.ls.Warn(log_service.LogEvent{
			Message:  "Failed to record credentials",
			Metadata: map[string]any{"remote": remote, "error": err.Error()},
		})
	}
	t.ls.Debug(log_service.LogEvent{
		Message:  "Authentication attempt",
		Metadata: map[string]any{"remote": remote, "user": conn.User()},
	})
}

// Handshake runs the SSH server handshake on conn.
func (t *Transport) Handshake(conn net.Conn) (*Conn, error) {
	if t.handshakeTimeout > 0 {
		conn.SetDeadline(time.Now().Add(t.handshakeTimeout))
	}
	sshConn, chans, reqs, err := ssh.NewServerConn(conn, t.cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrHandshakeFailed, err)
	}
	conn.SetDeadline(time.Time{})
	go ssh.DiscardRequests(reqs)

	return &Conn{
		sshConn: sshConn,
		chans:   chans,
		remote:  conn.RemoteAddr().String(),
		shell:   make(chan struct{}),
		events:  t.events,
		ls:      t.ls,
	}, nil
}

// Conn is one authenticated SSH connection.
type Conn struct {
	sshConn   *ssh.ServerConn
	chans     <-chan ssh.NewChannel
	remote    string
	shell     chan struct{}
	shellOnce sync.Once
	events    event_log.EventLog
	ls        log_service.LogService
}

func (c *Conn) User() string { return c.sshConn.User() }

func (c *Conn) Close() error {
	return c.sshConn.Close()
}

// AcceptChannel waits up to timeout for a "session" channel. Channels of any
// other type are refused while waiting; once a session is accepted every
// later channel is refused.
func (c *Conn) AcceptChannel(timeout time.Duration) (ssh.Channel, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		select {
		case newChan, ok := <-c.chans:
			if !ok {
				return nil, ErrNoChannel
			}
			if newChan.ChannelType() != "session" {
				newChan.Reject(ssh.Prohibited, "administratively prohibited")
				continue
			}
			ch, reqs, err := newChan.Accept()
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrNoChannel, err)
			}
			go c.serveRequests(reqs)
			go c.rejectChannels()
			return ch, nil
		case <-timer.C:
			return nil, ErrNoChannel
		}
	}
}

// AwaitShell waits up to timeout for a shell request on the accepted channel.
func (c *Conn) AwaitShell(timeout time.Duration) error {
	select {
	case <-c.shell:
		return nil
	case <-time.After(timeout):
		return ErrNoShell
	}
}

func (c *Conn) rejectChannels() {
	for newChan := range c.chans {
		newChan.Reject(ssh.Prohibited, "administratively prohibited")
	}
}

func (c *Conn) serveRequests(reqs <-chan *ssh.Request) {
	for req := range reqs {
		switch req.Type {
		case "pty-req", "env":
			req.Reply(true, nil)
		case "shell":
			req.Reply(true, nil)
			c.shellOnce.Do(func() { close(c.shell) })
		case "exec":
			c.recordExec(parseString(req.Payload))
			req.Reply(false, nil)
		default:
			if req.WantReply {
				req.Reply(false, nil)
			}
		}
	}
}

func (c *Conn) recordExec(payload string) {
	if err := event_log.Exec(c.events, c.remote, payload); err != nil {
		c.ls.Warn(log_service.LogEvent{
			Message:  "Failed to record exec request",
			Metadata: map[string]any{"remote": c.remote, "error": err.Error()},
		})
	}
	c.ls.Info(log_service.LogEvent{
		Message:  "Exec request refused",
		Metadata: map[string]any{"remote": c.remote, "command": payload},
	})
}

// parseString decodes an SSH string: uint32 length then bytes. A truncated
// payload yields whatever follows the length prefix.
func parseString(payload []byte) string {
	if len(payload) < 4 {
		return ""
	}
	n := binary.BigEndian.Uint32(payload[:4])
	rest := payload[4:]
	if uint64(n) > uint64(len(rest)) {
		return string(rest)
	}
	return string(rest[:n])
}
