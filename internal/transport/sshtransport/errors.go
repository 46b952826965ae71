package sshtransport

import "errors"

var (
	ErrHandshakeFailed = errors.New("ssh handshake failed")
	ErrNoChannel       = errors.New("no session channel opened")
	ErrNoShell         = errors.New("no shell requested")
	ErrHostKey         = errors.New("host key unavailable")
)
