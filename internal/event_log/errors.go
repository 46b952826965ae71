package event_log

import "errors"

var (
	ErrEncodeFailed = errors.New("failed to encode event")
	ErrWriteFailed  = errors.New("failed to write event")
)
