package session

import "errors"

var (
	ErrSessionFault = errors.New("session fault")
	ErrInvalidInput = errors.New("input is not valid UTF-8")
)
