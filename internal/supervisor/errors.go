package supervisor

import "errors"

var (
	ErrFatal         = errors.New("fatal signal raised")
	ErrAtCapacity    = errors.New("connection limit reached")
	ErrAlreadyActive = errors.New("connection already registered")
)
