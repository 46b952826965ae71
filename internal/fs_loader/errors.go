package fs_loader

import "errors"

var (
	ErrLoadFailed   = errors.New("failed to load filesystem seed")
	ErrLayoutSyntax = errors.New("invalid layout syntax")
)
