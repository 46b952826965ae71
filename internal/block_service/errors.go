package block_service

import "errors"

var (
	ErrBlockTooLarge    = errors.New("data exceeds block size")
	ErrBlockWriteFailed = errors.New("failed to write block")
	ErrBlockReadFailed  = errors.New("failed to read block")
)
