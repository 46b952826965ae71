package superblock

import "errors"

var (
	ErrNoInodes = errors.New("no free inodes")
	ErrNoBlocks = errors.New("no free blocks")
)
