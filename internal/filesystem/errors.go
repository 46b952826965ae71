package filesystem

import "errors"

var (
	ErrNotFound     = errors.New("no such file or directory")
	ErrNotDir       = errors.New("not a directory")
	ErrIsDir        = errors.New("is a directory")
	ErrNoRoot       = errors.New("cannot allocate root inode")
	ErrSizeMismatch = errors.New("content length does not match declared size")
)
