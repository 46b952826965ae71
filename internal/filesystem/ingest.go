package filesystem

import (
	"errors"
	"fmt"
	"io"

	"github.com/AnishMulay/sandtrap/internal/superblock"
)

// SaveFile creates name in the current directory (or reuses it) and stores
// size bytes read from r, split into zero-padded blocks. On failure every
// block allocated by this call is released and the file is left empty.
func (fs *FileSystem) SaveFile(name string, r io.Reader, size int64) error {
	if msg := fs.Touch("", []string{name}); msg != "" {
		return fmt.Errorf("save %s: %s", name, msg)
	}
	n, err := fs.Resolve(name)
	if err != nil {
		return fmt.Errorf("save %s: %w", name, err)
	}
	node := fs.inodes[n]
	if node.IsDir() {
		return fmt.Errorf("save %s: %w", name, ErrIsDir)
	}

	for _, b := range node.Blocks {
		fs.sb.FreeBlock(b)
	}
	node.Blocks = []superblock.BlockNum{}
	node.Size = 0

	blockSize := fs.blocks.BlockSize()
	buf := make([]byte, blockSize)
	var allocated []superblock.BlockNum
	var written int64

	rollback := func(cause error) error {
		for _, b := range allocated {
			fs.sb.FreeBlock(b)
		}
		return fmt.Errorf("save %s: %w", name, cause)
	}

	for {
		read, err := io.ReadFull(r, buf)
		if read > 0 {
			clear(buf[read:])
			b, allocErr := fs.sb.AllocateBlock()
			if allocErr != nil {
				return rollback(allocErr)
			}
			allocated = append(allocated, b)
			if wErr := fs.blocks.WriteBlock(b, buf); wErr != nil {
				return rollback(wErr)
			}
			written += int64(read)
		}
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			break
		}
		if err != nil {
			return rollback(err)
		}
	}

	if written != size {
		return rollback(fmt.Errorf("%w: read %d, declared %d", ErrSizeMismatch, written, size))
	}

	node.Blocks = allocated
	node.Size = size
	node.Times.Modified = fs.now()
	return nil
}
