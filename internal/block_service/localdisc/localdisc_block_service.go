package localdisc

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	bs "github.com/AnishMulay/sandtrap/internal/block_service"
	"github.com/AnishMulay/sandtrap/internal/block_service/inmemory"
	"github.com/AnishMulay/sandtrap/internal/log_service"
	"github.com/AnishMulay/sandtrap/internal/superblock"
)

// LocalDiscBlockService keeps every block in one disk file, block n at offset
// n*blockSize.
type LocalDiscBlockService struct {
	mu        sync.Mutex
	path      string
	blockSize int
	file      *os.File
	ls        log_service.LogService
}

// NewLocalDiscBlockService truncates the disk file: it only ever holds the
// content of the current process.
func NewLocalDiscBlockService(path string, blockSize int, ls log_service.LogService) (*LocalDiscBlockService, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create disk directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return nil, fmt.Errorf("open disk file: %w", err)
	}
	return &LocalDiscBlockService{
		path:      path,
		blockSize: blockSize,
		file:      f,
		ls:        ls,
	}, nil
}

func (s *LocalDiscBlockService) BlockSize() int {
	return s.blockSize
}

func (s *LocalDiscBlockService) offset(n superblock.BlockNum) int64 {
	return int64(n) * int64(s.blockSize)
}

func (s *LocalDiscBlockService) WriteBlock(n superblock.BlockNum, data []byte) error {
	if len(data) > s.blockSize {
		return fmt.Errorf("block %d: %w (%d > %d)", n, bs.ErrBlockTooLarge, len(data), s.blockSize)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.file.WriteAt(data, s.offset(n)); err != nil {
		s.ls.Error(log_service.LogEvent{
			Message:  "Failed to write block",
			Metadata: map[string]any{"block": n, "error": err.Error()},
		})
		return bs.ErrBlockWriteFailed
	}
	return nil
}

func (s *LocalDiscBlockService) ReadBlock(n superblock.BlockNum) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	buf := make([]byte, s.blockSize)
	read, err := s.file.ReadAt(buf, s.offset(n))
	if err != nil && !errors.Is(err, io.EOF) {
		s.ls.Error(log_service.LogEvent{
			Message:  "Failed to read block",
			Metadata: map[string]any{"block": n, "error": err.Error()},
		})
		return nil, bs.ErrBlockReadFailed
	}
	return buf[:read], nil
}

// Clone layers an in-memory store over the disk file so the clone never
// writes to the shared file.
func (s *LocalDiscBlockService) Clone() bs.BlockService {
	return inmemory.NewInMemoryBlockService(s.blockSize, s)
}

func (s *LocalDiscBlockService) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.file.Close()
}

var _ bs.BlockService = (*LocalDiscBlockService)(nil)
