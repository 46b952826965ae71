package inmemory

import (
	"fmt"
	"sync"

	bs "github.com/AnishMulay/sandtrap/internal/block_service"
	"github.com/AnishMulay/sandtrap/internal/superblock"
)

// InMemoryBlockService keeps blocks in a map. Blocks it does not hold are read
// from base, which must not be written once overlays exist on top of it.
type InMemoryBlockService struct {
	mu        sync.RWMutex
	blockSize int
	blocks    map[superblock.BlockNum][]byte
	base      bs.BlockService
}

func NewInMemoryBlockService(blockSize int, base bs.BlockService) *InMemoryBlockService {
	if base != nil {
		blockSize = base.BlockSize()
	}
	return &InMemoryBlockService{
		blockSize: blockSize,
		blocks:    make(map[superblock.BlockNum][]byte),
		base:      base,
	}
}

func (s *InMemoryBlockService) BlockSize() int {
	return s.blockSize
}

func (s *InMemoryBlockService) WriteBlock(n superblock.BlockNum, data []byte) error {
	if len(data) > s.blockSize {
		return fmt.Errorf("block %d: %w (%d > %d)", n, bs.ErrBlockTooLarge, len(data), s.blockSize)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.blocks[n] = append([]byte(nil), data...)
	return nil
}

func (s *InMemoryBlockService) ReadBlock(n superblock.BlockNum) ([]byte, error) {
	s.mu.RLock()
	data, ok := s.blocks[n]
	s.mu.RUnlock()

	if ok {
		return append([]byte(nil), data...), nil
	}
	if s.base != nil {
		return s.base.ReadBlock(n)
	}
	return []byte{}, nil
}

func (s *InMemoryBlockService) Clone() bs.BlockService {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c := &InMemoryBlockService{
		blockSize: s.blockSize,
		blocks:    make(map[superblock.BlockNum][]byte, len(s.blocks)),
		base:      s.base,
	}
	for n, data := range s.blocks {
		c.blocks[n] = append([]byte(nil), data...)
	}
	return c
}

var _ bs.BlockService = (*InMemoryBlockService)(nil)
