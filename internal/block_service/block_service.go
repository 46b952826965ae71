package block_service

import "github.com/AnishMulay/sandtrap/internal/superblock"

// BlockService stores fixed-size blocks keyed by block number. Ownership of a
// block number is tracked by the superblock, not here: freeing a block does not
// erase it.
type BlockService interface {
	BlockSize() int
	WriteBlock(n superblock.BlockNum, data []byte) error
	ReadBlock(n superblock.BlockNum) ([]byte, error)
	// Clone returns a store whose writes are invisible to the receiver.
	Clone() BlockService
}
