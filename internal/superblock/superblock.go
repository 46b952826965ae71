package superblock

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type InodeNum uint32
type BlockNum uint32

const DefaultBlockSize = 4096

// Superblock hands out inode and block numbers from two fixed pools.
// Numbers run from 1 to the pool capacity; 0 is never a valid handle.
type Superblock struct {
	FsID      string
	BlockSize int
	CreatedAt time.Time

	totalInodes int
	totalBlocks int

	// true = in use
	inodeMap []bool
	blockMap []bool

	freeInodes int
	freeBlocks int

	// lowest index that may be free
	inodeHint int
	blockHint int
}

func New(totalInodes, totalBlocks, blockSize int) *Superblock {
	if blockSize <= 0 {
		blockSize = DefaultBlockSize
	}
	return &Superblock{
		FsID:        uuid.New().String(),
		BlockSize:   blockSize,
		CreatedAt:   time.Now(),
		totalInodes: totalInodes,
		totalBlocks: totalBlocks,
		inodeMap:    make([]bool, totalInodes),
		blockMap:    make([]bool, totalBlocks),
		freeInodes:  totalInodes,
		freeBlocks:  totalBlocks,
	}
}

func (sb *Superblock) AllocateInode() (InodeNum, error) {
	i, ok := allocate(sb.inodeMap, &sb.inodeHint)
	if !ok {
		return 0, ErrNoInodes
	}
	sb.freeInodes--
	return InodeNum(i + 1), nil
}

func (sb *Superblock) AllocateBlock() (BlockNum, error) {
	i, ok := allocate(sb.blockMap, &sb.blockHint)
	if !ok {
		return 0, ErrNoBlocks
	}
	sb.freeBlocks--
	return BlockNum(i + 1), nil
}

// FreeInode returns n to the pool. Freeing a handle that is not in use is a
// bug in the caller and panics.
func (sb *Superblock) FreeInode(n InodeNum) {
	release(sb.inodeMap, &sb.inodeHint, int(n), "inode")
	sb.freeInodes++
}

func (sb *Superblock) FreeBlock(n BlockNum) {
	release(sb.blockMap, &sb.blockHint, int(n), "block")
	sb.freeBlocks++
}

func (sb *Superblock) inodeInUse(n InodeNum) bool {
	return n >= 1 && int(n) <= sb.totalInodes && sb.inodeMap[n-1]
}

func (sb *Superblock) blockInUse(n BlockNum) bool {
	return n >= 1 && int(n) <= sb.totalBlocks && sb.blockMap[n-1]
}

func (sb *Superblock) FreeInodes() int  { return sb.freeInodes }
func (sb *Superblock) FreeBlocks() int  { return sb.freeBlocks }
func (sb *Superblock) TotalInodes() int { return sb.totalInodes }
func (sb *Superblock) TotalBlocks() int { return sb.totalBlocks }

// Clone returns an independent copy; allocations on either side are never
// observed by the other.
func (sb *Superblock) Clone() *Superblock {
	c := *sb
	c.inodeMap = append([]bool(nil), sb.inodeMap...)
	c.blockMap = append([]bool(nil), sb.blockMap...)
	return &c
}

func allocate(bitmap []bool, hint *int) (int, bool) {
	for i := *hint; i < len(bitmap); i++ {
		if !bitmap[i] {
			bitmap[i] = true
			*hint = i + 1
			return i, true
		}
	}
	*hint = len(bitmap)
	return 0, false
}

func release(bitmap []bool, hint *int, n int, kind string) {
	if n < 1 || n > len(bitmap) {
		panic(fmt.Sprintf("superblock: %s %d out of range", kind, n))
	}
	if !bitmap[n-1] {
		panic(fmt.Sprintf("superblock: double free of %s %d", kind, n))
	}
	bitmap[n-1] = false
	if n-1 < *hint {
		*hint = n - 1
	}
}
