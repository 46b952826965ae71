package superblock

import (
	"errors"
	"testing"
)

func TestSuperblock_AllocateInode(t *testing.T) {
	tests := []struct {
		name      string
		total     int
		allocs    int
		wantErr   error
		wantFirst InodeNum
	}{
		{name: "single allocation", total: 4, allocs: 1, wantFirst: 1},
		{name: "fill pool", total: 4, allocs: 4, wantFirst: 1},
		{name: "exhausted pool", total: 2, allocs: 3, wantErr: ErrNoInodes, wantFirst: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sb := New(tt.total, 1, 0)
			var first InodeNum
			var err error
			for i := 0; i < tt.allocs; i++ {
				var n InodeNum
				n, err = sb.AllocateInode()
				if i == 0 {
					first = n
				}
			}

			if !errors.Is(err, tt.wantErr) {
				t.Errorf("AllocateInode() error = %v, want %v", err, tt.wantErr)
			}
			if first != tt.wantFirst {
				t.Errorf("AllocateInode() first = %d, want %d", first, tt.wantFirst)
			}
		})
	}
}

func TestSuperblock_CountsStayConsistent(t *testing.T) {
	sb := New(10, 20, 0)

	var inodes []InodeNum
	var blocks []BlockNum
	for i := 0; i < 7; i++ {
		n, err := sb.AllocateInode()
		if err != nil {
			t.Fatalf("AllocateInode() error = %v", err)
		}
		inodes = append(inodes, n)
	}
	for i := 0; i < 13; i++ {
		b, err := sb.AllocateBlock()
		if err != nil {
			t.Fatalf("AllocateBlock() error = %v", err)
		}
		blocks = append(blocks, b)
	}

	sb.FreeInode(inodes[3])
	sb.FreeBlock(blocks[0])
	sb.FreeBlock(blocks[5])

	usedInodes, usedBlocks := 0, 0
	for n := InodeNum(1); n <= 10; n++ {
		if sb.inodeInUse(n) {
			usedInodes++
		}
	}
	for b := BlockNum(1); b <= 20; b++ {
		if sb.blockInUse(b) {
			usedBlocks++
		}
	}

	if sb.FreeInodes()+usedInodes != sb.TotalInodes() {
		t.Errorf("inodes: free %d + used %d != total %d", sb.FreeInodes(), usedInodes, sb.TotalInodes())
	}
	if sb.FreeBlocks()+usedBlocks != sb.TotalBlocks() {
		t.Errorf("blocks: free %d + used %d != total %d", sb.FreeBlocks(), usedBlocks, sb.TotalBlocks())
	}
}

func TestSuperblock_ReusesLowestFreed(t *testing.T) {
	sb := New(5, 5, 0)
	for i := 0; i < 5; i++ {
		if _, err := sb.AllocateBlock(); err != nil {
			t.Fatalf("AllocateBlock() error = %v", err)
		}
	}
	sb.FreeBlock(4)
	sb.FreeBlock(2)

	got, err := sb.AllocateBlock()
	if err != nil {
		t.Fatalf("AllocateBlock() error = %v", err)
	}
	if got != 2 {
		t.Errorf("AllocateBlock() = %d, want 2", got)
	}
}

func TestSuperblock_DoubleFreePanics(t *testing.T) {
	sb := New(3, 3, 0)
	n, _ := sb.AllocateInode()
	sb.FreeInode(n)

	defer func() {
		if recover() == nil {
			t.Errorf("FreeInode() of a free handle did not panic")
		}
	}()
	sb.FreeInode(n)
}

func TestSuperblock_CloneIsIndependent(t *testing.T) {
	sb := New(4, 4, 0)
	n, _ := sb.AllocateInode()

	clone := sb.Clone()
	clone.FreeInode(n)
	if _, err := clone.AllocateBlock(); err != nil {
		t.Fatalf("AllocateBlock() error = %v", err)
	}

	if !sb.inodeInUse(n) {
		t.Errorf("freeing in clone released inode %d in original", n)
	}
	if sb.FreeBlocks() != 4 {
		t.Errorf("original FreeBlocks() = %d, want 4", sb.FreeBlocks())
	}
	if clone.FsID != sb.FsID {
		t.Errorf("clone FsID = %q, want %q", clone.FsID, sb.FsID)
	}
}
