package inode

import (
	"time"

	"github.com/AnishMulay/sandtrap/internal/superblock"
	"golang.org/x/exp/slices"
)

type InodeType int

const (
	TypeFile InodeType = iota
	TypeDirectory
)

const (
	filePermissions = "rw-r--r--"
	dirPermissions  = "rwxr-xr-x"
	dirInitialSize  = 40
)

type Timestamps struct {
	Created  time.Time
	Modified time.Time
	Accessed time.Time
}

// Inode is the fundamental metadata unit.
type Inode struct {
	Num         superblock.InodeNum
	Type        InodeType
	Size        int64
	Blocks      []superblock.BlockNum
	Permissions string
	HardLinks   int
	Owner       string
	Group       string
	Times       Timestamps

	// For directories only.
	Name    string
	Entries map[string]superblock.InodeNum
}

func NewFile(num superblock.InodeNum, owner, group string, now time.Time) *Inode {
	return &Inode{
		Num:         num,
		Type:        TypeFile,
		Blocks:      []superblock.BlockNum{},
		Permissions: filePermissions,
		HardLinks:   1,
		Owner:       owner,
		Group:       group,
		Times:       Timestamps{Created: now, Modified: now, Accessed: now},
	}
}

// NewDirectory builds a directory whose ".." points at parent. The root
// directory passes its own number as parent.
func NewDirectory(name string, num, parent superblock.InodeNum, owner, group string, now time.Time) *Inode {
	d := &Inode{
		Num:         num,
		Type:        TypeDirectory,
		Size:        dirInitialSize,
		Blocks:      []superblock.BlockNum{},
		Permissions: dirPermissions,
		HardLinks:   2, // . and ..
		Owner:       owner,
		Group:       group,
		Times:       Timestamps{Created: now, Modified: now, Accessed: now},
		Name:        name,
		Entries:     make(map[string]superblock.InodeNum),
	}
	d.Add(".", num)
	d.Add("..", parent)
	return d
}

func (i *Inode) IsDir() bool {
	return i.Type == TypeDirectory
}

// Add inserts name unless it is already present.
func (i *Inode) Add(name string, num superblock.InodeNum) {
	if _, exists := i.Entries[name]; !exists {
		i.Entries[name] = num
	}
}

func (i *Inode) Remove(name string) {
	delete(i.Entries, name)
}

// RemoveByInode drops the first named entry that refers to num.
func (i *Inode) RemoveByInode(num superblock.InodeNum) {
	for name, n := range i.Entries {
		if name == "." || name == ".." {
			continue
		}
		if n == num {
			delete(i.Entries, name)
			return
		}
	}
}

func (i *Inode) Lookup(name string) (superblock.InodeNum, bool) {
	n, ok := i.Entries[name]
	return n, ok
}

func (i *Inode) Has(name string) bool {
	_, ok := i.Entries[name]
	return ok
}

// Names returns the entry names in byte order, including "." and "..".
func (i *Inode) Names() []string {
	names := make([]string, 0, len(i.Entries))
	for name := range i.Entries {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

func (i *Inode) BlockCount() int {
	return len(i.Blocks)
}

func (i *Inode) Clone() *Inode {
	c := *i
	c.Blocks = append([]superblock.BlockNum(nil), i.Blocks...)
	if i.Entries != nil {
		c.Entries = make(map[string]superblock.InodeNum, len(i.Entries))
		for name, n := range i.Entries {
			c.Entries[name] = n
		}
	}
	return &c
}
