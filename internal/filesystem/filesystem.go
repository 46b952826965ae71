// Package filesystem implements the per-session virtual filesystem: an inode
// table rooted at a self-parented directory, a superblock handing out inode
// and block numbers, a block store, and a current-directory cursor.
//
// A FileSystem is not safe for concurrent use. Each session owns its own
// instance obtained through Clone.
package filesystem

import (
	"strings"
	"time"

	bs "github.com/AnishMulay/sandtrap/internal/block_service"
	"github.com/AnishMulay/sandtrap/internal/block_service/inmemory"
	"github.com/AnishMulay/sandtrap/internal/inode"
	"github.com/AnishMulay/sandtrap/internal/superblock"
)

const (
	DefaultTotalInodes = 200
	DefaultTotalBlocks = 1000

	// bytes added to a directory's size per created entry, plus len(name)/2
	dirEntryOverhead = 16
)

type Table map[superblock.InodeNum]*inode.Inode

type Env struct {
	Path     string
	Home     string
	User     string
	Hostname string
	Lang     string
}

func DefaultEnv() Env {
	return Env{
		Path:     "/usr/local/sbin:/usr/local/bin:/usr/sbin:/usr/bin:/sbin:/bin",
		Home:     "/home/admin",
		User:     "root",
		Hostname: "debian",
		Lang:     "en_US.UTF-8",
	}
}

type Options struct {
	TotalInodes int
	TotalBlocks int
	BlockSize   int
	// Blocks defaults to an in-memory store of BlockSize blocks.
	Blocks bs.BlockService
	Env    Env
	Owner  string
	Group  string
	Clock  func() time.Time
}

type FileSystem struct {
	sb      *superblock.Superblock
	blocks  bs.BlockService
	inodes  Table
	root    superblock.InodeNum
	cwd     superblock.InodeNum
	cwdPath string

	Env Env

	owner string
	group string
	now   func() time.Time
}

func New(opts Options) (*FileSystem, error) {
	if opts.TotalInodes <= 0 {
		opts.TotalInodes = DefaultTotalInodes
	}
	if opts.TotalBlocks <= 0 {
		opts.TotalBlocks = DefaultTotalBlocks
	}
	if opts.Blocks != nil {
		opts.BlockSize = opts.Blocks.BlockSize()
	}
	if opts.BlockSize <= 0 {
		opts.BlockSize = superblock.DefaultBlockSize
	}
	if opts.Blocks == nil {
		opts.Blocks = inmemory.NewInMemoryBlockService(opts.BlockSize, nil)
	}
	if opts.Env == (Env{}) {
		opts.Env = DefaultEnv()
	}
	if opts.Owner == "" {
		opts.Owner = "root"
	}
	if opts.Group == "" {
		opts.Group = "root"
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}

	fs := &FileSystem{
		sb:     superblock.New(opts.TotalInodes, opts.TotalBlocks, opts.BlockSize),
		blocks: opts.Blocks,
		inodes: make(Table),
		Env:    opts.Env,
		owner:  opts.Owner,
		group:  opts.Group,
		now:    opts.Clock,
	}

	root, err := fs.sb.AllocateInode()
	if err != nil {
		return nil, ErrNoRoot
	}
	fs.inodes[root] = inode.NewDirectory("/", root, root, fs.owner, fs.group, fs.now())
	fs.root = root
	fs.cwd = root
	fs.cwdPath = AbsolutePath(root, fs.inodes)

	return fs, nil
}

// Clone duplicates the whole filesystem: inode table, superblock and block
// store. Nothing done to the clone is visible through the receiver.
func (fs *FileSystem) Clone() *FileSystem {
	c := &FileSystem{
		sb:      fs.sb.Clone(),
		blocks:  fs.blocks.Clone(),
		inodes:  make(Table, len(fs.inodes)),
		root:    fs.root,
		cwd:     fs.cwd,
		cwdPath: fs.cwdPath,
		Env:     fs.Env,
		owner:   fs.owner,
		group:   fs.group,
		now:     fs.now,
	}
	for n, node := range fs.inodes {
		c.inodes[n] = node.Clone()
	}
	return c
}

func (fs *FileSystem) Root() superblock.InodeNum { return fs.root }
func (fs *FileSystem) Cwd() superblock.InodeNum  { return fs.cwd }
func (fs *FileSystem) CwdPath() string           { return fs.cwdPath }

func (fs *FileSystem) Superblock() *superblock.Superblock { return fs.sb }

func (fs *FileSystem) Inode(n superblock.InodeNum) (*inode.Inode, bool) {
	node, ok := fs.inodes[n]
	return node, ok
}

// Inodes returns the number of live inodes.
func (fs *FileSystem) Inodes() int {
	return len(fs.inodes)
}

// Walk calls fn for every live inode, in no particular order.
func (fs *FileSystem) Walk(fn func(node *inode.Inode)) {
	for _, node := range fs.inodes {
		fn(node)
	}
}

func (fs *FileSystem) Resolve(path string) (superblock.InodeNum, error) {
	return Resolve(path, fs.root, fs.cwd, fs.inodes)
}

// namesDirectory reports whether path ends in a slash and so may only name a
// directory.
func namesDirectory(path string) bool {
	return len(path) > 1 && strings.HasSuffix(path, "/")
}

func (fs *FileSystem) parentOf(path string) (*inode.Inode, string, error) {
	n, name, err := ParentOf(path, fs.root, fs.cwd, fs.inodes)
	if err != nil {
		return nil, "", err
	}
	return fs.inodes[n], name, nil
}
