package filesystem

import (
	"fmt"
	"strings"

	"github.com/AnishMulay/sandtrap/internal/inode"
	"github.com/AnishMulay/sandtrap/internal/superblock"
)

// Rm removes files, and directory trees when flags contains 'r'. It stops at
// the first failing path and only reports the failure if that path was the
// first argument.
func (fs *FileSystem) Rm(flags string, paths []string) string {
	if len(paths) == 0 {
		return missingOperand("rm")
	}

	recursive := strings.ContainsRune(flags, 'r')

	for idx, path := range paths {
		target, err := fs.Resolve(path)
		var parent *inode.Inode
		var name string
		if err == nil {
			parent, name, err = fs.parentOf(path)
		}
		if err != nil {
			if idx == 0 {
				return fmt.Sprintf("rm: '%s': No such file or directory", path)
			}
			break
		}

		node := fs.inodes[target]
		if !node.IsDir() && namesDirectory(path) {
			if idx == 0 {
				return fmt.Sprintf("rm: cannot remove '%s': Not a directory", path)
			}
			break
		}
		if node.IsDir() {
			if !recursive {
				if idx == 0 {
					return fmt.Sprintf("rm: %s: Is a directory", path)
				}
				break
			}
			if name == "." || name == ".." {
				if idx == 0 {
					return `rm: "." and ".." may not be removed`
				}
				break
			}
			fs.removeTree(node, parent)
			continue
		}

		fs.removeFile(node, parent)
	}

	return ""
}

func (fs *FileSystem) removeFile(node, parent *inode.Inode) {
	if node.IsDir() {
		return
	}
	for _, b := range node.Blocks {
		fs.sb.FreeBlock(b)
	}
	node.Blocks = nil
	parent.RemoveByInode(node.Num)
	parent.Times.Modified = fs.now()
	delete(fs.inodes, node.Num)
	fs.sb.FreeInode(node.Num)
}

// removeTree deletes dir and everything below it without recursion. If the
// root or the current directory is anywhere in the tree nothing is removed.
func (fs *FileSystem) removeTree(dir, parent *inode.Inode) {
	if fs.containsProtected(dir) {
		return
	}

	type pending struct {
		parent, dir *inode.Inode
	}
	stack := []pending{{parent: parent, dir: dir}}

	for len(stack) > 0 {
		top := stack[len(stack)-1]

		var childDirs []pending
		for _, name := range top.dir.Names() {
			if name == "." || name == ".." {
				continue
			}
			n, _ := top.dir.Lookup(name)
			child := fs.inodes[n]
			if child.IsDir() {
				childDirs = append(childDirs, pending{parent: top.dir, dir: child})
			} else {
				fs.removeFile(child, top.dir)
			}
		}
		if len(childDirs) > 0 {
			stack = append(stack, childDirs...)
			continue
		}

		stack = stack[:len(stack)-1]
		top.dir.Remove(".")
		top.dir.Remove("..")
		top.parent.RemoveByInode(top.dir.Num)
		top.parent.HardLinks--
		top.parent.Times.Modified = fs.now()
		delete(fs.inodes, top.dir.Num)
		fs.sb.FreeInode(top.dir.Num)
	}
}

func (fs *FileSystem) containsProtected(dir *inode.Inode) bool {
	queue := []superblock.InodeNum{dir.Num}
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		if n == fs.root || n == fs.cwd {
			return true
		}
		for name, child := range fs.inodes[n].Entries {
			if name == "." || name == ".." {
				continue
			}
			if c, ok := fs.inodes[child]; ok && c.IsDir() {
				queue = append(queue, child)
			}
		}
	}
	return false
}
