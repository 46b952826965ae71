package filesystem

import (
	"fmt"
	"strings"

	"github.com/AnishMulay/sandtrap/internal/inode"
)

// Touch bumps the timestamps of existing entries and creates empty files for
// the rest. flags may hold 'a' (access time) and/or 'm' (modification time);
// empty means both.
func (fs *FileSystem) Touch(flags string, paths []string) string {
	if len(paths) == 0 {
		return missingOperand("touch")
	}

	access, modify := true, true
	if flags != "" {
		access = strings.ContainsRune(flags, 'a')
		modify = strings.ContainsRune(flags, 'm')
	}

	var errMsg string
	for _, path := range paths {
		if namesDirectory(path) {
			n, err := fs.Resolve(path)
			if err != nil || !fs.inodes[n].IsDir() {
				errMsg = fmt.Sprintf("touch: cannot touch '%s': Not a directory", path)
				continue
			}
			fs.bumpTimes(fs.inodes[n], access, modify)
			continue
		}

		parent, name, err := fs.parentOf(path)
		if err != nil || !parent.IsDir() {
			errMsg = fmt.Sprintf("touch: cannot touch '%s': Not a directory", path)
			continue
		}

		if name == "" {
			fs.bumpTimes(parent, access, modify)
			continue
		}
		if n, ok := parent.Lookup(name); ok {
			fs.bumpTimes(fs.inodes[n], access, modify)
			continue
		}

		if _, err := fs.createFile(parent, name); err != nil {
			errMsg = fmt.Sprintf("touch: cannot touch '%s': No space left on device", path)
		}
	}

	return errMsg
}

func (fs *FileSystem) bumpTimes(node *inode.Inode, access, modify bool) {
	now := fs.now()
	if access {
		node.Times.Accessed = now
	}
	if modify {
		node.Times.Modified = now
	}
}

func (fs *FileSystem) createFile(parent *inode.Inode, name string) (*inode.Inode, error) {
	num, err := fs.sb.AllocateInode()
	if err != nil {
		return nil, err
	}

	now := fs.now()
	file := inode.NewFile(num, fs.owner, fs.group, now)
	fs.inodes[num] = file
	parent.Add(name, num)
	parent.Size += int64(dirEntryOverhead + len(name)/2)
	parent.Times.Modified = now
	return file, nil
}
