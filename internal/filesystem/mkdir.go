package filesystem

import (
	"fmt"
	"strings"

	"github.com/AnishMulay/sandtrap/internal/inode"
)

// Mkdir creates each directory in paths. Processing continues past a failing
// path; the last error is the one reported.
func (fs *FileSystem) Mkdir(paths []string) string {
	if len(paths) == 0 {
		return missingOperand("mkdir")
	}

	var errMsg string
	for _, p := range paths {
		path := strings.TrimRight(p, "/")
		if path == "" {
			errMsg = fmt.Sprintf("mkdir: cannot create directory '%s': File exists", p)
			continue
		}

		parent, name, err := fs.parentOf(path)
		if err != nil {
			errMsg = fmt.Sprintf("mkdir: cannot create directory '%s': No such file or directory", path)
			continue
		}
		if !parent.IsDir() {
			errMsg = fmt.Sprintf("mkdir: cannot create directory '%s': Not a directory", path)
			continue
		}
		if parent.Has(name) {
			errMsg = fmt.Sprintf("mkdir: cannot create directory '%s': File exists", path)
			continue
		}

		num, err := fs.sb.AllocateInode()
		if err != nil {
			errMsg = fmt.Sprintf("mkdir: cannot create directory '%s': No space left on device", path)
			continue
		}

		now := fs.now()
		fs.inodes[num] = inode.NewDirectory(name, num, parent.Num, fs.owner, fs.group, now)
		parent.Add(name, num)
		parent.HardLinks++
		parent.Times.Modified = now
	}

	return errMsg
}

func missingOperand(cmd string) string {
	return fmt.Sprintf("%s: missing operand\r\nTry '%s --help' for more information.", cmd, cmd)
}
