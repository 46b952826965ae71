package filesystem

import "fmt"

// Cd moves the current directory. No argument is a no-op.
func (fs *FileSystem) Cd(args []string) string {
	if len(args) == 0 {
		return ""
	}
	path := args[0]

	n, err := fs.Resolve(path)
	if err != nil {
		return fmt.Sprintf("bash: cd: %s: No such file or directory", path)
	}
	if !fs.inodes[n].IsDir() {
		return fmt.Sprintf("bash: cd: %s: not a directory", path)
	}

	fs.cwd = n
	fs.cwdPath = AbsolutePath(n, fs.inodes)
	return ""
}
