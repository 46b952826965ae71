package filesystem

import (
	"strings"

	"github.com/AnishMulay/sandtrap/internal/superblock"
)

// Resolve maps path to an inode number, starting from root for absolute
// paths and from cwd otherwise. Walking through a file yields ErrNotFound.
func Resolve(path string, root, cwd superblock.InodeNum, table Table) (superblock.InodeNum, error) {
	switch path {
	case ".":
		return cwd, nil
	case "..":
		if dir, ok := table[cwd]; ok && dir.IsDir() {
			if parent, ok := dir.Lookup(".."); ok {
				return parent, nil
			}
		}
		return 0, ErrNotFound
	case "", "/":
		return root, nil
	}

	if dir, ok := table[cwd]; ok && dir.IsDir() {
		if n, ok := dir.Lookup(path); ok {
			return n, nil
		}
	}

	current := cwd
	if strings.HasPrefix(path, "/") {
		current = root
	}

	for _, part := range strings.Split(strings.Trim(path, "/"), "/") {
		node, ok := table[current]
		if !ok || !node.IsDir() {
			return 0, ErrNotFound
		}
		next, ok := node.Lookup(part)
		if !ok {
			return 0, ErrNotFound
		}
		current = next
	}

	return current, nil
}

// AbsolutePath follows ".." links up to the self-parented root. Directories
// other than the root carry a trailing slash.
func AbsolutePath(n superblock.InodeNum, table Table) string {
	var parts []string
	for steps := 0; steps <= len(table); steps++ {
		node, ok := table[n]
		if !ok {
			break
		}
		parent, ok := node.Lookup("..")
		if !ok || parent == n {
			break
		}
		parts = append(parts, node.Name)
		n = parent
	}

	if len(parts) == 0 {
		return "/"
	}

	var b strings.Builder
	b.WriteByte('/')
	for i := len(parts) - 1; i >= 0; i-- {
		b.WriteString(parts[i])
		b.WriteByte('/')
	}
	return b.String()
}

// ParentOf finds the directory that would contain path, and the final path
// component. The returned directory may not actually be a directory; callers
// check that themselves.
func ParentOf(path string, root, cwd superblock.InodeNum, table Table) (superblock.InodeNum, string, error) {
	if len(path) > 1 {
		path = strings.TrimRight(path, "/")
		if path == "" {
			path = "/"
		}
	}

	var dirPath, name string
	switch sep := strings.LastIndex(path, "/"); {
	case sep == -1:
		return cwd, path, nil
	case !strings.Contains(strings.Trim(path, "/"), "/"):
		dirPath, name = "/", strings.Trim(path, "/")
	default:
		dirPath, name = path[:sep], path[sep+1:]
	}

	n, err := Resolve(dirPath, root, cwd, table)
	if err != nil {
		return 0, "", err
	}
	return n, name, nil
}
