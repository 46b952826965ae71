package filesystem

import (
	"fmt"
	"strings"

	"github.com/AnishMulay/sandtrap/internal/inode"
)

type listed struct {
	path string
	node *inode.Inode
}

// Ls lists files first, then directories. options is the short option string
// (a, i, l, s); longOptions may carry "time" to pick the timestamp shown by -l.
func (fs *FileSystem) Ls(options string, longOptions map[string]string, paths []string) string {
	if len(paths) == 0 {
		paths = []string{fs.cwdPath}
	}

	showHidden := strings.ContainsRune(options, 'a')
	long := strings.ContainsRune(options, 'l')
	countBlocks := long || strings.ContainsRune(options, 's')
	fields := lsFields(options, longOptions)

	separator := "\t"
	if long {
		separator = "\r\n"
	}

	var errs strings.Builder
	var files, dirs []listed
	for _, path := range paths {
		n, err := fs.Resolve(path)
		if err != nil {
			fmt.Fprintf(&errs, "ls: cannot access '%s': No such file or directory\r\n", path)
			continue
		}
		node := fs.inodes[n]
		if node.IsDir() {
			dirs = append(dirs, listed{path: path, node: node})
		} else {
			files = append(files, listed{path: path, node: node})
		}
	}

	total := 0
	var out strings.Builder
	for _, f := range files {
		total += f.node.BlockCount()
		out.WriteString(formatEntry(f.node, f.path, fields))
		out.WriteString(separator)
	}

	for _, d := range dirs {
		if len(paths) > 1 {
			fmt.Fprintf(&out, "\r\n\r\n%s:\r\n", d.path)
		}
		for _, name := range d.node.Names() {
			if !showHidden && strings.HasPrefix(name, ".") {
				continue
			}
			n, _ := d.node.Lookup(name)
			child := fs.inodes[n]
			total += child.BlockCount()
			out.WriteString(formatEntry(child, name, fields))
			out.WriteString(separator)
		}
	}

	listing := strings.Trim(out.String(), "\r\n")
	output := strings.TrimRight(errs.String()+listing, "\r\n\t")

	if countBlocks && errs.Len() == 0 {
		output = strings.TrimRight(fmt.Sprintf("total %d\r\n%s", total, output), "\r\n")
	}
	return output
}

func lsFields(options string, longOptions map[string]string) []inode.Field {
	var fields []inode.Field
	for _, op := range options {
		switch op {
		case 'i':
			fields = append(fields, inode.FieldInode)
		case 's':
			fields = append(fields, inode.FieldBlockCount)
		case 'l':
			fields = append(fields,
				inode.FieldTypePerms, inode.FieldLinks, inode.FieldOwner,
				inode.FieldGroup, inode.FieldSize, timeField(longOptions["time"]))
		}
	}
	return fields
}

func timeField(style string) inode.Field {
	switch style {
	case "ctime", "status":
		return inode.FieldModified
	case "birth", "creation":
		return inode.FieldCreated
	default:
		return inode.FieldAccessed
	}
}

func formatEntry(node *inode.Inode, name string, fields []inode.Field) string {
	prefix := inode.Format(node, fields)
	if prefix == "" {
		return name
	}
	return prefix + " " + name
}
