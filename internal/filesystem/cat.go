package filesystem

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/AnishMulay/sandtrap/internal/inode"
)

// Cat concatenates the given files. Content that is not valid UTF-8 collapses
// the whole output to nothing.
func (fs *FileSystem) Cat(paths []string) string {
	var out strings.Builder

	for idx, path := range paths {
		n, err := fs.Resolve(path)
		if err != nil {
			if idx == 0 {
				return fmt.Sprintf("cat: '%s': No such file or directory", path)
			}
			break
		}

		node := fs.inodes[n]
		if node.IsDir() {
			if idx == 0 {
				return fmt.Sprintf("cat: %s: Is a directory", path)
			}
			break
		}

		data, err := fs.readFile(node)
		if err != nil || !utf8.Valid(data) {
			return ""
		}
		node.Times.Accessed = fs.now()

		if len(data) > 0 {
			out.Write(data)
			out.WriteString("\r\n")
		}
	}

	return strings.TrimRightFunc(out.String(), unicode.IsSpace)
}

// readFile returns the first Size bytes of the file's blocks.
func (fs *FileSystem) readFile(node *inode.Inode) ([]byte, error) {
	content := make([]byte, 0, len(node.Blocks)*fs.blocks.BlockSize())
	for _, b := range node.Blocks {
		data, err := fs.blocks.ReadBlock(b)
		if err != nil {
			return nil, err
		}
		content = append(content, data...)
	}
	if int64(len(content)) > node.Size {
		content = content[:node.Size]
	}
	return content, nil
}
