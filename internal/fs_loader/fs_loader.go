// Package fs_loader seeds a virtual filesystem, either from a host directory
// tree or from a tab-indented layout file.
package fs_loader

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/AnishMulay/sandtrap/internal/filesystem"
	"github.com/AnishMulay/sandtrap/internal/log_service"
)

// LoadDir copies dir into the current directory of fs: directories become
// directories and regular files keep their content. Anything else is
// skipped. The current directory is restored on success.
func LoadDir(fs *filesystem.FileSystem, dir string, ls log_service.LogService) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrLoadFailed, err)
	}

	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())

		switch {
		case entry.IsDir():
			if msg := fs.Mkdir([]string{entry.Name()}); msg != "" {
				return fmt.Errorf("%w: %s", ErrLoadFailed, msg)
			}
			if msg := fs.Cd([]string{entry.Name()}); msg != "" {
				return fmt.Errorf("%w: %s", ErrLoadFailed, msg)
			}
			if err := LoadDir(fs, path, ls); err != nil {
				return err
			}
			fs.Cd([]string{".."})

		case entry.Type().IsRegular():
			if err := loadFile(fs, path, entry.Name()); err != nil {
				return err
			}

		default:
			ls.Debug(log_service.LogEvent{
				Message:  "Skipping non-regular seed entry",
				Metadata: map[string]any{"path": path},
			})
		}
	}

	return nil
}

func loadFile(fs *filesystem.FileSystem, path, name string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrLoadFailed, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrLoadFailed, err)
	}
	if err := fs.SaveFile(name, f, info.Size()); err != nil {
		return fmt.Errorf("%w: %v", ErrLoadFailed, err)
	}
	return nil
}

// LoadLayout builds empty files and directories from a layout description.
// Each line is "- name" for a file or "-- name" for a directory, nested with
// one more leading tab than its parent directory. Blank lines and lines
// starting with '#' are ignored.
//
//	-- etc
//		- passwd
//	-- home
//		-- admin
func LoadLayout(fs *filesystem.FileSystem, r io.Reader) error {
	start := fs.CwdPath()
	depth := 0
	lastDir := ""

	sc := bufio.NewScanner(r)
	for lineNo := 1; sc.Scan(); lineNo++ {
		raw := sc.Text()
		if strings.TrimSpace(raw) == "" || strings.HasPrefix(raw, "#") {
			continue
		}

		line := strings.TrimLeft(raw, "\t")
		tabs := len(raw) - len(line)

		switch {
		case tabs > depth+1:
			return fmt.Errorf("%w: line %d: too many tabs", ErrLayoutSyntax, lineNo)
		case tabs == depth+1:
			if lastDir == "" {
				return fmt.Errorf("%w: line %d: indented under a file", ErrLayoutSyntax, lineNo)
			}
			fs.Cd([]string{lastDir})
		default:
			for ; depth > tabs; depth-- {
				fs.Cd([]string{".."})
			}
		}
		depth = tabs
		lastDir = ""

		op, name, ok := strings.Cut(line, " ")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return fmt.Errorf("%w: line %d: %q", ErrLayoutSyntax, lineNo, raw)
		}

		var msg string
		switch op {
		case "-":
			msg = fs.Touch("", []string{name})
		case "--":
			msg = fs.Mkdir([]string{name})
			lastDir = name
		default:
			return fmt.Errorf("%w: line %d: unknown entry kind %q", ErrLayoutSyntax, lineNo, op)
		}
		if msg != "" {
			return fmt.Errorf("%w: line %d: %s", ErrLoadFailed, lineNo, msg)
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrLoadFailed, err)
	}

	fs.Cd([]string{start})
	return nil
}
