// Package interpreter turns one line of attacker input into a call on the
// session's filesystem and returns the text to send back.
package interpreter

import (
	"fmt"
	"strings"

	"github.com/AnishMulay/sandtrap/internal/filesystem"
	"golang.org/x/exp/slices"
)

type optionSpec struct {
	short string
	long  []string
}

// Commands missing from this table accept any options and ignore them.
var optionSpecs = map[string]optionSpec{
	"ls":    {short: "alis", long: []string{"time"}},
	"touch": {short: "am"},
	"rm":    {short: "r"},
}

type Interpreter struct {
	fs *filesystem.FileSystem
}

func New(fs *filesystem.FileSystem) *Interpreter {
	return &Interpreter{fs: fs}
}

// Execute runs line and returns its output. exit is true when the line asked
// to end the session; output is then empty.
func (in *Interpreter) Execute(line string) (output string, exit bool) {
	cmd := Parse(line)
	if cmd.Name == "" {
		return "", false
	}

	short, errMsg := checkOptions(cmd)
	if errMsg != "" {
		return errMsg, false
	}

	fs := in.fs
	switch cmd.Name {
	case "echo":
		return fs.Echo(cmd.wordsAfterName()), false
	case "ls":
		return fs.Ls(short, cmd.Long, cmd.Args), false
	case "mkdir":
		return fs.Mkdir(cmd.Args), false
	case "cd":
		return fs.Cd(cmd.Args), false
	case "touch":
		return fs.Touch(short, cmd.Args), false
	case "cat":
		return fs.Cat(cmd.Args), false
	case "rm":
		return fs.Rm(short, cmd.Args), false
	case "pwd":
		return fs.Pwd(), false
	case "path":
		return fs.PathVar(), false
	case "home":
		return fs.HomeVar(), false
	case "user":
		return fs.UserVar(), false
	case "hostname":
		return fs.HostnameVar(), false
	case "lang":
		return fs.LangVar(), false
	case "exit":
		return "", true
	}

	return fmt.Sprintf("bash: %s: command not found", cmd.Line), false
}

// checkOptions returns the accepted short options, or the diagnostic for the
// first option the command does not know.
func checkOptions(cmd Command) (string, string) {
	spec, ok := optionSpecs[cmd.Name]
	if !ok {
		return "", ""
	}

	for _, op := range cmd.Short {
		if !strings.ContainsRune(spec.short, op) {
			return "", invalidOption(cmd.Name, string(op))
		}
	}
	for _, name := range cmd.longOrder {
		if !slices.Contains(spec.long, name) {
			return "", invalidOption(cmd.Name, name)
		}
	}

	return cmd.Short, ""
}

func invalidOption(cmd, op string) string {
	return fmt.Sprintf("%s: invalid option -- '%s'\r\nTry '%s --help' for more information.", cmd, op, cmd)
}

// Cwd is the absolute path of the current directory, as shown in the prompt.
func (in *Interpreter) Cwd() string {
	return in.fs.CwdPath()
}
