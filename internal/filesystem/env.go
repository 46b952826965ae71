package filesystem

import "strings"

func (fs *FileSystem) Echo(words []string) string {
	return strings.Join(words, " ")
}

func (fs *FileSystem) Pwd() string         { return fs.cwdPath }
func (fs *FileSystem) PathVar() string     { return fs.Env.Path }
func (fs *FileSystem) HomeVar() string     { return fs.Env.Home }
func (fs *FileSystem) UserVar() string     { return fs.Env.User }
func (fs *FileSystem) HostnameVar() string { return fs.Env.Hostname }
func (fs *FileSystem) LangVar() string     { return fs.Env.Lang }
