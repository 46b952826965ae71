package inode

import (
	"testing"
	"time"

	"github.com/AnishMulay/sandtrap/internal/superblock"
	"github.com/google/go-cmp/cmp"
)

var testTime = time.Date(2025, time.March, 7, 9, 5, 0, 0, time.UTC)

func TestNewDirectory_DotEntries(t *testing.T) {
	tests := []struct {
		name       string
		num        superblock.InodeNum
		parent     superblock.InodeNum
		wantDotDot superblock.InodeNum
	}{
		{name: "root is self parented", num: 1, parent: 1, wantDotDot: 1},
		{name: "child points at parent", num: 7, parent: 3, wantDotDot: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDirectory("x", tt.num, tt.parent, "root", "root", testTime)

			if got, _ := d.Lookup("."); got != tt.num {
				t.Errorf("entries[.] = %d, want %d", got, tt.num)
			}
			if got, _ := d.Lookup(".."); got != tt.wantDotDot {
				t.Errorf("entries[..] = %d, want %d", got, tt.wantDotDot)
			}
			if got := d.Names(); len(got) != 2 {
				t.Errorf("Names() = %q, want only . and ..", got)
			}
			if d.HardLinks != 2 || d.Permissions != "rwxr-xr-x" || d.Size != 40 {
				t.Errorf("unexpected directory attributes: links=%d perms=%s size=%d", d.HardLinks, d.Permissions, d.Size)
			}
		})
	}
}

func TestInode_AddDoesNotOverwrite(t *testing.T) {
	d := NewDirectory("etc", 2, 1, "root", "root", testTime)
	d.Add("passwd", 5)
	d.Add("passwd", 9)

	if got, _ := d.Lookup("passwd"); got != 5 {
		t.Errorf("Lookup(passwd) = %d, want 5", got)
	}
}

func TestInode_RemoveByInodeKeepsDotEntries(t *testing.T) {
	d := NewDirectory("home", 4, 4, "root", "root", testTime)
	d.Add("admin", 4)
	d.RemoveByInode(4)

	want := []string{".", ".."}
	if diff := cmp.Diff(want, d.Names()); diff != "" {
		t.Errorf("Names() mismatch (-want +got):\n%s", diff)
	}
}

func TestInode_CloneIsDeep(t *testing.T) {
	d := NewDirectory("var", 3, 1, "root", "root", testTime)
	d.Add("log", 8)
	f := NewFile(9, "root", "root", testTime)
	f.Blocks = append(f.Blocks, 11, 12)

	dc := d.Clone()
	fc := f.Clone()
	dc.Remove("log")
	fc.Blocks[0] = 99

	if !d.Has("log") {
		t.Errorf("removing from clone removed entry from original")
	}
	if f.Blocks[0] != 11 {
		t.Errorf("original block list mutated through clone: %v", f.Blocks)
	}
}

func TestFormat(t *testing.T) {
	f := NewFile(12, "root", "root", testTime)
	f.Size = 1234
	f.Blocks = []superblock.BlockNum{1}

	d := NewDirectory("bin", 3, 1, "admin", "staff", testTime)

	tests := []struct {
		name   string
		inode  *Inode
		fields []Field
		want   string
	}{
		{name: "no fields", inode: f, fields: nil, want: ""},
		{name: "inode number", inode: f, fields: []Field{FieldInode}, want: "12"},
		{
			name:   "long format file",
			inode:  f,
			fields: []Field{FieldTypePerms, FieldLinks, FieldOwner, FieldGroup, FieldSize, FieldAccessed},
			want:   "-rw-r--r--  1 root     root        1234 Mar 07 09:05",
		},
		{
			name:   "canonical order regardless of input order",
			inode:  d,
			fields: []Field{FieldModified, FieldBlockCount, FieldInode},
			want:   "3 0 Mar 07 09:05",
		},
		{
			name:   "directory type char",
			inode:  d,
			fields: []Field{FieldTypePerms, FieldOwner},
			want:   "drwxr-xr-x admin   ",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Format(tt.inode, tt.fields); got != tt.want {
				t.Errorf("Format() = %q, want %q", got, tt.want)
			}
		})
	}
}
