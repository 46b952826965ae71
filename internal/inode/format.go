package inode

import (
	"fmt"
	"strings"
)

type Field int

// Rendering order is the declaration order below, whatever order the caller
// passes the fields in.
const (
	FieldInode Field = iota
	FieldBlockCount
	FieldTypePerms
	FieldLinks
	FieldOwner
	FieldGroup
	FieldSize
	FieldCreated
	FieldModified
	FieldAccessed
	fieldCount
)

const timeLayout = "Jan 02 15:04"

// Format renders the selected fields of i separated by single spaces.
func Format(i *Inode, fields []Field) string {
	var want [fieldCount]bool
	for _, f := range fields {
		if f >= 0 && f < fieldCount {
			want[f] = true
		}
	}

	parts := make([]string, 0, len(fields))
	for f := Field(0); f < fieldCount; f++ {
		if want[f] {
			parts = append(parts, formatField(i, f))
		}
	}
	return strings.Join(parts, " ")
}

func formatField(i *Inode, f Field) string {
	switch f {
	case FieldInode:
		return fmt.Sprintf("%d", i.Num)
	case FieldBlockCount:
		return fmt.Sprintf("%d", i.BlockCount())
	case FieldTypePerms:
		if i.IsDir() {
			return "d" + i.Permissions
		}
		return "-" + i.Permissions
	case FieldLinks:
		return fmt.Sprintf("%2d", i.HardLinks)
	case FieldOwner:
		return fmt.Sprintf("%-8s", i.Owner)
	case FieldGroup:
		return fmt.Sprintf("%-8s", i.Group)
	case FieldSize:
		return fmt.Sprintf("%7d", i.Size)
	case FieldCreated:
		return i.Times.Created.Format(timeLayout)
	case FieldModified:
		return i.Times.Modified.Format(timeLayout)
	case FieldAccessed:
		return i.Times.Accessed.Format(timeLayout)
	}
	return ""
}
