package encode

import (
	"bytes"
	"fmt"

	. "github.com/tinyfs-go/tinyfs/pkg/types"
)

// EncodeDirEntry serializes one directory entry: a 2-byte inode reference
// followed by the NUL-padded fixed-width filename. An empty slot is the
// InoNil sentinel with a zeroed name field.
func EncodeDirEntry(entry *DirEntry, b *[DirEntryBytes]byte) error {
	if len(entry.Name) > MaxNameLen {
		return fmt.Errorf(
			"encoding directory entry for inode `%d`: name `%s` is `%d` "+
				"bytes; max `%d`: %w",
			entry.Ino,
			entry.Name,
			len(entry.Name),
			MaxNameLen,
			NameTooLongErr,
		)
	}

	p := b[:]
	putIno(p, dirEntryInoStart, entry.Ino)
	for i := dirEntryNameStart; i < dirEntryNameEnd; i++ {
		p[i] = 0
	}
	copy(p[dirEntryNameStart:dirEntryNameEnd], entry.Name)
	return nil
}

// DecodeDirEntry is the exact left inverse of EncodeDirEntry.
//
// No sentinel validation here: an empty slot is a perfectly valid on-disk
// entry. Callers filter if they only want live entries.
func DecodeDirEntry(entry *DirEntry, b *[DirEntryBytes]byte) {
	p := b[:]
	entry.Ino = getIno(p, dirEntryInoStart)
	name := p[dirEntryNameStart:dirEntryNameEnd]
	if i := bytes.IndexByte(name, 0); i >= 0 {
		name = name[:i]
	}
	entry.Name = string(name)
}

const (
	dirEntryInoStart = 0
	dirEntryInoSize  = 2
	dirEntryInoEnd   = dirEntryInoStart + dirEntryInoSize

	dirEntryNameStart = dirEntryInoEnd
	dirEntryNameSize  = MaxNameLen
	dirEntryNameEnd   = dirEntryNameStart + dirEntryNameSize
)
