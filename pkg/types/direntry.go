package types

// DirEntry is one root-directory entry: a fixed-width filename joined to
// an inode slot. An empty slot carries Ino == InoNil.
type DirEntry struct {
	Name string
	Ino  Ino
}

// Empty reports whether the entry is the reserved empty sentinel.
func (entry *DirEntry) Empty() bool { return entry.Ino == InoNil }

// FileInfo is the readdir/stat shape: a directory entry joined with the
// referenced inode's metadata.
type FileInfo struct {
	Name     string
	Ino      Ino
	Size     Byte
	Created  int64
	Modified int64
}

func (fi *FileInfo) Equal(other *FileInfo) bool {
	return fi.Name == other.Name && fi.Ino == other.Ino &&
		fi.Size == other.Size && fi.Created == other.Created &&
		fi.Modified == other.Modified
}
