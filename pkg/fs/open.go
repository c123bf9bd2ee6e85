package fs

import (
	"fmt"
	"time"

	. "github.com/tinyfs-go/tinyfs/pkg/types"
)

// OpenMode selects what a handle may do with its file.
type OpenMode uint8

const (
	ModeRead  OpenMode = iota // read-only
	ModeWrite                 // read-write
)

// Create makes a new empty file and returns a writable handle on it. A
// name collision fails eagerly with AlreadyExistsErr; inode-slot and
// directory-entry capacity are granted optimistically and only rejected
// at the next sync.
func (fs *FileSystem) Create(name string) (*Handle, error) {
	if fs.closed {
		return nil, fmt.Errorf("creating `%s`: %w", name, ClosedErr)
	}
	if _, err := fs.dir.Lookup(name); err == nil {
		return nil, fmt.Errorf("creating `%s`: %w", name, AlreadyExistsErr)
	}

	inode := fs.inodes.Alloc(time.Now().Unix())
	if err := fs.dir.Insert(name, inode.Ino); err != nil {
		if freeErr := fs.inodes.Free(inode.Ino, fs.bitmap); freeErr != nil {
			return nil, fmt.Errorf("creating `%s`: unwinding: %w", name, freeErr)
		}
		return nil, fmt.Errorf("creating `%s`: %w", name, err)
	}
	fs.dirDirty = true
	fs.dirtyInos.Add(inode.Ino)
	return fs.newHandle(inode.Ino, ModeWrite), nil
}

// Open locates name in the root directory and returns a handle on its
// inode with the cursor at offset zero.
func (fs *FileSystem) Open(name string, mode OpenMode) (*Handle, error) {
	if fs.closed {
		return nil, fmt.Errorf("opening `%s`: %w", name, ClosedErr)
	}
	ino, err := fs.dir.Lookup(name)
	if err != nil {
		return nil, fmt.Errorf("opening `%s`: %w", name, err)
	}
	return fs.newHandle(ino, mode), nil
}

// Remove drops the directory entry and frees the inode and every block it
// owned. Outstanding handles on the slot become invalid; their next
// operation fails with InvalidHandleErr.
func (fs *FileSystem) Remove(name string) error {
	if fs.closed {
		return fmt.Errorf("removing `%s`: %w", name, ClosedErr)
	}
	ino, err := fs.dir.Lookup(name)
	if err != nil {
		return fmt.Errorf("removing `%s`: %w", name, err)
	}
	if err := fs.dir.Remove(name); err != nil {
		return fmt.Errorf("removing `%s`: %w", name, err)
	}
	if err := fs.inodes.Free(ino, fs.bitmap); err != nil {
		return fmt.Errorf("removing `%s`: %w", name, err)
	}
	delete(fs.staged, ino)
	fs.dirtyInos.Add(ino)
	fs.dirDirty = true
	fs.metaDirty = true
	return nil
}

// ReadDir returns a materialized snapshot of the namespace joined with
// each inode's recorded metadata, in directory-slot order. Later mutation
// of the filesystem cannot invalidate the returned slice.
func (fs *FileSystem) ReadDir() ([]FileInfo, error) {
	if fs.closed {
		return nil, fmt.Errorf("reading directory: %w", ClosedErr)
	}
	entries := fs.dir.List()
	infos := make([]FileInfo, 0, len(entries))
	for i := range entries {
		info, err := fs.inodes.Stat(entries[i].Ino)
		if err != nil {
			return nil, fmt.Errorf(
				"reading directory: entry `%s`: %w",
				entries[i].Name,
				err,
			)
		}
		info.Name = entries[i].Name
		infos = append(infos, info)
	}
	return infos, nil
}

// sizeOf is the committed-plus-staged size of a file: staged content
// published by a handle flush extends the visible size ahead of the next
// sync.
func (fs *FileSystem) sizeOf(ino Ino) Byte {
	if st := fs.staged[ino]; st != nil {
		return st.size
	}
	if inode, err := fs.inodes.Get(ino); err == nil {
		return inode.Size
	}
	return 0
}

// readFileBlock resolves one file-relative block through the staged
// overlay, then the inode's mapped blocks, then zeros for holes.
func (fs *FileSystem) readFileBlock(ino Ino, fileBlock Byte, out *[BlockBytes]byte) error {
	if st := fs.staged[ino]; st != nil {
		if buf, ok := st.blocks[fileBlock]; ok {
			*out = *buf
			return nil
		}
	}
	inode, err := fs.inodes.Get(ino)
	if err != nil {
		return fmt.Errorf("reading block `%d` of inode `%d`: %w", fileBlock, ino, err)
	}
	if fileBlock < Byte(len(inode.Blocks)) {
		return fs.dev.ReadBlock(inode.Blocks[fileBlock], out)
	}
	*out = [BlockBytes]byte{}
	return nil
}
