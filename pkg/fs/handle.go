package fs

import (
	"fmt"
	"io"
	"time"

	"github.com/tinyfs-go/tinyfs/pkg/math"
	. "github.com/tinyfs-go/tinyfs/pkg/types"
)

const (
	ReadOnlyErr       ConstError = "handle is read-only"
	InvalidWhenceErr  ConstError = "invalid whence"
	NegativeOffsetErr ConstError = "negative offset"
)

// Handle is a per-open-file cursor over one inode slot. Writes land in a
// private overlay of file-relative blocks; nothing is visible to other
// handles (or durable) until the overlay is flushed through the owning
// FileSystem. A handle must not outlive its FileSystem.
type Handle struct {
	fs     *FileSystem
	ino    Ino
	mode   OpenMode
	cursor Byte

	overlay map[Byte]*[BlockBytes]byte
	size    Byte
	dirty   bool
	closed  bool
}

func (fs *FileSystem) newHandle(ino Ino, mode OpenMode) *Handle {
	h := &Handle{
		fs:      fs,
		ino:     ino,
		mode:    mode,
		overlay: make(map[Byte]*[BlockBytes]byte),
	}
	fs.handles[h] = struct{}{}
	return h
}

// check guards every operation: the handle and filesystem must be open
// and the inode slot must still be live.
func (h *Handle) check() error {
	if h.closed || h.fs.closed {
		return ClosedErr
	}
	if _, err := h.fs.inodes.Get(h.ino); err != nil {
		return InvalidHandleErr
	}
	return nil
}

// visibleSize is the file size as this handle sees it: its own staged
// growth first, then the filesystem's committed-plus-staged size.
func (h *Handle) visibleSize() Byte {
	if h.dirty {
		return h.size
	}
	return h.fs.sizeOf(h.ino)
}

// Read copies up to maxBytes from the cursor, crossing block boundaries
// and stopping at end-of-file. It never reads past the visible size.
func (h *Handle) Read(maxBytes int) ([]byte, error) {
	if err := h.check(); err != nil {
		return nil, fmt.Errorf("reading from inode `%d`: %w", h.ino, err)
	}

	length := math.Min(Byte(maxBytes), h.visibleSize()-h.cursor)
	if length <= 0 {
		return nil, nil
	}

	out := make([]byte, length)
	var done Byte
	for done < length {
		fileBlock := (h.cursor + done) / BlockSize
		blockOffset := (h.cursor + done) % BlockSize
		chunk := math.Min(length-done, BlockSize-blockOffset)

		var block [BlockBytes]byte
		if err := h.readBlock(fileBlock, &block); err != nil {
			return nil, fmt.Errorf("reading from inode `%d`: %w", h.ino, err)
		}
		copy(out[done:done+chunk], block[blockOffset:blockOffset+chunk])
		done += chunk
	}

	h.cursor += done
	return out, nil
}

func (h *Handle) readBlock(fileBlock Byte, out *[BlockBytes]byte) error {
	if buf, ok := h.overlay[fileBlock]; ok {
		*out = *buf
		return nil
	}
	return h.fs.readFileBlock(h.ino, fileBlock, out)
}

// Write copies b at the cursor into the handle's private overlay, growing
// the staged size as needed. No blocks are allocated and no capacity is
// checked here: a write past the structural limit succeeds so long as it
// stays resident, and the overage surfaces at the next sync.
func (h *Handle) Write(b []byte) error {
	if err := h.check(); err != nil {
		return fmt.Errorf("writing to inode `%d`: %w", h.ino, err)
	}
	if h.mode != ModeWrite {
		return fmt.Errorf("writing to inode `%d`: %w", h.ino, ReadOnlyErr)
	}
	if len(b) == 0 {
		return nil
	}

	if !h.dirty {
		h.size = h.fs.sizeOf(h.ino)
		h.dirty = true
	}

	var done Byte
	for done < Byte(len(b)) {
		fileBlock := (h.cursor + done) / BlockSize
		blockOffset := (h.cursor + done) % BlockSize
		chunk := math.Min(Byte(len(b))-done, BlockSize-blockOffset)

		buf, ok := h.overlay[fileBlock]
		if !ok {
			buf = new([BlockBytes]byte)
			// Partial block writes must preserve the block's current
			// content around the written range.
			if chunk < BlockSize {
				if err := h.fs.readFileBlock(h.ino, fileBlock, buf); err != nil {
					return fmt.Errorf("writing to inode `%d`: %w", h.ino, err)
				}
			}
			h.overlay[fileBlock] = buf
		}
		copy(buf[blockOffset:blockOffset+chunk], b[done:done+chunk])
		done += chunk
	}

	h.cursor += done
	h.size = math.Max(h.size, h.cursor)
	return nil
}

// Seek moves the cursor using the standard io.SeekStart / io.SeekCurrent
// / io.SeekEnd whences and returns the new offset. Seeking past
// end-of-file is allowed; the gap reads as zeros once written over.
func (h *Handle) Seek(offset Byte, whence int) (Byte, error) {
	if err := h.check(); err != nil {
		return 0, fmt.Errorf("seeking in inode `%d`: %w", h.ino, err)
	}

	var next Byte
	switch whence {
	case io.SeekStart:
		next = offset
	case io.SeekCurrent:
		next = h.cursor + offset
	case io.SeekEnd:
		next = h.visibleSize() + offset
	default:
		return 0, fmt.Errorf(
			"seeking in inode `%d`: whence `%d`: %w",
			h.ino,
			whence,
			InvalidWhenceErr,
		)
	}
	if next < 0 {
		return 0, fmt.Errorf(
			"seeking in inode `%d` to `%d`: %w",
			h.ino,
			next,
			NegativeOffsetErr,
		)
	}
	h.cursor = next
	return next, nil
}

// Stat reports the file's metadata as this handle sees it, including any
// staged growth not yet synced.
func (h *Handle) Stat() (FileInfo, error) {
	if err := h.check(); err != nil {
		return FileInfo{}, fmt.Errorf("stating inode `%d`: %w", h.ino, err)
	}
	info, err := h.fs.inodes.Stat(h.ino)
	if err != nil {
		return FileInfo{}, fmt.Errorf("stating inode `%d`: %w", h.ino, err)
	}
	info.Size = h.visibleSize()
	if name, err := h.fs.dir.NameOf(h.ino); err == nil {
		info.Name = name
	}
	return info, nil
}

// Rename gives the file a new name in place. The inode slot is untouched,
// so this and every other handle on the slot stay valid.
func (h *Handle) Rename(newName string) error {
	if err := h.check(); err != nil {
		return fmt.Errorf("renaming inode `%d`: %w", h.ino, err)
	}
	if err := h.fs.dir.RenameIno(h.ino, newName); err != nil {
		return fmt.Errorf("renaming inode `%d`: %w", h.ino, err)
	}
	h.fs.dirDirty = true
	return nil
}

// Close publishes the handle's staged content through the owning
// FileSystem and detaches the handle. It does not force device I/O; the
// content becomes durable at the filesystem's next sync. Closing twice is
// a no-op.
func (h *Handle) Close() error {
	if h.closed {
		return nil
	}
	h.flush()
	h.closed = true
	delete(h.fs.handles, h)
	return nil
}

// flush merges the private overlay into the filesystem's staged state and
// marks the inode dirty. Content staged against a slot that was freed in
// the meantime is dropped.
func (h *Handle) flush() {
	if !h.dirty {
		return
	}
	if _, err := h.fs.inodes.Get(h.ino); err != nil {
		h.overlay = make(map[Byte]*[BlockBytes]byte)
		h.dirty = false
		return
	}

	st := h.fs.staged[h.ino]
	if st == nil {
		st = &stagedFile{blocks: make(map[Byte]*[BlockBytes]byte)}
		st.size = h.fs.sizeOf(h.ino)
		h.fs.staged[h.ino] = st
	}
	for fileBlock, buf := range h.overlay {
		st.blocks[fileBlock] = buf
	}
	st.size = math.Max(st.size, h.size)
	st.modified = time.Now().Unix()

	h.fs.dirtyInos.Add(h.ino)
	h.overlay = make(map[Byte]*[BlockBytes]byte)
	h.dirty = false
}
