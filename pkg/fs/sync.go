package fs

import (
	"fmt"
	"sort"

	"github.com/tinyfs-go/tinyfs/pkg/encode"
	. "github.com/tinyfs-go/tinyfs/pkg/types"
)

// Sync makes every dirty structure durable, in this order: staged data
// blocks first, then the inode table, then the root directory, then the
// bitmap and superblock last — data is durable before the metadata that
// claims it. Structural capacity (inode slots, directory entries, block
// lists, bitmap) is enforced here and nowhere earlier: buffered writes
// that overflowed a limit in memory surface as CapacityExceededErr now.
//
// Sync returns the first error encountered and leaves already-written
// blocks written; there is no rollback, and the write sequence is not
// atomic as a unit.
func (fs *FileSystem) Sync() error {
	if fs.closed {
		return fmt.Errorf("syncing: %w", ClosedErr)
	}

	// Publish every open handle's private buffers so sync covers writes
	// that were never explicitly flushed.
	for h := range fs.handles {
		h.flush()
	}

	if err := fs.checkStructuralLimits(); err != nil {
		return fmt.Errorf("syncing: %w", err)
	}

	dirty := fs.sortedDirtyInos()

	// Settle and write data blocks, lowest slot first.
	for _, ino := range dirty {
		if err := fs.settle(ino); err != nil {
			return fmt.Errorf("syncing: %w", err)
		}
	}

	for _, ino := range dirty {
		if err := fs.writeInode(ino); err != nil {
			return fmt.Errorf("syncing: %w", err)
		}
	}

	if fs.dirDirty {
		if err := fs.writeDirectory(); err != nil {
			return fmt.Errorf("syncing: %w", err)
		}
	}

	if len(dirty) > 0 || fs.dirDirty || fs.metaDirty {
		if err := fs.writeSuperblock(); err != nil {
			return fmt.Errorf("syncing: %w", err)
		}
	}

	fs.staged = make(map[Ino]*stagedFile)
	fs.dirtyInos = NewInoSet()
	fs.dirDirty = false
	fs.metaDirty = false
	return nil
}

// checkStructuralLimits rejects optimistic overgrowth before any block is
// written, so a failed sync never leaves the image claiming more files
// than the fixed tables can hold.
func (fs *FileSystem) checkStructuralLimits() error {
	if live := fs.dir.LiveCount(); live > DirEntryCount {
		return fmt.Errorf(
			"directory holds `%d` entries; capacity `%d`: %w",
			live,
			DirEntryCount,
			CapacityExceededErr,
		)
	}
	for i := InodeCount; i < fs.inodes.Len(); i++ {
		if fs.inodes.Slot(i).InUse {
			return fmt.Errorf(
				"inode table holds `%d` files; capacity `%d`: %w",
				fs.inodes.InUseCount(),
				InodeCount,
				CapacityExceededErr,
			)
		}
	}
	return nil
}

func (fs *FileSystem) sortedDirtyInos() []Ino {
	inos := make([]Ino, 0, len(fs.dirtyInos))
	for ino := range fs.dirtyInos {
		inos = append(inos, ino)
	}
	sort.Slice(inos, func(i, j int) bool { return inos[i] < inos[j] })
	return inos
}

// settle resizes one dirty inode's block list to its staged size and
// writes its staged data blocks. Capacity failures happen before the
// inode's data or record touch the device, so the on-disk inode never
// references more blocks than the direct mapping allows.
func (fs *FileSystem) settle(ino Ino) error {
	inode, err := fs.inodes.Get(ino)
	if err != nil {
		// Freed slot; its zeroed record is written in the inode-table
		// pass, and any staged content is orphaned.
		delete(fs.staged, ino)
		return nil
	}

	st := fs.staged[ino]
	if st == nil {
		return nil
	}

	oldBlocks := Byte(len(inode.Blocks))
	if err := fs.inodes.Resize(inode, st.size, fs.bitmap); err != nil {
		return fmt.Errorf("settling inode `%d`: %w", ino, err)
	}
	inode.Modified = st.modified
	fs.metaDirty = true

	for _, fileBlock := range sortedFileBlocks(st.blocks) {
		if err := fs.dev.WriteBlock(
			inode.Blocks[fileBlock],
			st.blocks[fileBlock],
		); err != nil {
			return fmt.Errorf("settling inode `%d`: %w", ino, err)
		}
	}

	// Blocks that grew under a sparse seek-then-write carry stale device
	// content; zero them explicitly.
	var zero [BlockBytes]byte
	for fileBlock := oldBlocks; fileBlock < Byte(len(inode.Blocks)); fileBlock++ {
		if _, covered := st.blocks[fileBlock]; covered {
			continue
		}
		if err := fs.dev.WriteBlock(inode.Blocks[fileBlock], &zero); err != nil {
			return fmt.Errorf("settling inode `%d`: %w", ino, err)
		}
	}

	delete(fs.staged, ino)
	return nil
}

func sortedFileBlocks(blocks map[Byte]*[BlockBytes]byte) []Byte {
	sorted := make([]Byte, 0, len(blocks))
	for fileBlock := range blocks {
		sorted = append(sorted, fileBlock)
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	return sorted
}

func (fs *FileSystem) writeInode(ino Ino) error {
	// An overflow slot has no on-disk record. It is either in use, in which
	// case checkStructuralLimits already failed the sync, or freed, in
	// which case there is nothing to persist.
	if ino >= InodeCount {
		return nil
	}
	var buf [InodeBytes]byte
	if err := encode.EncodeInode(fs.inodes.Slot(int(ino)), &buf); err != nil {
		return fmt.Errorf("writing inode `%d`: %w", ino, err)
	}
	for half := Block(0); half < inodeBlocks; half++ {
		block := (*[BlockBytes]byte)(buf[Byte(half)*BlockSize:])
		if err := fs.dev.WriteBlock(inodeTableBlock(ino, half), block); err != nil {
			return fmt.Errorf("writing inode `%d`: %w", ino, err)
		}
	}
	return nil
}

func (fs *FileSystem) writeDirectory() error {
	var region [DirRegionBytes]byte
	if err := fs.dir.Encode(&region); err != nil {
		return fmt.Errorf("writing root directory: %w", err)
	}
	for i := Block(0); i < DirBlocks; i++ {
		block := (*[BlockBytes]byte)(region[Byte(i)*BlockSize:])
		if err := fs.dev.WriteBlock(RootDirBlock+i, block); err != nil {
			return fmt.Errorf("writing root directory: %w", err)
		}
	}
	return nil
}

func (fs *FileSystem) writeSuperblock() error {
	var block [BlockBytes]byte
	if err := encode.EncodeSuperblock(&fs.super, &block); err != nil {
		return fmt.Errorf("writing superblock: %w", err)
	}
	if err := fs.dev.WriteBlock(SuperblockBlock, &block); err != nil {
		return fmt.Errorf("writing superblock: %w", err)
	}
	return nil
}
