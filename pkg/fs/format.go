package fs

import (
	"fmt"

	"github.com/tinyfs-go/tinyfs/pkg/device"
	. "github.com/tinyfs-go/tinyfs/pkg/types"
)

// Format creates a fresh image of blockCount blocks at path and writes
// every on-disk structure immediately: zeroed inode table, empty root
// directory, then the superblock with the metadata blocks reserved in its
// bitmap. There is no dirty window; a formatted image mounts as-is.
func Format(path string, blockCount Block) error {
	if blockCount <= FirstDataBlock {
		return fmt.Errorf(
			"formatting `%s`: `%d` blocks leaves no room for data "+
				"(metadata ends at block `%d`): %w",
			path,
			blockCount,
			FirstDataBlock-1,
			CapacityExceededErr,
		)
	}

	dev, err := device.Create(path, blockCount)
	if err != nil {
		return fmt.Errorf("formatting `%s`: %w", path, err)
	}

	fs := newFileSystem(dev, NewSuperblock(blockCount))
	for block := Block(0); block < FirstDataBlock; block++ {
		fs.bitmap.Reserve(block)
	}

	if err := fs.writeFull(); err != nil {
		dev.Close()
		return fmt.Errorf("formatting `%s`: %w", path, err)
	}
	if err := dev.Close(); err != nil {
		return fmt.Errorf("formatting `%s`: %w", path, err)
	}
	return nil
}

// writeFull persists every structure regardless of dirtiness: the whole
// inode table, the directory region, and the superblock last.
func (fs *FileSystem) writeFull() error {
	for i := 0; i < InodeCount; i++ {
		if err := fs.writeInode(Ino(i)); err != nil {
			return err
		}
	}
	if err := fs.writeDirectory(); err != nil {
		return err
	}
	return fs.writeSuperblock()
}
