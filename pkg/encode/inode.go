package encode

import (
	"fmt"

	. "github.com/tinyfs-go/tinyfs/pkg/types"
)

const inodeFlagInUse uint8 = 1 << 0

// EncodeInode serializes one inode record into exactly two blocks. This
// is the single enforcement point for the per-file structural limits:
// buffered writes may grow an in-memory inode past MaxFileBlocks, but it
// cannot be made durable, so the overage surfaces here — at sync — as
// CapacityExceededErr.
func EncodeInode(inode *Inode, b *[InodeBytes]byte) error {
	if len(inode.Blocks) > MaxFileBlocks || inode.Size > MaxFileSize {
		return fmt.Errorf(
			"encoding inode `%d`: `%d` bytes in `%d` blocks exceeds the "+
				"`%d`-block direct mapping: %w",
			inode.Ino,
			inode.Size,
			len(inode.Blocks),
			MaxFileBlocks,
			CapacityExceededErr,
		)
	}

	p := b[:]
	var flags uint8
	if inode.InUse {
		flags |= inodeFlagInUse
	}
	putU8(p, inodeFlagsStart, flags)
	putU8(p, inodeReservedStart, 0)
	putU32(p, inodeSizeStart, uint32(inode.Size))
	putI64(p, inodeCreatedStart, inode.Created)
	putI64(p, inodeModifiedStart, inode.Modified)
	putU16(p, inodeBlockCountStart, uint16(len(inode.Blocks)))
	for i, block := range inode.Blocks {
		putBlock(p, inodeBlocksStart+Byte(i)*2, block)
	}
	for i := len(inode.Blocks); i < MaxFileBlocks; i++ {
		putBlock(p, inodeBlocksStart+Byte(i)*2, 0)
	}
	for i := Byte(inodeBlocksEnd); i < InodeSize; i++ {
		p[i] = 0
	}
	return nil
}

// DecodeInode is the exact left inverse of EncodeInode. The caller owns
// the slot number; decode only restores the record's fields.
func DecodeInode(inode *Inode, b *[InodeBytes]byte) error {
	p := b[:]

	size := Byte(getU32(p, inodeSizeStart))
	blockCount := getU16(p, inodeBlockCountStart)
	if size > MaxFileSize || blockCount > MaxFileBlocks {
		return fmt.Errorf(
			"decoding inode: `%d` bytes in `%d` blocks exceeds the "+
				"`%d`-block direct mapping: %w",
			size,
			blockCount,
			MaxFileBlocks,
			CorruptImageErr,
		)
	}
	inUse := getU8(p, inodeFlagsStart)&inodeFlagInUse != 0
	if inUse && BlocksFor(size) != Byte(blockCount) {
		return fmt.Errorf(
			"decoding inode: `%d` bytes needs `%d` blocks; record claims "+
				"`%d`: %w",
			size,
			BlocksFor(size),
			blockCount,
			CorruptImageErr,
		)
	}

	inode.InUse = inUse
	inode.Size = size
	inode.Created = getI64(p, inodeCreatedStart)
	inode.Modified = getI64(p, inodeModifiedStart)
	inode.Blocks = nil
	if blockCount > 0 {
		inode.Blocks = make([]Block, blockCount)
		for i := range inode.Blocks {
			inode.Blocks[i] = getBlock(p, inodeBlocksStart+Byte(i)*2)
		}
	}
	return nil
}

const (
	inodeFlagsStart = 0
	inodeFlagsSize  = 1
	inodeFlagsEnd   = inodeFlagsStart + inodeFlagsSize

	inodeReservedStart = inodeFlagsEnd
	inodeReservedSize  = 1
	inodeReservedEnd   = inodeReservedStart + inodeReservedSize

	inodeSizeStart = inodeReservedEnd
	inodeSizeSize  = 4
	inodeSizeEnd   = inodeSizeStart + inodeSizeSize

	inodeCreatedStart = inodeSizeEnd
	inodeCreatedSize  = 8
	inodeCreatedEnd   = inodeCreatedStart + inodeCreatedSize

	inodeModifiedStart = inodeCreatedEnd
	inodeModifiedSize  = 8
	inodeModifiedEnd   = inodeModifiedStart + inodeModifiedSize

	inodeBlockCountStart = inodeModifiedEnd
	inodeBlockCountSize  = 2
	inodeBlockCountEnd   = inodeBlockCountStart + inodeBlockCountSize

	inodeBlocksStart = inodeBlockCountEnd
	inodeBlocksSize  = MaxFileBlocks * 2
	inodeBlocksEnd   = inodeBlocksStart + inodeBlocksSize
)
