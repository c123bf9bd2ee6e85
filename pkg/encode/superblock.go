package encode

import (
	"fmt"

	. "github.com/tinyfs-go/tinyfs/pkg/types"
)

// EncodeSuperblock serializes sb into exactly one block. It fails with
// CapacityExceededErr when the block count cannot be covered by the
// bitmap that shares the block with the header fields.
func EncodeSuperblock(sb *Superblock, b *[BlockBytes]byte) error {
	if sb.BlockCount > MaxBlockCount {
		return fmt.Errorf(
			"encoding superblock: block count `%d` exceeds bitmap capacity "+
				"`%d`: %w",
			sb.BlockCount,
			MaxBlockCount,
			CapacityExceededErr,
		)
	}
	if len(sb.Bitmap) != BitmapBytes {
		return fmt.Errorf(
			"encoding superblock: bitmap is `%d` bytes; wanted `%d`: %w",
			len(sb.Bitmap),
			BitmapBytes,
			CorruptImageErr,
		)
	}

	p := b[:]
	putU8(p, superMagicStart, sb.Magic)
	putU8(p, superVersionStart, sb.Version)
	putU16(p, superBlockSizeStart, uint16(sb.BlockSize))
	putBlock(p, superBlockCountStart, sb.BlockCount)
	putBlock(p, superInodeTableStartStart, sb.InodeTableStart)
	putBlock(p, superInodeTableBlocksStart, sb.InodeTableBlocks)
	putBlock(p, superRootDirBlockStart, sb.RootDirBlock)
	copy(p[superVolumeIDStart:superVolumeIDEnd], sb.VolumeID[:])
	copy(p[superBitmapStart:superBitmapEnd], sb.Bitmap)
	return nil
}

// DecodeSuperblock is the exact left inverse of EncodeSuperblock. It
// fails with CorruptImageErr when the magic tag, version, block size, or
// declared layout is inconsistent.
func DecodeSuperblock(sb *Superblock, b *[BlockBytes]byte) error {
	p := b[:]

	// Validate into temporaries; don't touch the pointee until the block
	// is known good.
	if magic := getU8(p, superMagicStart); magic != Magic {
		return fmt.Errorf(
			"decoding superblock: magic `%#x`; wanted `%#x`: %w",
			magic,
			Magic,
			CorruptImageErr,
		)
	}
	if version := getU8(p, superVersionStart); version != Version {
		return fmt.Errorf(
			"decoding superblock: version `%d`; wanted `%d`: %w",
			version,
			Version,
			CorruptImageErr,
		)
	}
	if blockSize := getU16(p, superBlockSizeStart); Byte(blockSize) != BlockSize {
		return fmt.Errorf(
			"decoding superblock: block size `%d`; wanted `%d`: %w",
			blockSize,
			BlockSize,
			CorruptImageErr,
		)
	}
	blockCount := getBlock(p, superBlockCountStart)
	if blockCount <= FirstDataBlock || blockCount > MaxBlockCount {
		return fmt.Errorf(
			"decoding superblock: block count `%d` outside `%d..%d`: %w",
			blockCount,
			FirstDataBlock+1,
			MaxBlockCount,
			CorruptImageErr,
		)
	}
	tableStart := getBlock(p, superInodeTableStartStart)
	tableBlocks := getBlock(p, superInodeTableBlocksStart)
	rootDir := getBlock(p, superRootDirBlockStart)
	if tableStart != InodeTableStart ||
		tableBlocks != InodeTableBlocks ||
		rootDir != RootDirBlock {
		return fmt.Errorf(
			"decoding superblock: layout `%d/%d/%d`; wanted `%d/%d/%d`: %w",
			tableStart,
			tableBlocks,
			rootDir,
			InodeTableStart,
			InodeTableBlocks,
			RootDirBlock,
			CorruptImageErr,
		)
	}

	sb.Magic = Magic
	sb.Version = Version
	sb.BlockSize = BlockSize
	sb.BlockCount = blockCount
	sb.InodeTableStart = tableStart
	sb.InodeTableBlocks = tableBlocks
	sb.RootDirBlock = rootDir
	copy(sb.VolumeID[:], p[superVolumeIDStart:superVolumeIDEnd])
	sb.Bitmap = make([]byte, BitmapBytes)
	copy(sb.Bitmap, p[superBitmapStart:superBitmapEnd])
	return nil
}

const (
	superMagicStart = 0
	superMagicSize  = 1
	superMagicEnd   = superMagicStart + superMagicSize

	superVersionStart = superMagicEnd
	superVersionSize  = 1
	superVersionEnd   = superVersionStart + superVersionSize

	superBlockSizeStart = superVersionEnd
	superBlockSizeSize  = 2
	superBlockSizeEnd   = superBlockSizeStart + superBlockSizeSize

	superBlockCountStart = superBlockSizeEnd
	superBlockCountSize  = 2
	superBlockCountEnd   = superBlockCountStart + superBlockCountSize

	superInodeTableStartStart = superBlockCountEnd
	superInodeTableStartSize  = 2
	superInodeTableStartEnd   = superInodeTableStartStart + superInodeTableStartSize

	superInodeTableBlocksStart = superInodeTableStartEnd
	superInodeTableBlocksSize  = 2
	superInodeTableBlocksEnd   = superInodeTableBlocksStart + superInodeTableBlocksSize

	superRootDirBlockStart = superInodeTableBlocksEnd
	superRootDirBlockSize  = 2
	superRootDirBlockEnd   = superRootDirBlockStart + superRootDirBlockSize

	superVolumeIDStart = superRootDirBlockEnd
	superVolumeIDSize  = 16
	superVolumeIDEnd   = superVolumeIDStart + superVolumeIDSize

	superBitmapStart = superVolumeIDEnd
	superBitmapSize  = BitmapBytes
	superBitmapEnd   = superBitmapStart + superBitmapSize
)
