package types

import (
	"bytes"

	"github.com/google/uuid"
)

// Superblock is the filesystem's root metadata block: format tag,
// geometry, the allocation bitmap, and the locations of the inode table
// and the root directory. It is written first on format and read first on
// mount.
type Superblock struct {
	Magic            uint8
	Version          uint8
	BlockSize        Byte
	BlockCount       Block
	InodeTableStart  Block
	InodeTableBlocks Block
	RootDirBlock     Block
	VolumeID         uuid.UUID

	// Bitmap holds one bit per block, 1 = allocated, most significant bit
	// first. Always BitmapBytes long; bits past BlockCount stay zero.
	Bitmap []byte
}

// NewSuperblock builds a fresh superblock for a device of blockCount
// blocks with every bit clear. Format reserves the metadata blocks before
// writing it out.
func NewSuperblock(blockCount Block) Superblock {
	return Superblock{
		Magic:            Magic,
		Version:          Version,
		BlockSize:        BlockSize,
		BlockCount:       blockCount,
		InodeTableStart:  InodeTableStart,
		InodeTableBlocks: InodeTableBlocks,
		RootDirBlock:     RootDirBlock,
		VolumeID:         uuid.New(),
		Bitmap:           make([]byte, BitmapBytes),
	}
}

func (sb *Superblock) Equal(other *Superblock) bool {
	return sb.Magic == other.Magic &&
		sb.Version == other.Version &&
		sb.BlockSize == other.BlockSize &&
		sb.BlockCount == other.BlockCount &&
		sb.InodeTableStart == other.InodeTableStart &&
		sb.InodeTableBlocks == other.InodeTableBlocks &&
		sb.RootDirBlock == other.RootDirBlock &&
		sb.VolumeID == other.VolumeID &&
		bytes.Equal(sb.Bitmap, other.Bitmap)
}
