package types

// Byte is a count of bytes or a byte offset within a file or device.
type Byte int64

// Block is a physical or file-relative block index. On-disk block
// references are 2 bytes wide.
type Block uint16

// Ino is an inode slot number. On-disk inode references are 2 bytes wide.
type Ino uint16

const (
	// BlockBytes is the fixed device block size. Everything on disk is
	// laid out in multiples of it.
	BlockBytes       = 256
	BlockSize   Byte = BlockBytes

	// InodeBytes is the encoded size of one inode record: exactly two
	// blocks, so the inode table never splits a record across an odd
	// boundary.
	InodeBytes      = 512
	InodeSize  Byte = InodeBytes

	// InodeCount is the fixed number of inode slots, matching the root
	// directory's entry capacity.
	InodeCount = 128

	// MaxFileBlocks caps an inode's direct block list; with 256-byte
	// blocks this yields the 54528-byte maximum file size.
	MaxFileBlocks      = 213
	MaxFileSize   Byte = MaxFileBlocks * BlockSize

	// MaxNameLen is the fixed filename field width in a directory entry.
	MaxNameLen         = 14
	DirEntryBytes      = 16
	DirEntrySize  Byte = DirEntryBytes

	// DirEntryCount is the root directory's entry capacity; the whole
	// directory region is DirBlocks blocks long.
	DirEntryCount        = 128
	DirRegionBytes       = DirEntryCount * DirEntryBytes
	DirBlocks      Block = DirRegionBytes / BlockBytes

	// InoNil is the directory-entry sentinel marking an empty slot.
	InoNil Ino = 0xFFFF

	Magic   uint8 = 0x5A
	Version uint8 = 1
)

// On-disk geometry. Block 0 is the superblock; the inode table and the
// root directory region follow immediately; everything after them is data.
const (
	SuperblockBlock  Block = 0
	InodeTableStart  Block = 1
	InodeTableBlocks Block = InodeCount * InodeBytes / BlockBytes
	RootDirBlock     Block = InodeTableStart + InodeTableBlocks
	FirstDataBlock   Block = RootDirBlock + DirBlocks
)

// The allocation bitmap lives inside the superblock alongside its header
// fields, so the bitmap's capacity bounds the whole device.
const (
	SuperblockHeaderBytes = 28
	BitmapBytes           = BlockBytes - SuperblockHeaderBytes
	MaxBlockCount         = Block(BitmapBytes * 8)
)
