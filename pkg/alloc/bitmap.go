package alloc

import (
	. "github.com/tinyfs-go/tinyfs/pkg/types"
)

const bitsPerByte = 8

// Bitmap tracks free/used state with one bit per block, most significant
// bit first, 1 = allocated. Allocation is first-fit: the lowest-indexed
// free block wins, so freed blocks are reused from the bottom up.
//
// The byte slice may be longer than the tracked range (it is the
// superblock's fixed-width bitmap field); bits past the block count are
// never handed out.
type Bitmap struct {
	bytes  []byte
	blocks Block
}

// New returns a bitmap over blocks bits backed by a fresh
// superblock-sized byte slice.
func New(blocks Block) Bitmap {
	return Bitmap{bytes: make([]byte, BitmapBytes), blocks: blocks}
}

// Load wraps the superblock's bitmap bytes without copying, so mutations
// through the bitmap are visible to the next superblock encode.
func Load(bytes []byte, blocks Block) Bitmap {
	return Bitmap{bytes: bytes, blocks: blocks}
}

// Alloc finds, marks, and returns the lowest-indexed free block. The
// second return is false when every tracked block is allocated.
func (bm Bitmap) Alloc() (Block, bool) {
	for i, byt := range bm.bytes {
		bit := byteFirstZero(byt)
		if bit == 0xFF {
			continue
		}
		block := Block(i*bitsPerByte) + Block(bit)
		if block >= bm.blocks {
			return 0, false
		}
		bm.bytes[i] = byteSetHigh(byt, bit)
		return block, true
	}
	return 0, false
}

// Free clears the block's bit unconditionally; the caller guarantees no
// outstanding reference.
func (bm Bitmap) Free(block Block) {
	b := &bm.bytes[block/bitsPerByte]
	*b = byteSetLow(*b, uint8(block%bitsPerByte))
}

// Reserve marks the block allocated without going through first-fit.
func (bm Bitmap) Reserve(block Block) {
	b := &bm.bytes[block/bitsPerByte]
	*b = byteSetHigh(*b, uint8(block%bitsPerByte))
}

// Test reports whether the block's bit is set.
func (bm Bitmap) Test(block Block) bool {
	return !byteIsZero(bm.bytes[block/bitsPerByte], uint8(block%bitsPerByte))
}

// FreeCount returns the number of unallocated tracked blocks.
func (bm Bitmap) FreeCount() Block {
	var n Block
	for block := Block(0); block < bm.blocks; block++ {
		if !bm.Test(block) {
			n++
		}
	}
	return n
}

func (bm Bitmap) Bytes() []byte { return bm.bytes }

func (bm Bitmap) Blocks() Block { return bm.blocks }

func byteIsZero(byt byte, bit uint8) bool {
	return byt&(0b1000_0000>>bit) == 0
}

func byteSetHigh(byt byte, bit uint8) byte {
	return byt | (0b1000_0000 >> bit)
}

func byteSetLow(byt byte, bit uint8) byte {
	return byt & ^(0b1000_0000 >> bit)
}

func byteFirstZero(byt byte) uint8 {
	for bit := uint8(0); bit < bitsPerByte; bit++ {
		if byteIsZero(byt, bit) {
			return bit
		}
	}
	return 0xFF
}
