package types

import "github.com/tinyfs-go/tinyfs/pkg/math"

// Inode is the in-memory shape of one inode record. Blocks is an ordered
// list of the data blocks the file owns, in file order.
//
// Blocks is deliberately a slice rather than a fixed array: buffered
// writes may grow a file past MaxFileBlocks while it stays resident, and
// the limit is enforced when the inode is next serialized, not here.
type Inode struct {
	Ino      Ino
	InUse    bool
	Size     Byte
	Created  int64
	Modified int64
	Blocks   []Block
}

// BlocksFor returns the number of blocks needed to hold size bytes.
//
// The count comes back as a Byte, not a Block: a buffered write may grow
// a file far past anything a 2-byte block reference can express, and the
// count must survive wide enough for the capacity comparison that
// rejects it.
func BlocksFor(size Byte) Byte {
	return math.DivRoundUp(size, BlockSize)
}

// Equal compares every field, including the full block list.
func (inode *Inode) Equal(other *Inode) bool {
	if inode.Ino != other.Ino ||
		inode.InUse != other.InUse ||
		inode.Size != other.Size ||
		inode.Created != other.Created ||
		inode.Modified != other.Modified ||
		len(inode.Blocks) != len(other.Blocks) {
		return false
	}
	for i := range inode.Blocks {
		if inode.Blocks[i] != other.Blocks[i] {
			return false
		}
	}
	return true
}
