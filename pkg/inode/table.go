// Package inode owns the inode table: a fixed 128-slot array of file
// metadata records, each mapping directly to an ordered list of data
// blocks.
package inode

import (
	"fmt"

	"github.com/tinyfs-go/tinyfs/pkg/alloc"
	. "github.com/tinyfs-go/tinyfs/pkg/types"
)

// Table holds the live in-memory copy of every inode slot.
//
// The slot slice starts at InodeCount but may grow past it: allocation is
// optimistic, and a slot beyond the fixed table only becomes an error
// when the filesystem tries to persist it.
type Table struct {
	slots []Inode
}

func NewTable() Table {
	slots := make([]Inode, InodeCount)
	for i := range slots {
		slots[i].Ino = Ino(i)
	}
	return Table{slots: slots}
}

// Alloc claims the first free slot, stamping both timestamps with now.
// It never fails: past the fixed capacity the table grows in memory and
// the overage surfaces at the next sync.
func (t *Table) Alloc(now int64) *Inode {
	for i := range t.slots {
		if !t.slots[i].InUse {
			inode := &t.slots[i]
			*inode = Inode{Ino: Ino(i), InUse: true, Created: now, Modified: now}
			return inode
		}
	}
	t.slots = append(t.slots, Inode{
		Ino:      Ino(len(t.slots)),
		InUse:    true,
		Created:  now,
		Modified: now,
	})
	return &t.slots[len(t.slots)-1]
}

// Get returns the live record for an in-use slot.
//
// The pointer aims into the table's backing array; it stays valid until
// the next Alloc, so callers that hold state across allocations keep the
// slot number, not the pointer.
func (t *Table) Get(ino Ino) (*Inode, error) {
	if int(ino) >= len(t.slots) || !t.slots[ino].InUse {
		return nil, fmt.Errorf("fetching inode `%d`: %w", ino, NotFoundErr)
	}
	return &t.slots[ino], nil
}

// Free clears the slot and returns every block it owned to the bitmap.
func (t *Table) Free(ino Ino, bm alloc.Bitmap) error {
	inode, err := t.Get(ino)
	if err != nil {
		return fmt.Errorf("freeing inode `%d`: %w", ino, err)
	}
	for _, block := range inode.Blocks {
		bm.Free(block)
	}
	*inode = Inode{Ino: ino}
	return nil
}

// Resize grows or shrinks the slot's block list by allocating or freeing
// trailing blocks to match ceil(size / block size). Exceeding the direct
// mapping or exhausting the bitmap fails with CapacityExceededErr; a
// failed grow releases whatever it had claimed, so the bitmap carries no
// half-grown allocations into the next sync attempt.
func (t *Table) Resize(inode *Inode, size Byte, bm alloc.Bitmap) error {
	// The block count stays in Byte width until it has passed the cap:
	// narrowing a huge staged size to a 2-byte count first would wrap it
	// into range and let an unrepresentable file through.
	target := BlocksFor(size)
	if target > MaxFileBlocks {
		return fmt.Errorf(
			"resizing inode `%d` to `%d` bytes: needs `%d` blocks; max `%d`: %w",
			inode.Ino,
			size,
			target,
			MaxFileBlocks,
			CapacityExceededErr,
		)
	}

	for Byte(len(inode.Blocks)) > target {
		last := len(inode.Blocks) - 1
		bm.Free(inode.Blocks[last])
		inode.Blocks = inode.Blocks[:last]
	}

	grown := 0
	for Byte(len(inode.Blocks)) < target {
		block, ok := bm.Alloc()
		if !ok {
			for ; grown > 0; grown-- {
				last := len(inode.Blocks) - 1
				bm.Free(inode.Blocks[last])
				inode.Blocks = inode.Blocks[:last]
			}
			return fmt.Errorf(
				"resizing inode `%d` to `%d` bytes: %w: no free blocks",
				inode.Ino,
				size,
				CapacityExceededErr,
			)
		}
		inode.Blocks = append(inode.Blocks, block)
		grown++
	}

	inode.Size = size
	return nil
}

// Stat reports the slot's recorded metadata; the caller joins the name.
func (t *Table) Stat(ino Ino) (FileInfo, error) {
	inode, err := t.Get(ino)
	if err != nil {
		return FileInfo{}, fmt.Errorf("stating inode `%d`: %w", ino, err)
	}
	return FileInfo{
		Ino:      inode.Ino,
		Size:     inode.Size,
		Created:  inode.Created,
		Modified: inode.Modified,
	}, nil
}

// InUseCount counts live slots, including any optimistic overflow slots.
func (t *Table) InUseCount() int {
	n := 0
	for i := range t.slots {
		if t.slots[i].InUse {
			n++
		}
	}
	return n
}

// Slot returns the record at index i whether or not it is in use; the
// serializer walks every fixed slot this way.
func (t *Table) Slot(i int) *Inode { return &t.slots[i] }

// Len reports the current slot count (at least InodeCount).
func (t *Table) Len() int { return len(t.slots) }
