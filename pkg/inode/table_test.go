package inode

import (
	"errors"
	"testing"

	"github.com/tinyfs-go/tinyfs/pkg/alloc"
	. "github.com/tinyfs-go/tinyfs/pkg/types"
)

func TestTableAllocFirstFree(t *testing.T) {
	table := NewTable()

	first := table.Alloc(100)
	if first.Ino != 0 {
		t.Fatalf("first alloc: wanted slot `0`; found `%d`", first.Ino)
	}
	second := table.Alloc(100)
	if second.Ino != 1 {
		t.Fatalf("second alloc: wanted slot `1`; found `%d`", second.Ino)
	}

	if err := table.Free(0, alloc.New(16)); err != nil {
		t.Fatalf("Free(): unexpected err: %v", err)
	}
	third := table.Alloc(200)
	if third.Ino != 0 {
		t.Fatalf("alloc after free: wanted slot `0`; found `%d`", third.Ino)
	}
	if third.Created != 200 || third.Modified != 200 {
		t.Fatalf(
			"timestamps: wanted `200/200`; found `%d/%d`",
			third.Created,
			third.Modified,
		)
	}
}

func TestTableAllocGrowsPastCapacity(t *testing.T) {
	table := NewTable()
	for i := 0; i < InodeCount; i++ {
		table.Alloc(1)
	}

	// The 129th allocation must not fail; persistence rejects it later.
	overflow := table.Alloc(1)
	if overflow.Ino != InodeCount {
		t.Fatalf(
			"overflow alloc: wanted slot `%d`; found `%d`",
			InodeCount,
			overflow.Ino,
		)
	}
	if table.Len() != InodeCount+1 {
		t.Fatalf("table length after overflow: found `%d`", table.Len())
	}
}

func TestTableGetFreedSlot(t *testing.T) {
	table := NewTable()
	ino := table.Alloc(1).Ino
	if err := table.Free(ino, alloc.New(16)); err != nil {
		t.Fatalf("Free(): unexpected err: %v", err)
	}

	if _, err := table.Get(ino); !errors.Is(err, NotFoundErr) {
		t.Fatalf("wanted `%v`; found `%v`", NotFoundErr, err)
	}
}

func TestTableResize(t *testing.T) {
	type testCase struct {
		name         string
		initialSize  Byte
		newSize      Byte
		wantedBlocks int
	}

	testCases := []testCase{{
		name:         "grow from empty",
		newSize:      BlockSize + 1,
		wantedBlocks: 2,
	}, {
		name:         "grow within last block",
		initialSize:  BlockSize + 1,
		newSize:      BlockSize * 2,
		wantedBlocks: 2,
	}, {
		name:         "shrink",
		initialSize:  BlockSize * 4,
		newSize:      1,
		wantedBlocks: 1,
	}, {
		name:         "shrink to empty",
		initialSize:  BlockSize * 2,
		newSize:      0,
		wantedBlocks: 0,
	}}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			table := NewTable()
			bm := alloc.New(512)
			inode := table.Alloc(1)
			if err := table.Resize(inode, tc.initialSize, bm); err != nil {
				t.Fatalf("initial Resize(): unexpected err: %v", err)
			}

			if err := table.Resize(inode, tc.newSize, bm); err != nil {
				t.Fatalf("Resize(): unexpected err: %v", err)
			}
			if len(inode.Blocks) != tc.wantedBlocks {
				t.Fatalf(
					"block list: wanted `%d` blocks; found `%d`",
					tc.wantedBlocks,
					len(inode.Blocks),
				)
			}
			if inode.Size != tc.newSize {
				t.Fatalf(
					"size: wanted `%d`; found `%d`",
					tc.newSize,
					inode.Size,
				)
			}
			if free := bm.FreeCount(); free != 512-Block(tc.wantedBlocks) {
				t.Fatalf(
					"bitmap: wanted `%d` free blocks; found `%d`",
					512-Block(tc.wantedBlocks),
					free,
				)
			}
		})
	}
}

func TestTableResizeTooManyBlocks(t *testing.T) {
	table := NewTable()
	bm := alloc.New(1024)
	inode := table.Alloc(1)

	err := table.Resize(inode, MaxFileSize+1, bm)
	if !errors.Is(err, CapacityExceededErr) {
		t.Fatalf("wanted `%v`; found `%v`", CapacityExceededErr, err)
	}
	if len(inode.Blocks) != 0 {
		t.Fatalf(
			"failed resize must not leave blocks behind; found `%d`",
			len(inode.Blocks),
		)
	}
	if free := bm.FreeCount(); free != 1024 {
		t.Fatalf("bitmap leaked blocks: `%d` free of `1024`", free)
	}

	// a size whose block count would wrap a 2-byte counter must still be
	// rejected, not wrapped into range
	err = table.Resize(inode, Byte(1)<<24, bm)
	if !errors.Is(err, CapacityExceededErr) {
		t.Fatalf("wanted `%v`; found `%v`", CapacityExceededErr, err)
	}
	if len(inode.Blocks) != 0 {
		t.Fatalf(
			"failed resize must not leave blocks behind; found `%d`",
			len(inode.Blocks),
		)
	}
}

func TestTableResizeBitmapExhausted(t *testing.T) {
	table := NewTable()
	bm := alloc.New(4)
	inode := table.Alloc(1)

	err := table.Resize(inode, BlockSize*8, bm)
	if !errors.Is(err, CapacityExceededErr) {
		t.Fatalf("wanted `%v`; found `%v`", CapacityExceededErr, err)
	}
	// a failed grow rolls its allocations back
	if free := bm.FreeCount(); free != 4 {
		t.Fatalf("bitmap leaked blocks: `%d` free of `4`", free)
	}
	if len(inode.Blocks) != 0 {
		t.Fatalf(
			"failed resize must not leave blocks behind; found `%d`",
			len(inode.Blocks),
		)
	}
}

func TestTableFreeReturnsBlocks(t *testing.T) {
	table := NewTable()
	bm := alloc.New(64)
	inode := table.Alloc(1)
	if err := table.Resize(inode, BlockSize*3, bm); err != nil {
		t.Fatalf("Resize(): unexpected err: %v", err)
	}

	if err := table.Free(inode.Ino, bm); err != nil {
		t.Fatalf("Free(): unexpected err: %v", err)
	}
	if free := bm.FreeCount(); free != 64 {
		t.Fatalf("wanted all `64` blocks free; found `%d`", free)
	}

	// the lowest freed block is the next first-fit winner
	if block, ok := bm.Alloc(); !ok || block != 0 {
		t.Fatalf("wanted block `0` reused; found `%d` (ok=%t)", block, ok)
	}
}

func TestTableStat(t *testing.T) {
	table := NewTable()
	inode := table.Alloc(42)
	if err := table.Resize(inode, 100, alloc.New(16)); err != nil {
		t.Fatalf("Resize(): unexpected err: %v", err)
	}
	inode.Modified = 43

	info, err := table.Stat(inode.Ino)
	if err != nil {
		t.Fatalf("Stat(): unexpected err: %v", err)
	}
	wanted := FileInfo{Ino: inode.Ino, Size: 100, Created: 42, Modified: 43}
	if !info.Equal(&wanted) {
		t.Fatalf("Stat(): wanted `%#v`; found `%#v`", wanted, info)
	}
}
