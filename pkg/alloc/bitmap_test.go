package alloc

import (
	"testing"

	. "github.com/tinyfs-go/tinyfs/pkg/types"
)

func TestBitmapFirstFit(t *testing.T) {
	bm := New(16)

	for wanted := Block(0); wanted < 16; wanted++ {
		found, ok := bm.Alloc()
		if !ok {
			t.Fatalf("allocating block `%d`: bitmap reported full", wanted)
		}
		if found != wanted {
			t.Fatalf("first fit: wanted `%d`; found `%d`", wanted, found)
		}
	}

	if block, ok := bm.Alloc(); ok {
		t.Fatalf("allocating beyond capacity: unexpectedly got `%d`", block)
	}
}

func TestBitmapFreeReusesLowest(t *testing.T) {
	bm := New(16)
	for i := 0; i < 16; i++ {
		bm.Alloc()
	}

	bm.Free(9)
	bm.Free(3)
	bm.Free(12)

	for _, wanted := range []Block{3, 9, 12} {
		found, ok := bm.Alloc()
		if !ok {
			t.Fatal("bitmap reported full after frees")
		}
		if found != wanted {
			t.Fatalf("freed-block reuse: wanted `%d`; found `%d`", wanted, found)
		}
	}
}

func TestBitmapReserveSkipped(t *testing.T) {
	bm := New(16)
	bm.Reserve(0)
	bm.Reserve(1)
	bm.Reserve(2)

	if found, ok := bm.Alloc(); !ok || found != 3 {
		t.Fatalf("alloc after reserve: wanted `3`; found `%d` (ok=%t)", found, ok)
	}
	for _, block := range []Block{0, 1, 2, 3} {
		if !bm.Test(block) {
			t.Fatalf("block `%d`: wanted allocated", block)
		}
	}
}

func TestBitmapBoundsDespiteSlack(t *testing.T) {
	// The backing slice covers BitmapBytes*8 bits, but only the tracked
	// range may be handed out.
	bm := New(3)
	for i := 0; i < 3; i++ {
		if _, ok := bm.Alloc(); !ok {
			t.Fatalf("allocating block `%d`: bitmap reported full", i)
		}
	}
	if block, ok := bm.Alloc(); ok {
		t.Fatalf("allocating past tracked range: unexpectedly got `%d`", block)
	}
}

func TestBitmapLoadSharesStorage(t *testing.T) {
	bytes := make([]byte, BitmapBytes)
	bm := Load(bytes, 8)

	bm.Reserve(0)
	if bytes[0] != 0b1000_0000 {
		t.Fatalf(
			"backing byte after Reserve(0): wanted `%#x`; found `%#x`",
			0b1000_0000,
			bytes[0],
		)
	}
	bm.Free(0)
	if bytes[0] != 0 {
		t.Fatalf(
			"backing byte after Free(0): wanted `0`; found `%#x`",
			bytes[0],
		)
	}
}

func TestBitmapFreeCount(t *testing.T) {
	bm := New(10)
	if n := bm.FreeCount(); n != 10 {
		t.Fatalf("fresh bitmap free count: wanted `10`; found `%d`", n)
	}
	bm.Reserve(4)
	bm.Reserve(7)
	if n := bm.FreeCount(); n != 8 {
		t.Fatalf("free count after reserves: wanted `8`; found `%d`", n)
	}
}
