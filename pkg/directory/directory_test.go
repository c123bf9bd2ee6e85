package directory

import (
	"errors"
	"fmt"
	"testing"

	. "github.com/tinyfs-go/tinyfs/pkg/types"
)

func TestDirectoryInsertLookup(t *testing.T) {
	dir := New()
	if err := dir.Insert("hello.txt", 3); err != nil {
		t.Fatalf("Insert(): unexpected err: %v", err)
	}

	ino, err := dir.Lookup("hello.txt")
	if err != nil {
		t.Fatalf("Lookup(): unexpected err: %v", err)
	}
	if ino != 3 {
		t.Fatalf("Lookup(): wanted inode `3`; found `%d`", ino)
	}

	if _, err := dir.Lookup("missing"); !errors.Is(err, NotFoundErr) {
		t.Fatalf("wanted `%v`; found `%v`", NotFoundErr, err)
	}
}

func TestDirectoryInsertErrors(t *testing.T) {
	type testCase struct {
		name      string
		fileName  string
		wantedErr error
	}

	testCases := []testCase{{
		name:      "empty name",
		fileName:  "",
		wantedErr: NameTooLongErr,
	}, {
		name:      "name too long",
		fileName:  "fifteen-chars!!",
		wantedErr: NameTooLongErr,
	}, {
		name:      "duplicate",
		fileName:  "taken",
		wantedErr: AlreadyExistsErr,
	}}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			dir := New()
			if err := dir.Insert("taken", 0); err != nil {
				t.Fatalf("seeding Insert(): unexpected err: %v", err)
			}
			if err := dir.Insert(tc.fileName, 1); !errors.Is(err, tc.wantedErr) {
				t.Fatalf("wanted `%v`; found `%v`", tc.wantedErr, err)
			}
		})
	}
}

func TestDirectoryRemoveFreesSlot(t *testing.T) {
	dir := New()
	if err := dir.Insert("a", 0); err != nil {
		t.Fatalf("Insert(): unexpected err: %v", err)
	}
	if err := dir.Insert("b", 1); err != nil {
		t.Fatalf("Insert(): unexpected err: %v", err)
	}

	if err := dir.Remove("a"); err != nil {
		t.Fatalf("Remove(): unexpected err: %v", err)
	}
	if _, err := dir.Lookup("a"); !errors.Is(err, NotFoundErr) {
		t.Fatalf("wanted `%v`; found `%v`", NotFoundErr, err)
	}

	// the freed slot is the first-fit winner for the next insert
	if err := dir.Insert("c", 2); err != nil {
		t.Fatalf("Insert(): unexpected err: %v", err)
	}
	entries := dir.List()
	if len(entries) != 2 || entries[0].Name != "c" || entries[1].Name != "b" {
		t.Fatalf("wanted `[c b]` in slot order; found `%v`", entries)
	}
}

func TestDirectoryRemoveMissing(t *testing.T) {
	dir := New()
	if err := dir.Remove("nope"); !errors.Is(err, NotFoundErr) {
		t.Fatalf("wanted `%v`; found `%v`", NotFoundErr, err)
	}
}

func TestDirectoryRename(t *testing.T) {
	dir := New()
	if err := dir.Insert("old", 5); err != nil {
		t.Fatalf("Insert(): unexpected err: %v", err)
	}

	if err := dir.Rename("old", "new"); err != nil {
		t.Fatalf("Rename(): unexpected err: %v", err)
	}
	if _, err := dir.Lookup("old"); !errors.Is(err, NotFoundErr) {
		t.Fatalf("old name still resolves: %v", err)
	}
	ino, err := dir.Lookup("new")
	if err != nil {
		t.Fatalf("Lookup(): unexpected err: %v", err)
	}
	if ino != 5 {
		t.Fatalf("rename moved the entry: wanted inode `5`; found `%d`", ino)
	}
}

func TestDirectoryRenameCollision(t *testing.T) {
	dir := New()
	if err := dir.Insert("a", 0); err != nil {
		t.Fatalf("Insert(): unexpected err: %v", err)
	}
	if err := dir.Insert("b", 1); err != nil {
		t.Fatalf("Insert(): unexpected err: %v", err)
	}

	if err := dir.Rename("a", "b"); !errors.Is(err, AlreadyExistsErr) {
		t.Fatalf("wanted `%v`; found `%v`", AlreadyExistsErr, err)
	}

	// renaming to the current name is a no-op, not a collision
	if err := dir.Rename("a", "a"); err != nil {
		t.Fatalf("self-rename: unexpected err: %v", err)
	}
}

func TestDirectoryNameOf(t *testing.T) {
	dir := New()
	if err := dir.Insert("file", 7); err != nil {
		t.Fatalf("Insert(): unexpected err: %v", err)
	}

	name, err := dir.NameOf(7)
	if err != nil {
		t.Fatalf("NameOf(): unexpected err: %v", err)
	}
	if name != "file" {
		t.Fatalf("NameOf(): wanted `file`; found `%s`", name)
	}
	if _, err := dir.NameOf(8); !errors.Is(err, NotFoundErr) {
		t.Fatalf("wanted `%v`; found `%v`", NotFoundErr, err)
	}
}

func TestDirectoryListSnapshot(t *testing.T) {
	dir := New()
	if err := dir.Insert("keep", 0); err != nil {
		t.Fatalf("Insert(): unexpected err: %v", err)
	}

	entries := dir.List()
	if err := dir.Remove("keep"); err != nil {
		t.Fatalf("Remove(): unexpected err: %v", err)
	}

	// mutation after List must not reach the snapshot
	if len(entries) != 1 || entries[0].Name != "keep" {
		t.Fatalf("snapshot mutated: `%v`", entries)
	}
}

func TestDirectoryRegionRoundTrip(t *testing.T) {
	dir := New()
	if err := dir.Insert("first", 0); err != nil {
		t.Fatalf("Insert(): unexpected err: %v", err)
	}
	if err := dir.Insert("second", 99); err != nil {
		t.Fatalf("Insert(): unexpected err: %v", err)
	}
	if err := dir.Remove("first"); err != nil {
		t.Fatalf("Remove(): unexpected err: %v", err)
	}

	var region [DirRegionBytes]byte
	if err := dir.Encode(&region); err != nil {
		t.Fatalf("Encode(): unexpected err: %v", err)
	}

	var decoded Directory
	if err := decoded.Decode(&region); err != nil {
		t.Fatalf("Decode(): unexpected err: %v", err)
	}
	entries := decoded.List()
	if len(entries) != 1 || entries[0].Name != "second" || entries[0].Ino != 99 {
		t.Fatalf("round trip: wanted `[{second 99}]`; found `%v`", entries)
	}

	// `second` kept its slot (slot 1) across the trip
	if err := decoded.Insert("refill", 5); err != nil {
		t.Fatalf("Insert(): unexpected err: %v", err)
	}
	refilled := decoded.List()
	if len(refilled) != 2 || refilled[0].Name != "refill" {
		t.Fatalf("wanted `refill` in slot 0; found `%v`", refilled)
	}
}

func TestDirectoryEncodeOverflow(t *testing.T) {
	dir := New()
	for i := 0; i < DirEntryCount+1; i++ {
		if err := dir.Insert(fmt.Sprintf("file-%03d", i), Ino(i)); err != nil {
			t.Fatalf("Insert() `%d`: unexpected err: %v", i, err)
		}
	}
	if dir.LiveCount() != DirEntryCount+1 {
		t.Fatalf("inserts must not fail in memory; found `%d`", dir.LiveCount())
	}

	var region [DirRegionBytes]byte
	if err := dir.Encode(&region); !errors.Is(err, CapacityExceededErr) {
		t.Fatalf("wanted `%v`; found `%v`", CapacityExceededErr, err)
	}
}

func TestDirectoryDecodeCorrupt(t *testing.T) {
	dir := New()
	var region [DirRegionBytes]byte
	if err := dir.Encode(&region); err != nil {
		t.Fatalf("Encode(): unexpected err: %v", err)
	}

	// slot 0: live inode reference with an all-NUL name
	region[0] = 0x01
	region[1] = 0x00

	if err := dir.Decode(&region); !errors.Is(err, CorruptImageErr) {
		t.Fatalf("wanted `%v`; found `%v`", CorruptImageErr, err)
	}
}
