package directory

import (
	"fmt"

	"github.com/tinyfs-go/tinyfs/pkg/encode"
	. "github.com/tinyfs-go/tinyfs/pkg/types"
)

// Encode serializes the directory into its fixed on-disk region. A live
// entry past the fixed capacity cannot be represented, so a directory
// that was optimistically grown past DirEntryCount fails here with
// CapacityExceededErr — at sync, not at the insert that overflowed it.
func (dir *Directory) Encode(out *[DirRegionBytes]byte) error {
	for i := DirEntryCount; i < len(dir.entries); i++ {
		if !dir.entries[i].Empty() {
			return fmt.Errorf(
				"encoding directory: `%d` live entries; capacity `%d`: %w",
				dir.LiveCount(),
				DirEntryCount,
				CapacityExceededErr,
			)
		}
	}

	for i := 0; i < DirEntryCount; i++ {
		buf := (*[DirEntryBytes]byte)(out[i*DirEntryBytes:])
		if err := encode.EncodeDirEntry(&dir.entries[i], buf); err != nil {
			return fmt.Errorf("encoding directory slot `%d`: %w", i, err)
		}
	}
	return nil
}

// Decode restores the directory from its on-disk region, replacing any
// in-memory state.
func (dir *Directory) Decode(in *[DirRegionBytes]byte) error {
	entries := emptyEntries()
	for i := 0; i < DirEntryCount; i++ {
		buf := (*[DirEntryBytes]byte)(in[i*DirEntryBytes:])
		encode.DecodeDirEntry(&entries[i], buf)
		if !entries[i].Empty() && entries[i].Name == "" {
			return fmt.Errorf(
				"decoding directory slot `%d`: inode `%d` with empty name: %w",
				i,
				entries[i].Ino,
				CorruptImageErr,
			)
		}
	}
	dir.entries = entries
	return nil
}
