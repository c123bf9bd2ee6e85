// Package directory implements the flat root namespace: filename to
// inode-slot entries packed into a fixed region of the image.
package directory

import (
	"fmt"

	. "github.com/tinyfs-go/tinyfs/pkg/types"
)

// Directory holds the live in-memory copy of the root namespace. Entry
// slots keep their on-disk positions; an empty slot carries the InoNil
// sentinel. Like the inode table, the slot slice may grow past the fixed
// capacity in memory — the overage is only rejected at serialization.
type Directory struct {
	entries []DirEntry
}

func New() Directory {
	return Directory{entries: emptyEntries()}
}

func emptyEntries() []DirEntry {
	entries := make([]DirEntry, DirEntryCount)
	for i := range entries {
		entries[i].Ino = InoNil
	}
	return entries
}

// Lookup resolves a filename to its inode slot.
func (dir *Directory) Lookup(name string) (Ino, error) {
	for i := range dir.entries {
		if !dir.entries[i].Empty() && dir.entries[i].Name == name {
			return dir.entries[i].Ino, nil
		}
	}
	return InoNil, fmt.Errorf("looking up `%s`: %w", name, NotFoundErr)
}

// Insert binds name to ino in the first empty slot, appending an
// overflow slot when the fixed region is full (rejected at the next
// sync, not here).
func (dir *Directory) Insert(name string, ino Ino) error {
	if len(name) == 0 || len(name) > MaxNameLen {
		return fmt.Errorf(
			"inserting `%s`: name must be 1..%d bytes: %w",
			name,
			MaxNameLen,
			NameTooLongErr,
		)
	}
	if _, err := dir.Lookup(name); err == nil {
		return fmt.Errorf("inserting `%s`: %w", name, AlreadyExistsErr)
	}

	for i := range dir.entries {
		if dir.entries[i].Empty() {
			dir.entries[i] = DirEntry{Name: name, Ino: ino}
			return nil
		}
	}
	dir.entries = append(dir.entries, DirEntry{Name: name, Ino: ino})
	return nil
}

// Remove resets name's slot to the empty sentinel.
func (dir *Directory) Remove(name string) error {
	for i := range dir.entries {
		if !dir.entries[i].Empty() && dir.entries[i].Name == name {
			dir.entries[i] = DirEntry{Ino: InoNil}
			return nil
		}
	}
	return fmt.Errorf("removing `%s`: %w", name, NotFoundErr)
}

// Rename rewrites the filename field in place; the slot number (and thus
// any outstanding handle on the inode) is untouched.
func (dir *Directory) Rename(oldName, newName string) error {
	ino, err := dir.Lookup(oldName)
	if err != nil {
		return fmt.Errorf("renaming `%s` to `%s`: %w", oldName, newName, err)
	}
	return dir.RenameIno(ino, newName)
}

// RenameIno renames by inode slot; handles rename through it without
// knowing the current name.
func (dir *Directory) RenameIno(ino Ino, newName string) error {
	if len(newName) == 0 || len(newName) > MaxNameLen {
		return fmt.Errorf(
			"renaming inode `%d` to `%s`: name must be 1..%d bytes: %w",
			ino,
			newName,
			MaxNameLen,
			NameTooLongErr,
		)
	}
	if existing, err := dir.Lookup(newName); err == nil && existing != ino {
		return fmt.Errorf(
			"renaming inode `%d` to `%s`: %w",
			ino,
			newName,
			AlreadyExistsErr,
		)
	}
	for i := range dir.entries {
		if !dir.entries[i].Empty() && dir.entries[i].Ino == ino {
			dir.entries[i].Name = newName
			return nil
		}
	}
	return fmt.Errorf("renaming inode `%d` to `%s`: %w", ino, newName, NotFoundErr)
}

// NameOf resolves an inode slot back to its current filename.
func (dir *Directory) NameOf(ino Ino) (string, error) {
	for i := range dir.entries {
		if !dir.entries[i].Empty() && dir.entries[i].Ino == ino {
			return dir.entries[i].Name, nil
		}
	}
	return "", fmt.Errorf("resolving name of inode `%d`: %w", ino, NotFoundErr)
}

// List returns the live entries in slot order as a materialized snapshot:
// an independent slice that later mutation of the directory cannot
// invalidate.
func (dir *Directory) List() []DirEntry {
	entries := make([]DirEntry, 0, dir.LiveCount())
	for i := range dir.entries {
		if !dir.entries[i].Empty() {
			entries = append(entries, dir.entries[i])
		}
	}
	return entries
}

// LiveCount counts non-empty slots, including optimistic overflow slots.
func (dir *Directory) LiveCount() int {
	n := 0
	for i := range dir.entries {
		if !dir.entries[i].Empty() {
			n++
		}
	}
	return n
}
