// Package fs orchestrates the filesystem: mount/format/sync lifecycle,
// the live in-memory copies of the superblock, bitmap, inode table, and
// root directory, and the file handles opened against them.
package fs

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/tinyfs-go/tinyfs/pkg/alloc"
	"github.com/tinyfs-go/tinyfs/pkg/device"
	"github.com/tinyfs-go/tinyfs/pkg/directory"
	"github.com/tinyfs-go/tinyfs/pkg/encode"
	"github.com/tinyfs-go/tinyfs/pkg/inode"
	. "github.com/tinyfs-go/tinyfs/pkg/types"
)

const (
	ClosedErr ConstError = "filesystem closed"
)

// FileSystem is the single owner of all mutable persistent state. Every
// Handle holds a non-owning back-reference into it; mutation goes through
// this API, never through per-handle copies. Single-threaded discipline:
// no internal locking.
type FileSystem struct {
	dev    *device.Device
	super  Superblock
	bitmap alloc.Bitmap
	inodes inode.Table
	dir    directory.Directory

	// staged holds content published by handle flushes but not yet made
	// durable; it is keyed by inode slot and file-relative block index,
	// so staging never allocates physical blocks (capacity is enforced
	// when sync settles it).
	staged    map[Ino]*stagedFile
	dirtyInos InoSet
	dirDirty  bool
	metaDirty bool

	handles map[*Handle]struct{}
	log     logrus.FieldLogger
	closed  bool
}

// stagedFile keys its overlay by file-relative block index in Byte
// width: buffered writes may stage blocks far past what a 2-byte
// reference can express, and narrower keys would alias offsets 2^24
// bytes apart onto the same buffer.
type stagedFile struct {
	blocks   map[Byte]*[BlockBytes]byte
	size     Byte
	modified int64
}

type InoSet map[Ino]struct{}

func NewInoSet() InoSet { return make(InoSet) }

func (set InoSet) Add(ino Ino) { set[ino] = struct{}{} }

func (set InoSet) Exists(ino Ino) bool {
	_, exists := set[ino]
	return exists
}

func newFileSystem(dev *device.Device, super Superblock) *FileSystem {
	return &FileSystem{
		dev:       dev,
		super:     super,
		bitmap:    alloc.Load(super.Bitmap, super.BlockCount),
		inodes:    inode.NewTable(),
		dir:       directory.New(),
		staged:    make(map[Ino]*stagedFile),
		dirtyInos: NewInoSet(),
		handles:   make(map[*Handle]struct{}),
		log:       logrus.StandardLogger(),
	}
}

// SetLogger replaces the logger used for teardown-path reporting, where
// an error has no caller to return to.
func (fs *FileSystem) SetLogger(log logrus.FieldLogger) { fs.log = log }

// Superblock returns a copy of the live superblock.
func (fs *FileSystem) Superblock() Superblock { return fs.super }

// FreeBlocks reports the number of unallocated blocks.
func (fs *FileSystem) FreeBlocks() Block { return fs.bitmap.FreeCount() }

// Mount opens an existing image and decodes the superblock first, then
// the bitmap, inode table, and root directory. A magic/geometry mismatch
// fails with CorruptImageErr before anything else is read.
func Mount(path string) (*FileSystem, error) {
	dev, err := device.Open(path)
	if err != nil {
		return nil, fmt.Errorf("mounting `%s`: %w", path, err)
	}

	fs, err := load(dev)
	if err != nil {
		dev.Close()
		return nil, fmt.Errorf("mounting `%s`: %w", path, err)
	}
	return fs, nil
}

func load(dev *device.Device) (*FileSystem, error) {
	var block [BlockBytes]byte
	if err := dev.ReadBlock(SuperblockBlock, &block); err != nil {
		return nil, fmt.Errorf("loading superblock: %w", err)
	}
	var super Superblock
	if err := encode.DecodeSuperblock(&super, &block); err != nil {
		return nil, fmt.Errorf("loading superblock: %w", err)
	}
	if super.BlockCount != dev.BlockCount() {
		return nil, fmt.Errorf(
			"loading superblock: declares `%d` blocks; device has `%d`: %w",
			super.BlockCount,
			dev.BlockCount(),
			CorruptImageErr,
		)
	}

	fs := newFileSystem(dev, super)
	if err := fs.checkReserved(); err != nil {
		return nil, err
	}
	if err := fs.loadInodeTable(); err != nil {
		return nil, err
	}
	if err := fs.loadDirectory(); err != nil {
		return nil, err
	}
	return fs, nil
}

// checkReserved enforces the bitmap invariant: the superblock, inode
// table, and root directory blocks are always marked allocated.
func (fs *FileSystem) checkReserved() error {
	for block := Block(0); block < FirstDataBlock; block++ {
		if !fs.bitmap.Test(block) {
			return fmt.Errorf(
				"validating bitmap: reserved block `%d` marked free: %w",
				block,
				CorruptImageErr,
			)
		}
	}
	return nil
}

func (fs *FileSystem) loadInodeTable() error {
	var buf [InodeBytes]byte
	for i := 0; i < InodeCount; i++ {
		for half := Block(0); half < inodeBlocks; half++ {
			block := (*[BlockBytes]byte)(buf[Byte(half)*BlockSize:])
			if err := fs.dev.ReadBlock(
				inodeTableBlock(Ino(i), half),
				block,
			); err != nil {
				return fmt.Errorf("loading inode table: %w", err)
			}
		}
		if err := encode.DecodeInode(fs.inodes.Slot(i), &buf); err != nil {
			return fmt.Errorf("loading inode table: slot `%d`: %w", i, err)
		}
		fs.inodes.Slot(i).Ino = Ino(i)
	}
	return nil
}

func (fs *FileSystem) loadDirectory() error {
	var region [DirRegionBytes]byte
	for i := Block(0); i < DirBlocks; i++ {
		block := (*[BlockBytes]byte)(region[Byte(i)*BlockSize:])
		if err := fs.dev.ReadBlock(RootDirBlock+i, block); err != nil {
			return fmt.Errorf("loading root directory: %w", err)
		}
	}
	if err := fs.dir.Decode(&region); err != nil {
		return fmt.Errorf("loading root directory: %w", err)
	}
	return nil
}

// inodeBlocks is the number of device blocks each inode record spans.
const inodeBlocks = Block(InodeBytes / BlockBytes)

func inodeTableBlock(ino Ino, half Block) Block {
	return InodeTableStart + Block(ino)*inodeBlocks + half
}
