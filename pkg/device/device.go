// Package device emulates a fixed-block-size random-access storage device
// backed by a single host file. It is the only component that touches raw
// bytes on stable storage; there is no caching, and every call is one
// synchronous host I/O operation.
package device

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/tinyfs-go/tinyfs/pkg/encode"
	. "github.com/tinyfs-go/tinyfs/pkg/types"
)

type Device struct {
	file       *os.File
	path       string
	blockCount Block
}

// Create makes a fresh all-zero image of blockCount blocks, truncating
// any existing file at path.
func Create(path string, blockCount Block) (*Device, error) {
	if blockCount > MaxBlockCount {
		return nil, fmt.Errorf(
			"creating device `%s`: block count `%d` exceeds max `%d`: %w",
			path,
			blockCount,
			MaxBlockCount,
			CapacityExceededErr,
		)
	}

	file, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return nil, fmt.Errorf("creating device `%s`: %w: %v", path, DeviceErr, err)
	}
	if err := file.Truncate(int64(blockCount) * int64(BlockSize)); err != nil {
		file.Close()
		return nil, fmt.Errorf(
			"creating device `%s`: zero-filling `%d` blocks: %w: %v",
			path,
			blockCount,
			DeviceErr,
			err,
		)
	}
	return &Device{file: file, path: path, blockCount: blockCount}, nil
}

// Open opens an existing image and validates that the file length matches
// the geometry declared in the embedded superblock region.
func Open(path string) (*Device, error) {
	file, err := os.OpenFile(path, os.O_RDWR, 0644)
	if err != nil {
		return nil, fmt.Errorf("opening device `%s`: %w: %v", path, DeviceErr, err)
	}

	var block [BlockBytes]byte
	if _, err := file.ReadAt(block[:], 0); err != nil {
		file.Close()
		// A short read means the image is smaller than one block: a
		// layout problem, not a host failure.
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, fmt.Errorf(
				"opening device `%s`: image shorter than one block: %w",
				path,
				CorruptImageErr,
			)
		}
		return nil, fmt.Errorf(
			"opening device `%s`: reading superblock region: %w: %v",
			path,
			DeviceErr,
			err,
		)
	}
	var sb Superblock
	if err := encode.DecodeSuperblock(&sb, &block); err != nil {
		file.Close()
		return nil, fmt.Errorf("opening device `%s`: %w", path, err)
	}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("opening device `%s`: %w: %v", path, DeviceErr, err)
	}
	if want := int64(sb.BlockCount) * int64(sb.BlockSize); info.Size() != want {
		file.Close()
		return nil, fmt.Errorf(
			"opening device `%s`: image is `%d` bytes; superblock declares "+
				"`%d` blocks (`%d` bytes): %w",
			path,
			info.Size(),
			sb.BlockCount,
			want,
			CorruptImageErr,
		)
	}

	return &Device{file: file, path: path, blockCount: sb.BlockCount}, nil
}

// ReadBlock fills out with the block's current content.
func (dev *Device) ReadBlock(block Block, out *[BlockBytes]byte) error {
	if block >= dev.blockCount {
		return fmt.Errorf(
			"reading block `%d`: device has `%d` blocks: %w",
			block,
			dev.blockCount,
			DeviceErr,
		)
	}
	if _, err := dev.file.ReadAt(out[:], dev.offset(block)); err != nil {
		return fmt.Errorf("reading block `%d`: %w: %v", block, DeviceErr, err)
	}
	return nil
}

// WriteBlock overwrites the block with b.
func (dev *Device) WriteBlock(block Block, b *[BlockBytes]byte) error {
	if block >= dev.blockCount {
		return fmt.Errorf(
			"writing block `%d`: device has `%d` blocks: %w",
			block,
			dev.blockCount,
			DeviceErr,
		)
	}
	if _, err := dev.file.WriteAt(b[:], dev.offset(block)); err != nil {
		return fmt.Errorf("writing block `%d`: %w: %v", block, DeviceErr, err)
	}
	return nil
}

func (dev *Device) Close() error {
	if err := dev.file.Close(); err != nil {
		return fmt.Errorf("closing device `%s`: %w: %v", dev.path, DeviceErr, err)
	}
	return nil
}

func (dev *Device) BlockCount() Block { return dev.blockCount }

func (dev *Device) Path() string { return dev.path }

func (dev *Device) offset(block Block) int64 {
	return int64(block) * int64(BlockSize)
}
