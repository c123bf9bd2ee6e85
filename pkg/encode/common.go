package encode

import (
	"encoding/binary"

	. "github.com/tinyfs-go/tinyfs/pkg/types"
)

// All on-disk integers are little-endian and fixed-width; field positions
// are given by the offset constants next to each structure's codec. No
// implementation-defined padding ever reaches the device.

func putBlock(b []byte, start Byte, v Block) {
	putU16(b, start, uint16(v))
}

func getBlock(b []byte, start Byte) Block {
	return Block(getU16(b, start))
}

func putIno(b []byte, start Byte, v Ino) {
	putU16(b, start, uint16(v))
}

func getIno(b []byte, start Byte) Ino {
	return Ino(getU16(b, start))
}

func putI64(b []byte, start Byte, v int64) {
	binary.LittleEndian.PutUint64(b[start:start+8], uint64(v))
}

func getI64(b []byte, start Byte) int64 {
	return int64(binary.LittleEndian.Uint64(b[start : start+8]))
}

func putU32(b []byte, start Byte, u uint32) {
	binary.LittleEndian.PutUint32(b[start:start+4], u)
}

func getU32(b []byte, start Byte) uint32 {
	return binary.LittleEndian.Uint32(b[start : start+4])
}

func putU16(b []byte, start Byte, u uint16) {
	binary.LittleEndian.PutUint16(b[start:start+2], u)
}

func getU16(b []byte, start Byte) uint16 {
	return binary.LittleEndian.Uint16(b[start : start+2])
}

func putU8(b []byte, start Byte, u uint8) {
	b[start] = u
}

func getU8(b []byte, start Byte) uint8 {
	return b[start]
}
