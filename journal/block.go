package journal

import (
	"encoding/binary"
	"errors"
)

const (
	// blockSize = 1024
	blockSize = 4 * 1024

	// maxRecordSize largest record a block can hold
	maxRecordSize = blockSize - 4
)

var (
	// littleEndian is a convenience variable since binary.LittleEndian is
	// quite long.
	littleEndian = binary.LittleEndian
)

var (
	errBlockFull  = errors.New("journal: block full")
	errBlockEmpty = errors.New("journal: block empty")

	// ErrRecordTooLarge record does not fit in a block
	ErrRecordTooLarge = errors.New("journal: record too large")
)

// block layout: uint16 record count, then uint16 length prefixed records
type block struct {
	buf    []byte
	offset int // 读/写 偏移
	count  int
}

func newWriteBlock() *block {
	return &block{buf: make([]byte, blockSize), offset: 2}
}

// readBlock 只读
func readBlock(b []byte) *block {
	return &block{
		buf:    b,
		offset: 2,
		count:  int(littleEndian.Uint16(b[0:2])),
	}
}

func (b *block) fits(n int) bool {
	return blockSize-b.offset >= n+2
}

func (b *block) append(rec []byte) error {
	if !b.fits(len(rec)) {
		return errBlockFull
	}
	littleEndian.PutUint16(b.buf[b.offset:], uint16(len(rec)))
	b.offset += 2
	copy(b.buf[b.offset:], rec)
	b.offset += len(rec)
	b.count++
	littleEndian.PutUint16(b.buf[0:2], uint16(b.count))
	return nil
}

// records returns every record of a read block
func (b *block) records() ([][]byte, error) {
	list := make([][]byte, 0, b.count)
	for i := 0; i < b.count; i++ {
		if b.offset+2 > len(b.buf) {
			return list, errBlockEmpty
		}
		n := int(littleEndian.Uint16(b.buf[b.offset:]))
		b.offset += 2
		if n == 0 || b.offset+n > len(b.buf) {
			return list, errBlockEmpty
		}
		rec := make([]byte, n)
		copy(rec, b.buf[b.offset:b.offset+n])
		b.offset += n
		list = append(list, rec)
	}
	return list, nil
}

func (b *block) reset() {
	for i := range b.buf {
		b.buf[i] = 0
	}
	b.offset = 2
	b.count = 0
}
