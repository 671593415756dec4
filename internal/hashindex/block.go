package hashindex

import (
	"unsafe"

	"coredb"
)

const sizeOfPair = 16 // IndexKey(8) + RID(8)

// blockArraySize is the number of key/value slots a block page holds,
// derived the same way as the header capacity: the block must fit
// occupied and readable bitmaps (one bit per slot each) plus the slot
// array into exactly one page.
const blockArraySize = 4 * coredb.PageSize / (4*sizeOfPair + 1)

const bitmapBytes = (blockArraySize-1)/8 + 1

type pair struct {
	Key   coredb.IndexKey
	Value coredb.RID
}

// blockLayout occupies exactly coredb.PageSize bytes: two bitmaps
// (occupied, readable) followed by the slot array. Grounded on the
// original hash table block page's occupied/readable/array layout.
type blockLayout struct {
	Occupied [bitmapBytes]byte
	Readable [bitmapBytes]byte
	Array    [blockArraySize]pair
}

// block wraps a block page's frame with typed, bit-level accessors.
type block struct {
	frame *coredb.Frame
}

func newBlockView(f *coredb.Frame) *block {
	return &block{frame: f}
}

func (b *block) layout() *blockLayout {
	return (*blockLayout)(unsafe.Pointer(&b.frame.Data[0]))
}

func (b *block) KeyAt(index uint32) coredb.IndexKey {
	return b.layout().Array[index].Key
}

func (b *block) ValueAt(index uint32) coredb.RID {
	return b.layout().Array[index].Value
}

// IsOccupied reports whether index has ever held a pair, including one
// that has since been removed (a tombstone). Probing must continue past
// occupied-but-not-readable slots.
func (b *block) IsOccupied(index uint32) bool {
	l := b.layout()
	return l.Occupied[index/8]&(1<<(index%8)) != 0
}

// IsReadable reports whether index currently holds a live pair.
func (b *block) IsReadable(index uint32) bool {
	l := b.layout()
	return l.Readable[index/8]&(1<<(index%8)) != 0
}

// Insert writes key/value at index if the slot is not already readable. A
// tombstone (occupied but not readable) is fair game and gets overwritten.
// It returns false without modifying the block if the slot holds a live pair.
func (b *block) Insert(index uint32, key coredb.IndexKey, value coredb.RID) bool {
	if b.IsReadable(index) {
		return false
	}
	l := b.layout()
	l.Array[index] = pair{Key: key, Value: value}
	l.Occupied[index/8] |= 1 << (index % 8)
	l.Readable[index/8] |= 1 << (index % 8)
	return true
}

// Remove clears the readable bit at index, leaving the occupied bit set so
// later probes still skip past it (a tombstone).
func (b *block) Remove(index uint32) {
	if !b.IsReadable(index) {
		return
	}
	l := b.layout()
	l.Readable[index/8] &^= 1 << (index % 8)
}
