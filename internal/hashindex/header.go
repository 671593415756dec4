package hashindex

import (
	"unsafe"

	"coredb"
)

// maxHeaderBlockIDs is the number of block page ids a single header page
// can hold: (PageSize - fixed fields) / sizeof(PageID), computed so the
// header struct occupies exactly one page.
const maxHeaderBlockIDs = (coredb.PageSize - 8) / 4

// headerLayout is overlaid directly onto a frame's byte array with
// unsafe.Pointer, the same struct-overlay technique block.go uses for block
// pages. Bytes [0:4) are the self page id,
// [4:8) the size, [8:) the block id array directly — block count is never
// stored, only derived from Size, since it is always Size/blockArraySize.
type headerLayout struct {
	Self     coredb.PageID
	Size     uint32
	BlockIDs [maxHeaderBlockIDs]coredb.PageID
}

// header wraps the header page's frame, giving typed accessors over its
// raw bytes. header does not own the frame's latch; callers hold it.
type header struct {
	frame *coredb.Frame
}

func newHeaderView(f *coredb.Frame) *header {
	return &header{frame: f}
}

func (h *header) layout() *headerLayout {
	return (*headerLayout)(unsafe.Pointer(&h.frame.Data[0]))
}

func (h *header) SelfPageID() coredb.PageID { return h.layout().Self }

func (h *header) SetSelfPageID(id coredb.PageID) { h.layout().Self = id }

// Size is the current bucket count (number of block-page slots the table
// hashes into), not the number of block pages.
func (h *header) Size() uint32 { return h.layout().Size }

func (h *header) SetSize(size uint32) { h.layout().Size = size }

// NumBlocks is derived from Size rather than stored, since the table
// always keeps exactly Size/blockArraySize block pages.
func (h *header) NumBlocks() uint32 { return h.layout().Size / blockArraySize }

func (h *header) BlockPageID(index uint32) coredb.PageID {
	return h.layout().BlockIDs[index]
}

// SetBlockPageID writes the block page id at index. Callers (NewTable,
// Resize) know the index directly from the loop building the block list,
// so the header itself does not need to track how many ids have been
// written.
func (h *header) SetBlockPageID(index uint32, id coredb.PageID) {
	h.layout().BlockIDs[index] = id
}

// Reset clears the header back to zero size, used when a Resize rebuilds
// the table from scratch under a fresh header page.
func (h *header) Reset() {
	h.layout().Size = 0
}
