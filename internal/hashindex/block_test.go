package hashindex

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coredb"
)

func newTestBlock(t *testing.T) *block {
	t.Helper()
	bp := coredb.NewBufferPoolManager(1, coredb.NewMemDiskManager())
	_, frame, err := bp.NewPage()
	require.NoError(t, err)
	return newBlockView(frame)
}

func TestBlockArraySizeFitsExactlyOnePage(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 252, blockArraySize)
	assert.Equal(t, coredb.PageSize, 2*bitmapBytes+blockArraySize*sizeOfPair)
}

func TestBlockInsertAndRead(t *testing.T) {
	t.Parallel()

	b := newTestBlock(t)

	rid := coredb.RID{Page: 4, Slot: 2}
	assert.True(t, b.Insert(0, coredb.IndexKey(10), rid))
	assert.True(t, b.IsOccupied(0))
	assert.True(t, b.IsReadable(0))
	assert.Equal(t, coredb.IndexKey(10), b.KeyAt(0))
	assert.Equal(t, rid, b.ValueAt(0))
}

func TestBlockInsertRejectsReadableSlot(t *testing.T) {
	t.Parallel()

	b := newTestBlock(t)
	assert.True(t, b.Insert(3, coredb.IndexKey(1), coredb.RID{Page: 1}))
	assert.False(t, b.Insert(3, coredb.IndexKey(2), coredb.RID{Page: 2}))
}

func TestBlockInsertReusesTombstone(t *testing.T) {
	t.Parallel()

	b := newTestBlock(t)
	assert.True(t, b.Insert(3, coredb.IndexKey(1), coredb.RID{Page: 1}))
	b.Remove(3)

	rid := coredb.RID{Page: 2, Slot: 7}
	assert.True(t, b.Insert(3, coredb.IndexKey(2), rid), "insert must overwrite a tombstone, not skip it")
	assert.True(t, b.IsOccupied(3))
	assert.True(t, b.IsReadable(3))
	assert.Equal(t, coredb.IndexKey(2), b.KeyAt(3))
	assert.Equal(t, rid, b.ValueAt(3))
}

func TestBlockRemoveLeavesOccupiedBitSet(t *testing.T) {
	t.Parallel()

	b := newTestBlock(t)
	b.Insert(5, coredb.IndexKey(1), coredb.RID{Page: 1})
	b.Remove(5)

	assert.True(t, b.IsOccupied(5), "tombstone: occupied bit must survive removal")
	assert.False(t, b.IsReadable(5))
}

func TestBlockRemoveOnEmptySlotIsNoop(t *testing.T) {
	t.Parallel()

	b := newTestBlock(t)
	b.Remove(9)
	assert.False(t, b.IsOccupied(9))
}
