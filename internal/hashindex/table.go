package hashindex

import (
	"encoding/binary"
	"sync"

	"github.com/cespare/xxhash/v2"

	"coredb"
)

// HashFunc computes the hash used to place a key in the table. Swappable
// via WithHashFunc; defaults to xxhash over the key's little-endian bytes.
type HashFunc func(coredb.IndexKey) uint64

func defaultHashFunc(key coredb.IndexKey) uint64 {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(key))
	return xxhash.Sum64(buf[:])
}

// Option configures a Table using the functional options pattern.
type Option func(*options)

type options struct {
	hashFn HashFunc
	logger coredb.Logger
}

func defaultOptions() options {
	return options{hashFn: defaultHashFunc, logger: coredb.DiscardLogger{}}
}

// WithHashFunc overrides the table's key hash function.
func WithHashFunc(fn HashFunc) Option {
	return func(o *options) { o.hashFn = fn }
}

// WithLogger sets the logger used for resize diagnostics.
func WithLogger(l coredb.Logger) Option {
	return func(o *options) { o.logger = l }
}

// Table is a disk-backed linear-probing hash index over a
// coredb.BufferPoolManager. A single reader/writer lock separates
// steady-state GetValue/Insert/Remove traffic (shared) from an exclusive
// Resize; page-level operations additionally hand-over-hand latch each
// header and block frame they touch.
type Table struct {
	mu sync.RWMutex

	bp           *coredb.BufferPoolManager
	headerPageID coredb.PageID
	hashFn       HashFunc
	logger       coredb.Logger
}

// NewTable allocates a fresh header page and numBuckets block pages and
// returns a Table over them.
func NewTable(bp *coredb.BufferPoolManager, numBuckets uint32, opts ...Option) (*Table, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if numBuckets == 0 {
		numBuckets = 1
	}

	headerID, headerFrame, err := bp.NewPage()
	if err != nil {
		return nil, err
	}
	headerFrame.Latch.Lock()
	h := newHeaderView(headerFrame)
	h.Reset()
	h.SetSelfPageID(headerID)
	h.SetSize(numBuckets * blockArraySize)

	for i := uint32(0); i < numBuckets; i++ {
		blockID, _, err := bp.NewPage()
		if err != nil {
			headerFrame.Latch.Unlock()
			bp.Unpin(headerID, true)
			return nil, err
		}
		h.SetBlockPageID(i, blockID)
		bp.Unpin(blockID, false)
	}
	headerFrame.Latch.Unlock()
	bp.Unpin(headerID, true)

	return &Table{
		bp:           bp,
		headerPageID: headerID,
		hashFn:       o.hashFn,
		logger:       o.logger,
	}, nil
}

func (t *Table) getIndex(key coredb.IndexKey, numBlocks uint32) (index, blockInd, bucketInd uint32) {
	total := uint64(numBlocks) * uint64(blockArraySize)
	idx := uint32(t.hashFn(key) % total)
	return idx, idx / blockArraySize, idx % blockArraySize
}

// GetValue returns every value stored under key.
func (t *Table) GetValue(key coredb.IndexKey) ([]coredb.RID, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	headerFrame, err := t.bp.FetchPage(t.headerPageID)
	if err != nil {
		return nil, err
	}
	headerFrame.Latch.RLock()
	h := newHeaderView(headerFrame)
	numBlocks := h.NumBlocks()
	index, blockInd, bucketInd := t.getIndex(key, numBlocks)

	blockID := h.BlockPageID(blockInd)
	blockFrame, err := t.bp.FetchPage(blockID)
	if err != nil {
		headerFrame.Latch.RUnlock()
		t.bp.Unpin(t.headerPageID, false)
		return nil, err
	}
	blockFrame.Latch.RLock()
	b := newBlockView(blockFrame)

	var results []coredb.RID
	for b.IsOccupied(bucketInd) {
		if b.IsReadable(bucketInd) && b.KeyAt(bucketInd) == key {
			results = append(results, b.ValueAt(bucketInd))
		}
		bucketInd++

		if (blockInd*blockArraySize+bucketInd)%(numBlocks*blockArraySize) == index {
			break
		}
		if bucketInd == blockArraySize {
			blockFrame.Latch.RUnlock()
			t.bp.Unpin(blockID, false)

			blockInd++
			bucketInd = 0
			if blockInd == numBlocks {
				blockInd = 0
			}

			blockID = h.BlockPageID(blockInd)
			blockFrame, err = t.bp.FetchPage(blockID)
			if err != nil {
				headerFrame.Latch.RUnlock()
				t.bp.Unpin(t.headerPageID, false)
				return nil, err
			}
			blockFrame.Latch.RLock()
			b = newBlockView(blockFrame)
		}
	}

	blockFrame.Latch.RUnlock()
	t.bp.Unpin(blockID, false)
	headerFrame.Latch.RUnlock()
	t.bp.Unpin(t.headerPageID, false)
	return results, nil
}

type insertOutcome int

const (
	outcomeInserted insertOutcome = iota
	outcomeDuplicate
	outcomeFull
)

// insertLocked performs the probing insert without touching t.mu; callers
// hold either t.mu.RLock (steady state) or t.mu.Lock (from within Resize,
// which is copying entries into the table it just became the owner of).
func (t *Table) insertLocked(key coredb.IndexKey, value coredb.RID) (insertOutcome, uint32, error) {
	headerFrame, err := t.bp.FetchPage(t.headerPageID)
	if err != nil {
		return 0, 0, err
	}
	headerFrame.Latch.RLock()
	h := newHeaderView(headerFrame)
	numBlocks := h.NumBlocks()
	size := h.Size()
	index, blockInd, bucketInd := t.getIndex(key, numBlocks)

	blockID := h.BlockPageID(blockInd)
	blockFrame, err := t.bp.FetchPage(blockID)
	if err != nil {
		headerFrame.Latch.RUnlock()
		t.bp.Unpin(t.headerPageID, false)
		return 0, size, err
	}
	blockFrame.Latch.Lock()
	b := newBlockView(blockFrame)

	for !b.Insert(bucketInd, key, value) {
		if b.IsReadable(bucketInd) && b.KeyAt(bucketInd) == key && b.ValueAt(bucketInd) == value {
			blockFrame.Latch.Unlock()
			t.bp.Unpin(blockID, false)
			headerFrame.Latch.RUnlock()
			t.bp.Unpin(t.headerPageID, false)
			return outcomeDuplicate, size, nil
		}

		bucketInd++

		if (blockInd*blockArraySize+bucketInd)%(numBlocks*blockArraySize) == index {
			blockFrame.Latch.Unlock()
			t.bp.Unpin(blockID, false)
			headerFrame.Latch.RUnlock()
			t.bp.Unpin(t.headerPageID, false)
			return outcomeFull, size, nil
		}

		if bucketInd == blockArraySize {
			blockFrame.Latch.Unlock()
			t.bp.Unpin(blockID, false)

			blockInd++
			bucketInd = 0
			if blockInd == numBlocks {
				blockInd = 0
			}

			blockID = h.BlockPageID(blockInd)
			blockFrame, err = t.bp.FetchPage(blockID)
			if err != nil {
				headerFrame.Latch.RUnlock()
				t.bp.Unpin(t.headerPageID, false)
				return 0, size, err
			}
			blockFrame.Latch.Lock()
			b = newBlockView(blockFrame)
		}
	}

	blockFrame.Latch.Unlock()
	t.bp.Unpin(blockID, true)
	headerFrame.Latch.RUnlock()
	t.bp.Unpin(t.headerPageID, false)
	return outcomeInserted, size, nil
}

// Insert adds key/value to the table. It returns coredb.ErrDuplicatePair if
// the exact pair already exists. If the table is full it doubles capacity
// via Resize and retries, returning coredb.ErrTableFull if it is still full
// after maxResizeAttempts resizes.
func (t *Table) Insert(key coredb.IndexKey, value coredb.RID) error {
	// A Resize call is keyed off the size the caller observed, which can be
	// stale by the time Resize actually runs (another Insert may have
	// resized already, or a racing Insert may fill the doubled table
	// before this one retries). Loop rather than assuming one Resize is
	// always enough; each iteration observes the table's live size, so
	// this always makes progress and terminates once capacity outgrows
	// the number of colliding keys.
	const maxResizeAttempts = 32
	for attempt := 0; ; attempt++ {
		t.mu.RLock()
		outcome, size, err := t.insertLocked(key, value)
		t.mu.RUnlock()
		if err != nil {
			return err
		}

		switch outcome {
		case outcomeInserted:
			return nil
		case outcomeDuplicate:
			return coredb.ErrDuplicatePair
		}

		if attempt >= maxResizeAttempts {
			return coredb.ErrTableFull
		}
		if err := t.Resize(size); err != nil {
			return err
		}
	}
}

// Remove deletes the (key, value) pair if present, returning whether
// anything was removed.
func (t *Table) Remove(key coredb.IndexKey, value coredb.RID) (bool, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	headerFrame, err := t.bp.FetchPage(t.headerPageID)
	if err != nil {
		return false, err
	}
	headerFrame.Latch.RLock()
	h := newHeaderView(headerFrame)
	numBlocks := h.NumBlocks()
	index, blockInd, bucketInd := t.getIndex(key, numBlocks)

	blockID := h.BlockPageID(blockInd)
	blockFrame, err := t.bp.FetchPage(blockID)
	if err != nil {
		headerFrame.Latch.RUnlock()
		t.bp.Unpin(t.headerPageID, false)
		return false, err
	}
	blockFrame.Latch.Lock()
	b := newBlockView(blockFrame)

	for b.IsOccupied(bucketInd) {
		if b.IsReadable(bucketInd) && b.KeyAt(bucketInd) == key && b.ValueAt(bucketInd) == value {
			b.Remove(bucketInd)
			blockFrame.Latch.Unlock()
			t.bp.Unpin(blockID, true)
			headerFrame.Latch.RUnlock()
			t.bp.Unpin(t.headerPageID, false)
			return true, nil
		}

		bucketInd++
		if (blockInd*blockArraySize+bucketInd)%(numBlocks*blockArraySize) == index {
			break
		}
		if bucketInd == blockArraySize {
			blockFrame.Latch.Unlock()
			t.bp.Unpin(blockID, false)

			blockInd++
			bucketInd = 0
			if blockInd == numBlocks {
				blockInd = 0
			}

			blockID = h.BlockPageID(blockInd)
			blockFrame, err = t.bp.FetchPage(blockID)
			if err != nil {
				headerFrame.Latch.RUnlock()
				t.bp.Unpin(t.headerPageID, false)
				return false, err
			}
			blockFrame.Latch.Lock()
			b = newBlockView(blockFrame)
		}
	}

	blockFrame.Latch.Unlock()
	t.bp.Unpin(blockID, false)
	headerFrame.Latch.RUnlock()
	t.bp.Unpin(t.headerPageID, false)
	return false, nil
}

// Resize doubles the table's bucket capacity relative to currentSize,
// rehashing every live entry into a fresh header and block set. It takes
// the table's exclusive lock, so it never runs concurrently with
// GetValue/Insert/Remove or another Resize.
func (t *Table) Resize(currentSize uint32) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	oldHeaderID := t.headerPageID

	newHeaderID, newHeaderFrame, err := t.bp.NewPage()
	if err != nil {
		return err
	}
	newHeaderFrame.Latch.Lock()
	nh := newHeaderView(newHeaderFrame)
	nh.Reset()
	nh.SetSelfPageID(newHeaderID)

	numBuckets := 2 * currentSize / blockArraySize
	if numBuckets == 0 {
		numBuckets = 1
	}
	nh.SetSize(numBuckets * blockArraySize)

	for i := uint32(0); i < numBuckets; i++ {
		blockID, _, err := t.bp.NewPage()
		if err != nil {
			newHeaderFrame.Latch.Unlock()
			t.bp.Unpin(newHeaderID, false)
			return err
		}
		nh.SetBlockPageID(i, blockID)
		t.bp.Unpin(blockID, false)
	}

	// From here, insertLocked calls target the new table. insertLocked
	// reader-latches the header, so the new header's writer latch is
	// released first; t.mu is held exclusively, so no other operation can
	// reach the new header in the meantime.
	newHeaderFrame.Latch.Unlock()
	t.headerPageID = newHeaderID

	oldHeaderFrame, err := t.bp.FetchPage(oldHeaderID)
	if err != nil {
		t.bp.Unpin(newHeaderID, true)
		return err
	}
	oldHeaderFrame.Latch.RLock()
	oh := newHeaderView(oldHeaderFrame)
	oldNumBlocks := oh.NumBlocks()

	for bi := uint32(0); bi < oldNumBlocks; bi++ {
		blockID := oh.BlockPageID(bi)
		blockFrame, err := t.bp.FetchPage(blockID)
		if err != nil {
			t.logger.Error("hash index resize: fetch old block failed", "page", blockID, "error", err)
			continue
		}
		blockFrame.Latch.RLock()
		b := newBlockView(blockFrame)
		for slot := uint32(0); slot < blockArraySize; slot++ {
			if !b.IsReadable(slot) {
				continue
			}
			if _, _, err := t.insertLocked(b.KeyAt(slot), b.ValueAt(slot)); err != nil {
				t.logger.Error("hash index resize: reinsert failed", "error", err)
			}
		}
		blockFrame.Latch.RUnlock()
		t.bp.Unpin(blockID, false)
		if err := t.bp.DeletePage(blockID); err != nil {
			t.logger.Error("hash index resize: delete old block failed", "page", blockID, "error", err)
		}
	}

	oldHeaderFrame.Latch.RUnlock()
	t.bp.Unpin(oldHeaderID, false)
	if err := t.bp.DeletePage(oldHeaderID); err != nil {
		t.logger.Error("hash index resize: delete old header failed", "page", oldHeaderID, "error", err)
	}

	t.bp.Unpin(newHeaderID, true)
	return nil
}

// GetSize returns the table's current bucket capacity (numBlocks *
// blockArraySize), not the number of live entries.
func (t *Table) GetSize() (uint32, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	headerFrame, err := t.bp.FetchPage(t.headerPageID)
	if err != nil {
		return 0, err
	}
	headerFrame.Latch.RLock()
	size := newHeaderView(headerFrame).Size()
	headerFrame.Latch.RUnlock()
	t.bp.Unpin(t.headerPageID, false)
	return size, nil
}
