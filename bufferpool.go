package coredb

import (
	"sync"

	"github.com/elastic/go-freelru"
)

// BufferPoolManager is a fixed-size, in-memory cache of fixed-size disk
// pages. It coordinates page fetch/pin/flush with a clock replacement
// policy under concurrent access.
//
// Three ordered mutexes protect pool state, matching the acquisition order
// pg -> pt -> fl described by the spec this module implements: poolMu
// guards frame metadata (pin count, dirty flag, bytes) during a Fetch or
// NewPage; pageTableMu guards the page id -> frame index map; freeListMu
// guards the free list. Locks are released in reverse acquisition order.
// Every frame additionally owns its own reader/writer latch (Frame.Latch),
// used by higher layers such as the hash index, never held by the buffer
// pool itself across a call.
type BufferPoolManager struct {
	poolMu sync.Mutex

	pageTableMu sync.Mutex
	pageTable   map[PageID]int

	freeListMu sync.Mutex
	freeList   []int

	frames   []*Frame
	replacer *ClockReplacer
	disk     DiskManager
	logger   Logger

	hotPages *freelru.LRU[PageID, uint64]

	hits      uint64
	misses    uint64
	evictions uint64
	statsMu   sync.Mutex
}

// BufferPoolOption configures a BufferPoolManager using the functional
// options pattern, matching the teacher's DBOption convention.
type BufferPoolOption func(*bufferPoolOptions)

type bufferPoolOptions struct {
	logger       Logger
	hotPageCache uint32
}

func defaultBufferPoolOptions() bufferPoolOptions {
	return bufferPoolOptions{logger: DiscardLogger{}, hotPageCache: 256}
}

// WithBufferPoolLogger sets the logger used for fetch/evict diagnostics.
func WithBufferPoolLogger(l Logger) BufferPoolOption {
	return func(o *bufferPoolOptions) { o.logger = l }
}

// WithHotPageCacheSize sets the capacity of the bounded hot-page counter
// cache read by HotPageCount. It is purely instrumentation: it never
// influences which frame the replacer picks as a victim.
func WithHotPageCacheSize(capacity uint32) BufferPoolOption {
	return func(o *bufferPoolOptions) { o.hotPageCache = capacity }
}

func pageIDHash(id PageID) uint32 {
	return uint32(id) * 2654435761 // Knuth multiplicative hash
}

// NewBufferPoolManager constructs a pool of poolSize frames backed by disk.
// Every frame starts on the free list, matching the spec's lifecycle: none
// are in the replacer's candidate pool until first fetched and unpinned.
func NewBufferPoolManager(poolSize int, disk DiskManager, opts ...BufferPoolOption) *BufferPoolManager {
	o := defaultBufferPoolOptions()
	for _, opt := range opts {
		opt(&o)
	}

	frames := make([]*Frame, poolSize)
	freeList := make([]int, poolSize)
	for i := range frames {
		frames[i] = newFrame()
		freeList[i] = i
	}

	hotPages, _ := freelru.New[PageID, uint64](o.hotPageCache, pageIDHash)

	return &BufferPoolManager{
		pageTable: make(map[PageID]int),
		freeList:  freeList,
		frames:    frames,
		replacer:  NewClockReplacer(poolSize),
		disk:      disk,
		logger:    o.logger,
		hotPages:  hotPages,
	}
}

// touchHotPage records a fetch of id in the instrumentation cache.
func (bp *BufferPoolManager) touchHotPage(id PageID) {
	if bp.hotPages == nil {
		return
	}
	count, _ := bp.hotPages.Get(id)
	bp.hotPages.Add(id, count+1)
}

// popFreeFrame pops a frame index from the free list, FIFO, or reports
// false if the free list is empty.
func (bp *BufferPoolManager) popFreeFrame() (int, bool) {
	bp.freeListMu.Lock()
	defer bp.freeListMu.Unlock()

	if len(bp.freeList) == 0 {
		return 0, false
	}
	idx := bp.freeList[0]
	bp.freeList = bp.freeList[1:]
	return idx, true
}

func (bp *BufferPoolManager) pushFreeFrame(idx int) {
	bp.freeListMu.Lock()
	bp.freeList = append(bp.freeList, idx)
	bp.freeListMu.Unlock()
}

// victim picks a frame to reuse: free list first (a correctness tie-breaker
// that guarantees progress without touching the replacer's hand), the
// clock replacer otherwise. If the chosen frame is dirty, its current page
// is written back before reuse.
func (bp *BufferPoolManager) victim() (int, error) {
	idx, ok := bp.popFreeFrame()
	fromReplacer := false
	if !ok {
		idx, ok = bp.replacer.Victim()
		if !ok {
			bp.logger.Error("buffer pool: no victim available")
			return 0, ErrNoVictim
		}
		fromReplacer = true
	}

	f := bp.frames[idx]
	if f.Dirty && f.PageID != InvalidPageID {
		if err := bp.disk.WritePage(f.PageID, f.Data); err != nil {
			bp.logger.Error("buffer pool: flush of victim failed", "page", f.PageID, "error", err)
			// Put the frame back where it came from, still holding its page.
			if fromReplacer {
				bp.replacer.Unpin(idx)
			} else {
				bp.pushFreeFrame(idx)
			}
			return 0, ErrFlushFailed
		}
		f.Dirty = false
	}

	return idx, nil
}

// FetchPage returns the frame holding page id, pinning it. If the page is
// not resident it is loaded from disk into a victim frame first.
func (bp *BufferPoolManager) FetchPage(id PageID) (*Frame, error) {
	bp.poolMu.Lock()
	defer bp.poolMu.Unlock()

	bp.pageTableMu.Lock()
	if idx, ok := bp.pageTable[id]; ok {
		bp.pageTableMu.Unlock()

		bp.replacer.Pin(idx)
		f := bp.frames[idx]
		f.PinCount++
		bp.touchHotPage(id)
		bp.recordHit()
		bp.logger.Info("buffer pool: fetch hit", "page", id, "frame", idx)
		return f, nil
	}
	bp.pageTableMu.Unlock()
	bp.recordMiss()

	idx, err := bp.victim()
	if err != nil {
		return nil, err
	}

	f := bp.frames[idx]
	oldID := f.PageID

	buf, err := bp.disk.ReadPage(id)
	if err != nil {
		// Nothing has been mutated for this page id yet; return the
		// candidate frame to the free list untouched.
		bp.pushFreeFrame(idx)
		bp.logger.Error("buffer pool: fetch read failed", "page", id, "error", err)
		return nil, err
	}

	bp.pageTableMu.Lock()
	delete(bp.pageTable, oldID)
	bp.pageTable[id] = idx
	bp.pageTableMu.Unlock()

	f.PageID = id
	f.Data = buf
	f.PinCount = 1
	f.Dirty = false
	bp.replacer.Pin(idx)
	bp.touchHotPage(id)

	bp.logger.Info("buffer pool: fetch miss loaded", "page", id, "frame", idx)
	return f, nil
}

// NewPage allocates a fresh page id from the disk manager and installs it
// in a victim frame, returning the zeroed frame pinned once.
func (bp *BufferPoolManager) NewPage() (PageID, *Frame, error) {
	bp.poolMu.Lock()
	defer bp.poolMu.Unlock()

	idx, err := bp.victim()
	if err != nil {
		return InvalidPageID, nil, err
	}

	id, err := bp.disk.AllocatePage()
	if err != nil {
		bp.pushFreeFrame(idx)
		return InvalidPageID, nil, err
	}

	f := bp.frames[idx]
	oldID := f.PageID

	bp.pageTableMu.Lock()
	delete(bp.pageTable, oldID)
	bp.pageTable[id] = idx
	bp.pageTableMu.Unlock()

	f.reset()
	f.PageID = id
	f.PinCount = 1
	bp.replacer.Pin(idx)

	bp.logger.Info("buffer pool: new page", "page", id, "frame", idx)
	return id, f, nil
}

// Unpin decrements the pin count of a resident page and merges in the
// caller's dirty flag (the dirty flag is only ever ORed here, never
// cleared). Unpinning a page that is not resident succeeds silently
// (idempotent). Once the pin count reaches zero the frame becomes a
// replacer candidate.
func (bp *BufferPoolManager) Unpin(id PageID, isDirty bool) error {
	bp.pageTableMu.Lock()
	idx, ok := bp.pageTable[id]
	bp.pageTableMu.Unlock()
	if !ok {
		return nil
	}

	f := bp.frames[idx]

	bp.poolMu.Lock()
	defer bp.poolMu.Unlock()

	if f.PinCount <= 0 {
		bp.logger.Error("buffer pool: invalid unpin", "page", id)
		return ErrInvalidUnpin
	}

	f.PinCount--
	f.Dirty = f.Dirty || isDirty

	if f.PinCount == 0 {
		bp.replacer.Unpin(idx)
	}

	return nil
}

// Flush writes a resident dirty page back to disk and clears its dirty
// flag. It is a no-op (success) if the page is not resident or not dirty,
// and fails on the sentinel invalid page id. Residency and pin state are
// unaffected either way.
func (bp *BufferPoolManager) Flush(id PageID) error {
	if id == InvalidPageID {
		return ErrInvalidPageID
	}

	bp.pageTableMu.Lock()
	idx, ok := bp.pageTable[id]
	bp.pageTableMu.Unlock()
	if !ok {
		return nil
	}

	f := bp.frames[idx]

	bp.poolMu.Lock()
	defer bp.poolMu.Unlock()

	if !f.Dirty {
		return nil
	}

	if err := bp.disk.WritePage(id, f.Data); err != nil {
		bp.logger.Error("buffer pool: flush failed", "page", id, "error", err)
		return err
	}
	f.Dirty = false
	return nil
}

// FlushAll flushes every resident dirty frame. Individual failures are
// logged but do not abort the sweep.
func (bp *BufferPoolManager) FlushAll() {
	bp.pageTableMu.Lock()
	ids := make([]PageID, 0, len(bp.pageTable))
	for id := range bp.pageTable {
		ids = append(ids, id)
	}
	bp.pageTableMu.Unlock()

	for _, id := range ids {
		if err := bp.Flush(id); err != nil {
			bp.logger.Error("buffer pool: flush-all failed for page", "page", id, "error", err)
		}
	}
}

// DeletePage removes a page from the buffer pool. It succeeds if the page
// is not resident, fails if it is resident with a non-zero pin count, and
// otherwise frees the frame, deallocates the page id on disk (resolving
// the open question the spec leaves about disk-side deallocation), and
// returns the frame to the free list.
func (bp *BufferPoolManager) DeletePage(id PageID) error {
	bp.poolMu.Lock()
	defer bp.poolMu.Unlock()

	bp.pageTableMu.Lock()
	idx, ok := bp.pageTable[id]
	if !ok {
		bp.pageTableMu.Unlock()
		return nil
	}

	f := bp.frames[idx]
	if f.PinCount > 0 {
		bp.pageTableMu.Unlock()
		bp.logger.Error("buffer pool: delete of pinned page", "page", id)
		return ErrInUse
	}

	delete(bp.pageTable, id)
	bp.pageTableMu.Unlock()

	f.reset()
	bp.pushFreeFrame(idx)

	if err := bp.disk.DeallocatePage(id); err != nil {
		bp.logger.Error("buffer pool: deallocate failed", "page", id, "error", err)
		return err
	}
	return nil
}

func (bp *BufferPoolManager) recordHit() {
	bp.statsMu.Lock()
	bp.hits++
	bp.statsMu.Unlock()
}

func (bp *BufferPoolManager) recordMiss() {
	bp.statsMu.Lock()
	bp.misses++
	bp.statsMu.Unlock()
}

// BufferPoolStats reports observational counters. Never used to drive
// eviction decisions.
type BufferPoolStats struct {
	Hits, Misses uint64
	FreeFrames   int
	InPool       int
}

// Stats returns a snapshot of buffer pool counters.
func (bp *BufferPoolManager) Stats() BufferPoolStats {
	bp.statsMu.Lock()
	hits, misses := bp.hits, bp.misses
	bp.statsMu.Unlock()

	bp.freeListMu.Lock()
	free := len(bp.freeList)
	bp.freeListMu.Unlock()

	return BufferPoolStats{
		Hits:       hits,
		Misses:     misses,
		FreeFrames: free,
		InPool:     bp.replacer.Size(),
	}
}

// HotPageCount returns the observed fetch count for a page id, or 0 if it
// has fallen out of the bounded instrumentation cache.
func (bp *BufferPoolManager) HotPageCount(id PageID) uint64 {
	if bp.hotPages == nil {
		return 0
	}
	count, _ := bp.hotPages.Get(id)
	return count
}
