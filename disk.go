package coredb

import (
	"fmt"
	"os"
	"sync"

	"golang.org/x/sys/unix"
)

// DiskManager is the external collaborator the buffer pool reads pages from
// and writes pages to. It is block-addressed: every page is PageSize bytes,
// identified by a PageID, with no knowledge of what higher layers store in
// those bytes.
type DiskManager interface {
	ReadPage(id PageID) ([PageSize]byte, error)
	WritePage(id PageID, data [PageSize]byte) error
	AllocatePage() (PageID, error)
	DeallocatePage(id PageID) error
	Close() error
}

// FileDiskManager implements DiskManager against a single OS file, pages
// addressed by PageID*PageSize byte offset. Grounded on the teacher's
// DiskPageManager: same ReadAt/WriteAt-at-offset scheme, same
// grow-on-allocate behavior when the free list is empty.
type FileDiskManager struct {
	mu       sync.Mutex
	file     *os.File
	numPages int64
	free     []PageID
	logger   Logger
}

// DiskManagerOption configures a FileDiskManager using the functional
// options pattern, matching the teacher's DBOption convention.
type DiskManagerOption func(*diskManagerOptions)

type diskManagerOptions struct {
	logger Logger
}

func defaultDiskManagerOptions() diskManagerOptions {
	return diskManagerOptions{logger: DiscardLogger{}}
}

// WithDiskManagerLogger sets the logger used for allocation/read/write
// diagnostics.
func WithDiskManagerLogger(l Logger) DiskManagerOption {
	return func(o *diskManagerOptions) { o.logger = l }
}

// NewFileDiskManager opens or creates a page file at path, taking an
// exclusive advisory lock for the lifetime of the manager. The lock uses
// golang.org/x/sys/unix.Flock, the same syscall package the teacher uses
// for file-level operations in its mmap storage backend.
func NewFileDiskManager(path string, opts ...DiskManagerOption) (*FileDiskManager, error) {
	o := defaultDiskManagerOptions()
	for _, opt := range opts {
		opt(&o)
	}

	file, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0600)
	if err != nil {
		return nil, err
	}

	if err := unix.Flock(int(file.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		file.Close()
		return nil, fmt.Errorf("disk manager: lock %s: %w", path, err)
	}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, err
	}

	dm := &FileDiskManager{
		file:     file,
		numPages: info.Size() / PageSize,
		logger:   o.logger,
	}
	dm.logger.Info("disk manager opened", "path", path, "numPages", dm.numPages)
	return dm, nil
}

// ReadPage reads PageSize bytes at the offset for id.
func (dm *FileDiskManager) ReadPage(id PageID) ([PageSize]byte, error) {
	var buf [PageSize]byte
	if id == InvalidPageID {
		return buf, ErrInvalidPageID
	}

	dm.mu.Lock()
	defer dm.mu.Unlock()

	n, err := dm.file.ReadAt(buf[:], int64(id)*PageSize)
	if err != nil {
		dm.logger.Error("disk manager: read failed", "page", id, "error", err)
		return buf, err
	}
	if n != PageSize {
		return buf, fmt.Errorf("disk manager: short read: got %d bytes, expected %d", n, PageSize)
	}
	return buf, nil
}

// WritePage writes PageSize bytes at the offset for id.
func (dm *FileDiskManager) WritePage(id PageID, data [PageSize]byte) error {
	if id == InvalidPageID {
		return ErrInvalidPageID
	}

	dm.mu.Lock()
	defer dm.mu.Unlock()

	n, err := dm.file.WriteAt(data[:], int64(id)*PageSize)
	if err != nil {
		dm.logger.Error("disk manager: write failed", "page", id, "error", err)
		return err
	}
	if n != PageSize {
		return fmt.Errorf("disk manager: short write: wrote %d bytes, expected %d", n, PageSize)
	}
	return nil
}

// AllocatePage returns a free page id, reusing a previously deallocated id
// before growing the file.
func (dm *FileDiskManager) AllocatePage() (PageID, error) {
	dm.mu.Lock()
	defer dm.mu.Unlock()

	if n := len(dm.free); n > 0 {
		id := dm.free[n-1]
		dm.free = dm.free[:n-1]
		dm.logger.Info("disk manager: allocated from free list", "page", id)
		return id, nil
	}

	id := PageID(dm.numPages)
	dm.numPages++

	var zero [PageSize]byte
	if _, err := dm.file.WriteAt(zero[:], int64(id)*PageSize); err != nil {
		dm.numPages--
		return InvalidPageID, err
	}

	dm.logger.Info("disk manager: allocated new page", "page", id)
	return id, nil
}

// DeallocatePage marks id as reusable by a future AllocatePage call.
func (dm *FileDiskManager) DeallocatePage(id PageID) error {
	if id == InvalidPageID {
		return ErrInvalidPageID
	}

	dm.mu.Lock()
	defer dm.mu.Unlock()

	dm.free = append(dm.free, id)
	return nil
}

// Close releases the file lock and closes the underlying file.
func (dm *FileDiskManager) Close() error {
	dm.mu.Lock()
	defer dm.mu.Unlock()

	_ = unix.Flock(int(dm.file.Fd()), unix.LOCK_UN)
	return dm.file.Close()
}

// MemDiskManager implements DiskManager entirely in memory. Grounded on the
// teacher's InMemoryPageManager; used by tests that don't need a real file.
type MemDiskManager struct {
	mu    sync.Mutex
	pages map[PageID][PageSize]byte
	free  []PageID
	next  PageID
}

// NewMemDiskManager creates an empty in-memory disk manager.
func NewMemDiskManager() *MemDiskManager {
	return &MemDiskManager{pages: make(map[PageID][PageSize]byte)}
}

func (m *MemDiskManager) ReadPage(id PageID) ([PageSize]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	buf, ok := m.pages[id]
	if !ok {
		return buf, ErrPageNotFound
	}
	return buf, nil
}

func (m *MemDiskManager) WritePage(id PageID, data [PageSize]byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.pages[id] = data
	return nil
}

func (m *MemDiskManager) AllocatePage() (PageID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if n := len(m.free); n > 0 {
		id := m.free[n-1]
		m.free = m.free[:n-1]
		m.pages[id] = [PageSize]byte{}
		return id, nil
	}

	id := m.next
	m.next++
	m.pages[id] = [PageSize]byte{}
	return id, nil
}

func (m *MemDiskManager) DeallocatePage(id PageID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.pages, id)
	m.free = append(m.free, id)
	return nil
}

func (m *MemDiskManager) Close() error {
	return nil
}

var (
	_ DiskManager = (*FileDiskManager)(nil)
	_ DiskManager = (*MemDiskManager)(nil)
)
