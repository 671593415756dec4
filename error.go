package coredb

import "errors"

//goland:noinspection GoUnusedGlobalVariable
var (
	// ErrNoVictim is returned by Fetch/NewPage when the buffer pool is
	// fully pinned and no frame can be evicted. No state is mutated.
	ErrNoVictim = errors.New("buffer pool: no victim frame available")

	// ErrFlushFailed is returned when a dirty victim frame's page could
	// not be written back to disk during eviction. The frame being
	// evicted is left untouched.
	ErrFlushFailed = errors.New("buffer pool: flush of victim page failed")

	// ErrInvalidUnpin is returned by Unpin when the target frame's pin
	// count is already <= 0.
	ErrInvalidUnpin = errors.New("buffer pool: unpin called with pin count <= 0")

	// ErrInUse is returned by DeletePage when the page is resident with a
	// non-zero pin count.
	ErrInUse = errors.New("buffer pool: page is pinned")

	// ErrInvalidPageID is returned by Flush (and other operations) when
	// called with the sentinel invalid page id.
	ErrInvalidPageID = errors.New("buffer pool: invalid page id")

	// ErrDuplicatePair is returned by hash index Insert when the exact
	// (key, value) pair being inserted already exists.
	ErrDuplicatePair = errors.New("hash index: duplicate key/value pair")

	// ErrTableFull is returned by hash index Insert when repeated resizes
	// still leave no free slot for the key.
	ErrTableFull = errors.New("hash index: table full after repeated resize")

	// ErrPageNotFound is returned by a disk manager when asked to read a
	// page id that was never allocated.
	ErrPageNotFound = errors.New("disk manager: page not found")

	// ErrDiskManagerClosed names a disk manager that has been closed. No
	// disk manager in this package returns it: a FileDiskManager used after
	// Close reports the underlying file error instead, and MemDiskManager's
	// Close does nothing.
	ErrDiskManagerClosed = errors.New("disk manager: closed")
)
