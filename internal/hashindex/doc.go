// Package hashindex implements a disk-backed linear-probing hash index over
// a coredb.BufferPoolManager.
//
// The index is split across two page kinds. A single header page tracks the
// index's block page ids and current bucket count. Each block page stores a
// fixed-size run of key/value slots plus two bitmaps (occupied, readable)
// that together give tombstone semantics: a slot that is occupied but not
// readable was deleted and must still be probed past during lookup and
// removal; an insert that reaches it reuses the slot.
package hashindex
