package coredb

import "sync"

// ClockReplacer selects an evictable frame among currently-unpinned frames
// using second-chance (clock) replacement.
//
// For each frame index it tracks two bits: inPool (the frame is currently a
// replacement candidate) and ref (the second-chance bit). A rotating hand
// sweeps the bits looking for a candidate with ref == false; a candidate
// with ref == true is given one more pass with its ref bit cleared instead
// of being evicted immediately.
//
// A single internal mutex serializes all operations; the replacer is opaque
// to the buffer pool beyond Victim/Pin/Unpin/Size.
type ClockReplacer struct {
	mu     sync.Mutex
	inPool []bool
	ref    []bool
	hand   int
}

// NewClockReplacer creates a replacer over numFrames frame indices, all
// initially not in the candidate pool (matching a freshly constructed
// buffer pool where every frame starts on the free list, not in the
// replacer).
func NewClockReplacer(numFrames int) *ClockReplacer {
	return &ClockReplacer{
		inPool: make([]bool, numFrames),
		ref:    make([]bool, numFrames),
	}
}

// Victim selects a frame index to evict. It returns false if no frame is
// currently a candidate (in-pool). The hand advances at most 2*N slots
// before giving up, which bounds the search to O(N): every in-pool frame
// can absorb at most one ref-bit grace pass before it becomes a victim.
func (c *ClockReplacer) Victim() (int, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := len(c.inPool)
	if n == 0 {
		return 0, false
	}

	for advances := 0; advances < 2*n; advances++ {
		i := c.hand % n
		switch {
		case c.inPool[i] && !c.ref[i]:
			c.inPool[i] = false
			c.hand = (i + 1) % n
			return i, true
		case c.inPool[i]:
			c.ref[i] = false
			c.hand = (i + 1) % n
		default:
			c.hand = (i + 1) % n
		}
	}

	return 0, false
}

// Pin removes a frame from the candidate pool. A pinned frame is never
// eligible for eviction.
func (c *ClockReplacer) Pin(frame int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.inPool[frame] = false
}

// Unpin adds a frame to the candidate pool and grants it a grace period via
// the reference bit.
func (c *ClockReplacer) Unpin(frame int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.inPool[frame] = true
	c.ref[frame] = true
}

// Size returns the number of frames currently eligible for eviction.
func (c *ClockReplacer) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for _, in := range c.inPool {
		if in {
			n++
		}
	}
	return n
}
