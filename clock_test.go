package coredb

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClockReplacerVictimBasic(t *testing.T) {
	t.Parallel()

	c := NewClockReplacer(3)
	c.Unpin(0)
	c.Unpin(1)
	c.Unpin(2)

	assert.Equal(t, 3, c.Size())

	idx, ok := c.Victim()
	assert.True(t, ok)
	assert.Equal(t, 0, idx)
	assert.Equal(t, 2, c.Size())
}

func TestClockReplacerSecondChance(t *testing.T) {
	t.Parallel()

	c := NewClockReplacer(2)
	c.Unpin(0)
	c.Unpin(1)

	// Touching 0 again re-sets a reference bit it already has: every
	// unpinned frame holds one, so the sweep spends one pass clearing both.
	c.Unpin(0)

	idx, ok := c.Victim()
	assert.True(t, ok)
	assert.Equal(t, 0, idx, "both frames use their second chance, then the hand returns to frame 0")
}

func TestClockReplacerPinRemovesCandidate(t *testing.T) {
	t.Parallel()

	c := NewClockReplacer(2)
	c.Unpin(0)
	c.Unpin(1)
	c.Pin(0)

	assert.Equal(t, 1, c.Size())

	idx, ok := c.Victim()
	assert.True(t, ok)
	assert.Equal(t, 1, idx)
}

func TestClockReplacerNoVictimWhenEmpty(t *testing.T) {
	t.Parallel()

	c := NewClockReplacer(4)
	_, ok := c.Victim()
	assert.False(t, ok)
}

func TestClockReplacerZeroFrames(t *testing.T) {
	t.Parallel()

	c := NewClockReplacer(0)
	_, ok := c.Victim()
	assert.False(t, ok)
	assert.Equal(t, 0, c.Size())
}

func TestClockReplacerConcurrentPinUnpinVictim(t *testing.T) {
	t.Parallel()

	const numFrames = 50
	c := NewClockReplacer(numFrames)

	var wg sync.WaitGroup
	for g := 0; g < 10; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				idx := (g*100 + j) % numFrames
				c.Unpin(idx)
				c.Pin(idx)
				c.Unpin(idx)
				if victim, ok := c.Victim(); ok {
					c.Unpin(victim)
				}
			}
		}(g)
	}
	wg.Wait()

	assert.LessOrEqual(t, c.Size(), numFrames)
}
