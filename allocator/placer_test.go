package allocator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlace_SplitsOffRemainder(t *testing.T) {
	a := newTestAllocator(t)

	// init's first chunk is one free block covering exactly initChunkSize
	// bytes, alone in its class.
	bigClass := classOf(initChunkSize)
	require.False(t, a.isEmptyClass(bigClass))

	p, ok := a.Allocate(24)
	require.True(t, ok)

	// adjustedSize(24) = 32: 24+4=28, rounded up to 32.
	assert.Equal(t, uint32(32), blockSize(p))
	assert.True(t, blockAlloc(p))

	remainder := nextBlock(p)
	assert.Equal(t, uint32(initChunkSize-32), blockSize(remainder))
	assert.False(t, blockAlloc(remainder))
	assert.True(t, blockPrevAlloc(remainder))

	remClass := classOf(initChunkSize - 32)
	assert.Equal(t, remainder, a.listNext(a.sentinel[remClass]))
}

func TestPlace_NoSplitWhenRemainderTooSmall(t *testing.T) {
	a := newTestAllocator(t)

	// Carve the initial chunk down to exactly 32 bytes of free space, via
	// a spacer allocation, so the next request consumes the whole thing
	// with nothing left over to split.
	total := blockSize(a.listNext(a.sentinel[classOf(initChunkSize)]))
	spacerPayload := total - 32 - wordSize // leaves a 32-byte free remainder after the spacer
	_, ok := a.Allocate(spacerPayload)
	require.True(t, ok)

	freeClass := classOf(32)
	bp := a.listNext(a.sentinel[freeClass])
	require.Equal(t, uint32(32), blockSize(bp))

	p, ok := a.Allocate(24) // adjustedSize = 32, exactly the whole free block
	require.True(t, ok)
	assert.Equal(t, bp, p)
	assert.Equal(t, uint32(32), blockSize(p))
	assert.True(t, blockAlloc(p))

	// No remainder was split off: the next lexical block has its
	// prev_alloc bit set and is not itself free-listed as a 0-byte block.
	assert.True(t, blockPrevAlloc(nextBlock(p)))
}
