package allocator

// coalesce merges the freshly freed block bp with whichever of its lexical
// neighbors are also free, restoring the no-adjacent-free invariant, and
// inserts the resulting block into its class list. It returns the address
// of the (possibly merged) free block. bp's header and footer must already
// be written as free; bp itself must not yet be in any class list.
func (a *Allocator) coalesce(bp uintptr) uintptr {
	prevAlloc := blockPrevAlloc(bp)
	next := nextBlock(bp)
	nextAlloc := blockAlloc(next)
	size := blockSize(bp)

	switch {
	case prevAlloc && nextAlloc:
		a.insert(bp, classOf(size))
		markPrevAlloc(next, false)
		return bp

	case prevAlloc && !nextAlloc:
		size += blockSize(next)
		a.remove(next)
		writeFreeTags(bp, size, true)
		a.insert(bp, classOf(size))
		return bp

	case !prevAlloc && nextAlloc:
		prev := prevBlock(bp)
		size += blockSize(prev)
		prevPrevAlloc := blockPrevAlloc(prev)

		a.remove(prev)
		writeFreeTags(prev, size, prevPrevAlloc)
		markPrevAlloc(nextBlock(prev), false)
		a.insert(prev, classOf(size))
		return prev

	default: // !prevAlloc && !nextAlloc
		prev := prevBlock(bp)
		size += blockSize(prev) + blockSize(next)
		prevPrevAlloc := blockPrevAlloc(prev)

		a.remove(next)
		a.remove(prev)
		writeFreeTags(prev, size, prevPrevAlloc)
		a.insert(prev, classOf(size))
		return prev
	}
}
