package allocator

// chunkSize is the amount extend-on-miss grows the region by when the
// request itself is smaller than this. Tunable within [256, 4096]; 512
// matches the original source.
const chunkSize = 512

// initChunkSize is the size of the first real free chunk init creates,
// beyond the fixed metadata (padding, prologue, sentinels, epilogue).
const initChunkSize = 4096

// roundWords rounds a word count up to an even number, so the resulting
// byte size stays a multiple of dwordSize.
func roundWords(words uint32) uint32 {
	if words%2 != 0 {
		words++
	}
	return words * wordSize
}

// growBy extends the heap by at least need bytes — more, if need is smaller
// than chunkSize — and feeds the newly committed span through the
// coalescer. Called when the fit finder misses.
func (a *Allocator) growBy(need uint32) (uintptr, bool) {
	ext := need
	if ext < chunkSize {
		ext = chunkSize
	}
	return a.extendHeap(ext / wordSize)
}

// extendHeap grows the region by words (rounded to a whole number of
// double-words), turns the new span into a free block where the old
// epilogue stood, writes a fresh epilogue at the new end, and coalesces the
// new block with whatever free block may already precede it.
func (a *Allocator) extendHeap(words uint32) (uintptr, bool) {
	size := roundWords(words)

	bp, err := a.region.Extend(size)
	if err != nil {
		return 0, false
	}

	// bp-wordSize still holds the old epilogue's tag at this point: Extend
	// only commits new memory beyond it, it never overwrites what came
	// before. Read the inherited prev_alloc bit before we clobber it below.
	prevAlloc := blockPrevAlloc(bp)
	writeFreeTags(bp, size, prevAlloc)

	epilogue := bp + uintptr(size)
	a.epilogueHeader = header(epilogue)
	writeAllocatedHeader(epilogue, 0, false)

	return a.coalesce(bp), true
}
