package allocator

// findFit selects a free block able to hold size: first-fit for the small
// classes (index < bigListIndex), best-fit for the large ones. Small
// requests dominate throughput and get the cheap linear scan; large
// requests are rarer and worth the full-class scan to cut fragmentation.
func (a *Allocator) findFit(size uint32) (uintptr, bool) {
	class := classOf(size)
	if class >= bigListIndex {
		return a.bestFit(class, size)
	}
	return a.firstFit(class, size)
}

// firstFit scans classes [class..numClasses) in order and returns the first
// block encountered with size >= size.
func (a *Allocator) firstFit(class int, size uint32) (uintptr, bool) {
	for c := class; c < numClasses; c++ {
		sentinel := a.sentinel[c]
		for bp := a.listNext(sentinel); bp != sentinel; bp = a.listNext(bp) {
			if blockSize(bp) >= size {
				return bp, true
			}
		}
	}
	return 0, false
}

// bestFit scans classes [class..numClasses), tracking the smallest block
// seen with size >= size. Ties are broken by scan order: the first block
// seen at the minimal size wins, since later equal-size candidates are
// rejected by the strict less-than comparison below.
func (a *Allocator) bestFit(class int, size uint32) (uintptr, bool) {
	var best uintptr
	var bestSize uint32
	found := false

	for c := class; c < numClasses; c++ {
		sentinel := a.sentinel[c]
		for bp := a.listNext(sentinel); bp != sentinel; bp = a.listNext(bp) {
			bsz := blockSize(bp)
			if bsz < size {
				continue
			}
			if !found || bsz < bestSize {
				best, bestSize, found = bp, bsz, true
			}
		}
	}

	return best, found
}
