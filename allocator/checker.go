package allocator

import (
	"fmt"

	"github.com/kodeblox/segalloc/region"
)

// CheckHeap walks the heap and every free list, verifying the invariants
// documented for the block layout and the segregated free lists. Violations
// are written to the allocator's diagnostic writer; verbose additionally
// prints per-block information for every block visited. CheckHeap reports
// each violation it finds instead of panicking, and returns whether the heap
// was found consistent. It follows block sizes and list links as stored,
// without bounds-checking them before reading, so a size tag or link that
// points outside the region makes it read unmapped memory and fault.
func (a *Allocator) CheckHeap(verbose bool) bool {
	ok := true
	errorf := func(format string, args ...any) {
		ok = false
		fmt.Fprintf(a.diag, "check_heap: "+format+"\n", args...)
	}
	printf := func(format string, args ...any) {
		if verbose {
			fmt.Fprintf(a.diag, format+"\n", args...)
		}
	}

	if loadTag(a.base) != 0 {
		errorf("padding word at base is not zero")
	}

	prologueBp := a.base + dwordSize
	if blockSize(prologueBp) != prologueSizeBytes {
		errorf("prologue size is %d, want %d", blockSize(prologueBp), prologueSizeBytes)
	}
	if !blockAlloc(prologueBp) {
		errorf("prologue is not marked allocated")
	}
	if !blockPrevAlloc(prologueBp) {
		errorf("prologue prev_alloc bit is not set")
	}

	freeInHeap := 0
	prevIsFree := false
	bp := nextBlock(prologueBp)

	for blockSize(bp) != 0 {
		printf("block at %#x: size=%d alloc=%v prev_alloc=%v", bp, blockSize(bp), blockAlloc(bp), blockPrevAlloc(bp))

		if bp%dwordSize != 0 {
			errorf("block at %#x is not %d-byte aligned", bp, dwordSize)
		}
		if !region.Contains(a.region, bp) {
			errorf("block at %#x lies outside the heap", bp)
		}
		if blockSize(bp) < minFreeSize {
			errorf("block at %#x has size %d, smaller than minimum %d", bp, blockSize(bp), minFreeSize)
		}
		if blockPrevAlloc(bp) == prevIsFree {
			errorf("block at %#x prev_alloc bit disagrees with predecessor's actual state", bp)
		}

		alloc := blockAlloc(bp)
		if !alloc {
			if footerSize(bp) != blockSize(bp) || footerAlloc(bp) {
				errorf("block at %#x header/footer mismatch", bp)
			}
			if prevIsFree {
				errorf("block at %#x is free and adjacent to a free predecessor", bp)
			}
			freeInHeap++
		}

		prevIsFree = !alloc
		bp = nextBlock(bp)
	}

	if !blockAlloc(bp) {
		errorf("epilogue at %#x is not marked allocated", bp)
	}
	if blockPrevAlloc(bp) == prevIsFree {
		errorf("epilogue prev_alloc bit disagrees with predecessor's actual state")
	}

	freeInLists := 0
	for class := 0; class < numClasses; class++ {
		freeInLists += a.checkList(class, errorf)
	}

	if freeInHeap != freeInLists {
		errorf("found %d free blocks walking the heap but %d across free lists", freeInHeap, freeInLists)
	}

	return ok
}

// checkList walks class's circular list, detecting cycles with Floyd's
// tortoise-and-hare, verifying link symmetry and class containment for
// every block found, and returns the number of blocks it holds.
func (a *Allocator) checkList(class int, errorf func(string, ...any)) int {
	sentinel := a.sentinel[class]

	slow := a.listNext(sentinel)
	fast := slow
	for fast != sentinel {
		fast = a.listNext(fast)
		if fast == sentinel {
			break
		}
		fast = a.listNext(fast)
		slow = a.listNext(slow)
		if slow == fast {
			errorf("free list %d contains a cycle", class)
			return 0
		}
	}

	low, high := classRange(class)
	count := 0
	for bp := a.listNext(sentinel); bp != sentinel; bp = a.listNext(bp) {
		if a.listPrev(a.listNext(bp)) != bp {
			errorf("free list %d: link symmetry broken at %#x", class, bp)
		}
		size := blockSize(bp)
		if size < low || (high != 0 && size > high) {
			errorf("free list %d: block at %#x has size %d, outside its class range", class, bp, size)
		}
		count++
	}
	return count
}
