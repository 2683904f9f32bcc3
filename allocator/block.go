package allocator

import "unsafe"

// wordSize and dwordSize are untyped constants so they can be used directly
// in both uintptr address arithmetic and uint32 tag arithmetic without
// explicit conversions.
const (
	wordSize  = 4
	dwordSize = 8
)

const (
	allocBit     uint32 = 0x1
	prevAllocBit uint32 = 0x2
	sizeMask     uint32 = ^uint32(0x7)
)

// loadTag and storeTag are the allocator's only direct accesses to tag and
// link words, and copyBytes and zeroBytes its only direct accesses to payload
// bytes; every other component reaches memory through the block/free-list
// helpers built on top of them.

func loadTag(addr uintptr) uint32 {
	return *(*uint32)(unsafe.Pointer(addr)) //nolint:govet
}

func storeTag(addr uintptr, v uint32) {
	*(*uint32)(unsafe.Pointer(addr)) = v //nolint:govet
}

func copyBytes(dst, src uintptr, n uint32) {
	if n == 0 {
		return
	}
	dstSlice := unsafe.Slice((*byte)(unsafe.Pointer(dst)), n) //nolint:govet
	srcSlice := unsafe.Slice((*byte)(unsafe.Pointer(src)), n) //nolint:govet
	copy(dstSlice, srcSlice)
}

func zeroBytes(addr uintptr, n uint32) {
	if n == 0 {
		return
	}
	s := unsafe.Slice((*byte)(unsafe.Pointer(addr)), n) //nolint:govet
	for i := range s {
		s[i] = 0
	}
}

// packTag encodes size (always a multiple of 8) with the prev_alloc and
// alloc flags into a single 4-byte header/footer tag.
func packTag(size uint32, prevAlloc, alloc bool) uint32 {
	v := size &^ 0x7
	if prevAlloc {
		v |= prevAllocBit
	}
	if alloc {
		v |= allocBit
	}
	return v
}

// header returns the address of bp's 4-byte header tag.
func header(bp uintptr) uintptr { return bp - wordSize }

// footer returns the address of bp's 4-byte footer tag. Only meaningful for
// free blocks; allocated blocks have no footer.
func footer(bp uintptr) uintptr { return bp + uintptr(blockSize(bp)) - dwordSize }

func blockSize(bp uintptr) uint32    { return loadTag(header(bp)) & sizeMask }
func blockAlloc(bp uintptr) bool     { return loadTag(header(bp))&allocBit != 0 }
func blockPrevAlloc(bp uintptr) bool { return loadTag(header(bp))&prevAllocBit != 0 }
func footerSize(bp uintptr) uint32   { return loadTag(footer(bp)) & sizeMask }
func footerAlloc(bp uintptr) bool    { return loadTag(footer(bp))&allocBit != 0 }

// nextBlock returns bp's lexical successor via the boundary tag.
func nextBlock(bp uintptr) uintptr { return bp + uintptr(blockSize(bp)) }

// prevBlock returns bp's lexical predecessor. Valid only when
// blockPrevAlloc(bp) is false: only then does the predecessor have a footer
// to read its size from.
func prevBlock(bp uintptr) uintptr {
	prevSize := loadTag(bp-dwordSize) & sizeMask
	return bp - uintptr(prevSize)
}

// markPrevAlloc sets or clears bp's prev_alloc bit, leaving size and alloc
// untouched.
func markPrevAlloc(bp uintptr, v bool) {
	tag := loadTag(header(bp))
	if v {
		tag |= prevAllocBit
	} else {
		tag &^= prevAllocBit
	}
	storeTag(header(bp), tag)
}

// writeAllocatedHeader writes bp's header as an allocated block. Allocated
// blocks have no footer.
func writeAllocatedHeader(bp uintptr, size uint32, prevAlloc bool) {
	storeTag(header(bp), packTag(size, prevAlloc, true))
}

// writeFreeTags writes both bp's header and footer as a free block.
func writeFreeTags(bp uintptr, size uint32, prevAlloc bool) {
	storeTag(header(bp), packTag(size, prevAlloc, false))
	storeTag(bp+uintptr(size)-dwordSize, packTag(size, false, false))
}
