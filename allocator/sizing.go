package allocator

import "math"

// minAllocThreshold is the largest payload request (in bytes) still rounded
// up to the 16-byte floor rather than WSIZE+align(n). The spec mandates 12
// here (matching the segregated variant of the original source), which
// yields an allocated-block minimum of 16 bytes total; an earlier variant
// used 20 but the spec is explicit that 12 is authoritative.
const minAllocThreshold = 12

// initMetaSize is the number of bytes Init reserves up front for the
// padding word, the prologue header/footer, the ten class sentinels and the
// epilogue: (2*(numClasses)+4) words.
const initMetaSize = (2*numClasses + 4) * wordSize

// prologueSizeBytes is the permanently-allocated prologue block's size: the
// ten sentinel pairs plus its own header and footer.
const prologueSizeBytes = (2*numClasses + 2) * wordSize

func roundUp8(n uint32) uint32 { return (n + 7) &^ 7 }

// adjustedSize converts a requested payload size into the actual block size
// to place: the 16-byte floor for anything at or below minAllocThreshold,
// otherwise the request plus its header rounded up to double-word
// alignment.
func adjustedSize(n uint32) uint32 {
	if n <= minAllocThreshold {
		return minFreeSize
	}
	return roundUp8(n + wordSize)
}

// mulOverflows computes a*b, reporting whether the product overflows
// uint32. The original source's calloc multiplies unchecked; the spec
// requires overflow-safe multiplication that fails closed instead.
func mulOverflows(a, b uint32) (uint32, bool) {
	product := uint64(a) * uint64(b)
	if product > math.MaxUint32 {
		return 0, true
	}
	return uint32(product), false
}
