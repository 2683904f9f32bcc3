package allocator

// numClasses is the number of segregated size classes (spec calls the last
// index MAXLIST = 9; there are MAXLIST+1 = 10 classes in total).
const numClasses = 10

// bigListIndex is the first class index that switches the fit finder from
// first-fit to best-fit. The original source has a dead alternative
// (16*CHUNKSIZE as a byte threshold) in an earlier variant; the class-index
// threshold used here is the one kept in the most complete variant and is
// authoritative per the spec.
const bigListIndex = 4

// classOf returns the segregated free-list index that size belongs in, per
// the prescribed boundaries: {16}, [17,31], [32,63], [64,127], [128,255],
// [256,511], [512,1022], [1023,2055], [2056,4095], [4096,inf).
func classOf(size uint32) int {
	switch {
	case size <= 16:
		return 0
	case size <= 31:
		return 1
	case size <= 63:
		return 2
	case size <= 127:
		return 3
	case size <= 255:
		return 4
	case size <= 511:
		return 5
	case size <= 1022:
		return 6
	case size <= 2055:
		return 7
	case size <= 4095:
		return 8
	default:
		return 9
	}
}

// classRange reports the inclusive [low, high] byte-size range a class
// covers, for the checker's class-containment invariant. The top class is
// open-ended; high is returned as 0 to signal "no upper bound".
func classRange(class int) (low, high uint32) {
	bounds := [numClasses][2]uint32{
		{16, 16},
		{17, 31},
		{32, 63},
		{64, 127},
		{128, 255},
		{256, 511},
		{512, 1022},
		{1023, 2055},
		{2056, 4095},
		{4096, 0},
	}
	b := bounds[class]
	return b[0], b[1]
}

// offsetOf and addrAt translate between real addresses and the 32-bit
// offsets-from-base that free-list link fields store on the heap, per the
// spec's space-saving design.
func (a *Allocator) offsetOf(addr uintptr) uint32 { return uint32(addr - a.base) }
func (a *Allocator) addrAt(off uint32) uintptr    { return a.base + uintptr(off) }

// A free block's payload begins with next_offset (bytes 0..3) then
// prev_offset (bytes 4..7); a class sentinel uses the same two-field layout
// at its own fixed address, so these accessors work uniformly on both.

func (a *Allocator) listNext(bp uintptr) uintptr { return a.addrAt(loadTag(bp)) }
func (a *Allocator) listPrev(bp uintptr) uintptr { return a.addrAt(loadTag(bp + wordSize)) }

func (a *Allocator) setListNext(bp, to uintptr) { storeTag(bp, a.offsetOf(to)) }
func (a *Allocator) setListPrev(bp, to uintptr) { storeTag(bp+wordSize, a.offsetOf(to)) }

// insert pushes bp onto the front of class's circular doubly-linked list,
// in O(1). Technique adapted from the teacher's buddy free-list splice
// (buddyAddListHead in the pre-transformation buddy.go) to a sentinel-anchored
// circular list instead of a nullable bucket root.
func (a *Allocator) insert(bp uintptr, class int) {
	sentinel := a.sentinel[class]
	oldHead := a.listNext(sentinel)

	a.setListNext(bp, oldHead)
	a.setListPrev(bp, sentinel)
	a.setListPrev(oldHead, bp)
	a.setListNext(sentinel, bp)
}

// remove splices bp out of whichever class list it currently sits in, in
// O(1), using only bp's own link fields.
func (a *Allocator) remove(bp uintptr) {
	next := a.listNext(bp)
	prev := a.listPrev(bp)
	a.setListNext(prev, next)
	a.setListPrev(next, prev)
}

// isEmptyClass reports whether class's list holds no free blocks: true iff
// its sentinel's next_offset points back at itself.
func (a *Allocator) isEmptyClass(class int) bool {
	sentinel := a.sentinel[class]
	return a.listNext(sentinel) == sentinel
}
