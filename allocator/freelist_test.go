package allocator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassOf_Boundaries(t *testing.T) {
	cases := []struct {
		size  uint32
		class int
	}{
		{16, 0}, {17, 1}, {31, 1}, {32, 2}, {63, 2},
		{64, 3}, {127, 3}, {128, 4}, {255, 4},
		{256, 5}, {511, 5}, {512, 6}, {1022, 6},
		{1023, 7}, {2055, 7}, {2056, 8}, {4095, 8},
		{4096, 9}, {1 << 20, 9},
	}
	for _, c := range cases {
		assert.Equal(t, c.class, classOf(c.size), "classOf(%d)", c.size)
	}
}

func TestClassRange_CoversClassOf(t *testing.T) {
	// Every boundary classOf assigns a size to must fall inside the range
	// classRange reports for that same class.
	for _, size := range []uint32{16, 17, 31, 32, 127, 128, 4095, 4096, 1 << 20} {
		class := classOf(size)
		low, high := classRange(class)
		assert.GreaterOrEqual(t, size, low)
		if high != 0 {
			assert.LessOrEqual(t, size, high)
		}
	}
}

func TestIsEmptyClass_FreshHeap(t *testing.T) {
	a := newTestAllocator(t)

	// init's first chunk (4096 bytes) lands in class 9; every other class
	// starts empty.
	for class := 0; class < numClasses; class++ {
		if class == classOf(initChunkSize) {
			assert.False(t, a.isEmptyClass(class), "class %d", class)
			continue
		}
		assert.True(t, a.isEmptyClass(class), "class %d", class)
	}
}

func TestInsertRemove_PushFrontAndSplice(t *testing.T) {
	a := newTestAllocator(t)

	// Carve three same-class (size-24) free blocks, isolated from each
	// other and from the trailing free remainder by allocated spacers, so
	// releasing them doesn't trigger coalescing.
	p1, ok := a.Allocate(20)
	require.True(t, ok)
	_, ok = a.Allocate(1)
	require.True(t, ok)
	p2, ok := a.Allocate(20)
	require.True(t, ok)
	_, ok = a.Allocate(1)
	require.True(t, ok)
	p3, ok := a.Allocate(20)
	require.True(t, ok)
	_, ok = a.Allocate(1)
	require.True(t, ok)

	class := classOf(24)
	require.True(t, a.isEmptyClass(class))

	a.Release(p1)
	a.Release(p2)
	a.Release(p3)

	// insert pushes to the front, so the list head is the most recently
	// released block, in reverse release order.
	sentinel := a.sentinel[class]
	assert.Equal(t, p3, a.listNext(sentinel))
	assert.Equal(t, p2, a.listNext(p3))
	assert.Equal(t, p1, a.listNext(p2))
	assert.Equal(t, sentinel, a.listNext(p1))

	// Link symmetry.
	assert.Equal(t, sentinel, a.listPrev(p3))
	assert.Equal(t, p3, a.listPrev(p2))
	assert.Equal(t, p2, a.listPrev(p1))
	assert.Equal(t, p1, a.listPrev(sentinel))

	// remove splices the middle entry out without disturbing the others.
	a.remove(p2)
	assert.Equal(t, p1, a.listNext(p3))
	assert.Equal(t, p3, a.listPrev(p1))

	a.remove(p3)
	a.remove(p1)
	assert.True(t, a.isEmptyClass(class))
}
