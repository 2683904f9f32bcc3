// Package allocator is a general-purpose dynamic storage allocator over a
// single contiguous, monotonically growable region of memory. It services
// Allocate, Release, Resize and ZeroAllocate requests for variably sized
// payloads, using a segregated free-list index, boundary-tag coalescing and
// a hybrid first-fit/best-fit placement policy to keep fragmentation low
// without sacrificing throughput on the common small-allocation path.
//
// The allocator is not safe for concurrent use; callers needing that must
// wrap it in a lock of their own.
package allocator

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/kodeblox/segalloc/region"
)

// ErrOutOfMemory is returned when the backing region cannot grow far enough
// to satisfy a request.
var ErrOutOfMemory = errors.New("allocator: out of memory")

// Config configures a new Allocator.
type Config struct {
	// Region backs the allocator's heap. If nil, New creates a default
	// mmap-backed region sized region.DefaultReserve.
	Region region.Provider
	// Diag receives CheckHeap's diagnostic output. Defaults to os.Stderr.
	Diag io.Writer
}

// Allocator is a segregated-fit heap allocator over a single Provider-backed
// region. The zero value is not usable; construct one with New.
type Allocator struct {
	region region.Provider

	base           uintptr
	sentinel       [numClasses]uintptr
	epilogueHeader uintptr

	diag io.Writer
}

// New constructs conf's region if none was supplied, then initializes a
// ready-to-use heap: padding, prologue, the ten class sentinels, the
// epilogue, and an initial free chunk.
func New(conf Config) (*Allocator, error) {
	r := conf.Region
	if r == nil {
		m, err := region.New(region.DefaultReserve)
		if err != nil {
			return nil, fmt.Errorf("allocator: %w", err)
		}
		r = m
	}

	diag := conf.Diag
	if diag == nil {
		diag = os.Stderr
	}

	a := &Allocator{region: r, diag: diag}
	if err := a.init(); err != nil {
		return nil, err
	}
	return a, nil
}

// init lays out the heap's permanent fixtures (padding, prologue, the ten
// class sentinels, epilogue) and extends the heap with the first real free
// chunk. Mirrors the original source's mm_init.
func (a *Allocator) init() error {
	base, err := a.region.Extend(initMetaSize)
	if err != nil {
		return fmt.Errorf("allocator: %w", ErrOutOfMemory)
	}
	a.base = base

	storeTag(base, packTag(0, false, false))

	prologueHeader := base + wordSize
	storeTag(prologueHeader, packTag(prologueSizeBytes, true, true))

	root := base + dwordSize
	for i := 0; i < numClasses; i++ {
		sentinel := root + uintptr(i*dwordSize)
		a.sentinel[i] = sentinel
		storeTag(sentinel, a.offsetOf(sentinel))
		storeTag(sentinel+wordSize, a.offsetOf(sentinel))
	}

	prologueFooter := root + uintptr(numClasses*dwordSize)
	storeTag(prologueFooter, packTag(prologueSizeBytes, true, true))

	a.epilogueHeader = prologueFooter + wordSize
	storeTag(a.epilogueHeader, packTag(0, true, true))

	if _, ok := a.extendHeap(initChunkSize / wordSize); !ok {
		return ErrOutOfMemory
	}
	return nil
}

// Allocate reserves a payload of at least n bytes and returns its address.
// It returns (0, false) if n is zero or the heap cannot grow to satisfy the
// request.
func (a *Allocator) Allocate(n uint32) (uintptr, bool) {
	if n == 0 {
		return 0, false
	}
	size := adjustedSize(n)

	bp, ok := a.findFit(size)
	if !ok {
		if _, grew := a.growBy(size); !grew {
			return 0, false
		}
		bp, ok = a.findFit(size)
		if !ok {
			return 0, false
		}
	}

	a.place(bp, size)
	return bp, true
}

// Release returns a previously allocated block to the heap. p must be zero
// or a pointer previously returned by Allocate/Resize and not yet released;
// releasing anything else is undefined behavior. Release(0) is a no-op.
func (a *Allocator) Release(p uintptr) {
	if p == 0 {
		return
	}
	size := blockSize(p)
	prevAlloc := blockPrevAlloc(p)
	writeFreeTags(p, size, prevAlloc)
	a.coalesce(p)
}

// Resize changes the size of the block at p, preserving the first
// min(n, old payload size) bytes of its contents. Resize(p, 0) degrades to
// Release(p); Resize(0, n) degrades to Allocate(n). If the new allocation
// fails, the original block at p is left untouched.
func (a *Allocator) Resize(p uintptr, n uint32) (uintptr, bool) {
	if n == 0 {
		a.Release(p)
		return 0, false
	}
	if p == 0 {
		return a.Allocate(n)
	}

	oldPayload := blockSize(p) - wordSize

	newP, ok := a.Allocate(n)
	if !ok {
		return 0, false
	}

	copySize := n
	if oldPayload < copySize {
		copySize = oldPayload
	}
	copyBytes(newP, p, copySize)

	a.Release(p)
	return newP, true
}

// ZeroAllocate reserves a zero-initialized payload of count*elemSize bytes.
// It returns (0, false) if count or elemSize is zero, if their product
// overflows a uint32, or if the heap cannot satisfy the request.
func (a *Allocator) ZeroAllocate(count, elemSize uint32) (uintptr, bool) {
	if count == 0 || elemSize == 0 {
		return 0, false
	}
	total, overflow := mulOverflows(count, elemSize)
	if overflow {
		return 0, false
	}

	bp, ok := a.Allocate(total)
	if !ok {
		return 0, false
	}
	zeroBytes(bp, total)
	return bp, true
}

var (
	defaultOnce sync.Once
	defaultErr  error
	// Default is the package-level allocator lazily constructed by the
	// first call to any of the package-level convenience functions below
	// (Allocate, Release, Resize, ZeroAllocate, CheckHeap), for callers
	// that want a drop-in global
	// allocator rather than managing an *Allocator themselves.
	Default *Allocator
)

func ensureDefault() error {
	defaultOnce.Do(func() {
		Default, defaultErr = New(Config{})
	})
	return defaultErr
}

// Allocate delegates to Default, initializing it on first use.
func Allocate(n uint32) (uintptr, bool) {
	if err := ensureDefault(); err != nil {
		return 0, false
	}
	return Default.Allocate(n)
}

// Release delegates to Default, initializing it on first use.
func Release(p uintptr) {
	if err := ensureDefault(); err != nil {
		return
	}
	Default.Release(p)
}

// Resize delegates to Default, initializing it on first use.
func Resize(p uintptr, n uint32) (uintptr, bool) {
	if err := ensureDefault(); err != nil {
		return 0, false
	}
	return Default.Resize(p, n)
}

// ZeroAllocate delegates to Default, initializing it on first use.
func ZeroAllocate(count, elemSize uint32) (uintptr, bool) {
	if err := ensureDefault(); err != nil {
		return 0, false
	}
	return Default.ZeroAllocate(count, elemSize)
}

// CheckHeap delegates to Default, initializing it on first use.
func CheckHeap(verbose bool) bool {
	if err := ensureDefault(); err != nil {
		return false
	}
	return Default.CheckHeap(verbose)
}
