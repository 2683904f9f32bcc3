//go:build linux || darwin

package region

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"
)

// DefaultReserve is the amount of virtual address space reserved up front by
// New when no explicit reservation size is given. Reservation is cheap (no
// physical pages are committed by PROT_NONE), so this can comfortably exceed
// any realistic heap while staying well under the allocator's 2^32-byte
// offset ceiling.
const DefaultReserve = 1 << 31 // 2 GiB

// MMap is a Provider backed by a single anonymous mapping. The full
// reservation is mapped PROT_NONE up front, at a fixed address chosen by the
// kernel; Extend commits additional pages by mprotecting them to
// PROT_READ|PROT_WRITE. Because the reservation never moves and is never
// remapped, every address handed out by Extend stays valid for the life of
// the Provider — this is the same "reserve big, commit incrementally"
// technique growable mmap'd regions use elsewhere in the corpus (compare
// hivekit's unmap/truncate/remap dance in hive/loader_unix.go, adapted here
// to an anonymous, growable-only mapping via mprotect instead of remapping).
//
// mprotect only operates on whole, page-aligned spans, but the allocator
// extends the heap in much smaller, unaligned increments (the metadata
// block is 96 bytes, later chunks default to 512). MMap tracks a separate
// committed high-water mark, always rounded up to a page boundary, and only
// calls mprotect when a request would cross it — logical Extend calls stay
// byte-granular while the underlying commits stay page-granular.
type MMap struct {
	base      uintptr
	high      uintptr
	committed uintptr
	reserved  uintptr
	pageSize  uintptr
	mem       []byte
}

// New reserves a region of virtual address space of the given size (bytes)
// and returns a Provider with nothing yet committed (Low() == High()).
func New(reserve uint32) (*MMap, error) {
	if reserve == 0 {
		reserve = DefaultReserve
	}

	mem, err := unix.Mmap(-1, 0, int(reserve), unix.PROT_NONE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return nil, fmt.Errorf("region: reserve %d bytes: %w", reserve, err)
	}

	base := uintptr(unsafe.Pointer(&mem[0]))
	return &MMap{
		base:      base,
		high:      base,
		committed: base,
		reserved:  base + uintptr(reserve),
		pageSize:  uintptr(unix.Getpagesize()),
		mem:       mem,
	}, nil
}

// Low implements Provider.
func (m *MMap) Low() uintptr { return m.base }

// High implements Provider.
func (m *MMap) High() uintptr { return m.high }

// roundUpPage rounds addr up to the next page boundary at or above addr.
func (m *MMap) roundUpPage(addr uintptr) uintptr {
	rem := (addr - m.base) % m.pageSize
	if rem == 0 {
		return addr
	}
	return addr + (m.pageSize - rem)
}

// Extend implements Provider.
func (m *MMap) Extend(bytes uint32) (uintptr, error) {
	start := m.high
	newHigh := start + uintptr(bytes)
	if newHigh > m.reserved {
		return 0, ErrOutOfMemory
	}

	if newHigh > m.committed {
		newCommitted := m.roundUpPage(newHigh)
		if newCommitted > m.reserved {
			newCommitted = m.reserved
		}
		off := m.committed - m.base
		span := newCommitted - m.committed
		if err := unix.Mprotect(m.mem[off:off+span], unix.PROT_READ|unix.PROT_WRITE); err != nil {
			return 0, fmt.Errorf("region: commit %d bytes: %w", span, err)
		}
		m.committed = newCommitted
	}

	m.high = newHigh
	return start, nil
}

// Close releases the reservation. Not part of Provider: the allocator core
// never tears down a region, but long-lived hosts (tests, benchmarks) that
// create many regions want a way to give the address space back.
func (m *MMap) Close() error {
	if m.mem == nil {
		return nil
	}
	err := unix.Munmap(m.mem)
	m.mem = nil
	return err
}
