package allocator

import (
	"io"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kodeblox/segalloc/region"
)

// newTestAllocator builds an Allocator over a modestly sized region so
// tests run fast and exhaust predictably, with diagnostic output suppressed
// unless a test asks for it via newTestAllocatorWithDiag.
func newTestAllocator(t *testing.T) *Allocator {
	return newTestAllocatorWithDiag(t, io.Discard)
}

func newTestAllocatorWithDiag(t *testing.T, diag io.Writer) *Allocator {
	t.Helper()

	r, err := region.New(1 << 20) // 1 MiB
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close() })

	a, err := New(Config{Region: r, Diag: diag})
	require.NoError(t, err)
	return a
}
