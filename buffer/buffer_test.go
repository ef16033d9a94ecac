package buffer

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// S1 from spec.md §8: allocate capacity 32 with AllocSized, exercise the
// push/pull head asymmetry, PutHead, Equal, and Clear.
func TestScenarioS1BufferCursor(t *testing.T) {
	b := AllocSized(32)
	require.Equal(t, 32, b.DataLen())
	require.Equal(t, 0, b.HeadLen())

	// head is empty: pushing fails.
	err := b.Push(10)
	require.ErrorIs(t, err, ErrOverflow)

	// pull consumes a header prefix of the payload into the head region.
	_, err = b.Pull(10)
	require.NoError(t, err)
	require.Equal(t, 22, b.DataLen())
	require.Equal(t, 10, b.HeadLen())

	payload := []byte{'A', 'B', 'C', 'D', 'E', 'F', 'G', 'H', 'I', 'J'}
	require.NoError(t, b.PutHead(payload))

	other := AllocSized(10)
	require.NoError(t, other.Put(payload))
	// other's payload is exactly the 10 bytes now sitting in b's head.
	require.True(t, string(other.Data()) == string(b.Head()))

	b.Clear()
	require.Equal(t, 0, b.DataLen())
	require.Equal(t, 0, b.HeadLen())
	require.Equal(t, 32, b.TailLen())
	for _, v := range b.mem {
		require.Equal(t, byte(0), v)
	}
}

func TestPullPushRoundTrip(t *testing.T) {
	b := AllocSized(16)
	_, err := b.Pull(6)
	require.NoError(t, err)
	before := b.dataStart
	require.NoError(t, b.Push(6))
	require.Equal(t, before-6, b.dataStart)
}

func TestPullOverflow(t *testing.T) {
	b := AllocSized(4)
	_, err := b.Pull(5)
	require.ErrorIs(t, err, ErrOverflow)
}

func TestPushTailPullTail(t *testing.T) {
	b := Alloc(16)
	require.NoError(t, b.PullTail(4))
	require.Equal(t, 4, b.DataLen())
	require.NoError(t, b.PushTail(2))
	require.Equal(t, 2, b.DataLen())

	err := b.PullTail(100)
	require.ErrorIs(t, err, ErrOverflow)
}

func TestPutOverflow(t *testing.T) {
	b := Alloc(4)
	require.NoError(t, b.PullTail(2))
	err := b.Put([]byte{1, 2, 3})
	require.ErrorIs(t, err, ErrOverflow)
}

func TestRealloc(t *testing.T) {
	b := AllocSized(8)
	require.NoError(t, b.Put([]byte("abcdefgh")))
	require.NoError(t, b.Realloc(16))
	require.Equal(t, 16, b.TrueLen())
	require.Equal(t, "abcdefgh", string(b.Data()))

	// shrinking below the payload fails
	err := b.Realloc(4)
	require.ErrorIs(t, err, ErrShrinkFits)
}

func TestEnlarge(t *testing.T) {
	b := AllocSized(4)
	require.NoError(t, b.Enlarge(10))
	require.GreaterOrEqual(t, b.DataLen(), 10)
}

func TestAppendPreservesTail(t *testing.T) {
	b := Alloc(8)
	require.NoError(t, b.PullTail(4))
	require.NoError(t, b.Put([]byte("data")))
	require.NoError(t, b.PutTail([]byte("tail")))
	require.NoError(t, b.Append(4))
	require.Equal(t, 8, b.DataLen())
	require.Equal(t, "data", string(b.Data()[:4]))
	require.Equal(t, "tail", string(b.Tail()))
}

// Clone round-trip law from spec.md §8: identical true/head/data/tail
// lengths and byte-wise equal backing region.
func TestCloneRoundTrip(t *testing.T) {
	b := AllocSized(16)
	require.NoError(t, b.Put([]byte("0123456789abcdef")))
	_, err := b.Pull(3)
	require.NoError(t, err)
	require.NoError(t, b.PushTail(2))

	c := b.Clone()
	require.Equal(t, b.TrueLen(), c.TrueLen())
	require.Equal(t, b.HeadLen(), c.HeadLen())
	require.Equal(t, b.DataLen(), c.DataLen())
	require.Equal(t, b.TailLen(), c.TailLen())
	require.Equal(t, b.mem, c.mem)
}

func TestCopyOnlyPayload(t *testing.T) {
	b := AllocSized(10)
	require.NoError(t, b.Put([]byte("0123456789")))
	_, err := b.Pull(2)
	require.NoError(t, err)
	require.NoError(t, b.PushTail(3))

	c := b.Copy()
	require.Equal(t, b.DataLen(), c.TrueLen())
	require.Equal(t, string(b.Data()), string(c.Data()))
}

func TestSteal(t *testing.T) {
	b := AllocSized(4)
	mem := b.Steal()
	require.Len(t, mem, 4)
	require.Equal(t, 0, b.TrueLen())
	require.Equal(t, 0, b.DataLen())
}

func TestStrchrHitAndMiss(t *testing.T) {
	b := AllocSized(5)
	require.NoError(t, b.Put([]byte("hello")))

	off, ok := b.Strchr('l', true)
	require.True(t, ok)
	require.Equal(t, "llo", string(b.mem[off:b.tailStart]))

	b2 := AllocSized(5)
	require.NoError(t, b2.Put([]byte("hello")))
	before := b2.dataStart
	_, ok = b2.Strchr('z', true)
	require.False(t, ok)
	require.Equal(t, before, b2.dataStart, "buffer must be unmodified on miss")
}

func TestEqualAndMemcmp(t *testing.T) {
	a := AllocSized(3)
	require.NoError(t, a.Put([]byte("abc")))
	b := AllocSized(3)
	require.NoError(t, b.Put([]byte("abc")))
	require.True(t, Equal(a, b))

	require.True(t, a.Memcmp([]byte("abcxyz"), 3))
	require.False(t, a.Memcmp([]byte("abd"), 3))
}

func TestFreeIsNilSafe(t *testing.T) {
	Free(nil)
	b := Alloc(4)
	Free(b)
	require.Equal(t, 0, b.TrueLen())
}
