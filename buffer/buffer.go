// Package buffer implements a zero-copy segmented byte buffer: a single
// contiguous memory region partitioned into head/data/tail regions with
// cursor operations (pull/push) over those boundaries, ported from
// original_source/lib/silcutil/silcbuffer.h.
//
// A buffer never reallocates implicitly on Pull/Push; growth only happens
// through the explicit Realloc/Enlarge/Append operations.
package buffer

import (
	"errors"

	"github.com/evcore/evcore/tlsslot"
)

// Standard errors. Every fallible operation returns one of these (or wraps
// one) AND records the matching tlsslot.ErrCode, per the core's dual error
// signalling contract.
var (
	ErrOverflow   = errors.New("buffer: cursor operation would overflow region")
	ErrInvalid    = errors.New("buffer: invalid argument")
	ErrShrinkFits = errors.New("buffer: payload does not fit new size")
)

func fail(code tlsslot.ErrCode, err error) error {
	tlsslot.SetError(code, err.Error())
	return err
}

// Buffer owns a contiguous byte region of TrueLen() bytes and four offsets
// into it: headStart <= dataStart <= tailStart <= end. The invariant holds
// after every operation that returns a nil error.
type Buffer struct {
	mem        []byte
	headStart  int
	dataStart  int
	tailStart  int
	end        int
}

// Alloc allocates a buffer with the requested capacity and an empty
// payload positioned at offset 0 (headStart == dataStart == tailStart == 0).
func Alloc(capacity int) *Buffer {
	return &Buffer{mem: make([]byte, capacity), end: capacity}
}

// AllocSized allocates a buffer whose payload already occupies the full
// capacity (tailStart == end).
func AllocSized(capacity int) *Buffer {
	return &Buffer{mem: make([]byte, capacity), tailStart: capacity, end: capacity}
}

// Free releases the backing memory. A nil buffer is a no-op. Go's GC
// reclaims the slice regardless; Free exists for contract parity and to
// make use-after-free detectable in debug builds by nilling the backing
// slice, matching the original's "freed buffers are poisoned" intent.
func Free(b *Buffer) {
	if b == nil {
		return
	}
	b.mem = nil
	b.headStart, b.dataStart, b.tailStart, b.end = 0, 0, 0, 0
}

// TrueLen returns the total backing capacity.
func (b *Buffer) TrueLen() int { return len(b.mem) }

// HeadLen returns the size of the head reserve.
func (b *Buffer) HeadLen() int { return b.dataStart - b.headStart }

// DataLen returns the size of the logical payload.
func (b *Buffer) DataLen() int { return b.tailStart - b.dataStart }

// TailLen returns the size of the tail reserve.
func (b *Buffer) TailLen() int { return b.end - b.tailStart }

// Data returns the payload slice [dataStart, tailStart). The slice aliases
// the buffer's backing memory; callers must not retain it past the next
// mutating call.
func (b *Buffer) Data() []byte { return b.mem[b.dataStart:b.tailStart] }

// Head returns the head reserve slice [headStart, dataStart).
func (b *Buffer) Head() []byte { return b.mem[b.headStart:b.dataStart] }

// Tail returns the tail reserve slice [tailStart, end).
func (b *Buffer) Tail() []byte { return b.mem[b.tailStart:b.end] }

// Reset sets dataStart = tailStart = headStart, retaining the memory and
// its contents.
func (b *Buffer) Reset() {
	b.dataStart = b.headStart
	b.tailStart = b.headStart
}

// Clear zeroes all TrueLen bytes, then resets.
func (b *Buffer) Clear() {
	for i := range b.mem {
		b.mem[i] = 0
	}
	b.Reset()
}

// Pull advances dataStart by n, consuming a header prefix of the payload.
// It fails with ErrOverflow if n > DataLen(). Returns the old dataStart.
func (b *Buffer) Pull(n int) (int, error) {
	if n < 0 || n > b.DataLen() {
		return 0, fail(tlsslot.Overflow, ErrOverflow)
	}
	old := b.dataStart
	b.dataStart += n
	return old, nil
}

// Push retreats dataStart by n, the symmetric inverse of Pull. It fails
// with ErrOverflow if n > HeadLen().
func (b *Buffer) Push(n int) error {
	if n < 0 || n > b.HeadLen() {
		return fail(tlsslot.Overflow, ErrOverflow)
	}
	b.dataStart -= n
	return nil
}

// PullTail advances tailStart by n, growing the payload at its trailing
// edge into the tail reserve. It fails with ErrOverflow if n > TailLen().
func (b *Buffer) PullTail(n int) error {
	if n < 0 || n > b.TailLen() {
		return fail(tlsslot.Overflow, ErrOverflow)
	}
	b.tailStart += n
	return nil
}

// PushTail retreats tailStart by n, shrinking the payload at its trailing
// edge. It fails with ErrOverflow if n > DataLen().
func (b *Buffer) PushTail(n int) error {
	if n < 0 || n > b.DataLen() {
		return fail(tlsslot.Overflow, ErrOverflow)
	}
	b.tailStart -= n
	return nil
}

// PutHead copies src into the head region, starting at headStart. It
// fails with ErrOverflow if len(src) exceeds HeadLen().
func (b *Buffer) PutHead(src []byte) error {
	if len(src) > b.HeadLen() {
		return fail(tlsslot.Overflow, ErrOverflow)
	}
	copy(b.mem[b.headStart:b.dataStart], src)
	return nil
}

// Put copies src into the payload region, starting at dataStart. It fails
// with ErrOverflow if len(src) exceeds DataLen().
func (b *Buffer) Put(src []byte) error {
	if len(src) > b.DataLen() {
		return fail(tlsslot.Overflow, ErrOverflow)
	}
	copy(b.mem[b.dataStart:b.tailStart], src)
	return nil
}

// PutTail copies src into the tail region, starting at tailStart. It
// fails with ErrOverflow if len(src) exceeds TailLen().
func (b *Buffer) PutTail(src []byte) error {
	if len(src) > b.TailLen() {
		return fail(tlsslot.Overflow, ErrOverflow)
	}
	copy(b.mem[b.tailStart:b.end], src)
	return nil
}

// Realloc changes TrueLen, preserving HeadLen and DataLen; the tail may
// grow or be truncated. Callers must ensure the payload still fits when
// shrinking, or the operation fails with ErrShrinkFits.
func (b *Buffer) Realloc(newSize int) error {
	if newSize < 0 {
		return fail(tlsslot.InvalidArgument, ErrInvalid)
	}
	if newSize < b.tailStart {
		return fail(tlsslot.Overflow, ErrShrinkFits)
	}

	newMem := make([]byte, newSize)
	copyLen := b.tailStart
	if copyLen > len(b.mem) {
		copyLen = len(b.mem)
	}
	copy(newMem, b.mem[:copyLen])
	b.mem = newMem
	b.end = newSize
	return nil
}

// Enlarge ensures DataLen() >= minData: first growing TrueLen if the tail
// doesn't already have enough room, then pulling the tail forward by the
// shortfall, mirroring silc_buffer_enlarge's two-step realloc-then-
// pull_tail sequence.
func (b *Buffer) Enlarge(minData int) error {
	if minData <= b.DataLen() {
		return nil
	}
	need := minData - b.DataLen()
	if need > b.TailLen() {
		if err := b.Realloc(b.TrueLen() + (need - b.TailLen())); err != nil {
			return err
		}
	}
	b.tailStart += need
	return nil
}

// Append grows capacity by n and extends DataLen by n while preserving
// tail contents (the tail slides to make room).
func (b *Buffer) Append(n int) error {
	if n < 0 {
		return fail(tlsslot.InvalidArgument, ErrInvalid)
	}
	tail := append([]byte(nil), b.Tail()...)
	if err := b.Realloc(b.TrueLen() + n); err != nil {
		return err
	}
	copy(b.mem[b.tailStart+n:], tail)
	b.tailStart += n
	return nil
}

// Copy returns a new buffer of size DataLen() containing only the
// payload.
func (b *Buffer) Copy() *Buffer {
	n := b.DataLen()
	out := Alloc(n)
	copy(out.mem, b.Data())
	out.tailStart = n
	out.end = n
	return out
}

// Clone returns a new buffer of size TrueLen() containing the full region
// with identical offsets.
func (b *Buffer) Clone() *Buffer {
	out := &Buffer{
		mem:       make([]byte, len(b.mem)),
		headStart: b.headStart,
		dataStart: b.dataStart,
		tailStart: b.tailStart,
		end:       b.end,
	}
	copy(out.mem, b.mem)
	return out
}

// Steal detaches the backing memory, returning it (its length is the
// buffer's former TrueLen), and nullifies all offsets. The caller owns the
// returned memory.
func (b *Buffer) Steal() []byte {
	mem := b.mem
	b.mem = nil
	b.headStart, b.dataStart, b.tailStart, b.end = 0, 0, 0, 0
	return mem
}

// Strchr scans only the payload for needle. On a hit it advances
// dataStart to the hit position and returns (offset, true); on a miss it
// leaves the buffer unmodified and returns (0, false).
//
// fromFront selects scan direction: true scans dataStart -> tailStart,
// false scans tailStart-1 -> dataStart. The original C implementation's
// reverse-scan loop condition is flagged in spec §9 as suspiciously
// non-terminating on miss; this implementation always terminates and
// always returns false on an absent byte, per the documented contract.
func (b *Buffer) Strchr(needle byte, fromFront bool) (int, bool) {
	payload := b.Data()
	if fromFront {
		for i := 0; i < len(payload); i++ {
			if payload[i] == needle {
				b.dataStart += i
				return b.dataStart, true
			}
		}
		return 0, false
	}
	for i := len(payload) - 1; i >= 0; i-- {
		if payload[i] == needle {
			b.dataStart += i
			return b.dataStart, true
		}
	}
	return 0, false
}

// Equal reports whether a and b have byte-equal payloads.
func Equal(a, b *Buffer) bool {
	return string(a.Data()) == string(b.Data())
}

// Memcmp reports whether the first n bytes of the buffer's payload equal
// the first n bytes of src, or false if src is shorter than n or the
// buffer's payload is shorter than n. Payload bytes beyond n are not
// compared.
func (b *Buffer) Memcmp(src []byte, n int) bool {
	if n < 0 || n > len(src) || n > b.DataLen() {
		return false
	}
	payload := b.Data()
	for i := 0; i < n; i++ {
		if payload[i] != src[i] {
			return false
		}
	}
	return true
}
