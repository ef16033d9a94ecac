// Package hashtable implements a chained, collision-resistant hash table
// with duplicate keys allowed, an optional per-entry destructor, automatic
// rehashing, safe iteration, and optional arena-backed allocation, ported
// from original_source/lib/silcutil/silchashtable.c.
//
// Hash and comparison functions are supplied as closures, per spec §9
// ("the user context vanishes since closures capture") — there is no
// separate per-call user-context parameter the way the C API has one.
package hashtable

import (
	"errors"

	"github.com/evcore/evcore/tlsslot"
)

// primeSizes mirrors original_source's primesize[] table exactly: an
// ascending table of bucket counts the table rehashes through.
var primeSizes = []int{
	3, 5, 11, 17, 37, 67, 109, 131, 163, 257, 367, 521, 823, 1031,
	1237, 1447, 2053, 2389, 2777, 3323, 4099, 5059, 6247, 7001, 8209, 10993,
	14057, 16411, 19181, 21089, 25033, 32771, 40009, 47431, 65537, 106721,
	131101, 262147, 360163, 524309, 810343, 1048583, 2097169, 4194319,
	6153409, 8388617, 13845163, 16777259, 33554467, 67108879,
}

// defaultSizeIndex mirrors original_source's SILC_HASH_TABLE_SIZE (2).
const defaultSizeIndex = 2

func primeSizeIndex(size int) int {
	for i, p := range primeSizes {
		if p >= size {
			return i
		}
	}
	return len(primeSizes) - 1
}

var (
	// ErrNotFound is returned (not set as a mutation error) when a lookup
	// or deletion finds no matching entry.
	ErrNotFound = errors.New("hashtable: not found")
)

// HashFunc computes a hash for a key. Caller-supplied, per spec §4.B.
type HashFunc[K any] func(K) uint64

// CompareFunc reports whether two keys are equal. If absent at
// construction, reference identity (via the default Go == on comparable
// keys) is used, matching "identity of the key reference" in spec §4.B.
type CompareFunc[K any] func(a, b K) bool

// DestructorFunc is invoked on a (key, value) pair when it is removed by
// Set (replacing a match), Del or DelByContext, and when the table is freed.
type DestructorFunc[K, V any] func(K, V)

type entry[K, V any] struct {
	key   K
	value V
}

// Table is a chained hash table permitting duplicate keys.
type Table[K, V any] struct {
	buckets    [][]*entry[K, V]
	sizeIndex  int
	entryCount int

	hash        HashFunc[K]
	compare     CompareFunc[K]
	destructor  DestructorFunc[K, V]
	autoRehash  bool
	arena       *Arena[K, V]
	rehashing   bool
}

// Option configures a Table at construction, following the teacher's own
// functional-option pattern (eventloop's LoopOption/WithStrictMicrotaskOrdering).
type Option[K, V any] func(*Table[K, V])

// WithCompare installs an explicit key-comparison function.
func WithCompare[K, V any](cmp CompareFunc[K]) Option[K, V] {
	return func(t *Table[K, V]) { t.compare = cmp }
}

// WithDestructor installs a per-entry destructor, invoked on replacement
// or removal.
func WithDestructor[K, V any](d DestructorFunc[K, V]) Option[K, V] {
	return func(t *Table[K, V]) { t.destructor = d }
}

// WithAutoRehash enables or disables automatic rehashing on mutation
// (default: enabled).
func WithAutoRehash[K, V any](enabled bool) Option[K, V] {
	return func(t *Table[K, V]) { t.autoRehash = enabled }
}

// WithBucketHint suggests an initial bucket count; the table rounds up to
// the next prime in primeSizes.
func WithBucketHint[K, V any](hint int) Option[K, V] {
	return func(t *Table[K, V]) { t.sizeIndex = primeSizeIndex(hint) }
}

// WithArena routes entry allocation through the given arena; Del and Free
// on the table release entries back to it. Bucket arrays are not drawn
// from the arena; they are allocated with make.
func WithArena[K, V any](a *Arena[K, V]) Option[K, V] {
	return func(t *Table[K, V]) { t.arena = a }
}

// New constructs a hash table using hash as the hash function, and
// applies opts. autoRehash defaults to true.
func New[K, V any](hash HashFunc[K], opts ...Option[K, V]) *Table[K, V] {
	t := &Table[K, V]{
		hash:       hash,
		sizeIndex:  defaultSizeIndex,
		autoRehash: true,
	}
	for _, o := range opts {
		o(t)
	}
	t.buckets = make([][]*entry[K, V], primeSizes[t.sizeIndex])
	return t
}

func (t *Table[K, V]) keysEqual(a, b K) bool {
	if t.compare != nil {
		return t.compare(a, b)
	}
	return any(a) == any(b)
}

func (t *Table[K, V]) bucketIndex(k K) int {
	return int(t.hash(k) % uint64(len(t.buckets)))
}

func (t *Table[K, V]) newEntry(k K, v V) *entry[K, V] {
	if t.arena != nil {
		return t.arena.getEntry(k, v)
	}
	return &entry[K, V]{key: k, value: v}
}

func (t *Table[K, V]) releaseEntry(e *entry[K, V]) {
	if t.destructor != nil {
		t.destructor(e.key, e.value)
	}
	if t.arena != nil {
		t.arena.putEntry(e)
	}
}

// EntryCount returns the number of live entries.
func (t *Table[K, V]) EntryCount() int { return t.entryCount }

// BucketCount returns the current number of buckets.
func (t *Table[K, V]) BucketCount() int { return len(t.buckets) }

// Add inserts (k, v), appending to the bucket chain's tail so that chain
// iteration order is insertion order. Duplicate keys are permitted.
func (t *Table[K, V]) Add(k K, v V) error {
	idx := t.bucketIndex(k)
	e := t.newEntry(k, v)
	t.buckets[idx] = append(t.buckets[idx], e)
	t.entryCount++
	t.maybeRehash()
	return nil
}

// Set replaces the first matching entry's value, invoking the destructor
// on the replaced pair, or inserts (k, v) if no match exists.
func (t *Table[K, V]) Set(k K, v V) error {
	idx := t.bucketIndex(k)
	for _, e := range t.buckets[idx] {
		if t.keysEqual(e.key, k) {
			old := e.value
			e.value = v
			if t.destructor != nil {
				t.destructor(e.key, old)
			}
			return nil
		}
	}
	return t.Add(k, v)
}

// Find returns the earliest-inserted entry matching k.
func (t *Table[K, V]) Find(k K) (K, V, bool) {
	idx := t.bucketIndex(k)
	for _, e := range t.buckets[idx] {
		if t.keysEqual(e.key, k) {
			return e.key, e.value, true
		}
	}
	tlsslot.SetError(tlsslot.NotFound, ErrNotFound.Error())
	var zk K
	var zv V
	return zk, zv, false
}

// FindByContext returns the unique entry whose key AND value both match
// via the equals function (for value, reference/deep equality is caller's
// responsibility through eq).
func (t *Table[K, V]) FindByContext(k K, v V, eq func(a, b V) bool) (K, bool) {
	idx := t.bucketIndex(k)
	for _, e := range t.buckets[idx] {
		if t.keysEqual(e.key, k) && eq(e.value, v) {
			return e.key, true
		}
	}
	tlsslot.SetError(tlsslot.NotFound, ErrNotFound.Error())
	var zk K
	return zk, false
}

// FindForeach invokes cb once per matching entry; if none match, invokes
// cb(k, zero, false) exactly once.
func (t *Table[K, V]) FindForeach(k K, cb func(key K, value V, ok bool)) {
	idx := t.bucketIndex(k)
	found := false
	// Snapshot the chain so cb may mutate the table (e.g. Del) safely.
	chain := append([]*entry[K, V](nil), t.buckets[idx]...)
	for _, e := range chain {
		if t.keysEqual(e.key, k) {
			found = true
			cb(e.key, e.value, true)
		}
	}
	if !found {
		var zv V
		cb(k, zv, false)
	}
}

// Foreach invokes cb once per live entry in unspecified order, suppressing
// auto-rehash for the duration and tolerating cb deleting the current
// entry (the chain's next pointer is snapshotted ahead of the callback).
func (t *Table[K, V]) Foreach(cb func(key K, value V)) {
	prevAuto := t.autoRehash
	t.autoRehash = false
	defer func() { t.autoRehash = prevAuto }()

	for idx := range t.buckets {
		chain := append([]*entry[K, V](nil), t.buckets[idx]...)
		for _, e := range chain {
			cb(e.key, e.value)
		}
	}
}

// Del removes the first matching entry for k.
func (t *Table[K, V]) Del(k K) error {
	idx := t.bucketIndex(k)
	chain := t.buckets[idx]
	for i, e := range chain {
		if t.keysEqual(e.key, k) {
			t.buckets[idx] = append(chain[:i:i], chain[i+1:]...)
			t.releaseEntry(e)
			t.entryCount--
			t.maybeRehash()
			return nil
		}
	}
	tlsslot.SetError(tlsslot.NotFound, ErrNotFound.Error())
	return ErrNotFound
}

// DelByContext removes the entry matching both k and v (via eq).
func (t *Table[K, V]) DelByContext(k K, v V, eq func(a, b V) bool) error {
	idx := t.bucketIndex(k)
	chain := t.buckets[idx]
	for i, e := range chain {
		if t.keysEqual(e.key, k) && eq(e.value, v) {
			t.buckets[idx] = append(chain[:i:i], chain[i+1:]...)
			t.releaseEntry(e)
			t.entryCount--
			t.maybeRehash()
			return nil
		}
	}
	tlsslot.SetError(tlsslot.NotFound, ErrNotFound.Error())
	return ErrNotFound
}

// Free releases every entry (invoking destructors) and, if an arena is
// attached, returns the entries to it. The bucket array is not returned
// to the arena.
func (t *Table[K, V]) Free() {
	t.Foreach(func(K, V) {})
	for idx, chain := range t.buckets {
		for _, e := range chain {
			t.releaseEntry(e)
		}
		t.buckets[idx] = nil
	}
	t.entryCount = 0
}

// maybeRehash checks the grow/shrink thresholds from spec §3 and rehashes
// to the next suitable prime if triggered. Auto-rehash is suppressed
// during the rehash itself to prevent recursion, matching
// original_source's SILC_HASH_TABLE_REHASH_GROW/SHRINK macros.
func (t *Table[K, V]) maybeRehash() {
	if !t.autoRehash || t.rehashing {
		return
	}
	bucketCount := len(t.buckets)
	grow := t.entryCount > 2*bucketCount
	shrink := t.entryCount*2 < bucketCount && t.entryCount > primeSizes[defaultSizeIndex]
	if !grow && !shrink {
		return
	}
	t.rehash(primeSizeIndex(t.entryCount))
}

// Rehash forces a rehash to the smallest prime in primeSizes not below
// newSize, regardless of auto-rehash thresholds.
func (t *Table[K, V]) Rehash(newSize int) {
	t.rehash(primeSizeIndex(newSize))
}

func (t *Table[K, V]) rehash(newIndex int) {
	if newIndex == t.sizeIndex {
		return
	}
	t.rehashing = true
	defer func() { t.rehashing = false }()

	old := t.buckets
	t.sizeIndex = newIndex
	t.buckets = make([][]*entry[K, V], primeSizes[newIndex])
	t.entryCount = 0

	for _, chain := range old {
		for _, e := range chain {
			idx := t.bucketIndex(e.key)
			t.buckets[idx] = append(t.buckets[idx], e)
			t.entryCount++
		}
	}
}

// Iterator walks every live entry. It suppresses auto-rehash for its
// duration, matching Foreach's safety contract.
type Iterator[K, V any] struct {
	t        *Table[K, V]
	bucket   int
	pos      int
	chain    []*entry[K, V]
	prevAuto bool
	done     bool
}

// ListBegin starts a new safe iteration over t.
func (t *Table[K, V]) ListBegin() *Iterator[K, V] {
	it := &Iterator[K, V]{t: t, prevAuto: t.autoRehash}
	t.autoRehash = false
	return it
}

// ListNext advances the iterator, returning the next (key, value) pair,
// or ok == false once exhausted.
func (it *Iterator[K, V]) ListNext() (key K, value V, ok bool) {
	if it.done {
		return key, value, false
	}
	for it.bucket < len(it.t.buckets) {
		if it.pos == 0 {
			// Snapshot the chain so the caller may delete the returned entry.
			it.chain = append([]*entry[K, V](nil), it.t.buckets[it.bucket]...)
		}
		if it.pos < len(it.chain) {
			e := it.chain[it.pos]
			it.pos++
			return e.key, e.value, true
		}
		it.bucket++
		it.pos = 0
	}
	it.done = true
	return key, value, false
}

// ListEnd finishes the iteration, restoring the prior auto-rehash
// setting.
func (it *Iterator[K, V]) ListEnd() {
	if it.t != nil {
		it.t.autoRehash = it.prevAuto
		it.t = nil
	}
	it.done = true
}
