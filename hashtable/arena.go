package hashtable

import "sync"

// Arena pools entry allocations for a Table, the idiomatic Go substitute
// for the bump/slab allocator original_source optionally attaches to a
// hash table. Go's GC makes a true bump allocator both unsafe and
// pointless; a sync.Pool of entries gives the same benefit (fewer
// allocator round-trips under churn) without unsafe code, following the
// teacher's own chunkPool pattern (eventloop/ingress.go).
type Arena[K, V any] struct {
	pool sync.Pool
}

// NewArena constructs an empty entry arena.
func NewArena[K, V any]() *Arena[K, V] {
	return &Arena[K, V]{
		pool: sync.Pool{
			New: func() any { return new(entry[K, V]) },
		},
	}
}

func (a *Arena[K, V]) getEntry(k K, v V) *entry[K, V] {
	e := a.pool.Get().(*entry[K, V])
	e.key = k
	e.value = v
	return e
}

func (a *Arena[K, V]) putEntry(e *entry[K, V]) {
	var zk K
	var zv V
	e.key = zk
	e.value = zv
	a.pool.Put(e)
}
