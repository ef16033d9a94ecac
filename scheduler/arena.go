package scheduler

import "sync"

// Arena pools Task allocations for a Schedule, mirroring hashtable.Arena's
// sync.Pool-backed approach to the optional arena §5 describes ("when an
// arena is passed to hash-table or scheduler construction, every internal
// allocation routes through it"). Unlike the free-task pool (§4.D.5, which
// recycles only timeout tasks and is always present), an Arena is opt-in
// and covers every task kind.
type Arena struct {
	pool sync.Pool
}

func NewArena() *Arena {
	return &Arena{pool: sync.Pool{New: func() any { return new(Task) }}}
}

func (a *Arena) get() *Task {
	t := a.pool.Get().(*Task)
	t.reset()
	return t
}

func (a *Arena) put(t *Task) {
	t.reset()
	a.pool.Put(t)
}
