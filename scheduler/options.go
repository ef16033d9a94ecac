package scheduler

// Option configures a Schedule at construction, following the teacher's
// LoopOption/resolveLoopOptions functional-option pattern (eventloop/options.go).
type Option func(*config)

type config struct {
	parent   *Schedule
	logger   *Logger
	notify   NotifyFunc
	notifyCx any
	arena    *Arena
}

// NotifyFunc is invoked once per task addition, removal, or event-mask
// change while the schedule lock is held; it MUST NOT call back into the
// schedule (spec §4.D.1 set_notify).
type NotifyFunc func(ctx any, s *Schedule, t *Task, kind NotifyKind)

// NotifyKind distinguishes the three notify events.
type NotifyKind int

const (
	NotifyAdd NotifyKind = iota
	NotifyRemove
	NotifyEventMaskChange
)

// WithParent shares the parent's event map; the new schedule owns its own
// fd_map, timeout_queue, and platform state.
func WithParent(parent *Schedule) Option {
	return func(c *config) { c.parent = parent }
}

// WithLogger installs a structured logger (default: a no-op logger).
func WithLogger(l *Logger) Option {
	return func(c *config) { c.logger = l }
}

// WithNotify installs a notify hook invoked on every task mutation.
func WithNotify(ctx any, fn NotifyFunc) Option {
	return func(c *config) { c.notify = fn; c.notifyCx = ctx }
}

// WithArena routes every task allocation through a, instead of the plain
// heap; see Arena's doc comment.
func WithArena(a *Arena) Option {
	return func(c *config) { c.arena = a }
}

func resolveOptions(opts []Option) *config {
	c := &config{}
	for _, o := range opts {
		if o != nil {
			o(c)
		}
	}
	if c.logger == nil {
		c.logger = defaultLogger()
	}
	return c
}
