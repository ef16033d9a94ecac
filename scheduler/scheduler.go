// Package scheduler implements the reactor core: a single-threaded dispatch
// loop multiplexing descriptor readiness, timer expirations, OS signals, and
// in-process named events into one ordered stream of task callbacks.
package scheduler

import (
	"reflect"
	"sync"
	"sync/atomic"
	"time"

	"github.com/evcore/evcore/tlsslot"
)

const (
	gcInterval         = time.Hour
	gcFreeListMin      = 10
	timeoutDispatchCap = 40
	fastDispatchWindow = 50 * time.Millisecond
	eventDelDelay      = time.Microsecond
)

// Schedule is one reactor instance: a root ("parent") owns its event map,
// children share it while keeping their own descriptor map, timer queue,
// and platform state, per spec §3's Schedule data model.
type Schedule struct {
	mu sync.Mutex

	parent    *Schedule
	fdMap     map[int]*Task
	timeouts  *timerQueue
	freePool  []*Task
	eventMap  map[string]*Task // non-nil only on a parent
	signalMap map[int]*Task

	notify    NotifyFunc
	notifyCtx any

	platform platform
	arena    *Arena
	logger   *Logger

	valid            bool
	hasPendingSignal atomic.Bool
	running          atomic.Bool

	maxDescriptors int
	appContext     any

	gcTask *Task
}

// New constructs a schedule. maxDescriptors bounds the live FD task count;
// zero means unbounded. Passing WithParent(p) shares p's event map.
func New(maxDescriptors int, appContext any, opts ...Option) (*Schedule, error) {
	c := resolveOptions(opts)

	s := &Schedule{
		parent:         c.parent,
		fdMap:          make(map[int]*Task),
		timeouts:       newTimerQueue(),
		signalMap:      make(map[int]*Task),
		notify:         c.notify,
		notifyCtx:      c.notifyCx,
		arena:          c.arena,
		logger:         c.logger,
		valid:          true,
		maxDescriptors: maxDescriptors,
		appContext:     appContext,
	}
	if s.parent == nil {
		s.eventMap = make(map[string]*Task)
	}

	s.platform = newPlatform()
	if err := s.platform.init(s); err != nil {
		return nil, failWrap("init", tlsslot.Err, err)
	}

	gc, err := s.taskAddTimeoutLocked(func(*Task, any) { s.gcFreePool() }, nil, gcInterval, true)
	if err != nil {
		_ = s.platform.uninit()
		return nil, err
	}
	s.gcTask = gc

	s.logger.Debug().Int("max_descriptors", maxDescriptors).Log("schedule initialized")
	return s, nil
}

func (s *Schedule) getParent() *Schedule {
	if s.parent != nil {
		return s.parent
	}
	return s
}

func (s *Schedule) notifyLocked(t *Task, kind NotifyKind) {
	if s.notify != nil {
		s.notify(s.notifyCtx, s, t, kind)
	}
}

// Uninit tears the schedule down: valid only after Stop has taken effect.
// Dispatches every pending timeout regardless of deadline, delivers pending
// signals, removes all remaining tasks, releases platform state.
func (s *Schedule) Uninit() error {
	s.mu.Lock()
	if s.valid {
		s.mu.Unlock()
		return fail("uninit", tlsslot.NotValid, "schedule still running")
	}

	s.mu.Unlock()
	s.platform.signalsCall(s.dispatchSignal)

	for {
		s.mu.Lock()
		empty := s.timeouts.Len() == 0
		s.mu.Unlock()
		if empty {
			break
		}
		s.dispatchTimeouts(true)
	}

	s.mu.Lock()
	for _, t := range s.fdMap {
		t.valid = false
	}
	s.fdMap = make(map[int]*Task)

	for _, t := range s.signalMap {
		t.valid = false
		_ = s.platform.signalUnregister(t.signo)
	}
	s.signalMap = make(map[int]*Task)

	if s.eventMap != nil {
		s.eventMap = make(map[string]*Task)
	}

	s.mu.Unlock()
	return s.platform.uninit()
}

// Stop requests the loop exit at the next iteration boundary. Non-blocking.
func (s *Schedule) Stop() {
	s.mu.Lock()
	s.valid = false
	s.mu.Unlock()
	s.platform.wakeup()
}

// Wakeup forces a blocked platform wait to return promptly; used by other
// goroutines after mutating the schedule so the loop observes the change.
func (s *Schedule) Wakeup() {
	s.platform.wakeup()
}

// markPendingSignal is the hook platform adapters call from their signal
// watcher when an OS signal is delivered.
func (s *Schedule) markPendingSignal() {
	s.hasPendingSignal.Store(true)
}

func (s *Schedule) dispatchSignal(signo int) {
	s.mu.Lock()
	t := s.signalMap[signo]
	s.mu.Unlock()
	if t == nil || !t.valid || t.signalCallback == nil {
		return
	}
	t.signalCallback(t, signo, t.signalContext)
}

// Run blocks, running iterations until the schedule is stopped.
func (s *Schedule) Run() error {
	for {
		ok, err := s.RunOne(-1)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
	}
}

// RunOne runs exactly one iteration of the dispatch loop (spec §4.D.2). A
// negative timeout lets the loop compute its own wait from the timer
// queue; a non-negative timeout replaces the computed wait. Returns false once the
// schedule has been stopped.
func (s *Schedule) RunOne(timeout time.Duration) (bool, error) {
	s.mu.Lock()

	if s.hasPendingSignal.Swap(false) {
		s.mu.Unlock()
		s.platform.signalsCall(s.dispatchSignal)
		s.mu.Lock()
	}

	if !s.valid {
		s.mu.Unlock()
		return false, nil
	}

	wait, err := s.nextWaitLocked()
	if err != nil {
		s.mu.Unlock()
		return false, err
	}

	if !s.valid {
		s.mu.Unlock()
		return false, nil
	}

	if timeout >= 0 {
		wait = timeout
	}

	s.mu.Unlock()

	outcome, ready, err := s.platform.wait(wait)
	if err != nil {
		return false, failWrap("wait", tlsslot.Err, err)
	}

	switch outcome {
	case WaitTimeout:
		s.dispatchTimeouts(false)
	case WaitReady:
		s.dispatchFDs(ready)
		if wait < fastDispatchWindow {
			s.dispatchTimeouts(false)
		}
	case WaitInterrupted:
		// no state change; loop again
	case WaitShutdown:
		return false, nil
	}

	return true, nil
}

// nextWaitLocked walks the timeout queue discarding invalidated entries
// and dispatching matured ones, returning the wait until the next
// deadline. Must be called with s.mu held; re-locks internally while
// dispatching.
func (s *Schedule) nextWaitLocked() (time.Duration, error) {
	for {
		head := s.timeouts.peek()
		if head == nil {
			return -1, nil
		}
		if !head.valid {
			s.timeouts.remove(head)
			s.releaseTimeoutLocked(head)
			continue
		}

		now := time.Now()
		if !head.deadline.After(now) {
			s.mu.Unlock()
			s.dispatchTimeouts(false)
			s.mu.Lock()
			if !s.valid {
				return 0, nil
			}
			continue
		}

		return head.deadline.Sub(now), nil
	}
}

// dispatchFDs is the FD dispatch phase (spec §4.D.3): snapshot the ready
// set, invoke callbacks with no lock held (READ before WRITE per
// descriptor), then reacquire and sweep invalidated entries.
func (s *Schedule) dispatchFDs(ready []ReadyFD) {
	type dispatchEntry struct {
		task   *Task
		events FDEvent
	}

	s.mu.Lock()
	snapshot := make([]dispatchEntry, 0, len(ready))
	for _, r := range ready {
		t := s.fdMap[r.FD]
		if t == nil || !t.valid {
			continue
		}
		t.readyEvents = r.Events
		snapshot = append(snapshot, dispatchEntry{task: t, events: r.Events})
	}
	s.mu.Unlock()

	for _, e := range snapshot {
		t := e.task
		if e.events&EventRead != 0 && t.valid {
			t.fdCallback(t, EventRead, t.fdContext)
		}
		if t.valid && e.events&EventWrite != 0 {
			t.fdCallback(t, EventWrite, t.fdContext)
		}
	}

	s.mu.Lock()
	for fd, t := range s.fdMap {
		if !t.valid {
			delete(s.fdMap, fd)
			_ = s.platform.unscheduleFD(fd)
		}
	}
	s.mu.Unlock()
}

// dispatchTimeouts is the timeout dispatch phase (spec §4.D.3): walk the
// queue head to tail, releasing invalidated entries and firing matured
// ones, capped at timeoutDispatchCap entries per call. all forces every
// entry regardless of deadline (used by Uninit).
func (s *Schedule) dispatchTimeouts(all bool) {
	s.mu.Lock()
	now := time.Now()
	dispatched := 0
	for dispatched < timeoutDispatchCap {
		head := s.timeouts.peek()
		if head == nil {
			break
		}
		if !head.valid {
			s.timeouts.remove(head)
			s.releaseTimeoutLocked(head)
			continue
		}
		if !all && head.deadline.After(now) {
			break
		}

		s.timeouts.remove(head)
		head.valid = false
		cb, ctx := head.timeoutCallback, head.timeoutContext
		s.mu.Unlock()

		if cb != nil {
			cb(head, ctx)
		}
		dispatched++

		s.mu.Lock()
		s.releaseTimeoutLocked(head)
	}
	s.mu.Unlock()
}

// TaskAddFD registers a descriptor task requesting READ readiness only.
// Any task already registered for the same fd in fd_map, invalidated or
// live, is removed first, since descriptors are unique keys.
func (s *Schedule) TaskAddFD(fd int, cb FDCallback, ctx any) (*Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.valid {
		return nil, fail("task_add_fd", tlsslot.NotValid, "schedule stopped")
	}
	if _, ok := s.fdMap[fd]; ok {
		delete(s.fdMap, fd)
	}
	if s.maxDescriptors > 0 && len(s.fdMap) >= s.maxDescriptors {
		return nil, fail("task_add_fd", tlsslot.Limit, "max_descriptors exceeded")
	}

	t := s.newTask(KindFD)
	t.fd = fd
	t.requestedEvents = EventRead
	t.fdCallback = cb
	t.fdContext = ctx

	if err := s.platform.scheduleFD(fd, t.requestedEvents); err != nil {
		s.releaseTask(t)
		return nil, failWrap("task_add_fd", tlsslot.Err, err)
	}

	s.fdMap[fd] = t
	s.notifyLocked(t, NotifyAdd)
	return t, nil
}

// TaskAddTimeout schedules a one-shot timeout d from now.
func (s *Schedule) TaskAddTimeout(cb TimeoutCallback, ctx any, d time.Duration) (*Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.taskAddTimeoutLocked(cb, ctx, d, false)
}

func (s *Schedule) taskAddTimeoutLocked(cb TimeoutCallback, ctx any, d time.Duration, internal bool) (*Task, error) {
	if !s.valid {
		return nil, fail("task_add_timeout", tlsslot.NotValid, "schedule stopped")
	}

	t := s.newTimeoutTask()
	t.deadline = time.Now().Add(d)
	t.timeoutCallback = cb
	t.timeoutContext = ctx

	s.timeouts.insert(t)
	if !internal {
		s.notifyLocked(t, NotifyAdd)
	}
	return t, nil
}

// TaskAddSignal registers signo for delivery; idempotent — re-registering
// the same signal updates the existing task's callback/context rather
// than creating a second registration.
func (s *Schedule) TaskAddSignal(signo int, cb SignalCallback, ctx any) (*Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.valid {
		return nil, fail("task_add_signal", tlsslot.NotValid, "schedule stopped")
	}

	if t, ok := s.signalMap[signo]; ok {
		t.signalCallback = cb
		t.signalContext = ctx
		return t, nil
	}

	if err := s.platform.signalRegister(signo); err != nil {
		return nil, failWrap("task_add_signal", tlsslot.Err, err)
	}

	t := s.newTask(KindSignal)
	t.signo = signo
	t.signalCallback = cb
	t.signalContext = ctx
	s.signalMap[signo] = t
	s.notifyLocked(t, NotifyAdd)
	return t, nil
}

// TaskAddEvent registers a new named broadcaster in the family's event
// map (the parent's, via getParent). paramSchema optionally declares the
// argument types EventSignal must supply for this event; a nil/empty
// schema leaves args unchecked. Fails with ErrExists if name is already
// taken.
func (s *Schedule) TaskAddEvent(name string, paramSchema ...reflect.Type) (*Task, error) {
	root := s.getParent()
	root.mu.Lock()
	defer root.mu.Unlock()

	if !root.valid {
		return nil, fail("task_add_event", tlsslot.NotValid, "schedule stopped")
	}
	if _, ok := root.eventMap[name]; ok {
		return nil, fail("task_add_event", tlsslot.AlreadyExists, name)
	}

	t := root.newTask(KindEvent)
	t.name = name
	t.paramSchema = paramSchema
	root.eventMap[name] = t
	root.notifyLocked(t, NotifyAdd)
	return t, nil
}

// Connection is the handle returned by EventConnect, passed to
// EventDisconnect to remove exactly that subscription.
type Connection struct {
	conn *connection
	task *Task
}

// EventConnect subscribes (cb, ctx) to the named event, recording s as the
// subscription's owner. cb is not run by s's loop: EventSignal invokes it
// synchronously on whichever goroutine signals the event.
func (s *Schedule) EventConnect(name string, cb EventCallback, ctx any) (*Connection, error) {
	root := s.getParent()
	root.mu.Lock()
	defer root.mu.Unlock()

	t, ok := root.eventMap[name]
	if !ok || !t.valid {
		return nil, fail("event_connect", tlsslot.NotFound, name)
	}

	c := &connection{owner: s, callback: cb, context: ctx}
	t.connections = append(t.connections, c)
	return &Connection{conn: c, task: t}, nil
}

// EventDisconnect removes exactly the subscription c identifies.
func (s *Schedule) EventDisconnect(c *Connection) error {
	root := s.getParent()
	root.mu.Lock()
	defer root.mu.Unlock()

	for i, sub := range c.task.connections {
		if sub == c.conn {
			c.task.connections = append(c.task.connections[:i], c.task.connections[i+1:]...)
			return nil
		}
	}
	return fail("event_disconnect", tlsslot.NotFound, "connection")
}

// EventSignal fans args out to name's subscribers in registration order,
// synchronously, on the calling goroutine. Delivery stops early if a
// subscriber returns false or the event task is invalidated mid-walk. If
// the event was declared with a param_schema at task_add_event, args must
// match it in count and assignability or the call fails without
// dispatching anything.
func (s *Schedule) EventSignal(name string, args ...any) error {
	root := s.getParent()
	root.mu.Lock()

	t, ok := root.eventMap[name]
	if !ok {
		root.mu.Unlock()
		return fail("event_signal", tlsslot.NotFound, name)
	}
	if err := checkEventArgs(t.paramSchema, args); err != nil {
		root.mu.Unlock()
		return err
	}
	subs := make([]*connection, len(t.connections))
	copy(subs, t.connections)
	root.mu.Unlock()

	for _, c := range subs {
		root.mu.Lock()
		stillValid := t.valid
		root.mu.Unlock()
		if !stillValid {
			break
		}

		argsCopy := make([]any, len(args))
		copy(argsCopy, args)
		if !c.callback(t, argsCopy, c.context) {
			break
		}
	}
	return nil
}

// checkEventArgs validates args against a declared param_schema. An empty
// schema (the common case — task_add_event's variadic is optional) skips
// validation entirely, preserving the untyped []any fast path.
func checkEventArgs(schema []reflect.Type, args []any) error {
	if len(schema) == 0 {
		return nil
	}
	if len(args) != len(schema) {
		return fail("event_signal", tlsslot.InvalidArgument, "argument count does not match declared schema")
	}
	for i, want := range schema {
		if want == nil {
			continue
		}
		if args[i] == nil {
			if k := want.Kind(); k == reflect.Pointer || k == reflect.Interface {
				continue
			}
			return fail("event_signal", tlsslot.InvalidArgument, "nil argument for non-pointer/interface schema slot")
		}
		if got := reflect.TypeOf(args[i]); !got.AssignableTo(want) {
			return fail("event_signal", tlsslot.InvalidArgument, "argument type does not match declared schema")
		}
	}
	return nil
}

// TaskDel marks t invalid; actual removal happens during the next sweep.
// Deleting an EVENT task defers the event_map removal by 1us so in-flight
// signal delivery is not torn down beneath itself (§4.D.4).
func (s *Schedule) TaskDel(t *Task) error {
	if t == nil {
		return fail("task_del", tlsslot.InvalidArgument, "nil task")
	}

	// Event tasks live in the parent's event map, guarded by the parent's
	// lock; FD/timeout/signal tasks live in this schedule's own maps,
	// guarded by its own lock — never the parent's.
	owner := s
	if t.kind == KindEvent {
		owner = s.getParent()
	}

	owner.mu.Lock()
	if !t.valid {
		owner.mu.Unlock()
		return nil
	}
	t.valid = false
	kind := t.kind
	name := t.name
	signo := t.signo
	owner.notifyLocked(t, NotifyRemove)
	owner.mu.Unlock()

	if kind == KindEvent {
		_, _ = s.taskAddDeferredEventRemoval(name)
	}
	if kind == KindSignal {
		_ = s.platform.signalUnregister(signo)
	}
	return nil
}

func (s *Schedule) taskAddDeferredEventRemoval(name string) (*Task, error) {
	root := s.getParent()
	return s.TaskAddTimeout(func(*Task, any) {
		root.mu.Lock()
		delete(root.eventMap, name)
		root.mu.Unlock()
	}, nil, eventDelDelay)
}

// TaskDelByFD invalidates the task registered against fd, if any.
func (s *Schedule) TaskDelByFD(fd int) error {
	s.mu.Lock()
	t, ok := s.fdMap[fd]
	s.mu.Unlock()
	if !ok {
		return fail("task_del_by_fd", tlsslot.NotFound, "")
	}
	return s.TaskDel(t)
}

// TaskDelByContext invalidates every task in this schedule whose context
// equals ctx (interface equality).
func (s *Schedule) TaskDelByContext(ctx any) error {
	for _, t := range s.snapshotTasks() {
		if taskContext(t) == ctx {
			_ = s.TaskDel(t)
		}
	}
	return nil
}

// TaskDelAll invalidates every task owned by this schedule.
func (s *Schedule) TaskDelAll() error {
	for _, t := range s.snapshotTasks() {
		_ = s.TaskDel(t)
	}
	return nil
}

// TaskDelByCallback invalidates every task in this schedule whose callback
// is cb. Go func values aren't comparable with ==, so identity is taken
// via the underlying code pointer (reflect), the same trick the standard
// library's own testing/fstest and runtime.FuncForPC callers use in lieu
// of a comparable handle type.
func (s *Schedule) TaskDelByCallback(cb any) error {
	target, ok := callbackPointer(cb)
	if !ok {
		return fail("task_del_by_callback", tlsslot.InvalidArgument, "cb must be a function")
	}
	for _, t := range s.snapshotTasks() {
		if p, ok := taskCallbackPointer(t); ok && p == target {
			_ = s.TaskDel(t)
		}
	}
	return nil
}

// TaskDelByAll invalidates tasks matching every supplied filter: fd (skip
// with a negative value), cb (skip with nil), and ctx (skip with nil,
// matched by interface equality). At least one filter must be given.
func (s *Schedule) TaskDelByAll(fd int, cb any, ctx any) error {
	var target uintptr
	hasCB := false
	if cb != nil {
		var ok bool
		target, ok = callbackPointer(cb)
		if !ok {
			return fail("task_del_by_all", tlsslot.InvalidArgument, "cb must be a function")
		}
		hasCB = true
	}
	if fd < 0 && !hasCB && ctx == nil {
		return fail("task_del_by_all", tlsslot.InvalidArgument, "at least one filter required")
	}

	for _, t := range s.snapshotTasks() {
		if fd >= 0 && (t.kind != KindFD || t.fd != fd) {
			continue
		}
		if hasCB {
			p, ok := taskCallbackPointer(t)
			if !ok || p != target {
				continue
			}
		}
		if ctx != nil && taskContext(t) != ctx {
			continue
		}
		_ = s.TaskDel(t)
	}
	return nil
}

func taskContext(t *Task) any {
	switch t.kind {
	case KindFD:
		return t.fdContext
	case KindTimeout:
		return t.timeoutContext
	case KindSignal:
		return t.signalContext
	default:
		return nil
	}
}

// taskCallbackPointer returns the callback's code pointer and whether t
// carries a non-nil callback of a kind that has one (events dispatch
// through per-connection callbacks instead, so they have none here).
func taskCallbackPointer(t *Task) (uintptr, bool) {
	switch t.kind {
	case KindFD:
		return callbackPointer(t.fdCallback)
	case KindTimeout:
		return callbackPointer(t.timeoutCallback)
	case KindSignal:
		return callbackPointer(t.signalCallback)
	default:
		return 0, false
	}
}

func callbackPointer(cb any) (uintptr, bool) {
	if cb == nil {
		return 0, false
	}
	rv := reflect.ValueOf(cb)
	if rv.Kind() != reflect.Func || rv.IsNil() {
		return 0, false
	}
	return rv.Pointer(), true
}

func (s *Schedule) snapshotTasks() []*Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Task, 0, len(s.fdMap)+s.timeouts.Len()+len(s.signalMap))
	for _, t := range s.fdMap {
		out = append(out, t)
	}
	for _, t := range s.timeouts.items {
		out = append(out, t)
	}
	for _, t := range s.signalMap {
		out = append(out, t)
	}
	return out
}

// SetListenFD updates fd's requested event mask. If inject is true, the
// ready mask is set immediately and dispatch runs synchronously.
func (s *Schedule) SetListenFD(fd int, mask FDEvent, inject bool) error {
	s.mu.Lock()
	t, ok := s.fdMap[fd]
	if !ok || !t.valid {
		s.mu.Unlock()
		return fail("set_listen_fd", tlsslot.NotFound, "")
	}
	t.requestedEvents = mask
	if err := s.platform.scheduleFD(fd, mask); err != nil {
		s.mu.Unlock()
		return failWrap("set_listen_fd", tlsslot.Err, err)
	}
	s.notifyLocked(t, NotifyEventMaskChange)
	s.mu.Unlock()

	if inject {
		s.dispatchFDs([]ReadyFD{{FD: fd, Events: mask}})
	}
	return nil
}

// GetFDEvents returns fd's currently requested event mask.
func (s *Schedule) GetFDEvents(fd int) (FDEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.fdMap[fd]
	if !ok || !t.valid {
		return 0, fail("get_fd_events", tlsslot.NotFound, "")
	}
	return t.requestedEvents, nil
}

// UnsetListenFD is equivalent to TaskDelByFD.
func (s *Schedule) UnsetListenFD(fd int) error {
	return s.TaskDelByFD(fd)
}

// SetNotify installs (or replaces) the mutation-notify callback.
func (s *Schedule) SetNotify(fn NotifyFunc, ctx any) {
	s.mu.Lock()
	s.notify = fn
	s.notifyCtx = ctx
	s.mu.Unlock()
}

func (s *Schedule) newTask(kind Kind) *Task {
	var t *Task
	if s.arena != nil {
		t = s.arena.get()
	} else {
		t = new(Task)
		t.heapIndex = -1
	}
	t.kind = kind
	t.valid = true
	t.schedule = s
	return t
}

// newTimeoutTask draws from the free pool before falling back to a fresh
// allocation, per the free-task pool design (§4.D.5).
func (s *Schedule) newTimeoutTask() *Task {
	if n := len(s.freePool); n > 0 {
		t := s.freePool[n-1]
		s.freePool = s.freePool[:n-1]
		t.reset()
		t.kind = KindTimeout
		t.valid = true
		t.schedule = s
		t.heapIndex = -1
		return t
	}
	return s.newTask(KindTimeout)
}

func (s *Schedule) releaseTask(t *Task) {
	if s.arena != nil {
		s.arena.put(t)
		return
	}
	t.reset()
}

// releaseTimeoutLocked returns a timeout task to the free pool instead of
// releasing it outright, since timeout tasks recycle through their own
// free list per §4.D.5. Must be called with s.mu held.
func (s *Schedule) releaseTimeoutLocked(t *Task) {
	t.reset()
	t.heapIndex = -1
	s.freePool = append(s.freePool, t)
}

// gcFreePool halves the free list when it exceeds both gcFreeListMin
// entries and the live timeout count, matching the hourly GC timer's
// load-adaptive shrink (§4.D.5). Re-schedules itself for the next hour.
func (s *Schedule) gcFreePool() {
	s.mu.Lock()
	live := s.timeouts.Len()
	if n := len(s.freePool); n > gcFreeListMin && n > live {
		half := n / 2
		s.freePool = s.freePool[:half]
	}
	s.mu.Unlock()

	gc, err := s.TaskAddTimeout(func(*Task, any) { s.gcFreePool() }, nil, gcInterval)
	if err == nil {
		s.mu.Lock()
		s.gcTask = gc
		s.mu.Unlock()
	}
}

// AppContext returns the opaque context supplied at New.
func (s *Schedule) AppContext() any { return s.appContext }

// Valid reports whether Stop has not yet been called.
func (s *Schedule) Valid() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.valid
}
