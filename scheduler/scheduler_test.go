package scheduler

import (
	"os"
	"reflect"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestSchedule(t *testing.T) *Schedule {
	t.Helper()
	s, err := New(0, nil)
	require.NoError(t, err)
	t.Cleanup(func() {
		s.Stop()
		_ = s.Uninit()
	})
	return s
}

func runUntil(t *testing.T, s *Schedule, deadline time.Duration, done func() bool) {
	t.Helper()
	stop := time.Now().Add(deadline)
	for time.Now().Before(stop) {
		ok, err := s.RunOne(5 * time.Millisecond)
		require.NoError(t, err)
		if !ok || done() {
			return
		}
	}
	require.FailNow(t, "deadline exceeded waiting for condition")
}

// S3 from spec §8: three timeouts at (0,200ms), (0,50ms), (1,0s) fire in
// deadline order; invalidating the first before it matures removes it
// from the fired set.
func TestScenarioS3TimerOrdering(t *testing.T) {
	s := newTestSchedule(t)

	var mu sync.Mutex
	var fired []string

	record := func(name string) TimeoutCallback {
		return func(*Task, any) {
			mu.Lock()
			fired = append(fired, name)
			mu.Unlock()
		}
	}

	first, err := s.TaskAddTimeout(record("first"), nil, 200*time.Millisecond)
	require.NoError(t, err)
	_, err = s.TaskAddTimeout(record("second"), nil, 50*time.Millisecond)
	require.NoError(t, err)
	_, err = s.TaskAddTimeout(record("third"), nil, 1*time.Second)
	require.NoError(t, err)

	require.NoError(t, s.TaskDel(first))

	runUntil(t, s, 2*time.Second, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(fired) >= 2
	})

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, []string{"second", "third"}, fired)
}

// S4 from spec §8: a descriptor callback that calls task_del_by_fd on
// itself must not be invoked again for that fd.
func TestScenarioS4FDInvalidateStopsRedispatch(t *testing.T) {
	s := newTestSchedule(t)

	r, w, err := os.Pipe()
	require.NoError(t, err)
	defer r.Close()
	defer w.Close()

	var calls atomic.Int32
	_, err = s.TaskAddFD(int(r.Fd()), func(task *Task, events FDEvent, ctx any) {
		calls.Add(1)
		require.NoError(t, s.TaskDelByFD(task.FD()))
	}, nil)
	require.NoError(t, err)

	_, err = w.Write([]byte("x"))
	require.NoError(t, err)

	runUntil(t, s, time.Second, func() bool { return calls.Load() >= 1 })

	// one more iteration after readiness should not redispatch the
	// invalidated fd task even though the pipe may still be readable.
	_, err = s.RunOne(10 * time.Millisecond)
	require.NoError(t, err)
	require.Equal(t, int32(1), calls.Load())
}

// S5 from spec §8: event fan-out honors subscription order and stops on
// a subscriber returning false; a subscriber deleting its own event mid-
// walk does not resurrect later subscribers.
func TestScenarioS5EventFanOutStop(t *testing.T) {
	s := newTestSchedule(t)

	evt, err := s.TaskAddEvent("ready")
	require.NoError(t, err)

	var order []string
	_, err = s.EventConnect("ready", func(t *Task, args []any, ctx any) bool {
		order = append(order, "x")
		return true
	}, nil)
	require.NoError(t, err)

	_, err = s.EventConnect("ready", func(task *Task, args []any, ctx any) bool {
		order = append(order, "y")
		require.NoError(t, s.TaskDel(evt))
		return false
	}, nil)
	require.NoError(t, err)

	_, err = s.EventConnect("ready", func(t *Task, args []any, ctx any) bool {
		order = append(order, "z")
		return true
	}, nil)
	require.NoError(t, err)

	require.NoError(t, s.EventSignal("ready"))
	require.Equal(t, []string{"x", "y"}, order)

	// the event task is invalidated immediately; deferred removal runs
	// off a 1us timeout dispatched on the next iteration.
	_, err = s.RunOne(10 * time.Millisecond)
	require.NoError(t, err)

	err = s.EventSignal("ready")
	require.Error(t, err)
}

// S6 from spec §8: children of the same parent share one event map.
func TestScenarioS6ParentChildEventSharing(t *testing.T) {
	parent := newTestSchedule(t)
	c1, err := New(0, nil, WithParent(parent))
	require.NoError(t, err)
	t.Cleanup(func() { c1.Stop(); _ = c1.Uninit() })
	c2, err := New(0, nil, WithParent(parent))
	require.NoError(t, err)
	t.Cleanup(func() { c2.Stop(); _ = c2.Uninit() })

	_, err = c1.TaskAddEvent("e")
	require.NoError(t, err)

	var got []any
	_, err = c1.EventConnect("e", func(t *Task, args []any, ctx any) bool {
		got = args
		return true
	}, nil)
	require.NoError(t, err)

	require.NoError(t, c2.EventSignal("e", 42))
	require.Equal(t, []any{42}, got)
}

func TestTaskDelIdempotent(t *testing.T) {
	s := newTestSchedule(t)
	task, err := s.TaskAddTimeout(func(*Task, any) {}, nil, time.Hour)
	require.NoError(t, err)

	require.NoError(t, s.TaskDel(task))
	require.NoError(t, s.TaskDel(task))
	require.False(t, task.Valid())
}

func TestTaskAddFDReplacesDuplicateLiveFD(t *testing.T) {
	s := newTestSchedule(t)
	r, w, err := os.Pipe()
	require.NoError(t, err)
	defer r.Close()
	defer w.Close()

	_, err = s.TaskAddFD(int(r.Fd()), func(*Task, FDEvent, any) {}, nil)
	require.NoError(t, err)

	// re-adding the same fd replaces the stale registration rather than
	// erroring, per task_add_fd's unique-key contract.
	_, err = s.TaskAddFD(int(r.Fd()), func(*Task, FDEvent, any) {}, nil)
	require.NoError(t, err)
}

func TestMaxDescriptorsLimit(t *testing.T) {
	s, err := New(1, nil)
	require.NoError(t, err)
	t.Cleanup(func() { s.Stop(); _ = s.Uninit() })

	r1, w1, err := os.Pipe()
	require.NoError(t, err)
	defer r1.Close()
	defer w1.Close()
	r2, w2, err := os.Pipe()
	require.NoError(t, err)
	defer r2.Close()
	defer w2.Close()

	_, err = s.TaskAddFD(int(r1.Fd()), func(*Task, FDEvent, any) {}, nil)
	require.NoError(t, err)

	_, err = s.TaskAddFD(int(r2.Fd()), func(*Task, FDEvent, any) {}, nil)
	require.Error(t, err)
}

func TestTimerQueueHeadIsEarliestDeadline(t *testing.T) {
	q := newTimerQueue()
	now := time.Now()
	a := &Task{kind: KindTimeout, valid: true, deadline: now.Add(3 * time.Second), heapIndex: -1}
	b := &Task{kind: KindTimeout, valid: true, deadline: now.Add(1 * time.Second), heapIndex: -1}
	c := &Task{kind: KindTimeout, valid: true, deadline: now.Add(2 * time.Second), heapIndex: -1}

	q.insert(a)
	q.insert(b)
	q.insert(c)

	require.Same(t, b, q.peek())
}

func TestTaskDelByCallback(t *testing.T) {
	s := newTestSchedule(t)
	cb := func(*Task, any) {}

	first, err := s.TaskAddTimeout(cb, nil, time.Hour)
	require.NoError(t, err)
	second, err := s.TaskAddTimeout(cb, nil, 2*time.Hour)
	require.NoError(t, err)
	other, err := s.TaskAddTimeout(func(*Task, any) {}, nil, 3*time.Hour)
	require.NoError(t, err)

	require.NoError(t, s.TaskDelByCallback(cb))
	require.False(t, first.Valid())
	require.False(t, second.Valid())
	require.True(t, other.Valid())
}

func TestTaskDelByAll(t *testing.T) {
	s := newTestSchedule(t)
	r, w, err := os.Pipe()
	require.NoError(t, err)
	defer r.Close()
	defer w.Close()

	type marker struct{}
	ctx := &marker{}
	cb := func(*Task, FDEvent, any) {}

	fdTask, err := s.TaskAddFD(int(r.Fd()), cb, ctx)
	require.NoError(t, err)

	// different context, same fd: should survive an fd+ctx filter that
	// requires both to match.
	require.NoError(t, s.TaskDelByAll(int(r.Fd()), cb, &marker{}))
	require.True(t, fdTask.Valid())

	require.NoError(t, s.TaskDelByAll(int(r.Fd()), cb, ctx))
	require.False(t, fdTask.Valid())

	require.Error(t, s.TaskDelByAll(-1, nil, nil))
}

func TestEventSignalSchemaValidation(t *testing.T) {
	s := newTestSchedule(t)
	_, err := s.TaskAddEvent("typed", reflect.TypeOf(0), reflect.TypeOf(""))
	require.NoError(t, err)

	var got []any
	_, err = s.EventConnect("typed", func(t *Task, args []any, ctx any) bool {
		got = args
		return true
	}, nil)
	require.NoError(t, err)

	require.Error(t, s.EventSignal("typed", "wrong", "order"))
	require.Nil(t, got)

	require.NoError(t, s.EventSignal("typed", 1, "ok"))
	require.Equal(t, []any{1, "ok"}, got)
}

func TestWakeupUnblocksRunOne(t *testing.T) {
	s := newTestSchedule(t)

	done := make(chan struct{})
	go func() {
		_, _ = s.RunOne(5 * time.Second)
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	s.Wakeup()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("RunOne did not return after Wakeup")
	}
}
