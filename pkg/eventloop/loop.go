// Package eventloop runs page work on a single goroutine: posted tasks and
// one-shot timers identified by integer handles, like a browser's UI thread.
package eventloop

import (
	"container/heap"
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

var (
	// ErrLoopRunning is returned when Run is called on a loop that is already running.
	ErrLoopRunning = errors.New("eventloop: loop is already running")

	// ErrManualClock is returned by Advance when the loop runs on the system clock.
	ErrManualClock = errors.New("eventloop: loop does not use a manual clock")
)

// Task is a unit of work executed on the loop.
type Task func()

// Loop owns a timer heap and an ingress queue. Tasks and timer callbacks
// never run concurrently with each other.
//
// Post, SetTimeout and ClearTimeout may be called from any goroutine.
// Everything a task touches is otherwise owned by whichever goroutine
// drives the loop (Run, Advance or Drain), one at a time.
type Loop struct {
	clock  Clock
	logger *slog.Logger

	mu      sync.Mutex
	timers  timerHeap
	active  map[int]*timer
	nextID  int
	seq     uint64
	ingress []Task

	wake    chan struct{}
	running atomic.Bool
}

type Option func(*Loop)

// WithClock replaces the system clock, typically with a *ManualClock.
func WithClock(c Clock) Option {
	return func(l *Loop) { l.clock = c }
}

// WithLogger sets the logger that receives task panics.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loop) { l.logger = logger }
}

func New(opts ...Option) *Loop {
	l := &Loop{
		clock:  SystemClock{},
		logger: slog.Default(),
		active: make(map[int]*timer),
		wake:   make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Now returns the loop's current time.
func (l *Loop) Now() time.Time {
	return l.clock.Now()
}

// Post queues task to run on the loop.
func (l *Loop) Post(task Task) {
	l.mu.Lock()
	l.ingress = append(l.ingress, task)
	l.mu.Unlock()
	l.signal()
}

// SetTimeout arms a one-shot timer and returns its handle. Handles are
// positive and never reused by the same loop. Negative delays count as zero.
func (l *Loop) SetTimeout(task Task, delay time.Duration) int {
	if delay < 0 {
		delay = 0
	}
	l.mu.Lock()
	l.nextID++
	l.seq++
	t := &timer{id: l.nextID, when: l.clock.Now().Add(delay), seq: l.seq, task: task}
	heap.Push(&l.timers, t)
	l.active[t.id] = t
	l.mu.Unlock()
	l.signal()
	return t.id
}

// ClearTimeout cancels a pending timer. It reports false when the handle is
// unknown, already fired or already cleared.
func (l *Loop) ClearTimeout(id int) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	t, ok := l.active[id]
	if !ok {
		return false
	}
	heap.Remove(&l.timers, t.index)
	delete(l.active, id)
	return true
}

// Pending returns the number of armed timers.
func (l *Loop) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.timers)
}

// Run drives the loop until ctx is done.
func (l *Loop) Run(ctx context.Context) error {
	if !l.running.CompareAndSwap(false, true) {
		return ErrLoopRunning
	}
	defer l.running.Store(false)

	for {
		l.Drain()
		l.runTimers(l.clock.Now())
		l.Drain()

		var tm *time.Timer
		var fire <-chan time.Time
		if next, ok := l.nextDeadline(); ok {
			if _, manual := l.clock.(*ManualClock); !manual {
				tm = time.NewTimer(time.Until(next))
				fire = tm.C
			}
		}

		select {
		case <-ctx.Done():
			if tm != nil {
				tm.Stop()
			}
			return ctx.Err()
		case <-l.wake:
		case <-fire:
		}
		if tm != nil {
			tm.Stop()
		}
	}
}

// Advance moves a manual clock forward by d, firing every timer that falls
// due on the way in deadline order. The clock reads each timer's deadline
// while that timer runs, so timers armed by callbacks fire in the same call
// when they fall inside the window.
func (l *Loop) Advance(d time.Duration) error {
	mc, ok := l.clock.(*ManualClock)
	if !ok {
		return ErrManualClock
	}
	target := mc.Now().Add(d)

	l.Drain()
	for {
		t := l.popDue(target)
		if t == nil {
			break
		}
		if t.when.After(mc.Now()) {
			mc.set(t.when)
		}
		l.safeExecute(t.task)
		l.Drain()
	}
	mc.set(target)
	return nil
}

// Drain runs queued tasks, including ones queued while draining.
func (l *Loop) Drain() {
	for {
		l.mu.Lock()
		batch := l.ingress
		l.ingress = nil
		l.mu.Unlock()
		if len(batch) == 0 {
			return
		}
		for _, task := range batch {
			l.safeExecute(task)
		}
	}
}

func (l *Loop) runTimers(now time.Time) {
	for {
		t := l.popDue(now)
		if t == nil {
			return
		}
		l.safeExecute(t.task)
	}
}

func (l *Loop) popDue(now time.Time) *timer {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.timers) == 0 || l.timers[0].when.After(now) {
		return nil
	}
	t := heap.Pop(&l.timers).(*timer)
	delete(l.active, t.id)
	return t
}

func (l *Loop) nextDeadline() (time.Time, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.timers) == 0 {
		return time.Time{}, false
	}
	return l.timers[0].when, true
}

func (l *Loop) signal() {
	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// safeExecute keeps a panicking task from taking the loop down.
func (l *Loop) safeExecute(task Task) {
	if task == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("eventloop: task panicked", "panic", r)
		}
	}()
	task()
}

type timer struct {
	id    int
	when  time.Time
	seq   uint64
	task  Task
	index int
}

// timerHeap orders by deadline, then by arming order.
type timerHeap []*timer

func (h timerHeap) Len() int { return len(h) }

func (h timerHeap) Less(i, j int) bool {
	if h[i].when.Equal(h[j].when) {
		return h[i].seq < h[j].seq
	}
	return h[i].when.Before(h[j].when)
}

func (h timerHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *timerHeap) Push(x any) {
	t := x.(*timer)
	t.index = len(*h)
	*h = append(*h, t)
}

func (h *timerHeap) Pop() any {
	old := *h
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	t.index = -1
	return t
}
