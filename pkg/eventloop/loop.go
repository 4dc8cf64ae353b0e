package eventloop

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"
)

// ErrStopped is returned when posting to a loop that is no longer running.
var ErrStopped = errors.New("event loop stopped")

// DefaultQueueSize is the task queue capacity used by New.
const DefaultQueueSize = 256

// Loop is a FIFO task queue drained by a single goroutine.
type Loop struct {
	queue chan func()
	done  chan struct{}

	stopOnce sync.Once
}

// New creates a loop with the default queue size.
func New() *Loop {
	return NewWithSize(DefaultQueueSize)
}

// NewWithSize creates a loop with the given queue capacity.
func NewWithSize(size int) *Loop {
	if size <= 0 {
		size = DefaultQueueSize
	}
	return &Loop{
		queue: make(chan func(), size),
		done:  make(chan struct{}),
	}
}

// Run drains the queue until ctx is cancelled. It must be called once.
func (l *Loop) Run(ctx context.Context) error {
	defer l.stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case task := <-l.queue:
			task()
		}
	}
}

// Done is closed after Run has returned.
func (l *Loop) Done() <-chan struct{} {
	return l.done
}

func (l *Loop) stop() {
	l.stopOnce.Do(func() {
		close(l.done)
	})
}

// Post queues task. It returns ErrStopped if the loop has exited.
// Post blocks while the queue is full.
func (l *Loop) Post(task func()) error {
	select {
	case <-l.done:
		return ErrStopped
	default:
	}

	select {
	case l.queue <- task:
		return nil
	case <-l.done:
		return ErrStopped
	}
}

// Do posts task and waits until it has run. Do must not be called from a
// loop task.
func (l *Loop) Do(ctx context.Context, task func()) error {
	finished := make(chan struct{})
	if err := l.Post(func() {
		defer close(finished)
		task()
	}); err != nil {
		return err
	}

	select {
	case <-finished:
		return nil
	case <-l.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Timer is a delayed task created by AfterFunc.
type Timer struct {
	timer   *time.Timer
	stopped atomic.Bool
}

// Stop cancels the timer. When called from a loop task, the timer's task is
// guaranteed not to run afterwards. Stop reports whether the timer was still
// pending.
func (t *Timer) Stop() bool {
	if t.stopped.Swap(true) {
		return false
	}
	t.timer.Stop()
	return true
}

// AfterFunc posts task to the loop once d has elapsed.
func (l *Loop) AfterFunc(d time.Duration, task func()) *Timer {
	t := &Timer{}
	t.timer = time.AfterFunc(d, func() {
		_ = l.Post(func() {
			if t.stopped.Swap(true) {
				return
			}
			task()
		})
	})
	return t
}
