package realtime

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"

	"github.com/mcoot/othellochat/internal/model"
)

// Loop runs tasks one at a time on a single goroutine.
// The queue is unbounded so producers (connection readers, timers) never block.
type Loop struct {
	transport Transport
	logger    *slog.Logger

	mu    sync.Mutex
	queue []Task
	wake  chan struct{}
}

// Ensure Loop implements Executor
var _ Executor = (*Loop)(nil)

// NewLoop creates a loop whose membership queries read from transport
func NewLoop(transport Transport, logger *slog.Logger) *Loop {
	return &Loop{
		transport: transport,
		logger:    logger,
		wake:      make(chan struct{}, 1),
	}
}

// Submit queues a task
func (l *Loop) Submit(task Task) {
	l.mu.Lock()
	l.queue = append(l.queue, task)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// QueryMembers queues the membership read and its continuation as one task
func (l *Loop) QueryMembers(room model.RoomName, then MembersFunc) {
	l.Submit(func(ctx context.Context) {
		then(ctx, l.transport.Members(room))
	})
}

// Run processes tasks until ctx is cancelled
func (l *Loop) Run(ctx context.Context) error {
	l.logger.Info("dispatch loop started")
	defer l.logger.Info("dispatch loop stopped")

	for {
		l.Drain(ctx)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.wake:
		}
	}
}

// Drain runs queued tasks on the calling goroutine until the queue is empty,
// including tasks queued while draining. Tests use it in place of Run.
func (l *Loop) Drain(ctx context.Context) {
	for {
		task, ok := l.next()
		if !ok {
			return
		}
		l.runTask(ctx, task)
	}
}

// Pending returns the number of queued tasks
func (l *Loop) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.queue)
}

// Call runs fn on the loop and waits for it to finish.
// Returns ctx's error if ctx ends first; fn may still run later.
func (l *Loop) Call(ctx context.Context, fn func(ctx context.Context) error) error {
	done := make(chan error, 1)
	l.Submit(func(loopCtx context.Context) {
		defer func() {
			if r := recover(); r != nil {
				done <- fmt.Errorf("panic in loop call: %v", r)
			}
		}()
		done <- fn(loopCtx)
	})

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (l *Loop) next() (Task, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.queue) == 0 {
		return nil, false
	}
	task := l.queue[0]
	l.queue[0] = nil
	l.queue = l.queue[1:]
	return task, true
}

func (l *Loop) runTask(ctx context.Context, task Task) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("panic in dispatch task",
				slog.Any("panic", r),
				slog.String("stack", string(debug.Stack())),
			)
		}
	}()
	task(ctx)
}
