package room

import (
	"context"
	"sync"
)

// command is one unit of work for the host loop.
type command struct {
	run  func(ctx context.Context, l *Level) error
	done chan error // buffered, size 1
}

// commandQueue is a thread-safe FIFO queue for host commands.
//
// The queue is unbounded so producers never block on the host loop.
// It uses a channel for signaling to enable context-aware waiting in
// Host.Run.
type commandQueue struct {
	mu     sync.Mutex
	cmds   []command
	closed bool
	signal chan struct{} // Signals availability (buffered, size 1)
}

func newCommandQueue() *commandQueue {
	return &commandQueue{
		cmds:   make([]command, 0, 16),
		signal: make(chan struct{}, 1),
	}
}

// Enqueue adds a command to the back of the queue.
// Returns false if the queue is closed.
func (q *commandQueue) Enqueue(c command) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}
	q.cmds = append(q.cmds, c)

	// Non-blocking: the buffer of 1 coalesces signals
	select {
	case q.signal <- struct{}{}:
	default:
	}
	return true
}

// TryDequeue removes the front command without blocking.
func (q *commandQueue) TryDequeue() (command, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.cmds) == 0 {
		return command{}, false
	}
	c := q.cmds[0]
	q.cmds[0] = command{} // release the closure
	if len(q.cmds) == 1 {
		q.cmds = q.cmds[:0]
	} else {
		q.cmds = q.cmds[1:]
	}
	return c, true
}

// Wait returns a channel that signals when commands may be available.
// It is closed by Close.
func (q *commandQueue) Wait() <-chan struct{} {
	return q.signal
}

// Len returns the current queue length.
func (q *commandQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.cmds)
}

// Closed reports whether Close has been called.
func (q *commandQueue) Closed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}

// Close stops accepting commands and wakes any waiter.
func (q *commandQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}
	q.closed = true
	close(q.signal)
}
