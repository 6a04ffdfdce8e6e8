package engine

import (
	"sync"

	"github.com/google/uuid"
)

// InputKind distinguishes player inputs.
type InputKind int

const (
	// InputAdvance asks to move past the current text step.
	InputAdvance InputKind = iota + 1
	// InputChoose picks an option of the current phrase or image select.
	InputChoose
)

// String returns the input kind name used in traces.
func (k InputKind) String() string {
	switch k {
	case InputAdvance:
		return "advance"
	case InputChoose:
		return "choose"
	}
	return "unknown"
}

// Input is one request from the UI layer.
type Input struct {
	Kind InputKind
	Step uuid.UUID // InputChoose: the step the choice was made at
	Key  string    // InputChoose: the chosen option key
}

// Advance returns an advance input.
func Advance() Input {
	return Input{Kind: InputAdvance}
}

// Choose returns a choose input for the given step and key.
func Choose(step uuid.UUID, key string) Input {
	return Input{Kind: InputChoose, Step: step, Key: key}
}

// inputQueue is a thread-safe FIFO queue of inputs.
//
// The UI layer enqueues from its own goroutine; the session drains the
// queue on each tick. The signal channel lets Session.Run wait without
// polling and still observe context cancellation.
type inputQueue struct {
	mu     sync.Mutex
	inputs []Input
	closed bool
	signal chan struct{} // buffered, size 1
}

func newInputQueue() *inputQueue {
	return &inputQueue{
		inputs: make([]Input, 0, 8),
		signal: make(chan struct{}, 1),
	}
}

// Enqueue adds an input to the back of the queue.
// Returns false if the queue is closed.
func (q *inputQueue) Enqueue(in Input) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}
	q.inputs = append(q.inputs, in)

	// Non-blocking: the buffer of 1 coalesces signals.
	select {
	case q.signal <- struct{}{}:
	default:
	}
	return true
}

// TryDequeue removes and returns the front input without blocking.
func (q *inputQueue) TryDequeue() (Input, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.inputs) == 0 {
		return Input{}, false
	}
	in := q.inputs[0]
	if len(q.inputs) == 1 {
		q.inputs = q.inputs[:0]
	} else {
		q.inputs = q.inputs[1:]
	}
	return in, true
}

// Wait returns a channel that signals when inputs may be available.
// The channel is closed when the queue is closed.
func (q *inputQueue) Wait() <-chan struct{} {
	return q.signal
}

// Len returns the current queue length.
func (q *inputQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.inputs)
}

// Closed reports whether Close was called.
func (q *inputQueue) Closed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}

// Close stops further enqueues and wakes waiters.
func (q *inputQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}
	q.closed = true
	close(q.signal)
}
