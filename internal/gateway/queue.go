// Package gateway implements the HTTP surface: JSON in, a bounded local
// queue, a reconnecting TCP client to the matching engine.
package gateway

import (
	"errors"

	"fenrir/internal/wire"
)

// QueueCapacity bounds the in-process command queue between the HTTP
// handlers and the engine connection goroutine.
const QueueCapacity = 10000

// ErrQueueFull is returned by Enqueue when the queue is saturated; the
// caller maps this to an HTTP 500. Enqueue never blocks the handler.
var ErrQueueFull = errors.New("gateway: command queue full")

// Queue is the bounded channel of commands awaiting delivery to the
// engine. Safe for concurrent Enqueue from many HTTP handler goroutines;
// Dequeue is intended for the single connection-manager goroutine.
type Queue struct {
	commands chan wire.WireMessage
}

// NewQueue returns a Queue with QueueCapacity buffered slots.
func NewQueue() *Queue {
	return &Queue{commands: make(chan wire.WireMessage, QueueCapacity)}
}

// Enqueue attempts a non-blocking send. Returns ErrQueueFull if the
// buffer is saturated.
func (q *Queue) Enqueue(m wire.WireMessage) error {
	select {
	case q.commands <- m:
		return nil
	default:
		return ErrQueueFull
	}
}

// Dequeue exposes the receive-only side for the connection manager.
func (q *Queue) Dequeue() <-chan wire.WireMessage {
	return q.commands
}
