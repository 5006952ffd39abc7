package messagequeue

import (
	"context"
	"errors"
	"sync"
)

// ErrClosed is returned by a closed MemoryQueue.
var ErrClosed = errors.New("message queue closed")

// MemoryQueue is an in-process MessageQueue with per-queue buffered channels.
type MemoryQueue struct {
	mu     sync.Mutex
	queues map[string]chan []byte
	done   chan struct{}
	closed bool
	size   int
}

// NewMemoryQueue returns a queue buffering up to size messages per queue name.
func NewMemoryQueue(size int) *MemoryQueue {
	if size <= 0 {
		size = 128
	}
	return &MemoryQueue{queues: make(map[string]chan []byte), done: make(chan struct{}), size: size}
}

func (q *MemoryQueue) queue(name string) (chan []byte, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return nil, ErrClosed
	}
	ch, ok := q.queues[name]
	if !ok {
		ch = make(chan []byte, q.size)
		q.queues[name] = ch
	}
	return ch, nil
}

func (q *MemoryQueue) Publish(ctx context.Context, queueName string, body []byte) error {
	ch, err := q.queue(queueName)
	if err != nil {
		return err
	}
	msg := append([]byte(nil), body...)
	select {
	case ch <- msg:
		return nil
	case <-q.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Consume returns nil on cancellation and ErrClosed after Close.
func (q *MemoryQueue) Consume(ctx context.Context, queueName string, handler Handler) error {
	ch, err := q.queue(queueName)
	if err != nil {
		return err
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-q.done:
			return ErrClosed
		case body := <-ch:
			_ = handler(ctx, body)
		}
	}
}

func (q *MemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return nil
	}
	q.closed = true
	close(q.done)
	return nil
}

var (
	_ MessageQueue = (*MemoryQueue)(nil)
	_ MessageQueue = (*RabbitMQService)(nil)
	_ MessageQueue = (*NATSService)(nil)
)
