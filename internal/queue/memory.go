package queue

import (
	"context"
	"sync"
	"time"
)

// MemoryClient is an in-process queue with Kafka-like semantics.
// Records on unsubscribed topics are retained but not delivered.
type MemoryClient struct {
	mu        sync.Mutex
	topics    map[string]struct{}
	queue     []*Record
	offsets   map[string]int64
	committed []*Record
	skipped   []*Record
	requeued  int
	notify    chan struct{}
	closed    bool
}

var _ Client = (*MemoryClient)(nil)

// NewMemoryClient creates an empty memory queue.
func NewMemoryClient() *MemoryClient {
	return &MemoryClient{
		offsets: make(map[string]int64),
		notify:  make(chan struct{}, 1),
	}
}

// Publish appends a record to topic.
func (m *MemoryClient) Publish(topic string, key, value []byte) *Record {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec := &Record{
		Topic:  topic,
		Key:    key,
		Value:  value,
		Offset: m.offsets[topic],
		Time:   time.Now(),
	}
	m.offsets[topic]++
	m.queue = append(m.queue, rec)
	m.signal()
	return rec
}

// Subscribe implements Client.
func (m *MemoryClient) Subscribe(ctx context.Context, topics []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.topics = make(map[string]struct{}, len(topics))
	for _, t := range topics {
		m.topics[t] = struct{}{}
	}
	m.signal()
	return nil
}

// Poll implements Client.
func (m *MemoryClient) Poll(ctx context.Context) (*Record, error) {
	for {
		m.mu.Lock()
		if m.closed {
			m.mu.Unlock()
			return nil, ErrClosed
		}
		if m.topics == nil {
			m.mu.Unlock()
			return nil, ErrNotSubscribed
		}
		if rec := m.take(); rec != nil {
			m.mu.Unlock()
			return rec, nil
		}
		m.mu.Unlock()

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-m.notify:
		}
	}
}

// take removes the first deliverable record. Caller holds mu.
func (m *MemoryClient) take() *Record {
	for i, rec := range m.queue {
		if _, ok := m.topics[rec.Topic]; ok {
			m.queue = append(m.queue[:i:i], m.queue[i+1:]...)
			return rec
		}
	}
	return nil
}

// Commit implements Client.
func (m *MemoryClient) Commit(ctx context.Context, rec *Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.committed = append(m.committed, rec)
	return nil
}

// Nack implements Client. A requeued record is delivered before any other.
func (m *MemoryClient) Nack(ctx context.Context, rec *Record, requeue bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !requeue {
		m.skipped = append(m.skipped, rec)
		return nil
	}
	m.requeued++
	m.queue = append([]*Record{rec}, m.queue...)
	m.signal()
	return nil
}

// Close implements Client.
func (m *MemoryClient) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.signal()
	return nil
}

// Committed returns the records committed so far, in order.
func (m *MemoryClient) Committed() []*Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*Record(nil), m.committed...)
}

// Skipped returns the records nacked without requeue.
func (m *MemoryClient) Skipped() []*Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*Record(nil), m.skipped...)
}

// Requeued returns how many times a record was handed back for redelivery.
func (m *MemoryClient) Requeued() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.requeued
}

// Pending returns the number of records not yet polled.
func (m *MemoryClient) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.queue)
}

// signal wakes a blocked Poll. Caller holds mu.
func (m *MemoryClient) signal() {
	select {
	case m.notify <- struct{}{}:
	default:
	}
}
