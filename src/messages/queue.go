package messages

import "sync"

// Queue is an unbounded multi-producer, single-consumer buffer of display
// messages. Post never blocks; the consumer drains in batches.
type Queue struct {
	mu     sync.Mutex
	items  []Message
	notify chan struct{}
}

func NewQueue() *Queue {
	return &Queue{notify: make(chan struct{}, 1)}
}

// Post appends m. Messages from one goroutine are drained in posting order.
func (q *Queue) Post(m Message) {
	if m == nil {
		return
	}
	q.mu.Lock()
	q.items = append(q.items, m)
	q.mu.Unlock()
	select {
	case q.notify <- struct{}{}:
	default:
	}
}

// Drain returns all pending messages and empties the queue.
func (q *Queue) Drain() []Message {
	q.mu.Lock()
	msgs := q.items
	q.items = nil
	q.mu.Unlock()
	return msgs
}

func (q *Queue) Len() int {
	q.mu.Lock()
	l := len(q.items)
	q.mu.Unlock()
	return l
}

// NotifyCh is signalled (coalesced) after every Post.
func (q *Queue) NotifyCh() <-chan struct{} { return q.notify }
