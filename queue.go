package ring

import "sync"

// QueueCapacity is the fixed bound on the outbound queue.
const QueueCapacity = 10

// Entry is a single pending outbound message.
type Entry struct {
	Dest     string
	Content  string
	Attempts int
}

// Queue is a bounded, oldest-first FIFO of pending outbound messages. It
// carries its own internal lock so Peek/Dequeue/BumpHeadAttempts stay
// atomic against each other. The engine calls Queue methods without
// holding the node-wide lock, so this internal lock is what keeps each
// call atomic.
type Queue struct {
	mu       sync.Mutex
	entries  []Entry
	capacity int
}

// NewQueue builds a Queue bounded at capacity (QueueCapacity if capacity
// is not positive).
func NewQueue(capacity int) *Queue {
	if capacity <= 0 {
		capacity = QueueCapacity
	}
	return &Queue{capacity: capacity}
}

// Enqueue appends e at the tail. It returns false without blocking if the
// queue is already at capacity.
func (q *Queue) Enqueue(e Entry) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.entries) >= q.capacity {
		return false
	}
	q.entries = append(q.entries, e)
	return true
}

// Peek returns the head entry without removing it.
func (q *Queue) Peek() (Entry, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.entries) == 0 {
		return Entry{}, false
	}
	return q.entries[0], true
}

// Dequeue removes and returns the head entry.
func (q *Queue) Dequeue() (Entry, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.entries) == 0 {
		return Entry{}, false
	}
	e := q.entries[0]
	q.entries = q.entries[1:]
	return e, true
}

// BumpHeadAttempts increments the head entry's attempt counter in place
// and returns the new value. It is a no-op returning (0, false) on an
// empty queue.
func (q *Queue) BumpHeadAttempts() (int, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.entries) == 0 {
		return 0, false
	}
	q.entries[0].Attempts++
	return q.entries[0].Attempts, true
}

// IsEmpty reports whether the queue currently holds no entries.
func (q *Queue) IsEmpty() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.entries) == 0
}

// Size returns the current number of queued entries.
func (q *Queue) Size() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.entries)
}

// Drain empties the queue and returns the discarded entries, backing the
// operator's /limparfila command.
func (q *Queue) Drain() []Entry {
	q.mu.Lock()
	defer q.mu.Unlock()
	drained := q.entries
	q.entries = nil
	return drained
}

// Snapshot returns a copy of the current entries without mutating the
// queue, backing the operator's /mostrafila command.
func (q *Queue) Snapshot() []Entry {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]Entry, len(q.entries))
	copy(out, q.entries)
	return out
}
