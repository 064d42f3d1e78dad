package station

import "sync"

// queue неограниченная FIFO-очередь результатов: много писателей, один читатель.
// push никогда не блокируется; ready сигналит, что есть что забрать.
type queue struct {
	mu    sync.Mutex
	items []any
	ready chan struct{}
}

func newQueue() *queue {
	return &queue{ready: make(chan struct{}, 1)}
}

func (q *queue) push(v any) {
	q.mu.Lock()
	q.items = append(q.items, v)
	q.mu.Unlock()

	select {
	case q.ready <- struct{}{}:
	default:
	}
}

// drain забирает всё накопленное в порядке поступления.
func (q *queue) drain() []any {
	q.mu.Lock()
	out := q.items
	q.items = nil
	q.mu.Unlock()
	return out
}
