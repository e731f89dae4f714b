package service

import "sync"

// Queue is the FIFO matchmaking list. It is an injected object rather than a
// package-level singleton so the engine owns its lifecycle; contents are
// deliberately not persisted, a waiting player just rejoins after a restart.
type Queue struct {
	mu  sync.Mutex
	ids []int64
}

func NewQueue() *Queue {
	return &Queue{}
}

// Push adds a player unless already queued.
func (q *Queue) Push(id int64) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, queued := range q.ids {
		if queued == id {
			return
		}
	}
	q.ids = append(q.ids, id)
}

// PopPair removes and returns the two oldest entries. ok is false when fewer
// than two players are waiting.
func (q *Queue) PopPair() (first, second int64, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.ids) < 2 {
		return 0, 0, false
	}
	first, second = q.ids[0], q.ids[1]
	q.ids = q.ids[2:]
	return first, second, true
}

// Requeue puts players back at the end of the line.
func (q *Queue) Requeue(ids ...int64) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.ids = append(q.ids, ids...)
}

func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.ids)
}
