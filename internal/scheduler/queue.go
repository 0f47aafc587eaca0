package scheduler

import (
	"strings"

	"github.com/prabalesh/osdash/internal/models"
)

// entry is a queued process and the tick it (re)joined the queue.
type entry struct {
	proc  *models.Process
	since int
}

type Queue struct {
	q []entry
}

func newQueue() *Queue {
	return &Queue{q: make([]entry, 0)}
}

func (q *Queue) String() string {
	ids := make([]string, 0, len(q.q))
	for _, e := range q.q {
		ids = append(ids, e.proc.ID)
	}
	return "[" + strings.Join(ids, " ") + "]"
}

func (q *Queue) enq(p *models.Process, since int) {
	q.q = append(q.q, entry{proc: p, since: since})
}

// remove takes the process at index i out of the queue, preserving order.
func (q *Queue) remove(i int) *models.Process {
	p := q.q[i].proc
	q.q = append(q.q[:i], q.q[i+1:]...)
	return p
}

func (q *Queue) contains(id string) bool {
	for _, e := range q.q {
		if e.proc.ID == id {
			return true
		}
	}
	return false
}

func (q *Queue) qlen() int {
	return len(q.q)
}

func (q *Queue) getQ() []entry {
	return q.q
}

// snapshot copies the queued processes so callers cannot mutate engine state.
func (q *Queue) snapshot() []models.Process {
	out := make([]models.Process, 0, len(q.q))
	for _, e := range q.q {
		out = append(out, *e.proc)
	}
	return out
}
