// Package pqueue implements a capacity-bounded priority queue backed by a
// sorted slice. With a capacity set, the queue retains only the best entries
// seen so far, evicting the current worst when a better one arrives.
package pqueue

import (
	"sort"
)

func WithOrderAsc() Option {
	return func(q *Queue) {
		q.order = orderAsc
	}
}

func WithOrderDesc() Option {
	return func(q *Queue) {
		q.order = orderDesc
	}
}

func WithCap(size uint) Option {
	return func(q *Queue) {
		q.cap = int(size)
	}
}

type Option func(*Queue)

type order uint8

const (
	orderAsc order = iota
	orderDesc
)

type item struct {
	value interface{}
	prior float64
}

func New(opts ...Option) *Queue {
	p := &Queue{items: []*item{}, order: orderAsc, cap: -1}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

type Queue struct {
	order order
	cap   int
	items []*item
}

// Reserve resets the queue to the given capacity and drops all retained
// items. Queries that reuse one queue call it before each run.
func (q *Queue) Reserve(size uint) {
	q.cap = int(size)
	q.items = q.items[:0]
}

// Push inserts the value keeping the slice ordered by priority. Equal
// priorities retain insertion order. When the queue is full the value is
// admitted only if it is strictly better than the current worst, which is
// evicted; otherwise the call is a no-op.
func (q *Queue) Push(val interface{}, priority float64) {
	if q.Full() {
		if len(q.items) == 0 || !q.better(priority, q.items[len(q.items)-1].prior) {
			return
		}
		q.items = q.items[:len(q.items)-1]
	}
	pos := sort.Search(len(q.items), func(i int) bool {
		return q.better(priority, q.items[i].prior)
	})
	q.items = append(q.items, nil)
	copy(q.items[pos+1:], q.items[pos:])
	q.items[pos] = &item{value: val, prior: priority}
}

func (q *Queue) Full() bool {
	return q.cap >= 0 && len(q.items) >= q.cap
}

// MaxPriority returns the worst retained priority. It panics on an empty
// queue; callers check Len or Full first.
func (q *Queue) MaxPriority() float64 {
	return q.items[len(q.items)-1].prior
}

func (q *Queue) PopAll() []interface{} {
	pulled := make([]interface{}, len(q.items))
	for i := range q.items {
		pulled[i] = q.items[i].value
	}
	q.items = q.items[:0]
	return pulled
}

func (q *Queue) Cap() int { return q.cap }

func (q *Queue) Len() int { return len(q.items) }

func (q *Queue) Seek(idx int) (interface{}, float64) {
	item := q.items[idx]
	return item.value, item.prior
}

func (q *Queue) better(prior, than float64) bool {
	if q.order == orderAsc {
		return prior < than
	}
	return prior > than
}
