package resolver

import "github.com/matzehuels/pyboot/pkg/pep508"

type queueItem struct {
	name       string
	constraint []pep508.DependencyVersion
	extras     []string
}

// queue is a FIFO of pending names with set semantics, plus the set of
// names already taken from it.
type queue struct {
	items   []*queueItem
	pending map[string]*queueItem
	done    map[string]bool
}

func newQueue() *queue {
	return &queue{
		pending: make(map[string]*queueItem),
		done:    make(map[string]bool),
	}
}

// push adds name unless it is done. A name that is already pending keeps
// its place; the new constraint clauses and extras are merged into it.
func (q *queue) push(name string, constraint []pep508.DependencyVersion, extras []string) {
	if q.done[name] {
		return
	}
	if it, ok := q.pending[name]; ok {
		it.constraint = append(it.constraint, constraint...)
		it.extras = mergeExtras(it.extras, extras)
		return
	}
	it := &queueItem{
		name:       name,
		constraint: append([]pep508.DependencyVersion(nil), constraint...),
		extras:     mergeExtras(nil, extras),
	}
	q.items = append(q.items, it)
	q.pending[name] = it
}

// pop removes the oldest pending item and marks it done.
func (q *queue) pop() *queueItem {
	it := q.items[0]
	q.items[0] = nil
	q.items = q.items[1:]
	delete(q.pending, it.name)
	q.done[it.name] = true
	return it
}

func (q *queue) len() int { return len(q.items) }

func (q *queue) isDone(name string) bool { return q.done[name] }

func mergeExtras(have, add []string) []string {
	for _, e := range add {
		seen := false
		for _, h := range have {
			if h == e {
				seen = true
				break
			}
		}
		if !seen {
			have = append(have, e)
		}
	}
	return have
}
