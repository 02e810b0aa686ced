package dag

import (
	"github.com/google/uuid"
	"github.com/sourcegraph/conc/pool"
)

// Policy selects how a ready frontier is dispatched. It is a value
// selector, not a strategy object — additional policies (e.g. remote
// dispatch to a compute cluster) are a forward-compatible extension
// point, not specified here.
type Policy int

const (
	// Sequential dispatches each frontier member in turn on the calling
	// goroutine.
	Sequential Policy = iota

	// Parallel dispatches the frontier concurrently across a bounded
	// worker pool; a single frontier must complete fully before the next
	// frontier is computed.
	Parallel
)

// dispatch runs fn for every id in frontier under p, blocking until every
// invocation has returned.
func dispatch(p Policy, frontier []uuid.UUID, fn func(uuid.UUID)) {
	if p == Sequential {
		for _, id := range frontier {
			fn(id)
		}
		return
	}

	if len(frontier) == 0 {
		return
	}

	wp := pool.New().WithMaxGoroutines(len(frontier))
	for _, id := range frontier {
		id := id
		wp.Go(func() { fn(id) })
	}
	wp.Wait()
}
