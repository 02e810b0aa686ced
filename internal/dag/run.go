package dag

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/stxkxs/strata/internal/event"
	"github.com/stxkxs/strata/internal/task"
	"github.com/stxkxs/strata/internal/telemetry"
)

// Run drives the DAG to completion under policy p. On success every node
// is Done.
//
// Dispatch outcomes during a frontier are advisory: a node's failure is
// logged and counted, but the node is still marked done and the loop
// proceeds. This reproduces the source scheduler's behavior exactly (see
// the dispatch-failure-swallowing design note) and is a known fragility —
// a parent reading the failed node's absent target will fail obscurely
// further up the graph. Callers that want the first error surfaced and
// the node left pending should use RunStrict instead.
func (d *DAG) Run(ctx context.Context, p Policy) error {
	return d.run(ctx, p, false)
}

// RunStrict drives the DAG to completion like Run, but propagates the
// first dispatch error from a frontier, leaves the failing node pending,
// and aborts the outer loop. This is a documented deviation from Run's
// faithfully-reproduced behavior.
func (d *DAG) RunStrict(ctx context.Context, p Policy) error {
	return d.run(ctx, p, true)
}

func (d *DAG) run(ctx context.Context, p Policy, strict bool) error {
	// Correlation IDs for per-node spans in logs: callers that recorded a
	// run in the ledger thread its trace context through ctx; otherwise
	// mint a root context for this run.
	tc := telemetry.TraceFromContext(ctx)
	if tc == nil {
		tc = telemetry.NewTraceContext(uuid.New().String())
	}

	d.emit(event.RunStarted, nil)

	finished, pending := d.initialSets()

	for len(pending) > 0 {
		frontier := readyFrontier(d, pending, finished)
		if len(frontier) == 0 {
			// No progress possible: the remaining pending set forms (or
			// contains) a cycle. The baseline contract assumes acyclic
			// input; behavior here is undefined, so surface it rather
			// than loop forever.
			err := fmt.Errorf("dag: no ready nodes among %d pending; cycle suspected", len(pending))
			d.emit(event.RunFailed, map[string]interface{}{"error": err.Error()})
			return err
		}

		var (
			mu      sync.Mutex
			failed  = make(map[uuid.UUID]error)
			aborted bool
		)

		dispatch(p, frontier, func(id uuid.UUID) {
			if ctx.Err() != nil {
				return
			}
			if err := d.dispatchOne(tc, id); err != nil {
				mu.Lock()
				failed[id] = err
				mu.Unlock()
			}
		})

		if ctx.Err() != nil {
			d.emit(event.RunFailed, map[string]interface{}{"error": ctx.Err().Error()})
			return ctx.Err()
		}

		d.mu.Lock()
		for _, id := range frontier {
			if strict {
				if _, isFailed := failed[id]; isFailed {
					aborted = true
					continue
				}
			}
			d.nodes[id].Done = true
			finished[id] = struct{}{}
			delete(pending, id)
		}
		d.mu.Unlock()

		if strict && aborted {
			var firstErr error
			for _, id := range frontier {
				if err, ok := failed[id]; ok {
					firstErr = err
					break
				}
			}
			d.emit(event.RunFailed, map[string]interface{}{"error": firstErr.Error()})
			return firstErr
		}
	}

	d.emit(event.RunCompleted, map[string]interface{}{"nodes": len(d.nodes)})
	return nil
}

func (d *DAG) initialSets() (finished, pending map[uuid.UUID]struct{}) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	finished = make(map[uuid.UUID]struct{}, len(d.nodes))
	pending = make(map[uuid.UUID]struct{}, len(d.nodes))
	for id, n := range d.nodes {
		if n.Done {
			finished[id] = struct{}{}
		} else {
			pending[id] = struct{}{}
		}
	}
	return finished, pending
}

// readyFrontier returns the subset of pending whose children are all in
// finished.
func readyFrontier(d *DAG, pending, finished map[uuid.UUID]struct{}) []uuid.UUID {
	d.mu.RLock()
	defer d.mu.RUnlock()

	frontier := make([]uuid.UUID, 0)
	for id := range pending {
		node := d.nodes[id]
		ready := true
		for childID := range node.Children {
			if _, done := finished[childID]; !done {
				ready = false
				break
			}
		}
		if ready {
			frontier = append(frontier, id)
		}
	}
	return frontier
}

// dispatchOne runs RunWithoutDependencies for the node at id under its
// own child span of tc, emitting NodeStarted/NodeCompleted/NodeFailed and
// returning the dispatch error, if any, to the caller.
func (d *DAG) dispatchOne(tc *telemetry.TraceContext, id uuid.UUID) error {
	d.mu.RLock()
	node := d.nodes[id]
	d.mu.RUnlock()

	name := task.Name(node.Task)
	span := tc.ChildSpan().WithNode(name)
	logger := d.logger
	if logger != nil {
		logger = logger.WithFields(span.Fields())
	}

	if logger != nil {
		logger.Debug("dispatching node", "id", id.String())
	}
	d.emit(event.NodeStarted, map[string]interface{}{"node": name, "id": id.String()})
	d.incDispatched()

	start := time.Now()
	err := task.RunWithoutDependencies(node.Task)
	d.recordNodeDuration(time.Since(start))
	if err != nil {
		d.incFailed()
		if logger != nil {
			logger.Warn("node dispatch failed", "id", id.String(), "error", err)
		}
		d.emit(event.NodeFailed, map[string]interface{}{"node": name, "id": id.String(), "error": err.Error()})
		return err
	}
	d.incCompleted()
	d.emit(event.NodeCompleted, map[string]interface{}{"node": name, "id": id.String()})
	return nil
}

// DeleteAll invokes DeleteData on every node's task, then clears every
// node's Done flag, invalidating the entire graph.
func (d *DAG) DeleteAll() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, n := range d.nodes {
		if err := task.DeleteData(n.Task); err != nil {
			return fmt.Errorf("%s: delete data: %w", task.Name(n.Task), err)
		}
		n.Done = false
	}
	d.emit(event.GraphDeleted, map[string]interface{}{"nodes": len(d.nodes)})
	return nil
}
