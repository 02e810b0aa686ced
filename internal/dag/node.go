// Package dag builds a directed acyclic graph of nodes from a head task's
// transitive dependencies and drives it to completion. The graph is an
// arena keyed by a freshly minted identifier per node, not by task
// identity, so structurally identical dependencies declared by different
// parents get distinct nodes.
package dag

import (
	"sync"

	"github.com/google/uuid"
	"github.com/stxkxs/strata/internal/event"
	"github.com/stxkxs/strata/internal/task"
	"github.com/stxkxs/strata/internal/telemetry"
)

// Node wraps a task with scheduler metadata.
type Node struct {
	ID       uuid.UUID
	Task     task.Task
	Done     bool
	Parent   *uuid.UUID
	Children map[uuid.UUID]struct{}
}

// DAG is an arena of nodes, indexed by identifier. The DAG exclusively
// owns its nodes; nodes exclusively own their tasks.
type DAG struct {
	mu    sync.RWMutex
	nodes map[uuid.UUID]*Node
	head  uuid.UUID

	logger  *telemetry.Logger
	metrics *telemetry.Metrics
	events  *event.Bus
}

// Head returns the identifier of the node with no parent.
func (d *DAG) Head() uuid.UUID {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.head
}

// Node returns a copy of the node's current state for the given id, or
// false if no such node exists.
func (d *DAG) Node(id uuid.UUID) (Node, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	n, ok := d.nodes[id]
	if !ok {
		return Node{}, false
	}
	return *n, true
}

// Nodes returns a snapshot slice of every node in the graph.
func (d *DAG) Nodes() []Node {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]Node, 0, len(d.nodes))
	for _, n := range d.nodes {
		out = append(out, *n)
	}
	return out
}

// Len reports the number of nodes in the graph.
func (d *DAG) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.nodes)
}
