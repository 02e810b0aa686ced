package dag

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/stxkxs/strata/internal/event"
	"github.com/stxkxs/strata/internal/task"
	"github.com/stxkxs/strata/internal/telemetry"
)

// Option configures optional ambient wiring on a DAG.
type Option func(*DAG)

// WithLogger attaches a structured logger used during Run/DeleteAll.
func WithLogger(l *telemetry.Logger) Option {
	return func(d *DAG) { d.logger = l }
}

// WithMetrics attaches a metrics collector used during Run/DeleteAll.
func WithMetrics(m *telemetry.Metrics) Option {
	return func(d *DAG) { d.metrics = m }
}

// WithEventBus attaches an event bus emitting lifecycle events during
// Run/DeleteAll.
func WithEventBus(b *event.Bus) Option {
	return func(d *DAG) { d.events = b }
}

// childEntry is a dependency task awaiting a node of its own, carrying
// enough information to link it back to its parent once processed.
type childEntry struct {
	id     uuid.UUID
	task   task.Task
	parent uuid.UUID
}

// Build flattens headTask and its transitive dependencies into a DAG. One
// node is minted per dependency occurrence — structurally identical
// dependencies declared by different parents get distinct node
// identities; the builder never deduplicates and never inspects the edge
// set for cycles. A node's initial Done flag reflects whether its task's
// target already exists at construction time.
func Build(headTask task.Task, opts ...Option) (*DAG, error) {
	d := &DAG{nodes: make(map[uuid.UUID]*Node)}
	for _, opt := range opts {
		opt(d)
	}

	headID := uuid.New()
	headNode, children, err := makeNode(headTask, nil, headID)
	if err != nil {
		return nil, err
	}
	d.nodes[headID] = headNode
	d.head = headID

	worklist := children
	for len(worklist) > 0 {
		entry := worklist[len(worklist)-1]
		worklist = worklist[:len(worklist)-1]

		node, grandchildren, err := makeNode(entry.task, &entry.parent, entry.id)
		if err != nil {
			return nil, err
		}
		d.nodes[entry.id] = node
		worklist = append(worklist, grandchildren...)
	}

	return d, nil
}

// makeNode constructs a node for t and the child entries for its
// dependencies, without yet inserting them into any DAG.
func makeNode(t task.Task, parent *uuid.UUID, id uuid.UUID) (*Node, []childEntry, error) {
	tgt, err := t.TargetFactory()
	if err != nil {
		return nil, nil, fmt.Errorf("%s: target factory: %w", task.Name(t), err)
	}
	done, err := tgt.Exists()
	if err != nil {
		return nil, nil, fmt.Errorf("%s: exists: %w", task.Name(t), err)
	}

	deps, err := task.Dependencies(t)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: dependencies: %w", task.Name(t), err)
	}

	children := make([]childEntry, 0, len(deps))
	childIDs := make(map[uuid.UUID]struct{}, len(deps))
	for _, dep := range deps {
		childID := uuid.New()
		children = append(children, childEntry{id: childID, task: dep, parent: id})
		childIDs[childID] = struct{}{}
	}

	node := &Node{
		ID:       id,
		Task:     t,
		Done:     done,
		Parent:   parent,
		Children: childIDs,
	}
	return node, children, nil
}
