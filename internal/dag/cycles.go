package dag

import (
	"fmt"

	"github.com/google/uuid"
	strataerrors "github.com/stxkxs/strata/internal/errors"
	"github.com/stxkxs/strata/internal/task"
)

type color int

const (
	white color = iota
	gray
	black
)

// DetectCycles reports whether d's edge set contains a cycle. It is never
// called from Build or Run — cycle detection is opt-in, used by callers
// that want to validate a graph up front (e.g. the CLI's graph --validate
// command) before dispatching it.
func DetectCycles(d *DAG) error {
	d.mu.RLock()
	defer d.mu.RUnlock()

	colors := make(map[uuid.UUID]color, len(d.nodes))
	for id := range d.nodes {
		colors[id] = white
	}

	var visit func(id uuid.UUID) error
	visit = func(id uuid.UUID) error {
		colors[id] = gray
		node := d.nodes[id]
		for childID := range node.Children {
			switch colors[childID] {
			case gray:
				return strataerrors.New(strataerrors.CodeCyclicDependency,
					fmt.Sprintf("cycle detected at node %q (%s)", task.Name(node.Task), id)).
					WithSuggestion("restructure dependencies to remove the cycle")
			case white:
				if err := visit(childID); err != nil {
					return err
				}
			}
		}
		colors[id] = black
		return nil
	}

	for id := range d.nodes {
		if colors[id] == white {
			if err := visit(id); err != nil {
				return err
			}
		}
	}
	return nil
}
