// Package task defines the Task capability and the derived protocol the
// scheduler drives it through: run, run without dependencies, and
// cascading delete. A Task is polymorphic over a small capability set
// (target factory, compute, dependencies, validate, name); optional
// members of that set are expressed as separate interfaces a concrete
// task may additionally implement, discovered by type assertion the way
// stdlib discovers io.ReaderFrom or http.Flusher.
package task

import "github.com/stxkxs/strata/internal/target"

// Task is the minimal required capability: a target factory and a compute
// operation. Everything else (name, dependencies, validation) is optional
// and falls back to a default when not implemented.
type Task interface {
	// TargetFactory returns a fresh target handle. Targets are not cached
	// inside a task; each call may return an independent handle to the
	// same backing artifact.
	TargetFactory() (target.Target, error)

	// Compute produces the task's output bytes. May use data read from
	// dependency targets; the scheduler guarantees those targets exist by
	// the time Compute is entered.
	Compute() ([]byte, error)
}

// Namer is an optional capability supplying a display name for
// diagnostics. Tasks that don't implement it get the placeholder name
// from Name.
type Namer interface {
	Name() string
}

// DependencyProvider is an optional capability supplying a dependency
// mapping from label to child task. Labels are unique within one task's
// dependency set and stable across repeated calls for the same task
// instance. Tasks that don't implement it have no dependencies.
type DependencyProvider interface {
	Dependencies() (map[string]Task, error)
}

// Validator is an optional capability that inspects freshly computed
// output before it is persisted. Tasks that don't implement it accept any
// output.
type Validator interface {
	Validate([]byte) error
}

const unnamedTask = "Unnamed Task"

// Name returns t's display name, falling back to a placeholder if t does
// not implement Namer.
func Name(t Task) string {
	if n, ok := t.(Namer); ok {
		return n.Name()
	}
	return unnamedTask
}

// Dependencies returns t's dependency mapping, falling back to an empty
// mapping if t does not implement DependencyProvider.
func Dependencies(t Task) (map[string]Task, error) {
	if dp, ok := t.(DependencyProvider); ok {
		return dp.Dependencies()
	}
	return map[string]Task{}, nil
}

// Validate validates freshly computed output, accepting any bytes if t
// does not implement Validator.
func Validate(t Task, data []byte) error {
	if v, ok := t.(Validator); ok {
		return v.Validate(data)
	}
	return nil
}
