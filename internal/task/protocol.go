package task

import (
	"fmt"

	"github.com/stxkxs/strata/internal/target"
)

// DependencyTargets materializes one target per declared dependency by
// invoking each child task's TargetFactory.
func DependencyTargets(t Task) (map[string]target.Target, error) {
	deps, err := Dependencies(t)
	if err != nil {
		return nil, fmt.Errorf("%s: dependencies: %w", Name(t), err)
	}
	targets := make(map[string]target.Target, len(deps))
	for label, dep := range deps {
		tgt, err := dep.TargetFactory()
		if err != nil {
			return nil, fmt.Errorf("%s: target factory for dependency %q: %w", Name(t), label, err)
		}
		targets[label] = tgt
	}
	return targets, nil
}

// GetData reads t's own target. Fails if the target does not exist.
func GetData(t Task) ([]byte, error) {
	tgt, err := t.TargetFactory()
	if err != nil {
		return nil, fmt.Errorf("%s: target factory: %w", Name(t), err)
	}
	return tgt.Read()
}

// Run recursively runs t's dependencies (in the iteration order of the
// dependency mapping — not semantically significant), then, if t's target
// does not currently exist, invokes Compute, validates the result, and
// writes it to the target. If the target already exists, Compute is
// skipped. This is the user-facing entry point for ad-hoc execution
// without the DAG.
func Run(t Task) error {
	deps, err := Dependencies(t)
	if err != nil {
		return fmt.Errorf("%s: dependencies: %w", Name(t), err)
	}
	for _, dep := range deps {
		if err := Run(dep); err != nil {
			return err
		}
	}

	tgt, err := t.TargetFactory()
	if err != nil {
		return fmt.Errorf("%s: target factory: %w", Name(t), err)
	}

	exists, err := tgt.Exists()
	if err != nil {
		return fmt.Errorf("%s: exists: %w", Name(t), err)
	}
	if exists {
		return nil
	}

	data, err := t.Compute()
	if err != nil {
		return fmt.Errorf("%s: compute: %w", Name(t), err)
	}
	if err := Validate(t, data); err != nil {
		return fmt.Errorf("%s: validate: %w", Name(t), err)
	}
	if err := tgt.Write(data); err != nil {
		return fmt.Errorf("%s: write: %w", Name(t), err)
	}
	return nil
}

// RunWithoutDependencies assumes dependencies are already satisfied: if
// t's target is absent, Compute is invoked and written. Validation is not
// applied on this path — it is the unit the scheduler dispatches per
// node, trusting the dependency targets it already confirmed exist.
func RunWithoutDependencies(t Task) error {
	tgt, err := t.TargetFactory()
	if err != nil {
		return fmt.Errorf("%s: target factory: %w", Name(t), err)
	}

	exists, err := tgt.Exists()
	if err != nil {
		return fmt.Errorf("%s: exists: %w", Name(t), err)
	}
	if exists {
		return nil
	}

	data, err := t.Compute()
	if err != nil {
		return fmt.Errorf("%s: compute: %w", Name(t), err)
	}
	if err := tgt.Write(data); err != nil {
		return fmt.Errorf("%s: write: %w", Name(t), err)
	}
	return nil
}

// DeleteData deletes t's own target.
func DeleteData(t Task) error {
	tgt, err := t.TargetFactory()
	if err != nil {
		return fmt.Errorf("%s: target factory: %w", Name(t), err)
	}
	return tgt.Delete()
}

// DeleteDependencyData deletes only t's direct dependencies' targets
// (non-recursive).
func DeleteDependencyData(t Task) error {
	targets, err := DependencyTargets(t)
	if err != nil {
		return err
	}
	for _, tgt := range targets {
		if err := tgt.Delete(); err != nil {
			return err
		}
	}
	return nil
}

// RecursivelyDeleteData deletes t's own target, then recursively deletes
// every transitive dependency's target.
func RecursivelyDeleteData(t Task) error {
	if err := DeleteData(t); err != nil {
		return err
	}
	deps, err := Dependencies(t)
	if err != nil {
		return fmt.Errorf("%s: dependencies: %w", Name(t), err)
	}
	for _, dep := range deps {
		if err := RecursivelyDeleteData(dep); err != nil {
			return err
		}
	}
	return nil
}
