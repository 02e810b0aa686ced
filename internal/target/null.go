package target

// NullTarget is a target that persists nothing: Read returns empty
// bytes, Write and Delete are no-ops, and Exists is permanently false —
// so a task with a null target is re-run on every invocation. Used for
// wrapper tasks whose value is the running of their dependencies, not a
// produced artifact.
type NullTarget struct{}

// Read returns an empty byte slice.
func (NullTarget) Read() ([]byte, error) { return []byte{}, nil }

// Write discards data.
func (NullTarget) Write([]byte) error { return nil }

// Delete is a no-op.
func (NullTarget) Delete() error { return nil }

// Exists always reports false.
func (NullTarget) Exists() (bool, error) { return false, nil }
