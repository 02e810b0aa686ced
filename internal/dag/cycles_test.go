package dag

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stxkxs/strata/internal/target"
)

// stubTask is a minimal Task used to populate hand-built graphs for
// cycle-detection tests, bypassing Build (whose worklist never
// terminates on genuinely cyclic input, by design).
type stubTask struct {
	name string
}

func (s *stubTask) TargetFactory() (target.Target, error) { return target.NullTarget{}, nil }
func (s *stubTask) Compute() ([]byte, error)               { return nil, nil }
func (s *stubTask) Name() string                           { return s.name }

func TestDetectCycles_AcyclicPasses(t *testing.T) {
	a, b, c := uuid.New(), uuid.New(), uuid.New()
	d := &DAG{
		head: a,
		nodes: map[uuid.UUID]*Node{
			a: {ID: a, Task: &stubTask{"a"}, Children: map[uuid.UUID]struct{}{b: {}, c: {}}},
			b: {ID: b, Task: &stubTask{"b"}, Children: map[uuid.UUID]struct{}{}},
			c: {ID: c, Task: &stubTask{"c"}, Children: map[uuid.UUID]struct{}{}},
		},
	}
	if err := DetectCycles(d); err != nil {
		t.Errorf("expected no cycle, got %v", err)
	}
}

func TestDetectCycles_FindsCycle(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	d := &DAG{
		head: a,
		nodes: map[uuid.UUID]*Node{
			a: {ID: a, Task: &stubTask{"a"}, Children: map[uuid.UUID]struct{}{b: {}}},
			b: {ID: b, Task: &stubTask{"b"}, Children: map[uuid.UUID]struct{}{a: {}}},
		},
	}
	if err := DetectCycles(d); err == nil {
		t.Error("expected cycle to be detected")
	}
}
