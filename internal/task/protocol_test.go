package task_test

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stxkxs/strata/internal/target"
	"github.com/stxkxs/strata/internal/task"
)

// fileTask is a minimal Task implementation backed by a FileTarget,
// producing a fixed byte string and counting Compute invocations.
type fileTask struct {
	dir, filename string
	data          string
	computeCalls  int
}

func (t *fileTask) TargetFactory() (target.Target, error) {
	return target.NewFileTarget(t.dir, t.filename), nil
}

func (t *fileTask) Compute() ([]byte, error) {
	t.computeCalls++
	return []byte(t.data), nil
}

func TestRun_IdempotentAndCacheReuse(t *testing.T) {
	dir := t.TempDir()
	ft := &fileTask{dir: dir, filename: "t1.txt", data: "some data"}

	tgt, err := ft.TargetFactory()
	if err != nil {
		t.Fatal(err)
	}
	if err := tgt.Delete(); err != nil {
		t.Fatal(err)
	}

	if err := task.Run(ft); err != nil {
		t.Fatal(err)
	}
	data, err := task.GetData(ft)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "some data" {
		t.Errorf("expected %q, got %q", "some data", data)
	}
	if ft.computeCalls != 1 {
		t.Fatalf("expected 1 compute call, got %d", ft.computeCalls)
	}

	if err := task.Run(ft); err != nil {
		t.Fatal(err)
	}
	if ft.computeCalls != 1 {
		t.Errorf("expected cached run to skip compute, call count is %d", ft.computeCalls)
	}
}

// depTask is a labeled dependency task with a fixed output string.
type depTask struct {
	dir, filename, data string
}

func (t *depTask) TargetFactory() (target.Target, error) {
	return target.NewFileTarget(t.dir, t.filename), nil
}

func (t *depTask) Compute() ([]byte, error) {
	return []byte(t.data), nil
}

// finalTask depends on two labeled children and joins their contents.
type finalTask struct {
	dir  string
	dep1 *depTask
	dep2 *depTask
}

func (t *finalTask) TargetFactory() (target.Target, error) {
	return target.NewFileTarget(t.dir, "df.txt"), nil
}

func (t *finalTask) Dependencies() (map[string]task.Task, error) {
	return map[string]task.Task{
		"dep1": t.dep1,
		"dep2": t.dep2,
	}, nil
}

func (t *finalTask) Compute() ([]byte, error) {
	targets, err := task.DependencyTargets(t)
	if err != nil {
		return nil, err
	}
	d1, err := targets["dep1"].Read()
	if err != nil {
		return nil, err
	}
	d2, err := targets["dep2"].Read()
	if err != nil {
		return nil, err
	}
	return []byte(fmt.Sprintf("%s - %s", d1, d2)), nil
}

func TestRun_TwoLevelDependencyChain(t *testing.T) {
	dir := t.TempDir()
	final := &finalTask{
		dir:  dir,
		dep1: &depTask{dir: dir, filename: "d1.txt", data: "dep1 data"},
		dep2: &depTask{dir: dir, filename: "d2.txt", data: "dep2 data"},
	}

	if err := task.RecursivelyDeleteData(final); err != nil {
		t.Fatal(err)
	}
	if err := task.Run(final); err != nil {
		t.Fatal(err)
	}

	data, err := task.GetData(final)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "dep1 data - dep2 data" {
		t.Errorf("expected joined dependency output, got %q", data)
	}
}

// validatingTask rejects output shorter than a minimum length.
type validatingTask struct {
	dir, filename string
	minLen        int
}

func (t *validatingTask) TargetFactory() (target.Target, error) {
	return target.NewFileTarget(t.dir, t.filename), nil
}

func (t *validatingTask) Compute() ([]byte, error) {
	return []byte("short"), nil
}

func (t *validatingTask) Validate(data []byte) error {
	if len(data) < t.minLen {
		return fmt.Errorf("output too short: got %d bytes, want at least %d", len(data), t.minLen)
	}
	return nil
}

func TestRun_ValidationFailureLeavesTargetAbsent(t *testing.T) {
	dir := t.TempDir()
	vt := &validatingTask{dir: dir, filename: "v.txt", minLen: 1000}

	err := task.Run(vt)
	if err == nil {
		t.Fatal("expected validation failure")
	}

	tgt := target.NewFileTarget(dir, "v.txt")
	exists, err := tgt.Exists()
	if err != nil {
		t.Fatal(err)
	}
	if exists {
		t.Error("expected target to remain absent after failed validation")
	}
}

func TestRecursivelyDeleteData(t *testing.T) {
	dir := t.TempDir()
	final := &finalTask{
		dir:  dir,
		dep1: &depTask{dir: dir, filename: "rd1.txt", data: "a"},
		dep2: &depTask{dir: dir, filename: "rd2.txt", data: "b"},
	}

	if err := task.Run(final); err != nil {
		t.Fatal(err)
	}
	if err := task.RecursivelyDeleteData(final); err != nil {
		t.Fatal(err)
	}

	for _, name := range []string{"df.txt", "rd1.txt", "rd2.txt"} {
		tgt := target.NewFileTarget(dir, name)
		exists, err := tgt.Exists()
		if err != nil {
			t.Fatal(err)
		}
		if exists {
			t.Errorf("expected %s to not exist after recursive delete", filepath.Join(dir, name))
		}
	}
}

func TestName_DefaultsWhenNotNamer(t *testing.T) {
	ft := &fileTask{}
	if task.Name(ft) != "Unnamed Task" {
		t.Errorf("expected default placeholder name, got %q", task.Name(ft))
	}
}
