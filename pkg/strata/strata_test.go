package strata

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stxkxs/strata/internal/dag"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Chdir(wd) })
	return dir
}

func writePipeline(t *testing.T, dir, name, yaml string) {
	t.Helper()
	pipelinesDir := filepath.Join(dir, "pipelines")
	if err := os.MkdirAll(pipelinesDir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(pipelinesDir, name+".yaml"), []byte(yaml), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestRun_SequentialPipeline(t *testing.T) {
	dir := chdirTemp(t)
	writePipeline(t, dir, "build", `
name: build
steps:
  - name: one
    command: sh
    args: ["-c", "echo one > one.out"]
    target:
      type: file
      dir: `+dir+`
      filename: one.out
  - name: two
    command: sh
    args: ["-c", "echo two > two.out"]
    target:
      type: file
      dir: `+dir+`
      filename: two.out
    depends_on: ["one"]
`)

	result, err := Run(context.Background(), "build")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Steps["one"] || !result.Steps["two"] {
		t.Errorf("expected both steps complete, got %+v", result.Steps)
	}
}

func TestRun_WithStateDriverRecordsRun(t *testing.T) {
	dir := chdirTemp(t)
	writePipeline(t, dir, "default", `
name: default
steps:
  - name: only
    command: echo
    target:
      type: "null"
`)

	result, err := Run(context.Background(), "default", WithStateDriver("memory", ""))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.RunID == "" {
		t.Error("expected a run id when state driver is configured")
	}
}

func TestRun_ParallelPolicy(t *testing.T) {
	dir := chdirTemp(t)
	writePipeline(t, dir, "par", `
name: par
steps:
  - name: only
    command: echo
    target:
      type: "null"
`)

	if _, err := Run(context.Background(), "par", WithPolicy(dag.Parallel)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRun_MetricsExportWritesSnapshot(t *testing.T) {
	dir := chdirTemp(t)
	writePipeline(t, dir, "metered", `
name: metered
steps:
  - name: only
    command: echo
    target:
      type: "null"
`)

	path := filepath.Join(dir, "metrics.jsonl")
	if _, err := Run(context.Background(), "metered", WithMetricsExport(path)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("expected metrics file: %v", err)
	}
	if !strings.Contains(string(data), "run.completed") {
		t.Errorf("expected run.completed snapshot, got %q", data)
	}
}

func TestRun_MissingCommandFails(t *testing.T) {
	chdirTemp(t)
	writePipeline(t, ".", "broken", `
name: broken
steps:
  - name: bad
    command: this-command-does-not-exist-xyz
    target:
      type: "null"
`)

	if _, err := Run(context.Background(), "broken"); err == nil {
		t.Fatal("expected error for unrunnable command")
	}
}
