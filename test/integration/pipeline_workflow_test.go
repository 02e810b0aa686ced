//go:build integration

package integration

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stxkxs/strata/internal/config"
	"github.com/stxkxs/strata/internal/dag"
	"github.com/stxkxs/strata/internal/shelltask"
	"github.com/stxkxs/strata/internal/state"
	"github.com/stxkxs/strata/internal/target"
	"github.com/stxkxs/strata/pkg/strata"
)

// newProject creates a temp project directory, chdirs into it, and writes
// the given pipeline manifest under pipelines/. Returns the project dir.
func newProject(t *testing.T, pipelineName, manifest string) string {
	t.Helper()
	dir := t.TempDir()

	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(wd) })

	require.NoError(t, os.MkdirAll(filepath.Join(dir, "pipelines"), 0755))
	require.NoError(t, os.WriteFile(
		filepath.Join(dir, "pipelines", pipelineName+".yaml"),
		[]byte(manifest), 0644))
	return dir
}

func TestPipelineWorkflow_EndToEnd(t *testing.T) {
	out := t.TempDir()
	dir := newProject(t, "report", `
name: report
steps:
  - name: hostname
    command: hostname
    target:
      type: file
      dir: `+out+`
      filename: hostname.txt
  - name: stamp
    command: sh
    args: ["-c", "date +%s%N"]
    target:
      type: file
      dir: `+out+`
      filename: stamp.txt
  - name: report
    command: sh
    args: ["-c", "echo report"]
    target:
      type: file
      dir: `+out+`
      filename: report.txt
    depends_on: [hostname, stamp]
`)

	statePath := filepath.Join(dir, "state.db")
	result, err := strata.Run(context.Background(), "report",
		strata.WithStateDriver("sqlite", statePath))
	require.NoError(t, err)
	require.NotEmpty(t, result.RunID)

	for _, step := range []string{"hostname", "stamp", "report"} {
		assert.True(t, result.Steps[step], "step %s should have a cached target after the run", step)
	}

	// The ledger records the run as completed.
	mgr, err := state.NewManager("sqlite", statePath)
	require.NoError(t, err)
	defer mgr.Close()

	run, err := mgr.GetRun(result.RunID)
	require.NoError(t, err)
	assert.Equal(t, "completed", run.Status)
	assert.Equal(t, "report", run.Pipeline)

	// A second run reuses every cached target: the nanosecond stamp must
	// not change, proving the step's command was not re-executed.
	before, err := os.ReadFile(filepath.Join(out, "stamp.txt"))
	require.NoError(t, err)

	_, err = strata.Run(context.Background(), "report")
	require.NoError(t, err)

	after, err := os.ReadFile(filepath.Join(out, "stamp.txt"))
	require.NoError(t, err)
	assert.Equal(t, string(before), string(after), "cached step must not recompute")
}

func TestPipelineWorkflow_ParallelDiamond(t *testing.T) {
	out := t.TempDir()
	newProject(t, "diamond", `
name: diamond
steps:
  - name: left
    command: sh
    args: ["-c", "echo left"]
    target:
      type: file
      dir: `+t.TempDir()+`
      filename: left.txt
  - name: right
    command: sh
    args: ["-c", "echo right"]
    target:
      type: file
      dir: `+t.TempDir()+`
      filename: right.txt
  - name: join
    command: sh
    args: ["-c", "echo join"]
    target:
      type: file
      dir: `+out+`
      filename: join.txt
    depends_on: [left, right]
`)

	result, err := strata.Run(context.Background(), "diamond",
		strata.WithPolicy(dag.Parallel))
	require.NoError(t, err)

	for _, step := range []string{"left", "right", "join"} {
		assert.True(t, result.Steps[step], "step %s should be done after parallel run", step)
	}
}

func TestPipelineWorkflow_FailedStepFailsRun(t *testing.T) {
	dir := newProject(t, "broken", `
name: broken
steps:
  - name: bad
    command: this-command-does-not-exist-xyz
    target:
      type: "null"
`)

	statePath := filepath.Join(dir, "state.db")
	_, err := strata.Run(context.Background(), "broken",
		strata.WithStateDriver("sqlite", statePath))
	require.Error(t, err)

	mgr, err := state.NewManager("sqlite", statePath)
	require.NoError(t, err)
	defer mgr.Close()

	runs, err := mgr.ListRuns(10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "failed", runs[0].Status)
	assert.NotEmpty(t, runs[0].Error)
}

func TestPipelineWorkflow_SQLTarget(t *testing.T) {
	dir := newProject(t, "sqlpipe", `
name: sqlpipe
steps:
  - name: emit
    command: sh
    args: ["-c", "printf 'row payload'"]
    target:
      type: sql
      table: artifacts
      key: emit-output
`)

	db, err := sql.Open("sqlite3", filepath.Join(dir, "targets.db"))
	require.NoError(t, err)
	defer db.Close()

	result, err := strata.Run(context.Background(), "sqlpipe",
		strata.WithSQLTargetDB(db))
	require.NoError(t, err)
	assert.True(t, result.Steps["emit"])

	tgt := target.NewSQLTarget(db, "artifacts", "emit-output")
	data, err := tgt.Read()
	require.NoError(t, err)
	assert.Equal(t, "row payload", string(data))
}

func TestPipelineWorkflow_DeleteAllInvalidates(t *testing.T) {
	out := t.TempDir()
	newProject(t, "wipe", `
name: wipe
steps:
  - name: produce
    command: sh
    args: ["-c", "echo produced"]
    target:
      type: file
      dir: `+out+`
      filename: produced.txt
`)

	result, err := strata.Run(context.Background(), "wipe")
	require.NoError(t, err)
	require.True(t, result.Steps["produce"])

	cfg, err := config.LoadPipeline("wipe")
	require.NoError(t, err)
	tasks, err := shelltask.BuildPipeline(cfg, nil)
	require.NoError(t, err)

	graph, err := dag.Build(tasks["produce"])
	require.NoError(t, err)
	require.NoError(t, graph.DeleteAll())

	for _, n := range graph.Nodes() {
		assert.False(t, n.Done, "no node should be done after delete-all")
		tgt, err := n.Task.TargetFactory()
		require.NoError(t, err)
		exists, err := tgt.Exists()
		require.NoError(t, err)
		assert.False(t, exists, "every target should be absent after delete-all")
	}
}
