// Package shelltask adapts an external command into a task.Task: Compute
// runs the command via os/exec and returns its stdout. It exists so the
// PipelineConfig-driven CLI can schedule real work without requiring the
// user to write Go.
package shelltask

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"time"

	"github.com/stxkxs/strata/internal/target"
	"github.com/stxkxs/strata/internal/task"
)

// ShellTask runs Command with Args in WorkDir and persists its stdout to
// Target. StepName is used for diagnostics; Deps are resolved dependency tasks
// keyed by the step label that named them in a PipelineConfig.
type ShellTask struct {
	StepName string
	Command  string
	Args     []string
	WorkDir  string
	Timeout  time.Duration
	Target   target.Target
	Deps     map[string]task.Task

	// MaxAttempts bounds how many times Compute runs the command before
	// giving up; zero or one means a single attempt. Backoff selects the
	// delay curve between attempts: "exponential", or fixed otherwise.
	MaxAttempts int
	Backoff     string

	// ValidateFunc, if non-nil, backs the Validator capability. Left nil
	// for steps that accept any output.
	ValidateFunc func([]byte) error

	// backoffBase overrides the one-second retry delay base; tests
	// shorten it.
	backoffBase time.Duration
}

// New constructs a ShellTask. tgt and deps may be nil/empty; a nil tgt
// causes TargetFactory to return target.NullTarget{}.
func New(stepName, command string, args []string, workDir string, timeout time.Duration, tgt target.Target, deps map[string]task.Task) *ShellTask {
	return &ShellTask{
		StepName: stepName,
		Command:  command,
		Args:     args,
		WorkDir:  workDir,
		Timeout:  timeout,
		Target:   tgt,
		Deps:     deps,
	}
}

func (t *ShellTask) Name() string {
	if t.StepName != "" {
		return t.StepName
	}
	return t.Command
}

func (t *ShellTask) TargetFactory() (target.Target, error) {
	if t.Target == nil {
		return target.NullTarget{}, nil
	}
	return t.Target, nil
}

func (t *ShellTask) Dependencies() (map[string]task.Task, error) {
	if t.Deps == nil {
		return map[string]task.Task{}, nil
	}
	return t.Deps, nil
}

// Validate satisfies task.Validator when ValidateFunc is set; otherwise it
// accepts any output, same as a task without the capability at all.
func (t *ShellTask) Validate(data []byte) error {
	if t.ValidateFunc == nil {
		return nil
	}
	return t.ValidateFunc(data)
}

// Compute runs the command and returns its stdout, running it at most
// MaxAttempts times in all with the configured backoff between attempts. The
// last attempt's error is returned when every attempt fails.
func (t *ShellTask) Compute() ([]byte, error) {
	attempts := t.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		out, err := t.runOnce()
		if err == nil {
			return out, nil
		}
		lastErr = err
		if attempt < attempts {
			time.Sleep(t.retryDelay(attempt))
		}
	}
	return nil, lastErr
}

// runOnce executes the command a single time. Non-zero exit is reported
// as an error with stderr attached; a configured Timeout of zero means no
// deadline is applied. The deadline covers one attempt, not the whole
// retry sequence.
func (t *ShellTask) runOnce() ([]byte, error) {
	ctx := context.Background()
	var cancel context.CancelFunc
	if t.Timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, t.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, t.Command, t.Args...)
	if t.WorkDir != "" {
		cmd.Dir = t.WorkDir
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, fmt.Errorf("shelltask %s: timed out after %v", t.Name(), t.Timeout)
		}
		return nil, fmt.Errorf("shelltask %s: %w: %s", t.Name(), err, stderr.String())
	}

	return stdout.Bytes(), nil
}

// retryDelay returns how long to wait after the given failed attempt.
func (t *ShellTask) retryDelay(attempt int) time.Duration {
	base := t.backoffBase
	if base == 0 {
		base = time.Second
	}
	if t.Backoff != "exponential" {
		return base
	}

	maxDelay := time.Minute
	delay := base * time.Duration(1<<uint(attempt-1))
	if delay > maxDelay {
		delay = maxDelay
	}
	return delay
}
