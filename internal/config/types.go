package config

import "time"

// Config represents the main project configuration (strata.yaml).
type Config struct {
	Name     string        `yaml:"name" json:"name"`
	Version  string        `yaml:"version" json:"version"`
	CacheDir string        `yaml:"cache_dir" json:"cache_dir"`
	Logging  LoggingConfig `yaml:"logging" json:"logging"`
	State    StateConfig   `yaml:"state" json:"state"`
	Hooks    HooksConfig   `yaml:"hooks" json:"hooks"`
}

// HooksConfig configures lifecycle event hooks.
type HooksConfig struct {
	Enabled bool         `yaml:"enabled" json:"enabled"`
	Hooks   []HookConfig `yaml:"hooks" json:"hooks"`
}

// HookConfig defines a single hook.
type HookConfig struct {
	Name     string   `yaml:"name" json:"name"`
	Type     string   `yaml:"type" json:"type"`     // shell, webhook, log, pause
	Events   []string `yaml:"events" json:"events"` // event types to match
	Blocking bool     `yaml:"blocking" json:"blocking"`
	Command  string   `yaml:"command,omitempty" json:"command,omitempty"` // for shell hooks
	URL      string   `yaml:"url,omitempty" json:"url,omitempty"`         // for webhook hooks
	Message  string   `yaml:"message,omitempty" json:"message,omitempty"` // for pause hooks
	Level    string   `yaml:"level,omitempty" json:"level,omitempty"`     // for log hooks (debug, info, warn)
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level  string `yaml:"level" json:"level"`   // debug, info, warn, error
	Format string `yaml:"format" json:"format"` // text, json
}

// StateConfig configures run-ledger storage.
type StateConfig struct {
	Driver string `yaml:"driver" json:"driver"` // sqlite, memory
	Path   string `yaml:"path" json:"path"`     // file path (sqlite only)
}

// PipelineConfig describes a declarative shell-task pipeline: a named set
// of steps, each wired to a task.Task via internal/shelltask, with
// dependency labels expressed directly rather than through Go code.
type PipelineConfig struct {
	Name        string       `yaml:"name" json:"name"`
	Description string       `yaml:"description" json:"description"`
	Steps       []StepConfig `yaml:"steps" json:"steps"`
}

// StepConfig is one node of a pipeline: a command to run, the target its
// output is persisted to, and the labels of steps it depends on.
type StepConfig struct {
	Name      string      `yaml:"name" json:"name"`
	Command   string      `yaml:"command" json:"command"`
	Args      []string    `yaml:"args,omitempty" json:"args,omitempty"`
	WorkDir   string      `yaml:"work_dir,omitempty" json:"work_dir,omitempty"`
	Target    TargetSpec  `yaml:"target" json:"target"`
	DependsOn []string    `yaml:"depends_on,omitempty" json:"depends_on,omitempty"`
	Timeout   string      `yaml:"timeout,omitempty" json:"timeout,omitempty"`
	Retry     RetryConfig `yaml:"retry" json:"retry"`
}

// TargetSpec configures the internal/target.Target backing a step's output.
type TargetSpec struct {
	Type     string `yaml:"type" json:"type"` // file, dated_file, null, sql
	Dir      string `yaml:"dir,omitempty" json:"dir,omitempty"`
	Filename string `yaml:"filename,omitempty" json:"filename,omitempty"`
	Date     string `yaml:"date,omitempty" json:"date,omitempty"` // YYYY-MM-DD, dated_file only
	Table    string `yaml:"table,omitempty" json:"table,omitempty"`
	Key      string `yaml:"key,omitempty" json:"key,omitempty"`
}

// RetryConfig configures step retry behavior: how many times a step's
// command is re-run on failure, and the delay curve between attempts.
// Consulted by the step's own Compute, not by the scheduler.
type RetryConfig struct {
	MaxAttempts int    `yaml:"max_attempts" json:"max_attempts"`
	Backoff     string `yaml:"backoff" json:"backoff"` // fixed, exponential
}

// ParsedTimeout converts the step's timeout string to a time.Duration.
func (s *StepConfig) ParsedTimeout() (time.Duration, error) {
	if s.Timeout == "" {
		return 30 * time.Minute, nil
	}
	return time.ParseDuration(s.Timeout)
}
