package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// Load loads the main project configuration.
func Load(dir string) (*Config, error) {
	configFile := filepath.Join(dir, "strata.yaml")

	content, err := os.ReadFile(configFile)
	if err != nil {
		if os.IsNotExist(err) {
			return defaultConfig(), nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	content = []byte(interpolateEnv(string(content)))

	var cfg Config
	if err := yaml.Unmarshal(content, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	applyDefaults(&cfg)

	return &cfg, nil
}

// LoadPipeline loads a pipeline manifest by name, falling back to
// "default.yaml" if no file matches the given name.
func LoadPipeline(name string) (*PipelineConfig, error) {
	pipelineFile := filepath.Join("pipelines", name+".yaml")
	if _, err := os.Stat(pipelineFile); os.IsNotExist(err) {
		pipelineFile = filepath.Join("pipelines", "default.yaml")
	}

	content, err := os.ReadFile(pipelineFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read pipeline file: %w", err)
	}

	content = []byte(interpolateEnv(string(content)))

	var cfg PipelineConfig
	if err := yaml.Unmarshal(content, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse pipeline config: %w", err)
	}

	if err := ValidatePipeline(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// interpolateEnv replaces ${env.VAR} and ${VAR} with environment values.
func interpolateEnv(content string) string {
	envPattern := regexp.MustCompile(`\$\{env\.([^}]+)\}`)
	content = envPattern.ReplaceAllStringFunc(content, func(match string) string {
		varName := envPattern.FindStringSubmatch(match)[1]
		if val := os.Getenv(varName); val != "" {
			return val
		}
		return match
	})

	varPattern := regexp.MustCompile(`\$\{([^}]+)\}`)
	content = varPattern.ReplaceAllStringFunc(content, func(match string) string {
		varName := varPattern.FindStringSubmatch(match)[1]
		// Skip references meant for step-level interpolation, not env.
		if strings.HasPrefix(varName, "step.") || strings.HasPrefix(varName, "output.") {
			return match
		}
		if val := os.Getenv(varName); val != "" {
			return val
		}
		return match
	})

	return content
}

func defaultConfig() *Config {
	return &Config{
		Name:     "strata-project",
		Version:  "1.0",
		CacheDir: ".strata/cache",
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		State: StateConfig{
			Driver: "sqlite",
			Path:   ".strata/state.db",
		},
	}
}

func applyDefaults(cfg *Config) {
	if cfg.CacheDir == "" {
		cfg.CacheDir = ".strata/cache"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "text"
	}
	if cfg.State.Driver == "" {
		cfg.State.Driver = "sqlite"
	}
	if cfg.State.Path == "" {
		cfg.State.Path = ".strata/state.db"
	}
}
