package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// TemplateCategory represents a template category.
type TemplateCategory struct {
	ID    string `yaml:"id" json:"id"`
	Label string `yaml:"label" json:"label"`
	Icon  string `yaml:"icon" json:"icon"`
}

// TemplateMeta holds metadata for a single template pipeline.
type TemplateMeta struct {
	Category   string `yaml:"category" json:"category"`
	Complexity string `yaml:"complexity" json:"complexity"` // beginner, intermediate, advanced
}

// TemplateIndex is the top-level structure of templates.yaml.
type TemplateIndex struct {
	Categories []TemplateCategory      `yaml:"categories" json:"categories"`
	Pipelines  map[string]TemplateMeta `yaml:"pipelines" json:"pipelines"`
}

// TemplatePipeline is a pipeline config enriched with template metadata.
type TemplatePipeline struct {
	PipelineConfig `json:",inline"`
	Meta           TemplateMeta `json:"meta"`
}

// findTemplatesDir locates the templates.yaml file and examples directory.
// It checks the current working directory first, then walks up from the
// source file location to find the project root.
func findTemplatesDir() string {
	if _, err := os.Stat("templates.yaml"); err == nil {
		return "."
	}

	_, filename, _, ok := runtime.Caller(0)
	if ok {
		dir := filepath.Dir(filename)
		for i := 0; i < 5; i++ {
			candidate := filepath.Join(dir, "templates.yaml")
			if _, err := os.Stat(candidate); err == nil {
				return dir
			}
			dir = filepath.Dir(dir)
		}
	}

	return "."
}

// LoadTemplateIndex loads and parses the templates.yaml catalog.
func LoadTemplateIndex() (*TemplateIndex, error) {
	root := findTemplatesDir()
	path := filepath.Join(root, "templates.yaml")

	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &TemplateIndex{
				Categories: []TemplateCategory{},
				Pipelines:  map[string]TemplateMeta{},
			}, nil
		}
		return nil, fmt.Errorf("failed to read templates.yaml: %w", err)
	}

	var idx TemplateIndex
	if err := yaml.Unmarshal(content, &idx); err != nil {
		return nil, fmt.Errorf("failed to parse templates.yaml: %w", err)
	}

	if idx.Pipelines == nil {
		idx.Pipelines = map[string]TemplateMeta{}
	}

	return &idx, nil
}

// findExamplesDir locates the examples/hello directory.
func findExamplesDir() string {
	candidates := []string{
		"examples/hello",
		filepath.Join(findTemplatesDir(), "examples", "hello"),
	}
	for _, c := range candidates {
		if info, err := os.Stat(c); err == nil && info.IsDir() {
			return c
		}
	}
	return "examples/hello"
}

// ListTemplatePipelines loads all pipeline templates from the examples
// directory, enriched with the category/complexity metadata in idx.
func ListTemplatePipelines(idx *TemplateIndex) ([]TemplatePipeline, error) {
	exDir := findExamplesDir()
	pipelineDir := filepath.Join(exDir, "pipelines")

	names, err := listYAMLFilesInDir(pipelineDir)
	if err != nil {
		return nil, err
	}

	var result []TemplatePipeline
	for _, name := range names {
		content, err := os.ReadFile(filepath.Join(pipelineDir, name+".yaml"))
		if err != nil {
			continue
		}
		var cfg PipelineConfig
		if err := yaml.Unmarshal(content, &cfg); err != nil {
			continue
		}
		meta := idx.Pipelines[name]
		if meta.Category == "" {
			meta.Category = "general"
		}
		if meta.Complexity == "" {
			meta.Complexity = "beginner"
		}
		result = append(result, TemplatePipeline{PipelineConfig: cfg, Meta: meta})
	}

	return result, nil
}

// listYAMLFilesInDir lists YAML files in a specific directory (not the CWD-relative one).
func listYAMLFilesInDir(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, err
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasSuffix(name, ".yaml") || strings.HasSuffix(name, ".yml") {
			ext := filepath.Ext(name)
			names = append(names, name[:len(name)-len(ext)])
		}
	}
	return names, nil
}
