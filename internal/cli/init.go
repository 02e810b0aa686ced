package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/stxkxs/strata/internal/config"
)

var initTemplateFlag string
var initListTemplatesFlag bool

var initCmd = &cobra.Command{
	Use:   "init [pipeline-name]",
	Short: "Scaffold a new project or pipeline from a template",
	Long: `init creates strata.yaml and a pipelines/ directory on first run,
then writes a new pipeline manifest under pipelines/ by copying a template
from the catalog. Pass --list-templates to browse what's available instead
of writing anything.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInit,
}

func init() {
	initCmd.Flags().StringVar(&initTemplateFlag, "template", "report", "template pipeline to scaffold from")
	initCmd.Flags().BoolVar(&initListTemplatesFlag, "list-templates", false, "list available templates and exit")
}

func runInit(cmd *cobra.Command, args []string) error {
	idx, err := config.LoadTemplateIndex()
	if err != nil {
		return fmt.Errorf("failed to load template catalog: %w", err)
	}

	templates, err := config.ListTemplatePipelines(idx)
	if err != nil {
		return fmt.Errorf("failed to list templates: %w", err)
	}

	if initListTemplatesFlag {
		printTemplateList(idx, templates)
		return nil
	}

	name := initTemplateFlag
	if len(args) > 0 {
		name = args[0]
	}

	var chosen *config.TemplatePipeline
	for i := range templates {
		if templates[i].PipelineConfig.Name == initTemplateFlag {
			chosen = &templates[i]
			break
		}
	}
	if chosen == nil {
		return fmt.Errorf("unknown template %q (use --list-templates to see available templates)", initTemplateFlag)
	}

	if err := scaffoldProjectConfig(); err != nil {
		return err
	}

	if err := os.MkdirAll("pipelines", 0o755); err != nil {
		return fmt.Errorf("failed to create pipelines directory: %w", err)
	}

	destPath := filepath.Join("pipelines", name+".yaml")
	if _, err := os.Stat(destPath); err == nil {
		return fmt.Errorf("pipelines/%s.yaml already exists", name)
	}

	manifest := chosen.PipelineConfig
	manifest.Name = name

	out, err := yaml.Marshal(&manifest)
	if err != nil {
		return fmt.Errorf("failed to marshal pipeline manifest: %w", err)
	}
	if err := os.WriteFile(destPath, out, 0o644); err != nil {
		return fmt.Errorf("failed to write pipeline manifest: %w", err)
	}

	fmt.Printf("Wrote pipelines/%s.yaml from template %q (%s, %s)\n", name, initTemplateFlag, chosen.Meta.Category, chosen.Meta.Complexity)
	fmt.Printf("Run it with: strata run %s\n", name)
	return nil
}

func scaffoldProjectConfig() error {
	if _, err := os.Stat("strata.yaml"); err == nil {
		return nil
	}

	cfg, err := config.Load(".")
	if err != nil {
		return fmt.Errorf("failed to build default config: %w", err)
	}

	out, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal default config: %w", err)
	}
	if err := os.WriteFile("strata.yaml", out, 0o644); err != nil {
		return fmt.Errorf("failed to write strata.yaml: %w", err)
	}

	fmt.Println("Wrote strata.yaml")
	return nil
}

func printTemplateList(idx *config.TemplateIndex, templates []config.TemplatePipeline) {
	labels := map[string]string{}
	for _, c := range idx.Categories {
		labels[c.ID] = fmt.Sprintf("%s %s", c.Icon, c.Label)
	}

	sort.Slice(templates, func(i, j int) bool {
		return templates[i].PipelineConfig.Name < templates[j].PipelineConfig.Name
	})

	fmt.Println("Available templates:")
	for _, t := range templates {
		category := labels[t.Meta.Category]
		if category == "" {
			category = t.Meta.Category
		}
		fmt.Printf("  %-12s %-12s %s\n", t.PipelineConfig.Name, t.Meta.Complexity, category)
		if t.PipelineConfig.Description != "" {
			fmt.Printf("               %s\n", t.PipelineConfig.Description)
		}
	}
}
