package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ryansmith4/openapi-modelgen-sub000/internal/config"
	"github.com/ryansmith4/openapi-modelgen-sub000/internal/output"
	"github.com/ryansmith4/openapi-modelgen-sub000/internal/sources"
)

// SourcesCmd creates the 'sources' command: show the customization sources
// the current project resolves to, in precedence order.
func SourcesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sources",
		Short: "Show resolved customization sources in precedence order",
		Long: `Sources resolves the project's customization sources and prints
them lowest precedence first. Incompatible libraries and empty source
directories are dropped from the list; run with --verbose to see why.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			return runSources()
		},
	}
	return cmd
}

func runSources() error {
	cfg, err := config.Load("")
	if err != nil {
		return err
	}

	resolver, templates, err := buildResolver(cfg)
	if err != nil {
		return err
	}

	order := resolver.Resolve(cfg.PrecedenceOrder())

	output.Info(fmt.Sprintf("Generator: %s %s", cfg.Generator, cfg.GeneratorVersion))
	output.Info(fmt.Sprintf("Base templates: %d files in %s", len(templates), cfg.TemplateDir))
	output.Info("Sources (lowest precedence first):")
	for i, cat := range order {
		output.Step(fmt.Sprintf("%d. %s", i+1, categoryLabel(cat)))
	}
	return nil
}

func categoryLabel(cat sources.Category) string {
	switch cat {
	case sources.CategoryBase:
		return "openapi-generator (base templates)"
	case sources.CategoryPlugin:
		return "plugin customizations"
	case sources.CategoryLibraryTemplates:
		return "library templates"
	case sources.CategoryLibraryCustomizations:
		return "library customizations"
	case sources.CategoryUserCustomizations:
		return "user customizations"
	case sources.CategoryUserTemplates:
		return "user templates"
	}
	return string(cat)
}
