package commands

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	modelgen "github.com/ryansmith4/openapi-modelgen-sub000"
	"github.com/ryansmith4/openapi-modelgen-sub000/internal/config"
	"github.com/ryansmith4/openapi-modelgen-sub000/internal/emit"
	"github.com/ryansmith4/openapi-modelgen-sub000/internal/engine"
	"github.com/ryansmith4/openapi-modelgen-sub000/internal/output"
	"github.com/ryansmith4/openapi-modelgen-sub000/internal/sources"
)

// ApplyCmd creates the 'apply' command: customize every base template and
// write the results to the output directory.
func ApplyCmd() *cobra.Command {
	var force, skip, diff, dryRun bool

	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Apply customizations and write templates to the output directory",
		Long: `Apply merges every available customization source onto the base
templates and writes the customized templates to the output directory.

Sources are applied lowest precedence first, so later sources win on
overlapping edits. Existing output files trigger conflict resolution:
an interactive prompt on a terminal, skip otherwise, unless --force,
--skip, or --diff picks a strategy up front.

Examples:
  modelgen apply
  modelgen apply --dry-run
  modelgen apply --force`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			return runApply(force, skip, diff, dryRun)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite existing output files without prompting")
	cmd.Flags().BoolVar(&skip, "skip", false, "Keep existing output files without prompting")
	cmd.Flags().BoolVar(&diff, "diff", false, "Show a diff before deciding on each conflict")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Report what would be written without writing")

	return cmd
}

func runApply(force, skip, diff, dryRun bool) error {
	cfg, err := config.Load("")
	if err != nil {
		return err
	}

	conflicts, err := emit.NewResolver(force, skip, diff)
	if err != nil {
		return err
	}

	resolver, templates, err := buildResolver(cfg)
	if err != nil {
		return err
	}

	order := resolver.Resolve(cfg.PrecedenceOrder())
	output.Step(fmt.Sprintf("Customizing %d templates for %s", len(templates), cfg.Generator))

	names := make([]string, 0, len(templates))
	for name := range templates {
		names = append(names, name)
	}
	sort.Strings(names)

	var ops []emit.Operation
	for _, name := range names {
		customized, err := resolver.Customize(name, templates[name], order)
		if err != nil {
			return fmt.Errorf("customizing %s: %w", name, err)
		}
		ops = append(ops, &emit.WriteTemplateOp{
			Path:    filepath.Join(cfg.OutputDir, name),
			Content: []byte(customized),
			Mode:    fs.FileMode(0644),
		})
	}

	err = emit.Execute(context.Background(), ops, emit.ExecuteOptions{
		DryRun:   dryRun,
		Resolver: conflicts,
		Writer:   os.Stdout,
	})
	if err != nil {
		return err
	}

	if !dryRun {
		output.Success(fmt.Sprintf("Templates written to %s", cfg.OutputDir))
	}
	return nil
}

// buildResolver assembles the source resolver from the project config:
// base templates, plugin customizations, libraries, and user overrides.
func buildResolver(cfg *config.Config) (*sources.Resolver, map[string]string, error) {
	templates, err := sources.LoadTemplateDir(cfg.TemplateDir)
	if err != nil {
		return nil, nil, err
	}
	if len(templates) == 0 {
		return nil, nil, fmt.Errorf("no templates found in %s", cfg.TemplateDir)
	}

	var plugin map[string]string
	if cfg.PluginCustomizationDir != "" {
		plugin, err = sources.LoadCustomizationDir(cfg.PluginCustomizationDir)
		if err != nil {
			return nil, nil, err
		}
	}

	var libs []*sources.Library
	for _, dir := range cfg.LibraryDirs {
		lib, err := sources.LoadLibrary(dir)
		if err != nil {
			return nil, nil, err
		}
		libs = append(libs, lib)
	}

	logger := newLogger()
	eng := engine.New(engine.WithLogger(logger))
	resolver := sources.NewResolver(eng, sources.Options{
		Generator:            cfg.Generator,
		ToolVersion:          modelgen.Version,
		GeneratorVersion:     cfg.GeneratorVersion,
		Properties:           cfg.Properties,
		Env:                  envMap(),
		PluginCustomizations: plugin,
		Libraries:            libs,
		UserTemplateDir:      cfg.UserTemplateDir,
		UserCustomizationDir: cfg.UserCustomizationDir,
	}, logger)

	return resolver, templates, nil
}
