package commands

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ryansmith4/openapi-modelgen-sub000/internal/output"
	"github.com/ryansmith4/openapi-modelgen-sub000/internal/rules"
)

// ValidateCmd creates the 'validate' command: parse rule documents and
// report every configuration error without applying anything.
func ValidateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate [file|dir...]",
		Short: "Validate YAML rule documents without applying them",
		Long: `Validate parses rule documents and reports structural problems:
unknown keys, missing required fields, bad fallback chains, and unknown
semantic concepts. Errors include line numbers and, where possible, a
suggestion.

With no arguments it validates every .yaml file under the current
directory.

Examples:
  modelgen validate customizations/pojo.yaml
  modelgen validate customizations/`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			if len(args) == 0 {
				args = []string{"."}
			}
			return runValidate(args)
		},
	}
	return cmd
}

func runValidate(paths []string) error {
	files, err := collectRuleFiles(paths)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		output.Warn("No rule documents found")
		return nil
	}

	failed := 0
	for _, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			output.Error(fmt.Sprintf("%s: %v", file, err))
			failed++
			continue
		}

		if _, err := rules.Parse(file, data); err != nil {
			failed++
			var cfgErr *rules.ConfigurationError
			if errors.As(err, &cfgErr) {
				output.Error(cfgErr.Error())
			} else {
				output.Error(fmt.Sprintf("%s: %v", file, err))
			}
			continue
		}
		output.Success(file)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d rule documents failed validation", failed, len(files))
	}
	output.Info(fmt.Sprintf("%d rule documents valid", len(files)))
	return nil
}

// collectRuleFiles expands the given paths into .yaml files, walking
// directories recursively.
func collectRuleFiles(paths []string) ([]string, error) {
	var files []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			files = append(files, p)
			continue
		}
		err = filepath.WalkDir(p, func(path string, d os.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && strings.HasSuffix(path, ".yaml") {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return files, nil
}
