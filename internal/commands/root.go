package commands

import (
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	modelgen "github.com/ryansmith4/openapi-modelgen-sub000"
	"github.com/ryansmith4/openapi-modelgen-sub000/internal/output"
)

// RootCmd creates and returns the root command for the modelgen CLI
func RootCmd() *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "modelgen",
		Short: "Declarative template customization for OpenAPI code generation",
		Long: `Modelgen customizes code-generation templates from YAML rule documents.

Instead of forking and maintaining whole template files, you describe
targeted edits (insertions, replacements, semantic patches) and modelgen
applies them to the generator's base templates:
• Merge customizations from plugin, library, and user sources
• Gate edits on generator version, template content, and project properties
• Write customized templates ready for the generator to consume

Run 'modelgen apply' in a directory with a modelgen.yml.`,
		Version: modelgen.Version,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			output.SetVerbose(verbose)
		},
	}

	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output for debugging")

	return cmd
}

// newLogger builds the slog logger threaded through the engine and resolver.
// Verbose mode lowers the level to debug.
func newLogger() *slog.Logger {
	level := slog.LevelWarn
	if output.Verbose() {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// envMap converts os.Environ into the key/value form condition evaluation
// expects.
func envMap() map[string]string {
	env := make(map[string]string)
	for _, kv := range os.Environ() {
		if key, value, ok := strings.Cut(kv, "="); ok {
			env[key] = value
		}
	}
	return env
}
