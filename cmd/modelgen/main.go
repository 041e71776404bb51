package main

import (
	"os"

	"github.com/ryansmith4/openapi-modelgen-sub000/internal/commands"
)

func main() {
	rootCmd := commands.RootCmd()

	rootCmd.AddCommand(commands.ApplyCmd())
	rootCmd.AddCommand(commands.ValidateCmd())
	rootCmd.AddCommand(commands.SourcesCmd())
	rootCmd.AddCommand(commands.WatchCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
