package commands

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/ryansmith4/openapi-modelgen-sub000/internal/config"
	"github.com/ryansmith4/openapi-modelgen-sub000/internal/output"
)

// watchDebounce groups bursts of file events (editors write several times
// per save) into one re-apply.
const watchDebounce = 300 * time.Millisecond

// WatchCmd creates the 'watch' command: re-run apply whenever a template or
// rule document changes.
func WatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Re-apply customizations when templates or rule documents change",
		Long: `Watch monitors the template and customization directories and
re-runs apply on every change. Output files are always overwritten; use
apply directly when you need conflict prompts.

Stop with Ctrl+C.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			return runWatch()
		},
	}
	return cmd
}

func runWatch() error {
	cfg, err := config.Load("")
	if err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("cannot start watcher: %w", err)
	}
	defer watcher.Close()

	watched := 0
	for _, dir := range watchDirs(cfg) {
		if err := watcher.Add(dir); err != nil {
			output.Warn(fmt.Sprintf("not watching %s: %v", dir, err))
			continue
		}
		output.Debug("watching " + dir)
		watched++
	}
	if watched == 0 {
		return fmt.Errorf("no directories to watch")
	}

	// Initial pass so the output directory is current before watching.
	if err := runApply(true, false, false, false); err != nil {
		output.Error(err.Error())
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	output.Info("Watching for changes (Ctrl+C to stop)")

	var timer *time.Timer
	var fire <-chan time.Time
	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !relevantChange(event) {
				continue
			}
			output.Debug(fmt.Sprintf("%s %s", event.Op, event.Name))
			if timer == nil {
				timer = time.NewTimer(watchDebounce)
			} else {
				// A tick already in the channel would fire the reset
				// timer immediately; drain it first.
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(watchDebounce)
			}
			fire = timer.C
		case <-fire:
			fire = nil
			if err := runApply(true, false, false, false); err != nil {
				output.Error(err.Error())
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			output.Warn(fmt.Sprintf("watch error: %v", err))
		case <-sig:
			output.Info("Stopped")
			return nil
		}
	}
}

// watchDirs lists every configured source directory, including library
// subdirectories, skipping those that do not exist.
func watchDirs(cfg *config.Config) []string {
	candidates := []string{
		cfg.TemplateDir,
		cfg.PluginCustomizationDir,
		cfg.UserTemplateDir,
		cfg.UserCustomizationDir,
	}
	for _, lib := range cfg.LibraryDirs {
		candidates = append(candidates,
			lib,
			lib+"/templates",
			lib+"/customizations",
		)
	}

	var dirs []string
	for _, dir := range candidates {
		if dir == "" {
			continue
		}
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			dirs = append(dirs, dir)
		}
	}
	return dirs
}

// relevantChange filters out events that cannot affect output: non-write
// operations and files that are neither templates nor rule documents.
func relevantChange(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return false
	}
	return strings.HasSuffix(event.Name, ".mustache") ||
		strings.HasSuffix(event.Name, ".yaml") ||
		strings.HasSuffix(event.Name, ".yml")
}
