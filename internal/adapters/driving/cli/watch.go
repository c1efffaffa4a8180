package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/arkive-labs/docchat/internal/logger"
)

// debounceWindow coalesces rapid write events for the same file, which
// editors tend to produce in bursts on save.
const debounceWindow = 500 * time.Millisecond

var watchExtensions []string

var watchCmd = &cobra.Command{
	Use:   "watch [directory]",
	Short: "Watch a directory and ingest changed files",
	Long: `Watches a directory for new or modified text files and ingests
them automatically. Runs until interrupted.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringSliceVar(&watchExtensions, "ext", []string{".txt", ".md"}, "file extensions to ingest")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	dir := args[0]

	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("watching %s: %w", dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("watching %s: not a directory", dir)
	}

	if err := initServices(); err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watching %s: %w", dir, err)
	}

	cmd.Printf("Watching %s for changes (extensions: %s)...\n", dir, strings.Join(watchExtensions, ", "))

	return watchLoop(cmd.Context(), cmd, watcher)
}

// watchLoop ingests files as events arrive, debouncing per path.
func watchLoop(ctx context.Context, cmd *cobra.Command, watcher *fsnotify.Watcher) error {
	pending := make(map[string]time.Time)
	ticker := time.NewTicker(debounceWindow)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if !watchable(event.Name) {
				continue
			}
			pending[event.Name] = time.Now()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch error: %v", err)

		case now := <-ticker.C:
			for path, seen := range pending {
				if now.Sub(seen) < debounceWindow {
					continue
				}
				delete(pending, path)

				if err := ingestFile(ctx, path); err != nil {
					logger.Warn("ingest %s: %v", path, err)
					continue
				}
				cmd.Printf("Ingested %s.\n", filepath.Base(path))
			}
		}
	}
}

// watchable reports whether the path has one of the watched extensions.
func watchable(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, want := range watchExtensions {
		if ext == strings.ToLower(want) {
			return true
		}
	}
	return false
}

// ingestFile reads a file and ingests it under its base name.
func ingestFile(ctx context.Context, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return ingestService.Ingest(ctx, string(data), filepath.Base(path))
}
