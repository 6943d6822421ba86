package commands

import (
	"os/signal"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/typebridge/typebridge/errors"
	"github.com/typebridge/typebridge/logger"
)

// debounceWindow coalesces the burst of write events editors and front ends
// produce for a single logical save.
const debounceWindow = 250 * time.Millisecond

// WatchCmd regenerates output whenever the snapshot file changes.
var WatchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Regenerate whenever the IR snapshot changes",
	Long: `Watch the snapshot file and rerun generation on every change.

A failed regeneration logs the error and keeps watching; the previous
output stays in place until a run succeeds.

Example:
  typebridge watch -s types.json -o web/types/`,
	RunE: runWatch,
}

func init() {
	WatchCmd.Flags().StringVarP(&genSnapshot, "snapshot", "s", "", "IR snapshot file to watch (required)")
	WatchCmd.Flags().StringVarP(&genConfig, "config", "c", "", "Config file (default: typebridge.toml if present)")
	WatchCmd.Flags().StringVarP(&genOutput, "output", "o", ".", "Output directory")
	WatchCmd.Flags().StringSliceVarP(&genLanguages, "lang", "l", nil, "Target languages, overrides config")
	_ = WatchCmd.MarkFlagRequired("snapshot")
}

func runWatch(cmd *cobra.Command, args []string) error {
	if genSnapshot == "-" {
		return errors.New("watch mode needs a snapshot file, not stdin")
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	regenerate := func() {
		snap, err := loadSnapshot(genSnapshot)
		if err != nil {
			logger.Errorw("Snapshot reload failed", "file", genSnapshot, "error", err)
			return
		}
		if err := generateAll(snap, cfg, genOutput); err != nil {
			// structural problems are fixable by editing the source types,
			// so keep watching and say so
			if errors.IsStructural(err) {
				logger.Errorw("Snapshot has structural problems, fix the types and save again", "error", err)
			} else {
				logger.Errorw("Regeneration failed", "error", err)
			}
			return
		}
		logger.Infow("Regenerated", "snapshot", genSnapshot)
	}

	// initial pass so the output exists before the first change
	regenerate()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "create watcher")
	}
	defer watcher.Close()

	if err := watcher.Add(genSnapshot); err != nil {
		return errors.Wrapf(err, "watch %s", genSnapshot)
	}
	logger.Infow("Watching for changes", "snapshot", genSnapshot)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var debounce *time.Timer
	pending := make(chan struct{}, 1)

	for {
		select {
		case <-ctx.Done():
			logger.Infow("Watch stopped")
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			// editors often replace the file, dropping the watch with it
			if event.Op&(fsnotify.Rename|fsnotify.Create) != 0 {
				_ = watcher.Add(genSnapshot)
			}
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(debounceWindow, func() {
				select {
				case pending <- struct{}{}:
				default:
				}
			})

		case <-pending:
			regenerate()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warnw("Watcher error", "error", err)
		}
	}
}
