/*
Copyright © 2026 Benny Powers <web@bennypowers.com>

This program is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

This program is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with this program. If not, see <http://www.gnu.org/licenses/>.
*/

// Package watch provides the watch command for spezza.
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	buildcmd "bennypowers.dev/spezza/cmd/build"
	"bennypowers.dev/spezza/fs"
	"bennypowers.dev/spezza/internal/build"
	"bennypowers.dev/spezza/internal/logging"
	"bennypowers.dev/spezza/internal/output"
)

// settle is how long the watcher waits for a burst of file events to end
// before rebuilding.
const settle = 100 * time.Millisecond

// Cmd is the watch cobra command that rebuilds the chunk graph whenever a
// traced file changes.
var Cmd = &cobra.Command{
	Use:   "watch [entry...]",
	Short: "Rebuild the chunk manifest when source files change",
	Long: `Build once, then watch every traced file. On change, only the changed files
are parsed again; the chunk graph is rebuilt and the difference from the
previous build is printed to stderr. The manifest is printed again whenever
a chunk changed.`,
	Example: `  # Watch the entries configured in spezza.yaml
  spezza watch

  # Keep a manifest file up to date
  spezza watch -o dist/chunks.json`,
	RunE: run,
}

func init() {
	buildcmd.AddFlags(Cmd, "json")
}

func run(cmd *cobra.Command, args []string) error {
	if err := buildcmd.BindFlags(cmd); err != nil {
		return err
	}
	osfs := fs.NewOSFileSystem()

	cfg, logger, err := build.Setup(viper.GetViper(), osfs, args, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	builder := build.New(osfs, cfg, logger)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("starting file watcher: %w", err)
	}
	defer watcher.Close()

	ctx := cmd.Context()
	result, err := builder.Build(ctx)
	if err != nil {
		return err
	}
	if err := output.Manifest(cmd.OutOrStdout(), osfs, result.Snapshot, cfg.Format); err != nil {
		return err
	}
	watchDirs(watcher, builder.Files(result), logger)
	logger.Infof("watching %d files", len(builder.Files(result)))

	return loop(ctx, watcher, builder, logger, func(r *build.Result) error {
		if err := output.Diff(cmd.ErrOrStderr(), r.Diff); err != nil {
			return err
		}
		if r.Diff.Empty() {
			return nil
		}
		watchDirs(watcher, builder.Files(r), logger)
		return output.Manifest(cmd.OutOrStdout(), osfs, r.Snapshot, cfg.Format)
	})
}

// loop collects file events until they settle, then rebuilds. Build errors
// are logged and the loop keeps waiting for the next change.
func loop(ctx context.Context, watcher *fsnotify.Watcher, builder *build.Builder, logger *logging.Logger, rebuilt func(*build.Result) error) error {
	timer := time.NewTimer(settle)
	timer.Stop()
	pending := make(map[string]bool)

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Has(fsnotify.Chmod) && !event.Has(fsnotify.Write) {
				continue
			}
			pending[filepath.Clean(event.Name)] = true
			timer.Reset(settle)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warning("watch error: %v", err)

		case <-timer.C:
			changed := make([]string, 0, len(pending))
			for file := range pending {
				changed = append(changed, file)
			}
			clear(pending)
			slices.Sort(changed)
			logger.Debug("changed: %v", changed)

			builder.Invalidate(changed...)
			result, err := builder.Build(ctx)
			if err != nil {
				logger.Error().Err(err).Msg("rebuild failed")
				continue
			}
			if err := rebuilt(result); err != nil {
				return err
			}
		}
	}
}

// watchDirs adds the directories containing files to the watcher.
func watchDirs(watcher *fsnotify.Watcher, files []string, logger *logging.Logger) {
	watched := watcher.WatchList()
	for _, file := range files {
		dir := filepath.Dir(file)
		if slices.Contains(watched, dir) {
			continue
		}
		if err := watcher.Add(dir); err != nil {
			logger.Warning("cannot watch %s: %v", dir, err)
			continue
		}
		watched = append(watched, dir)
	}
}
