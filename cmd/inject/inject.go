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

// Package inject provides the inject command for spezza.
package inject

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	buildcmd "bennypowers.dev/spezza/cmd/build"
	"bennypowers.dev/spezza/fs"
	"bennypowers.dev/spezza/inject"
	"bennypowers.dev/spezza/internal/build"
)

// ErrNoHTML is returned when inject has no HTML files to work on.
var ErrNoHTML = errors.New("no HTML files: pass them as arguments or configure html")

// Cmd is the inject command.
var Cmd = &cobra.Command{
	Use:   "inject [html...]",
	Short: "Write modulepreload links for each page's chunks into HTML files",
	Long: `Build the chunk graph for the module scripts of HTML files, then write a
<link rel="modulepreload"> tag into each file's <head> for every chunk its
scripts load, in load order.

Links written by an earlier run carry a data-spezza attribute and are
replaced; other links are left alone. Arguments are globs relative to the
root and replace the html key of spezza.yaml.`,
	Example: `  # Inject preload links into the configured HTML files
  spezza inject

  # Chunks served from /assets/
  spezza inject "pages/**/*.html" --base /assets/

  # Dry run to see what would change
  spezza inject index.html --dry-run`,
	RunE: run,
}

func init() {
	buildcmd.AddFlags(Cmd, "text")
	Cmd.Flags().String("base", "", "URL prefix for chunk filenames in links")
	Cmd.Flags().Bool("dry-run", false, "Show what would change without modifying files")
}

func run(cmd *cobra.Command, args []string) error {
	start := time.Now()
	if err := buildcmd.BindFlags(cmd); err != nil {
		return err
	}
	osfs := fs.NewOSFileSystem()

	v := viper.GetViper()
	if len(args) > 0 {
		v.Set("html", args)
	}
	cfg, logger, err := build.Setup(v, osfs, nil, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	if len(cfg.HTML) == 0 {
		return ErrNoHTML
	}

	builder := build.New(osfs, cfg, logger)
	result, err := builder.Build(cmd.Context())
	if err != nil {
		return err
	}

	base, _ := cmd.Flags().GetString("base")
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	opts := inject.Options{
		Base:     base,
		Parallel: cfg.Parallel,
		DryRun:   dryRun,
	}
	planner := inject.ChunkPlanner{Tracer: builder.Tracer(), Chunks: result.Chunks}
	results := inject.InjectBatch(osfs, cfg.HTML, planner, opts)

	stats := inject.Stats{Total: len(cfg.HTML)}
	out := cmd.OutOrStdout()
	encoder := json.NewEncoder(out)
	for r := range results {
		switch {
		case r.Error != "":
			stats.Errors++
			if cfg.Format == "json" {
				_ = encoder.Encode(r)
			} else {
				logger.Error().Str("file", r.File).Msg(r.Error)
			}
		case r.Modified:
			if r.Inserted {
				stats.Inserted++
			} else {
				stats.Updated++
			}
			if cfg.Format == "json" {
				_ = encoder.Encode(r)
			} else if dryRun {
				action := "would update"
				if r.Inserted {
					action = "would insert into"
				}
				fmt.Fprintf(out, "%s %s\n", action, r.File)
			}
		default:
			stats.Skipped++
		}
	}
	stats.Duration = time.Since(start).Milliseconds()

	if cfg.Format == "json" {
		_ = encoder.Encode(stats)
	} else {
		verb := "Injected"
		if dryRun {
			verb = "Dry run"
		}
		fmt.Fprintf(out, "%s: %d files modified (%d updated, %d new), %d unchanged, %d errors\n",
			verb, stats.Updated+stats.Inserted, stats.Updated, stats.Inserted, stats.Skipped, stats.Errors)
	}

	if stats.Errors > 0 && stats.Errors == stats.Total {
		return fmt.Errorf("all %d files failed", stats.Errors)
	}
	return nil
}
