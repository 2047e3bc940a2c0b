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

// Package build provides the build command for spezza.
package build

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"bennypowers.dev/spezza/chunkgraph"
	"bennypowers.dev/spezza/fs"
	"bennypowers.dev/spezza/internal/build"
	"bennypowers.dev/spezza/internal/output"
)

// Cmd is the build cobra command that traces entry files, groups their
// modules into chunks and prints the chunk manifest.
var Cmd = &cobra.Command{
	Use:   "build [entry...]",
	Short: "Group a module graph into chunks and print the chunk manifest",
	Long: `Trace entry files and their imports, split the module graph into chunks and
print a manifest listing every chunk's filename, content hash, members and
load order.

Entries come from the arguments when given, otherwise from the entries and
html keys of spezza.yaml, otherwise from package.json.
With --previous, a summary of what changed since that manifest is printed to stderr.`,
	Example: `  # Build the entries configured in spezza.yaml
  spezza build

  # Build explicit entries, in this order
  spezza build src/main.ts src/admin.ts

  # Entries from a glob, with a runtime chunk
  spezza build "src/pages/*.ts" --runtime

  # Human-readable output
  spezza build --format text

  # Compare with the manifest of an earlier build
  spezza build --previous dist/chunks.json -o dist/chunks.json`,
	RunE: run,
}

func init() {
	AddFlags(Cmd, "json")
	Cmd.Flags().String("previous", "", "Manifest of a previous build to diff against")
}

// AddFlags registers the flags shared by the commands that run a build.
func AddFlags(cmd *cobra.Command, format string) {
	cmd.Flags().StringP("format", "f", format, "Output format (json, text)")
	cmd.Flags().Bool("runtime", false, "Emit a runtime chunk that loads before every entry")
	cmd.Flags().IntP("jobs", "j", 0, "Number of parallel hash workers (default: number of CPUs)")
	cmd.Flags().Bool("node-modules", false, "Follow bare specifiers into node_modules")
}

// BindFlags binds the flags registered by AddFlags to viper keys. It runs
// when a command starts so the command being run owns the binding.
func BindFlags(cmd *cobra.Command) error {
	for key, flag := range map[string]string{
		"format":      "format",
		"runtime":     "runtime",
		"parallel":    "jobs",
		"nodeModules": "node-modules",
	} {
		if err := viper.BindPFlag(key, cmd.Flags().Lookup(flag)); err != nil {
			return fmt.Errorf("binding --%s: %w", flag, err)
		}
	}
	return nil
}

func run(cmd *cobra.Command, args []string) error {
	if err := BindFlags(cmd); err != nil {
		return err
	}
	osfs := fs.NewOSFileSystem()

	cfg, logger, err := build.Setup(viper.GetViper(), osfs, args, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	builder := build.New(osfs, cfg, logger)

	previous, _ := cmd.Flags().GetString("previous")
	if previous != "" && osfs.Exists(previous) {
		data, err := osfs.ReadFile(previous)
		if err != nil {
			return fmt.Errorf("reading previous manifest: %w", err)
		}
		snap, err := chunkgraph.ParseManifest(data)
		if err != nil {
			return fmt.Errorf("invalid previous manifest %s: %w", previous, err)
		}
		builder.SetPrevious(snap)
	}

	result, err := builder.Build(cmd.Context())
	if err != nil {
		return err
	}
	logger.Infof("%d modules in %d chunks", result.Modules.Len(), result.Chunks.Len())
	if previous != "" {
		if err := output.Diff(cmd.ErrOrStderr(), result.Diff); err != nil {
			return err
		}
	}

	return output.Manifest(cmd.OutOrStdout(), osfs, result.Snapshot, cfg.Format)
}
