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

// Package output writes what the spezza commands produce: chunk manifests
// and rebuild diffs.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/viper"

	"bennypowers.dev/spezza/chunkgraph"
	"bennypowers.dev/spezza/fs"
)

// Manifest renders snap in format and writes it to the file named by the
// "output" key, creating its directory, or to w when no file is set.
func Manifest(w io.Writer, fsys fs.FileSystem, snap *chunkgraph.Snapshot, format string) error {
	out := snap.Format(format) + "\n"

	outputPath := viper.GetString("output")
	if outputPath == "" {
		_, err := io.WriteString(w, out)
		return err
	}
	if err := fsys.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	if err := fsys.WriteFile(outputPath, []byte(out), 0644); err != nil {
		return fmt.Errorf("writing manifest: %w", err)
	}
	return nil
}

// Diff writes d to w: one JSON object when the logs are JSON, so a log
// collector can parse it, otherwise the summary from Diff.String.
func Diff(w io.Writer, d chunkgraph.Diff) error {
	if viper.GetString("logFormat") != "json" {
		_, err := fmt.Fprintln(w, d.String())
		return err
	}
	data, err := json.Marshal(d)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
