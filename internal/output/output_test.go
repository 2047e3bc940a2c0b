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

package output_test

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/spf13/viper"

	"bennypowers.dev/spezza/chunkgraph"
	"bennypowers.dev/spezza/internal/mapfs"
	"bennypowers.dev/spezza/internal/output"
	"bennypowers.dev/spezza/modgraph"
)

var mainRef = modgraph.ParseRef("src/main.ts")

func snapshot() *chunkgraph.Snapshot {
	return &chunkgraph.Snapshot{
		Version: 3,
		Chunks: []chunkgraph.ChunkState{{
			ID:       mainRef,
			Kind:     "entry",
			Filename: "main.js",
			HashHex:  "00000000000000ff",
			Modules:  []modgraph.Ref{mainRef},
		}},
	}
}

func TestManifest(t *testing.T) {
	t.Run("writer", func(t *testing.T) {
		t.Cleanup(viper.Reset)
		var buf bytes.Buffer
		mfs := mapfs.New()
		if err := output.Manifest(&buf, mfs, snapshot(), "json"); err != nil {
			t.Fatalf("Manifest failed: %v", err)
		}
		snap, err := chunkgraph.ParseManifest(buf.Bytes())
		if err != nil {
			t.Fatalf("Expected a valid manifest, got %v", err)
		}
		if snap.Version != 3 || len(snap.Chunks) != 1 {
			t.Errorf("Expected version 3 with 1 chunk, got %d with %d", snap.Version, len(snap.Chunks))
		}
		if len(mfs.ListFiles()) != 0 {
			t.Errorf("Expected no files written, got %v", mfs.ListFiles())
		}
	})

	t.Run("file", func(t *testing.T) {
		t.Cleanup(viper.Reset)
		viper.Set("output", "/out/dist/chunks.txt")
		var buf bytes.Buffer
		mfs := mapfs.New()
		if err := output.Manifest(&buf, mfs, snapshot(), "text"); err != nil {
			t.Fatalf("Manifest failed: %v", err)
		}
		if buf.Len() != 0 {
			t.Errorf("Expected nothing on the writer, got %q", buf.String())
		}
		data, err := mfs.ReadFile("/out/dist/chunks.txt")
		if err != nil {
			t.Fatalf("Expected manifest file: %v", err)
		}
		if !strings.Contains(string(data), "main.js") {
			t.Errorf("Expected text manifest to name main.js, got %q", data)
		}
	})
}

func TestDiff(t *testing.T) {
	d := chunkgraph.Diff{From: 2, To: 3, Changed: []modgraph.Ref{mainRef}, Unchanged: 1}

	t.Run("text", func(t *testing.T) {
		t.Cleanup(viper.Reset)
		var buf bytes.Buffer
		if err := output.Diff(&buf, d); err != nil {
			t.Fatalf("Diff failed: %v", err)
		}
		expected := "v2 -> v3: 0 added, 0 removed, 1 changed, 1 unchanged\n  ~ src/main.ts\n"
		if buf.String() != expected {
			t.Errorf("Expected %q, got %q", expected, buf.String())
		}
	})

	t.Run("json logs", func(t *testing.T) {
		t.Cleanup(viper.Reset)
		viper.Set("logFormat", "json")
		var buf bytes.Buffer
		if err := output.Diff(&buf, d); err != nil {
			t.Fatalf("Diff failed: %v", err)
		}
		var got chunkgraph.Diff
		if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
			t.Fatalf("Expected JSON diff, got %q: %v", buf.String(), err)
		}
		if got.To != 3 || len(got.Changed) != 1 || got.Changed[0] != mainRef {
			t.Errorf("Expected the change to src/main.ts in v3, got %+v", got)
		}
	})
}
