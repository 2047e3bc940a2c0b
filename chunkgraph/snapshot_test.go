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
package chunkgraph_test

import (
	"bytes"
	"context"
	"errors"
	"maps"
	"slices"
	"testing"

	"bennypowers.dev/spezza/chunk"
	"bennypowers.dev/spezza/chunkgraph"
	"bennypowers.dev/spezza/modgraph"
	"bennypowers.dev/spezza/testutil"
)

var runtimeID = modgraph.ParseRef("@spezza/runtime")

// fixture builds the module and chunk graphs the golden manifests describe.
func fixture(t *testing.T, hashes map[string]uint64) (*modgraph.Graph, *chunkgraph.Graph) {
	t.Helper()
	g := modgraph.New()
	for _, id := range []string{"src/main.js", "src/a.js", "src/lazy.js", "src/b.js", "src/util.js"} {
		if _, err := g.AddModule(modgraph.ParseRef(id), &modgraph.Info{RawHash: hashes[id]}); err != nil {
			t.Fatalf("AddModule failed: %v", err)
		}
	}
	g.Freeze()

	cg := chunkgraph.New()
	add(t, cg, chunk.New(runtimeID, chunk.Runtime{}))
	add(t, cg, newChunk(chunk.Entry{Module: ref("src/main.js"), Name: "main"}, "src/main.js", "src/a.js"))
	add(t, cg, newChunk(chunk.Async{}, "src/lazy.js", "src/b.js"))
	add(t, cg, newChunk(chunk.Entry{Module: ref("src/util.js"), Name: "src_util_js-shared", Shared: true}, "src/util.js"))

	edges := [][2]string{
		{"@spezza/runtime", "src/main.js"},
		{"src/util.js", "src/main.js"},
		{"src/util.js", "src/lazy.js"},
		{"@spezza/runtime", "src/util.js"},
	}
	for _, e := range edges {
		if err := cg.AddEdge(ref(e[0]), ref(e[1])); err != nil {
			t.Fatalf("AddEdge failed: %v", err)
		}
	}
	if err := cg.AddSplitEdge(ref("src/main.js"), ref("src/lazy.js")); err != nil {
		t.Fatalf("AddSplitEdge failed: %v", err)
	}
	return g, cg
}

var baseHashes = map[string]uint64{
	"src/main.js": 1,
	"src/a.js":    2,
	"src/lazy.js": 3,
	"src/b.js":    4,
	"src/util.js": 5,
}

func snapshot(t *testing.T, g *modgraph.Graph, cg *chunkgraph.Graph, version int) *chunkgraph.Snapshot {
	t.Helper()
	snap, err := cg.Snapshot(context.Background(), g, version, 2)
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}
	return snap
}

func TestSnapshotGolden(t *testing.T) {
	tests := []struct {
		format string
		golden string
	}{
		{"json", "chunkgraph/manifest.json"},
		{"text", "chunkgraph/manifest.txt"},
	}

	g, cg := fixture(t, baseHashes)
	snap := snapshot(t, g, cg, 1)

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			actual := []byte(snap.Format(tt.format) + "\n")
			testutil.UpdateGoldenFile(t, tt.golden, actual)
			expected := testutil.LoadGoldenFile(t, tt.golden)
			if expected != nil && !bytes.Equal(expected, actual) {
				t.Errorf("Manifest mismatch.\nExpected:\n%s\nGot:\n%s", expected, actual)
			}
		})
	}
}

func TestParseManifest(t *testing.T) {
	g, cg := fixture(t, baseHashes)
	snap := snapshot(t, g, cg, 3)

	parsed, err := chunkgraph.ParseManifest([]byte(snap.ToJSON()))
	if err != nil {
		t.Fatalf("ParseManifest failed: %v", err)
	}
	if parsed.Version != 3 {
		t.Errorf("Expected version 3, got %d", parsed.Version)
	}
	main, ok := parsed.Chunk(ref("src/main.js"))
	if !ok {
		t.Fatal("Expected src/main.js in parsed manifest")
	}
	want, _ := snap.Chunk(ref("src/main.js"))
	if main.Hash != want.Hash {
		t.Errorf("Expected hash %016x, got %016x", want.Hash, main.Hash)
	}
	if d := chunkgraph.CompareSnapshots(parsed, snap); len(d.Changed) != 0 || len(d.Added) != 0 || len(d.Removed) != 0 {
		t.Errorf("Expected a parsed manifest to compare equal, got %s", d)
	}
}

func TestParseManifestInvalidHash(t *testing.T) {
	data := []byte(`{"version":1,"chunks":[{"id":"a.js","kind":"async","filename":"a_js-async.js","hash":"xyz","modules":["a.js"]}]}`)
	if _, err := chunkgraph.ParseManifest(data); err == nil {
		t.Error("Expected an error for a malformed hash")
	}
}

func TestCompareSnapshots(t *testing.T) {
	g, cg := fixture(t, baseHashes)
	prev := snapshot(t, g, cg, 1)

	t.Run("first build", func(t *testing.T) {
		d := chunkgraph.CompareSnapshots(nil, prev)
		if len(d.Added) != 4 || d.To != 1 {
			t.Errorf("Expected every chunk added, got %s", d)
		}
	})

	t.Run("unchanged", func(t *testing.T) {
		g2, cg2 := fixture(t, baseHashes)
		d := chunkgraph.CompareSnapshots(prev, snapshot(t, g2, cg2, 2))
		if !d.Empty() || d.Unchanged != 4 {
			t.Errorf("Expected no changes, got %s", d)
		}
	})

	t.Run("content change", func(t *testing.T) {
		hashes := maps.Clone(baseHashes)
		hashes["src/b.js"] = 40
		g2, cg2 := fixture(t, hashes)
		d := chunkgraph.CompareSnapshots(prev, snapshot(t, g2, cg2, 2))
		if want := []modgraph.Ref{ref("src/lazy.js")}; !slices.Equal(d.Changed, want) {
			t.Errorf("Expected only src/lazy.js changed, got %s", d)
		}
		if d.Unchanged != 3 {
			t.Errorf("Expected 3 unchanged chunks, got %d", d.Unchanged)
		}
	})

	t.Run("chunk removed and added", func(t *testing.T) {
		g2, _ := fixture(t, baseHashes)
		cg2 := chunkgraph.New()
		add(t, cg2, chunk.New(runtimeID, chunk.Runtime{}))
		add(t, cg2, newChunk(chunk.Entry{Module: ref("src/main.js"), Name: "main"}, "src/main.js", "src/a.js"))
		add(t, cg2, newChunk(chunk.Entry{Module: ref("src/util.js"), Name: "src_util_js-shared", Shared: true}, "src/util.js"))
		add(t, cg2, newChunk(chunk.Async{}, "src/b.js"))
		d := chunkgraph.CompareSnapshots(prev, snapshot(t, g2, cg2, 2))

		if !slices.Equal(d.Removed, []modgraph.Ref{ref("src/lazy.js")}) {
			t.Errorf("Expected src/lazy.js removed, got %v", d.Removed)
		}
		if !slices.Equal(d.Added, []modgraph.Ref{ref("src/b.js")}) {
			t.Errorf("Expected src/b.js added, got %v", d.Added)
		}
	})
}

func TestSnapshotInvariantError(t *testing.T) {
	g, cg := fixture(t, baseHashes)
	add(t, cg, newChunk(chunk.Async{}, "src/ghost.js"))

	_, err := cg.Snapshot(context.Background(), g, 1, 0)
	if !errors.Is(err, chunk.ErrInvariant) {
		t.Errorf("Expected ErrInvariant, got %v", err)
	}
}

func TestHashesCancelled(t *testing.T) {
	g, cg := fixture(t, baseHashes)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := cg.Hashes(ctx, g, 1); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}
