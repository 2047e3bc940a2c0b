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
	"errors"
	"slices"
	"testing"

	"bennypowers.dev/spezza/chunk"
	"bennypowers.dev/spezza/chunkgraph"
)

func TestCheckCycles(t *testing.T) {
	tests := []struct {
		name   string
		chunks []*chunk.Chunk
		edges  [][2]string
		cycle  []string
	}{
		{
			name: "acyclic",
			chunks: []*chunk.Chunk{
				newChunk(chunk.Entry{Name: "main"}, "main.js"),
				newChunk(chunk.Async{}, "lazy.js"),
				newChunk(chunk.Sync{}, "dep.js"),
			},
			edges: [][2]string{{"dep.js", "lazy.js"}, {"main.js", "lazy.js"}},
		},
		{
			name: "entry cycle is allowed",
			chunks: []*chunk.Chunk{
				newChunk(chunk.Entry{Name: "a"}, "a.js"),
				newChunk(chunk.Entry{Name: "b"}, "b.js"),
			},
			edges: [][2]string{{"a.js", "b.js"}, {"b.js", "a.js"}},
		},
		{
			name: "async cycle",
			chunks: []*chunk.Chunk{
				newChunk(chunk.Entry{Name: "main"}, "main.js"),
				newChunk(chunk.Async{}, "y.js"),
				newChunk(chunk.Async{}, "x.js"),
			},
			edges: [][2]string{{"x.js", "y.js"}, {"y.js", "x.js"}, {"main.js", "x.js"}},
			cycle: []string{"x.js", "y.js"},
		},
		{
			name: "worker cycle through sync",
			chunks: []*chunk.Chunk{
				newChunk(chunk.Worker{}, "w.js"),
				newChunk(chunk.Sync{}, "s.js"),
				newChunk(chunk.Sync{}, "t.js"),
			},
			edges: [][2]string{{"s.js", "w.js"}, {"w.js", "t.js"}, {"t.js", "s.js"}},
			cycle: []string{"s.js", "t.js", "w.js"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cg := chunkgraph.New()
			for _, c := range tt.chunks {
				add(t, cg, c)
			}
			for _, e := range tt.edges {
				edge(t, cg, e[0], e[1])
			}

			err := cg.CheckCycles()
			if tt.cycle == nil {
				if err != nil {
					t.Errorf("Expected no cycle error, got %v", err)
				}
				return
			}
			var cerr *chunkgraph.CycleError
			if !errors.As(err, &cerr) {
				t.Fatalf("Expected *CycleError, got %v", err)
			}
			if !errors.Is(err, chunkgraph.ErrCycle) {
				t.Error("Expected error to wrap ErrCycle")
			}
			if want := refs(tt.cycle...); !slices.Equal(cerr.Chunks, want) {
				t.Errorf("Expected cycle %v, got %v", want, cerr.Chunks)
			}
		})
	}
}

func TestCheckFilenames(t *testing.T) {
	cg := chunkgraph.New()
	add(t, cg, newChunk(chunk.Entry{Name: "lazy_js-async"}, "main.js"))
	add(t, cg, newChunk(chunk.Async{}, "lazy.js"))

	err := cg.CheckFilenames()
	var ferr *chunkgraph.FilenameCollisionError
	if !errors.As(err, &ferr) {
		t.Fatalf("Expected *FilenameCollisionError, got %v", err)
	}
	if ferr.Filename != "lazy_js-async.js" {
		t.Errorf("Expected collision on lazy_js-async.js, got %s", ferr.Filename)
	}
	if !errors.Is(cg.Validate(), chunkgraph.ErrFilenameCollision) {
		t.Error("Expected Validate to report the collision")
	}
}

func TestCheckMembership(t *testing.T) {
	cg := chunkgraph.New()
	add(t, cg, newChunk(chunk.Entry{Name: "main"}, "main.js", "dup.js"))
	add(t, cg, newChunk(chunk.Async{}, "lazy.js", "dup.js"))

	err := cg.CheckMembership(refs("main.js", "dup.js", "lazy.js", "orphan.js"))
	var merr *chunkgraph.MembershipError
	if !errors.As(err, &merr) {
		t.Fatalf("Expected *MembershipError, got %v", err)
	}
	if !slices.Equal(merr.Orphaned, refs("orphan.js")) {
		t.Errorf("Expected orphan.js orphaned, got %v", merr.Orphaned)
	}
	if !slices.Equal(merr.Duplicated, refs("dup.js")) {
		t.Errorf("Expected dup.js duplicated, got %v", merr.Duplicated)
	}
}

func TestLoadOrder(t *testing.T) {
	cg := chunkgraph.New()
	add(t, cg, chunk.New(runtimeID, chunk.Runtime{}))
	add(t, cg, newChunk(chunk.Entry{Name: "main"}, "main.js"))
	add(t, cg, newChunk(chunk.Entry{Name: "vendor", Shared: true}, "vendor.js"))
	add(t, cg, newChunk(chunk.Entry{Name: "util", Shared: true}, "util.js"))
	edge(t, cg, "@spezza/runtime", "main.js")
	edge(t, cg, "vendor.js", "main.js")
	edge(t, cg, "util.js", "main.js")
	edge(t, cg, "vendor.js", "util.js")

	order, err := cg.LoadOrder(ref("main.js"))
	if err != nil {
		t.Fatalf("LoadOrder failed: %v", err)
	}
	if want := refs("@spezza/runtime", "vendor.js", "util.js", "main.js"); !slices.Equal(order, want) {
		t.Errorf("Expected %v, got %v", want, order)
	}

	if _, err := cg.LoadOrder(ref("missing.js")); err == nil {
		t.Error("Expected an error for an unknown chunk")
	}

	edge(t, cg, "main.js", "vendor.js")
	order, err = cg.LoadOrder(ref("main.js"))
	if err != nil {
		t.Fatalf("Expected entry chunks in a cycle to load as a group, got %v", err)
	}
	if want := refs("@spezza/runtime", "vendor.js", "util.js", "main.js"); !slices.Equal(order, want) {
		t.Errorf("Expected %v, got %v", want, order)
	}
	order, err = cg.LoadOrder(ref("vendor.js"))
	if err != nil {
		t.Fatalf("LoadOrder failed: %v", err)
	}
	if want := refs("@spezza/runtime", "main.js", "util.js", "vendor.js"); !slices.Equal(order, want) {
		t.Errorf("Expected %v, got %v", want, order)
	}

	add(t, cg, newChunk(chunk.Async{}, "lazy.js"))
	edge(t, cg, "lazy.js", "main.js")
	edge(t, cg, "main.js", "lazy.js")
	if _, err := cg.LoadOrder(ref("main.js")); !errors.Is(err, chunkgraph.ErrCycle) {
		t.Errorf("Expected ErrCycle for a cycle through an async chunk, got %v", err)
	}
}
