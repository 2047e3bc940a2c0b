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

// Package chunkgraph holds the result of chunk grouping: the chunks of a
// build and the order in which they must load.
package chunkgraph

import (
	"fmt"
	"slices"

	"bennypowers.dev/spezza/chunk"
	"bennypowers.dev/spezza/modgraph"
)

// Graph is the set of chunks of one build pass plus a loads-before relation
// between them. An edge dep -> dependent means dep must be loaded before
// dependent can run.
//
// Split edges record which chunk dynamically imports or spawns which split
// chunk. They are informational: loading a parent never waits on them.
type Graph struct {
	chunks map[modgraph.Ref]*chunk.Chunk
	order  []modgraph.Ref

	deps       map[modgraph.Ref][]modgraph.Ref // dependent -> deps, in insertion order
	dependents map[modgraph.Ref][]modgraph.Ref // dep -> dependents
	splits     map[modgraph.Ref][]modgraph.Ref // parent -> split children
}

// New creates an empty chunk graph.
func New() *Graph {
	return &Graph{
		chunks:     make(map[modgraph.Ref]*chunk.Chunk),
		deps:       make(map[modgraph.Ref][]modgraph.Ref),
		dependents: make(map[modgraph.Ref][]modgraph.Ref),
		splits:     make(map[modgraph.Ref][]modgraph.Ref),
	}
}

// Add inserts a chunk. Chunk ids are unique within a graph.
func (g *Graph) Add(c *chunk.Chunk) error {
	if _, exists := g.chunks[c.ID]; exists {
		return fmt.Errorf("chunk %s already exists", c.ID)
	}
	g.chunks[c.ID] = c
	g.order = append(g.order, c.ID)
	return nil
}

// Chunk looks up a chunk by id.
func (g *Graph) Chunk(id modgraph.Ref) (*chunk.Chunk, bool) {
	c, ok := g.chunks[id]
	return c, ok
}

// Chunks returns all chunks in the order they were added.
func (g *Graph) Chunks() []*chunk.Chunk {
	result := make([]*chunk.Chunk, 0, len(g.order))
	for _, id := range g.order {
		result = append(result, g.chunks[id])
	}
	return result
}

// IDs returns all chunk ids in the order they were added.
func (g *Graph) IDs() []modgraph.Ref {
	return slices.Clone(g.order)
}

// Len returns the number of chunks.
func (g *Graph) Len() int {
	return len(g.order)
}

// AddEdge records that dep must load before dependent. Self edges and
// repeated edges are ignored.
func (g *Graph) AddEdge(dep, dependent modgraph.Ref) error {
	if err := g.requireBoth(dep, dependent); err != nil {
		return err
	}
	if dep == dependent || slices.Contains(g.deps[dependent], dep) {
		return nil
	}
	g.deps[dependent] = append(g.deps[dependent], dep)
	g.dependents[dep] = append(g.dependents[dep], dependent)
	return nil
}

// Dependencies returns the chunks that must load directly before id.
func (g *Graph) Dependencies(id modgraph.Ref) []modgraph.Ref {
	return slices.Clone(g.deps[id])
}

// Dependents returns the chunks that directly wait on id.
func (g *Graph) Dependents(id modgraph.Ref) []modgraph.Ref {
	return slices.Clone(g.dependents[id])
}

// AddSplitEdge records that parent dynamically imports or spawns child.
func (g *Graph) AddSplitEdge(parent, child modgraph.Ref) error {
	if err := g.requireBoth(parent, child); err != nil {
		return err
	}
	if !slices.Contains(g.splits[parent], child) {
		g.splits[parent] = append(g.splits[parent], child)
	}
	return nil
}

// Splits returns the split chunks that parent dynamically loads.
func (g *Graph) Splits(parent modgraph.Ref) []modgraph.Ref {
	return slices.Clone(g.splits[parent])
}

// ChunkOf returns the id of the first chunk containing module.
func (g *Graph) ChunkOf(module modgraph.Ref) (modgraph.Ref, bool) {
	for _, id := range g.order {
		if g.chunks[id].HasModule(module) {
			return id, true
		}
	}
	return modgraph.Ref{}, false
}

func (g *Graph) requireBoth(a, b modgraph.Ref) error {
	if _, ok := g.chunks[a]; !ok {
		return fmt.Errorf("unknown chunk %s", a)
	}
	if _, ok := g.chunks[b]; !ok {
		return fmt.Errorf("unknown chunk %s", b)
	}
	return nil
}
