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
package grouping

import (
	"bennypowers.dev/spezza/chunk"
	"bennypowers.dev/spezza/modgraph"
)

// Edge is a directed pair of chunk ids.
type Edge struct {
	From, To modgraph.Ref
}

// Assignment is the outcome of the first grouping stage. Every module
// reachable from a root is in at least one chunk; modules reachable from
// several roots are in each of them.
type Assignment struct {
	// Chunks holds one chunk per root, in root order. Each chunk's id is its
	// root module.
	Chunks []*chunk.Chunk
	// Owners maps each module to the chunks containing it, in root order.
	Owners map[modgraph.Ref][]modgraph.Ref
	// Discovery lists every assigned module once, in the order it was first
	// assigned.
	Discovery []modgraph.Ref
	// LoadsBefore holds edges From -> To where chunk From must load before
	// chunk To, found where a static import crosses into another root.
	LoadsBefore []Edge
	// Splits holds edges From -> To where chunk From dynamically imports or
	// spawns chunk To.
	Splits []Edge
}

// Assign walks the static imports of every root breadth-first and collects
// the modules it reaches into that root's chunk. The walk stops at other
// roots: a static import of another root becomes a loads-before edge, and
// dynamic imports and workers become split edges.
func Assign(g *modgraph.Graph, entries []Entry) *Assignment {
	roots := Roots(g, entries)
	a := &Assignment{
		Chunks: make([]*chunk.Chunk, 0, len(roots)),
		Owners: make(map[modgraph.Ref][]modgraph.Ref),
	}

	isRoot := make(map[modgraph.Ref]bool, len(roots))
	for _, r := range roots {
		isRoot[r.Module] = true
	}

	for _, r := range roots {
		c := chunk.New(r.Module, r.Kind)
		c.AddModule(r.Module)

		queue := []modgraph.Ref{r.Module}
		for len(queue) > 0 {
			current := queue[0]
			queue = queue[1:]
			for _, dep := range g.Dependencies(current) {
				switch {
				case dep.Kind != modgraph.Static:
					a.addSplit(Edge{From: c.ID, To: dep.Target})
				case dep.Target == c.ID:
				case isRoot[dep.Target]:
					a.addLoadsBefore(Edge{From: dep.Target, To: c.ID})
				case !c.HasModule(dep.Target):
					c.AddModule(dep.Target)
					queue = append(queue, dep.Target)
				}
			}
		}

		for _, m := range c.Modules() {
			if _, ok := a.Owners[m]; !ok {
				a.Discovery = append(a.Discovery, m)
			}
			a.Owners[m] = append(a.Owners[m], c.ID)
		}
		a.Chunks = append(a.Chunks, c)
	}
	return a
}

func (a *Assignment) addLoadsBefore(e Edge) {
	for _, existing := range a.LoadsBefore {
		if existing == e {
			return
		}
	}
	a.LoadsBefore = append(a.LoadsBefore, e)
}

func (a *Assignment) addSplit(e Edge) {
	for _, existing := range a.Splits {
		if existing == e {
			return
		}
	}
	a.Splits = append(a.Splits, e)
}
