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

// Root is a module that starts its own chunk.
type Root struct {
	Module modgraph.Ref
	Kind   chunk.Kind
}

// Roots lists the chunk roots of g: the entries in the order given, then
// every target of a dynamic import or worker edge in breadth-first
// discovery order. A module that is both an entry and a split target stays
// an entry. A split target reached by both edge kinds takes the kind of the
// edge found first.
func Roots(g *modgraph.Graph, entries []Entry) []Root {
	roots := make([]Root, 0, len(entries))
	isRoot := make(map[modgraph.Ref]bool)
	for _, e := range entries {
		roots = append(roots, Root{Module: e.Module, Kind: chunk.Entry{Module: e.Module, Name: e.Name}})
		isRoot[e.Module] = true
	}

	seen := make(map[modgraph.Ref]bool)
	for _, e := range entries {
		if seen[e.Module] {
			continue
		}
		seen[e.Module] = true
		queue := []modgraph.Ref{e.Module}
		for len(queue) > 0 {
			current := queue[0]
			queue = queue[1:]
			for _, dep := range g.Dependencies(current) {
				if dep.Kind != modgraph.Static && !isRoot[dep.Target] {
					isRoot[dep.Target] = true
					roots = append(roots, Root{Module: dep.Target, Kind: splitKind(dep)})
				}
				if !seen[dep.Target] {
					seen[dep.Target] = true
					queue = append(queue, dep.Target)
				}
			}
		}
	}
	return roots
}

func splitKind(dep modgraph.Dependency) chunk.Kind {
	if dep.Kind == modgraph.Worker {
		return chunk.Worker{Module: dep.Target}
	}
	return chunk.Async{}
}
