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
package chunkgraph

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"bennypowers.dev/spezza/chunk"
	"bennypowers.dev/spezza/modgraph"
)

var (
	// ErrCycle is returned when the loads-before relation has no valid order.
	ErrCycle = errors.New("cycle in chunk load order")
	// ErrFilenameCollision is returned when two chunks would be written to
	// the same file.
	ErrFilenameCollision = errors.New("chunk filename collision")
	// ErrMembership is returned when a reachable module is in no chunk or in
	// several.
	ErrMembership = errors.New("module chunk membership violated")
)

// CycleError lists the chunks of a load-order cycle, starting from the
// smallest id and following dependencies.
type CycleError struct {
	Chunks []modgraph.Ref
}

func (e *CycleError) Error() string {
	ids := make([]string, 0, len(e.Chunks)+1)
	for _, id := range e.Chunks {
		ids = append(ids, id.String())
	}
	if len(e.Chunks) > 0 {
		ids = append(ids, e.Chunks[0].String())
	}
	return fmt.Sprintf("%v: %s", ErrCycle, strings.Join(ids, " -> "))
}

func (e *CycleError) Unwrap() error { return ErrCycle }

// FilenameCollisionError names the chunks that share a filename.
type FilenameCollisionError struct {
	Filename string
	Chunks   []modgraph.Ref
}

func (e *FilenameCollisionError) Error() string {
	return fmt.Sprintf("%v: %s is produced by %v", ErrFilenameCollision, e.Filename, e.Chunks)
}

func (e *FilenameCollisionError) Unwrap() error { return ErrFilenameCollision }

// MembershipError lists modules that are orphaned or duplicated.
type MembershipError struct {
	Orphaned   []modgraph.Ref
	Duplicated []modgraph.Ref
}

func (e *MembershipError) Error() string {
	return fmt.Sprintf("%v: %d orphaned %v, %d duplicated %v",
		ErrMembership, len(e.Orphaned), e.Orphaned, len(e.Duplicated), e.Duplicated)
}

func (e *MembershipError) Unwrap() error { return ErrMembership }

// Validate checks the structural invariants a graph must satisfy before
// emission.
func (g *Graph) Validate() error {
	return errors.Join(g.CheckCycles(), g.CheckFilenames())
}

// CheckCycles reports a cycle in the loads-before relation that involves an
// Async or Worker chunk. Such a cycle leaves no legal load order.
func (g *Graph) CheckCycles() error {
	var found []modgraph.Ref
	for _, scc := range g.stronglyConnected() {
		if len(scc) < 2 || !slices.ContainsFunc(scc, g.isSplit) {
			continue
		}
		start := slices.MinFunc(scc, modgraph.Compare)
		if found == nil || modgraph.Compare(start, found[0]) < 0 {
			found = g.cycleFrom(start, scc)
		}
	}
	if found != nil {
		return &CycleError{Chunks: found}
	}
	return nil
}

func (g *Graph) isSplit(id modgraph.Ref) bool {
	c, ok := g.chunks[id]
	return ok && chunk.IsSplit(c.Kind)
}

// stronglyConnected returns the strongly connected components of the
// dependency relation (Tarjan), visiting chunks in insertion order.
func (g *Graph) stronglyConnected() [][]modgraph.Ref {
	var (
		index   = make(map[modgraph.Ref]int)
		lowlink = make(map[modgraph.Ref]int)
		onStack = make(map[modgraph.Ref]bool)
		stack   []modgraph.Ref
		next    int
		result  [][]modgraph.Ref
	)

	var visit func(v modgraph.Ref)
	visit = func(v modgraph.Ref) {
		index[v] = next
		lowlink[v] = next
		next++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range g.deps[v] {
			if _, seen := index[w]; !seen {
				visit(w)
				lowlink[v] = min(lowlink[v], lowlink[w])
			} else if onStack[w] {
				lowlink[v] = min(lowlink[v], index[w])
			}
		}

		if lowlink[v] == index[v] {
			var scc []modgraph.Ref
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				scc = append(scc, w)
				if w == v {
					break
				}
			}
			result = append(result, scc)
		}
	}

	for _, id := range g.order {
		if _, seen := index[id]; !seen {
			visit(id)
		}
	}
	return result
}

// cycleFrom finds the shortest dependency path from start back to itself
// inside one strongly connected component.
func (g *Graph) cycleFrom(start modgraph.Ref, scc []modgraph.Ref) []modgraph.Ref {
	parent := make(map[modgraph.Ref]modgraph.Ref)
	queue := []modgraph.Ref{start}
	visited := map[modgraph.Ref]bool{start: true}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for _, dep := range g.deps[current] {
			if !slices.Contains(scc, dep) {
				continue
			}
			if dep == start {
				var path []modgraph.Ref
				for at := current; at != start; at = parent[at] {
					path = append(path, at)
				}
				path = append(path, start)
				slices.Reverse(path)
				return path
			}
			if !visited[dep] {
				visited[dep] = true
				parent[dep] = current
				queue = append(queue, dep)
			}
		}
	}
	return []modgraph.Ref{start}
}

// CheckFilenames reports two chunks that would be written to the same file.
func (g *Graph) CheckFilenames() error {
	seen := make(map[string]modgraph.Ref, len(g.order))
	for _, c := range g.Chunks() {
		name := c.Filename()
		if other, ok := seen[name]; ok {
			return &FilenameCollisionError{Filename: name, Chunks: []modgraph.Ref{other, c.ID}}
		}
		seen[name] = c.ID
	}
	return nil
}

// CheckMembership verifies that every reachable module belongs to exactly
// one chunk.
func (g *Graph) CheckMembership(reachable []modgraph.Ref) error {
	counts := make(map[modgraph.Ref]int, len(reachable))
	for _, c := range g.chunks {
		for _, m := range c.Modules() {
			counts[m]++
		}
	}

	var merr MembershipError
	for _, ref := range reachable {
		switch n := counts[ref]; {
		case n == 0:
			merr.Orphaned = append(merr.Orphaned, ref)
		case n > 1:
			merr.Duplicated = append(merr.Duplicated, ref)
		}
	}
	if len(merr.Orphaned) == 0 && len(merr.Duplicated) == 0 {
		return nil
	}
	slices.SortFunc(merr.Orphaned, modgraph.Compare)
	slices.SortFunc(merr.Duplicated, modgraph.Compare)
	return &merr
}

// LoadOrder returns every chunk that must load before id, dependencies
// first, followed by id itself.
//
// Chunks that depend on each other without an Async or Worker chunk among
// them load as one group, in insertion order. A cycle through a split chunk
// is a *CycleError.
func (g *Graph) LoadOrder(id modgraph.Ref) ([]modgraph.Ref, error) {
	if _, ok := g.chunks[id]; !ok {
		return nil, fmt.Errorf("unknown chunk %s", id)
	}

	sccs := g.stronglyConnected()
	component := make(map[modgraph.Ref]int, len(g.order))
	for i, scc := range sccs {
		for _, v := range scc {
			component[v] = i
		}
	}
	position := make(map[modgraph.Ref]int, len(g.order))
	for i, v := range g.order {
		position[v] = i
	}

	visited := make(map[int]bool)
	var order []modgraph.Ref

	var visit func(c int) error
	visit = func(c int) error {
		visited[c] = true
		members := slices.Clone(sccs[c])
		if len(members) > 1 && slices.ContainsFunc(members, g.isSplit) {
			return &CycleError{Chunks: g.cycleFrom(slices.MinFunc(members, modgraph.Compare), members)}
		}
		slices.SortFunc(members, func(a, b modgraph.Ref) int {
			return position[a] - position[b]
		})

		for _, v := range members {
			for _, dep := range g.deps[v] {
				if d := component[dep]; !visited[d] {
					if err := visit(d); err != nil {
						return err
					}
				}
			}
		}

		if c == component[id] {
			members = append(slices.DeleteFunc(members, func(v modgraph.Ref) bool { return v == id }), id)
		}
		order = append(order, members...)
		return nil
	}

	if err := visit(component[id]); err != nil {
		return nil, err
	}
	return order, nil
}
