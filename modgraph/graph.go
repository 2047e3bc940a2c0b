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
package modgraph

import (
	"errors"
	"fmt"
	"slices"
)

var (
	// ErrFrozen is returned when mutating a graph after Freeze.
	ErrFrozen = errors.New("module graph is frozen")
	// ErrNotFound is returned when an operation names a module the graph does not contain.
	ErrNotFound = errors.New("module not found in graph")
)

// DepKind classifies a dependency edge.
type DepKind int

const (
	// Static is a synchronous import or re-export.
	Static DepKind = iota
	// Dynamic is an import() expression: an async split point.
	Dynamic
	// Worker is a new Worker(...) spawn: a worker split point.
	Worker
)

// String returns a human-readable name for the dependency kind.
func (k DepKind) String() string {
	switch k {
	case Static:
		return "static"
	case Dynamic:
		return "dynamic"
	case Worker:
		return "worker"
	default:
		return "unknown"
	}
}

// Info holds data precomputed for a module by the resolution stage.
type Info struct {
	// RawHash is the module's 64-bit content hash.
	RawHash uint64
}

// Dependency is a single outgoing edge, kept in source declaration order.
type Dependency struct {
	Target Ref
	Kind   DepKind
}

// Module is a node in the graph.
type Module struct {
	Ref  Ref
	Info *Info // nil until the module has been hashed
	Deps []Dependency
}

// Graph is a directed graph of modules. It is built once per build pass and
// frozen before chunk grouping reads it.
type Graph struct {
	modules map[Ref]*Module
	order   []Ref
	frozen  bool

	// Errors collects non-fatal problems encountered while building the graph.
	Errors []error
}

// New creates an empty module graph.
func New() *Graph {
	return &Graph{modules: make(map[Ref]*Module)}
}

// AddModule registers a module, or updates the info of an existing one.
func (g *Graph) AddModule(ref Ref, info *Info) (*Module, error) {
	if g.frozen {
		return nil, fmt.Errorf("adding %s: %w", ref, ErrFrozen)
	}
	if mod, ok := g.modules[ref]; ok {
		if info != nil {
			mod.Info = info
		}
		return mod, nil
	}
	mod := &Module{Ref: ref, Info: info}
	g.modules[ref] = mod
	g.order = append(g.order, ref)
	return mod, nil
}

// AddDependency appends an edge from one registered module to another.
// Repeating an identical edge is a no-op.
func (g *Graph) AddDependency(from, to Ref, kind DepKind) error {
	if g.frozen {
		return fmt.Errorf("adding edge %s -> %s: %w", from, to, ErrFrozen)
	}
	mod, ok := g.modules[from]
	if !ok {
		return fmt.Errorf("edge source %s: %w", from, ErrNotFound)
	}
	if _, ok := g.modules[to]; !ok {
		return fmt.Errorf("edge target %s: %w", to, ErrNotFound)
	}
	dep := Dependency{Target: to, Kind: kind}
	if slices.Contains(mod.Deps, dep) {
		return nil
	}
	mod.Deps = append(mod.Deps, dep)
	return nil
}

// GetModule looks up a module by ref.
func (g *Graph) GetModule(ref Ref) (*Module, bool) {
	mod, ok := g.modules[ref]
	return mod, ok
}

// Has reports whether the graph contains ref.
func (g *Graph) Has(ref Ref) bool {
	_, ok := g.modules[ref]
	return ok
}

// Dependencies returns the outgoing edges of ref in declaration order.
func (g *Graph) Dependencies(ref Ref) []Dependency {
	if mod, ok := g.modules[ref]; ok {
		return mod.Deps
	}
	return nil
}

// Len returns the number of modules.
func (g *Graph) Len() int {
	return len(g.order)
}

// Refs returns all module refs in insertion order.
func (g *Graph) Refs() []Ref {
	return slices.Clone(g.order)
}

// Freeze makes the graph read-only.
func (g *Graph) Freeze() {
	g.frozen = true
}

// Frozen reports whether Freeze has been called.
func (g *Graph) Frozen() bool {
	return g.frozen
}

// Reachable returns every module reachable from the given roots over edges
// of the given kinds, breadth first in declaration order. Roots are included.
func (g *Graph) Reachable(roots []Ref, kinds ...DepKind) []Ref {
	seen := make(map[Ref]bool, len(roots))
	var result []Ref
	queue := make([]Ref, 0, len(roots))
	for _, r := range roots {
		if !seen[r] && g.Has(r) {
			seen[r] = true
			queue = append(queue, r)
		}
	}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		result = append(result, current)
		for _, dep := range g.Dependencies(current) {
			if !slices.Contains(kinds, dep.Kind) || seen[dep.Target] {
				continue
			}
			seen[dep.Target] = true
			queue = append(queue, dep.Target)
		}
	}
	return result
}
