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

// Package grouping partitions a module graph into chunks.
//
// Grouping runs in two explicit stages so each can be checked on its own:
// Assign walks the graph from every chunk root and produces a possibly
// overlapping module -> chunks assignment, and Extract moves modules owned
// by several chunks into shared chunks so that every module ends up in
// exactly one. Extract also pairs each Async and Worker chunk with a Sync
// chunk holding its eager dependencies.
package grouping

import (
	"errors"
	"fmt"

	"bennypowers.dev/spezza/chunk"
	"bennypowers.dev/spezza/chunkgraph"
	"bennypowers.dev/spezza/modgraph"
)

// RuntimeID is the id of the runtime chunk. It names no source module.
var RuntimeID = modgraph.ParseRef("@spezza/runtime")

// Entry is a build entry point.
type Entry struct {
	// Name is the output name; the entry chunk is written to Name + ".js".
	Name string
	// Module is the entry module. It must exist in the module graph.
	Module modgraph.Ref
}

// Options configures Group.
type Options struct {
	// Runtime adds a runtime chunk that loads before every entry chunk.
	Runtime bool
	// Logger receives debug output. Nil discards it.
	Logger modgraph.Logger
}

type nopLogger struct{}

func (nopLogger) Warning(string, ...any) {}
func (nopLogger) Debug(string, ...any)   {}

// Group builds the chunk graph for a frozen module graph and entries, given
// in the order they should be processed. The same inputs always produce the
// same chunks, members, order and edges.
func Group(g *modgraph.Graph, entries []Entry, opts Options) (*chunkgraph.Graph, error) {
	logger := opts.Logger
	if logger == nil {
		logger = nopLogger{}
	}

	if err := CheckEntries(g, entries); err != nil {
		return nil, err
	}

	assignment := Assign(g, entries)
	logger.Debug("assigned %d modules to %d root chunks", len(assignment.Discovery), len(assignment.Chunks))

	cg := chunkgraph.New()
	if opts.Runtime {
		if err := cg.Add(chunk.New(RuntimeID, chunk.Runtime{})); err != nil {
			return nil, err
		}
	}

	extracted, err := extractInto(cg, assignment)
	if err != nil {
		return nil, err
	}
	logger.Debug("extracted %d shared chunks, paired %d sync chunks", extracted.shared, extracted.paired)

	if opts.Runtime {
		for _, c := range cg.Chunks() {
			if chunk.IsEntry(c.Kind) {
				if err := cg.AddEdge(RuntimeID, c.ID); err != nil {
					return nil, err
				}
			}
		}
	}

	if err := cg.CheckMembership(assignment.Discovery); err != nil {
		return nil, fmt.Errorf("grouping produced an invalid partition: %w", err)
	}
	if err := cg.Validate(); err != nil {
		return nil, err
	}
	return cg, nil
}

// CheckEntries reports every configuration problem with the entries before
// grouping starts.
func CheckEntries(g *modgraph.Graph, entries []Entry) error {
	if !g.Frozen() {
		return ErrNotFrozen
	}
	if len(entries) == 0 {
		return &ConfigError{Reason: "no entry points"}
	}

	var errs []error
	names := make(map[string]bool, len(entries))
	modules := make(map[modgraph.Ref]bool, len(entries))
	for _, e := range entries {
		switch {
		case !chunk.ValidName(e.Name):
			errs = append(errs, &ConfigError{Entry: e, Reason: "name must be non-empty and only contain letters, digits, '_' and '-'"})
		case names[e.Name]:
			errs = append(errs, &ConfigError{Entry: e, Reason: "duplicate entry name"})
		}
		names[e.Name] = true

		switch {
		case !g.Has(e.Module):
			errs = append(errs, &ConfigError{Entry: e, Reason: "module not in module graph"})
		case modules[e.Module]:
			errs = append(errs, &ConfigError{Entry: e, Reason: "module is already an entry"})
		}
		modules[e.Module] = true
	}
	return errors.Join(errs...)
}
