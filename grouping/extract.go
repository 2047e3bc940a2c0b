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
	"strconv"
	"strings"

	"bennypowers.dev/spezza/chunk"
	"bennypowers.dev/spezza/chunkgraph"
	"bennypowers.dev/spezza/modgraph"
)

type sharedGroup struct {
	owners  []modgraph.Ref
	members []modgraph.Ref
}

// Extract runs the second grouping stage on an assignment and returns the
// resulting chunk graph. Modules owned by the same set of two or more chunks
// move together into one new chunk that loads before each owner. The new
// chunk is a shared Entry if any owner is an entry, and Sync otherwise.
//
// The modules an Async or Worker chunk still holds besides its root then
// move into a Sync chunk paired with it, which loads right before it.
// Chunks whose filenames clash are disambiguated.
//
// Extract consumes the assignment's chunks.
func Extract(a *Assignment) (*chunkgraph.Graph, error) {
	cg := chunkgraph.New()
	if _, err := extractInto(cg, a); err != nil {
		return nil, err
	}
	return cg, nil
}

type extraction struct {
	shared, paired int
}

func extractInto(cg *chunkgraph.Graph, a *Assignment) (extraction, error) {
	byID := make(map[modgraph.Ref]*chunk.Chunk, len(a.Chunks))
	index := make(map[modgraph.Ref]int, len(a.Chunks))
	for i, c := range a.Chunks {
		byID[c.ID] = c
		index[c.ID] = i
	}

	// Groups are keyed by the owner set, so modules needed by exactly the
	// same chunks share one output chunk.
	groups := make(map[string]*sharedGroup)
	var order []*sharedGroup
	for _, m := range a.Discovery {
		owners := a.Owners[m]
		if len(owners) < 2 {
			continue
		}
		key := ownerKey(owners, index)
		grp, ok := groups[key]
		if !ok {
			grp = &sharedGroup{owners: owners}
			groups[key] = grp
			order = append(order, grp)
		}
		grp.members = append(grp.members, m)
	}

	for _, c := range a.Chunks {
		if err := cg.Add(c); err != nil {
			return extraction{}, err
		}
	}

	for _, grp := range order {
		id := grp.members[0]
		shared := chunk.New(id, groupKind(id, grp.owners, byID))
		for _, m := range grp.members {
			shared.AddModule(m)
			for _, owner := range grp.owners {
				byID[owner].RemoveModule(m)
			}
		}
		if err := cg.Add(shared); err != nil {
			return extraction{}, err
		}
		for _, owner := range grp.owners {
			if err := cg.AddEdge(id, owner); err != nil {
				return extraction{}, err
			}
		}
	}

	for _, e := range a.LoadsBefore {
		if err := cg.AddEdge(e.From, e.To); err != nil {
			return extraction{}, err
		}
	}
	for _, e := range a.Splits {
		if err := cg.AddSplitEdge(e.From, e.To); err != nil {
			return extraction{}, err
		}
	}

	paired, err := pairSync(cg, a.Chunks)
	if err != nil {
		return extraction{}, err
	}
	disambiguate(cg)
	return extraction{shared: len(order), paired: paired}, nil
}

// pairSync moves the non-root members of every Async and Worker chunk into
// a Sync chunk whose id is the first of them. The Sync chunk loads after
// everything the split chunk loads after, and right before it.
func pairSync(cg *chunkgraph.Graph, roots []*chunk.Chunk) (int, error) {
	paired := 0
	for _, c := range roots {
		if !chunk.IsSplit(c.Kind) || c.Len() < 2 {
			continue
		}
		var deps []modgraph.Ref
		for _, m := range c.Modules() {
			if m != c.ID {
				deps = append(deps, m)
			}
		}

		eager := chunk.New(deps[0], chunk.Sync{})
		for _, m := range deps {
			c.RemoveModule(m)
			eager.AddModule(m)
		}
		if err := cg.Add(eager); err != nil {
			return paired, err
		}
		for _, before := range cg.Dependencies(c.ID) {
			if err := cg.AddEdge(before, eager.ID); err != nil {
				return paired, err
			}
		}
		if err := cg.AddEdge(eager.ID, c.ID); err != nil {
			return paired, err
		}
		paired++
	}
	return paired, nil
}

// disambiguate gives every generated chunk whose filename clashes with
// another chunk's a filename derived from its full id.
func disambiguate(cg *chunkgraph.Graph) {
	clashes := make(map[string][]*chunk.Chunk)
	var names []string
	for _, c := range cg.Chunks() {
		name := c.Filename()
		if _, ok := clashes[name]; !ok {
			names = append(names, name)
		}
		clashes[name] = append(clashes[name], c)
	}
	for _, name := range names {
		if chunks := clashes[name]; len(chunks) > 1 {
			for _, c := range chunks {
				c.Disambiguate()
			}
		}
	}
}

func groupKind(id modgraph.Ref, owners []modgraph.Ref, byID map[modgraph.Ref]*chunk.Chunk) chunk.Kind {
	for _, owner := range owners {
		if chunk.IsEntry(byID[owner].Kind) {
			return chunk.Entry{Module: id, Name: chunk.SharedName(id), Shared: true}
		}
	}
	return chunk.Sync{}
}

func ownerKey(owners []modgraph.Ref, index map[modgraph.Ref]int) string {
	// owners are appended in root order, so indices are already ascending.
	parts := make([]string, len(owners))
	for i, o := range owners {
		parts[i] = strconv.Itoa(index[o])
	}
	return strings.Join(parts, ",")
}
