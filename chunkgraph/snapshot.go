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
	"context"
	"fmt"
	"slices"

	"bennypowers.dev/spezza/chunk"
	"bennypowers.dev/spezza/modgraph"
)

// ChunkState is the frozen, emission-ready view of one chunk.
type ChunkState struct {
	ID        modgraph.Ref   `json:"id"`
	Kind      string         `json:"kind"`
	Filename  string         `json:"filename"`
	Hash      uint64         `json:"-"`
	HashHex   string         `json:"hash"`
	Modules   []modgraph.Ref `json:"modules"`
	DependsOn []modgraph.Ref `json:"dependsOn,omitempty"`
	Loads     []modgraph.Ref `json:"loads,omitempty"`
}

// Snapshot is an immutable, versioned copy of a chunk graph after hashing.
// Incremental rebuilds never mutate a published snapshot; they produce a new
// one and Diff it against the previous.
type Snapshot struct {
	Version int          `json:"version"`
	Chunks  []ChunkState `json:"chunks"`

	byID map[modgraph.Ref]int
}

// Snapshot hashes the graph and captures it as the given version.
func (g *Graph) Snapshot(ctx context.Context, src chunk.ModuleSource, version, parallel int) (*Snapshot, error) {
	hashes, err := g.Hashes(ctx, src, parallel)
	if err != nil {
		return nil, err
	}

	snap := &Snapshot{
		Version: version,
		Chunks:  make([]ChunkState, 0, len(g.order)),
		byID:    make(map[modgraph.Ref]int, len(g.order)),
	}
	for _, c := range g.Chunks() {
		h := hashes[c.ID]
		modules := c.Modules()
		if modules == nil {
			modules = []modgraph.Ref{}
		}
		snap.byID[c.ID] = len(snap.Chunks)
		snap.Chunks = append(snap.Chunks, ChunkState{
			ID:        c.ID,
			Kind:      c.Kind.Label(),
			Filename:  c.Filename(),
			Hash:      h,
			HashHex:   fmt.Sprintf("%016x", h),
			Modules:   modules,
			DependsOn: g.Dependencies(c.ID),
			Loads:     g.Splits(c.ID),
		})
	}
	return snap, nil
}

// Chunk returns the state of one chunk.
func (s *Snapshot) Chunk(id modgraph.Ref) (ChunkState, bool) {
	i, ok := s.byID[id]
	if !ok {
		return ChunkState{}, false
	}
	return s.Chunks[i], true
}

// Diff describes how a chunk graph changed between two snapshots.
type Diff struct {
	From      int            `json:"from"`
	To        int            `json:"to"`
	Added     []modgraph.Ref `json:"added,omitempty"`
	Removed   []modgraph.Ref `json:"removed,omitempty"`
	Changed   []modgraph.Ref `json:"changed,omitempty"`
	Unchanged int            `json:"unchanged"`
}

// Empty reports whether nothing changed.
func (d Diff) Empty() bool {
	return len(d.Added) == 0 && len(d.Removed) == 0 && len(d.Changed) == 0
}

// CompareSnapshots diffs next against prev. A nil prev treats every chunk
// in next as added. Chunks change when their hash, filename, members or
// dependencies differ.
func CompareSnapshots(prev, next *Snapshot) Diff {
	d := Diff{To: next.Version}
	if prev == nil {
		for _, c := range next.Chunks {
			d.Added = append(d.Added, c.ID)
		}
		slices.SortFunc(d.Added, modgraph.Compare)
		return d
	}
	d.From = prev.Version

	for _, c := range next.Chunks {
		old, ok := prev.Chunk(c.ID)
		switch {
		case !ok:
			d.Added = append(d.Added, c.ID)
		case old.Hash != c.Hash,
			old.Filename != c.Filename,
			!slices.Equal(old.Modules, c.Modules),
			!slices.Equal(old.DependsOn, c.DependsOn):
			d.Changed = append(d.Changed, c.ID)
		default:
			d.Unchanged++
		}
	}
	for _, c := range prev.Chunks {
		if _, ok := next.Chunk(c.ID); !ok {
			d.Removed = append(d.Removed, c.ID)
		}
	}

	slices.SortFunc(d.Added, modgraph.Compare)
	slices.SortFunc(d.Removed, modgraph.Compare)
	slices.SortFunc(d.Changed, modgraph.Compare)
	return d
}
