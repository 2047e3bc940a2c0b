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

// Package chunk defines the unit of bundler output: an ordered set of
// modules that is emitted as one file, with a deterministic filename and
// content hash.
package chunk

import (
	"fmt"
	"slices"

	"bennypowers.dev/spezza/modgraph"
)

// Chunk is an insertion-ordered, duplicate-free set of modules tagged with a
// Kind. Member order is the evaluation order of the emitted file.
//
// A Chunk is not safe for concurrent mutation. Filename and Hash only read.
type Chunk struct {
	ID   modgraph.Ref
	Kind Kind

	modules []modgraph.Ref
	members map[modgraph.Ref]struct{}
	// distinct is set by Disambiguate.
	distinct bool

	// Content and SourceMap are filled in by code generation.
	Content   *string
	SourceMap *string
}

// New creates an empty chunk.
func New(id modgraph.Ref, kind Kind) *Chunk {
	return &Chunk{
		ID:      id,
		Kind:    kind,
		members: make(map[modgraph.Ref]struct{}),
	}
}

// AddModule appends ref. If ref is already a member it moves to the end
// instead, so order reflects the most recent reference.
func (c *Chunk) AddModule(ref modgraph.Ref) {
	if _, ok := c.members[ref]; ok {
		c.modules = slices.DeleteFunc(c.modules, func(m modgraph.Ref) bool { return m == ref })
	}
	c.members[ref] = struct{}{}
	c.modules = append(c.modules, ref)
}

// RemoveModule removes ref if present, keeping the order of the rest.
func (c *Chunk) RemoveModule(ref modgraph.Ref) {
	if _, ok := c.members[ref]; !ok {
		return
	}
	delete(c.members, ref)
	c.modules = slices.DeleteFunc(c.modules, func(m modgraph.Ref) bool { return m == ref })
}

// HasModule reports whether ref is a member.
func (c *Chunk) HasModule(ref modgraph.Ref) bool {
	_, ok := c.members[ref]
	return ok
}

// Modules returns the members in insertion order.
func (c *Chunk) Modules() []modgraph.Ref {
	return slices.Clone(c.modules)
}

// Len returns the number of members.
func (c *Chunk) Len() int {
	return len(c.modules)
}

// String formats the chunk as id#size(kind), for diagnostics.
func (c *Chunk) String() string {
	return fmt.Sprintf("%s#%d(%s)", c.ID, len(c.modules), c.Kind.Label())
}
