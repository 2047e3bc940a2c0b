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
package chunk

import (
	"encoding/binary"
	"slices"

	"github.com/cespare/xxhash/v2"

	"bennypowers.dev/spezza/modgraph"
)

// ModuleSource is the read-only view of the module graph that hashing needs.
type ModuleSource interface {
	GetModule(ref modgraph.Ref) (*modgraph.Module, bool)
}

// Hash returns the chunk's 64-bit content identity: XXH64 over the raw
// hashes of its members, visited in id order so that the result does not
// depend on insertion order.
//
// Every member must be in src with a precomputed hash. Anything else means
// the upstream graph is broken, and an *InvariantError is returned.
func (c *Chunk) Hash(src ModuleSource) (uint64, error) {
	sorted := slices.Clone(c.modules)
	slices.SortFunc(sorted, modgraph.Compare)

	digest := xxhash.New()
	var buf [8]byte
	for _, ref := range sorted {
		mod, ok := src.GetModule(ref)
		if !ok {
			return 0, &InvariantError{Chunk: c.ID, Module: ref, Reason: "module not in graph"}
		}
		if mod.Info == nil {
			return 0, &InvariantError{Chunk: c.ID, Module: ref, Reason: "module has no content hash"}
		}
		binary.LittleEndian.PutUint64(buf[:], mod.Info.RawHash)
		_, _ = digest.Write(buf[:])
	}
	return digest.Sum64(), nil
}
