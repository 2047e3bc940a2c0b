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
	"encoding/binary"

	"lukechampine.com/blake3"
)

// ContentHash computes a module's raw 64-bit content hash: the first eight
// bytes of its BLAKE3-256 digest, little endian.
func ContentHash(content []byte) uint64 {
	sum := blake3.Sum256(content)
	return binary.LittleEndian.Uint64(sum[:8])
}
