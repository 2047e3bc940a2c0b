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
	"errors"
	"fmt"

	"bennypowers.dev/spezza/modgraph"
)

// ErrInvariant marks errors caused by an inconsistent module graph. They are
// bugs upstream, never user errors, and must abort the build.
var ErrInvariant = errors.New("chunk invariant violated")

// InvariantError names the chunk and member that broke an invariant.
type InvariantError struct {
	Chunk  modgraph.Ref
	Module modgraph.Ref
	Reason string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("chunk %s: member %s: %s", e.Chunk, e.Module, e.Reason)
}

func (e *InvariantError) Unwrap() error {
	return ErrInvariant
}
