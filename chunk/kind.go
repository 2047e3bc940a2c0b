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
	"fmt"

	"bennypowers.dev/spezza/modgraph"
)

// Kind classifies a chunk. The set of kinds is closed: Runtime, Entry,
// Async, Sync and Worker are the only implementations.
type Kind interface {
	// Label is a short lowercase name for the kind, used in manifests.
	Label() string
	isKind()
}

// Runtime is bundler-injected bootstrap code, not tied to any source module.
type Runtime struct{}

// Entry is a build entry point, or a chunk extracted to hold modules shared
// between entries (Shared).
type Entry struct {
	Module modgraph.Ref
	Name   string // user-facing output name; the filename is Name + ".js"
	Shared bool
}

// Async is reachable only through a dynamic import and loads on demand.
type Async struct{}

// Sync is not itself a split point but holds dependencies of Async or Worker
// chunks, and loads eagerly alongside them.
type Sync struct{}

// Worker is the root of a web worker execution context.
type Worker struct {
	Module modgraph.Ref
}

func (Runtime) isKind() {}
func (Entry) isKind()   {}
func (Async) isKind()   {}
func (Sync) isKind()    {}
func (Worker) isKind()  {}

func (Runtime) Label() string { return "runtime" }
func (e Entry) Label() string {
	if e.Shared {
		return "shared"
	}
	return "entry"
}
func (Async) Label() string  { return "async" }
func (Sync) Label() string   { return "sync" }
func (Worker) Label() string { return "worker" }

// IsSplit reports whether chunks of this kind are split points: loaded
// separately from the entry that reaches them.
func IsSplit(k Kind) bool {
	switch k.(type) {
	case Async, Worker:
		return true
	case Runtime, Entry, Sync:
		return false
	default:
		panic(unknownKind(k))
	}
}

// IsEntry reports whether k is an Entry kind, shared or not.
func IsEntry(k Kind) bool {
	_, ok := k.(Entry)
	return ok
}

func unknownKind(k Kind) string {
	return fmt.Sprintf("chunk: unknown kind %T", k)
}
