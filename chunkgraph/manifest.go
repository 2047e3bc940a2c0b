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
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"bennypowers.dev/spezza/modgraph"
)

// ParseManifest reads a snapshot previously written by ToJSON, so a build
// can be diffed against the output of an earlier run.
func ParseManifest(data []byte) (*Snapshot, error) {
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, err
	}
	snap.byID = make(map[modgraph.Ref]int, len(snap.Chunks))
	for i := range snap.Chunks {
		c := &snap.Chunks[i]
		h, err := strconv.ParseUint(c.HashHex, 16, 64)
		if err != nil {
			return nil, fmt.Errorf("chunk %s: invalid hash %q: %w", c.ID, c.HashHex, err)
		}
		c.Hash = h
		snap.byID[c.ID] = i
	}
	return &snap, nil
}

// ToJSON renders the snapshot as the indented JSON manifest handed to code
// generation.
func (s *Snapshot) ToJSON() string {
	if s == nil {
		return ""
	}
	bytes, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return ""
	}
	return string(bytes)
}

// ToText renders one line per chunk, then its members indented.
func (s *Snapshot) ToText() string {
	var b strings.Builder
	for _, c := range s.Chunks {
		fmt.Fprintf(&b, "%s  %s  %-6s  %s\n", c.HashHex, c.Filename, c.Kind, c.ID)
		for _, dep := range c.DependsOn {
			fmt.Fprintf(&b, "    after %s\n", dep)
		}
		for _, m := range c.Modules {
			fmt.Fprintf(&b, "    - %s\n", m)
		}
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// Format renders the snapshot in the given output format: "json" (default)
// or "text".
func (s *Snapshot) Format(format string) string {
	if format == "text" {
		return s.ToText()
	}
	return s.ToJSON()
}

// String renders a diff in one line per change, for watch output.
func (d Diff) String() string {
	if d.Empty() {
		return fmt.Sprintf("v%d -> v%d: no changes", d.From, d.To)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "v%d -> v%d: %d added, %d removed, %d changed, %d unchanged",
		d.From, d.To, len(d.Added), len(d.Removed), len(d.Changed), d.Unchanged)
	for _, id := range d.Added {
		fmt.Fprintf(&b, "\n  + %s", id)
	}
	for _, id := range d.Removed {
		fmt.Fprintf(&b, "\n  - %s", id)
	}
	for _, id := range d.Changed {
		fmt.Fprintf(&b, "\n  ~ %s", id)
	}
	return b.String()
}
