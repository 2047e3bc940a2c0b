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
	"crypto/md5"
	"encoding/base64"
	"strings"

	"bennypowers.dev/spezza/modgraph"
)

const (
	// Extension is appended to every chunk filename.
	Extension = ".js"
	// RuntimeFilename is the fixed filename of the runtime chunk.
	RuntimeFilename = "runtime" + Extension

	// parentDirToken stands in for ".." path segments.
	parentDirToken = "__"
	// SharedSuffix ends the name of a shared entry chunk.
	SharedSuffix = "-shared"

	// digestLen is the number of encoded digest characters kept in the
	// query and id suffixes.
	digestLen = 4
)

// Filename returns the chunk's output filename. Entry chunks use their
// configured name; split chunks derive a name from their id so the file can
// be traced back to its source.
//
//	foo/bar.tsx as Entry "foo_bar" -> foo_bar.js
//	./foo/bar.tsx as Async         -> foo_bar_tsx-async.js
//	./foo/bar.tsx?a=1 as Async     -> foo_bar_tsx_q_XXXX-async.js
//	a.b/c.js as disambiguated Async -> a_b_c_js_p_XXXX-async.js
func (c *Chunk) Filename() string {
	switch k := c.Kind.(type) {
	case Runtime:
		return RuntimeFilename
	case Entry:
		return k.Name + Extension
	case Async, Sync:
		return c.splitName() + "-async" + Extension
	case Worker:
		return c.splitName() + "-worker" + Extension
	default:
		panic(unknownKind(c.Kind))
	}
}

func (c *Chunk) splitName() string {
	if c.distinct {
		return SanitizeRef(c.ID) + idTag(c.ID)
	}
	return SanitizeRef(c.ID)
}

// Disambiguate appends a digest of the chunk's full id to its filename, for
// chunks whose sanitized names clash ("a.b/c.js" and "a_b/c.js"). Runtime
// chunks and entries named by the user keep their filename.
func (c *Chunk) Disambiguate() {
	switch k := c.Kind.(type) {
	case Entry:
		if k.Shared {
			k.Name = SanitizeRef(c.ID) + idTag(c.ID) + SharedSuffix
			c.Kind = k
		}
	case Async, Sync, Worker:
		c.distinct = true
	}
}

// SharedName is the entry name of a shared chunk with the given id.
func SharedName(id modgraph.Ref) string {
	return SanitizeRef(id) + SharedSuffix
}

// SanitizeRef turns a module ref into a filesystem-safe name: path segments
// joined by "_" with a short query digest appended when the ref has a query.
// The result only contains [A-Za-z0-9_-].
func SanitizeRef(ref modgraph.Ref) string {
	name := SanitizePath(ref.Path())
	if ref.HasQuery() {
		name += "_q_" + shortDigest(ref.QueryString())
	}
	return name
}

// SanitizePath joins the meaningful segments of a slash path with "_".
// Root and "." segments are dropped and ".." becomes a fixed token.
func SanitizePath(p string) string {
	segments := strings.FieldsFunc(p, func(r rune) bool { return r == '/' || r == '\\' })
	parts := make([]string, 0, len(segments))
	for _, seg := range segments {
		switch seg {
		case ".":
			continue
		case "..":
			parts = append(parts, parentDirToken)
		default:
			parts = append(parts, sanitizeSegment(seg))
		}
	}
	return strings.Join(parts, "_")
}

func sanitizeSegment(seg string) string {
	var b strings.Builder
	b.Grow(len(seg))
	for i := 0; i < len(seg); i++ {
		ch := seg[i]
		if isFilenameByte(ch) {
			b.WriteByte(ch)
		} else {
			b.WriteByte('_')
		}
	}
	return b.String()
}

func isFilenameByte(ch byte) bool {
	return ch >= 'a' && ch <= 'z' ||
		ch >= 'A' && ch <= 'Z' ||
		ch >= '0' && ch <= '9' ||
		ch == '_' || ch == '-'
}

// ValidName reports whether name can be used as an entry chunk name.
func ValidName(name string) bool {
	if name == "" {
		return false
	}
	for i := 0; i < len(name); i++ {
		if !isFilenameByte(name[i]) {
			return false
		}
	}
	return true
}

// shortDigest returns the first characters of the URL-safe base64 MD5
// digest of s.
func shortDigest(s string) string {
	sum := md5.Sum([]byte(s))
	return base64.URLEncoding.EncodeToString(sum[:])[:digestLen]
}

func idTag(id modgraph.Ref) string {
	return "_p_" + shortDigest(id.String())
}
