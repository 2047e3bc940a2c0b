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

// Package modgraph models the resolved module dependency graph that chunk
// grouping consumes, and provides a tracer that builds one from source files.
package modgraph

import (
	"encoding/json"
	"strings"
)

// QueryParam is a single key/value pair from a module id's query string.
// Keys without a value (e.g. "?raw") carry an empty Value.
type QueryParam struct {
	Key   string
	Value string
}

// Ref identifies a module by its logical path and optional query.
// Refs are comparable and can be used as map keys; two refs are equal iff
// their normalized path and query are equal.
type Ref struct {
	path  string
	query string // normalized: k=v pairs joined by "&", original order
}

// ParseRef parses a module id of the form "path[?query]".
func ParseRef(id string) Ref {
	p, rawQuery, _ := strings.Cut(id, "?")
	// Anything after a second "?" is not part of the query.
	rawQuery, _, _ = strings.Cut(rawQuery, "?")
	return Ref{path: p, query: joinQuery(parseQuery(rawQuery))}
}

// NewRef builds a ref from a path and query params.
func NewRef(path string, params ...QueryParam) Ref {
	return Ref{path: path, query: joinQuery(params)}
}

// Path returns the logical path without the query.
func (r Ref) Path() string {
	return r.path
}

// Query returns the parsed query params in their original order.
func (r Ref) Query() []QueryParam {
	return parseQuery(r.query)
}

// HasQuery reports whether the ref carries any query params.
func (r Ref) HasQuery() bool {
	return r.query != ""
}

// QueryString returns the normalized query without the leading "?".
func (r Ref) QueryString() string {
	return r.query
}

// IsZero reports whether r is the zero Ref.
func (r Ref) IsZero() bool {
	return r.path == "" && r.query == ""
}

// String returns the normalized module id.
func (r Ref) String() string {
	if r.query == "" {
		return r.path
	}
	return r.path + "?" + r.query
}

// Compare orders refs by their normalized id.
func Compare(a, b Ref) int {
	return strings.Compare(a.String(), b.String())
}

// MarshalJSON encodes the ref as its id string.
func (r Ref) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.String())
}

// UnmarshalJSON decodes a ref from its id string.
func (r *Ref) UnmarshalJSON(data []byte) error {
	var id string
	if err := json.Unmarshal(data, &id); err != nil {
		return err
	}
	*r = ParseRef(id)
	return nil
}

func parseQuery(raw string) []QueryParam {
	if raw == "" {
		return nil
	}
	var params []QueryParam
	for pair := range strings.SplitSeq(raw, "&") {
		if pair == "" {
			continue
		}
		if strings.Contains(pair, "=") {
			// Only the text between the first and second "=" is the value.
			parts := strings.SplitN(pair, "=", 3)
			params = append(params, QueryParam{Key: parts[0], Value: parts[1]})
			continue
		}
		params = append(params, QueryParam{Key: pair})
	}
	return params
}

func joinQuery(params []QueryParam) string {
	if len(params) == 0 {
		return ""
	}
	var b strings.Builder
	for i, p := range params {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(p.Key)
		b.WriteByte('=')
		b.WriteString(p.Value)
	}
	return b.String()
}
