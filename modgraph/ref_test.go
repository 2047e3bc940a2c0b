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
package modgraph_test

import (
	"encoding/json"
	"slices"
	"testing"

	"bennypowers.dev/spezza/modgraph"
)

func TestParseRef(t *testing.T) {
	tests := []struct {
		id     string
		path   string
		query  string
		params []modgraph.QueryParam
	}{
		{"src/a.js", "src/a.js", "", nil},
		{"src/a.js?raw", "src/a.js", "raw=", []modgraph.QueryParam{{Key: "raw"}}},
		{"a.css?inline&lang=scss", "a.css", "inline=&lang=scss", []modgraph.QueryParam{{Key: "inline"}, {Key: "lang", Value: "scss"}}},
		{"a.js?a=1&&b=2", "a.js", "a=1&b=2", []modgraph.QueryParam{{Key: "a", Value: "1"}, {Key: "b", Value: "2"}}},
		{"a.js?", "a.js", "", nil},
		{"x?a=b=c", "x", "a=b", []modgraph.QueryParam{{Key: "a", Value: "b"}}},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			r := modgraph.ParseRef(tt.id)
			if r.Path() != tt.path {
				t.Errorf("Expected path %q, got %q", tt.path, r.Path())
			}
			if r.QueryString() != tt.query {
				t.Errorf("Expected query %q, got %q", tt.query, r.QueryString())
			}
			if r.HasQuery() != (tt.query != "") {
				t.Errorf("HasQuery() = %v for %q", r.HasQuery(), tt.id)
			}
			if !slices.Equal(r.Query(), tt.params) {
				t.Errorf("Expected params %v, got %v", tt.params, r.Query())
			}
		})
	}
}

func TestRefIdentity(t *testing.T) {
	if modgraph.ParseRef("a.js?raw") != modgraph.ParseRef("a.js?raw=") {
		t.Error("Expected a bare key and an empty value to be the same ref")
	}
	if modgraph.ParseRef("a.js?a=1") == modgraph.ParseRef("a.js?a=2") {
		t.Error("Expected refs with different query values to differ")
	}
	if modgraph.ParseRef("a.js") == modgraph.ParseRef("a.js?a=1") {
		t.Error("Expected a query to distinguish refs")
	}
	built := modgraph.NewRef("a.js", modgraph.QueryParam{Key: "a", Value: "1"})
	if built != modgraph.ParseRef("a.js?a=1") {
		t.Errorf("Expected NewRef to match ParseRef, got %s", built)
	}
	if !(modgraph.Ref{}).IsZero() || modgraph.ParseRef("a.js").IsZero() {
		t.Error("IsZero is wrong")
	}
}

func TestRefCompare(t *testing.T) {
	got := []modgraph.Ref{
		modgraph.ParseRef("b.js"),
		modgraph.ParseRef("a.js?x=1"),
		modgraph.ParseRef("a.js"),
	}
	slices.SortFunc(got, modgraph.Compare)

	want := []string{"a.js", "a.js?x=1", "b.js"}
	for i, r := range got {
		if r.String() != want[i] {
			t.Errorf("Position %d: expected %s, got %s", i, want[i], r)
		}
	}
}

func TestRefJSON(t *testing.T) {
	data, err := json.Marshal([]modgraph.Ref{modgraph.ParseRef("a.js?raw")})
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if string(data) != `["a.js?raw="]` {
		t.Errorf("Unexpected JSON %s", data)
	}

	var refs []modgraph.Ref
	if err := json.Unmarshal(data, &refs); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if refs[0] != modgraph.ParseRef("a.js?raw") {
		t.Errorf("Expected a.js?raw=, got %s", refs[0])
	}
}
