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
package chunk_test

import (
	"regexp"
	"testing"

	"bennypowers.dev/spezza/chunk"
	"bennypowers.dev/spezza/modgraph"
)

var filenameCharset = regexp.MustCompile(`^[A-Za-z0-9_-]+\.js$`)

func TestFilename(t *testing.T) {
	tests := []struct {
		name string
		id   string
		kind chunk.Kind
		want string
	}{
		{"entry uses its name", "foo/bar.tsx", chunk.Entry{Name: "foo_bar"}, "foo_bar.js"},
		{"shared entry", "src/util.ts", chunk.Entry{Name: "src_util_ts-shared", Shared: true}, "src_util_ts-shared.js"},
		{"async drops current dir", "./foo/bar.tsx", chunk.Async{}, "foo_bar_tsx-async.js"},
		{"async without prefix", "foo/bar.tsx", chunk.Async{}, "foo_bar_tsx-async.js"},
		{"sync shares async suffix", "src/dep.js", chunk.Sync{}, "src_dep_js-async.js"},
		{"worker", "src/worker.ts", chunk.Worker{}, "src_worker_ts-worker.js"},
		{"runtime ignores id", "anything/at/all.js", chunk.Runtime{}, "runtime.js"},
		{"parent dir token", "../shared/a.js", chunk.Async{}, "___shared_a_js-async.js"},
		{"absolute path", "/abs/a.js", chunk.Async{}, "abs_a_js-async.js"},
		{"windows separators", `src\win\a.js`, chunk.Async{}, "src_win_a_js-async.js"},
		{"scoped package", "node_modules/@scope/pkg/index.js", chunk.Async{}, "node_modules__scope_pkg_index_js-async.js"},
		{"query suffix", "./foo/bar.tsx?a=1", chunk.Async{}, "foo_bar_tsx_q_OHLJ-async.js"},
		{"bare query key", "a.css?raw", chunk.Async{}, "a_css_q_wpZ0-async.js"},
		{"multiple params", "a.js?k=v&x=y", chunk.Worker{}, "a_js_q_jLG3-worker.js"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := chunk.New(modgraph.ParseRef(tt.id), tt.kind)
			got := c.Filename()
			if got != tt.want {
				t.Errorf("Expected %q, got %q", tt.want, got)
			}
			if !filenameCharset.MatchString(got) {
				t.Errorf("Filename %q violates the output charset", got)
			}
		})
	}
}

func TestDisambiguate(t *testing.T) {
	tests := []struct {
		name string
		id   string
		kind chunk.Kind
		want string
	}{
		{"async", "a.b/c.js", chunk.Async{}, "a_b_c_js_p_agIw-async.js"},
		{"sync", "a_b/c.js", chunk.Sync{}, "a_b_c_js_p_07N7-async.js"},
		{"worker under parent dir", "../x.js", chunk.Worker{}, "___x_js_p_Grg_-worker.js"},
		{"query", "lib/a.js?raw", chunk.Async{}, "lib_a_js_q_wpZ0_p_apIx-async.js"},
		{"shared entry", "x.y/z.js", chunk.Entry{Name: "x_y_z_js-shared", Shared: true}, "x_y_z_js_p_ZJMm-shared.js"},
		{"user entry", "main.js", chunk.Entry{Name: "main"}, "main.js"},
		{"runtime", "@spezza/runtime", chunk.Runtime{}, "runtime.js"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := chunk.New(modgraph.ParseRef(tt.id), tt.kind)
			c.Disambiguate()
			got := c.Filename()
			if got != tt.want {
				t.Errorf("Expected %q, got %q", tt.want, got)
			}
			if !filenameCharset.MatchString(got) {
				t.Errorf("Filename %q violates the output charset", got)
			}
		})
	}
}

func TestFilenameQueryCollision(t *testing.T) {
	a := chunk.New(modgraph.ParseRef("./foo/bar.tsx?a=1"), chunk.Async{})
	b := chunk.New(modgraph.ParseRef("./foo/bar.tsx?a=2"), chunk.Async{})
	plain := chunk.New(modgraph.ParseRef("./foo/bar.tsx"), chunk.Async{})

	if a.Filename() == b.Filename() {
		t.Errorf("Expected distinct filenames for distinct queries, both %q", a.Filename())
	}
	if a.Filename() == plain.Filename() || b.Filename() == plain.Filename() {
		t.Errorf("Expected query filenames to differ from %q", plain.Filename())
	}
}

func TestEntryFilenameIgnoresMembers(t *testing.T) {
	c := chunk.New(modgraph.ParseRef("src/main.ts"), chunk.Entry{Name: "main"})
	before := c.Filename()
	c.AddModule(modgraph.ParseRef("src/main.ts"))
	c.AddModule(modgraph.ParseRef("src/other.ts"))

	if after := c.Filename(); after != before {
		t.Errorf("Expected entry filename to ignore members: %q then %q", before, after)
	}
}

func TestValidName(t *testing.T) {
	tests := []struct {
		name  string
		valid bool
	}{
		{"main", true},
		{"admin-page_2", true},
		{"", false},
		{"a.b", false},
		{"a/b", false},
		{"naïve", false},
	}

	for _, tt := range tests {
		if got := chunk.ValidName(tt.name); got != tt.valid {
			t.Errorf("ValidName(%q) = %v, want %v", tt.name, got, tt.valid)
		}
	}
}
