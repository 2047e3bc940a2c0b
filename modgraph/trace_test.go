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
	"errors"
	"slices"
	"testing"

	"bennypowers.dev/spezza/modgraph"
	"bennypowers.dev/spezza/testutil"
)

type recordingLogger struct {
	warnings []string
}

func (l *recordingLogger) Warning(format string, args ...any) {
	l.warnings = append(l.warnings, format)
}

func (l *recordingLogger) Debug(string, ...any) {}

func refs(ids ...string) []modgraph.Ref {
	result := make([]modgraph.Ref, len(ids))
	for i, id := range ids {
		result[i] = modgraph.ParseRef(id)
	}
	return result
}

func TestTrace(t *testing.T) {
	mfs := testutil.NewFixtureFS(t, "modgraph/app", "/project")
	tracer := modgraph.NewTracer(mfs, "/project")

	g, err := tracer.Trace([]string{"src/main.ts"})
	if err != nil {
		t.Fatalf("Trace failed: %v", err)
	}
	if !g.Frozen() {
		t.Error("Expected a frozen graph")
	}
	if len(g.Errors) != 0 {
		t.Errorf("Expected no trace errors, got %v", g.Errors)
	}

	want := refs(
		"src/main.ts",
		"src/a.ts",
		"src/reexport.js",
		"src/style.css?inline",
		"src/lazy.ts",
		"src/worker.ts",
		"src/lib/index.ts",
	)
	if got := g.Refs(); !slices.Equal(got, want) {
		t.Errorf("Expected modules %v, got %v", want, got)
	}

	wantDeps := []modgraph.Dependency{
		{Target: modgraph.ParseRef("src/a.ts"), Kind: modgraph.Static},
		{Target: modgraph.ParseRef("src/reexport.js"), Kind: modgraph.Static},
		{Target: modgraph.ParseRef("src/style.css?inline"), Kind: modgraph.Static},
		{Target: modgraph.ParseRef("src/lazy.ts"), Kind: modgraph.Dynamic},
		{Target: modgraph.ParseRef("src/worker.ts"), Kind: modgraph.Worker},
	}
	if got := g.Dependencies(modgraph.ParseRef("src/main.ts")); !slices.Equal(got, wantDeps) {
		t.Errorf("Expected dependencies %v, got %v", wantDeps, got)
	}

	for _, ref := range g.Refs() {
		mod, _ := g.GetModule(ref)
		if mod.Info == nil {
			t.Errorf("Expected %s to be hashed", ref)
		}
	}
	style, _ := g.GetModule(modgraph.ParseRef("src/style.css?inline"))
	content, _ := mfs.ReadFile("/project/src/style.css")
	if style.Info.RawHash != modgraph.ContentHash(content) {
		t.Error("Expected the raw hash to be the content hash of the file")
	}
}

func TestTraceNodeModules(t *testing.T) {
	mfs := testutil.NewFixtureFS(t, "modgraph/app", "/project")
	tracer := modgraph.NewTracer(mfs, "/project").WithNodeModules("/project/node_modules")

	g, err := tracer.Trace([]string{"/project/src/main.ts"})
	if err != nil {
		t.Fatalf("Trace failed: %v", err)
	}
	lit := modgraph.ParseRef("node_modules/lit/index.js")
	if !g.Has(lit) {
		t.Fatalf("Expected lit to be traced, got %v", g.Refs())
	}
	deps := g.Dependencies(modgraph.ParseRef("src/main.ts"))
	if !slices.Contains(deps, modgraph.Dependency{Target: lit, Kind: modgraph.Static}) {
		t.Errorf("Expected a static edge to lit, got %v", deps)
	}
}

func TestTraceMissingEntry(t *testing.T) {
	mfs := testutil.NewFixtureFS(t, "modgraph/app", "/project")
	_, err := modgraph.NewTracer(mfs, "/project").Trace([]string{"src/nope.ts"})
	if !errors.Is(err, modgraph.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestTraceUnresolvedImport(t *testing.T) {
	mfs := testutil.NewFixtureFS(t, "modgraph/app", "/project")
	mfs.AddFile("/project/src/broken.ts", "import './missing.js';\nimport './a';\n", 0644)
	logger := &recordingLogger{}

	g, err := modgraph.NewTracer(mfs, "/project").WithLogger(logger).Trace([]string{"src/broken.ts"})
	if err != nil {
		t.Fatalf("Trace failed: %v", err)
	}
	if len(g.Errors) != 1 {
		t.Errorf("Expected one collected error, got %v", g.Errors)
	}
	if len(logger.warnings) != 1 {
		t.Errorf("Expected one warning, got %v", logger.warnings)
	}
	if !g.Has(modgraph.ParseRef("src/a.ts")) {
		t.Error("Expected tracing to continue past the unresolved import")
	}
}

func TestTraceInvalidate(t *testing.T) {
	mfs := testutil.NewFixtureFS(t, "modgraph/app", "/project")
	tracer := modgraph.NewTracer(mfs, "/project")

	first, err := tracer.Trace([]string{"src/lazy.ts"})
	if err != nil {
		t.Fatalf("Trace failed: %v", err)
	}

	mfs.Touch("/project/src/lib/index.ts", "export const b = 'changed';\n")
	cached, err := tracer.Trace([]string{"src/lazy.ts"})
	if err != nil {
		t.Fatalf("Trace failed: %v", err)
	}
	lib := modgraph.ParseRef("src/lib/index.ts")
	if hash(t, first, lib) != hash(t, cached, lib) {
		t.Error("Expected the cached parse to be reused before Invalidate")
	}

	tracer.Invalidate("src/lib/index.ts")
	fresh, err := tracer.Trace([]string{"src/lazy.ts"})
	if err != nil {
		t.Fatalf("Trace failed: %v", err)
	}
	if hash(t, first, lib) == hash(t, fresh, lib) {
		t.Error("Expected Invalidate to pick up the changed file")
	}
}

func hash(t *testing.T, g *modgraph.Graph, ref modgraph.Ref) uint64 {
	t.Helper()
	mod, ok := g.GetModule(ref)
	if !ok || mod.Info == nil {
		t.Fatalf("Expected %s to be hashed", ref)
	}
	return mod.Info.RawHash
}

func TestEntriesFromHTML(t *testing.T) {
	mfs := testutil.NewFixtureFS(t, "modgraph/app", "/project")
	tracer := modgraph.NewTracer(mfs, "/project")

	entries, err := tracer.EntriesFromHTML("index.html")
	if err != nil {
		t.Fatalf("EntriesFromHTML failed: %v", err)
	}
	if want := []string{"/project/src/main.ts"}; !slices.Equal(entries, want) {
		t.Errorf("Expected %v, got %v", want, entries)
	}
}

func TestRefFor(t *testing.T) {
	tracer := modgraph.NewTracer(nil, "/project")

	if got := tracer.RefFor("/project/src/a.ts"); got != modgraph.ParseRef("src/a.ts") {
		t.Errorf("Expected src/a.ts, got %s", got)
	}
	if got := tracer.RefFor("src/a.ts", modgraph.QueryParam{Key: "raw"}); got != modgraph.ParseRef("src/a.ts?raw") {
		t.Errorf("Expected src/a.ts?raw=, got %s", got)
	}
	if got := tracer.PathFor(modgraph.ParseRef("src/a.ts?raw")); got != "/project/src/a.ts" {
		t.Errorf("Expected /project/src/a.ts, got %s", got)
	}
}
