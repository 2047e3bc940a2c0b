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

// Package build runs one pass of the bundler pipeline: trace the module
// graph, group it into chunks, hash and snapshot the result.
package build

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"bennypowers.dev/spezza/chunk"
	"bennypowers.dev/spezza/chunkgraph"
	"bennypowers.dev/spezza/config"
	"bennypowers.dev/spezza/fs"
	"bennypowers.dev/spezza/grouping"
	"bennypowers.dev/spezza/modgraph"
)

// Result is the outcome of one build pass.
type Result struct {
	Modules  *modgraph.Graph
	Chunks   *chunkgraph.Graph
	Snapshot *chunkgraph.Snapshot
	// Diff compares Snapshot with the previous pass, or with nothing on the
	// first pass.
	Diff chunkgraph.Diff
}

// Builder runs build passes for one configuration. Successive passes share
// the tracer's parse cache, so after Invalidate only changed files are read
// again.
type Builder struct {
	cfg    *config.Config
	tracer *modgraph.Tracer
	logger modgraph.Logger

	version  int
	previous *chunkgraph.Snapshot
}

// New creates a Builder. logger may be nil.
func New(fsys fs.FileSystem, cfg *config.Config, logger modgraph.Logger) *Builder {
	tracer := modgraph.NewTracer(fsys, cfg.Root).
		WithExtensions(cfg.Extensions...).
		WithConditions(cfg.Conditions)
	if cfg.NodeModules {
		tracer = tracer.WithNodeModules(filepath.Join(cfg.Root, "node_modules"))
	}
	if logger != nil {
		tracer = tracer.WithLogger(logger)
	}
	return &Builder{cfg: cfg, tracer: tracer, logger: logger}
}

// SetPrevious makes the next pass diff against snap, for example a manifest
// written by an earlier run.
func (b *Builder) SetPrevious(snap *chunkgraph.Snapshot) {
	b.previous = snap
	if snap != nil {
		b.version = snap.Version
	}
}

// Invalidate forgets cached parses of the given files.
func (b *Builder) Invalidate(paths ...string) {
	b.tracer.Invalidate(paths...)
}

// Tracer returns the builder's tracer.
func (b *Builder) Tracer() *modgraph.Tracer {
	return b.tracer
}

// Entries resolves the configured entries, including module scripts of
// configured HTML files, in order. Repeated files are kept once.
func (b *Builder) Entries() ([]grouping.Entry, []string, error) {
	var (
		entries []grouping.Entry
		paths   []string
	)
	seen := make(map[string]bool)
	add := func(name, file string) {
		abs := filepath.Clean(file)
		if seen[abs] {
			return
		}
		seen[abs] = true
		entries = append(entries, grouping.Entry{Name: name, Module: b.tracer.RefFor(abs)})
		paths = append(paths, abs)
	}

	for _, e := range b.cfg.Entries {
		add(e.Name, e.Path)
	}
	for _, html := range b.cfg.HTML {
		scripts, err := b.tracer.EntriesFromHTML(html)
		if err != nil {
			return nil, nil, err
		}
		for _, script := range scripts {
			add(b.cfg.NameFor(script), script)
		}
	}
	return entries, paths, nil
}

// Build runs one pass. On success the returned snapshot becomes the
// baseline for the next pass.
func (b *Builder) Build(ctx context.Context) (*Result, error) {
	entries, paths, err := b.Entries()
	if err != nil {
		return nil, err
	}

	modules, err := b.tracer.Trace(paths)
	if err != nil {
		return nil, fmt.Errorf("tracing: %w", err)
	}

	chunks, err := grouping.Group(modules, entries, grouping.Options{
		Runtime: b.cfg.Runtime,
		Logger:  b.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("grouping: %w", err)
	}

	snap, err := chunks.Snapshot(ctx, modules, b.version+1, b.cfg.Parallel)
	if err != nil {
		// A module that failed to trace has no content hash; name the cause.
		if errors.Is(err, chunk.ErrInvariant) && len(modules.Errors) > 0 {
			err = errors.Join(append([]error{err}, modules.Errors...)...)
		}
		return nil, fmt.Errorf("hashing: %w", err)
	}

	result := &Result{
		Modules:  modules,
		Chunks:   chunks,
		Snapshot: snap,
		Diff:     chunkgraph.CompareSnapshots(b.previous, snap),
	}
	b.version = snap.Version
	b.previous = snap
	return result, nil
}

// Files returns the absolute paths of every traced module, for watching.
func (b *Builder) Files(r *Result) []string {
	refs := r.Modules.Refs()
	files := make([]string, 0, len(refs))
	seen := make(map[string]bool, len(refs))
	for _, ref := range refs {
		file := b.tracer.PathFor(ref)
		if !seen[file] {
			seen[file] = true
			files = append(files, file)
		}
	}
	return files
}
