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

// Package inject writes modulepreload links into HTML files for the chunks
// each page's module scripts load, updating links written by an earlier run
// or inserting new ones at the top of <head>.
package inject

import (
	"fmt"
	"html"
	"runtime"
	"strings"
	"sync"

	"bennypowers.dev/spezza/chunkgraph"
	"bennypowers.dev/spezza/fs"
	"bennypowers.dev/spezza/modgraph"
)

// Options configures the inject command.
type Options struct {
	// Base prefixes every chunk filename in an href, e.g. "/assets/".
	Base string
	// Parallel is the number of parallel workers for batch mode.
	Parallel int
	// DryRun prevents writing files when true.
	DryRun bool
}

// Result holds the result of injecting into a single file.
type Result struct {
	File     string   `json:"file"`
	Modified bool     `json:"modified"`
	Inserted bool     `json:"inserted,omitempty"` // true if the file had no managed links before
	Links    []string `json:"links,omitempty"`
	Error    string   `json:"error,omitempty"`
}

// Stats holds aggregate statistics from an inject operation.
type Stats struct {
	Total    int   `json:"total"`
	Updated  int   `json:"updated"`
	Inserted int   `json:"inserted"`
	Skipped  int   `json:"skipped"`
	Errors   int   `json:"errors"`
	Duration int64 `json:"duration_ms"`
}

// Planner decides which chunk files an HTML page preloads, in load order.
type Planner interface {
	Preloads(htmlFile string) ([]string, error)
}

// ChunkPlanner plans preloads from a built chunk graph. A page preloads the
// load order of every module script's chunk, each filename once.
type ChunkPlanner struct {
	Tracer *modgraph.Tracer
	Chunks *chunkgraph.Graph
}

// Preloads implements Planner.
func (p ChunkPlanner) Preloads(htmlFile string) ([]string, error) {
	scripts, err := p.Tracer.EntriesFromHTML(htmlFile)
	if err != nil {
		return nil, err
	}

	var files []string
	seen := make(map[string]bool)
	for _, script := range scripts {
		ref := p.Tracer.RefFor(script)
		id, ok := p.Chunks.ChunkOf(ref)
		if !ok {
			return nil, fmt.Errorf("script %s is not in any chunk", ref)
		}
		order, err := p.Chunks.LoadOrder(id)
		if err != nil {
			return nil, err
		}
		for _, dep := range order {
			c, ok := p.Chunks.Chunk(dep)
			if !ok {
				continue
			}
			if name := c.Filename(); !seen[name] {
				seen[name] = true
				files = append(files, name)
			}
		}
	}
	return files, nil
}

// InjectBatch injects preload links into multiple HTML files in parallel.
// Results arrive in completion order.
func InjectBatch(fsys fs.FileSystem, files []string, planner Planner, opts Options) <-chan Result {
	results := make(chan Result, len(files))

	go func() {
		defer close(results)

		parallel := opts.Parallel
		if parallel <= 0 {
			parallel = runtime.NumCPU()
		}

		jobs := make(chan string, len(files))

		var wg sync.WaitGroup
		for range parallel {
			wg.Go(func() {
				for htmlFile := range jobs {
					results <- injectFile(fsys, planner, htmlFile, opts)
				}
			})
		}

		for _, file := range files {
			jobs <- file
		}
		close(jobs)

		wg.Wait()
	}()

	return results
}

// injectFile processes a single HTML file.
func injectFile(fsys fs.FileSystem, planner Planner, htmlFile string, opts Options) Result {
	result := Result{File: htmlFile}

	content, err := fsys.ReadFile(htmlFile)
	if err != nil {
		result.Error = err.Error()
		return result
	}

	preloads, err := planner.Preloads(htmlFile)
	if err != nil {
		result.Error = err.Error()
		return result
	}
	for _, name := range preloads {
		result.Links = append(result.Links, opts.Base+name)
	}

	site, err := modgraph.FindPreloadSite(content)
	if err != nil {
		result.Error = err.Error()
		return result
	}
	if site.Offset < 0 {
		result.Error = "could not find insertion point (no <head> tag)"
		return result
	}

	newContent := rewrite(content, site, result.Links)
	if string(newContent) == string(content) {
		return result
	}

	result.Modified = true
	result.Inserted = len(site.Injected) == 0

	if !opts.DryRun {
		if err := fsys.WriteFile(htmlFile, newContent, 0644); err != nil {
			result.Error = err.Error()
			return result
		}
	}

	return result
}

// rewrite drops the links of an earlier run and inserts one line per href
// right after the <head> start tag.
func rewrite(content []byte, site modgraph.PreloadSite, hrefs []string) []byte {
	var block strings.Builder
	for _, href := range hrefs {
		fmt.Fprintf(&block, "\n%s<link rel=\"modulepreload\" href=\"%s\" %s>",
			site.Indent, html.EscapeString(href), modgraph.PreloadMarker)
	}

	out := make([]byte, 0, len(content)+block.Len())
	pos := 0
	inserted := false
	for _, r := range site.Injected {
		if !inserted && site.Offset <= r[0] {
			out = append(out, content[pos:site.Offset]...)
			out = append(out, block.String()...)
			pos = site.Offset
			inserted = true
		}
		out = append(out, content[pos:r[0]]...)
		pos = r[1]
	}
	if !inserted {
		out = append(out, content[pos:site.Offset]...)
		out = append(out, block.String()...)
		pos = site.Offset
	}
	return append(out, content[pos:]...)
}
