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
package modgraph

import (
	"errors"
	"fmt"
	"path"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"bennypowers.dev/spezza/fs"
	"bennypowers.dev/spezza/packagejson"
)

// Logger receives diagnostics while tracing.
type Logger interface {
	Warning(format string, args ...any)
	Debug(format string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Warning(string, ...any) {}
func (nopLogger) Debug(string, ...any)   {}

// DefaultExtensions are tried, in order, for specifiers without one.
var DefaultExtensions = []string{".ts", ".tsx", ".js", ".jsx", ".mjs"}

// scriptExtensions are the file types whose imports are extracted. Other
// files (css, json, svg...) become leaf modules.
var scriptExtensions = map[string]bool{
	".js": true, ".mjs": true, ".cjs": true, ".jsx": true,
	".ts": true, ".mts": true, ".cts": true, ".tsx": true,
}

// parsedFile is the cached result of reading and parsing one file.
type parsedFile struct {
	hash    uint64
	imports []Import
}

// Tracer builds module graphs from entry files on disk. It plays the part of
// the upstream resolution stage: the graph it returns is frozen and every
// module carries its raw content hash.
type Tracer struct {
	fs              fs.FileSystem
	rootDir         string
	nodeModulesPath string // node_modules used to resolve bare specifiers
	followBare      bool   // whether to follow bare specifiers into node_modules
	extensions      []string
	conditions      []string
	logger          Logger

	pkgCache *packagejson.MemoryCache
	// fileCache caches parsed files by absolute path (thread-safe).
	// Shared by derived tracers so watch mode only re-reads what changed.
	fileCache *sync.Map // map[string]*parsedFile
}

// NewTracer creates a new Tracer for the given root directory.
func NewTracer(fsys fs.FileSystem, rootDir string) *Tracer {
	return &Tracer{
		fs:         fsys,
		rootDir:    filepath.Clean(rootDir),
		extensions: DefaultExtensions,
		logger:     nopLogger{},
		pkgCache:   packagejson.NewMemoryCache(),
		fileCache:  &sync.Map{},
	}
}

func (t *Tracer) clone() *Tracer {
	c := *t
	return &c
}

// WithNodeModules returns a Tracer that follows bare specifiers into the
// given node_modules directory.
func (t *Tracer) WithNodeModules(nodeModulesPath string) *Tracer {
	c := t.clone()
	c.nodeModulesPath = nodeModulesPath
	c.followBare = nodeModulesPath != ""
	return c
}

// WithExtensions returns a Tracer that tries the given extensions, in order,
// when a specifier names a file without one.
func (t *Tracer) WithExtensions(exts ...string) *Tracer {
	c := t.clone()
	c.extensions = slices.Clone(exts)
	return c
}

// WithConditions returns a Tracer that resolves package exports with the
// given condition priority.
func (t *Tracer) WithConditions(conditions []string) *Tracer {
	c := t.clone()
	c.conditions = slices.Clone(conditions)
	return c
}

// WithLogger returns a Tracer that reports diagnostics to logger.
func (t *Tracer) WithLogger(logger Logger) *Tracer {
	c := t.clone()
	if logger == nil {
		logger = nopLogger{}
	}
	c.logger = logger
	return c
}

// RootDir returns the directory module refs are relative to.
func (t *Tracer) RootDir() string {
	return t.rootDir
}

// Invalidate drops cached parses of the given files so the next Trace reads
// them again.
func (t *Tracer) Invalidate(paths ...string) {
	for _, p := range paths {
		abs := t.absPath(p)
		t.fileCache.Delete(abs)
		if filepath.Base(abs) == "package.json" {
			t.pkgCache.Invalidate(abs)
		}
	}
}

// RefFor returns the module ref for a file path, relative to the root.
func (t *Tracer) RefFor(filePath string, params ...QueryParam) Ref {
	abs := t.absPath(filePath)
	rel, err := filepath.Rel(t.rootDir, abs)
	if err != nil {
		rel = abs
	}
	return NewRef(filepath.ToSlash(rel), params...)
}

// PathFor returns the absolute file path of a module ref produced by this tracer.
func (t *Tracer) PathFor(ref Ref) string {
	return t.absPath(filepath.FromSlash(ref.Path()))
}

func (t *Tracer) absPath(p string) string {
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(t.rootDir, p)
}

// Trace builds a frozen module graph from the given entry files. Entry paths
// may be absolute or relative to the root. A missing entry is an error;
// problems with other modules are collected in Graph.Errors.
func (t *Tracer) Trace(entryPaths []string) (*Graph, error) {
	graph := New()

	type job struct {
		ref  Ref
		file string
	}
	var queue []job
	visited := make(map[Ref]bool)

	for _, entry := range entryPaths {
		abs := t.absPath(entry)
		if !fs.IsFile(t.fs, abs) {
			return nil, fmt.Errorf("entry %s: %w", entry, ErrNotFound)
		}
		ref := t.RefFor(abs)
		if _, err := graph.AddModule(ref, nil); err != nil {
			return nil, err
		}
		if !visited[ref] {
			visited[ref] = true
			queue = append(queue, job{ref, abs})
		}
	}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		parsed, err := t.parse(current.file)
		if err != nil {
			// Leave Info nil: the module is known but unhashed.
			graph.Errors = append(graph.Errors, fmt.Errorf("tracing %s: %w", current.ref, err))
			t.logger.Warning("failed to trace %s: %v", current.ref, err)
			continue
		}
		if _, err := graph.AddModule(current.ref, &Info{RawHash: parsed.hash}); err != nil {
			return nil, err
		}

		importerDir := filepath.Dir(current.file)
		for _, imp := range parsed.imports {
			file, params, err := t.resolveSpecifier(importerDir, imp.Specifier)
			if err != nil {
				graph.Errors = append(graph.Errors, fmt.Errorf("resolving %q from %s:%d: %w", imp.Specifier, current.ref, imp.Line, err))
				t.logger.Warning("cannot resolve %q from %s:%d: %v", imp.Specifier, current.ref, imp.Line, err)
				continue
			}
			if file == "" {
				t.logger.Debug("skipping external import %q in %s", imp.Specifier, current.ref)
				continue
			}

			target := t.RefFor(file, params...)
			if _, err := graph.AddModule(target, nil); err != nil {
				return nil, err
			}
			if err := graph.AddDependency(current.ref, target, imp.Kind); err != nil {
				return nil, err
			}
			if !visited[target] {
				visited[target] = true
				queue = append(queue, job{target, file})
			}
		}
	}

	graph.Freeze()
	return graph, nil
}

// parse reads, hashes and extracts imports from a file, consulting the cache.
func (t *Tracer) parse(file string) (*parsedFile, error) {
	if cached, ok := t.fileCache.Load(file); ok {
		return cached.(*parsedFile), nil
	}

	content, err := t.fs.ReadFile(file)
	if err != nil {
		return nil, err
	}

	parsed := &parsedFile{hash: ContentHash(content)}
	if scriptExtensions[path.Ext(file)] {
		imports, err := ExtractImports(content, GrammarFor(file))
		if err != nil {
			return nil, err
		}
		parsed.imports = imports
	}

	t.fileCache.Store(file, parsed)
	return parsed, nil
}

// errUnresolved is returned when a local specifier names no existing file.
var errUnresolved = errors.New("no such module")

// resolveSpecifier maps an import specifier to a file path and query.
// It returns an empty path for external specifiers (URLs, or bare
// specifiers when node_modules is not followed).
func (t *Tracer) resolveSpecifier(importerDir, specifier string) (string, []QueryParam, error) {
	spec, rawQuery, _ := strings.Cut(specifier, "?")
	params := ParseRef("?" + rawQuery).Query()

	if isExternal(spec) {
		return "", nil, nil
	}

	if isBareSpecifier(spec) {
		if !t.followBare {
			return "", nil, nil
		}
		file, err := t.resolveBareSpecifier(spec)
		if err != nil || file == "" {
			return "", nil, err
		}
		return file, params, nil
	}

	var candidate string
	if strings.HasPrefix(spec, "/") {
		// Web-style absolute path - relative to root
		candidate = filepath.Join(t.rootDir, spec)
	} else {
		candidate = filepath.Join(importerDir, spec)
	}

	if file := t.findFile(candidate); file != "" {
		return file, params, nil
	}
	return "", nil, errUnresolved
}

// findFile finds the file a path refers to: itself, with an extension, or its
// index file.
func (t *Tracer) findFile(candidate string) string {
	if fs.IsFile(t.fs, candidate) {
		return candidate
	}
	for _, ext := range t.extensions {
		if fs.IsFile(t.fs, candidate+ext) {
			return candidate + ext
		}
	}
	for _, ext := range t.extensions {
		index := filepath.Join(candidate, "index"+ext)
		if fs.IsFile(t.fs, index) {
			return index
		}
	}
	return ""
}

// resolveBareSpecifier resolves a bare specifier through the package's
// package.json in node_modules. A package that is not installed is treated
// as external.
func (t *Tracer) resolveBareSpecifier(specifier string) (string, error) {
	pkgName := getPackageName(specifier)
	subpath := "." + strings.TrimPrefix(specifier, pkgName)

	pkgPath := filepath.Join(t.nodeModulesPath, pkgName)
	pkg := t.pkgCache.Load(t.fs, filepath.Join(pkgPath, "package.json"))
	if pkg == nil {
		return "", nil
	}

	resolved, err := pkg.ResolveExport(subpath, t.conditions)
	if err == nil {
		return t.findFile(filepath.Join(pkgPath, resolved)), nil
	}
	// Packages with exports only expose what they export.
	if pkg.Exports != nil {
		return "", fmt.Errorf("%s: %w", specifier, err)
	}
	if subpath == "." {
		return t.findFile(filepath.Join(pkgPath, "index")), nil
	}
	return t.findFile(filepath.Join(pkgPath, strings.TrimPrefix(subpath, "./"))), nil
}

// EntriesFromHTML returns the files referenced by module scripts in an HTML
// file, in document order.
func (t *Tracer) EntriesFromHTML(htmlPath string) ([]string, error) {
	abs := t.absPath(htmlPath)
	content, err := t.fs.ReadFile(abs)
	if err != nil {
		return nil, err
	}
	sources, err := ModuleScriptSources(content)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", htmlPath, err)
	}

	htmlDir := filepath.Dir(abs)
	var entries []string
	for _, src := range sources {
		file, _, err := t.resolveSpecifier(htmlDir, src)
		if err != nil {
			return nil, fmt.Errorf("%s: script %q: %w", htmlPath, src, err)
		}
		if file == "" {
			t.logger.Debug("skipping external script %q in %s", src, htmlPath)
			continue
		}
		entries = append(entries, file)
	}
	return entries, nil
}

func isExternal(specifier string) bool {
	return strings.Contains(specifier, "://") ||
		strings.HasPrefix(specifier, "data:") ||
		strings.HasPrefix(specifier, "//")
}

// isBareSpecifier reports whether the specifier names a package rather
// than a path.
func isBareSpecifier(specifier string) bool {
	if specifier == "" {
		return false
	}
	if strings.HasPrefix(specifier, "./") || strings.HasPrefix(specifier, "../") {
		return false
	}
	if specifier == "." || specifier == ".." {
		return false
	}
	return !strings.HasPrefix(specifier, "/")
}

// getPackageName extracts the package name from a bare specifier.
func getPackageName(specifier string) string {
	// Scoped packages: @scope/package/path -> @scope/package
	if strings.HasPrefix(specifier, "@") {
		parts := strings.SplitN(specifier, "/", 3)
		if len(parts) >= 2 {
			return path.Join(parts[0], parts[1])
		}
		return specifier
	}
	parts := strings.SplitN(specifier, "/", 2)
	return parts[0]
}
