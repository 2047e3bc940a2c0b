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
package packagejson

import (
	"sync"

	"bennypowers.dev/spezza/fs"
)

// Cache remembers parsed package.json files by path, including misses, so
// that tracing a large graph reads each manifest once.
type Cache interface {
	// Load returns the parsed package.json at path, or nil when it is
	// missing or invalid.
	Load(fsys fs.FileSystem, path string) *PackageJSON

	// Invalidate drops the entry for path, typically because the file changed.
	Invalidate(path string)
}

type cacheEntry struct {
	once sync.Once
	pkg  *PackageJSON
	err  error
}

// MemoryCache is a thread-safe in-memory Cache. Concurrent loads of the same
// path share a single parse.
type MemoryCache struct {
	entries sync.Map // map[string]*cacheEntry
}

// NewMemoryCache creates an empty cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{}
}

// Load implements Cache.
func (c *MemoryCache) Load(fsys fs.FileSystem, path string) *PackageJSON {
	pkg, _ := c.LoadErr(fsys, path)
	return pkg
}

// LoadErr is Load that also reports why a manifest could not be used.
func (c *MemoryCache) LoadErr(fsys fs.FileSystem, path string) (*PackageJSON, error) {
	actual, _ := c.entries.LoadOrStore(path, &cacheEntry{})
	entry := actual.(*cacheEntry)
	entry.once.Do(func() {
		entry.pkg, entry.err = ParseFile(fsys, path)
	})
	return entry.pkg, entry.err
}

// Invalidate implements Cache.
func (c *MemoryCache) Invalidate(path string) {
	c.entries.Delete(path)
}
