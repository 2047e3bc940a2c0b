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
package packagejson_test

import (
	"sync"
	"testing"

	"bennypowers.dev/spezza/internal/mapfs"
	"bennypowers.dev/spezza/packagejson"
)

var _ packagejson.Cache = (*packagejson.MemoryCache)(nil)

func TestMemoryCacheLoad(t *testing.T) {
	mfs := mapfs.New()
	mfs.AddFile("/pkg/package.json", `{"name": "first"}`, 0644)
	cache := packagejson.NewMemoryCache()

	pkg := cache.Load(mfs, "/pkg/package.json")
	if pkg == nil || pkg.Name != "first" {
		t.Fatalf("Expected package 'first', got %+v", pkg)
	}

	// Cached: a change on disk is not seen until invalidation
	mfs.Touch("/pkg/package.json", `{"name": "second"}`)
	if got := cache.Load(mfs, "/pkg/package.json"); got != pkg {
		t.Error("Expected cached package to be returned")
	}

	cache.Invalidate("/pkg/package.json")
	if got := cache.Load(mfs, "/pkg/package.json"); got == nil || got.Name != "second" {
		t.Errorf("Expected package 'second' after invalidation, got %+v", got)
	}
}

func TestMemoryCacheMiss(t *testing.T) {
	mfs := mapfs.New()
	cache := packagejson.NewMemoryCache()

	if pkg := cache.Load(mfs, "/missing/package.json"); pkg != nil {
		t.Errorf("Expected nil for missing file, got %+v", pkg)
	}
	if _, err := cache.LoadErr(mfs, "/missing/package.json"); err == nil {
		t.Error("Expected error for missing file")
	}

	// Misses are cached too
	mfs.AddFile("/missing/package.json", `{"name": "late"}`, 0644)
	if pkg := cache.Load(mfs, "/missing/package.json"); pkg != nil {
		t.Error("Expected cached miss before invalidation")
	}
	cache.Invalidate("/missing/package.json")
	if pkg := cache.Load(mfs, "/missing/package.json"); pkg == nil {
		t.Error("Expected package after invalidation")
	}
}

func TestMemoryCacheInvalidateNonexistent(t *testing.T) {
	cache := packagejson.NewMemoryCache()
	cache.Invalidate("/nonexistent/package.json")
}

func TestMemoryCacheConcurrency(t *testing.T) {
	mfs := mapfs.New()
	mfs.AddFile("/pkg/package.json", `{"name": "shared"}`, 0644)
	cache := packagejson.NewMemoryCache()

	var wg sync.WaitGroup
	results := make([]*packagejson.PackageJSON, 50)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = cache.Load(mfs, "/pkg/package.json")
		}()
	}
	wg.Wait()

	for i, pkg := range results {
		if pkg != results[0] {
			t.Fatalf("Expected every load to share one parse, result %d differs", i)
		}
	}
}
