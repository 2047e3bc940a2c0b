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

// Package testutil provides fixture and golden-file helpers for spezza tests.
package testutil

import (
	"flag"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"bennypowers.dev/spezza/internal/mapfs"
)

// updateGolden rewrites golden files with actual output when -update is set.
var updateGolden = flag.Bool("update", false, "update golden files with actual output")

// candidates lists where a testdata path may live relative to the package
// under test: tests run in their package directory, up to two levels below
// the module root.
func candidates(rel string) []string {
	return []string{
		filepath.Join("testdata", rel),
		filepath.Join("..", "testdata", rel),
		filepath.Join("..", "..", "testdata", rel),
	}
}

// locate returns the first candidate for rel that exists.
func locate(rel string) (string, bool) {
	for _, p := range candidates(rel) {
		if _, err := os.Stat(p); err == nil {
			return p, true
		}
	}
	return "", false
}

// NewFixtureFS loads the fixture tree testdata/fixtureDir into memory, with
// every file placed under root. Module graphs traced from the result see
// the same paths on every machine.
func NewFixtureFS(t *testing.T, fixtureDir string, root string) *mapfs.MapFileSystem {
	t.Helper()

	dir, ok := locate(fixtureDir)
	if !ok {
		t.Fatalf("Could not find fixtures at %s", fixtureDir)
	}

	mfs := mapfs.New()
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		content, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		mfs.AddFile(filepath.Join(root, rel), string(content), 0644)
		return nil
	})
	if err != nil {
		t.Fatalf("Failed to load fixtures from %s: %v", fixtureDir, err)
	}
	return mfs
}

// FixturePath returns the on-disk path of a testdata file or directory, for
// tests that exercise the real filesystem.
func FixturePath(t *testing.T, rel string) string {
	t.Helper()
	p, ok := locate(rel)
	if !ok {
		t.Fatalf("Could not find fixture %s", rel)
	}
	abs, err := filepath.Abs(p)
	if err != nil {
		t.Fatalf("Failed to resolve fixture %s: %v", rel, err)
	}
	return abs
}

// LoadFixtureFile reads a file below testdata/.
func LoadFixtureFile(t *testing.T, rel string) []byte {
	t.Helper()
	p, ok := locate(rel)
	if !ok {
		t.Fatalf("Failed to read fixture %s: not found", rel)
	}
	content, err := os.ReadFile(p)
	if err != nil {
		t.Fatalf("Failed to read fixture %s: %v", rel, err)
	}
	return content
}

// LoadGoldenFile reads an expected-output file from testdata. With -update
// it returns nil, and the caller writes actual output via UpdateGoldenFile.
func LoadGoldenFile(t *testing.T, goldenPath string) []byte {
	t.Helper()
	if *updateGolden {
		return nil
	}
	return LoadFixtureFile(t, goldenPath)
}

// UpdateGoldenFile writes actual output to the golden file when -update is
// set, next to the first testdata directory that exists.
func UpdateGoldenFile(t *testing.T, goldenPath string, actual []byte) {
	t.Helper()
	if !*updateGolden {
		return
	}

	target := candidates(goldenPath)[0]
	for _, p := range candidates(goldenPath) {
		if _, err := os.Stat(filepath.Dir(p)); err == nil {
			target = p
			break
		}
	}
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		t.Fatalf("Failed to create directory for golden file %s: %v", goldenPath, err)
	}
	if err := os.WriteFile(target, actual, 0644); err != nil {
		t.Fatalf("Failed to write golden file %s: %v", goldenPath, err)
	}
	t.Logf("Updated golden file: %s", target)
}
