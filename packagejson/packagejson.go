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

// Package packagejson reads the parts of package.json that matter when
// tracing a bundle: the package name and its entry and export targets.
package packagejson

import (
	"encoding/json"
	"errors"
	"strings"

	"bennypowers.dev/spezza/fs"
)

// ErrNotExported is returned when a subpath is not exported by the package.
var ErrNotExported = errors.New("not exported by package.json")

// DefaultConditions is the export condition priority used when bundling for
// browsers.
var DefaultConditions = []string{"browser", "module", "import", "default"}

// PackageJSON represents the subset of package.json used for bundling.
type PackageJSON struct {
	Name    string `json:"name"`
	Version string `json:"version"`
	Main    string `json:"main,omitempty"`
	Module  string `json:"module,omitempty"`
	Exports any    `json:"exports,omitempty"`
}

// Parse parses package.json data.
func Parse(data []byte) (*PackageJSON, error) {
	var pkg PackageJSON
	if err := json.Unmarshal(data, &pkg); err != nil {
		return nil, err
	}
	return &pkg, nil
}

// ParseFile parses a package.json file.
func ParseFile(fsys fs.FileSystem, path string) (*PackageJSON, error) {
	data, err := fsys.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// EntryPoint returns the package's main entry relative to the package root,
// preferring exports["."], then "module", then "main". Returns "" when the
// package declares none of them.
func (pkg *PackageJSON) EntryPoint(conditions []string) string {
	if resolved, err := pkg.ResolveExport(".", conditions); err == nil {
		return resolved
	}
	if pkg.Module != "" {
		return trimDotSlash(pkg.Module)
	}
	return trimDotSlash(pkg.Main)
}

// ResolveExport resolves a subpath ("." or "./sub") through the exports
// field, falling back to "module"/"main" for "." when exports is absent.
// The result has no leading "./". A nil conditions slice uses
// DefaultConditions.
func (pkg *PackageJSON) ResolveExport(subpath string, conditions []string) (string, error) {
	if len(conditions) == 0 {
		conditions = DefaultConditions
	}

	switch exports := pkg.Exports.(type) {
	case nil:
		if subpath != "." {
			return "", ErrNotExported
		}
		if pkg.Module != "" {
			return trimDotSlash(pkg.Module), nil
		}
		if pkg.Main != "" {
			return trimDotSlash(pkg.Main), nil
		}
		return "", ErrNotExported
	case string:
		if subpath == "." {
			return trimDotSlash(exports), nil
		}
		return "", ErrNotExported
	case map[string]any:
		if !hasSubpaths(exports) {
			// Condition-only export for the main entry
			if subpath == "." {
				return resolveConditions(exports, conditions)
			}
			return "", ErrNotExported
		}
		if value, ok := exports[subpath]; ok {
			return resolveExportValue(value, conditions)
		}
		return resolveWildcard(exports, subpath, conditions)
	default:
		return "", ErrNotExported
	}
}

func hasSubpaths(exports map[string]any) bool {
	for key := range exports {
		if strings.HasPrefix(key, ".") {
			return true
		}
	}
	return false
}

// resolveWildcard matches subpath against "./prefix/*" patterns and
// substitutes the matched part into the target.
func resolveWildcard(exports map[string]any, subpath string, conditions []string) (string, error) {
	var best string
	for pattern := range exports {
		prefix, suffix, ok := strings.Cut(pattern, "*")
		if !ok || !strings.HasPrefix(subpath, prefix) || !strings.HasSuffix(subpath, suffix) {
			continue
		}
		if len(subpath) < len(prefix)+len(suffix) {
			continue
		}
		// The longest pattern wins; ties go to the lexically smaller one.
		if len(pattern) > len(best) || len(pattern) == len(best) && pattern < best {
			best = pattern
		}
	}
	if best == "" {
		return "", ErrNotExported
	}

	target, err := resolveExportValue(exports[best], conditions)
	if err != nil {
		return "", err
	}
	prefix, suffix, _ := strings.Cut(best, "*")
	match := subpath[len(prefix) : len(subpath)-len(suffix)]
	return strings.ReplaceAll(target, "*", match), nil
}

func resolveExportValue(value any, conditions []string) (string, error) {
	switch v := value.(type) {
	case string:
		return trimDotSlash(v), nil
	case map[string]any:
		return resolveConditions(v, conditions)
	case []any:
		// Fallback array: first entry that resolves wins
		for _, item := range v {
			if resolved, err := resolveExportValue(item, conditions); err == nil {
				return resolved, nil
			}
		}
	}
	return "", ErrNotExported
}

// resolveConditions tries each condition in priority order, recursing into
// nested condition maps.
func resolveConditions(conds map[string]any, conditions []string) (string, error) {
	for _, cond := range conditions {
		if value, ok := conds[cond]; ok {
			if resolved, err := resolveExportValue(value, conditions); err == nil {
				return resolved, nil
			}
		}
	}
	return "", ErrNotExported
}

func trimDotSlash(path string) string {
	return strings.TrimPrefix(path, "./")
}
