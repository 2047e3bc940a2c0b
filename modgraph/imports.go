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
	"fmt"
	"strings"

	ts "github.com/tree-sitter/go-tree-sitter"
)

// Import is a single dependency reference found in a module's source.
type Import struct {
	Specifier string  // e.g. "./foo.js", "lit"
	Kind      DepKind // Static, Dynamic or Worker
	Line      int     // 1-indexed line of the specifier
}

// workerConstructors are the constructor names that start a worker context.
var workerConstructors = map[string]bool{
	"Worker":       true,
	"SharedWorker": true,
}

// ExtractImports parses JavaScript/TypeScript content and returns its
// imports in source order. Type-only imports and re-exports are skipped
// because they are erased before bundling.
func ExtractImports(content []byte, grammar Grammar) ([]Import, error) {
	if grammar == GrammarHTML {
		return nil, fmt.Errorf("cannot extract imports with the %s grammar", grammar)
	}

	qm, err := GetQueryManager()
	if err != nil {
		return nil, err
	}

	parser := getParser(grammar)
	defer putParser(grammar, parser)

	tree := parser.Parse(content, nil)
	if tree == nil {
		return nil, fmt.Errorf("failed to parse content")
	}
	defer tree.Close()

	query, err := qm.Query(grammar, "imports")
	if err != nil {
		return nil, err
	}

	cursor := ts.NewQueryCursor()
	defer cursor.Close()

	var imports []Import
	matches := cursor.Matches(query, tree.RootNode(), content)
	captureNames := query.CaptureNames()

	for {
		match := matches.Next()
		if match == nil {
			break
		}

		var (
			spec      string
			line      int
			kind      DepKind
			statement string
			ctor      string
			urlCtor   string
		)
		for _, capture := range match.Captures {
			text := capture.Node.Utf8Text(content)
			switch captureNames[capture.Index] {
			case "import.spec", "reexport.spec":
				spec, kind = text, Static
				line = int(capture.Node.StartPosition().Row) + 1
			case "dynamicImport.spec":
				spec, kind = text, Dynamic
				line = int(capture.Node.StartPosition().Row) + 1
			case "worker.spec":
				spec, kind = text, Worker
				line = int(capture.Node.StartPosition().Row) + 1
			case "import.statement", "reexport.statement":
				statement = text
			case "worker.ctor":
				ctor = text
			case "worker.url":
				urlCtor = text
			}
		}

		if spec == "" {
			continue
		}
		if isTypeOnly(statement) {
			continue
		}
		if kind == Worker {
			if !workerConstructors[ctor] {
				continue
			}
			if urlCtor != "" && urlCtor != "URL" {
				continue
			}
		}

		imports = append(imports, Import{Specifier: spec, Kind: kind, Line: line})
	}

	return imports, nil
}

func isTypeOnly(statement string) bool {
	return strings.HasPrefix(statement, "import type ") ||
		strings.HasPrefix(statement, "export type ")
}
