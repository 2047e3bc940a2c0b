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
	"embed"
	"fmt"
	"path"
	"sync"

	ts "github.com/tree-sitter/go-tree-sitter"
	tsHtml "github.com/tree-sitter/tree-sitter-html/bindings/go"
	tsTypescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"
)

//go:embed queries/*/*.scm
var queryFiles embed.FS

// Grammar names a tree-sitter language known to the query manager.
type Grammar string

const (
	GrammarHTML       Grammar = "html"
	GrammarTypeScript Grammar = "typescript"
	GrammarTSX        Grammar = "tsx"
)

// languages holds pre-initialized tree-sitter language grammars.
var languages = map[Grammar]*ts.Language{
	GrammarHTML:       ts.NewLanguage(tsHtml.Language()),
	GrammarTypeScript: ts.NewLanguage(tsTypescript.LanguageTypescript()),
	GrammarTSX:        ts.NewLanguage(tsTypescript.LanguageTSX()),
}

// queryDirs maps each grammar to the directory its queries live in. TSX
// shares the TypeScript queries since the node types are the same.
var queryDirs = map[Grammar]string{
	GrammarHTML:       "html",
	GrammarTypeScript: "typescript",
	GrammarTSX:        "typescript",
}

// Parser pools for reuse, one per grammar.
var parserPools = func() map[Grammar]*sync.Pool {
	pools := make(map[Grammar]*sync.Pool, len(languages))
	for grammar, lang := range languages {
		pools[grammar] = &sync.Pool{
			New: func() any {
				parser := ts.NewParser()
				if err := parser.SetLanguage(lang); err != nil {
					panic("failed to set " + string(grammar) + " language: " + err.Error())
				}
				return parser
			},
		}
	}
	return pools
}()

func getParser(grammar Grammar) *ts.Parser {
	return parserPools[grammar].Get().(*ts.Parser)
}

func putParser(grammar Grammar, p *ts.Parser) {
	p.Reset()
	parserPools[grammar].Put(p)
}

// QueryManager manages compiled tree-sitter queries per grammar.
type QueryManager struct {
	mu      sync.Mutex
	closed  bool
	queries map[Grammar]map[string]*ts.Query
}

// NewQueryManager compiles the named queries for each grammar.
func NewQueryManager(names map[Grammar][]string) (*QueryManager, error) {
	qm := &QueryManager{queries: make(map[Grammar]map[string]*ts.Query)}
	for grammar, queryNames := range names {
		for _, name := range queryNames {
			if err := qm.loadQuery(grammar, name); err != nil {
				qm.Close()
				return nil, err
			}
		}
	}
	return qm, nil
}

func (qm *QueryManager) loadQuery(grammar Grammar, name string) error {
	lang, ok := languages[grammar]
	if !ok {
		return fmt.Errorf("unknown language: %s", grammar)
	}

	queryPath := path.Join("queries", queryDirs[grammar], name+".scm")
	data, err := queryFiles.ReadFile(queryPath)
	if err != nil {
		return fmt.Errorf("failed to read query %s: %w", queryPath, err)
	}

	query, qerr := ts.NewQuery(lang, string(data))
	if qerr != nil {
		return fmt.Errorf("failed to parse query %s for %s: %w", name, grammar, qerr)
	}

	if qm.queries[grammar] == nil {
		qm.queries[grammar] = make(map[string]*ts.Query)
	}
	qm.queries[grammar][name] = query
	return nil
}

// Close releases all query resources. Safe to call multiple times.
func (qm *QueryManager) Close() {
	qm.mu.Lock()
	if qm.closed {
		qm.mu.Unlock()
		return
	}
	qm.closed = true
	queries := qm.queries
	qm.queries = nil
	qm.mu.Unlock()

	for _, byName := range queries {
		for _, q := range byName {
			q.Close()
		}
	}
}

// Query returns a compiled query by grammar and name.
func (qm *QueryManager) Query(grammar Grammar, name string) (*ts.Query, error) {
	q, ok := qm.queries[grammar][name]
	if !ok {
		return nil, fmt.Errorf("query not found: %s/%s", grammar, name)
	}
	return q, nil
}

var (
	globalQM     *QueryManager
	globalQMOnce sync.Once
	globalQMErr  error
)

// GetQueryManager returns the process-wide query manager.
func GetQueryManager() (*QueryManager, error) {
	globalQMOnce.Do(func() {
		globalQM, globalQMErr = NewQueryManager(map[Grammar][]string{
			GrammarHTML:       {"scriptTags", "headTags"},
			GrammarTypeScript: {"imports"},
			GrammarTSX:        {"imports"},
		})
	})
	return globalQM, globalQMErr
}

// GrammarFor picks the grammar used to parse a module path. Plain
// JavaScript parses with the TypeScript grammar; JSX needs the TSX one.
func GrammarFor(modulePath string) Grammar {
	switch path.Ext(modulePath) {
	case ".tsx", ".jsx":
		return GrammarTSX
	case ".html", ".htm":
		return GrammarHTML
	default:
		return GrammarTypeScript
	}
}
