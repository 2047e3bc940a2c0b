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
	"bytes"
	"strings"

	ts "github.com/tree-sitter/go-tree-sitter"
)

// ScriptTag represents a <script> tag found in HTML.
type ScriptTag struct {
	Type string // The type attribute (e.g., "module")
	Src  string // The src attribute (external script)
}

// ExtractScripts parses HTML content and returns its script tags in
// document order.
func ExtractScripts(content []byte) ([]ScriptTag, error) {
	qm, err := GetQueryManager()
	if err != nil {
		return nil, err
	}

	parser := getParser(GrammarHTML)
	defer putParser(GrammarHTML, parser)

	tree := parser.Parse(content, nil)
	defer tree.Close()

	query, err := qm.Query(GrammarHTML, "scriptTags")
	if err != nil {
		return nil, err
	}

	cursor := ts.NewQueryCursor()
	defer cursor.Close()

	var scripts []ScriptTag
	matches := cursor.Matches(query, tree.RootNode(), content)
	captureNames := query.CaptureNames()

	for {
		match := matches.Next()
		if match == nil {
			break
		}
		for _, capture := range match.Captures {
			if captureNames[capture.Index] != "tag" {
				continue
			}
			scripts = append(scripts, readScriptAttributes(&capture.Node, content))
		}
	}

	return scripts, nil
}

func readScriptAttributes(tag *ts.Node, content []byte) ScriptTag {
	attrs := readAttributes(tag, content)
	return ScriptTag{Type: attrs["type"], Src: attrs["src"]}
}

// readAttributes returns the attributes of a start tag keyed by lowercase
// name. Attributes without a value map to "".
func readAttributes(tag *ts.Node, content []byte) map[string]string {
	attrs := make(map[string]string)
	for i := range tag.NamedChildCount() {
		attr := tag.NamedChild(i)
		if attr == nil || attr.Kind() != "attribute" {
			continue
		}
		var name, value string
		for j := range attr.NamedChildCount() {
			child := attr.NamedChild(j)
			switch child.Kind() {
			case "attribute_name":
				name = child.Utf8Text(content)
			case "attribute_value":
				value = child.Utf8Text(content)
			case "quoted_attribute_value":
				value = strings.Trim(child.Utf8Text(content), `"'`)
			}
		}
		if name != "" {
			attrs[strings.ToLower(name)] = value
		}
	}
	return attrs
}

// ModuleScriptSources returns the src of every external module script.
func ModuleScriptSources(content []byte) ([]string, error) {
	scripts, err := ExtractScripts(content)
	if err != nil {
		return nil, err
	}
	var sources []string
	for _, s := range scripts {
		if s.Type == "module" && s.Src != "" {
			sources = append(sources, s.Src)
		}
	}
	return sources, nil
}

// PreloadMarker is the attribute that marks the modulepreload links spezza
// writes, so a later run replaces them and leaves hand-written links alone.
const PreloadMarker = "data-spezza"

// PreloadSite locates where modulepreload links belong in an HTML document.
type PreloadSite struct {
	// Offset is the byte offset just past the <head> start tag, or -1 when
	// the document has no <head>.
	Offset int
	// Indent starts each inserted line: the <head> line's indentation plus
	// two spaces.
	Indent string
	// Injected holds the byte ranges of marked links, each extended back
	// over its indentation and the preceding newline.
	Injected [][2]int
}

// FindPreloadSite parses an HTML document and returns where its managed
// modulepreload links are and where new ones go.
func FindPreloadSite(content []byte) (PreloadSite, error) {
	site := PreloadSite{Offset: -1}

	qm, err := GetQueryManager()
	if err != nil {
		return site, err
	}
	query, err := qm.Query(GrammarHTML, "headTags")
	if err != nil {
		return site, err
	}

	parser := getParser(GrammarHTML)
	defer putParser(GrammarHTML, parser)

	tree := parser.Parse(content, nil)
	defer tree.Close()

	cursor := ts.NewQueryCursor()
	defer cursor.Close()

	matches := cursor.Matches(query, tree.RootNode(), content)
	captureNames := query.CaptureNames()
	for {
		match := matches.Next()
		if match == nil {
			break
		}
		var name string
		var tag, element *ts.Node
		for _, capture := range match.Captures {
			switch captureNames[capture.Index] {
			case "name":
				name = strings.ToLower(capture.Node.Utf8Text(content))
			case "tag":
				tag = &capture.Node
			case "element":
				element = &capture.Node
			}
		}
		if tag == nil || element == nil {
			continue
		}

		switch name {
		case "head":
			if site.Offset < 0 {
				site.Offset = int(tag.EndByte())
				site.Indent = lineIndent(content, int(tag.StartByte())) + "  "
			}
		case "link":
			attrs := readAttributes(tag, content)
			if _, marked := attrs[PreloadMarker]; marked && attrs["rel"] == "modulepreload" {
				start := wholeLineStart(content, int(element.StartByte()))
				site.Injected = append(site.Injected, [2]int{start, int(element.EndByte())})
			}
		}
	}
	return site, nil
}

// lineIndent returns the whitespace that starts the line containing offset.
func lineIndent(content []byte, offset int) string {
	start := bytes.LastIndexByte(content[:offset], '\n') + 1
	end := start
	for end < offset && (content[end] == ' ' || content[end] == '\t') {
		end++
	}
	return string(content[start:end])
}

// wholeLineStart moves offset back over indentation and one newline when
// the element starts its own line.
func wholeLineStart(content []byte, offset int) int {
	start := offset
	for start > 0 && (content[start-1] == ' ' || content[start-1] == '\t') {
		start--
	}
	if start > 0 && content[start-1] == '\n' {
		start--
		if start > 0 && content[start-1] == '\r' {
			start--
		}
		return start
	}
	return offset
}
