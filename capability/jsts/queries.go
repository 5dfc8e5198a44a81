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

// Package jsts is the default dependency-collection capability for
// .js/.ts/.wxs assets: a tree-sitter query over the TypeScript grammar
// (a superset of JavaScript) extracts static imports, re-exports, and
// dynamic import() calls.
package jsts

import (
	"embed"
	"fmt"
	"sync"

	ts "github.com/tree-sitter/go-tree-sitter"
	tsTypescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"
)

//go:embed queries/typescript/*.scm
var queryFiles embed.FS

var language = ts.NewLanguage(tsTypescript.LanguageTypescript())

var parserPool = sync.Pool{
	New: func() any {
		parser := ts.NewParser()
		if err := parser.SetLanguage(language); err != nil {
			panic("jsts: failed to set typescript language: " + err.Error())
		}
		return parser
	},
}

func getParser() *ts.Parser {
	return parserPool.Get().(*ts.Parser)
}

func putParser(p *ts.Parser) {
	p.Reset()
	parserPool.Put(p)
}

var (
	importsQuery     *ts.Query
	importsQueryOnce sync.Once
	importsQueryErr  error
)

// getImportsQuery compiles the imports.scm query once and caches it; the
// query text never changes at runtime so there is nothing to invalidate.
func getImportsQuery() (*ts.Query, error) {
	importsQueryOnce.Do(func() {
		data, err := queryFiles.ReadFile("queries/typescript/imports.scm")
		if err != nil {
			importsQueryErr = fmt.Errorf("jsts: read imports.scm: %w", err)
			return
		}
		importsQuery, importsQueryErr = ts.NewQuery(language, string(data))
		if importsQueryErr != nil {
			importsQueryErr = fmt.Errorf("jsts: parse imports.scm: %w", importsQueryErr)
		}
	})
	return importsQuery, importsQueryErr
}

// Import is one import/export/dynamic-import specifier found in a file.
type Import struct {
	Specifier string
	Dynamic   bool
	Line      int // 1-indexed
}

// ExtractImports parses content as TypeScript/JavaScript source and
// returns every static import specifier, re-export specifier, and
// dynamic import() argument.
func ExtractImports(content []byte) ([]Import, error) {
	query, err := getImportsQuery()
	if err != nil {
		return nil, err
	}

	parser := getParser()
	defer putParser(parser)

	tree := parser.Parse(content, nil)
	if tree == nil {
		return nil, fmt.Errorf("jsts: failed to parse content")
	}
	defer tree.Close()

	cursor := ts.NewQueryCursor()
	defer cursor.Close()

	captureNames := query.CaptureNames()
	var imports []Import

	matches := cursor.Matches(query, tree.RootNode(), content)
	for {
		match := matches.Next()
		if match == nil {
			break
		}
		for _, capture := range match.Captures {
			name := captureNames[capture.Index]
			text := capture.Node.Utf8Text(content)
			line := int(capture.Node.StartPosition().Row) + 1

			switch name {
			case "import.spec", "reexport.spec":
				imports = append(imports, Import{Specifier: text, Line: line})
			case "dynamicImport.spec":
				imports = append(imports, Import{Specifier: text, Dynamic: true, Line: line})
			}
		}
	}

	return imports, nil
}
