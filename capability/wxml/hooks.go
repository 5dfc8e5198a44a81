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

// Package wxml is the default dependency-collection capability for WXML
// template assets. WXML is HTML-shaped, so it parses with the same
// tolerant tree walk used for ordinary HTML; the tags and attributes it
// looks for are mini-program-specific rather than browser-specific.
package wxml

import (
	"bytes"

	"golang.org/x/net/html"

	"mpbuild.dev/core/asset"
)

// referenceAttrs maps an element name to the attribute that carries a
// dependency path on it. Keyed by "img" rather than "image": the HTML5
// tree-construction algorithm x/net/html implements rewrites a start tag
// named "image" to "img" before the element node is ever created (a
// quirk inherited from early browsers), so that's the name that actually
// reaches the tree walk below.
var referenceAttrs = map[string]string{
	"import":  "src",
	"include": "src",
	"img":     "src",
	"audio":   "src",
	"video":   "src",
	"wxs":     "src",
}

// Hooks returns the default capability table for .wxml assets.
func Hooks() asset.Hooks {
	return asset.Hooks{
		CollectDependencies: collectDependencies,
		Generate:            generate,
	}
}

func collectDependencies(a *asset.Asset) ([]string, error) {
	doc, err := html.Parse(bytes.NewReader(a.Contents))
	if err != nil {
		return nil, err
	}
	var refs []string
	walk(doc, &refs)
	return refs, nil
}

func walk(n *html.Node, refs *[]string) {
	if n.Type == html.ElementNode {
		if attrName, ok := referenceAttrs[n.Data]; ok {
			for _, attr := range n.Attr {
				if attr.Key == attrName && attr.Val != "" {
					*refs = append(*refs, attr.Val)
				}
			}
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, refs)
	}
}

// generate passes WXML content through unchanged.
func generate(a *asset.Asset) ([]asset.Generated, error) {
	return []asset.Generated{{Code: string(a.Contents), Ext: ".wxml"}}, nil
}
