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
package build

import (
	"encoding/json"
	"sort"
	"sync"

	"mpbuild.dev/core/asset"
)

// DependencySet collects request paths discovered by a JSONCallback,
// deduplicating across concurrent contributions.
type DependencySet struct {
	mu    sync.Mutex
	paths map[string]bool
}

// NewDependencySet creates an empty DependencySet.
func NewDependencySet() *DependencySet {
	return &DependencySet{paths: make(map[string]bool)}
}

// Add records a dependency request path.
func (d *DependencySet) Add(path string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.paths[path] = true
}

// Paths returns the collected paths in sorted order.
func (d *DependencySet) Paths() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]string, 0, len(d.paths))
	for p := range d.paths {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// JSONCallback inspects a decoded manifest document and populates deps
// with additional request paths to pull into the dependency graph.
type JSONCallback func(deps *DependencySet, manifest map[string]any, ctx *asset.Asset) error

// pageCompanions are the sibling files a mini-program page or component
// always carries: a script and a config document. WXML/WXSS siblings are
// optional (a page may be pure logic, or inherit styling), so they aren't
// assumed here - asserting their presence would turn a missing stylesheet
// into a build-aborting ModuleNotFound for what is normally a fine setup.
var pageCompanions = []string{".js", ".json"}

// rootRelative prefixes a mini-program path with "/" if it isn't already
// root-relative or explicitly relative - "pages/home/home" in app.json's
// "pages" array and "components/widget/widget" in usingComponents are
// both conventionally resolved from the project's source root, which the
// resolver only does for requests starting with "/" (spec.md §4.3).
func rootRelative(path string) string {
	if path == "" || path[0] == '/' || path[0] == '.' {
		return path
	}
	return "/" + path
}

// collectAppJSON is the default "collect-app-json" callback: every string
// in the root config's "pages" array names a page whose companion files
// become dependencies of app.json.
func collectAppJSON(deps *DependencySet, manifest map[string]any, ctx *asset.Asset) error {
	pages, _ := manifest["pages"].([]any)
	for _, p := range pages {
		path, ok := p.(string)
		if !ok {
			continue
		}
		for _, ext := range pageCompanions {
			deps.Add(rootRelative(path) + ext)
		}
	}
	return nil
}

// collectPageJSON is the default "collect-page-json" callback: every
// value in a page config's "usingComponents" map names a custom element
// whose companion files become dependencies of that page's config.
func collectPageJSON(deps *DependencySet, manifest map[string]any, ctx *asset.Asset) error {
	comps, _ := manifest["usingComponents"].(map[string]any)
	for _, v := range comps {
		path, ok := v.(string)
		if !ok {
			continue
		}
		for _, ext := range pageCompanions {
			deps.Add(rootRelative(path) + ext)
		}
	}
	return nil
}

// jsonHooks returns the default capability table for .json assets: parse
// the document, dispatch to collectAppJSON for app.json or
// collectPageJSON for anything else, and pass content through unchanged.
func jsonHooks() asset.Hooks {
	return asset.Hooks{
		CollectDependencies: func(a *asset.Asset) ([]string, error) {
			var manifest map[string]any
			if err := json.Unmarshal(a.Contents, &manifest); err != nil {
				return nil, err
			}
			callback := collectPageJSON
			if a.Basename == "app.json" {
				callback = collectAppJSON
			}
			deps := NewDependencySet()
			if err := callback(deps, manifest, a); err != nil {
				return nil, err
			}
			return deps.Paths(), nil
		},
		Generate: func(a *asset.Asset) ([]asset.Generated, error) {
			return []asset.Generated{{Code: string(a.Contents), Ext: ".json"}}, nil
		},
	}
}
