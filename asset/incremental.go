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
package asset

// Invalidate clears an Asset's loaded state - contents, AST, dependency
// edges - while retaining its identity (Name, ID, DistPath override), so
// a subsequent Process re-derives everything from the current file on
// disk. The Asset's stale dependency edges are dropped from the
// pipeline's graph first, since getDependencies only ever appends.
func (a *Asset) Invalidate() {
	a.pipeline.graph.ClearDependencies(a.Name)
	a.Contents = nil
	a.AST = nil
	a.Dependencies = nil
	a.Ignore = false
}

// Rebuild invalidates every Asset in changed plus every transitive
// dependent found by walking the pipeline's dependency graph, and
// returns the full set of paths a caller needs to re-process, changed
// paths included. Unknown paths (never seen by NewAsset) are ignored:
// they have nothing cached to invalidate.
func (p *Pipeline) Rebuild(changed []string) []string {
	affected := make(map[string]bool, len(changed))
	var order []string

	var mark func(path string)
	mark = func(path string) {
		if affected[path] {
			return
		}
		affected[path] = true
		order = append(order, path)
		for _, dependent := range p.graph.Dependents(path) {
			mark(dependent)
		}
	}
	for _, path := range changed {
		mark(path)
	}

	for _, path := range order {
		if a, ok := p.assets[path]; ok {
			a.Invalidate()
		}
	}
	return order
}
