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

// Package distpath maps a real source path to its output path, applying
// alias-dist rules and the node_modules → npm/ convention.
package distpath

import (
	"path/filepath"
	"strings"

	"mpbuild.dev/core/config"
	"mpbuild.dev/core/internal/cache"
	"mpbuild.dev/core/pathutil"
)

const npmDist = "npm"

// Mapper computes dist paths for a fixed set of options, memoizing
// results process-wide keyed by sourcePath.
type Mapper struct {
	opts  config.Options
	cache *cache.Cache[string]
}

// New creates a Mapper. opts is normalized before use.
func New(opts config.Options) (*Mapper, error) {
	norm, err := opts.Normalize()
	if err != nil {
		return nil, err
	}
	return &Mapper{opts: norm, cache: cache.New[string]()}, nil
}

// GenerateDistPath maps sourcePath to its output path under OutDir. ext,
// when non-empty, reconciles the final extension (e.g. ".es6" -> ".js").
func (m *Mapper) GenerateDistPath(sourcePath, ext string) (string, error) {
	return m.cache.GetOrLoad(sourcePath, func() (string, error) {
		return pathutil.ReconcileExt(m.generate(sourcePath), ext), nil
	})
}

// generate applies the four ordered rules; the first that fires wins.
func (m *Mapper) generate(sourcePath string) string {
	if rel, ok := relUnder(sourcePath, m.opts.SourceDir); ok {
		return filepath.Join(m.opts.OutDir, rel)
	}

	for _, entry := range m.opts.Alias {
		aliasRoot := entry.Value.Path
		if !filepath.IsAbs(aliasRoot) {
			aliasRoot = filepath.Join(m.opts.RootDir, aliasRoot)
		}
		rel, ok := relUnder(sourcePath, aliasRoot)
		if !ok {
			continue
		}
		dist := entry.Value.Dist
		if dist == "" {
			dist = npmDist
		}
		return filepath.Join(m.opts.OutDir, dist, entry.Key, rel)
	}

	if rel, ok := npmConventionRel(sourcePath); ok {
		return filepath.Join(m.opts.OutDir, npmDist, rel)
	}

	rel, err := filepath.Rel(m.opts.SourceDir, sourcePath)
	if err != nil {
		rel = sourcePath
	}
	return filepath.Join(m.opts.OutDir, rel)
}

// relUnder reports whether target lies under root, returning the
// relative path from root when it does.
func relUnder(target, root string) (string, bool) {
	rel, err := filepath.Rel(root, target)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return rel, true
}

// npmConventionRel reports whether sourcePath contains a "node_modules"
// or "npm" path segment, returning everything after the last such
// segment.
func npmConventionRel(sourcePath string) (string, bool) {
	unix := pathutil.ToUnix(sourcePath)
	segs := strings.Split(unix, "/")
	lastIdx := -1
	for i, s := range segs {
		if s == "node_modules" || s == "npm" {
			lastIdx = i
		}
	}
	if lastIdx == -1 || lastIdx == len(segs)-1 {
		return "", false
	}
	return filepath.Join(segs[lastIdx+1:]...), true
}

// Invalidate drops a memoized result, letting the next call re-derive it.
func (m *Mapper) Invalidate(sourcePath string) {
	m.cache.Invalidate(sourcePath)
}
