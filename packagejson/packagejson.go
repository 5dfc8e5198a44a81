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

// Package packagejson reads and caches package.json manifests, exposing
// the fields the resolver consults: main, module, browser, source,
// alias, and miniprogram.
package packagejson

import (
	"encoding/json"
	"path/filepath"
	"strings"

	"mpbuild.dev/core/fs"
	"mpbuild.dev/core/internal/cache"
)

// DefaultConditions is the export-condition priority used by the exports
// fallback when a package has no main/module/source/browser entry.
var DefaultConditions = []string{"miniprogram", "browser", "import", "require", "default"}

// PackageJSON is the subset of package.json fields the resolver consults,
// plus bookkeeping for where it was read from.
type PackageJSON struct {
	PkgFile string // absolute path to the package.json file
	PkgDir  string // absolute directory containing it

	Name         string                     `json:"name"`
	Main         string                     `json:"main,omitempty"`
	Module       string                     `json:"module,omitempty"`
	Source       json.RawMessage            `json:"source,omitempty"`
	Browser      json.RawMessage            `json:"browser,omitempty"`
	Alias        map[string]json.RawMessage `json:"alias,omitempty"`
	Miniprogram  string                     `json:"miniprogram,omitempty"`
	Dependencies map[string]string          `json:"dependencies,omitempty"`
	DevDeps      map[string]string          `json:"devDependencies,omitempty"`
	Exports      any                        `json:"exports,omitempty"`

	// Raw holds the full decoded document, for callers (getConfig's
	// packageKey lookup) that need a top-level key PackageJSON doesn't
	// otherwise model.
	Raw json.RawMessage `json:"-"`
}

// AliasTarget is an alias map value: either a replacement specifier, or
// "elided" when the config literal is `false` (the file is intentionally
// dropped from the dependency graph).
type AliasTarget struct {
	Path   string
	Elided bool
}

// Parse parses raw package.json bytes.
func Parse(data []byte) (*PackageJSON, error) {
	var pkg PackageJSON
	if err := json.Unmarshal(data, &pkg); err != nil {
		return nil, err
	}
	pkg.Raw = append(json.RawMessage(nil), data...)
	return &pkg, nil
}

// PackageKeyValue looks up an arbitrary top-level package.json key not
// otherwise modeled by PackageJSON's typed fields - e.g. a plugin's own
// config key, consulted by the asset pipeline's getConfig before it
// falls back to walking upward for a dedicated config file.
func (pkg *PackageJSON) PackageKeyValue(key string) (any, bool) {
	if len(pkg.Raw) == 0 {
		return nil, false
	}
	var m map[string]json.RawMessage
	if json.Unmarshal(pkg.Raw, &m) != nil {
		return nil, false
	}
	raw, ok := m[key]
	if !ok {
		return nil, false
	}
	var v any
	if json.Unmarshal(raw, &v) != nil {
		return nil, false
	}
	return v, true
}

// Reader reads and memoizes package.json records by absolute file path.
type Reader struct {
	fsys  fs.FileSystem
	cache *cache.Cache[*PackageJSON]
}

// NewReader creates a Reader backed by fsys with an empty cache.
func NewReader(fsys fs.FileSystem) *Reader {
	return &Reader{fsys: fsys, cache: cache.New[*PackageJSON]()}
}

// Read returns the package record for dir/package.json, reading and
// parsing it at most once per build.
func (r *Reader) Read(dir string) (*PackageJSON, error) {
	pkgFile := filepath.Join(dir, "package.json")
	return r.cache.GetOrLoad(pkgFile, func() (*PackageJSON, error) {
		data, err := r.fsys.ReadFile(pkgFile)
		if err != nil {
			return nil, err
		}
		pkg, err := Parse(data)
		if err != nil {
			return nil, err
		}
		pkg.PkgFile = pkgFile
		pkg.PkgDir = dir

		// A package reached through a symlink is a linked source checkout;
		// retain its "source" field. Otherwise it's a compiled artifact
		// and a stale "source" field is stripped.
		if len(pkg.Source) > 0 {
			if real, rerr := r.fsys.Realpath(pkgFile); rerr == nil && real == pkgFile {
				pkg.Source = nil
			}
		}

		return pkg, nil
	})
}

// ReadSync is Read; Go has no async/sync split, but the name is kept for
// parity with the two entry points the resolver's host tooling expects.
func (r *Reader) ReadSync(dir string) (*PackageJSON, error) {
	return r.Read(dir)
}

// Invalidate drops a cached package record, e.g. after a file-watcher
// reports dir/package.json changed.
func (r *Reader) Invalidate(dir string) {
	r.cache.Invalidate(filepath.Join(dir, "package.json"))
}

// FindPackage walks parents upward from dir and returns the first package
// record found, stopping at (not crossing) a node_modules boundary.
func (r *Reader) FindPackage(dir string) (*PackageJSON, bool) {
	cur := dir
	for {
		if pkg, err := r.Read(cur); err == nil {
			return pkg, true
		}
		if filepath.Base(cur) == "node_modules" {
			return nil, false
		}
		parent := filepath.Dir(cur)
		if parent == cur {
			return nil, false
		}
		cur = parent
	}
}

// GetBrowserField returns pkg.browser when target == "browser" (the
// default), else ("", false). If the browser field is an object keyed by
// the package's own name, it is dereferenced once.
func GetBrowserField(pkg *PackageJSON, target string) (string, bool) {
	if target != "" && target != "browser" {
		return "", false
	}
	if len(pkg.Browser) == 0 {
		return "", false
	}
	var s string
	if json.Unmarshal(pkg.Browser, &s) == nil {
		return s, true
	}
	var m map[string]json.RawMessage
	if json.Unmarshal(pkg.Browser, &m) == nil {
		if raw, ok := m[pkg.Name]; ok {
			if json.Unmarshal(raw, &s) == nil {
				return s, true
			}
		}
	}
	return "", false
}

// EntryOptions configures GetPackageEntries.
type EntryOptions struct {
	// Target gates whether the browser field participates; "browser" (or
	// empty, matching GetBrowserField's default) enables it.
	Target string
	// Conditions is the export-condition priority for the supplemental
	// exports fallback. Empty means DefaultConditions.
	Conditions []string
}

// GetPackageEntries returns the ordered candidate entry paths
// [source, browser, main, module], each resolved against pkg.PkgDir,
// dropping fields that aren't strings and defaulting "."/"./""  to
// "index". If none of those four fields yields a usable string, one more
// candidate is appended from the package's "exports" map (subpath ".")
// resolved against opts.Conditions - a fallback for packages that ship
// only an exports map.
func GetPackageEntries(pkg *PackageJSON, opts EntryOptions) []string {
	var raw []string
	if s, ok := sourceString(pkg); ok {
		raw = append(raw, s)
	}
	if s, ok := GetBrowserField(pkg, opts.Target); ok {
		raw = append(raw, s)
	}
	if pkg.Main != "" {
		raw = append(raw, pkg.Main)
	}
	if pkg.Module != "" {
		raw = append(raw, pkg.Module)
	}

	var entries []string
	for _, s := range raw {
		entries = append(entries, resolveEntryPath(pkg.PkgDir, s))
	}

	if len(entries) == 0 {
		if s, ok := exportsFallback(pkg, opts.Conditions); ok {
			entries = append(entries, resolveEntryPath(pkg.PkgDir, s))
		}
	}

	return entries
}

// AliasSources returns the package-level alias maps to consult, in the
// order the resolver tries them: pkg.source (object form), pkg.alias, and
// the browser field (object form, gated by target like GetBrowserField).
func AliasSources(pkg *PackageJSON, target string) []map[string]AliasTarget {
	var out []map[string]AliasTarget
	if m, ok := sourceAliasMap(pkg); ok {
		out = append(out, toAliasMap(m))
	}
	if len(pkg.Alias) > 0 {
		out = append(out, toAliasMap(pkg.Alias))
	}
	if m, ok := browserAliasMap(pkg, target); ok {
		out = append(out, toAliasMap(m))
	}
	return out
}

func sourceString(pkg *PackageJSON) (string, bool) {
	if len(pkg.Source) == 0 {
		return "", false
	}
	var s string
	if json.Unmarshal(pkg.Source, &s) == nil {
		return s, true
	}
	return "", false
}

func sourceAliasMap(pkg *PackageJSON) (map[string]json.RawMessage, bool) {
	if len(pkg.Source) == 0 {
		return nil, false
	}
	var m map[string]json.RawMessage
	if json.Unmarshal(pkg.Source, &m) == nil {
		return m, true
	}
	return nil, false
}

func browserAliasMap(pkg *PackageJSON, target string) (map[string]json.RawMessage, bool) {
	if target != "" && target != "browser" {
		return nil, false
	}
	if len(pkg.Browser) == 0 {
		return nil, false
	}
	var m map[string]json.RawMessage
	if json.Unmarshal(pkg.Browser, &m) == nil {
		return m, true
	}
	return nil, false
}

func toAliasMap(raw map[string]json.RawMessage) map[string]AliasTarget {
	out := make(map[string]AliasTarget, len(raw))
	for k, v := range raw {
		var s string
		if json.Unmarshal(v, &s) == nil {
			out[k] = AliasTarget{Path: s}
			continue
		}
		var b bool
		if json.Unmarshal(v, &b) == nil && !b {
			out[k] = AliasTarget{Elided: true}
		}
	}
	return out
}

func resolveEntryPath(pkgdir, raw string) string {
	if raw == "." || raw == "./" || raw == "" {
		raw = "index"
	}
	return filepath.Join(pkgdir, raw)
}

// exportsFallback resolves pkg.Exports["."] (or a bare exports string, or
// a condition-only exports map) against the given condition priority.
// Adapted from the teacher's conditional-exports walk.
func exportsFallback(pkg *PackageJSON, conditions []string) (string, bool) {
	if pkg.Exports == nil {
		return "", false
	}
	if len(conditions) == 0 {
		conditions = DefaultConditions
	}

	switch v := pkg.Exports.(type) {
	case string:
		return trimDotSlash(v), true
	case map[string]any:
		if val, ok := v["."]; ok {
			return resolveConditionValue(val, conditions)
		}
		hasSubpaths := false
		for k := range v {
			if strings.HasPrefix(k, ".") {
				hasSubpaths = true
				break
			}
		}
		if !hasSubpaths {
			return resolveConditionValue(v, conditions)
		}
	}
	return "", false
}

func resolveConditionValue(val any, conditions []string) (string, bool) {
	switch v := val.(type) {
	case string:
		return trimDotSlash(v), true
	case map[string]any:
		for _, c := range conditions {
			if nested, ok := v[c]; ok {
				if s, ok2 := resolveConditionValue(nested, conditions); ok2 {
					return s, true
				}
			}
		}
	}
	return "", false
}

func trimDotSlash(p string) string {
	return strings.TrimPrefix(p, "./")
}
