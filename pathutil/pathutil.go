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

// Package pathutil provides path normalization shared by the resolver,
// the dist-path mapper, and the asset pipeline.
package pathutil

import (
	"encoding/json"
	"path/filepath"
	"strings"
)

// ToUnix replaces platform path separators with "/". Idempotent.
func ToUnix(p string) string {
	if filepath.Separator == '/' {
		return p
	}
	return strings.ReplaceAll(p, string(filepath.Separator), "/")
}

// PromoteRelative prefixes p with "./" unless it already begins with "."
// or "/", producing a require-style relative specifier.
func PromoteRelative(p string) string {
	if p == "" {
		return "./"
	}
	if strings.HasPrefix(p, ".") || strings.HasPrefix(p, "/") {
		return p
	}
	return "./" + p
}

// Alias is the normalized form of an alias table entry: a path fragment
// substituted into a request, plus the output-directory prefix ("dist")
// that files reached through this alias are emitted under.
type Alias struct {
	Path string
	Dist string // empty means "no explicit dist prefix" (defaults to "npm")
}

// NormalizeAlias turns a raw alias config value - a bare string or a
// {path, dist?} object - into an Alias record. Idempotent: normalizing
// an already-normalized value returns it unchanged.
func NormalizeAlias(raw json.RawMessage) (Alias, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return Alias{Path: s}, nil
	}

	var obj struct {
		Path string `json:"path"`
		Dist string `json:"dist"`
	}
	if err := json.Unmarshal(raw, &obj); err != nil {
		return Alias{}, err
	}
	return Alias{Path: obj.Path, Dist: obj.Dist}, nil
}

// ReconcileExt applies the extension-rewrite rule shared by the dist-path
// mapper and the asset pipeline's output step: if path has no extension,
// ext is appended; if ext is set and differs from path's current
// extension, it replaces it. Centralizing this in one helper keeps the
// two call sites from drifting apart, per the resolved "extension
// reconciliation" open question.
func ReconcileExt(path, ext string) string {
	if ext == "" {
		return path
	}
	cur := filepath.Ext(path)
	if cur == "" {
		return path + ext
	}
	if cur == ext {
		return path
	}
	return strings.TrimSuffix(path, cur) + ext
}
