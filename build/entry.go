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
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"mpbuild.dev/core/fs"
)

// hasMeta reports whether pattern contains any doublestar glob
// metacharacter, so a plain literal path can skip the directory walk
// entirely.
func hasMeta(pattern string) bool {
	return strings.ContainsAny(pattern, "*?[{")
}

// ExpandEntries resolves config.Options.EntryFiles into concrete absolute
// paths: a literal entry is used as-is, a glob (containing *, ?, [, or {)
// is matched against every regular file under walkRoot using
// doublestar's glob syntax. A relative pattern, literal or glob, is
// joined onto walkRoot first and globs are matched against each file's
// absolute path, so both absolute globs and walkRoot-relative globs
// (e.g. "**/*.wxml" or "pages/**/*.json") work.
//
// doublestar's io/fs.FS-based Glob requires slash-rooted, non-absolute
// paths (fs.ValidPath); since fs.FileSystem paths are OS-absolute, this
// walks the tree itself and matches each candidate with doublestar.Match,
// which works on plain strings independent of fs.FS's path rules.
func ExpandEntries(fsys fs.FileSystem, walkRoot string, patterns []string) ([]string, error) {
	seen := make(map[string]bool)
	var out []string

	add := func(path string) {
		if !seen[path] {
			seen[path] = true
			out = append(out, path)
		}
	}

	var globs []string
	for _, pattern := range patterns {
		if !hasMeta(pattern) {
			abs := pattern
			if !filepath.IsAbs(abs) {
				abs = filepath.Join(walkRoot, abs)
			}
			if !fsys.Exists(abs) {
				return nil, fmt.Errorf("entryFiles: %s does not exist", abs)
			}
			add(abs)
			continue
		}
		if !filepath.IsAbs(pattern) {
			pattern = filepath.Join(walkRoot, pattern)
		}
		globs = append(globs, pattern)
	}

	if len(globs) == 0 {
		sort.Strings(out)
		return out, nil
	}

	var files []string
	if err := walkFiles(fsys, walkRoot, &files); err != nil {
		return nil, err
	}

	for _, pattern := range globs {
		for _, path := range files {
			matched, err := doublestar.Match(pattern, path)
			if err != nil {
				return nil, err
			}
			if !matched {
				continue
			}
			add(path)
		}
	}

	sort.Strings(out)
	return out, nil
}

func walkFiles(fsys fs.FileSystem, dir string, out *[]string) error {
	entries, err := fsys.ReadDir(dir)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())
		if entry.IsDir() {
			if entry.Name() == "node_modules" {
				continue
			}
			if err := walkFiles(fsys, path, out); err != nil {
				return err
			}
			continue
		}
		*out = append(*out, path)
	}
	return nil
}
