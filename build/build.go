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
	"context"
	"fmt"

	"mpbuild.dev/core/asset"
	"mpbuild.dev/core/config"
	"mpbuild.dev/core/fs"
)

// Build expands opts.EntryFiles against fsys, then processes the expanded
// entries and everything they transitively require through a Pool backed
// by DefaultHooksFor(). It's the single entry point cmd/build calls.
func Build(ctx context.Context, fsys fs.FileSystem, opts config.Options) ([]Result, error) {
	norm, err := opts.Normalize()
	if err != nil {
		return nil, err
	}

	entries, err := ExpandEntries(fsys, norm.SourceDir, norm.EntryFiles)
	if err != nil {
		return nil, fmt.Errorf("expand entryFiles: %w", err)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("entryFiles matched no files under %s", norm.SourceDir)
	}

	pool, err := NewPool(fsys, norm, DefaultHooksFor())
	if err != nil {
		return nil, err
	}

	results, err := pool.Run(ctx, entries, norm.Concurrency)
	if err != nil {
		return results, err
	}
	return results, nil
}

// Graph exposes the pool's dependency graph after a Build call, e.g. for
// a caller that wants to drive Pipeline.Rebuild on a subsequent change.
func Graph(pool *Pool) *asset.Graph {
	return pool.Pipeline().Graph()
}
