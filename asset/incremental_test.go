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
package asset_test

import (
	"reflect"
	"sort"
	"testing"

	"mpbuild.dev/core/asset"
	"mpbuild.dev/core/config"
	"mpbuild.dev/core/internal/mapfs"
)

func TestRebuildInvalidatesTransitiveDependents(t *testing.T) {
	mfs := mapfs.New()
	mfs.AddFile("/src/app.js", `require("./mid")`, 0644)
	mfs.AddFile("/src/mid.js", `require("./leaf")`, 0644)
	mfs.AddFile("/src/leaf.js", `module.exports = {}`, 0644)

	p, err := asset.NewPipeline(mfs, config.Options{
		SourceDir:  "/src",
		RootDir:    "/",
		OutDir:     "/dist",
		Extensions: []string{".js"},
	}, passthroughHooks)
	if err != nil {
		t.Fatalf("NewPipeline failed: %v", err)
	}

	app := p.NewAsset("/src/app.js")
	if _, err := app.Process(); err != nil {
		t.Fatalf("Process(app) failed: %v", err)
	}
	mid := p.NewAsset("/src/mid.js")
	if _, err := mid.Process(); err != nil {
		t.Fatalf("Process(mid) failed: %v", err)
	}
	leaf := p.NewAsset("/src/leaf.js")
	if _, err := leaf.Process(); err != nil {
		t.Fatalf("Process(leaf) failed: %v", err)
	}

	rebuilt := p.Rebuild([]string{"/src/leaf.js"})
	sort.Strings(rebuilt)
	want := []string{"/src/app.js", "/src/leaf.js", "/src/mid.js"}
	if !reflect.DeepEqual(rebuilt, want) {
		t.Errorf("Rebuild() = %v, want %v", rebuilt, want)
	}

	if leaf.Contents != nil {
		t.Error("expected leaf.Contents cleared after invalidation")
	}
	if app.Dependencies != nil {
		t.Error("expected app.Dependencies cleared after invalidation")
	}

	// Re-running app still finds mid as a dependency: only app's own
	// outgoing edge was cleared, not mid's identity or contents-on-disk.
	if _, err := app.Process(); err != nil {
		t.Fatalf("Process(app) after invalidation failed: %v", err)
	}
	if len(app.Dependencies) != 1 || app.Dependencies[0].AbsolutePath != "/src/mid.js" {
		t.Errorf("Dependencies after rebuild = %+v, want a single edge to mid.js", app.Dependencies)
	}
}
