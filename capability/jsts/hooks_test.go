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
package jsts_test

import (
	"testing"

	"mpbuild.dev/core/asset"
	"mpbuild.dev/core/capability/jsts"
	"mpbuild.dev/core/config"
	"mpbuild.dev/core/internal/mapfs"
)

func TestHooksRewritesSpecifierToRelativeRequirePath(t *testing.T) {
	mfs := mapfs.New()
	mfs.AddFile("/src/app.js", `import { util } from "./lib/util";`, 0644)
	mfs.AddFile("/src/lib/util.js", `export const util = 1;`, 0644)

	p, err := asset.NewPipeline(mfs, config.Options{
		SourceDir:  "/src",
		RootDir:    "/",
		OutDir:     "/dist",
		Extensions: []string{".js"},
	}, func(string) asset.Hooks { return jsts.Hooks() })
	if err != nil {
		t.Fatalf("NewPipeline failed: %v", err)
	}

	a := p.NewAsset("/src/app.js")
	outcomes, err := a.Process()
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if len(outcomes) != 1 || outcomes[0].Ignore {
		t.Fatalf("outcomes = %+v", outcomes)
	}
	if outcomes[0].DistPath != "/dist/app.js" {
		t.Errorf("DistPath = %q, want /dist/app.js", outcomes[0].DistPath)
	}

	written, err := mfs.ReadFile("/dist/app.js")
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	want := `import { util } from "./lib/util.js";`
	if string(written) != want {
		t.Errorf("written = %q, want %q", written, want)
	}
}

func TestHooksPreservesWxsExtension(t *testing.T) {
	mfs := mapfs.New()
	mfs.AddFile("/src/helper.wxs", `module.exports.add = function(a, b) { return a + b; };`, 0644)

	p, err := asset.NewPipeline(mfs, config.Options{
		SourceDir: "/src",
		RootDir:   "/",
		OutDir:    "/dist",
	}, func(string) asset.Hooks { return jsts.Hooks() })
	if err != nil {
		t.Fatalf("NewPipeline failed: %v", err)
	}

	outcomes, err := p.NewAsset("/src/helper.wxs").Process()
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if outcomes[0].DistPath != "/dist/helper.wxs" {
		t.Errorf("DistPath = %q, want /dist/helper.wxs", outcomes[0].DistPath)
	}
}
