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
	"path/filepath"
	"regexp"
	"testing"

	"mpbuild.dev/core/asset"
	"mpbuild.dev/core/config"
	"mpbuild.dev/core/internal/mapfs"
)

var requireRe = regexp.MustCompile(`require\("([^"]+)"\)`)

func passthroughHooks(ext string) asset.Hooks {
	return asset.Hooks{
		CollectDependencies: func(a *asset.Asset) ([]string, error) {
			var reqs []string
			for _, m := range requireRe.FindAllStringSubmatch(string(a.Contents), -1) {
				reqs = append(reqs, m[1])
			}
			return reqs, nil
		},
		Generate: func(a *asset.Asset) ([]asset.Generated, error) {
			return []asset.Generated{{Code: string(a.Contents), Ext: filepath.Ext(a.Name)}}, nil
		},
	}
}

func TestAssetProcessWritesOutputAndGraph(t *testing.T) {
	mfs := mapfs.New()
	mfs.AddFile("/src/app.js", `require("./util")`, 0644)
	mfs.AddFile("/src/util.js", `module.exports = {}`, 0644)

	p, err := asset.NewPipeline(mfs, config.Options{
		SourceDir:  "/src",
		RootDir:    "/",
		OutDir:     "/dist",
		Extensions: []string{".js"},
	}, passthroughHooks)
	if err != nil {
		t.Fatalf("NewPipeline failed: %v", err)
	}

	a := p.NewAsset("/src/app.js")
	outcomes, err := a.Process()
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if len(outcomes) != 1 || outcomes[0].Ignore {
		t.Fatalf("outcomes = %+v, want one non-ignored outcome", outcomes)
	}
	if outcomes[0].DistPath != "/dist/app.js" {
		t.Errorf("DistPath = %q, want /dist/app.js", outcomes[0].DistPath)
	}

	written, err := mfs.ReadFile("/dist/app.js")
	if err != nil {
		t.Fatalf("expected /dist/app.js to be written: %v", err)
	}
	if string(written) != `require("./util")` {
		t.Errorf("written contents = %q", written)
	}

	if len(a.Dependencies) != 1 {
		t.Fatalf("Dependencies = %+v, want 1", a.Dependencies)
	}
	dep := a.Dependencies[0]
	if dep.AbsolutePath != "/src/util.js" {
		t.Errorf("AbsolutePath = %q, want /src/util.js", dep.AbsolutePath)
	}
	if dep.RelativeRequirePath != "./util.js" {
		t.Errorf("RelativeRequirePath = %q, want ./util.js", dep.RelativeRequirePath)
	}

	if got := p.Graph().Dependents("/src/util.js"); len(got) != 1 || got[0] != "/src/app.js" {
		t.Errorf("Graph().Dependents(util.js) = %v, want [/src/app.js]", got)
	}
}

func TestAssetProcessLifecycleOrder(t *testing.T) {
	mfs := mapfs.New()
	mfs.AddFile("/src/app.js", "", 0644)

	var order []string
	hooks := asset.Hooks{
		Pretransform: func(a *asset.Asset) error { order = append(order, "pretransform"); return nil },
		MightHaveDependencies: func(a *asset.Asset) bool {
			order = append(order, "mightHaveDependencies")
			return true
		},
		Parse: func(a *asset.Asset) (any, error) { order = append(order, "parse"); return nil, nil },
		CollectDependencies: func(a *asset.Asset) ([]string, error) {
			order = append(order, "collectDependencies")
			return nil, nil
		},
		Transform: func(a *asset.Asset) error { order = append(order, "transform"); return nil },
		Generate: func(a *asset.Asset) ([]asset.Generated, error) {
			order = append(order, "generate")
			return []asset.Generated{{Code: "", Ext: ".js"}}, nil
		},
	}

	p, err := asset.NewPipeline(mfs, config.Options{SourceDir: "/src", RootDir: "/", OutDir: "/dist"}, func(string) asset.Hooks { return hooks })
	if err != nil {
		t.Fatalf("NewPipeline failed: %v", err)
	}
	if _, err := p.NewAsset("/src/app.js").Process(); err != nil {
		t.Fatalf("Process failed: %v", err)
	}

	want := []string{"pretransform", "mightHaveDependencies", "parse", "collectDependencies", "transform", "generate"}
	if len(order) != len(want) {
		t.Fatalf("order = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("order[%d] = %q, want %q", i, order[i], want[i])
		}
	}
}

func TestAssetOutputIgnoresOutsideOutDir(t *testing.T) {
	mfs := mapfs.New()
	mfs.AddFile("/elsewhere/widget.js", "", 0644)

	// SourceDir sits two levels below root, so the fallback dist-path
	// rule for a file entirely outside it climbs out past OutDir.
	p, err := asset.NewPipeline(mfs, config.Options{SourceDir: "/proj/src", RootDir: "/", OutDir: "/proj/dist"}, func(string) asset.Hooks {
		return asset.Hooks{}
	})
	if err != nil {
		t.Fatalf("NewPipeline failed: %v", err)
	}

	// The climbed-out dist path is /elsewhere/widget.js, the source file
	// itself, so existence of DistPath can't show a write; compare the
	// filesystem's file count instead.
	before := len(mfs.ListFiles())
	a := p.NewAsset("/elsewhere/widget.js")
	outcomes, err := a.Process()
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if len(outcomes) != 1 || !outcomes[0].Ignore {
		t.Fatalf("outcomes = %+v, want one ignored outcome", outcomes)
	}
	if after := len(mfs.ListFiles()); after != before {
		t.Errorf("expected no file written for an ignored outcome: %d entries before, %d after", before, after)
	}
}

func TestGetConfigPackageKey(t *testing.T) {
	mfs := mapfs.New()
	mfs.AddFile("/src/package.json", `{"name":"app","my-tool":{"flag":true}}`, 0644)
	mfs.AddFile("/src/app.js", "", 0644)

	p, err := asset.NewPipeline(mfs, config.Options{SourceDir: "/src", RootDir: "/", OutDir: "/dist"}, nil)
	if err != nil {
		t.Fatalf("NewPipeline failed: %v", err)
	}
	a := p.NewAsset("/src/app.js")

	cfg, err := a.GetConfig([]string{".my-toolrc"}, asset.ConfigOptions{PackageKey: "my-tool"})
	if err != nil {
		t.Fatalf("getConfig failed: %v", err)
	}
	m, ok := cfg.(map[string]any)
	if !ok || m["flag"] != true {
		t.Errorf("getConfig() = %#v, want map with flag:true", cfg)
	}
}

func TestGetConfigWalksUpwardAndRecordsDependency(t *testing.T) {
	mfs := mapfs.New()
	mfs.AddFile("/proj/.toolrc", `{}`, 0644)
	mfs.AddFile("/proj/src/pages/app.js", "", 0644)

	p, err := asset.NewPipeline(mfs, config.Options{SourceDir: "/proj/src", RootDir: "/proj", OutDir: "/proj/dist"}, nil)
	if err != nil {
		t.Fatalf("NewPipeline failed: %v", err)
	}
	a := p.NewAsset("/proj/src/pages/app.js")

	path, err := a.GetConfig([]string{".toolrc"}, asset.ConfigOptions{})
	if err != nil {
		t.Fatalf("getConfig failed: %v", err)
	}
	if path != "/proj/.toolrc" {
		t.Errorf("getConfig() = %v, want /proj/.toolrc", path)
	}
	if len(a.Dependencies) != 1 || !a.Dependencies[0].IncludedInParent {
		t.Fatalf("expected one IncludedInParent dependency, got %+v", a.Dependencies)
	}
}
