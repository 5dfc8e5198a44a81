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

// Package asset implements the five-phase Asset lifecycle: load,
// pretransform, collect dependencies, transform, generate, and output.
// Each discovered file becomes an Asset; dependency discovery reuses the
// Resolver and Dist-Path Mapper so source requests and output paths stay
// in lockstep.
package asset

import (
	"encoding/base64"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"mpbuild.dev/core/config"
	"mpbuild.dev/core/distpath"
	"mpbuild.dev/core/fs"
	"mpbuild.dev/core/packagejson"
	"mpbuild.dev/core/pathutil"
	"mpbuild.dev/core/resolve"
)

// SourceMap is the minimal contract an Asset needs from a source map
// value: the serialized form to embed as a data URL, keyed by the
// emitted file's pretty (outDir-relative) name.
type SourceMap interface {
	Stringify(file string) ([]byte, error)
}

// Generated is one emitted artifact of an Asset's generate phase.
// Generate may produce more than one (e.g. a script plus its source map
// sidecar), in which case output runs once per entry.
type Generated struct {
	Code string
	Ext  string
	Map  SourceMap
}

// Dependency is a resolved reference from one Asset to another,
// produced by ResolveAliasName or AddURLDependency.
type Dependency struct {
	RequestName         string // the original, unresolved request string
	AbsolutePath        string
	DistPath            string
	RelativeRequirePath string
	Dynamic             bool // discovered via AddURLDependency rather than CollectDependencies
	IncludedInParent    bool // discovered via getConfig, not a graph edge
	Elided              bool // alias resolved to literal false; no dependency to record
}

// Hooks is the capability table a plugin supplies for a given file
// extension. Every field is optional; a nil hook falls back to the
// lifecycle's default behavior. This models the "dynamic dispatch" the
// source expresses as an overridable subclass as a table of function
// pointers instead.
type Hooks struct {
	Pretransform          func(a *Asset) error
	Parse                 func(a *Asset) (any, error)
	CollectDependencies   func(a *Asset) ([]string, error)
	Transform             func(a *Asset) error
	Generate              func(a *Asset) ([]Generated, error)
	PostProcess           func(a *Asset, generated []Generated) ([]Generated, error)
	ShouldInvalidate      func(a *Asset) bool
	MightHaveDependencies func(a *Asset) bool
}

// Pipeline holds the state shared across every Asset in a build: the
// filesystem, the Resolver, the Dist-Path Mapper, the package reader,
// and the dependency graph assembled as Assets are processed.
type Pipeline struct {
	fsys     fs.FileSystem
	opts     config.Options
	resolver *resolve.Resolver
	mapper   *distpath.Mapper
	pkgs     *packagejson.Reader
	graph    *Graph
	hooksFor func(ext string) Hooks
	assets   map[string]*Asset
}

// NewPipeline constructs a Pipeline. hooksFor selects the capability
// hooks for a given file extension (including the leading dot); it may
// be nil, in which case every Asset gets the zero Hooks (full
// default-no-op lifecycle).
func NewPipeline(fsys fs.FileSystem, opts config.Options, hooksFor func(ext string) Hooks) (*Pipeline, error) {
	resolver, err := resolve.New(fsys, opts)
	if err != nil {
		return nil, err
	}
	mapper, err := distpath.New(opts)
	if err != nil {
		return nil, err
	}
	norm, err := opts.Normalize()
	if err != nil {
		return nil, err
	}
	return &Pipeline{
		fsys:     fsys,
		opts:     norm,
		resolver: resolver,
		mapper:   mapper,
		pkgs:     packagejson.NewReader(fsys),
		graph:    NewGraph(),
		hooksFor: hooksFor,
		assets:   make(map[string]*Asset),
	}, nil
}

// Graph returns the pipeline's dependency graph.
func (p *Pipeline) Graph() *Graph { return p.graph }

// NewAsset constructs an Asset for the source file at name (an absolute
// path), wiring in the capability hooks registered for its extension. A
// second call for the same name returns the same Asset, so Rebuild can
// find and invalidate it later.
func (p *Pipeline) NewAsset(name string) *Asset {
	if existing, ok := p.assets[name]; ok {
		return existing
	}
	hooks := Hooks{}
	if p.hooksFor != nil {
		hooks = p.hooksFor(filepath.Ext(name))
	}
	relName, err := filepath.Rel(p.opts.SourceDir, name)
	if err != nil {
		relName = name
	}
	a := &Asset{
		Name:         name,
		Basename:     filepath.Base(name),
		RelativeName: relName,
		pipeline:     p,
		hooks:        hooks,
	}
	p.assets[name] = a
	return a
}

// Asset is one source file moving through the five-phase lifecycle.
type Asset struct {
	Name         string // absolute source path
	Basename     string
	RelativeName string
	ID           string
	DistPath     string // explicit override; empty defers to the Dist-Path Mapper

	Contents     []byte
	AST          any
	Dependencies []*Dependency
	Ignore       bool

	pipeline *Pipeline
	hooks    Hooks
}

// Outcome is one output write's result, returned by Process for logging.
type Outcome struct {
	DistPath string
	Ignore   bool
	Elapsed  time.Duration
}

// Process runs the canonical lifecycle exactly once: load, pretransform,
// getDependencies, transform, generate, output* - in that order.
func (a *Asset) Process() ([]Outcome, error) {
	if a.ID == "" {
		a.ID = a.RelativeName
	}

	if err := a.loadIfNeeded(); err != nil {
		return nil, fmt.Errorf("load %s: %w", a.Name, err)
	}

	if a.hooks.Pretransform != nil {
		if err := a.hooks.Pretransform(a); err != nil {
			return nil, fmt.Errorf("pretransform %s: %w", a.Name, err)
		}
	}

	if err := a.getDependencies(); err != nil {
		return nil, fmt.Errorf("getDependencies %s: %w", a.Name, err)
	}

	if a.hooks.Transform != nil {
		if err := a.hooks.Transform(a); err != nil {
			return nil, fmt.Errorf("transform %s: %w", a.Name, err)
		}
	}

	generated, err := a.generate()
	if err != nil {
		return nil, fmt.Errorf("generate %s: %w", a.Name, err)
	}
	if a.hooks.PostProcess != nil {
		if generated, err = a.hooks.PostProcess(a, generated); err != nil {
			return nil, fmt.Errorf("postProcess %s: %w", a.Name, err)
		}
	}

	outcomes := make([]Outcome, 0, len(generated))
	for _, g := range generated {
		phaseStart := time.Now()
		distPath, ignore, err := a.output(g)
		if err != nil {
			return nil, fmt.Errorf("output %s: %w", a.Name, err)
		}
		elapsed := time.Since(phaseStart)
		outcomes = append(outcomes, Outcome{DistPath: distPath, Ignore: ignore, Elapsed: elapsed})
		if !ignore {
			a.pipeline.opts.Logger.Debug("wrote %s (%s) in %s", distPath, a.Name, elapsed)
		}
	}

	return outcomes, nil
}

func (a *Asset) loadIfNeeded() error {
	if len(a.Contents) > 0 {
		return nil
	}
	data, err := a.pipeline.fsys.ReadFile(a.Name)
	if err != nil {
		return err
	}
	a.Contents = data
	return nil
}

func (a *Asset) getDependencies() error {
	might := true
	if a.hooks.MightHaveDependencies != nil {
		might = a.hooks.MightHaveDependencies(a)
	}
	if !might {
		return nil
	}

	if a.hooks.Parse != nil {
		ast, err := a.hooks.Parse(a)
		if err != nil {
			return err
		}
		a.AST = ast
	}

	if a.hooks.CollectDependencies == nil {
		return nil
	}
	requests, err := a.hooks.CollectDependencies(a)
	if err != nil {
		return err
	}
	for _, req := range requests {
		dep, err := a.resolveFrom(req, "", a.Name)
		if err != nil {
			return fmt.Errorf("resolving %q from %s: %w", req, a.Name, err)
		}
		a.Dependencies = append(a.Dependencies, dep)
		if !dep.Elided {
			a.pipeline.graph.AddDependency(a.Name, dep.AbsolutePath)
		}
	}
	return nil
}

func (a *Asset) generate() ([]Generated, error) {
	if a.hooks.Generate == nil {
		return []Generated{{Code: "", Ext: ""}}, nil
	}
	return a.hooks.Generate(a)
}

// output writes one generated artifact, computing its dist path per
// spec.md §4.5 and skipping the write (ignore=true) when that path
// falls outside outDir.
func (a *Asset) output(g Generated) (string, bool, error) {
	distPath := a.DistPath
	if distPath == "" {
		mapped, err := a.pipeline.mapper.GenerateDistPath(a.Name, g.Ext)
		if err == nil && mapped != "" {
			distPath = mapped
		} else {
			distPath = pathutil.ReconcileExt(filepath.Join(a.pipeline.opts.OutDir, a.RelativeName), g.Ext)
		}
	}

	prettyDist, err := filepath.Rel(a.pipeline.opts.OutDir, distPath)
	if err != nil {
		return distPath, false, err
	}
	prettyDist = pathutil.ToUnix(prettyDist)
	if prettyDist == ".." || strings.HasPrefix(prettyDist, "../") {
		return distPath, true, nil
	}

	code := g.Code
	if g.Map != nil {
		mapBytes, err := g.Map.Stringify(filepath.Base(prettyDist))
		if err != nil {
			return distPath, false, err
		}
		code += "\r\n//# sourceMappingURL=data:application/json;charset=utf-8;base64," +
			base64.StdEncoding.EncodeToString(mapBytes)
	}

	if err := a.pipeline.fsys.MkdirAll(filepath.Dir(distPath), 0o755); err != nil {
		return distPath, false, err
	}
	if err := a.pipeline.fsys.WriteFile(distPath, []byte(code), 0o644); err != nil {
		return distPath, false, err
	}
	return distPath, false, nil
}

// ResolveAliasName resolves name relative to this Asset and computes
// both its dist path and the relative require path a dependency-
// collection callback should rewrite the reference to.
func (a *Asset) ResolveAliasName(name, ext string) (*Dependency, error) {
	return a.resolveFrom(name, ext, a.Name)
}

// resolveFrom is ResolveAliasName generalized to resolve relative to an
// arbitrary file (used by AddURLDependency, which resolves relative to
// a rewritten package-root directory rather than the Asset itself).
func (a *Asset) resolveFrom(name, ext, parent string) (*Dependency, error) {
	res, err := a.pipeline.resolver.Resolve(name, parent)
	if err != nil {
		return nil, err
	}
	if res.Elided {
		return &Dependency{RequestName: name, Elided: true}, nil
	}

	depDist, err := a.pipeline.mapper.GenerateDistPath(res.RealPath, ext)
	if err != nil {
		return nil, err
	}

	selfDist := a.DistPath
	if selfDist == "" {
		if selfDist, err = a.pipeline.mapper.GenerateDistPath(a.Name, ""); err != nil {
			return nil, err
		}
	}

	rel, err := filepath.Rel(filepath.Dir(selfDist), depDist)
	if err != nil {
		return nil, err
	}

	return &Dependency{
		RequestName:         name,
		AbsolutePath:        res.RealPath,
		DistPath:            depDist,
		RelativeRequirePath: pathutil.PromoteRelative(pathutil.ToUnix(rel)),
	}, nil
}

// AddURLDependency records a dependency discovered through a URL-valued
// reference (e.g. a CSS url() or an <image src>), returning the
// reformatted URL with its path rewritten to the dependency's relative
// require path. Full URLs (scheme and host both present) pass through
// unchanged.
func (a *Asset) AddURLDependency(rawurl string) (string, error) {
	u, err := url.Parse(rawurl)
	if err != nil {
		return rawurl, nil
	}
	if u.IsAbs() && u.Host != "" {
		return rawurl, nil
	}

	reqPath, err := url.PathUnescape(u.Path)
	if err != nil {
		reqPath = u.Path
	}
	if reqPath == "" {
		return rawurl, nil
	}

	parent := a.Name
	if reqPath[0] == '~' || reqPath[0] == '/' {
		if reqPath[0] == '/' && !strings.HasPrefix(a.Name, a.pipeline.opts.SourceDir) {
			if pkg, ok := a.pipeline.pkgs.FindPackage(filepath.Dir(a.Name)); ok {
				dir := pkg.PkgDir
				if strings.Contains(pkg.Main, "/") {
					dir = filepath.Join(pkg.PkgDir, filepath.Dir(pkg.Main))
				}
				parent = filepath.Join(dir, "__url__")
			}
		}
	} else {
		reqPath = pathutil.PromoteRelative(reqPath)
	}

	dep, err := a.resolveFrom(reqPath, "", parent)
	if err != nil {
		return rawurl, err
	}
	dep.Dynamic = true
	a.Dependencies = append(a.Dependencies, dep)
	if !dep.Elided {
		a.pipeline.graph.AddDependency(a.Name, dep.AbsolutePath)
	}

	u.Path = dep.RelativeRequirePath
	return u.String(), nil
}

// ConfigOptions controls getConfig's lookup strategy.
type ConfigOptions struct {
	PackageKey string // if set and the nearest package.json carries this key, its value wins
	Load       bool   // true: return the loaded/parsed content; false: return the discovered path
}

// GetConfig discovers a config file by first checking the nearest
// package.json for opts.PackageKey, then walking upward for any of
// filenames. A discovered config file is recorded as a dependency with
// IncludedInParent set, since it affects this Asset's output without
// being a require-able module.
func (a *Asset) GetConfig(filenames []string, opts ConfigOptions) (any, error) {
	if opts.PackageKey != "" {
		if pkg, ok := a.pipeline.pkgs.FindPackage(filepath.Dir(a.Name)); ok {
			if v, ok := pkg.PackageKeyValue(opts.PackageKey); ok {
				return v, nil
			}
		}
	}

	dir := filepath.Dir(a.Name)
	for {
		for _, name := range filenames {
			candidate := filepath.Join(dir, name)
			if !a.pipeline.fsys.Exists(candidate) {
				continue
			}
			a.Dependencies = append(a.Dependencies, &Dependency{
				RequestName:      name,
				AbsolutePath:     candidate,
				IncludedInParent: true,
			})
			if !opts.Load {
				return candidate, nil
			}
			data, err := a.pipeline.fsys.ReadFile(candidate)
			if err != nil {
				return nil, err
			}
			return data, nil
		}
		if dir == a.pipeline.opts.RootDir {
			break
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return nil, nil
}
