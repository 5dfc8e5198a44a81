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

// Package resolve maps a (request, parent) pair to a concrete file on
// disk, combining extension probing, alias substitution, package-manifest
// inspection, and an upward node_modules walk.
package resolve

import (
	"fmt"
	iofs "io/fs"
	"path/filepath"
	"strings"

	"mpbuild.dev/core/config"
	"mpbuild.dev/core/fs"
	"mpbuild.dev/core/internal/cache"
	"mpbuild.dev/core/packagejson"
	"mpbuild.dev/core/pathutil"
)

// Result is the outcome of a successful resolution.
type Result struct {
	RealPath string
	Pkg      *packagejson.PackageJSON // the package.json governing RealPath's directory, if any
	Elided   bool                     // true when an alias of literal `false` intentionally dropped this dependency
}

// ModuleNotFound is returned when every resolution strategy is exhausted.
type ModuleNotFound struct {
	Request string
	FromDir string
}

func (e *ModuleNotFound) Error() string {
	return fmt.Sprintf("module not found: %q (from %s)", e.Request, e.FromDir)
}

// Resolver resolves module requests against a filesystem and a fixed set
// of options. A Resolver's result cache is never invalidated during its
// lifetime; a caller that needs fresh results after a file-watcher event
// should construct a new Resolver (or use Invalidate).
type Resolver struct {
	fsys  fs.FileSystem
	pkgs  *packagejson.Reader
	opts  config.Options
	cache *cache.Cache[Result]
}

// New creates a Resolver. opts is normalized (absolute dirs, defaulted
// Logger/Conditions) before use.
func New(fsys fs.FileSystem, opts config.Options) (*Resolver, error) {
	norm, err := opts.Normalize()
	if err != nil {
		return nil, err
	}
	return &Resolver{
		fsys:  fsys,
		pkgs:  packagejson.NewReader(fsys),
		opts:  norm,
		cache: cache.New[Result](),
	}, nil
}

// Invalidate drops the cached resolution for (request, parent), letting
// the next Resolve call re-probe the filesystem. Package records cached
// by the resolver's package reader are kept. Used after a watched file
// changes.
func (r *Resolver) Invalidate(request, parent string) {
	r.cache.Invalidate(cacheKey(request, parent))
}

func cacheKey(request, parent string) string {
	dir := ""
	if parent != "" {
		dir = filepath.Dir(parent)
	}
	return dir + ":" + request
}

// resolveCtx threads the per-call extension list through the recursive
// file/directory load helpers.
type resolveCtx struct {
	exts []string
}

// Resolve maps (request, parent) to a Result, or fails with
// *ModuleNotFound. parent == "" resolves request as a top-level entry
// (baseDir is the configured source directory) rather than relative to a
// referring file.
func (r *Resolver) Resolve(request, parent string) (Result, error) {
	return r.cache.GetOrLoad(cacheKey(request, parent), func() (Result, error) {
		return r.resolveUncached(request, parent)
	})
}

func (r *Resolver) resolveUncached(request, parent string) (Result, error) {
	baseDir := r.opts.SourceDir
	if parent != "" {
		baseDir = filepath.Dir(parent)
	}

	ctx := &resolveCtx{exts: r.buildExtensionList(parent)}

	req := request
	if parent != "" {
		req = r.resolveFilename(request, baseDir)
	}
	req = pathutil.ToUnix(req)

	aliased, elided := r.loadAlias(req, baseDir)
	if elided {
		return Result{Elided: true}, nil
	}

	if filepath.IsAbs(aliased) {
		if real, ok := r.loadAsFile(aliased, ctx); ok {
			return Result{RealPath: real}, nil
		}
		if real, pkg, ok := r.loadDirectory(aliased, ctx); ok {
			return Result{RealPath: real, Pkg: pkg}, nil
		}
		return Result{}, &ModuleNotFound{Request: request, FromDir: baseDir}
	}

	moduleHead, subPath := getModuleParts(aliased)
	for cur := baseDir; ; {
		if filepath.Base(cur) != "node_modules" {
			candidate := filepath.Join(cur, "node_modules", moduleHead)
			if r.fsys.Exists(candidate) {
				r.logDependencyHygiene(baseDir, moduleHead)

				filePath := filepath.Join(cur, "node_modules", aliased)
				if subPath != "" {
					if real, ok := r.loadAsFile(filePath, ctx); ok {
						return Result{RealPath: real}, nil
					}
				}
				if real, pkg, ok := r.loadDirectory(filePath, ctx); ok {
					return Result{RealPath: real, Pkg: pkg}, nil
				}
				return Result{}, &ModuleNotFound{Request: request, FromDir: baseDir}
			}
		}
		parent := filepath.Dir(cur)
		if parent == cur {
			break
		}
		cur = parent
	}

	// Bare, unresolved: fall back to treating it as a sibling of parent.
	if parent != "" {
		sibling := filepath.Join(baseDir, aliased)
		if real, ok := r.loadAsFile(sibling, ctx); ok {
			return Result{RealPath: real}, nil
		}
		if real, pkg, ok := r.loadDirectory(sibling, ctx); ok {
			return Result{RealPath: real, Pkg: pkg}, nil
		}
	}

	return Result{}, &ModuleNotFound{Request: request, FromDir: baseDir}
}

// logDependencyHygiene warns when a node_modules hit isn't declared in
// the importing package's own dependencies - adapted from the teacher's
// transitive/dev/undeclared dependency classification, repointed from a
// post-hoc report to a resolve-time log line. Never affects the result.
func (r *Resolver) logDependencyHygiene(baseDir, moduleHead string) {
	pkg, ok := r.pkgs.FindPackage(baseDir)
	if !ok {
		return
	}
	if _, declared := pkg.Dependencies[moduleHead]; declared {
		return
	}
	if _, devOnly := pkg.DevDeps[moduleHead]; devOnly {
		r.opts.Logger.Warning("%q resolved %q via node_modules, but it is only a devDependency", pkg.PkgFile, moduleHead)
		return
	}
	r.opts.Logger.Warning("%q resolved %q via node_modules, but it is not declared as a dependency (likely transitive)", pkg.PkgFile, moduleHead)
}

// buildExtensionList moves parent's extension to the front of the
// configured list and prepends "" so fully-specified requests resolve
// without an appended extension.
func (r *Resolver) buildExtensionList(parent string) []string {
	parentExt := ""
	if parent != "" {
		parentExt = filepath.Ext(parent)
	}

	ordered := make([]string, 0, len(r.opts.Extensions)+1)
	if parentExt != "" {
		for _, e := range r.opts.Extensions {
			if e == parentExt {
				ordered = append(ordered, e)
				break
			}
		}
	}
	for _, e := range r.opts.Extensions {
		if e == parentExt {
			continue
		}
		ordered = append(ordered, e)
	}
	return append([]string{""}, ordered...)
}

// resolveFilename canonicalizes request relative to dir, by first
// character: "/" source-root-absolute, "~" nearest node_modules package
// root or rootDir, "." relative to dir, anything else a bare module name.
func (r *Resolver) resolveFilename(request, dir string) string {
	if request == "" {
		return request
	}
	switch request[0] {
	case '/':
		if r.fsys.Exists(request) {
			return request
		}
		return filepath.Join(r.opts.SourceDir, strings.TrimPrefix(request, "/"))
	case '~':
		cur := dir
		for cur != r.opts.RootDir && filepath.Base(filepath.Dir(cur)) != "node_modules" {
			parent := filepath.Dir(cur)
			if parent == cur {
				break
			}
			cur = parent
		}
		tail := strings.TrimPrefix(strings.TrimPrefix(request, "~"), "/")
		return filepath.Join(cur, tail)
	case '.':
		return filepath.Join(dir, request)
	default:
		return filepath.Clean(request)
	}
}

// loadAlias resolves request through the global alias table, then
// (failing that) the nearest package's own alias sources. The result may
// be absolute, relative, or still a bare module name.
func (r *Resolver) loadAlias(request, dir string) (result string, elided bool) {
	// Ensure the root package is loaded and cached; irrelevant if absent.
	_, _ = r.pkgs.Read(r.opts.RootDir)

	if substituted, matched := r.loadGlobalAlias(request); matched {
		return substituted, false
	}

	nearest, ok := r.pkgs.FindPackage(dir)
	if !ok {
		return request, false
	}

	for _, aliases := range packagejson.AliasSources(nearest, r.opts.Target) {
		if result, matched, elided := getAlias(request, nearest.PkgDir, aliases); matched {
			if !elided && !filepath.IsAbs(result) {
				result = filepath.Join(nearest.PkgDir, result)
			}
			return result, elided
		}
	}
	return request, false
}

// loadGlobalAlias scans the configured alias table in order; the first
// key that appears anywhere in request triggers a substring substitution.
// Alias paths are rootDir-relative, so a relative result is joined
// against RootDir to anchor it before the caller checks filepath.IsAbs.
func (r *Resolver) loadGlobalAlias(request string) (string, bool) {
	for _, entry := range r.opts.Alias {
		if !strings.Contains(request, entry.Key) {
			continue
		}
		substituted := strings.Replace(request, entry.Key, entry.Value.Path, 1)
		if !filepath.IsAbs(substituted) {
			substituted = filepath.Join(r.opts.RootDir, substituted)
		}
		return substituted, true
	}
	return request, false
}

// getAlias looks request up in aliases: absolute requests are relativized
// to pkgdir first; failing a whole-string match, the module head alone is
// looked up and the tail re-appended. A literal `false` target elides the
// dependency (returns "", true, true).
func getAlias(request, pkgdir string, aliases map[string]packagejson.AliasTarget) (result string, matched, elided bool) {
	key := request
	if filepath.IsAbs(request) {
		if rel, err := filepath.Rel(pkgdir, request); err == nil {
			key = pathutil.PromoteRelative(pathutil.ToUnix(rel))
		}
	}

	if target, ok := aliases[key]; ok {
		if target.Elided {
			return "", true, true
		}
		return target.Path, true, false
	}

	head, tail := getModuleParts(key)
	if target, ok := aliases[head]; ok {
		if target.Elided {
			return "", true, true
		}
		joined := target.Path
		if tail != "" {
			joined = strings.TrimSuffix(joined, "/") + "/" + tail
		}
		return joined, true, false
	}

	return request, false, false
}

// getModuleParts splits name on "/"; a leading "@scope" segment is
// rejoined with the following segment so "@scope/name/sub" yields head
// "@scope/name" and tail "sub".
func getModuleParts(name string) (head, tail string) {
	unix := pathutil.ToUnix(name)
	segs := strings.Split(unix, "/")
	if len(segs) == 0 {
		return unix, ""
	}
	if strings.HasPrefix(segs[0], "@") && len(segs) >= 2 {
		return segs[0] + "/" + segs[1], strings.Join(segs[2:], "/")
	}
	return segs[0], strings.Join(segs[1:], "/")
}

// loadAsFile returns the first extension-expanded candidate of path that
// exists as a regular file or FIFO.
func (r *Resolver) loadAsFile(path string, ctx *resolveCtx) (string, bool) {
	for _, candidate := range r.expandFile(path, ctx, true) {
		info, err := r.fsys.Stat(candidate)
		if err != nil {
			continue
		}
		if info.Mode().IsRegular() || info.Mode()&iofs.ModeNamedPipe != 0 {
			return candidate, true
		}
	}
	return "", false
}

// expandFile emits path+ext for every configured extension; when
// aliasEnabled, each expanded candidate is also run back through
// loadAlias and, if that rewrites it, expanded once more with alias
// expansion disabled - letting an alias rewrite an extended filename
// without looping.
func (r *Resolver) expandFile(path string, ctx *resolveCtx, aliasEnabled bool) []string {
	var out []string
	for _, ext := range ctx.exts {
		candidate := path + ext
		out = append(out, candidate)
		if !aliasEnabled {
			continue
		}
		unixCandidate := pathutil.ToUnix(candidate)
		aliased, elided := r.loadAlias(unixCandidate, filepath.Dir(path))
		if elided || aliased == unixCandidate {
			continue
		}
		resolved := aliased
		if !filepath.IsAbs(resolved) {
			resolved = filepath.Join(filepath.Dir(path), resolved)
		}
		out = append(out, r.expandFile(resolved, ctx, false)...)
	}
	return out
}

// loadDirectory reads dir's package.json (if any) and tries each of
// GetPackageEntries' candidates as a file-load then a recursive
// directory-load, finally falling back to <dir>/index.
func (r *Resolver) loadDirectory(dir string, ctx *resolveCtx) (string, *packagejson.PackageJSON, bool) {
	pkg, _ := r.pkgs.Read(dir)
	if pkg != nil {
		entries := packagejson.GetPackageEntries(pkg, packagejson.EntryOptions{
			Target:     r.opts.Target,
			Conditions: r.opts.Conditions,
		})
		for _, entry := range entries {
			if real, ok := r.loadAsFile(entry, ctx); ok {
				return real, pkg, true
			}
			if real, nestedPkg, ok := r.loadDirectory(entry, ctx); ok {
				if nestedPkg == nil {
					nestedPkg = pkg
				}
				return real, nestedPkg, true
			}
		}
	}
	if real, ok := r.loadAsFile(filepath.Join(dir, "index"), ctx); ok {
		return real, pkg, true
	}
	return "", nil, false
}
