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
package jsts

import (
	"path/filepath"
	"strings"

	"mpbuild.dev/core/asset"
)

// Hooks returns the default capability table for .js/.ts/.wxs assets:
// dependency collection via ExtractImports, and a Transform that rewrites
// every resolved specifier in place to the dependency's dist-relative
// require path.
func Hooks() asset.Hooks {
	return asset.Hooks{
		CollectDependencies: collectDependencies,
		Transform:           rewriteSpecifiers,
		Generate:            generate,
	}
}

func collectDependencies(a *asset.Asset) ([]string, error) {
	imports, err := ExtractImports(a.Contents)
	if err != nil {
		return nil, err
	}
	specs := make([]string, len(imports))
	for i, imp := range imports {
		specs[i] = imp.Specifier
	}
	return specs, nil
}

// rewriteSpecifiers replaces each quoted import specifier with the
// corresponding dependency's relative require path, computed by
// ResolveAliasName during getDependencies. Elided dependencies (alias
// resolved to literal false) are left untouched - the source reference
// stays as-is, since there's nothing to point it at.
func rewriteSpecifiers(a *asset.Asset) error {
	code := string(a.Contents)
	for _, dep := range a.Dependencies {
		if dep.Elided || dep.RequestName == dep.RelativeRequirePath {
			continue
		}
		for _, quote := range []byte{'"', '\''} {
			q := string(quote)
			code = strings.ReplaceAll(code, q+dep.RequestName+q, q+dep.RelativeRequirePath+q)
		}
	}
	a.Contents = []byte(code)
	return nil
}

// generate passes content through unchanged, reconciling the output
// extension: .ts sources compile down to .js (the mini-program runtime
// has no TypeScript support), everything else - including .wxs, which
// must keep its own extension - is emitted as-is.
func generate(a *asset.Asset) ([]asset.Generated, error) {
	ext := filepath.Ext(a.Name)
	if ext == ".ts" {
		ext = ".js"
	}
	return []asset.Generated{{Code: string(a.Contents), Ext: ext}}, nil
}
