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

// Package build orchestrates the full pipeline over an entry set: it
// wires the default per-extension capability hooks, expands entryFiles
// globs, and fans Asset processing out across a bounded worker pool.
package build

import (
	"mpbuild.dev/core/asset"
	"mpbuild.dev/core/capability/jsts"
	"mpbuild.dev/core/capability/wxml"
)

// DefaultHooksFor returns the per-extension capability table used when a
// build doesn't override a given extension: .js/.ts/.wxs get the jsts
// capability, .wxml gets the wxml capability, .json gets the app/page
// manifest capability, and everything else gets the spec's default no-op
// lifecycle (Generate returning {Code:"", Ext:""}).
func DefaultHooksFor() func(ext string) asset.Hooks {
	return func(ext string) asset.Hooks {
		switch ext {
		case ".js", ".ts", ".wxs":
			return jsts.Hooks()
		case ".wxml":
			return wxml.Hooks()
		case ".json":
			return jsonHooks()
		default:
			return asset.Hooks{}
		}
	}
}
