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

// Package config carries build options shared by the resolver, the
// dist-path mapper, and the asset pipeline.
package config

import (
	"encoding/json"
	"log"
	"path/filepath"

	"mpbuild.dev/core/pathutil"
)

// Logger receives diagnostics from the resolver and the asset pipeline.
// The resolver emits a Warning when a node_modules hit is not a declared
// dependency of the importing package; the asset pipeline emits a Debug
// line for each file it writes. Expected-negative paths (missing
// package.json, a failed directory probe) are not logged.
type Logger interface {
	Warning(format string, args ...any)
	Debug(format string, args ...any)
}

// StdLogger implements Logger on top of the standard log package.
type StdLogger struct {
	Verbose bool // when false, Debug is a no-op
}

// Warning logs a warning-level message.
func (l *StdLogger) Warning(format string, args ...any) {
	log.Printf("warning: "+format, args...)
}

// Debug logs a debug-level message, when Verbose is enabled.
func (l *StdLogger) Debug(format string, args ...any) {
	if l.Verbose {
		log.Printf("debug: "+format, args...)
	}
}

// nopLogger discards everything; used when no Logger is configured.
type nopLogger struct{}

func (nopLogger) Warning(string, ...any) {}
func (nopLogger) Debug(string, ...any)   {}

// AliasEntry is one row of the ordered alias table. Order is significant:
// the resolver and the dist-path mapper both scan entries in this order
// and take the first match.
type AliasEntry struct {
	Key   string
	Value pathutil.Alias
}

// Options is the build configuration (IInitOptions), plus the ambient
// Logger and the exports-condition list the package reader consults.
type Options struct {
	SourceDir  string   // root for source-rooted ("/") requests and dist-path rel-base
	RootDir    string   // ceiling for "~" walks and nearest-package discovery
	OutDir     string   // output root
	Extensions []string // extension probe order, each including the leading dot
	Alias      []AliasEntry
	Target     string // "browser" to consult pkg.browser, anything else to skip it
	EntryFiles []string
	Cache      bool // reserved; does not affect resolution semantics

	Logger      Logger
	Conditions  []string // exports-condition priority; defaults applied by Normalize
	Concurrency int      // bounds build.Pool's in-flight Assets; <= 0 selects build.DefaultConcurrency
}

// DefaultConditions is the export-condition priority used when Options
// doesn't specify one.
var DefaultConditions = []string{"miniprogram", "browser", "import", "require", "default"}

// Normalize resolves SourceDir, RootDir and (when set) OutDir to absolute
// paths, leaving an empty OutDir empty, fills in
// Logger and Conditions defaults, and returns the result. The receiver is
// left unmodified.
func (o Options) Normalize() (Options, error) {
	var err error
	if o.SourceDir, err = filepath.Abs(o.SourceDir); err != nil {
		return o, err
	}
	if o.RootDir, err = filepath.Abs(o.RootDir); err != nil {
		return o, err
	}
	if o.OutDir != "" {
		if o.OutDir, err = filepath.Abs(o.OutDir); err != nil {
			return o, err
		}
	}
	if o.Logger == nil {
		o.Logger = nopLogger{}
	}
	if len(o.Conditions) == 0 {
		o.Conditions = DefaultConditions
	}
	return o, nil
}

// ParseAliasTable normalizes a raw JSON alias table into an ordered
// AliasEntry slice. JSON objects don't preserve key order, and alias
// iteration order is load-bearing (spec.md §4.3/§4.4 both scan aliases in
// table order and take the first match) - so the wire format is a JSON
// array of {key, value} objects rather than a map, where value is either
// the bare string form or a {path, dist?} record.
func ParseAliasTable(raw json.RawMessage) ([]AliasEntry, error) {
	var rows []struct {
		Key   string          `json:"key"`
		Value json.RawMessage `json:"value"`
	}
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, err
	}
	entries := make([]AliasEntry, 0, len(rows))
	for _, row := range rows {
		alias, err := pathutil.NormalizeAlias(row.Value)
		if err != nil {
			return nil, err
		}
		entries = append(entries, AliasEntry{Key: row.Key, Value: alias})
	}
	return entries, nil
}
