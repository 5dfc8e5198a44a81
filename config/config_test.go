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
package config_test

import (
	"path/filepath"
	"reflect"
	"testing"

	"mpbuild.dev/core/config"
)

func TestNormalizeFillsDefaults(t *testing.T) {
	opts, err := config.Options{SourceDir: "src", RootDir: "."}.Normalize()
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	if !filepath.IsAbs(opts.SourceDir) {
		t.Errorf("SourceDir = %q, want absolute", opts.SourceDir)
	}
	if !filepath.IsAbs(opts.RootDir) {
		t.Errorf("RootDir = %q, want absolute", opts.RootDir)
	}
	if opts.OutDir != "" {
		t.Errorf("OutDir = %q, want empty when unset", opts.OutDir)
	}
	if opts.Logger == nil {
		t.Error("Logger = nil, want a default nop logger")
	}
	if !reflect.DeepEqual(opts.Conditions, config.DefaultConditions) {
		t.Errorf("Conditions = %v, want %v", opts.Conditions, config.DefaultConditions)
	}
}

func TestNormalizePreservesExplicitConditionsAndLogger(t *testing.T) {
	logger := &config.StdLogger{Verbose: true}
	custom := []string{"require", "default"}
	opts, err := config.Options{
		SourceDir:  "src",
		RootDir:    ".",
		Logger:     logger,
		Conditions: custom,
	}.Normalize()
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	if opts.Logger != logger {
		t.Error("expected explicit Logger to be preserved")
	}
	if !reflect.DeepEqual(opts.Conditions, custom) {
		t.Errorf("Conditions = %v, want %v", opts.Conditions, custom)
	}
}

func TestNormalizeDoesNotMutateReceiver(t *testing.T) {
	original := config.Options{SourceDir: "src", RootDir: "."}
	if _, err := original.Normalize(); err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	if original.SourceDir != "src" {
		t.Errorf("receiver.SourceDir = %q, want unchanged %q", original.SourceDir, "src")
	}
	if original.Logger != nil {
		t.Error("receiver.Logger should remain nil; Normalize must not mutate its receiver")
	}
}

func TestParseAliasTablePreservesOrderAndBothValueForms(t *testing.T) {
	raw := []byte(`[
		{"key": "@app/", "value": "./src/"},
		{"key": "@shared/", "value": {"path": "./shared/", "dist": "assets"}}
	]`)

	entries, err := config.ParseAliasTable(raw)
	if err != nil {
		t.Fatalf("ParseAliasTable failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	if entries[0].Key != "@app/" || entries[0].Value.Path != "./src/" || entries[0].Value.Dist != "" {
		t.Errorf("entries[0] = %+v", entries[0])
	}
	if entries[1].Key != "@shared/" || entries[1].Value.Path != "./shared/" || entries[1].Value.Dist != "assets" {
		t.Errorf("entries[1] = %+v", entries[1])
	}
}
