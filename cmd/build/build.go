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

// Package build provides the build command for mpbuild.
package build

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"mpbuild.dev/core/build"
	"mpbuild.dev/core/config"
	"mpbuild.dev/core/fs"
)

// Cmd is the build cobra command that runs the full pipeline over a
// mini-program source tree.
var Cmd = &cobra.Command{
	Use:   "build",
	Short: "Build a mini-program source tree into dist",
	Long: `Resolve every entry file's dependencies and write the built output tree.

Entries are matched against sourceDir with doublestar glob syntax, so a
single pattern like "pages/**/*.json" or "app.json" can name the whole
app's entry points.`,
	Example: `  # Build with app.json as the sole entry
  mpbuild build --source ./miniprogram --out ./dist --entry app.json

  # Build every page config under pages/
  mpbuild build --entry "pages/**/*.json" --entry app.json`,
	RunE: run,
}

func init() {
	Cmd.Flags().String("source", ".", "Source directory")
	Cmd.Flags().String("root", "", "Root directory (defaults to source)")
	Cmd.Flags().String("out", "dist", "Output directory")
	Cmd.Flags().StringSlice("entry", nil, "Entry file or glob (can be repeated)")
	Cmd.Flags().StringSlice("ext", []string{".js", ".json", ".wxml", ".wxs"}, "Extensions probed when resolving an extensionless request")
	Cmd.Flags().String("target", "", "Resolution target (\"browser\" consults pkg.browser)")
	Cmd.Flags().Int("concurrency", 0, "Max in-flight assets (0 selects the default)")

	_ = viper.BindPFlag("source", Cmd.Flags().Lookup("source"))
	_ = viper.BindPFlag("root", Cmd.Flags().Lookup("root"))
	_ = viper.BindPFlag("out", Cmd.Flags().Lookup("out"))
	_ = viper.BindPFlag("entry", Cmd.Flags().Lookup("entry"))
	_ = viper.BindPFlag("ext", Cmd.Flags().Lookup("ext"))
	_ = viper.BindPFlag("target", Cmd.Flags().Lookup("target"))
	_ = viper.BindPFlag("concurrency", Cmd.Flags().Lookup("concurrency"))
}

func run(cmd *cobra.Command, args []string) error {
	sourceDir, err := filepath.Abs(viper.GetString("source"))
	if err != nil {
		return fmt.Errorf("invalid source directory: %w", err)
	}
	rootDir := viper.GetString("root")
	if rootDir == "" {
		rootDir = sourceDir
	} else if rootDir, err = filepath.Abs(rootDir); err != nil {
		return fmt.Errorf("invalid root directory: %w", err)
	}

	entries := viper.GetStringSlice("entry")
	if len(entries) == 0 {
		return fmt.Errorf("at least one --entry is required")
	}

	opts := config.Options{
		SourceDir:   sourceDir,
		RootDir:     rootDir,
		OutDir:      viper.GetString("out"),
		Extensions:  viper.GetStringSlice("ext"),
		Target:      viper.GetString("target"),
		EntryFiles:  entries,
		Concurrency: viper.GetInt("concurrency"),
		Logger:      &config.StdLogger{Verbose: viper.GetBool("verbose")},
	}

	osfs := fs.NewOSFileSystem()
	results, err := build.Build(context.Background(), osfs, opts)
	if err != nil {
		return fmt.Errorf("build failed: %w", err)
	}

	written, ignored := 0, 0
	for _, r := range results {
		for _, o := range r.Outcomes {
			if o.Ignore {
				ignored++
			} else {
				written++
			}
		}
	}
	fmt.Printf("built %d assets (%d written, %d ignored)\n", len(results), written, ignored)
	return nil
}
