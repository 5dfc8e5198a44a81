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
package build

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"mpbuild.dev/core/asset"
	"mpbuild.dev/core/config"
	"mpbuild.dev/core/fs"
)

// DefaultConcurrency bounds the worker pool when Options.Concurrency is
// unset (zero).
const DefaultConcurrency = 8

// Result is the outcome of a single Asset's processing, paired with the
// source path it came from so Build can report per-file failures.
type Result struct {
	Path     string
	Outcomes []asset.Outcome
	Err      error
}

// Pool runs the Asset lifecycle over an entry set and everything they
// transitively require, bounded to a fixed number of concurrent workers.
// Teacher's resolve/local/local.go hand-rolled this fan-out with a
// sync.WaitGroup and a buffered channel used as a semaphore; errgroup's
// SetLimit is the same bounded-parallelism idea with first-error
// cancellation built in. Newly-discovered dependencies go into the next
// wave's group rather than back into the running one (see Run).
type Pool struct {
	pipeline *asset.Pipeline

	mu      sync.Mutex
	visited map[string]bool
	results []Result
}

// NewPool constructs a Pool backed by a fresh asset.Pipeline using hooksFor
// (typically DefaultHooksFor(), or a wrapper that overrides specific
// extensions).
func NewPool(fsys fs.FileSystem, opts config.Options, hooksFor func(ext string) asset.Hooks) (*Pool, error) {
	pipeline, err := asset.NewPipeline(fsys, opts, hooksFor)
	if err != nil {
		return nil, err
	}
	return &Pool{
		pipeline: pipeline,
		visited:  make(map[string]bool),
	}, nil
}

// Pipeline returns the pool's underlying asset.Pipeline, e.g. for
// inspecting its Graph() after a build.
func (p *Pool) Pipeline() *asset.Pipeline { return p.pipeline }

// Run processes every path in entries, and every dependency transitively
// discovered from them, across a bounded worker pool. Processing happens
// in waves: one errgroup per BFS depth, bounded by SetLimit, with Wait()
// as the barrier between a depth and the next. A single errgroup fed by
// goroutines that call Go() on themselves to submit their own newly
// discovered dependencies can deadlock once every slot is held by a
// goroutine blocked trying to acquire a slot for its child - the wave
// barrier sidesteps that by only ever submitting work from outside a
// running goroutine. Run returns once all reachable assets have been
// processed or the first error is observed.
func (p *Pool) Run(ctx context.Context, entries []string, concurrency int) ([]Result, error) {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}

	pending := make([]string, 0, len(entries))
	for _, e := range entries {
		if !p.markVisited(e) {
			continue
		}
		pending = append(pending, e)
	}

	for len(pending) > 0 {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(concurrency)

		var nextMu sync.Mutex
		var next []string

		for _, path := range pending {
			path := path
			g.Go(func() error {
				select {
				case <-gctx.Done():
					return gctx.Err()
				default:
				}

				a := p.pipeline.NewAsset(path)
				outcomes, err := a.Process()

				p.mu.Lock()
				p.results = append(p.results, Result{Path: path, Outcomes: outcomes, Err: err})
				p.mu.Unlock()

				if err != nil {
					return err
				}
				for _, dep := range a.Dependencies {
					if dep.Elided || dep.IncludedInParent {
						continue
					}
					if !p.markVisited(dep.AbsolutePath) {
						continue
					}
					nextMu.Lock()
					next = append(next, dep.AbsolutePath)
					nextMu.Unlock()
				}
				return nil
			})
		}

		if err := g.Wait(); err != nil {
			p.mu.Lock()
			defer p.mu.Unlock()
			return p.results, err
		}
		pending = next
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	return p.results, nil
}

// markVisited records path as seen and reports whether this call was the
// first to do so.
func (p *Pool) markVisited(path string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.visited[path] {
		return false
	}
	p.visited[path] = true
	return true
}
