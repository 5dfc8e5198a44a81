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
package cache_test

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"mpbuild.dev/core/internal/cache"
)

func TestGetMiss(t *testing.T) {
	c := cache.New[string]()
	if _, ok := c.Get("missing"); ok {
		t.Error("expected miss for empty cache")
	}
}

func TestSetAndGet(t *testing.T) {
	c := cache.New[string]()
	c.Set("k", "v")
	got, ok := c.Get("k")
	if !ok || got != "v" {
		t.Errorf("Get() = %q, %v, want v, true", got, ok)
	}
}

func TestInvalidate(t *testing.T) {
	c := cache.New[string]()
	c.Set("k", "v")
	c.Invalidate("k")
	if _, ok := c.Get("k"); ok {
		t.Error("expected miss after Invalidate")
	}
	c.Invalidate("never-set") // must not panic
}

func TestGetOrLoadCachesResult(t *testing.T) {
	c := cache.New[int]()
	var loads atomic.Int32
	loader := func() (int, error) {
		loads.Add(1)
		return 42, nil
	}

	v, err := c.GetOrLoad("k", loader)
	if err != nil || v != 42 {
		t.Fatalf("GetOrLoad() = %d, %v", v, err)
	}
	v, err = c.GetOrLoad("k", loader)
	if err != nil || v != 42 {
		t.Fatalf("second GetOrLoad() = %d, %v", v, err)
	}
	if loads.Load() != 1 {
		t.Errorf("loader called %d times, want 1", loads.Load())
	}
}

func TestGetOrLoadConcurrentSingleFlight(t *testing.T) {
	c := cache.New[int]()
	var loads atomic.Int32
	loader := func() (int, error) {
		loads.Add(1)
		return 7, nil
	}

	var wg sync.WaitGroup
	for range 100 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := c.GetOrLoad("shared", loader); err != nil {
				t.Errorf("GetOrLoad failed: %v", err)
			}
		}()
	}
	wg.Wait()

	if loads.Load() != 1 {
		t.Errorf("loader called %d times, want 1", loads.Load())
	}
}

func TestGetOrLoadFailureAllowsRetry(t *testing.T) {
	c := cache.New[int]()
	var attempt atomic.Int32
	loader := func() (int, error) {
		n := attempt.Add(1)
		if n == 1 {
			return 0, errors.New("transient")
		}
		return 9, nil
	}

	if _, err := c.GetOrLoad("k", loader); err == nil {
		t.Fatal("expected first load to fail")
	}
	v, err := c.GetOrLoad("k", loader)
	if err != nil || v != 9 {
		t.Fatalf("retry GetOrLoad() = %d, %v, want 9, nil", v, err)
	}
}

func TestInvalidateAllowsReload(t *testing.T) {
	c := cache.New[int]()
	var n int
	loader := func() (int, error) {
		n++
		return n, nil
	}

	v, _ := c.GetOrLoad("k", loader)
	if v != 1 {
		t.Fatalf("first load = %d, want 1", v)
	}
	c.Invalidate("k")
	v, _ = c.GetOrLoad("k", loader)
	if v != 2 {
		t.Fatalf("load after invalidate = %d, want 2", v)
	}
}
