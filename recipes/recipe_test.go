// Copyright 2025 The Mallocbench Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package recipes_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/mallocbench/mallocbench/recipes"
)

// stubRecipe counts invocations and materializes its outputs on Build, so
// the idempotency rules can be checked without any real toolchain.
type stubRecipe struct {
	src     string
	outs    []string
	fetched int
	built   int
}

func (s *stubRecipe) Fetch(*recipes.FetchConfig) error { s.fetched++; return nil }
func (s *stubRecipe) SrcDir() string                   { return s.src }
func (s *stubRecipe) Outputs() []string                { return s.outs }

func (s *stubRecipe) Build(cfg *recipes.BuildConfig) error {
	s.built++
	for _, out := range s.outs {
		path := filepath.Join(cfg.WorkDir, out)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return err
		}
		if err := os.WriteFile(path, []byte("so"), 0644); err != nil {
			return err
		}
	}
	return nil
}

func TestEnsureBuilt(t *testing.T) {
	work := t.TempDir()
	r := &stubRecipe{src: "stub", outs: []string{"stub-install/lib/libstub.so"}}
	cfg := &recipes.BuildConfig{WorkDir: work, Jobs: 1}

	built, err := recipes.EnsureBuilt(r.outs[0], r, cfg)
	if err != nil {
		t.Fatal(err)
	}
	if !built || r.built != 1 {
		t.Fatalf("first EnsureBuilt: built=%v invocations=%d, want true/1", built, r.built)
	}

	// The artifact now exists, so no further build may run.
	built, err = recipes.EnsureBuilt(r.outs[0], r, cfg)
	if err != nil {
		t.Fatal(err)
	}
	if built || r.built != 1 {
		t.Fatalf("second EnsureBuilt: built=%v invocations=%d, want false/1", built, r.built)
	}
}

func TestEnsureBuiltNoArtifact(t *testing.T) {
	r := &stubRecipe{}
	built, err := recipes.EnsureBuilt("", r, &recipes.BuildConfig{WorkDir: t.TempDir(), Jobs: 1})
	if err != nil {
		t.Fatal(err)
	}
	if built || r.built != 0 {
		t.Fatalf("implementation without artifact must not build: built=%v invocations=%d", built, r.built)
	}
}

func TestClean(t *testing.T) {
	work := t.TempDir()
	r := &stubRecipe{outs: []string{"a-install/lib/liba.so", "a-build/bench"}}
	if err := r.Build(&recipes.BuildConfig{WorkDir: work, Jobs: 1}); err != nil {
		t.Fatal(err)
	}
	keep := filepath.Join(work, "unrelated")
	if err := os.WriteFile(keep, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	if err := recipes.Clean(work, []recipes.Recipe{r}); err != nil {
		t.Fatal(err)
	}
	for _, out := range r.outs {
		if _, err := os.Stat(filepath.Join(work, out)); !os.IsNotExist(err) {
			t.Errorf("%s still present after clean", out)
		}
	}
	if _, err := os.Stat(keep); err != nil {
		t.Errorf("clean touched an untracked path: %v", err)
	}

	// Everything is already gone; a second clean must not fail.
	if err := recipes.Clean(work, []recipes.Recipe{r}); err != nil {
		t.Fatalf("clean is not idempotent: %v", err)
	}
}

func TestCleanThenRebuild(t *testing.T) {
	work := t.TempDir()
	r := &stubRecipe{outs: []string{"b-install/lib/libb.so"}}
	cfg := &recipes.BuildConfig{WorkDir: work, Jobs: 1}

	if _, err := recipes.EnsureBuilt(r.outs[0], r, cfg); err != nil {
		t.Fatal(err)
	}
	if err := recipes.Clean(work, []recipes.Recipe{r}); err != nil {
		t.Fatal(err)
	}
	built, err := recipes.EnsureBuilt(r.outs[0], r, cfg)
	if err != nil {
		t.Fatal(err)
	}
	if !built || r.built != 2 {
		t.Fatalf("rebuild after clean: built=%v invocations=%d, want true/2", built, r.built)
	}
}
