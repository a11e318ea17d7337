// Copyright 2025 The Mallocbench Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/mallocbench/mallocbench/collector"
	"github.com/mallocbench/mallocbench/recipes"
)

type impl struct {
	name        string
	description string
	recipe      recipes.Recipe

	// artifact is the built shared library, relative to the work dir;
	// "" when nothing needs building. Its presence is what makes the
	// build stage a no-op.
	artifact string

	// preload is the library injected via LD_PRELOAD at measurement time;
	// "" runs the benchmark utility with the environment untouched.
	preload string

	// cxxRuntime marks allocators that need libstdc++/libgcc_s preloaded
	// alongside them.
	cxxRuntime bool

	// ownLinker runs the benchmark utility through the freshly built
	// glibc's dynamic linker instead of the host's.
	ownLinker bool
}

// The two fast_malloc variants come out of one source tree and one build.
var fastMallocRecipe = recipes.FastMalloc()

var allImpls = []impl{
	{
		name:        "system_default",
		description: "Whatever allocator the host's stock libc provides",
		recipe:      recipes.None(),
	},
	{
		name:        "glibc",
		description: "GNU libc malloc built from upstream sources",
		recipe:      recipes.Glibc(),
		artifact:    recipes.GlibcArtifact,
		ownLinker:   true,
	},
	{
		name:        "tcmalloc",
		description: "tcmalloc from the gperftools project",
		recipe:      recipes.Gperftools(),
		artifact:    recipes.TCMallocArtifact,
		preload:     recipes.TCMallocArtifact,
		cxxRuntime:  true,
	},
	{
		name:        "jemalloc",
		description: "jemalloc built from upstream sources",
		recipe:      recipes.Jemalloc(),
		artifact:    recipes.JemallocArtifact,
		preload:     recipes.JemallocArtifact,
		cxxRuntime:  true,
	},
	{
		name:        "fast_malloc_1MiB",
		description: "fast_malloc with a 1 MiB static arena",
		recipe:      fastMallocRecipe,
		artifact:    recipes.FastMalloc1MiBArtifact,
		preload:     recipes.FastMalloc1MiBArtifact,
	},
	{
		name:        "fast_malloc_1GiB",
		description: "fast_malloc with a 1 GiB static arena",
		recipe:      fastMallocRecipe,
		artifact:    recipes.FastMalloc1GiBArtifact,
		preload:     recipes.FastMalloc1GiBArtifact,
	},
}

var allImplsMap = func() map[string]*impl {
	m := make(map[string]*impl)
	for i := range allImpls {
		m[allImpls[i].name] = &allImpls[i]
	}
	return m
}()

// selectImpls resolves a selection into implementations in declaration
// order. An empty selection means every known implementation. Unknown names
// are rejected outright rather than silently skipped.
func selectImpls(names []string) ([]*impl, error) {
	if len(names) == 0 {
		sel := make([]*impl, 0, len(allImpls))
		for i := range allImpls {
			sel = append(sel, &allImpls[i])
		}
		return sel, nil
	}
	var unknown []string
	picked := make(map[string]bool)
	for _, name := range names {
		if _, ok := allImplsMap[name]; ok {
			picked[name] = true
		} else {
			unknown = append(unknown, name)
		}
	}
	if len(unknown) != 0 {
		return nil, fmt.Errorf("unknown implementations: %s", strings.Join(unknown, ", "))
	}
	var sel []*impl
	for i := range allImpls {
		if picked[allImpls[i].name] {
			sel = append(sel, &allImpls[i])
		}
	}
	return sel, nil
}

func implNames(impls []*impl) (s []string) {
	for _, im := range impls {
		s = append(s, im.name)
	}
	return
}

// uniqueRecipes deduplicates the recipes backing a selection; the two
// fast_malloc variants share one.
func uniqueRecipes(impls []*impl) []recipes.Recipe {
	seen := make(map[recipes.Recipe]bool)
	var rs []recipes.Recipe
	for _, im := range impls {
		if seen[im.recipe] {
			continue
		}
		seen[im.recipe] = true
		rs = append(rs, im.recipe)
	}
	return rs
}

// target maps an implementation onto its measurement settings. workDir must
// be absolute.
func (im *impl) target(workDir string) collector.Target {
	t := collector.Target{
		Name:       im.name,
		CxxRuntime: im.cxxRuntime,
	}
	if im.preload != "" {
		t.Preload = filepath.Join(workDir, im.preload)
	}
	if im.ownLinker {
		t.Launcher = []string{
			filepath.Join(workDir, recipes.GlibcLoader),
			"--library-path", filepath.Join(workDir, recipes.GlibcLibDir),
		}
	}
	return t
}
