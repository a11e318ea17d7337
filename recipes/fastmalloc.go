// Copyright 2025 The Mallocbench Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package recipes

import "path/filepath"

const (
	fastMallocGitURL   = "https://github.com/f18m/fast_malloc.git"
	fastMallocSrcDir   = "fast_malloc"
	fastMallocBuildDir = "fast_malloc/build"

	// The vendored build script emits one shared object per static arena
	// size; the two are distinct implementations only at measurement time.
	FastMalloc1MiBArtifact = "fast_malloc/build/libfast_malloc_1MiB.so"
	FastMalloc1GiBArtifact = "fast_malloc/build/libfast_malloc_1GiB.so"
)

type fastMalloc struct{}

// FastMalloc builds the custom allocator via its vendored build script.
// Both arena variants come out of a single build.
func FastMalloc() Recipe { return fastMalloc{} }

func (fastMalloc) SrcDir() string { return fastMallocSrcDir }

func (fastMalloc) Outputs() []string {
	return []string{fastMallocBuildDir}
}

func (fastMalloc) Fetch(cfg *FetchConfig) error {
	return cloneOrPull(filepath.Join(cfg.WorkDir, fastMallocSrcDir), fastMallocGitURL)
}

func (fastMalloc) Build(cfg *BuildConfig) error {
	src := filepath.Join(cfg.WorkDir, fastMallocSrcDir)
	return runCmd(src, nil, "./build.sh")
}
