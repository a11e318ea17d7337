// Copyright 2025 The Mallocbench Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package recipes

import (
	"path/filepath"

	"github.com/mallocbench/mallocbench/common/log"
	"github.com/mallocbench/mallocbench/fileutil"
)

const (
	glibcGitURL     = "https://sourceware.org/git/glibc.git"
	glibcTarballURL = "https://ftp.gnu.org/gnu/libc/glibc-2.39.tar.gz"

	glibcSrcDir     = "glibc"
	glibcBuildDir   = "glibc-build"
	glibcInstallDir = "glibc-install"

	// GlibcArtifact is the shared library produced by installing the
	// locally built glibc.
	GlibcArtifact = "glibc-install/lib/libc.so.6"

	// BenchUtil is the benchmark utility every implementation is measured
	// with. glibc's build system only produces it via the bench-build
	// target of a full out-of-tree build.
	BenchUtil = "glibc-build/benchtests/bench-malloc-thread"

	// GlibcLoader and GlibcLibDir let the utility run against the freshly
	// built glibc: the new dynamic linker is asked to load it with the new
	// library path instead of the host's.
	GlibcLoader = "glibc-install/lib/ld-linux-x86-64.so.2"
	GlibcLibDir = "glibc-install/lib"
)

type glibc struct{}

// Glibc builds GNU libc from upstream sources, along with the benchtests
// subtree that provides bench-malloc-thread.
func Glibc() Recipe { return glibc{} }

func (glibc) SrcDir() string { return glibcSrcDir }

func (glibc) Outputs() []string {
	return []string{glibcBuildDir, glibcInstallDir}
}

func (glibc) Fetch(cfg *FetchConfig) error {
	dir := filepath.Join(cfg.WorkDir, glibcSrcDir)
	if cfg.Tarball {
		return fetchTarball(dir, glibcTarballURL, cfg.TarballSum)
	}
	return cloneOrPull(dir, glibcGitURL)
}

func (glibc) Build(cfg *BuildConfig) error {
	build := filepath.Join(cfg.WorkDir, glibcBuildDir)
	// glibc refuses in-source builds, and configure wants absolute paths.
	configure, err := filepath.Abs(filepath.Join(cfg.WorkDir, glibcSrcDir, "configure"))
	if err != nil {
		return err
	}
	install, err := filepath.Abs(filepath.Join(cfg.WorkDir, glibcInstallDir))
	if err != nil {
		return err
	}
	if err := mkdirAll(build); err != nil {
		return err
	}
	if err := runCmd(build, nil, configure, "--prefix="+install); err != nil {
		return err
	}
	if err := runCmd(build, nil, "make", makeJobs(cfg.Jobs)); err != nil {
		return err
	}
	if err := runCmd(build, nil, "make", "install"); err != nil {
		return err
	}
	// The benchtests utilities cannot be built in isolation; bench-build
	// compiles the whole subtree.
	if err := runCmd(build, nil, "make", makeJobs(cfg.Jobs), "bench-build"); err != nil {
		return err
	}
	util := filepath.Join(cfg.WorkDir, BenchUtil)
	if ok, err := fileutil.FileExists(util); err != nil {
		return err
	} else if !ok {
		// Not fatal to the build; measurement will complain if it runs.
		log.Printf("warning: %s not found after bench-build; benchmarking will fail", util)
	}
	return nil
}
