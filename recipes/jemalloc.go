// Copyright 2025 The Mallocbench Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package recipes

import "path/filepath"

const (
	jemallocGitURL = "https://github.com/jemalloc/jemalloc.git"
	jemallocSrcDir = "jemalloc"

	jemallocInstallDir = "jemalloc-install"

	// JemallocArtifact is the shared library preloaded to inject jemalloc
	// into the benchmark utility.
	JemallocArtifact = "jemalloc-install/lib/libjemalloc.so"
)

type jemalloc struct{}

func Jemalloc() Recipe { return jemalloc{} }

func (jemalloc) SrcDir() string { return jemallocSrcDir }

func (jemalloc) Outputs() []string {
	return []string{jemallocInstallDir}
}

func (jemalloc) Fetch(cfg *FetchConfig) error {
	return cloneOrPull(filepath.Join(cfg.WorkDir, jemallocSrcDir), jemallocGitURL)
}

func (jemalloc) Build(cfg *BuildConfig) error {
	src := filepath.Join(cfg.WorkDir, jemallocSrcDir)
	install, err := filepath.Abs(filepath.Join(cfg.WorkDir, jemallocInstallDir))
	if err != nil {
		return err
	}
	if err := runCmd(src, nil, "./autogen.sh"); err != nil {
		return err
	}
	if err := runCmd(src, nil, "./configure", "--prefix="+install); err != nil {
		return err
	}
	if err := runCmd(src, nil, "make", makeJobs(cfg.Jobs)); err != nil {
		return err
	}
	// install_lib_shared skips the man pages, which need xsltproc.
	return runCmd(src, nil, "make", "install_lib_shared", "install_include")
}
