// Copyright 2025 The Mallocbench Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package recipes

import "path/filepath"

const (
	gperftoolsGitURL = "https://github.com/gperftools/gperftools.git"
	gperftoolsSrcDir = "gperftools"

	tcmallocInstallDir = "tcmalloc-install"

	// TCMallocArtifact is the shared library preloaded to inject tcmalloc
	// into the benchmark utility.
	TCMallocArtifact = "tcmalloc-install/lib/libtcmalloc.so"
)

type gperftools struct{}

// Gperftools builds tcmalloc from the gperftools sources.
func Gperftools() Recipe { return gperftools{} }

func (gperftools) SrcDir() string { return gperftoolsSrcDir }

func (gperftools) Outputs() []string {
	return []string{tcmallocInstallDir}
}

func (gperftools) Fetch(cfg *FetchConfig) error {
	return cloneOrPull(filepath.Join(cfg.WorkDir, gperftoolsSrcDir), gperftoolsGitURL)
}

func (gperftools) Build(cfg *BuildConfig) error {
	src := filepath.Join(cfg.WorkDir, gperftoolsSrcDir)
	install, err := filepath.Abs(filepath.Join(cfg.WorkDir, tcmallocInstallDir))
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
	return runCmd(src, nil, "make", "install")
}
