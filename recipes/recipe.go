// Copyright 2025 The Mallocbench Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package recipes knows how to acquire and build each allocator
// implementation with its native toolchain. A recipe never decides whether
// to build; callers gate on artifact presence via EnsureBuilt.
package recipes

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/mallocbench/mallocbench/common"
	"github.com/mallocbench/mallocbench/common/log"
	"github.com/mallocbench/mallocbench/fileutil"
)

type FetchConfig struct {
	// WorkDir is the directory source trees are placed under.
	WorkDir string

	// Tarball selects release-archive acquisition over git for the
	// implementations that support it (only glibc does). The two modes are
	// mutually exclusive per run.
	Tarball bool

	// TarballSum is the expected SHA-256 of the release archive, in hex.
	// When empty the computed digest is only reported.
	TarballSum string
}

type BuildConfig struct {
	// WorkDir is the directory source trees and install trees live under.
	WorkDir string

	// Jobs is the degree of build parallelism handed to the native build
	// system.
	Jobs int
}

type Recipe interface {
	// Fetch ensures the implementation's source tree is present under
	// cfg.WorkDir, cloning when absent and pulling when present.
	Fetch(cfg *FetchConfig) error

	// Build runs the implementation's native configure/build/install
	// steps, leaving shared libraries at the paths reported by Outputs.
	Build(cfg *BuildConfig) error

	// SrcDir returns the source directory relative to the work dir, or ""
	// when the implementation has no source of its own.
	SrcDir() string

	// Outputs returns every path, relative to the work dir, that Build
	// creates and Clean removes.
	Outputs() []string
}

// EnsureBuilt builds artifact via r only when the artifact file is missing.
// Presence of the artifact is the sole idempotency signal; there is no
// separate build-state ledger. Reports whether a build was performed.
func EnsureBuilt(artifact string, r Recipe, cfg *BuildConfig) (bool, error) {
	if artifact == "" {
		return false, nil
	}
	path := filepath.Join(cfg.WorkDir, artifact)
	ok, err := fileutil.FileExists(path)
	if err != nil {
		return false, err
	}
	if ok {
		log.Printf("Artifact %s is up to date", artifact)
		return false, nil
	}
	if err := r.Build(cfg); err != nil {
		return false, err
	}
	return true, nil
}

// Clean removes the build outputs of the given recipes. A path that is
// already absent is skipped, so Clean is idempotent.
func Clean(workDir string, rs []Recipe) error {
	seen := make(map[string]bool)
	for _, r := range rs {
		for _, out := range r.Outputs() {
			if seen[out] {
				continue
			}
			seen[out] = true
			path := filepath.Join(workDir, out)
			ok, err := fileutil.FileExists(path)
			if err != nil {
				return err
			}
			if !ok {
				continue
			}
			log.CommandPrintf("rm -rf %s", path)
			if err := os.RemoveAll(path); err != nil {
				return err
			}
		}
	}
	return nil
}

// runCmd runs name in dir, surfacing the delegated tool's stderr on failure.
func runCmd(dir string, env *common.Env, name string, args ...string) error {
	cmd := exec.Command(name, args...)
	if dir != "" {
		cmd.Dir = dir
	}
	if env != nil {
		cmd.Env = env.Collapse()
	}
	log.TraceCommand(cmd)
	// Use cmd.Output to get an ExitError with Stderr populated.
	if _, err := cmd.Output(); err != nil {
		if ee, ok := err.(*exec.ExitError); ok {
			return fmt.Errorf("%s: %v. stderr:\n%s", name, err, ee.Stderr)
		}
		return fmt.Errorf("%s: %v", name, err)
	}
	return nil
}

func makeJobs(jobs int) string {
	return fmt.Sprintf("-j%d", jobs)
}

func mkdirAll(path string) error {
	log.CommandPrintf("mkdir -p %s", path)
	return os.MkdirAll(path, os.ModePerm)
}
