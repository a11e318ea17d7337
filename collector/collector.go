// Copyright 2025 The Mallocbench Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package collector drives glibc's bench-malloc-thread utility once per
// (implementation, thread count) pair, injecting each allocator with
// LD_PRELOAD, and serializes the measurements to one JSON file per
// implementation.
package collector

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/mallocbench/mallocbench/common"
	"github.com/mallocbench/mallocbench/common/log"
	"github.com/mallocbench/mallocbench/fileutil"
)

// Target describes how one allocator implementation is injected into the
// benchmark utility.
type Target struct {
	Name string

	// Preload is the absolute path of the shared object to LD_PRELOAD, or
	// "" to run the utility with the environment untouched.
	Preload string

	// CxxRuntime also preloads the C++ support libraries; tcmalloc and
	// jemalloc fail to load without libstdc++ and libgcc_s.
	CxxRuntime bool

	// Launcher is prepended to the benchmark utility's argv. The locally
	// built glibc is exercised by running the utility through its own
	// dynamic linker this way.
	Launcher []string
}

type Config struct {
	// BenchUtil is the path to glibc's bench-malloc-thread.
	BenchUtil string

	// OutFile is the destination JSON path for the run. Its base name
	// becomes the per-implementation postfix: measurements for an
	// implementation X land in <dir>/X-<base>.
	OutFile string

	// Threads is the sweep of thread counts, run in order.
	Threads []int

	Targets []Target

	// LibSearchPaths overrides where the C++ support libraries are looked
	// for. Empty means /usr/lib, /lib, /lib64.
	LibSearchPaths []string
}

// requiredCxxLibs must be preloaded alongside any C++ allocator.
var requiredCxxLibs = []string{"libstdc++.so.6", "libgcc_s.so.1"}

// Run executes the sweep for every target. A single failed utility
// invocation is logged and skipped; Run fails only when every invocation
// failed, or when a preflight requirement is missing.
func Run(cfg *Config) error {
	if ok, err := fileutil.FileExists(cfg.BenchUtil); err != nil {
		return err
	} else if !ok {
		return fmt.Errorf("benchmark utility %s not found (did the glibc build run?)", cfg.BenchUtil)
	}
	for _, t := range cfg.Targets {
		if t.Preload == "" {
			continue
		}
		if ok, err := fileutil.FileExists(t.Preload); err != nil {
			return err
		} else if !ok {
			return fmt.Errorf("preload library %s for %s not found (did its build run?)", t.Preload, t.Name)
		}
	}
	cxxLibs, err := resolveCxxLibs(cfg)
	if err != nil {
		return err
	}

	dir, postfix := filepath.Split(cfg.OutFile)
	succeeded := 0
	for i := range cfg.Targets {
		t := &cfg.Targets[i]
		out := filepath.Join(dir, t.Name+"-"+postfix)
		log.Printf("Testing implementation %s", t.Name)
		log.Printf("Saving results into %s", out)
		n, err := runSweep(cfg, t, cxxLibs, out)
		if err != nil {
			return err
		}
		succeeded += n
	}
	if succeeded == 0 {
		return errors.New("every benchmark invocation failed")
	}
	return nil
}

func resolveCxxLibs(cfg *Config) ([]string, error) {
	needed := false
	for _, t := range cfg.Targets {
		if t.CxxRuntime {
			needed = true
			break
		}
	}
	if !needed {
		return nil, nil
	}
	roots := cfg.LibSearchPaths
	if len(roots) == 0 {
		roots = []string{"/usr/lib", "/lib", "/lib64"}
	}
	libs := make([]string, 0, len(requiredCxxLibs))
	for _, name := range requiredCxxLibs {
		path, err := findSharedLib(name, roots)
		if err != nil {
			return nil, err
		}
		log.Printf("Found required lib %s", path)
		libs = append(libs, path)
	}
	return libs, nil
}

// findSharedLib locates name under the given roots and resolves any symlink
// chain to the real file, since LD_PRELOAD entries should name the object
// itself.
func findSharedLib(name string, roots []string) (string, error) {
	for _, root := range roots {
		var found string
		filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				// Unreadable subtree; keep looking elsewhere.
				return nil
			}
			if !d.IsDir() && d.Name() == name {
				found = path
				return fs.SkipAll
			}
			return nil
		})
		if found == "" {
			continue
		}
		resolved, err := filepath.EvalSymlinks(found)
		if err != nil {
			return "", err
		}
		return resolved, nil
	}
	return "", fmt.Errorf("could not find required shared library %s", name)
}

// runSweep runs the utility at every thread count for one target and writes
// the JSON array of per-invocation measurement objects. Returns the number
// of successful invocations.
func runSweep(cfg *Config, t *Target, cxxLibs []string, outfile string) (int, error) {
	var objs [][]byte
	for _, nthreads := range cfg.Threads {
		argv := append(append([]string{}, t.Launcher...), cfg.BenchUtil, strconv.Itoa(nthreads))
		cmd := exec.Command(argv[0], argv[1:]...)
		if t.Preload != "" {
			env := common.NewEnvFromEnviron()
			if t.CxxRuntime && len(cxxLibs) > 0 {
				env = env.MustSet("LD_PRELOAD=" + strings.Join(cxxLibs, ":"))
				env = env.Prefix("LD_PRELOAD", t.Preload+":")
			} else {
				env = env.MustSet("LD_PRELOAD=" + t.Preload)
			}
			cmd.Env = env.Collapse()
		}
		var out bytes.Buffer
		cmd.Stdout = &out
		cmd.Stderr = os.Stderr
		log.TraceCommand(cmd)
		if err := cmd.Run(); err != nil {
			log.Printf("%s with %d threads failed: %v; skipping", t.Name, nthreads, err)
			continue
		}
		obj := bytes.TrimSpace(out.Bytes())
		if !json.Valid(obj) {
			log.Printf("%s with %d threads emitted invalid JSON; skipping", t.Name, nthreads)
			continue
		}
		objs = append(objs, obj)
	}
	return len(objs), writeResults(outfile, objs)
}

// writeResults assembles the measurement objects into a JSON array. An
// empty file is still written so the per-implementation result is visible
// even when every invocation failed.
func writeResults(outfile string, objs [][]byte) error {
	var buf bytes.Buffer
	buf.WriteByte('[')
	buf.Write(bytes.Join(objs, []byte(",\n")))
	buf.WriteString("]\n")
	if !json.Valid(buf.Bytes()) {
		return fmt.Errorf("assembled results for %s are not valid JSON", outfile)
	}
	return os.WriteFile(outfile, buf.Bytes(), 0644)
}
