// Copyright 2025 The Mallocbench Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package common

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/BurntSushi/toml"
)

const Version = "0.2.0"

// timestampFormat names per-run results directories. It is ISO-like but
// filesystem-safe, and sorts lexicographically.
const timestampFormat = "2006-01-02-150405"

const ConfigHelp = `
The optional configuration file is TOML with the following fields, all
optional; command-line flags take precedence over the file, and built-in
defaults fill in the rest:

  threads: thread counts to sweep during benchmarking (default [1,2,4,8,16])
     jobs: parallel jobs for native builds (default: number of logical CPUs)
    label: label distinguishing this run (default: host name)
  results: directory for this run's output files
           (default: results/<timestamp>--<label>)
  tarball: fetch the glibc release archive instead of cloning (default false)
    impls: implementations to process (default: all known)

For example:

  threads = [1, 4, 16]
  impls = ["glibc", "jemalloc"]
`

// FileConfig mirrors the TOML configuration file. Zero values mean "unset";
// Resolve fills in the documented defaults.
type FileConfig struct {
	Threads []int    `toml:"threads"`
	Jobs    int      `toml:"jobs"`
	Label   string   `toml:"label"`
	Results string   `toml:"results"`
	Tarball bool     `toml:"tarball"`
	Impls   []string `toml:"impls"`
}

// RunConfig is the fully resolved configuration for one invocation. It is
// computed once, up front, and never mutated afterwards.
type RunConfig struct {
	Threads    []int
	Jobs       int
	Label      string
	ResultsDir string
	Tarball    bool
	Impls      []string
}

func LoadFileConfig(path string) (*FileConfig, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %q: %v", path, err)
	}
	var fc FileConfig
	if err := toml.Unmarshal(b, &fc); err != nil {
		return nil, fmt.Errorf("parsing config %q: %v", path, err)
	}
	for _, n := range fc.Threads {
		if n <= 0 {
			return nil, fmt.Errorf("config %q: thread count %d is not positive", path, n)
		}
	}
	if fc.Jobs < 0 {
		return nil, fmt.Errorf("config %q: jobs %d is not positive", path, fc.Jobs)
	}
	return &fc, nil
}

func DefaultThreads() []int {
	return []int{1, 2, 4, 8, 16}
}

// Resolve produces the immutable run configuration from a file configuration
// (which may be nil), applying defaults for everything left unset. Callers
// overlay flag values onto fc before resolving.
func Resolve(fc *FileConfig) (*RunConfig, error) {
	if fc == nil {
		fc = &FileConfig{}
	}
	rc := &RunConfig{
		Threads: fc.Threads,
		Jobs:    fc.Jobs,
		Label:   fc.Label,
		Tarball: fc.Tarball,
		Impls:   fc.Impls,
	}
	if len(rc.Threads) == 0 {
		rc.Threads = DefaultThreads()
	}
	if rc.Jobs == 0 {
		rc.Jobs = runtime.NumCPU()
	}
	if rc.Label == "" {
		host, err := os.Hostname()
		if err != nil {
			return nil, fmt.Errorf("determining host name for run label: %v", err)
		}
		rc.Label = host
	}
	rc.ResultsDir = fc.Results
	if rc.ResultsDir == "" {
		stamp := time.Now().Format(timestampFormat)
		rc.ResultsDir = filepath.Join("results", stamp+"--"+rc.Label)
	}
	return rc, nil
}
