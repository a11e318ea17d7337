// Copyright 2025 The Mallocbench Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/mallocbench/mallocbench/common"
	"github.com/mallocbench/mallocbench/common/log"
	"github.com/mallocbench/mallocbench/recipes"
)

const fetchUsage = `Ensures the sources of the selected implementations are present: clones them
when absent, pulls when present. With -tarball, glibc is fetched as a pinned
release archive instead (only when its source directory does not exist yet).

Usage: %s fetch [flags]
`

type fetchCmd struct {
	quiet      bool
	printCmd   bool
	workDir    string
	configPath string
	tarball    bool
	tarballSum string
	impls      csvFlag
}

func (*fetchCmd) Name() string     { return "fetch" }
func (*fetchCmd) Synopsis() string { return "Downloads or updates allocator sources." }
func (*fetchCmd) PrintUsage(w io.Writer, base string) {
	fmt.Fprintf(w, fetchUsage, base)
}

func (c *fetchCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.quiet, "quiet", false, "whether to suppress activity output on stderr")
	f.BoolVar(&c.printCmd, "shell", false, "whether to print the commands being executed to stdout")
	f.StringVar(&c.workDir, "work-dir", ".", "directory source and install trees live under")
	f.StringVar(&c.configPath, "config", "", "optional TOML configuration file")
	f.BoolVar(&c.tarball, "tarball", false, "fetch the glibc release archive instead of cloning")
	f.StringVar(&c.tarballSum, "tarball-sha256", "", "expected digest of the release archive (empty: report only)")
	f.Var(&c.impls, "impls", "comma-separated implementations to fetch (default: all)")
}

func (c *fetchCmd) Run(_ []string) error {
	setupLogs(c.printCmd, c.quiet)
	rc, err := resolveConfig(c.configPath, func(fc *common.FileConfig) {
		if c.tarball {
			fc.Tarball = true
		}
		if len(c.impls) != 0 {
			fc.Impls = c.impls
		}
	})
	if err != nil {
		return err
	}
	impls, err := selectImpls(rc.Impls)
	if err != nil {
		return err
	}
	workDir, err := absWorkDir(c.workDir)
	if err != nil {
		return err
	}
	return doFetch(impls, &recipes.FetchConfig{
		WorkDir:    workDir,
		Tarball:    rc.Tarball,
		TarballSum: c.tarballSum,
	})
}

// doFetch acquires the sources of every selected implementation. A failure
// aborts only that implementation's acquisition; the rest are still
// attempted, and the first error is reported at the end.
func doFetch(impls []*impl, fcfg *recipes.FetchConfig) error {
	log.Printf("Fetching sources: %s", strings.Join(implNames(impls), " "))
	seen := make(map[recipes.Recipe]bool)
	var firstErr error
	for _, im := range impls {
		if seen[im.recipe] {
			continue
		}
		seen[im.recipe] = true
		if im.recipe.SrcDir() == "" {
			continue
		}
		log.Printf("Fetching %s", im.name)
		if err := im.recipe.Fetch(fcfg); err != nil {
			log.Error(fmt.Errorf("fetch %s: %v", im.name, err))
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}
