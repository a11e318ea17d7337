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

const buildUsage = `Builds the selected implementations with their native build systems. An
implementation whose built artifact already exists is skipped; artifact
presence is the only idempotency signal. Run clean to force rebuilds.

Usage: %s build [flags]
`

type buildCmd struct {
	quiet      bool
	printCmd   bool
	workDir    string
	configPath string
	jobs       int
	impls      csvFlag
}

func (*buildCmd) Name() string     { return "build" }
func (*buildCmd) Synopsis() string { return "Builds allocator shared libraries that are missing." }
func (*buildCmd) PrintUsage(w io.Writer, base string) {
	fmt.Fprintf(w, buildUsage, base)
}

func (c *buildCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.quiet, "quiet", false, "whether to suppress activity output on stderr")
	f.BoolVar(&c.printCmd, "shell", false, "whether to print the commands being executed to stdout")
	f.StringVar(&c.workDir, "work-dir", ".", "directory source and install trees live under")
	f.StringVar(&c.configPath, "config", "", "optional TOML configuration file")
	f.IntVar(&c.jobs, "jobs", 0, "parallel jobs for native builds (default: number of logical CPUs)")
	f.Var(&c.impls, "impls", "comma-separated implementations to build (default: all)")
}

func (c *buildCmd) Run(_ []string) error {
	setupLogs(c.printCmd, c.quiet)
	rc, err := resolveConfig(c.configPath, func(fc *common.FileConfig) {
		if c.jobs != 0 {
			fc.Jobs = c.jobs
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
	return doBuild(impls, &recipes.BuildConfig{
		WorkDir: workDir,
		Jobs:    rc.Jobs,
	})
}

// doBuild ensures each selected implementation's artifact exists, building
// only what is missing. One implementation's failure does not prevent
// attempting the next; the first error is reported at the end.
func doBuild(impls []*impl, bcfg *recipes.BuildConfig) error {
	log.Printf("Building: %s (%d jobs)", strings.Join(implNames(impls), " "), bcfg.Jobs)
	var firstErr error
	for _, im := range impls {
		built, err := recipes.EnsureBuilt(im.artifact, im.recipe, bcfg)
		if err != nil {
			log.Error(fmt.Errorf("build %s: %v", im.name, err))
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if built {
			log.Printf("Built %s", im.name)
		}
	}
	return firstErr
}
