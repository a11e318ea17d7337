// Copyright 2025 The Mallocbench Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"flag"
	"fmt"
	"io"

	"github.com/mallocbench/mallocbench/common"
	"github.com/mallocbench/mallocbench/recipes"
)

const allUsage = `Runs the whole pipeline in order: fetch, build, bench, plot. Each stage
depends on the previous one's artifacts, so the first failing stage stops
the run.

Usage: %s all [flags]
`

type allCmd struct {
	quiet      bool
	printCmd   bool
	workDir    string
	configPath string
	tarball    bool
	tarballSum string
	jobs       int
	threads    intsFlag
	label      string
	resultsDir string
	impls      csvFlag
	plotTool   string
}

func (*allCmd) Name() string     { return "all" }
func (*allCmd) Synopsis() string { return "Runs fetch, build, bench and plot in order." }
func (*allCmd) PrintUsage(w io.Writer, base string) {
	fmt.Fprintf(w, allUsage, base)
	fmt.Fprint(w, common.ConfigHelp)
	fmt.Fprintln(w)
}

func (c *allCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.quiet, "quiet", false, "whether to suppress activity output on stderr")
	f.BoolVar(&c.printCmd, "shell", false, "whether to print the commands being executed to stdout")
	f.StringVar(&c.workDir, "work-dir", ".", "directory source and install trees live under")
	f.StringVar(&c.configPath, "config", "", "optional TOML configuration file")
	f.BoolVar(&c.tarball, "tarball", false, "fetch the glibc release archive instead of cloning")
	f.StringVar(&c.tarballSum, "tarball-sha256", "", "expected digest of the release archive (empty: report only)")
	f.IntVar(&c.jobs, "jobs", 0, "parallel jobs for native builds (default: number of logical CPUs)")
	f.Var(&c.threads, "threads", "comma-separated thread counts to sweep (default: 1,2,4,8,16)")
	f.StringVar(&c.label, "label", "", "label for this run's outputs (default: host name)")
	f.StringVar(&c.resultsDir, "results", "", "results directory (default: results/<timestamp>--<label>)")
	f.Var(&c.impls, "impls", "comma-separated implementations to process (default: all)")
	f.StringVar(&c.plotTool, "tool", defaultPlotTool, "plotting tool to invoke")
}

func (c *allCmd) Run(_ []string) error {
	setupLogs(c.printCmd, c.quiet)
	rc, err := resolveConfig(c.configPath, func(fc *common.FileConfig) {
		if c.tarball {
			fc.Tarball = true
		}
		if c.jobs != 0 {
			fc.Jobs = c.jobs
		}
		if len(c.threads) != 0 {
			fc.Threads = c.threads
		}
		if c.label != "" {
			fc.Label = c.label
		}
		if c.resultsDir != "" {
			fc.Results = c.resultsDir
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
	if err := doFetch(impls, &recipes.FetchConfig{
		WorkDir:    workDir,
		Tarball:    rc.Tarball,
		TarballSum: c.tarballSum,
	}); err != nil {
		return err
	}
	if err := doBuild(impls, &recipes.BuildConfig{
		WorkDir: workDir,
		Jobs:    rc.Jobs,
	}); err != nil {
		return err
	}
	if err := doBench(rc, impls, workDir); err != nil {
		return err
	}
	return doPlot(rc.ResultsDir, c.plotTool)
}
