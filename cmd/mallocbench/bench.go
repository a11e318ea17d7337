// Copyright 2025 The Mallocbench Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"flag"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/mallocbench/mallocbench/collector"
	"github.com/mallocbench/mallocbench/common"
	"github.com/mallocbench/mallocbench/common/log"
	"github.com/mallocbench/mallocbench/recipes"
	"github.com/mallocbench/mallocbench/sysinfo"
)

const benchUsage = `Runs the benchmark sweep: records the machine's hardware inventory, then
drives glibc's bench-malloc-thread utility once per selected implementation
and thread count, collecting measurements as JSON files in the results
directory. Requires the build stage to have run.

Usage: %s bench [flags]
`

type benchCmd struct {
	quiet      bool
	printCmd   bool
	workDir    string
	configPath string
	threads    intsFlag
	label      string
	resultsDir string
	impls      csvFlag
}

func (*benchCmd) Name() string     { return "bench" }
func (*benchCmd) Synopsis() string { return "Runs the benchmark sweep and collects JSON results." }
func (*benchCmd) PrintUsage(w io.Writer, base string) {
	fmt.Fprintf(w, benchUsage, base)
	fmt.Fprint(w, common.ConfigHelp)
	fmt.Fprintln(w)
}

func (c *benchCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.quiet, "quiet", false, "whether to suppress activity output on stderr")
	f.BoolVar(&c.printCmd, "shell", false, "whether to print the commands being executed to stdout")
	f.StringVar(&c.workDir, "work-dir", ".", "directory source and install trees live under")
	f.StringVar(&c.configPath, "config", "", "optional TOML configuration file")
	f.Var(&c.threads, "threads", "comma-separated thread counts to sweep (default: 1,2,4,8,16)")
	f.StringVar(&c.label, "label", "", "label for this run's outputs (default: host name)")
	f.StringVar(&c.resultsDir, "results", "", "results directory (default: results/<timestamp>--<label>)")
	f.Var(&c.impls, "impls", "comma-separated implementations to benchmark (default: all)")
}

func (c *benchCmd) Run(_ []string) error {
	setupLogs(c.printCmd, c.quiet)
	rc, err := resolveConfig(c.configPath, func(fc *common.FileConfig) {
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
	return doBench(rc, impls, workDir)
}

// doBench writes the hardware inventory and invokes the collection routine
// exactly once with the selection, the output path, and the thread sweep.
func doBench(rc *common.RunConfig, impls []*impl, workDir string) error {
	log.Printf("Benchmarking: %s", strings.Join(implNames(impls), " "))
	log.Printf("Thread sweep: %v", rc.Threads)
	if err := mkdirAll(rc.ResultsDir); err != nil {
		return fmt.Errorf("creating results directory: %v", err)
	}
	inventory := filepath.Join(rc.ResultsDir, "hardware-inventory.txt")
	log.Printf("Recording hardware inventory in %s", inventory)
	if err := sysinfo.WriteFile(inventory); err != nil {
		return fmt.Errorf("hardware inventory: %v", err)
	}
	ccfg := &collector.Config{
		BenchUtil: filepath.Join(workDir, recipes.BenchUtil),
		OutFile:   filepath.Join(rc.ResultsDir, rc.Label+".json"),
		Threads:   rc.Threads,
	}
	for _, im := range impls {
		ccfg.Targets = append(ccfg.Targets, im.target(workDir))
	}
	return collector.Run(ccfg)
}
