// Copyright 2025 The Mallocbench Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/mallocbench/mallocbench/common"
	"github.com/mallocbench/mallocbench/common/log"
)

const plotUsage = `Renders the comparison plot over every JSON result in the results
directory by invoking the external plotting tool with the destination image
followed by the result files.

Usage: %s plot [flags]
`

// defaultPlotTool is the external plotting script shipped alongside this
// tool; its internals are its own business.
const defaultPlotTool = "./bench_plot_results.py"

type plotCmd struct {
	quiet      bool
	printCmd   bool
	configPath string
	resultsDir string
	tool       string
}

func (*plotCmd) Name() string     { return "plot" }
func (*plotCmd) Synopsis() string { return "Renders the comparison plot from collected results." }
func (*plotCmd) PrintUsage(w io.Writer, base string) {
	fmt.Fprintf(w, plotUsage, base)
}

func (c *plotCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.quiet, "quiet", false, "whether to suppress activity output on stderr")
	f.BoolVar(&c.printCmd, "shell", false, "whether to print the commands being executed to stdout")
	f.StringVar(&c.configPath, "config", "", "optional TOML configuration file")
	f.StringVar(&c.resultsDir, "results", "", "results directory holding the JSON files to plot")
	f.StringVar(&c.tool, "tool", defaultPlotTool, "plotting tool to invoke")
}

func (c *plotCmd) Run(_ []string) error {
	setupLogs(c.printCmd, c.quiet)
	results := c.resultsDir
	if results == "" && c.configPath != "" {
		fc, err := common.LoadFileConfig(c.configPath)
		if err != nil {
			return err
		}
		results = fc.Results
	}
	if results == "" {
		return fmt.Errorf("no results directory: pass -results (the bench stage prints it)")
	}
	return doPlot(results, c.tool)
}

func doPlot(resultsDir, tool string) error {
	jsons, err := filepath.Glob(filepath.Join(resultsDir, "*.json"))
	if err != nil {
		return err
	}
	if len(jsons) == 0 {
		return fmt.Errorf("no JSON results under %s; did the bench stage run?", resultsDir)
	}
	image := filepath.Join(resultsDir, "comparison.png")
	cmd := exec.Command(tool, append([]string{image}, jsons...)...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	log.TraceCommand(cmd)
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("plotting: %v", err)
	}
	log.Printf("Comparison plot at %s", image)
	return nil
}
