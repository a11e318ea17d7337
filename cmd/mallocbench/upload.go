// Copyright 2025 The Mallocbench Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"bytes"
	"flag"
	"fmt"
	"io"
	"os/exec"
	"path/filepath"

	"github.com/mallocbench/mallocbench/common/log"
	"github.com/mallocbench/mallocbench/fileutil"
)

const uploadUsage = `Stages a run's results (JSON measurements, comparison image, hardware
inventory) into git and commits them. Never pushes; that is left to the
operator. Maintainer convenience, not part of the measurement pipeline.

Usage: %s upload -results <dir>
`

type uploadCmd struct {
	quiet      bool
	printCmd   bool
	resultsDir string
}

func (*uploadCmd) Name() string     { return "upload" }
func (*uploadCmd) Synopsis() string { return "Commits a run's results into version control." }
func (*uploadCmd) PrintUsage(w io.Writer, base string) {
	fmt.Fprintf(w, uploadUsage, base)
}

func (c *uploadCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.quiet, "quiet", false, "whether to suppress activity output on stderr")
	f.BoolVar(&c.printCmd, "shell", false, "whether to print the commands being executed to stdout")
	f.StringVar(&c.resultsDir, "results", "", "results directory to commit")
}

func (c *uploadCmd) Run(_ []string) error {
	setupLogs(c.printCmd, c.quiet)
	if c.resultsDir == "" {
		return fmt.Errorf("no results directory: pass -results")
	}
	var files []string
	for _, pattern := range []string{"*.json", "*.png"} {
		matches, err := filepath.Glob(filepath.Join(c.resultsDir, pattern))
		if err != nil {
			return err
		}
		files = append(files, matches...)
	}
	inventory := filepath.Join(c.resultsDir, "hardware-inventory.txt")
	if ok, err := fileutil.FileExists(inventory); err != nil {
		return err
	} else if ok {
		files = append(files, inventory)
	}
	if len(files) == 0 {
		return fmt.Errorf("nothing to upload under %s", c.resultsDir)
	}
	if err := runGit(append([]string{"add", "--"}, files...)...); err != nil {
		return err
	}
	msg := fmt.Sprintf("Add benchmark results from %s", filepath.Base(c.resultsDir))
	if err := runGit("commit", "-m", msg); err != nil {
		return err
	}
	log.Printf("Committed %d result files; push when ready", len(files))
	return nil
}

func runGit(args ...string) error {
	cmd := exec.Command("git", args...)
	log.TraceCommand(cmd)
	var buf bytes.Buffer
	cmd.Stderr = &buf
	if _, err := cmd.Output(); err != nil {
		return fmt.Errorf("git %s: %v: stderr:\n%s", args[0], err, &buf)
	}
	return nil
}
