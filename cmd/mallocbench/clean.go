// Copyright 2025 The Mallocbench Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"flag"
	"fmt"
	"io"

	"github.com/mallocbench/mallocbench/common"
	"github.com/mallocbench/mallocbench/common/log"
	"github.com/mallocbench/mallocbench/recipes"
)

const cleanUsage = `Removes the build outputs of the selected implementations. Paths that are
already absent are skipped, so clean may be re-run freely. Sources and
collected results are left alone.

Usage: %s clean [flags]
`

type cleanCmd struct {
	quiet      bool
	printCmd   bool
	workDir    string
	configPath string
	impls      csvFlag
}

func (*cleanCmd) Name() string     { return "clean" }
func (*cleanCmd) Synopsis() string { return "Removes built allocator artifacts." }
func (*cleanCmd) PrintUsage(w io.Writer, base string) {
	fmt.Fprintf(w, cleanUsage, base)
}

func (c *cleanCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.quiet, "quiet", false, "whether to suppress activity output on stderr")
	f.BoolVar(&c.printCmd, "shell", false, "whether to print the commands being executed to stdout")
	f.StringVar(&c.workDir, "work-dir", ".", "directory source and install trees live under")
	f.StringVar(&c.configPath, "config", "", "optional TOML configuration file")
	f.Var(&c.impls, "impls", "comma-separated implementations to clean (default: all)")
}

func (c *cleanCmd) Run(_ []string) error {
	setupLogs(c.printCmd, c.quiet)
	rc, err := resolveConfig(c.configPath, func(fc *common.FileConfig) {
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
	if err := recipes.Clean(workDir, uniqueRecipes(impls)); err != nil {
		return err
	}
	log.Printf("Removed build outputs")
	return nil
}
