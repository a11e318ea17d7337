// Copyright 2025 The Mallocbench Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"os"
	"path/filepath"

	"github.com/mallocbench/mallocbench/cli/subcommands"
	"github.com/mallocbench/mallocbench/common"
	"github.com/mallocbench/mallocbench/common/log"
)

func main() {
	subcommands.Register(&fetchCmd{})
	subcommands.Register(&buildCmd{})
	subcommands.Register(&benchCmd{})
	subcommands.Register(&plotCmd{})
	subcommands.Register(&allCmd{})
	subcommands.Register(&cleanCmd{})
	subcommands.Register(&uploadCmd{})
	os.Exit(subcommands.Run())
}

// resolveConfig loads the optional TOML configuration file, lets the caller
// overlay flag values on top, and fills in the documented defaults.
func resolveConfig(path string, overlay func(*common.FileConfig)) (*common.RunConfig, error) {
	fc := &common.FileConfig{}
	if path != "" {
		var err error
		fc, err = common.LoadFileConfig(path)
		if err != nil {
			return nil, err
		}
	}
	if overlay != nil {
		overlay(fc)
	}
	return common.Resolve(fc)
}

func setupLogs(printCmd, quiet bool) {
	log.SetCommandTrace(printCmd)
	log.SetActivityLog(!quiet)
}

// absWorkDir makes the work tree path absolute so that recipe and
// measurement commands are unaffected by directory changes.
func absWorkDir(dir string) (string, error) {
	return filepath.Abs(dir)
}

func mkdirAll(path string) error {
	log.CommandPrintf("mkdir -p %s", path)
	return os.MkdirAll(path, os.ModePerm)
}
