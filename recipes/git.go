// Copyright 2025 The Mallocbench Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package recipes

import (
	"bytes"
	"fmt"
	"os/exec"

	"github.com/mallocbench/mallocbench/common/log"
	"github.com/mallocbench/mallocbench/fileutil"
)

// cloneOrPull clones url into dir when dir is absent and pulls the latest
// changes when it is already there.
func cloneOrPull(dir, url string) error {
	ok, err := fileutil.FileExists(dir)
	if err != nil {
		return err
	}
	if ok {
		return gitPull(dir)
	}
	return gitClone(dir, url)
}

func gitClone(dir, url string) error {
	cmd := exec.Command("git", "clone", "--depth", "1", url, dir)
	log.TraceCommand(cmd)
	var buf bytes.Buffer
	cmd.Stderr = &buf
	if _, err := cmd.Output(); err != nil {
		return fmt.Errorf("git clone %s: %v: stderr:\n%s", url, err, &buf)
	}
	return nil
}

func gitPull(dir string) error {
	cmd := exec.Command("git", "-C", dir, "pull", "--ff-only")
	log.TraceCommand(cmd)
	var buf bytes.Buffer
	cmd.Stderr = &buf
	if _, err := cmd.Output(); err != nil {
		return fmt.Errorf("git pull in %s: %v: stderr:\n%s", dir, err, &buf)
	}
	return nil
}
