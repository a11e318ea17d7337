// Copyright 2025 The Mallocbench Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package common_test

import (
	"os"
	"path/filepath"
	"reflect"
	"runtime"
	"strings"
	"testing"

	"github.com/mallocbench/mallocbench/common"
)

func TestResolveDefaults(t *testing.T) {
	rc, err := common.Resolve(nil)
	if err != nil {
		t.Fatal(err)
	}
	if want := []int{1, 2, 4, 8, 16}; !reflect.DeepEqual(rc.Threads, want) {
		t.Errorf("default threads: got %v, want %v", rc.Threads, want)
	}
	if rc.Jobs != runtime.NumCPU() {
		t.Errorf("default jobs: got %d, want %d", rc.Jobs, runtime.NumCPU())
	}
	host, err := os.Hostname()
	if err != nil {
		t.Fatal(err)
	}
	if rc.Label != host {
		t.Errorf("default label: got %q, want host name %q", rc.Label, host)
	}
	if !strings.HasPrefix(rc.ResultsDir, "results"+string(filepath.Separator)) {
		t.Errorf("results dir %q not under results/", rc.ResultsDir)
	}
	if !strings.HasSuffix(rc.ResultsDir, "--"+host) {
		t.Errorf("results dir %q not suffixed with --%s", rc.ResultsDir, host)
	}
	if rc.Tarball {
		t.Error("tarball mode on by default")
	}
	if len(rc.Impls) != 0 {
		t.Errorf("default selection should be empty (meaning all), got %v", rc.Impls)
	}
}

func TestResolveOverrides(t *testing.T) {
	fc := &common.FileConfig{
		Threads: []int{3, 9},
		Jobs:    7,
		Label:   "runner",
		Results: "results/custom",
		Tarball: true,
		Impls:   []string{"jemalloc"},
	}
	rc, err := common.Resolve(fc)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(rc.Threads, []int{3, 9}) {
		t.Errorf("threads not preserved: %v", rc.Threads)
	}
	if rc.Jobs != 7 {
		t.Errorf("jobs not preserved: %d", rc.Jobs)
	}
	if rc.Label != "runner" {
		t.Errorf("label not preserved: %q", rc.Label)
	}
	if rc.ResultsDir != "results/custom" {
		t.Errorf("results dir not preserved: %q", rc.ResultsDir)
	}
	if !rc.Tarball {
		t.Error("tarball mode not preserved")
	}
	if !reflect.DeepEqual(rc.Impls, []string{"jemalloc"}) {
		t.Errorf("selection not preserved: %v", rc.Impls)
	}
}

func TestLoadFileConfig(t *testing.T) {
	write := func(t *testing.T, content string) string {
		path := filepath.Join(t.TempDir(), "mallocbench.toml")
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
		return path
	}
	t.Run("Valid", func(t *testing.T) {
		fc, err := common.LoadFileConfig(write(t, `
threads = [1, 4]
jobs = 2
label = "box"
impls = ["glibc", "tcmalloc"]
`))
		if err != nil {
			t.Fatal(err)
		}
		if !reflect.DeepEqual(fc.Threads, []int{1, 4}) {
			t.Errorf("threads: got %v", fc.Threads)
		}
		if fc.Jobs != 2 || fc.Label != "box" {
			t.Errorf("jobs/label: got %d, %q", fc.Jobs, fc.Label)
		}
		if !reflect.DeepEqual(fc.Impls, []string{"glibc", "tcmalloc"}) {
			t.Errorf("impls: got %v", fc.Impls)
		}
	})
	t.Run("BadThreadCount", func(t *testing.T) {
		if _, err := common.LoadFileConfig(write(t, `threads = [1, 0]`)); err == nil {
			t.Fatal("expected error for non-positive thread count")
		}
	})
	t.Run("Missing", func(t *testing.T) {
		if _, err := common.LoadFileConfig(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
			t.Fatal("expected error for missing file")
		}
	})
}
