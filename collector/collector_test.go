// Copyright 2025 The Mallocbench Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package collector

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

// writeFakeUtil installs a stand-in for bench-malloc-thread that prints one
// JSON object per invocation, echoing its thread argument and whatever was
// preloaded.
func writeFakeUtil(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "bench-malloc-thread")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0755); err != nil {
		t.Fatal(err)
	}
	return path
}

type measurement struct {
	Threads int    `json:"threads"`
	Preload string `json:"preload"`
}

func readResults(t *testing.T, path string) []measurement {
	t.Helper()
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var ms []measurement
	if err := json.Unmarshal(b, &ms); err != nil {
		t.Fatalf("results %s are not a JSON array: %v", path, err)
	}
	return ms
}

func TestRun(t *testing.T) {
	work := t.TempDir()
	util := writeFakeUtil(t, work, `echo "{\"threads\": $1, \"preload\": \"$LD_PRELOAD\"}"`)
	preload := filepath.Join(work, "libfake.so")
	if err := os.WriteFile(preload, []byte("so"), 0644); err != nil {
		t.Fatal(err)
	}
	results := filepath.Join(work, "results")
	if err := os.MkdirAll(results, 0755); err != nil {
		t.Fatal(err)
	}

	cfg := &Config{
		BenchUtil: util,
		OutFile:   filepath.Join(results, "box.json"),
		Threads:   []int{1, 4},
		Targets: []Target{
			{Name: "system_default"},
			{Name: "fake", Preload: preload},
		},
	}
	if err := Run(cfg); err != nil {
		t.Fatal(err)
	}

	ms := readResults(t, filepath.Join(results, "system_default-box.json"))
	if len(ms) != 2 || ms[0].Threads != 1 || ms[1].Threads != 4 {
		t.Fatalf("system_default sweep: %+v", ms)
	}
	if ms[0].Preload != "" {
		t.Errorf("system_default ran with LD_PRELOAD=%q", ms[0].Preload)
	}

	ms = readResults(t, filepath.Join(results, "fake-box.json"))
	if len(ms) != 2 {
		t.Fatalf("fake sweep: %+v", ms)
	}
	for _, m := range ms {
		if m.Preload != preload {
			t.Errorf("fake ran with LD_PRELOAD=%q, want %q", m.Preload, preload)
		}
	}
}

func TestRunLauncher(t *testing.T) {
	work := t.TempDir()
	util := writeFakeUtil(t, work, `echo "{\"threads\": $1}"`)
	results := filepath.Join(work, "results")
	if err := os.MkdirAll(results, 0755); err != nil {
		t.Fatal(err)
	}
	cfg := &Config{
		BenchUtil: util,
		OutFile:   filepath.Join(results, "box.json"),
		Threads:   []int{2},
		// Running the utility through an explicit interpreter stands in
		// for glibc's ld-linux launcher.
		Targets: []Target{{Name: "glibc", Launcher: []string{"/bin/sh"}}},
	}
	if err := Run(cfg); err != nil {
		t.Fatal(err)
	}
	ms := readResults(t, filepath.Join(results, "glibc-box.json"))
	if len(ms) != 1 || ms[0].Threads != 2 {
		t.Fatalf("launcher sweep: %+v", ms)
	}
}

func TestRunAllInvocationsFail(t *testing.T) {
	work := t.TempDir()
	util := writeFakeUtil(t, work, "exit 1")
	results := filepath.Join(work, "results")
	if err := os.MkdirAll(results, 0755); err != nil {
		t.Fatal(err)
	}
	cfg := &Config{
		BenchUtil: util,
		OutFile:   filepath.Join(results, "box.json"),
		Threads:   []int{1, 2},
		Targets:   []Target{{Name: "system_default"}},
	}
	if err := Run(cfg); err == nil {
		t.Fatal("expected error when every invocation fails")
	}
	// The empty per-implementation file is still written.
	ms := readResults(t, filepath.Join(results, "system_default-box.json"))
	if len(ms) != 0 {
		t.Fatalf("expected empty results, got %+v", ms)
	}
}

func TestRunInvalidOutputSkipped(t *testing.T) {
	work := t.TempDir()
	util := writeFakeUtil(t, work, `if [ "$1" = "1" ]; then echo "not json"; else echo "{\"threads\": $1}"; fi`)
	results := filepath.Join(work, "results")
	if err := os.MkdirAll(results, 0755); err != nil {
		t.Fatal(err)
	}
	cfg := &Config{
		BenchUtil: util,
		OutFile:   filepath.Join(results, "box.json"),
		Threads:   []int{1, 8},
		Targets:   []Target{{Name: "system_default"}},
	}
	if err := Run(cfg); err != nil {
		t.Fatal(err)
	}
	ms := readResults(t, filepath.Join(results, "system_default-box.json"))
	if len(ms) != 1 || ms[0].Threads != 8 {
		t.Fatalf("invalid output not skipped: %+v", ms)
	}
}

func TestRunMissingUtil(t *testing.T) {
	cfg := &Config{
		BenchUtil: filepath.Join(t.TempDir(), "bench-malloc-thread"),
		OutFile:   filepath.Join(t.TempDir(), "box.json"),
		Threads:   []int{1},
		Targets:   []Target{{Name: "system_default"}},
	}
	if err := Run(cfg); err == nil {
		t.Fatal("expected error for missing benchmark utility")
	}
}

func TestRunMissingPreload(t *testing.T) {
	work := t.TempDir()
	util := writeFakeUtil(t, work, `echo "{}"`)
	cfg := &Config{
		BenchUtil: util,
		OutFile:   filepath.Join(work, "box.json"),
		Threads:   []int{1},
		Targets:   []Target{{Name: "jemalloc", Preload: filepath.Join(work, "libjemalloc.so")}},
	}
	if err := Run(cfg); err == nil {
		t.Fatal("expected error for missing preload library")
	}
}

func TestFindSharedLib(t *testing.T) {
	root := t.TempDir()
	real := filepath.Join(root, "gcc", "libstdc++.so.6.0.33")
	if err := os.MkdirAll(filepath.Dir(real), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(real, []byte("elf"), 0644); err != nil {
		t.Fatal(err)
	}
	link := filepath.Join(root, "gcc", "libstdc++.so.6")
	if err := os.Symlink("libstdc++.so.6.0.33", link); err != nil {
		t.Fatal(err)
	}

	got, err := findSharedLib("libstdc++.so.6", []string{root})
	if err != nil {
		t.Fatal(err)
	}
	want, err := filepath.EvalSymlinks(real)
	if err != nil {
		t.Fatal(err)
	}
	if got != want {
		t.Fatalf("got %q, want resolved %q", got, want)
	}

	if _, err := findSharedLib("libnope.so", []string{root}); err == nil {
		t.Fatal("expected error for library that does not exist")
	}
}
