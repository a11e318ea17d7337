// Copyright 2025 The Mallocbench Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package sysinfo records the static hardware facts of the machine a
// benchmark run executed on. Everything here is best-effort: a probe that
// fails is skipped, never fatal.
package sysinfo

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime"
	"strings"

	"golang.org/x/sys/unix"

	"github.com/mallocbench/mallocbench/common/log"
)

const cpuinfoPath = "/proc/cpuinfo"

// WriteFile writes the hardware inventory to path.
func WriteFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return Collect(f)
}

// Collect writes a plain-text hardware inventory: kernel identification,
// memory and processor facts, and — when the numactl tool is present —
// the NUMA topology.
func Collect(w io.Writer) error {
	var uts unix.Utsname
	if err := unix.Uname(&uts); err == nil {
		fmt.Fprintf(w, "uname: %s %s %s %s\n",
			utsField(uts.Sysname), utsField(uts.Nodename),
			utsField(uts.Release), utsField(uts.Machine))
	}
	var si unix.Sysinfo_t
	if err := unix.Sysinfo(&si); err == nil {
		fmt.Fprintf(w, "total-ram-bytes: %d\n", uint64(si.Totalram)*uint64(si.Unit))
	}
	fmt.Fprintf(w, "logical-cpus: %d\n", runtime.NumCPU())
	if model := cpuModel(); model != "" {
		fmt.Fprintf(w, "cpu-model: %s\n", model)
	}
	writeToolOutput(w, "numa-topology", "numactl", "--hardware")
	writeToolOutput(w, "hardware-summary", "lshw", "-short", "-C", "memory", "-C", "processor")
	return nil
}

func utsField(b [65]byte) string {
	n := bytes.IndexByte(b[:], 0)
	if n < 0 {
		n = len(b)
	}
	return string(b[:n])
}

// cpuModel returns the first "model name" entry of /proc/cpuinfo, or "".
func cpuModel() string {
	f, err := os.Open(cpuinfoPath)
	if err != nil {
		return ""
	}
	defer f.Close()
	s := bufio.NewScanner(f)
	for s.Scan() {
		line := s.Text()
		if !strings.HasPrefix(line, "model name") {
			continue
		}
		if i := strings.IndexByte(line, ':'); i >= 0 {
			return strings.TrimSpace(line[i+1:])
		}
	}
	return ""
}

// writeToolOutput appends a section produced by an optional external tool.
// A tool that is absent from PATH is skipped silently; a tool that fails is
// logged and skipped.
func writeToolOutput(w io.Writer, section, tool string, args ...string) {
	if _, err := exec.LookPath(tool); err != nil {
		return
	}
	cmd := exec.Command(tool, args...)
	log.TraceCommand(cmd)
	out, err := cmd.Output()
	if err != nil {
		log.Printf("%s failed: %v; skipping", tool, err)
		return
	}
	fmt.Fprintf(w, "# %s\n%s", section, out)
}
