// Copyright 2025 The Mallocbench Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package recipes

type none struct{}

// None is the recipe for implementations the system already provides:
// nothing to acquire, nothing to build, nothing to clean.
func None() Recipe { return none{} }

func (none) Fetch(*FetchConfig) error { return nil }
func (none) Build(*BuildConfig) error { return nil }
func (none) SrcDir() string           { return "" }
func (none) Outputs() []string        { return nil }
