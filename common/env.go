// Copyright 2025 The Mallocbench Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package common

import (
	"fmt"
	"os"
	"strings"
)

// Env is an immutable, layered set of environment variables. Setting
// variables produces a new Env layered over the old one, so a recipe or the
// collector can derive a modified environment (an LD_PRELOAD chain, say)
// without disturbing the environment other commands run with.
type Env struct {
	parent *Env
	data   map[string]string
}

func varsToMap(vars ...string) (map[string]string, error) {
	env := make(map[string]string)
	for _, v := range vars {
		s := strings.SplitN(v, "=", 2)
		if len(s) != 2 {
			return nil, fmt.Errorf("%q is not a valid environment variable", v)
		}
		env[s[0]] = s[1]
	}
	return env, nil
}

func NewEnvFromEnviron() *Env {
	env, err := NewEnv(os.Environ()...)
	if err != nil {
		panic(err)
	}
	return env
}

func NewEnv(vars ...string) (*Env, error) {
	m, err := varsToMap(vars...)
	if err != nil {
		return nil, err
	}
	return &Env{data: m}, nil
}

// Set returns a new Env with the given "X=Y" variables layered on top of e.
func (e *Env) Set(vars ...string) (*Env, error) {
	m, err := varsToMap(vars...)
	if err != nil {
		return nil, err
	}
	return &Env{
		data:   m,
		parent: e,
	}, nil
}

func (e *Env) MustSet(vars ...string) *Env {
	env, err := e.Set(vars...)
	if err != nil {
		panic(err)
	}
	return env
}

func (e *Env) Lookup(name string) (string, bool) {
	t := e
	for t != nil {
		if v, ok := t.data[name]; ok {
			return v, true
		}
		t = t.parent
	}
	return "", false
}

// Prefix returns a new Env where the value of name is prefixed with prefix.
// If name is unset, its value becomes exactly prefix.
func (e *Env) Prefix(name, prefix string) *Env {
	var (
		n   *Env
		err error
	)
	if v, ok := e.Lookup(name); ok {
		n, err = e.Set(fmt.Sprintf("%s=%s%s", name, prefix, v))
	} else {
		n, err = e.Set(fmt.Sprintf("%s=%s", name, prefix))
	}
	if err != nil {
		// Only reachable if name itself contains '='.
		panic(err.Error())
	}
	return n
}

// Collapse flattens the layers into a flat "X=Y" list suitable for
// exec.Cmd.Env. Inner layers shadow outer ones.
func (e *Env) Collapse() []string {
	t := e
	c := make(map[string]string)
	for t != nil {
		for k, v := range t.data {
			if _, ok := c[k]; !ok {
				c[k] = v
			}
		}
		t = t.parent
	}
	env := make([]string, 0, len(c))
	for k, v := range c {
		env = append(env, fmt.Sprintf("%s=%s", k, v))
	}
	return env
}
