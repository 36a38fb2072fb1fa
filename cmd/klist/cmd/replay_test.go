// Copyright 2026 The gVisor Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package cmd

import (
	"bytes"
	"context"
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/subcommands"
)

const scenarioTOML = `
heads = ["ready"]

[[nodes]]
name = "idle"
value = 31

[[nodes]]
name = "main"
value = 10

[[steps]]
op = "insert_before"
node = "idle"
anchor = "ready"

[[steps]]
op = "insert_before"
node = "main"
anchor = "idle"
`

func runReplay(t *testing.T, r *Replay, args ...string) subcommands.ExitStatus {
	t.Helper()
	f := flag.NewFlagSet("replay", flag.ContinueOnError)
	r.SetFlags(f)
	if err := f.Parse(args); err != nil {
		t.Fatalf("Parse(%v): %v", args, err)
	}
	return r.Execute(context.Background(), f)
}

func TestReplay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ready.toml")
	if err := os.WriteFile(path, []byte(scenarioTOML), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	var out bytes.Buffer
	r := &Replay{Out: &out}
	if got := runReplay(t, r, "-check", path); got != subcommands.ExitSuccess {
		t.Fatalf("Execute() = %v, want ExitSuccess", got)
	}
	if got, want := out.String(), "ready (2): [main=10 idle=31]\n"; got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
}

func TestReplayFailures(t *testing.T) {
	var errs bytes.Buffer
	ErrorLogger = &errs
	defer func() { ErrorLogger = os.Stderr }()

	path := filepath.Join(t.TempDir(), "ready.toml")
	if err := os.WriteFile(path, []byte(scenarioTOML), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	corrupt := filepath.Join(t.TempDir(), "corrupt.toml")
	if err := os.WriteFile(corrupt, []byte(scenarioTOML+"\n[[steps]]\nop = \"init\"\nnode = \"main\"\n"), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	for _, tc := range []struct {
		name string
		args []string
		want subcommands.ExitStatus
	}{
		{name: "corrupted list", args: []string{"-check", corrupt}, want: subcommands.ExitFailure},
		{name: "no arguments", want: subcommands.ExitUsageError},
		{name: "missing file", args: []string{filepath.Join(t.TempDir(), "none.toml")}, want: subcommands.ExitFailure},
		{name: "limit exceeded", args: []string{"-check", "-limit", "1", path}, want: subcommands.ExitFailure},
	} {
		t.Run(tc.name, func(t *testing.T) {
			r := &Replay{Out: &bytes.Buffer{}}
			if got := runReplay(t, r, tc.args...); got != tc.want {
				t.Errorf("Execute() = %v, want %v", got, tc.want)
			}
		})
	}
	if !strings.Contains(errs.String(), "klist: ") {
		t.Errorf("no error reported, got %q", errs.String())
	}
}

func TestVersion(t *testing.T) {
	var out bytes.Buffer
	v := &Version{Out: &out}
	if got := v.Execute(context.Background(), flag.NewFlagSet("version", flag.ContinueOnError)); got != subcommands.ExitSuccess {
		t.Fatalf("Execute() = %v", got)
	}
	if !strings.HasPrefix(out.String(), "klist version ") {
		t.Errorf("output = %q", out.String())
	}
}

func TestReplayTestdata(t *testing.T) {
	for _, tc := range []struct {
		file string
		want string
	}{
		{file: "waitqueue.toml", want: "ready (2): [shell=20 log=25]\nsem_wait (0): []\n"},
		{file: "timers.yaml", want: "timers (3): [t100=100 t200=200 t300=300]\n"},
	} {
		t.Run(tc.file, func(t *testing.T) {
			var out bytes.Buffer
			r := &Replay{Out: &out}
			if got := runReplay(t, r, "-check", filepath.Join("testdata", tc.file)); got != subcommands.ExitSuccess {
				t.Fatalf("Execute() = %v, want ExitSuccess", got)
			}
			if diff := cmp.Diff(tc.want, out.String()); diff != "" {
				t.Errorf("output mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
