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

package scenario

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/pkg/errors"

	"gvisor.dev/klist/pkg/klistcheck"
	"gvisor.dev/klist/pkg/log"
)

const fifoTOML = `
heads = ["ready", "blocked"]

[[nodes]]
name = "a"
value = 0

[[nodes]]
name = "b"
value = 1

[[nodes]]
name = "c"
value = 2

[[steps]]
op = "insert_before"
node = "a"
anchor = "ready"

[[steps]]
op = "insert_before"
node = "b"
anchor = "ready"

[[steps]]
op = "insert_after"
node = "c"
anchor = "blocked"

[[steps]]
op = "remove"
node = "a"

[[steps]]
op = "splice"
from = "blocked"
anchor = "ready"
`

const lifoYAML = `
limit: 4
heads: [stack]
nodes:
  - {name: x, value: 10}
  - {name: y, value: 20}
  - {name: z, value: 30}
steps:
  - {op: insert_after, node: x, anchor: stack}
  - {op: insert_after, node: y, anchor: stack}
  - {op: insert_after, node: z, anchor: stack}
`

func TestRunTOML(t *testing.T) {
	sc, err := Decode([]byte(fifoTOML), TOML)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	res, err := Run(sc, Options{Check: true})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	want := &Result{
		Heads: []HeadState{
			{Name: "ready", Members: []Member{{"b", 1}, {"c", 2}}},
			{Name: "blocked"},
		},
		Steps: 5,
	}
	if diff := cmp.Diff(want, res); diff != "" {
		t.Errorf("Run() mismatch (-want +got):\n%s", diff)
	}
	if got, want := res.Heads[0].String(), "ready (2): [b=1 c=2]"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestRunYAML(t *testing.T) {
	sc, err := Decode([]byte(lifoYAML), YAML)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	res, err := Run(sc, Options{Check: true})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	want := []HeadState{{Name: "stack", Members: []Member{{"z", 30}, {"y", 20}, {"x", 10}}}}
	if diff := cmp.Diff(want, res.Heads); diff != "" {
		t.Errorf("Run() heads mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeErrors(t *testing.T) {
	for _, tc := range []struct {
		name string
		yaml string
		want string
	}{
		{
			name: "unknown op",
			yaml: "heads: [h]\nnodes: [{name: a}]\nsteps: [{op: rotate, node: a}]",
			want: "unknown op",
		},
		{
			name: "unknown node",
			yaml: "heads: [h]\nsteps: [{op: remove, node: a}]",
			want: "unknown node",
		},
		{
			name: "unknown anchor",
			yaml: "heads: [h]\nnodes: [{name: a}]\nsteps: [{op: insert_after, node: a, anchor: g}]",
			want: "unknown anchor",
		},
		{
			name: "duplicate name",
			yaml: "heads: [a]\nnodes: [{name: a}]",
			want: "duplicate name",
		},
		{
			name: "self splice",
			yaml: "heads: [h]\nsteps: [{op: splice, from: h, anchor: h}]",
			want: "into itself",
		},
		{
			name: "unknown field",
			yaml: "heads: [h]\ncolour: red",
			want: "decoding YAML",
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Decode([]byte(tc.yaml), YAML)
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Errorf("Decode() = %v, want error containing %q", err, tc.want)
			}
		})
	}

	if _, err := Decode([]byte("heads = [\"h\"]\nbogus = 1\n"), TOML); err == nil {
		t.Errorf("Decode accepted unknown TOML key")
	}
}

func TestRunRejectsDoubleInsert(t *testing.T) {
	sc := &Scenario{
		Heads: []string{"h1", "h2"},
		Nodes: []Node{{Name: "a"}},
		Steps: []Step{
			{Op: InsertBefore, Node: "a", Anchor: "h1"},
			{Op: InsertBefore, Node: "a", Anchor: "h2"},
		},
	}
	if err := sc.validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	res, err := Run(sc, Options{Check: true})
	if !errors.Is(err, ErrPrecondition) {
		t.Fatalf("Run() = %v, want ErrPrecondition", err)
	}
	if res.Steps != 1 {
		t.Errorf("Steps = %d, want 1", res.Steps)
	}
}

func TestRunLimit(t *testing.T) {
	sc := &Scenario{
		Limit: 1,
		Heads: []string{"h"},
		Nodes: []Node{{Name: "a"}, {Name: "b"}},
		Steps: []Step{
			{Op: InsertBefore, Node: "a", Anchor: "h"},
			{Op: InsertBefore, Node: "b", Anchor: "h"},
		},
	}
	if _, err := Run(sc, Options{Check: true}); err == nil || !strings.Contains(err.Error(), "after step 1") {
		t.Errorf("Run() = %v, want limit violation after step 1", err)
	}
	if _, err := Run(sc, Options{}); err != nil {
		t.Errorf("Run() without checks = %v", err)
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	for name, body := range map[string]string{
		"fifo.toml": fifoTOML,
		"lifo.yml":  lifoYAML,
	} {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(body), 0644); err != nil {
			t.Fatalf("WriteFile: %v", err)
		}
		if _, err := Load(path); err != nil {
			t.Errorf("Load(%q): %v", name, err)
		}
	}
	if _, err := Load(filepath.Join(dir, "x.json")); err == nil {
		t.Errorf("Load accepted .json")
	}
	if _, err := Load(filepath.Join(dir, "missing.toml")); err == nil {
		t.Errorf("Load of missing file succeeded")
	}
}

// recorder is a log.Emitter that keeps formatted messages.
type recorder struct {
	msgs []string
}

func (r *recorder) Emit(_ int, level log.Level, _ time.Time, format string, v ...any) {
	r.msgs = append(r.msgs, level.String()+": "+fmt.Sprintf(format, v...))
}

// reinitTOML corrupts "ready" at step 3 by re-initializing a linked member,
// then keeps working on "spare".
const reinitTOML = `
heads = ["ready", "spare"]

[[nodes]]
name = "a"
value = 1

[[nodes]]
name = "b"
value = 2

[[nodes]]
name = "c"
value = 3

[[nodes]]
name = "d"
value = 4

[[steps]]
op = "insert_before"
node = "a"
anchor = "ready"

[[steps]]
op = "insert_before"
node = "b"
anchor = "ready"

[[steps]]
op = "insert_before"
node = "c"
anchor = "ready"

[[steps]]
op = "init"
node = "b"

[[steps]]
op = "insert_before"
node = "d"
anchor = "spare"

[[steps]]
op = "remove"
node = "d"

[[steps]]
op = "insert_after"
node = "d"
anchor = "spare"
`

func TestRunReportsCorruptionRateLimited(t *testing.T) {
	sc, err := Decode([]byte(reinitTOML), TOML)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	r := &recorder{}
	logger := &log.BasicLogger{Level: log.Warning, Emitter: r}
	res, err := Run(sc, Options{
		Check:    true,
		Logger:   logger,
		Reporter: log.RateLimitedLogger(logger, time.Hour),
	})

	var v *klistcheck.Violation
	if !errors.As(err, &v) || v.Kind != klistcheck.BrokenNext {
		t.Fatalf("Run() = %v, want a BrokenNext violation", err)
	}
	if !strings.Contains(err.Error(), "after step 3") {
		t.Errorf("Run() = %v, want the violation attributed to step 3", err)
	}
	// "ready" fails validation after each of the last four steps.
	if res.Steps != 7 || res.Violations != 4 {
		t.Errorf("Steps, Violations = %d, %d, want 7, 4", res.Steps, res.Violations)
	}
	if len(r.msgs) != 1 || !strings.Contains(r.msgs[0], `list "ready" is corrupt`) {
		t.Errorf("reports = %q, want a single report for \"ready\"", r.msgs)
	}
	want := []HeadState{{Name: "spare", Members: []Member{{"d", 4}}}}
	if diff := cmp.Diff(want, res.Heads); diff != "" {
		t.Errorf("Run() heads mismatch (-want +got):\n%s", diff)
	}
}

func TestRunCorruptionWithoutCheck(t *testing.T) {
	sc, err := Decode([]byte(reinitTOML), TOML)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	r := &recorder{}
	res, err := Run(sc, Options{Logger: &log.BasicLogger{Level: log.Debug, Emitter: r}})
	if !errors.Is(err, klistcheck.ErrCorrupt) || !strings.Contains(err.Error(), `list "ready"`) {
		t.Fatalf("Run() = %v, want list \"ready\" reported corrupt", err)
	}
	if res.Violations != 0 {
		t.Errorf("Violations = %d without checks", res.Violations)
	}
	for _, m := range r.msgs {
		if strings.Contains(m, "corrupt") {
			t.Errorf("unexpected report %q without checks", m)
		}
	}
}
