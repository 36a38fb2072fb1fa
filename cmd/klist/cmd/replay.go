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

// Package cmd holds implementations of the klist commands.
package cmd

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/google/subcommands"

	"gvisor.dev/klist/pkg/log"
	"gvisor.dev/klist/pkg/scenario"
)

// Replay implements subcommands.Command for the "replay" command.
type Replay struct {
	check bool
	limit int

	// Out receives the final list contents. Defaults to stdout.
	Out io.Writer
}

// Name implements subcommands.Command.Name.
func (*Replay) Name() string {
	return "replay"
}

// Synopsis implements subcommands.Command.Synopsis.
func (*Replay) Synopsis() string {
	return "replay a scenario of list operations and print the resulting lists"
}

// Usage implements subcommands.Command.Usage.
func (*Replay) Usage() string {
	return `replay [flags] <scenario.toml|scenario.yaml> - applies the scenario steps in order.
`
}

// SetFlags implements subcommands.Command.SetFlags.
func (r *Replay) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&r.check, "check", false, "validate every list after every step.")
	f.IntVar(&r.limit, "limit", 0, "maximum members per list when validating; overrides the scenario's limit if set.")
}

// Execute implements subcommands.Command.Execute.
func (r *Replay) Execute(_ context.Context, f *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	if f.NArg() != 1 {
		f.Usage()
		return subcommands.ExitUsageError
	}
	out := r.Out
	if out == nil {
		out = os.Stdout
	}

	sc, err := scenario.Load(f.Arg(0))
	if err != nil {
		return Errorf("%v", err)
	}
	if r.limit > 0 {
		sc.Limit = r.limit
	}
	log.Infof("Replaying %q: %d heads, %d nodes, %d steps", f.Arg(0), len(sc.Heads), len(sc.Nodes), len(sc.Steps))

	res, err := scenario.Run(sc, scenario.Options{Check: r.check})
	for _, h := range res.Heads {
		fmt.Fprintln(out, h)
	}
	if err != nil {
		return Errorf("replay failed after %d steps, %d violations: %v", res.Steps, res.Violations, err)
	}
	return subcommands.ExitSuccess
}
