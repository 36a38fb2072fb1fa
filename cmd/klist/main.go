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

// Binary klist replays and validates intrusive list scenarios.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/subcommands"

	"gvisor.dev/klist/cmd/klist/cmd"
	"gvisor.dev/klist/pkg/log"
)

var (
	debug     = flag.Bool("debug", false, "enable debug logging; same as -log-level=debug.")
	logLevel  = flag.String("log-level", "info", "log level: warning, info or debug.")
	logFormat = flag.String("log-format", "text", "log format: text (default) or json.")
	debugLog  = flag.String("debug-log", "", "additional location for logs, written at debug level in -log-format. Stderr keeps -log-level.")
)

func newEmitter(format string, w io.Writer) (log.Emitter, error) {
	switch format {
	case "text":
		return log.GoogleEmitter{Writer: &log.Writer{Next: w}}, nil
	case "json":
		return log.JSONEmitter{Writer: &log.Writer{Next: w}}, nil
	}
	return nil, fmt.Errorf("invalid log format %q, must be 'text' or 'json'", format)
}

// levelEmitter drops messages above level before they reach Emitter.
type levelEmitter struct {
	log.Emitter
	level log.Level
}

// Emit implements log.Emitter.Emit.
func (e levelEmitter) Emit(depth int, level log.Level, timestamp time.Time, format string, v ...any) {
	if level <= e.level {
		e.Emitter.Emit(1+depth, level, timestamp, format, v...)
	}
}

// setupLogging installs the global log target: stderr at the requested level
// and, if debugLogPath is set, a file that receives everything.
func setupLogging(format, level, debugLogPath string, stderr io.Writer) (io.Closer, error) {
	lv, err := log.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	e, err := newEmitter(format, stderr)
	if err != nil {
		return nil, err
	}
	if debugLogPath == "" {
		log.SetTarget(e)
		log.SetLevel(lv)
		return io.NopCloser(nil), nil
	}

	f, err := os.OpenFile(debugLogPath, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("error opening debug log file %q: %v", debugLogPath, err)
	}
	fe, err := newEmitter(format, f)
	if err != nil {
		f.Close()
		return nil, err
	}
	emitters := log.MultiEmitter{levelEmitter{Emitter: e, level: lv}, fe}
	log.SetTarget(&emitters)
	log.SetLevel(log.Debug)
	return f, nil
}

func main() {
	subcommands.Register(subcommands.HelpCommand(), "")
	subcommands.Register(subcommands.FlagsCommand(), "")
	subcommands.Register(subcommands.CommandsCommand(), "")
	subcommands.Register(new(cmd.Replay), "")
	subcommands.Register(new(cmd.Version), "")

	flag.Parse()

	level := *logLevel
	if *debug {
		level = "debug"
	}
	closer, err := setupLogging(*logFormat, level, *debugLog, os.Stderr)
	if err != nil {
		os.Exit(int(cmd.Errorf("%v", err)))
	}
	log.Debugf("Args: %v", os.Args)

	status := subcommands.Execute(context.Background())
	closer.Close()
	os.Exit(int(status))
}
