// cmd/gen-workflow/main.go
//
// gen-workflow rewrites the CI job definitions from the instance ledger.
//
// Flow:
// 1. Load suite.yaml (optional) and apply flag overrides
// 2. Shuffle the ledger instances and split them into batches
// 3. Wipe the output directory and write the new job definitions
//
// With -check nothing is written; the existing definitions are verified
// against the ledger instead.

package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"

	"github.com/kingrea/mipsuite/internal/config"
	"github.com/kingrea/mipsuite/internal/logbook"
	"github.com/kingrea/mipsuite/internal/planner"
	"github.com/kingrea/mipsuite/internal/report"
)

func main() {
	configFile := flag.String("config", "", "path to suite.yaml (defaults to ./suite.yaml when present)")
	ledgerPath := flag.String("ledger", "", "instance ledger CSV")
	outDir := flag.String("out", "", "directory receiving the job definitions")
	layout := flag.String("layout", "", "output layout: single or per-batch")
	batchSize := flag.Int("batch-size", 0, "maximum instances per job")
	seed := flag.Int64("seed", 0, "shuffle seed (0 picks a random order)")
	check := flag.Bool("check", false, "verify the existing job definitions instead of regenerating them")
	logFile := flag.String("log", "", "append run log to this file")
	verbose := flag.Bool("v", false, "echo log entries to stderr")
	var triggers listFlag
	flag.Var(&triggers, "trigger", "workflow trigger (repeatable, replaces the configured list)")
	flag.Parse()

	if flag.NArg() > 0 {
		die("unexpected arguments: %s", strings.Join(flag.Args(), " "))
	}

	cfg, err := config.Load(*configFile)
	if err != nil {
		die("load config: %v", err)
	}
	if *ledgerPath != "" {
		cfg.Ledger = absPath(*ledgerPath)
	}
	if *outDir != "" {
		cfg.Planner.OutputDir = absPath(*outDir)
	}
	if *layout != "" {
		cfg.Planner.Layout = *layout
	}
	if *batchSize != 0 {
		cfg.Planner.BatchSize = *batchSize
	}
	if *logFile != "" {
		cfg.LogFile = absPath(*logFile)
	}
	if len(triggers) > 0 {
		cfg.Planner.Triggers = triggers
	}
	if err := cfg.Finalize(); err != nil {
		die("%v", err)
	}

	var opts []logbook.Option
	if *verbose {
		opts = append(opts, logbook.WithEcho(os.Stderr))
	}
	log, err := logbook.New(cfg.LogFile, opts...)
	if err != nil {
		die("open log: %v", err)
	}

	if *check {
		result, err := planner.Check(cfg)
		if err != nil {
			log.Error("check failed: %v", err)
			die("%v", err)
		}
		fmt.Println(report.Check(result))
		if !result.OK() {
			log.Error("coverage check found %d problem(s)", len(result.Problems))
			os.Exit(1)
		}
		return
	}

	p := &planner.Planner{Config: cfg, Log: log}
	if *seed != 0 {
		p.Rand = rand.New(rand.NewSource(*seed))
	}
	result, err := p.Run()
	if err != nil {
		log.Error("%v", err)
		die("%v", err)
	}
	fmt.Println(report.Plan(result))
}

func die(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

// absPath anchors flag paths at the working directory rather than the
// config file's directory.
func absPath(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	return abs
}

type listFlag []string

func (l *listFlag) String() string {
	if l == nil {
		return ""
	}
	return strings.Join(*l, ",")
}

func (l *listFlag) Set(value string) error {
	value = strings.TrimSpace(value)
	if value == "" {
		return fmt.Errorf("trigger is empty")
	}
	*l = append(*l, value)
	return nil
}
