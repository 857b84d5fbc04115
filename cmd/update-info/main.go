// cmd/update-info/main.go
//
// update-info solves problem files and appends their summary rows to the
// instance ledger. Instances already in the ledger are skipped, so the tool
// can be re-run over a whole directory after a failure.

package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/kingrea/mipsuite/internal/artifact"
	"github.com/kingrea/mipsuite/internal/collector"
	"github.com/kingrea/mipsuite/internal/config"
	"github.com/kingrea/mipsuite/internal/logbook"
	"github.com/kingrea/mipsuite/internal/progress"
	"github.com/kingrea/mipsuite/internal/report"
	"github.com/kingrea/mipsuite/internal/solver"
)

func main() {
	configFile := flag.String("config", "", "path to suite.yaml (defaults to ./suite.yaml when present)")
	ledgerPath := flag.String("ledger", "", "instance ledger CSV")
	timeLimit := flag.String("time-limit", "", "cap for the bounded solve (e.g. 8000 or 2h; 0 disables)")
	solutions := flag.String("solutions", "", "directory receiving solution files")
	showProgress := flag.Bool("progress", false, "show a spinner while solving")
	logFile := flag.String("log", "", "append run log to this file")
	verbose := flag.Bool("v", false, "echo log entries to stderr")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: update-info [flags] [problem.mps.gz | dir]...\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		die("load config: %v", err)
	}
	if *ledgerPath != "" {
		cfg.Ledger = absPath(*ledgerPath)
	}
	if *solutions != "" {
		cfg.Collector.SolutionDir = absPath(*solutions)
	}
	if *logFile != "" {
		cfg.LogFile = absPath(*logFile)
	}
	if *timeLimit != "" {
		limit, err := config.ParseTimeLimit(*timeLimit)
		if err != nil {
			die("-time-limit: %v", err)
		}
		cfg.Collector.TimeLimit = config.Duration(limit)
	}
	if err := cfg.Finalize(); err != nil {
		die("%v", err)
	}

	var opts []logbook.Option
	if *verbose && !*showProgress {
		opts = append(opts, logbook.WithEcho(os.Stderr))
	}
	log, err := logbook.New(cfg.LogFile, opts...)
	if err != nil {
		die("open log: %v", err)
	}

	// No arguments means every problem file in the working directory.
	args := flag.Args()
	if len(args) == 0 {
		args = []string{"."}
	}
	paths, err := collector.Expand(args, cfg.InstanceSuffix)
	if err != nil {
		die("%v", err)
	}
	if len(paths) == 0 {
		log.Warn("no *%s files found in %v", cfg.InstanceSuffix, args)
		return
	}

	highs, err := solver.NewHighs()
	if err != nil {
		die("%v", err)
	}
	store := artifact.NewStore(cfg.Collector.SolutionDir, cfg.Collector.SolutionExt)
	c := &collector.Collector{
		Config:    cfg,
		Solver:    highs,
		Artifacts: store,
		Log:       log,
	}
	log.Info("collecting %d problem file(s), time limit %s, solutions in %s", len(paths), cfg.Collector.Limit(), store.Dir())

	var outcomes []collector.Outcome
	if *showProgress {
		err = progress.Run(os.Stderr, func(r *progress.Reporter) error {
			c.Progress = r
			var runErr error
			outcomes, runErr = c.CollectAll(paths)
			return runErr
		})
	} else {
		outcomes, err = c.CollectAll(paths)
	}
	highs.Close()

	for _, out := range outcomes {
		fmt.Println(report.Outcome(out))
	}
	if err != nil {
		log.Error("%v", err)
		if collector.IsUnexpectedStatus(err) {
			log.Warn("no row written for the failing instance; rerun after fixing it")
		}
		fmt.Fprintln(os.Stderr, report.Failure(err))
		if lines, _ := log.Tail(8); len(lines) > 0 {
			fmt.Fprintln(os.Stderr, report.LogPanel(log.Path(), lines))
		}
	}
	os.Exit(collector.ExitCode(err))
}

func die(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

func absPath(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	return abs
}
