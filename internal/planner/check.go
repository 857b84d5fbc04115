package planner

import (
	"fmt"
	"strings"

	"github.com/kingrea/mipsuite/internal/config"
	"github.com/kingrea/mipsuite/internal/ledger"
	"github.com/kingrea/mipsuite/internal/workflow"
)

// CheckReport summarises how well the generated job definitions cover the
// ledger.
type CheckReport struct {
	Files     int
	Jobs      int
	Instances int
	Problems  []string
}

// OK reports whether no coverage problem was found.
func (r CheckReport) OK() bool {
	return len(r.Problems) == 0
}

func (r *CheckReport) problem(format string, args ...any) {
	r.Problems = append(r.Problems, fmt.Sprintf(format, args...))
}

// Check re-reads the output directory and verifies that every ledger
// instance appears in exactly one step with its fields copied verbatim, and
// that no job exceeds the batch size. Only I/O and parse failures are
// returned as errors; coverage issues land in the report.
func Check(cfg *config.Config) (CheckReport, error) {
	var report CheckReport
	l, err := ledger.Load(cfg.Ledger)
	if err != nil {
		return report, fmt.Errorf("planner: %w", err)
	}
	files, err := workflow.LoadDir(cfg.Planner.OutputDir)
	if err != nil {
		return report, fmt.Errorf("planner: %w", err)
	}
	report.Files = len(files)
	report.Instances = l.Len()

	seen := make(map[string]string, l.Len())
	for _, file := range files {
		for _, job := range file.Document.Jobs {
			report.Jobs++
			steps := job.CommandSteps()
			if len(steps) > cfg.Planner.BatchSize {
				report.problem("%s: job %s has %d steps, cap is %d", file.Path, job.ID, len(steps), cfg.Planner.BatchSize)
			}
			for _, step := range steps {
				name, ok := strings.CutPrefix(step.Name, "test on ")
				if !ok {
					report.problem("%s: job %s: unrecognised step %q", file.Path, job.ID, step.Name)
					continue
				}
				if where, dup := seen[name]; dup {
					report.problem("%s: %s already scheduled in %s", file.Path, name, where)
					continue
				}
				seen[name] = file.Path + "#" + job.ID
				rec, ok := l.Lookup(name)
				if !ok {
					report.problem("%s: %s is not in the ledger", file.Path, name)
					continue
				}
				want := workflow.SolverStep(cfg.Planner.SolverBinary, cfg.InstancePath(name), rec)
				if step.Run != want.Run {
					report.problem("%s: %s runs %q, want %q", file.Path, name, step.Run, want.Run)
				}
			}
		}
	}
	for _, name := range l.Names() {
		if _, ok := seen[name]; !ok {
			report.problem("%s is not scheduled", name)
		}
	}
	return report, nil
}
