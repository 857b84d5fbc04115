// internal/workflow/definition.go
//
// Job-definition documents: a CI workflow holding one job per batch of
// instances. Each job checks the repository out and then runs the solver
// test binary once per instance.

package workflow

import (
	"fmt"
	"strings"

	"github.com/kingrea/mipsuite/internal/ledger"
)

// Document is one rendered workflow file.
type Document struct {
	Name     string
	Triggers []string
	Jobs     []Job
}

// Job is a single batch of solver invocations.
type Job struct {
	ID     string
	RunsOn string
	Steps  []Step
}

// Step is either a `uses:` action (checkout) or a named `run:` command.
type Step struct {
	Name string
	Uses string
	Run  string
}

// IsCommand reports whether the step executes a command line.
func (s Step) IsCommand() bool {
	return s.Run != ""
}

// SolverStep builds the execution step for one ledger record:
//
//	- name: test on <inst>
//	  run: <binary> <instancePath> <relax> <bound> <value> <optimal>
func SolverStep(binary, instancePath string, rec ledger.Record) Step {
	args := append([]string{binary, instancePath}, rec.Fields()...)
	return Step{
		Name: "test on " + rec.Name,
		Run:  strings.Join(args, " "),
	}
}

// BatchJob prepends the checkout action (when set) to the solver steps.
func BatchJob(id, runsOn, checkout string, steps []Step) Job {
	job := Job{ID: id, RunsOn: runsOn}
	if checkout != "" {
		job.Steps = append(job.Steps, Step{Uses: checkout})
	}
	job.Steps = append(job.Steps, steps...)
	return job
}

// CommandSteps returns the steps that run commands, in order.
func (j Job) CommandSteps() []Step {
	var out []Step
	for _, step := range j.Steps {
		if step.IsCommand() {
			out = append(out, step)
		}
	}
	return out
}

// Validate ensures the document is self-consistent.
func (d Document) Validate() error {
	if strings.TrimSpace(d.Name) == "" {
		return fmt.Errorf("workflow: name is required")
	}
	seen := map[string]struct{}{}
	for idx, job := range d.Jobs {
		if err := job.Validate(); err != nil {
			return fmt.Errorf("workflow %s job[%d]: %w", d.Name, idx, err)
		}
		if _, exists := seen[job.ID]; exists {
			return fmt.Errorf("workflow %s: duplicate job id %s", d.Name, job.ID)
		}
		seen[job.ID] = struct{}{}
	}
	return nil
}

// Validate ensures the job is usable.
func (j Job) Validate() error {
	if j.ID == "" {
		return fmt.Errorf("workflow: job id is required")
	}
	if j.RunsOn == "" {
		return fmt.Errorf("workflow: job %s: runs-on is required", j.ID)
	}
	for idx, step := range j.Steps {
		if (step.Uses == "") == (step.Run == "") {
			return fmt.Errorf("workflow: job %s step[%d]: exactly one of uses or run is required", j.ID, idx)
		}
	}
	return nil
}
