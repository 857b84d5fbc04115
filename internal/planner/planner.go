// internal/planner/planner.go
//
// Planner regenerates the CI job definitions from the ledger. The output
// directory is wiped and rewritten on every run; no incremental update.

package planner

import (
	"errors"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"

	"github.com/kingrea/mipsuite/internal/config"
	"github.com/kingrea/mipsuite/internal/ledger"
	"github.com/kingrea/mipsuite/internal/logbook"
	"github.com/kingrea/mipsuite/internal/workflow"
)

// ErrOutputDir reports a missing or unusable output directory.
var ErrOutputDir = errors.New("planner: output directory unavailable")

// Planner turns the ledger into job-definition files.
type Planner struct {
	Config *config.Config
	// Rand drives the shuffle. Nil uses the auto-seeded global source.
	Rand *rand.Rand
	Log  *logbook.Logbook
}

// Result describes one completed run.
type Result struct {
	Batches []Batch
	Files   []string
	Removed []string
}

// Instances returns the number of instances assigned across all batches.
func (r Result) Instances() int {
	total := 0
	for _, b := range r.Batches {
		total += len(b.Records)
	}
	return total
}

// Run loads the ledger, partitions it and rewrites the output directory.
// Nothing is deleted unless both the ledger and the output directory exist.
func (p *Planner) Run() (Result, error) {
	if p.Config == nil {
		return Result{}, fmt.Errorf("planner: config is required")
	}
	cfg := p.Config

	l, err := ledger.Load(cfg.Ledger)
	if err != nil {
		return Result{}, fmt.Errorf("planner: %w", err)
	}
	p.Log.Info("loaded %d instances from %s", l.Len(), cfg.Ledger)

	if err := checkOutputDir(cfg.Planner.OutputDir); err != nil {
		return Result{}, err
	}

	batches, err := Partition(l, cfg.Planner.BatchSize, p.Rand)
	if err != nil {
		return Result{}, err
	}

	removed, err := workflow.ClearDir(cfg.Planner.OutputDir)
	if err != nil {
		return Result{}, fmt.Errorf("planner: %w", err)
	}
	for _, path := range removed {
		p.Log.Info("removed stale job definition %s", path)
	}

	docs := Documents(cfg, batches)
	result := Result{Batches: batches, Removed: removed}
	for _, file := range docs {
		if err := workflow.WriteFile(file.Path, file.Document); err != nil {
			return result, fmt.Errorf("planner: %w", err)
		}
		result.Files = append(result.Files, file.Path)
		p.Log.Info("wrote %s (%d jobs)", file.Path, len(file.Document.Jobs))
	}
	return result, nil
}

// Documents renders batches into the files dictated by the configured layout.
// The single layout always yields exactly one file, even with zero batches.
func Documents(cfg *config.Config, batches []Batch) []workflow.File {
	pc := cfg.Planner
	if pc.Layout == config.LayoutPerBatch {
		files := make([]workflow.File, 0, len(batches))
		for _, batch := range batches {
			id := JobID(pc.JobPrefix, batch.Index)
			files = append(files, workflow.File{
				Path: filepath.Join(pc.OutputDir, id+".yml"),
				Document: workflow.Document{
					Name:     fmt.Sprintf("%s (batch %d)", pc.WorkflowName, batch.Index),
					Triggers: pc.Triggers,
					Jobs:     []workflow.Job{batchJob(cfg, batch)},
				},
			})
		}
		return files
	}

	doc := workflow.Document{Name: pc.WorkflowName, Triggers: pc.Triggers}
	for _, batch := range batches {
		doc.Jobs = append(doc.Jobs, batchJob(cfg, batch))
	}
	return []workflow.File{{Path: filepath.Join(pc.OutputDir, pc.FileName), Document: doc}}
}

// JobID names the job for batch index i.
func JobID(prefix string, i int) string {
	return fmt.Sprintf("%s-%d", prefix, i)
}

func batchJob(cfg *config.Config, batch Batch) workflow.Job {
	pc := cfg.Planner
	steps := make([]workflow.Step, 0, len(batch.Records))
	for _, rec := range batch.Records {
		steps = append(steps, workflow.SolverStep(pc.SolverBinary, cfg.InstancePath(rec.Name), rec))
	}
	return workflow.BatchJob(JobID(pc.JobPrefix, batch.Index), pc.RunsOn, pc.Checkout, steps)
}

func checkOutputDir(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrOutputDir, dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", ErrOutputDir, dir)
	}
	return nil
}
