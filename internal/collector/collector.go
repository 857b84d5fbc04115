// internal/collector/collector.go
//
// Collector fills the ledger one problem file at a time: a relaxation solve,
// a time-bounded solve, one appended row and (when a solution exists) a
// solution artifact. Any unexpected solver outcome aborts before the ledger
// is touched.

package collector

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/kingrea/mipsuite/internal/artifact"
	"github.com/kingrea/mipsuite/internal/config"
	"github.com/kingrea/mipsuite/internal/ledger"
	"github.com/kingrea/mipsuite/internal/logbook"
	"github.com/kingrea/mipsuite/internal/solver"
)

// Solve stages, as reported to Progress and in UnexpectedStatusError.
const (
	StageRelaxation = "relaxation"
	StageBounded    = "bounded"
	StageArtifact   = "artifact"
)

// UnexpectedStatusError reports a solve that ended outside the recorded
// outcomes. The ledger is never written when this is returned.
type UnexpectedStatusError struct {
	Instance string
	Stage    string
	Status   solver.Status
}

func (e *UnexpectedStatusError) Error() string {
	return fmt.Sprintf("collector: %s: unexpected %s status %s", e.Instance, e.Stage, e.Status)
}

// Progress receives stage changes while an instance is processed.
type Progress interface {
	Stage(instance, stage string)
}

// Outcome describes what Collect did for one problem file.
type Outcome struct {
	Name     string
	Path     string
	Skipped  bool
	Record   ledger.Record
	Relaxed  solver.Status
	Bounded  solver.Status
	Artifact string
	// ArtifactState is set for skipped instances recorded as optimal, whose
	// solution file should already exist.
	ArtifactState artifact.State
}

// Collector runs the solves for problem files and records their summaries.
type Collector struct {
	Config    *config.Config
	Solver    solver.Solver
	Artifacts *artifact.Store
	Log       *logbook.Logbook
	Progress  Progress
}

// InstanceName strips the directory and suffix from a problem-file path.
func InstanceName(path, suffix string) string {
	return strings.TrimSuffix(filepath.Base(path), suffix)
}

// Collect ensures the ledger holds a row for the problem at path.
func (c *Collector) Collect(path string) (Outcome, error) {
	if c.Config == nil || c.Solver == nil {
		return Outcome{}, fmt.Errorf("collector: config and solver are required")
	}
	cfg := c.Config
	name := InstanceName(path, cfg.InstanceSuffix)
	out := Outcome{Name: name, Path: path}

	known, err := ledger.LoadOrEmpty(cfg.Ledger)
	if err != nil {
		return out, fmt.Errorf("collector: %w", err)
	}
	if prev, ok := known.Lookup(name); ok {
		c.Log.Info("%s already in %s, skipping", name, cfg.Ledger)
		out.Skipped = true
		out.Record = prev
		c.checkArtifact(&out)
		return out, nil
	}

	if err := c.Solver.Read(path); err != nil {
		return out, fmt.Errorf("collector: %s: %w", name, err)
	}

	rec := ledger.Record{Name: name}

	c.stage(name, StageRelaxation)
	status, err := c.Solver.Optimize(true, 0)
	if err != nil {
		return out, fmt.Errorf("collector: %s: relaxation: %w", name, err)
	}
	out.Relaxed = status
	switch status {
	case solver.StatusOptimal:
		rec.Relaxation = ledger.FormatValue(c.Solver.ObjectiveValue())
	case solver.StatusInfeasible:
		rec.Relaxation = ledger.Infeasible
	case solver.StatusUnbounded:
		rec.Relaxation = ledger.Unbounded
	default:
		return out, &UnexpectedStatusError{Instance: name, Stage: StageRelaxation, Status: status}
	}
	c.Log.Info("%s relaxation %s (%s)", name, status, rec.Relaxation)

	c.stage(name, StageBounded)
	status, err = c.Solver.Optimize(false, cfg.Collector.Limit())
	if err != nil {
		return out, fmt.Errorf("collector: %s: bounded solve: %w", name, err)
	}
	out.Bounded = status
	switch status {
	case solver.StatusOptimal:
		rec.Value = ledger.FormatValue(c.Solver.ObjectiveValue())
		rec.Bound = ledger.FormatValue(c.Solver.ObjectiveBound())
		rec.Optimal = true
	case solver.StatusInfeasible:
		rec.Bound = ledger.Infeasible
		rec.Value = ledger.Infeasible
	default:
		return out, &UnexpectedStatusError{Instance: name, Stage: StageBounded, Status: status}
	}
	c.Log.Info("%s bounded solve %s (bound %s, value %s)", name, status, rec.Bound, rec.Value)

	rec.OptimalText = ledger.FormatBool(rec.Optimal)
	added, err := ledger.Append(cfg.Ledger, rec)
	if err != nil {
		return out, fmt.Errorf("collector: %w", err)
	}
	out.Record = rec
	if !added {
		// Another run appended the same instance while we were solving.
		c.Log.Warn("%s was added to %s by a concurrent run", name, cfg.Ledger)
		out.Skipped = true
		return out, nil
	}

	if status.HasSolution() {
		c.stage(name, StageArtifact)
		written, err := c.writeArtifact(name, rec, status)
		if err != nil {
			return out, err
		}
		out.Artifact = written
	}
	return out, nil
}

func (c *Collector) store() *artifact.Store {
	if c.Artifacts != nil {
		return c.Artifacts
	}
	return artifact.NewStore(c.Config.Collector.SolutionDir, c.Config.Collector.SolutionExt)
}

// checkArtifact verifies the solution file of a skipped instance. Only
// optimal rows get one, so other rows are left alone. Problems are logged,
// not returned: the ledger row is still valid.
func (c *Collector) checkArtifact(out *Outcome) {
	if !out.Record.Optimal {
		return
	}
	result, err := c.store().Check(out.Name)
	out.ArtifactState = result.State
	switch result.State {
	case artifact.StateReady:
		out.Artifact = result.Path
	case artifact.StateMissing:
		c.Log.Warn("%s is recorded as optimal but %s is missing", out.Name, result.Path)
	default:
		c.Log.Warn("%s: solution %s is %s: %v", out.Name, result.Path, result.State, err)
	}
}

func (c *Collector) writeArtifact(name string, rec ledger.Record, status solver.Status) (string, error) {
	store := c.store()
	if err := store.Prepare(); err != nil {
		return "", fmt.Errorf("collector: %w", err)
	}
	path := store.Path(name)
	if err := c.Solver.Write(path); err != nil {
		return "", fmt.Errorf("collector: %s: %w", name, err)
	}
	meta := artifact.Metadata{
		Status:    status.String(),
		Objective: rec.Value,
		Bound:     rec.Bound,
		Optimal:   rec.Optimal,
		RunID:     c.Log.RunID(),
	}
	if _, err := store.Seal(name, meta); err != nil {
		c.Log.Warn("%s: solution written without metadata: %v", name, err)
	}
	c.Log.Info("%s solution written to %s", name, path)
	return path, nil
}

func (c *Collector) stage(name, stage string) {
	if c.Progress != nil {
		c.Progress.Stage(name, stage)
	}
}

// CollectAll processes paths in order and stops at the first error. The
// outcomes gathered so far are returned alongside it.
func (c *Collector) CollectAll(paths []string) ([]Outcome, error) {
	outcomes := make([]Outcome, 0, len(paths))
	for _, path := range paths {
		out, err := c.Collect(path)
		if err != nil {
			return outcomes, err
		}
		outcomes = append(outcomes, out)
	}
	return outcomes, nil
}

// Expand replaces every directory argument with the problem files it
// contains (those ending in suffix), sorted by name.
func Expand(args []string, suffix string) ([]string, error) {
	var paths []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("collector: %w", err)
		}
		if !info.IsDir() {
			paths = append(paths, arg)
			continue
		}
		entries, err := os.ReadDir(arg)
		if err != nil {
			return nil, fmt.Errorf("collector: read %s: %w", arg, err)
		}
		var found []string
		for _, entry := range entries {
			if !entry.IsDir() && strings.HasSuffix(entry.Name(), suffix) {
				found = append(found, filepath.Join(arg, entry.Name()))
			}
		}
		sort.Strings(found)
		paths = append(paths, found...)
	}
	return paths, nil
}

// ExitCode maps a Collect error to the process exit status.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	return 1
}

// IsUnexpectedStatus reports whether err came from an unrecorded solve outcome.
func IsUnexpectedStatus(err error) bool {
	var target *UnexpectedStatusError
	return errors.As(err, &target)
}
