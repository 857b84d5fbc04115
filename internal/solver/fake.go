package solver

import (
	"fmt"
	"os"
	"time"
)

// Outcome scripts the result of one Optimize call on a Fake.
type Outcome struct {
	Status    Status
	Objective float64
	Bound     float64
	Err       error
}

// Call records one Optimize invocation.
type Call struct {
	Path    string
	Relax   bool
	MaxTime time.Duration
}

// Fake replays scripted outcomes per problem path. It is used by tests that
// must not depend on the native solver.
type Fake struct {
	// Relaxed and Bounded map a problem path to the outcome of the
	// relaxation and bounded solve respectively.
	Relaxed map[string]Outcome
	Bounded map[string]Outcome
	// ReadErr fails Read for the given paths.
	ReadErr map[string]error

	Calls   []Call
	Written []string
	Closed  bool

	path    string
	current Outcome
}

// NewFake returns an empty Fake ready for scripting.
func NewFake() *Fake {
	return &Fake{
		Relaxed: map[string]Outcome{},
		Bounded: map[string]Outcome{},
		ReadErr: map[string]error{},
	}
}

// Script sets both solve outcomes for path.
func (f *Fake) Script(path string, relaxed, bounded Outcome) {
	f.Relaxed[path] = relaxed
	f.Bounded[path] = bounded
}

func (f *Fake) Read(path string) error {
	if err := f.ReadErr[path]; err != nil {
		return err
	}
	f.path = path
	f.current = Outcome{}
	return nil
}

func (f *Fake) Optimize(relax bool, maxTime time.Duration) (Status, error) {
	if f.path == "" {
		return StatusUnsolved, ErrNoModel
	}
	f.Calls = append(f.Calls, Call{Path: f.path, Relax: relax, MaxTime: maxTime})
	script := f.Bounded
	if relax {
		script = f.Relaxed
	}
	out, ok := script[f.path]
	if !ok {
		return StatusUnsolved, fmt.Errorf("solver: fake has no outcome for %s (relax=%v)", f.path, relax)
	}
	if out.Err != nil {
		return StatusUnsolved, out.Err
	}
	f.current = out
	return out.Status, nil
}

func (f *Fake) Status() Status          { return f.current.Status }
func (f *Fake) ObjectiveValue() float64 { return f.current.Objective }
func (f *Fake) ObjectiveBound() float64 { return f.current.Bound }

// Write creates a small placeholder solution file.
func (f *Fake) Write(path string) error {
	if !f.current.Status.HasSolution() {
		return fmt.Errorf("solver: no solution to write (status %s)", f.current.Status)
	}
	content := fmt.Sprintf("Model status: %s\nObjective value: %v\n", f.current.Status, f.current.Objective)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("solver: write %s: %w", path, err)
	}
	f.Written = append(f.Written, path)
	return nil
}

func (f *Fake) Close() { f.Closed = true }

var (
	_ Solver = (*Fake)(nil)
	_ Solver = (*Highs)(nil)
)
