// Package solver hides the MIP solver library behind a small interface so
// the collector can be exercised without it.
package solver

import (
	"errors"
	"time"
)

// Status is the outcome of the most recent Optimize call.
type Status int

const (
	StatusUnsolved Status = iota
	StatusOptimal
	// StatusFeasible means a solution exists but optimality was not proven,
	// typically because the time limit was hit.
	StatusFeasible
	StatusInfeasible
	StatusUnbounded
	StatusOther
)

func (s Status) String() string {
	switch s {
	case StatusUnsolved:
		return "unsolved"
	case StatusOptimal:
		return "optimal"
	case StatusFeasible:
		return "feasible"
	case StatusInfeasible:
		return "infeasible"
	case StatusUnbounded:
		return "unbounded"
	default:
		return "other"
	}
}

// HasSolution reports whether a primal solution can be written.
func (s Status) HasSolution() bool {
	return s == StatusOptimal || s == StatusFeasible
}

// ErrNoModel is returned when Optimize or Write runs before Read.
var ErrNoModel = errors.New("solver: no model loaded")

// Solver is the capability the collector needs from a MIP solver.
type Solver interface {
	// Read loads a problem file. Compressed files are handled by the solver.
	Read(path string) error
	// Optimize solves the loaded problem. relax drops integrality; a zero
	// maxTime means no limit.
	Optimize(relax bool, maxTime time.Duration) (Status, error)
	Status() Status
	ObjectiveValue() float64
	// ObjectiveBound is the best proven bound of the last solve.
	ObjectiveBound() float64
	// Write stores the current solution at path.
	Write(path string) error
	Close()
}
