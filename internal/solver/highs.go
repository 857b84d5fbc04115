//go:build (linux || darwin) && (amd64 || arm64)

package solver

import (
	"fmt"
	"math"
	"time"

	"github.com/bartolsthoorn/gohighs/highs"
)

// Highs drives the HiGHS solver. The model is re-read before every solve so
// a relaxation run never leaks continuous columns into the next solve.
type Highs struct {
	h         *highs.Solver
	path      string
	status    Status
	objective float64
	bound     float64
}

// NewHighs creates a silent HiGHS instance.
func NewHighs() (*Highs, error) {
	h, err := highs.NewSolver()
	if err != nil {
		return nil, fmt.Errorf("solver: create highs: %w", err)
	}
	if err := h.SetBoolOption("output_flag", false); err != nil {
		h.Close()
		return nil, fmt.Errorf("solver: silence highs: %w", err)
	}
	return &Highs{h: h}, nil
}

// Read loads the problem file and remembers its path for later solves.
func (s *Highs) Read(path string) error {
	if err := s.load(path); err != nil {
		return err
	}
	s.path = path
	s.status = StatusUnsolved
	return nil
}

func (s *Highs) load(path string) error {
	if err := s.h.ClearModel(); err != nil {
		return fmt.Errorf("solver: clear model: %w", err)
	}
	if err := s.h.ReadModel(path); err != nil {
		return fmt.Errorf("solver: read %s: %w", path, err)
	}
	return nil
}

// Optimize runs HiGHS on a fresh copy of the model.
func (s *Highs) Optimize(relax bool, maxTime time.Duration) (Status, error) {
	if s.path == "" {
		return StatusUnsolved, ErrNoModel
	}
	if err := s.load(s.path); err != nil {
		return StatusUnsolved, err
	}
	if relax {
		cols := make([]highs.VariableType, s.h.NumCol())
		for i := range cols {
			cols[i] = highs.Continuous
		}
		if err := s.h.SetIntegrality(cols); err != nil {
			return StatusUnsolved, fmt.Errorf("solver: relax integrality: %w", err)
		}
	}
	limit := math.Inf(1)
	if maxTime > 0 {
		limit = maxTime.Seconds()
	}
	if err := s.h.SetFloatOption("time_limit", limit); err != nil {
		return StatusUnsolved, fmt.Errorf("solver: set time limit: %w", err)
	}

	sol, err := s.h.Run()
	if err != nil {
		return StatusUnsolved, fmt.Errorf("solver: run: %w", err)
	}
	if sol.Status == highs.ModelStatusUnboundedOrInfeasible {
		sol, err = s.disambiguate()
		if err != nil {
			return StatusUnsolved, err
		}
	}

	s.status = s.mapStatus(sol.Status)
	s.objective = sol.Objective
	s.bound = sol.Objective
	if bound, err := s.h.GetFloatInfo("mip_dual_bound"); err == nil && !relax && !math.IsInf(bound, 0) && !math.IsNaN(bound) {
		s.bound = bound
	}
	return s.status, nil
}

// disambiguate re-solves without presolve, which is how HiGHS separates an
// unbounded model from an infeasible one.
func (s *Highs) disambiguate() (*highs.Solution, error) {
	if err := s.h.SetStringOption("presolve", "off"); err != nil {
		return nil, fmt.Errorf("solver: disable presolve: %w", err)
	}
	defer s.h.SetStringOption("presolve", "choose")
	sol, err := s.h.Run()
	if err != nil {
		return nil, fmt.Errorf("solver: run without presolve: %w", err)
	}
	return sol, nil
}

// primalFeasible is HiGHS's kSolutionStatusFeasible.
const primalFeasible = 2

func (s *Highs) mapStatus(st highs.ModelStatus) Status {
	switch st {
	case highs.ModelStatusOptimal:
		return StatusOptimal
	case highs.ModelStatusInfeasible:
		return StatusInfeasible
	case highs.ModelStatusUnbounded:
		return StatusUnbounded
	case highs.ModelStatusTimeLimit, highs.ModelStatusIterationLimit, highs.ModelStatusObjectiveBound:
		// A limit status alone does not mean an incumbent was found.
		if ps, err := s.h.GetIntInfo("primal_solution_status"); err == nil && ps == primalFeasible {
			return StatusFeasible
		}
	}
	return StatusOther
}

func (s *Highs) Status() Status          { return s.status }
func (s *Highs) ObjectiveValue() float64 { return s.objective }
func (s *Highs) ObjectiveBound() float64 { return s.bound }

// Write stores the solution of the last solve in HiGHS's raw format.
func (s *Highs) Write(path string) error {
	if !s.status.HasSolution() {
		return fmt.Errorf("solver: no solution to write (status %s)", s.status)
	}
	if err := s.h.WriteSolution(path, false); err != nil {
		return fmt.Errorf("solver: write %s: %w", path, err)
	}
	return nil
}

// Close releases the HiGHS instance.
func (s *Highs) Close() {
	if s.h != nil {
		s.h.Close()
		s.h = nil
	}
}
