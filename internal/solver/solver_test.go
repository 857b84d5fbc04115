package solver

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestStatusString(t *testing.T) {
	tests := map[Status]string{
		StatusUnsolved:   "unsolved",
		StatusOptimal:    "optimal",
		StatusFeasible:   "feasible",
		StatusInfeasible: "infeasible",
		StatusUnbounded:  "unbounded",
		StatusOther:      "other",
	}
	for status, want := range tests {
		if got := status.String(); got != want {
			t.Fatalf("Status(%d).String() = %q, want %q", int(status), got, want)
		}
	}
	if !StatusFeasible.HasSolution() || StatusInfeasible.HasSolution() {
		t.Fatalf("HasSolution mismatch")
	}
}

func TestFakeReplaysScript(t *testing.T) {
	f := NewFake()
	f.Script("a.mps.gz",
		Outcome{Status: StatusOptimal, Objective: 10.5},
		Outcome{Status: StatusOptimal, Objective: 12, Bound: 12})

	if _, err := f.Optimize(true, 0); !errors.Is(err, ErrNoModel) {
		t.Fatalf("expected ErrNoModel before Read, got %v", err)
	}
	if err := f.Read("a.mps.gz"); err != nil {
		t.Fatalf("read: %v", err)
	}
	status, err := f.Optimize(true, 0)
	if err != nil || status != StatusOptimal || f.ObjectiveValue() != 10.5 {
		t.Fatalf("relaxed solve: status=%s err=%v obj=%v", status, err, f.ObjectiveValue())
	}
	status, err = f.Optimize(false, time.Hour)
	if err != nil || status != StatusOptimal || f.ObjectiveBound() != 12 {
		t.Fatalf("bounded solve: status=%s err=%v bound=%v", status, err, f.ObjectiveBound())
	}
	if len(f.Calls) != 2 || !f.Calls[0].Relax || f.Calls[1].MaxTime != time.Hour {
		t.Fatalf("unexpected calls: %+v", f.Calls)
	}

	out := filepath.Join(t.TempDir(), "a.sol")
	if err := f.Write(out); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := os.Stat(out); err != nil {
		t.Fatalf("expected solution file: %v", err)
	}
}

func TestFakeWriteNeedsSolution(t *testing.T) {
	f := NewFake()
	f.Script("b", Outcome{Status: StatusInfeasible}, Outcome{Status: StatusInfeasible})
	if err := f.Read("b"); err != nil {
		t.Fatal(err)
	}
	if _, err := f.Optimize(false, 0); err != nil {
		t.Fatal(err)
	}
	if err := f.Write(filepath.Join(t.TempDir(), "b.sol")); err == nil {
		t.Fatalf("expected write without solution to fail")
	}
}
