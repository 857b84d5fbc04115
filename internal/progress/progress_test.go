package progress

import (
	"bytes"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

func TestModelTracksStages(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	m := NewModel()
	m.clock = func() time.Time { return now }

	m.Update(stageMsg{instance: "inst1", stage: "relaxation"})
	now = now.Add(3 * time.Second)
	view := m.View()
	if !strings.Contains(view, "inst1") || !strings.Contains(view, "relaxation solve · 3s") {
		t.Fatalf("view = %q", view)
	}

	m.Update(stageMsg{instance: "inst2", stage: "bounded"})
	if view := m.View(); !strings.Contains(view, "done: inst1") || !strings.Contains(view, "inst2") {
		t.Fatalf("view after second instance = %q", view)
	}
}

func TestModelQuitsWhenWorkFinishes(t *testing.T) {
	m := NewModel()
	boom := errors.New("boom")
	_, cmd := m.Update(doneMsg{err: boom})
	if cmd == nil {
		t.Fatalf("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatalf("expected tea.QuitMsg")
	}
	if !errors.Is(m.Err(), boom) || m.View() != "" {
		t.Fatalf("finished model should hold the error and render nothing")
	}
}

func TestRunReturnsWorkError(t *testing.T) {
	var out bytes.Buffer
	boom := errors.New("solve failed")
	var stages []string
	err := Run(&out, func(r *Reporter) error {
		r.Stage("inst1", "relaxation")
		stages = append(stages, "relaxation")
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("Run error = %v, want %v", err, boom)
	}
	if len(stages) != 1 {
		t.Fatalf("work should run exactly once")
	}
}

func TestModelLabelsArtifactStage(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	m := NewModel()
	m.clock = func() time.Time { return now }

	m.Update(stageMsg{instance: "inst1", stage: "artifact"})
	view := m.View()
	if !strings.Contains(view, "writing solution") || strings.Contains(view, "solve ·") {
		t.Fatalf("view = %q", view)
	}
}

func TestRunWaitsForWorkAfterEarlyQuit(t *testing.T) {
	var out bytes.Buffer
	boom := errors.New("interrupted")
	var finished atomic.Bool
	err := Run(&out, func(r *Reporter) error {
		// Stop the program while the work is still running.
		r.program.Quit()
		time.Sleep(50 * time.Millisecond)
		finished.Store(true)
		return boom
	})
	if !finished.Load() {
		t.Fatalf("Run returned before the work finished")
	}
	if !errors.Is(err, boom) {
		t.Fatalf("Run error = %v, want %v", err, boom)
	}
}
