package logbook

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestTailReturnsRecentLinesAndTotal(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "logs", "suite.log")
	book, err := New(path)
	if err != nil {
		t.Fatalf("new logbook: %v", err)
	}
	for i := 0; i < 5; i++ {
		book.Info("entry-%d", i)
	}
	lines, total := book.Tail(3)
	if total != 5 {
		t.Fatalf("total lines = %d, want 5", total)
	}
	if len(lines) != 3 {
		t.Fatalf("len(lines) = %d, want 3", len(lines))
	}
	for idx, want := range []string{"entry-2", "entry-3", "entry-4"} {
		if !strings.Contains(lines[idx], want) {
			t.Fatalf("line %d = %q, missing %s", idx, lines[idx], want)
		}
	}
}

func TestEntriesCarryLevelAndRunID(t *testing.T) {
	var echo bytes.Buffer
	fixed := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	book, err := New("",
		WithEcho(&echo),
		WithRunID("run42"),
		WithClock(func() time.Time { return fixed }),
	)
	if err != nil {
		t.Fatalf("new logbook: %v", err)
	}
	book.Warn("skipping %s", "inst1")
	want := "2024-03-01T12:00:00Z WARN  [run42] skipping inst1\n"
	if echo.String() != want {
		t.Fatalf("echo = %q, want %q", echo.String(), want)
	}
	if lines, total := book.Tail(10); lines != nil || total != 0 {
		t.Fatalf("echo-only logbook should have no tail, got %v/%d", lines, total)
	}
}

func TestNilLogbookIsSafe(t *testing.T) {
	var book *Logbook
	book.Info("ignored")
	book.Error("ignored")
	if book.Path() != "" || book.RunID() != "" {
		t.Fatalf("nil logbook should report empty path and run id")
	}
}
