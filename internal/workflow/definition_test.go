package workflow

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kingrea/mipsuite/internal/ledger"
)

func sampleDocument() Document {
	rec := ledger.Record{Name: "inst1", Relaxation: "10.5", Bound: "12.0", Value: "12.0", Optimal: true}
	step := SolverStep("./bin/c-interface-solver", "./instances/inst1.mps.gz", rec)
	return Document{
		Name:     "COIN-OR CBC Tests",
		Triggers: []string{"push", "pull_request"},
		Jobs: []Job{
			BatchJob("instances-batch-0", "ubuntu-20.04", "actions/checkout@v2", []Step{step}),
		},
	}
}

func TestSolverStepCommandLine(t *testing.T) {
	rec := ledger.Record{Name: "inst2", Relaxation: ledger.Infeasible, Bound: ledger.Infeasible, Value: ledger.Infeasible}
	step := SolverStep("./bin/c-interface-solver", "./instances/inst2.mps.gz", rec)
	if step.Name != "test on inst2" {
		t.Fatalf("step name = %q", step.Name)
	}
	want := "./bin/c-interface-solver ./instances/inst2.mps.gz inf inf inf False"
	if step.Run != want {
		t.Fatalf("step run = %q, want %q", step.Run, want)
	}
}

func TestRenderSingleInstanceScenario(t *testing.T) {
	out, err := Render(sampleDocument())
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	text := string(out)
	want := "run: ./bin/c-interface-solver ./instances/inst1.mps.gz 10.5 12.0 12.0 True"
	if !strings.Contains(text, want) {
		t.Fatalf("rendered document missing %q:\n%s", want, text)
	}
	if !strings.Contains(text, generatedHeader) {
		t.Fatalf("rendered document missing header comment:\n%s", text)
	}
	for _, fragment := range []string{"instances-batch-0:", "runs-on: ubuntu-20.04", "uses: actions/checkout@v2", "name: test on inst1"} {
		if !strings.Contains(text, fragment) {
			t.Fatalf("rendered document missing %q:\n%s", fragment, text)
		}
	}
}

func TestRenderParseRoundTrip(t *testing.T) {
	doc := sampleDocument()
	rec := ledger.Record{Name: "inst3", Relaxation: "unb", Bound: "3.0", Value: "4.5"}
	second := BatchJob("instances-batch-1", "ubuntu-20.04", "actions/checkout@v2",
		[]Step{SolverStep("./bin/c-interface-solver", "./instances/inst3.mps.gz", rec)})
	doc.Jobs = append(doc.Jobs, second)

	out, err := Render(doc)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	parsed, err := Parse(out)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if parsed.Name != doc.Name {
		t.Fatalf("name = %q, want %q", parsed.Name, doc.Name)
	}
	if strings.Join(parsed.Triggers, ",") != "push,pull_request" {
		t.Fatalf("triggers = %v", parsed.Triggers)
	}
	if len(parsed.Jobs) != 2 || parsed.Jobs[0].ID != "instances-batch-0" || parsed.Jobs[1].ID != "instances-batch-1" {
		t.Fatalf("job order not preserved: %+v", parsed.Jobs)
	}
	steps := parsed.Jobs[1].CommandSteps()
	if len(steps) != 1 || steps[0] != second.Steps[1] {
		t.Fatalf("steps = %+v, want %+v", steps, second.Steps[1])
	}
	if parsed.Jobs[0].Steps[0].Uses != "actions/checkout@v2" {
		t.Fatalf("checkout step should come first: %+v", parsed.Jobs[0].Steps)
	}
}

func TestRenderEmptyDocument(t *testing.T) {
	doc := Document{Name: "COIN-OR CBC Tests", Triggers: []string{"push"}}
	out, err := Render(doc)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	parsed, err := Parse(out)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(parsed.Jobs) != 0 {
		t.Fatalf("expected zero jobs, got %d", len(parsed.Jobs))
	}
}

func TestValidateRejectsBadDocuments(t *testing.T) {
	dup := sampleDocument()
	dup.Jobs = append(dup.Jobs, dup.Jobs[0])
	cases := map[string]Document{
		"missing name": {Jobs: sampleDocument().Jobs},
		"duplicate id": dup,
		"empty step":   {Name: "x", Jobs: []Job{{ID: "a", RunsOn: "ubuntu", Steps: []Step{{Name: "noop"}}}}},
		"no runs-on":   {Name: "x", Jobs: []Job{{ID: "a"}}},
	}
	for name, doc := range cases {
		if err := doc.Validate(); err == nil {
			t.Fatalf("%s: expected validation error", name)
		}
	}
}

func TestParseErrors(t *testing.T) {
	if _, err := Parse([]byte("  ")); err == nil {
		t.Fatalf("expected empty payload to fail")
	}
	if _, err := Parse([]byte("- a\n- b\n")); err == nil {
		t.Fatalf("expected sequence document to fail")
	}
}

func TestClearDirAndLoadDir(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "stale.yml"), []byte("old"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Mkdir(filepath.Join(dir, "keep"), 0o755); err != nil {
		t.Fatal(err)
	}
	removed, err := ClearDir(dir)
	if err != nil {
		t.Fatalf("clear: %v", err)
	}
	if len(removed) != 1 {
		t.Fatalf("expected one removed file, got %v", removed)
	}
	if _, err := os.Stat(filepath.Join(dir, "keep")); err != nil {
		t.Fatalf("subdirectory should survive: %v", err)
	}

	if err := WriteFile(filepath.Join(dir, "test.yml"), sampleDocument()); err != nil {
		t.Fatalf("write: %v", err)
	}
	files, err := LoadDir(dir)
	if err != nil {
		t.Fatalf("load dir: %v", err)
	}
	if len(files) != 1 || files[0].Document.Jobs[0].ID != "instances-batch-0" {
		t.Fatalf("unexpected files: %+v", files)
	}

	if _, err := ClearDir(filepath.Join(dir, "missing")); err == nil {
		t.Fatalf("expected missing dir to fail")
	}
}
