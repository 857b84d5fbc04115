package ledger

import (
	"errors"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

const sampleLedger = `inst1,10.5,12.0,12.0,True
inst2,inf,inf,inf,False

inst3,unb,3.0,4.5,false
`

func TestParse(t *testing.T) {
	records, err := Parse(strings.NewReader(sampleLedger))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}
	want := Record{Name: "inst1", Relaxation: "10.5", Bound: "12.0", Value: "12.0", Optimal: true, OptimalText: "True"}
	if records[0] != want {
		t.Fatalf("record[0] = %+v, want %+v", records[0], want)
	}
	if records[1].Relaxation != Infeasible || records[2].Relaxation != Unbounded {
		t.Fatalf("sentinels not preserved: %+v", records)
	}
	if records[2].Optimal {
		t.Fatalf("expected lower-case false to parse as false")
	}
}

func TestParseRejectsWrongFieldCount(t *testing.T) {
	_, err := Parse(strings.NewReader("inst1,1.0,2.0,2.0,True\ninst2,1.0\n"))
	if err == nil {
		t.Fatalf("expected malformed row to fail")
	}
	if !strings.Contains(err.Error(), "line 2") {
		t.Fatalf("error should name the line: %v", err)
	}
}

func TestParseRejectsBadFlag(t *testing.T) {
	if _, err := Parse(strings.NewReader("inst1,1.0,2.0,2.0,maybe\n")); err == nil {
		t.Fatalf("expected invalid flag to fail")
	}
}

func TestLoadMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "instances.csv")
	_, err := Load(path)
	if !errors.Is(err, ErrMissing) || !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("expected ErrMissing, got %v", err)
	}
	l, err := LoadOrEmpty(path)
	if err != nil {
		t.Fatalf("LoadOrEmpty: %v", err)
	}
	if l.Len() != 0 {
		t.Fatalf("expected empty ledger, got %d records", l.Len())
	}
}

func TestLedgerLookupKeepsFirstRow(t *testing.T) {
	l := New([]Record{
		{Name: "a", Relaxation: "1.0"},
		{Name: "b", Relaxation: "2.0"},
		{Name: "a", Relaxation: "9.0"},
	})
	if l.Len() != 2 {
		t.Fatalf("expected duplicates collapsed, got %d", l.Len())
	}
	rec, ok := l.Lookup("a")
	if !ok || rec.Relaxation != "1.0" {
		t.Fatalf("expected first row for a, got %+v (ok=%v)", rec, ok)
	}
	if got := strings.Join(l.Names(), ","); got != "a,b" {
		t.Fatalf("names = %s, want a,b", got)
	}
	if l.Contains("c") {
		t.Fatalf("unexpected member c")
	}
}

func TestAppendIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "instances", "instances.csv")
	rec := Record{Name: "inst1", Relaxation: "10.5", Bound: "12.0", Value: "12.0", Optimal: true}

	added, err := Append(path, rec)
	if err != nil || !added {
		t.Fatalf("first append: added=%v err=%v", added, err)
	}
	added, err = Append(path, rec)
	if err != nil {
		t.Fatalf("second append: %v", err)
	}
	if added {
		t.Fatalf("second append should be a no-op")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "inst1,10.5,12.0,12.0,True\n" {
		t.Fatalf("ledger content = %q", data)
	}
}

func TestAppendRepairsMissingTrailingNewline(t *testing.T) {
	path := filepath.Join(t.TempDir(), "instances.csv")
	if err := os.WriteFile(path, []byte("inst1,1.0,2.0,2.0,True"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Append(path, Record{Name: "inst2", Relaxation: Infeasible, Bound: Infeasible, Value: Infeasible}); err != nil {
		t.Fatalf("append: %v", err)
	}
	l, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if l.Len() != 2 {
		t.Fatalf("expected 2 rows after append, got %d", l.Len())
	}
}

func TestAppendConcurrentWritersSingleRow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "instances.csv")
	rec := Record{Name: "inst1", Relaxation: "1.0", Bound: "1.0", Value: "1.0", Optimal: true}
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := Append(path, rec); err != nil {
				t.Errorf("append: %v", err)
			}
		}()
	}
	wg.Wait()
	l, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if l.Len() != 1 {
		t.Fatalf("expected exactly one row, got %d", l.Len())
	}
}

func TestAppendRejectsReservedCharacters(t *testing.T) {
	path := filepath.Join(t.TempDir(), "instances.csv")
	if _, err := Append(path, Record{Name: "bad,name"}); err == nil {
		t.Fatalf("expected comma in name to be rejected")
	}
	if _, err := os.Stat(path); !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("rejected record must not create the ledger")
	}
}

func TestFormatValue(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{12, "12.0"},
		{10.5, "10.5"},
		{-3, "-3.0"},
		{0, "0.0"},
		{1e20, "1e+20"},
		{0.00001, "1e-05"},
		{math.Inf(1), "inf"},
	}
	for _, tt := range tests {
		if got := FormatValue(tt.in); got != tt.want {
			t.Fatalf("FormatValue(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestRecordFields(t *testing.T) {
	rec := Record{Name: "inst1", Relaxation: "10.5", Bound: "12.0", Value: "12.0", Optimal: true}
	if got := strings.Join(rec.Fields(), " "); got != "10.5 12.0 12.0 True" {
		t.Fatalf("fields = %q", got)
	}
}

func TestParseKeepsFieldText(t *testing.T) {
	records, err := Parse(strings.NewReader("inst1,10.50,1e3,12,true\ninst2,1,2,3,1\n"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got := strings.Join(records[0].Fields(), " "); got != "10.50 1e3 12 true" {
		t.Fatalf("inst1 fields = %q", got)
	}
	if got := strings.Join(records[1].Fields(), " "); got != "1 2 3 1" || !records[1].Optimal {
		t.Fatalf("inst2 fields = %q optimal=%t", got, records[1].Optimal)
	}
}

func TestValidateRejectsContradictoryFlag(t *testing.T) {
	rec := Record{Name: "inst1", Relaxation: "1", Bound: "2", Value: "2", Optimal: false, OptimalText: "true"}
	if err := rec.Validate(); err == nil {
		t.Fatalf("expected flag text and Optimal to be checked against each other")
	}
}
