// Package ledger reads and appends the instance ledger: a header-less CSV
// file with one `name,relax_obj,bound,mip_obj,is_optimal` row per instance.
// The four trailing fields are kept as the literal ledger text so job
// definitions can reproduce them verbatim.
package ledger

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gofrs/flock"
)

// Sentinels written in place of numeric fields.
const (
	Infeasible = "inf"
	Unbounded  = "unb"
)

const fieldsPerRecord = 5

// ErrMissing reports that the ledger file does not exist.
var ErrMissing = fmt.Errorf("ledger: file not found: %w", fs.ErrNotExist)

// Record is one ledger row.
type Record struct {
	Name       string
	Relaxation string
	Bound      string
	Value      string
	Optimal    bool
	// OptimalText is the flag as it appears in the file ("true", "1", ...).
	// Empty means FormatBool(Optimal).
	OptimalText string
}

// Flag returns the optimality field text.
func (r Record) Flag() string {
	if r.OptimalText != "" {
		return r.OptimalText
	}
	return FormatBool(r.Optimal)
}

// Fields returns the four trailing ledger fields in file order.
func (r Record) Fields() []string {
	return []string{r.Relaxation, r.Bound, r.Value, r.Flag()}
}

// Row returns the full ledger row.
func (r Record) Row() []string {
	return append([]string{r.Name}, r.Fields()...)
}

// Validate ensures the record can be written without corrupting the file.
func (r Record) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return fmt.Errorf("ledger: record name is required")
	}
	for _, field := range r.Row() {
		if strings.ContainsAny(field, ",\r\n\"") {
			return fmt.Errorf("ledger: record %s: field %q contains a reserved character", r.Name, field)
		}
	}
	if r.OptimalText != "" {
		optimal, err := ParseBool(r.OptimalText)
		if err != nil {
			return fmt.Errorf("ledger: record %s: %w", r.Name, err)
		}
		if optimal != r.Optimal {
			return fmt.Errorf("ledger: record %s: flag %q disagrees with optimal=%t", r.Name, r.OptimalText, r.Optimal)
		}
	}
	return nil
}

// Ledger is an in-memory view of the file, keyed by instance name.
type Ledger struct {
	records []Record
	index   map[string]int
}

// New builds a ledger from records. Later duplicates are ignored, matching
// the append-only rule that the first row for a name wins.
func New(records []Record) *Ledger {
	l := &Ledger{index: make(map[string]int, len(records))}
	for _, rec := range records {
		if _, exists := l.index[rec.Name]; exists {
			continue
		}
		l.index[rec.Name] = len(l.records)
		l.records = append(l.records, rec)
	}
	return l
}

// Len returns the number of distinct instances.
func (l *Ledger) Len() int {
	if l == nil {
		return 0
	}
	return len(l.records)
}

// Names returns the instance names in file order.
func (l *Ledger) Names() []string {
	if l == nil {
		return nil
	}
	names := make([]string, len(l.records))
	for i, rec := range l.records {
		names[i] = rec.Name
	}
	return names
}

// Lookup returns the record for name.
func (l *Ledger) Lookup(name string) (Record, bool) {
	if l == nil {
		return Record{}, false
	}
	idx, ok := l.index[name]
	if !ok {
		return Record{}, false
	}
	return l.records[idx], true
}

// Contains reports whether name already has a row.
func (l *Ledger) Contains(name string) bool {
	_, ok := l.Lookup(name)
	return ok
}

// Parse decodes ledger rows. Blank lines are skipped; any row without
// exactly five fields fails with its line number. Only the name is trimmed;
// the other fields keep their file text.
func Parse(r io.Reader) ([]Record, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = fieldsPerRecord
	var records []Record
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			return records, nil
		}
		if err != nil {
			return nil, fmt.Errorf("ledger: %w", err)
		}
		line, _ := reader.FieldPos(0)
		optimal, err := ParseBool(row[4])
		if err != nil {
			return nil, fmt.Errorf("ledger: line %d: %w", line, err)
		}
		records = append(records, Record{
			Name:        strings.TrimSpace(row[0]),
			Relaxation:  row[1],
			Bound:       row[2],
			Value:       row[3],
			Optimal:     optimal,
			OptimalText: row[4],
		})
	}
}

// Load reads the whole ledger. A missing file returns an error matching
// ErrMissing and fs.ErrNotExist.
func Load(path string) (*Ledger, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrMissing, path)
		}
		return nil, fmt.Errorf("ledger: open %s: %w", path, err)
	}
	defer file.Close()
	records, err := Parse(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return New(records), nil
}

// LoadOrEmpty is Load for writers: a ledger that does not exist yet is
// simply empty.
func LoadOrEmpty(path string) (*Ledger, error) {
	l, err := Load(path)
	if errors.Is(err, ErrMissing) {
		return New(nil), nil
	}
	return l, err
}

// Append adds rec to the ledger at path unless a row with the same name is
// already present, in which case it returns false and writes nothing. The
// membership check and the write happen under an exclusive lock on
// <path>.lock so concurrent writers cannot duplicate a row.
func Append(path string, rec Record) (bool, error) {
	if err := rec.Validate(); err != nil {
		return false, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, fmt.Errorf("ledger: ensure dir: %w", err)
	}
	lock := flock.New(path + ".lock")
	if err := lock.Lock(); err != nil {
		return false, fmt.Errorf("ledger: lock %s: %w", path, err)
	}
	defer lock.Unlock()

	current, err := LoadOrEmpty(path)
	if err != nil {
		return false, err
	}
	if current.Contains(rec.Name) {
		return false, nil
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0o644)
	if err != nil {
		return false, fmt.Errorf("ledger: open %s: %w", path, err)
	}
	defer file.Close()
	if err := ensureTrailingNewline(file); err != nil {
		return false, fmt.Errorf("ledger: %s: %w", path, err)
	}
	w := csv.NewWriter(file)
	if err := w.Write(rec.Row()); err != nil {
		return false, fmt.Errorf("ledger: write %s: %w", path, err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return false, fmt.Errorf("ledger: write %s: %w", path, err)
	}
	return true, nil
}

// ensureTrailingNewline keeps a hand-edited ledger whose last line lacks a
// newline from being merged with the appended row.
func ensureTrailingNewline(file *os.File) error {
	info, err := file.Stat()
	if err != nil {
		return err
	}
	if info.Size() == 0 {
		return nil
	}
	last := make([]byte, 1)
	if _, err := file.ReadAt(last, info.Size()-1); err != nil {
		return err
	}
	if last[0] == '\n' {
		return nil
	}
	_, err = file.Write([]byte("\n"))
	return err
}

// FormatValue renders an objective value the way the ledger has always
// stored them: shortest round-trip text, always with a decimal point or
// exponent ("12.0", "10.5", "1e+20").
func FormatValue(v float64) string {
	switch {
	case math.IsInf(v, 1):
		return "inf"
	case math.IsInf(v, -1):
		return "-inf"
	case math.IsNaN(v):
		return "nan"
	}
	abs := math.Abs(v)
	if abs != 0 && (abs >= 1e16 || abs < 1e-4) {
		return strconv.FormatFloat(v, 'e', -1, 64)
	}
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

// FormatBool renders the optimality flag.
func FormatBool(b bool) string {
	if b {
		return "True"
	}
	return "False"
}

// ParseBool accepts the flag case-insensitively, as the C test harness does.
func ParseBool(value string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "true", "1":
		return true, nil
	case "false", "0":
		return false, nil
	}
	return false, fmt.Errorf("invalid optimality flag %q", value)
}
