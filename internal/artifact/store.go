package artifact

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const metaSuffix = ".meta.yaml"

// Store manages solution artifacts rooted at Dir.
type Store struct {
	dir string
	ext string
	now func() time.Time
}

// StoreOption customizes a Store during construction.
type StoreOption func(*Store)

// WithClock overrides the clock used for metadata timestamps.
func WithClock(clock func() time.Time) StoreOption {
	return func(s *Store) {
		s.now = clock
	}
}

// NewStore builds a store writing <dir>/<name>.<ext>.
func NewStore(dir, ext string, opts ...StoreOption) *Store {
	store := &Store{
		dir: dir,
		ext: strings.TrimPrefix(ext, "."),
		now: time.Now,
	}
	for _, opt := range opts {
		opt(store)
	}
	return store
}

// Dir returns the artifact directory.
func (s *Store) Dir() string { return s.dir }

// Path returns where the solution for name lives.
func (s *Store) Path(name string) string {
	file := name
	if s.ext != "" {
		file += "." + s.ext
	}
	return filepath.Join(s.dir, file)
}

// MetaPath returns the sidecar path for name.
func (s *Store) MetaPath(name string) string {
	return s.Path(name) + metaSuffix
}

// Prepare makes sure the artifact directory exists before the solver writes
// into it.
func (s *Store) Prepare() error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("artifact: create %s: %w", s.dir, err)
	}
	return nil
}

// Seal records provenance for a solution the solver has already written.
// The checksum ties the sidecar to the exact solution bytes.
func (s *Store) Seal(name string, meta Metadata) (Metadata, error) {
	path := s.Path(name)
	sum, err := checksumFile(path)
	if err != nil {
		return Metadata{}, fmt.Errorf("artifact: checksum %s: %w", path, err)
	}
	prepared := meta.WithDefaults(name, s.now())
	prepared.Checksum = sum
	if err := prepared.ValidateFor(name); err != nil {
		return Metadata{}, err
	}
	data, err := encodeMetadata(prepared)
	if err != nil {
		return Metadata{}, err
	}
	if err := os.WriteFile(s.MetaPath(name), data, 0o644); err != nil {
		return Metadata{}, fmt.Errorf("artifact: write metadata for %s: %w", name, err)
	}
	return prepared, nil
}

// Check inspects the solution for name. A solution without a sidecar is
// ready; a sidecar whose checksum no longer matches makes it invalid.
func (s *Store) Check(name string) (CheckResult, error) {
	path := s.Path(name)
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return CheckResult{Name: name, Path: path, State: StateMissing}, nil
		}
		return CheckResult{Name: name, Path: path, State: StateError, Err: err}, err
	}
	if info.IsDir() {
		return invalidResult(name, path, fmt.Errorf("artifact: expected solution file got directory"))
	}
	if info.Size() == 0 {
		return invalidResult(name, path, fmt.Errorf("artifact: solution file is empty"))
	}

	data, err := os.ReadFile(s.MetaPath(name))
	if errors.Is(err, fs.ErrNotExist) {
		return CheckResult{Name: name, Path: path, State: StateReady}, nil
	}
	if err != nil {
		return CheckResult{Name: name, Path: path, State: StateError, Err: err}, err
	}
	meta, err := decodeMetadata(data)
	if err != nil {
		return invalidResult(name, path, err)
	}
	if meta.Instance != name {
		return invalidResult(name, path, fmt.Errorf("artifact: metadata instance %s does not match %s", meta.Instance, name))
	}
	sum, err := checksumFile(path)
	if err != nil {
		return CheckResult{Name: name, Path: path, State: StateError, Err: err}, err
	}
	if sum != meta.Checksum {
		return invalidResult(name, path, fmt.Errorf("artifact: %s changed since it was written", path))
	}
	return CheckResult{Name: name, Path: path, State: StateReady, Metadata: &meta}, nil
}

func invalidResult(name, path string, err error) (CheckResult, error) {
	return CheckResult{Name: name, Path: path, State: StateInvalid, Err: err}, err
}
