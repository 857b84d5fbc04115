// Package artifact manages the solution files update-info leaves next to the
// ledger. Each solution <name>.<ext> may carry a <name>.<ext>.meta.yaml
// sidecar recording which solve produced it.

package artifact

import (
	"fmt"
	"time"
)

// State captures the readiness of an artifact on disk.
type State string

const (
	StateMissing State = "missing"
	StateReady   State = "ready"
	StateInvalid State = "invalid"
	StateError   State = "error"
)

// Metadata is the provenance stored in the sidecar.
type Metadata struct {
	Instance  string
	Status    string
	Objective string
	Bound     string
	Optimal   bool
	RunID     string
	CreatedAt time.Time
	Checksum  string
}

// WithDefaults fills the instance name and timestamp.
func (m Metadata) WithDefaults(name string, now time.Time) Metadata {
	clone := m
	if clone.Instance == "" {
		clone.Instance = name
	}
	if clone.CreatedAt.IsZero() {
		clone.CreatedAt = now.UTC()
	} else {
		clone.CreatedAt = clone.CreatedAt.UTC()
	}
	return clone
}

// ValidateFor ensures metadata belongs to the named instance.
func (m Metadata) ValidateFor(name string) error {
	if m.Instance != name {
		return fmt.Errorf("artifact: metadata instance %s does not match %s", m.Instance, name)
	}
	if m.Status == "" {
		return fmt.Errorf("artifact: status is required for %s", name)
	}
	return nil
}

// CheckResult is what Store.Check found for one instance.
type CheckResult struct {
	Name     string
	Path     string
	State    State
	Metadata *Metadata
	Err      error
}
