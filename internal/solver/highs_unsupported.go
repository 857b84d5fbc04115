//go:build !((linux || darwin) && (amd64 || arm64))

package solver

import (
	"errors"
	"runtime"
	"time"
)

// ErrUnsupportedPlatform is returned where no prebuilt HiGHS library exists.
var ErrUnsupportedPlatform = errors.New("solver: highs is not available on " + runtime.GOOS + "/" + runtime.GOARCH)

// Highs is unavailable on this platform.
type Highs struct{}

// NewHighs always fails on this platform.
func NewHighs() (*Highs, error) { return nil, ErrUnsupportedPlatform }

func (*Highs) Read(string) error                            { return ErrUnsupportedPlatform }
func (*Highs) Optimize(bool, time.Duration) (Status, error) { return StatusUnsolved, ErrUnsupportedPlatform }
func (*Highs) Status() Status                               { return StatusUnsolved }
func (*Highs) ObjectiveValue() float64                      { return 0 }
func (*Highs) ObjectiveBound() float64                      { return 0 }
func (*Highs) Write(string) error                           { return ErrUnsupportedPlatform }
func (*Highs) Close()                                       {}
