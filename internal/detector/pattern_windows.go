//go:build windows

package detector

import "errors"

var errUnsupported = errors.New("pattern detection is not supported on windows")

// PatternDetector is a stub on Windows; manual mode is Unix-only.
type PatternDetector struct{ Pattern string }

func (d PatternDetector) Alive() (bool, error)    { return false, errUnsupported }
func (d PatternDetector) Pids() ([]int, error)    { return nil, errUnsupported }
func (d PatternDetector) Terminate() (int, error) { return 0, errUnsupported }
func (d PatternDetector) Describe() string        { return "pattern:" + d.Pattern }
