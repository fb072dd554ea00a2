//go:build !windows

package detector

import (
	"errors"
	"os/exec"
	"strconv"
	"strings"
	"syscall"
)

// PatternDetector matches running processes whose full command line contains
// Pattern, using pgrep -f. This substring match is the wire contract between
// the supervisor and manually-launched services: a service is "the process
// whose command line contains its launch string".
type PatternDetector struct{ Pattern string }

func (d PatternDetector) Alive() (bool, error) {
	pids, err := d.Pids()
	if err != nil {
		return false, err
	}
	return len(pids) > 0, nil
}

// Pids returns the PIDs of all processes matching the pattern. No match is
// not an error; pgrep being unavailable is.
func (d PatternDetector) Pids() ([]int, error) {
	out, err := exec.Command("pgrep", "-f", d.Pattern).Output()
	if err != nil {
		var ee *exec.ExitError
		if errors.As(err, &ee) && ee.ExitCode() == 1 {
			// pgrep exits 1 when nothing matched
			return nil, nil
		}
		return nil, err
	}
	var pids []int
	for _, line := range strings.Split(strings.TrimSpace(string(out)), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		pid, perr := strconv.Atoi(line)
		if perr != nil {
			continue
		}
		pids = append(pids, pid)
	}
	return pids, nil
}

// Terminate sends SIGTERM to every matching process. Individual kill errors
// are ignored (already-exited is not a failure); it returns the number of
// processes signalled and any error from listing them.
func (d PatternDetector) Terminate() (int, error) {
	pids, err := d.Pids()
	if err != nil {
		return 0, err
	}
	n := 0
	for _, pid := range pids {
		if kerr := syscall.Kill(pid, syscall.SIGTERM); kerr == nil {
			n++
		}
	}
	return n, nil
}

func (d PatternDetector) Describe() string { return "pattern:" + d.Pattern }
