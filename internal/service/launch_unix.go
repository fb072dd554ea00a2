//go:build !windows

package service

import (
	"fmt"
	"os"
	"path/filepath"
	"syscall"
)

// Launch starts the service detached into its own process group, with stdout
// and stderr redirected to its truncated log file. The supervisor never waits
// on the child; liveness is re-derived by pattern match on the next run, and
// the new process group keeps the service alive after the supervisor exits.
func (h Handle) Launch(root, logDir string) (int, error) {
	cmd := h.BuildCommand()
	if h.WorkDir != "" {
		wd := filepath.Join(root, h.WorkDir)
		if _, err := os.Stat(wd); err != nil {
			return 0, fmt.Errorf("service %s: working directory %s: %w", h.Name, wd, err)
		}
		cmd.Dir = wd
	}
	logFile, err := h.OpenLog(logDir)
	if err != nil {
		return 0, fmt.Errorf("service %s: open log: %w", h.Name, err)
	}
	cmd.Stdout = logFile
	cmd.Stderr = logFile
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	if err := cmd.Start(); err != nil {
		_ = logFile.Close()
		return 0, fmt.Errorf("service %s: start: %w", h.Name, err)
	}
	pid := cmd.Process.Pid
	// The parent's copy of the log fd and the child handle are not needed:
	// the child owns its own descriptors, and we deliberately do not reap it.
	_ = logFile.Close()
	_ = cmd.Process.Release()
	return pid, nil
}
