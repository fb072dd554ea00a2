package envfile

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/subosito/gotenv"
)

// Result reports what EnsureFresh did to the environment file.
type Result int

const (
	Unchanged Result = iota
	Refreshed
)

func (r Result) String() string {
	if r == Refreshed {
		return "refreshed"
	}
	return "unchanged"
}

// Synchronizer keeps the environment file consumed by manually-launched
// services fresh relative to the setup-state store. Regeneration is delegated
// to an external procedure; the synchronizer only decides when to call it.
type Synchronizer struct {
	// Path is the environment file, typically backend/.env.
	Path string
	// RequiredKeys must be present and non-empty; an empty or missing key
	// forces regeneration.
	RequiredKeys []string
	// RegenCommand is the external regeneration procedure, run via the shell.
	RegenCommand string
	// Dir is the working directory for RegenCommand.
	Dir string
}

// NeedsRefresh decides whether the file must be regenerated. stateMtime is
// the setup-state store's mtime (zero when the store is absent). The second
// return value names the reason, for operator-facing warnings.
func (s *Synchronizer) NeedsRefresh(stateMtime time.Time) (bool, string) {
	fi, err := os.Stat(s.Path)
	if err != nil {
		return true, "environment file missing"
	}
	if !stateMtime.IsZero() && fi.ModTime().Before(stateMtime) {
		return true, "environment file older than setup state"
	}
	env, err := gotenv.Read(s.Path)
	if err != nil {
		return true, fmt.Sprintf("environment file unreadable: %v", err)
	}
	for _, k := range s.RequiredKeys {
		v, ok := env[k]
		if !ok {
			return true, fmt.Sprintf("required key %s absent", k)
		}
		if v == "" {
			return true, fmt.Sprintf("required key %s empty", k)
		}
	}
	return false, ""
}

// EnsureFresh regenerates the environment file when needed. Failure to
// regenerate is non-fatal: the launched service will fail fast on its own
// and that failure is visible in its log, so only warnings are returned.
func (s *Synchronizer) EnsureFresh(ctx context.Context, stateMtime time.Time) (Result, []string) {
	need, reason := s.NeedsRefresh(stateMtime)
	if !need {
		return Unchanged, nil
	}
	var warnings []string
	warnings = append(warnings, reason)
	if s.RegenCommand == "" {
		warnings = append(warnings, "no regeneration command configured; continuing with current environment")
		return Unchanged, warnings
	}
	// #nosec G204
	cmd := exec.CommandContext(ctx, "/bin/sh", "-c", s.RegenCommand)
	cmd.Dir = s.Dir
	if out, err := cmd.CombinedOutput(); err != nil {
		warnings = append(warnings, fmt.Sprintf("environment regeneration failed: %v (%s)", err, firstLine(out)))
		return Unchanged, warnings
	}
	return Refreshed, warnings
}

func firstLine(b []byte) string {
	for i, c := range b {
		if c == '\n' {
			return string(b[:i])
		}
	}
	return string(b)
}
