package service

import (
	"os"
	"path/filepath"
	"time"
)

// Kind distinguishes how a service is managed in manual mode.
type Kind int

const (
	// KindProcess services are spawned as independent OS processes and
	// detected by command-line pattern match.
	KindProcess Kind = iota
	// KindInfra services are delegated to the container orchestrator even in
	// manual mode (shared cache, broker, local database emulator).
	KindInfra
)

// Handle describes one managed service. The table is fixed at process start
// and never persisted; liveness is re-derived on every invocation.
type Handle struct {
	Name string
	Kind Kind
	// Pattern is the command-line substring used for liveness detection and
	// termination of KindProcess services. Changing a service's invocation
	// string silently breaks detection; the pattern must track Command.
	Pattern string
	// Command launches the service (KindProcess). Run through the shell when
	// metacharacters are present.
	Command string
	// WorkDir is the launch working directory, relative to the project root.
	WorkDir string
	// Preflight is an optional probe run before launch; non-zero exit yields
	// a warning but never aborts the start sequence.
	Preflight string
	// Settle is the delay after launching this service before the next one,
	// a crude readiness proxy in place of real health checks.
	Settle time.Duration
	// Core services participate in the aggregate up/down classification.
	Core bool
	// ComposeName is the orchestrator unit name for KindInfra services.
	ComposeName string
	// NeedsEnv marks services that consume the synchronized environment file.
	NeedsEnv bool
}

// LogPath returns the per-service log file, truncated at each start.
func (h Handle) LogPath(logDir string) string {
	if logDir == "" {
		logDir = os.TempDir()
	}
	return filepath.Join(logDir, "devstack_"+h.Name+".log")
}

// OpenLog opens (and truncates) the service log file.
func (h Handle) OpenLog(logDir string) (*os.File, error) {
	// #nosec G302 G304 -- operator-readable service logs
	return os.OpenFile(h.LogPath(logDir), os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
}

// Defaults returns the managed service table in launch order: shared
// infrastructure first, then backend, frontend, worker. withLocalDB adds the
// local database emulator to the infrastructure set.
func Defaults(withLocalDB bool) []Handle {
	handles := []Handle{
		{Name: "redis", Kind: KindInfra, ComposeName: "redis"},
		{Name: "rabbitmq", Kind: KindInfra, ComposeName: "rabbitmq", Settle: 2 * time.Second},
	}
	if withLocalDB {
		handles = append(handles, Handle{Name: "supabase", Kind: KindInfra, ComposeName: "supabase", Settle: 2 * time.Second})
	}
	handles = append(handles,
		Handle{
			Name:      "backend",
			Kind:      KindProcess,
			Pattern:   "python api.py",
			Command:   ". .venv/bin/activate && python api.py",
			WorkDir:   "backend",
			Preflight: ". .venv/bin/activate && python -c 'import api'",
			Settle:    3 * time.Second,
			Core:      true,
			NeedsEnv:  true,
		},
		Handle{
			Name:    "frontend",
			Kind:    KindProcess,
			Pattern: "next dev",
			Command: "npm run dev",
			WorkDir: "frontend",
			Settle:  2 * time.Second,
			Core:    true,
		},
		Handle{
			Name:      "worker",
			Kind:      KindProcess,
			Pattern:   "dramatiq run_agent_background",
			Command:   ". .venv/bin/activate && python -m dramatiq run_agent_background",
			WorkDir:   "backend",
			Preflight: ". .venv/bin/activate && python -c 'import dramatiq'",
			Core:      true,
			NeedsEnv:  true,
		},
	)
	return handles
}

// Processes filters the table to independently-spawned services.
func Processes(handles []Handle) []Handle {
	var out []Handle
	for _, h := range handles {
		if h.Kind == KindProcess {
			out = append(out, h)
		}
	}
	return out
}

// InfraNames returns the orchestrator unit names of infrastructure services.
func InfraNames(handles []Handle) []string {
	var out []string
	for _, h := range handles {
		if h.Kind == KindInfra {
			out = append(out, h.ComposeName)
		}
	}
	return out
}
