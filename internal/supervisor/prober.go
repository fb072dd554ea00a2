package supervisor

import (
	"context"

	"github.com/loykin/devstack/internal/detector"
	"github.com/loykin/devstack/internal/service"
)

// Snapshot maps service name to "is running", computed fresh on every
// invocation and never cached across runs.
type Snapshot map[string]bool

// Prober answers whether each managed service is currently running. It is a
// capability interface: the default implementations match command lines and
// query the orchestrator, but a PID-file or health-endpoint prober can be
// substituted without touching the controller.
type Prober interface {
	Probe(ctx context.Context, handles []service.Handle) Snapshot
}

// PatternProber derives liveness from command-line pattern matches, one
// detector per process service. A probing error for one service is treated
// as "not running" for that service: detection is best-effort and must never
// block the toggle decision.
type PatternProber struct {
	// NewDetector builds the per-handle detector; tests substitute a fake.
	NewDetector func(pattern string) detector.Detector
}

func (p PatternProber) Probe(_ context.Context, handles []service.Handle) Snapshot {
	mk := p.NewDetector
	if mk == nil {
		mk = func(pattern string) detector.Detector {
			return detector.PatternDetector{Pattern: pattern}
		}
	}
	snap := make(Snapshot, len(handles))
	for _, h := range handles {
		if h.Kind != service.KindProcess {
			continue
		}
		alive, err := mk(h.Pattern).Alive()
		if err != nil {
			alive = false
		}
		snap[h.Name] = alive
	}
	return snap
}

// OrchestratorProber asks the container orchestrator whether any managed
// unit is active; the whole stack shares one answer. Query errors degrade to
// "down" so the toggle decision can still be made.
type OrchestratorProber struct {
	Orch Orchestrator
}

func (p OrchestratorProber) Probe(ctx context.Context, handles []service.Handle) Snapshot {
	up, err := p.Orch.IsUp(ctx)
	if err != nil {
		up = false
	}
	snap := make(Snapshot, len(handles))
	for _, h := range handles {
		snap[h.Name] = up
	}
	return snap
}
