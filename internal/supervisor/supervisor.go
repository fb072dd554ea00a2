package supervisor

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/loykin/devstack/internal/compose"
	"github.com/loykin/devstack/internal/config"
	"github.com/loykin/devstack/internal/detector"
	"github.com/loykin/devstack/internal/envfile"
	"github.com/loykin/devstack/internal/service"
	"github.com/loykin/devstack/internal/setup"
)

// Orchestrator is the container-orchestrator surface the controller consumes.
type Orchestrator interface {
	IsUp(ctx context.Context) (bool, error)
	Up(ctx context.Context, services ...string) error
	Down(ctx context.Context) error
}

// Action is the lifecycle transition chosen for this invocation.
type Action int

const (
	ActionStart Action = iota
	ActionStop
)

func (a Action) String() string {
	if a == ActionStop {
		return "stop"
	}
	return "start"
}

// Aggregate classifies the stack's current liveness.
type Aggregate int

const (
	AllStopped Aggregate = iota
	PartiallyRunning
	FullyRunning
)

func (a Aggregate) String() string {
	switch a {
	case FullyRunning:
		return "running"
	case PartiallyRunning:
		return "partially running"
	default:
		return "stopped"
	}
}

// Decide maps the aggregate state to the target action. A partial state is a
// signal to fully reset rather than patch: filling in missing services would
// risk double-launching one whose detection pattern briefly missed it.
func (a Aggregate) Decide() Action {
	if a == AllStopped {
		return ActionStart
	}
	return ActionStop
}

// Result summarizes one toggle invocation for the CLI shell.
type Result struct {
	Mode      setup.Mode
	Defaulted bool
	Aggregate Aggregate
	Action    Action
	Performed bool
	Warnings  []string
}

// Supervisor is the lifecycle controller: one state assessment and one
// transition per invocation. It is not a daemon.
type Supervisor struct {
	Cfg     config.Config
	State   setup.State
	Handles []service.Handle
	Orch    Orchestrator
	Env     *envfile.Synchronizer
	Log     *slog.Logger

	// Prober overrides the mode-derived default; tests substitute fakes.
	Prober Prober
	// Terminate overrides per-service termination; default signals every
	// process matching the handle's pattern.
	Terminate func(h service.Handle) (int, error)
	// Confirm asks the operator; nil means always yes (force).
	Confirm func(prompt string, defaultYes bool) (bool, error)
	// Sleep is injected so tests skip the settle delays.
	Sleep func(time.Duration)
	// Spin enables the settle-delay spinner on interactive runs.
	Spin bool
}

// New wires a supervisor from resolved configuration and setup state.
func New(cfg config.Config, st setup.State, log *slog.Logger) *Supervisor {
	orch := compose.New(cfg.Root)
	orch.Bin = cfg.ComposeBin
	return &Supervisor{
		Cfg:     cfg,
		State:   st,
		Handles: service.Defaults(st.DBMode == setup.DBLocal),
		Orch:    orch,
		Env: &envfile.Synchronizer{
			Path:         filepath.Join(cfg.Root, cfg.EnvFile),
			RequiredKeys: cfg.RequiredEnvKeys,
			RegenCommand: cfg.RegenCommand,
			Dir:          cfg.Root,
		},
		Log:   log,
		Sleep: time.Sleep,
	}
}

func (s *Supervisor) prober(mode setup.Mode) Prober {
	if s.Prober != nil {
		return s.Prober
	}
	if mode == setup.ModeManual {
		return PatternProber{}
	}
	return OrchestratorProber{Orch: s.Orch}
}

// Classify folds a liveness snapshot into the aggregate state. In container
// mode the orchestrator's answer covers the whole stack; in manual mode only
// core services count, and "some but not all" is PartiallyRunning.
func Classify(mode setup.Mode, handles []service.Handle, snap Snapshot) Aggregate {
	if mode != setup.ModeManual {
		for _, up := range snap {
			if up {
				return FullyRunning
			}
		}
		return AllStopped
	}
	core, live := 0, 0
	for _, h := range handles {
		if h.Kind != service.KindProcess || !h.Core {
			continue
		}
		core++
		if snap[h.Name] {
			live++
		}
	}
	switch {
	case core == 0 || live == 0:
		return AllStopped
	case live == core:
		return FullyRunning
	default:
		return PartiallyRunning
	}
}

// Toggle performs the single state assessment and transition of this
// invocation: probe, classify, decide, confirm, execute.
func (s *Supervisor) Toggle(ctx context.Context, force bool) (Result, error) {
	mode, defaulted := s.State.Effective()
	res := Result{Mode: mode, Defaulted: defaulted}
	if defaulted {
		s.Log.Warn("setup method not detected; run setup first or defaulting to container mode")
	}

	snap := s.prober(mode).Probe(ctx, s.Handles)
	res.Aggregate = Classify(mode, s.Handles, snap)
	res.Action = res.Aggregate.Decide()

	if res.Aggregate == PartiallyRunning {
		s.Log.Warn("some services are already running; a full stop avoids launching duplicates")
		for _, h := range service.Processes(s.Handles) {
			state := "stopped"
			if snap[h.Name] {
				state = "running"
			}
			s.Log.Info("service state", "service", h.Name, "state", state)
		}
	}

	if !force && s.Confirm != nil {
		ok, err := s.ask(res.Action)
		if err != nil {
			return res, fmt.Errorf("confirmation prompt: %w", err)
		}
		if !ok {
			return res, nil
		}
	}

	var err error
	switch {
	case mode == setup.ModeManual && res.Action == ActionStart:
		err = s.startManual(ctx, &res)
	case mode == setup.ModeManual && res.Action == ActionStop:
		err = s.stopManual(ctx, &res)
	case res.Action == ActionStart:
		if uerr := s.Orch.Up(ctx); uerr != nil {
			err = fmt.Errorf("container start: %w", uerr)
		}
	default:
		if derr := s.Orch.Down(ctx); derr != nil {
			err = fmt.Errorf("container stop: %w", derr)
		}
	}
	if err != nil {
		return res, err
	}
	res.Performed = true
	return res, nil
}

// ask prompts with the action-dependent default: "no" for stop so running
// work is not torn down by a stray enter, "yes" for start to keep it
// frictionless.
func (s *Supervisor) ask(a Action) (bool, error) {
	if a == ActionStop {
		return s.Confirm("🛑 Stop all services? [y/N] ", false)
	}
	return s.Confirm("⚡ Start all services? [Y/n] ", true)
}

// startManual launches the stack sequentially: infrastructure through the
// orchestrator first, then each process service detached into its own
// process group, with settle delays between launches. Individual failures
// degrade to warnings; the sequence always moves forward.
func (s *Supervisor) startManual(ctx context.Context, res *Result) error {
	infra := service.InfraNames(s.Handles)
	if len(infra) > 0 {
		s.Log.Info("starting infrastructure", "services", strings.Join(infra, ", "))
		if err := s.Orch.Up(ctx, infra...); err != nil {
			s.warn(res, fmt.Sprintf("infrastructure start failed: %v", err))
		} else {
			s.settle(infraSettle(s.Handles), "infrastructure")
		}
	}

	envEnsured := false
	for _, h := range service.Processes(s.Handles) {
		if h.NeedsEnv && !envEnsured {
			envEnsured = true
			out, warns := s.Env.EnsureFresh(ctx, s.State.ModTime)
			for _, w := range warns {
				s.warn(res, w)
			}
			if out == envfile.Refreshed {
				s.Log.Info("environment file regenerated", "path", s.Env.Path)
			}
		}
		if h.Preflight != "" {
			if ok := s.preflight(h); !ok {
				s.warn(res, fmt.Sprintf("%s preflight probe failed; launching anyway, watch %s", h.Name, h.LogPath(s.Cfg.LogDir)))
			}
		}
		pid, err := h.Launch(s.Cfg.Root, s.Cfg.LogDir)
		if err != nil {
			s.warn(res, fmt.Sprintf("failed to launch %s: %v", h.Name, err))
			continue
		}
		s.Log.Info("service starting", "service", h.Name, "pid", pid, "log", h.LogPath(s.Cfg.LogDir))
		s.settle(h.Settle, h.Name)
	}
	return nil
}

// preflight runs the handle's import probe from its working directory.
// Probe errors count as failures but only ever produce a warning.
func (s *Supervisor) preflight(h service.Handle) bool {
	cmd := h.Preflight
	if h.WorkDir != "" {
		cmd = "cd " + filepath.Join(s.Cfg.Root, h.WorkDir) + " && " + cmd
	}
	ok, err := detector.CommandDetector{Command: cmd}.Alive()
	return err == nil && ok
}

// stopManual terminates every process matching each service's pattern, then
// brings shared infrastructure down. Each step is independently best-effort;
// the whole operation fails only when nothing could even be attempted.
func (s *Supervisor) stopManual(ctx context.Context, res *Result) error {
	terminate := s.Terminate
	if terminate == nil {
		terminate = func(h service.Handle) (int, error) {
			return detector.PatternDetector{Pattern: h.Pattern}.Terminate()
		}
	}
	attempted := false
	for _, h := range service.Processes(s.Handles) {
		n, err := terminate(h)
		if err != nil {
			s.warn(res, fmt.Sprintf("stopping %s: %v", h.Name, err))
			continue
		}
		attempted = true
		s.Log.Info("service stopped", "service", h.Name, "signalled", n)
	}
	if err := s.Orch.Down(ctx); err != nil {
		s.warn(res, fmt.Sprintf("infrastructure stop failed: %v", err))
	} else {
		attempted = true
	}
	if !attempted {
		return fmt.Errorf("could not attempt any termination")
	}
	return nil
}

func (s *Supervisor) warn(res *Result, msg string) {
	res.Warnings = append(res.Warnings, msg)
	s.Log.Warn(msg)
}

// settle blocks for the handle's delay, a crude readiness proxy in place of
// real health checks.
func (s *Supervisor) settle(d time.Duration, what string) {
	if d <= 0 {
		return
	}
	sleep := s.Sleep
	if sleep == nil {
		sleep = time.Sleep
	}
	if s.Spin {
		sp := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
		sp.Suffix = " waiting for " + what + " to settle..."
		sp.Start()
		defer sp.Stop()
	}
	sleep(d)
}

func infraSettle(handles []service.Handle) time.Duration {
	var longest time.Duration
	for _, h := range handles {
		if h.Kind == service.KindInfra && h.Settle > longest {
			longest = h.Settle
		}
	}
	return longest
}

// ServiceStatus is one row of the status view.
type ServiceStatus struct {
	Name      string
	Managed   string // "process" or "orchestrator"
	Running   bool
	Detection string
	LogPath   string
}

// Statuses performs one probe pass and reports per-service state without
// toggling anything.
func (s *Supervisor) Statuses(ctx context.Context) []ServiceStatus {
	mode, _ := s.State.Effective()
	snap := s.prober(mode).Probe(ctx, s.Handles)
	out := make([]ServiceStatus, 0, len(s.Handles))
	for _, h := range s.Handles {
		st := ServiceStatus{Name: h.Name, Running: snap[h.Name]}
		if h.Kind == service.KindProcess && mode == setup.ModeManual {
			st.Managed = "process"
			st.Detection = detector.PatternDetector{Pattern: h.Pattern}.Describe()
			st.LogPath = h.LogPath(s.Cfg.LogDir)
		} else {
			st.Managed = "orchestrator"
			st.Detection = "compose"
			st.LogPath = "-"
		}
		out = append(out, st)
	}
	return out
}
