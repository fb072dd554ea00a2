package devstack

import (
	"context"
	"io"
	"log/slog"

	"github.com/loykin/devstack/internal/config"
	"github.com/loykin/devstack/internal/service"
	"github.com/loykin/devstack/internal/setup"
	"github.com/loykin/devstack/internal/supervisor"
)

// Re-export core types for external consumers.
// These are aliases so conversions are zero-cost.

type Config = config.Config

type SetupState = setup.State

type ServiceHandle = service.Handle

type Supervisor = supervisor.Supervisor

type Result = supervisor.Result

type Snapshot = supervisor.Snapshot

type ServiceStatus = supervisor.ServiceStatus

type Prober = supervisor.Prober

// LoadConfig reads the optional override file on top of defaults.
func LoadConfig(path string) (Config, error) { return config.Load(path) }

// ResolveSetup reads the persisted setup state; absence or malformed content
// yields an unset state, never an error.
func ResolveSetup(path string) SetupState { return setup.Resolve(path) }

// DefaultServices returns the managed service table in launch order.
func DefaultServices(withLocalDB bool) []ServiceHandle { return service.Defaults(withLocalDB) }

// New wires a supervisor from resolved configuration and setup state.
func New(cfg Config, st SetupState, log *slog.Logger) *Supervisor {
	return supervisor.New(cfg, st, log)
}

// Tail follows service log files until ctx is cancelled.
func Tail(ctx context.Context, w io.Writer, paths []string) error {
	return supervisor.Tail(ctx, w, paths)
}
