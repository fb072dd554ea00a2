package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"github.com/loykin/devstack/internal/config"
	"github.com/loykin/devstack/internal/logger"
	"github.com/loykin/devstack/internal/service"
	"github.com/loykin/devstack/internal/setup"
	"github.com/loykin/devstack/internal/supervisor"
)

// newSupervisor resolves config and setup state and wires the controller.
func newSupervisor() (*supervisor.Supervisor, func(), error) {
	cfg, err := config.Load("")
	if err != nil {
		return nil, nil, err
	}
	log, closer := logger.Config{Dir: cfg.LogDir, Level: slog.LevelInfo}.New()
	slog.SetDefault(log)
	st := setup.Resolve(filepath.Join(cfg.Root, cfg.StateFile))
	s := supervisor.New(cfg, st, log)
	return s, closer, nil
}

func runToggle(cmd *cobra.Command, force bool) error {
	s, closer, err := newSupervisor()
	if err != nil {
		return err
	}
	defer closer()
	s.Spin = true
	s.Confirm = promptConfirm

	mode, _ := s.State.Effective()
	if mode == setup.ModeManual {
		s.Log.Info("manual setup detected")
	} else {
		s.Log.Info("container setup detected; managing services with the orchestrator")
	}
	if force {
		s.Log.Info("force set; skipping confirmation")
	}

	res, err := s.Toggle(cmd.Context(), force)
	if err != nil {
		return err
	}
	if !res.Performed {
		fmt.Println("Aborting.")
		return nil
	}

	switch res.Action {
	case supervisor.ActionStart:
		fmt.Println(text.FgGreen.Sprint("✅ All services started."))
		fmt.Println(text.FgCyan.Sprintf("🌐 Access the stack at: %s", s.Cfg.FrontendURL))
		if mode == setup.ModeManual {
			fmt.Println("💡 Follow logs with 'devstack logs'; run 'devstack' again to stop.")
		}
	default:
		fmt.Println(text.FgGreen.Sprint("✅ All services stopped."))
	}
	if len(res.Warnings) > 0 {
		fmt.Println(text.FgYellow.Sprintf("⚠️  completed with %d warning(s); see output above", len(res.Warnings)))
	}
	return nil
}

func runStatus(cmd *cobra.Command) error {
	s, closer, err := newSupervisor()
	if err != nil {
		return err
	}
	defer closer()

	sts := s.Statuses(cmd.Context())
	tw := table.NewWriter()
	tw.SetOutputMirror(os.Stdout)
	tw.SetStyle(table.StyleLight)
	tw.AppendHeader(table.Row{"Service", "Managed By", "State", "Detection", "Log"})
	for _, st := range sts {
		state := text.FgRed.Sprint("stopped")
		if st.Running {
			state = text.FgGreen.Sprint("running")
		}
		tw.AppendRow(table.Row{st.Name, st.Managed, state, st.Detection, st.LogPath})
	}
	tw.Render()
	return nil
}

func runLogs(cmd *cobra.Command) error {
	s, closer, err := newSupervisor()
	if err != nil {
		return err
	}
	defer closer()

	var paths []string
	for _, h := range service.Processes(s.Handles) {
		paths = append(paths, h.LogPath(s.Cfg.LogDir))
	}
	if len(paths) == 0 {
		return fmt.Errorf("no service logs to follow")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	fmt.Println("Following service logs; press Ctrl-C to stop.")
	return supervisor.Tail(ctx, os.Stdout, paths)
}
