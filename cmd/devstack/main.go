package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	root := buildRoot()
	if err := root.Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// buildRoot creates the root toggle command and its subcommands.
func buildRoot() *cobra.Command {
	toggleFlags := &ToggleFlags{}

	root := createRootCommand(toggleFlags)
	root.AddCommand(
		createStatusCommand(),
		createLogsCommand(),
	)
	return root
}

// ToggleFlags holds flags for the root toggle invocation.
type ToggleFlags struct {
	Force bool
}

// createRootCommand creates the root command: one toggle per invocation.
func createRootCommand(flags *ToggleFlags) *cobra.Command {
	root := &cobra.Command{
		Use:   "devstack",
		Short: "Start or stop the local development stack",
		Long: `Devstack inspects the local development environment and toggles it to the
opposite state: starts every service when the stack is down, stops everything
when it is up (fully or partially).

The deployment mode chosen during setup decides how: container mode delegates
to the orchestrator's manifest, manual mode launches each service as an
independent OS process with per-service log files.

Examples:
  devstack          # toggle, with confirmation
  devstack -f       # toggle without confirmation
  devstack status   # show per-service state without toggling
  devstack logs     # follow the service logs`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runToggle(cmd, flags.Force)
		},
	}
	root.Flags().BoolVarP(&flags.Force, "force", "f", false, "skip confirmation prompts")
	return root
}

// createStatusCommand creates the status subcommand.
func createStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show per-service state",
		Long: `Probe every managed service once and print its state without toggling
anything.

Examples:
  devstack status`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(cmd)
		},
	}
}

// createLogsCommand creates the logs subcommand.
func createLogsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logs",
		Short: "Follow the service logs",
		Long: `Follow the per-service log files in the foreground until interrupted.
Interrupting the tail does not affect the running services.

Examples:
  devstack logs`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogs(cmd)
		},
	}
}
