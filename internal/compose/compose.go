package compose

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"
)

// Client is a thin facade over the container orchestrator CLI
// (docker compose). The supervisor treats it as a black box with
// three operations: IsUp, Up, Down.
type Client struct {
	// Bin is the orchestrator binary, "docker" by default.
	Bin string
	// BaseArgs are prepended to every invocation, {"compose"} by default.
	BaseArgs []string
	// Dir is the directory holding the service manifest (compose file).
	Dir string
	// Stdout/Stderr receive command output; nil discards it.
	Stdout io.Writer
	Stderr io.Writer
}

func New(dir string) *Client {
	return &Client{Bin: "docker", BaseArgs: []string{"compose"}, Dir: dir}
}

func (c *Client) command(ctx context.Context, args ...string) *exec.Cmd {
	bin := c.Bin
	if bin == "" {
		bin = "docker"
	}
	base := c.BaseArgs
	if base == nil {
		base = []string{"compose"}
	}
	// #nosec G204
	cmd := exec.CommandContext(ctx, bin, append(append([]string{}, base...), args...)...)
	cmd.Dir = c.Dir
	cmd.Stdout = c.Stdout
	cmd.Stderr = c.Stderr
	return cmd
}

// IsUp reports whether the orchestrator has at least one managed unit active.
// It runs `ps -q`; any non-empty output means up.
func (c *Client) IsUp(ctx context.Context) (bool, error) {
	cmd := c.command(ctx, "ps", "-q")
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = nil
	if err := cmd.Run(); err != nil {
		return false, fmt.Errorf("compose ps: %w", err)
	}
	return strings.TrimSpace(out.String()) != "", nil
}

// Up brings up the named services detached, or the whole manifest when none
// are given. Re-invoking on an already-up stack is not an error.
func (c *Client) Up(ctx context.Context, services ...string) error {
	args := append([]string{"up"}, services...)
	args = append(args, "-d")
	if err := c.command(ctx, args...).Run(); err != nil {
		return fmt.Errorf("compose up: %w", err)
	}
	return nil
}

// Down brings the whole stack down. Already-down is not an error: compose
// itself treats a second down as a no-op, and so do we.
func (c *Client) Down(ctx context.Context) error {
	if err := c.command(ctx, "down").Run(); err != nil {
		return fmt.Errorf("compose down: %w", err)
	}
	return nil
}
