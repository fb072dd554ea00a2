package service

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"
)

func TestDefaultsOrderAndRoles(t *testing.T) {
	handles := Defaults(false)
	var names []string
	for _, h := range handles {
		names = append(names, h.Name)
	}
	want := []string{"redis", "rabbitmq", "backend", "frontend", "worker"}
	if strings.Join(names, ",") != strings.Join(want, ",") {
		t.Fatalf("launch order mismatch: got %v want %v", names, want)
	}

	procs := Processes(handles)
	if len(procs) != 3 {
		t.Fatalf("expected 3 process services, got %d", len(procs))
	}
	for _, h := range procs {
		if !h.Core {
			t.Fatalf("process service %s should be core", h.Name)
		}
		if h.Pattern == "" || h.Command == "" {
			t.Fatalf("process service %s missing pattern or command", h.Name)
		}
	}

	infra := InfraNames(handles)
	if strings.Join(infra, ",") != "redis,rabbitmq" {
		t.Fatalf("unexpected infra set: %v", infra)
	}
}

func TestDefaultsWithLocalDB(t *testing.T) {
	infra := InfraNames(Defaults(true))
	if strings.Join(infra, ",") != "redis,rabbitmq,supabase" {
		t.Fatalf("expected supabase in infra set, got %v", infra)
	}
}

func TestSettleDelays(t *testing.T) {
	byName := map[string]Handle{}
	for _, h := range Defaults(false) {
		byName[h.Name] = h
	}
	if byName["rabbitmq"].Settle != 2*time.Second {
		t.Fatalf("infra settle mismatch: %v", byName["rabbitmq"].Settle)
	}
	if byName["backend"].Settle != 3*time.Second {
		t.Fatalf("backend settle mismatch: %v", byName["backend"].Settle)
	}
	if byName["worker"].Settle != 0 {
		t.Fatalf("worker should have no settle delay: %v", byName["worker"].Settle)
	}
}

func TestBuildCommand(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("requires Unix-like environment")
	}
	// metacharacters -> /bin/sh -c
	h := Handle{Command: ". .venv/bin/activate && python api.py"}
	c := h.BuildCommand()
	if len(c.Args) < 2 || c.Args[0] != "/bin/sh" || c.Args[1] != "-c" {
		t.Fatalf("expected shell wrapping, got %#v", c.Args)
	}
	// plain command -> direct exec
	h = Handle{Command: "npm run dev"}
	c = h.BuildCommand()
	if c.Args[0] != "npm" {
		t.Fatalf("expected direct exec, got %#v", c.Args)
	}
	// explicit shell is not double-wrapped
	h = Handle{Command: "sh -c 'npm run dev'"}
	c = h.BuildCommand()
	if c.Args[0] != "/bin/sh" || c.Args[2] != "npm run dev" {
		t.Fatalf("explicit shell mishandled: %#v", c.Args)
	}
}

func TestLogPathAndTruncate(t *testing.T) {
	dir := t.TempDir()
	h := Handle{Name: "backend"}
	p := h.LogPath(dir)
	if filepath.Base(p) != "devstack_backend.log" {
		t.Fatalf("unexpected log name: %s", p)
	}
	if err := os.WriteFile(p, []byte("old contents\n"), 0o644); err != nil {
		t.Fatalf("seed log: %v", err)
	}
	f, err := h.OpenLog(dir)
	if err != nil {
		t.Fatalf("open log: %v", err)
	}
	_ = f.Close()
	b, _ := os.ReadFile(p)
	if len(b) != 0 {
		t.Fatalf("log should be truncated on open, has %q", b)
	}
}

func TestLaunchWritesLogAndDetaches(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("requires Unix-like environment")
	}
	dir := t.TempDir()
	h := Handle{Name: "echoer", Command: "echo launched"}
	pid, err := h.Launch("", dir)
	if err != nil {
		t.Fatalf("launch: %v", err)
	}
	if pid <= 0 {
		t.Fatalf("expected a real pid, got %d", pid)
	}
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		b, _ := os.ReadFile(h.LogPath(dir))
		if strings.Contains(string(b), "launched") {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("log output never appeared")
}

func TestLaunchMissingWorkDir(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("requires Unix-like environment")
	}
	h := Handle{Name: "ghost", Command: "true", WorkDir: "no-such-dir"}
	if _, err := h.Launch(t.TempDir(), t.TempDir()); err == nil {
		t.Fatalf("missing working directory should fail the launch")
	}
}
