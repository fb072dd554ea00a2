package supervisor

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

// syncBuffer guards concurrent writes from the tail goroutine.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestTailFollowsAppendedLines(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "devstack_backend.log")
	if err := os.WriteFile(logPath, []byte("old line\n"), 0o644); err != nil {
		t.Fatalf("seed log: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	out := &syncBuffer{}
	done := make(chan error, 1)
	go func() { done <- Tail(ctx, out, []string{logPath}) }()

	// give the watcher a moment to arm
	time.Sleep(150 * time.Millisecond)

	f, err := os.OpenFile(logPath, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	_, _ = f.WriteString("fresh line\n")
	_ = f.Close()

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if strings.Contains(out.String(), "[backend] fresh line") {
			break
		}
		time.Sleep(25 * time.Millisecond)
	}
	got := out.String()
	if !strings.Contains(got, "[backend] fresh line") {
		t.Fatalf("appended line never surfaced: %q", got)
	}
	if strings.Contains(got, "old line") {
		t.Fatalf("pre-existing content must not be replayed: %q", got)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("tail returned error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("tail did not return after cancellation")
	}
}

func TestTailPicksUpLateCreatedFile(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "devstack_worker.log")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	out := &syncBuffer{}
	go func() { _ = Tail(ctx, out, []string{logPath}) }()
	time.Sleep(150 * time.Millisecond)

	if err := os.WriteFile(logPath, []byte("worker says hi\n"), 0o644); err != nil {
		t.Fatalf("create log: %v", err)
	}

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if strings.Contains(out.String(), "[worker] worker says hi") {
			return
		}
		time.Sleep(25 * time.Millisecond)
	}
	t.Fatalf("late-created file content never surfaced: %q", out.String())
}

func TestLabelFor(t *testing.T) {
	if got := labelFor("/tmp/devstack_frontend.log"); got != "frontend" {
		t.Fatalf("labelFor mismatch: %q", got)
	}
	if got := labelFor("/var/log/other.log"); got != "other" {
		t.Fatalf("labelFor mismatch: %q", got)
	}
}
