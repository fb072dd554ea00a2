package supervisor

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
)

// tailFile tracks how much of one log file has been printed.
type tailFile struct {
	path   string
	label  string
	offset int64
}

// Tail follows the given log files in the foreground, writing appended lines
// to w prefixed with the service name, until ctx is cancelled. The launched
// services are detached, so interrupting the tail never touches them.
func Tail(ctx context.Context, w io.Writer, paths []string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("log watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	files := make(map[string]*tailFile, len(paths))
	dirs := make(map[string]struct{})
	for _, p := range paths {
		tf := &tailFile{path: p, label: labelFor(p)}
		if fi, err := os.Stat(p); err == nil {
			tf.offset = fi.Size()
		}
		files[p] = tf
		dirs[filepath.Dir(p)] = struct{}{}
	}
	// Watch directories, not files: the log file may not exist yet, and
	// truncate-on-start replaces it.
	for d := range dirs {
		if err := watcher.Add(d); err != nil {
			return fmt.Errorf("watch %s: %w", d, err)
		}
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			tf, tracked := files[ev.Name]
			if !tracked {
				continue
			}
			if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) {
				drain(w, tf)
			}
		case werr, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			// watch errors are not worth killing the tail over
			_, _ = fmt.Fprintf(w, "log watch error: %v\n", werr)
		}
	}
}

// drain prints any bytes appended since the last read. A shrunken file means
// it was truncated by a new start; reading restarts from the beginning.
func drain(w io.Writer, tf *tailFile) {
	f, err := os.Open(tf.path)
	if err != nil {
		return
	}
	defer func() { _ = f.Close() }()
	fi, err := f.Stat()
	if err != nil {
		return
	}
	if fi.Size() < tf.offset {
		tf.offset = 0
	}
	if _, err := f.Seek(tf.offset, io.SeekStart); err != nil {
		return
	}
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	for sc.Scan() {
		_, _ = fmt.Fprintf(w, "[%s] %s\n", tf.label, sc.Text())
	}
	tf.offset, _ = f.Seek(0, io.SeekCurrent)
}

func labelFor(path string) string {
	base := strings.TrimSuffix(filepath.Base(path), ".log")
	return strings.TrimPrefix(base, "devstack_")
}
