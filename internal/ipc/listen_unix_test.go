//go:build !windows

package ipc

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func socketPath(t *testing.T) string {
	t.Helper()
	// Unix socket paths are length limited; keep them short.
	dir, err := os.MkdirTemp("", "vi")
	if err != nil {
		t.Fatalf("mkdtemp: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(dir) })
	return filepath.Join(dir, "s.sock")
}

func TestListenSingleInstance(t *testing.T) {
	path := socketPath(t)

	ln, err := Listen(path)
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()

	s := NewServer("dev")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Serve(ctx, ln)

	if _, err := Listen(path); !errors.Is(err, ErrAlreadyRunning) {
		t.Fatalf("second listen = %v, want ErrAlreadyRunning", err)
	}

	pctx, pcancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer pcancel()
	if _, err := Ping(pctx, Dialer(path)); err != nil {
		t.Fatalf("ping: %v", err)
	}
}

func TestDialNotRunning(t *testing.T) {
	path := socketPath(t)

	_, err := Dial(context.Background(), path)
	if !errors.Is(err, ErrNotRunning) {
		t.Fatalf("dial = %v, want ErrNotRunning", err)
	}
}

func TestListenReplacesStaleSocket(t *testing.T) {
	path := socketPath(t)
	if err := os.WriteFile(path, nil, 0o600); err != nil {
		t.Fatalf("write stale file: %v", err)
	}

	ln, err := Listen(path)
	if err != nil {
		t.Fatalf("listen over stale socket: %v", err)
	}
	ln.Close()
}
