//go:build !windows

package ipc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"syscall"
	"time"
)

const probeTimeout = 500 * time.Millisecond

// Listen creates the status socket at path. It returns ErrAlreadyRunning
// when another instance already serves it; a stale socket file is replaced.
func Listen(path string) (net.Listener, error) {
	ctx, cancel := context.WithTimeout(context.Background(), probeTimeout)
	defer cancel()
	if conn, err := Dial(ctx, path); err == nil {
		conn.Close()
		return nil, ErrAlreadyRunning
	}

	// Remove stale socket file
	os.Remove(path)

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("ipc: mkdir %s: %w", dir, err)
	}

	ln, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("ipc: listen %s: %w", path, err)
	}

	if err := os.Chmod(path, 0o600); err != nil {
		ln.Close()
		return nil, fmt.Errorf("ipc: chmod %s: %w", path, err)
	}
	log.Debug("unix socket listener created", "path", path)
	return ln, nil
}

// Dial connects to the status socket at path.
func Dial(ctx context.Context, path string) (net.Conn, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "unix", path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) || errors.Is(err, syscall.ECONNREFUSED) {
			return nil, fmt.Errorf("%w: %s", ErrNotRunning, path)
		}
		return nil, fmt.Errorf("ipc: dial %s: %w", path, err)
	}
	return conn, nil
}
