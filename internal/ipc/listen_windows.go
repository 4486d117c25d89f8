//go:build windows

package ipc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"time"

	"github.com/Microsoft/go-winio"
	"golang.org/x/sys/windows"
)

const probeTimeout = 500 * time.Millisecond

// pipeSecurity grants SYSTEM and the current user full control.
func pipeSecurity() (string, error) {
	user, err := windows.GetCurrentProcessToken().GetTokenUser()
	if err != nil {
		return "", fmt.Errorf("ipc: current user: %w", err)
	}
	return "D:P(A;;GA;;;SY)(A;;GA;;;" + user.User.Sid.String() + ")", nil
}

// Listen creates the status pipe at path. It returns ErrAlreadyRunning when
// another instance already serves it.
func Listen(path string) (net.Listener, error) {
	ctx, cancel := context.WithTimeout(context.Background(), probeTimeout)
	defer cancel()
	if conn, err := Dial(ctx, path); err == nil {
		conn.Close()
		return nil, ErrAlreadyRunning
	}

	sd, err := pipeSecurity()
	if err != nil {
		return nil, err
	}
	cfg := &winio.PipeConfig{
		SecurityDescriptor: sd,
		InputBufferSize:    MaxMessageSize,
		OutputBufferSize:   MaxMessageSize,
	}

	ln, err := winio.ListenPipe(path, cfg)
	if err != nil {
		if errors.Is(err, windows.ERROR_ACCESS_DENIED) || errors.Is(err, windows.ERROR_PIPE_BUSY) {
			return nil, ErrAlreadyRunning
		}
		return nil, fmt.Errorf("ipc: listen pipe %s: %w", path, err)
	}
	log.Debug("named pipe listener created", "pipe", path)
	return ln, nil
}

// Dial connects to the status pipe at path.
func Dial(ctx context.Context, path string) (net.Conn, error) {
	conn, err := winio.DialPipeContext(ctx, path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) || errors.Is(err, windows.ERROR_FILE_NOT_FOUND) {
			return nil, fmt.Errorf("%w: %s", ErrNotRunning, path)
		}
		return nil, fmt.Errorf("ipc: dial pipe %s: %w", path, err)
	}
	return conn, nil
}
