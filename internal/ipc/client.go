package ipc

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"strconv"
	"sync/atomic"
	"time"
)

var requestID atomic.Uint64

// DialFunc opens a connection to a status endpoint.
type DialFunc func(ctx context.Context) (net.Conn, error)

// Request sends one request of msgType and decodes the response payload
// into out, which may be nil.
func Request(ctx context.Context, dial DialFunc, msgType string, req, out any) error {
	rawConn, err := dial(ctx)
	if err != nil {
		return err
	}
	conn := NewConn(rawConn)
	defer conn.Close()

	deadline := time.Now().Add(RequestTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	conn.SetDeadline(deadline)

	id := strconv.FormatUint(requestID.Add(1), 10)
	if err := conn.SendTyped(id, msgType, req); err != nil {
		return err
	}

	resp, err := conn.Recv()
	if err != nil {
		return err
	}
	if resp.ID != id {
		return fmt.Errorf("ipc: response id %q, want %q", resp.ID, id)
	}
	if resp.Type == TypeError {
		return fmt.Errorf("ipc: %s: %s", msgType, resp.Error)
	}
	if out == nil || len(resp.Payload) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.Payload, out); err != nil {
		return fmt.Errorf("ipc: decode %s response: %w", msgType, err)
	}
	return nil
}

// Ping checks that an instance answers on the endpoint.
func Ping(ctx context.Context, dial DialFunc) (*Pong, error) {
	var pong Pong
	if err := Request(ctx, dial, TypePing, nil, &pong); err != nil {
		return nil, err
	}
	return &pong, nil
}

// Dialer returns a DialFunc for the platform endpoint at path.
func Dialer(path string) DialFunc {
	return func(ctx context.Context) (net.Conn, error) {
		return Dial(ctx, path)
	}
}
