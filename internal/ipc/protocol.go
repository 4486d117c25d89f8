package ipc

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/urraka/volumeicon/internal/logging"
)

var log = logging.L("ipc")

var (
	// ErrAlreadyRunning is returned by Listen when another instance owns the
	// status endpoint.
	ErrAlreadyRunning = errors.New("ipc: another instance is already running")
	// ErrNotRunning is returned by Dial when nothing listens on the endpoint.
	ErrNotRunning = errors.New("ipc: no running instance")
)

// Conn wraps a net.Conn with length-prefixed JSON framing and sequence
// number validation.
type Conn struct {
	conn    net.Conn
	sendSeq atomic.Uint64
	recvSeq atomic.Uint64
	mu      sync.Mutex // serializes writes
}

// NewConn wraps a raw connection.
func NewConn(conn net.Conn) *Conn {
	return &Conn{conn: conn}
}

// Close closes the underlying connection.
func (c *Conn) Close() error {
	return c.conn.Close()
}

// RemoteAddr returns the remote address of the underlying connection.
func (c *Conn) RemoteAddr() net.Addr {
	return c.conn.RemoteAddr()
}

// SetDeadline sets the deadline on the underlying connection.
func (c *Conn) SetDeadline(t time.Time) error {
	return c.conn.SetDeadline(t)
}

// Send marshals an Envelope and writes it as [4-byte BE length][JSON].
// It sets the sequence number and protocol version.
func (c *Conn) Send(env *Envelope) error {
	env.Seq = c.sendSeq.Add(1)
	env.Version = ProtocolVersion

	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("ipc: marshal envelope: %w", err)
	}

	if len(data) > MaxMessageSize {
		return fmt.Errorf("ipc: message too large: %d > %d", len(data), MaxMessageSize)
	}

	frame := make([]byte, 4+len(data))
	binary.BigEndian.PutUint32(frame, uint32(len(data)))
	copy(frame[4:], data)

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, err := c.conn.Write(frame); err != nil {
		return fmt.Errorf("ipc: write frame: %w", err)
	}
	return nil
}

// Recv reads a length-prefixed JSON message and validates its sequence.
func (c *Conn) Recv() (*Envelope, error) {
	header := make([]byte, 4)
	if _, err := io.ReadFull(c.conn, header); err != nil {
		return nil, fmt.Errorf("ipc: read header: %w", err)
	}

	length := binary.BigEndian.Uint32(header)
	if length > uint32(MaxMessageSize) {
		return nil, fmt.Errorf("ipc: message too large: %d > %d", length, MaxMessageSize)
	}
	if length == 0 {
		return nil, fmt.Errorf("ipc: zero-length message")
	}

	data := make([]byte, length)
	if _, err := io.ReadFull(c.conn, data); err != nil {
		return nil, fmt.Errorf("ipc: read payload: %w", err)
	}

	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("ipc: unmarshal envelope: %w", err)
	}

	if env.Version != ProtocolVersion {
		return nil, fmt.Errorf("ipc: protocol version %d, want %d", env.Version, ProtocolVersion)
	}

	// Sequence numbers must be strictly increasing.
	prevSeq := c.recvSeq.Load()
	if env.Seq <= prevSeq && prevSeq > 0 {
		return nil, fmt.Errorf("ipc: sequence number %d <= last %d (replay/duplicate)", env.Seq, prevSeq)
	}
	c.recvSeq.Store(env.Seq)

	return &env, nil
}

// SendTyped is a convenience that wraps a typed payload into an Envelope and sends it.
func (c *Conn) SendTyped(id, msgType string, payload any) error {
	var raw json.RawMessage
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("ipc: marshal payload: %w", err)
		}
		raw = b
	}
	return c.Send(&Envelope{
		ID:      id,
		Type:    msgType,
		Payload: raw,
	})
}

// SendError sends an error envelope.
func (c *Conn) SendError(id, errMsg string) error {
	return c.Send(&Envelope{
		ID:    id,
		Type:  TypeError,
		Error: errMsg,
	})
}
