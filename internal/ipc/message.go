package ipc

import "encoding/json"

// Message types spoken on the status endpoint.
const (
	TypePing   = "ping"
	TypePong   = "pong"
	TypeStatus = "status"
	TypeError  = "error"
)

// MaxMessageSize is the maximum size of a JSON IPC message (64KB).
const MaxMessageSize = 64 * 1024

// ProtocolVersion is the current IPC protocol version.
const ProtocolVersion = 1

// Envelope is the wire-format wrapper for all IPC messages.
type Envelope struct {
	ID      string          `json:"id"`
	Seq     uint64          `json:"seq"`
	Type    string          `json:"type"`
	Version int             `json:"version"`
	Payload json.RawMessage `json:"payload,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// Pong answers a ping with the server's identity.
type Pong struct {
	PID     int    `json:"pid"`
	Version string `json:"version"`
	// RSS and StartedAt are best effort and zero when unavailable.
	RSS       uint64 `json:"rss,omitempty"`
	StartedAt int64  `json:"startedAt,omitempty"`
}
