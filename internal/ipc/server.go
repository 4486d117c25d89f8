package ipc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/urraka/volumeicon/internal/workerpool"
)

const (
	// RequestTimeout bounds a single request/response exchange.
	RequestTimeout = 5 * time.Second
	// RateLimitAttempts requests are served per RateLimitWindow across all
	// clients.
	RateLimitAttempts = 20
	RateLimitWindow   = time.Second

	// Workers and QueueSize bound concurrent and pending requests.
	Workers   = 4
	QueueSize = 16
)

const errRateLimited = "rate limited"

// HandlerFunc answers one request. The returned value is sent as the payload
// of a response with the request's type.
type HandlerFunc func(ctx context.Context, payload json.RawMessage) (any, error)

// Server answers requests on a listener. Ping is always handled.
type Server struct {
	version  string
	handlers map[string]HandlerFunc
	limiter  *RateLimiter
	pool     *workerpool.Pool

	mu     sync.Mutex
	ln     net.Listener
	closed bool
}

// NewServer creates a server that reports version in pong replies.
func NewServer(version string) *Server {
	return &Server{
		version:  version,
		handlers: make(map[string]HandlerFunc),
		limiter:  NewRateLimiter(RateLimitAttempts, RateLimitWindow),
		pool:     workerpool.New(Workers, QueueSize),
	}
}

// Handle registers fn for msgType. Must be called before Serve.
func (s *Server) Handle(msgType string, fn HandlerFunc) {
	s.handlers[msgType] = fn
}

// Serve accepts connections on ln until ctx is cancelled or Close is called.
// It closes ln and waits up to RequestTimeout for in-flight requests before
// returning.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		ln.Close()
		s.drain()
		return net.ErrClosed
	}
	s.ln = ln
	s.mu.Unlock()

	stop := context.AfterFunc(ctx, func() { s.Close() })
	defer stop()
	defer s.drain()

	log.Info("status endpoint listening", "addr", ln.Addr().String())

	for {
		conn, err := ln.Accept()
		if err != nil {
			if s.isClosed() {
				return nil
			}
			if errors.Is(err, net.ErrClosed) {
				return err
			}
			log.Warn("accept error", "error", err)
			continue
		}
		err = s.pool.Submit(func(taskCtx context.Context) {
			s.handleConnection(taskCtx, conn)
		})
		if err != nil {
			log.Warn("status request rejected", "error", err)
			conn.Close()
		}
	}
}

func (s *Server) drain() {
	ctx, cancel := context.WithTimeout(context.Background(), RequestTimeout)
	defer cancel()
	if err := s.pool.Shutdown(ctx); err != nil {
		log.Warn("in-flight status requests abandoned", "error", err)
	}
}

// Close stops accepting connections. Safe to call more than once.
func (s *Server) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	if s.ln != nil {
		return s.ln.Close()
	}
	return nil
}

func (s *Server) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *Server) handleConnection(ctx context.Context, rawConn net.Conn) {
	conn := NewConn(rawConn)
	defer conn.Close()

	conn.SetDeadline(time.Now().Add(RequestTimeout))

	req, err := conn.Recv()
	if err != nil {
		log.Debug("receive failed", "error", err)
		return
	}

	if !s.limiter.Allow() {
		log.Warn("status request rate limited", "type", req.Type)
		if err := conn.SendError(req.ID, errRateLimited); err != nil {
			log.Debug("send failed", "type", req.Type, "error", err)
		}
		return
	}

	reqCtx, cancel := context.WithTimeout(ctx, RequestTimeout)
	defer cancel()

	if err := s.dispatch(reqCtx, conn, req); err != nil {
		log.Debug("send failed", "type", req.Type, "error", err)
	}
}

func (s *Server) dispatch(ctx context.Context, conn *Conn, req *Envelope) error {
	if req.Type == TypePing {
		return conn.SendTyped(req.ID, TypePong, selfPong(s.version))
	}

	fn, ok := s.handlers[req.Type]
	if !ok {
		return conn.SendError(req.ID, fmt.Sprintf("unknown message type %q", req.Type))
	}

	resp, err := fn(ctx, req.Payload)
	if err != nil {
		return conn.SendError(req.ID, err.Error())
	}
	return conn.SendTyped(req.ID, req.Type, resp)
}
