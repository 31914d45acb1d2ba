package udp

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/c360/wirestreams/component"
	"github.com/c360/wirestreams/errors"
	"github.com/c360/wirestreams/pkg/retry"
	"github.com/c360/wirestreams/types"
)

// Kind is the registered component kind.
const Kind = "udp-source"

// Property names
const (
	PropBindAddress = "bind.address"
	PropBindPort    = "bind.port"
)

// DefaultBindAddress keeps the listener off external interfaces unless asked.
const DefaultBindAddress = "127.0.0.1"

const (
	maxDatagramSize  = 65536
	socketBufferSize = 2 * 1024 * 1024
	readTimeout      = 100 * time.Millisecond
)

const propertySchema = `{
  "type": "object",
  "properties": {
    "bind.address": {"type": "string"},
    "bind.port": {"type": "integer", "minimum": 0, "maximum": 65535}
  }
}`

// Register adds the udp-source kind to registry.
func Register(registry *component.Registry) error {
	return registry.RegisterWithConfig(component.RegistrationConfig{
		Kind:        Kind,
		Description: "Emits records decoded from JSON datagrams",
		Schema:      propertySchema,
		Factory:     NewSource,
	})
}

// Source listens on a UDP socket and emits the records carried by each
// datagram on its single output port. It starts listening when the engine
// runs it, not when it is created.
type Source struct {
	id     string
	bind   string
	port   int
	logger *slog.Logger

	retryConfig retry.Config
	metrics     *sourceMetrics

	mu   sync.RWMutex
	conn *net.UDPConn

	datagrams    atomic.Int64
	emitted      atomic.Int64
	errors       atomic.Int64
	lastActivity atomic.Value // time.Time
}

// NewSource is the component.Factory for udp-source.
func NewSource(id string, props types.Properties, deps component.Dependencies) (component.Component, error) {
	port := props.Int(PropBindPort, 0)
	if port < 0 || port > 65535 {
		return nil, errors.WrapInvalid(fmt.Errorf("invalid port %d", port), "udp-source", "NewSource", "port validation")
	}
	bind := props.String(PropBindAddress, DefaultBindAddress)
	if bind == "" {
		return nil, errors.WrapInvalid(fmt.Errorf("empty bind address"),
			"udp-source", "NewSource", "address validation")
	}

	logger := deps.GetLoggerWithComponent(id)
	metrics, err := newSourceMetrics(deps.MetricsRegistry, id)
	if err != nil {
		logger.Error("Failed to initialize UDP source metrics", "error", err)
		metrics = nil // Continue without metrics
	}

	s := &Source{
		id:          id,
		bind:        bind,
		port:        int(port),
		logger:      logger,
		retryConfig: retry.Quick(),
		metrics:     metrics,
	}
	s.lastActivity.Store(time.Time{})
	return s, nil
}

// Meta returns component metadata
func (s *Source) Meta() component.Metadata {
	return component.Metadata{
		ID:          s.id,
		Kind:        Kind,
		Description: "UDP listener on " + net.JoinHostPort(s.bind, strconv.Itoa(s.port)),
	}
}

// OutputPorts returns 1
func (s *Source) OutputPorts() int { return 1 }

// Addr returns the bound socket address, or nil while not listening.
func (s *Source) Addr() net.Addr {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.conn == nil {
		return nil
	}
	return s.conn.LocalAddr()
}

// Run binds the socket and emits records until ctx is done.
func (s *Source) Run(ctx context.Context, emit component.EmitFunc) error {
	conn, err := retry.DoWithResult(ctx, s.retryConfig, s.bindSocket)
	if err != nil {
		return errors.WrapTransient(err, "udp-source", "Run", "socket binding")
	}

	s.mu.Lock()
	s.conn = conn
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		_ = s.conn.Close()
		s.conn = nil
		s.mu.Unlock()
	}()

	s.logger.Info("UDP source listening", "address", conn.LocalAddr().String())
	s.readLoop(ctx, conn, emit)
	return nil
}

func (s *Source) bindSocket() (*net.UDPConn, error) {
	addr, err := net.ResolveUDPAddr("udp", net.JoinHostPort(s.bind, strconv.Itoa(s.port)))
	if err != nil {
		return nil, errors.WrapInvalid(err, "udp-source", "bindSocket", "address resolution")
	}

	conn, err := net.ListenUDP("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on UDP port %d: %w", s.port, err)
	}

	if err := conn.SetReadBuffer(socketBufferSize); err != nil {
		// some systems cap the buffer size
		s.logger.Warn("Could not set UDP buffer size", "buffer_size", socketBufferSize, "error", err)
	}
	return conn, nil
}

// readLoop reads with a short deadline so cancellation is noticed promptly.
func (s *Source) readLoop(ctx context.Context, conn *net.UDPConn, emit component.EmitFunc) {
	buf := make([]byte, maxDatagramSize)
	for {
		if ctx.Err() != nil {
			return
		}

		_ = conn.SetReadDeadline(time.Now().Add(readTimeout))
		n, from, err := conn.ReadFromUDP(buf)
		if err != nil {
			if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
				continue
			}
			if ctx.Err() != nil {
				return
			}
			s.errors.Add(1)
			s.metrics.recordSocketError()
			s.logger.Warn("UDP read failed", "error", err)
			continue
		}

		s.datagrams.Add(1)
		s.lastActivity.Store(time.Now())
		s.handle(ctx, buf[:n], from, emit)
	}
}

func (s *Source) handle(ctx context.Context, data []byte, from *net.UDPAddr, emit component.EmitFunc) {
	records, skipped, err := Decode(data)
	if err != nil {
		s.errors.Add(1)
		s.metrics.recordDatagram(len(data), false)
		s.logger.Warn("Dropped undecodable datagram", "from", from.String(), "bytes", len(data), "error", err)
		return
	}
	s.metrics.recordDatagram(len(data), true)
	if len(skipped) > 0 {
		s.logger.Warn("Skipped fields without a typed value", "from", from.String(), "fields", skipped)
	}
	if len(records) == 0 {
		return
	}

	if err := emit(ctx, 0, records...); err != nil {
		s.errors.Add(1)
		s.logger.Warn("Failed to emit datagram records", "records", len(records), "error", err)
		return
	}
	s.emitted.Add(int64(len(records)))
	s.metrics.recordEmitted(len(records))
}

// DataFlow returns throughput counters. Received counts datagrams.
func (s *Source) DataFlow() component.FlowMetrics {
	last, _ := s.lastActivity.Load().(time.Time)
	return component.FlowMetrics{
		Received:     s.datagrams.Load(),
		Emitted:      s.emitted.Load(),
		Errors:       s.errors.Load(),
		LastActivity: last,
	}
}
