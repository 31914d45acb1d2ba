package udp

import (
	"bytes"
	"context"
	"log/slog"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/wirestreams/component"
	"github.com/c360/wirestreams/errors"
	"github.com/c360/wirestreams/metric"
	"github.com/c360/wirestreams/record"
	"github.com/c360/wirestreams/typed"
	"github.com/c360/wirestreams/types"
)

// capture collects what a Source emits.
type capture struct {
	mu      sync.Mutex
	batches [][]*record.Record
	err     error
}

func (c *capture) emit(_ context.Context, port int, records ...*record.Record) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if port != 0 {
		panic("unexpected port")
	}
	c.batches = append(c.batches, records)
	return c.err
}

func (c *capture) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, b := range c.batches {
		n += len(b)
	}
	return n
}

func newTestSource(t *testing.T, deps component.Dependencies, props ...types.Properties) *Source {
	t.Helper()
	p := types.Properties{}
	if len(props) > 0 {
		p = props[0]
	}
	c, err := NewSource("ingest", p, deps)
	require.NoError(t, err)
	return c.(*Source)
}

// start runs s until the test ends and returns its bound address.
func start(t *testing.T, s *Source, emit component.EmitFunc) *net.UDPAddr {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx, emit) }()
	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(2 * time.Second):
			t.Error("Run did not return after cancel")
		}
	})

	require.Eventually(t, func() bool { return s.Addr() != nil }, 2*time.Second, 5*time.Millisecond)
	return s.Addr().(*net.UDPAddr)
}

func send(t *testing.T, addr *net.UDPAddr, payloads ...string) {
	t.Helper()
	conn, err := net.DialUDP("udp", nil, addr)
	require.NoError(t, err)
	defer conn.Close()
	for _, p := range payloads {
		_, err := conn.Write([]byte(p))
		require.NoError(t, err)
	}
}

func TestNewSource(t *testing.T) {
	s := newTestSource(t, component.Dependencies{})
	assert.Equal(t, DefaultBindAddress, s.bind)
	assert.Equal(t, 0, s.port)
	assert.Equal(t, 1, s.OutputPorts())
	assert.Nil(t, s.Addr(), "factory must not bind")
	assert.Equal(t, "UDP listener on 127.0.0.1:0", s.Meta().Description)

	_, isReceiver := component.IsReceiver(s)
	assert.False(t, isReceiver)
	var _ component.Runner = s

	for name, props := range map[string]types.Properties{
		"port too large": {PropBindPort: types.IntProperty(70000)},
		"negative port":  {PropBindPort: types.IntProperty(-1)},
		"empty address":  {PropBindAddress: types.StringProperty("")},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := NewSource("bad", props, component.Dependencies{})
			assert.True(t, errors.IsInvalid(err))
		})
	}
}

func TestSourceEmitsDatagrams(t *testing.T) {
	reg := metric.NewMetricsRegistry()
	s := newTestSource(t, component.Dependencies{MetricsRegistry: reg})
	c := &capture{}
	addr := start(t, s, c.emit)

	send(t, addr, `{"device":"t-17","temperature":21.5}`, `[{"seq":1},{"seq":2}]`)
	require.Eventually(t, func() bool { return c.count() == 3 }, 2*time.Second, 5*time.Millisecond)

	c.mu.Lock()
	require.Len(t, c.batches, 2, "one emission per datagram")
	v, _ := c.batches[0][0].Get("temperature")
	assert.True(t, v.Equal(typed.Double(21.5)))
	assert.Len(t, c.batches[1], 2)
	c.mu.Unlock()

	flow := s.DataFlow()
	assert.Equal(t, int64(2), flow.Received)
	assert.Equal(t, int64(3), flow.Emitted)
	assert.False(t, flow.LastActivity.IsZero())
	assert.Equal(t, float64(3), testutil.ToFloat64(s.metrics.records.WithLabelValues("ingest")))
	assert.Equal(t, float64(2), testutil.ToFloat64(s.metrics.datagrams.WithLabelValues("ingest", "accepted")))
}

func TestSourceDropsBadDatagrams(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	s := newTestSource(t, component.Dependencies{Logger: logger})
	c := &capture{}
	addr := start(t, s, c.emit)

	send(t, addr, `not json`, `{"ok":true}`)
	require.Eventually(t, func() bool { return c.count() == 1 }, 2*time.Second, 5*time.Millisecond)

	flow := s.DataFlow()
	assert.Equal(t, int64(2), flow.Received)
	assert.Equal(t, int64(1), flow.Errors)
	assert.Contains(t, buf.String(), "Dropped undecodable datagram")
}

func TestSourceCountsEmitFailures(t *testing.T) {
	s := newTestSource(t, component.Dependencies{})
	c := &capture{err: errors.WrapInvalid(errors.ErrNotActive, "test", "emit", "state")}
	addr := start(t, s, c.emit)

	send(t, addr, `{"a":1}`)
	require.Eventually(t, func() bool { return s.DataFlow().Errors == 1 }, 2*time.Second, 5*time.Millisecond)
	assert.Zero(t, s.DataFlow().Emitted)
}

func TestSourceReleasesSocket(t *testing.T) {
	s := newTestSource(t, component.Dependencies{})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx, (&capture{}).emit) }()
	require.Eventually(t, func() bool { return s.Addr() != nil }, 2*time.Second, 5*time.Millisecond)
	port := s.Addr().(*net.UDPAddr).Port

	cancel()
	require.NoError(t, <-done)
	assert.Nil(t, s.Addr())

	// the port can be bound again
	conn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: port})
	require.NoError(t, err)
	require.NoError(t, conn.Close())
}

func TestRegister(t *testing.T) {
	reg := component.NewRegistry()
	require.NoError(t, Register(reg))

	c, err := reg.Create(types.ComponentSpec{
		ID: "in", Kind: Kind, Properties: types.Properties{PropBindPort: types.IntProperty(0)},
	}, component.Dependencies{})
	require.NoError(t, err)
	_, ok := c.(component.Runner)
	assert.True(t, ok)

	violations, err := reg.CheckProperties(Kind, types.Properties{PropBindPort: types.IntProperty(99999)})
	require.NoError(t, err)
	assert.NotEmpty(t, violations)
}
