package health

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/wirestreams/events"
)

func TestMonitorUpdate(t *testing.T) {
	m := NewMonitor()
	m.Update("nats", Status{Component: "wrong", Status: StateHealthy})

	got, ok := m.Get("nats")
	require.True(t, ok)
	assert.Equal(t, "nats", got.Component, "name wins over the status' own")
	assert.False(t, got.Timestamp.IsZero())

	m.Remove("nats")
	_, ok = m.Get("nats")
	assert.False(t, ok)
}

func TestMonitorConcurrentAccess(t *testing.T) {
	m := NewMonitor()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				m.Update("part", NewHealthy("part", "ok"))
				_ = m.AggregateHealth("system")
			}
		}()
	}
	wg.Wait()
	assert.True(t, m.AggregateHealth("system").IsHealthy())
}

func TestTrack(t *testing.T) {
	bus := events.NewBus(nil)
	m := NewMonitor()
	stop := m.Track(bus)

	graph := func() Status {
		s, ok := m.Get(GraphComponent)
		require.True(t, ok)
		return s
	}
	assert.True(t, graph().IsUnhealthy(), "not active before activation")

	bus.Publish(events.New(events.GraphActivated))
	assert.True(t, graph().IsHealthy())

	bus.Publish(events.New(events.PropagationFailed).WithComponent("store").WithAttr("reason", "error"))
	assert.True(t, graph().IsDegraded())
	assert.Equal(t, "Delivery to store failed (error)", graph().Message)

	bus.Publish(events.New(events.GraphReconfigured))
	assert.True(t, graph().IsHealthy())

	bus.Publish(events.New(events.GraphTornDown))
	assert.True(t, graph().IsUnhealthy())

	stop()
	bus.Publish(events.New(events.GraphActivated))
	assert.True(t, graph().IsUnhealthy(), "no updates after unsubscribe")
}

func TestHandler(t *testing.T) {
	m := NewMonitor()
	m.Update("graph", NewHealthy("graph", "Graph active"))
	m.Update("nats", NewDegraded("nats", "Reconnecting"))

	rec := httptest.NewRecorder()
	Handler(m, "wirestreams").ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body Status
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, StateDegraded, body.Status)
	assert.Len(t, body.SubStatuses, 2)

	m.Update("nats", NewUnhealthy("nats", "Disconnected"))
	rec = httptest.NewRecorder()
	Handler(m, "wirestreams").ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
