package flowstore

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/nats-io/nats.go/jetstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/wirestreams/errors"
	"github.com/c360/wirestreams/types"
)

type memEntry struct {
	key      string
	value    []byte
	revision uint64
	op       jetstream.KeyValueOp
}

func (e *memEntry) Bucket() string                  { return "mem" }
func (e *memEntry) Key() string                     { return e.key }
func (e *memEntry) Value() []byte                   { return e.value }
func (e *memEntry) Revision() uint64                { return e.revision }
func (e *memEntry) Created() time.Time              { return time.Time{} }
func (e *memEntry) Delta() uint64                   { return 0 }
func (e *memEntry) Operation() jetstream.KeyValueOp { return e.op }

type memWatcher struct {
	updates chan jetstream.KeyValueEntry
}

func (w *memWatcher) Updates() <-chan jetstream.KeyValueEntry { return w.updates }
func (w *memWatcher) Stop() error                             { return nil }

// memKV is an in-memory KeyValue with the revision semantics of a bucket.
type memKV struct {
	mu       sync.Mutex
	rev      uint64
	entries  map[string]*memEntry
	watchers map[string][]*memWatcher
}

func newMemKV() *memKV {
	return &memKV{entries: map[string]*memEntry{}, watchers: map[string][]*memWatcher{}}
}

func (m *memKV) Get(_ context.Context, key string) (jetstream.KeyValueEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[key]
	if !ok || e.op != jetstream.KeyValuePut {
		return nil, jetstream.ErrKeyNotFound
	}
	return e, nil
}

func (m *memKV) Put(_ context.Context, key string, value []byte) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.store(key, value, jetstream.KeyValuePut), nil
}

func (m *memKV) Update(_ context.Context, key string, value []byte, revision uint64) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.entries[key]; !ok || e.revision != revision {
		return 0, jetstream.ErrKeyExists
	}
	return m.store(key, value, jetstream.KeyValuePut), nil
}

func (m *memKV) Delete(_ context.Context, key string, _ ...jetstream.KVDeleteOpt) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.store(key, nil, jetstream.KeyValueDelete)
	return nil
}

func (m *memKV) Keys(_ context.Context, _ ...jetstream.WatchOpt) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var keys []string
	for k, e := range m.entries {
		if e.op == jetstream.KeyValuePut {
			keys = append(keys, k)
		}
	}
	if len(keys) == 0 {
		return nil, jetstream.ErrNoKeysFound
	}
	return keys, nil
}

func (m *memKV) Watch(_ context.Context, key string, _ ...jetstream.WatchOpt) (jetstream.KeyWatcher, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	w := &memWatcher{updates: make(chan jetstream.KeyValueEntry, 16)}
	if e, ok := m.entries[key]; ok {
		w.updates <- e
	}
	w.updates <- nil
	m.watchers[key] = append(m.watchers[key], w)
	return w, nil
}

func (m *memKV) store(key string, value []byte, op jetstream.KeyValueOp) uint64 {
	m.rev++
	e := &memEntry{key: key, value: value, revision: m.rev, op: op}
	m.entries[key] = e
	for _, w := range m.watchers[key] {
		w.updates <- e
	}
	return m.rev
}

func testSpec() types.GraphSpec {
	return types.GraphSpec{
		Components: []types.ComponentSpec{
			{ID: "avg", Kind: "math-transform", Properties: types.Properties{"window.size": types.IntProperty(5)}},
			{ID: "log", Kind: "logger"},
		},
		Wires: []types.WireSpec{{FromID: "avg", ToID: "log"}},
	}
}

func TestSaveLoad(t *testing.T) {
	ctx := context.Background()
	s := NewStoreWithKV(newMemKV(), nil)

	rev, err := s.Save(ctx, "plant-a", testSpec())
	require.NoError(t, err)
	assert.Equal(t, uint64(1), rev)

	got, err := s.Load(ctx, "plant-a")
	require.NoError(t, err)
	assert.Equal(t, "plant-a", got.Name)
	assert.Equal(t, rev, got.Revision)
	assert.Equal(t, testSpec(), got.Spec)

	_, err = s.Load(ctx, "missing")
	assert.ErrorIs(t, err, errors.ErrKeyNotFound)
}

func TestSaveValidates(t *testing.T) {
	s := NewStoreWithKV(newMemKV(), nil)

	bad := testSpec()
	bad.Components = append(bad.Components, types.ComponentSpec{ID: "avg", Kind: "logger"})
	_, err := s.Save(context.Background(), "plant-a", bad)
	var verr *errors.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.True(t, verr.Has(errors.IssueDuplicateID))

	for _, name := range []string{"", "a b", ".a", "a.", "a..b", "a/b"} {
		_, err := s.Save(context.Background(), name, testSpec())
		assert.True(t, errors.IsInvalid(err), "name %q", name)
	}
}

func TestUpdateRevision(t *testing.T) {
	ctx := context.Background()
	s := NewStoreWithKV(newMemKV(), nil)

	rev, err := s.Save(ctx, "g", testSpec())
	require.NoError(t, err)

	edited := testSpec()
	edited.Wires = nil
	rev2, err := s.Update(ctx, "g", edited, rev)
	require.NoError(t, err)
	assert.Greater(t, rev2, rev)

	_, err = s.Update(ctx, "g", testSpec(), rev)
	assert.True(t, errors.IsInvalid(err), "stale revision is a conflict")

	got, err := s.Load(ctx, "g")
	require.NoError(t, err)
	assert.Empty(t, got.Spec.Wires)
}

func TestListDelete(t *testing.T) {
	ctx := context.Background()
	s := NewStoreWithKV(newMemKV(), nil)

	names, err := s.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, names)

	for _, name := range []string{"b", "a", "c"} {
		_, err := s.Save(ctx, name, testSpec())
		require.NoError(t, err)
	}
	require.NoError(t, s.Delete(ctx, "b"))

	names, err = s.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "c"}, names)
}

func TestWatch(t *testing.T) {
	kv := newMemKV()
	s := NewStoreWithKV(kv, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	current, err := s.Save(ctx, "g", types.GraphSpec{Components: []types.ComponentSpec{{ID: "log", Kind: "logger"}}})
	require.NoError(t, err)

	changes := make(chan Change, 4)
	done := make(chan error, 1)
	go func() { done <- s.Watch(ctx, "g", func(c Change) { changes <- c }) }()

	c := <-changes
	assert.Equal(t, current, c.Revision, "current value comes first")
	assert.Len(t, c.Spec.Components, 1)

	require.Eventually(t, func() bool {
		kv.mu.Lock()
		defer kv.mu.Unlock()
		return len(kv.watchers["g"]) == 1
	}, time.Second, 5*time.Millisecond)

	_, err = s.Save(ctx, "g", testSpec())
	require.NoError(t, err)
	_, err = kv.Put(ctx, "g", []byte("{not json"))
	require.NoError(t, err)
	require.NoError(t, s.Delete(ctx, "g"))

	c = <-changes
	assert.False(t, c.Deleted)
	assert.Equal(t, testSpec(), c.Spec)

	c = <-changes
	assert.True(t, c.Deleted, "undecodable value is skipped")
	assert.Equal(t, "g", c.Name)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Watch did not return after cancel")
	}
}
