package flowstore

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/c360/wirestreams/component"
	"github.com/c360/wirestreams/errors"
	"github.com/c360/wirestreams/natsclient"
	"github.com/c360/wirestreams/types"
)

// DefaultBucket is the KV bucket graphs are stored in when none is configured.
const DefaultBucket = "wirestreams_graphs"

// KeyValue is the subset of jetstream.KeyValue the store uses.
type KeyValue interface {
	Get(ctx context.Context, key string) (jetstream.KeyValueEntry, error)
	Put(ctx context.Context, key string, value []byte) (uint64, error)
	Update(ctx context.Context, key string, value []byte, revision uint64) (uint64, error)
	Delete(ctx context.Context, key string, opts ...jetstream.KVDeleteOpt) error
	Keys(ctx context.Context, opts ...jetstream.WatchOpt) ([]string, error)
	Watch(ctx context.Context, keys string, opts ...jetstream.WatchOpt) (jetstream.KeyWatcher, error)
}

// Stored is a graph as read back from the bucket.
type Stored struct {
	Name     string
	Spec     types.GraphSpec
	Revision uint64
	Created  time.Time
}

// Change is one update seen by Watch. Spec is empty when Deleted is set.
type Change struct {
	Name     string
	Spec     types.GraphSpec
	Revision uint64
	Deleted  bool
}

// Store keeps named graph specs in a NATS KV bucket.
type Store struct {
	kv     KeyValue
	logger *slog.Logger
}

// NewStore opens (creating if needed) bucket on the client's JetStream and
// returns a store over it.
func NewStore(ctx context.Context, client *natsclient.Client, bucket string, logger *slog.Logger) (*Store, error) {
	if client == nil {
		return nil, errors.WrapInvalid(errors.ErrMissingConfig, "flowstore", "NewStore", "nats client cannot be nil")
	}
	if bucket == "" {
		bucket = DefaultBucket
	}

	kv, err := client.CreateKeyValueBucket(ctx, jetstream.KeyValueConfig{
		Bucket:      bucket,
		Description: "Wire graph specifications",
		History:     10, // Keep last 10 versions for history/recovery
	})
	if err != nil {
		return nil, errors.WrapTransient(err, "flowstore", "NewStore", "create KV bucket")
	}
	return NewStoreWithKV(kv, logger), nil
}

// NewStoreWithKV returns a store over an already opened bucket.
func NewStoreWithKV(kv KeyValue, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{kv: kv, logger: logger.With("component", "flowstore")}
}

// ValidateName checks that name is usable as a KV key.
func ValidateName(name string) error {
	if err := component.ValidateID(name); err != nil {
		return errors.WrapInvalid(err, "flowstore", "ValidateName", "graph name")
	}
	if strings.HasPrefix(name, ".") || strings.HasSuffix(name, ".") || strings.Contains(name, "..") {
		return errors.WrapInvalid(fmt.Errorf("graph name %q has an empty token", name),
			"flowstore", "ValidateName", "graph name")
	}
	return nil
}

// Save validates spec structurally and stores it under name, returning the
// new revision.
func (s *Store) Save(ctx context.Context, name string, spec types.GraphSpec) (uint64, error) {
	data, err := s.encode(name, spec)
	if err != nil {
		return 0, err
	}

	rev, err := s.kv.Put(ctx, name, data)
	if err != nil {
		return 0, errors.WrapTransient(err, "flowstore", "Save", "put to KV")
	}
	s.logger.Info("Saved graph", "name", name, "revision", rev,
		"components", len(spec.Components), "wires", len(spec.Wires))
	return rev, nil
}

// Update stores spec only if the stored revision is still revision.
func (s *Store) Update(ctx context.Context, name string, spec types.GraphSpec, revision uint64) (uint64, error) {
	data, err := s.encode(name, spec)
	if err != nil {
		return 0, err
	}

	rev, err := s.kv.Update(ctx, name, data, revision)
	if err != nil {
		if stderrors.Is(err, jetstream.ErrKeyExists) {
			return 0, errors.WrapInvalid(err, "flowstore", "Update",
				fmt.Sprintf("conflict: graph %s changed since revision %d", name, revision))
		}
		return 0, errors.WrapTransient(err, "flowstore", "Update", "update in KV")
	}
	s.logger.Info("Updated graph", "name", name, "revision", rev)
	return rev, nil
}

// Load returns the graph stored under name. A missing graph is reported as
// errors.ErrKeyNotFound.
func (s *Store) Load(ctx context.Context, name string) (*Stored, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}

	entry, err := s.kv.Get(ctx, name)
	if err != nil {
		if stderrors.Is(err, jetstream.ErrKeyNotFound) {
			return nil, errors.WrapInvalid(errors.ErrKeyNotFound, "flowstore", "Load", "graph "+name)
		}
		return nil, errors.WrapTransient(err, "flowstore", "Load", "get from KV")
	}

	var spec types.GraphSpec
	if err := json.Unmarshal(entry.Value(), &spec); err != nil {
		return nil, errors.WrapFatal(err, "flowstore", "Load", "unmarshal graph "+name)
	}
	return &Stored{Name: name, Spec: spec, Revision: entry.Revision(), Created: entry.Created()}, nil
}

// Delete removes the graph stored under name.
func (s *Store) Delete(ctx context.Context, name string) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	if err := s.kv.Delete(ctx, name); err != nil {
		return errors.WrapTransient(err, "flowstore", "Delete", "delete from KV")
	}
	s.logger.Info("Deleted graph", "name", name)
	return nil
}

// List returns the stored graph names, sorted.
func (s *Store) List(ctx context.Context) ([]string, error) {
	keys, err := s.kv.Keys(ctx)
	if err != nil {
		if stderrors.Is(err, jetstream.ErrNoKeysFound) {
			return []string{}, nil
		}
		return nil, errors.WrapTransient(err, "flowstore", "List", "list KV keys")
	}
	sort.Strings(keys)
	return keys, nil
}

// Watch calls fn for the current value of name, if there is one, and then
// for every later change until ctx is done. Callers that already loaded the
// graph skip changes by revision. Values that do not decode are logged and
// skipped. fn runs on the watching goroutine.
func (s *Store) Watch(ctx context.Context, name string, fn func(Change)) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	if fn == nil {
		return errors.WrapInvalid(errors.ErrMissingConfig, "flowstore", "Watch", "callback cannot be nil")
	}

	watcher, err := s.kv.Watch(ctx, name)
	if err != nil {
		return errors.WrapTransient(err, "flowstore", "Watch", "watch KV key")
	}
	defer func() {
		if err := watcher.Stop(); err != nil {
			s.logger.Debug("Failed to stop watcher", "name", name, "error", err)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case entry, ok := <-watcher.Updates():
			if !ok {
				return errors.WrapTransient(errors.ErrStorageUnavailable, "flowstore", "Watch", "updates channel closed")
			}
			if entry == nil {
				continue // end of initial values
			}
			change, err := decodeChange(entry)
			if err != nil {
				s.logger.Warn("Ignoring undecodable graph update",
					"name", name, "revision", entry.Revision(), "error", err)
				continue
			}
			fn(change)
		}
	}
}

func (s *Store) encode(name string, spec types.GraphSpec) ([]byte, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	data, err := json.Marshal(spec)
	if err != nil {
		return nil, errors.WrapFatal(err, "flowstore", "encode", "marshal graph")
	}
	return data, nil
}

func decodeChange(entry jetstream.KeyValueEntry) (Change, error) {
	change := Change{Name: entry.Key(), Revision: entry.Revision()}
	if entry.Operation() != jetstream.KeyValuePut {
		change.Deleted = true
		return change, nil
	}
	if err := json.Unmarshal(entry.Value(), &change.Spec); err != nil {
		return Change{}, err
	}
	return change, nil
}
