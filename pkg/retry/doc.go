// Package retry provides exponential backoff around operations that can fail
// transiently.
//
// Which errors are retried is decided by Config.ShouldRetry. By default an
// error that errors.Classify reports as invalid or fatal fails at once and
// anything else is retried.
//
// # Presets
//
//   - DefaultConfig(): 3 attempts, 100ms to 5s
//   - Quick(): 10 attempts, 50ms to 1s, for startup connections
//   - Storage(): 2 attempts, 10ms apart, around a write transaction
//
//	err := retry.Do(ctx, retry.Storage(), func() error {
//	    return store.insertOnce(ctx, table, records)
//	})
//
// All waits honour ctx cancellation.
package retry
