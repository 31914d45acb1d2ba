package retry

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/wirestreams/errors"
)

func fastConfig(attempts int) Config {
	return Config{
		MaxAttempts:  attempts,
		InitialDelay: time.Millisecond,
		MaxDelay:     5 * time.Millisecond,
		Multiplier:   2.0,
	}
}

func TestDo(t *testing.T) {
	tests := []struct {
		name         string
		cfg          Config
		failures     int
		err          error
		wantAttempts int
		wantErr      bool
	}{
		{name: "success after transient failures", cfg: fastConfig(3), failures: 2,
			err: stderrors.New("flaky"), wantAttempts: 3},
		{name: "all attempts fail", cfg: fastConfig(3), failures: 10,
			err: stderrors.New("flaky"), wantAttempts: 3, wantErr: true},
		{name: "invalid error is not retried", cfg: fastConfig(3), failures: 10,
			err: errors.WrapInvalid(errors.ErrInvalidData, "t", "op", "x"), wantAttempts: 1, wantErr: true},
		{name: "fatal error is not retried", cfg: fastConfig(3), failures: 10,
			err: errors.WrapFatal(stderrors.New("disk"), "t", "op", "x"), wantAttempts: 1, wantErr: true},
		{name: "zero attempts runs once", cfg: fastConfig(0), failures: 10,
			err: stderrors.New("flaky"), wantAttempts: 1, wantErr: true},
		{name: "storage preset retries once", cfg: Storage(), failures: 10,
			err: stderrors.New("locked"), wantAttempts: 2, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			attempts := 0
			err := Do(context.Background(), tt.cfg, func() error {
				attempts++
				if attempts <= tt.failures {
					return tt.err
				}
				return nil
			})
			assert.Equal(t, tt.wantAttempts, attempts)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestDoCustomShouldRetry(t *testing.T) {
	cfg := fastConfig(4)
	cfg.ShouldRetry = func(error) bool { return true }

	attempts := 0
	err := Do(context.Background(), cfg, func() error {
		attempts++
		return errors.WrapInvalid(errors.ErrInvalidData, "t", "op", "x")
	})
	assert.Error(t, err)
	assert.Equal(t, 4, attempts)
}

func TestDoContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := Config{MaxAttempts: 5, InitialDelay: time.Second, MaxDelay: time.Second}

	attempts := 0
	start := time.Now()
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()
	err := Do(ctx, cfg, func() error {
		attempts++
		return stderrors.New("flaky")
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, attempts)
	assert.Less(t, time.Since(start), 500*time.Millisecond)
}

func TestDoInvalidConfig(t *testing.T) {
	err := Do(context.Background(), Config{InitialDelay: -1}, func() error { return nil })
	assert.True(t, errors.IsInvalid(err))

	err = Do(context.Background(), Config{InitialDelay: time.Second, MaxDelay: time.Millisecond}, func() error { return nil })
	assert.True(t, errors.IsInvalid(err))
}

func TestDoWithResult(t *testing.T) {
	attempts := 0
	v, err := DoWithResult(context.Background(), fastConfig(3), func() (int, error) {
		attempts++
		if attempts < 2 {
			return 0, stderrors.New("flaky")
		}
		return 42, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 42, v)
}
