package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPolicy_Do_SucceedsFirstAttempt(t *testing.T) {
	p := NoDelay(3)

	calls := 0
	err := p.Do(context.Background(), func(attempt int) error {
		calls++
		return nil
	})

	assert.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestPolicy_Do_RetriesUntilSuccess(t *testing.T) {
	p := NoDelay(3)

	calls := 0
	err := p.Do(context.Background(), func(attempt int) error {
		calls++
		if attempt < 3 {
			return errors.New("transient")
		}
		return nil
	})

	assert.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestPolicy_Do_ReturnsLastError(t *testing.T) {
	p := NoDelay(2)

	wantErr := errors.New("still broken")
	calls := 0
	err := p.Do(context.Background(), func(attempt int) error {
		calls++
		return wantErr
	})

	assert.Equal(t, wantErr, err)
	assert.Equal(t, 2, calls)
}

func TestPolicy_Do_BackoffDelays(t *testing.T) {
	var slept []time.Duration
	p := Policy{
		MaxAttempts: 3,
		Backoff:     LinearBackoff(time.Second),
		Sleep: func(ctx context.Context, d time.Duration) error {
			slept = append(slept, d)
			return nil
		},
	}

	err := p.Do(context.Background(), func(attempt int) error {
		return errors.New("nope")
	})

	require.Error(t, err)
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, slept)
}

func TestPolicy_Do_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := Policy{MaxAttempts: 3, Backoff: ConstantBackoff(time.Millisecond)}
	calls := 0
	err := p.Do(ctx, func(attempt int) error {
		calls++
		return errors.New("transient")
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.LessOrEqual(t, calls, 1)
}

func TestPolicy_Do_ZeroAttemptsRunsOnce(t *testing.T) {
	p := Policy{}
	calls := 0
	_ = p.Do(context.Background(), func(attempt int) error {
		calls++
		return errors.New("x")
	})
	assert.Equal(t, 1, calls)
}
