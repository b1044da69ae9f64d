package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func overloaded() error {
	return &CapabilityError{Kind: Transient, Provider: ProviderAnthropic, StatusCode: 529, Err: errors.New("overloaded_error")}
}

type sleepRecorder struct {
	delays []time.Duration
}

func (r *sleepRecorder) sleep(_ context.Context, d time.Duration) error {
	r.delays = append(r.delays, d)
	return nil
}

func TestWithRetry_SucceedsAfterTransientFailures(t *testing.T) {
	const k = 3
	rec := &sleepRecorder{}
	var events []RetryEvent
	policy := RetryPolicy{
		MaxAttempts: 5,
		BaseDelay:   time.Second,
		Sleep:       rec.sleep,
		OnRetry:     func(ev RetryEvent) { events = append(events, ev) },
	}

	calls := 0
	res, err := WithRetry(context.Background(), policy, func(context.Context) (string, error) {
		calls++
		if calls <= k {
			return "", overloaded()
		}
		return "ok", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "ok", res)
	assert.Equal(t, k+1, calls)
	require.Len(t, rec.delays, k)
	require.Len(t, events, k)

	for i, d := range rec.delays {
		lower := time.Second << i
		assert.GreaterOrEqual(t, d, lower, "delay %d", i+1)
		assert.Less(t, d, lower+time.Second, "delay %d", i+1)
		assert.Equal(t, i+1, events[i].Attempt)
		assert.Equal(t, 5, events[i].MaxAttempts)
		assert.Equal(t, d, events[i].Delay)
		assert.True(t, IsTransient(events[i].Err))
	}
}

func TestWithRetry_ExhaustsAttempts(t *testing.T) {
	rec := &sleepRecorder{}
	policy := RetryPolicy{MaxAttempts: 4, BaseDelay: 10 * time.Millisecond, Sleep: rec.sleep}

	calls := 0
	_, err := WithRetry(context.Background(), policy, func(context.Context) (int, error) {
		calls++
		return 0, overloaded()
	})

	require.Error(t, err)
	assert.Equal(t, 4, calls)
	assert.Len(t, rec.delays, 3)

	var retryErr *RetryError
	require.ErrorAs(t, err, &retryErr)
	assert.Equal(t, 4, retryErr.Attempts)
	assert.True(t, IsTransient(err))
	assert.Contains(t, err.Error(), "all 4 attempts failed")
}

func TestWithRetry_FatalErrorIsNotRetried(t *testing.T) {
	rec := &sleepRecorder{}
	fatal := &CapabilityError{Kind: Fatal, Provider: ProviderOpenAI, StatusCode: 401, Err: errors.New("invalid api key")}

	calls := 0
	_, err := WithRetry(context.Background(), RetryPolicy{Sleep: rec.sleep}, func(context.Context) (string, error) {
		calls++
		return "", fatal
	})

	assert.Equal(t, 1, calls)
	assert.Empty(t, rec.delays)
	assert.Same(t, fatal, err)
}

func TestWithRetry_NonCapabilityErrorIsFatal(t *testing.T) {
	boom := errors.New("boom")
	calls := 0
	_, err := WithRetry(context.Background(), RetryPolicy{}, func(context.Context) (string, error) {
		calls++
		return "", boom
	})
	assert.Equal(t, 1, calls)
	assert.ErrorIs(t, err, boom)
}

func TestWithRetry_ContextCancelledDuringSleep(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	policy := RetryPolicy{
		MaxAttempts: 5,
		Sleep: func(ctx context.Context, d time.Duration) error {
			cancel()
			return sleepContext(ctx, d)
		},
	}

	calls := 0
	_, err := WithRetry(ctx, policy, func(context.Context) (string, error) {
		calls++
		return "", overloaded()
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestBackoff(t *testing.T) {
	p := RetryPolicy{BaseDelay: 2 * time.Second, Jitter: func() time.Duration { return 250 * time.Millisecond }}
	assert.Equal(t, time.Duration(0), p.Backoff(1))
	assert.Equal(t, 2250*time.Millisecond, p.Backoff(2))
	assert.Equal(t, 4250*time.Millisecond, p.Backoff(3))
	assert.Equal(t, 8250*time.Millisecond, p.Backoff(4))
}

func TestDefaultRetryPolicy(t *testing.T) {
	p := DefaultRetryPolicy()
	assert.Equal(t, 5, p.MaxAttempts)
	assert.Equal(t, time.Second, p.BaseDelay)
	for i := 0; i < 100; i++ {
		j := p.Jitter()
		assert.GreaterOrEqual(t, j, time.Duration(0))
		assert.Less(t, j, time.Second)
	}
}
