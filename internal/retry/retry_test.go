package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPolicy() Policy {
	return Policy{MaxAttempts: 3, BaseDelay: time.Millisecond, Factor: 1.5}
}

func TestDo_RetriesTransient(t *testing.T) {
	calls := 0

	got, err := Do(context.Background(), testPolicy(), func() (string, error) {
		calls++
		if calls < 3 {
			return "", errors.New("flaky")
		}

		return "ok", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "ok", got)
	assert.Equal(t, 3, calls)
}

func TestDo_AttemptCeiling(t *testing.T) {
	calls := 0

	_, err := Do(context.Background(), testPolicy(), func() (string, error) {
		calls++

		return "", errors.New("always failing")
	})

	require.Error(t, err)
	assert.Equal(t, 3, calls)
}

func TestDo_PermanentStopsImmediately(t *testing.T) {
	calls := 0
	cause := errors.New("rejected")

	_, err := Do(context.Background(), testPolicy(), func() (string, error) {
		calls++

		return "", Permanent(cause)
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, 1, calls)
}

func TestDo_HonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Do(ctx, testPolicy(), func() (string, error) {
		return "", errors.New("never succeeds")
	})

	require.Error(t, err)
}
