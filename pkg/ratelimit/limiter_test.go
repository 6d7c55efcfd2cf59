package ratelimit

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// windowKey mirrors the key layout used by Allow. Tests use an hour-long
// window so the key stays stable for the duration of the run.
func windowKey(key string, window time.Duration) string {
	return fmt.Sprintf("ratelimit:%s:%d", key, time.Now().Unix()/int64(window.Seconds()))
}

func TestAllow_UnderLimit(t *testing.T) {
	client, mock := redismock.NewClientMock()
	l := NewLimiter(client, 5, time.Hour)
	key := windowKey("10.0.0.1", time.Hour)

	mock.ExpectIncr(key).SetVal(1)
	mock.ExpectExpire(key, time.Hour).SetVal(true)

	ok, err := l.Allow(context.Background(), "10.0.0.1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAllow_AtAndOverLimit(t *testing.T) {
	client, mock := redismock.NewClientMock()
	l := NewLimiter(client, 5, time.Hour)
	key := windowKey("10.0.0.1", time.Hour)

	mock.ExpectIncr(key).SetVal(5)
	ok, err := l.Allow(context.Background(), "10.0.0.1")
	require.NoError(t, err)
	assert.True(t, ok, "the limit itself is still allowed")

	mock.ExpectIncr(key).SetVal(6)
	ok, err = l.Allow(context.Background(), "10.0.0.1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAllow_FailsOpenOnRedisError(t *testing.T) {
	client, mock := redismock.NewClientMock()
	l := NewLimiter(client, 5, time.Hour)
	key := windowKey("10.0.0.1", time.Hour)

	mock.ExpectIncr(key).SetErr(assert.AnError)

	ok, err := l.Allow(context.Background(), "10.0.0.1")
	assert.Error(t, err)
	assert.True(t, ok, "a limiter outage must not block requests")
}
