package lock

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bsm/redislock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"forestledger/internal/core/apperror"
)

type stubObtainer struct {
	err     error
	gotKey  string
	gotTTL  time.Duration
	gotOpts *redislock.Options
}

func (s *stubObtainer) Obtain(_ context.Context, key string, ttl time.Duration, opt *redislock.Options) (*redislock.Lock, error) {
	s.gotKey, s.gotTTL, s.gotOpts = key, ttl, opt
	return nil, s.err
}

func TestAcquire_NotObtained(t *testing.T) {
	stub := &stubObtainer{err: redislock.ErrNotObtained}
	l := &RedisLocker{client: stub, ttl: 5 * time.Second}

	_, err := l.Acquire(context.Background(), "ledger:movement:abc")
	require.True(t, apperror.HasCode(err, apperror.CodeDocumentLocked))

	appErr, _ := apperror.AsAppError(err)
	assert.Equal(t, "abc", appErr.Details["document_id"])
	assert.Equal(t, "ledger:movement:abc", stub.gotKey)
	assert.Equal(t, 5*time.Second, stub.gotTTL)
	assert.NotNil(t, stub.gotOpts)
}

func TestAcquire_RedisDown(t *testing.T) {
	down := errors.New("dial tcp: connection refused")
	l := &RedisLocker{client: &stubObtainer{err: down}, ttl: time.Second}

	_, err := l.Acquire(context.Background(), "k")
	assert.ErrorIs(t, err, down)
	assert.False(t, apperror.IsAppError(err))
}
