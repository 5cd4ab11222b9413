package security

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"forestledger/internal/core/apperror"
)

func TestStrictPolicy(t *testing.T) {
	ctx := context.Background()
	closed := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	p := NewStrictPolicy(closed)

	err := p.CanExecute(ctx, closed.Add(-time.Hour))
	assert.True(t, apperror.HasCode(err, apperror.CodePeriodClosed))
	assert.True(t, apperror.HasCode(p.CanCancel(ctx, closed.AddDate(0, -3, 0)), apperror.CodePeriodClosed))

	assert.NoError(t, p.CanExecute(ctx, closed))
	assert.NoError(t, p.CanCancel(ctx, closed.Add(time.Minute)))
	assert.Equal(t, closed, p.ClosedUntil(ctx))
}

func TestFromClosedUntil(t *testing.T) {
	assert.IsType(t, OpenPolicy{}, FromClosedUntil(time.Time{}))
	assert.IsType(t, &StrictPolicy{}, FromClosedUntil(time.Now()))
	assert.NoError(t, OpenPolicy{}.CanExecute(context.Background(), time.Time{}))
}
