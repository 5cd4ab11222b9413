package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"forestledger/internal/core/apperror"
)

func TestDocument_Lifecycle(t *testing.T) {
	doc := NewDocument("u-1")
	require.False(t, doc.Completed)
	require.NoError(t, doc.CanExecute())
	assert.True(t, apperror.IsNotExecuted(doc.CanCancel()))

	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.FixedZone("MSK", 3*3600))
	doc.MarkCompleted(at)

	assert.True(t, doc.Completed)
	require.NotNil(t, doc.CompletedAt)
	assert.Equal(t, time.UTC, doc.CompletedAt.Location())
	assert.True(t, doc.CompletedAt.Equal(at))
	assert.Equal(t, 2, doc.Version)
	assert.True(t, apperror.IsAlreadyExecuted(doc.CanExecute()))
	assert.NoError(t, doc.CanCancel())

	doc.MarkPending()
	assert.False(t, doc.Completed)
	assert.Nil(t, doc.CompletedAt)
	assert.Equal(t, 3, doc.Version)
}

func TestCatalog_Validate(t *testing.T) {
	c := NewCatalog("")
	err := c.Validate(t.Context())
	require.Error(t, err)

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, "name", appErr.Details["field"])
}
