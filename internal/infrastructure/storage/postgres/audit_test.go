package postgres

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuditService_Compress(t *testing.T) {
	svc, err := NewAuditService(nil)
	require.NoError(t, err)

	t.Run("small change set stays inline", func(t *testing.T) {
		entry := svc.compress(AuditEntry{Changes: json.RawMessage(`{"is_completed":true}`)})
		assert.Equal(t, CompressionNone, entry.CompressionAlgo)
		assert.Nil(t, entry.ChangesCompressed)
		assert.JSONEq(t, `{"is_completed":true}`, string(entry.Changes))
	})

	t.Run("large change set moves to zstd column", func(t *testing.T) {
		raw, err := json.Marshal(map[string]string{"note": strings.Repeat("лес", 8*1024)})
		require.NoError(t, err)

		entry := svc.compress(AuditEntry{Changes: raw})
		assert.Equal(t, CompressionZstd, entry.CompressionAlgo)
		assert.Nil(t, entry.Changes)
		assert.Less(t, len(entry.ChangesCompressed), len(raw))

		dec, err := zstd.NewReader(nil)
		require.NoError(t, err)
		defer dec.Close()
		plain, err := dec.DecodeAll(entry.ChangesCompressed, nil)
		require.NoError(t, err)
		assert.Equal(t, []byte(raw), plain)
	})
}
