package postgres

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNumeric_KeepsExactValue(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"38.5", "38.5"},
		{"0.1", "0.1"},
		{"720", "720"},
		{"-2.4", "-2.4"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			n := Numeric(decimal.RequireFromString(tt.in))
			require.True(t, n.Valid)

			back := decimal.NewFromBigInt(n.Int, n.Exp)
			assert.Equal(t, tt.want, back.String())
		})
	}
}

func TestNumeric_ZeroValue(t *testing.T) {
	n := Numeric(decimal.Decimal{})
	require.True(t, n.Valid)
	assert.Equal(t, int64(0), n.Int.Int64())
}
