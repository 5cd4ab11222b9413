package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"forestledger/internal/config"
	"forestledger/internal/core/apperror"
	"forestledger/internal/core/id"
	"forestledger/internal/core/types"
	"forestledger/internal/domain/balance"
	"forestledger/internal/domain/catalog"
	"forestledger/internal/domain/ledger"
	"forestledger/internal/domain/location"
	"forestledger/internal/domain/movement"
	"forestledger/internal/infrastructure/storage/memory"
	"forestledger/pkg/numerator"
)

func TestProcessorOptions_ClosedPeriod(t *testing.T) {
	tests := []struct {
		name        string
		closedUntil time.Time
		wantClosed  bool
	}{
		{"open ledger", time.Time{}, false},
		{"closed before document date", time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), false},
		{"closed after document date", time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			store := memory.New()

			mat := catalog.NewMaterial(catalog.MaterialFuel, "ДТ")
			store.Catalogs().PutMaterial(ctx, mat)
			src := location.New(location.KindWarehouse, id.New())
			require.NoError(t, store.Locations().Create(ctx, src))

			balances := balance.NewService(store.Balances(), store)
			_, _, err := balances.Credit(ctx, src.ID, mat.ID, types.Quantities{Pieces: types.Qty("10")})
			require.NoError(t, err)

			movements := movement.NewService(store.Movements(), store.Locations(), store.Catalogs(),
				numerator.New(numerator.NewMemorySequencer()), store)
			m := movement.NewWriteOff("petrov", src.ID, mat.ID, types.Quantities{Pieces: types.Qty("4")})
			m.Date = time.Date(2026, 3, 15, 9, 0, 0, 0, time.UTC)
			require.NoError(t, movements.Create(ctx, m))

			cfg := &config.Config{Ledger: config.LedgerConfig{ClosedUntil: tt.closedUntil}}
			proc := ledger.NewProcessor(store, store.Movements(), balances, ProcessorOptions(cfg)...)

			_, err = proc.Execute(ctx, m.ID)
			if tt.wantClosed {
				require.Error(t, err)
				assert.True(t, apperror.HasCode(err, apperror.CodePeriodClosed))
				return
			}
			require.NoError(t, err)

			b, err := balances.Get(ctx, src.ID, mat.ID)
			require.NoError(t, err)
			assert.Equal(t, "6", b.Pieces.String())
		})
	}
}
