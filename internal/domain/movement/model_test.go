package movement

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"forestledger/internal/core/apperror"
	"forestledger/internal/core/id"
	"forestledger/internal/core/types"
)

func TestCalculateTotal(t *testing.T) {
	from, to, mat := id.New(), id.New(), id.New()
	price := types.MustMoney("150")

	tests := []struct {
		name string
		m    *Movement
		want string
	}{
		{
			name: "sale by pieces",
			m:    NewSale("u", from, to, mat, price, types.Quantities{Pieces: types.Qty("20")}),
			want: "3000",
		},
		{
			name: "sale by meters with pieces absent",
			m:    NewSale("u", from, to, mat, price, types.Quantities{Meters: types.Qty("10")}),
			want: "1500",
		},
		{
			name: "zero pieces do not shadow meters",
			m:    NewSale("u", from, to, mat, price, types.Quantities{Pieces: types.Qty("0"), Meters: types.Qty("10")}),
			want: "1500",
		},
		{
			name: "fractional cubic rounds to kopecks",
			m:    NewSale("u", from, to, mat, types.MustMoney("99.99"), types.Quantities{Cubic: types.Qty("1.333")}),
			want: "133.29",
		},
		{
			name: "transfer totals zero",
			m:    NewTransfer("u", from, to, mat, types.Quantities{Pieces: types.Qty("20")}),
			want: "0",
		},
		{
			name: "write-off totals zero",
			m:    NewWriteOff("u", from, mat, types.Quantities{Pieces: types.Qty("20")}),
			want: "0",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.m.CalculateTotal().String())
		})
	}
}

func TestCalculateTotal_SaleWithoutPrice(t *testing.T) {
	m := NewSale("u", id.New(), id.New(), id.New(), decimal.Zero, types.Quantities{Pieces: types.Qty("5")})
	m.Price = decimal.NullDecimal{}
	assert.True(t, m.CalculateTotal().IsZero())
}

func TestValidate(t *testing.T) {
	ctx := context.Background()
	from, to, mat := id.New(), id.New(), id.New()
	q := types.Quantities{Pieces: types.Qty("1")}

	tests := []struct {
		name string
		m    func() *Movement
		code string
	}{
		{"valid transfer", func() *Movement { return NewTransfer("u", from, to, mat, q) }, ""},
		{"valid write-off", func() *Movement { return NewWriteOff("u", from, mat, q) }, ""},
		{"transfer without destination", func() *Movement {
			m := NewTransfer("u", from, to, mat, q)
			m.ToLocationID = nil
			return m
		}, apperror.CodeInvalidDocument},
		{"sale without destination", func() *Movement {
			m := NewSale("u", from, to, mat, types.MustMoney("1"), q)
			m.ToLocationID = nil
			return m
		}, apperror.CodeInvalidDocument},
		{"write-off with destination", func() *Movement {
			m := NewWriteOff("u", from, mat, q)
			m.ToLocationID = &to
			return m
		}, apperror.CodeInvalidDocument},
		{"same source and destination", func() *Movement { return NewTransfer("u", from, from, mat, q) }, apperror.CodeInvalidDocument},
		{"no quantities", func() *Movement { return NewTransfer("u", from, to, mat, types.Quantities{}) }, apperror.CodeInvalidDocument},
		{"only zero quantities", func() *Movement {
			return NewTransfer("u", from, to, mat, types.Quantities{Pieces: types.Qty("0")})
		}, apperror.CodeInvalidDocument},
		{"negative quantity", func() *Movement {
			return NewTransfer("u", from, to, mat, types.Quantities{Pieces: types.Qty("2"), Cubic: types.Qty("-1")})
		}, apperror.CodeInvalidDocument},
		{"multi-unit sale", func() *Movement {
			return NewSale("u", from, to, mat, types.MustMoney("1"), types.Quantities{Pieces: types.Qty("1"), Meters: types.Qty("1")})
		}, apperror.CodeInvalidDocument},
		{"sale without price", func() *Movement {
			m := NewSale("u", from, to, mat, types.MustMoney("1"), q)
			m.Price = decimal.NullDecimal{}
			return m
		}, apperror.CodeInvalidDocument},
		{"unknown type", func() *Movement {
			m := NewTransfer("u", from, to, mat, q)
			m.AccountingType = "Возврат"
			return m
		}, apperror.CodeInvalidDocument},
		{"no author", func() *Movement { return NewTransfer("", from, to, mat, q) }, apperror.CodeInvalidDocument},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.m().Validate(ctx)
			if tt.code == "" {
				assert.NoError(t, err)
				return
			}
			assert.True(t, apperror.HasCode(err, tt.code), "got %v", err)
		})
	}
}

func TestValidateStructure_AllowsLegacyWriteOffWithDestination(t *testing.T) {
	to := id.New()
	m := NewWriteOff("u", id.New(), id.New(), types.Quantities{Pieces: types.Qty("1")})
	m.ToLocationID = &to

	assert.NoError(t, m.ValidateStructure())
	assert.False(t, m.CreditsDestination())
}

func TestString(t *testing.T) {
	m := NewSale("u", id.New(), id.New(), id.New(), types.MustMoney("1"), types.Quantities{Pieces: types.Qty("1")})
	m.Number = "ДМ-2026-00012"
	m.Date = time.Date(2026, 4, 2, 10, 0, 0, 0, time.UTC)

	assert.Equal(t, "Реализация №ДМ-2026-00012 от 02.04.2026", m.String())
}

func TestParseAccountingType(t *testing.T) {
	at, err := ParseAccountingType("Списание")
	assert.NoError(t, err)
	assert.Equal(t, WriteOff, at)
	assert.False(t, at.RequiresDestination())

	_, err = ParseAccountingType("Sale")
	assert.Error(t, err)
}
