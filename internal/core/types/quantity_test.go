package types

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestQuantities_RequestedUnits(t *testing.T) {
	tests := []struct {
		name string
		q    Quantities
		want []Unit
	}{
		{"none", Quantities{}, nil},
		{"zero pieces is not requested", Quantities{Pieces: Qty("0")}, nil},
		{"pieces only", Quantities{Pieces: Qty("20")}, []Unit{UnitPieces}},
		{"meters and cubic", Quantities{Meters: Qty("1.5"), Cubic: Qty("0.250")}, []Unit{UnitMeters, UnitCubic}},
		{"all", Quantities{Pieces: Qty("1"), Meters: Qty("2"), Cubic: Qty("3")}, []Unit{UnitPieces, UnitMeters, UnitCubic}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.q.RequestedUnits())
			assert.Equal(t, len(tt.want) == 0, tt.q.IsEmpty())
		})
	}
}

func TestQuantities_HasNegative(t *testing.T) {
	u, neg := Quantities{Pieces: Qty("1"), Cubic: Qty("-0.1")}.HasNegative()
	assert.True(t, neg)
	assert.Equal(t, UnitCubic, u)

	_, neg = Quantities{Meters: Qty("0")}.HasNegative()
	assert.False(t, neg)
}

func TestDisplay(t *testing.T) {
	assert.Equal(t, "0", Quantities{}.Display())
	assert.Equal(t, "20 шт, 3.5 м³", Quantities{Pieces: Qty("20"), Cubic: Qty("3.5")}.Display())
	assert.Equal(t, "10 м.п.", Display(decimal.Zero, decimal.NewFromInt(10), decimal.Zero))
}

func TestUnitNames(t *testing.T) {
	assert.Equal(t, "pieces", UnitPieces.String())
	assert.Equal(t, "meters", UnitMeters.String())
	assert.Equal(t, "cubic", UnitCubic.String())
	assert.Equal(t, "unknown", Unit(9).String())
}
