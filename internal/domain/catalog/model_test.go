package catalog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"forestledger/internal/core/apperror"
)

func TestMaterial_Validate(t *testing.T) {
	ctx := context.Background()

	assert.NoError(t, NewMaterial(MaterialWood, "Сосна пиловочник").Validate(ctx))

	err := NewMaterial("бензопила", "Штиль").Validate(ctx)
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))

	err = NewMaterial(MaterialFuel, "").Validate(ctx)
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
}

func TestMaterial_String(t *testing.T) {
	assert.Equal(t, "Древесина - Берёза", NewMaterial(MaterialWood, "Берёза").String())
	assert.Equal(t, "Запчасти - Фильтр", NewMaterial(MaterialSpareParts, "Фильтр").String())
}

func TestVehicle_Title(t *testing.T) {
	v := &Vehicle{Brand: "КамАЗ", Model: "65115", LicensePlate: "А123ВС"}
	assert.Equal(t, "КамАЗ 65115 (А123ВС)", v.Title())
}
