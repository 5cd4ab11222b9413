package postgres

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"forestledger/internal/core/entity"
	"forestledger/internal/core/id"
)

type testDocument struct {
	entity.Document
	MaterialID id.ID  `db:"material_id"`
	Note       string `db:"-"`
}

func TestExtractDBColumns_FlattensEmbedded(t *testing.T) {
	cols := ExtractDBColumns[testDocument]()

	assert.Equal(t, []string{
		"id", "version", "created_at", "updated_at",
		"number", "date_time", "is_completed", "completed_at", "author",
		"material_id",
	}, cols)
}

func TestStructToMap_Document(t *testing.T) {
	doc := testDocument{
		Document:   entity.NewDocument("ivanov"),
		MaterialID: id.New(),
		Note:       "skipped",
	}
	doc.Number = "ДМ-2026-00001"
	doc.MarkCompleted(time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC))

	m := StructToMap(&doc)

	require.NotNil(t, m)
	assert.Equal(t, doc.ID, m["id"])
	assert.Equal(t, 2, m["version"])
	assert.Equal(t, "ДМ-2026-00001", m["number"])
	assert.Equal(t, true, m["is_completed"])
	assert.Equal(t, doc.CompletedAt, m["completed_at"])
	assert.Equal(t, "ivanov", m["author"])
	assert.Equal(t, doc.MaterialID, m["material_id"])
	assert.NotContains(t, m, "-")
	assert.Len(t, m, 10)
}

func TestColumnsAndValues_KeepsOrder(t *testing.T) {
	cat := entity.NewCatalog("Склад №1")

	cols, vals := ColumnsAndValues(cat)

	assert.Equal(t, []string{"id", "version", "name"}, cols)
	assert.Equal(t, []any{cat.ID, 1, "Склад №1"}, vals)
}

func TestStructToMap_NonStruct(t *testing.T) {
	assert.Nil(t, StructToMap(42))
}
