package postgres

import (
	"context"
	"fmt"

	"forestledger/pkg/logger"
)

// schema is applied in order inside one transaction. Every statement is idempotent.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS cat_materials (
		id            UUID PRIMARY KEY,
		version       INT  NOT NULL DEFAULT 1,
		name          TEXT NOT NULL,
		material_type TEXT NOT NULL CHECK (material_type IN ('древесина', 'ГСМ', 'запчасти'))
	)`,
	`CREATE TABLE IF NOT EXISTS cat_warehouses (
		id      UUID PRIMARY KEY,
		version INT  NOT NULL DEFAULT 1,
		name    TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS cat_vehicles (
		id            UUID PRIMARY KEY,
		version       INT  NOT NULL DEFAULT 1,
		brand         TEXT NOT NULL,
		model         TEXT NOT NULL,
		license_plate TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS cat_counterparties (
		id      UUID PRIMARY KEY,
		version INT  NOT NULL DEFAULT 1,
		name    TEXT NOT NULL,
		inn     TEXT NOT NULL DEFAULT '',
		ogrn    TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS cat_brigades (
		id      UUID PRIMARY KEY,
		version INT  NOT NULL DEFAULT 1,
		name    TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS inv_storage_locations (
		id          UUID PRIMARY KEY,
		version     INT  NOT NULL DEFAULT 1,
		source_type TEXT NOT NULL CHECK (source_type IN ('склад', 'автомобиль', 'контрагент', 'бригады')),
		source_id   UUID NOT NULL,
		CONSTRAINT inv_storage_locations_source_key UNIQUE (source_type, source_id)
	)`,
	`CREATE TABLE IF NOT EXISTS inv_material_balances (
		storage_location_id UUID          NOT NULL REFERENCES inv_storage_locations (id),
		material_id         UUID          NOT NULL REFERENCES cat_materials (id),
		quantity_pieces     NUMERIC(12,3) NOT NULL DEFAULT 0 CHECK (quantity_pieces >= 0),
		quantity_meters     NUMERIC(12,3) NOT NULL DEFAULT 0 CHECK (quantity_meters >= 0),
		quantity_cubic      NUMERIC(12,3) NOT NULL DEFAULT 0 CHECK (quantity_cubic >= 0),
		last_updated        TIMESTAMPTZ   NOT NULL DEFAULT NOW(),
		PRIMARY KEY (storage_location_id, material_id)
	)`,
	`CREATE INDEX IF NOT EXISTS inv_material_balances_material_idx ON inv_material_balances (material_id)`,
	`CREATE TABLE IF NOT EXISTS inv_material_movements (
		id               UUID          PRIMARY KEY,
		version          INT           NOT NULL DEFAULT 1,
		created_at       TIMESTAMPTZ   NOT NULL,
		updated_at       TIMESTAMPTZ   NOT NULL,
		number           TEXT          NOT NULL UNIQUE,
		date_time        TIMESTAMPTZ   NOT NULL,
		is_completed     BOOLEAN       NOT NULL DEFAULT FALSE,
		completed_at     TIMESTAMPTZ,
		author           TEXT          NOT NULL,
		accounting_type  TEXT          NOT NULL CHECK (accounting_type IN ('Перемещение', 'Реализация', 'Списание')),
		employee_id      UUID,
		vehicle_id       UUID REFERENCES cat_vehicles (id),
		from_location_id UUID          NOT NULL REFERENCES inv_storage_locations (id),
		to_location_id   UUID REFERENCES inv_storage_locations (id),
		material_id      UUID          NOT NULL REFERENCES cat_materials (id),
		quantity_pieces  NUMERIC(12,3) CHECK (quantity_pieces >= 0),
		quantity_meters  NUMERIC(12,3) CHECK (quantity_meters >= 0),
		quantity_cubic   NUMERIC(12,3) CHECK (quantity_cubic >= 0),
		price            NUMERIC(12,2) CHECK (price >= 0),
		total_amount     NUMERIC(15,2) NOT NULL DEFAULT 0
	)`,
	`CREATE INDEX IF NOT EXISTS inv_material_movements_pending_idx
		ON inv_material_movements (date_time) WHERE NOT is_completed`,
	`CREATE INDEX IF NOT EXISTS inv_material_movements_completed_idx
		ON inv_material_movements (completed_at DESC) WHERE is_completed`,
	`CREATE TABLE IF NOT EXISTS sys_sequences (
		key         TEXT   PRIMARY KEY,
		current_val BIGINT NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS sys_outbox (
		id             UUID        PRIMARY KEY,
		aggregate_type TEXT        NOT NULL,
		aggregate_id   UUID        NOT NULL,
		event_type     TEXT        NOT NULL,
		payload        JSONB       NOT NULL,
		status         TEXT        NOT NULL DEFAULT 'pending',
		retry_count    INT         NOT NULL DEFAULT 0,
		last_error     TEXT,
		next_retry_at  TIMESTAMPTZ,
		created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		published_at   TIMESTAMPTZ
	)`,
	`CREATE INDEX IF NOT EXISTS sys_outbox_pending_idx ON sys_outbox (created_at) WHERE status = 'pending'`,
	`CREATE TABLE IF NOT EXISTS sys_outbox_dlq (
		id             UUID        PRIMARY KEY,
		aggregate_type TEXT        NOT NULL,
		aggregate_id   UUID        NOT NULL,
		event_type     TEXT        NOT NULL,
		payload        JSONB       NOT NULL,
		status         TEXT        NOT NULL,
		retry_count    INT         NOT NULL,
		last_error     TEXT,
		next_retry_at  TIMESTAMPTZ,
		created_at     TIMESTAMPTZ NOT NULL,
		published_at   TIMESTAMPTZ,
		failed_at      TIMESTAMPTZ NOT NULL,
		failure_reason TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS sys_audit (
		id                 UUID        PRIMARY KEY,
		entity_type        TEXT        NOT NULL,
		entity_id          UUID        NOT NULL,
		action             TEXT        NOT NULL,
		user_id            TEXT        NOT NULL DEFAULT '',
		user_name          TEXT        NOT NULL DEFAULT '',
		changes            JSONB,
		changes_compressed BYTEA,
		compression_algo   TEXT        NOT NULL DEFAULT 'none',
		created_at         TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS sys_audit_entity_idx ON sys_audit (entity_type, entity_id, created_at DESC)`,
}

// Schema returns the DDL statements in apply order.
func Schema() []string {
	out := make([]string, len(schema))
	copy(out, schema)
	return out
}

// Migrate creates the ledger tables when they do not exist.
func Migrate(ctx context.Context, txManager *TxManager) error {
	exec := NewBatchExecutor(txManager)

	queries := make([]BatchQuery, len(schema))
	for i, stmt := range schema {
		queries[i] = BatchQuery{SQL: stmt}
	}

	err := txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return exec.ExecuteBatch(ctx, queries)
	})
	if err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}

	logger.Info(ctx, "schema applied", "statements", len(queries))
	return nil
}
