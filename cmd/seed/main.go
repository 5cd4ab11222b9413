// Package main provides a CLI tool for seeding the database with demo reference data,
// storage locations and opening balances.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"forestledger/internal/app"
	"forestledger/internal/config"
	appctx "forestledger/internal/core/context"
	"forestledger/internal/core/entity"
	"forestledger/internal/core/id"
	"forestledger/internal/core/types"
	"forestledger/internal/domain/catalog"
	"forestledger/internal/domain/location"
	"forestledger/internal/domain/movement"
	"forestledger/internal/infrastructure/storage/postgres"
	"forestledger/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:       cfg.LogLevel,
		Service:     "forestledger-seed",
		Development: true,
	})
	if err != nil {
		fmt.Printf("failed to create logger: %v\n", err)
		os.Exit(1)
	}

	ctx := logger.WithLogger(context.Background(), log)
	ctx = appctx.WithActor(ctx, &appctx.Actor{UserID: "seed", UserName: "Система"})

	l, err := app.New(ctx, cfg)
	if err != nil {
		log.Fatalw("failed to connect", "error", err)
	}
	defer l.Close()

	if err := l.Migrate(ctx); err != nil {
		log.Fatalw("failed to migrate", "error", err)
	}

	existing, err := l.Catalogs.ListMaterials(ctx)
	if err != nil {
		log.Fatalw("failed to read materials", "error", err)
	}
	if len(existing) > 0 {
		log.Infow("demo data already present, skipping", "materials", len(existing))
		return
	}

	if os.Getenv("SEED_DEMO_DATA") == "false" {
		log.Info("schema ready, demo data disabled")
		return
	}

	demo, err := seedDemoData(ctx, l)
	if err != nil {
		log.Fatalw("failed to seed demo data", "error", err)
	}

	if err := runDemoTransfer(ctx, l, demo); err != nil {
		log.Fatalw("failed to run demo transfer", "error", err)
	}

	low, err := l.Balances.LowStock(ctx, cfg.Ledger.LowStockThreshold, "")
	if err != nil {
		log.Fatalw("failed to check low stock", "error", err)
	}
	for _, b := range low {
		log.Warnw("low stock", "location_id", b.LocationID, "material_id", b.MaterialID, "balance", b.Display())
	}

	log.Info("seeding completed successfully")
}

type demoData struct {
	pine      *catalog.Material
	diesel    *catalog.Material
	warehouse id.ID // storage location of the main warehouse
	truck     id.ID // storage location of the timber truck
	brigade   id.ID
	buyer     id.ID
}

func seedDemoData(ctx context.Context, l *app.Ledger) (*demoData, error) {
	d := &demoData{
		pine:   catalog.NewMaterial(catalog.MaterialWood, "Сосна пиловочник"),
		diesel: catalog.NewMaterial(catalog.MaterialFuel, "Дизельное топливо"),
	}
	chain := catalog.NewMaterial(catalog.MaterialSpareParts, "Цепь для харвестера")

	warehouse := &catalog.Warehouse{Catalog: entity.NewCatalog("Центральный склад")}
	truck := &catalog.Vehicle{BaseEntity: entity.NewBaseEntity(), Brand: "МАЗ", Model: "6312", LicensePlate: "А123ВС 29"}
	brigade := &catalog.Brigade{Catalog: entity.NewCatalog("Бригада Иванова")}
	buyer := &catalog.Counterparty{Catalog: entity.NewCatalog("ООО Лесоторг"), INN: "2901000000", OGRN: "1022900000000"}

	err := l.TxManager.RunInTransaction(ctx, func(ctx context.Context) error {
		for _, m := range []*catalog.Material{d.pine, d.diesel, chain} {
			if err := l.Catalogs.Materials.Create(ctx, m); err != nil {
				return err
			}
		}
		if err := l.Catalogs.Warehouses.Create(ctx, warehouse); err != nil {
			return err
		}
		if err := l.Catalogs.Vehicles.Create(ctx, truck); err != nil {
			return err
		}
		if err := l.Catalogs.Brigades.Create(ctx, brigade); err != nil {
			return err
		}
		if err := l.Catalogs.Counterparties.Create(ctx, buyer); err != nil {
			return err
		}

		for _, reg := range []struct {
			kind   location.Kind
			source id.ID
			target *id.ID
		}{
			{location.KindWarehouse, warehouse.ID, &d.warehouse},
			{location.KindVehicle, truck.ID, &d.truck},
			{location.KindBrigade, brigade.ID, &d.brigade},
			{location.KindCounterparty, buyer.ID, &d.buyer},
		} {
			loc, _, err := l.Locations.Register(ctx, reg.kind, reg.source)
			if err != nil {
				return err
			}
			*reg.target = loc.ID
		}

		return loadOpeningBalances(ctx, l, d, chain)
	})
	if err != nil {
		return nil, err
	}
	return d, nil
}

// loadOpeningBalances bulk-loads the starting stock with COPY.
func loadOpeningBalances(ctx context.Context, l *app.Ledger, d *demoData, chain *catalog.Material) error {
	now := time.Now().UTC()
	opening := []struct {
		location, material id.ID
		q                  types.Quantities
	}{
		{d.warehouse, d.pine.ID, types.Quantities{Pieces: types.Qty("120"), Meters: types.Qty("720"), Cubic: types.Qty("38.5")}},
		{d.warehouse, d.diesel.ID, types.Quantities{Cubic: types.Qty("2.4")}},
		{d.warehouse, chain.ID, types.Quantities{Pieces: types.Qty("15")}},
		{d.brigade, d.diesel.ID, types.Quantities{Cubic: types.Qty("0.3")}},
	}

	rows := make([][]any, 0, len(opening))
	for _, o := range opening {
		rows = append(rows, []any{
			o.location, o.material,
			postgres.Numeric(o.q.Pieces.Decimal),
			postgres.Numeric(o.q.Meters.Decimal),
			postgres.Numeric(o.q.Cubic.Decimal),
			now,
		})
	}

	n, err := l.Inserter.CopyFromSlice(ctx, "inv_material_balances", []string{
		"storage_location_id", "material_id", "quantity_pieces", "quantity_meters", "quantity_cubic", "last_updated",
	}, rows)
	if err != nil {
		return err
	}

	logger.Info(ctx, "opening balances loaded", "rows", n)
	return nil
}

// runDemoTransfer moves timber onto the truck and executes it through the processor.
func runDemoTransfer(ctx context.Context, l *app.Ledger, d *demoData) error {
	m := movement.NewTransfer("", d.warehouse, d.truck, d.pine.ID, types.Quantities{
		Pieces: types.Qty("20"),
		Cubic:  types.Qty("6.4"),
	})
	if err := l.Movements.Create(ctx, m); err != nil {
		return err
	}

	res, err := l.Processor.Execute(ctx, m.ID)
	if err != nil {
		return err
	}

	from, err := l.Locations.NameOf(ctx, d.warehouse)
	if err != nil {
		return err
	}
	to, err := l.Locations.NameOf(ctx, d.truck)
	if err != nil {
		return err
	}

	logger.Info(ctx, "demo transfer executed",
		"movement", res.Movement.String(),
		"from", from,
		"to", to,
		"source_balance", res.Source.Display(),
		"destination_balance", res.Destination.Display())
	return nil
}
