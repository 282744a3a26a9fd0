// Command seed fills a database with a demo catalog: warehouses with
// locations, active customers, products and stocked placements. Stock is
// booked through the ledger so every placement has a matching INBOUND
// transaction and the product quantities reconcile.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	inventoryapp "github.com/wims/backend/internal/application/inventory"
	"github.com/wims/backend/internal/domain/catalog"
	"github.com/wims/backend/internal/domain/partner"
	"github.com/wims/backend/internal/infrastructure/config"
	"github.com/wims/backend/internal/infrastructure/lock"
	"github.com/wims/backend/internal/infrastructure/logger"
	"github.com/wims/backend/internal/infrastructure/persistence"
)

type seedOptions struct {
	warehouses         int
	locationsPerSite   int
	products           int
	customers          int
	placementsPerItem  int
	maxInitialQuantity int
	seed               uint64
}

func main() {
	var opts seedOptions
	var seed int64
	flag.IntVar(&opts.warehouses, "warehouses", 2, "Number of warehouses")
	flag.IntVar(&opts.locationsPerSite, "locations", 4, "Locations per warehouse")
	flag.IntVar(&opts.products, "products", 25, "Number of products")
	flag.IntVar(&opts.customers, "customers", 10, "Number of customers")
	flag.IntVar(&opts.placementsPerItem, "placements", 2, "Placements per product")
	flag.IntVar(&opts.maxInitialQuantity, "max-quantity", 200, "Upper bound of the initial quantity per placement")
	flag.Int64Var(&seed, "seed", 0, "Random seed (0 picks one)")
	flag.Parse()
	opts.seed = uint64(seed)

	log, err := logger.New(&logger.Config{Level: "info", Format: "console", Output: "stdout"})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	if err := run(context.Background(), opts, log); err != nil {
		log.Fatal("Seeding failed", zap.Error(err))
	}
}

func run(ctx context.Context, opts seedOptions, log *zap.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	db, err := persistence.NewDatabase(&cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	if cfg.Database.Driver == config.DriverSQLite {
		if err := db.AutoMigrate(ctx); err != nil {
			return err
		}
	}

	productRepo := persistence.NewGormProductRepository(db.DB)
	warehouseRepo := persistence.NewGormWarehouseRepository(db.DB)
	locationRepo := persistence.NewGormLocationRepository(db.DB)
	customerRepo := persistence.NewGormCustomerRepository(db.DB)
	placementRepo := persistence.NewGormPlacementRepository(db.DB)
	transactionRepo := persistence.NewGormStockTransactionRepository(db.DB)

	ledgerService := inventoryapp.NewLedgerService(
		placementRepo,
		transactionRepo,
		inventoryapp.NewReferenceChecker(productRepo, warehouseRepo, locationRepo),
		persistence.NewGormTransactionScope(db.DB, lock.NewKeyedMutex(cfg.StockLock.WaitTimeout), cfg.Database.LockTimeout),
		inventoryapp.NewLedger(inventoryapp.NewQuantityProjection()),
		log,
	)

	faker := gofakeit.New(opts.seed)

	var locations []*catalog.WarehouseLocation
	storageTypes := []catalog.LocationStorageType{catalog.LocationShelf, catalog.LocationRack, catalog.LocationColdStorage}
	capacities := []catalog.CapacityClass{catalog.CapacitySmall, catalog.CapacityMedium, catalog.CapacityLarge}
	for i := 0; i < opts.warehouses; i++ {
		addr := faker.Address()
		wh, err := catalog.NewWarehouse(faker.City()+" DC", fmt.Sprintf("%s, %s %s", addr.Street, addr.City, addr.Zip))
		if err != nil {
			return err
		}
		if err := warehouseRepo.Save(ctx, wh); err != nil {
			return fmt.Errorf("save warehouse: %w", err)
		}
		for j := 0; j < opts.locationsPerSite; j++ {
			loc, err := catalog.NewWarehouseLocation(wh.ID,
				fmt.Sprintf("%c-%02d", 'A'+j%26, j+1),
				storageTypes[faker.IntN(len(storageTypes))],
				capacities[faker.IntN(len(capacities))],
				faker.IntRange(50, 5000),
			)
			if err != nil {
				return err
			}
			if err := locationRepo.Save(ctx, loc); err != nil {
				return fmt.Errorf("save location: %w", err)
			}
			locations = append(locations, loc)
		}
	}
	log.Info("Seeded warehouses", zap.Int("warehouses", opts.warehouses), zap.Int("locations", len(locations)))

	for i := 0; i < opts.customers; i++ {
		c, err := partner.NewCustomer(faker.Name(), faker.Email(), faker.Phone())
		if err != nil {
			return err
		}
		if err := customerRepo.Save(ctx, c); err != nil {
			return fmt.Errorf("save customer: %w", err)
		}
	}
	log.Info("Seeded customers", zap.Int("customers", opts.customers))

	if len(locations) == 0 {
		return nil
	}

	unitTypes := []catalog.UnitType{catalog.UnitTypeSingle, catalog.UnitTypeCase, catalog.UnitTypeBox}
	placements := 0
	for i := 0; i < opts.products; i++ {
		p, err := catalog.NewProduct(
			fmt.Sprintf("SKU-%06d", i+1),
			faker.Numerify("#############"),
			faker.ProductName(),
			unitTypes[faker.IntN(len(unitTypes))],
			decimal.NewFromFloat(faker.Price(1, 500)).Round(2),
			decimal.NewFromFloat(faker.Float64Range(0.1, 25)).Round(3),
		)
		if err != nil {
			return err
		}
		if err := productRepo.Save(ctx, p); err != nil {
			return fmt.Errorf("save product: %w", err)
		}

		for j := 0; j < opts.placementsPerItem; j++ {
			loc := locations[faker.IntN(len(locations))]
			req := inventoryapp.CreatePlacementRequest{
				ProductID:   p.ID,
				WarehouseID: loc.WarehouseID,
				LocationID:  loc.ID,
				BatchNumber: fmt.Sprintf("B%s-%02d", time.Now().Format("0601"), j+1),
				Quantity:    int64(faker.IntRange(0, opts.maxInitialQuantity)),
				Category:    faker.ProductCategory(),
				Reference:   "seed",
			}
			if faker.Bool() {
				expiry := time.Now().AddDate(0, faker.IntRange(1, 18), 0).Truncate(24 * time.Hour)
				req.ExpiryDate = &expiry
			}
			if _, err := ledgerService.CreatePlacement(ctx, req); err != nil {
				// the same product can land on a location twice; skip the duplicate
				log.Debug("Skipping placement", zap.String("sku", p.SKU), zap.Error(err))
				continue
			}
			placements++
		}
	}
	log.Info("Seeded products", zap.Int("products", opts.products), zap.Int("placements", placements))
	return nil
}
