package service

import (
	"context"
	"database/sql"
	"time"

	"cafe-inventory/internal/model"
	"cafe-inventory/internal/repository"
	"cafe-inventory/internal/ws"

	"gorm.io/gorm"
)

type DashboardService interface {
	GetDashboard(ctx context.Context) (*Dashboard, error)
	GetStockMovement(ctx context.Context, days int) ([]StockMovementData, error)
	LowStockProducts(ctx context.Context) ([]model.Product, error)
}

type dashboardService struct {
	db          *gorm.DB
	productRepo repository.ProductRepository
	txRepo      repository.TransactionRepository
	cache       DashboardCache
	now         func() time.Time
}

func NewDashboardService(db *gorm.DB, productRepo repository.ProductRepository, txRepo repository.TransactionRepository, cache DashboardCache) DashboardService {
	if cache == nil {
		cache = noopCache{}
	}
	return &dashboardService{
		db:          db,
		productRepo: productRepo,
		txRepo:      txRepo,
		cache:       cache,
		now:         time.Now,
	}
}

// GetDashboard serves the cached dashboard or recomputes it from the current catalog and ledger.
func (s *dashboardService) GetDashboard(ctx context.Context) (*Dashboard, error) {
	if cached, ok := s.cache.Get(ctx); ok {
		return cached, nil
	}

	// 1. Remember the cache generation before reading
	generation := s.cache.Generation(ctx)

	// 2. Read catalog and ledger from one snapshot
	var (
		products     []model.Product
		transactions []model.StockTransaction
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if products, err = s.productRepo.WithTx(tx).FindAll(ctx); err != nil {
			return err
		}
		transactions, err = s.txRepo.WithTx(tx).FindAll(ctx)
		return err
	}, s.snapshotOptions())
	if err != nil {
		return nil, storageErr("load dashboard snapshot", err)
	}

	// 3. Cache only if no mutation was committed meanwhile
	dashboard := BuildDashboard(products, transactions, s.now())
	s.cache.Set(ctx, generation, dashboard)
	return dashboard, nil
}

// snapshotOptions asks postgres for a single read snapshot across statements.
// SQLite runs on one connection, so an open transaction already excludes writers.
func (s *dashboardService) snapshotOptions() *sql.TxOptions {
	if s.db.Dialector.Name() != "postgres" {
		return nil
	}
	return &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true}
}

func (s *dashboardService) GetStockMovement(ctx context.Context, days int) ([]StockMovementData, error) {
	transactions, err := s.txRepo.FindAll(ctx)
	if err != nil {
		return nil, storageErr("load transactions", err)
	}

	now := s.now().UTC()
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, -(days - 1))
	return StockMovement(transactions, start), nil
}

func (s *dashboardService) LowStockProducts(ctx context.Context) ([]model.Product, error) {
	products, err := s.productRepo.FindAll(ctx)
	if err != nil {
		return nil, storageErr("load products", err)
	}
	return LowStockProducts(products), nil
}

type noopCache struct{}

func (noopCache) Get(context.Context) (*Dashboard, bool) { return nil, false }
func (noopCache) Generation(context.Context) int64       { return -1 }
func (noopCache) Set(context.Context, int64, *Dashboard) {}
func (noopCache) Invalidate(context.Context)             {}

type noopPublisher struct{}

func (noopPublisher) Publish(ws.Event) {}
