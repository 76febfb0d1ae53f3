// Package scheduler runs periodic background jobs.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"cafe-inventory/internal/metrics"
	"cafe-inventory/internal/model"
	"cafe-inventory/internal/service"
	"cafe-inventory/internal/ws"

	"github.com/go-co-op/gocron"
)

// LowStockScanner refreshes the low-stock gauge and tells connected clients
// which products are under the threshold.
type LowStockScanner struct {
	dashboard service.DashboardService
	publisher service.Publisher
}

func NewLowStockScanner(dashboard service.DashboardService, publisher service.Publisher) *LowStockScanner {
	return &LowStockScanner{dashboard: dashboard, publisher: publisher}
}

// Scan runs one pass. It returns the products found under the threshold.
func (s *LowStockScanner) Scan(ctx context.Context) ([]model.Product, error) {
	low, err := s.dashboard.LowStockProducts(ctx)
	if err != nil {
		return nil, err
	}

	metrics.LowStockProducts.Set(float64(len(low)))
	if len(low) == 0 {
		return low, nil
	}

	s.publisher.Publish(ws.Event{
		Type:    ws.TypeLowStock,
		Data:    low,
		Message: fmt.Sprintf("%d products below %d units", len(low), model.LowStockThreshold),
	})
	return low, nil
}

// Start schedules Scan every interval and returns the running scheduler.
func Start(scanner *LowStockScanner, interval time.Duration) (*gocron.Scheduler, error) {
	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()

	_, err := s.Every(interval).Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		low, err := scanner.Scan(ctx)
		if err != nil {
			slog.Error("low stock scan failed", "error", err)
			return
		}
		slog.Debug("low stock scan", "products", len(low))
	})
	if err != nil {
		return nil, fmt.Errorf("schedule low stock scan: %w", err)
	}

	s.StartAsync()
	return s, nil
}
