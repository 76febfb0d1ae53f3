package service

import (
	"context"

	"cafe-inventory/internal/ws"
)

//go:generate mockgen -source=events.go -destination=events_mock.go -package=service

// Publisher fans change events out to connected clients.
type Publisher interface {
	Publish(event ws.Event)
}

// DashboardCache stores the rendered dashboard between mutations.
//
// Every Invalidate bumps a generation counter. Set stores the dashboard only
// while the generation still equals the one read before the snapshot was
// taken, so a dashboard computed before a mutation never outlives it. A
// negative generation means the cache is unusable and Set is skipped.
type DashboardCache interface {
	Get(ctx context.Context) (*Dashboard, bool)
	Generation(ctx context.Context) int64
	Set(ctx context.Context, generation int64, dashboard *Dashboard)
	Invalidate(ctx context.Context)
}
