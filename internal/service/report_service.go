package service

import (
	"context"
	"log/slog"

	"github.com/egannguyen/printshop-backend/internal/entity"
	"github.com/egannguyen/printshop-backend/internal/repository"
)

// TopServicesLimit is the length of the popularity ranking.
const TopServicesLimit = 5

// ReportService serves read-side aggregates over orders and the catalog.
type ReportService struct {
	reports repository.ReportRepository
}

func NewReportService(reports repository.ReportRepository) *ReportService {
	return &ReportService{reports: reports}
}

// Stats returns order totals, per-status counts and the most ordered services.
func (s *ReportService) Stats(ctx context.Context) (*entity.Stats, error) {
	total, err := s.reports.CountOrders(ctx)
	if err != nil {
		return nil, storageErr("count orders", err)
	}
	statuses, err := s.reports.StatusCounts(ctx)
	if err != nil {
		return nil, storageErr("count statuses", err)
	}
	top, err := s.reports.TopServices(ctx, TopServicesLimit)
	if err != nil {
		return nil, storageErr("rank services", err)
	}

	return &entity.Stats{
		TotalOrders:  total,
		StatusCounts: statuses,
		TopServices:  top,
	}, nil
}

// Health reports whether storage answers. It never returns an error: an
// unreachable store yields OK=false.
func (s *ReportService) Health(ctx context.Context) entity.Health {
	if err := s.reports.Ping(ctx); err != nil {
		slog.Error("Health check: storage unreachable", "err", err)
		return entity.Health{}
	}

	services, err := s.reports.CountServices(ctx)
	if err != nil {
		slog.Error("Health check: failed to count services", "err", err)
		return entity.Health{}
	}
	orders, err := s.reports.CountOrders(ctx)
	if err != nil {
		slog.Error("Health check: failed to count orders", "err", err)
		return entity.Health{}
	}

	return entity.Health{OK: true, ServiceCount: services, OrderCount: orders}
}
