package dashboard

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/davidcarrillo/adfactura-backend/internal/requests"
	"github.com/davidcarrillo/adfactura-backend/pkg/enums"
	pkgerrors "github.com/davidcarrillo/adfactura-backend/pkg/errors"
)

// StageCount is one pipeline stage with its open request count.
type StageCount struct {
	Status enums.BillingStatus `json:"status"`
	Count  int64               `json:"count"`
}

// AdminMetrics is the operational snapshot behind the admin dashboard. It is
// recomputed from the request table on every read, never stored, so it cannot
// drift from the lifecycle data.
type AdminMetrics struct {
	PendingByStage     []StageCount    `json:"pending_by_stage"`
	TotalPending       int64           `json:"total_pending"`
	Failed             int64           `json:"failed"`
	CompletedThisMonth int64           `json:"completed_this_month"`
	TotalRevenue       decimal.Decimal `json:"total_revenue"`
	GeneratedAt        time.Time       `json:"generated_at"`
}

// Service computes admin dashboard metrics.
type Service struct {
	repo requests.Repository
	now  func() time.Time
}

// NewService wires the dashboard over the request repository.
func NewService(repo requests.Repository) (*Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "requests repository required")
	}
	return &Service{repo: repo, now: time.Now}, nil
}

// Metrics builds the current snapshot. Stages always appear in pipeline
// order, with zero counts for empty stages.
func (s *Service) Metrics(ctx context.Context) (*AdminMetrics, error) {
	counts, err := s.repo.CountByStatus(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count requests by status")
	}

	now := s.now().UTC()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)

	completedThisMonth, err := s.repo.CountCompletedSince(ctx, monthStart)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count monthly completions")
	}

	revenueRaw, err := s.repo.SumCompletedTotals(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sum completed totals")
	}
	revenue, err := decimal.NewFromString(revenueRaw)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "parse revenue total")
	}

	metrics := &AdminMetrics{
		PendingByStage: make([]StageCount, 0, len(enums.PendingBillingStatuses)),
		Failed:         counts[enums.BillingStatusError],

		CompletedThisMonth: completedThisMonth,
		TotalRevenue:       revenue,
		GeneratedAt:        now,
	}
	for _, status := range enums.PendingBillingStatuses {
		count := counts[status]
		metrics.PendingByStage = append(metrics.PendingByStage, StageCount{Status: status, Count: count})
		metrics.TotalPending += count
	}
	return metrics, nil
}
