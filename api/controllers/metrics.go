package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/davidcarrillo/adfactura-backend/api/responses"
	"github.com/davidcarrillo/adfactura-backend/internal/dashboard"
	"github.com/davidcarrillo/adfactura-backend/pkg/logger"
)

// DashboardService computes the admin metrics snapshot.
type DashboardService interface {
	Metrics(ctx context.Context) (*dashboard.AdminMetrics, error)
}

// AdminMetricsResponse is the dashboard snapshot on the wire.
type AdminMetricsResponse struct {
	PendingByStage     []dashboard.StageCount `json:"pendingByStage"`
	TotalPending       int64                  `json:"totalPending"`
	Failed             int64                  `json:"failed"`
	CompletedThisMonth int64                  `json:"completedThisMonth"`
	TotalRevenue       string                 `json:"totalRevenue"`
	GeneratedAt        time.Time              `json:"generatedAt"`
}

func AdminMetrics(service DashboardService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		metrics, err := service.Metrics(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, AdminMetricsResponse{
			PendingByStage:     metrics.PendingByStage,
			TotalPending:       metrics.TotalPending,
			Failed:             metrics.Failed,
			CompletedThisMonth: metrics.CompletedThisMonth,
			TotalRevenue:       metrics.TotalRevenue.String(),
			GeneratedAt:        metrics.GeneratedAt,
		})
	}
}
