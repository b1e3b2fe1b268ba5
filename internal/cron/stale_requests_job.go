package cron

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"

	"github.com/davidcarrillo/adfactura-backend/pkg/db/models"
	"github.com/davidcarrillo/adfactura-backend/pkg/enums"
	"github.com/davidcarrillo/adfactura-backend/pkg/logger"
	"github.com/davidcarrillo/adfactura-backend/pkg/metrics"
)

const defaultStaleAfter = 72 * time.Hour

type staleRequestReader interface {
	FindStale(ctx context.Context, status enums.BillingStatus, cutoff time.Time) ([]models.RechargeRequest, error)
}

// StaleRequestsJobParams configure the stale request watchdog.
type StaleRequestsJobParams struct {
	Logger  *logger.Logger
	Reader  staleRequestReader
	Metrics *metrics.WatchdogMetrics
	// StaleAfter is how long a request may dwell in one stage before it
	// counts as stuck.
	StaleAfter time.Duration
}

// NewStaleRequestsJob builds the watchdog that surfaces requests stuck in a
// pipeline stage. The job only observes; operators decide whether a stuck
// request should be failed or pushed forward.
func NewStaleRequestsJob(params StaleRequestsJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Reader == nil {
		return nil, fmt.Errorf("stale request reader required")
	}
	staleAfter := params.StaleAfter
	if staleAfter <= 0 {
		staleAfter = defaultStaleAfter
	}
	return &staleRequestsJob{
		logg:       params.Logger,
		reader:     params.Reader,
		metrics:    params.Metrics,
		staleAfter: staleAfter,
		now:        time.Now,
	}, nil
}

type staleRequestsJob struct {
	logg       *logger.Logger
	reader     staleRequestReader
	metrics    *metrics.WatchdogMetrics
	staleAfter time.Duration
	now        func() time.Time
}

func (j *staleRequestsJob) Name() string { return "stale-requests" }

func (j *staleRequestsJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.staleAfter)

	var errs []error
	for _, status := range enums.PendingBillingStatuses {
		if err := j.sweepStatus(ctx, status, cutoff); err != nil {
			errs = append(errs, err)
		}
	}
	return multierr.Combine(errs...)
}

func (j *staleRequestsJob) sweepStatus(ctx context.Context, status enums.BillingStatus, cutoff time.Time) error {
	stale, err := j.reader.FindStale(ctx, status, cutoff)
	if err != nil {
		return fmt.Errorf("query stale requests in %s: %w", status, err)
	}
	j.metrics.SetStale(status.String(), len(stale))

	if len(stale) == 0 {
		return nil
	}
	for _, request := range stale {
		logCtx := j.logg.WithFields(ctx, map[string]any{
			"request_id": request.ID,
			"company_id": request.CompanyID,
			"status":     request.Status,
			"dwell":      j.now().UTC().Sub(request.UpdatedAt).String(),
		})
		j.logg.Warn(logCtx, "request stuck past stale threshold")
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{"status": status, "count": len(stale)})
	j.logg.Info(logCtx, "stale request sweep complete")
	return nil
}
