package cron

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/davidcarrillo/adfactura-backend/pkg/db/models"
	"github.com/davidcarrillo/adfactura-backend/pkg/enums"
	"github.com/davidcarrillo/adfactura-backend/pkg/logger"
)

type fakeStaleReader struct {
	byStatus map[enums.BillingStatus][]models.RechargeRequest
	queried  []enums.BillingStatus
	err      error
}

func (f *fakeStaleReader) FindStale(_ context.Context, status enums.BillingStatus, _ time.Time) ([]models.RechargeRequest, error) {
	f.queried = append(f.queried, status)
	if f.err != nil {
		return nil, f.err
	}
	return f.byStatus[status], nil
}

func newStaleJob(t *testing.T, reader staleRequestReader) *staleRequestsJob {
	t.Helper()
	jobIface, err := NewStaleRequestsJob(StaleRequestsJobParams{
		Logger: logger.New(logger.Options{ServiceName: "test"}),
		Reader: reader,
	})
	if err != nil {
		t.Fatalf("NewStaleRequestsJob: %v", err)
	}
	job, ok := jobIface.(*staleRequestsJob)
	if !ok {
		t.Fatalf("expected staleRequestsJob, got %T", jobIface)
	}
	return job
}

func TestStaleRequestsJobSweepsEveryPendingStage(t *testing.T) {
	reader := &fakeStaleReader{}
	job := newStaleJob(t, reader)

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(reader.queried) != len(enums.PendingBillingStatuses) {
		t.Fatalf("expected %d sweeps, got %d", len(enums.PendingBillingStatuses), len(reader.queried))
	}
	for i, status := range enums.PendingBillingStatuses {
		if reader.queried[i] != status {
			t.Fatalf("sweep %d queried %s, want %s", i, reader.queried[i], status)
		}
	}
}

func TestStaleRequestsJobUsesConfiguredThreshold(t *testing.T) {
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	var observed time.Time
	reader := readerFunc(func(_ context.Context, _ enums.BillingStatus, cutoff time.Time) ([]models.RechargeRequest, error) {
		observed = cutoff
		return nil, nil
	})

	jobIface, err := NewStaleRequestsJob(StaleRequestsJobParams{
		Logger:     logger.New(logger.Options{ServiceName: "test"}),
		Reader:     reader,
		StaleAfter: 48 * time.Hour,
	})
	if err != nil {
		t.Fatalf("NewStaleRequestsJob: %v", err)
	}
	job := jobIface.(*staleRequestsJob)
	job.now = func() time.Time { return now }

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	want := now.Add(-48 * time.Hour)
	if !observed.Equal(want) {
		t.Fatalf("cutoff %s, want %s", observed, want)
	}
}

func TestStaleRequestsJobCollectsSweepErrors(t *testing.T) {
	reader := &fakeStaleReader{err: fmt.Errorf("connection refused")}
	job := newStaleJob(t, reader)

	err := job.Run(context.Background())
	if err == nil {
		t.Fatal("expected combined sweep errors")
	}
	// Every stage is still attempted despite earlier failures.
	if len(reader.queried) != len(enums.PendingBillingStatuses) {
		t.Fatalf("expected %d sweeps, got %d", len(enums.PendingBillingStatuses), len(reader.queried))
	}
}

func TestStaleRequestsJobLogsStuckRequests(t *testing.T) {
	stuck := models.RechargeRequest{
		ID:        uuid.New(),
		CompanyID: uuid.New(),
		Status:    enums.BillingStatusInvoiced,
		UpdatedAt: time.Now().UTC().Add(-96 * time.Hour),
	}
	reader := &fakeStaleReader{byStatus: map[enums.BillingStatus][]models.RechargeRequest{
		enums.BillingStatusInvoiced: {stuck},
	}}
	job := newStaleJob(t, reader)

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
}

type readerFunc func(ctx context.Context, status enums.BillingStatus, cutoff time.Time) ([]models.RechargeRequest, error)

func (f readerFunc) FindStale(ctx context.Context, status enums.BillingStatus, cutoff time.Time) ([]models.RechargeRequest, error) {
	return f(ctx, status, cutoff)
}
