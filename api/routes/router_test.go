package routes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/davidcarrillo/adfactura-backend/internal/dashboard"
	"github.com/davidcarrillo/adfactura-backend/internal/requests"
	"github.com/davidcarrillo/adfactura-backend/pkg/config"
	"github.com/davidcarrillo/adfactura-backend/pkg/db/models"
	"github.com/davidcarrillo/adfactura-backend/pkg/enums"
	"github.com/davidcarrillo/adfactura-backend/pkg/pagination"
)

type stubLifecycle struct{}

func (stubLifecycle) Create(context.Context, requests.CreateParams) (*models.RechargeRequest, error) {
	return &models.RechargeRequest{ID: uuid.New(), Status: enums.BillingStatusRequestCreated}, nil
}

func (stubLifecycle) Get(context.Context, uuid.UUID, uuid.UUID) (*models.RechargeRequest, error) {
	return &models.RechargeRequest{ID: uuid.New()}, nil
}

func (stubLifecycle) ListByCompany(context.Context, requests.ListByCompanyQuery) ([]models.RechargeRequest, *pagination.Cursor, error) {
	return nil, nil, nil
}

func (stubLifecycle) ListByStatus(context.Context, requests.ListByStatusQuery) ([]models.RechargeRequest, *pagination.Cursor, error) {
	return nil, nil, nil
}

func (stubLifecycle) Approve(context.Context, uuid.UUID, uuid.UUID) (*models.RechargeRequest, error) {
	return &models.RechargeRequest{ID: uuid.New()}, nil
}

func (stubLifecycle) Calculate(context.Context, requests.CalculateParams) (*models.RechargeRequest, error) {
	return &models.RechargeRequest{ID: uuid.New()}, nil
}

func (stubLifecycle) EmitInvoice(context.Context, uuid.UUID) (*models.RechargeRequest, error) {
	return &models.RechargeRequest{ID: uuid.New()}, nil
}

func (stubLifecycle) RegisterPayment(context.Context, uuid.UUID, string) (*models.RechargeRequest, error) {
	return &models.RechargeRequest{ID: uuid.New()}, nil
}

func (stubLifecycle) ExecuteRecharge(context.Context, uuid.UUID) (*models.RechargeRequest, error) {
	return &models.RechargeRequest{ID: uuid.New()}, nil
}

func (stubLifecycle) Complete(context.Context, uuid.UUID) (*models.RechargeRequest, error) {
	return &models.RechargeRequest{ID: uuid.New()}, nil
}

func (stubLifecycle) Fail(context.Context, uuid.UUID, string) (*models.RechargeRequest, error) {
	return &models.RechargeRequest{ID: uuid.New()}, nil
}

type stubDashboard struct{}

func (stubDashboard) Metrics(context.Context) (*dashboard.AdminMetrics, error) {
	return &dashboard.AdminMetrics{}, nil
}

type stubCompanies struct{}

func (stubCompanies) ConfirmTaxRegistration(context.Context, uuid.UUID, string) error {
	return nil
}

func (stubCompanies) TaxRegistrationConnected(context.Context, uuid.UUID) (bool, error) {
	return true, nil
}

func newTestRouter() http.Handler {
	return NewRouter(RouterParams{
		Config:    &config.Config{App: config.AppConfig{Env: "dev"}},
		Logger:    nil,
		Requests:  stubLifecycle{},
		Admin:     stubLifecycle{},
		Dashboard: stubDashboard{},
		Companies: stubCompanies{},
	})
}

func TestHealthLiveIsOpen(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestRouter().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
}

func TestCalculatorIsOpenToProspects(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/calculator/billing", strings.NewReader(`{"amount":"100"}`))
	rec := httptest.NewRecorder()
	newTestRouter().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d, body %s", rec.Code, rec.Body.String())
	}
}

func TestClientRoutesRequireClientRoleAndCompany(t *testing.T) {
	router := newTestRouter()

	// No identity headers at all.
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/requests", nil))
	if rec.Code != http.StatusForbidden {
		t.Fatalf("missing role: status %d, want 403", rec.Code)
	}

	// Role without company identity.
	req := httptest.NewRequest(http.MethodGet, "/api/v1/requests", nil)
	req.Header.Set("X-Actor-Role", "client")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("missing company: status %d, want 403", rec.Code)
	}

	// Complete identity.
	req = httptest.NewRequest(http.MethodGet, "/api/v1/requests", nil)
	req.Header.Set("X-Actor-Role", "client")
	req.Header.Set("X-Company-Id", uuid.NewString())
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("full identity: status %d, body %s", rec.Code, rec.Body.String())
	}
}

func TestAdminRoutesRejectClientRole(t *testing.T) {
	router := newTestRouter()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/metrics", nil)
	req.Header.Set("X-Actor-Role", "client")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status %d, want 403", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/admin/metrics", nil)
	req.Header.Set("X-Actor-Role", "admin")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d, body %s", rec.Code, rec.Body.String())
	}
}
