package controllers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/davidcarrillo/adfactura-backend/api/responses"
	"github.com/davidcarrillo/adfactura-backend/api/validators"
	"github.com/davidcarrillo/adfactura-backend/internal/requests"
	"github.com/davidcarrillo/adfactura-backend/pkg/db/models"
	"github.com/davidcarrillo/adfactura-backend/pkg/enums"
	pkgerrors "github.com/davidcarrillo/adfactura-backend/pkg/errors"
	"github.com/davidcarrillo/adfactura-backend/pkg/logger"
	"github.com/davidcarrillo/adfactura-backend/pkg/pagination"
)

// AdminRequestService is the back-office lifecycle surface.
type AdminRequestService interface {
	Get(ctx context.Context, id uuid.UUID, requesterCompany uuid.UUID) (*models.RechargeRequest, error)
	ListByStatus(ctx context.Context, query requests.ListByStatusQuery) ([]models.RechargeRequest, *pagination.Cursor, error)
	Calculate(ctx context.Context, params requests.CalculateParams) (*models.RechargeRequest, error)
	EmitInvoice(ctx context.Context, id uuid.UUID) (*models.RechargeRequest, error)
	RegisterPayment(ctx context.Context, id uuid.UUID, proofRef string) (*models.RechargeRequest, error)
	ExecuteRecharge(ctx context.Context, id uuid.UUID) (*models.RechargeRequest, error)
	Complete(ctx context.Context, id uuid.UUID) (*models.RechargeRequest, error)
	Fail(ctx context.Context, id uuid.UUID, reason string) (*models.RechargeRequest, error)
}

func AdminListRequests(service AdminRequestService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		status, err := enums.ParseBillingStatus(r.URL.Query().Get("status"))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "unknown billing status").
				WithDetails(map[string]any{"field": "status"}))
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		cursor, err := validators.ParseCursorQuery(r, "cursor")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		rows, next, err := service.ListByStatus(ctx, requests.ListByStatusQuery{
			Status: status,
			Limit:  limit,
			Cursor: cursor,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, toRequestListResponse(rows, next))
	}
}

func AdminGetRequest(service AdminRequestService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		id, err := validators.ParseUUIDParam(chi.URLParam(r, "requestId"), "requestId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		request, err := service.Get(ctx, id, uuid.Nil)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, toRequestResponse(*request))
	}
}

// CalculateRequestBody overrides the engine figures when present. Empty
// fields keep the canonical calculation for the requested amount.
type CalculateRequestBody struct {
	Base       string `json:"base" validate:"omitempty"`
	Commission string `json:"commission" validate:"omitempty"`
	Total      string `json:"total" validate:"omitempty"`
}

func AdminCalculateRequest(service AdminRequestService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		id, err := validators.ParseUUIDParam(chi.URLParam(r, "requestId"), "requestId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var body CalculateRequestBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		params := requests.CalculateParams{ID: id}
		if params.Base, err = parseOptionalDecimal(body.Base, "base"); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if params.Commission, err = parseOptionalDecimal(body.Commission, "commission"); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if params.Total, err = parseOptionalDecimal(body.Total, "total"); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		request, err := service.Calculate(ctx, params)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, toRequestResponse(*request))
	}
}

func AdminEmitInvoice(service AdminRequestService, logg *logger.Logger) http.HandlerFunc {
	return transitionHandler(service.EmitInvoice, logg)
}

type RegisterPaymentBody struct {
	ProofRef string `json:"proofRef" validate:"omitempty,max=512"`
}

func AdminRegisterPayment(service AdminRequestService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		id, err := validators.ParseUUIDParam(chi.URLParam(r, "requestId"), "requestId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var body RegisterPaymentBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		request, err := service.RegisterPayment(ctx, id, body.ProofRef)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, toRequestResponse(*request))
	}
}

func AdminExecuteRecharge(service AdminRequestService, logg *logger.Logger) http.HandlerFunc {
	return transitionHandler(service.ExecuteRecharge, logg)
}

func AdminCompleteRequest(service AdminRequestService, logg *logger.Logger) http.HandlerFunc {
	return transitionHandler(service.Complete, logg)
}

type FailRequestBody struct {
	Reason string `json:"reason" validate:"required,max=1024"`
}

func AdminFailRequest(service AdminRequestService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		id, err := validators.ParseUUIDParam(chi.URLParam(r, "requestId"), "requestId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var body FailRequestBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		request, err := service.Fail(ctx, id, body.Reason)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, toRequestResponse(*request))
	}
}

func transitionHandler(advance func(ctx context.Context, id uuid.UUID) (*models.RechargeRequest, error), logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		id, err := validators.ParseUUIDParam(chi.URLParam(r, "requestId"), "requestId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		request, err := advance(ctx, id)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, toRequestResponse(*request))
	}
}

func parseOptionalDecimal(raw, field string) (*decimal.Decimal, error) {
	if raw == "" {
		return nil, nil
	}
	value, err := decimal.NewFromString(raw)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "must be a decimal number").
			WithDetails(map[string]any{"field": field})
	}
	return &value, nil
}
