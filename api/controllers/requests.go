package controllers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/davidcarrillo/adfactura-backend/api/middleware"
	"github.com/davidcarrillo/adfactura-backend/api/responses"
	"github.com/davidcarrillo/adfactura-backend/api/validators"
	"github.com/davidcarrillo/adfactura-backend/internal/requests"
	"github.com/davidcarrillo/adfactura-backend/pkg/db/models"
	"github.com/davidcarrillo/adfactura-backend/pkg/enums"
	pkgerrors "github.com/davidcarrillo/adfactura-backend/pkg/errors"
	"github.com/davidcarrillo/adfactura-backend/pkg/logger"
	"github.com/davidcarrillo/adfactura-backend/pkg/pagination"
)

// RequestService is the client-facing lifecycle surface.
type RequestService interface {
	Create(ctx context.Context, params requests.CreateParams) (*models.RechargeRequest, error)
	Get(ctx context.Context, id uuid.UUID, requesterCompany uuid.UUID) (*models.RechargeRequest, error)
	ListByCompany(ctx context.Context, query requests.ListByCompanyQuery) ([]models.RechargeRequest, *pagination.Cursor, error)
	Approve(ctx context.Context, id uuid.UUID, companyID uuid.UUID) (*models.RechargeRequest, error)
}

type CreateRequestBody struct {
	Platform string `json:"platform" validate:"required"`
	Amount   string `json:"amount" validate:"required"`
}

func CreateRequest(service RequestService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var body CreateRequestBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		platform, err := enums.ParseAdPlatform(body.Platform)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "unsupported ad platform").
				WithDetails(map[string]any{"field": "platform"}))
			return
		}
		amount, err := decimal.NewFromString(body.Amount)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "amount must be a decimal number").
				WithDetails(map[string]any{"field": "amount"}))
			return
		}

		request, err := service.Create(ctx, requests.CreateParams{
			CompanyID: middleware.CompanyIDFromContext(ctx),
			Platform:  platform,
			Amount:    amount,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, toRequestResponse(*request))
	}
}

func ListRequests(service RequestService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

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

		rows, next, err := service.ListByCompany(ctx, requests.ListByCompanyQuery{
			CompanyID: middleware.CompanyIDFromContext(ctx),
			Limit:     limit,
			Cursor:    cursor,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, toRequestListResponse(rows, next))
	}
}

func GetRequest(service RequestService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		id, err := validators.ParseUUIDParam(chi.URLParam(r, "requestId"), "requestId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		request, err := service.Get(ctx, id, middleware.CompanyIDFromContext(ctx))
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, toRequestResponse(*request))
	}
}

func ApproveRequest(service RequestService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		id, err := validators.ParseUUIDParam(chi.URLParam(r, "requestId"), "requestId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		request, err := service.Approve(ctx, id, middleware.CompanyIDFromContext(ctx))
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, toRequestResponse(*request))
	}
}
