package controllers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/davidcarrillo/adfactura-backend/api/responses"
	"github.com/davidcarrillo/adfactura-backend/api/validators"
	"github.com/davidcarrillo/adfactura-backend/pkg/logger"
)

// CompanyService is the registry surface the API needs.
type CompanyService interface {
	ConfirmTaxRegistration(ctx context.Context, companyID uuid.UUID, ruc string) error
	TaxRegistrationConnected(ctx context.Context, companyID uuid.UUID) (bool, error)
}

type ConfirmRUCBody struct {
	RUC string `json:"ruc" validate:"required,len=13,numeric"`
}

func AdminConfirmRUC(service CompanyService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		companyID, err := validators.ParseUUIDParam(chi.URLParam(r, "companyId"), "companyId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var body ConfirmRUCBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if err := service.ConfirmTaxRegistration(ctx, companyID, body.RUC); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{
			"companyId": companyID,
			"confirmed": true,
		})
	}
}

func AdminCompanyStatus(service CompanyService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		companyID, err := validators.ParseUUIDParam(chi.URLParam(r, "companyId"), "companyId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		connected, err := service.TaxRegistrationConnected(ctx, companyID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{
			"companyId":                companyID,
			"taxRegistrationConnected": connected,
		})
	}
}
