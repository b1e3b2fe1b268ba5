package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/davidcarrillo/adfactura-backend/api/responses"
	"github.com/davidcarrillo/adfactura-backend/pkg/enums"
	pkgerrors "github.com/davidcarrillo/adfactura-backend/pkg/errors"
	"github.com/davidcarrillo/adfactura-backend/pkg/logger"
)

const (
	companyIDHeader = "X-Company-Id"
	actorRoleHeader = "X-Actor-Role"
)

// Identity resolves the acting company and role from the gateway-provided
// headers. The upstream gateway authenticates; this service only trusts the
// propagated identity.
func Identity(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			role, err := enums.ParseActorRole(r.Header.Get(actorRoleHeader))
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "unknown actor role"))
				return
			}
			ctx = WithRole(ctx, role.String())
			if logg != nil {
				ctx = logg.WithActorRole(ctx, role.String())
			}

			if raw := r.Header.Get(companyIDHeader); raw != "" {
				companyID, err := uuid.Parse(raw)
				if err != nil {
					responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid company id header").
						WithDetails(map[string]any{"field": companyIDHeader}))
					return
				}
				ctx = WithCompanyID(ctx, companyID)
				if logg != nil {
					ctx = logg.WithCompanyID(ctx, companyID.String())
				}
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireCompany rejects requests that carry no company identity.
func RequireCompany(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if CompanyIDFromContext(r.Context()) == uuid.Nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "company identity required"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
