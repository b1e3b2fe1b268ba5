package companies

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	pkgerrors "github.com/davidcarrillo/adfactura-backend/pkg/errors"
)

// Service exposes the company registry operations the lifecycle depends on.
type Service interface {
	// TaxRegistrationConnected reports whether the company may create
	// recharge requests. The lifecycle only ever reads this flag.
	TaxRegistrationConnected(ctx context.Context, companyID uuid.UUID) (bool, error)
	ConfirmTaxRegistration(ctx context.Context, companyID uuid.UUID, ruc string) error
}

type service struct {
	repo Repository
}

// NewService wires the company registry.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "companies repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) TaxRegistrationConnected(ctx context.Context, companyID uuid.UUID) (bool, error) {
	if companyID == uuid.Nil {
		return false, pkgerrors.New(pkgerrors.CodeValidation, "company id required")
	}
	company, err := s.repo.FindByID(ctx, companyID)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load company")
	}
	if company == nil {
		return false, pkgerrors.New(pkgerrors.CodeNotFound, "company not found")
	}
	return company.TaxRegistrationConnected(), nil
}

func (s *service) ConfirmTaxRegistration(ctx context.Context, companyID uuid.UUID, ruc string) error {
	if companyID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "company id required")
	}
	ruc = strings.TrimSpace(ruc)
	if len(ruc) != 13 {
		return pkgerrors.New(pkgerrors.CodeValidation, "ruc must have 13 digits").
			WithDetails(map[string]any{"field": "ruc"})
	}
	for _, r := range ruc {
		if r < '0' || r > '9' {
			return pkgerrors.New(pkgerrors.CodeValidation, "ruc must be numeric").
				WithDetails(map[string]any{"field": "ruc"})
		}
	}

	affected, err := s.repo.ConfirmRUC(ctx, companyID, ruc, time.Now().UTC())
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "confirm ruc")
	}
	if affected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "company not found")
	}
	return nil
}
