package companies

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/davidcarrillo/adfactura-backend/pkg/db/models"
)

// Repository handles company persistence.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, company *models.Company) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Company, error)
	ConfirmRUC(ctx context.Context, id uuid.UUID, ruc string, confirmedAt time.Time) (int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a company repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, company *models.Company) error {
	return r.db.WithContext(ctx).Create(company).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Company, error) {
	var company models.Company
	if err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&company).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &company, nil
}

func (r *repository) ConfirmRUC(ctx context.Context, id uuid.UUID, ruc string, confirmedAt time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Company{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"ruc":              ruc,
			"ruc_confirmed_at": confirmedAt,
		})
	return result.RowsAffected, result.Error
}
