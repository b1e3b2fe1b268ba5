package requests

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/davidcarrillo/adfactura-backend/pkg/db/models"
	"github.com/davidcarrillo/adfactura-backend/pkg/enums"
	"github.com/davidcarrillo/adfactura-backend/pkg/pagination"
)

// Repository handles recharge request persistence. Requests are append-and-
// update only; nothing here deletes rows.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, request *models.RechargeRequest) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.RechargeRequest, error)
	ListByCompany(ctx context.Context, query ListByCompanyQuery) ([]models.RechargeRequest, *pagination.Cursor, error)
	ListByStatus(ctx context.Context, query ListByStatusQuery) ([]models.RechargeRequest, *pagination.Cursor, error)
	// UpdateGuarded applies updates only while the row still holds the
	// expected status; the returned count is zero when a concurrent
	// transition won the race. The status column is the version check.
	UpdateGuarded(ctx context.Context, id uuid.UUID, expected enums.BillingStatus, updates map[string]any) (int64, error)
	// NextInvoiceValue bumps the invoice counter and returns the value
	// assigned to this invoice. Call inside the invoicing transaction.
	NextInvoiceValue(ctx context.Context) (int64, error)
	CountByStatus(ctx context.Context) (map[enums.BillingStatus]int64, error)
	CountCompletedSince(ctx context.Context, since time.Time) (int64, error)
	SumCompletedTotals(ctx context.Context) (string, error)
	FindStale(ctx context.Context, status enums.BillingStatus, cutoff time.Time) ([]models.RechargeRequest, error)
}

// ListByCompanyQuery configures the client-facing history listing.
type ListByCompanyQuery struct {
	CompanyID uuid.UUID
	Limit     int
	Cursor    *pagination.Cursor
}

// ListByStatusQuery configures the admin work-queue listing.
type ListByStatusQuery struct {
	Status enums.BillingStatus
	Limit  int
	Cursor *pagination.Cursor
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a request repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, request *models.RechargeRequest) error {
	return r.db.WithContext(ctx).Create(request).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.RechargeRequest, error) {
	var request models.RechargeRequest
	if err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&request).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &request, nil
}

func (r *repository) ListByCompany(ctx context.Context, query ListByCompanyQuery) ([]models.RechargeRequest, *pagination.Cursor, error) {
	q := r.db.WithContext(ctx).
		Model(&models.RechargeRequest{}).
		Where("company_id = ?", query.CompanyID)
	return r.page(q, query.Limit, query.Cursor)
}

func (r *repository) ListByStatus(ctx context.Context, query ListByStatusQuery) ([]models.RechargeRequest, *pagination.Cursor, error) {
	q := r.db.WithContext(ctx).
		Model(&models.RechargeRequest{}).
		Where("status = ?", query.Status)
	return r.page(q, query.Limit, query.Cursor)
}

func (r *repository) page(q *gorm.DB, limit int, cursor *pagination.Cursor) ([]models.RechargeRequest, *pagination.Cursor, error) {
	normalized := pagination.NormalizeLimit(limit)
	if cursor != nil {
		q = q.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}

	var rows []models.RechargeRequest
	if err := q.Order("created_at DESC, id DESC").
		Limit(pagination.LimitWithBuffer(normalized)).
		Find(&rows).Error; err != nil {
		return nil, nil, err
	}

	if len(rows) > normalized {
		rows = rows[:normalized]
		last := rows[len(rows)-1]
		return rows, &pagination.Cursor{
			CreatedAt: last.CreatedAt,
			ID:        last.ID,
		}, nil
	}
	return rows, nil, nil
}

func (r *repository) UpdateGuarded(ctx context.Context, id uuid.UUID, expected enums.BillingStatus, updates map[string]any) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.RechargeRequest{}).
		Where("id = ? AND status = ?", id, expected).
		Updates(updates)
	return result.RowsAffected, result.Error
}

func (r *repository) NextInvoiceValue(ctx context.Context) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.InvoiceSequence{}).
		Where("id = ?", 1).
		Update("next_value", gorm.Expr("next_value + 1"))
	if result.Error != nil {
		return 0, result.Error
	}
	if result.RowsAffected == 0 {
		return 0, fmt.Errorf("invoice sequence row missing")
	}

	var seq models.InvoiceSequence
	if err := r.db.WithContext(ctx).
		Where("id = ?", 1).
		First(&seq).Error; err != nil {
		return 0, err
	}
	return seq.NextValue - 1, nil
}

func (r *repository) CountByStatus(ctx context.Context) (map[enums.BillingStatus]int64, error) {
	type row struct {
		Status enums.BillingStatus
		Total  int64
	}
	var rows []row
	if err := r.db.WithContext(ctx).
		Model(&models.RechargeRequest{}).
		Select("status, COUNT(*) AS total").
		Group("status").
		Find(&rows).Error; err != nil {
		return nil, err
	}

	counts := make(map[enums.BillingStatus]int64, len(rows))
	for _, item := range rows {
		counts[item.Status] = item.Total
	}
	return counts, nil
}

func (r *repository) CountCompletedSince(ctx context.Context, since time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.RechargeRequest{}).
		Where("status = ? AND completed_at >= ?", enums.BillingStatusCompleted, since).
		Count(&count).Error
	return count, err
}

func (r *repository) SumCompletedTotals(ctx context.Context) (string, error) {
	var total *string
	err := r.db.WithContext(ctx).
		Model(&models.RechargeRequest{}).
		Select("SUM(calculated_total)").
		Where("status = ?", enums.BillingStatusCompleted).
		Scan(&total).Error
	if err != nil {
		return "", err
	}
	if total == nil {
		return "0", nil
	}
	return *total, nil
}

func (r *repository) FindStale(ctx context.Context, status enums.BillingStatus, cutoff time.Time) ([]models.RechargeRequest, error) {
	var rows []models.RechargeRequest
	if err := r.db.WithContext(ctx).
		Where("status = ? AND updated_at < ?", status, cutoff).
		Order("updated_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
