package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/davidcarrillo/adfactura-backend/pkg/enums"
)

// RechargeRequest is the audit record of one local-billing recharge, from the
// client's initial ask through invoicing, payment and platform recharge.
// Rows are never deleted; the lifecycle only moves the status forward and
// stamps the matching timestamp once.
type RechargeRequest struct {
	ID        uuid.UUID        `gorm:"column:id;type:uuid;primaryKey"`
	CompanyID uuid.UUID        `gorm:"column:company_id;type:uuid;not null;index"`
	Platform  enums.AdPlatform `gorm:"column:platform;type:ad_platform;not null"`

	// RequestedAmount is the client-declared ad spend. Set at creation,
	// immutable afterward.
	RequestedAmount decimal.Decimal `gorm:"column:requested_amount;type:numeric;not null"`

	// Calculated figures are set by the admin calculation step and may be
	// revised until the client approves. Frozen from approved_by_client on.
	CalculatedBase       *decimal.Decimal `gorm:"column:calculated_base;type:numeric"`
	CalculatedCommission *decimal.Decimal `gorm:"column:calculated_commission;type:numeric"`
	CalculatedTotal      *decimal.Decimal `gorm:"column:calculated_total;type:numeric"`

	Status enums.BillingStatus `gorm:"column:status;type:billing_status;not null;index"`

	InvoiceNumber      *string `gorm:"column:invoice_number;unique"`
	InvoiceDocumentURL *string `gorm:"column:invoice_document_url"`
	PaymentProofRef    *string `gorm:"column:payment_proof_ref"`
	ErrorMessage       *string `gorm:"column:error_message"`

	CreatedAt          time.Time  `gorm:"column:created_at;not null"`
	CalculatedAt       *time.Time `gorm:"column:calculated_at"`
	ApprovedAt         *time.Time `gorm:"column:approved_at"`
	InvoicedAt         *time.Time `gorm:"column:invoiced_at"`
	PaidAt             *time.Time `gorm:"column:paid_at"`
	RechargeExecutedAt *time.Time `gorm:"column:recharge_executed_at"`
	CompletedAt        *time.Time `gorm:"column:completed_at"`
	FailedAt           *time.Time `gorm:"column:failed_at"`

	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
