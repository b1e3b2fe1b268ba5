package controllers

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/davidcarrillo/adfactura-backend/pkg/db/models"
	"github.com/davidcarrillo/adfactura-backend/pkg/pagination"
)

// RequestResponse is the wire shape of one recharge request. Monetary values
// travel as decimal strings.
type RequestResponse struct {
	ID              uuid.UUID `json:"id"`
	CompanyID       uuid.UUID `json:"companyId"`
	Platform        string    `json:"platform"`
	RequestedAmount string    `json:"requestedAmount"`

	CalculatedBase       *string `json:"calculatedBase,omitempty"`
	CalculatedCommission *string `json:"calculatedCommission,omitempty"`
	CalculatedTotal      *string `json:"calculatedTotal,omitempty"`

	Status string `json:"status"`

	InvoiceNumber      *string `json:"invoiceNumber,omitempty"`
	InvoiceDocumentURL *string `json:"invoiceDocumentUrl,omitempty"`
	PaymentProofRef    *string `json:"paymentProofRef,omitempty"`
	ErrorMessage       *string `json:"errorMessage,omitempty"`

	CreatedAt          time.Time  `json:"createdAt"`
	CalculatedAt       *time.Time `json:"calculatedAt,omitempty"`
	ApprovedAt         *time.Time `json:"approvedAt,omitempty"`
	InvoicedAt         *time.Time `json:"invoicedAt,omitempty"`
	PaidAt             *time.Time `json:"paidAt,omitempty"`
	RechargeExecutedAt *time.Time `json:"rechargeExecutedAt,omitempty"`
	CompletedAt        *time.Time `json:"completedAt,omitempty"`
	FailedAt           *time.Time `json:"failedAt,omitempty"`
	UpdatedAt          time.Time  `json:"updatedAt"`
}

// RequestListResponse wraps a page of requests with the follow-up cursor.
type RequestListResponse struct {
	Items      []RequestResponse `json:"items"`
	NextCursor string            `json:"nextCursor,omitempty"`
}

func toRequestResponse(request models.RechargeRequest) RequestResponse {
	return RequestResponse{
		ID:                   request.ID,
		CompanyID:            request.CompanyID,
		Platform:             request.Platform.String(),
		RequestedAmount:      request.RequestedAmount.String(),
		CalculatedBase:       decimalString(request.CalculatedBase),
		CalculatedCommission: decimalString(request.CalculatedCommission),
		CalculatedTotal:      decimalString(request.CalculatedTotal),
		Status:               request.Status.String(),
		InvoiceNumber:        request.InvoiceNumber,
		InvoiceDocumentURL:   request.InvoiceDocumentURL,
		PaymentProofRef:      request.PaymentProofRef,
		ErrorMessage:         request.ErrorMessage,
		CreatedAt:            request.CreatedAt,
		CalculatedAt:         request.CalculatedAt,
		ApprovedAt:           request.ApprovedAt,
		InvoicedAt:           request.InvoicedAt,
		PaidAt:               request.PaidAt,
		RechargeExecutedAt:   request.RechargeExecutedAt,
		CompletedAt:          request.CompletedAt,
		FailedAt:             request.FailedAt,
		UpdatedAt:            request.UpdatedAt,
	}
}

func toRequestListResponse(rows []models.RechargeRequest, cursor *pagination.Cursor) RequestListResponse {
	response := RequestListResponse{Items: make([]RequestResponse, 0, len(rows))}
	for _, row := range rows {
		response.Items = append(response.Items, toRequestResponse(row))
	}
	if cursor != nil {
		response.NextCursor = pagination.EncodeCursor(*cursor)
	}
	return response
}

func decimalString(value *decimal.Decimal) *string {
	if value == nil {
		return nil
	}
	formatted := value.String()
	return &formatted
}
