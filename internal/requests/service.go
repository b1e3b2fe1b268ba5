package requests

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/davidcarrillo/adfactura-backend/internal/documents"
	"github.com/davidcarrillo/adfactura-backend/internal/notifier"
	"github.com/davidcarrillo/adfactura-backend/internal/taxengine"
	"github.com/davidcarrillo/adfactura-backend/pkg/db/models"
	"github.com/davidcarrillo/adfactura-backend/pkg/enums"
	pkgerrors "github.com/davidcarrillo/adfactura-backend/pkg/errors"
	"github.com/davidcarrillo/adfactura-backend/pkg/logger"
	"github.com/davidcarrillo/adfactura-backend/pkg/metrics"
	"github.com/davidcarrillo/adfactura-backend/pkg/pagination"
)

// TxRunner runs a function inside one database transaction.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// RegistrationChecker reports whether a company may open recharge requests.
type RegistrationChecker interface {
	TaxRegistrationConnected(ctx context.Context, companyID uuid.UUID) (bool, error)
}

// ServiceParams wires the request lifecycle service.
type ServiceParams struct {
	Repo      Repository
	Tx        TxRunner
	Registry  RegistrationChecker
	Publisher notifier.Publisher
	Invoices  documents.InvoiceArchiver
	Proofs    documents.PaymentProofStore
	Metrics   *metrics.LifecycleMetrics
	Logger    *logger.Logger

	// InvoicePrefix is the invoice series prefix, FB in production.
	InvoicePrefix string
}

// Service drives recharge requests through the billing lifecycle. Every
// transition commits behind a status guard, so two racing admins cannot both
// advance the same request.
type Service struct {
	repo      Repository
	tx        TxRunner
	registry  RegistrationChecker
	publisher notifier.Publisher
	invoices  documents.InvoiceArchiver
	proofs    documents.PaymentProofStore
	metrics   *metrics.LifecycleMetrics
	logg      *logger.Logger
	prefix    string
}

// NewService validates the wiring and returns the lifecycle service.
func NewService(params ServiceParams) (*Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "requests repository required")
	}
	if params.Tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "transaction runner required")
	}
	if params.Registry == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "company registry required")
	}
	prefix := params.InvoicePrefix
	if prefix == "" {
		prefix = "FB"
	}
	return &Service{
		repo:      params.Repo,
		tx:        params.Tx,
		registry:  params.Registry,
		publisher: params.Publisher,
		invoices:  params.Invoices,
		proofs:    params.Proofs,
		metrics:   params.Metrics,
		logg:      params.Logger,
		prefix:    prefix,
	}, nil
}

// CreateParams carries the client's initial ask.
type CreateParams struct {
	CompanyID uuid.UUID
	Platform  enums.AdPlatform
	Amount    decimal.Decimal
}

// Create opens a new recharge request in request_created. The company must
// have a confirmed tax registration before any request is accepted.
func (s *Service) Create(ctx context.Context, params CreateParams) (*models.RechargeRequest, error) {
	if params.CompanyID == uuid.Nil {
		return nil, s.reject(pkgerrors.New(pkgerrors.CodeValidation, "company id required"))
	}
	if !params.Platform.IsValid() {
		return nil, s.reject(pkgerrors.New(pkgerrors.CodeValidation, "unsupported ad platform").
			WithDetails(map[string]any{"field": "platform"}))
	}
	if err := validateAmount(params.Amount); err != nil {
		return nil, s.reject(err)
	}

	connected, err := s.registry.TaxRegistrationConnected(ctx, params.CompanyID)
	if err != nil {
		return nil, err
	}
	if !connected {
		return nil, s.reject(pkgerrors.New(pkgerrors.CodePrecondition, "company has no confirmed tax registration").
			WithDetails(map[string]any{"company_id": params.CompanyID}))
	}

	request := &models.RechargeRequest{
		ID:              uuid.New(),
		CompanyID:       params.CompanyID,
		Platform:        params.Platform,
		RequestedAmount: params.Amount,
		Status:          enums.BillingStatusRequestCreated,
		CreatedAt:       time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, request); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist recharge request")
	}

	s.metrics.ObserveTransition("new", enums.BillingStatusRequestCreated.String())
	s.publish(ctx, notifier.NewRequest{Request: *request})
	return request, nil
}

// Get loads one request. When requesterCompany is non-nil the call is scoped
// to that company and foreign requests come back as access denied.
func (s *Service) Get(ctx context.Context, id uuid.UUID, requesterCompany uuid.UUID) (*models.RechargeRequest, error) {
	request, err := s.load(ctx, s.repo, id)
	if err != nil {
		return nil, err
	}
	if requesterCompany != uuid.Nil && request.CompanyID != requesterCompany {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "request belongs to another company")
	}
	return request, nil
}

// ListByCompany returns the company's request history, newest first.
func (s *Service) ListByCompany(ctx context.Context, query ListByCompanyQuery) ([]models.RechargeRequest, *pagination.Cursor, error) {
	if query.CompanyID == uuid.Nil {
		return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "company id required")
	}
	rows, cursor, err := s.repo.ListByCompany(ctx, query)
	if err != nil {
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list requests")
	}
	return rows, cursor, nil
}

// ListByStatus returns the admin work queue for one pipeline stage.
func (s *Service) ListByStatus(ctx context.Context, query ListByStatusQuery) ([]models.RechargeRequest, *pagination.Cursor, error) {
	if !query.Status.IsValid() {
		return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown billing status").
			WithDetails(map[string]any{"field": "status"})
	}
	rows, cursor, err := s.repo.ListByStatus(ctx, query)
	if err != nil {
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list requests")
	}
	return rows, cursor, nil
}

// CalculateParams carries the admin calculation. Zero-valued figures fall back
// to the canonical engine output for the requested amount.
type CalculateParams struct {
	ID         uuid.UUID
	Base       *decimal.Decimal
	Commission *decimal.Decimal
	Total      *decimal.Decimal
}

// Calculate attaches billing figures and moves the request to calculated.
// While the request is still in calculated the figures may be revised; from
// approval onward they are frozen.
func (s *Service) Calculate(ctx context.Context, params CalculateParams) (*models.RechargeRequest, error) {
	var updated *models.RechargeRequest
	var event notifier.Event

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		request, err := s.load(ctx, repo, params.ID)
		if err != nil {
			return err
		}

		revision := request.Status == enums.BillingStatusCalculated
		if !revision {
			if err := guardStatus(request, enums.BillingStatusRequestCreated, "calculate"); err != nil {
				return s.reject(err)
			}
		}

		base, commission, total, figErr := resolveFigures(request.RequestedAmount, params)
		if figErr != nil {
			return s.reject(figErr)
		}

		now := time.Now().UTC()
		updates := map[string]any{
			"calculated_base":       base,
			"calculated_commission": commission,
			"calculated_total":      total,
			"updated_at":            now,
		}
		if !revision {
			updates["status"] = enums.BillingStatusCalculated
			updates["calculated_at"] = now
		}

		if err := s.applyGuarded(ctx, repo, request, updates); err != nil {
			return err
		}

		request.CalculatedBase = &base
		request.CalculatedCommission = &commission
		request.CalculatedTotal = &total
		if !revision {
			request.Status = enums.BillingStatusCalculated
			request.CalculatedAt = &now
		}
		request.UpdatedAt = now
		updated = request

		if revision {
			event = notifier.GenericUpdate{Request: *request}
		} else {
			event = notifier.StatusChanged{Request: *request, Previous: enums.BillingStatusRequestCreated}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if _, ok := event.(notifier.StatusChanged); ok {
		s.metrics.ObserveTransition(enums.BillingStatusRequestCreated.String(), enums.BillingStatusCalculated.String())
	}
	s.publish(ctx, event)
	return updated, nil
}

// Approve records the client's acceptance of the calculated figures. Only the
// owning company may approve, and only from calculated.
func (s *Service) Approve(ctx context.Context, id uuid.UUID, companyID uuid.UUID) (*models.RechargeRequest, error) {
	return s.advance(ctx, transition{
		id:     id,
		from:   enums.BillingStatusCalculated,
		to:     enums.BillingStatusApprovedByClient,
		action: "approve",
		check: func(request *models.RechargeRequest) *pkgerrors.Error {
			if companyID != uuid.Nil && request.CompanyID != companyID {
				return pkgerrors.New(pkgerrors.CodeForbidden, "request belongs to another company")
			}
			if request.CalculatedTotal == nil || !request.CalculatedTotal.IsPositive() {
				return pkgerrors.New(pkgerrors.CodeStateConflict, "approve requires calculated figures").
					WithDetails(map[string]any{"request_id": request.ID})
			}
			return nil
		},
		apply: func(request *models.RechargeRequest, now time.Time, updates map[string]any) {
			updates["approved_at"] = now
			request.ApprovedAt = &now
		},
	})
}

// EmitInvoice numbers the approved request and moves it to invoiced. The
// invoice number comes from a single monotonic series and is assigned in the
// same transaction as the transition.
func (s *Service) EmitInvoice(ctx context.Context, id uuid.UUID) (*models.RechargeRequest, error) {
	return s.advance(ctx, transition{
		id:     id,
		from:   enums.BillingStatusApprovedByClient,
		to:     enums.BillingStatusInvoiced,
		action: "emit invoice",
		check: func(request *models.RechargeRequest) *pkgerrors.Error {
			if request.CalculatedTotal == nil || !request.CalculatedTotal.IsPositive() {
				return pkgerrors.New(pkgerrors.CodeStateConflict, "invoicing requires a positive calculated total").
					WithDetails(map[string]any{"request_id": request.ID})
			}
			return nil
		},
		applyTx: func(ctx context.Context, repo Repository, request *models.RechargeRequest, now time.Time, updates map[string]any) error {
			value, err := repo.NextInvoiceValue(ctx)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "assign invoice number")
			}
			number := fmt.Sprintf("%s-%s-%06d", s.prefix, now.Format("20060102"), value)
			updates["invoiced_at"] = now
			updates["invoice_number"] = number
			request.InvoicedAt = &now
			request.InvoiceNumber = &number

			if s.invoices != nil {
				docURL, err := s.invoices.ArchiveInvoice(ctx, request.ID, number)
				if err != nil {
					s.warn(ctx, "invoice document archive failed", err)
				} else if docURL != "" {
					updates["invoice_document_url"] = docURL
					request.InvoiceDocumentURL = &docURL
				}
			}
			return nil
		},
	})
}

// RegisterPayment records the client's payment evidence and moves the request
// to paid. The proof reference is stored as-is; nothing verifies the payment.
func (s *Service) RegisterPayment(ctx context.Context, id uuid.UUID, proofRef string) (*models.RechargeRequest, error) {
	return s.advance(ctx, transition{
		id:     id,
		from:   enums.BillingStatusInvoiced,
		to:     enums.BillingStatusPaid,
		action: "register payment",
		apply: func(request *models.RechargeRequest, now time.Time, updates map[string]any) {
			updates["paid_at"] = now
			request.PaidAt = &now

			ref := proofRef
			if s.proofs != nil && ref != "" {
				stored, err := s.proofs.StoreProof(ctx, request.ID, ref)
				if err != nil {
					s.warn(ctx, "payment proof store failed", err)
				} else if stored != "" {
					ref = stored
				}
			}
			if ref != "" {
				updates["payment_proof_ref"] = ref
				request.PaymentProofRef = &ref
			}
		},
	})
}

// ExecuteRecharge marks the ad spend as loaded on the platform.
func (s *Service) ExecuteRecharge(ctx context.Context, id uuid.UUID) (*models.RechargeRequest, error) {
	return s.advance(ctx, transition{
		id:     id,
		from:   enums.BillingStatusPaid,
		to:     enums.BillingStatusRechargeExecuted,
		action: "execute recharge",
		apply: func(request *models.RechargeRequest, now time.Time, updates map[string]any) {
			updates["recharge_executed_at"] = now
			request.RechargeExecutedAt = &now
		},
	})
}

// Complete closes the request. Revenue is counted exactly once here; a repeat
// call fails the terminal guard before reaching the counter.
func (s *Service) Complete(ctx context.Context, id uuid.UUID) (*models.RechargeRequest, error) {
	request, err := s.advance(ctx, transition{
		id:     id,
		from:   enums.BillingStatusRechargeExecuted,
		to:     enums.BillingStatusCompleted,
		action: "complete",
		apply: func(request *models.RechargeRequest, now time.Time, updates map[string]any) {
			updates["completed_at"] = now
			request.CompletedAt = &now
		},
	})
	if err != nil {
		return nil, err
	}
	if request.CalculatedTotal != nil {
		s.metrics.AddRevenue(request.CalculatedTotal.InexactFloat64())
	}
	return request, nil
}

// Fail moves any non-terminal request into the absorbing error state.
func (s *Service) Fail(ctx context.Context, id uuid.UUID, reason string) (*models.RechargeRequest, error) {
	if reason == "" {
		return nil, s.reject(pkgerrors.New(pkgerrors.CodeValidation, "failure reason required").
			WithDetails(map[string]any{"field": "reason"}))
	}

	var updated *models.RechargeRequest
	var previous enums.BillingStatus

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		request, err := s.load(ctx, repo, id)
		if err != nil {
			return err
		}
		if request.Status.IsTerminal() {
			return s.reject(pkgerrors.New(pkgerrors.CodeTerminalState, "request already finished").
				WithDetails(map[string]any{"current_status": request.Status}))
		}

		now := time.Now().UTC()
		previous = request.Status
		updates := map[string]any{
			"status":        enums.BillingStatusError,
			"error_message": reason,
			"failed_at":     now,
			"updated_at":    now,
		}
		if err := s.applyGuarded(ctx, repo, request, updates); err != nil {
			return err
		}

		request.Status = enums.BillingStatusError
		request.ErrorMessage = &reason
		request.FailedAt = &now
		request.UpdatedAt = now
		updated = request
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.ObserveTransition(previous.String(), enums.BillingStatusError.String())
	s.publish(ctx, notifier.StatusChanged{Request: *updated, Previous: previous})
	return updated, nil
}

// transition describes one happy-path step.
type transition struct {
	id     uuid.UUID
	from   enums.BillingStatus
	to     enums.BillingStatus
	action string
	// check runs extra preconditions after the status guard passes.
	check func(request *models.RechargeRequest) *pkgerrors.Error
	// apply mutates the update set for steps without extra queries.
	apply func(request *models.RechargeRequest, now time.Time, updates map[string]any)
	// applyTx is apply with transaction-scoped repository access.
	applyTx func(ctx context.Context, repo Repository, request *models.RechargeRequest, now time.Time, updates map[string]any) error
}

func (s *Service) advance(ctx context.Context, step transition) (*models.RechargeRequest, error) {
	var updated *models.RechargeRequest

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		request, err := s.load(ctx, repo, step.id)
		if err != nil {
			return err
		}
		if err := guardStatus(request, step.from, step.action); err != nil {
			return s.reject(err)
		}
		if step.check != nil {
			if err := step.check(request); err != nil {
				return s.reject(err)
			}
		}

		now := time.Now().UTC()
		updates := map[string]any{
			"status":     step.to,
			"updated_at": now,
		}
		if step.apply != nil {
			step.apply(request, now, updates)
		}
		if step.applyTx != nil {
			if err := step.applyTx(ctx, repo, request, now, updates); err != nil {
				return err
			}
		}

		if err := s.applyGuarded(ctx, repo, request, updates); err != nil {
			return err
		}

		request.Status = step.to
		request.UpdatedAt = now
		updated = request
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.ObserveTransition(step.from.String(), step.to.String())
	s.publish(ctx, notifier.StatusChanged{Request: *updated, Previous: step.from})
	return updated, nil
}

// applyGuarded commits the update behind the status guard and classifies a
// lost race by re-reading the row.
func (s *Service) applyGuarded(ctx context.Context, repo Repository, request *models.RechargeRequest, updates map[string]any) error {
	affected, err := repo.UpdateGuarded(ctx, request.ID, request.Status, updates)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update recharge request")
	}
	if affected > 0 {
		return nil
	}

	current, err := repo.FindByID(ctx, request.ID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload recharge request")
	}
	if current == nil {
		return s.reject(pkgerrors.New(pkgerrors.CodeNotFound, "recharge request not found"))
	}
	if current.Status.IsTerminal() {
		return s.reject(pkgerrors.New(pkgerrors.CodeTerminalState, "request already finished").
			WithDetails(map[string]any{"current_status": current.Status}))
	}
	return s.reject(pkgerrors.New(pkgerrors.CodeStateConflict, "request changed concurrently").
		WithDetails(map[string]any{
			"current_status":  current.Status,
			"expected_status": request.Status,
		}))
}

func (s *Service) load(ctx context.Context, repo Repository, id uuid.UUID) (*models.RechargeRequest, error) {
	if id == uuid.Nil {
		return nil, s.reject(pkgerrors.New(pkgerrors.CodeValidation, "request id required"))
	}
	request, err := repo.FindByID(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load recharge request")
	}
	if request == nil {
		return nil, s.reject(pkgerrors.New(pkgerrors.CodeNotFound, "recharge request not found"))
	}
	return request, nil
}

func (s *Service) reject(err *pkgerrors.Error) *pkgerrors.Error {
	s.metrics.IncRejection(string(err.Code()))
	return err
}

// publish sends the event after commit. Delivery failures are logged and
// swallowed; the transition already happened.
func (s *Service) publish(ctx context.Context, event notifier.Event) {
	if s.publisher == nil || event == nil {
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.warn(ctx, "event publish failed", err)
	}
}

func (s *Service) warn(ctx context.Context, msg string, err error) {
	if s.logg == nil {
		return
	}
	s.logg.Error(ctx, msg, err)
}

func guardStatus(request *models.RechargeRequest, want enums.BillingStatus, action string) *pkgerrors.Error {
	if request.Status == want {
		return nil
	}
	if request.Status.IsTerminal() {
		return pkgerrors.New(pkgerrors.CodeTerminalState, "request already finished").
			WithDetails(map[string]any{"current_status": request.Status})
	}
	return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("%s requires status %s", action, want)).
		WithDetails(map[string]any{
			"current_status":  request.Status,
			"expected_status": want,
		})
}

func validateAmount(amount decimal.Decimal) *pkgerrors.Error {
	if !amount.IsPositive() {
		return pkgerrors.New(pkgerrors.CodeValidation, "amount must be greater than zero").
			WithDetails(map[string]any{"field": "amount"})
	}
	if !taxengine.ValidAmount(amount) {
		return pkgerrors.New(pkgerrors.CodeValidation, "amount exceeds the per-request maximum").
			WithDetails(map[string]any{"field": "amount", "max": "1000000"})
	}
	return nil
}

func resolveFigures(requested decimal.Decimal, params CalculateParams) (base, commission, total decimal.Decimal, err *pkgerrors.Error) {
	projection := taxengine.CalculateBillingTax(requested)
	base = projection.Amount
	commission = projection.Commission
	total = projection.TotalBilling

	if params.Base != nil {
		base = *params.Base
	}
	if params.Commission != nil {
		commission = *params.Commission
	}
	if params.Total != nil {
		total = *params.Total
	}

	switch {
	case !base.IsPositive():
		err = pkgerrors.New(pkgerrors.CodeValidation, "base must be greater than zero").
			WithDetails(map[string]any{"field": "base"})
	case commission.IsNegative():
		err = pkgerrors.New(pkgerrors.CodeValidation, "commission cannot be negative").
			WithDetails(map[string]any{"field": "commission"})
	case !total.IsPositive():
		err = pkgerrors.New(pkgerrors.CodeValidation, "total must be greater than zero").
			WithDetails(map[string]any{"field": "total"})
	}
	return base, commission, total, err
}
