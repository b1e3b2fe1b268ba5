package requests

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/davidcarrillo/adfactura-backend/internal/documents"
	"github.com/davidcarrillo/adfactura-backend/internal/notifier"
	"github.com/davidcarrillo/adfactura-backend/pkg/db/models"
	"github.com/davidcarrillo/adfactura-backend/pkg/enums"
	pkgerrors "github.com/davidcarrillo/adfactura-backend/pkg/errors"
)

type gormTxRunner struct {
	db *gorm.DB
}

func (g gormTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return g.db.WithContext(ctx).Transaction(fn)
}

type stubRegistry struct {
	connected bool
	err       error
}

func (s stubRegistry) TaxRegistrationConnected(context.Context, uuid.UUID) (bool, error) {
	return s.connected, s.err
}

type capturingPublisher struct {
	events []notifier.Event
}

func (c *capturingPublisher) Publish(_ context.Context, event notifier.Event) error {
	c.events = append(c.events, event)
	return nil
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(
		&models.Company{},
		&models.RechargeRequest{},
		&models.InvoiceSequence{},
	))
	require.NoError(t, conn.Create(&models.InvoiceSequence{ID: 1, NextValue: 1}).Error)
	return conn
}

type fixture struct {
	service   *Service
	publisher *capturingPublisher
	db        *gorm.DB
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	conn := newTestDB(t)
	publisher := &capturingPublisher{}
	service, err := NewService(ServiceParams{
		Repo:          NewRepository(conn),
		Tx:            gormTxRunner{db: conn},
		Registry:      stubRegistry{connected: true},
		Publisher:     publisher,
		Invoices:      documents.NewLocalStore(""),
		Proofs:        documents.NewLocalStore(""),
		InvoicePrefix: "FB",
	})
	require.NoError(t, err)
	return &fixture{service: service, publisher: publisher, db: conn}
}

func (f *fixture) create(t *testing.T, amount string) *models.RechargeRequest {
	t.Helper()
	request, err := f.service.Create(context.Background(), CreateParams{
		CompanyID: uuid.New(),
		Platform:  enums.AdPlatformMeta,
		Amount:    decimal.RequireFromString(amount),
	})
	require.NoError(t, err)
	return request
}

func requireCode(t *testing.T, err error, code pkgerrors.Code) {
	t.Helper()
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed, "expected a coded error, got %v", err)
	require.Equal(t, code, typed.Code())
}

func TestFullLifecycleHappyPath(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	request := f.create(t, "5000")
	require.Equal(t, enums.BillingStatusRequestCreated, request.Status)
	require.NotEqual(t, uuid.Nil, request.ID)

	calculated, err := f.service.Calculate(ctx, CalculateParams{ID: request.ID})
	require.NoError(t, err)
	require.Equal(t, enums.BillingStatusCalculated, calculated.Status)
	require.True(t, calculated.CalculatedCommission.Equal(decimal.RequireFromString("500")))
	require.True(t, calculated.CalculatedTotal.Equal(decimal.RequireFromString("6325")))
	require.NotNil(t, calculated.CalculatedAt)

	approved, err := f.service.Approve(ctx, request.ID, request.CompanyID)
	require.NoError(t, err)
	require.Equal(t, enums.BillingStatusApprovedByClient, approved.Status)
	require.NotNil(t, approved.ApprovedAt)

	invoiced, err := f.service.EmitInvoice(ctx, request.ID)
	require.NoError(t, err)
	require.Equal(t, enums.BillingStatusInvoiced, invoiced.Status)
	require.NotNil(t, invoiced.InvoiceNumber)
	require.Regexp(t, `^FB-\d{8}-000001$`, *invoiced.InvoiceNumber)
	require.NotNil(t, invoiced.InvoiceDocumentURL)

	paid, err := f.service.RegisterPayment(ctx, request.ID, "transfer-001")
	require.NoError(t, err)
	require.Equal(t, enums.BillingStatusPaid, paid.Status)
	require.NotNil(t, paid.PaymentProofRef)
	require.Contains(t, *paid.PaymentProofRef, "transfer-001")

	recharged, err := f.service.ExecuteRecharge(ctx, request.ID)
	require.NoError(t, err)
	require.Equal(t, enums.BillingStatusRechargeExecuted, recharged.Status)

	completed, err := f.service.Complete(ctx, request.ID)
	require.NoError(t, err)
	require.Equal(t, enums.BillingStatusCompleted, completed.Status)
	require.NotNil(t, completed.CompletedAt)

	persisted, err := f.service.Get(ctx, request.ID, uuid.Nil)
	require.NoError(t, err)
	require.Equal(t, enums.BillingStatusCompleted, persisted.Status)

	// Creation plus six transitions, each published once.
	require.Len(t, f.publisher.events, 7)
	_, ok := f.publisher.events[0].(notifier.NewRequest)
	require.True(t, ok)
}

func TestCreateRejectsNonPositiveAmount(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.Create(context.Background(), CreateParams{
		CompanyID: uuid.New(),
		Platform:  enums.AdPlatformMeta,
		Amount:    decimal.Zero,
	})
	requireCode(t, err, pkgerrors.CodeValidation)

	var count int64
	require.NoError(t, f.db.Model(&models.RechargeRequest{}).Count(&count).Error)
	require.Zero(t, count)
}

func TestCreateRejectsAmountAboveMaximum(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.Create(context.Background(), CreateParams{
		CompanyID: uuid.New(),
		Platform:  enums.AdPlatformTikTok,
		Amount:    decimal.RequireFromString("1000000"),
	})
	requireCode(t, err, pkgerrors.CodeValidation)
}

func TestCreateRequiresTaxRegistration(t *testing.T) {
	conn := newTestDB(t)
	service, err := NewService(ServiceParams{
		Repo:     NewRepository(conn),
		Tx:       gormTxRunner{db: conn},
		Registry: stubRegistry{connected: false},
	})
	require.NoError(t, err)

	_, err = service.Create(context.Background(), CreateParams{
		CompanyID: uuid.New(),
		Platform:  enums.AdPlatformGoogle,
		Amount:    decimal.RequireFromString("100"),
	})
	requireCode(t, err, pkgerrors.CodePrecondition)
}

func TestOutOfOrderTransitionIsRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	request := f.create(t, "250")
	_, err := f.service.Calculate(ctx, CalculateParams{ID: request.ID})
	require.NoError(t, err)

	// The request is calculated, not invoiced; payment must not register.
	_, err = f.service.RegisterPayment(ctx, request.ID, "early-proof")
	requireCode(t, err, pkgerrors.CodeStateConflict)

	current, err := f.service.Get(ctx, request.ID, uuid.Nil)
	require.NoError(t, err)
	require.Equal(t, enums.BillingStatusCalculated, current.Status)
	require.Nil(t, current.PaymentProofRef)
}

func TestCalculateRevisionBeforeApproval(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	request := f.create(t, "1000")
	_, err := f.service.Calculate(ctx, CalculateParams{ID: request.ID})
	require.NoError(t, err)

	adjusted := decimal.RequireFromString("1200")
	revised, err := f.service.Calculate(ctx, CalculateParams{ID: request.ID, Total: &adjusted})
	require.NoError(t, err)
	require.Equal(t, enums.BillingStatusCalculated, revised.Status)
	require.True(t, revised.CalculatedTotal.Equal(adjusted))

	last := f.publisher.events[len(f.publisher.events)-1]
	_, ok := last.(notifier.GenericUpdate)
	require.True(t, ok, "revision must publish a generic update, got %T", last)
}

func TestCalculateRejectsNonPositiveTotalOverride(t *testing.T) {
	f := newFixture(t)
	request := f.create(t, "1000")

	zero := decimal.Zero
	_, err := f.service.Calculate(context.Background(), CalculateParams{ID: request.ID, Total: &zero})
	requireCode(t, err, pkgerrors.CodeValidation)
}

func TestApproveRequiresOwningCompany(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	request := f.create(t, "400")
	_, err := f.service.Calculate(ctx, CalculateParams{ID: request.ID})
	require.NoError(t, err)

	_, err = f.service.Approve(ctx, request.ID, uuid.New())
	requireCode(t, err, pkgerrors.CodeForbidden)
}

func TestDoubleCompleteHitsTerminalGuard(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	request := f.create(t, "5000")
	_, err := f.service.Calculate(ctx, CalculateParams{ID: request.ID})
	require.NoError(t, err)
	_, err = f.service.Approve(ctx, request.ID, request.CompanyID)
	require.NoError(t, err)
	_, err = f.service.EmitInvoice(ctx, request.ID)
	require.NoError(t, err)
	_, err = f.service.RegisterPayment(ctx, request.ID, "ref")
	require.NoError(t, err)
	_, err = f.service.ExecuteRecharge(ctx, request.ID)
	require.NoError(t, err)
	_, err = f.service.Complete(ctx, request.ID)
	require.NoError(t, err)

	_, err = f.service.Complete(ctx, request.ID)
	requireCode(t, err, pkgerrors.CodeTerminalState)
}

func TestFailAbsorbsFromAnyPendingStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	request := f.create(t, "900")
	_, err := f.service.Calculate(ctx, CalculateParams{ID: request.ID})
	require.NoError(t, err)

	failed, err := f.service.Fail(ctx, request.ID, "platform account suspended")
	require.NoError(t, err)
	require.Equal(t, enums.BillingStatusError, failed.Status)
	require.NotNil(t, failed.ErrorMessage)
	require.Equal(t, "platform account suspended", *failed.ErrorMessage)
	require.NotNil(t, failed.FailedAt)

	// Error is absorbing; nothing moves the request again.
	_, err = f.service.Fail(ctx, request.ID, "again")
	requireCode(t, err, pkgerrors.CodeTerminalState)
	_, err = f.service.Calculate(ctx, CalculateParams{ID: request.ID})
	requireCode(t, err, pkgerrors.CodeTerminalState)
}

func TestFailRequiresReason(t *testing.T) {
	f := newFixture(t)
	request := f.create(t, "10")

	_, err := f.service.Fail(context.Background(), request.ID, "")
	requireCode(t, err, pkgerrors.CodeValidation)
}

func TestInvoiceNumbersAreSequential(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	var numbers []string
	for i := 0; i < 3; i++ {
		request := f.create(t, "100")
		_, err := f.service.Calculate(ctx, CalculateParams{ID: request.ID})
		require.NoError(t, err)
		_, err = f.service.Approve(ctx, request.ID, request.CompanyID)
		require.NoError(t, err)
		invoiced, err := f.service.EmitInvoice(ctx, request.ID)
		require.NoError(t, err)
		numbers = append(numbers, *invoiced.InvoiceNumber)
	}

	require.Regexp(t, `-000001$`, numbers[0])
	require.Regexp(t, `-000002$`, numbers[1])
	require.Regexp(t, `-000003$`, numbers[2])
}

func TestGetScopesToRequesterCompany(t *testing.T) {
	f := newFixture(t)
	request := f.create(t, "40")

	_, err := f.service.Get(context.Background(), request.ID, uuid.New())
	requireCode(t, err, pkgerrors.CodeForbidden)

	owned, err := f.service.Get(context.Background(), request.ID, request.CompanyID)
	require.NoError(t, err)
	require.Equal(t, request.ID, owned.ID)
}

func TestGetUnknownRequestReturnsNotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.Get(context.Background(), uuid.New(), uuid.Nil)
	requireCode(t, err, pkgerrors.CodeNotFound)
}

// racingRepo advances the row to target between the caller's snapshot load
// and its guarded update, so the caller always loses the race.
type racingRepo struct {
	Repository
	target enums.BillingStatus
	fired  *bool
}

func (r *racingRepo) WithTx(tx *gorm.DB) Repository {
	return &racingRepo{Repository: r.Repository.WithTx(tx), target: r.target, fired: r.fired}
}

func (r *racingRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.RechargeRequest, error) {
	request, err := r.Repository.FindByID(ctx, id)
	if err != nil || request == nil || *r.fired {
		return request, err
	}
	*r.fired = true
	if _, err := r.Repository.UpdateGuarded(ctx, id, request.Status, map[string]any{"status": r.target}); err != nil {
		return nil, err
	}
	return request, nil
}

// passthroughTxRunner runs the callback without a wrapping transaction so
// the simulated concurrent write persists, as a separately committed
// transaction would.
type passthroughTxRunner struct {
	db *gorm.DB
}

func (p passthroughTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(p.db.WithContext(ctx))
}

func newRacingService(t *testing.T, f *fixture, target enums.BillingStatus) *Service {
	t.Helper()
	service, err := NewService(ServiceParams{
		Repo:      &racingRepo{Repository: NewRepository(f.db), target: target, fired: new(bool)},
		Tx:        passthroughTxRunner{db: f.db},
		Registry:  stubRegistry{connected: true},
		Publisher: f.publisher,
	})
	require.NoError(t, err)
	return service
}

func TestLostTransitionRaceIsStateConflict(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	request := f.create(t, "800")
	_, err := f.service.Calculate(ctx, CalculateParams{ID: request.ID})
	require.NoError(t, err)
	_, err = f.service.Approve(ctx, request.ID, request.CompanyID)
	require.NoError(t, err)
	_, err = f.service.EmitInvoice(ctx, request.ID)
	require.NoError(t, err)

	// A second admin registers the payment after this call loads its
	// snapshot; the guarded update hits zero rows and must classify the
	// post-race status as a conflict.
	racing := newRacingService(t, f, enums.BillingStatusPaid)
	_, err = racing.RegisterPayment(ctx, request.ID, "late-proof")
	requireCode(t, err, pkgerrors.CodeStateConflict)

	current, err := f.service.Get(ctx, request.ID, uuid.Nil)
	require.NoError(t, err)
	require.Equal(t, enums.BillingStatusPaid, current.Status)
	require.Nil(t, current.PaymentProofRef)
}

func TestLostRaceAgainstTerminalStateIsTerminal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	request := f.create(t, "600")
	_, err := f.service.Calculate(ctx, CalculateParams{ID: request.ID})
	require.NoError(t, err)
	_, err = f.service.Approve(ctx, request.ID, request.CompanyID)
	require.NoError(t, err)
	_, err = f.service.EmitInvoice(ctx, request.ID)
	require.NoError(t, err)
	_, err = f.service.RegisterPayment(ctx, request.ID, "ref")
	require.NoError(t, err)
	_, err = f.service.ExecuteRecharge(ctx, request.ID)
	require.NoError(t, err)

	racing := newRacingService(t, f, enums.BillingStatusCompleted)
	_, err = racing.Complete(ctx, request.ID)
	requireCode(t, err, pkgerrors.CodeTerminalState)

	current, err := f.service.Get(ctx, request.ID, uuid.Nil)
	require.NoError(t, err)
	require.Equal(t, enums.BillingStatusCompleted, current.Status)
}

func TestListByCompanyFiltersAndPaginates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	companyID := uuid.New()
	for i := 0; i < 3; i++ {
		_, err := f.service.Create(ctx, CreateParams{
			CompanyID: companyID,
			Platform:  enums.AdPlatformLinkedIn,
			Amount:    decimal.RequireFromString("50"),
		})
		require.NoError(t, err)
	}
	f.create(t, "50") // different company, must not appear

	rows, cursor, err := f.service.ListByCompany(ctx, ListByCompanyQuery{CompanyID: companyID, Limit: 2})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.NotNil(t, cursor)
	for _, row := range rows {
		require.Equal(t, companyID, row.CompanyID)
	}

	rest, next, err := f.service.ListByCompany(ctx, ListByCompanyQuery{CompanyID: companyID, Limit: 2, Cursor: cursor})
	require.NoError(t, err)
	require.Len(t, rest, 1)
	require.Nil(t, next)
}
