package notifier

import (
	"github.com/google/uuid"

	"github.com/davidcarrillo/adfactura-backend/pkg/db/models"
	"github.com/davidcarrillo/adfactura-backend/pkg/enums"
)

// Event is the closed set of notifications the lifecycle emits. Every
// variant carries a full request snapshot; subscribers never need a second
// round trip to render the update.
type Event interface {
	Name() string
	CompanyID() uuid.UUID
	Snapshot() models.RechargeRequest
}

// NewRequest announces a freshly created recharge request to admins.
type NewRequest struct {
	Request models.RechargeRequest
}

func (e NewRequest) Name() string                     { return "new-request" }
func (e NewRequest) CompanyID() uuid.UUID             { return e.Request.CompanyID }
func (e NewRequest) Snapshot() models.RechargeRequest { return e.Request }

// StatusChanged announces a committed transition, including where the
// request came from so clients can animate the step change.
type StatusChanged struct {
	Request  models.RechargeRequest
	Previous enums.BillingStatus
}

func (e StatusChanged) Name() string                     { return "status-changed" }
func (e StatusChanged) CompanyID() uuid.UUID             { return e.Request.CompanyID }
func (e StatusChanged) Snapshot() models.RechargeRequest { return e.Request }

// GenericUpdate covers non-transition changes, such as a revised calculation
// while the request still sits in the calculated stage.
type GenericUpdate struct {
	Request models.RechargeRequest
}

func (e GenericUpdate) Name() string                     { return "generic-update" }
func (e GenericUpdate) CompanyID() uuid.UUID             { return e.Request.CompanyID }
func (e GenericUpdate) Snapshot() models.RechargeRequest { return e.Request }
