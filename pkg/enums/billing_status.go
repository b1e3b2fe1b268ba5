package enums

import "fmt"

// BillingStatus maps to the billing_status enum in Postgres. The happy path
// is a strict total order; error is an absorbing failure state reachable from
// any non-terminal status.
type BillingStatus string

const (
	BillingStatusRequestCreated   BillingStatus = "request_created"
	BillingStatusCalculated       BillingStatus = "calculated"
	BillingStatusApprovedByClient BillingStatus = "approved_by_client"
	BillingStatusInvoiced         BillingStatus = "invoiced"
	BillingStatusPaid             BillingStatus = "paid"
	BillingStatusRechargeExecuted BillingStatus = "recharge_executed"
	BillingStatusCompleted        BillingStatus = "completed"
	BillingStatusError            BillingStatus = "error"
)

var validBillingStatuses = []BillingStatus{
	BillingStatusRequestCreated,
	BillingStatusCalculated,
	BillingStatusApprovedByClient,
	BillingStatusInvoiced,
	BillingStatusPaid,
	BillingStatusRechargeExecuted,
	BillingStatusCompleted,
	BillingStatusError,
}

// billingStatusRank encodes the happy-path order. Error has no rank.
var billingStatusRank = map[BillingStatus]int{
	BillingStatusRequestCreated:   0,
	BillingStatusCalculated:       1,
	BillingStatusApprovedByClient: 2,
	BillingStatusInvoiced:         3,
	BillingStatusPaid:             4,
	BillingStatusRechargeExecuted: 5,
	BillingStatusCompleted:        6,
}

// PendingBillingStatuses lists the stages that count as open work for the
// admin dashboard, in pipeline order.
var PendingBillingStatuses = []BillingStatus{
	BillingStatusRequestCreated,
	BillingStatusCalculated,
	BillingStatusApprovedByClient,
	BillingStatusInvoiced,
	BillingStatusPaid,
	BillingStatusRechargeExecuted,
}

// String implements fmt.Stringer.
func (b BillingStatus) String() string {
	return string(b)
}

// IsValid reports whether the value is known.
func (b BillingStatus) IsValid() bool {
	for _, candidate := range validBillingStatuses {
		if candidate == b {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions are permitted.
func (b BillingStatus) IsTerminal() bool {
	return b == BillingStatusCompleted || b == BillingStatusError
}

// Rank returns the happy-path position of the status. Error and unknown
// values report ok=false.
func (b BillingStatus) Rank() (int, bool) {
	rank, ok := billingStatusRank[b]
	return rank, ok
}

// ParseBillingStatus converts raw input into a BillingStatus.
func ParseBillingStatus(value string) (BillingStatus, error) {
	for _, candidate := range validBillingStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid billing status %q", value)
}
