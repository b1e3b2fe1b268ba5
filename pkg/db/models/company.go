package models

import (
	"time"

	"github.com/google/uuid"
)

// Company owns recharge requests. RUC is the local tax registration number;
// a request may only be created once it has been confirmed.
type Company struct {
	ID             uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	Name           string     `gorm:"column:name;not null"`
	ContactEmail   string     `gorm:"column:contact_email;not null"`
	RUC            *string    `gorm:"column:ruc;unique"`
	RUCConfirmedAt *time.Time `gorm:"column:ruc_confirmed_at"`
	CreatedAt      time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

// TaxRegistrationConnected reports whether the creation precondition holds.
func (c Company) TaxRegistrationConnected() bool {
	return c.RUC != nil && *c.RUC != "" && c.RUCConfirmedAt != nil
}
