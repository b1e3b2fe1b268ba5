package models

import "time"

// InvoiceSequence is a single-row monotonic counter bumped inside the
// invoicing transaction so invoice numbers never repeat or go backwards.
type InvoiceSequence struct {
	ID        int       `gorm:"column:id;primaryKey"`
	NextValue int64     `gorm:"column:next_value;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
