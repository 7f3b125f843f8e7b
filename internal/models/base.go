package models

import (
	"time"

	"hearth/internal/uuid"

	"gorm.io/gorm"
)

// Base holds the primary key and timestamps every table carries.
type Base struct {
	ID        string    `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BeforeCreate assigns a UUIDv7 unless the caller supplied an ID.
func (b *Base) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.New()
	}
	return nil
}

// SoftDelete hides deleted rows from default queries. Families, categories
// and transactions embed it; budgets and their lines are deleted outright so
// a month can be opened again.
type SoftDelete struct {
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
