package models

// Family owns categories, budgets and transactions. Every amount a family
// records is in its Currency.
type Family struct {
	Base
	SoftDelete
	Name     string `gorm:"not null" json:"name"`
	Currency string `gorm:"size:3;not null;default:'USD'" json:"currency"`

	// Relationships
	Categories []Category `gorm:"foreignKey:FamilyID" json:"categories,omitempty"`
	Budgets    []Budget   `gorm:"foreignKey:FamilyID" json:"budgets,omitempty"`
}
