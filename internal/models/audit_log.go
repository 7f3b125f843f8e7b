package models

// AuditLog is an append-only record of a change made through the API.
// ResourceID is nil for batch operations that touch many rows.
type AuditLog struct {
	Base
	FamilyID     string  `gorm:"type:uuid;not null;index" json:"family_id"`
	Action       string  `gorm:"not null" json:"action"`
	ResourceType string  `gorm:"not null" json:"resource_type"`
	ResourceID   *string `gorm:"type:uuid" json:"resource_id,omitempty"`
	IPAddress    string  `json:"ip_address"`
	Changes      string  `json:"changes,omitempty"`
}
