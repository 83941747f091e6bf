package domain

import "time"

// AuditFields holds standard audit information embedded in every domain entity.
// Actor references are free-form strings supplied by the presentation layer.
type AuditFields struct {
	CreatedAt     time.Time `json:"createdAt"`
	CreatedBy     string    `json:"createdBy"`
	LastUpdatedAt time.Time `json:"lastUpdatedAt"`
	LastUpdatedBy string    `json:"lastUpdatedBy"`
}
