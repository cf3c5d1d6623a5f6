package shared

import "time"

// Model carries the integer primary key and timestamps shared by every
// persisted entity. Primary keys are integers because the public URLs
// address objects with <int:pk> segments.
type Model struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// GetID returns the entity ID
func (m *Model) GetID() uint {
	return m.ID
}

// IsNew reports whether the entity has not been persisted yet
func (m *Model) IsNew() bool {
	return m.ID == 0
}
