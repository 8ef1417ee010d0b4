package entity

import (
	"time"

	"github.com/google/uuid"
)

// Shop is a merchant, unique by name.
type Shop struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Address   *string   `json:"address,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// HasAddress reports whether a non-empty address is stored.
func (s *Shop) HasAddress() bool {
	return s != nil && s.Address != nil && *s.Address != ""
}
