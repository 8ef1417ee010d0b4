package entity

import (
	"time"

	"github.com/google/uuid"
)

// Category represents a category for data transfer between layers.
type Category struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	ItemCount int       `json:"item_count"`
	CreatedAt time.Time `json:"created_at"`
}
