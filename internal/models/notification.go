package models

import (
	"time"

	"github.com/google/uuid"
)

// Notification - сохраненное in-app уведомление
type Notification struct {
	ID          uuid.UUID  `json:"id"`
	RecipientID uuid.UUID  `json:"recipient_id"`
	Title       string     `json:"title"`
	Body        string     `json:"body"`
	TargetID    *uuid.UUID `json:"target_id,omitempty"`
	TargetType  string     `json:"target_type,omitempty"`
	ReadAt      *time.Time `json:"read_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}
