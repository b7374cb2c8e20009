package v1

import (
	"time"

	"github.com/google/uuid"
)

// CreateIncidentRequest DTO для регистрации инцидента
// @Description DTO для регистрации инцидента
type CreateIncidentRequest struct {
	Title      string     `json:"title,omitempty" validate:"omitempty,max=255"`
	Latitude   float64    `json:"latitude" validate:"required,latitude"`
	Longitude  float64    `json:"longitude" validate:"required,longitude"`
	MediaRefs  []string   `json:"media_refs,omitempty" validate:"omitempty,dive,min=1"`
	OccurredAt *time.Time `json:"occurred_at,omitempty"`
}

// AssignResponderRequest DTO для назначения респондента
// @Description DTO для назначения респондента на инцидент
type AssignResponderRequest struct {
	ResponderID string `json:"responder_id" validate:"required,uuid4"`
}

// AddressResponse DTO адреса инцидента
// @Description DTO адреса инцидента
type AddressResponse struct {
	Street     string `json:"street,omitempty"`
	City       string `json:"city,omitempty"`
	State      string `json:"state,omitempty"`
	LGA        string `json:"lga,omitempty"`
	Country    string `json:"country,omitempty"`
	PostalCode string `json:"postal_code,omitempty"`
}

// AssignmentResponse DTO назначения респондента
// @Description DTO назначения респондента
type AssignmentResponse struct {
	ID          uuid.UUID `json:"id"`
	ResponderID uuid.UUID `json:"responder_id"`
	Tier        string    `json:"tier"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
}

// IncidentResponse DTO для ответа с информацией об инциденте
// @Description DTO для ответа с информацией об инциденте
type IncidentResponse struct {
	ID          uuid.UUID             `json:"id"`
	RefCode     string                `json:"ref_code"`
	Title       string                `json:"title,omitempty"`
	Type        string                `json:"type"`
	Status      string                `json:"status"`
	Confidence  *float64              `json:"confidence,omitempty"`
	Latitude    float64               `json:"latitude"`
	Longitude   float64               `json:"longitude"`
	Address     *AddressResponse      `json:"address,omitempty"`
	MediaRefs   []string              `json:"media_refs,omitempty"`
	ReporterID  uuid.UUID             `json:"reporter_id"`
	OccurredAt  time.Time             `json:"occurred_at"`
	Assignments []*AssignmentResponse `json:"assignments,omitempty"`
	CreatedAt   time.Time             `json:"created_at"`
	UpdatedAt   time.Time             `json:"updated_at"`
}

// NotificationResponse DTO для ответа с in-app уведомлением
// @Description DTO для ответа с in-app уведомлением
type NotificationResponse struct {
	ID         uuid.UUID  `json:"id"`
	Title      string     `json:"title"`
	Body       string     `json:"body"`
	TargetID   *uuid.UUID `json:"target_id,omitempty"`
	TargetType string     `json:"target_type,omitempty"`
	ReadAt     *time.Time `json:"read_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}
