package models

import (
	"time"

	"github.com/google/uuid"
)

// IncidentStatus - статус жизненного цикла инцидента
type IncidentStatus string

const (
	StatusPending    IncidentStatus = "pending"
	StatusAnalyzed   IncidentStatus = "analyzed"
	StatusInvalid    IncidentStatus = "invalid"
	StatusReported   IncidentStatus = "reported"
	StatusInProgress IncidentStatus = "in_progress"
	StatusResolved   IncidentStatus = "resolved"
	StatusEscalated  IncidentStatus = "escalated"
	StatusCancelled  IncidentStatus = "cancelled"
)

// IsTerminal сообщает, является ли статус конечным
func (s IncidentStatus) IsTerminal() bool {
	switch s {
	case StatusResolved, StatusCancelled, StatusInvalid:
		return true
	}
	return false
}

// IncidentType - категория инцидента, определяемая классификатором
type IncidentType string

const (
	TypeUnknown  IncidentType = "unknown"
	TypeFire     IncidentType = "fire"
	TypeFlood    IncidentType = "flood"
	TypeMedical  IncidentType = "medical"
	TypeAccident IncidentType = "accident"
	TypeCrime    IncidentType = "crime"
)

// Address - адрес, полученный обратным геокодированием.
// Все поля опциональны: геокодер может не вернуть ничего.
type Address struct {
	Street     string `json:"street,omitempty"`
	City       string `json:"city,omitempty"`
	State      string `json:"state,omitempty"`
	LGA        string `json:"lga,omitempty"`
	Country    string `json:"country,omitempty"`
	PostalCode string `json:"postal_code,omitempty"`
}

// Incident - зарегистрированный инцидент
type Incident struct {
	ID          uuid.UUID      `json:"id"`
	RefCode     string         `json:"ref_code"`
	Title       string         `json:"title,omitempty"`
	Type        IncidentType   `json:"type"`
	Status      IncidentStatus `json:"status"`
	Confidence  *float64       `json:"confidence,omitempty"`
	Latitude    float64        `json:"latitude"`
	Longitude   float64        `json:"longitude"`
	Address     *Address       `json:"address,omitempty"`
	MediaRefs   []string       `json:"media_refs,omitempty"`
	ReporterID  uuid.UUID      `json:"reporter_id"`
	OccurredAt  time.Time      `json:"occurred_at"`
	Assignments []*Assignment  `json:"assignments,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// PrimaryMediaRef возвращает первый прикрепленный медиафайл или пустую строку
func (i *Incident) PrimaryMediaRef() string {
	if len(i.MediaRefs) == 0 {
		return ""
	}
	return i.MediaRefs[0]
}

// ActiveAssignmentCount возвращает количество активных назначений
func (i *Incident) ActiveAssignmentCount() int {
	count := 0
	for _, a := range i.Assignments {
		if a.Active {
			count++
		}
	}
	return count
}

// HasActiveAssignment сообщает, есть ли у респондента активное назначение на инцидент
func (i *Incident) HasActiveAssignment(responderID uuid.UUID) bool {
	for _, a := range i.Assignments {
		if a.Active && a.ResponderID == responderID {
			return true
		}
	}
	return false
}

// AssignmentTier - роль респондента в рамках инцидента
type AssignmentTier string

const (
	TierPrimary AssignmentTier = "primary"
	TierSupport AssignmentTier = "support"
	TierBackup  AssignmentTier = "backup"
)

// Assignment - связь инцидента и респондента
type Assignment struct {
	ID          uuid.UUID      `json:"id"`
	IncidentID  uuid.UUID      `json:"incident_id"`
	ResponderID uuid.UUID      `json:"responder_id"`
	Tier        AssignmentTier `json:"tier"`
	Active      bool           `json:"active"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}
